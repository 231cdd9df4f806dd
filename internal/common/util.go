package common

// WipeByteArray overwrites b with zeros. The CLI uses it to drop passwords
// read from the terminal once they have been sent. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
