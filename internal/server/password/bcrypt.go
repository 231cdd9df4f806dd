// Package password hashes and verifies account passwords with bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used for every stored hash.
// Raising it only affects hashes written afterwards; Verify reads the cost
// from the digest itself.
const DefaultCost = 10

// MaxBytes is the longest password Hash accepts, counted in bytes.
const MaxBytes = 72

// ErrEmptyPassword is returned when asked to hash an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// Hasher is a bcrypt-backed password hasher.
type Hasher struct {
	cost int
}

// NewBcryptHasher returns a Hasher with the given cost, clamped to the
// range bcrypt accepts.
func NewBcryptHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// NewHasher returns a Hasher using DefaultCost.
func NewHasher() *Hasher {
	return NewBcryptHasher(DefaultCost)
}

// Hash returns the bcrypt digest of plain. Inputs over MaxBytes fail with
// bcrypt.ErrPasswordTooLong.
func (h *Hasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plain matches digest. A malformed digest is
// reported as a mismatch.
func (h *Hasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

// Cost returns the work factor new hashes are written with.
func (h *Hasher) Cost() int { return h.cost }
