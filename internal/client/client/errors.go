package client

import (
	"errors"

	"google.golang.org/grpc/codes"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoSession    = errors.New("not signed in")
)

// RemoteError is a rejection returned by the server. Unauthenticated
// rejections unwrap to ErrUnauthorized.
type RemoteError struct {
	Code    codes.Code
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	if e.Code == codes.Unauthenticated {
		return ErrUnauthorized
	}
	return nil
}
