// Package common defines shared constants and sentinel errors used across
// the server, the transport and the CLI client. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound          = errors.New("not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrStaleRefreshToken   = errors.New("stored refresh token changed")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Configuration errors.
	ErrMissingSecret = errors.New("token secret is not configured")
	ErrInvalidTTL    = errors.New("token ttl must be positive")
)
