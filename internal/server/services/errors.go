package services

import "errors"

// Kind is the stable category of a rejected auth operation.
type Kind string

const (
	KindDuplicateEmail         Kind = "DuplicateEmail"
	KindDuplicateName          Kind = "DuplicateName"
	KindInvalidCredentials     Kind = "InvalidCredentials"
	KindInvalidCurrentPassword Kind = "InvalidCurrentPassword"
	KindInvalidAccessToken     Kind = "InvalidAccessToken"
	KindInvalidRefreshToken    Kind = "InvalidRefreshToken"
	KindAccountNotFound        Kind = "AccountNotFound"
	KindAccountDeleted         Kind = "AccountDeleted"
	KindAccountDisabled        Kind = "AccountDisabled"
	KindInvalidInput           Kind = "InvalidInput"
	KindInternal               Kind = "InternalError"
)

// AuthError is a domain rejection. Two AuthErrors match under errors.Is
// when their kinds are equal, so callers compare against the Err* values.
type AuthError struct {
	Kind    Kind
	Message string
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

var (
	ErrDuplicateEmail         = &AuthError{Kind: KindDuplicateEmail, Message: "email is already registered"}
	ErrDuplicateName          = &AuthError{Kind: KindDuplicateName, Message: "user name is already taken"}
	ErrInvalidCredentials     = &AuthError{Kind: KindInvalidCredentials, Message: "invalid email or password"}
	ErrInvalidCurrentPassword = &AuthError{Kind: KindInvalidCurrentPassword, Message: "current password is incorrect"}
	ErrInvalidAccessToken     = &AuthError{Kind: KindInvalidAccessToken, Message: "access token is invalid or expired"}
	ErrInvalidRefreshToken    = &AuthError{Kind: KindInvalidRefreshToken, Message: "refresh token is invalid or expired"}
	ErrAccountNotFound        = &AuthError{Kind: KindAccountNotFound, Message: "account not found"}
	ErrAccountDeleted         = &AuthError{Kind: KindAccountDeleted, Message: "account has been deleted"}
	ErrAccountDisabled        = &AuthError{Kind: KindAccountDisabled, Message: "account is disabled"}
	ErrInvalidInput           = &AuthError{Kind: KindInvalidInput, Message: "invalid input"}
)

func invalidInput(msg string) *AuthError {
	return &AuthError{Kind: KindInvalidInput, Message: msg}
}

// KindOf classifies err. Nil yields the empty kind; anything that is not
// an *AuthError is KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}
