// Package services holds the session logic: sign-up, sign-in, token
// rotation, session lookup and password management over an account store.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/mail"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/accounts"
	"github.com/samber/oops"
)

const (
	MinPasswordLength = 8
	// MaxPasswordBytes is bcrypt's input limit; longer passwords are
	// rejected rather than truncated.
	MaxPasswordBytes = 72
	MaxNameLength    = 50
)

// Operation names used in logs and metrics.
const (
	OpSignUp         = "signup"
	OpSignIn         = "signin"
	OpRefreshToken   = "refresh_token"
	OpGetSession     = "get_session"
	OpResetPassword  = "reset_password"
	OpChangePassword = "change_password"
)

// OutcomeOK is the metrics outcome of a successful operation; failures
// report their Kind.
const OutcomeOK = "ok"

// TokenCodec issues and verifies the signed access and refresh tokens.
type TokenCodec interface {
	IssueAccessToken(auth.AccessClaims) (string, error)
	IssueRefreshToken(auth.RefreshClaims) (string, error)
	VerifyAccessToken(token string) (auth.AccessClaims, bool)
	VerifyRefreshToken(token string) (auth.RefreshClaims, bool)
}

// PasswordHasher turns passwords into stored digests and checks them back.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// MetricsRecorder receives one observation per finished operation.
type MetricsRecorder interface {
	ObserveAuth(operation, outcome string, elapsed time.Duration)
}

// TokenPair is a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Session is what sign-up and sign-in hand back: the account as last
// written plus a fresh token pair.
type Session struct {
	Account *models.Account
	TokenPair
}

// SignUpInput carries the fields of a registration request.
type SignUpInput struct {
	Email    string
	Name     string
	Password string
	// Role defaults to USER when empty.
	Role models.Role
}

// Option configures an AuthService.
type Option func(*AuthService)

// WithMetrics reports every finished operation to m.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *AuthService) { s.metrics = m }
}

// AuthService is safe for concurrent use; all shared state lives in the store.
type AuthService struct {
	store   accounts.Repository
	codec   TokenCodec
	hasher  PasswordHasher
	logger  logging.Logger
	metrics MetricsRecorder
}

func NewAuthService(store accounts.Repository, codec TokenCodec, hasher PasswordHasher, logger logging.Logger, opts ...Option) *AuthService {
	s := &AuthService{
		store:  store,
		codec:  codec,
		hasher: hasher,
		logger: logger.With("module", "auth"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SignUp registers a new account and opens a session for it.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (sess *Session, err error) {
	defer s.observe(OpSignUp, time.Now(), &err)

	if err = validateEmail(in.Email); err != nil {
		return nil, err
	}
	if err = validateName(in.Name); err != nil {
		return nil, err
	}
	if err = validatePassword(in.Password); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, invalidInput("unknown role")
	}

	if _, err = s.store.FindByEmail(ctx, in.Email); err == nil {
		return nil, s.reject(ctx, OpSignUp, ErrDuplicateEmail)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, s.internal(ctx, OpSignUp, "find by email", err)
	}
	if _, err = s.store.FindByName(ctx, in.Name); err == nil {
		return nil, s.reject(ctx, OpSignUp, ErrDuplicateName)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, s.internal(ctx, OpSignUp, "find by name", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, s.internal(ctx, OpSignUp, "hash password", err)
	}

	created, err := s.store.Create(ctx, &models.Account{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Role:         role,
		UseYn:        models.Yes,
		DelYn:        models.No,
	})
	if err != nil {
		// Lost the race against a concurrent sign-up.
		var ce *accounts.ConstraintError
		if errors.As(err, &ce) {
			switch ce.Field {
			case accounts.FieldEmail:
				return nil, s.reject(ctx, OpSignUp, ErrDuplicateEmail)
			case accounts.FieldName:
				return nil, s.reject(ctx, OpSignUp, ErrDuplicateName)
			}
		}
		return nil, s.internal(ctx, OpSignUp, "create account", err)
	}

	sess, err = s.openSession(ctx, OpSignUp, created)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "account registered", "account_no", created.No)
	return sess, nil
}

// SignIn checks credentials and opens a session. An unknown email and a
// wrong password produce the same error.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (sess *Session, err error) {
	defer s.observe(OpSignIn, time.Now(), &err)

	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, s.reject(ctx, OpSignIn, ErrInvalidCredentials)
		}
		return nil, s.internal(ctx, OpSignIn, "find by email", err)
	}
	if err = s.gate(ctx, OpSignIn, account); err != nil {
		return nil, err
	}
	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, s.reject(ctx, OpSignIn, ErrInvalidCredentials, "account_no", account.No)
	}

	sess, err = s.openSession(ctx, OpSignIn, account)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateLastLoginTimestamp(ctx, account.No)
	if err != nil {
		return nil, s.internal(ctx, OpSignIn, "update last login", err)
	}
	sess.Account = updated
	return sess, nil
}

// RefreshToken rotates the refresh token. The presented token must be the
// one currently stored; the replacement is a compare-and-swap so only one
// of several concurrent callers presenting the same token wins.
func (s *AuthService) RefreshToken(ctx context.Context, presented string) (pair *TokenPair, err error) {
	defer s.observe(OpRefreshToken, time.Now(), &err)

	claims, ok := s.codec.VerifyRefreshToken(presented)
	if !ok {
		return nil, s.reject(ctx, OpRefreshToken, ErrInvalidRefreshToken)
	}

	account, err := s.findByNo(ctx, OpRefreshToken, claims.AccountNo)
	if err != nil {
		return nil, err
	}
	if account.RefreshToken == nil ||
		subtle.ConstantTimeCompare([]byte(*account.RefreshToken), []byte(presented)) != 1 {
		return nil, s.reject(ctx, OpRefreshToken, ErrInvalidRefreshToken, "account_no", account.No, "reason", "superseded")
	}
	if err = s.gate(ctx, OpRefreshToken, account); err != nil {
		return nil, err
	}

	pair, err = s.issuePair(ctx, OpRefreshToken, account)
	if err != nil {
		return nil, err
	}
	if _, err = s.store.SwapRefreshToken(ctx, account.No, presented, pair.RefreshToken); err != nil {
		if errors.Is(err, common.ErrStaleRefreshToken) {
			return nil, s.reject(ctx, OpRefreshToken, ErrInvalidRefreshToken, "account_no", account.No, "reason", "rotated concurrently")
		}
		return nil, s.internal(ctx, OpRefreshToken, "swap refresh token", err)
	}
	return pair, nil
}

// GetSession resolves an access token to its account. The returned record
// is complete; callers redact it before sending it anywhere.
func (s *AuthService) GetSession(ctx context.Context, accessToken string) (account *models.Account, err error) {
	defer s.observe(OpGetSession, time.Now(), &err)

	claims, ok := s.codec.VerifyAccessToken(accessToken)
	if !ok {
		return nil, s.reject(ctx, OpGetSession, ErrInvalidAccessToken)
	}
	account, err = s.findByNo(ctx, OpGetSession, claims.AccountNo)
	if err != nil {
		return nil, err
	}
	if err = s.gate(ctx, OpGetSession, account); err != nil {
		return nil, err
	}
	return account, nil
}

// ResetPassword sets a new password for the account registered under
// email. Only deleted accounts are refused; disabled ones may reset.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string) (account *models.Account, err error) {
	defer s.observe(OpResetPassword, time.Now(), &err)

	if err = validatePassword(newPassword); err != nil {
		return nil, err
	}

	account, err = s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, s.reject(ctx, OpResetPassword, ErrAccountNotFound)
		}
		return nil, s.internal(ctx, OpResetPassword, "find by email", err)
	}
	if account.IsDeleted() {
		return nil, s.reject(ctx, OpResetPassword, ErrAccountDeleted, "account_no", account.No)
	}

	account, err = s.storePassword(ctx, OpResetPassword, account.No, newPassword)
	if err != nil {
		return nil, err
	}
	// Nothing proves the caller controls the mailbox.
	s.logger.Warn(ctx, "password reset without possession check", "account_no", account.No)
	return account, nil
}

// ChangePassword replaces the password after checking the current one.
// A wrong current password leaves the stored hash untouched.
func (s *AuthService) ChangePassword(ctx context.Context, accountNo int64, current, next string) (account *models.Account, err error) {
	defer s.observe(OpChangePassword, time.Now(), &err)

	if err = validatePassword(next); err != nil {
		return nil, err
	}

	account, err = s.findByNo(ctx, OpChangePassword, accountNo)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(current, account.PasswordHash) {
		return nil, s.reject(ctx, OpChangePassword, ErrInvalidCurrentPassword, "account_no", account.No)
	}

	account, err = s.storePassword(ctx, OpChangePassword, account.No, next)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "password changed", "account_no", account.No)
	return account, nil
}

// gate rejects deleted accounts, then disabled ones.
func (s *AuthService) gate(ctx context.Context, op string, a *models.Account) error {
	if a.IsDeleted() {
		return s.reject(ctx, op, ErrAccountDeleted, "account_no", a.No)
	}
	if a.IsDisabled() {
		return s.reject(ctx, op, ErrAccountDisabled, "account_no", a.No)
	}
	return nil
}

func (s *AuthService) findByNo(ctx context.Context, op string, no int64) (*models.Account, error) {
	account, err := s.store.FindByNo(ctx, no)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, s.reject(ctx, op, ErrAccountNotFound, "account_no", no)
		}
		return nil, s.internal(ctx, op, "find by no", err)
	}
	return account, nil
}

func (s *AuthService) issuePair(ctx context.Context, op string, a *models.Account) (*TokenPair, error) {
	access, err := s.codec.IssueAccessToken(auth.AccessClaims{AccountNo: a.No, Email: a.Email, Role: a.Role})
	if err != nil {
		return nil, s.internal(ctx, op, "issue access token", err)
	}
	refresh, err := s.codec.IssueRefreshToken(auth.RefreshClaims{AccountNo: a.No})
	if err != nil {
		return nil, s.internal(ctx, op, "issue refresh token", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// openSession issues a pair and stores its refresh token in the
// account's single slot.
func (s *AuthService) openSession(ctx context.Context, op string, a *models.Account) (*Session, error) {
	pair, err := s.issuePair(ctx, op, a)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateRefreshToken(ctx, a.No, &pair.RefreshToken)
	if err != nil {
		return nil, s.internal(ctx, op, "store refresh token", err)
	}
	return &Session{Account: updated, TokenPair: *pair}, nil
}

func (s *AuthService) storePassword(ctx context.Context, op string, no int64, plain string) (*models.Account, error) {
	hash, err := s.hasher.Hash(plain)
	if err != nil {
		return nil, s.internal(ctx, op, "hash password", err)
	}
	account, err := s.store.UpdatePasswordHash(ctx, no, hash)
	if err != nil {
		return nil, s.internal(ctx, op, "update password hash", err)
	}
	return account, nil
}

func (s *AuthService) reject(ctx context.Context, op string, e *AuthError, args ...any) error {
	s.logger.Info(ctx, "auth rejected", append([]any{"operation", op, "kind", string(e.Kind)}, args...)...)
	return e
}

func (s *AuthService) internal(ctx context.Context, op, step string, err error) error {
	s.logger.Error(ctx, "auth failed", "operation", op, "step", step, "error", err)
	return oops.
		Code("INTERNAL_ERROR").
		In("auth").
		With("operation", op).
		With("step", step).
		Wrap(err)
}

func (s *AuthService) observe(op string, start time.Time, err *error) {
	if s.metrics == nil {
		return
	}
	outcome := OutcomeOK
	if *err != nil {
		outcome = string(KindOf(*err))
	}
	s.metrics.ObserveAuth(op, outcome, time.Since(start))
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalidInput("email is not a valid address")
	}
	return nil
}

func validateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < 1 || n > MaxNameLength {
		return invalidInput("user name must be 1 to 50 characters")
	}
	return nil
}

func validatePassword(p string) error {
	if utf8.RuneCountInString(p) < MinPasswordLength {
		return invalidInput("password must be at least 8 characters")
	}
	if len(p) > MaxPasswordBytes {
		return invalidInput("password must be at most 72 bytes")
	}
	return nil
}
