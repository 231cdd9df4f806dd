// Package auth issues and verifies the signed session tokens: short-lived
// access tokens and longer-lived refresh tokens, each with its own HMAC
// secret and lifetime.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// AccessClaims is the identity carried by an access token.
type AccessClaims struct {
	AccountNo int64
	Email     string
	Role      models.Role
}

// RefreshClaims is the identity carried by a refresh token.
type RefreshClaims struct {
	AccountNo int64
}

type accessTokenClaims struct {
	jwt.RegisteredClaims
	UserNo   int64       `json:"userNo"`
	EmlAddr  string      `json:"emlAddr"`
	UserRole models.Role `json:"userRole"`
}

type refreshTokenClaims struct {
	jwt.RegisteredClaims
	UserNo int64 `json:"userNo"`
}

// Options configures a Codec. Secrets are required; zero TTLs fall back to
// DefaultAccessTTL / DefaultRefreshTTL. Now defaults to time.Now.
type Options struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	Now           func() time.Time
}

// Codec signs and verifies HS256 JWTs. It is safe for concurrent use.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewCodec validates opts and returns a ready Codec.
func NewCodec(opts Options) (*Codec, error) {
	if opts.AccessSecret == "" || opts.RefreshSecret == "" {
		return nil, common.ErrMissingSecret
	}
	if opts.AccessTTL < 0 || opts.RefreshTTL < 0 {
		return nil, common.ErrInvalidTTL
	}
	if opts.AccessTTL == 0 {
		opts.AccessTTL = DefaultAccessTTL
	}
	if opts.RefreshTTL == 0 {
		opts.RefreshTTL = DefaultRefreshTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Codec{
		accessSecret:  []byte(opts.AccessSecret),
		refreshSecret: []byte(opts.RefreshSecret),
		accessTTL:     opts.AccessTTL,
		refreshTTL:    opts.RefreshTTL,
		now:           opts.Now,
	}, nil
}

func (c *Codec) registered(accountNo int64, ttl time.Duration) jwt.RegisteredClaims {
	now := c.now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   strconv.FormatInt(accountNo, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// IssueAccessToken signs claims with the access secret.
func (c *Codec) IssueAccessToken(claims AccessClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessTokenClaims{
		RegisteredClaims: c.registered(claims.AccountNo, c.accessTTL),
		UserNo:           claims.AccountNo,
		EmlAddr:          claims.Email,
		UserRole:         claims.Role,
	})
	return token.SignedString(c.accessSecret)
}

// IssueRefreshToken signs claims with the refresh secret.
func (c *Codec) IssueRefreshToken(claims RefreshClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshTokenClaims{
		RegisteredClaims: c.registered(claims.AccountNo, c.refreshTTL),
		UserNo:           claims.AccountNo,
	})
	return token.SignedString(c.refreshSecret)
}

// VerifyAccessToken returns the claims of a valid, unexpired access token.
// Any failure (bad signature, malformed, expired) yields ok == false.
func (c *Codec) VerifyAccessToken(token string) (AccessClaims, bool) {
	claims := &accessTokenClaims{}
	if err := c.parse(token, claims, c.accessSecret); err != nil {
		return AccessClaims{}, false
	}
	return AccessClaims{AccountNo: claims.UserNo, Email: claims.EmlAddr, Role: claims.UserRole}, true
}

// VerifyRefreshToken is VerifyAccessToken for refresh tokens.
func (c *Codec) VerifyRefreshToken(token string) (RefreshClaims, bool) {
	claims := &refreshTokenClaims{}
	if err := c.parse(token, claims, c.refreshSecret); err != nil {
		return RefreshClaims{}, false
	}
	return RefreshClaims{AccountNo: claims.UserNo}, true
}

func (c *Codec) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}
