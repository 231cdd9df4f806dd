// Package models defines server-side data models persisted in the database.
package models

import "time"

// Role is the account role. It is stored and echoed, never enforced.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// YN is the Y/N flag type used by the lifecycle columns.
type YN string

const (
	Yes YN = "Y"
	No  YN = "N"
)

// Account is a row of user_info.
//
// Timestamps are RFC 3339 UTC strings; only CreatedAt and UpdatedAt are
// always set. RefreshToken is nil when the account has no active session.
type Account struct {
	No           int64   `db:"user_no" json:"userNo"`
	Email        string  `db:"eml_addr" json:"emlAddr"`
	Name         string  `db:"user_nm" json:"userNm"`
	PasswordHash string  `db:"encpt_pswd" json:"-"`
	RefreshToken *string `db:"resh_token" json:"-"`
	Role         Role    `db:"user_role" json:"userRole"`
	ProfileImage *string `db:"profl_img" json:"proflImg"`
	Bio          *string `db:"user_biogp" json:"userBiogp"`

	UseYn YN `db:"use_yn" json:"useYn"`
	DelYn YN `db:"del_yn" json:"delYn"`

	LastLoginAt          *string `db:"last_lgn_dt" json:"lastLgnDt"`
	LastPasswordChangeAt *string `db:"last_pswd_chg_dt" json:"lastPswdChgDt"`

	CreatedBy *int64  `db:"crt_no" json:"crtNo"`
	CreatedAt string  `db:"crt_dt" json:"crtDt"`
	UpdatedBy *int64  `db:"updt_no" json:"updtNo"`
	UpdatedAt string  `db:"updt_dt" json:"updtDt"`
	DeletedBy *int64  `db:"del_no" json:"delNo"`
	DeletedAt *string `db:"del_dt" json:"delDt"`
}

// IsDeleted reports a soft-deleted account.
func (a *Account) IsDeleted() bool { return a.DelYn == Yes }

// IsDisabled reports an account switched off by an operator.
func (a *Account) IsDisabled() bool { return a.UseYn == No }

// Redacted returns a copy safe to hand to a client: no password hash and
// no refresh token.
func (a *Account) Redacted() *Account {
	c := *a
	c.PasswordHash = ""
	c.RefreshToken = nil
	return &c
}

// Timestamp formats t the way every audit column stores it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
