package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

const accountColumns = `user_no, eml_addr, user_nm, encpt_pswd, resh_token, user_role,
		profl_img, user_biogp, use_yn, del_yn, last_lgn_dt, last_pswd_chg_dt,
		crt_no, crt_dt, updt_no, updt_dt, del_no, del_dt`

// now is a seam for tests that need fixed audit timestamps.
var now = time.Now

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	a := &models.Account{}
	err := row.Scan(
		&a.No, &a.Email, &a.Name, &a.PasswordHash, &a.RefreshToken, &a.Role,
		&a.ProfileImage, &a.Bio, &a.UseYn, &a.DelYn, &a.LastLoginAt, &a.LastPasswordChangeAt,
		&a.CreatedBy, &a.CreatedAt, &a.UpdatedBy, &a.UpdatedAt, &a.DeletedBy, &a.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) findBy(ctx context.Context, column string, value any) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM user_info WHERE ` + column + ` = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, value))
}

// FindByEmail returns the account registered under email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findBy(ctx, "eml_addr", email)
}

// FindByName returns the account with the given display name.
func (r *PostgresRepository) FindByName(ctx context.Context, name string) (*models.Account, error) {
	return r.findBy(ctx, "user_nm", name)
}

// FindByNo returns the account with the given number.
func (r *PostgresRepository) FindByNo(ctx context.Context, no int64) (*models.Account, error) {
	return r.findBy(ctx, "user_no", no)
}

// Create inserts account. Role, UseYn and DelYn default to USER, Y and N.
func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := `INSERT INTO user_info (eml_addr, user_nm, encpt_pswd, user_role, use_yn, del_yn, crt_dt, updt_dt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING ` + accountColumns

	role, useYn, delYn := account.Role, account.UseYn, account.DelYn
	if role == "" {
		role = models.RoleUser
	}
	if useYn == "" {
		useYn = models.Yes
	}
	if delYn == "" {
		delYn = models.No
	}

	created, err := scanAccount(r.db.QueryRowContext(ctx, query,
		account.Email, account.Name, account.PasswordHash, role, useYn, delYn, models.Timestamp(now())))
	if err != nil {
		if ce := constraintError(err); ce != nil {
			return nil, ce
		}
		return nil, err
	}
	return created, nil
}

// UpdateRefreshToken overwrites resh_token.
func (r *PostgresRepository) UpdateRefreshToken(ctx context.Context, no int64, token *string) (*models.Account, error) {
	query := `UPDATE user_info SET resh_token = $2, updt_no = $1, updt_dt = $3
		WHERE user_no = $1
		RETURNING ` + accountColumns

	return scanAccount(r.db.QueryRowContext(ctx, query, no, token, models.Timestamp(now())))
}

// SwapRefreshToken overwrites resh_token only while it equals expected.
func (r *PostgresRepository) SwapRefreshToken(ctx context.Context, no int64, expected, next string) (*models.Account, error) {
	query := `UPDATE user_info SET resh_token = $3, updt_no = $1, updt_dt = $4
		WHERE user_no = $1 AND resh_token = $2
		RETURNING ` + accountColumns

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, no, expected, next, models.Timestamp(now())))
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrStaleRefreshToken
	}
	return a, err
}

// UpdatePasswordHash stores a new hash and stamps last_pswd_chg_dt.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, no int64, hash string) (*models.Account, error) {
	query := `UPDATE user_info SET encpt_pswd = $2, last_pswd_chg_dt = $3, updt_no = $1, updt_dt = $3
		WHERE user_no = $1
		RETURNING ` + accountColumns

	return scanAccount(r.db.QueryRowContext(ctx, query, no, hash, models.Timestamp(now())))
}

// UpdateLastLoginTimestamp stamps last_lgn_dt with the current time.
func (r *PostgresRepository) UpdateLastLoginTimestamp(ctx context.Context, no int64) (*models.Account, error) {
	query := `UPDATE user_info SET last_lgn_dt = $2, updt_no = $1, updt_dt = $2
		WHERE user_no = $1
		RETURNING ` + accountColumns

	return scanAccount(r.db.QueryRowContext(ctx, query, no, models.Timestamp(now())))
}

// constraintError turns a unique violation into a *ConstraintError naming
// the column involved; other errors yield nil.
func constraintError(err error) *ConstraintError {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return nil
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, FieldEmail):
		return &ConstraintError{Field: FieldEmail}
	case strings.Contains(pgErr.ConstraintName, FieldName):
		return &ConstraintError{Field: FieldName}
	default:
		return &ConstraintError{Field: pgErr.ConstraintName}
	}
}
