// Package accounts is the Account Store: lookups, creation and the
// field-level updates the session logic performs on user_info rows.
package accounts

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository is the persistence contract consumed by the session service.
// Every method is a single statement; none of them spans a transaction.
type Repository interface {
	// FindByEmail, FindByName and FindByNo return common.ErrorNotFound
	// when no row matches.
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByName(ctx context.Context, name string) (*models.Account, error)
	FindByNo(ctx context.Context, no int64) (*models.Account, error)

	// Create inserts a new account and returns the stored row. A duplicate
	// email or name yields a *ConstraintError.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)

	// UpdateRefreshToken overwrites the refresh-token slot; nil clears it.
	UpdateRefreshToken(ctx context.Context, no int64, token *string) (*models.Account, error)

	// SwapRefreshToken replaces the slot only while it still holds expected.
	// When it does not, common.ErrStaleRefreshToken is returned.
	SwapRefreshToken(ctx context.Context, no int64, expected, next string) (*models.Account, error)

	UpdatePasswordHash(ctx context.Context, no int64, hash string) (*models.Account, error)
	UpdateLastLoginTimestamp(ctx context.Context, no int64) (*models.Account, error)
}

// Columns guarded by a UNIQUE constraint.
const (
	FieldEmail = "eml_addr"
	FieldName  = "user_nm"
)

// ConstraintError reports which unique column a write collided on.
type ConstraintError struct {
	Field string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s: %s already exists", common.ErrConstraintViolation, e.Field)
}

func (e *ConstraintError) Unwrap() error { return common.ErrConstraintViolation }
