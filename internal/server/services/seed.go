package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/accounts"
	"github.com/samber/oops"
)

// SeedAdmin creates an ADMIN account from in unless one with the same
// email already exists. It reports whether a row was created. Run it
// against a transaction-bound store so the check and the insert commit
// together.
func SeedAdmin(ctx context.Context, store accounts.Repository, hasher PasswordHasher, in SignUpInput) (bool, error) {
	if err := validateEmail(in.Email); err != nil {
		return false, err
	}
	if err := validateName(in.Name); err != nil {
		return false, err
	}
	if err := validatePassword(in.Password); err != nil {
		return false, err
	}

	_, err := store.FindByEmail(ctx, in.Email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return false, oops.Code("INTERNAL_ERROR").In("seed").Wrap(err)
	}

	hash, err := hasher.Hash(in.Password)
	if err != nil {
		return false, oops.Code("INTERNAL_ERROR").In("seed").Wrap(err)
	}
	_, err = store.Create(ctx, &models.Account{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		UseYn:        models.Yes,
		DelYn:        models.No,
	})
	if err != nil {
		return false, oops.Code("INTERNAL_ERROR").In("seed").With("email", in.Email).Wrap(err)
	}
	return true, nil
}
