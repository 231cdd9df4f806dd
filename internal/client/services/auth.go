// Package services contains application services for the gophauth client.
// This file defines the authentication service: it drives the remote
// account API and keeps the signed-in token pair in the local session
// database between CLI invocations.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/session"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
)

// AuthService defines the account operations exposed by the CLI.
//
// SignUp, SignIn and Refresh persist the issued token pair; Me and
// ChangePassword restore it first and persist it again afterwards, since
// the transport may have rotated it transparently. SignOut forgets the
// local session only.
type AuthService interface {
	SignUp(ctx context.Context, email, name string, password []byte, role string) (*api.Account, error)
	SignIn(ctx context.Context, email string, password []byte) (*api.Account, error)
	Refresh(ctx context.Context) error
	Me(ctx context.Context) (*api.Account, error)
	ResetPassword(ctx context.Context, email string, newPassword []byte) (*api.Account, error)
	ChangePassword(ctx context.Context, currentPassword, newPassword []byte) (*api.Account, error)
	SignOut(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client client.Client
	db     *sql.DB
}

// NewAuthService constructs an AuthService bound to the given API client
// and session database.
func NewAuthService(client client.Client, db *sql.DB) AuthService {
	return &authService{client: client, db: db}
}

func (a *authService) sessionRepo() session.Repository {
	return session.NewSQLiteRepository(a.db)
}

// restore loads the persisted pair into the client. It returns
// client.ErrNoSession when nothing was persisted.
func (a *authService) restore(ctx context.Context) error {
	repo := a.sessionRepo()

	access, _, err := repo.Get(ctx, session.KeyAccessToken)
	if err != nil {
		return err
	}
	refresh, _, err := repo.Get(ctx, session.KeyRefreshToken)
	if err != nil {
		return err
	}
	if access == "" && refresh == "" {
		return client.ErrNoSession
	}

	a.client.SetTokens(access, refresh)
	return nil
}

// persist stores the client's current pair, and email when non-empty, in
// one transaction.
func (a *authService) persist(ctx context.Context, email string) error {
	access, refresh := a.client.Tokens()

	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := session.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, session.KeyAccessToken, access); err != nil {
			return err
		}
		if err := repo.Set(ctx, session.KeyRefreshToken, refresh); err != nil {
			return err
		}
		if email != "" {
			return repo.Set(ctx, session.KeyEmail, email)
		}
		return nil
	})
}

func (a *authService) SignUp(ctx context.Context, email, name string, password []byte, role string) (*api.Account, error) {
	acc, err := a.client.SignUp(ctx, email, name, string(password), role)
	if err != nil {
		return nil, err
	}

	if err := a.persist(ctx, acc.Email); err != nil {
		return nil, fmt.Errorf("save session error: %w", err)
	}
	return acc, nil
}

func (a *authService) SignIn(ctx context.Context, email string, password []byte) (*api.Account, error) {
	acc, err := a.client.SignIn(ctx, email, string(password))
	if err != nil {
		return nil, err
	}

	if err := a.persist(ctx, acc.Email); err != nil {
		return nil, fmt.Errorf("save session error: %w", err)
	}
	return acc, nil
}

func (a *authService) Refresh(ctx context.Context) error {
	if err := a.restore(ctx); err != nil {
		return err
	}

	if err := a.client.Refresh(ctx); err != nil {
		return err
	}

	if err := a.persist(ctx, ""); err != nil {
		return fmt.Errorf("save session error: %w", err)
	}
	return nil
}

// authenticated runs call with the restored pair and persists whatever
// pair the client holds afterwards.
func (a *authService) authenticated(ctx context.Context, call func(ctx context.Context) (*api.Account, error)) (*api.Account, error) {
	if err := a.restore(ctx); err != nil {
		return nil, err
	}

	before, _ := a.client.Tokens()
	acc, callErr := call(ctx)

	if after, _ := a.client.Tokens(); after != before {
		if err := a.persist(ctx, ""); err != nil {
			return nil, errors.Join(callErr, fmt.Errorf("save session error: %w", err))
		}
	}

	return acc, callErr
}

func (a *authService) Me(ctx context.Context) (*api.Account, error) {
	return a.authenticated(ctx, a.client.GetSession)
}

func (a *authService) ChangePassword(ctx context.Context, currentPassword, newPassword []byte) (*api.Account, error) {
	return a.authenticated(ctx, func(ctx context.Context) (*api.Account, error) {
		return a.client.ChangePassword(ctx, string(currentPassword), string(newPassword))
	})
}

func (a *authService) ResetPassword(ctx context.Context, email string, newPassword []byte) (*api.Account, error) {
	return a.client.ResetPassword(ctx, email, string(newPassword))
}

func (a *authService) SignOut(ctx context.Context) error {
	a.client.SetTokens("", "")
	return a.sessionRepo().Clear(ctx)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases the client connection and the session database.
func (a *authService) Close(ctx context.Context) error {
	return errors.Join(a.client.Close(), a.db.Close())
}
