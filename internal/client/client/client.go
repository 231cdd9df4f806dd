package client

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/api"
)

type Client interface {
	Close() error
	Tokens() (access, refresh string)
	SetTokens(access, refresh string)
	SignUp(ctx context.Context, email, name, password, role string) (*api.Account, error)
	SignIn(ctx context.Context, email, password string) (*api.Account, error)
	Refresh(ctx context.Context) error
	GetSession(ctx context.Context) (*api.Account, error)
	ResetPassword(ctx context.Context, email, newPassword string) (*api.Account, error)
	ChangePassword(ctx context.Context, currentPassword, newPassword string) (*api.Account, error)
	Ping(ctx context.Context) error
}
