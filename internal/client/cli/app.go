package cli

import (
	"bufio"
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/services"
)

type App struct {
	config *config.Config
	auth   services.AuthService
	reader *bufio.Reader

	// connect builds the AuthService once configuration is known.
	connect func(ctx context.Context, cfg *config.Config) (services.AuthService, error)

	configFile string
	overrides  config.Config
}

func NewApp() *App {
	return &App{connect: connect}
}

func connect(ctx context.Context, cfg *config.Config) (services.AuthService, error) {
	db, err := client.InitDatabase(ctx, cfg.SessionFile)
	if err != nil {
		return nil, fmt.Errorf("error initializing session database: %w", err)
	}

	apiClient, err := client.NewGRPCClient(cfg.ServerEndpointAddr)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return services.NewAuthService(apiClient, db), nil
}

// Execute runs the command line in args and releases the connection and
// session database afterwards.
func (a *App) Execute(ctx context.Context, args []string) error {
	cmd := a.RootCmd()
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)

	if a.auth != nil {
		if cerr := a.auth.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// callContext bounds a single RPC by the configured timeout.
func (a *App) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.config.CallTimeout)
}
