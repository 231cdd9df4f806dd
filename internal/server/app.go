// Package server initializes and runs the gophauth server: it opens the
// account store, applies migrations, seeds the initial admin, and runs the
// gRPC and observability endpoints until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/observability"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/sethvargo/go-retry"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	manager repomanager.RepositoryManager
	hasher  *password.Hasher
	auth    *services.AuthService
	obs     *observability.Server
}

// pingBackoff bounds how long startup waits for the database.
var pingBackoff = func() retry.Backoff {
	return retry.WithMaxRetries(6, retry.NewExponential(250*time.Millisecond))
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.New(os.Stdout, c.LogFormat, c.LogLevel)

	codec, err := auth.NewCodec(auth.Options{
		AccessSecret:  c.AccessSecret,
		AccessTTL:     c.AccessTTL,
		RefreshSecret: c.RefreshSecret,
		RefreshTTL:    c.RefreshTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("token codec init error: %w", err)
	}

	app := &App{config: c, logger: logger, hasher: password.NewHasher()}

	if c.InMemory {
		logger.Warn(ctx, "Using in-memory account store; data is lost on exit")
		app.manager = repomanager.NewMemoryRepositoryManager()
	} else {
		db, err := openDB(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.db = db
		app.manager = repomanager.NewPostgresRepositoryManager()
	}

	app.obs = observability.NewServer(c.MetricsAddr, logger, app.ping)
	app.auth = services.NewAuthService(
		app.manager.Accounts(app.db), codec, app.hasher, logger,
		services.WithMetrics(app.obs.Metrics()),
	)

	return app, nil
}

// openDB opens a pgx-backed pool and waits for the server to answer.
func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	err = retry.Do(ctx, pingBackoff(), func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (app *App) ping(ctx context.Context) error {
	if app.db == nil {
		return nil
	}
	return app.db.PingContext(ctx)
}

// prepare migrates the schema and seeds the initial admin account.
func (app *App) prepare(ctx context.Context) error {
	if err := app.manager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}
	return app.seedAdmin(ctx)
}

func (app *App) seedAdmin(ctx context.Context) error {
	admin := app.config.InitialAdmin
	if !admin.Enabled() {
		return nil
	}

	in := services.SignUpInput{Email: admin.Email, Name: admin.Name, Password: admin.Password}

	var created bool
	seed := func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		created, err = services.SeedAdmin(ctx, app.manager.Accounts(tx), app.hasher, in)
		return err
	}

	var err error
	if app.db == nil {
		err = seed(ctx, nil)
	} else {
		err = dbx.WithTx(ctx, app.db, nil, seed)
	}
	if err != nil {
		return fmt.Errorf("seed admin error: %w", err)
	}

	if created {
		app.logger.Info(ctx, "Initial admin account created", "email", admin.Email)
	}
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.auth)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startObservabilityServer(ctx context.Context, cancelFunc context.CancelFunc) {

	if app.config.MetricsAddr == "" {
		return
	}

	if err := app.obs.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	if err := app.prepare(ctx); err != nil {
		app.close(ctx)
		return err
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startObservabilityServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(ctx)
	app.logger.Info(ctx, "App stopped")
	return nil
}

func (app *App) close(ctx context.Context) {
	if app.db == nil {
		return
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
