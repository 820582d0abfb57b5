// Package server wires configuration, storage, services and the HTTP and
// gRPC endpoints into one runnable application with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophbooks/internal/cryptox"
	"github.com/dmitrijs2005/gophbooks/internal/logging"
	"github.com/dmitrijs2005/gophbooks/internal/server/config"
	"github.com/dmitrijs2005/gophbooks/internal/server/metrics"
	"github.com/dmitrijs2005/gophbooks/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophbooks/internal/server/rest"
	"github.com/dmitrijs2005/gophbooks/internal/server/services"

	gs "github.com/dmitrijs2005/gophbooks/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	userService *services.UserService
	httpServer  *rest.Server
	grpcServer  *gs.GRPCServer
}

// NewApp validates cfg, opens and migrates the database and builds both
// servers. Logs go to stdout as JSON.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {
	logger, err := logging.NewJSONLogger(logOut, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	hasher, err := cryptox.NewHasher(c.PasswordHashAlgorithm, c.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	db, rm, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	us, err := services.NewUserService(db, rm, hasher, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("user service init error: %w", err)
	}
	m := metrics.New()

	router := rest.NewRouter(&rest.RouterConfig{
		Users:              us,
		Logger:             logger,
		Metrics:            m,
		CORSAllowedOrigins: c.CrossOrigins,
	})

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		userService: us,
		httpServer:  rest.NewServer(c.EndpointAddrHTTP, router, logger, c.ShutdownTimeout),
		grpcServer:  gs.NewGRPCServer(c.EndpointAddrGRPC, logger),
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			app.logger.Info(ctx, "Signal received", "signal", sig.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpcServer.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a termination signal arrives or one of
// the servers fails, then closes the database.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	// migrations ran in NewApp
	app.grpcServer.SetServing(true)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "closing database", "error", err)
	}

	app.logger.Info(context.Background(), "App stopped")
}
