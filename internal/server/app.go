// Package server initializes and runs the certificate service: it opens the
// store, runs migrations, wires the services and serves the HTTP API with a
// background expiry sweeper, shutting everything down on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/certisafe/certisafe/internal/logging"
	"github.com/certisafe/certisafe/internal/server/config"
	"github.com/certisafe/certisafe/internal/server/httpapi"
	"github.com/certisafe/certisafe/internal/server/repositories/repomanager"
	"github.com/certisafe/certisafe/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	server  *httpapi.Server
	sweeper *services.Sweeper
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	resolver := services.NewResolver(db, rm, logger)
	issuer := services.NewIssuer(db, rm, resolver, cfg, logger)
	bulk := services.NewBulkIssuer(issuer, logger)
	verifier := services.NewVerifier(db, rm, cfg.StoreTimeout, logger)
	revoker := services.NewRevoker(db, rm, cfg.StoreTimeout, logger)
	sweeper := services.NewSweeper(db, rm, cfg.StoreTimeout, logger)

	handler := httpapi.NewHandler(issuer, bulk, verifier, revoker, sweeper, logger)
	srv := httpapi.NewServer(cfg.EndpointAddr, handler, db, logger)

	return &App{config: cfg, logger: logger, db: db, server: srv, sweeper: sweeper}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.EndpointAddr)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, "http server error", "error", err.Error())
			cancelFunc()
		}
	}()

	if app.config.SweepInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.sweeper.Run(ctx, app.config.SweepInterval)
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing db", "error", err.Error())
	}
	app.logger.Info(ctx, "app stopped")
}
