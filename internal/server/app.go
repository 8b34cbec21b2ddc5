// Package server initializes and runs the folder lock service: it opens the
// database, applies migrations, wires the services, and starts the HTTP API
// with graceful shutdown on OS signals.
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

	"github.com/dkovalev/folderlock/internal/cryptox"
	"github.com/dkovalev/folderlock/internal/logging"
	"github.com/dkovalev/folderlock/internal/otpx"
	"github.com/dkovalev/folderlock/internal/server/api"
	"github.com/dkovalev/folderlock/internal/server/config"
	"github.com/dkovalev/folderlock/internal/server/mailer"
	"github.com/dkovalev/folderlock/internal/server/notify"
	"github.com/dkovalev/folderlock/internal/server/repositories/repomanager"
	"github.com/dkovalev/folderlock/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	server *api.Server
	db     *sql.DB
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	notifier := notify.NewLogNotifier(logger)

	lockCipher := cryptox.NewCipher(services.PayloadAAD)
	emailCipher := cryptox.NewCipher(services.EmailCodeAAD)

	locks := services.NewLockService(db, rm, lockCipher, notifier, logger, cfg)
	grants := services.NewGrantService(db, rm, logger)

	mail := mailer.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	recovery, err := services.NewRecoveryService(db, rm, emailCipher,
		otpx.NewTOTPVerifier(), mail, notifier, logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("recovery service init error: %w", err)
	}

	srv := api.NewServer(cfg.EndpointAddr, locks, grants, recovery, logger, cfg.JWTSecret)

	return &App{config: cfg, logger: logger, server: srv, db: db}, nil
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

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
