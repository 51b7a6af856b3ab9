// Package cli is the command line front end of the ledger. It wires the
// configuration, store and services together and renders their results.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/joho/godotenv"

	"balancete/internal/backend"
	"balancete/internal/config"
	"balancete/internal/core"
	"balancete/internal/log"
	"balancete/internal/services"
	"balancete/internal/session"
	"balancete/internal/storage"
)

// SetupLogger builds the logger described by the configuration and makes it
// the process default.
func SetupLogger(cfg *config.Config) *log.Logger {
	logger := cfg.Logger().WithComponent(log.ComponentCLI)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App holds everything a command needs.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Store    *storage.Store
	Auth     *services.Auth
	Sessions *services.Sessions
	Ledger   *services.Ledger

	cleanup backend.CleanupFunc
}

// NewApp opens the configured store and seeds the admin record on first run.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	app := newApp(cfg, logger, res.Store, session.NewFileStorage(cfg.SessionFile, cfg.SessionTTL))
	app.cleanup = res.Cleanup

	seeded, err := app.Auth.BootstrapAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	switch {
	case errors.Is(err, core.ErrConflict):
		logger.WarnContext(ctx, "Admin email belongs to a registered user, admin not seeded", log.FieldEmail, cfg.AdminEmail)
	case err != nil:
		app.Close()
		return nil, fmt.Errorf("seed admin: %w", err)
	case seeded:
		logger.InfoContext(ctx, "Admin account created", log.FieldEmail, cfg.AdminEmail)
	}
	return app, nil
}

func newApp(cfg *config.Config, logger *log.Logger, store *storage.Store, sessions session.Storage) *App {
	auth := services.NewAuth(store, cfg.BcryptCost, logger)
	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Auth:     auth,
		Sessions: services.NewSessions(auth, sessions, logger),
		Ledger:   services.NewLedger(store, logger),
		cleanup:  store.Close,
	}
}

func (a *App) Close() error {
	if a.cleanup == nil {
		return nil
	}
	return a.cleanup()
}

// Identity returns who is logged in.
func (a *App) Identity(ctx context.Context) (services.Identity, error) {
	return a.Sessions.Restore(ctx)
}

// Money renders an amount in the configured currency.
func (a *App) Money(m core.Money) string {
	return m.Format(a.Config.Currency)
}
