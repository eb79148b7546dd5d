// Package app wires configuration, storage and the Telegram runtime together.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/tagbot/core/bootstrap"
	"github.com/m3rciful/tagbot/core/logger"
	tg "github.com/m3rciful/tagbot/core/telegram"
	tgsender "github.com/m3rciful/tagbot/core/telegram/sender"
	"github.com/m3rciful/tagbot/core/telegram/state"
	"github.com/m3rciful/tagbot/internal/bot"
	"github.com/m3rciful/tagbot/internal/dialog"
	"github.com/m3rciful/tagbot/internal/store"
	"github.com/m3rciful/tagbot/migrations"
)

// App holds the initialised infrastructure for one bot process.
type App struct {
	cfg      *Config
	db       *sqlx.DB
	handlers *bot.Handlers
}

// Bootstrap initialises logging, applies migrations and connects to Postgres.
func Bootstrap(ctx context.Context, cfg *Config) (*App, error) {
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:     &cfg.Config,
		Database:   cfg.Database,
		Migrations: migrations.FS,
	})
	if err != nil {
		return nil, err
	}
	return newApp(cfg, res.DB)
}

func newApp(cfg *Config, db *sqlx.DB) (*App, error) {
	var sessions state.Store
	switch cfg.Dialog.Store {
	case DialogStoreMemory, "":
		sessions = state.NewMemoryStore()
	case DialogStorePostgres:
		sessions = state.NewSQLStore(db)
	default:
		return nil, fmt.Errorf("app: unknown dialog store %q", cfg.Dialog.Store)
	}

	tagStore := store.New(db)
	engine := dialog.New(sessions, tagStore)
	logger.Info(context.Background(), "app", "wired",
		slog.String("mode", cfg.Dialog.Store),
	)
	return &App{
		cfg:      cfg,
		db:       db,
		handlers: bot.New(engine, tagStore, tagStore),
	}, nil
}

// TelegramRunOptions assembles the registry, middleware and routes for the runtime.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	a.handlers.Register(reg)

	return tg.RunOptions{
		Config:   &a.cfg.Config,
		Registry: reg,
		DispatcherOptions: tgsender.Options{
			Workers:    a.cfg.Sender.Workers,
			QueueSize:  a.cfg.Sender.QueueSize,
			MaxRetries: a.cfg.Sender.MaxRetries,
		},
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Config, nil),
		Routes:      a.handlers.Routes(reg, a.cfg.Telegram.AdminID),
		OnStart:     a.handlers.OnStart,
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			return a.Close()
		},
	}, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
