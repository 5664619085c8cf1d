package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/vbonduro/nutriscan/internal/config"
	"github.com/vbonduro/nutriscan/internal/db"
	"github.com/vbonduro/nutriscan/internal/logging"
	"github.com/vbonduro/nutriscan/internal/nutrition"
	"github.com/vbonduro/nutriscan/internal/service"
	"github.com/vbonduro/nutriscan/internal/store"
	"github.com/vbonduro/nutriscan/internal/upload/local"
)

// app holds what every command needs: config, logger, and the open stores.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *sql.DB
	history *store.HistoryStore
	chats   *store.ChatStore
}

// openApp loads config, starts logging, and opens the database. The returned
// close func must be called when the command is done.
func openApp() (*app, func(), error) {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		db:      database,
		history: store.NewHistoryStore(database),
		chats:   store.NewChatStore(database),
	}
	return a, func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
		cleanup()
	}, nil
}

// foodService builds the analysis pipeline from the configured backends. The
// local uploader is returned too when it is in use, so it can serve photos.
func (a *app) foodService(ctx context.Context) (*service.FoodService, *local.Uploader, error) {
	uploader, photos, err := newUploader(ctx, a.cfg)
	if err != nil {
		return nil, nil, err
	}
	detector, err := newDetector(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, nil, err
	}
	lookup := nutrition.NewClient(a.cfg.FDCAPIKey, a.cfg.HTTPTimeout).WithBaseURL(a.cfg.FDCBaseURL)

	svc := service.NewFoodService(uploader, detector, lookup, a.history, a.logger)
	if photos != nil {
		svc = svc.WithInlineImages()
	}
	return svc, photos, nil
}

func (a *app) chatService(ctx context.Context) (*service.ChatService, error) {
	completer, err := newCompleter(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	return service.NewChatService(a.chats, completer, a.logger), nil
}
