package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vijay-prabhu/driver-recommender/internal/config"
	"github.com/vijay-prabhu/driver-recommender/internal/database"
	"github.com/vijay-prabhu/driver-recommender/internal/logging"
	"github.com/vijay-prabhu/driver-recommender/internal/refresh"
)

// app bundles what most commands need
type app struct {
	cfg    *config.Config
	db     *database.DB
	svc    *refresh.Service
	logger *zap.Logger
}

// openApp loads the config, opens the database and builds the snapshot from
// the stored trips
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	logger, err := logging.New(verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.Open(cfg.Database.Driver, cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	svc := refresh.New(db, cfg, logger)
	if err := svc.Load(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &app{cfg: cfg, db: db, svc: svc, logger: logger}, nil
}

func (a *app) Close() {
	_ = a.logger.Sync()
	a.db.Close()
}
