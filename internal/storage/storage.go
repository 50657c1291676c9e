// Package storage picks the persistence backend named by the configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	apperrors "github.com/lueurxax/telegram-post-ranker/internal/core/errors"
	"github.com/lueurxax/telegram-post-ranker/internal/core/ports"
	"github.com/lueurxax/telegram-post-ranker/internal/platform/config"
	"github.com/lueurxax/telegram-post-ranker/internal/storage/filestore"
	"github.com/lueurxax/telegram-post-ranker/internal/storage/pgstore"
)

// Open returns the configured store. The PostgreSQL backend is migrated
// before it is returned.
func Open(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (ports.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendFile, "":
		store, err := filestore.New(cfg.DataDir, logger)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}

		logger.Info().Str("dir", cfg.DataDir).Msg("Using file store")

		return store, nil
	case config.StoreBackendPostgres:
		db, err := pgstore.New(ctx, cfg.PostgresDSN, poolOptions(cfg), logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}

		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate postgres store: %w", err)
		}

		logger.Info().Msg("Using postgres store")

		return db, nil
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", apperrors.ErrInvalidInput, cfg.StoreBackend)
	}
}

func poolOptions(cfg *config.Config) pgstore.PoolOptions {
	opts := pgstore.DefaultPoolOptions()

	if cfg.DBMaxConnections > 0 {
		opts.MaxConns = cfg.DBMaxConnections
	}

	if cfg.DBMinConnections > 0 {
		opts.MinConns = cfg.DBMinConnections
	}

	if cfg.DBMaxConnIdleTime > 0 {
		opts.MaxConnIdleTime = cfg.DBMaxConnIdleTime
	}

	if cfg.DBMaxConnLifetime > 0 {
		opts.MaxConnLifetime = cfg.DBMaxConnLifetime
	}

	if cfg.DBHealthCheckPeriod > 0 {
		opts.HealthCheckPeriod = cfg.DBHealthCheckPeriod
	}

	return opts
}
