// Package pgstore keeps criteria and per-user lists in PostgreSQL.
//
// The schema lives in the migrations package and is applied with goose under
// an advisory lock, so several instances can start against one database.
package pgstore

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-post-ranker/internal/core/ports"
	"github.com/lueurxax/telegram-post-ranker/migrations"
)

const (
	connectionRetrySleep = 2 * time.Second
	maxConnectionRetries = 10

	migrationLockID = 1000
)

const (
	defaultMaxConns          int32         = 10
	defaultMinConns          int32         = 1
	defaultMaxConnIdleTime   time.Duration = 30 * time.Minute
	defaultMaxConnLifetime   time.Duration = time.Hour
	defaultHealthCheckPeriod time.Duration = time.Minute
)

// DB wraps a pgx pool and implements ports.Store.
type DB struct {
	Pool   *pgxpool.Pool
	Logger *zerolog.Logger

	retrySleep time.Duration
}

var _ ports.Store = (*DB)(nil)

// PoolOptions configures the connection pool. Zero fields keep pgx defaults.
type PoolOptions struct {
	MaxConns          int32
	MinConns          int32
	MaxConnIdleTime   time.Duration
	MaxConnLifetime   time.Duration
	HealthCheckPeriod time.Duration
}

func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxConns:          defaultMaxConns,
		MinConns:          defaultMinConns,
		MaxConnIdleTime:   defaultMaxConnIdleTime,
		MaxConnLifetime:   defaultMaxConnLifetime,
		HealthCheckPeriod: defaultHealthCheckPeriod,
	}
}

// New connects with opts, retrying while the database comes up.
func New(ctx context.Context, dsn string, opts PoolOptions, logger *zerolog.Logger) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	opts.apply(config)

	db := &DB{Logger: logger, retrySleep: connectionRetrySleep}

	if err := db.connectWithRetries(ctx, config); err != nil {
		return nil, err
	}

	return db, nil
}

func (o PoolOptions) apply(config *pgxpool.Config) {
	config.MaxConns = positiveOr(o.MaxConns, config.MaxConns)
	config.MinConns = positiveOr(o.MinConns, config.MinConns)
	config.MaxConnIdleTime = positiveOr(o.MaxConnIdleTime, config.MaxConnIdleTime)
	config.MaxConnLifetime = positiveOr(o.MaxConnLifetime, config.MaxConnLifetime)
	config.HealthCheckPeriod = positiveOr(o.HealthCheckPeriod, config.HealthCheckPeriod)
}

func positiveOr[T int32 | time.Duration](v, fallback T) T {
	if v > 0 {
		return v
	}

	return fallback
}

func (db *DB) connectWithRetries(ctx context.Context, config *pgxpool.Config) error {
	var err error

	for i := 0; i < maxConnectionRetries; i++ {
		if db.Pool, err = dial(ctx, config); err == nil {
			return nil
		}

		db.Logger.Warn().Err(err).Int("attempt", i+1).Msg("database not ready, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("connect to database: %w", ctx.Err())
		case <-time.After(db.retrySleep):
		}
	}

	return fmt.Errorf("failed to connect to database after retries: %w", err)
}

func dial(ctx context.Context, config *pgxpool.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

func (db *DB) Ping(ctx context.Context) error {
	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	return nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

// Migrate applies pending migrations while holding a session advisory lock,
// so only one instance migrates at a time.
func (db *DB) Migrate(ctx context.Context) error {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return fmt.Errorf("acquire advisory lock: %w", err)
	}

	defer func() {
		//nolint:errcheck // the lock is released with the session anyway
		_, _ = conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationLockID)
	}()

	sqlDB := stdlib.OpenDBFromPool(db.Pool)

	defer func() {
		_ = sqlDB.Close()
	}()

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, migrations.FS)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	for _, r := range results {
		db.Logger.Info().
			Int64("version", r.Source.Version).
			Str("file", r.Source.Path).
			Dur("took", r.Duration).
			Msg("Applied migration")
	}

	return nil
}

// sanitizeUTF8 drops invalid sequences PostgreSQL would reject.
func sanitizeUTF8(s string) string {
	if s == "" || utf8.ValidString(s) {
		return s
	}

	return strings.ToValidUTF8(s, "")
}
