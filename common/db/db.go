package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/airdropkit/eligibility/common/config"
	"github.com/airdropkit/eligibility/common/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps pgxpool with common operations
type DB struct {
	*pgxpool.Pool
	log *logger.Logger
}

// New creates a new database connection pool
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*DB, error) {
	poolConfig, err := newPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("database connected", "driver", config.DriverPostgres, "host", cfg.Database.Host, "db", cfg.Database.Database)

	return &DB{
		Pool: pool,
		log:  log,
	}, nil
}

// newPoolConfig sizes the pool for short read-only lookups.
// Sessions are read-only unless migrations run on the same pool, and no statement
// outlives the request timeout.
func newPoolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxLifetime
	poolConfig.MaxConnLifetimeJitter = cfg.Database.MaxLifetime / 10
	poolConfig.MaxConnIdleTime = cfg.Database.MaxIdleTime
	poolConfig.HealthCheckPeriod = 30 * time.Second

	// The two lookup statements are prepared once per connection and reused
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement

	params := poolConfig.ConnConfig.RuntimeParams
	if cfg.Service.Name != "" {
		params["application_name"] = cfg.Service.Name
	}
	if !cfg.Database.AutoMigrate {
		params["default_transaction_read_only"] = "on"
	}
	if cfg.Service.RequestTimeout > 0 {
		params["statement_timeout"] = strconv.FormatInt(cfg.Service.RequestTimeout.Milliseconds(), 10)
	}

	return poolConfig, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.log.Info("closing database connection pool")
	db.Pool.Close()
}

// Health checks database health
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return db.Pool.Ping(ctx)
}
