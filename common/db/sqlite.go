package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/airdropkit/eligibility/common/config"
	"github.com/airdropkit/eligibility/common/logger"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite wraps a database/sql handle on an embedded SQLite file.
// database/sql owns the pool; each request checks out a *sql.Conn.
type SQLite struct {
	*sql.DB
	path string
	log  *logger.Logger
}

// OpenSQLite opens and pings the SQLite file named in the config
func OpenSQLite(ctx context.Context, cfg *config.Config, log *logger.Logger) (*SQLite, error) {
	sqlDB, err := sql.Open("sqlite3", cfg.SQLiteDSN())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := NewSQLite(sqlDB, cfg, log)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	log.Info("database connected", "driver", config.DriverSQLite, "path", cfg.Database.SQLitePath)

	return s, nil
}

// NewSQLite wraps an already opened handle and applies pool limits
func NewSQLite(sqlDB *sql.DB, cfg *config.Config, log *logger.Logger) *SQLite {
	sqlDB.SetMaxOpenConns(cfg.Database.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxConns)
	sqlDB.SetConnMaxIdleTime(cfg.Database.MaxIdleTime)
	sqlDB.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	return &SQLite{
		DB:   sqlDB,
		path: cfg.Database.SQLitePath,
		log:  log,
	}
}

// Close closes the underlying handle
func (s *SQLite) Close() error {
	s.log.Info("closing sqlite database", "path", s.path)
	return s.DB.Close()
}

// Health checks database health
func (s *SQLite) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return s.DB.PingContext(ctx)
}
