package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/airdropkit/eligibility/common/logger"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies the embedded Postgres schema migrations
func (db *DB) Migrate() error {
	driver, err := migratepgx.WithInstance(stdlib.OpenDBFromPool(db.Pool), &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("postgres migration driver: %w", err)
	}
	m, err := runMigrations("migrations/postgres", "pgx5", driver, db.log)
	if m != nil {
		m.Close()
	}
	return err
}

// Migrate applies the embedded SQLite schema migrations.
// The migrate instance is not closed because that would close the shared handle.
func (s *SQLite) Migrate() error {
	driver, err := migratesqlite3.WithInstance(s.DB, &migratesqlite3.Config{})
	if err != nil {
		return fmt.Errorf("sqlite migration driver: %w", err)
	}
	_, err = runMigrations("migrations/sqlite", "sqlite3", driver, s.log)
	return err
}

func runMigrations(dir, dbName string, driver migratedb.Driver, log *logger.Logger) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("load migrations from %s: %w", dir, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dbName, driver)
	if err != nil {
		return nil, fmt.Errorf("init migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return m, fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	log.Info("migrations applied", "db", dbName, "version", version, "dirty", dirty)

	return m, nil
}
