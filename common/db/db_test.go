package db

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airdropkit/eligibility/common/config"
	"github.com/airdropkit/eligibility/common/logger"
)

func testConfig() *config.Config {
	return &config.Config{Database: config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: "contracts.db",
		MaxConns:   4,
	}}
}

func TestSQLiteHealth(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	s := NewSQLite(sqlDB, testConfig(), logger.NewWithWriter(io.Discard, "info", "json"))
	assert.Equal(t, 4, s.Stats().MaxOpenConnections)

	mock.ExpectPing()
	require.NoError(t, s.Health(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("disk I/O error"))
	require.Error(t, s.Health(context.Background()))

	mock.ExpectClose()
	require.NoError(t, s.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddedMigrations(t *testing.T) {
	for _, dir := range []string{"migrations/postgres", "migrations/sqlite"} {
		t.Run(dir, func(t *testing.T) {
			entries, err := fs.ReadDir(migrationsFS, dir)
			require.NoError(t, err)

			var names []string
			for _, e := range entries {
				names = append(names, e.Name())
			}
			assert.Contains(t, names, "000001_create_eligibility_tables.up.sql")
			assert.Contains(t, names, "000001_create_eligibility_tables.down.sql")

			up, err := fs.ReadFile(migrationsFS, dir+"/000001_create_eligibility_tables.up.sql")
			require.NoError(t, err)
			schema := string(up)
			assert.Contains(t, schema, "identity")
			assert.Contains(t, schema, "UNIQUE (eligible_id, position)")
			assert.Contains(t, schema, "REFERENCES contracts (id)")
		})
	}
}

func TestOpenSQLite_MissingFileFailsWithoutMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contracts.db")
	cfg := testConfig()
	cfg.Database.SQLitePath = path

	_, err := OpenSQLite(context.Background(), cfg, logger.NewWithWriter(io.Discard, "info", "json"))
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "a read-only open must not create the file")
}

func TestNewPoolConfig(t *testing.T) {
	cfg := &config.Config{
		Service: config.ServiceConfig{Name: "eligibility-api", RequestTimeout: 2 * time.Second},
		Database: config.DatabaseConfig{
			Driver:      config.DriverPostgres,
			Host:        "db",
			Port:        5432,
			Database:    "drop",
			User:        "reader",
			Password:    "secret",
			MaxConns:    16,
			MinConns:    2,
			MaxIdleTime: 5 * time.Minute,
			MaxLifetime: time.Hour,
		},
	}

	poolConfig, err := newPoolConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, int32(16), poolConfig.MaxConns)
	assert.Equal(t, int32(2), poolConfig.MinConns)
	assert.Equal(t, 6*time.Minute, poolConfig.MaxConnLifetimeJitter)
	assert.Equal(t, 5*time.Minute, poolConfig.MaxConnIdleTime)

	params := poolConfig.ConnConfig.RuntimeParams
	assert.Equal(t, "eligibility-api", params["application_name"])
	assert.Equal(t, "on", params["default_transaction_read_only"])
	assert.Equal(t, "2000", params["statement_timeout"])

	// Migrations write through the same pool
	cfg.Database.AutoMigrate = true
	poolConfig, err = newPoolConfig(cfg)
	require.NoError(t, err)
	assert.NotContains(t, poolConfig.ConnConfig.RuntimeParams, "default_transaction_read_only")
}
