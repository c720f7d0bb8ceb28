package container

import (
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airdropkit/eligibility/cmd/eligibility-api/repository"
	"github.com/airdropkit/eligibility/common/bootstrap"
	"github.com/airdropkit/eligibility/common/config"
	"github.com/airdropkit/eligibility/common/db"
	"github.com/airdropkit/eligibility/common/logger"
	"github.com/airdropkit/eligibility/common/ratelimit"
	rediscommon "github.com/airdropkit/eligibility/common/redis"
)

func sqliteComponents(t *testing.T) *bootstrap.Components {
	t.Helper()

	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	cfg := &config.Config{
		Database:   config.DatabaseConfig{Driver: config.DriverSQLite, MaxConns: 2},
		RateLimit:  config.RateLimitConfig{Enabled: true, Requests: 10, WindowSeconds: 60},
		Validation: config.ValidationConfig{IdentityRule: config.DefaultIdentityRule},
	}
	log := logger.NewWithWriter(io.Discard, "info", "json")

	return &bootstrap.Components{
		Config: cfg,
		Logger: log,
		SQLite: db.NewSQLite(sqlDB, cfg, log),
	}
}

func TestNewContainer_SQLite(t *testing.T) {
	c, err := NewContainer(sqliteComponents(t))
	require.NoError(t, err)

	assert.IsType(t, &repository.SQLiteEligibleStore{}, c.EligibleStore)
	assert.NotNil(t, c.EligibleService)
	assert.Equal(t, config.DefaultIdentityRule, c.Validator.Rule())
	assert.Nil(t, c.RateLimiter)
	assert.Equal(t, int64(10), c.RateLimitPolicy.Limit)
	assert.Equal(t, 60, c.RateLimitPolicy.WindowSeconds)
}

func TestNewContainer_WithRedis(t *testing.T) {
	components := sqliteComponents(t)
	components.Redis = rediscommon.New(rediscommon.Options{Addr: "127.0.0.1:0"}, components.Logger)
	t.Cleanup(func() { components.Redis.Close() })

	c, err := NewContainer(components)
	require.NoError(t, err)
	assert.NotNil(t, c.RateLimiter)
}

func TestNewContainer_NoDatabase(t *testing.T) {
	components := sqliteComponents(t)
	components.SQLite = nil

	_, err := NewContainer(components)
	assert.ErrorContains(t, err, "no database configured")
}

func TestNewContainer_BadIdentityRule(t *testing.T) {
	components := sqliteComponents(t)
	components.Config.Validation.IdentityRule = "size(identity)"

	_, err := NewContainer(components)
	assert.ErrorContains(t, err, "identity rule")
}

func TestNewContainer_DefaultRateLimitPolicy(t *testing.T) {
	components := sqliteComponents(t)
	components.Config.RateLimit = config.RateLimitConfig{Enabled: true}

	c, err := NewContainer(components)
	require.NoError(t, err)
	assert.Equal(t, ratelimit.DefaultPolicy, c.RateLimitPolicy)
}
