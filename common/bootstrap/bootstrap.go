package bootstrap

import (
	"context"
	"fmt"

	"github.com/airdropkit/eligibility/common/config"
	"github.com/airdropkit/eligibility/common/db"
	"github.com/airdropkit/eligibility/common/logger"
	rediscommon "github.com/airdropkit/eligibility/common/redis"
	"github.com/airdropkit/eligibility/common/telemetry"
)

// Setup initializes all service components
// This is the main entry point for all services
func Setup(ctx context.Context, serviceName string, opts ...Option) (*Components, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	components := &Components{
		cleanupFuncs: make([]func() error, 0),
	}

	// 1. Load configuration
	var err error
	if options.customConfig != nil {
		components.Config = options.customConfig
	} else {
		components.Config, err = config.Load(serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	// 2. Initialize logger
	if options.customLogger != nil {
		components.Logger = options.customLogger
	} else {
		components.Logger = logger.New(
			components.Config.Service.LogLevel,
			components.Config.Service.LogFormat,
		)
	}

	components.Logger.Info("initializing service",
		"service", serviceName,
		"environment", components.Config.Service.Environment,
	)

	// 3. Initialize database (if not skipped)
	if !options.skipDB {
		if err := components.setupDatabase(ctx); err != nil {
			components.Shutdown(ctx)
			return nil, err
		}
	}

	// 4. Initialize redis for rate limiting (if enabled)
	if !options.skipRedis && components.Config.RateLimit.Enabled {
		components.Logger.Info("connecting to redis", "addr", components.Config.RedisAddr())
		components.Redis = rediscommon.New(rediscommon.Options{
			Addr:     components.Config.RedisAddr(),
			Password: components.Config.Redis.Password,
			DB:       components.Config.Redis.DB,
		}, components.Logger)

		// Rate limiting fails open, so an unreachable redis is not fatal
		if err := components.Redis.Ping(ctx); err != nil {
			components.Logger.Warn("redis unavailable, rate limiting will fail open", "error", err)
		}

		components.addCleanup(func() error {
			components.Logger.Info("closing redis client")
			return components.Redis.Close()
		})
	}

	// 5. Initialize telemetry (if not skipped); pprof only listens when enabled
	if !options.skipTelemetry {
		components.Telemetry = telemetry.New(
			components.Config.Telemetry.PprofPort,
			components.Logger,
		)

		if components.Config.Telemetry.EnablePprof {
			components.Logger.Info("starting pprof endpoint")
			if err := components.Telemetry.Start(ctx); err != nil {
				components.Logger.Warn("failed to start telemetry", "error", err)
			}

			components.addCleanup(func() error {
				return components.Telemetry.Stop(ctx)
			})
		}
	}

	components.Logger.Info("service initialization complete",
		"service", serviceName,
		"driver", components.Config.Database.Driver,
		"db", components.DB != nil || components.SQLite != nil,
		"redis", components.Redis != nil,
		"telemetry", components.Telemetry != nil,
	)

	return components, nil
}

// setupDatabase opens the configured store and applies migrations when enabled
func (c *Components) setupDatabase(ctx context.Context) error {
	cfg := c.Config
	c.Logger.Info("connecting to database", "driver", cfg.Database.Driver)

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pg, err := db.New(ctx, cfg, c.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		c.DB = pg
		c.addCleanup(func() error {
			c.DB.Close()
			return nil
		})

		if cfg.Database.AutoMigrate {
			if err := c.DB.Migrate(); err != nil {
				return fmt.Errorf("database migration failed: %w", err)
			}
		}

	case config.DriverSQLite:
		lite, err := db.OpenSQLite(ctx, cfg, c.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		c.SQLite = lite
		c.addCleanup(c.SQLite.Close)

		if cfg.Database.AutoMigrate {
			if err := c.SQLite.Migrate(); err != nil {
				return fmt.Errorf("database migration failed: %w", err)
			}
		}

	default:
		return fmt.Errorf("unknown database driver: %s", cfg.Database.Driver)
	}

	return nil
}
