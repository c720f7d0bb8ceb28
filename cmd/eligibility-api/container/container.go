package container

import (
	"errors"
	"fmt"

	"github.com/airdropkit/eligibility/cmd/eligibility-api/repository"
	"github.com/airdropkit/eligibility/cmd/eligibility-api/service"
	"github.com/airdropkit/eligibility/common/bootstrap"
	"github.com/airdropkit/eligibility/common/config"
	"github.com/airdropkit/eligibility/common/ratelimit"
	"github.com/airdropkit/eligibility/common/validation"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components

	// Repositories
	EligibleStore repository.EligibleStore

	// Services
	Validator       *validation.IdentityValidator
	EligibleService *service.EligibleService

	// Rate limiting, nil when disabled or redis was skipped
	RateLimiter     *ratelimit.RateLimiter
	RateLimitPolicy ratelimit.Policy
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	store, err := newEligibleStore(components)
	if err != nil {
		return nil, err
	}

	// The rule is compiled once; a bad rule stops the service at startup
	validator, err := validation.NewIdentityValidator(components.Config.Validation.IdentityRule)
	if err != nil {
		return nil, fmt.Errorf("failed to compile identity rule: %w", err)
	}

	eligibleService := service.NewEligibleService(
		store,
		validator,
		components.Telemetry,
		components.Logger,
	)

	c := &Container{
		Components:      components,
		EligibleStore:   store,
		Validator:       validator,
		EligibleService: eligibleService,
		RateLimitPolicy: rateLimitPolicy(components.Config.RateLimit),
	}

	if components.Redis != nil {
		c.RateLimiter = ratelimit.NewRateLimiter(components.Redis.GetUnderlying(), components.Logger)
		components.Logger.Info("rate limiting enabled", "policy", c.RateLimitPolicy.Describe())
	}

	return c, nil
}

// rateLimitPolicy converts the configured budget, falling back to the default for unset values
func rateLimitPolicy(cfg config.RateLimitConfig) ratelimit.Policy {
	if cfg.Requests < 1 || cfg.WindowSeconds < 1 {
		return ratelimit.DefaultPolicy
	}
	return ratelimit.Policy{
		Limit:         cfg.Requests,
		WindowSeconds: cfg.WindowSeconds,
	}
}

// newEligibleStore picks the store backing the configured driver
func newEligibleStore(components *bootstrap.Components) (repository.EligibleStore, error) {
	switch {
	case components.DB != nil:
		return repository.NewPostgresEligibleStore(components.DB), nil
	case components.SQLite != nil:
		return repository.NewSQLiteEligibleStore(components.SQLite), nil
	default:
		return nil, errors.New("no database configured")
	}
}
