package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/airdropkit/eligibility/cmd/eligibility-api/container"
	"github.com/airdropkit/eligibility/cmd/eligibility-api/handlers"
	"github.com/airdropkit/eligibility/common/middleware"
)

// RegisterEligibleRoutes registers the eligibility lookup route
func RegisterEligibleRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewEligibleHandler(c.EligibleService, c.Components.Logger)

	eligible := e.Group("/eligible")
	if c.RateLimiter != nil {
		eligible.Use(middleware.ClientRateLimitMiddleware(c.RateLimiter, c.RateLimitPolicy))
	}
	{
		eligible.GET("/:identity", h.GetEligible) // GET /eligible/{identity}
	}
}
