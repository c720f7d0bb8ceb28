package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/airdropkit/eligibility/cmd/eligibility-api/models"
	"github.com/airdropkit/eligibility/cmd/eligibility-api/service"
	"github.com/airdropkit/eligibility/common/logger"
)

const (
	msgInvalidIdentity = "Invalid identity"
	msgNotFound        = "Identity not found"
	msgInternal        = "Internal server error"
)

// EligibleLookup is the service operation the handler depends on
type EligibleLookup interface {
	Lookup(ctx context.Context, identity string) (*models.EligibleResponse, error)
}

// EligibleHandler serves eligibility lookups
type EligibleHandler struct {
	service EligibleLookup
	log     *logger.Logger
}

// NewEligibleHandler creates a new eligibility handler
func NewEligibleHandler(service EligibleLookup, log *logger.Logger) *EligibleHandler {
	return &EligibleHandler{
		service: service,
		log:     log,
	}
}

// GetEligible returns the eligibility record and merkle proof of an identity
// GET /eligible/:identity
func (h *EligibleHandler) GetEligible(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := identityParam(c)
	if err != nil {
		return c.String(http.StatusBadRequest, msgInvalidIdentity)
	}

	resp, err := h.service.Lookup(ctx, identity)
	if err != nil {
		return h.writeError(c, identity, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// writeError maps service errors to status codes. Causes are logged, never returned to the client.
func (h *EligibleHandler) writeError(c echo.Context, identity string, err error) error {
	log := h.log.WithContext(c.Request().Context())

	switch {
	case errors.Is(err, service.ErrInvalidIdentity):
		log.Debug("identity rejected", "identity", identity, "error", err)
		return c.String(http.StatusBadRequest, msgInvalidIdentity)
	case errors.Is(err, service.ErrNotFound):
		return c.String(http.StatusNotFound, msgNotFound)
	case errors.Is(err, service.ErrStoreUnavailable):
		log.Error("eligibility store unavailable", "identity", identity, "error", err)
	case errors.Is(err, service.ErrDataIntegrity):
		log.Error("eligibility data integrity violation", "identity", identity, "error", err)
	default:
		log.Error("eligibility lookup failed", "identity", identity, "error", err)
	}

	return c.String(http.StatusInternalServerError, msgInternal)
}

// identityParam reads the path parameter, decoding it once when the router matched the raw path
func identityParam(c echo.Context) (string, error) {
	identity := c.Param("identity")
	if c.Request().URL.RawPath == "" {
		return identity, nil
	}
	return url.PathUnescape(identity)
}
