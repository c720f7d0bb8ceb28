package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/airdropkit/eligibility/cmd/eligibility-api/models"
	"github.com/airdropkit/eligibility/cmd/eligibility-api/repository"
	"github.com/airdropkit/eligibility/common/logger"
	"github.com/airdropkit/eligibility/common/telemetry"
	"github.com/airdropkit/eligibility/common/validation"
)

var (
	// ErrInvalidIdentity is returned when the identity fails the validation rule
	ErrInvalidIdentity = errors.New("invalid identity")
	// ErrNotFound is returned when no eligibility row matches the identity
	ErrNotFound = errors.New("identity not found")
	// ErrStoreUnavailable is returned when no connection could be obtained or it was lost
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrQueryFailed is returned when a statement could not be prepared or executed
	ErrQueryFailed = errors.New("query failed")
	// ErrDataIntegrity is returned when stored rows violate the schema's invariants
	ErrDataIntegrity = errors.New("data integrity violation")
)

// EligibleService resolves an identity into its eligibility record and proof path
type EligibleService struct {
	store     repository.EligibleStore
	validator *validation.IdentityValidator
	telemetry *telemetry.Telemetry
	log       *logger.Logger
}

// NewEligibleService creates a new eligibility service. telemetry may be nil.
func NewEligibleService(
	store repository.EligibleStore,
	validator *validation.IdentityValidator,
	telemetry *telemetry.Telemetry,
	log *logger.Logger,
) *EligibleService {
	return &EligibleService{
		store:     store,
		validator: validator,
		telemetry: telemetry,
		log:       log,
	}
}

// Lookup returns the eligibility response for identity.
// Failures match one of the package's sentinel errors under errors.Is.
func (s *EligibleService) Lookup(ctx context.Context, identity string) (*models.EligibleResponse, error) {
	start := time.Now()
	if s.telemetry != nil {
		defer s.telemetry.RecordDuration("eligible.lookup", start, "identity", identity)
	}

	if s.validator != nil {
		if err := s.validator.Validate(identity); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
		}
	}

	session, err := s.store.Acquire(ctx)
	if err != nil {
		return nil, classify("acquire session", err)
	}
	defer session.Release()

	record, err := session.FindEligibleByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, repository.ErrEligibleNotFound) {
			return nil, ErrNotFound
		}
		return nil, classify("find eligible", err)
	}

	path, err := session.FindProofFragments(ctx, record.ID)
	if err != nil {
		return nil, classify("find proof fragments", err)
	}

	s.log.WithContext(ctx).Debug("eligible resolved",
		"identity", identity,
		"eligible_id", record.ID,
		"contract_id", record.ContractID,
		"merkle_path_len", len(path),
	)

	return models.NewEligibleResponse(record, path), nil
}

// classify maps a store error onto the service's sentinel errors, keeping the cause in the chain
func classify(op string, err error) error {
	var sentinel error
	switch repository.KindOf(err) {
	case repository.KindConnection:
		sentinel = ErrStoreUnavailable
	case repository.KindIntegrity:
		sentinel = ErrDataIntegrity
	default:
		sentinel = ErrQueryFailed
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		sentinel = ErrStoreUnavailable
	}

	return fmt.Errorf("%w: %s: %w", sentinel, op, err)
}
