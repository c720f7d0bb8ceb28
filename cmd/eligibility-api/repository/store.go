package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/airdropkit/eligibility/cmd/eligibility-api/models"
)

// ErrEligibleNotFound is returned when no eligibility row matches an identity
var ErrEligibleNotFound = errors.New("eligible not found")

// ErrorKind classifies store failures so callers can map them to responses
type ErrorKind int

const (
	// KindConnection covers acquiring, losing or timing out a connection
	KindConnection ErrorKind = iota + 1
	// KindPrepare covers statement preparation, typically schema drift
	KindPrepare
	// KindExecute covers failures while running a prepared statement or scanning rows
	KindExecute
	// KindIntegrity covers rows that violate the schema's invariants
	KindIntegrity
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindPrepare:
		return "prepare"
	case KindExecute:
		return "execute"
	case KindIntegrity:
		return "integrity"
	default:
		return "unknown"
	}
}

// StoreError is a classified store failure
type StoreError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or 0 when it is not a StoreError
func KindOf(err error) ErrorKind {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Kind
	}
	return 0
}

// EligibleStore hands out request-scoped sessions on a shared pool
type EligibleStore interface {
	// Acquire checks a handle out of the pool. The caller must Release it.
	Acquire(ctx context.Context) (EligibleSession, error)
}

// EligibleSession runs the lookup queries on one checked-out handle.
// A session must not be shared between concurrent requests.
type EligibleSession interface {
	// FindEligibleByIdentity returns the eligibility row joined with its contract,
	// or ErrEligibleNotFound. Duplicate identities resolve to the lowest row id.
	FindEligibleByIdentity(ctx context.Context, identity string) (*models.EligibleRecord, error)

	// FindProofFragments returns the proof path of a row ordered by position
	FindProofFragments(ctx context.Context, eligibleID int64) ([]string, error)

	// Release returns the handle to the pool. Safe to call more than once.
	Release()
}
