package repository

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/airdropkit/eligibility/cmd/eligibility-api/models"
	"github.com/airdropkit/eligibility/common/db"
)

// pgQuerier is the subset of *pgxpool.Conn used by a session
type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresEligibleStore reads eligibility data from Postgres through the shared pgxpool
type PostgresEligibleStore struct {
	db *db.DB
}

// NewPostgresEligibleStore creates a new Postgres-backed store
func NewPostgresEligibleStore(db *db.DB) *PostgresEligibleStore {
	return &PostgresEligibleStore{db: db}
}

// Acquire checks a connection out of the pool
func (r *PostgresEligibleStore) Acquire(ctx context.Context) (EligibleSession, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, &StoreError{Kind: KindConnection, Op: "acquire connection", Err: err}
	}
	return newPostgresSession(conn, conn.Release), nil
}

type postgresSession struct {
	q       pgQuerier
	release func()
	once    sync.Once
}

func newPostgresSession(q pgQuerier, release func()) *postgresSession {
	return &postgresSession{q: q, release: release}
}

// FindEligibleByIdentity retrieves the eligibility row and its contract
func (s *postgresSession) FindEligibleByIdentity(ctx context.Context, identity string) (*models.EligibleRecord, error) {
	record := &models.EligibleRecord{}
	var (
		contractID      *int64
		contractAddress *string
		contractType    *string
	)

	err := s.q.QueryRow(ctx, postgresFindEligibleQuery, identity).Scan(
		&record.ID,
		&record.Identity,
		&record.Amount,
		&record.MerkleIndex,
		&record.ContractID,
		&contractID,
		&contractAddress,
		&contractType,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEligibleNotFound
	}
	if err != nil {
		return nil, classifyPgError("find eligible", err)
	}

	if err := attachContract(record, contractID, contractAddress, contractType); err != nil {
		return nil, err
	}

	return record, nil
}

// FindProofFragments retrieves the ordered merkle path of an eligibility row
func (s *postgresSession) FindProofFragments(ctx context.Context, eligibleID int64) ([]string, error) {
	rows, err := s.q.Query(ctx, postgresFindProofFragmentsQuery, eligibleID)
	if err != nil {
		return nil, classifyPgError("find proof fragments", err)
	}
	defer rows.Close()

	fragments := make([]string, 0)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, classifyPgError("scan proof fragment", err)
		}
		fragments = append(fragments, path)
	}

	if err := rows.Err(); err != nil {
		return nil, classifyPgError("iterate proof fragments", err)
	}

	return fragments, nil
}

// Release returns the connection to the pool
func (s *postgresSession) Release() {
	s.once.Do(s.release)
}

// classifyPgError maps pgx failures onto store error kinds using the SQLSTATE class
func classifyPgError(op string, err error) error {
	kind := KindExecute

	var pgErr *pgconn.PgError
	var netErr net.Error
	switch {
	case errors.As(err, &pgErr):
		switch {
		case strings.HasPrefix(pgErr.Code, "08"), // connection exception
			strings.HasPrefix(pgErr.Code, "53"),  // insufficient resources
			strings.HasPrefix(pgErr.Code, "57P"): // operator intervention
			kind = KindConnection
		case strings.HasPrefix(pgErr.Code, "42"), // syntax error or access rule violation
			strings.HasPrefix(pgErr.Code, "0A"): // feature not supported
			kind = KindPrepare
		}
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		pgconn.Timeout(err),
		pgconn.SafeToRetry(err),
		errors.As(err, &netErr):
		kind = KindConnection
	}

	return &StoreError{Kind: kind, Op: op, Err: err}
}

// attachContract copies the joined contract columns, which are NULL when the reference dangles
func attachContract(record *models.EligibleRecord, id *int64, address, contractType *string) error {
	if id == nil || address == nil || contractType == nil {
		return &StoreError{
			Kind: KindIntegrity,
			Op:   "find eligible",
			Err:  errors.New("eligible row references a missing contract"),
		}
	}

	record.Contract = models.Contract{
		ID:      *id,
		Address: *address,
		Type:    *contractType,
	}
	return nil
}
