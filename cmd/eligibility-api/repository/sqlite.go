package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/airdropkit/eligibility/cmd/eligibility-api/models"
	"github.com/airdropkit/eligibility/common/db"
)

// SQLiteEligibleStore reads eligibility data from an embedded SQLite file
type SQLiteEligibleStore struct {
	db *db.SQLite
}

// NewSQLiteEligibleStore creates a new SQLite-backed store
func NewSQLiteEligibleStore(db *db.SQLite) *SQLiteEligibleStore {
	return &SQLiteEligibleStore{db: db}
}

// Acquire checks a dedicated connection out of the database/sql pool
func (r *SQLiteEligibleStore) Acquire(ctx context.Context) (EligibleSession, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, &StoreError{Kind: KindConnection, Op: "acquire connection", Err: err}
	}
	return &sqliteSession{conn: conn}, nil
}

type sqliteSession struct {
	conn *sql.Conn
	once sync.Once
}

// FindEligibleByIdentity retrieves the eligibility row and its contract
func (s *sqliteSession) FindEligibleByIdentity(ctx context.Context, identity string) (*models.EligibleRecord, error) {
	stmt, err := s.conn.PrepareContext(ctx, sqliteFindEligibleQuery)
	if err != nil {
		return nil, classifySQLiteError("prepare find eligible", KindPrepare, err)
	}
	defer stmt.Close()

	record := &models.EligibleRecord{}
	var (
		contractID      *int64
		contractAddress *string
		contractType    *string
	)

	err = stmt.QueryRowContext(ctx, identity).Scan(
		&record.ID,
		&record.Identity,
		&record.Amount,
		&record.MerkleIndex,
		&record.ContractID,
		&contractID,
		&contractAddress,
		&contractType,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEligibleNotFound
	}
	if err != nil {
		return nil, classifySQLiteError("find eligible", KindExecute, err)
	}

	if err := attachContract(record, contractID, contractAddress, contractType); err != nil {
		return nil, err
	}

	return record, nil
}

// FindProofFragments retrieves the ordered merkle path of an eligibility row
func (s *sqliteSession) FindProofFragments(ctx context.Context, eligibleID int64) ([]string, error) {
	stmt, err := s.conn.PrepareContext(ctx, sqliteFindProofFragmentsQuery)
	if err != nil {
		return nil, classifySQLiteError("prepare find proof fragments", KindPrepare, err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, eligibleID)
	if err != nil {
		return nil, classifySQLiteError("find proof fragments", KindExecute, err)
	}
	defer rows.Close()

	fragments := make([]string, 0)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, classifySQLiteError("scan proof fragment", KindExecute, err)
		}
		fragments = append(fragments, path)
	}

	if err := rows.Err(); err != nil {
		return nil, classifySQLiteError("iterate proof fragments", KindExecute, err)
	}

	return fragments, nil
}

// Release returns the connection to the pool
func (s *sqliteSession) Release() {
	s.once.Do(func() {
		s.conn.Close()
	})
}

// classifySQLiteError reports I/O, locking and lost-connection failures as KindConnection
// and everything else as the kind of the step that failed
func classifySQLiteError(op string, fallback ErrorKind, err error) error {
	kind := fallback

	var liteErr sqlite3.Error
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		kind = KindConnection
	case errors.As(err, &liteErr):
		switch liteErr.Code {
		case sqlite3.ErrCantOpen,
			sqlite3.ErrNotADB,
			sqlite3.ErrIoErr,
			sqlite3.ErrBusy,
			sqlite3.ErrLocked,
			sqlite3.ErrInterrupt:
			kind = KindConnection
		}
	}

	return &StoreError{Kind: kind, Op: op, Err: err}
}
