package repository

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airdropkit/eligibility/common/config"
	"github.com/airdropkit/eligibility/common/db"
	"github.com/airdropkit/eligibility/common/logger"
)

const (
	maxUint256 = "115792089237316195423570985008687907853269984665640564039457584007913129639935"
	twoTo64    = "18446744073709551616"
)

func sqliteFileConfig(path string, autoMigrate bool) *config.Config {
	return &config.Config{Database: config.DatabaseConfig{
		Driver:      config.DriverSQLite,
		SQLitePath:  path,
		MaxConns:    2,
		MaxIdleTime: time.Minute,
		MaxLifetime: time.Hour,
		AutoMigrate: autoMigrate,
	}}
}

// seedSQLite creates a migrated database file holding alice with fragments stored out of position order
func seedSQLite(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contracts.db")

	lite, err := db.OpenSQLite(ctx, sqliteFileConfig(path, true), logger.NewWithWriter(io.Discard, "info", "json"))
	require.NoError(t, err)
	defer lite.Close()
	require.NoError(t, lite.Migrate())

	stmts := []string{
		`INSERT INTO contracts (id, contract_address, contract_type) VALUES (1, '0xabc...', 'vesting')`,
		`INSERT INTO eligibles (id, identity, amount, merkle_index, contract_id) VALUES (7, 'alice', '` + maxUint256 + `', '` + twoTo64 + `', 1)`,
		`INSERT INTO eligibles (id, identity, amount, merkle_index, contract_id) VALUES (8, 'carol', '1', '0', 1)`,
		`INSERT INTO merkle_paths (eligible_id, position, path) VALUES (7, 2, 'h3')`,
		`INSERT INTO merkle_paths (eligible_id, position, path) VALUES (7, 0, 'h1')`,
		`INSERT INTO merkle_paths (eligible_id, position, path) VALUES (7, 1, 'h2')`,
	}
	for _, stmt := range stmts {
		_, err := lite.ExecContext(ctx, stmt)
		require.NoError(t, err, stmt)
	}

	return path
}

func openReadOnlyStore(t *testing.T, path string) *SQLiteEligibleStore {
	t.Helper()

	lite, err := db.OpenSQLite(context.Background(), sqliteFileConfig(path, false), logger.NewWithWriter(io.Discard, "info", "json"))
	require.NoError(t, err)
	t.Cleanup(func() { lite.Close() })

	return NewSQLiteEligibleStore(lite)
}

func TestSQLiteEngine_FragmentsFollowPosition(t *testing.T) {
	store := openReadOnlyStore(t, seedSQLite(t))
	ctx := context.Background()

	session, err := store.Acquire(ctx)
	require.NoError(t, err)
	defer session.Release()

	record, err := session.FindEligibleByIdentity(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(7), record.ID)
	assert.Equal(t, maxUint256, record.Amount)
	assert.Equal(t, twoTo64, record.MerkleIndex)
	assert.Equal(t, "0xabc...", record.Contract.Address)
	assert.Equal(t, "vesting", record.Contract.Type)

	path, err := session.FindProofFragments(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"h1", "h2", "h3"}, path)
}

func TestSQLiteEngine_EmptyPathAndMissingIdentity(t *testing.T) {
	store := openReadOnlyStore(t, seedSQLite(t))
	ctx := context.Background()

	session, err := store.Acquire(ctx)
	require.NoError(t, err)
	defer session.Release()

	record, err := session.FindEligibleByIdentity(ctx, "carol")
	require.NoError(t, err)
	path, err := session.FindProofFragments(ctx, record.ID)
	require.NoError(t, err)
	assert.NotNil(t, path)
	assert.Empty(t, path)

	_, err = session.FindEligibleByIdentity(ctx, "bob")
	assert.ErrorIs(t, err, ErrEligibleNotFound)
}

func TestSQLiteEngine_ReadOnlyRejectsWrites(t *testing.T) {
	store := openReadOnlyStore(t, seedSQLite(t))

	_, err := store.db.ExecContext(context.Background(), `DELETE FROM merkle_paths`)
	assert.Error(t, err)
}
