package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrate(t *testing.T) {
	ctx := context.Background()

	// Given: a database in a directory that does not exist yet
	db, err := Open(ctx, filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var mode string
	require.NoError(t, db.QueryRowContext(ctx, `PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)

	fsys := fstest.MapFS{
		"sql/001_a.sql": {Data: []byte(`CREATE TABLE a (id INTEGER);`)},
		"sql/002_b.sql": {Data: []byte(`CREATE TABLE b (id INTEGER); INSERT INTO a (id) VALUES (1);`)},
		"sql/README.md": {Data: []byte(`not a migration`)},
	}

	// When: migrating twice
	require.NoError(t, Migrate(ctx, db, fsys, "sql"))
	require.NoError(t, Migrate(ctx, db, fsys, "sql"))

	// Then: each file ran exactly once
	var applied, rows int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(1) FROM _migrations`).Scan(&applied))
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(1) FROM a`).Scan(&rows))
	assert.Equal(t, 2, applied)
	assert.Equal(t, 1, rows)
}

func TestMigrate_FailureRollsBack(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// Given: a migration that fails halfway
	fsys := fstest.MapFS{
		"sql/001_bad.sql": {Data: []byte(`CREATE TABLE c (id INTEGER); SELECT * FROM missing;`)},
	}

	// When: applying it
	err = Migrate(ctx, db, fsys, "sql")

	// Then: it is reported and not recorded
	require.Error(t, err)
	var applied int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(1) FROM _migrations`).Scan(&applied))
	assert.Zero(t, applied)
}
