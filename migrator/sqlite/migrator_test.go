package sqlite

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate(t *testing.T) {
	db := openMemoryDB(t)

	require.NoError(t, Migrate(db))

	var tables int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'subscribers'`).Scan(&tables)
	require.NoError(t, err)
	assert.Equal(t, 1, tables)

	var indexes int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_subscribers_enabled'`).Scan(&indexes)
	require.NoError(t, err)
	assert.Equal(t, 1, indexes)
}

func TestMigrate_Twice(t *testing.T) {
	db := openMemoryDB(t)

	require.NoError(t, Migrate(db))
	assert.NoError(t, Migrate(db))
}
