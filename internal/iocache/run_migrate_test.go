package iocache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/carbonlens/emforecast/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateRuns_NoneBackend(t *testing.T) {
	err := MigrateRuns(schema.NoneBackend, "", -1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "migrations are not supported for NoneBackend")
}

func TestMigrateRuns_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_migration.db")

	// Run migration to latest version
	require.NoError(t, MigrateRuns(schema.SQLiteBackend, dbPath, -1))

	_, err := os.Stat(dbPath)
	assert.NoError(t, err)

	// Run migration again (should be a no-op)
	assert.NoError(t, MigrateRuns(schema.SQLiteBackend, dbPath, -1))

	// Step down to version 1, roll back everything, then go back up
	assert.NoError(t, MigrateRuns(schema.SQLiteBackend, dbPath, 1))
	assert.NoError(t, MigrateRuns(schema.SQLiteBackend, dbPath, 0))
	assert.NoError(t, MigrateRuns(schema.SQLiteBackend, dbPath, 2))

	// The migrated schema is usable by the run store
	store, err := NewRunStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 0, status.TotalRuns)
}

func TestMigrateRuns_SQLiteInMemory(t *testing.T) {
	require.NoError(t, MigrateRuns(schema.SQLiteBackend, ":memory:", -1))
}

func TestMigrationDirs(t *testing.T) {
	for _, backend := range []schema.DatabaseBackend{schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend} {
		entries, err := migrationsFS.ReadDir(migrationDir(backend))
		require.NoError(t, err, backend)
		assert.Len(t, entries, 4, "up and down files for two versions in %s", backend)
	}
}
