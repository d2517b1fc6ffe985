package iocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores initializes the global manager with the run tracking store.
// The none backend installs a no-op store.
func InitStores(runBackend schema.DatabaseBackend, runConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		// This function body runs exactly once, even with concurrent calls.
		runs, err := NewRunStore(runBackend, runConnStr)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize run tracking: %w", err)
			return
		}
		Manager.Lock()
		defer Manager.Unlock()
		Manager.runs = runs
	})

	// After once.Do, initErr will contain any error from the initialization block.
	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.runs != nil {
			_ = Manager.runs.Close()
		}
	})
}

// ClearRuns clears the run tracking data for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the run tables.
// For NoneBackend, it does nothing.
func ClearRuns(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		return removeFile(dbFilePath)

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		for _, table := range []string{modelScoresTable, trainingRunsTable} {
			if err := clearSQLTable(backend, connStr, table); err != nil {
				return err
			}
		}
		return nil

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported run backend for clearing: %s", backend)
	}
}

// ClearState deletes every saved ensemble of the configured state backend.
// For files and SQLite, it deletes the file. For MySQL/PostgreSQL, it drops the state table.
// For Redis, it deletes the state keys.
func ClearState(ctx context.Context, cfg *contract.Config) error {
	switch cfg.StateBackend {
	case schema.FileState:
		return removeFile(cfg.StateLocation)

	case schema.SQLiteState:
		path := cfg.StateDBConnect
		if path == "" {
			path = contract.GetStateDBFilePath()
		}
		return removeFile(path)

	case schema.MySQLState, schema.PostgreSQLState:
		return clearSQLTable(cfg.StateBackend.DatabaseBackend(), cfg.StateDBConnect, stateTable)

	case schema.RedisState:
		store, err := NewRedisStateStore(ctx, cfg.StateDBConnect)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		return store.Clear(ctx)

	default:
		return fmt.Errorf("unsupported state backend for clearing: %s", cfg.StateBackend)
	}
}

// removeFile deletes path and ignores a missing file.
func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(backend schema.DatabaseBackend, connStr, tableName string) error {
	if err := validateTableName(tableName); err != nil {
		return err
	}
	db, err := sql.Open(driverName(backend), connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", backend, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", backend, err)
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(tableName, backend))
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}

	return nil
}
