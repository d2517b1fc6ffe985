package iocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/schema"
	"github.com/go-sql-driver/mysql"   // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// stateTable is the name of the table holding saved ensembles.
const stateTable = "forecast_model_states"

// SQLStateStore keeps ensembles in a table keyed by state name.
type SQLStateStore struct {
	db        *sql.DB
	tableName string
	backend   schema.DatabaseBackend
	connStr   string
}

var _ contract.StateStore = &SQLStateStore{} // Compile-time check

// NewSQLStateStore opens the database and creates the state table when missing.
func NewSQLStateStore(tableName string, backend schema.DatabaseBackend, connStr string) (*SQLStateStore, error) {
	// Validate table name to prevent SQL injection
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}
	if backend == schema.NoneBackend {
		return nil, fmt.Errorf("state backend cannot be %s", backend)
	}

	db, err := openDatabase(backend, connStr, contract.GetStateDBFilePath())
	if err != nil {
		return nil, err
	}

	query := getCreateStateTableQuery(tableName, backend)
	if _, err := db.Exec(query); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	return &SQLStateStore{
		db:        db,
		tableName: tableName,
		backend:   backend,
		connStr:   connStr,
	}, nil
}

// getCreateStateTableQuery returns the CREATE TABLE query for the given backend.
func getCreateStateTableQuery(tableName string, backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(tableName, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				state_name VARCHAR(255) PRIMARY KEY,
				state_blob LONGBLOB NOT NULL,
				saved_at BIGINT NOT NULL
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				state_name TEXT PRIMARY KEY,
				state_blob BYTEA NOT NULL,
				saved_at BIGINT NOT NULL
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				state_name TEXT PRIMARY KEY,
				state_blob BLOB NOT NULL,
				saved_at INTEGER NOT NULL
			);
		`, quotedTableName)
	}
}

// Get retrieves the blob saved under name.
func (ss *SQLStateStore) Get(ctx context.Context, name string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT state_blob FROM %s WHERE state_name = %s`,
		quoteTableName(ss.tableName, ss.backend), placeholders(ss.backend, 1))

	var blob []byte
	err := ss.db.QueryRowContext(ctx, query, name).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no saved state named %q", schema.ErrLoad, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", schema.ErrLoad, err)
	}
	return blob, nil
}

// Set inserts or replaces the blob saved under name.
func (ss *SQLStateStore) Set(ctx context.Context, name string, blob []byte, savedAt time.Time) error {
	if _, err := ss.db.ExecContext(ctx, ss.getUpsertQuery(), name, blob, savedAt.UnixMilli()); err != nil {
		return fmt.Errorf("failed to save state %q: %w", name, err)
	}
	return nil
}

// getUpsertQuery returns the UPSERT query for the backend.
func (ss *SQLStateStore) getUpsertQuery() string {
	quotedTableName := quoteTableName(ss.tableName, ss.backend)
	switch ss.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (state_name, state_blob, saved_at) VALUES (?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE state_blob = new.state_blob, saved_at = new.saved_at`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (state_name, state_blob, saved_at) VALUES ($1, $2, $3)
			ON CONFLICT (state_name) DO UPDATE SET state_blob = EXCLUDED.state_blob, saved_at = EXCLUDED.saved_at`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (state_name, state_blob, saved_at) VALUES (?, ?, ?)`, quotedTableName)
	}
}

// Close closes the underlying DB connection.
func (ss *SQLStateStore) Close() error {
	if ss.db != nil {
		return ss.db.Close()
	}
	return nil
}

// GetStatus returns status information about the state table.
func (ss *SQLStateStore) GetStatus() (schema.StateStatus, error) {
	status := schema.StateStatus{
		Backend:   string(ss.backend),
		Connected: ss.db != nil,
	}
	if ss.db == nil {
		return status, nil
	}

	quotedTableName := quoteTableName(ss.tableName, ss.backend)

	row := ss.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedTableName))
	if err := row.Scan(&status.TotalStates); err != nil {
		return status, fmt.Errorf("failed to get total states: %w", err)
	}
	if status.TotalStates == 0 {
		return status, nil
	}

	var lastMs, oldestMs int64
	row = ss.db.QueryRow(fmt.Sprintf("SELECT MAX(saved_at), MIN(saved_at) FROM %s", quotedTableName))
	if err := row.Scan(&lastMs, &oldestMs); err != nil {
		return status, fmt.Errorf("failed to get save times: %w", err)
	}
	status.LastSaved = time.UnixMilli(lastMs)
	status.OldestSaved = time.UnixMilli(oldestMs)

	row = ss.db.QueryRow(fmt.Sprintf("SELECT state_name FROM %s ORDER BY saved_at DESC LIMIT 1", quotedTableName))
	if err := row.Scan(&status.LastLocation); err != nil {
		return status, fmt.Errorf("failed to get last state name: %w", err)
	}

	// Fallback rough estimate if the size queries fail
	status.TotalBytes = int64(status.TotalStates) * 10_000

	switch ss.backend {
	case schema.SQLiteBackend:
		row = ss.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(LENGTH(state_blob)), 0) FROM %s", quotedTableName))
		_ = row.Scan(&status.TotalBytes)
	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(ss.connStr)
		if err != nil || cfg.DBName == "" {
			break
		}
		sizeQuery := "SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?"
		_ = ss.db.QueryRow(sizeQuery, cfg.DBName, ss.tableName).Scan(&status.TotalBytes)
	case schema.PostgreSQLBackend:
		_ = ss.db.QueryRow("SELECT pg_total_relation_size($1)", ss.tableName).Scan(&status.TotalBytes)
	}

	return status, nil
}
