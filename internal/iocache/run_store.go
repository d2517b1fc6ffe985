package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/schema"
)

// Table names for run tracking.
const (
	trainingRunsTable = "forecast_training_runs"
	modelScoresTable  = "forecast_model_scores"
)

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &RunStoreImpl{backend: backend}, nil
	}

	db, err := openDatabase(backend, connStr, contract.GetRunDBFilePath())
	if err != nil {
		return nil, err
	}

	// Create the table schemas
	if err := createRunTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}

	return &RunStoreImpl{
		db:      db,
		backend: backend,
	}, nil
}

// createRunTables creates the run tracking tables.
func createRunTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{trainingRunsTable, getCreateTrainingRunsQuery(backend)},
		{modelScoresTable, getCreateModelScoresQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}

	return nil
}

// getCreateTrainingRunsQuery returns the CREATE TABLE query for forecast_training_runs.
func getCreateTrainingRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(trainingRunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id VARCHAR(36) PRIMARY KEY,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms BIGINT,
				series_points INT NOT NULL,
				best_model VARCHAR(32),
				best_test_mae DOUBLE,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT PRIMARY KEY,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms BIGINT,
				series_points INT NOT NULL,
				best_model TEXT,
				best_test_mae DOUBLE PRECISION,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT PRIMARY KEY,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				series_points INTEGER NOT NULL,
				best_model TEXT,
				best_test_mae REAL,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateModelScoresQuery returns the CREATE TABLE query for forecast_model_scores.
func getCreateModelScoresQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(modelScoresTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id VARCHAR(36) NOT NULL,
				model_slot VARCHAR(32) NOT NULL,
				model_kind VARCHAR(32) NOT NULL,
				degraded BOOLEAN NOT NULL,
				test_mae DOUBLE NOT NULL,
				test_rmse DOUBLE NOT NULL,
				train_mae DOUBLE,
				test_r2 DOUBLE,
				aic DOUBLE,
				arima_order VARCHAR(16),
				PRIMARY KEY (run_id, model_slot)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT NOT NULL,
				model_slot TEXT NOT NULL,
				model_kind TEXT NOT NULL,
				degraded BOOLEAN NOT NULL,
				test_mae DOUBLE PRECISION NOT NULL,
				test_rmse DOUBLE PRECISION NOT NULL,
				train_mae DOUBLE PRECISION,
				test_r2 DOUBLE PRECISION,
				aic DOUBLE PRECISION,
				arima_order TEXT,
				PRIMARY KEY (run_id, model_slot)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT NOT NULL,
				model_slot TEXT NOT NULL,
				model_kind TEXT NOT NULL,
				degraded INTEGER NOT NULL,
				test_mae REAL NOT NULL,
				test_rmse REAL NOT NULL,
				train_mae REAL,
				test_r2 REAL,
				aic REAL,
				arima_order TEXT,
				PRIMARY KEY (run_id, model_slot)
			);
		`, quotedTableName)
	}
}

// BeginRun records the start of a training run.
func (rs *RunStoreImpl) BeginRun(runID string, startTime time.Time, seriesPoints int, configParams map[string]any) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	// Serialize config params to JSON
	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return fmt.Errorf("failed to marshal config params: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_id, start_time, series_points, config_params) VALUES (%s)`,
		quoteTableName(trainingRunsTable, rs.backend), placeholders(rs.backend, 4))
	if _, err := rs.db.Exec(query, runID, formatTime(startTime, rs.backend), seriesPoints, string(configJSON)); err != nil {
		return fmt.Errorf("failed to insert training run: %w", err)
	}
	return nil
}

// EndRun updates the training run with completion data.
func (rs *RunStoreImpl) EndRun(runID string, endTime time.Time, best schema.ModelKind, bestTestMAE float64) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	// First, get the start_time to calculate duration
	quotedTableName := quoteTableName(trainingRunsTable, rs.backend)
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, placeholders(rs.backend, 1))

	var rawStart any
	if err := rs.db.QueryRow(query, runID).Scan(&rawStart); err != nil {
		return fmt.Errorf("failed to get start_time for run %s: %w", runID, err)
	}
	startTime, err := scanTime(rawStart)
	if err != nil {
		return fmt.Errorf("failed to parse start_time: %w", err)
	}
	durationMs := endTime.Sub(startTime).Milliseconds()

	var updateQuery string
	switch rs.backend {
	case schema.PostgreSQLBackend:
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = $1, run_duration_ms = $2, best_model = $3, best_test_mae = $4 WHERE run_id = $5`, quotedTableName)
	default: // SQLite and MySQL
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, best_model = ?, best_test_mae = ? WHERE run_id = ?`, quotedTableName)
	}

	if _, err := rs.db.Exec(updateQuery, formatTime(endTime, rs.backend), durationMs, string(best), bestTestMAE, runID); err != nil {
		return fmt.Errorf("failed to update training run: %w", err)
	}
	return nil
}

// RecordModelScore stores the performance of one candidate slot.
func (rs *RunStoreImpl) RecordModelScore(runID string, slot schema.ModelKind, rec schema.TrainedModelRecord) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	score := schema.NewModelScoreRecord(runID, slot, rec)
	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, model_slot, model_kind, degraded, test_mae, test_rmse,
		                train_mae, test_r2, aic, arima_order)
		VALUES (%s)
	`, quoteTableName(modelScoresTable, rs.backend), placeholders(rs.backend, 10))
	args := []any{
		score.RunID, score.ModelSlot, score.ModelKind, score.Degraded, score.TestMAE, score.TestRMSE,
		score.TrainMAE, score.TestR2, score.AIC, score.Order,
	}

	if _, err := rs.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to insert model score: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}

	if rs.backend == schema.NoneBackend || rs.db == nil {
		return status, nil
	}

	quotedRuns := quoteTableName(trainingRunsTable, rs.backend)

	// Get total runs
	row := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedRuns))
	if err := row.Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		// Get last run info
		var rawLast any
		row = rs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY start_time DESC LIMIT 1", quotedRuns))
		if err := row.Scan(&status.LastRunID, &rawLast); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		lastRunTime, err := scanTime(rawLast)
		if err != nil {
			return status, fmt.Errorf("failed to parse last run time: %w", err)
		}
		status.LastRunTime = lastRunTime

		// Get oldest run time
		var rawOldest any
		row = rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY start_time ASC LIMIT 1", quotedRuns))
		if err := row.Scan(&rawOldest); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		oldestRunTime, err := scanTime(rawOldest)
		if err != nil {
			return status, fmt.Errorf("failed to parse oldest run time: %w", err)
		}
		status.OldestRunTime = oldestRunTime
	}

	// Get table sizes
	for _, table := range []string{trainingRunsTable, modelScoresTable} {
		var count int64
		row = rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllRuns retrieves all training runs from the store, oldest first.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.TrainingRunRecord, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, start_time, end_time, run_duration_ms, series_points, best_model, best_test_mae, config_params
		FROM %s ORDER BY start_time, run_id`, quoteTableName(trainingRunsTable, rs.backend))

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query training runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.TrainingRunRecord

	for rows.Next() {
		var record schema.TrainingRunRecord
		var rawStart, rawEnd any
		if err := rows.Scan(&record.RunID, &rawStart, &rawEnd, &record.DurationMs, &record.SeriesPoints,
			&record.BestModel, &record.BestTestMAE, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan training run: %w", err)
		}
		if record.StartTime, err = scanTime(rawStart); err != nil {
			return nil, fmt.Errorf("failed to parse start_time: %w", err)
		}
		if rawEnd != nil {
			endTime, err := scanTime(rawEnd)
			if err != nil {
				return nil, fmt.Errorf("failed to parse end_time: %w", err)
			}
			record.EndTime = &endTime
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating training runs: %w", err)
	}

	return results, nil
}

// GetAllModelScores retrieves all candidate scores from the store.
func (rs *RunStoreImpl) GetAllModelScores() ([]schema.ModelScoreRecord, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, model_slot, model_kind, degraded, test_mae, test_rmse,
    train_mae, test_r2, aic, arima_order
    FROM %s ORDER BY run_id, model_slot`, quoteTableName(modelScoresTable, rs.backend))

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query model scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ModelScoreRecord

	for rows.Next() {
		var record schema.ModelScoreRecord
		if err := rows.Scan(&record.RunID, &record.ModelSlot, &record.ModelKind, &record.Degraded,
			&record.TestMAE, &record.TestRMSE, &record.TrainMAE, &record.TestR2, &record.AIC,
			&record.Order); err != nil {
			return nil, fmt.Errorf("failed to scan model score: %w", err)
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating model scores: %w", err)
	}

	return results, nil
}
