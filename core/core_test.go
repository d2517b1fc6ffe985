package core

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/internal/iocache"
	"github.com/carbonlens/emforecast/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newTestConfig returns a config that keeps state and output inside a temp dir.
func newTestConfig(t *testing.T) *contract.Config {
	t.Helper()
	dir := t.TempDir()
	return &contract.Config{
		DateField:         "date",
		ValueField:        "co2_emissions",
		Output:            schema.JSONOut,
		OutputFile:        filepath.Join(dir, "out.json"),
		Precision:         2,
		Horizon:           contract.DefaultHorizon,
		ConfidenceLevel:   DefaultConfidenceLevel,
		StatisticalModels: true,
		ARIMAMaxP:         2,
		ARIMAMaxD:         1,
		ARIMAMaxQ:         2,
		StateBackend:      schema.FileState,
		StateLocation:     filepath.Join(dir, "state", "ensemble.bin"),
		SyntheticSize:     "small",
		SyntheticSeed:     42,
		SyntheticStart:    testStart,
	}
}

// writeSyntheticInput generates a year of input records and points cfg at them.
func writeSyntheticInput(t *testing.T, cfg *contract.Config) {
	t.Helper()
	gen := cfg.Clone()
	gen.Output = schema.CSVOut
	gen.OutputFile = filepath.Join(t.TempDir(), "emissions.csv")
	require.NoError(t, ExecuteGenerate(quietCtx(), gen, nil))
	cfg.InputPath = gen.OutputFile
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestExecuteTrainThenPredict(t *testing.T) {
	cfg := newTestConfig(t)
	writeSyntheticInput(t, cfg)

	runStore := &iocache.MockRunStore{}
	runStore.On("BeginRun", mock.Anything, mock.Anything, 365, mock.Anything).Return(nil).Once()
	runStore.On("RecordModelScore", mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(3)
	runStore.On("EndRun", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	mgr := &iocache.MockStoreManager{}
	mgr.On("GetRunStore").Return(runStore)

	require.NoError(t, ExecuteTrain(quietCtx(), cfg, mgr))
	mgr.AssertExpectations(t)
	runStore.AssertExpectations(t)

	var summary map[string]any
	readJSON(t, cfg.OutputFile, &summary)
	assert.NotEmpty(t, summary["run_id"])
	assert.EqualValues(t, 365, summary["series_points"])
	assert.Len(t, summary["candidates"], 3)
	assert.FileExists(t, cfg.StateLocation)

	// All calls carry the run ID of the saved ensemble
	runID := runStore.Calls[0].Arguments.String(0)
	assert.Equal(t, summary["run_id"], runID)
	for _, call := range runStore.Calls {
		assert.Equal(t, runID, call.Arguments.String(0))
	}

	predictCfg := cfg.Clone()
	predictCfg.Horizon = 14
	predictCfg.OutputFile = filepath.Join(t.TempDir(), "forecast.json")
	require.NoError(t, ExecutePredict(quietCtx(), predictCfg, nil))

	var forecast schema.ForecastResult
	readJSON(t, predictCfg.OutputFile, &forecast)
	assert.Len(t, forecast.Predictions, 14)
	assert.Equal(t, "2024-01-01", forecast.Dates[0]) // day after 2023-12-31
	assert.Equal(t, summary["best_model"], string(forecast.ModelUsed))
}

func TestExecuteTrainWithoutRunTracking(t *testing.T) {
	cfg := newTestConfig(t)
	writeSyntheticInput(t, cfg)

	mgr := &iocache.MockStoreManager{}
	mgr.On("GetRunStore").Return(nil)
	require.NoError(t, ExecuteTrain(quietCtx(), cfg, mgr))
	mgr.AssertExpectations(t)
	assert.FileExists(t, cfg.StateLocation)
}

func TestExecuteTrainBeginRunFailure(t *testing.T) {
	cfg := newTestConfig(t)
	writeSyntheticInput(t, cfg)

	runStore := &iocache.MockRunStore{}
	runStore.On("BeginRun", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("database is down"))
	mgr := &iocache.MockStoreManager{}
	mgr.On("GetRunStore").Return(runStore)

	require.NoError(t, ExecuteTrain(quietCtx(), cfg, mgr))
	runStore.AssertNotCalled(t, "RecordModelScore", mock.Anything, mock.Anything, mock.Anything)
	runStore.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteTrainWritesMetricsFile(t *testing.T) {
	cfg := newTestConfig(t)
	writeSyntheticInput(t, cfg)
	cfg.MetricsFile = filepath.Join(t.TempDir(), "emforecast.prom")

	require.NoError(t, ExecuteTrain(quietCtx(), cfg, nil))
	data, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "emforecast_candidates_total")
	assert.Contains(t, string(data), "emforecast_best_test_mae")
}

func TestExecuteTrainErrors(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.InputPath = filepath.Join(t.TempDir(), "missing.csv")
	assert.ErrorIs(t, ExecuteTrain(quietCtx(), cfg, nil), schema.ErrData)

	short := filepath.Join(t.TempDir(), "short.csv")
	require.NoError(t, os.WriteFile(short, []byte("date,co2_emissions\n2024-01-01,1\n2024-01-02,2\n"), 0o644))
	cfg.InputPath = short
	assert.ErrorIs(t, ExecuteTrain(quietCtx(), cfg, nil), schema.ErrInsufficientData)
	assert.NoFileExists(t, cfg.StateLocation)
}

func TestExecutePredictWithoutState(t *testing.T) {
	cfg := newTestConfig(t)
	err := ExecutePredict(quietCtx(), cfg, nil)
	assert.ErrorIs(t, err, schema.ErrLoad)
}

func TestExecuteAnalyze(t *testing.T) {
	cfg := newTestConfig(t)
	writeSyntheticInput(t, cfg)

	require.NoError(t, ExecuteAnalyze(quietCtx(), cfg, nil))
	var report schema.TrendReport
	readJSON(t, cfg.OutputFile, &report)
	assert.Len(t, report.Seasonality.MonthlyAverages, 12)
	assert.Positive(t, report.Statistics.Mean)
	assert.NotEmpty(t, report.AnalysisDate)

	cfg.InputPath = filepath.Join(t.TempDir(), "missing.csv")
	err := ExecuteAnalyze(quietCtx(), cfg, nil)
	assert.ErrorIs(t, err, schema.ErrAnalysis)
	assert.ErrorIs(t, err, schema.ErrData)
}

func TestExecuteBacktestSynthetic(t *testing.T) {
	cfg := newTestConfig(t)
	require.NoError(t, ExecuteBacktest(quietCtx(), cfg, nil))

	var report map[string]any
	readJSON(t, cfg.OutputFile, &report)
	assert.EqualValues(t, 292, report["train_points"])
	assert.EqualValues(t, 73, report["holdout_points"])
	assert.Contains(t, report, "validation_passed")
}

func TestExecuteBacktestFromFile(t *testing.T) {
	cfg := newTestConfig(t)
	writeSyntheticInput(t, cfg)
	cfg.SyntheticSize = "large" // ignored when an input file is given
	require.NoError(t, ExecuteBacktest(quietCtx(), cfg, nil))

	var report map[string]any
	readJSON(t, cfg.OutputFile, &report)
	assert.EqualValues(t, 292, report["train_points"])
}

func TestExecuteGenerate(t *testing.T) {
	cfg := newTestConfig(t)
	require.NoError(t, ExecuteGenerate(quietCtx(), cfg, nil))

	var rows []map[string]any
	readJSON(t, cfg.OutputFile, &rows)
	require.Len(t, rows, 365)
	assert.Equal(t, "2023-01-01", rows[0]["date"])
	assert.Contains(t, rows[0], "co2_emissions")
}
