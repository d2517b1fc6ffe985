// Package core has the emission forecasting and trend analysis engine: series preparation,
// candidate training and selection, forecasting, trend analysis and backtesting.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/internal/iocache"
	"github.com/carbonlens/emforecast/internal/metrics"
	"github.com/carbonlens/emforecast/internal/outwriter"
	"github.com/carbonlens/emforecast/schema"
	"github.com/google/uuid"
)

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// ExecuteTrain trains all candidates on the input series, saves the ensemble and prints the scores.
// It serves as the main entry point for the 'train' command.
func ExecuteTrain(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	series, err := LoadSeries(cfg)
	if err != nil {
		return err
	}
	observer := metrics.NewTrainingMetrics()
	state, err := TrainAndSave(ctx, cfg, mgr, series, observer)
	if err != nil {
		return err
	}
	WriteMetricsFile(cfg, observer)
	return outwriter.WriteTrainingResults(state, cfg, time.Since(start))
}

// ExecutePredict loads the saved ensemble and prints a forecast of cfg.Horizon days.
// It serves as the main entry point for the 'predict' command.
func ExecutePredict(ctx context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	start := time.Now()
	state, err := LoadState(ctx, cfg)
	if err != nil {
		return err
	}
	result, err := Predict(state, cfg.Horizon, PredictOptions{ConfidenceLevel: cfg.ConfidenceLevel})
	if err != nil {
		return err
	}
	return outwriter.WriteForecastResults(result, cfg, time.Since(start))
}

// ExecuteAnalyze prints the trend report of the input series.
// It serves as the main entry point for the 'analyze' command.
func ExecuteAnalyze(_ context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	start := time.Now()
	records, err := LoadRecords(cfg.InputPath, cfg.DateField, cfg.ValueField)
	if err != nil {
		return fmt.Errorf("%w: %w", schema.ErrAnalysis, err)
	}
	report, err := AnalyzeRecords(records, time.Now())
	if err != nil {
		return err
	}
	return outwriter.WriteTrendResults(report, cfg, time.Since(start))
}

// ExecuteBacktest trains on the head of the series and scores the forecast of its tail.
// Without an input file it runs on a synthetic series.
func ExecuteBacktest(ctx context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	var series schema.ObservationSeries
	if cfg.InputPath == "" {
		series = SyntheticSeries(cfg.SyntheticStart, SyntheticSizes[cfg.SyntheticSize], cfg.SyntheticSeed)
		if !isQuiet(ctx) {
			contract.LogInfo("Generated %d days of synthetic emissions (seed %d)", series.Len(), cfg.SyntheticSeed)
		}
	} else {
		var err error
		if series, err = LoadSeries(cfg); err != nil {
			return err
		}
	}

	observer := metrics.NewTrainingMetrics()
	report, err := Backtest(ctx, series, TrainOptionsFromConfig(cfg, observer),
		PredictOptions{ConfidenceLevel: cfg.ConfidenceLevel}, time.Now())
	if err != nil {
		return err
	}
	WriteMetricsFile(cfg, observer)
	return outwriter.WriteBacktestResults(report, cfg)
}

// ExecuteGenerate writes a synthetic emission series as input records.
func ExecuteGenerate(_ context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	series := SyntheticSeries(cfg.SyntheticStart, SyntheticSizes[cfg.SyntheticSize], cfg.SyntheticSeed)
	return outwriter.WriteSeries(series, cfg)
}

// LoadSeries reads the configured input file and prepares it into a daily series.
func LoadSeries(cfg *contract.Config) (schema.ObservationSeries, error) {
	records, err := LoadRecords(cfg.InputPath, cfg.DateField, cfg.ValueField)
	if err != nil {
		return schema.ObservationSeries{}, err
	}
	return PrepareSeries(records)
}

// TrainOptionsFromConfig builds the training options of one run. obs may be nil.
func TrainOptionsFromConfig(cfg *contract.Config, obs contract.TrainingObserver) TrainOptions {
	return TrainOptions{
		Capabilities: ResolveCapabilities(cfg),
		Grid:         ARIMAGrid{MaxP: cfg.ARIMAMaxP, MaxD: cfg.ARIMAMaxD, MaxQ: cfg.ARIMAMaxQ},
		Observer:     obs,
	}
}

// TrainAndSave trains on series, records the run when run tracking is configured
// and saves the ensemble to the configured state location.
func TrainAndSave(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, series schema.ObservationSeries, obs contract.TrainingObserver) (schema.ModelEnsembleState, error) {
	opts := TrainOptionsFromConfig(cfg, obs)
	opts.RunID = uuid.NewString()

	// --- 0. Begin Run Tracking (if configured) ---
	var runStore contract.RunStore
	if mgr != nil {
		runStore = mgr.GetRunStore()
	}
	tracked := false
	if runStore != nil {
		configParams := map[string]any{
			"input":              cfg.InputPath,
			"statistical_models": cfg.StatisticalModels,
			"arima_max_order":    schema.ARIMAOrder{P: cfg.ARIMAMaxP, D: cfg.ARIMAMaxD, Q: cfg.ARIMAMaxQ}.String(),
			"state_backend":      string(cfg.StateBackend),
			"state_location":     cfg.StateLocation,
		}
		if err := runStore.BeginRun(opts.RunID, time.Now(), series.Len(), configParams); err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
		} else {
			tracked = true
		}
	}

	// --- 1. Training ---
	state, err := Train(ctx, series, opts)
	if err != nil {
		return schema.ModelEnsembleState{}, err
	}

	// --- 2. End Run Tracking ---
	if tracked {
		recordRun(runStore, state)
	}

	// --- 3. Persist ---
	err = iocache.WithStateStore(ctx, cfg, func(store contract.StateStore) error {
		return iocache.SaveEnsemble(ctx, store, cfg.StateLocation, state)
	})
	if err != nil {
		return schema.ModelEnsembleState{}, fmt.Errorf("saving state to %s: %w", cfg.StateLocation, err)
	}
	return state, nil
}

// recordRun stores the candidate scores and closes the run. Failures are logged, not returned.
func recordRun(runStore contract.RunStore, state schema.ModelEnsembleState) {
	for _, slot := range schema.CandidateOrder {
		rec, ok := state.Models[slot]
		if !ok {
			continue
		}
		if err := runStore.RecordModelScore(state.RunID, slot, rec); err != nil {
			contract.LogWarn(fmt.Sprintf("Run tracking failed for %s score", slot), err)
		}
	}
	best := state.Models[state.BestModel]
	if err := runStore.EndRun(state.RunID, time.Now(), state.BestModel, best.Performance.TestMAE); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}

// LoadState reads the ensemble saved at the configured state location.
func LoadState(ctx context.Context, cfg *contract.Config) (schema.ModelEnsembleState, error) {
	var state schema.ModelEnsembleState
	err := iocache.WithStateStore(ctx, cfg, func(store contract.StateStore) error {
		var err error
		state, err = iocache.LoadEnsemble(ctx, store, cfg.StateLocation)
		return err
	})
	return state, err
}

// WriteMetricsFile writes the training metrics when a metrics file is configured.
func WriteMetricsFile(cfg *contract.Config, m *metrics.TrainingMetrics) {
	if cfg.MetricsFile == "" {
		return
	}
	if err := m.WriteToFile(cfg.MetricsFile); err != nil {
		contract.LogWarn("Failed to write metrics file", err)
	}
}
