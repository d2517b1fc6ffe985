package core

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/schema"
	"github.com/google/uuid"
)

// Candidate outcomes reported to the training observer.
const (
	OutcomeFitted   = "fitted"
	OutcomeDegraded = "degraded"
	OutcomeFailed   = "failed"
)

// Capabilities describes which optional model families may run in this process.
type Capabilities struct {
	StatisticalModels bool
}

// ResolveCapabilities decides once, from configuration, which candidates are available.
func ResolveCapabilities(cfg *contract.Config) Capabilities {
	return Capabilities{StatisticalModels: cfg.StatisticalModels}
}

// TrainOptions controls one training run.
type TrainOptions struct {
	Capabilities Capabilities
	Grid         ARIMAGrid
	Observer     contract.TrainingObserver // may be nil
	RunID        string                    // generated when empty
}

// DefaultTrainOptions enables every candidate with the default ARIMA grid.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Capabilities: Capabilities{StatisticalModels: true},
		Grid:         DefaultARIMAGrid,
	}
}

// Train fits every candidate on the same chronological split and selects the one
// with the lowest held-out MAE. Individual candidate failures are logged and skipped.
func Train(ctx context.Context, series schema.ObservationSeries, opts TrainOptions) (schema.ModelEnsembleState, error) {
	frame := BuildFeatures(series)
	if frame.Len() < minFeatureRows {
		return schema.ModelEnsembleState{}, fmt.Errorf("%w: %d points give %d feature rows, need at least %d",
			schema.ErrInsufficientData, series.Len(), frame.Len(), minFeatureRows)
	}

	models := make(map[schema.ModelKind]schema.TrainedModelRecord, len(schema.CandidateOrder))
	for _, slot := range schema.CandidateOrder {
		if err := ctx.Err(); err != nil {
			return schema.ModelEnsembleState{}, err
		}
		if !isQuiet(ctx) {
			contract.LogInfo("Training %s model...", slot)
		}
		start := time.Now()
		rec, err := recoverFit(slot, func() (schema.TrainedModelRecord, error) {
			return trainCandidate(slot, series, frame, opts)
		})
		elapsed := time.Since(start)
		if err != nil {
			contract.LogWarn(fmt.Sprintf("Error training %s model", slot), err)
			observeCandidate(opts.Observer, slot, OutcomeFailed, elapsed)
			continue
		}
		outcome := OutcomeFitted
		if rec.Degraded {
			outcome = OutcomeDegraded
		}
		observeCandidate(opts.Observer, slot, outcome, elapsed)
		models[slot] = rec
	}

	if len(models) == 0 {
		// Safety net: the linear model is attempted one last time
		rec, err := recoverFit(schema.LinearModel, func() (schema.TrainedModelRecord, error) {
			return trainLinear(frame)
		})
		if err != nil {
			return schema.ModelEnsembleState{}, fmt.Errorf("%w: %w", schema.ErrTrainingFailed, err)
		}
		models[schema.LinearModel] = rec
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	best := selectBest(models)
	state := schema.ModelEnsembleState{
		RunID:        runID,
		TrainedAt:    time.Now().UTC(),
		IsTrained:    true,
		BestModel:    best,
		SeriesEnd:    series.LastDate(),
		SeriesPoints: series.Len(),
		Models:       models,
	}
	if opts.Observer != nil {
		opts.Observer.ObserveBest(best, models[best].Performance.TestMAE)
	}
	if !isQuiet(ctx) {
		contract.LogInfo("Best model: %s (MAE: %.4f)", best, models[best].Performance.TestMAE)
	}
	return state, nil
}

// recoverFit runs fit and turns a panic from the numeric routines into an error,
// so one failing candidate cannot abort the whole ensemble.
func recoverFit(slot schema.ModelKind, fit func() (schema.TrainedModelRecord, error)) (rec schema.TrainedModelRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = schema.TrainedModelRecord{}
			err = fmt.Errorf("%s model fit panicked: %v", slot, r)
		}
	}()
	return fit()
}

// trainCandidate trains one slot. Statistical slots fall back to the linear model
// when disabled or when their own fit fails.
func trainCandidate(slot schema.ModelKind, series schema.ObservationSeries, frame schema.FeatureFrame, opts TrainOptions) (schema.TrainedModelRecord, error) {
	if slot == schema.LinearModel {
		return trainLinear(frame)
	}
	if !opts.Capabilities.StatisticalModels {
		contract.LogWarn(fmt.Sprintf("%s model not available", slot), fmt.Errorf("statistical models disabled, using linear model instead"))
		return degradedLinear(frame, "statistical models disabled")
	}

	var rec schema.TrainedModelRecord
	var err error
	switch slot {
	case schema.ARIMAModel:
		rec, err = trainARIMA(series, opts.Grid)
	case schema.SeasonalModel:
		rec, err = trainSeasonal(series)
	default:
		return schema.TrainedModelRecord{}, fmt.Errorf("unknown model kind %q", slot)
	}
	if err != nil {
		contract.LogWarn(fmt.Sprintf("Error fitting %s model, using linear model instead", slot), err)
		return degradedLinear(frame, err.Error())
	}
	return rec, nil
}

func degradedLinear(frame schema.FeatureFrame, reason string) (schema.TrainedModelRecord, error) {
	rec, err := trainLinear(frame)
	if err != nil {
		return schema.TrainedModelRecord{}, err
	}
	rec.Degraded = true
	rec.DegradedReason = reason
	return rec, nil
}

// selectBest returns the slot with the lowest test MAE. Ties keep the earlier slot.
func selectBest(models map[schema.ModelKind]schema.TrainedModelRecord) schema.ModelKind {
	var best schema.ModelKind
	bestScore := math.Inf(1)
	for _, slot := range schema.CandidateOrder {
		rec, ok := models[slot]
		if !ok {
			continue
		}
		score := rec.Performance.TestMAE
		if math.IsNaN(score) {
			score = math.Inf(1)
		}
		if best == "" || score < bestScore {
			best, bestScore = slot, score
		}
	}
	return best
}

func observeCandidate(obs contract.TrainingObserver, slot schema.ModelKind, outcome string, elapsed time.Duration) {
	if obs == nil {
		return
	}
	obs.ObserveCandidate(slot, outcome, elapsed)
}
