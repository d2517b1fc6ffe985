package core

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/carbonlens/emforecast/schema"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultConfidenceLevel is reported when the caller does not supply one.
const DefaultConfidenceLevel = 0.95

// intervalZ is the half-width multiplier of the forecast band. It does not follow
// the requested confidence level, which is reported as metadata only.
const intervalZ = 1.96

// Placeholder distribution for the linear model, which has no future feature rows to use.
const (
	placeholderMean   = 1000.0
	placeholderStdDev = 100.0
)

// PredictOptions controls one prediction call.
type PredictOptions struct {
	ConfidenceLevel float64
	Source          rand.Source // used by the linear placeholder; nil means the global source
}

// Predict forecasts horizon days past the end of the training series using the best model.
func Predict(state schema.ModelEnsembleState, horizon int, opts PredictOptions) (schema.ForecastResult, error) {
	if !state.IsTrained {
		return schema.ForecastResult{}, schema.ErrNotTrained
	}
	if horizon <= 0 {
		return schema.ForecastResult{}, fmt.Errorf("%w: horizon must be positive, got %d", schema.ErrData, horizon)
	}
	rec, ok := state.Best()
	if !ok {
		return schema.ForecastResult{}, fmt.Errorf("%w: best model %q has no record", schema.ErrNotTrained, state.BestModel)
	}

	dates := make([]time.Time, horizon)
	for i := range dates {
		dates[i] = state.SeriesEnd.AddDate(0, 0, i+1)
	}

	var predictions []float64
	switch rec.Kind {
	case schema.LinearModel:
		predictions = placeholderForecast(horizon, opts.Source)
	case schema.ARIMAModel:
		if rec.ARIMA == nil {
			return schema.ForecastResult{}, fmt.Errorf("%w: arima record has no fitted state", schema.ErrLoad)
		}
		predictions = forecastARIMA(rec.ARIMA, horizon)
	case schema.SeasonalModel:
		if rec.Seasonal == nil {
			return schema.ForecastResult{}, fmt.Errorf("%w: seasonal record has no fitted state", schema.ErrLoad)
		}
		predictions = predictSeasonal(rec.Seasonal, dates)
	default:
		return schema.ForecastResult{}, fmt.Errorf("unknown model kind %q", rec.Kind)
	}

	level := opts.ConfidenceLevel
	if level <= 0 {
		level = DefaultConfidenceLevel
	}
	result := schema.ForecastResult{
		Predictions:        predictions,
		Dates:              make([]string, horizon),
		ModelUsed:          state.BestModel,
		ConfidenceInterval: confidenceInterval(predictions, level),
	}
	for i, d := range dates {
		result.Dates[i] = d.Format(time.DateOnly)
	}
	return result, nil
}

// placeholderForecast samples a plausible emission level for every step.
// TODO: replace with a recursive forecast that rebuilds lag and rolling features step by step.
func placeholderForecast(horizon int, src rand.Source) []float64 {
	dist := distuv.Normal{Mu: placeholderMean, Sigma: placeholderStdDev, Src: src}
	out := make([]float64, horizon)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}

// confidenceInterval spreads a band of 1.96 standard deviations of the predictions themselves.
func confidenceInterval(predictions []float64, level float64) schema.ConfidenceInterval {
	margin := intervalZ * populationStdDev(predictions)
	ci := schema.ConfidenceInterval{
		LowerBound:      make([]float64, len(predictions)),
		UpperBound:      make([]float64, len(predictions)),
		ConfidenceLevel: level,
	}
	for i, p := range predictions {
		ci.LowerBound[i] = p - margin
		ci.UpperBound[i] = p + margin
	}
	return ci
}
