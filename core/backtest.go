package core

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/carbonlens/emforecast/schema"
	"gonum.org/v1/gonum/stat/distuv"
)

// Acceptance limits of a backtest run.
const (
	maxBacktestTraining   = 5 * time.Minute
	maxBacktestPrediction = time.Minute
	maxBacktestMAE        = 350.0
)

// Backtest trains on the first 80% of the prepared series, forecasts the remaining
// days and scores the forecast against them. The trend report covers the full series.
func Backtest(ctx context.Context, series schema.ObservationSeries, opts TrainOptions, predictOpts PredictOptions, now time.Time) (schema.BacktestReport, error) {
	cut := splitIndex(series.Len())
	if cut < 1 || cut >= series.Len() {
		return schema.BacktestReport{}, fmt.Errorf("%w: %d points cannot be split", schema.ErrInsufficientData, series.Len())
	}
	head := series.Slice(0, cut)
	holdout := series.Values[cut:]

	start := time.Now()
	state, err := Train(ctx, head, opts)
	if err != nil {
		return schema.BacktestReport{}, err
	}
	trainingDuration := time.Since(start)

	start = time.Now()
	forecast, err := Predict(state, len(holdout), predictOpts)
	if err != nil {
		return schema.BacktestReport{}, err
	}
	predictionDuration := time.Since(start)

	trend, err := Analyze(series, now)
	if err != nil {
		return schema.BacktestReport{}, err
	}

	report := schema.BacktestReport{
		TrainingDuration:   trainingDuration,
		PredictionDuration: predictionDuration,
		TrainPoints:        head.Len(),
		HoldoutPoints:      len(holdout),
		BestModel:          state.BestModel,
		Accuracy:           scoreForecast(holdout, forecast.Predictions),
		TrendAnalysis:      trend,
		PredictionSample:   forecast,
	}
	for _, slot := range schema.CandidateOrder {
		if _, ok := state.Models[slot]; ok {
			report.ModelsTrained = append(report.ModelsTrained, slot)
		}
	}
	report.ValidationPassed = trainingDuration < maxBacktestTraining &&
		predictionDuration < maxBacktestPrediction &&
		(report.Accuracy.MAE == nil || *report.Accuracy.MAE < maxBacktestMAE) &&
		len(report.ModelsTrained) > 0
	return report, nil
}

// scoreForecast compares the overlapping prefix of actual and predicted values.
func scoreForecast(actual, predicted []float64) schema.AccuracyMetrics {
	n := min(len(actual), len(predicted))
	if n == 0 {
		return schema.AccuracyMetrics{}
	}
	a, p := actual[:n], predicted[:n]
	mae := meanAbsoluteError(a, p)
	rmse := rootMeanSquaredError(a, p)
	r2 := rSquared(a, p)
	metrics := schema.AccuracyMetrics{MAE: &mae, RMSE: &rmse, R2: &r2}
	if mape, ok := meanAbsolutePercentageError(a, p); ok {
		metrics.MAPE = &mape
	}
	return metrics
}

// Synthetic series sizes in days.
var SyntheticSizes = map[string]int{
	"small":  365,
	"medium": 1095,
	"large":  1825,
}

// SyntheticSeries generates daily emissions with a slow decline, yearly and weekly
// cycles, Gaussian noise and a few multiplicative spikes. The same seed gives the same series.
func SyntheticSeries(start time.Time, days int, seed uint64) schema.ObservationSeries {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	rng := rand.New(src)
	noise := distuv.Normal{Mu: 0, Sigma: 50, Src: src}

	series := schema.ObservationSeries{
		Dates:  make([]time.Time, days),
		Values: make([]float64, days),
	}
	for i := range days {
		t := float64(i)
		v := 1000 - 0.1*t +
			200*math.Sin(2*math.Pi*t/365.25) +
			50*math.Sin(2*math.Pi*t/7) +
			noise.Rand()
		series.Dates[i] = start.AddDate(0, 0, i)
		series.Values[i] = math.Max(v, 100)
	}
	for range days / 50 {
		i := rng.IntN(days)
		series.Values[i] *= 2 + 3*rng.Float64()
	}
	return series
}
