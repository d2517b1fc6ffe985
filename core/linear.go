package core

import (
	"fmt"
	"math"
	"slices"

	"github.com/carbonlens/emforecast/schema"
	"gonum.org/v1/gonum/stat"
)

// trainFraction is the chronological share of rows used for fitting.
const trainFraction = 0.8

// minFeatureRows is the smallest frame that still leaves a non-trivial split.
const minFeatureRows = 5

// splitIndex returns the first test index of an 80/20 chronological split.
func splitIndex(n int) int {
	return int(trainFraction * float64(n))
}

// fitScaler learns per-column mean and population standard deviation.
func fitScaler(rows [][]float64) *schema.StandardScaler {
	cols := len(rows[0])
	scaler := &schema.StandardScaler{
		Mean:  make([]float64, cols),
		Scale: make([]float64, cols),
	}
	column := make([]float64, len(rows))
	for j := range cols {
		for i, r := range rows {
			column[i] = r[j]
		}
		mean, variance := stat.PopMeanVariance(column, nil)
		std := math.Sqrt(variance)
		// Rounding noise on a constant column counts as zero variance
		if std <= 1e-10*math.Max(1, math.Abs(mean)) {
			std = 1
		}
		scaler.Mean[j] = mean
		scaler.Scale[j] = std
	}
	return scaler
}

func scaleRows(scaler *schema.StandardScaler, rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		scaled := make([]float64, len(r))
		for j, v := range r {
			scaled[j] = (v - scaler.Mean[j]) / scaler.Scale[j]
		}
		out[i] = scaled
	}
	return out
}

func predictLinear(model *schema.LinearState, scaled [][]float64) []float64 {
	out := make([]float64, len(scaled))
	for i, r := range scaled {
		y := model.Intercept
		for j, v := range r {
			y += model.Coefficients[j] * v
		}
		out[i] = y
	}
	return out
}

// trainLinear fits ordinary least squares on standardized features.
// The scaler is fit on the training rows only.
func trainLinear(frame schema.FeatureFrame) (schema.TrainedModelRecord, error) {
	n := frame.Len()
	if n < minFeatureRows {
		return schema.TrainedModelRecord{}, fmt.Errorf("%w: %d feature rows, need at least %d", schema.ErrInsufficientData, n, minFeatureRows)
	}
	cut := splitIndex(n)

	features := make([][]float64, n)
	targets := make([]float64, n)
	for i, row := range frame.Rows {
		features[i] = row.Features
		targets[i] = row.Target
	}

	scaler := fitScaler(features[:cut])
	trainX := scaleRows(scaler, features[:cut])
	testX := scaleRows(scaler, features[cut:])

	coef, err := leastSquares(designMatrix(trainX, true), targets[:cut])
	if err != nil {
		return schema.TrainedModelRecord{}, fmt.Errorf("linear fit: %w", err)
	}
	model := &schema.LinearState{
		Columns:      slices.Clone(frame.Columns),
		Intercept:    coef[0],
		Coefficients: coef[1:],
	}

	trainPred := predictLinear(model, trainX)
	testPred := predictLinear(model, testX)
	trainMAE := meanAbsoluteError(targets[:cut], trainPred)
	trainRMSE := rootMeanSquaredError(targets[:cut], trainPred)
	trainR2 := rSquared(targets[:cut], trainPred)
	testR2 := rSquared(targets[cut:], testPred)

	return schema.TrainedModelRecord{
		Kind:   schema.LinearModel,
		Linear: model,
		Scaler: scaler,
		Performance: schema.Performance{
			TestMAE:   meanAbsoluteError(targets[cut:], testPred),
			TestRMSE:  rootMeanSquaredError(targets[cut:], testPred),
			TrainMAE:  &trainMAE,
			TrainRMSE: &trainRMSE,
			TrainR2:   &trainR2,
			TestR2:    &testR2,
		},
	}, nil
}
