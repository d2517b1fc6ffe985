package core

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func meanAbsoluteError(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return math.NaN()
	}
	diff := make([]float64, len(actual))
	floats.SubTo(diff, actual, predicted)
	var sum float64
	for _, d := range diff {
		sum += math.Abs(d)
	}
	return sum / float64(len(diff))
}

func rootMeanSquaredError(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return math.NaN()
	}
	diff := make([]float64, len(actual))
	floats.SubTo(diff, actual, predicted)
	return math.Sqrt(floats.Dot(diff, diff) / float64(len(diff)))
}

// rSquared is the coefficient of determination. A constant target scores 1 when
// predicted exactly and 0 otherwise, so the result is always finite.
func rSquared(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return math.NaN()
	}
	diff := make([]float64, len(actual))
	floats.SubTo(diff, actual, predicted)
	ssRes := floats.Dot(diff, diff)

	mean := stat.Mean(actual, nil)
	var ssTot float64
	for _, a := range actual {
		ssTot += (a - mean) * (a - mean)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// meanAbsolutePercentageError skips zero actuals and reports false when none remain.
func meanAbsolutePercentageError(actual, predicted []float64) (float64, bool) {
	var sum float64
	var n int
	for i, a := range actual {
		if a == 0 {
			continue
		}
		sum += math.Abs((a - predicted[i]) / a)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n) * 100, true
}

// populationStdDev is the standard deviation with divisor n.
func populationStdDev(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	_, variance := stat.PopMeanVariance(x, nil)
	return math.Sqrt(variance)
}
