package core

import (
	"fmt"
	"math"
	"time"

	"github.com/carbonlens/emforecast/schema"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Change point detection settings.
const (
	changeWindow       = 7
	changeThreshold    = 2.0
	maxReportedChanges = 5
	significanceLevel  = 0.05
)

// AnalyzeRecords prepares raw records and analyzes the resulting series.
// Preparation failures are reported as analysis errors.
func AnalyzeRecords(records []schema.Record, now time.Time) (schema.TrendReport, error) {
	series, err := PrepareSeries(records)
	if err != nil {
		return schema.TrendReport{}, fmt.Errorf("%w: %w", schema.ErrAnalysis, err)
	}
	return Analyze(series, now)
}

// Analyze computes statistics, a linear trend, monthly seasonality and change points.
func Analyze(series schema.ObservationSeries, now time.Time) (schema.TrendReport, error) {
	if err := validateSeries(series); err != nil {
		return schema.TrendReport{}, err
	}
	return schema.TrendReport{
		Statistics:    describe(series.Values),
		TrendAnalysis: linearTrend(series.Values),
		Seasonality:   monthlySeasonality(series),
		ChangePoints:  detectChangePoints(series),
		AnalysisDate:  now.Format(time.RFC3339),
	}, nil
}

func validateSeries(series schema.ObservationSeries) error {
	n := series.Len()
	if n == 0 {
		return fmt.Errorf("%w: empty series", schema.ErrAnalysis)
	}
	if len(series.Dates) != n {
		return fmt.Errorf("%w: %d dates for %d values", schema.ErrAnalysis, len(series.Dates), n)
	}
	for i, v := range series.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value at %s", schema.ErrAnalysis, series.Dates[i].Format(time.DateOnly))
		}
		if i > 0 && !series.Dates[i].After(series.Dates[i-1]) {
			return fmt.Errorf("%w: dates are not strictly increasing at %s", schema.ErrAnalysis, series.Dates[i].Format(time.DateOnly))
		}
	}
	return nil
}

func describe(values []float64) schema.SeriesStatistics {
	stats := schema.SeriesStatistics{
		Mean:  stat.Mean(values, nil),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
		Total: floats.Sum(values),
	}
	if len(values) > 1 {
		stats.Std = stat.StdDev(values, nil)
	}
	return stats
}

// linearTrend regresses values on their zero-based index and tests the slope with Student's t.
func linearTrend(values []float64) schema.TrendFit {
	n := len(values)
	fit := schema.TrendFit{TrendDirection: schema.Decreasing, PValue: 1}
	if n < 2 {
		return fit
	}
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	_, slope := stat.LinearRegression(x, values, nil, false)
	fit.Slope = slope
	if slope > 0 {
		fit.TrendDirection = schema.Increasing
	}

	_, varY := stat.PopMeanVariance(values, nil)
	if varY == 0 {
		return fit
	}
	r := stat.Correlation(x, values, nil)
	r = math.Max(-1, math.Min(1, r))
	fit.RSquared = r * r

	df := float64(n - 2)
	switch {
	case df <= 0:
		fit.PValue = 1
	case math.Abs(r) >= 1:
		fit.PValue = 0
	default:
		t := r * math.Sqrt(df/((1-r)*(1+r)))
		dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
		fit.PValue = 2 * dist.Survival(math.Abs(t))
	}
	fit.IsSignificant = fit.PValue < significanceLevel
	return fit
}

// monthlySeasonality averages values by calendar month across all years present.
func monthlySeasonality(series schema.ObservationSeries) schema.Seasonality {
	var sums, counts [13]float64
	for i, d := range series.Dates {
		m := int(d.Month())
		sums[m] += series.Values[i]
		counts[m]++
	}
	season := schema.Seasonality{MonthlyAverages: make(map[int]float64)}
	var averages []float64
	for m := 1; m <= 12; m++ {
		if counts[m] == 0 {
			continue
		}
		avg := sums[m] / counts[m]
		season.MonthlyAverages[m] = avg
		averages = append(averages, avg)
		if season.PeakMonth == 0 || avg > season.MonthlyAverages[season.PeakMonth] {
			season.PeakMonth = m
		}
		if season.LowMonth == 0 || avg < season.MonthlyAverages[season.LowMonth] {
			season.LowMonth = m
		}
	}
	if len(averages) > 1 {
		season.SeasonalVariation = stat.StdDev(averages, nil)
	}
	return season
}

// detectChangePoints flags days where the change in the 7-day rolling mean exceeds
// twice the population standard deviation of all such changes. Each change is
// dated by the last day of the later window, so diffs[i] reports Dates[i+7],
// not Dates[i].
func detectChangePoints(series schema.ObservationSeries) schema.ChangePoints {
	cp := schema.ChangePoints{ChangeDates: []string{}}
	n := series.Len()
	if n <= changeWindow {
		return cp
	}
	rolling := make([]float64, 0, n-changeWindow+1)
	for i := changeWindow - 1; i < n; i++ {
		rolling = append(rolling, stat.Mean(series.Values[i-changeWindow+1:i+1], nil))
	}
	diffs := difference(rolling, 1)
	threshold := changeThreshold * populationStdDev(diffs)
	for i, d := range diffs {
		if math.Abs(d) <= threshold {
			continue
		}
		cp.NumChangePoints++
		if len(cp.ChangeDates) < maxReportedChanges {
			cp.ChangeDates = append(cp.ChangeDates, series.Dates[i+changeWindow].Format(time.DateOnly))
		}
	}
	return cp
}
