package core

import (
	"fmt"
	"math"
	"time"

	"github.com/carbonlens/emforecast/schema"
	"gonum.org/v1/gonum/floats"
)

// Seasonal model settings. Prior scales become ridge penalties of 1/scale^2
// on the scaled target.
const (
	maxChangepoints           = 25
	changepointRange          = 0.8
	changepointPriorScale     = 0.05
	seasonalityPriorScale     = 10.0
	weeklyPeriod              = 7.0
	yearlyPeriod              = 365.25
	defaultWeeklyFourierOrder = 3
	defaultYearlyFourierOrder = 10
	minDaysForWeeklySeason    = 14
	minDaysForYearlySeason    = 730
)

const day = 24 * time.Hour

// daysBetween returns the fractional number of days from a to b.
func daysBetween(a, b time.Time) float64 {
	return float64(b.Sub(a)) / float64(day)
}

// fourierTerms appends sin/cos pairs for orders 1..order of the given period.
// Phase is measured from the Unix epoch so it does not depend on the training window.
func fourierTerms(row []float64, d time.Time, period float64, order int) []float64 {
	t := float64(d.Unix()) / 86400
	for k := 1; k <= order; k++ {
		arg := 2 * math.Pi * float64(k) * t / period
		row = append(row, math.Sin(arg), math.Cos(arg))
	}
	return row
}

// seasonalRow builds [1, t, relu(t - c_j)..., weekly..., yearly...] for a date.
func seasonalRow(model *schema.SeasonalState, d time.Time) []float64 {
	ts := daysBetween(model.Origin, d) / model.SpanDays
	row := make([]float64, 0, 2+len(model.Changepoints)+2*(model.WeeklyOrder+model.YearlyOrder))
	row = append(row, 1, ts)
	for _, c := range model.Changepoints {
		row = append(row, math.Max(0, ts-c))
	}
	row = fourierTerms(row, d, weeklyPeriod, model.WeeklyOrder)
	row = fourierTerms(row, d, yearlyPeriod, model.YearlyOrder)
	return row
}

// fitSeasonal fits a piecewise linear trend with weekly and yearly Fourier terms.
// Daily seasonality is not modeled because a daily series cannot observe it.
func fitSeasonal(dates []time.Time, values []float64) (*schema.SeasonalState, error) {
	n := len(dates)
	if n < 3 {
		return nil, fmt.Errorf("%w: %d points for seasonal fit", schema.ErrInsufficientData, n)
	}
	span := daysBetween(dates[0], dates[n-1])
	if span <= 0 {
		return nil, fmt.Errorf("%w: zero time span", schema.ErrInsufficientData)
	}

	model := &schema.SeasonalState{
		Origin:   dates[0],
		SpanDays: span,
		YScale:   floats.Max(absAll(values)),
	}
	if model.YScale == 0 {
		model.YScale = 1
	}
	if span >= minDaysForWeeklySeason {
		model.WeeklyOrder = defaultWeeklyFourierOrder
	}
	if span >= minDaysForYearlySeason {
		model.YearlyOrder = defaultYearlyFourierOrder
	}

	// Changepoints spread evenly over the first part of history, excluding the first point
	histEnd := int(math.Floor(changepointRange * float64(n)))
	numCP := min(maxChangepoints, histEnd-1)
	for i := 1; i <= numCP; i++ {
		idx := int(math.Round(float64(i) * float64(histEnd) / float64(numCP+1)))
		model.Changepoints = append(model.Changepoints, daysBetween(dates[0], dates[idx])/span)
	}

	rows := make([][]float64, n)
	scaled := make([]float64, n)
	for i, d := range dates {
		rows[i] = seasonalRow(model, d)
		scaled[i] = values[i] / model.YScale
	}
	penalty := make([]float64, len(rows[0]))
	for j := range penalty {
		switch {
		case j < 2:
			penalty[j] = 1e-9
		case j < 2+len(model.Changepoints):
			penalty[j] = 1 / (changepointPriorScale * changepointPriorScale)
		default:
			penalty[j] = 1 / (seasonalityPriorScale * seasonalityPriorScale)
		}
	}
	coef, err := ridge(designMatrix(rows, false), scaled, penalty)
	if err != nil {
		return nil, fmt.Errorf("seasonal fit: %w", err)
	}
	model.Coefficients = coef
	return model, nil
}

// predictSeasonal evaluates the model at arbitrary dates.
func predictSeasonal(model *schema.SeasonalState, dates []time.Time) []float64 {
	out := make([]float64, len(dates))
	for i, d := range dates {
		out[i] = floats.Dot(model.Coefficients, seasonalRow(model, d)) * model.YScale
	}
	return out
}

func absAll(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Abs(v)
	}
	return out
}

// trainSeasonal fits on the head of the series and scores the held-out dates.
// The stored model is then refit on the whole series so forecasts start after its end.
func trainSeasonal(series schema.ObservationSeries) (schema.TrainedModelRecord, error) {
	cut := splitIndex(series.Len())
	if cut < 3 || cut >= series.Len() {
		return schema.TrainedModelRecord{}, fmt.Errorf("%w: %d points cannot be split", schema.ErrInsufficientData, series.Len())
	}
	model, err := fitSeasonal(series.Dates[:cut], series.Values[:cut])
	if err != nil {
		return schema.TrainedModelRecord{}, err
	}
	test := series.Values[cut:]
	forecast := predictSeasonal(model, series.Dates[cut:])
	perf := schema.Performance{
		TestMAE:  meanAbsoluteError(test, forecast),
		TestRMSE: rootMeanSquaredError(test, forecast),
	}
	if full, err := fitSeasonal(series.Dates, series.Values); err == nil {
		model = full
	}
	return schema.TrainedModelRecord{
		Kind:        schema.SeasonalModel,
		Seasonal:    model,
		Performance: perf,
	}, nil
}
