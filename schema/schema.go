// Package schema has the data model, constants and error kinds shared by all parts of emforecast.
package schema

import "time"

// Record is one raw dated emission observation. Value is nil when the source cell was empty.
type Record struct {
	Date  string
	Value *float64
}

// ObservationSeries is a gap-free daily series with strictly increasing dates.
type ObservationSeries struct {
	Dates  []time.Time
	Values []float64
}

// Len returns the number of observations.
func (s ObservationSeries) Len() int {
	return len(s.Values)
}

// LastDate returns the final date of the series, or the zero time when empty.
func (s ObservationSeries) LastDate() time.Time {
	if len(s.Dates) == 0 {
		return time.Time{}
	}
	return s.Dates[len(s.Dates)-1]
}

// Slice returns the observations in [from, to).
func (s ObservationSeries) Slice(from, to int) ObservationSeries {
	return ObservationSeries{Dates: s.Dates[from:to], Values: s.Values[from:to]}
}

// FeatureColumns names the engineered features in column order.
var FeatureColumns = []string{
	"day_of_week",
	"month",
	"quarter",
	"year",
	"lag_1",
	"lag_7",
	"lag_30",
	"rolling_mean_7",
	"rolling_std_7",
}

// FeatureRow is one trainable row: the target plus its features in FeatureColumns order.
type FeatureRow struct {
	Date     time.Time
	Target   float64
	Features []float64
}

// FeatureFrame holds the rows that survived feature warm-up.
type FeatureFrame struct {
	Columns []string
	Rows    []FeatureRow
}

// Len returns the number of rows.
func (f FeatureFrame) Len() int {
	return len(f.Rows)
}
