package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/carbonlens/emforecast/schema"
	"gonum.org/v1/gonum/stat"
)

// Feature warm-up: rows before the longest lag never become trainable rows.
const (
	rollingWindow = 7
	maxLag        = 30
)

var featureLags = []int{1, 7, 30}

// MaxObservation is the largest accepted value. Squared sums of larger values
// overflow float64 in the regression solvers.
const MaxObservation = 1e100

// dateLayouts are tried in order when parsing record dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.DateOnly,
	time.DateTime,
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// parseDate parses a record date and truncates it to the calendar day.
func parseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", schema.ErrData)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable date %q", schema.ErrData, raw)
}

type datedValue struct {
	date  time.Time
	value *float64
}

// PrepareSeries cleans raw records into a gap-free daily series.
// Records are sorted by date, missing values are forward then backward filled,
// same-day values are summed and missing days carry the previous day's value.
func PrepareSeries(records []schema.Record) (schema.ObservationSeries, error) {
	if len(records) == 0 {
		return schema.ObservationSeries{}, fmt.Errorf("%w: no records", schema.ErrData)
	}

	rows := make([]datedValue, 0, len(records))
	for i, rec := range records {
		d, err := parseDate(rec.Date)
		if err != nil {
			return schema.ObservationSeries{}, fmt.Errorf("record %d: %w", i, err)
		}
		if rec.Value != nil {
			v := *rec.Value
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return schema.ObservationSeries{}, fmt.Errorf("%w: record %d has a non-finite value", schema.ErrData, i)
			}
			if v < 0 {
				return schema.ObservationSeries{}, fmt.Errorf("%w: record %d has a negative value %v", schema.ErrData, i, v)
			}
			if v > MaxObservation {
				return schema.ObservationSeries{}, fmt.Errorf("%w: record %d value %g exceeds %g", schema.ErrData, i, v, MaxObservation)
			}
		}
		rows = append(rows, datedValue{date: d, value: rec.Value})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })

	filled, ok := fillMissing(rows)
	if !ok {
		return schema.ObservationSeries{}, fmt.Errorf("%w: every record is missing a value", schema.ErrData)
	}

	// Sum same-day values
	var dates []time.Time
	var sums []float64
	for i, r := range rows {
		if len(dates) > 0 && dates[len(dates)-1].Equal(r.date) {
			sums[len(sums)-1] += filled[i]
			continue
		}
		dates = append(dates, r.date)
		sums = append(sums, filled[i])
	}

	return reindexDaily(dates, sums), nil
}

// fillMissing forward fills and then backward fills nil values.
// It reports false when no value is present at all.
func fillMissing(rows []datedValue) ([]float64, bool) {
	out := make([]float64, len(rows))
	have := make([]bool, len(rows))
	var last float64
	seen := false
	for i, r := range rows {
		switch {
		case r.value != nil:
			last, seen = *r.value, true
			out[i], have[i] = last, true
		case seen:
			out[i], have[i] = last, true
		}
	}
	if !seen {
		return nil, false
	}
	first := 0
	for !have[first] {
		first++
	}
	for i := range first {
		out[i] = out[first]
	}
	return out, true
}

// reindexDaily expands sorted unique dates to every calendar day, carrying values forward into gaps.
func reindexDaily(dates []time.Time, values []float64) schema.ObservationSeries {
	days := int(dates[len(dates)-1].Sub(dates[0]).Hours()/24) + 1
	series := schema.ObservationSeries{
		Dates:  make([]time.Time, 0, days),
		Values: make([]float64, 0, days),
	}
	j := 0
	current := values[0]
	for d := dates[0]; !d.After(dates[len(dates)-1]); d = d.AddDate(0, 0, 1) {
		if j < len(dates) && dates[j].Equal(d) {
			current = values[j]
			j++
		}
		series.Dates = append(series.Dates, d)
		series.Values = append(series.Values, current)
	}
	return series
}

// BuildFeatures derives calendar, lag and rolling features for every row past the warm-up.
func BuildFeatures(series schema.ObservationSeries) schema.FeatureFrame {
	frame := schema.FeatureFrame{Columns: schema.FeatureColumns}
	n := series.Len()
	if n <= maxLag {
		return frame
	}
	frame.Rows = make([]schema.FeatureRow, 0, n-maxLag)
	for i := maxLag; i < n; i++ {
		d := series.Dates[i]
		window := series.Values[i-rollingWindow+1 : i+1]
		feats := []float64{
			float64(mondayWeekday(d)),
			float64(d.Month()),
			float64((int(d.Month())-1)/3 + 1),
			float64(d.Year()),
		}
		for _, lag := range featureLags {
			feats = append(feats, series.Values[i-lag])
		}
		feats = append(feats, stat.Mean(window, nil), stat.StdDev(window, nil))
		frame.Rows = append(frame.Rows, schema.FeatureRow{
			Date:     d,
			Target:   series.Values[i],
			Features: feats,
		})
	}
	return frame
}

// mondayWeekday numbers days from Monday=0 to Sunday=6.
func mondayWeekday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}
