package core

import (
	"time"

	"github.com/carbonlens/emforecast/schema"
)

var testStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

// arithmeticSeries returns n daily values start, start+step, ...
func arithmeticSeries(n int, start, step float64) schema.ObservationSeries {
	s := schema.ObservationSeries{Dates: make([]time.Time, n), Values: make([]float64, n)}
	for i := range n {
		s.Dates[i] = testStart.AddDate(0, 0, i)
		s.Values[i] = start + step*float64(i)
	}
	return s
}

// seriesOf returns consecutive daily values from testStart.
func seriesOf(values ...float64) schema.ObservationSeries {
	s := schema.ObservationSeries{Dates: make([]time.Time, len(values)), Values: values}
	for i := range values {
		s.Dates[i] = testStart.AddDate(0, 0, i)
	}
	return s
}

func ptr[T any](v T) *T { return &v }

// recordingObserver counts training events.
type recordingObserver struct {
	candidates map[schema.ModelKind]string
	best       schema.ModelKind
	bestMAE    float64
	bestCalls  int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{candidates: map[schema.ModelKind]string{}}
}

func (o *recordingObserver) ObserveCandidate(slot schema.ModelKind, outcome string, _ time.Duration) {
	o.candidates[slot] = outcome
}

func (o *recordingObserver) ObserveBest(slot schema.ModelKind, testMAE float64) {
	o.best, o.bestMAE = slot, testMAE
	o.bestCalls++
}
