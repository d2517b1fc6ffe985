package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObservationSeries(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := ObservationSeries{
		Dates:  []time.Time{start, start.AddDate(0, 0, 1), start.AddDate(0, 0, 2)},
		Values: []float64{1, 2, 3},
	}

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, start.AddDate(0, 0, 2), s.LastDate())

	head := s.Slice(0, 2)
	assert.Equal(t, 2, head.Len())
	assert.Equal(t, start.AddDate(0, 0, 1), head.LastDate())

	assert.True(t, ObservationSeries{}.LastDate().IsZero())
}

func TestStateBackendDatabaseBackend(t *testing.T) {
	tests := []struct {
		backend  StateBackend
		expected DatabaseBackend
	}{
		{SQLiteState, SQLiteBackend},
		{MySQLState, MySQLBackend},
		{PostgreSQLState, PostgreSQLBackend},
		{FileState, NoneBackend},
		{RedisState, NoneBackend},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.backend.DatabaseBackend())
		})
	}
}

func TestCandidateOrderIsValid(t *testing.T) {
	assert.Len(t, CandidateOrder, len(ValidModelKinds))
	for _, kind := range CandidateOrder {
		_, ok := ValidModelKinds[kind]
		assert.True(t, ok, "unexpected candidate %s", kind)
	}
}
