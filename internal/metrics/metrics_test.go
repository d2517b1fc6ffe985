package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/carbonlens/emforecast/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainingMetricsGather(t *testing.T) {
	m := NewTrainingMetrics()
	m.ObserveCandidate(schema.LinearModel, "fitted", 10*time.Millisecond)
	m.ObserveCandidate(schema.ARIMAModel, "degraded", 20*time.Millisecond)
	m.ObserveCandidate(schema.ARIMAModel, "degraded", 20*time.Millisecond)
	m.ObserveBest(schema.LinearModel, 12.5)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	byName := map[string]int{}
	for _, f := range families {
		byName[f.GetName()] = len(f.GetMetric())
	}
	assert.Equal(t, 2, byName["emforecast_candidates_total"])
	assert.Equal(t, 2, byName["emforecast_candidate_duration_seconds"])
	assert.Equal(t, 1, byName["emforecast_best_test_mae"])
	assert.Equal(t, 1, byName["emforecast_training_runs_total"])
}

func TestObserveBestKeepsLatestOnly(t *testing.T) {
	m := NewTrainingMetrics()
	m.ObserveBest(schema.LinearModel, 10)
	m.ObserveBest(schema.SeasonalModel, 5)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "emforecast_best_test_mae" {
			continue
		}
		require.Len(t, f.GetMetric(), 1)
		metric := f.GetMetric()[0]
		assert.Equal(t, "seasonal", metric.GetLabel()[0].GetValue())
		assert.Equal(t, 5.0, metric.GetGauge().GetValue())
	}
}

func TestWriteToFile(t *testing.T) {
	m := NewTrainingMetrics()
	m.ObserveCandidate(schema.SeasonalModel, "fitted", time.Second)
	m.ObserveBest(schema.SeasonalModel, 3.25)

	path := filepath.Join(t.TempDir(), "emforecast.prom")
	require.NoError(t, m.WriteToFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `emforecast_candidates_total{outcome="fitted",slot="seasonal"} 1`)
	assert.Contains(t, text, `emforecast_best_test_mae{slot="seasonal"} 3.25`)
	assert.Contains(t, text, "emforecast_training_runs_total 1")
}
