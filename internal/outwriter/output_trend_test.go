package outwriter

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/carbonlens/emforecast/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTrendText(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig(schema.TextOut, "")
	require.NoError(t, writeTrendText(&buf, sampleTrend(), cfg, createFormatters(2), time.Millisecond))

	out := buf.String()
	assert.Contains(t, out, "19900.00")
	assert.Contains(t, out, "Trend: increasing (slope 2.00 per day")
	assert.Contains(t, out, "significant)")
	assert.Contains(t, out, "Apr ▲")
	assert.Contains(t, out, "Jan ▼")
	assert.Contains(t, out, "Seasonal variation: 60.50 (peak Apr, low Jan)")
	assert.Contains(t, out, "Change points: 1 (first: 2024-02-10)")
}

func TestSeasonalityBarsScale(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig(schema.TextOut, "")
	cfg.Width = 40 // bar width 10
	season := schema.Seasonality{
		MonthlyAverages: map[int]float64{1: 50, 2: 100},
		PeakMonth:       2,
		LowMonth:        1,
	}
	require.NoError(t, writeSeasonalityTable(&buf, season, cfg, createFormatters(0)))

	out := buf.String()
	assert.Contains(t, out, strings.Repeat("█", 10))
	assert.NotContains(t, out, strings.Repeat("█", 11))
}

func TestSeasonalityTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSeasonalityTable(&buf, schema.Seasonality{}, testConfig(schema.TextOut, ""), createFormatters(2)))
	assert.Empty(t, buf.String())
}

func TestWriteCSVResultsForTrend(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSVResultsForTrend(&buf, sampleTrend(), createFormatters(2)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"section", "key", "value"}, records[0])
	assert.Contains(t, records, []string{"trend_analysis", "trend_direction", "increasing"})
	assert.Contains(t, records, []string{"seasonality", "month_4", "289.00"})
	assert.Contains(t, records, []string{"change_points", "change_date", "2024-02-10"})
	assert.Equal(t, []string{"analysis", "analysis_date", "2024-04-10T00:00:00Z"}, records[len(records)-1])
}

func TestWriteTrendResultsParquetUnsupported(t *testing.T) {
	err := WriteTrendResults(sampleTrend(), testConfig(schema.ParquetOut, "x.parquet"), time.Second)
	assert.Error(t, err)
}
