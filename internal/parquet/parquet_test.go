package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/carbonlens/emforecast/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err, "Should be able to open output file")
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err, "Should be able to read data")
	}
	return rows[:n]
}

func TestTrainingRunStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(TrainingRun))
	require.NotNil(t, s)

	for _, colName := range []string{
		"run_id", "start_time", "end_time", "run_duration_ms",
		"series_points", "best_model", "best_test_mae", "config_params",
	} {
		_, ok := s.Lookup(colName)
		assert.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestModelScoreStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(ModelScore))
	require.NotNil(t, s)

	for _, colName := range []string{
		"run_id", "model_slot", "model_kind", "degraded", "test_mae",
		"test_rmse", "train_mae", "test_r2", "aic", "arima_order",
	} {
		_, ok := s.Lookup(colName)
		assert.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestWriteTrainingRunsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "runs.parquet")

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(1500 * time.Millisecond)
	duration := int64(1500)
	best := "arima"
	mae := 42.5
	config := `{"horizon":30}`
	data := []TrainingRun{
		{
			RunID:         "run-1",
			StartTime:     start,
			EndTime:       &end,
			RunDurationMs: &duration,
			SeriesPoints:  365,
			BestModel:     &best,
			BestTestMAE:   &mae,
			ConfigParams:  &config,
		},
		{
			RunID:        "run-2",
			StartTime:    start.Add(time.Hour),
			SeriesPoints: 100,
		},
	}

	require.NoError(t, WriteTrainingRunsParquet(data, outputPath))

	got := readAll[TrainingRun](t, outputPath)
	require.Len(t, got, 2)

	assert.Equal(t, "run-1", got[0].RunID)
	assert.Equal(t, int32(365), got[0].SeriesPoints)
	require.NotNil(t, got[0].EndTime)
	assert.WithinDuration(t, end, *got[0].EndTime, time.Nanosecond)
	require.NotNil(t, got[0].BestModel)
	assert.Equal(t, "arima", *got[0].BestModel)
	require.NotNil(t, got[0].BestTestMAE)
	assert.InDelta(t, 42.5, *got[0].BestTestMAE, 1e-9)

	// Unfinished run keeps its nullable fields empty
	assert.Nil(t, got[1].EndTime)
	assert.Nil(t, got[1].RunDurationMs)
	assert.Nil(t, got[1].BestModel)
	assert.Nil(t, got[1].ConfigParams)
}

func TestWriteModelScoresParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "scores.parquet")

	aic := 812.4
	order := "(1,1,1)"
	data := []ModelScore{
		{RunID: "run-1", ModelSlot: "linear", ModelKind: "linear", TestMAE: 10, TestRMSE: 12},
		{RunID: "run-1", ModelSlot: "arima", ModelKind: "arima", TestMAE: 8, TestRMSE: 9, AIC: &aic, Order: &order},
		{RunID: "run-1", ModelSlot: "seasonal", ModelKind: "linear", Degraded: true, TestMAE: 10, TestRMSE: 12},
	}

	require.NoError(t, WriteModelScoresParquet(data, outputPath))

	got := readAll[ModelScore](t, outputPath)
	require.Len(t, got, 3)
	assert.Equal(t, "arima", got[1].ModelSlot)
	require.NotNil(t, got[1].Order)
	assert.Equal(t, "(1,1,1)", *got[1].Order)
	assert.True(t, got[2].Degraded)
	assert.Nil(t, got[0].AIC)
}

func TestWriteParquet_EmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")

	require.NoError(t, WriteTrainingRunsParquet([]TrainingRun{}, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err, "Output file should exist")
	assert.Greater(t, info.Size(), int64(0), "Output file should contain schema even if empty")
}

func TestWriteParquet_InvalidPath(t *testing.T) {
	err := WriteModelScoresParquet([]ModelScore{{RunID: "x"}}, "/nonexistent/directory/output.parquet")
	require.Error(t, err)
}

func TestConvertTrainingRunRecords(t *testing.T) {
	best := "seasonal"
	records := []schema.TrainingRunRecord{
		{RunID: "a", StartTime: time.Unix(100, 0).UTC(), SeriesPoints: 50, BestModel: &best},
	}

	got := ConvertTrainingRunRecords(records)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].RunID)
	assert.Equal(t, int32(50), got[0].SeriesPoints)
	assert.Equal(t, &best, got[0].BestModel)
}

func TestConvertModelScoreRecords(t *testing.T) {
	r2 := 0.9
	got := ConvertModelScoreRecords([]schema.ModelScoreRecord{
		{RunID: "a", ModelSlot: "linear", ModelKind: "linear", TestMAE: 3, TestR2: &r2},
	})
	require.Len(t, got, 1)
	assert.Equal(t, 3.0, got[0].TestMAE)
	assert.Equal(t, &r2, got[0].TestR2)
}

func TestForecastRoundTripThroughParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "forecast.parquet")
	result := schema.ForecastResult{
		Predictions: []float64{10, 11},
		Dates:       []string{"2024-01-01", "2024-01-02"},
		ModelUsed:   schema.SeasonalModel,
		ConfidenceInterval: schema.ConfidenceInterval{
			LowerBound:      []float64{9, 10},
			UpperBound:      []float64{11, 12},
			ConfidenceLevel: 0.95,
		},
	}

	points := ConvertForecast(result)
	require.Len(t, points, 2)
	require.NoError(t, WriteForecastParquet(points, outputPath))

	got := readAll[ForecastPoint](t, outputPath)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-01-02", got[1].Date)
	assert.Equal(t, 11.0, got[1].Prediction)
	assert.Equal(t, 12.0, got[1].UpperBound)
	assert.Equal(t, "seasonal", got[0].ModelUsed)
	assert.Equal(t, 0.95, got[0].ConfidenceLevel)
}
