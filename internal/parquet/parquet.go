// Package parquet provides data structures and functions for exporting training
// history and forecasts to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/carbonlens/emforecast/schema"
	"github.com/parquet-go/parquet-go"
)

// TrainingRun represents a single training run with metadata.
// This struct maps to the forecast_training_runs database table.
type TrainingRun struct {
	// RunID is the unique identifier for this training run
	RunID string `parquet:"run_id,snappy"`

	// StartTime is when training began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when training completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int64 `parquet:"run_duration_ms,optional,snappy"`

	// SeriesPoints is the number of prepared daily observations
	SeriesPoints int32 `parquet:"series_points,snappy"`

	// BestModel is the selected candidate (nullable until the run ends)
	BestModel *string `parquet:"best_model,optional,snappy"`

	// BestTestMAE is the held-out MAE of the selected candidate (nullable)
	BestTestMAE *float64 `parquet:"best_test_mae,optional,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// ModelScore represents the held-out accuracy of one candidate in a run.
// This struct maps to the forecast_model_scores database table.
type ModelScore struct {
	RunID     string   `parquet:"run_id,snappy"`
	ModelSlot string   `parquet:"model_slot,snappy"`
	ModelKind string   `parquet:"model_kind,snappy"`
	Degraded  bool     `parquet:"degraded,snappy"`
	TestMAE   float64  `parquet:"test_mae,snappy"`
	TestRMSE  float64  `parquet:"test_rmse,snappy"`
	TrainMAE  *float64 `parquet:"train_mae,optional,snappy"`
	TestR2    *float64 `parquet:"test_r2,optional,snappy"`
	AIC       *float64 `parquet:"aic,optional,snappy"`
	Order     *string  `parquet:"arima_order,optional,snappy"`
}

// ForecastPoint is one forecast day with its confidence band.
type ForecastPoint struct {
	Date            string  `parquet:"date,snappy"`
	Prediction      float64 `parquet:"prediction,snappy"`
	LowerBound      float64 `parquet:"lower_bound,snappy"`
	UpperBound      float64 `parquet:"upper_bound,snappy"`
	ConfidenceLevel float64 `parquet:"confidence_level,snappy"`
	ModelUsed       string  `parquet:"model_used,snappy"`
}

// writeRows writes rows to a new Parquet file at outputPath. The schema is inferred from T's struct tags.
func writeRows[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

// WriteTrainingRunsParquet writes training runs to a Parquet file.
func WriteTrainingRunsParquet(data []TrainingRun, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteModelScoresParquet writes candidate scores to a Parquet file.
func WriteModelScoresParquet(data []ModelScore, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteForecastParquet writes forecast points to a Parquet file.
func WriteForecastParquet(data []ForecastPoint, outputPath string) error {
	return writeRows(data, outputPath)
}

// ConvertTrainingRunRecords converts schema.TrainingRunRecord to TrainingRun for Parquet export.
func ConvertTrainingRunRecords(records []schema.TrainingRunRecord) []TrainingRun {
	result := make([]TrainingRun, len(records))
	for i, record := range records {
		result[i] = TrainingRun{
			RunID:         record.RunID,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.DurationMs,
			SeriesPoints:  record.SeriesPoints,
			BestModel:     record.BestModel,
			BestTestMAE:   record.BestTestMAE,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertModelScoreRecords converts schema.ModelScoreRecord to ModelScore for Parquet export.
func ConvertModelScoreRecords(records []schema.ModelScoreRecord) []ModelScore {
	result := make([]ModelScore, len(records))
	for i, record := range records {
		result[i] = ModelScore{
			RunID:     record.RunID,
			ModelSlot: record.ModelSlot,
			ModelKind: record.ModelKind,
			Degraded:  record.Degraded,
			TestMAE:   record.TestMAE,
			TestRMSE:  record.TestRMSE,
			TrainMAE:  record.TrainMAE,
			TestR2:    record.TestR2,
			AIC:       record.AIC,
			Order:     record.Order,
		}
	}
	return result
}

// ConvertForecast flattens a forecast into one row per day.
func ConvertForecast(result schema.ForecastResult) []ForecastPoint {
	points := make([]ForecastPoint, len(result.Predictions))
	for i, p := range result.Predictions {
		points[i] = ForecastPoint{
			Prediction:      p,
			LowerBound:      result.ConfidenceInterval.LowerBound[i],
			UpperBound:      result.ConfidenceInterval.UpperBound[i],
			ConfidenceLevel: result.ConfidenceInterval.ConfidenceLevel,
			ModelUsed:       string(result.ModelUsed),
		}
		if i < len(result.Dates) {
			points[i].Date = result.Dates[i]
		}
	}
	return points
}
