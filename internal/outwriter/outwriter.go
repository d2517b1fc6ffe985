// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteTraining prints the candidate scores of a training run.
func (ow *OutWriter) WriteTraining(state schema.ModelEnsembleState, cfg *contract.Config, duration time.Duration) error {
	return WriteTrainingResults(state, cfg, duration)
}

// WriteForecast prints a forecast with its confidence band.
func (ow *OutWriter) WriteForecast(result schema.ForecastResult, cfg *contract.Config, duration time.Duration) error {
	return WriteForecastResults(result, cfg, duration)
}

// WriteTrend prints a trend report.
func (ow *OutWriter) WriteTrend(report schema.TrendReport, cfg *contract.Config, duration time.Duration) error {
	return WriteTrendResults(report, cfg, duration)
}

// WriteBacktest prints a backtest report.
func (ow *OutWriter) WriteBacktest(report schema.BacktestReport, cfg *contract.Config) error {
	return WriteBacktestResults(report, cfg)
}

// WriteSeries writes a daily series as input records.
func (ow *OutWriter) WriteSeries(series schema.ObservationSeries, cfg *contract.Config) error {
	return WriteSeries(series, cfg)
}
