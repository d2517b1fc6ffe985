package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteBacktestResults outputs a backtest report, dispatching based on the output format configured.
func WriteBacktestResults(report schema.BacktestReport, cfg *contract.Config) error {
	fmtFloat := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON backtest report"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVResultsForBacktest(w, report, fmtFloat)
		}, "Wrote CSV backtest report"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for backtest reports")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeBacktestTable(w, report, cfg, fmtFloat)
		}, "Wrote backtest report")
	}
	return nil
}

// writeBacktestTable prints the accuracy of the holdout forecast and the validation verdict.
func writeBacktestTable(w io.Writer, report schema.BacktestReport, cfg *contract.Config, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Metric", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignRight}
	})

	acc := report.Accuracy
	mape := "-"
	if acc.MAPE != nil {
		mape = fmtFloat(*acc.MAPE) + "%"
	}
	data := [][]string{
		{"Train points", strconv.Itoa(report.TrainPoints)},
		{"Holdout points", strconv.Itoa(report.HoldoutPoints)},
		{"Models trained", joinKinds(report.ModelsTrained)},
		{"Best model", string(report.BestModel)},
		{"MAE", fmtOptional(acc.MAE, fmtFloat, "-")},
		{"RMSE", fmtOptional(acc.RMSE, fmtFloat, "-")},
		{"MAPE", mape},
		{"R2", fmtOptional(acc.R2, fmtFloat, "-")},
		{"Training time", report.TrainingDuration.String()},
		{"Prediction time", report.PredictionDuration.String()},
		{"Trend", string(report.TrendAnalysis.TrendAnalysis.TrendDirection)},
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	verdict := colorize(contract.DecreasingColor, "PASSED", cfg.UseColors)
	if !report.ValidationPassed {
		verdict = colorize(contract.IncreasingColor, "FAILED", cfg.UseColors)
	}
	_, err := fmt.Fprintf(w, "Backtest validation %s\n", verdict)
	return err
}

func joinKinds(kinds []schema.ModelKind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}

// writeCSVResultsForBacktest writes the report as one metric per row.
func writeCSVResultsForBacktest(w io.Writer, report schema.BacktestReport, fmtFloat func(float64) string) error {
	acc := report.Accuracy
	rows := [][]string{
		{"train_points", strconv.Itoa(report.TrainPoints)},
		{"holdout_points", strconv.Itoa(report.HoldoutPoints)},
		{"models_trained", strings.ReplaceAll(joinKinds(report.ModelsTrained), ", ", "|")},
		{"best_model", string(report.BestModel)},
		{"mae", fmtOptional(acc.MAE, fmtFloat, "")},
		{"rmse", fmtOptional(acc.RMSE, fmtFloat, "")},
		{"mape", fmtOptional(acc.MAPE, fmtFloat, "")},
		{"r2", fmtOptional(acc.R2, fmtFloat, "")},
		{"training_duration_ms", strconv.FormatInt(report.TrainingDuration.Milliseconds(), 10)},
		{"prediction_duration_ms", strconv.FormatInt(report.PredictionDuration.Milliseconds(), 10)},
		{"trend_direction", string(report.TrendAnalysis.TrendAnalysis.TrendDirection)},
		{"validation_passed", strconv.FormatBool(report.ValidationPassed)},
	}
	return writeCSVWithHeader(w, []string{"metric", "value"}, func(cw *csv.Writer) error {
		return cw.WriteAll(rows)
	})
}
