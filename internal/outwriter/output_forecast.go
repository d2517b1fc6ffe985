package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/internal/parquet"
	"github.com/carbonlens/emforecast/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteForecastResults outputs a forecast, dispatching based on the output format configured.
func WriteForecastResults(result schema.ForecastResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON forecast"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVResultsForForecast(w, result, fmtFloat)
		}, "Wrote CSV forecast"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := parquet.WriteForecastParquet(parquet.ConvertForecast(result), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		contract.LogInfo("💾 Wrote Parquet forecast to %s", cfg.OutputFile)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeForecastTable(w, result, fmtFloat, duration)
		}, "Wrote forecast table")
	}
	return nil
}

// writeForecastTable prints one row per forecast day.
func writeForecastTable(w io.Writer, result schema.ForecastResult, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Date", "Prediction", "Lower", "Upper"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	ci := result.ConfidenceInterval
	data := make([][]string, 0, len(result.Predictions))
	for i, p := range result.Predictions {
		data = append(data, []string{
			result.Dates[i],
			fmtFloat(p),
			fmtFloat(ci.LowerBound[i]),
			fmtFloat(ci.UpperBound[i]),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Forecast of %d days from the %s model (confidence level %.2f) in %v\n",
		len(result.Predictions), result.ModelUsed, ci.ConfidenceLevel, duration); err != nil {
		return err
	}
	return nil
}

// writeCSVResultsForForecast writes one row per forecast day.
func writeCSVResultsForForecast(w io.Writer, result schema.ForecastResult, fmtFloat func(float64) string) error {
	header := []string{"date", "prediction", "lower_bound", "upper_bound", "confidence_level", "model_used"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, p := range parquet.ConvertForecast(result) {
			row := []string{
				p.Date,
				fmtFloat(p.Prediction),
				fmtFloat(p.LowerBound),
				fmtFloat(p.UpperBound),
				fmtFloat(p.ConfidenceLevel),
				p.ModelUsed,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
