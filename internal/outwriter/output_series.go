package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/schema"
)

// WriteSeries writes a daily series as records using the configured date and value field names.
// Only CSV and JSON are meaningful here; the text mode writes CSV.
func WriteSeries(series schema.ObservationSeries, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSONSeries(w, series, cfg)
		}, fmt.Sprintf("Wrote %d JSON records", series.Len()))
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for generated series")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVSeries(w, series, cfg)
		}, fmt.Sprintf("Wrote %d CSV records", series.Len()))
	}
}

func writeCSVSeries(w io.Writer, series schema.ObservationSeries, cfg *contract.Config) error {
	return writeCSVWithHeader(w, []string{cfg.DateField, cfg.ValueField}, func(cw *csv.Writer) error {
		for i, d := range series.Dates {
			row := []string{
				d.Format(contract.DateFormat),
				strconv.FormatFloat(series.Values[i], 'f', cfg.Precision, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeJSONSeries(w io.Writer, series schema.ObservationSeries, cfg *contract.Config) error {
	records := make([]map[string]any, series.Len())
	for i, d := range series.Dates {
		records[i] = map[string]any{
			cfg.DateField:  d.Format(contract.DateFormat),
			cfg.ValueField: series.Values[i],
		}
	}
	return writeJSON(w, records)
}
