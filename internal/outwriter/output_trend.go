package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteTrendResults outputs a trend report, dispatching based on the output format configured.
func WriteTrendResults(report schema.TrendReport, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON trend report"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVResultsForTrend(w, report, fmtFloat)
		}, "Wrote CSV trend report"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for trend reports")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTrendText(w, report, cfg, fmtFloat, duration)
		}, "Wrote trend report")
	}
	return nil
}

// monthName returns the three-letter name of a calendar month.
func monthName(m int) string {
	return time.Month(m).String()[:3]
}

// writeTrendText prints the statistics, trend, seasonality and change points.
func writeTrendText(w io.Writer, report schema.TrendReport, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	stats := report.Statistics
	statsTable := tablewriter.NewWriter(w)
	statsTable.Header([]string{"Mean", "Std", "Min", "Max", "Total"})
	statsTable.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := statsTable.Append([]string{
		fmtFloat(stats.Mean), fmtFloat(stats.Std), fmtFloat(stats.Min), fmtFloat(stats.Max), fmtFloat(stats.Total),
	}); err != nil {
		return err
	}
	if err := statsTable.Render(); err != nil {
		return err
	}

	trend := report.TrendAnalysis
	direction := string(trend.TrendDirection)
	if trend.TrendDirection == schema.Increasing {
		direction = colorize(contract.IncreasingColor, direction, cfg.UseColors)
	} else {
		direction = colorize(contract.DecreasingColor, direction, cfg.UseColors)
	}
	significance := "not significant"
	if trend.IsSignificant {
		significance = "significant"
	}
	if _, err := fmt.Fprintf(w, "Trend: %s (slope %s per day, R2 %s, p-value %.4f, %s)\n",
		direction, fmtFloat(trend.Slope), fmtFloat(trend.RSquared), trend.PValue, significance); err != nil {
		return err
	}

	if err := writeSeasonalityTable(w, report.Seasonality, cfg, fmtFloat); err != nil {
		return err
	}

	changes := report.ChangePoints
	line := fmt.Sprintf("Change points: %d", changes.NumChangePoints)
	if len(changes.ChangeDates) > 0 {
		line += " (first: " + strings.Join(changes.ChangeDates, ", ") + ")"
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Analysis completed in %v\n", duration); err != nil {
		return err
	}
	return nil
}

// writeSeasonalityTable prints monthly averages with a bar scaled to the largest one.
func writeSeasonalityTable(w io.Writer, season schema.Seasonality, cfg *contract.Config, fmtFloat func(float64) string) error {
	if len(season.MonthlyAverages) == 0 {
		return nil
	}
	maxAvg := 0.0
	for _, avg := range season.MonthlyAverages {
		maxAvg = math.Max(maxAvg, math.Abs(avg))
	}
	barWidth := getMaxBarWidth(cfg)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Month", "Average", ""})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignRight, tw.AlignLeft}
	})
	var data [][]string
	for m := 1; m <= 12; m++ {
		avg, ok := season.MonthlyAverages[m]
		if !ok {
			continue
		}
		bar := ""
		if maxAvg > 0 {
			bar = strings.Repeat("█", int(math.Round(math.Abs(avg)/maxAvg*float64(barWidth))))
		}
		name := monthName(m)
		switch m {
		case season.PeakMonth:
			name = colorize(contract.IncreasingColor, name+" ▲", cfg.UseColors)
		case season.LowMonth:
			name = colorize(contract.DecreasingColor, name+" ▼", cfg.UseColors)
		}
		data = append(data, []string{name, fmtFloat(avg), bar})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Seasonal variation: %s (peak %s, low %s)\n",
		fmtFloat(season.SeasonalVariation), monthName(season.PeakMonth), monthName(season.LowMonth))
	return err
}

// writeCSVResultsForTrend flattens the report into section/key/value rows.
func writeCSVResultsForTrend(w io.Writer, report schema.TrendReport, fmtFloat func(float64) string) error {
	stats := report.Statistics
	trend := report.TrendAnalysis
	season := report.Seasonality
	rows := [][]string{
		{"statistics", "mean", fmtFloat(stats.Mean)},
		{"statistics", "std", fmtFloat(stats.Std)},
		{"statistics", "min", fmtFloat(stats.Min)},
		{"statistics", "max", fmtFloat(stats.Max)},
		{"statistics", "total", fmtFloat(stats.Total)},
		{"trend_analysis", "slope", fmtFloat(trend.Slope)},
		{"trend_analysis", "trend_direction", string(trend.TrendDirection)},
		{"trend_analysis", "r_squared", fmtFloat(trend.RSquared)},
		{"trend_analysis", "p_value", strconv.FormatFloat(trend.PValue, 'g', 6, 64)},
		{"trend_analysis", "is_significant", strconv.FormatBool(trend.IsSignificant)},
	}
	for m := 1; m <= 12; m++ {
		if avg, ok := season.MonthlyAverages[m]; ok {
			rows = append(rows, []string{"seasonality", "month_" + strconv.Itoa(m), fmtFloat(avg)})
		}
	}
	rows = append(rows,
		[]string{"seasonality", "seasonal_variation", fmtFloat(season.SeasonalVariation)},
		[]string{"seasonality", "peak_month", strconv.Itoa(season.PeakMonth)},
		[]string{"seasonality", "low_month", strconv.Itoa(season.LowMonth)},
		[]string{"change_points", "num_change_points", strconv.Itoa(report.ChangePoints.NumChangePoints)},
	)
	for _, d := range report.ChangePoints.ChangeDates {
		rows = append(rows, []string{"change_points", "change_date", d})
	}
	rows = append(rows, []string{"analysis", "analysis_date", report.AnalysisDate})

	return writeCSVWithHeader(w, []string{"section", "key", "value"}, func(cw *csv.Writer) error {
		return cw.WriteAll(rows)
	})
}
