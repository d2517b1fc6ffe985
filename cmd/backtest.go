package cmd

import (
	"github.com/carbonlens/emforecast/core"
	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/spf13/cobra"
)

// backtestCmd validates the forecaster against held-out data.
var backtestCmd = &cobra.Command{
	Use:   "backtest [input-file]",
	Short: "Train on the first 80% of a series and score the forecast of the rest.",
	Long: `Run an end-to-end validation of the forecaster.

The series is split by time. The candidates are trained on the head, the tail is
forecast and compared with the actual values (MAE, RMSE, MAPE, R²). The run
passes when training and prediction finish in time and the MAE stays bounded.

Without an input file a synthetic series is generated from --size, --seed and
--start-date. Nothing is saved to the state backend.

Examples:
  emforecast backtest --size large --seed 7
  emforecast backtest emissions.csv --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteBacktest(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run backtest", err)
		}
	},
}

// generateCmd writes a synthetic series.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a synthetic daily emission series as CSV or JSON records.",
	Long: `Generate a reproducible daily emission series with a slow decline, yearly and
weekly cycles, noise and occasional spikes. The same seed gives the same series.

Examples:
  emforecast generate --size small --output csv --output-file emissions.csv
  emforecast generate --seed 7 --start-date 2021-01-01 --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteGenerate(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot generate series", err)
		}
	},
}
