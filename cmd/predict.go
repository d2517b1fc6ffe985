package cmd

import (
	"github.com/carbonlens/emforecast/core"
	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/spf13/cobra"
)

// predictCmd forecasts from the saved ensemble.
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Forecast daily emissions from the saved ensemble.",
	Long: `Load the trained ensemble and forecast the days after the end of its training series.

Each forecast day comes with a lower and upper bound computed from the spread of
the forecast itself. The confidence level is reported alongside the bounds.

Examples:
  # Forecast the next 30 days
  emforecast predict

  # Forecast a quarter and save it as Parquet
  emforecast predict --horizon 90 --output parquet --output-file forecast.parquet`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecutePredict(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot forecast emissions", err)
		}
	},
}
