package cmd

import (
	"github.com/carbonlens/emforecast/core"
	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/spf13/cobra"
)

// analyzeCmd reports trend, seasonality and change points.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [input-file]",
	Short: "Show statistics, trend, seasonality and change points of a series.",
	Long: `Analyze a daily emission series without training any model.

Reports:
- Descriptive statistics (mean, std, min, max, total)
- The linear trend with its slope, R² and significance
- Average emissions per calendar month
- Days where the 7-day rolling mean shifts sharply

Examples:
  emforecast analyze emissions.csv
  emforecast analyze emissions.csv --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAnalyze(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot analyze emissions", err)
		}
	},
}
