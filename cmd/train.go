package cmd

import (
	"github.com/carbonlens/emforecast/core"
	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/spf13/cobra"
)

// trainCmd trains the candidate models and saves the best ensemble.
var trainCmd = &cobra.Command{
	Use:   "train [input-file]",
	Short: "Train the forecasting candidates and save the best ensemble.",
	Long: `Prepare a daily emission series, train every candidate model and keep the best one.

The series is split by time into 80% training and 20% test rows. Three candidates
are fitted in a fixed order:
- a linear regression on calendar, lag and rolling-window features
- an ARIMA model chosen by AIC over a bounded order grid
- an additive seasonal model with yearly and weekly terms

The candidate with the lowest test MAE wins and the whole ensemble is saved to
the configured state backend. When run tracking is enabled every training run
and candidate score is recorded.

Examples:
  # Train on a CSV file with the default columns (date, emissions)
  emforecast train emissions.csv

  # Use custom column names and a Redis state backend
  emforecast train data.json --date-field day --value-field co2 \
    --state-backend redis --state-db-connect redis://localhost:6379/0

  # Linear model only, with training metrics
  emforecast train emissions.csv --statistical-models no --metrics-file train.prom`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTrain(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot train forecaster", err)
		}
	},
}
