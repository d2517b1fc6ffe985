// Package cmd defines the command-line interface for emforecast.
package cmd

import (
	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the state subcommands to the parent state command
	stateCmd.AddCommand(stateStatusCmd)
	stateCmd.AddCommand(stateClearCmd)
	stateCmd.AddCommand(stateExportCmd)
	stateCmd.AddCommand(stateMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("input", "i", "", "Path to a CSV or JSON file of dated emission records ('-' reads CSV from stdin)")
	rootCmd.PersistentFlags().String("date-field", contract.DefaultDateField, "Name of the date column")
	rootCmd.PersistentFlags().String("value-field", contract.DefaultValueField, "Name of the emission value column")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("statistical-models", "yes", "Allow the ARIMA and seasonal candidates (yes/no); disabled candidates fall back to the linear model")
	rootCmd.PersistentFlags().Int("arima-max-p", 2, "Largest autoregressive order searched (0-4)")
	rootCmd.PersistentFlags().Int("arima-max-d", 1, "Largest differencing order searched (0-4)")
	rootCmd.PersistentFlags().Int("arima-max-q", 2, "Largest moving-average order searched (0-4)")
	rootCmd.PersistentFlags().Int("horizon", contract.DefaultHorizon, "Number of days to forecast")
	rootCmd.PersistentFlags().Float64("confidence-level", contract.DefaultConfidenceLevel, "Confidence level reported with forecast intervals")
	rootCmd.PersistentFlags().String("state-backend", string(schema.FileState), "State backend: file or sqlite or mysql or postgresql or redis")
	rootCmd.PersistentFlags().String("state-db-connect", "", "Connection string for the state backend (e.g., redis://localhost:6379/0)")
	rootCmd.PersistentFlags().String("state-location", "", "File path or state name of the trained ensemble")
	rootCmd.PersistentFlags().String("run-backend", string(schema.NoneBackend), "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("run-db-connect", "", "Database connection string for run tracking (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus training metrics in text format to this file")
	rootCmd.PersistentFlags().String("size", contract.DefaultSyntheticSize, "Synthetic series size: small or medium or large")
	rootCmd.PersistentFlags().Uint64("seed", contract.DefaultSyntheticSeed, "Seed of the synthetic series")
	rootCmd.PersistentFlags().String("start-date", contract.DefaultSyntheticStart, "First date of the synthetic series (YYYY-MM-DD)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of mcpCmd to Viper
	mcpCmd.Flags().Int("mcp-requests-per-minute", contract.DefaultMCPRequestsPerMinute, "Maximum tool calls served per minute")
	if err := viper.BindPFlags(mcpCmd.Flags()); err != nil {
		contract.LogFatal("Error binding mcp flags", err)
	}

	// Bind all flags of stateMigrateCmd to Viper
	stateMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(stateMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding state migrate flags", err)
	}
}
