package cmd

import (
	"fmt"
	"os"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/internal/iocache"
	"github.com/carbonlens/emforecast/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// stateMigrateSetup loads the configuration without initializing stores or creating tables,
// allowing migrations to run on a fresh database.
func stateMigrateSetup(_ *cobra.Command, _ []string) error {
	return loadConfig(nil)
}

// runDBFilePath is the SQLite file used for run tracking.
func runDBFilePath() string {
	if cfg.RunDBConnect != "" {
		return cfg.RunDBConnect
	}
	return contract.GetRunDBFilePath()
}

// stateCmd focused on saved ensembles and training run history.
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Manage saved ensembles and training run history",
	Long: `Manage the trained ensembles saved by 'train' and the run tracking database.

Saved ensembles live in the state backend: a local file (default), SQLite,
MySQL, PostgreSQL or Redis. When run tracking is enabled, every training run is
recorded with its timings, series size, best model and per-candidate scores.

Subcommands:
  status  - Show state and run tracking statistics
  export  - Export run history to Parquet for analytics
  clear   - Remove saved ensembles and run history
  migrate - Run database schema migrations for run tracking

Examples:
  # Check what is saved
  emforecast state status

  # Export the run history for DuckDB or pandas
  emforecast state export --run-backend sqlite --output-file runs`,
}

// stateStatusCmd shows state and run tracking status.
var stateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display state and run tracking statistics and connection details",
	Long: `Show the state backend with the number, size and age of saved ensembles,
followed by the run tracking backend with its run count and table sizes.

Examples:
  emforecast state status
  emforecast state status --state-backend redis --state-db-connect redis://localhost:6379/0`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		err := iocache.WithStateStore(rootCtx, cfg, func(store contract.StateStore) error {
			status, err := store.GetStatus()
			if err != nil {
				return err
			}
			iocache.PrintStateStatus(os.Stdout, status)
			return nil
		})
		if err != nil {
			contract.LogFatal("Failed to get state status", err)
		}

		fmt.Println()
		status, err := storeManager.GetRunStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run tracking status", err)
		}
		iocache.PrintRunStatus(os.Stdout, status)
	},
}

// stateClearCmd clears saved ensembles and run history.
var stateClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove saved ensembles and training run history",
	Long: `Delete every saved ensemble of the state backend and all run tracking data.

WARNING: This action cannot be undone. Consider exporting run history first.

Examples:
  emforecast state export --run-backend sqlite --output-file backup
  emforecast state clear --run-backend sqlite`,
	PreRunE: stateMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearState(rootCtx, cfg); err != nil {
			contract.LogFatal("Failed to clear saved state", err)
		}
		if err := iocache.ClearRuns(cfg.RunBackend, runDBFilePath(), cfg.RunDBConnect); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("State and run history cleared successfully.")
	},
}

// stateExportCmd exports run history to Parquet files.
var stateExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export training run history to Parquet for BI tools and analytics",
	Long: `Export all recorded training runs and candidate scores to Parquet.

Exports two datasets next to --output-file:
- <output-file>.training_runs.parquet - one row per training run
- <output-file>.model_scores.parquet - one row per candidate score

Requires: --output-file and a run tracking backend other than none.

Examples:
  emforecast state export --run-backend sqlite --output-file history
  duckdb -c "SELECT * FROM read_parquet('history.model_scores.parquet') LIMIT 10"`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if cfg.RunBackend == schema.NoneBackend {
			contract.LogFatal("Failed to export run history", fmt.Errorf("run tracking is disabled (--run-backend none)"))
		}
		if err := iocache.ExecuteRunExport(storeManager.GetRunStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

// stateMigrateCmd runs database migrations for the run tracking store.
var stateMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run tracking store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  emforecast state migrate --run-backend sqlite

  # Rollback to the initial state
  emforecast state migrate --run-backend sqlite --target-version 0`,
	PreRunE: stateMigrateSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateRuns(cfg.RunBackend, cfg.RunDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
