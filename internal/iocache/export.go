package iocache

import (
	"errors"
	"fmt"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/internal/parquet"
)

// ExecuteRunExport exports the training history of store to two Parquet files prefixed by outputFile.
func ExecuteRunExport(store contract.RunStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	// Check if there's any data to export
	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no training runs found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total training runs: %d\n", status.TotalRuns)
	fmt.Printf("Total model scores: %d\n", status.TableSizes[modelScoresTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve training runs: %w", err)
	}
	scores, err := store.GetAllModelScores()
	if err != nil {
		return fmt.Errorf("failed to retrieve model scores: %w", err)
	}

	runsFile := outputFile + ".training_runs.parquet"
	parquetRuns := parquet.ConvertTrainingRunRecords(runs)
	if err := parquet.WriteTrainingRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write training runs: %w", err)
	}
	fmt.Printf("Exported %d training runs to: %s\n", len(parquetRuns), runsFile)

	scoresFile := outputFile + ".model_scores.parquet"
	parquetScores := parquet.ConvertModelScoreRecords(scores)
	if err := parquet.WriteModelScoresParquet(parquetScores, scoresFile); err != nil {
		return fmt.Errorf("failed to write model scores: %w", err)
	}
	fmt.Printf("Exported %d model scores to: %s\n", len(parquetScores), scoresFile)

	return nil
}
