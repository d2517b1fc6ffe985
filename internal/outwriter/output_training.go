package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/internal/parquet"
	"github.com/carbonlens/emforecast/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteTrainingResults outputs the per-candidate scores of a training run, dispatching based on the output format configured.
func WriteTrainingResults(state schema.ModelEnsembleState, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSONResultsForTraining(w, state)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVResultsForTraining(w, state, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		rows := parquet.ConvertModelScoreRecords(state.ModelScoreRecords())
		if err := parquet.WriteModelScoresParquet(rows, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		contract.LogInfo("💾 Wrote Parquet to %s", cfg.OutputFile)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTrainingTable(w, state, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// trainingStatus labels a candidate row of the training table.
func trainingStatus(slot schema.ModelKind, rec schema.TrainedModelRecord, state schema.ModelEnsembleState, cfg *contract.Config) string {
	switch {
	case slot == state.BestModel:
		return colorize(contract.BestColor, "best", cfg.UseColors)
	case rec.Degraded:
		reason := contract.TruncateText("degraded: "+rec.DegradedReason, getMaxReasonWidth(cfg))
		return colorize(contract.DegradedColor, reason, cfg.UseColors)
	default:
		return "ok"
	}
}

// writeTrainingTable generates and writes the human-readable table.
func writeTrainingTable(w io.Writer, state schema.ModelEnsembleState, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Slot", "Model", "Test MAE", "Test RMSE", "Test R2", "AIC", "Order", "Status"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, slot := range schema.CandidateOrder {
		rec, ok := state.Models[slot]
		if !ok {
			continue
		}
		perf := rec.Performance
		order := "-"
		if perf.Order != nil {
			order = perf.Order.String()
		}
		data = append(data, []string{
			string(slot),
			string(rec.Kind),
			fmtFloat(perf.TestMAE),
			fmtFloat(perf.TestRMSE),
			fmtOptional(perf.TestR2, fmtFloat, "-"),
			fmtOptional(perf.AIC, fmtFloat, "-"),
			order,
			trainingStatus(slot, rec, state, cfg),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Trained %d candidates on %d points ending %s. Best model: %s\n",
		len(state.Models), state.SeriesPoints, state.SeriesEnd.Format(contract.DateFormat), state.BestModel); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Training completed in %v. Run ID: %s. State backend: %s\n", duration, state.RunID, cfg.StateBackend); err != nil {
		return err
	}
	return nil
}

// trainingCandidate is the JSON shape of one trained slot.
type trainingCandidate struct {
	Slot           schema.ModelKind   `json:"slot"`
	Kind           schema.ModelKind   `json:"kind"`
	Degraded       bool               `json:"degraded"`
	DegradedReason string             `json:"degraded_reason,omitempty"`
	Performance    schema.Performance `json:"performance"`
}

// trainingSummary is the JSON shape of a training run.
type trainingSummary struct {
	RunID        string              `json:"run_id"`
	TrainedAt    time.Time           `json:"trained_at"`
	BestModel    schema.ModelKind    `json:"best_model"`
	SeriesEnd    string              `json:"series_end"`
	SeriesPoints int                 `json:"series_points"`
	Candidates   []trainingCandidate `json:"candidates"`
}

// newTrainingSummary flattens a state into the JSON summary. Fitted parameters are left out.
func newTrainingSummary(state schema.ModelEnsembleState) trainingSummary {
	summary := trainingSummary{
		RunID:        state.RunID,
		TrainedAt:    state.TrainedAt,
		BestModel:    state.BestModel,
		SeriesEnd:    state.SeriesEnd.Format(contract.DateFormat),
		SeriesPoints: state.SeriesPoints,
	}
	for _, slot := range schema.CandidateOrder {
		rec, ok := state.Models[slot]
		if !ok {
			continue
		}
		summary.Candidates = append(summary.Candidates, trainingCandidate{
			Slot:           slot,
			Kind:           rec.Kind,
			Degraded:       rec.Degraded,
			DegradedReason: rec.DegradedReason,
			Performance:    rec.Performance,
		})
	}
	return summary
}

// writeJSONResultsForTraining writes the training summary in JSON format.
func writeJSONResultsForTraining(w io.Writer, state schema.ModelEnsembleState) error {
	return writeJSON(w, newTrainingSummary(state))
}

// writeCSVResultsForTraining writes one row per trained slot.
func writeCSVResultsForTraining(w io.Writer, state schema.ModelEnsembleState, fmtFloat func(float64) string) error {
	header := []string{"run_id", "slot", "model", "degraded", "test_mae", "test_rmse", "train_mae", "test_r2", "aic", "order", "best"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, score := range state.ModelScoreRecords() {
			order := ""
			if score.Order != nil {
				order = *score.Order
			}
			row := []string{
				score.RunID,
				score.ModelSlot,
				score.ModelKind,
				strconv.FormatBool(score.Degraded),
				fmtFloat(score.TestMAE),
				fmtFloat(score.TestRMSE),
				fmtOptional(score.TrainMAE, fmtFloat, ""),
				fmtOptional(score.TestR2, fmtFloat, ""),
				fmtOptional(score.AIC, fmtFloat, ""),
				order,
				strconv.FormatBool(score.ModelSlot == string(state.BestModel)),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
