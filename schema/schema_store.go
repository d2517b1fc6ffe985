package schema

import "time"

// TrainingRunRecord represents a row from the forecast_training_runs table.
type TrainingRunRecord struct {
	RunID        string
	StartTime    time.Time
	EndTime      *time.Time
	DurationMs   *int64
	SeriesPoints int32
	BestModel    *string
	BestTestMAE  *float64
	ConfigParams *string
}

// ModelScoreRecord represents a row from the forecast_model_scores table.
type ModelScoreRecord struct {
	RunID     string
	ModelSlot string
	ModelKind string
	Degraded  bool
	TestMAE   float64
	TestRMSE  float64
	TrainMAE  *float64
	TestR2    *float64
	AIC       *float64
	Order     *string
}

// NewModelScoreRecord flattens the performance of one candidate slot into a score row.
func NewModelScoreRecord(runID string, slot ModelKind, rec TrainedModelRecord) ModelScoreRecord {
	perf := rec.Performance
	out := ModelScoreRecord{
		RunID:     runID,
		ModelSlot: string(slot),
		ModelKind: string(rec.Kind),
		Degraded:  rec.Degraded,
		TestMAE:   perf.TestMAE,
		TestRMSE:  perf.TestRMSE,
		TrainMAE:  perf.TrainMAE,
		TestR2:    perf.TestR2,
		AIC:       perf.AIC,
	}
	if perf.Order != nil {
		s := perf.Order.String()
		out.Order = &s
	}
	return out
}

// ModelScoreRecords returns one score row per trained slot, in candidate order.
func (s ModelEnsembleState) ModelScoreRecords() []ModelScoreRecord {
	out := make([]ModelScoreRecord, 0, len(s.Models))
	for _, slot := range CandidateOrder {
		if rec, ok := s.Models[slot]; ok {
			out = append(out, NewModelScoreRecord(s.RunID, slot, rec))
		}
	}
	return out
}
