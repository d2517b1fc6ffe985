package iocache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/carbonlens/emforecast/schema"
	"github.com/golang/snappy"
)

// Envelope identification of saved ensembles.
const (
	stateFormat  = "emforecast-ensemble"
	stateVersion = 1
)

// StateFormat returns the identifier and version written into saved ensembles.
func StateFormat() (string, int) {
	return stateFormat, stateVersion
}

// stateEnvelope wraps the payload with enough metadata to reject foreign or corrupted blobs.
type stateEnvelope struct {
	Format   string          `json:"format"`
	Version  int             `json:"version"`
	SavedAt  time.Time       `json:"saved_at"`
	Checksum string          `json:"checksum"`
	Payload  json.RawMessage `json:"payload"`
}

type statePayload struct {
	RunID        string                                         `json:"run_id"`
	TrainedAt    time.Time                                      `json:"trained_at"`
	IsTrained    bool                                           `json:"is_trained"`
	BestModel    schema.ModelKind                               `json:"best_model"`
	SeriesEnd    time.Time                                      `json:"series_end"`
	SeriesPoints int                                            `json:"series_points"`
	Models       map[schema.ModelKind]schema.TrainedModelRecord `json:"models"`
	Scalers      map[schema.ModelKind]schema.StandardScaler     `json:"scalers"`
	Performance  map[schema.ModelKind]schema.Performance        `json:"performance"`
}

// EncodeState serializes a trained ensemble into a snappy-compressed, checksummed blob.
func EncodeState(state schema.ModelEnsembleState, savedAt time.Time) ([]byte, error) {
	if !state.IsTrained {
		return nil, schema.ErrNothingToSave
	}
	payload, err := json.Marshal(statePayload{
		RunID:        state.RunID,
		TrainedAt:    state.TrainedAt,
		IsTrained:    state.IsTrained,
		BestModel:    state.BestModel,
		SeriesEnd:    state.SeriesEnd,
		SeriesPoints: state.SeriesPoints,
		Models:       state.Models,
		Scalers:      state.ScalerMap(),
		Performance:  state.PerformanceMap(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ensemble: %w", err)
	}
	envelope, err := json.Marshal(stateEnvelope{
		Format:   stateFormat,
		Version:  stateVersion,
		SavedAt:  savedAt.UTC(),
		Checksum: checksum(payload),
		Payload:  payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state envelope: %w", err)
	}
	return snappy.Encode(nil, envelope), nil
}

// DecodeState restores an ensemble saved by EncodeState. Every failure wraps schema.ErrLoad.
func DecodeState(blob []byte) (schema.ModelEnsembleState, error) {
	raw, err := snappy.Decode(nil, blob)
	if err != nil {
		return schema.ModelEnsembleState{}, fmt.Errorf("%w: corrupted state blob: %w", schema.ErrLoad, err)
	}
	var env stateEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return schema.ModelEnsembleState{}, fmt.Errorf("%w: malformed state envelope: %w", schema.ErrLoad, err)
	}
	if env.Format != stateFormat {
		return schema.ModelEnsembleState{}, fmt.Errorf("%w: unknown state format %q", schema.ErrLoad, env.Format)
	}
	if env.Version != stateVersion {
		return schema.ModelEnsembleState{}, fmt.Errorf("%w: unsupported state version %d", schema.ErrLoad, env.Version)
	}
	if checksum(env.Payload) != env.Checksum {
		return schema.ModelEnsembleState{}, fmt.Errorf("%w: state checksum mismatch", schema.ErrLoad)
	}

	var p statePayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return schema.ModelEnsembleState{}, fmt.Errorf("%w: malformed state payload: %w", schema.ErrLoad, err)
	}
	if !p.IsTrained || len(p.Models) == 0 {
		return schema.ModelEnsembleState{}, fmt.Errorf("%w: state holds no trained models", schema.ErrLoad)
	}
	if _, ok := p.Models[p.BestModel]; !ok {
		return schema.ModelEnsembleState{}, fmt.Errorf("%w: best model %q missing from state", schema.ErrLoad, p.BestModel)
	}

	models := make(map[schema.ModelKind]schema.TrainedModelRecord, len(p.Models))
	for slot, rec := range p.Models {
		if scaler, ok := p.Scalers[slot]; ok {
			rec.Scaler = &scaler
		}
		rec.Performance = p.Performance[slot]
		models[slot] = rec
	}
	return schema.ModelEnsembleState{
		RunID:        p.RunID,
		TrainedAt:    p.TrainedAt,
		IsTrained:    p.IsTrained,
		BestModel:    p.BestModel,
		SeriesEnd:    p.SeriesEnd,
		SeriesPoints: p.SeriesPoints,
		Models:       models,
	}, nil
}

func checksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
