package schema

import (
	"fmt"
	"time"
)

// StandardScaler centers and scales each feature column. Scale is 1 for zero-variance columns.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// LinearState is a fitted ordinary least squares model over scaled features.
type LinearState struct {
	Columns      []string  `json:"columns"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// ARIMAOrder is the (p, d, q) order of an autoregressive integrated moving average model.
type ARIMAOrder struct {
	P int `json:"p"`
	D int `json:"d"`
	Q int `json:"q"`
}

// String formats the order the usual way, e.g. (1,1,0).
func (o ARIMAOrder) String() string {
	return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q)
}

// ARIMAState holds fitted coefficients plus enough history to continue forecasting.
type ARIMAState struct {
	Order       ARIMAOrder `json:"order"`
	HasConstant bool       `json:"has_constant"`
	Constant    float64    `json:"constant"`
	AR          []float64  `json:"ar"`
	MA          []float64  `json:"ma"`
	Sigma2      float64    `json:"sigma2"`
	AIC         float64    `json:"aic"`
	Tail        []float64  `json:"tail"`      // last p+d observations on the original scale
	Residuals   []float64  `json:"residuals"` // last q one-step residuals
}

// SeasonalState is an additive trend + weekly + yearly Fourier model.
type SeasonalState struct {
	Origin       time.Time `json:"origin"`
	SpanDays     float64   `json:"span_days"`
	YScale       float64   `json:"y_scale"`
	Changepoints []float64 `json:"changepoints"`
	WeeklyOrder  int       `json:"weekly_order"`
	YearlyOrder  int       `json:"yearly_order"`
	Coefficients []float64 `json:"coefficients"`
}

// Performance summarizes held-out accuracy. Optional fields are set only by the candidates that produce them.
type Performance struct {
	TestMAE   float64     `json:"test_mae"`
	TestRMSE  float64     `json:"test_rmse"`
	TrainMAE  *float64    `json:"train_mae,omitempty"`
	TrainRMSE *float64    `json:"train_rmse,omitempty"`
	TrainR2   *float64    `json:"train_r2,omitempty"`
	TestR2    *float64    `json:"test_r2,omitempty"`
	AIC       *float64    `json:"aic,omitempty"`
	Order     *ARIMAOrder `json:"order,omitempty"`
}

// TrainedModelRecord is the outcome of training one candidate slot.
// Kind is the algorithm actually fitted, which differs from the slot when the candidate degraded.
type TrainedModelRecord struct {
	Kind           ModelKind       `json:"kind"`
	Degraded       bool            `json:"degraded,omitempty"`
	DegradedReason string          `json:"degraded_reason,omitempty"`
	Linear         *LinearState    `json:"linear,omitempty"`
	Scaler         *StandardScaler `json:"-"`
	ARIMA          *ARIMAState     `json:"arima,omitempty"`
	Seasonal       *SeasonalState  `json:"seasonal,omitempty"`
	Performance    Performance     `json:"-"`
}

// ModelEnsembleState is the immutable result of one training run.
type ModelEnsembleState struct {
	RunID        string                           `json:"run_id"`
	TrainedAt    time.Time                        `json:"trained_at"`
	IsTrained    bool                             `json:"is_trained"`
	BestModel    ModelKind                        `json:"best_model"`
	SeriesEnd    time.Time                        `json:"series_end"`
	SeriesPoints int                              `json:"series_points"`
	Models       map[ModelKind]TrainedModelRecord `json:"models"`
}

// PerformanceMap returns the per-slot performance summaries.
func (s ModelEnsembleState) PerformanceMap() map[ModelKind]Performance {
	out := make(map[ModelKind]Performance, len(s.Models))
	for kind, rec := range s.Models {
		out[kind] = rec.Performance
	}
	return out
}

// ScalerMap returns the scalers of the slots that have one.
func (s ModelEnsembleState) ScalerMap() map[ModelKind]StandardScaler {
	out := make(map[ModelKind]StandardScaler)
	for kind, rec := range s.Models {
		if rec.Scaler != nil {
			out[kind] = *rec.Scaler
		}
	}
	return out
}

// Best returns the record of the selected model.
func (s ModelEnsembleState) Best() (TrainedModelRecord, bool) {
	rec, ok := s.Models[s.BestModel]
	return rec, ok
}
