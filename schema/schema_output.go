package schema

import "time"

// ConfidenceInterval is a symmetric band around each predicted value.
type ConfidenceInterval struct {
	LowerBound      []float64 `json:"lower_bound"`
	UpperBound      []float64 `json:"upper_bound"`
	ConfidenceLevel float64   `json:"confidence_level"`
}

// ForecastResult is the output of one prediction call.
type ForecastResult struct {
	Predictions        []float64          `json:"predictions"`
	Dates              []string           `json:"dates"`
	ModelUsed          ModelKind          `json:"model_used"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
}

// SeriesStatistics are descriptive statistics of a series.
type SeriesStatistics struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Total float64 `json:"total"`
}

// TrendFit is a least squares fit of value against a zero-based time index.
type TrendFit struct {
	Slope          float64        `json:"slope"`
	TrendDirection TrendDirection `json:"trend_direction"`
	RSquared       float64        `json:"r_squared"`
	PValue         float64        `json:"p_value"`
	IsSignificant  bool           `json:"is_significant"`
}

// Seasonality summarizes calendar-month averages across all years.
type Seasonality struct {
	MonthlyAverages   map[int]float64 `json:"monthly_averages"`
	SeasonalVariation float64         `json:"seasonal_variation"`
	PeakMonth         int             `json:"peak_month"`
	LowMonth          int             `json:"low_month"`
}

// ChangePoints lists abrupt shifts of the smoothed series.
type ChangePoints struct {
	NumChangePoints int      `json:"num_change_points"`
	ChangeDates     []string `json:"change_dates"`
}

// TrendReport is the output of one trend analysis call.
type TrendReport struct {
	Statistics    SeriesStatistics `json:"statistics"`
	TrendAnalysis TrendFit         `json:"trend_analysis"`
	Seasonality   Seasonality      `json:"seasonality"`
	ChangePoints  ChangePoints     `json:"change_points"`
	AnalysisDate  string           `json:"analysis_date"`
}

// AccuracyMetrics compares a forecast against actual values. Nil means undefined.
type AccuracyMetrics struct {
	MAE  *float64 `json:"mae"`
	RMSE *float64 `json:"rmse"`
	MAPE *float64 `json:"mape"`
	R2   *float64 `json:"r2"`
}

// BacktestReport is the result of training on the head of a series and scoring the tail.
type BacktestReport struct {
	TrainingDuration   time.Duration   `json:"training_duration_ns"`
	PredictionDuration time.Duration   `json:"prediction_duration_ns"`
	TrainPoints        int             `json:"train_points"`
	HoldoutPoints      int             `json:"holdout_points"`
	ModelsTrained      []ModelKind     `json:"models_trained"`
	BestModel          ModelKind       `json:"best_model"`
	Accuracy           AccuracyMetrics `json:"accuracy_metrics"`
	TrendAnalysis      TrendReport     `json:"trend_analysis"`
	PredictionSample   ForecastResult  `json:"prediction_sample"`
	ValidationPassed   bool            `json:"validation_passed"`
}
