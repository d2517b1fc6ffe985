package outwriter

import (
	"time"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/schema"
)

func ptr[T any](v T) *T { return &v }

func testConfig(output schema.OutputMode, outputFile string) *contract.Config {
	return &contract.Config{
		Output:       output,
		OutputFile:   outputFile,
		Precision:    2,
		Width:        160,
		DateField:    "date",
		ValueField:   "emissions",
		StateBackend: schema.FileState,
	}
}

func sampleState() schema.ModelEnsembleState {
	return schema.ModelEnsembleState{
		RunID:        "run-1",
		TrainedAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		IsTrained:    true,
		BestModel:    schema.ARIMAModel,
		SeriesEnd:    time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		SeriesPoints: 120,
		Models: map[schema.ModelKind]schema.TrainedModelRecord{
			schema.LinearModel: {
				Kind: schema.LinearModel,
				Performance: schema.Performance{
					TestMAE: 12.5, TestRMSE: 15.25, TrainMAE: ptr(10.0), TestR2: ptr(0.91),
				},
			},
			schema.ARIMAModel: {
				Kind: schema.ARIMAModel,
				Performance: schema.Performance{
					TestMAE: 8.126, TestRMSE: 9.5, AIC: ptr(512.3),
					Order: &schema.ARIMAOrder{P: 1, D: 1, Q: 0},
				},
			},
			schema.SeasonalModel: {
				Kind:           schema.LinearModel,
				Degraded:       true,
				DegradedReason: "statistical models disabled",
				Performance:    schema.Performance{TestMAE: 12.5, TestRMSE: 15.25},
			},
		},
	}
}

func sampleForecast() schema.ForecastResult {
	return schema.ForecastResult{
		Predictions: []float64{100, 110, 120},
		Dates:       []string{"2024-03-01", "2024-03-02", "2024-03-03"},
		ModelUsed:   schema.ARIMAModel,
		ConfidenceInterval: schema.ConfidenceInterval{
			LowerBound:      []float64{84, 94, 104},
			UpperBound:      []float64{116, 126, 136},
			ConfidenceLevel: 0.95,
		},
	}
}

func sampleTrend() schema.TrendReport {
	return schema.TrendReport{
		Statistics: schema.SeriesStatistics{Mean: 199, Std: 58.02, Min: 100, Max: 298, Total: 19900},
		TrendAnalysis: schema.TrendFit{
			Slope: 2, TrendDirection: schema.Increasing, RSquared: 1, PValue: 0, IsSignificant: true,
		},
		Seasonality: schema.Seasonality{
			MonthlyAverages:   map[int]float64{1: 130, 2: 190, 3: 250, 4: 289},
			SeasonalVariation: 60.5,
			PeakMonth:         4,
			LowMonth:          1,
		},
		ChangePoints: schema.ChangePoints{NumChangePoints: 1, ChangeDates: []string{"2024-02-10"}},
		AnalysisDate: "2024-04-10T00:00:00Z",
	}
}

func sampleBacktest() schema.BacktestReport {
	return schema.BacktestReport{
		TrainingDuration:   1500 * time.Millisecond,
		PredictionDuration: 3 * time.Millisecond,
		TrainPoints:        80,
		HoldoutPoints:      20,
		ModelsTrained:      []schema.ModelKind{schema.LinearModel, schema.ARIMAModel},
		BestModel:          schema.ARIMAModel,
		Accuracy:           schema.AccuracyMetrics{MAE: ptr(4.5), RMSE: ptr(5.0), R2: ptr(0.8)},
		TrendAnalysis:      sampleTrend(),
		PredictionSample:   sampleForecast(),
		ValidationPassed:   true,
	}
}
