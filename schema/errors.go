package schema

import "errors"

// Error kinds returned by the forecasting and analysis engine. Callers match them with errors.Is.
var (
	ErrData             = errors.New("data error")
	ErrInsufficientData = errors.New("insufficient data")
	ErrTrainingFailed   = errors.New("training failed")
	ErrNotTrained       = errors.New("models are not trained")
	ErrNothingToSave    = errors.New("no trained models to save")
	ErrLoad             = errors.New("load error")
	ErrAnalysis         = errors.New("analysis error")
)
