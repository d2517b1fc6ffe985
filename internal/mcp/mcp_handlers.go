package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/carbonlens/emforecast/core"
	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/internal/metrics"
	"github.com/carbonlens/emforecast/internal/ratelimit"
	"github.com/carbonlens/emforecast/schema"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg   *contract.Config
	mgr       contract.StoreManager
	limiter   *ratelimit.RateLimiter
	ensembles *lru.Cache[string, schema.ModelEnsembleState]
}

// trainingResponse is the JSON body returned by train_emission_forecaster.
type trainingResponse struct {
	RunID         string                                  `json:"run_id"`
	BestModel     schema.ModelKind                        `json:"best_model"`
	SeriesEnd     string                                  `json:"series_end"`
	SeriesPoints  int                                     `json:"series_points"`
	StateLocation string                                  `json:"state_location"`
	Performance   map[schema.ModelKind]schema.Performance `json:"performance"`
}

func (h *toolHandler) handleAnalyzeTrends(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("request throttled: %v", err)), nil
	}
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if cfg.InputPath == "" {
		return mcp.NewToolResultError("input_path is required"), nil
	}

	records, err := core.LoadRecords(cfg.InputPath, cfg.DateField, cfg.ValueField)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	report, err := core.AnalyzeRecords(records, time.Now())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	return jsonResult(report)
}

func (h *toolHandler) handleTrainForecaster(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("request throttled: %v", err)), nil
	}
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if cfg.InputPath == "" {
		return mcp.NewToolResultError("input_path is required"), nil
	}
	cfg.StatisticalModels = request.GetBool("statistical_models", cfg.StatisticalModels)

	series, err := core.LoadSeries(cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("training failed: %v", err)), nil
	}
	var (
		observer contract.TrainingObserver
		tm       *metrics.TrainingMetrics
	)
	if cfg.MetricsFile != "" {
		tm = metrics.NewTrainingMetrics()
		observer = tm
	}
	state, err := core.TrainAndSave(core.WithQuiet(ctx), cfg, h.mgr, series, observer)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("training failed: %v", err)), nil
	}
	if tm != nil {
		core.WriteMetricsFile(cfg, tm)
	}
	h.ensembles.Add(ensembleKey(cfg), state)

	resp := trainingResponse{
		RunID:         state.RunID,
		BestModel:     state.BestModel,
		SeriesEnd:     state.SeriesEnd.Format(contract.DateFormat),
		SeriesPoints:  state.SeriesPoints,
		StateLocation: cfg.StateLocation,
		Performance:   state.PerformanceMap(),
	}
	return jsonResult(resp)
}

func (h *toolHandler) handleForecast(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("request throttled: %v", err)), nil
	}
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cfg.Horizon = request.GetInt("horizon", cfg.Horizon)
	cfg.ConfidenceLevel = request.GetFloat("confidence_level", cfg.ConfidenceLevel)
	if cfg.Horizon < 1 || cfg.Horizon > contract.MaxHorizon {
		return mcp.NewToolResultError(fmt.Sprintf("horizon must be between 1 and %d", contract.MaxHorizon)), nil
	}
	if cfg.ConfidenceLevel <= 0 || cfg.ConfidenceLevel >= 1 {
		return mcp.NewToolResultError("confidence_level must be between 0 and 1"), nil
	}

	state, err := h.loadEnsemble(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("forecast failed: %v", err)), nil
	}
	result, err := core.Predict(state, cfg.Horizon, core.PredictOptions{ConfidenceLevel: cfg.ConfidenceLevel})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("forecast failed: %v", err)), nil
	}
	return jsonResult(result)
}

// requestConfig copies the base configuration and applies the common tool arguments.
func (h *toolHandler) requestConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	cfg.InputPath = request.GetString("input_path", "")
	if f := request.GetString("date_field", ""); f != "" {
		cfg.DateField = f
	}
	if f := request.GetString("value_field", ""); f != "" {
		cfg.ValueField = f
	}
	if l := request.GetString("state_location", ""); l != "" {
		loc, err := h.stateLocation(l)
		if err != nil {
			return nil, err
		}
		cfg.StateLocation = loc
	}
	return cfg, nil
}

// stateLocation maps a client supplied state name to a location. Clients name
// states; with the file backend the name resolves inside the configured state directory.
func (h *toolHandler) stateLocation(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.IsAbs(name) {
		return "", fmt.Errorf("state_location must be a plain name, not a path (received %q)", name)
	}
	if h.baseCfg.StateBackend == schema.FileState {
		return filepath.Join(filepath.Dir(h.baseCfg.StateLocation), name), nil
	}
	return name, nil
}

// loadEnsemble returns the cached ensemble for the configured location, reading it on a miss.
func (h *toolHandler) loadEnsemble(ctx context.Context, cfg *contract.Config) (schema.ModelEnsembleState, error) {
	key := ensembleKey(cfg)
	if state, ok := h.ensembles.Get(key); ok {
		return state, nil
	}
	state, err := core.LoadState(ctx, cfg)
	if err != nil {
		return schema.ModelEnsembleState{}, err
	}
	h.ensembles.Add(key, state)
	return state, nil
}

func ensembleKey(cfg *contract.Config) string {
	return fmt.Sprintf("%s:%s", cfg.StateBackend, cfg.StateLocation)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
