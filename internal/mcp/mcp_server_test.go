package mcp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/carbonlens/emforecast/internal/contract"
	mcp_internal "github.com/carbonlens/emforecast/internal/mcp"
	"github.com/carbonlens/emforecast/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*server.MCPServer, *contract.Config) {
	t.Helper()
	baseCfg := &contract.Config{
		DateField:            "date",
		ValueField:           "emissions",
		Horizon:              contract.DefaultHorizon,
		ConfidenceLevel:      contract.DefaultConfidenceLevel,
		ARIMAMaxP:            2,
		ARIMAMaxD:            1,
		ARIMAMaxQ:            2,
		StateBackend:         schema.FileState,
		StateLocation:        filepath.Join(t.TempDir(), "ensemble.bin"),
		MCPRequestsPerMinute: 1000,
	}
	s, err := mcp_internal.NewMCPServer(baseCfg, nil)
	require.NoError(t, err)
	return s, baseCfg
}

// writeInput writes n days of a slowly rising series.
func writeInput(t *testing.T, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("date,emissions,site\n")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range n {
		fmt.Fprintf(&b, "%s,%d,plant-a\n", start.AddDate(0, 0, i).Format(time.DateOnly), 500+i)
	}
	path := filepath.Join(t.TempDir(), "emissions.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)
	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("analyze_emission_trends missing input_path", func(t *testing.T) {
		res := callTool(t, s, "analyze_emission_trends", map[string]any{})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "input_path is required")
	})

	t.Run("train_emission_forecaster missing input_path", func(t *testing.T) {
		res := callTool(t, s, "train_emission_forecaster", map[string]any{})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "input_path is required")
	})

	t.Run("forecast_emissions invalid horizon", func(t *testing.T) {
		res := callTool(t, s, "forecast_emissions", map[string]any{"horizon": 0.0})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "horizon must be between 1 and")
	})

	t.Run("forecast_emissions horizon above maximum", func(t *testing.T) {
		res := callTool(t, s, "forecast_emissions", map[string]any{"horizon": float64(contract.MaxHorizon + 1)})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), fmt.Sprintf("horizon must be between 1 and %d", contract.MaxHorizon))
	})

	for _, loc := range []string{"../escape.bin", "/tmp/ensemble.bin", "nested/ensemble.bin", ".."} {
		t.Run("train_emission_forecaster state_location "+loc, func(t *testing.T) {
			res := callTool(t, s, "train_emission_forecaster", map[string]any{
				"input_path":     writeInput(t, 60),
				"state_location": loc,
			})
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), "state_location must be a plain name")
		})
	}

	t.Run("forecast_emissions invalid confidence level", func(t *testing.T) {
		res := callTool(t, s, "forecast_emissions", map[string]any{"confidence_level": 1.5})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "confidence_level")
	})

	t.Run("forecast_emissions before training", func(t *testing.T) {
		res := callTool(t, s, "forecast_emissions", map[string]any{"horizon": 5.0})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "forecast failed")
	})

	t.Run("analyze_emission_trends unknown field", func(t *testing.T) {
		res := callTool(t, s, "analyze_emission_trends", map[string]any{
			"input_path":  writeInput(t, 10),
			"value_field": "co2",
		})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "analysis failed")
	})
}

func TestMCPAnalyzeEmissionTrends(t *testing.T) {
	s, _ := newTestServer(t)
	res := callTool(t, s, "analyze_emission_trends", map[string]any{"input_path": writeInput(t, 60)})
	require.False(t, res.IsError, resultText(t, res))

	var report schema.TrendReport
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &report))
	assert.Equal(t, schema.Increasing, report.TrendAnalysis.TrendDirection)
	assert.InDelta(t, 1.0, report.TrendAnalysis.Slope, 1e-9)
	assert.Equal(t, 500.0, report.Statistics.Min)
}

func TestMCPTrainThenForecast(t *testing.T) {
	s, baseCfg := newTestServer(t)

	res := callTool(t, s, "train_emission_forecaster", map[string]any{
		"input_path":         writeInput(t, 90),
		"statistical_models": false,
	})
	require.False(t, res.IsError, resultText(t, res))

	var trained map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &trained))
	assert.NotEmpty(t, trained["run_id"])
	assert.Equal(t, "2024-03-30", trained["series_end"])
	assert.EqualValues(t, 90, trained["series_points"])
	assert.Equal(t, baseCfg.StateLocation, trained["state_location"])
	assert.FileExists(t, baseCfg.StateLocation)

	res = callTool(t, s, "forecast_emissions", map[string]any{"horizon": 7.0, "confidence_level": 0.9})
	require.False(t, res.IsError, resultText(t, res))

	var forecast schema.ForecastResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &forecast))
	assert.Len(t, forecast.Predictions, 7)
	assert.Equal(t, "2024-03-31", forecast.Dates[0])
	assert.Equal(t, 0.9, forecast.ConfidenceInterval.ConfidenceLevel)
}

func TestMCPForecastUsesCachedEnsemble(t *testing.T) {
	s, baseCfg := newTestServer(t)
	res := callTool(t, s, "train_emission_forecaster", map[string]any{"input_path": writeInput(t, 60)})
	require.False(t, res.IsError, resultText(t, res))

	// The trained ensemble stays cached after its file is gone
	require.NoError(t, os.Remove(baseCfg.StateLocation))
	res = callTool(t, s, "forecast_emissions", map[string]any{"horizon": 3.0})
	require.False(t, res.IsError, resultText(t, res))

	// Another location misses the cache
	res = callTool(t, s, "forecast_emissions", map[string]any{
		"horizon":        3.0,
		"state_location": "other.bin",
	})
	assert.True(t, res.IsError)
}

func TestMCPTrainNamedStateStaysInStateDir(t *testing.T) {
	s, baseCfg := newTestServer(t)
	res := callTool(t, s, "train_emission_forecaster", map[string]any{
		"input_path":         writeInput(t, 60),
		"statistical_models": false,
		"state_location":     "plant-a.bin",
	})
	require.False(t, res.IsError, resultText(t, res))

	want := filepath.Join(filepath.Dir(baseCfg.StateLocation), "plant-a.bin")
	var trained map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &trained))
	assert.Equal(t, want, trained["state_location"])
	assert.FileExists(t, want)

	res = callTool(t, s, "forecast_emissions", map[string]any{"horizon": 3.0, "state_location": "plant-a.bin"})
	assert.False(t, res.IsError, resultText(t, res))
}

func TestMCPTrainWritesMetricsFile(t *testing.T) {
	s, baseCfg := newTestServer(t)
	baseCfg.MetricsFile = filepath.Join(t.TempDir(), "training.prom")

	res := callTool(t, s, "train_emission_forecaster", map[string]any{
		"input_path":         writeInput(t, 60),
		"statistical_models": false,
	})
	require.False(t, res.IsError, resultText(t, res))

	data, err := os.ReadFile(baseCfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "emforecast_candidates_total")
	assert.Contains(t, string(data), "emforecast_training_runs_total")
}
