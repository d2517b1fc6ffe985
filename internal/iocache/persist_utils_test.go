package iocache

import (
	"testing"
	"time"

	"github.com/carbonlens/emforecast/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name      string
		tableName string
		wantErr   bool
	}{
		{name: "valid simple name", tableName: "forecast_model_states", wantErr: false},
		{name: "valid name with numbers", tableName: "runs_2024", wantErr: false},
		{name: "valid name starting with underscore", tableName: "_scratch", wantErr: false},
		{name: "valid mixed case", tableName: "ForecastRuns", wantErr: false},
		{name: "empty name", tableName: "", wantErr: true},
		{name: "starts with number", tableName: "1runs", wantErr: true},
		{name: "contains dash", tableName: "model-states", wantErr: true},
		{name: "contains space", tableName: "model states", wantErr: true},
		{name: "sql injection attempt", tableName: "x'; DROP TABLE forecast_training_runs; --", wantErr: true},
		{name: "contains dot", tableName: "public.states", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.tableName)
			if tt.wantErr {
				assert.Error(t, err, "validateTableName should error for %q", tt.tableName)
			} else {
				assert.NoError(t, err, "validateTableName should not error for %q", tt.tableName)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		want    string
	}{
		{schema.SQLiteBackend, `"runs"`},
		{schema.MySQLBackend, "`runs`"},
		{schema.PostgreSQLBackend, `"runs"`},
		{schema.NoneBackend, `"runs"`},
	}

	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			assert.Equal(t, tt.want, quoteTableName("runs", tt.backend))
		})
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?", placeholders(schema.SQLiteBackend, 1))
	assert.Equal(t, "?, ?, ?", placeholders(schema.MySQLBackend, 3))
	assert.Equal(t, "$1, $2, $3", placeholders(schema.PostgreSQLBackend, 3))
	assert.Equal(t, "", placeholders(schema.SQLiteBackend, 0))
}

func TestDriverName(t *testing.T) {
	assert.Equal(t, "sqlite", driverName(schema.SQLiteBackend))
	assert.Equal(t, "mysql", driverName(schema.MySQLBackend))
	assert.Equal(t, "pgx", driverName(schema.PostgreSQLBackend))
}

func TestFormatAndScanTime(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 123456000, time.UTC)

	t.Run("sqlite stores text", func(t *testing.T) {
		raw := formatTime(ts, schema.SQLiteBackend)
		text, ok := raw.(string)
		require.True(t, ok)
		got, err := scanTime(text)
		require.NoError(t, err)
		assert.True(t, ts.Equal(got))
	})

	t.Run("native backends store time", func(t *testing.T) {
		raw := formatTime(ts.In(time.FixedZone("X", 3600)), schema.PostgreSQLBackend)
		got, err := scanTime(raw)
		require.NoError(t, err)
		assert.True(t, ts.Equal(got))
		assert.Equal(t, time.UTC, got.Location())
	})

	t.Run("mysql text without parseTime", func(t *testing.T) {
		got, err := scanTime([]byte("2024-05-06 07:08:09.123456"))
		require.NoError(t, err)
		assert.True(t, ts.Equal(got))
	})

	t.Run("null and garbage", func(t *testing.T) {
		_, err := scanTime(nil)
		assert.Error(t, err)
		_, err = scanTime("yesterday")
		assert.Error(t, err)
		_, err = scanTime(42)
		assert.Error(t, err)
	})
}

func TestOpenDatabase_UnsupportedBackend(t *testing.T) {
	_, err := openDatabase("oracle", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported backend")
}
