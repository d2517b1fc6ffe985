package contract

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/carbonlens/emforecast/schema"
)

// Default values for configuration.
const (
	DefaultDateField            = "date"
	DefaultValueField           = "emissions"
	DefaultHorizon              = 30
	MaxHorizon                  = 3650
	DefaultConfidenceLevel      = 0.95
	DefaultPrecision            = 2
	DefaultStateName            = "default"
	DefaultMCPRequestsPerMinute = 60
	DefaultSyntheticSize        = "medium"
	DefaultSyntheticSeed        = 42
	DefaultSyntheticStart       = "2019-01-01"
	MaxARIMABound               = 4
)

// DateFormat is the representation of calendar dates in input and output.
var DateFormat = time.DateOnly

// Config holds the runtime configuration for training, forecasting and analysis.
// This struct is the "final, validated" config.
type Config struct {
	InputPath  string
	DateField  string
	ValueField string

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int  // Terminal width override (0 = auto-detect)
	UseColors  bool // Enable colored labels in table output

	Horizon         int
	ConfidenceLevel float64

	StatisticalModels bool // Capability flag for the ARIMA and seasonal candidates
	ARIMAMaxP         int
	ARIMAMaxD         int
	ARIMAMaxQ         int

	StateBackend   schema.StateBackend
	StateDBConnect string // Please use env var as this is plaintext
	StateLocation  string

	RunBackend   schema.DatabaseBackend
	RunDBConnect string // Please use env var as this is plaintext

	MetricsFile          string
	MCPRequestsPerMinute int

	SyntheticSize  string
	SyntheticSeed  uint64
	SyntheticStart time.Time
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Input                string `mapstructure:"input"`
	DateField            string `mapstructure:"date-field"`
	ValueField           string `mapstructure:"value-field"`
	Output               string `mapstructure:"output"`
	OutputFile           string `mapstructure:"output-file"`
	Precision            int    `mapstructure:"precision"`
	Width                int    `mapstructure:"width"`
	Color                string `mapstructure:"color"`
	StateBackend         string `mapstructure:"state-backend"`
	StateDBConnect       string `mapstructure:"state-db-connect"`
	StateLocation        string `mapstructure:"state-location"`
	RunBackend           string `mapstructure:"run-backend"`
	RunDBConnect         string `mapstructure:"run-db-connect"`
	MetricsFile          string `mapstructure:"metrics-file"`
	StatisticalModels    string `mapstructure:"statistical-models"`
	MCPRequestsPerMinute int    `mapstructure:"mcp-requests-per-minute"`

	// --- Fields from trainCmd / backtestCmd flags ---
	ARIMAMaxP int `mapstructure:"arima-max-p"`
	ARIMAMaxD int `mapstructure:"arima-max-d"`
	ARIMAMaxQ int `mapstructure:"arima-max-q"`

	// --- Fields from predictCmd flags ---
	Horizon         int     `mapstructure:"horizon"`
	ConfidenceLevel float64 `mapstructure:"confidence-level"`

	// --- Fields from generateCmd flags ---
	SyntheticSize  string `mapstructure:"size"`
	SyntheticSeed  uint64 `mapstructure:"seed"`
	SyntheticStart string `mapstructure:"start-date"`
}

// Clone returns a copy of the Config struct. Config holds no reference types.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processModelOptions(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return processSyntheticOptions(cfg, input)
}

// validateSimpleInputs processes and validates the input and output fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.InputPath = strings.TrimSpace(input.Input)
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.MetricsFile = input.MetricsFile

	cfg.DateField = strings.TrimSpace(input.DateField)
	if cfg.DateField == "" {
		cfg.DateField = DefaultDateField
	}
	cfg.ValueField = strings.TrimSpace(input.ValueField)
	if cfg.ValueField == "" {
		cfg.ValueField = DefaultValueField
	}
	if cfg.DateField == cfg.ValueField {
		return fmt.Errorf("date-field and value-field must differ (both %q)", cfg.DateField)
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Precision < 1 || input.Precision > 6 {
		return fmt.Errorf("precision must be between 1 and 6 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	if input.MCPRequestsPerMinute < 0 {
		return fmt.Errorf("mcp-requests-per-minute cannot be negative (received %d)", input.MCPRequestsPerMinute)
	}
	cfg.MCPRequestsPerMinute = input.MCPRequestsPerMinute
	if cfg.MCPRequestsPerMinute == 0 {
		cfg.MCPRequestsPerMinute = DefaultMCPRequestsPerMinute
	}
	return nil
}

// processModelOptions validates the capability flag, the ARIMA grid and forecast options.
func processModelOptions(cfg *Config, input *ConfigRawInput) error {
	statistical, err := ParseBoolString(input.StatisticalModels)
	if err != nil {
		return fmt.Errorf("invalid --statistical-models value: %w", err)
	}
	cfg.StatisticalModels = statistical

	bounds := []struct {
		name  string
		value int
		dst   *int
	}{
		{"arima-max-p", input.ARIMAMaxP, &cfg.ARIMAMaxP},
		{"arima-max-d", input.ARIMAMaxD, &cfg.ARIMAMaxD},
		{"arima-max-q", input.ARIMAMaxQ, &cfg.ARIMAMaxQ},
	}
	for _, b := range bounds {
		if b.value < 0 || b.value > MaxARIMABound {
			return fmt.Errorf("%s must be between 0 and %d (received %d)", b.name, MaxARIMABound, b.value)
		}
		*b.dst = b.value
	}

	if input.Horizon <= 0 || input.Horizon > MaxHorizon {
		return fmt.Errorf("horizon must be greater than 0 and cannot exceed %d (received %d)", MaxHorizon, input.Horizon)
	}
	cfg.Horizon = input.Horizon

	if input.ConfidenceLevel <= 0 || input.ConfidenceLevel >= 1 {
		return fmt.Errorf("confidence-level must be between 0 and 1 exclusive (received %v)", input.ConfidenceLevel)
	}
	cfg.ConfidenceLevel = input.ConfidenceLevel
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends. flagName is used in error messages.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr, flagName string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("%s is required when using %s backend", flagName, backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("%s is required when using %s backend", flagName, backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ValidateRedisURL checks that connStr looks like redis://host:port/db.
func ValidateRedisURL(connStr string) error {
	if connStr == "" {
		return fmt.Errorf("state-db-connect is required when using redis backend")
	}
	u, err := url.Parse(connStr)
	if err != nil {
		return fmt.Errorf("invalid redis URL: %w", err)
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return fmt.Errorf("redis URL must start with redis:// or rediss:// (received %q)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("redis URL must contain a host")
	}
	return nil
}

// validateBackendConfigs validates the state and run tracking backends.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- State Backend Validation ---
	cfg.StateBackend = schema.StateBackend(strings.ToLower(input.StateBackend))
	if _, ok := schema.ValidStateBackends[cfg.StateBackend]; !ok {
		return fmt.Errorf("invalid state backend '%s'. must be file, sqlite, mysql, postgresql, redis", input.StateBackend)
	}
	cfg.StateDBConnect = input.StateDBConnect
	switch cfg.StateBackend {
	case schema.RedisState:
		if err := ValidateRedisURL(cfg.StateDBConnect); err != nil {
			return err
		}
	case schema.FileState:
	default:
		if err := ValidateDatabaseConnectionString(cfg.StateBackend.DatabaseBackend(), cfg.StateDBConnect, "state-db-connect"); err != nil {
			return err
		}
	}
	cfg.StateLocation = strings.TrimSpace(input.StateLocation)
	if cfg.StateLocation == "" {
		if cfg.StateBackend == schema.FileState {
			cfg.StateLocation = GetStateFilePath()
		} else {
			cfg.StateLocation = DefaultStateName
		}
	}

	// --- Run Backend Validation ---
	cfg.RunBackend = schema.DatabaseBackend(strings.ToLower(input.RunBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.RunBackend]; !ok {
		return fmt.Errorf("invalid run backend '%s'. must be sqlite, mysql, postgresql, none", input.RunBackend)
	}
	cfg.RunDBConnect = input.RunDBConnect
	return ValidateDatabaseConnectionString(cfg.RunBackend, cfg.RunDBConnect, "run-db-connect")
}

// processSyntheticOptions validates the options of the synthetic data generator.
func processSyntheticOptions(cfg *Config, input *ConfigRawInput) error {
	cfg.SyntheticSize = strings.ToLower(strings.TrimSpace(input.SyntheticSize))
	if cfg.SyntheticSize == "" {
		cfg.SyntheticSize = DefaultSyntheticSize
	}
	if _, ok := ValidSyntheticSizes[cfg.SyntheticSize]; !ok {
		return fmt.Errorf("invalid size '%s'. must be small, medium, large", input.SyntheticSize)
	}
	cfg.SyntheticSeed = input.SyntheticSeed

	start := input.SyntheticStart
	if start == "" {
		start = DefaultSyntheticStart
	}
	t, err := time.Parse(DateFormat, start)
	if err != nil {
		return fmt.Errorf("invalid start-date %q: expected YYYY-MM-DD", start)
	}
	cfg.SyntheticStart = t
	return nil
}

// ValidSyntheticSizes lists the sizes accepted by the generator.
var ValidSyntheticSizes = map[string]struct{}{
	"small":  {},
	"medium": {},
	"large":  {},
}
