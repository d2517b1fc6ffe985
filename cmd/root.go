package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/carbonlens/emforecast/internal/contract"
	"github.com/carbonlens/emforecast/internal/iocache"
	"github.com/carbonlens/emforecast/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Build metadata, overridden with -ldflags "-X" at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is passed to every executor.
var rootCtx = context.Background()

// cfg is the validated configuration of the running command.
var cfg = &contract.Config{}

// input is what viper resolved from defaults, file, env and flags, before validation.
var input = &contract.ConfigRawInput{}

// profilePrefix is set when CPU and memory profiling is enabled.
var profilePrefix string

// storeManager owns the run tracking store.
var storeManager contract.StoreManager

// startProfiling starts CPU profiling if a profile prefix was given.
func startProfiling() error {
	profilePrefix = strings.TrimSpace(viper.GetString("profile"))
	if profilePrefix == "" {
		return nil
	}

	cpuFile, err := os.Create(profilePrefix + ".cpu.prof")
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		return fmt.Errorf("could not start CPU profiling: %w", err)
	}

	// The heap profile is written by stopProfiling
	_, err = fmt.Fprintf(os.Stderr, "Profiling enabled. CPU profile: %s.cpu.prof, Memory profile: %s.mem.prof\n", profilePrefix, profilePrefix)
	return err
}

// stopProfiling flushes the CPU profile and writes a heap profile.
func stopProfiling() error {
	if profilePrefix == "" {
		return nil
	}

	pprof.StopCPUProfile()

	memFile, err := os.Create(profilePrefix + ".mem.prof")
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer func() { _ = memFile.Close() }()

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}

	_, err = fmt.Fprintf(os.Stderr, "Profiling complete. Use 'go tool pprof %s.cpu.prof' to analyze.\n", profilePrefix)
	return err
}

// rootCmd only prints help; the work happens in subcommands.
var rootCmd = &cobra.Command{
	Use:                "emforecast",
	Short:              "Forecast carbon emissions and analyze their trends.",
	Long:               `Emforecast trains competing forecasting models on a daily emission series, keeps the best one and serves forecasts with confidence bounds.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig points viper at the config file, the EMFORECAST_ environment and the defaults.
func initConfig() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".emforecast")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("EMFORECAST")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("date-field", contract.DefaultDateField)
	viper.SetDefault("value-field", contract.DefaultValueField)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("color", "yes")
	viper.SetDefault("horizon", contract.DefaultHorizon)
	viper.SetDefault("confidence-level", contract.DefaultConfidenceLevel)
	viper.SetDefault("statistical-models", "yes")
	viper.SetDefault("arima-max-p", 2)
	viper.SetDefault("arima-max-d", 1)
	viper.SetDefault("arima-max-q", 2)
	viper.SetDefault("state-backend", schema.FileState)
	viper.SetDefault("state-db-connect", "")
	viper.SetDefault("run-backend", schema.NoneBackend)
	viper.SetDefault("run-db-connect", "")
	viper.SetDefault("mcp-requests-per-minute", contract.DefaultMCPRequestsPerMinute)
	viper.SetDefault("size", contract.DefaultSyntheticSize)
	viper.SetDefault("seed", contract.DefaultSyntheticSeed)
	viper.SetDefault("start-date", contract.DefaultSyntheticStart)
}

// loadConfig merges defaults, file, env and flags, then validates them into cfg.
// A single positional argument overrides --input.
func loadConfig(args []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	if len(args) == 1 {
		input.Input = args[0]
	}

	return contract.ProcessAndValidate(cfg, input)
}

// sharedSetup loads the configuration and initializes the run tracking store.
func sharedSetup(_ context.Context, _ *cobra.Command, args []string) error {
	if err := startProfiling(); err != nil {
		return fmt.Errorf("failed to start profiling: %w", err)
	}
	if err := loadConfig(args); err != nil {
		return err
	}

	if err := iocache.InitStores(cfg.RunBackend, cfg.RunDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	return nil
}

// sharedSetupWrapper adapts sharedSetup to cobra's PreRunE signature.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// loadConfigFile reads the config file when one exists.
func loadConfigFile() error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetStoreManager sets the global store manager.
func SetStoreManager(mgr contract.StoreManager) {
	storeManager = mgr
}

// StopProfiling is a no-op unless --profile was given.
func StopProfiling() error {
	return stopProfiling()
}
