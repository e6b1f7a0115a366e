// Package config loads cardinal settings from a YAML file and CARDINAL_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/cardinal/pkg/alg/hll"
)

// Sentinel validation errors.
var (
	ErrInvalidLogLevel     = errors.New("invalid log level")
	ErrInvalidLogFormat    = errors.New("invalid log format")
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrInvalidMaxLineSize  = errors.New("invalid max line size")
	ErrInvalidSampleRatio  = errors.New("sample ratio must be within [0, 1]")
	ErrInvalidTrials       = errors.New("accuracy trials must be positive")
)

// envPrefix is the prefix of environment overrides, e.g. CARDINAL_SKETCH_PRECISION.
const envPrefix = "CARDINAL"

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config holds all configuration for cardinal.
type Config struct {
	Sketch    SketchConfig    `mapstructure:"sketch"`
	Input     InputConfig     `mapstructure:"input"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Accuracy  AccuracyConfig  `mapstructure:"accuracy"`
	Output    OutputConfig    `mapstructure:"output"`
}

// SketchConfig selects the sketch parameters.
type SketchConfig struct {
	Hasher    string `mapstructure:"hasher"`
	Estimator string `mapstructure:"estimator"`
	Precision int    `mapstructure:"precision"`
}

// InputConfig bounds line-oriented input.
type InputConfig struct {
	// MaxLineSize is a human-readable byte size, e.g. "64KiB".
	MaxLineSize string `mapstructure:"max_line_size"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPHeaders        map[string]string `mapstructure:"otlp_headers"`
	OTLPEndpoint       string            `mapstructure:"otlp_endpoint"`
	Environment        string            `mapstructure:"environment"`
	SampleRatio        float64           `mapstructure:"sample_ratio"`
	ShutdownTimeoutSec int               `mapstructure:"shutdown_timeout_sec"`
	OTLPInsecure       bool              `mapstructure:"otlp_insecure"`
}

// AccuracyConfig holds defaults for the accuracy command.
type AccuracyConfig struct {
	Cardinalities []int `mapstructure:"cardinalities"`
	Trials        int   `mapstructure:"trials"`
}

// OutputConfig controls result rendering.
type OutputConfig struct {
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// LoadConfig loads configuration from file and environment variables.
// An empty configPath searches the working directory and ~/.config/cardinal
// for cardinal.yaml and tolerates its absence.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("cardinal")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("$HOME/.config/cardinal")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("sketch.precision", DefaultPrecision)
	viperCfg.SetDefault("sketch.hasher", DefaultHasher)
	viperCfg.SetDefault("sketch.estimator", DefaultEstimator)

	viperCfg.SetDefault("input.max_line_size", DefaultMaxLineSize)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.environment", DefaultEnvironment)
	viperCfg.SetDefault("telemetry.sample_ratio", 0.0)
	viperCfg.SetDefault("telemetry.shutdown_timeout_sec", DefaultShutdownTimeoutSec)

	viperCfg.SetDefault("accuracy.trials", DefaultAccuracyTrials)
	viperCfg.SetDefault("accuracy.cardinalities", DefaultAccuracyCardinalities())

	viperCfg.SetDefault("output.format", DefaultOutputFormat)
	viperCfg.SetDefault("output.no_color", false)
}

func validateConfig(config *Config) error {
	if config.Sketch.Precision < hll.MinPrecision || config.Sketch.Precision > hll.MaxPrecision {
		return fmt.Errorf("%w: %d", hll.ErrInvalidPrecision, config.Sketch.Precision)
	}

	if _, err := hll.HasherByName(config.Sketch.Hasher); err != nil {
		return err
	}

	if _, err := hll.EstimatorByName(config.Sketch.Estimator); err != nil {
		return err
	}

	if _, err := config.Input.MaxLineBytes(); err != nil {
		return err
	}

	if _, err := config.Logging.SlogLevel(); err != nil {
		return err
	}

	if !slices.Contains([]string{LogFormatText, LogFormatJSON}, config.Logging.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	if config.Telemetry.SampleRatio < 0 || config.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRatio, config.Telemetry.SampleRatio)
	}

	if config.Accuracy.Trials <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTrials, config.Accuracy.Trials)
	}

	return ValidateOutputFormat(config.Output.Format)
}

// ValidateOutputFormat reports whether format names a supported renderer.
func ValidateOutputFormat(format string) error {
	if !slices.Contains([]string{FormatTable, FormatJSON, FormatYAML}, format) {
		return fmt.Errorf("%w: %q", ErrInvalidOutputFormat, format)
	}

	return nil
}

// SketchOptions resolves the configured hasher and estimator into sketch options.
func (c *Config) SketchOptions() ([]hll.Option, error) {
	hasher, err := hll.HasherByName(c.Sketch.Hasher)
	if err != nil {
		return nil, err
	}

	estimator, err := hll.EstimatorByName(c.Sketch.Estimator)
	if err != nil {
		return nil, err
	}

	return []hll.Option{hll.WithHasher(hasher), hll.WithEstimator(estimator)}, nil
}

// SketchPrecision returns the validated precision as the sketch expects it.
func (c *Config) SketchPrecision() uint8 {
	return uint8(c.Sketch.Precision) //nolint:gosec // Bounded by validateConfig.
}

// MaxLineBytes parses MaxLineSize.
func (c InputConfig) MaxLineBytes() (int, error) {
	size, err := humanize.ParseBytes(c.MaxLineSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidMaxLineSize, err)
	}

	if size == 0 || size > uint64(maxLineBytesLimit) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMaxLineSize, c.MaxLineSize)
	}

	return int(size), nil //nolint:gosec // Bounded by maxLineBytesLimit.
}

// maxLineBytesLimit caps a single input line at 1 GiB.
const maxLineBytesLimit = 1 << 30

// SlogLevel maps Level onto a slog.Level.
func (c LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(c.Level))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Level)
	}

	return level, nil
}
