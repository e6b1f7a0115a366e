package config

// Sketch defaults.
const (
	DefaultPrecision = 14
	DefaultHasher    = "fnv"
	DefaultEstimator = "linear"
)

// Input defaults.
const (
	DefaultMaxLineSize = "1MiB"
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Telemetry defaults.
const (
	DefaultEnvironment        = "dev"
	DefaultShutdownTimeoutSec = 5
)

// Accuracy defaults.
const (
	DefaultAccuracyTrials = 20
)

// DefaultAccuracyCardinalities returns the cardinalities probed by the
// accuracy command when none are configured.
func DefaultAccuracyCardinalities() []int {
	return []int{10, 100, 1_000, 10_000, 100_000}
}

// Output defaults.
const (
	DefaultOutputFormat = "table"
)
