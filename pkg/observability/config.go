// Package observability provides OpenTelemetry tracing, sketch metrics and
// structured logging for cardinal.
package observability

import (
	"io"
	"log/slog"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// AppMode identifies how the sketch is being driven.
type AppMode string

const (
	// ModeCLI is the cardinal command-line tool.
	ModeCLI AppMode = "cli"
	// ModeLibrary is a host program embedding the sketch packages.
	ModeLibrary AppMode = "library"
)

const (
	defaultServiceName = "cardinal"

	// defaultShutdownTimeoutSec is the default shutdown timeout in seconds.
	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration.
type Config struct {
	// LogOutput receives log records. Nil means os.Stderr.
	LogOutput io.Writer

	// OTLPHeaders are additional gRPC metadata headers for the OTLP exporters.
	OTLPHeaders map[string]string

	ServiceName    string
	ServiceVersion string
	Environment    string
	Mode           AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables OTLP export.
	OTLPEndpoint string

	// MetricReaders are attached to the meter provider in addition to the
	// OTLP reader, e.g. a Prometheus textfile exporter.
	MetricReaders []sdkmetric.Reader

	// SampleRatio is the trace sampling ratio when DebugTrace is false.
	// Zero samples every root span.
	SampleRatio float64

	LogLevel slog.Level

	// ShutdownTimeoutSec is the maximum seconds to wait for flush on shutdown.
	ShutdownTimeoutSec int

	OTLPInsecure bool

	// DebugTrace forces full sampling and logs attributes dropped by the filter.
	DebugTrace bool

	LogJSON bool
}

// DefaultConfig returns a Config for zero-config CLI startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
