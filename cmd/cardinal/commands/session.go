package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/cardinal/pkg/alg/hll"
	"github.com/Sumatoshi-tech/cardinal/pkg/config"
	"github.com/Sumatoshi-tech/cardinal/pkg/observability"
	"github.com/Sumatoshi-tech/cardinal/pkg/version"
)

// session is the per-invocation runtime: resolved configuration plus the
// telemetry providers every command reports through.
type session struct {
	cfg       *config.Config
	providers observability.Providers
	metrics   *observability.SketchMetrics
	textfile  *observability.PrometheusTextfile
	opts      *rootOptions
}

// openSession loads configuration, applies flag overrides and starts telemetry.
func openSession(cmd *cobra.Command, opts *rootOptions) (*session, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	applyFlagOverrides(cmd, opts, cfg)

	err = config.ValidateOutputFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	obsCfg, err := observabilityConfig(cmd, opts, cfg)
	if err != nil {
		return nil, err
	}

	sess := &session{cfg: cfg, opts: opts}

	if opts.metricsFile != "" {
		sess.textfile, err = observability.NewPrometheusTextfile()
		if err != nil {
			return nil, err
		}

		obsCfg.MetricReaders = append(obsCfg.MetricReaders, sess.textfile.Reader())
	}

	sess.providers, err = observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	sess.metrics, err = observability.NewSketchMetrics(sess.providers.Meter)
	if err != nil {
		return nil, errors.Join(err, sess.providers.Shutdown(context.Background()))
	}

	return sess, nil
}

// applyFlagOverrides copies explicitly set flags over file and env values.
func applyFlagOverrides(cmd *cobra.Command, opts *rootOptions, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed(flagFormat) {
		cfg.Output.Format = opts.format
	}

	if flags.Changed(flagNoColor) {
		cfg.Output.NoColor = opts.noColor
	}

	if flags.Lookup(flagPrecision) != nil && flags.Changed(flagPrecision) {
		precision, _ := flags.GetUint8(flagPrecision)
		cfg.Sketch.Precision = int(precision)
	}

	if flags.Lookup(flagHasher) != nil && flags.Changed(flagHasher) {
		cfg.Sketch.Hasher, _ = flags.GetString(flagHasher)
	}

	if flags.Lookup(flagEstimator) != nil && flags.Changed(flagEstimator) {
		cfg.Sketch.Estimator, _ = flags.GetString(flagEstimator)
	}
}

func observabilityConfig(cmd *cobra.Command, opts *rootOptions, cfg *config.Config) (observability.Config, error) {
	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return observability.Config{}, err
	}

	switch {
	case opts.verbose:
		level = slog.LevelDebug
	case opts.quiet:
		level = slog.LevelError
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Telemetry.Environment
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = cfg.Telemetry.OTLPHeaders
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.ShutdownTimeoutSec = cfg.Telemetry.ShutdownTimeoutSec
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.Format == config.LogFormatJSON
	obsCfg.LogOutput = cmd.ErrOrStderr()
	obsCfg.DebugTrace = opts.verbose

	return obsCfg, nil
}

// newSketch builds an empty sketch from the resolved sketch settings.
func (s *session) newSketch() (*hll.Sketch, error) {
	opts, err := s.cfg.SketchOptions()
	if err != nil {
		return nil, err
	}

	if s.cfg.Sketch.Precision < hll.MinPrecision || s.cfg.Sketch.Precision > hll.MaxPrecision {
		return nil, fmt.Errorf("%w: %d", hll.ErrInvalidPrecision, s.cfg.Sketch.Precision)
	}

	return hll.New(s.cfg.SketchPrecision(), opts...)
}

// sketchAttributes describes the sketch configuration for spans.
func (s *session) sketchAttributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("sketch.precision", s.cfg.Sketch.Precision),
		attribute.String("sketch.hasher", s.cfg.Sketch.Hasher),
		attribute.String("sketch.estimator", s.cfg.Sketch.Estimator),
	}
}

// startSpan opens the command span.
func (s *session) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.providers.Tracer.Start(ctx, "cardinal."+name, trace.WithAttributes(attrs...))
}

// finish marks span failed on err, ends it, flushes the metrics textfile and
// shuts telemetry down. The command error takes precedence.
func (s *session) finish(ctx context.Context, span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.providers.Logger.ErrorContext(ctx, "command failed", "error", err)
	}

	span.End()

	var flushErr error

	if s.textfile != nil {
		flushErr = s.textfile.WriteTextfile(s.opts.metricsFile)
	}

	shutdownErr := s.providers.Shutdown(context.WithoutCancel(ctx))
	if shutdownErr != nil {
		s.providers.Logger.WarnContext(ctx, "observability shutdown failed", "error", shutdownErr)
	}

	if err != nil {
		return err
	}

	return flushErr
}
