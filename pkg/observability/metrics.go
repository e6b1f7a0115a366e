package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricItemsAdded        = "cardinal.items.added"
	metricOperationsTotal   = "cardinal.operations.total"
	metricOperationDuration = "cardinal.operation.duration.seconds"
	metricEstimate          = "cardinal.estimate"

	attrOp     = "op"
	attrStatus = "status"
	attrSketch = "sketch"
)

// Operation outcomes recorded by RecordOperation.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// durationBucketBoundaries spans sub-millisecond merges up to multi-minute
// ingestion of large inputs.
var durationBucketBoundaries = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300}

// SketchMetrics holds the OTel instruments describing sketch activity.
type SketchMetrics struct {
	itemsAdded        metric.Int64Counter
	operationsTotal   metric.Int64Counter
	operationDuration metric.Float64Histogram
	estimate          metric.Float64Gauge
}

// NewSketchMetrics creates the sketch instruments from mt.
func NewSketchMetrics(mt metric.Meter) (*SketchMetrics, error) {
	itemsAdded, err := mt.Int64Counter(metricItemsAdded,
		metric.WithDescription("Items added to sketches, duplicates included"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricItemsAdded, err)
	}

	opsTotal, err := mt.Int64Counter(metricOperationsTotal,
		metric.WithDescription("Sketch operations by kind and outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricOperationsTotal, err)
	}

	opDuration, err := mt.Float64Histogram(metricOperationDuration,
		metric.WithDescription("Sketch operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricOperationDuration, err)
	}

	estimate, err := mt.Float64Gauge(metricEstimate,
		metric.WithDescription("Most recent cardinality estimate"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricEstimate, err)
	}

	return &SketchMetrics{
		itemsAdded:        itemsAdded,
		operationsTotal:   opsTotal,
		operationDuration: opDuration,
		estimate:          estimate,
	}, nil
}

// RecordItems counts n items added to the named sketch.
func (sm *SketchMetrics) RecordItems(ctx context.Context, sketch string, n int64) {
	sm.itemsAdded.Add(ctx, n, metric.WithAttributes(attribute.String(attrSketch, sketch)))
}

// RecordOperation records one completed operation.
func (sm *SketchMetrics) RecordOperation(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	sm.operationsTotal.Add(ctx, 1, attrs)
	sm.operationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordEstimate publishes the latest estimate of the named sketch.
func (sm *SketchMetrics) RecordEstimate(ctx context.Context, sketch string, estimate float64) {
	sm.estimate.Record(ctx, estimate, metric.WithAttributes(attribute.String(attrSketch, sketch)))
}

// Track starts timing op and returns a function that records it with the
// status derived from *errp.
func (sm *SketchMetrics) Track(ctx context.Context, op string, errp *error) func() {
	start := time.Now()

	return func() {
		status := StatusOK
		if errp != nil && *errp != nil {
			status = StatusError
		}

		sm.RecordOperation(ctx, op, status, time.Since(start))
	}
}
