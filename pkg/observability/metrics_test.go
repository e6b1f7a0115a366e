package observability_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/cardinal/pkg/observability"
)

func setupTestMeter(t *testing.T) (*observability.SketchMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	sm, err := observability.NewSketchMetrics(mp.Meter("test"))
	require.NoError(t, err)

	return sm, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func TestSketchMetrics_RecordItems(t *testing.T) {
	t.Parallel()

	sm, reader := setupTestMeter(t)
	ctx := context.Background()

	sm.RecordItems(ctx, "a", 10)
	sm.RecordItems(ctx, "a", 5)
	sm.RecordItems(ctx, "b", 1)

	m := findMetric(collectMetrics(t, reader), "cardinal.items.added")
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 2)

	bySketch := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		name, _ := dp.Attributes.Value(attribute.Key("sketch"))
		bySketch[name.AsString()] = dp.Value
	}

	assert.Equal(t, map[string]int64{"a": 15, "b": 1}, bySketch)
}

func TestSketchMetrics_RecordOperation(t *testing.T) {
	t.Parallel()

	sm, reader := setupTestMeter(t)

	sm.RecordOperation(context.Background(), "merge", observability.StatusOK, 2*time.Millisecond)

	rm := collectMetrics(t, reader)

	total := findMetric(rm, "cardinal.operations.total")
	require.NotNil(t, total)

	sum, ok := total.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)

	duration := findMetric(rm, "cardinal.operation.duration.seconds")
	require.NotNil(t, duration)

	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestSketchMetrics_RecordEstimate(t *testing.T) {
	t.Parallel()

	sm, reader := setupTestMeter(t)

	sm.RecordEstimate(context.Background(), "union", 100)
	sm.RecordEstimate(context.Background(), "union", 250.5)

	m := findMetric(collectMetrics(t, reader), "cardinal.estimate")
	require.NotNil(t, m)

	gauge, ok := m.Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.InDelta(t, 250.5, gauge.DataPoints[0].Value, 0)
}

func TestSketchMetrics_TrackStatus(t *testing.T) {
	t.Parallel()

	sm, reader := setupTestMeter(t)
	ctx := context.Background()

	okErr := error(nil)
	sm.Track(ctx, "count", &okErr)()

	failErr := errors.New("boom")
	sm.Track(ctx, "count", &failErr)()

	m := findMetric(collectMetrics(t, reader), "cardinal.operations.total")
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	byStatus := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		status, _ := dp.Attributes.Value(attribute.Key("status"))
		byStatus[status.AsString()] += dp.Value
	}

	assert.Equal(t, map[string]int64{observability.StatusOK: 1, observability.StatusError: 1}, byStatus)
}

func TestPrometheusTextfile_WritesSketchMetrics(t *testing.T) {
	t.Parallel()

	textfile, err := observability.NewPrometheusTextfile()
	require.NoError(t, err)

	cfg := observability.DefaultConfig()
	cfg.MetricReaders = append(cfg.MetricReaders, textfile.Reader())
	cfg.LogOutput = io.Discard

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	sm, err := observability.NewSketchMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	sm.RecordItems(ctx, "a", 3)
	sm.RecordEstimate(ctx, "a", 3)

	path := filepath.Join(t.TempDir(), "cardinal.prom")
	require.NoError(t, textfile.WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(content), "cardinal_items_added")
	assert.Contains(t, string(content), "cardinal_estimate")

	families, err := textfile.Gatherer().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestPrometheusTextfile_BadPath(t *testing.T) {
	t.Parallel()

	textfile, err := observability.NewPrometheusTextfile()
	require.NoError(t, err)

	err = textfile.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "out.prom"))
	assert.Error(t, err)
}
