package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusTextfile collects OTel metrics into a private Prometheus registry
// and dumps them in the node_exporter textfile collector format. It suits
// short-lived runs that finish before any scrape could happen.
type PrometheusTextfile struct {
	registry *prometheus.Registry
	exporter *promexporter.Exporter
}

// NewPrometheusTextfile creates an exporter bound to a fresh registry.
// Pass Reader() to Config.MetricReaders before Init.
func NewPrometheusTextfile() (*PrometheusTextfile, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return &PrometheusTextfile{registry: registry, exporter: exporter}, nil
}

// Reader returns the metric reader to attach to a MeterProvider.
func (p *PrometheusTextfile) Reader() sdkmetric.Reader {
	return p.exporter
}

// Gatherer exposes the underlying registry.
func (p *PrometheusTextfile) Gatherer() prometheus.Gatherer {
	return p.registry
}

// WriteTextfile atomically writes the current metric values to path.
func (p *PrometheusTextfile) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}

	return nil
}
