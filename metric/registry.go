// Package metric manages Prometheus metric registration for termgraph
// services. Metrics are registered per service under a shared registry and
// exposed over a single scrape handler.
package metric

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsRegistry manages the registration and lifecycle of metrics.
type MetricsRegistry struct {
	mu       sync.Mutex
	registry *prometheus.Registry
	metrics  map[string]prometheus.Collector // key: service/metric
}

// NewMetricsRegistry creates a registry preloaded with the Go runtime and
// process collectors.
func NewMetricsRegistry() *MetricsRegistry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &MetricsRegistry{
		registry: registry,
		metrics:  make(map[string]prometheus.Collector),
	}
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *MetricsRegistry) PrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler returns the scrape endpoint handler.
func (r *MetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *MetricsRegistry) register(serviceName, metricName string, collector prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := serviceName + "/" + metricName
	if _, exists := r.metrics[key]; exists {
		return fmt.Errorf("metric %s already registered", key)
	}
	if err := r.registry.Register(collector); err != nil {
		return fmt.Errorf("registering %s: %w", key, err)
	}
	r.metrics[key] = collector
	return nil
}

// RegisterCounter registers a counter metric for a service.
func (r *MetricsRegistry) RegisterCounter(serviceName, metricName string, counter prometheus.Counter) error {
	return r.register(serviceName, metricName, counter)
}

// RegisterGauge registers a gauge metric for a service.
func (r *MetricsRegistry) RegisterGauge(serviceName, metricName string, gauge prometheus.Gauge) error {
	return r.register(serviceName, metricName, gauge)
}

// RegisterHistogram registers a histogram metric for a service.
func (r *MetricsRegistry) RegisterHistogram(serviceName, metricName string, histogram prometheus.Histogram) error {
	return r.register(serviceName, metricName, histogram)
}

// RegisterCounterVec registers a counter vector metric for a service.
func (r *MetricsRegistry) RegisterCounterVec(serviceName, metricName string, counterVec *prometheus.CounterVec) error {
	return r.register(serviceName, metricName, counterVec)
}

// RegisterHistogramVec registers a histogram vector metric for a service.
func (r *MetricsRegistry) RegisterHistogramVec(serviceName, metricName string, histogramVec *prometheus.HistogramVec) error {
	return r.register(serviceName, metricName, histogramVec)
}

// Unregister removes a metric from the registry.
func (r *MetricsRegistry) Unregister(serviceName, metricName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := serviceName + "/" + metricName
	collector, exists := r.metrics[key]
	if !exists {
		return false
	}
	delete(r.metrics, key)
	return r.registry.Unregister(collector)
}
