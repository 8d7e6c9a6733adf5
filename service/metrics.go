package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/termgraph/metric"
)

type serviceMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newServiceMetrics(registry *metric.MetricsRegistry) *serviceMetrics {
	m := &serviceMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "termgraph_requests_total",
			Help: "Query requests by operation and outcome",
		}, []string{"op", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "termgraph_request_duration_seconds",
			Help:    "Query handling latency by operation",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"op"}),
	}
	registry.RegisterCounterVec("query_service", "termgraph_requests_total", m.requests)
	registry.RegisterHistogramVec("query_service", "termgraph_request_duration_seconds", m.duration)
	return m
}
