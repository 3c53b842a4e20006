package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsManager holds the cart service collectors on a private registry.
type MetricsManager struct {
	Registry           *prometheus.Registry
	CartMutationsTotal *prometheus.CounterVec
	CartNoticesTotal   *prometheus.CounterVec
	CartLines          prometheus.Gauge
	OperationLatency   *prometheus.HistogramVec
	StorefrontLatency  *prometheus.HistogramVec
}

func NewMetricsManager(namespace string) *MetricsManager {
	registry := prometheus.NewRegistry()

	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutations_total",
		Help:      "Cart mutations by operation and outcome.",
	}, []string{"operation", "outcome"})

	notices := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_notices_total",
		Help:      "User-visible notices emitted, by kind.",
	}, []string{"kind"})

	lines := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cart_lines",
		Help:      "Distinct products currently in the cart.",
	})

	opLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cart_operation_duration_seconds",
		Help:      "Latency of cart operations, external lookups included.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	storefrontLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "storefront_request_duration_seconds",
		Help:      "Latency of storefront stock/product lookups.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint", "outcome"})

	registry.MustRegister(
		mutations,
		notices,
		lines,
		opLatency,
		storefrontLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsManager{
		Registry:           registry,
		CartMutationsTotal: mutations,
		CartNoticesTotal:   notices,
		CartLines:          lines,
		OperationLatency:   opLatency,
		StorefrontLatency:  storefrontLatency,
	}
}

func (m *MetricsManager) ObserveStorefrontCall(endpoint, outcome string, took time.Duration) {
	m.StorefrontLatency.WithLabelValues(endpoint, outcome).Observe(took.Seconds())
}

func (m *MetricsManager) ObserveMutation(operation, outcome string, took time.Duration) {
	m.CartMutationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationLatency.WithLabelValues(operation).Observe(took.Seconds())
}

func (m *MetricsManager) ObserveNotice(kind string) {
	m.CartNoticesTotal.WithLabelValues(kind).Inc()
}

func (m *MetricsManager) SetCartLines(n int) {
	m.CartLines.Set(float64(n))
}

// NewMetricsServer returns an unstarted server exposing /metrics, or nil when port is empty.
func NewMetricsServer(port string, registry *prometheus.Registry) *http.Server {
	if port == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
