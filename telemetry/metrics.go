package telemetry

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics records engine metrics in a dedicated registry, exposed
// for scraping via Handler. Vectors are created lazily on first use since
// the engine calls IncCounter/RecordTimer/RecordGauge with names it picks
// at the call site rather than up front.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewPrometheusMetrics constructs a Metrics recorder backed by its own
// Prometheus registry, plus an http.Handler serving it for the /metrics
// scrape route.
func NewPrometheusMetrics() (*PrometheusMetrics, http.Handler) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	m := &PrometheusMetrics{
		registry:   registry,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m, handler
}

func (m *PrometheusMetrics) IncCounter(name string, value float64, tags ...string) {
	labels := tagLabels(tags)
	vec := m.counterVec(name, labelNames(tags))
	vec.With(labels).Add(value)
}

func (m *PrometheusMetrics) RecordTimer(name string, duration time.Duration, tags ...string) {
	labels := tagLabels(tags)
	vec := m.histogramVec(name, labelNames(tags))
	vec.With(labels).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordGauge(name string, value float64, tags ...string) {
	labels := tagLabels(tags)
	vec := m.gaugeVec(name, labelNames(tags))
	vec.With(labels).Set(value)
}

func (m *PrometheusMetrics) counterVec(name string, labels []string) *prometheus.CounterVec {
	m.mu.Lock()
	defer m.mu.Unlock()
	if vec, ok := m.counters[name]; ok {
		return vec
	}
	vec := promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{Name: name}, labels)
	m.counters[name] = vec
	return vec
}

func (m *PrometheusMetrics) histogramVec(name string, labels []string) *prometheus.HistogramVec {
	m.mu.Lock()
	defer m.mu.Unlock()
	if vec, ok := m.histograms[name]; ok {
		return vec
	}
	vec := promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{Name: name}, labels)
	m.histograms[name] = vec
	return vec
}

func (m *PrometheusMetrics) gaugeVec(name string, labels []string) *prometheus.GaugeVec {
	m.mu.Lock()
	defer m.mu.Unlock()
	if vec, ok := m.gauges[name]; ok {
		return vec
	}
	vec := promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{Name: name}, labels)
	m.gauges[name] = vec
	return vec
}

// labelNames and tagLabels both walk the same (k1, v1, k2, v2, ...) slice;
// kept separate because a CounterVec's label set must be fixed at creation
// while With() needs the matching value map on every call.
func labelNames(tags []string) []string {
	names := make([]string, 0, len(tags)/2)
	for i := 0; i+1 < len(tags); i += 2 {
		names = append(names, tags[i])
	}
	return names
}

func tagLabels(tags []string) prometheus.Labels {
	labels := make(prometheus.Labels, len(tags)/2)
	for i := 0; i+1 < len(tags); i += 2 {
		labels[tags[i]] = tags[i+1]
	}
	return labels
}
