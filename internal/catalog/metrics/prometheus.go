package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics exports the catalog metrics on a private registry.
type PrometheusMetrics struct {
	namespace string
	registry  *prometheus.Registry

	vecs   map[string]*prometheus.CounterVec
	labels map[string][]string

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// NewPrometheusMetrics creates a collector with the given namespace
func NewPrometheusMetrics(namespace string) *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	labeled := map[string][]string{
		CacheHitTotal:          {"resource"},
		CacheMissTotal:         {"resource"},
		CacheErrorTotal:        {"op"},
		CacheInvalidationTotal: {"resource"},
	}
	help := map[string]string{
		CacheHitTotal:          "Total number of catalog cache hits",
		CacheMissTotal:         "Total number of catalog cache misses",
		CacheErrorTotal:        "Total number of cache store failures recovered by falling back",
		CacheInvalidationTotal: "Total number of cache keys invalidated after writes",
	}

	vecs := make(map[string]*prometheus.CounterVec, len(labeled))
	for name, labels := range labeled {
		vec := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help[name],
		}, labels)
		registry.MustRegister(vec)
		vecs[name] = vec
	}

	return &PrometheusMetrics{
		namespace:  namespace,
		registry:   registry,
		vecs:       vecs,
		labels:     labeled,
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

func (m *PrometheusMetrics) IncrementCounter(name string) {
	if vec, ok := m.vecs[name]; ok {
		// Pre-declared vectors need their labels; count under an empty value.
		empty := prometheus.Labels{}
		for _, l := range m.labels[name] {
			empty[l] = ""
		}
		if c, err := vec.GetMetricWith(empty); err == nil {
			c.Inc()
		}
		return
	}

	m.mu.Lock()
	c, ok := m.counters[name]
	if !ok {
		c = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace,
			Name:      name,
			Help:      name,
		})
		m.registry.MustRegister(c)
		m.counters[name] = c
	}
	m.mu.Unlock()

	c.Inc()
}

func (m *PrometheusMetrics) IncrementCounterWithLabels(name string, labels map[string]string) {
	vec, ok := m.vecs[name]
	if !ok {
		m.IncrementCounter(name)
		return
	}

	c, err := vec.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return
	}
	c.Inc()
}

func (m *PrometheusMetrics) RecordDuration(name string, duration time.Duration) {
	m.mu.Lock()
	h, ok := m.histograms[name]
	if !ok {
		h = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace,
			Name:      name + "_duration_seconds",
			Help:      name + " duration in seconds",
			Buckets:   prometheus.DefBuckets,
		})
		m.registry.MustRegister(h)
		m.histograms[name] = h
	}
	m.mu.Unlock()

	h.Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordGauge(name string, value float64) {
	m.mu.Lock()
	g, ok := m.gauges[name]
	if !ok {
		g = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace,
			Name:      name,
			Help:      name,
		})
		m.registry.MustRegister(g)
		m.gauges[name] = g
	}
	m.mu.Unlock()

	g.Set(value)
}

// Registry returns the registry backing this collector.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
