package metrics

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Metric names emitted by the catalog cache layer
const (
	CacheHitTotal          = "cache_hit_total"
	CacheMissTotal         = "cache_miss_total"
	CacheErrorTotal        = "cache_error_total"
	CacheInvalidationTotal = "cache_invalidation_total"
	CacheFetch             = "cache_fetch"
)

type Metrics interface {
	IncrementCounter(name string)
	IncrementCounterWithLabels(name string, labels map[string]string)
	RecordDuration(name string, duration time.Duration)
	RecordGauge(name string, value float64)
}

// Simple in-memory metrics implementation
type InMemoryMetrics struct {
	mu       sync.RWMutex
	counters map[string]*int64
	gauges   map[string]float64
}

func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters: make(map[string]*int64),
		gauges:   make(map[string]float64),
	}
}

func (m *InMemoryMetrics) counter(name string) *int64 {
	m.mu.RLock()
	c, ok := m.counters[name]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok = m.counters[name]; !ok {
		c = new(int64)
		m.counters[name] = c
	}
	return c
}

func (m *InMemoryMetrics) IncrementCounter(name string) {
	atomic.AddInt64(m.counter(name), 1)
}

// IncrementCounterWithLabels bumps both the bare counter and one keyed by
// its sorted labels, e.g. cache_hit_total{resource=category}.
func (m *InMemoryMetrics) IncrementCounterWithLabels(name string, labels map[string]string) {
	m.IncrementCounter(name)
	if len(labels) > 0 {
		m.IncrementCounter(labeledName(name, labels))
	}
}

func (m *InMemoryMetrics) RecordDuration(name string, duration time.Duration) {
	// Convert to milliseconds
	m.RecordGauge(name+"_duration_ms", float64(duration.Nanoseconds())/1e6)
}

func (m *InMemoryMetrics) RecordGauge(name string, value float64) {
	m.mu.Lock()
	m.gauges[name] = value
	m.mu.Unlock()
}

// Counter returns the current value of a counter; labels are optional.
func (m *InMemoryMetrics) Counter(name string, labels map[string]string) int64 {
	if len(labels) > 0 {
		name = labeledName(name, labels)
	}
	m.mu.RLock()
	c, ok := m.counters[name]
	m.mu.RUnlock()
	if !ok {
		return 0
	}
	return atomic.LoadInt64(c)
}

func (m *InMemoryMetrics) GetCounters() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]int64, len(m.counters))
	for name, counter := range m.counters {
		result[name] = atomic.LoadInt64(counter)
	}
	return result
}

func (m *InMemoryMetrics) GetGauges() map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]float64, len(m.gauges))
	for name, gauge := range m.gauges {
		result[name] = gauge
	}
	return result
}

func labeledName(name string, labels map[string]string) string {
	pairs := make([]string, 0, len(labels))
	for k, v := range labels {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return name + "{" + strings.Join(pairs, ",") + "}"
}

// Nop discards everything.
type Nop struct{}

func (Nop) IncrementCounter(string)                              {}
func (Nop) IncrementCounterWithLabels(string, map[string]string) {}
func (Nop) RecordDuration(string, time.Duration)                 {}
func (Nop) RecordGauge(string, float64)                          {}
