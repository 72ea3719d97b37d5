package testutil

import (
	"sort"
	"strings"
	"sync"
)

// MockMetrics records metric calls by name and sorted label set.
type MockMetrics struct {
	mu         sync.Mutex
	counters   map[string]int
	histograms map[string][]float64
	gauges     map[string]float64
}

// NewMockMetrics creates an empty recorder.
func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		counters:   make(map[string]int),
		histograms: make(map[string][]float64),
		gauges:     make(map[string]float64),
	}
}

func metricKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	pairs := make([]string, 0, len(labels))
	for k, v := range labels {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return name + "{" + strings.Join(pairs, ",") + "}"
}

func (m *MockMetrics) IncCounter(name string, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[metricKey(name, labels)]++
}

func (m *MockMetrics) ObserveHistogram(name string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := metricKey(name, labels)
	m.histograms[k] = append(m.histograms[k], value)
}

func (m *MockMetrics) SetGauge(name string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[metricKey(name, labels)] = value
}

// Counter returns the count for name with exactly labels.
func (m *MockMetrics) Counter(name string, labels map[string]string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[metricKey(name, labels)]
}

// Observations returns how many samples were observed.
func (m *MockMetrics) Observations(name string, labels map[string]string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.histograms[metricKey(name, labels)])
}

// Gauge returns the last value set and whether it was set at all.
func (m *MockMetrics) Gauge(name string, labels map[string]string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.gauges[metricKey(name, labels)]
	return v, ok
}

//Personal.AI order the ending
