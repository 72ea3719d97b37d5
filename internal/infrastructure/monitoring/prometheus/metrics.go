package prometheus

import (
	"strconv"
	"time"
)

// Metric names. The application layer records through these names so it
// does not depend on this package.
const (
	MetricRunsTotal            = "analysis_runs_total"
	MetricRunDuration          = "analysis_run_duration_seconds"
	MetricStageDuration        = "analysis_stage_duration_seconds"
	MetricInputRecords         = "analysis_input_records"
	MetricHotspots             = "analysis_hotspots"
	MetricHighPriorityHotspots = "analysis_high_priority_hotspots"
	MetricGapNeighborhoods     = "analysis_gap_neighborhoods"
	MetricCacheRequests        = "cache_requests_total"
	MetricMessagesTotal        = "messages_total"
	MetricHTTPRequestsTotal    = "http_requests_total"
	MetricHTTPRequestDuration  = "http_request_duration_seconds"
)

// Default buckets.
var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultRunDurationBuckets   = []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300}
	DefaultStageDurationBuckets = []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30}
)

// AppMetrics holds every metric the services export.
type AppMetrics struct {
	RunsTotal            CounterVec
	RunDuration          HistogramVec
	StageDuration        HistogramVec
	InputRecords         GaugeVec
	Hotspots             GaugeVec
	HighPriorityHotspots GaugeVec
	GapNeighborhoods     GaugeVec
	CacheRequests        CounterVec
	MessagesTotal        CounterVec
	HTTPRequestsTotal    CounterVec
	HTTPRequestDuration  HistogramVec

	counters   map[string]CounterVec
	gauges     map[string]GaugeVec
	histograms map[string]HistogramVec
}

// NewAppMetrics registers all metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.RunsTotal = collector.RegisterCounter(MetricRunsTotal, "Analysis runs by outcome", "status")
	m.RunDuration = collector.RegisterHistogram(MetricRunDuration, "Wall time of one analysis run", DefaultRunDurationBuckets)
	m.StageDuration = collector.RegisterHistogram(MetricStageDuration, "Wall time of one engine stage", DefaultStageDurationBuckets, "stage")
	m.InputRecords = collector.RegisterGauge(MetricInputRecords, "Service requests in the last run")
	m.Hotspots = collector.RegisterGauge(MetricHotspots, "Chronic hotspots in the last run")
	m.HighPriorityHotspots = collector.RegisterGauge(MetricHighPriorityHotspots, "High priority hotspots in the last run")
	m.GapNeighborhoods = collector.RegisterGauge(MetricGapNeighborhoods, "Gap neighborhoods in the last run")
	m.CacheRequests = collector.RegisterCounter(MetricCacheRequests, "Result cache lookups", "result")
	m.MessagesTotal = collector.RegisterCounter(MetricMessagesTotal, "Bus messages handled", "topic", "status")
	m.HTTPRequestsTotal = collector.RegisterCounter(MetricHTTPRequestsTotal, "Total HTTP requests", "method", "route", "status")
	m.HTTPRequestDuration = collector.RegisterHistogram(MetricHTTPRequestDuration, "HTTP request duration", DefaultHTTPDurationBuckets, "method", "route")

	m.counters = map[string]CounterVec{
		MetricRunsTotal:         m.RunsTotal,
		MetricCacheRequests:     m.CacheRequests,
		MetricMessagesTotal:     m.MessagesTotal,
		MetricHTTPRequestsTotal: m.HTTPRequestsTotal,
	}
	m.gauges = map[string]GaugeVec{
		MetricInputRecords:         m.InputRecords,
		MetricHotspots:             m.Hotspots,
		MetricHighPriorityHotspots: m.HighPriorityHotspots,
		MetricGapNeighborhoods:     m.GapNeighborhoods,
	}
	m.histograms = map[string]HistogramVec{
		MetricRunDuration:         m.RunDuration,
		MetricStageDuration:       m.StageDuration,
		MetricHTTPRequestDuration: m.HTTPRequestDuration,
	}
	return m
}

// IncCounter increments the named counter; unknown names are ignored.
func (m *AppMetrics) IncCounter(name string, labels map[string]string) {
	if v, ok := m.counters[name]; ok {
		v.With(nonNil(labels)).Inc()
	}
}

// ObserveHistogram records value on the named histogram.
func (m *AppMetrics) ObserveHistogram(name string, value float64, labels map[string]string) {
	if v, ok := m.histograms[name]; ok {
		v.With(nonNil(labels)).Observe(value)
	}
}

// SetGauge sets the named gauge.
func (m *AppMetrics) SetGauge(name string, value float64, labels map[string]string) {
	if v, ok := m.gauges[name]; ok {
		v.With(nonNil(labels)).Set(value)
	}
}

func nonNil(labels map[string]string) map[string]string {
	if labels == nil {
		return map[string]string{}
	}
	return labels
}

// Helpers

func RecordHTTPRequest(m *AppMetrics, method, route string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordMessage(m *AppMetrics, topic string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.MessagesTotal.WithLabelValues(topic, status).Inc()
}

//Personal.AI order the ending
