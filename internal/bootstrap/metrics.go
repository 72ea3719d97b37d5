package bootstrap

import (
	"net/http"

	"github.com/turtacn/CivicPulse/internal/application/analysis"
	"github.com/turtacn/CivicPulse/internal/config"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

// Metrics is the process-wide metric set and its scrape handler.
type Metrics struct {
	App     *prometheus.AppMetrics
	Handler http.Handler
	Path    string
}

// NewMetrics registers the application metrics on a private registry. It
// returns nil when metrics are disabled.
func NewMetrics(cfg config.MetricsConfig, log logging.Logger) (*Metrics, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Namespace,
		EnableProcessMetrics: cfg.EnableProcessMetrics,
		EnableGoMetrics:      cfg.EnableGoMetrics,
	}, log)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigurationErr, "metrics collector")
	}
	return &Metrics{
		App:     prometheus.NewAppMetrics(collector),
		Handler: collector.Handler(),
		Path:    cfg.Path,
	}, nil
}

// Collector returns the metrics as the engine sees them, or nil.
func (m *Metrics) Collector() analysis.MetricsCollector {
	if m == nil {
		return nil
	}
	return m.App
}

// AppMetrics returns the typed metric set, or nil.
func (m *Metrics) AppMetrics() *prometheus.AppMetrics {
	if m == nil {
		return nil
	}
	return m.App
}

// ScrapeHandler returns the /metrics handler, or nil.
func (m *Metrics) ScrapeHandler() http.Handler {
	if m == nil {
		return nil
	}
	return m.Handler
}

//Personal.AI order the ending
