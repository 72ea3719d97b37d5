package analysis

import (
	"context"
	"time"

	domainanalysis "github.com/turtacn/CivicPulse/internal/domain/analysis"
	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
)

// Cache stores encoded documents. Get returns an error carrying
// errors.ErrCodeNotFound on a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Archive keeps every produced document and, optionally, the inputs it was
// computed from.
type Archive interface {
	StoreDocument(ctx context.Context, runID string, data []byte) (key string, err error)
	StoreInput(ctx context.Context, runID, name string, data []byte) (key string, err error)
	LatestDocument(ctx context.Context) ([]byte, error)
}

// EventPublisher announces finished runs.
type EventPublisher interface {
	PublishRunCompleted(ctx context.Context, evt RunCompleted) error
}

// DocumentIndexer exposes finished documents to search and dashboards.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, runID string, doc *domainanalysis.Document) error
}

// RunRequester enqueues runs for a worker.
type RunRequester interface {
	RequestRun(ctx context.Context, req RunRequested) error
}

// MetricsCollector records operational metrics by name.
type MetricsCollector interface {
	IncCounter(name string, labels map[string]string)
	ObserveHistogram(name string, value float64, labels map[string]string)
	SetGauge(name string, value float64, labels map[string]string)
}

// SourceSet names one place inputs can be loaded from. Posts may be nil.
type SourceSet struct {
	Requests servicerequest.RequestSource
	Posts    servicerequest.PostSource
}

type noopMetrics struct{}

func (noopMetrics) IncCounter(string, map[string]string)               {}
func (noopMetrics) ObserveHistogram(string, float64, map[string]string) {}
func (noopMetrics) SetGauge(string, float64, map[string]string)         {}

//Personal.AI order the ending
