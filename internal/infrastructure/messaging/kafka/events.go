package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/turtacn/CivicPulse/internal/application/analysis"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/pkg/errors"
	"github.com/turtacn/CivicPulse/pkg/types/common"
)

// Header keys set on every run event.
const (
	HeaderEventType     = "event_type"
	HeaderSourceService = "source_service"
	HeaderSchemaVersion = "schema_version"
)

const schemaVersion = "v1"

// RunEvents carries run events over the bus. It is both the
// analysis.RunRequester used by the API server and scheduler and the
// analysis.EventPublisher used by the worker.
type RunEvents struct {
	publisher MessagePublisher
	source    string
	logger    logging.Logger
}

var (
	_ analysis.RunRequester   = (*RunEvents)(nil)
	_ analysis.EventPublisher = (*RunEvents)(nil)
)

// NewRunEvents publishes through p, tagging messages with the service name.
func NewRunEvents(p MessagePublisher, service string, logger logging.Logger) *RunEvents {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RunEvents{publisher: p, source: service, logger: logger}
}

// RequestRun enqueues req on the requested-runs topic.
func (e *RunEvents) RequestRun(ctx context.Context, req analysis.RunRequested) error {
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}
	return e.publish(ctx, analysis.TopicRunRequested, "RunRequested", req.RunID, req, req.RequestedAt)
}

// PublishRunCompleted announces evt on the completed-runs topic.
func (e *RunEvents) PublishRunCompleted(ctx context.Context, evt analysis.RunCompleted) error {
	return e.publish(ctx, analysis.TopicRunCompleted, "RunCompleted", evt.RunID, evt, evt.CompletedAt)
}

func (e *RunEvents) publish(ctx context.Context, topic, eventType, key string, payload interface{}, at time.Time) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeMessagingError, "failed to encode event")
	}
	msg := &common.ProducerMessage{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Headers: map[string]string{
			HeaderEventType:     eventType,
			HeaderSourceService: e.source,
			HeaderSchemaVersion: schemaVersion,
		},
		Timestamp: at,
	}
	if err := e.publisher.Publish(ctx, msg); err != nil {
		return err
	}
	e.logger.Debug("Run event published", logging.String("topic", topic), logging.String("run_id", key))
	return nil
}

// RunRequestHandler consumes requested-runs messages.
type RunRequestHandler interface {
	HandleRunRequested(ctx context.Context, msg analysis.RunRequested) error
}

// NewRunRequestHandler decodes each message and hands it to h. timeout bounds
// one run when positive.
func NewRunRequestHandler(h RunRequestHandler, timeout time.Duration) common.MessageHandler {
	return func(ctx context.Context, msg *common.Message) error {
		req, err := analysis.DecodeRunRequested(msg.Value)
		if err != nil {
			return err
		}
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return h.HandleRunRequested(ctx, req)
	}
}

//Personal.AI order the ending
