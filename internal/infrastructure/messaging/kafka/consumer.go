package kafka

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/CivicPulse/internal/config"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/CivicPulse/pkg/errors"
	"github.com/turtacn/CivicPulse/pkg/types/common"
)

var (
	ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")
	ErrNoHandlers     = errors.New(errors.ErrCodeValidation, "consumer has no subscriptions")
)

// Headers added to dead-lettered messages.
const (
	HeaderOriginalTopic = "original_topic"
	HeaderErrorCode     = "error_code"
	HeaderErrorMessage  = "error_message"
)

// RetryConfig defines retry behaviour for failed handlers.
type RetryConfig struct {
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
	DeadLetterTopic string
}

// ConsumerConfig holds configuration for the Consumer.
type ConsumerConfig struct {
	Brokers         []string
	GroupID         string
	Topics          []string
	AutoOffsetReset string
	SessionTimeout  time.Duration
	MaxWait         time.Duration
	RetryConfig     RetryConfig
}

// ConsumerConfigFrom maps the kafka config section onto a ConsumerConfig
// reading topics.
func ConsumerConfigFrom(cfg config.KafkaConfig, topics ...string) ConsumerConfig {
	return ConsumerConfig{
		Brokers:         cfg.Brokers,
		GroupID:         cfg.GroupID,
		Topics:          topics,
		AutoOffsetReset: cfg.AutoOffsetReset,
		RetryConfig: RetryConfig{
			MaxRetries:      cfg.MaxRetries,
			DeadLetterTopic: cfg.DeadLetterTopic,
		},
	}
}

// ConsumerStats is a snapshot of consumer counters.
type ConsumerStats struct {
	Consumed     int64
	Processed    int64
	Failed       int64
	Retried      int64
	DeadLettered int64
}

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MessagePublisher is what the consumer needs to dead-letter a message.
type MessagePublisher interface {
	Publish(ctx context.Context, msg *common.ProducerMessage) error
}

// Consumer reads a consumer group and dispatches each message to the handler
// subscribed to its topic. Failed messages are retried with exponential
// backoff and then dead-lettered; the offset is always committed so one bad
// message cannot stall the partition.
type Consumer struct {
	reader ReaderInterface
	config ConsumerConfig
	logger logging.Logger

	handlers map[string]common.MessageHandler
	mu       sync.RWMutex

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	deadLetter MessagePublisher
	metrics    *prometheus.AppMetrics
	sleep      func(ctx context.Context, d time.Duration) error

	consumed, processed, failed, retried, deadLettered atomic.Int64
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithDeadLetterPublisher sets where exhausted messages go.
func WithDeadLetterPublisher(p MessagePublisher) ConsumerOption {
	return func(c *Consumer) { c.deadLetter = p }
}

// WithConsumerMetrics records one messages_total sample per message.
func WithConsumerMetrics(m *prometheus.AppMetrics) ConsumerOption {
	return func(c *Consumer) { c.metrics = m }
}

// NewConsumer creates a Consumer backed by a kafka.Reader.
func NewConsumer(cfg ConsumerConfig, logger logging.Logger, opts ...ConsumerOption) (*Consumer, error) {
	if err := ValidateConsumerConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = 30 * time.Second
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = time.Second
	}

	readerCfg := kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		GroupTopics:    cfg.Topics,
		MaxWait:        cfg.MaxWait,
		SessionTimeout: cfg.SessionTimeout,
		StartOffset:    kafka.FirstOffset,
		Dialer:         &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true},
	}
	if cfg.AutoOffsetReset == "latest" {
		readerCfg.StartOffset = kafka.LastOffset
	}

	return newConsumer(kafka.NewReader(readerCfg), cfg, logger, opts...), nil
}

func newConsumer(r ReaderInterface, cfg ConsumerConfig, logger logging.Logger, opts ...ConsumerOption) *Consumer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &Consumer{
		reader:   r,
		config:   cfg,
		logger:   logger.Named("kafka.consumer"),
		handlers: make(map[string]common.MessageHandler),
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe routes messages of topic to handler.
func (c *Consumer) Subscribe(topic string, handler common.MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
	c.logger.Info("Subscribed to topic", logging.String("topic", topic))
}

// Start launches the consume loop. It returns immediately; Close stops it.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.RLock()
	n := len(c.handlers)
	c.mu.RUnlock()
	if n == 0 {
		return ErrNoHandlers
	}
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.Info("Kafka consumer started", logging.String("group", c.config.GroupID))
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("FetchMessage failed", logging.Err(err))
			if c.sleep(ctx, time.Second) != nil {
				return
			}
			continue
		}
		c.consumed.Add(1)

		c.mu.RLock()
		handler, ok := c.handlers[m.Topic]
		c.mu.RUnlock()

		if !ok {
			c.logger.Warn("No handler for topic", logging.String("topic", m.Topic))
		} else if err := c.processMessage(ctx, toMessage(m), handler); err != nil {
			c.failed.Add(1)
		} else {
			c.processed.Add(1)
		}
		if ctx.Err() != nil {
			return
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("CommitMessages failed", logging.Err(err), logging.Int64("offset", m.Offset))
		}
	}
}

// processMessage runs handler with retries. Input errors are permanent and
// skip straight to the dead-letter topic. It returns the last handler error.
func (c *Consumer) processMessage(ctx context.Context, msg *common.Message, handler common.MessageHandler) error {
	err := handler(ctx, msg)

	maxRetries := c.config.RetryConfig.MaxRetries
	backoff := c.config.RetryConfig.RetryBackoff
	if backoff == 0 {
		backoff = time.Second
	}
	maxBackoff := c.config.RetryConfig.MaxRetryBackoff
	if maxBackoff == 0 {
		maxBackoff = 30 * time.Second
	}

	for i := 0; err != nil && i < maxRetries && !errors.IsInputError(err); i++ {
		c.retried.Add(1)
		if serr := c.sleep(ctx, backoff); serr != nil {
			return err
		}
		err = handler(ctx, msg)
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	if c.metrics != nil {
		prometheus.RecordMessage(c.metrics, msg.Topic, err)
	}
	if err == nil {
		return nil
	}

	c.logger.Error("Message processing failed",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Err(err))
	c.sendToDeadLetter(ctx, msg, err)
	return err
}

func (c *Consumer) sendToDeadLetter(ctx context.Context, msg *common.Message, cause error) {
	topic := c.config.RetryConfig.DeadLetterTopic
	if c.deadLetter == nil || topic == "" {
		return
	}
	headers := make(map[string]string, len(msg.Headers)+3)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderOriginalTopic] = msg.Topic
	headers[HeaderErrorCode] = errors.GetCode(cause).String()
	headers[HeaderErrorMessage] = cause.Error()

	dl := &common.ProducerMessage{Topic: topic, Key: msg.Key, Value: msg.Value, Headers: headers}
	if err := c.deadLetter.Publish(ctx, dl); err != nil {
		c.logger.Error("Failed to send to dead letter topic", logging.String("topic", topic), logging.Err(err))
		return
	}
	c.deadLettered.Add(1)
}

// Stats returns a snapshot of the counters.
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Consumed:     c.consumed.Load(),
		Processed:    c.processed.Load(),
		Failed:       c.failed.Load(),
		Retried:      c.retried.Load(),
		DeadLettered: c.deadLettered.Load(),
	}
}

// Close stops the loop, waits for the in-flight message and closes the
// reader.
func (c *Consumer) Close() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}
	c.cancel()
	c.wg.Wait()

	err := c.reader.Close()
	c.logger.Info("Kafka consumer closed", logging.Int64("consumed", c.consumed.Load()))
	return err
}

func toMessage(m kafka.Message) *common.Message {
	msg := &common.Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Timestamp: m.Time,
		Headers:   make(map[string]string, len(m.Headers)),
	}
	for _, h := range m.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ValidateConsumerConfig validates configuration.
func ValidateConsumerConfig(cfg ConsumerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "brokers required")
	}
	if cfg.GroupID == "" {
		return errors.New(errors.ErrCodeValidation, "group id required")
	}
	if len(cfg.Topics) == 0 {
		return errors.New(errors.ErrCodeValidation, "at least one topic required")
	}
	if cfg.AutoOffsetReset != "" && cfg.AutoOffsetReset != "earliest" && cfg.AutoOffsetReset != "latest" {
		return errors.New(errors.ErrCodeValidation, "invalid auto offset reset")
	}
	if cfg.RetryConfig.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "max retries must be >= 0")
	}
	return nil
}

//Personal.AI order the ending
