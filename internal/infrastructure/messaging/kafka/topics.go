package kafka

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/CivicPulse/internal/application/analysis"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

// TopicConfig describes one topic to provision.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	Retention         time.Duration
}

// DefaultTopics lists the run topics plus deadLetter when set.
func DefaultTopics(deadLetter string) []TopicConfig {
	topics := []TopicConfig{
		{Name: analysis.TopicRunRequested, NumPartitions: 3, ReplicationFactor: 1, Retention: 7 * 24 * time.Hour},
		{Name: analysis.TopicRunCompleted, NumPartitions: 3, ReplicationFactor: 1, Retention: 30 * 24 * time.Hour},
	}
	if deadLetter != "" {
		topics = append(topics, TopicConfig{Name: deadLetter, NumPartitions: 1, ReplicationFactor: 1, Retention: 30 * 24 * time.Hour})
	}
	return topics
}

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager provisions topics through one broker connection.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

// NewTopicManager dials the first broker.
func NewTopicManager(ctx context.Context, brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "brokers required")
	}
	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMessagingError, "failed to dial kafka").WithDetail(brokers[0])
	}
	return newTopicManager(conn, logger), nil
}

func newTopicManager(conn ConnInterface, logger logging.Logger) *TopicManager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TopicManager{conn: conn, logger: logger.Named("kafka.topics")}
}

// CreateTopic creates cfg; an existing topic is not an error.
func (m *TopicManager) CreateTopic(cfg TopicConfig) error {
	if cfg.Name == "" {
		return errors.New(errors.ErrCodeValidation, "topic name required")
	}
	if cfg.NumPartitions <= 0 || cfg.ReplicationFactor <= 0 {
		return errors.Newf(errors.ErrCodeValidation, "topic %s: partitions and replication factor must be > 0", cfg.Name)
	}

	kCfg := kafka.TopicConfig{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
	if cfg.Retention > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{
			ConfigName:  "retention.ms",
			ConfigValue: fmt.Sprintf("%d", cfg.Retention.Milliseconds()),
		})
	}

	if err := m.conn.CreateTopics(kCfg); err != nil {
		if stderrors.Is(err, kafka.TopicAlreadyExists) {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeMessagingError, "failed to create topic").WithDetail(cfg.Name)
	}
	m.logger.Info("Topic created", logging.String("topic", cfg.Name))
	return nil
}

// EnsureTopics creates every topic in topics.
func (m *TopicManager) EnsureTopics(topics []TopicConfig) error {
	for _, t := range topics {
		if err := m.CreateTopic(t); err != nil {
			return err
		}
	}
	return nil
}

// TopicExists reports whether name has partitions.
func (m *TopicManager) TopicExists(name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		if stderrors.Is(err, kafka.UnknownTopicOrPartition) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeMessagingError, "failed to read partitions")
	}
	return len(partitions) > 0, nil
}

// Close closes the broker connection.
func (m *TopicManager) Close() error {
	return m.conn.Close()
}

//Personal.AI order the ending
