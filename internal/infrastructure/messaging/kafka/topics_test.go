package kafka

import (
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CivicPulse/internal/application/analysis"
	pkgerrors "github.com/turtacn/CivicPulse/pkg/errors"
)

type mockConn struct {
	created    []kafka.TopicConfig
	createErr  error
	partitions map[string][]kafka.Partition
	readErr    error
}

func (m *mockConn) CreateTopics(topics ...kafka.TopicConfig) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, topics...)
	return nil
}

func (m *mockConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	var out []kafka.Partition
	for _, t := range topics {
		out = append(out, m.partitions[t]...)
	}
	return out, nil
}

func (m *mockConn) Close() error { return nil }

func TestDefaultTopics(t *testing.T) {
	topics := DefaultTopics("civicpulse.analysis.dlq")
	require.Len(t, topics, 3)
	assert.Equal(t, analysis.TopicRunRequested, topics[0].Name)
	assert.Equal(t, analysis.TopicRunCompleted, topics[1].Name)
	assert.Equal(t, "civicpulse.analysis.dlq", topics[2].Name)

	assert.Len(t, DefaultTopics(""), 2)
}

func TestTopicManager_EnsureTopics(t *testing.T) {
	conn := &mockConn{}
	m := newTopicManager(conn, nil)

	require.NoError(t, m.EnsureTopics(DefaultTopics("")))
	require.Len(t, conn.created, 2)
	assert.Equal(t, analysis.TopicRunRequested, conn.created[0].Topic)
	require.Len(t, conn.created[0].ConfigEntries, 1)
	assert.Equal(t, "retention.ms", conn.created[0].ConfigEntries[0].ConfigName)
	assert.Equal(t, "604800000", conn.created[0].ConfigEntries[0].ConfigValue)
}

func TestTopicManager_CreateTopic(t *testing.T) {
	m := newTopicManager(&mockConn{createErr: kafka.TopicAlreadyExists}, nil)
	assert.NoError(t, m.CreateTopic(TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: 1}))

	m = newTopicManager(&mockConn{createErr: errors.New("not controller")}, nil)
	err := m.CreateTopic(TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: 1, Retention: time.Hour})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeMessagingError))

	err = m.CreateTopic(TopicConfig{Name: "t"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))
	err = m.CreateTopic(TopicConfig{NumPartitions: 1, ReplicationFactor: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))
}

func TestTopicManager_TopicExists(t *testing.T) {
	m := newTopicManager(&mockConn{partitions: map[string][]kafka.Partition{"a": {{Topic: "a"}}}}, nil)

	ok, err := m.TopicExists("a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.TopicExists("b")
	require.NoError(t, err)
	assert.False(t, ok)

	m = newTopicManager(&mockConn{readErr: kafka.UnknownTopicOrPartition}, nil)
	ok, err = m.TopicExists("c")
	require.NoError(t, err)
	assert.False(t, ok)
}

//Personal.AI order the ending
