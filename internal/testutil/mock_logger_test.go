package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/internal/testutil"
)

func TestMockLogger(t *testing.T) {
	logger := testutil.NewMockLogger()

	logger.Info("test info", logging.String("key", "value"))

	messages := logger.GetMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "info", messages[0].Level)
	assert.Equal(t, "test info", messages[0].Message)

	logger.Clear()
	assert.Len(t, logger.GetMessages(), 0)

	logger.Error("test error")
	assert.True(t, logger.HasMessage("error", "test error"))
	assert.False(t, logger.HasMessage("info", "test info"))
}

func TestMockLogger_DerivedLoggersShareRecording(t *testing.T) {
	root := testutil.NewMockLogger()
	child := root.Named("engine").Named("hotspots").With(logging.String("run_id", "r-1"))

	child.Debug("stage finished", logging.Int("results", 3))

	msg, ok := root.Find("debug", "stage finished")
	require.True(t, ok)
	assert.Equal(t, "engine.hotspots", msg.Logger)
	v, ok := msg.Field("run_id")
	require.True(t, ok)
	assert.Equal(t, "r-1", v)
	v, _ = msg.Field("results")
	assert.Equal(t, 3, v)

	_, ok = msg.Field("missing")
	assert.False(t, ok)
}

//Personal.AI order the ending
