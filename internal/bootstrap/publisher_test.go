package bootstrap

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/CivicPulse/internal/application/analysis"
)

type recordingPublisher struct {
	events []analysis.RunCompleted
	err    error
}

func (r *recordingPublisher) PublishRunCompleted(_ context.Context, evt analysis.RunCompleted) error {
	r.events = append(r.events, evt)
	return r.err
}

func TestPublishers(t *testing.T) {
	first := &recordingPublisher{err: stderrors.New("bus down")}
	second := &recordingPublisher{}
	evt := analysis.RunCompleted{RunID: "run-1"}

	err := Publishers{first, second}.PublishRunCompleted(context.Background(), evt)
	assert.ErrorIs(t, err, first.err)
	assert.Equal(t, []analysis.RunCompleted{evt}, first.events)
	assert.Equal(t, []analysis.RunCompleted{evt}, second.events)

	assert.NoError(t, Publishers{second}.PublishRunCompleted(context.Background(), evt))
	assert.NoError(t, Publishers(nil).PublishRunCompleted(context.Background(), evt))
}

//Personal.AI order the ending
