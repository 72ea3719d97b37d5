package bootstrap

import (
	"context"
	stderrors "errors"

	"github.com/turtacn/CivicPulse/internal/application/analysis"
)

// Publishers announces a finished run through every member. All members are
// tried; their errors are joined.
type Publishers []analysis.EventPublisher

var _ analysis.EventPublisher = Publishers(nil)

// PublishRunCompleted implements analysis.EventPublisher.
func (p Publishers) PublishRunCompleted(ctx context.Context, evt analysis.RunCompleted) error {
	var errs []error
	for _, pub := range p {
		if err := pub.PublishRunCompleted(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

//Personal.AI order the ending
