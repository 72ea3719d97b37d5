package analysis_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CivicPulse/internal/application/analysis"
	domainanalysis "github.com/turtacn/CivicPulse/internal/domain/analysis"
	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
	"github.com/turtacn/CivicPulse/internal/testutil"
)

func TestInputDigest(t *testing.T) {
	params := domainanalysis.DefaultParameters()
	now := testutil.FixtureNow
	in := analysis.Input{Requests: testutil.ChronicDataset(), Posts: testutil.WeakSignalPosts()}

	base, err := analysis.InputDigest(in, params, now)
	require.NoError(t, err)
	assert.Len(t, base, 64)

	digest := func(in analysis.Input, p domainanalysis.Parameters, at time.Time) string {
		d, err := analysis.InputDigest(in, p, at)
		require.NoError(t, err)
		return d
	}

	t.Run("same day and execution knobs share a digest", func(t *testing.T) {
		assert.Equal(t, base, digest(in, params, now.Add(10*time.Hour)))

		tuned := params
		tuned.Workers = 1
		tuned.UseSpatialIndex = !params.UseSpatialIndex
		assert.Equal(t, base, digest(in, tuned, now))
	})

	t.Run("result-relevant changes alter the digest", func(t *testing.T) {
		assert.NotEqual(t, base, digest(in, params, now.AddDate(0, 0, 1)))

		wider := params
		wider.EpsMeters = 100
		assert.NotEqual(t, base, digest(in, wider, now))

		assert.NotEqual(t, base, digest(analysis.Input{Requests: in.Requests}, params, now))
		assert.NotEqual(t, base, digest(analysis.Input{Requests: in.Requests, Posts: []servicerequest.WeakSignalPost{}}, params, now))

		recs := testutil.ChronicRequests()
		recs[0].Status = servicerequest.StatusClosed
		changed := analysis.Input{Requests: servicerequest.NewDataset(recs, servicerequest.AllFields), Posts: in.Posts}
		assert.NotEqual(t, base, digest(changed, params, now))

		fewerFields := analysis.Input{Requests: servicerequest.NewDataset(testutil.ChronicRequests(), servicerequest.FieldType), Posts: in.Posts}
		assert.NotEqual(t, base, digest(fewerFields, params, now))
	})

	t.Run("unencodable input", func(t *testing.T) {
		recs := testutil.ChronicRequests()
		recs[0].Latitude = math.Inf(1)
		_, err := analysis.InputDigest(analysis.Input{Requests: servicerequest.NewDataset(recs, servicerequest.AllFields)}, params, now)
		assert.Error(t, err)
	})
}

//Personal.AI order the ending
