package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
)

func defaultPolicy() HotspotPolicy {
	return PolicyFromParameters(DefaultParameters())
}

// singleCluster labels every request of ds as cluster 0.
func singleCluster(ds *servicerequest.Dataset) Assignment {
	labels := make([]int, ds.Len())
	return Assignment{Labels: labels, Clusters: 1}
}

func TestSeverityScore(t *testing.T) {
	assert.Equal(t, 5.0, SeverityScore(5, 30))
	assert.Equal(t, 5.0, SeverityScore(5, 10), "spans below a month do not reduce the score")
	assert.Equal(t, 8.4, SeverityScore(4, 90))
	assert.Equal(t, 11.0, SeverityScore(5, 100))
}

func TestHotspotBuilder_ChronicLocationEndToEnd(t *testing.T) {
	ds := dataset(
		req("SR-1", 0, withStreet("100 S LINWOOD AVE")),
		req("SR-2", 20, withStreet("100 S LINWOOD AVE")),
		req("SR-3", 40, withStatus("Closed", 45), withStreet("102 S LINWOOD AVE")),
		req("SR-4", 70, withStreet("102 S LINWOOD AVE")),
		req("SR-5", 100, withStreet("102 S LINWOOD AVE")),
	)

	hs, err := NewHotspotBuilder(defaultPolicy(), 2).Build(context.Background(), ds, singleCluster(ds))
	require.NoError(t, err)
	require.Len(t, hs, 1)

	h := hs[0]
	assert.Equal(t, 0, h.ClusterID)
	assert.Equal(t, 5, h.ReportCount)
	assert.Equal(t, 100, h.SpanDays)
	assert.Equal(t, *at(0), h.FirstReport)
	assert.Equal(t, *at(100), h.LastReport)
	assert.Equal(t, 11.0, h.SeverityScore)
	assert.Equal(t, 2, h.PossibleFailedFixes)
	assert.Equal(t, 2, h.RereportCount())
	assert.True(t, h.IsHighPriority, "two failed fixes make it high priority")
	assert.Equal(t, "SW-Pothole", h.PrimaryType)
	assert.Equal(t, "Patterson Park", h.Neighborhood)
	require.NotNil(t, h.AddressHint)
	assert.Equal(t, "102 S LINWOOD AVE", *h.AddressHint)
	assert.Equal(t, map[string]int{"Open": 4, "Closed": 1}, h.StatusBreakdown)
	require.NotNil(t, h.AvgResolutionDays)
	assert.Equal(t, 5.0, *h.AvgResolutionDays)
	assert.InDelta(t, baseLat, h.Latitude, 1e-9)
	assert.InDelta(t, baseLon, h.Longitude, 1e-9)
	require.Len(t, h.History, 5)
	assert.Equal(t, "SR-1", *h.History[0].ServiceRequestNum)
	assert.True(t, h.History[3].IsRereport)
	assert.True(t, h.History[4].IsRereport)
}

func TestHotspotBuilder_QualificationBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		days  []int
		wants bool
	}{
		{name: "four reports over ninety days", days: []int{0, 30, 60, 90}, wants: true},
		{name: "three reports", days: []int{0, 45, 90}, wants: false},
		{name: "eighty nine days", days: []int{0, 30, 60, 89}, wants: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var recs []servicerequest.ServiceRequest
			for i, d := range tt.days {
				recs = append(recs, req(fmt.Sprintf("SR-%d", i), d))
			}
			ds := dataset(recs...)

			hs, err := NewHotspotBuilder(defaultPolicy(), 1).Build(context.Background(), ds, singleCluster(ds))
			require.NoError(t, err)
			if !tt.wants {
				assert.Empty(t, hs)
				return
			}
			require.Len(t, hs, 1)
			assert.Equal(t, 8.4, hs[0].SeverityScore)
			assert.False(t, hs[0].IsHighPriority)
		})
	}
}

func TestHotspotBuilder_HighPriorityByVolume(t *testing.T) {
	var recs []servicerequest.ServiceRequest
	for i := 0; i < 8; i++ {
		recs = append(recs, req(fmt.Sprintf("SR-%d", i), i*15))
	}
	ds := dataset(recs...)

	hs, err := NewHotspotBuilder(defaultPolicy(), 1).Build(context.Background(), ds, singleCluster(ds))
	require.NoError(t, err)
	require.Len(t, hs, 1)
	assert.Equal(t, 0, hs[0].PossibleFailedFixes)
	assert.True(t, hs[0].IsHighPriority)
}

func TestHotspotBuilder_SortsBySeverityAndSkipsNoise(t *testing.T) {
	var recs []servicerequest.ServiceRequest
	var labels []int
	add := func(label, n, step int) {
		for i := 0; i < n; i++ {
			recs = append(recs, req(fmt.Sprintf("C%d-%d", label, i), i*step))
			labels = append(labels, label)
		}
	}
	add(0, 4, 30)  // 8.4
	add(1, 6, 40)  // span 200
	add(2, 2, 100) // too small
	add(Noise, 5, 30)
	ds := dataset(recs...)

	hs, err := NewHotspotBuilder(defaultPolicy(), 4).Build(context.Background(), ds, Assignment{Labels: labels, Clusters: 3})
	require.NoError(t, err)
	require.Len(t, hs, 2)
	assert.Equal(t, 1, hs[0].ClusterID)
	assert.Equal(t, 0, hs[1].ClusterID)
	assert.Greater(t, hs[0].SeverityScore, hs[1].SeverityScore)
}

func TestHotspotBuilder_WorkerCountDoesNotChangeResult(t *testing.T) {
	var recs []servicerequest.ServiceRequest
	var labels []int
	for c := 0; c < 12; c++ {
		for i := 0; i < 4+c%3; i++ {
			recs = append(recs, req(fmt.Sprintf("C%02d-%d", c, i), i*35, withStatus([]string{"Open", "Closed"}[i%2], i*35+3)))
			labels = append(labels, c)
		}
	}
	ds := dataset(recs...)
	a := Assignment{Labels: labels, Clusters: 12}

	seq, err := NewHotspotBuilder(defaultPolicy(), 1).Build(context.Background(), ds, a)
	require.NoError(t, err)
	par, err := NewHotspotBuilder(defaultPolicy(), 8).Build(context.Background(), ds, a)
	require.NoError(t, err)
	assert.Equal(t, seq, par)
	assert.Len(t, seq, 12)
}

func TestHotspotBuilder_MissingValues(t *testing.T) {
	var recs []servicerequest.ServiceRequest
	for i := 0; i < 4; i++ {
		recs = append(recs, req(fmt.Sprintf("SR-%d", i), i*30, withType(""), withHood("")))
	}
	// Resolved on the day it was opened: a zero median is still reported.
	recs[3].Status = "Closed"
	recs[3].StatusAt = recs[3].CreatedAt
	ds := servicerequest.NewDataset(recs, servicerequest.FieldType|servicerequest.FieldNeighborhood)

	hs, err := NewHotspotBuilder(defaultPolicy(), 1).Build(context.Background(), ds, singleCluster(ds))
	require.NoError(t, err)
	require.Len(t, hs, 1)
	assert.Equal(t, unknownLabel, hs[0].PrimaryType)
	assert.Equal(t, unknownLabel, hs[0].Neighborhood)
	assert.Nil(t, hs[0].AddressHint)
	assert.Empty(t, hs[0].StatusBreakdown, "status column absent")
	require.NotNil(t, hs[0].AvgResolutionDays)
	assert.Equal(t, 0.0, *hs[0].AvgResolutionDays)
}

func TestHotspotBuilder_UndatedClusterIsSkipped(t *testing.T) {
	var recs []servicerequest.ServiceRequest
	for i := 0; i < 5; i++ {
		recs = append(recs, req(fmt.Sprintf("SR-%d", i), 0, withCreated(nil)))
	}
	ds := dataset(recs...)

	hs, err := NewHotspotBuilder(defaultPolicy(), 1).Build(context.Background(), ds, singleCluster(ds))
	require.NoError(t, err)
	assert.Empty(t, hs)
}

func TestHotspotBuilder_CanceledContext(t *testing.T) {
	ds := dataset(req("SR-1", 0), req("SR-2", 100), req("SR-3", 50), req("SR-4", 70))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHotspotBuilder(defaultPolicy(), 2).Build(ctx, ds, singleCluster(ds))
	assert.True(t, errors.Is(err, context.Canceled))
}

//Personal.AI order the ending
