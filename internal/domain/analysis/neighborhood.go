package analysis

import (
	"time"

	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
)

// NeighborhoodAggregator rolls requests up by neighborhood name.
type NeighborhoodAggregator struct {
	window time.Duration
}

// NewNeighborhoodAggregator compares two consecutive windows of windowDays
// each, the most recent one ending at the run time.
func NewNeighborhoodAggregator(windowDays int) *NeighborhoodAggregator {
	return &NeighborhoodAggregator{window: time.Duration(windowDays) * 24 * time.Hour}
}

type hoodAccumulator struct {
	total       int
	types       map[string]int
	resolved    int
	resolutions []float64
	recent      int
	prior       int
}

// Aggregate summarises every request with a non-empty neighborhood. The
// recent and prior windows are measured back from now, so identical input
// can yield different trends on different days.
func (a *NeighborhoodAggregator) Aggregate(ds *servicerequest.Dataset, now time.Time) map[string]NeighborhoodSummary {
	out := make(map[string]NeighborhoodSummary)
	if ds == nil || !ds.Fields.Has(servicerequest.FieldNeighborhood) {
		return out
	}

	recentCutoff := now.Add(-a.window)
	priorCutoff := now.Add(-2 * a.window)
	hasStatus := ds.Fields.Has(servicerequest.FieldStatus)

	acc := make(map[string]*hoodAccumulator)
	for i := range ds.Requests {
		r := &ds.Requests[i]
		if r.Neighborhood == "" {
			continue
		}
		h, ok := acc[r.Neighborhood]
		if !ok {
			h = &hoodAccumulator{types: make(map[string]int)}
			acc[r.Neighborhood] = h
		}
		h.total++
		if r.Type != "" {
			h.types[r.Type]++
		}
		if r.IsResolved() {
			h.resolved++
			if d, ok := r.Resolution(); ok {
				h.resolutions = append(h.resolutions, d)
			}
		}
		if c := r.CreatedAt; c != nil {
			switch {
			case !c.Before(recentCutoff):
				h.recent++
			case !c.Before(priorCutoff):
				h.prior++
			}
		}
	}

	for name, h := range acc {
		s := NeighborhoodSummary{
			TotalReports:  h.total,
			TypeBreakdown: h.types,
			RecentReports: h.recent,
			PriorReports:  h.prior,
			TrendPct:      trendPct(h.recent, h.prior),
		}
		if hasStatus {
			s.ResolutionRate = floatPtr(Round(float64(h.resolved)/float64(h.total)*100, 1))
		}
		if m, ok := Median(h.resolutions); ok {
			s.AvgResolutionDays = floatPtr(Round(m, 1))
		}
		out[name] = s
	}
	return out
}

// trendPct is the percentage change from prior to recent: 100 when only the
// recent window has reports and undefined when both are empty.
func trendPct(recent, prior int) *float64 {
	switch {
	case prior > 0:
		return floatPtr(Round(float64(recent-prior)/float64(prior)*100, 1))
	case recent > 0:
		return floatPtr(100.0)
	default:
		return nil
	}
}

//Personal.AI order the ending
