package analysis

import (
	"context"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
)

// unknownLabel stands in for a missing dominant type or neighborhood.
const unknownLabel = "Unknown"

// HotspotPolicy holds the chronic-qualification and prioritisation rules.
type HotspotPolicy struct {
	MinReports              int
	MinSpanDays             int
	RereportWindowDays      int
	HighPriorityReports     int
	HighPriorityFailedFixes int
}

// PolicyFromParameters extracts the hotspot rules from p.
func PolicyFromParameters(p Parameters) HotspotPolicy {
	return HotspotPolicy{
		MinReports:              p.ChronicMinReports,
		MinSpanDays:             p.ChronicMinSpanDays,
		RereportWindowDays:      p.RereportWindowDays,
		HighPriorityReports:     p.HighPriorityReports,
		HighPriorityFailedFixes: p.HighPriorityFailedFixes,
	}
}

// SeverityScore is count * (1 + ln(max(span/30, 1))) rounded to one decimal.
func SeverityScore(reportCount, spanDays int) float64 {
	months := math.Max(float64(spanDays)/30, 1)
	return Round(float64(reportCount)*(1+math.Log(months)), 1)
}

// HotspotBuilder turns qualifying clusters into Hotspots.
type HotspotBuilder struct {
	policy  HotspotPolicy
	workers int
}

// NewHotspotBuilder returns a builder processing clusters on up to workers
// goroutines; workers <= 1 processes them sequentially.
func NewHotspotBuilder(policy HotspotPolicy, workers int) *HotspotBuilder {
	return &HotspotBuilder{policy: policy, workers: workers}
}

// Build returns the hotspots ordered by descending severity; equal
// severities keep ascending cluster id order. assignment.Labels must be
// index-aligned with ds.Requests.
func (b *HotspotBuilder) Build(ctx context.Context, ds *servicerequest.Dataset, assignment Assignment) ([]Hotspot, error) {
	members := assignment.Members()
	built := make([]*Hotspot, len(members))

	g, gctx := errgroup.WithContext(ctx)
	if b.workers > 1 {
		g.SetLimit(b.workers)
	} else {
		g.SetLimit(1)
	}
	for id, idxs := range members {
		id, idxs := id, idxs
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			recs := make([]servicerequest.ServiceRequest, len(idxs))
			for k, i := range idxs {
				recs[k] = ds.Requests[i]
			}
			built[id] = b.buildOne(id, recs, ds.Fields)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Hotspot, 0, len(built))
	for _, h := range built {
		if h != nil {
			out = append(out, *h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SeverityScore > out[j].SeverityScore
	})
	return out, nil
}

// buildOne returns nil when the cluster does not qualify as chronic.
func (b *HotspotBuilder) buildOne(clusterID int, recs []servicerequest.ServiceRequest, fields servicerequest.FieldSet) *Hotspot {
	count := len(recs)
	if count < b.policy.MinReports {
		return nil
	}

	var first, last time.Time
	seen := false
	for i := range recs {
		c := recs[i].CreatedAt
		if c == nil {
			continue
		}
		if !seen || c.Before(first) {
			first = *c
		}
		if !seen || c.After(last) {
			last = *c
		}
		seen = true
	}
	if !seen {
		return nil
	}
	span := servicerequest.WholeDays(last.Sub(first))
	if span < b.policy.MinSpanDays {
		return nil
	}

	timeline := DetectRereports(recs, b.policy.RereportWindowDays)

	var sumLat, sumLon float64
	types, hoods, streets := newModeTracker(), newModeTracker(), newModeTracker()
	breakdown := make(map[string]int)
	var resolutions []float64
	for _, r := range chronological(recs) {
		sumLat += r.Latitude
		sumLon += r.Longitude
		types.Add(r.Type)
		hoods.Add(r.Neighborhood)
		streets.Add(r.Street)
		if fields.Has(servicerequest.FieldStatus) && r.Status != "" {
			breakdown[r.Status]++
		}
		if r.IsResolved() {
			if d, ok := r.Resolution(); ok {
				resolutions = append(resolutions, d)
			}
		}
	}

	h := &Hotspot{
		ClusterID:           clusterID,
		Latitude:            Round(sumLat/float64(count), 6),
		Longitude:           Round(sumLon/float64(count), 6),
		ReportCount:         count,
		FirstReport:         first,
		LastReport:          last,
		SpanDays:            span,
		PrimaryType:         unknownLabel,
		Neighborhood:        unknownLabel,
		StatusBreakdown:     breakdown,
		SeverityScore:       SeverityScore(count, span),
		PossibleFailedFixes: timeline.FailedFixes,
		History:             timeline.History,
	}
	if t, ok := types.Mode(); ok {
		h.PrimaryType = t
	}
	if n, ok := hoods.Mode(); ok {
		h.Neighborhood = n
	}
	if s, ok := streets.Mode(); ok {
		h.AddressHint = stringPtr(s)
	}
	if m, ok := Median(resolutions); ok {
		h.AvgResolutionDays = floatPtr(Round(m, 1))
	}
	h.IsHighPriority = count >= b.policy.HighPriorityReports ||
		timeline.FailedFixes >= b.policy.HighPriorityFailedFixes
	return h
}

//Personal.AI order the ending
