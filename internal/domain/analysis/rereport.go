package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
)

// RereportResult is the timeline of one cluster.
type RereportResult struct {
	History     []ReportHistoryEntry
	FailedFixes int
}

// closureTracker is the fold state of the re-report walk: either no closure
// has been seen (at == nil) or the most recent closure happened at *at.
type closureTracker struct {
	at *time.Time
}

// flags reports whether a request created at created re-occurs within
// windowDays after the tracked closure.
func (c closureTracker) flags(created *time.Time, windowDays int) bool {
	if c.at == nil || created == nil {
		return false
	}
	days := servicerequest.WholeDays(created.Sub(*c.at))
	return days > 0 && days <= windowDays
}

// observe returns the state after r has been emitted.
func (c closureTracker) observe(r *servicerequest.ServiceRequest) closureTracker {
	if r.IsClosed() && r.StatusAt != nil {
		return closureTracker{at: r.StatusAt}
	}
	return c
}

// DetectRereports walks one cluster's requests in creation order and flags
// each request created within windowDays after the most recent earlier
// closure in the same cluster. Requests without a creation timestamp never
// receive a flag, and closures without a status timestamp never start one.
func DetectRereports(members []servicerequest.ServiceRequest, windowDays int) RereportResult {
	ordered := chronological(members)

	res := RereportResult{History: make([]ReportHistoryEntry, 0, len(ordered))}
	state := closureTracker{}
	for _, r := range ordered {
		flagged := state.flags(r.CreatedAt, windowDays)
		if flagged {
			res.FailedFixes++
		}
		res.History = append(res.History, historyEntry(r, flagged))
		state = state.observe(r)
	}
	return res
}

// chronological returns pointers to members sorted by creation time, then
// identifier. Requests without a creation time go last.
func chronological(members []servicerequest.ServiceRequest) []*servicerequest.ServiceRequest {
	out := make([]*servicerequest.ServiceRequest, len(members))
	for i := range members {
		out[i] = &members[i]
	}
	sort.SliceStable(out, func(a, b int) bool {
		ca, cb := out[a].CreatedAt, out[b].CreatedAt
		switch {
		case ca == nil && cb == nil:
			return out[a].ID < out[b].ID
		case ca == nil:
			return false
		case cb == nil:
			return true
		case !ca.Equal(*cb):
			return ca.Before(*cb)
		default:
			return out[a].ID < out[b].ID
		}
	})
	return out
}

func historyEntry(r *servicerequest.ServiceRequest, rereport bool) ReportHistoryEntry {
	e := ReportHistoryEntry{
		Status:     r.Status,
		Type:       r.Type,
		IsRereport: rereport,
	}
	if r.CreatedAt != nil {
		e.Date = stringPtr(r.CreatedAt.Format(HistoryDateLayout))
	}
	if r.ID != "" {
		e.ServiceRequestNum = stringPtr(truncateRunes(r.ID, maxServiceRequestNumLen))
	}
	if d, ok := r.Resolution(); ok {
		days := int(math.Trunc(d))
		e.ResolutionDays = &days
	}
	return e
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

//Personal.AI order the ending
