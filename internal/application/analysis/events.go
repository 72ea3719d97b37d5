package analysis

import (
	"encoding/json"
	"time"

	"github.com/turtacn/CivicPulse/pkg/errors"
)

// Topics carrying run events.
const (
	TopicRunRequested = "civicpulse.analysis.requested"
	TopicRunCompleted = "civicpulse.analysis.completed"
)

// Run outcomes reported in RunCompleted.Status.
const (
	RunStatusSucceeded = "succeeded"
	RunStatusRejected  = "rejected"
	RunStatusFailed    = "failed"
)

// RunRequested asks a worker to run an analysis.
type RunRequested struct {
	RunID       string    `json:"run_id"`
	Source      string    `json:"source,omitempty"`
	NoCache     bool      `json:"no_cache,omitempty"`
	Archive     bool      `json:"archive"`
	TriggeredBy string    `json:"triggered_by"`
	RequestedAt time.Time `json:"requested_at"`
}

// RunCompleted reports the outcome of a run.
type RunCompleted struct {
	RunID                string    `json:"run_id"`
	Status               string    `json:"status"`
	ErrorCode            string    `json:"error_code,omitempty"`
	Error                string    `json:"error,omitempty"`
	Digest               string    `json:"digest,omitempty"`
	CacheHit             bool      `json:"cache_hit"`
	ArchiveKey           string    `json:"archive_key,omitempty"`
	TotalRequests        int       `json:"total_requests"`
	ChronicHotspots      int       `json:"chronic_hotspots"`
	HighPriorityHotspots int       `json:"high_priority_hotspots"`
	GapNeighborhoods     int       `json:"gap_neighborhoods"`
	CompletedAt          time.Time `json:"completed_at"`
}

// DecodeRunRequested parses a RunRequested payload.
func DecodeRunRequested(data []byte) (RunRequested, error) {
	var req RunRequested
	if err := json.Unmarshal(data, &req); err != nil {
		return req, errors.Wrap(err, errors.ErrCodeMalformedInput, "malformed run request")
	}
	return req, nil
}

// completedEvent summarises a run outcome; res may be nil on failure.
func completedEvent(runID string, res *RunResult, runErr error, at time.Time) RunCompleted {
	evt := RunCompleted{RunID: runID, Status: RunStatusSucceeded, CompletedAt: at}
	if runErr != nil {
		evt.Status = RunStatusFailed
		if errors.IsInputError(runErr) {
			evt.Status = RunStatusRejected
		}
		evt.ErrorCode = errors.GetCode(runErr).String()
		evt.Error = runErr.Error()
	}
	if res != nil {
		evt.Digest = res.Digest
		evt.CacheHit = res.CacheHit
		evt.ArchiveKey = res.ArchiveKey
		if res.Document != nil {
			s := res.Document.Summary
			evt.TotalRequests = s.TotalRequests
			evt.ChronicHotspots = s.ChronicHotspots
			evt.HighPriorityHotspots = s.HighPriorityHotspots
			evt.GapNeighborhoods = s.GapNeighborhoods
		}
	}
	return evt
}

//Personal.AI order the ending
