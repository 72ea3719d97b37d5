package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/CivicPulse/internal/application/analysis"
	domainanalysis "github.com/turtacn/CivicPulse/internal/domain/analysis"
	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
)

func sampleResult() *analysis.RunResult {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	addr := "100 S Linwood Ave"
	return &analysis.RunResult{
		RunID: "run-1",
		Document: &domainanalysis.Document{
			Summary: domainanalysis.Summary{
				TotalRequests:         12,
				DateRange:             domainanalysis.DateRange{Start: &start, End: &end},
				ChronicHotspots:       2,
				HighPriorityHotspots:  1,
				NeighborhoodsAnalyzed: 3,
				GapNeighborhoods:      1,
			},
			Hotspots: []domainanalysis.Hotspot{
				{ReportCount: 5, SpanDays: 100, PrimaryType: "SW-Pothole", Neighborhood: "Patterson Park", SeverityScore: 42.5, AddressHint: &addr, IsHighPriority: true},
				{ReportCount: 3, SpanDays: 40, PrimaryType: "SW-Dirty Alley", Neighborhood: "Highlandtown", SeverityScore: 12},
			},
			Gaps: []domainanalysis.GapRecord{{Neighborhood: "Canton", WeakSignal: 2, GapScore: 2}},
		},
		Sanitize:   servicerequest.SanitizeReport{Input: 14, Kept: 12, DroppedNoCoords: 1, DroppedDuplicates: 1},
		CacheHit:   true,
		ArchiveKey: "runs/run-1/analysis_results.json",
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	WriteReport(&buf, sampleResult(), 10, true)
	out := buf.String()

	assert.Contains(t, out, "=== CivicPulse analysis run-1 ===")
	assert.Contains(t, out, "12 (2024-01-01 to 2024-04-10)")
	assert.Contains(t, out, "Chronic hotspots:       2 (1 high priority)")
	assert.Contains(t, out, "12 kept of 14 (1 without coordinates, 0 out of bounds, 1 duplicates)")
	assert.Contains(t, out, "Result served from cache")
	assert.Contains(t, out, "Archived as:            runs/run-1/analysis_results.json")
	assert.Contains(t, out, "Top 2 hotspots by severity")
	assert.Contains(t, out, "100 S Linwood Ave")
	assert.Contains(t, out, "Possible reporting gaps")
	assert.NotContains(t, out, "Recurrence by category")
	assert.NotContains(t, out, "\x1b[")
	assert.Equal(t, 1, strings.Count(out, "HIGH"))
}

func TestWriteReport_TopLimit(t *testing.T) {
	var buf bytes.Buffer
	WriteReport(&buf, sampleResult(), 1, true)
	assert.Contains(t, buf.String(), "Top 1 hotspots by severity")
	assert.NotContains(t, buf.String(), "Highlandtown")
}

func TestWriteReport_Empty(t *testing.T) {
	var buf bytes.Buffer
	WriteReport(&buf, nil, 10, true)
	assert.Empty(t, buf.String())

	WriteReport(&buf, &analysis.RunResult{RunID: "run-2", Document: &domainanalysis.Document{}}, 10, true)
	out := buf.String()
	assert.Contains(t, out, "0 (no dates)")
	assert.NotContains(t, out, "hotspots by severity")
	assert.NotContains(t, out, "Result served from cache")
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", truncateString("  abc ", 5))
	assert.Equal(t, "abcde...", truncateString("abcdefgh", 5))
}

//Personal.AI order the ending
