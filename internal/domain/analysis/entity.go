package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
)

// HistoryDateLayout is the layout of ReportHistoryEntry.Date.
const HistoryDateLayout = "2006-01-02"

// maxServiceRequestNumLen bounds ReportHistoryEntry.ServiceRequestNum.
const maxServiceRequestNumLen = 20

// GapNote is attached to every GapRecord.
const GapNote = "High social signal, low 311 activity — possible reporting barrier"

// ReportHistoryEntry is one request's place in a hotspot timeline.
type ReportHistoryEntry struct {
	Date              *string `json:"date"`
	Status            string  `json:"status"`
	Type              string  `json:"srtype"`
	ServiceRequestNum *string `json:"sr_num"`
	ResolutionDays    *int    `json:"resolution_days"`
	IsRereport        bool    `json:"is_rereport"`
}

// Hotspot is a chronic cluster of reports. It is never modified after the
// builder returns it.
type Hotspot struct {
	ClusterID           int                  `json:"cluster_id"`
	Latitude            float64              `json:"latitude"`
	Longitude           float64              `json:"longitude"`
	ReportCount         int                  `json:"report_count"`
	FirstReport         time.Time            `json:"first_report"`
	LastReport          time.Time            `json:"last_report"`
	SpanDays            int                  `json:"span_days"`
	PrimaryType         string               `json:"primary_type"`
	Neighborhood        string               `json:"neighborhood"`
	StatusBreakdown     map[string]int       `json:"status_breakdown"`
	AvgResolutionDays   *float64             `json:"avg_resolution_days"`
	SeverityScore       float64              `json:"severity_score"`
	PossibleFailedFixes int                  `json:"possible_failed_fixes"`
	AddressHint         *string              `json:"address_hint"`
	IsHighPriority      bool                 `json:"is_high_priority"`
	History             []ReportHistoryEntry `json:"history"`
}

// RereportCount counts flagged history entries.
func (h *Hotspot) RereportCount() int {
	n := 0
	for _, e := range h.History {
		if e.IsRereport {
			n++
		}
	}
	return n
}

// NeighborhoodSummary rolls up every request of one neighborhood.
type NeighborhoodSummary struct {
	TotalReports      int            `json:"total_reports"`
	TypeBreakdown     map[string]int `json:"type_breakdown"`
	ResolutionRate    *float64       `json:"resolution_rate"`
	AvgResolutionDays *float64       `json:"avg_resolution_days"`
	RecentReports     int            `json:"recent_90_days"`
	PriorReports      int            `json:"prior_90_days"`
	TrendPct          *float64       `json:"trend_pct"`
}

// GapRecord flags a neighborhood whose social mentions outpace its 311
// volume.
type GapRecord struct {
	Neighborhood    string  `json:"neighborhood"`
	WeakSignal      int     `json:"reddit_signal"`
	OfficialReports int     `json:"311_reports"`
	GapScore        float64 `json:"gap_score"`
	Note            string  `json:"note"`
}

// CategoryStat aggregates recurrence for one request category.
type CategoryStat struct {
	Category                   servicerequest.Category `json:"-"`
	TotalRequests              int                     `json:"total_requests"`
	RequestsAtChronicLocations int                     `json:"requests_at_chronic_locations"`
	Rereports                  int                     `json:"rereports"`
	RecurrencePct              float64                 `json:"recurrence_pct"`
	ChronicLocationPct         float64                 `json:"chronic_location_pct"`
}

// CategoryStats is an ordered list that serializes as a JSON object keyed by
// category name, keys in list order.
type CategoryStats []CategoryStat

// Get returns the stat for c.
func (cs CategoryStats) Get(c servicerequest.Category) (CategoryStat, bool) {
	for _, s := range cs {
		if s.Category == c {
			return s, true
		}
	}
	return CategoryStat{}, false
}

// MarshalJSON writes the stats as an ordered object.
func (cs CategoryStats) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range cs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(s.Category))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping its key order.
func (cs *CategoryStats) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*cs = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("category_stats: expected object, got %v", tok)
	}
	out := CategoryStats{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("category_stats: expected key, got %v", keyTok)
		}
		var s CategoryStat
		if err := dec.Decode(&s); err != nil {
			return fmt.Errorf("category_stats[%s]: %w", key, err)
		}
		s.Category = servicerequest.Category(key)
		out = append(out, s)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*cs = out
	return nil
}

// DateRange is the span of creation timestamps in the input.
type DateRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// Summary is the document header.
type Summary struct {
	RunID                 string    `json:"run_id,omitempty"`
	TotalRequests         int       `json:"total_requests"`
	DateRange             DateRange `json:"date_range"`
	ChronicHotspots       int       `json:"chronic_hotspots"`
	HighPriorityHotspots  int       `json:"high_priority_hotspots"`
	NeighborhoodsAnalyzed int       `json:"neighborhoods_analyzed"`
	GapNeighborhoods      int       `json:"gap_neighborhoods"`
	GeneratedAt           time.Time `json:"generated_at"`
}

// Document is the complete output of one analysis run.
type Document struct {
	Summary       Summary                        `json:"summary"`
	Hotspots      []Hotspot                      `json:"hotspots"`
	Neighborhoods map[string]NeighborhoodSummary `json:"neighborhoods"`
	Gaps          []GapRecord                    `json:"gaps"`
	CategoryStats CategoryStats                  `json:"category_stats"`
}

// Normalize replaces nil collections with empty ones so they serialize as
// [] and {} instead of null.
func (d *Document) Normalize() {
	if d.Hotspots == nil {
		d.Hotspots = []Hotspot{}
	}
	for i := range d.Hotspots {
		if d.Hotspots[i].History == nil {
			d.Hotspots[i].History = []ReportHistoryEntry{}
		}
		if d.Hotspots[i].StatusBreakdown == nil {
			d.Hotspots[i].StatusBreakdown = map[string]int{}
		}
	}
	if d.Neighborhoods == nil {
		d.Neighborhoods = map[string]NeighborhoodSummary{}
	}
	if d.Gaps == nil {
		d.Gaps = []GapRecord{}
	}
	if d.CategoryStats == nil {
		d.CategoryStats = CategoryStats{}
	}
}

// TopHotspots returns at most n hotspots in severity order.
func (d *Document) TopHotspots(n int) []Hotspot {
	if n < 0 || n >= len(d.Hotspots) {
		return d.Hotspots
	}
	return d.Hotspots[:n]
}

//Personal.AI order the ending
