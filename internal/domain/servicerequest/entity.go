// Package servicerequest defines the immutable input records of an analysis
// run: municipal 311 service requests and the optional weak-signal social
// posts, together with their sanitation and categorisation rules.
package servicerequest

import (
	"math"
	"strings"
	"time"
)

// StatusClosed is the exact status value the city uses for a resolved request.
const StatusClosed = "Closed"

// ServiceRequest is one cleaned 311 record. Optional values are pointers;
// nil means the source did not carry a usable value.
type ServiceRequest struct {
	ID             string     `json:"servicerequestnum"`
	Type           string     `json:"srtype"`
	Street         string     `json:"street,omitempty"`
	Neighborhood   string     `json:"neighborhood,omitempty"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	CreatedAt      *time.Time `json:"createddate,omitempty"`
	Status         string     `json:"srstatus"`
	StatusAt       *time.Time `json:"statusdate,omitempty"`
	ResolutionDays *float64   `json:"resolution_days,omitempty"`
}

// IsClosed reports whether the status denotes any kind of closure
// ("Closed", "Closed (Duplicate)", "CLOSED - Transferred", ...).
func (r *ServiceRequest) IsClosed() bool {
	return strings.Contains(strings.ToLower(r.Status), "closed")
}

// IsResolved reports whether the status is exactly "Closed". Resolution
// rates and resolution-time medians only count these.
func (r *ServiceRequest) IsResolved() bool {
	return r.Status == StatusClosed
}

// HasCoordinates reports whether both coordinates are finite numbers.
func (r *ServiceRequest) HasCoordinates() bool {
	return isFinite(r.Latitude) && isFinite(r.Longitude)
}

// Resolution returns the resolution duration in days, derived from the two
// timestamps when the source did not provide one.
func (r *ServiceRequest) Resolution() (float64, bool) {
	if r.ResolutionDays != nil && isFinite(*r.ResolutionDays) {
		return *r.ResolutionDays, true
	}
	if r.CreatedAt == nil || r.StatusAt == nil {
		return 0, false
	}
	return float64(WholeDays(r.StatusAt.Sub(*r.CreatedAt))), true
}

// WholeDays floors a duration to whole days. Negative durations floor
// towards minus infinity, so -1h is -1 day.
func WholeDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ─────────────────────────────────────────────────────────────────────────────
// Dataset
// ─────────────────────────────────────────────────────────────────────────────

// FieldSet records which optional columns the source carried.
type FieldSet uint8

const (
	FieldType FieldSet = 1 << iota
	FieldStreet
	FieldNeighborhood
	FieldStatus
	FieldStatusDate
	FieldResolution
)

// AllFields is the FieldSet of a source carrying every optional column.
const AllFields = FieldType | FieldStreet | FieldNeighborhood | FieldStatus | FieldStatusDate | FieldResolution

// Has reports whether every field in f is present.
func (s FieldSet) Has(f FieldSet) bool { return s&f == f }

// Names lists the present fields by column name.
func (s FieldSet) Names() []string {
	var out []string
	for _, c := range []struct {
		f    FieldSet
		name string
	}{
		{FieldType, "srtype"},
		{FieldStreet, "street"},
		{FieldNeighborhood, "neighborhood"},
		{FieldStatus, "srstatus"},
		{FieldStatusDate, "statusdate"},
		{FieldResolution, "resolution_days"},
	} {
		if s.Has(c.f) {
			out = append(out, c.name)
		}
	}
	return out
}

// Dataset is an immutable snapshot of service requests for one run.
type Dataset struct {
	Requests []ServiceRequest `json:"requests"`
	Fields   FieldSet         `json:"fields"`
}

// NewDataset wraps records with the given column presence.
func NewDataset(records []ServiceRequest, fields FieldSet) *Dataset {
	return &Dataset{Requests: records, Fields: fields}
}

// Len returns the number of records; nil-safe.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Requests)
}

// DateRange returns the earliest and latest creation timestamps. ok is false
// when no record has a creation timestamp.
func (d *Dataset) DateRange() (start, end time.Time, ok bool) {
	if d == nil {
		return
	}
	for i := range d.Requests {
		c := d.Requests[i].CreatedAt
		if c == nil {
			continue
		}
		if !ok || c.Before(start) {
			start = *c
		}
		if !ok || c.After(end) {
			end = *c
		}
		ok = true
	}
	return
}

// CountWithCoordinates returns how many records have finite coordinates.
func (d *Dataset) CountWithCoordinates() int {
	if d == nil {
		return 0
	}
	n := 0
	for i := range d.Requests {
		if d.Requests[i].HasCoordinates() {
			n++
		}
	}
	return n
}

//Personal.AI order the ending
