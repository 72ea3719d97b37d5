// Package csvsource reads service-request and weak-signal snapshots from CSV
// exports. Headers are matched case-insensitively and common aliases from
// the city's open-data layers are accepted. Unparseable cell values become
// "not present" rather than failing the file.
package csvsource

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

// Canonical request columns.
const (
	ColID             = "servicerequestnum"
	ColRecordID       = "srrecordid"
	ColType           = "srtype"
	ColStreet         = "street"
	ColNeighborhood   = "neighborhood"
	ColLatitude       = "latitude"
	ColLongitude      = "longitude"
	ColCreated        = "createddate"
	ColStatus         = "srstatus"
	ColStatusDate     = "statusdate"
	ColResolutionDays = "resolution_days"
)

// Canonical post columns.
const (
	ColPostID        = "post_id"
	ColPostCategory  = "category"
	ColPostTitle     = "title"
	ColPostText      = "text"
	ColPostCreated   = "created_utc"
	ColLocationHints = "location_hints"
)

// requestAliases maps lower-cased header names to canonical columns. A
// canonical name present in the header always wins over its aliases.
var requestAliases = map[string]string{
	"streetaddress": ColStreet,
	"address":       ColStreet,
	"sr_record_id":  ColRecordID,
	"lat":           ColLatitude,
	"lon":           ColLongitude,
	"lng":           ColLongitude,
}

// optionalFields ties optional columns to the FieldSet bit they set.
var optionalFields = []struct {
	col   string
	field servicerequest.FieldSet
}{
	{ColType, servicerequest.FieldType},
	{ColStreet, servicerequest.FieldStreet},
	{ColNeighborhood, servicerequest.FieldNeighborhood},
	{ColStatus, servicerequest.FieldStatus},
	{ColStatusDate, servicerequest.FieldStatusDate},
	{ColResolutionDays, servicerequest.FieldResolution},
}

// header resolves canonical column names to record indexes.
type header map[string]int

func parseHeader(names []string, aliases map[string]string) header {
	h := make(header, len(names))
	for i, n := range names {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(n, "\ufeff")))
		if _, dup := h[key]; !dup {
			h[key] = i
		}
	}
	for alias, canonical := range aliases {
		if idx, ok := h[alias]; ok {
			if _, taken := h[canonical]; !taken {
				h[canonical] = idx
			}
		}
	}
	return h
}

func (h header) has(col string) bool {
	_, ok := h[col]
	return ok
}

// get returns the trimmed cell, or "" when the column or cell is missing.
func (h header) get(rec []string, col string) string {
	idx, ok := h[col]
	if !ok || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return cr
}

// readHeader returns the first record; an empty stream is an empty dataset.
func readHeader(cr *csv.Reader, what string) ([]string, error) {
	rec, err := cr.Read()
	if err == io.EOF {
		return nil, errors.Newf(errors.ErrCodeEmptyDataset, "%s file is empty", what)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMalformedInput, "read "+what+" header")
	}
	return append([]string(nil), rec...), nil
}

// ReadRequests parses a service-request CSV. The latitude and longitude
// columns are required; every other column is optional and its presence is
// recorded in the dataset's FieldSet.
func ReadRequests(r io.Reader) (*servicerequest.Dataset, error) {
	cr := newCSVReader(r)
	names, err := readHeader(cr, "service request")
	if err != nil {
		return nil, err
	}
	h := parseHeader(names, requestAliases)
	for _, col := range []string{ColLatitude, ColLongitude} {
		if !h.has(col) {
			return nil, errors.Newf(errors.ErrCodeMissingColumn, "service request file has no %q column", col)
		}
	}

	var fields servicerequest.FieldSet
	for _, f := range optionalFields {
		if h.has(f.col) {
			fields |= f.field
		}
	}

	var out []servicerequest.ServiceRequest
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeMalformedInput, "read service request row")
		}
		out = append(out, requestFromRecord(h, rec))
	}
	return servicerequest.NewDataset(out, fields), nil
}

func requestFromRecord(h header, rec []string) servicerequest.ServiceRequest {
	id := h.get(rec, ColID)
	if id == "" {
		id = h.get(rec, ColRecordID)
	}
	r := servicerequest.ServiceRequest{
		ID:           id,
		Type:         h.get(rec, ColType),
		Street:       nullString(h.get(rec, ColStreet)),
		Neighborhood: nullString(h.get(rec, ColNeighborhood)),
		Latitude:     parseFloat(h.get(rec, ColLatitude)),
		Longitude:    parseFloat(h.get(rec, ColLongitude)),
		CreatedAt:    ParseTimestamp(h.get(rec, ColCreated)),
		Status:       h.get(rec, ColStatus),
		StatusAt:     ParseTimestamp(h.get(rec, ColStatusDate)),
	}
	if v := h.get(rec, ColResolutionDays); v != "" {
		if d := parseFloat(v); !math.IsNaN(d) && !math.IsInf(d, 0) {
			r.ResolutionDays = &d
		}
	}
	return r
}

// ReadPosts parses a weak-signal CSV. Only the location_hints column is
// required.
func ReadPosts(r io.Reader) ([]servicerequest.WeakSignalPost, error) {
	cr := newCSVReader(r)
	names, err := readHeader(cr, "weak-signal")
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeEmptyDataset) {
			return []servicerequest.WeakSignalPost{}, nil
		}
		return nil, err
	}
	h := parseHeader(names, nil)
	if !h.has(ColLocationHints) {
		return nil, errors.Newf(errors.ErrCodeMissingColumn, "weak-signal file has no %q column", ColLocationHints)
	}

	out := []servicerequest.WeakSignalPost{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeMalformedInput, "read weak-signal row")
		}
		out = append(out, servicerequest.WeakSignalPost{
			ID:            h.get(rec, ColPostID),
			Category:      h.get(rec, ColPostCategory),
			Title:         h.get(rec, ColPostTitle),
			Text:          h.get(rec, ColPostText),
			CreatedAt:     ParseTimestamp(h.get(rec, ColPostCreated)),
			LocationHints: servicerequest.ParseLocationHints(h.get(rec, ColLocationHints)),
		})
	}
	return out, nil
}

// ParseTimestamp accepts ISO 8601, common US layouts and Unix epochs of at
// least ten digits in seconds or milliseconds. Zone-less values are UTC. Empty and null markers
// return nil, as do values that do not parse.
func ParseTimestamp(s string) *time.Time {
	if isNull(s) {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && len(s) >= 10 {
		var t time.Time
		if len(strings.TrimPrefix(s, "-")) >= 12 {
			t = time.UnixMilli(n).UTC()
		} else {
			t = time.Unix(n, 0).UTC()
		}
		return &t
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func parseFloat(s string) float64 {
	if isNull(s) {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// nullString maps the literal null markers pandas writes to "".
func nullString(s string) string {
	if isNull(s) {
		return ""
	}
	return s
}

func isNull(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "nat", "none", "null":
		return true
	}
	return false
}

//Personal.AI order the ending
