package servicerequest

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BoundingBox is an inclusive latitude/longitude rectangle.
type BoundingBox struct {
	MinLat float64 `mapstructure:"min_lat" yaml:"min_lat" json:"min_lat"`
	MaxLat float64 `mapstructure:"max_lat" yaml:"max_lat" json:"max_lat"`
	MinLon float64 `mapstructure:"min_lon" yaml:"min_lon" json:"min_lon"`
	MaxLon float64 `mapstructure:"max_lon" yaml:"max_lon" json:"max_lon"`
}

// BaltimoreBoundingBox covers Baltimore City.
var BaltimoreBoundingBox = BoundingBox{MinLat: 39.1, MaxLat: 39.5, MinLon: -76.9, MaxLon: -76.4}

// IsZero reports whether the box is unset.
func (b BoundingBox) IsZero() bool {
	return b == BoundingBox{}
}

// Valid reports whether the box has positive extent in both axes.
func (b BoundingBox) Valid() bool {
	return b.MinLat < b.MaxLat && b.MinLon < b.MaxLon
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// SanitizeReport summarises what Sanitize removed.
type SanitizeReport struct {
	Input              int `json:"input"`
	Kept               int `json:"kept"`
	DroppedNoCoords    int `json:"dropped_no_coordinates"`
	DroppedOutOfBounds int `json:"dropped_out_of_bounds"`
	DroppedDuplicates  int `json:"dropped_duplicates"`
}

// SanitizeOptions controls Sanitize.
type SanitizeOptions struct {
	// Bounds drops records outside the box; a zero box disables the check.
	Bounds BoundingBox
}

// Sanitize applies the cleaning rules every source goes through before
// analysis: records without finite coordinates or outside the bounding box
// are dropped, duplicate identifiers keep their first occurrence,
// neighborhood names are trimmed and title-cased, and missing resolution
// durations are derived from the two timestamps. The input is not modified.
func Sanitize(ds *Dataset, opts SanitizeOptions) (*Dataset, SanitizeReport) {
	report := SanitizeReport{Input: ds.Len()}
	if ds == nil {
		return NewDataset(nil, 0), report
	}

	title := cases.Title(language.English)
	seen := make(map[string]struct{}, len(ds.Requests))
	out := make([]ServiceRequest, 0, len(ds.Requests))

	for _, r := range ds.Requests {
		if !r.HasCoordinates() {
			report.DroppedNoCoords++
			continue
		}
		if !opts.Bounds.IsZero() && !opts.Bounds.Contains(r.Latitude, r.Longitude) {
			report.DroppedOutOfBounds++
			continue
		}
		if r.ID != "" {
			if _, dup := seen[r.ID]; dup {
				report.DroppedDuplicates++
				continue
			}
			seen[r.ID] = struct{}{}
		}

		r.Neighborhood = NormalizeNeighborhoodWith(title, r.Neighborhood)
		if r.ResolutionDays == nil && r.CreatedAt != nil && r.StatusAt != nil {
			days := float64(WholeDays(r.StatusAt.Sub(*r.CreatedAt)))
			r.ResolutionDays = &days
		}
		out = append(out, r)
	}

	report.Kept = len(out)
	fields := ds.Fields
	if fields.Has(FieldStatusDate) {
		fields |= FieldResolution
	}
	return NewDataset(out, fields), report
}

// NormalizeNeighborhood trims and title-cases a neighborhood name.
func NormalizeNeighborhood(name string) string {
	return NormalizeNeighborhoodWith(cases.Title(language.English), name)
}

// NormalizeNeighborhoodWith normalises using a caller-owned Caser, which is
// not safe for concurrent use.
func NormalizeNeighborhoodWith(title cases.Caser, name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	return title.String(name)
}

//Personal.AI order the ending
