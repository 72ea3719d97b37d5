package analysis

import (
	"sort"

	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
)

// CategoryCalculator relates re-reports at chronic hotspots to each
// category's whole request volume.
type CategoryCalculator struct {
	categorizer *servicerequest.Categorizer
}

// NewCategoryCalculator uses c to classify request types; nil selects the
// default rules.
func NewCategoryCalculator(c *servicerequest.Categorizer) *CategoryCalculator {
	if c == nil {
		c = servicerequest.NewCategorizer(nil)
	}
	return &CategoryCalculator{categorizer: c}
}

// Calculate returns one stat per category present in ds, by descending
// recurrence percentage, ties by name. The denominator of both percentages
// is the category's total request count, not just its hotspot subset.
func (c *CategoryCalculator) Calculate(ds *servicerequest.Dataset, hotspots []Hotspot) CategoryStats {
	out := CategoryStats{}
	if ds == nil || !ds.Fields.Has(servicerequest.FieldType) {
		return out
	}

	totals := make(map[servicerequest.Category]int)
	for i := range ds.Requests {
		totals[c.categorizer.Categorize(ds.Requests[i].Type)]++
	}

	chronic := make(map[servicerequest.Category]int)
	rereports := make(map[servicerequest.Category]int)
	for i := range hotspots {
		cat := c.categorizer.Categorize(hotspots[i].PrimaryType)
		chronic[cat] += len(hotspots[i].History)
		rereports[cat] += hotspots[i].RereportCount()
	}

	for cat, total := range totals {
		out = append(out, CategoryStat{
			Category:                   cat,
			TotalRequests:              total,
			RequestsAtChronicLocations: chronic[cat],
			Rereports:                  rereports[cat],
			RecurrencePct:              Round(float64(rereports[cat])/float64(total)*100, 1),
			ChronicLocationPct:         Round(float64(chronic[cat])/float64(total)*100, 1),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RecurrencePct != out[j].RecurrencePct {
			return out[i].RecurrencePct > out[j].RecurrencePct
		}
		return out[i].Category < out[j].Category
	})
	return out
}

//Personal.AI order the ending
