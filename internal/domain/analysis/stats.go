package analysis

import (
	"math"
	"sort"
)

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Median returns the median of values, or false when values is empty. The
// slice is not modified.
func Median(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid], true
	}
	return (s[mid-1] + s[mid]) / 2, true
}

// modeTracker counts string occurrences and reports the most frequent value.
// On a tie the value seen first wins.
type modeTracker struct {
	counts map[string]int
	order  []string
}

func newModeTracker() *modeTracker {
	return &modeTracker{counts: make(map[string]int)}
}

// Add counts v; empty strings are ignored.
func (m *modeTracker) Add(v string) {
	if v == "" {
		return
	}
	if _, ok := m.counts[v]; !ok {
		m.order = append(m.order, v)
	}
	m.counts[v]++
}

// Mode returns the most frequent value, or false if nothing was added.
func (m *modeTracker) Mode() (string, bool) {
	best, bestCount := "", 0
	for _, v := range m.order {
		if c := m.counts[v]; c > bestCount {
			best, bestCount = v, c
		}
	}
	return best, bestCount > 0
}

func floatPtr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }

//Personal.AI order the ending
