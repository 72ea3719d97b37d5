package analysis

import (
	"sort"
	"strings"

	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
)

// GapAnalyzer correlates social mentions with official report volume.
type GapAnalyzer struct {
	minSignal    int
	meanFraction float64
}

// NewGapAnalyzer flags neighborhoods with at least minSignal mentions and
// fewer official reports than meanFraction times the mean.
func NewGapAnalyzer(minSignal int, meanFraction float64) *GapAnalyzer {
	return &GapAnalyzer{minSignal: minSignal, meanFraction: meanFraction}
}

type knownHood struct {
	name  string
	lower string
}

// Analyze returns the gap neighborhoods by descending gap score, ties by
// name. A nil or empty post set yields an empty result.
func (g *GapAnalyzer) Analyze(ds *servicerequest.Dataset, posts []servicerequest.WeakSignalPost) []GapRecord {
	out := []GapRecord{}
	if len(posts) == 0 || ds == nil {
		return out
	}

	official := make(map[string]int)
	for i := range ds.Requests {
		if n := ds.Requests[i].Neighborhood; n != "" {
			official[n]++
		}
	}
	if len(official) == 0 {
		return out
	}

	hoods := make([]knownHood, 0, len(official))
	total := 0
	for name, c := range official {
		hoods = append(hoods, knownHood{name: name, lower: strings.ToLower(name)})
		total += c
	}
	mean := float64(total) / float64(len(official))

	signals := make(map[string]int)
	for _, p := range posts {
		for _, hint := range p.LocationHints {
			h := strings.ToLower(strings.TrimSpace(hint))
			if h == "" {
				continue
			}
			for _, n := range hoods {
				if strings.Contains(h, n.lower) || strings.Contains(n.lower, h) {
					signals[n.name]++
				}
			}
		}
	}

	for name, weak := range signals {
		if weak < g.minSignal {
			continue
		}
		count := official[name]
		if float64(count) >= mean*g.meanFraction {
			continue
		}
		denom := count
		if denom < 1 {
			denom = 1
		}
		out = append(out, GapRecord{
			Neighborhood:    name,
			WeakSignal:      weak,
			OfficialReports: count,
			GapScore:        Round(float64(weak)/float64(denom), 2),
			Note:            GapNote,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GapScore != out[j].GapScore {
			return out[i].GapScore > out[j].GapScore
		}
		return out[i].Neighborhood < out[j].Neighborhood
	})
	return out
}

//Personal.AI order the ending
