package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/turtacn/CivicPulse/internal/application/analysis"
	domainanalysis "github.com/turtacn/CivicPulse/internal/domain/analysis"
)

const dateLayout = "2006-01-02"

// reportPalette colours the console report.
type reportPalette struct {
	title *color.Color
	high  *color.Color
	warn  *color.Color
	dim   *color.Color
}

func newReportPalette(noColor bool) reportPalette {
	p := reportPalette{
		title: color.New(color.Bold),
		high:  color.New(color.FgRed, color.Bold),
		warn:  color.New(color.FgYellow),
		dim:   color.New(color.Faint),
	}
	if noColor {
		for _, c := range []*color.Color{p.title, p.high, p.warn, p.dim} {
			c.DisableColor()
		}
	}
	return p
}

// WriteReport prints the run header, the top hotspots, the category
// recurrence table and any gap neighborhoods.
func WriteReport(w io.Writer, res *analysis.RunResult, top int, noColor bool) {
	if res == nil || res.Document == nil {
		return
	}
	p := newReportPalette(noColor)
	doc := res.Document
	s := doc.Summary

	fmt.Fprintln(w, p.title.Sprintf("=== CivicPulse analysis %s ===", res.RunID))
	fmt.Fprintf(w, "Requests analyzed:      %d (%s)\n", s.TotalRequests, formatDateRange(s.DateRange))
	fmt.Fprintf(w, "Chronic hotspots:       %d (%s high priority)\n",
		s.ChronicHotspots, p.high.Sprint(s.HighPriorityHotspots))
	fmt.Fprintf(w, "Neighborhoods analyzed: %d\n", s.NeighborhoodsAnalyzed)
	fmt.Fprintf(w, "Gap neighborhoods:      %d\n", s.GapNeighborhoods)

	rep := res.Sanitize
	fmt.Fprintf(w, "Input rows:             %d kept of %d (%d without coordinates, %d out of bounds, %d duplicates)\n",
		rep.Kept, rep.Input, rep.DroppedNoCoords, rep.DroppedOutOfBounds, rep.DroppedDuplicates)
	if res.CacheHit {
		fmt.Fprintln(w, p.dim.Sprint("Result served from cache"))
	}
	if res.ArchiveKey != "" {
		fmt.Fprintf(w, "Archived as:            %s\n", res.ArchiveKey)
	}

	hotspots := doc.TopHotspots(top)
	if len(hotspots) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, p.title.Sprintf("Top %d hotspots by severity", len(hotspots)))
		writeHotspotTable(w, hotspots, p)
	}

	if len(doc.CategoryStats) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, p.title.Sprint("Recurrence by category"))
		writeCategoryTable(w, doc.CategoryStats)
	}

	if len(doc.Gaps) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, p.title.Sprint("Possible reporting gaps"))
		writeGapTable(w, doc.Gaps, p)
	}
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func writeHotspotTable(w io.Writer, hotspots []domainanalysis.Hotspot, p reportPalette) {
	table := newTable(w, []string{"#", "Priority", "Severity", "Reports", "Span (days)", "Failed fixes", "Type", "Neighborhood", "Address"})
	for i, h := range hotspots {
		priority := ""
		severity := fmt.Sprintf("%.2f", h.SeverityScore)
		if h.IsHighPriority {
			priority = p.high.Sprint("HIGH")
			severity = p.high.Sprint(severity)
		}
		address := ""
		if h.AddressHint != nil {
			address = truncateString(*h.AddressHint, 40)
		}
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			priority,
			severity,
			fmt.Sprintf("%d", h.ReportCount),
			fmt.Sprintf("%d", h.SpanDays),
			fmt.Sprintf("%d", h.PossibleFailedFixes),
			truncateString(h.PrimaryType, 30),
			h.Neighborhood,
			address,
		})
	}
	table.Render()
}

func writeCategoryTable(w io.Writer, stats domainanalysis.CategoryStats) {
	table := newTable(w, []string{"Category", "Requests", "At chronic locations", "Re-reports", "Recurrence %", "Chronic location %"})
	for _, s := range stats {
		table.Append([]string{
			string(s.Category),
			fmt.Sprintf("%d", s.TotalRequests),
			fmt.Sprintf("%d", s.RequestsAtChronicLocations),
			fmt.Sprintf("%d", s.Rereports),
			fmt.Sprintf("%.1f", s.RecurrencePct),
			fmt.Sprintf("%.1f", s.ChronicLocationPct),
		})
	}
	table.Render()
}

func writeGapTable(w io.Writer, gaps []domainanalysis.GapRecord, p reportPalette) {
	table := newTable(w, []string{"Neighborhood", "Social mentions", "311 reports", "Gap score"})
	for _, g := range gaps {
		table.Append([]string{
			g.Neighborhood,
			fmt.Sprintf("%d", g.WeakSignal),
			fmt.Sprintf("%d", g.OfficialReports),
			p.warn.Sprintf("%.2f", g.GapScore),
		})
	}
	table.Render()
}

func formatDateRange(r domainanalysis.DateRange) string {
	if r.Start == nil || r.End == nil {
		return "no dates"
	}
	return r.Start.Format(dateLayout) + " to " + r.End.Format(dateLayout)
}

func truncateString(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

//Personal.AI order the ending
