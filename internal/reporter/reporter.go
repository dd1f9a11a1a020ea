package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/joshharrison/phaseline/internal/cascade"
	"github.com/joshharrison/phaseline/internal/history"
	"github.com/joshharrison/phaseline/internal/report"
	"github.com/joshharrison/phaseline/internal/ui"
)

// Reporter renders a cascade report for the terminal.
type Reporter struct {
	Project    string
	Report     *report.CascadeReport
	AnalyzedAt time.Time
	// Names maps phase ids to display names. Missing ids print as-is.
	Names map[string]string
}

// New creates a new Reporter.
func New(project string, rep *report.CascadeReport, analyzedAt time.Time, names map[string]string) *Reporter {
	return &Reporter{
		Project:    project,
		Report:     rep,
		AnalyzedAt: analyzedAt,
		Names:      names,
	}
}

func (r *Reporter) name(id string) string {
	if n, ok := r.Names[id]; ok && n != "" {
		return n
	}
	return id
}

// PrintReport writes a terminal-friendly report.
func (r *Reporter) PrintReport(w io.Writer) {
	rep := r.Report
	title := "Delay Cascade"
	if r.Project != "" {
		title += " — " + r.Project
	}
	fmt.Fprintf(w, "🏗  %s %s\n", ui.BoldCyan(title), ui.Dim(fmt.Sprintf("[as of %s]", r.AnalyzedAt.Format("2006-01-02 15:04 MST"))))
	fmt.Fprintln(w, ui.Cyan(strings.Repeat("═", 30)))
	fmt.Fprintln(w)

	if rep.Error != "" {
		fmt.Fprintf(w, "%s %s\n", ui.BoldRed("✗"), rep.Error)
		return
	}

	if rep.Healthy() {
		fmt.Fprintf(w, "%s %s\n", ui.BoldGreen("✓"), rep.CascadeImpact)
		for _, rec := range rep.Recommendations {
			fmt.Fprintf(w, "  %s\n", rec)
		}
		r.printCriticalPath(w)
		r.printDiagnostics(w)
		return
	}

	high, medium, low := countRisk(rep.ImpactedPhases)
	fmt.Fprintf(w, "Delayed:   %s phases\n", ui.BoldRed(len(rep.DelayedPhases)))
	fmt.Fprintf(w, "Impacted:  %s phases (%s high, %s medium, %s low)\n",
		ui.Bold(len(rep.ImpactedPhases)), ui.BoldRed(high), ui.BoldYellow(medium), ui.Green(low))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  ⏰ %s\n", ui.BoldWhite("DELAYED"))
	for _, id := range rep.DelayedPhases {
		fmt.Fprintf(w, "    %s %-10s %s\n", ui.Red("✗"), ui.BoldMagenta(id), r.name(id))
	}
	fmt.Fprintln(w)

	if len(rep.ImpactedPhases) > 0 {
		fmt.Fprintf(w, "  🌊 %s\n", ui.BoldWhite("IMPACTED"))
		for _, ip := range rep.ImpactedPhases {
			name := ip.PhaseName
			if len(name) > 32 {
				name = name[:29] + "..."
			}
			fmt.Fprintf(w, "    %s %-10s %-32s %s  %s\n",
				ui.RiskBadge(string(ip.RiskLevel)), ui.BoldMagenta(ip.PhaseID), name,
				ui.DelayBadge(ip.EstimatedDelay), ui.Dim(ip.Reason))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "  💡 %s\n", ui.BoldWhite("RECOMMENDATIONS"))
	for i, rec := range rep.Recommendations {
		fmt.Fprintf(w, "    %d. %s\n", i+1, rec)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", ui.Bold("Impact:"), rep.CascadeImpact)

	r.printCriticalPath(w)
	r.printDiagnostics(w)
}

func (r *Reporter) printCriticalPath(w io.Writer) {
	if len(r.Report.CriticalPath) == 0 {
		return
	}
	fmt.Fprintf(w, "\n⚡ Critical path: %s\n", ui.BoldYellow(strings.Join(r.Report.CriticalPath, " → ")))
}

func (r *Reporter) printDiagnostics(w io.Writer) {
	d := r.Report.Diagnostics
	if d == nil {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.Dim("Diagnostics:"))
	for _, ref := range d.DanglingDependencies {
		fmt.Fprintf(w, "  %s %s depends on unknown phase %s\n", ui.Yellow("!"), ref.PhaseID, ref.DependencyID)
	}
	for _, e := range d.DroppedEdges {
		fmt.Fprintf(w, "  %s dropped %s edge %s → %s (cycle)\n", ui.Yellow("!"), e.Kind, e.From, e.To)
	}
	if len(d.InvalidDates) > 0 {
		fmt.Fprintf(w, "  %s no usable end date: %s\n", ui.Yellow("!"), strings.Join(d.InvalidDates, ", "))
	}
	if len(d.UnknownStatuses) > 0 {
		fmt.Fprintf(w, "  %s unknown status treated as Pending: %s\n", ui.Yellow("!"), strings.Join(d.UnknownStatuses, ", "))
	}
	if d.SkippedEntries > 0 {
		fmt.Fprintf(w, "  %s skipped %d entries without an id\n", ui.Yellow("!"), d.SkippedEntries)
	}
	if d.Advisory != "" {
		fmt.Fprintf(w, "  %s advisor: %s\n", ui.Yellow("!"), d.Advisory)
	}
}

func countRisk(impacted []cascade.ImpactedPhase) (high, medium, low int) {
	for _, ip := range impacted {
		switch ip.RiskLevel {
		case cascade.RiskHigh:
			high++
		case cascade.RiskMedium:
			medium++
		default:
			low++
		}
	}
	return high, medium, low
}

// JSON returns the report with its project and analysis time.
func (r *Reporter) JSON() ([]byte, error) {
	type output struct {
		Project    string `json:"project,omitempty"`
		AnalyzedAt string `json:"analyzedAt"`
		*report.CascadeReport
	}

	o := output{
		Project:       r.Project,
		AnalyzedAt:    r.AnalyzedAt.UTC().Format(time.RFC3339),
		CascadeReport: r.Report,
	}
	return json.MarshalIndent(o, "", "  ")
}

// PrintHistory writes one line per stored analysis.
func PrintHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, ui.Dim("No stored analyses."))
		return
	}

	for _, e := range entries {
		status := ui.BoldGreen("healthy")
		if e.Report != nil && !e.Report.Healthy() {
			high, _, _ := countRisk(e.Report.ImpactedPhases)
			status = fmt.Sprintf("%s delayed, %s impacted, %s high",
				ui.BoldRed(len(e.Report.DelayedPhases)), ui.Bold(len(e.Report.ImpactedPhases)), ui.BoldRed(high))
		}
		project := e.Project
		if project == "" {
			project = "-"
		}
		fmt.Fprintf(w, "  %s  %-16s %s\n", ui.Dim(e.AnalyzedAt.UTC().Format(time.RFC3339)), ui.BoldMagenta(project), status)
	}
}

// Summary returns a one-line status, used between watch re-runs.
func (r *Reporter) Summary() string {
	rep := r.Report
	stamp := r.AnalyzedAt.Format("15:04:05")
	switch {
	case rep.Error != "":
		return fmt.Sprintf("%s %s %s", ui.Dim(stamp), ui.BoldRed("✗"), rep.Error)
	case rep.Healthy():
		return fmt.Sprintf("%s %s %s", ui.Dim(stamp), ui.BoldGreen("✓"), rep.CascadeImpact)
	}
	high, _, _ := countRisk(rep.ImpactedPhases)
	return fmt.Sprintf("%s %s %d delayed, %d impacted (%d high)", ui.Dim(stamp), ui.BoldRed("⏰"),
		len(rep.DelayedPhases), len(rep.ImpactedPhases), high)
}
