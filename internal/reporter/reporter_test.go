package reporter

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/joshharrison/phaseline/internal/cascade"
	"github.com/joshharrison/phaseline/internal/graph"
	"github.com/joshharrison/phaseline/internal/history"
	"github.com/joshharrison/phaseline/internal/report"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

var analyzedAt = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func makeReport() *report.CascadeReport {
	return &report.CascadeReport{
		DelayedPhases: []string{"fnd"},
		ImpactedPhases: []cascade.ImpactedPhase{
			{PhaseID: "skl", PhaseName: "Skeleton", RiskLevel: cascade.RiskHigh, EstimatedDelay: 10, Reason: "Depends on Foundation, delayed by 10 days"},
			{PhaseID: "fin", PhaseName: "Finishes", RiskLevel: cascade.RiskMedium, EstimatedDelay: 4, Reason: "Follows Skeleton in standard sequencing"},
		},
		Recommendations: []string{"Add a second concrete crew"},
		CascadeImpact:   "1 delayed phase affects 2 downstream phases.",
		CriticalPath:    []string{"fnd", "skl", "fin"},
		Diagnostics: &report.Diagnostics{
			DanglingDependencies: []graph.DanglingRef{{PhaseID: "fin", DependencyID: "ghost"}},
		},
	}
}

func TestPrintReport(t *testing.T) {
	rpt := New("tower", makeReport(), analyzedAt, map[string]string{"fnd": "Foundation"})

	var buf bytes.Buffer
	rpt.PrintReport(&buf)
	output := buf.String()

	for _, want := range []string{
		"Delay Cascade — tower",
		"Foundation",
		"Skeleton",
		"HIGH",
		"MEDIUM",
		"+10 days",
		"1. Add a second concrete crew",
		"fnd → skl → fin",
		"fin depends on unknown phase ghost",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}

func TestPrintReport_Healthy(t *testing.T) {
	rep, err := report.Analyze(t.Context(), nil, analyzedAt)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	var buf bytes.Buffer
	New("", rep, analyzedAt, nil).PrintReport(&buf)
	output := buf.String()

	if !strings.Contains(output, "No delays detected") {
		t.Error("expected healthy summary")
	}
	if strings.Contains(output, "IMPACTED") {
		t.Error("healthy report should not list impacted phases")
	}
}

func TestPrintReport_Error(t *testing.T) {
	rep := &report.CascadeReport{Error: "analysis failed: boom"}

	var buf bytes.Buffer
	New("", rep, analyzedAt, nil).PrintReport(&buf)
	if !strings.Contains(buf.String(), "analysis failed: boom") {
		t.Error("expected error message")
	}
}

func TestJSON(t *testing.T) {
	data, err := New("tower", makeReport(), analyzedAt, nil).JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["project"] != "tower" {
		t.Errorf("unexpected project %v", decoded["project"])
	}
	if decoded["analyzedAt"] != "2026-10-14T09:00:00Z" {
		t.Errorf("unexpected analyzedAt %v", decoded["analyzedAt"])
	}
	if _, ok := decoded["impactedPhases"]; !ok {
		t.Error("JSON should inline the report fields")
	}
}

func TestSummary(t *testing.T) {
	summary := New("tower", makeReport(), analyzedAt, nil).Summary()
	if !strings.Contains(summary, "1 delayed, 2 impacted (1 high)") {
		t.Errorf("unexpected summary %q", summary)
	}
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	PrintHistory(&buf, []history.Entry{
		{Project: "tower", AnalyzedAt: analyzedAt, Report: makeReport()},
	})
	output := buf.String()
	if !strings.Contains(output, "tower") || !strings.Contains(output, "2026-10-14T09:00:00Z") {
		t.Errorf("unexpected history output %q", output)
	}

	buf.Reset()
	PrintHistory(&buf, nil)
	if !strings.Contains(buf.String(), "No stored analyses") {
		t.Error("expected empty history message")
	}
}

func makeView() *report.GraphView {
	return &report.GraphView{
		Nodes: []report.GraphNode{
			{ID: "fnd", Name: "Foundation", Status: "InProgress", IsCritical: true, DelayDays: 10},
			{ID: "skl", Name: `Skeleton "A"`, Status: "Pending", IsCritical: true, Wave: 1, RiskLevel: cascade.RiskHigh},
			{ID: "lnd", Name: "Landscaping", Status: "Pending", Wave: 1},
		},
		Edges: []graph.Edge{
			{From: "fnd", To: "skl", Kind: graph.EdgeImplicit},
			{From: "fnd", To: "lnd", Kind: graph.EdgeExplicit},
		},
		DroppedEdges:  []graph.Edge{{From: "lnd", To: "fnd", Kind: graph.EdgeExplicit}},
		CriticalPath:  []string{"fnd", "skl"},
		Waves:         [][]string{{"fnd"}, {"skl", "lnd"}},
		TotalDuration: 40,
	}
}

func TestPrintASCII(t *testing.T) {
	var buf bytes.Buffer
	PrintASCII(&buf, makeView())
	output := buf.String()

	for _, want := range []string{"Wave 1", "Wave 2", "[fnd] Foundation", "└┄┄→", "└──→", "lnd → fnd", "fnd → skl (40 days)"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}

func TestPrintDOT(t *testing.T) {
	var buf bytes.Buffer
	PrintDOT(&buf, makeView())
	output := buf.String()

	for _, want := range []string{
		"digraph phaseline {",
		`"fnd" -> "skl" [style=dashed, color=red, penwidth=2];`,
		`"fnd" -> "lnd";`,
		`Skeleton \"A\"`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}
