// Package report assembles a CascadeReport from a phase list.
package report

import (
	"github.com/joshharrison/phaseline/internal/cascade"
	"github.com/joshharrison/phaseline/internal/graph"
)

const (
	healthyRecommendation = "All phases are on schedule! Great work! 🎉"
	healthyImpact         = "No delays detected. Project timeline is healthy."
)

// CascadeReport is the result of one analysis. List fields are never nil
// so they always serialize as arrays.
type CascadeReport struct {
	DelayedPhases   []string                `json:"delayedPhases"`
	ImpactedPhases  []cascade.ImpactedPhase `json:"impactedPhases"`
	Recommendations []string                `json:"recommendations"`
	CascadeImpact   string                  `json:"cascadeImpact"`
	CriticalPath    []string                `json:"criticalPath,omitempty"`
	Diagnostics     *Diagnostics            `json:"diagnostics,omitempty"`
	Error           string                  `json:"error,omitempty"`
}

// Healthy reports whether no phase is delayed.
func (r *CascadeReport) Healthy() bool {
	return r.Error == "" && len(r.DelayedPhases) == 0
}

// Diagnostics records conditions that were recovered from during analysis.
type Diagnostics struct {
	DanglingDependencies []graph.DanglingRef `json:"danglingDependencies,omitempty"`
	DroppedEdges         []graph.Edge        `json:"droppedEdges,omitempty"`
	InvalidDates         []string            `json:"invalidDates,omitempty"`
	UnknownStatuses      []string            `json:"unknownStatuses,omitempty"`
	SkippedEntries       int                 `json:"skippedEntries,omitempty"`
	Advisory             string              `json:"advisory,omitempty"`
}

func (d *Diagnostics) empty() bool {
	return len(d.DanglingDependencies) == 0 &&
		len(d.DroppedEdges) == 0 &&
		len(d.InvalidDates) == 0 &&
		len(d.UnknownStatuses) == 0 &&
		d.SkippedEntries == 0 &&
		d.Advisory == ""
}

func healthyReport() *CascadeReport {
	return &CascadeReport{
		DelayedPhases:   []string{},
		ImpactedPhases:  []cascade.ImpactedPhase{},
		Recommendations: []string{healthyRecommendation},
		CascadeImpact:   healthyImpact,
	}
}

func failedReport(msg string) *CascadeReport {
	return &CascadeReport{
		DelayedPhases:   []string{},
		ImpactedPhases:  []cascade.ImpactedPhase{},
		Recommendations: []string{},
		Error:           msg,
	}
}
