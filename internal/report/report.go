package report

import (
	"context"
	"fmt"
	"time"

	"github.com/joshharrison/phaseline/internal/advice"
	"github.com/joshharrison/phaseline/internal/cascade"
	"github.com/joshharrison/phaseline/internal/cpm"
	"github.com/joshharrison/phaseline/internal/delay"
	"github.com/joshharrison/phaseline/internal/graph"
	"github.com/joshharrison/phaseline/internal/phase"
)

// Analyze runs the cascade analysis of phases at the instant now.
//
// The only error returned is *phase.InvalidInputError. Every other failure,
// including a panic in any stage, produces a report with Error set.
func Analyze(ctx context.Context, phases []phase.Phase, now time.Time, opts ...Option) (*CascadeReport, error) {
	return AnalyzeDocument(ctx, &phase.Document{Phases: phases}, now, opts...)
}

// AnalyzeJSON decodes a phase payload and analyzes it.
func AnalyzeJSON(ctx context.Context, data []byte, now time.Time, opts ...Option) (*CascadeReport, error) {
	doc, err := phase.Decode(data)
	if err != nil {
		return nil, err
	}
	return AnalyzeDocument(ctx, doc, now, opts...)
}

// AnalyzeDocument analyzes a decoded phase document, carrying its loader
// diagnostics into the report.
func AnalyzeDocument(ctx context.Context, doc *phase.Document, now time.Time, opts ...Option) (rep *CascadeReport, err error) {
	if now.IsZero() {
		return nil, &phase.InvalidInputError{Reason: "reference time is required"}
	}
	if doc == nil {
		doc = &phase.Document{}
	}

	s := newSettings(opts)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("analysis panicked", "project", doc.ProjectID, "panic", r)
			rep, err = failedReport(fmt.Sprintf("analysis failed: %v", r)), nil
		}
	}()

	return s.run(ctx, doc, now), nil
}

func (s *settings) run(ctx context.Context, doc *phase.Document, now time.Time) *CascadeReport {
	g := graph.Build(doc.Phases, s.categories)
	diag := &Diagnostics{
		DanglingDependencies: g.Dangling(),
		DroppedEdges:         g.DroppedEdges(),
		UnknownStatuses:      doc.UnknownStatuses,
		SkippedEntries:       doc.Skipped,
	}
	s.logGraph(doc.ProjectID, g)

	detected := delay.Detect(g.Phases(), now)
	diag.InvalidDates = detected.InvalidDates
	if len(detected.InvalidDates) > 0 {
		s.logger.Warn("phases without a usable end date", "project", doc.ProjectID, "phases", detected.InvalidDates)
	}

	var criticalPath []string
	if sched, err := cpm.Analyze(g); err != nil {
		s.logger.Warn("critical path unavailable", "project", doc.ProjectID, "error", err)
	} else {
		criticalPath = sched.CriticalPath
	}

	if detected.None() {
		rep := healthyReport()
		rep.CriticalPath = criticalPath
		rep.attach(diag)
		return rep
	}

	impacted := cascade.Propagate(g, detected.Delayed, s.policy)

	synth := advice.NewSynthesizer(s.advisor, s.template, s.advisorTimeout, s.logger)
	adv := synth.Synthesize(ctx, advice.Input{
		Delayed:      detected.Delayed,
		Impacted:     impacted.Impacted,
		CriticalPath: criticalPath,
	})
	diag.Advisory = adv.Warning

	rep := &CascadeReport{
		DelayedPhases:   detected.IDs(),
		ImpactedPhases:  impacted.Impacted,
		Recommendations: adv.Recommendations,
		CascadeImpact:   adv.Summary,
		CriticalPath:    criticalPath,
	}
	if rep.ImpactedPhases == nil {
		rep.ImpactedPhases = []cascade.ImpactedPhase{}
	}
	if rep.Recommendations == nil {
		rep.Recommendations = []string{}
	}
	rep.attach(diag)
	return rep
}

func (r *CascadeReport) attach(d *Diagnostics) {
	if !d.empty() {
		r.Diagnostics = d
	}
}

func (s *settings) logGraph(project string, g *graph.PhaseGraph) {
	for _, ref := range g.Dangling() {
		s.logger.Debug("dangling dependency ignored", "project", project, "phase", ref.PhaseID, "dependency", ref.DependencyID)
	}
	for _, e := range g.DroppedEdges() {
		s.logger.Warn("dependency cycle edge dropped", "project", project, "from", e.From, "to", e.To, "kind", e.Kind.String())
	}
}
