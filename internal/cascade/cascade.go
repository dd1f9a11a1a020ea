// Package cascade propagates schedule delays forward through a phase graph.
package cascade

import (
	"fmt"

	"github.com/joshharrison/phaseline/internal/delay"
	"github.com/joshharrison/phaseline/internal/graph"
	"github.com/joshharrison/phaseline/internal/phase"
)

// Result maps every impacted phase to its estimate. Delayed sources and
// completed phases never appear in it.
type Result struct {
	Impacted []ImpactedPhase // input order
	index    map[string]int
}

// Get returns the impact recorded for id.
func (r *Result) Get(id string) (ImpactedPhase, bool) {
	i, ok := r.index[id]
	if !ok {
		return ImpactedPhase{}, false
	}
	return r.Impacted[i], true
}

// visit is the traversal state of one phase.
type visit struct {
	source bool
	delay  int
	depth  int
	direct bool
	cause  string
	risk   RiskLevel
}

// Propagate runs a multi-source breadth-first traversal seeded with every
// delayed, unfinished phase. A successor inherits the largest delay among
// its visited predecessors; depth only affects risk. A phase is revisited
// whenever its delay grows or its depth shrinks, both of which are bounded,
// and the graph is acyclic, so the walk terminates.
func Propagate(g *graph.PhaseGraph, delayed []delay.Delayed, policy Policy) *Result {
	states := make(map[string]*visit)
	var queue []string

	for _, d := range delayed {
		p, ok := g.Phase(d.PhaseID)
		if !ok || p.Status == phase.StatusCompleted {
			continue
		}
		if st, seen := states[d.PhaseID]; seen {
			if d.Days > st.delay {
				st.delay = d.Days
			}
			continue
		}
		states[d.PhaseID] = &visit{source: true, delay: d.Days}
		queue = append(queue, d.PhaseID)
	}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		su := states[u]

		for _, v := range g.SuccessorsOf(u) {
			pv, _ := g.Phase(v)
			if pv.Status == phase.StatusCompleted {
				continue
			}

			depth := su.depth + 1
			sv, seen := states[v]
			if !seen {
				sv = &visit{delay: su.delay, depth: depth, direct: su.source, cause: u}
				sv.risk = policy.Classify(sv.direct, sv.depth, sv.delay)
				states[v] = sv
				queue = append(queue, v)
				continue
			}

			changed := false
			if su.delay > sv.delay {
				sv.delay = su.delay
				sv.cause = u
				changed = true
			}
			if sv.source {
				if changed {
					queue = append(queue, v)
				}
				continue
			}
			if depth < sv.depth {
				sv.depth = depth
				changed = true
			}
			if su.source {
				sv.direct = true
			}
			if r := policy.Classify(sv.direct, sv.depth, sv.delay); r.Rank() > sv.risk.Rank() {
				sv.risk = r
			}
			if changed {
				queue = append(queue, v)
			}
		}
	}

	result := &Result{index: make(map[string]int)}
	for _, id := range g.IDs() {
		st, ok := states[id]
		if !ok || st.source {
			continue
		}
		p, _ := g.Phase(id)
		result.index[id] = len(result.Impacted)
		result.Impacted = append(result.Impacted, ImpactedPhase{
			PhaseID:        id,
			PhaseName:      p.DisplayName(),
			RiskLevel:      st.risk,
			EstimatedDelay: st.delay,
			Reason:         reason(g, st.cause, id, st.delay),
		})
	}
	return result
}

// reason cites the predecessor that set the propagated delay.
func reason(g *graph.PhaseGraph, cause, id string, days int) string {
	pred, _ := g.Phase(cause)
	if kind, _ := g.KindOf(cause, id); kind == graph.EdgeImplicit {
		return fmt.Sprintf("Follows %s in standard sequencing", pred.DisplayName())
	}
	return fmt.Sprintf("Depends on %s, delayed by %d %s", pred.DisplayName(), days, plural(days, "day", "days"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
