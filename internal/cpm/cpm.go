package cpm

import (
	"fmt"
	"math"
	"sort"

	"github.com/joshharrison/phaseline/internal/graph"
	"github.com/joshharrison/phaseline/internal/phase"
)

// Analyze runs a forward pass over the phase graph and extracts the longest
// chain. A phase lasts ceil(endDate - startDate) days; phases with missing
// or inverted dates count as one day.
func Analyze(g *graph.PhaseGraph) (*Result, error) {
	order, err := topoSort(g)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Phases:    make(map[string]*PhaseSchedule, len(order)),
		TopoOrder: order,
	}

	for _, id := range order {
		p, _ := g.Phase(id)
		result.Phases[id] = &PhaseSchedule{PhaseID: id, Duration: Duration(p)}
	}

	// Forward pass: ES = max(EF of all predecessors), wave = max(pred wave)+1
	for _, id := range order {
		ps := result.Phases[id]
		for _, pred := range g.PredecessorsOf(id) {
			predPS := result.Phases[pred]
			if predPS.EF > ps.ES {
				ps.ES = predPS.EF
			}
			if predPS.Wave+1 > ps.Wave {
				ps.Wave = predPS.Wave + 1
			}
		}
		ps.EF = ps.ES + ps.Duration
	}

	// The chain ends at the first phase (in topo order) with the latest finish
	var last string
	for _, id := range order {
		if last == "" || result.Phases[id].EF > result.Phases[last].EF {
			last = id
		}
	}

	if last != "" {
		result.TotalDuration = result.Phases[last].EF
		result.CriticalPath = backtrack(g, result, last)
	}
	for _, id := range result.CriticalPath {
		result.Phases[id].IsCritical = true
	}

	result.Waves = computeWaves(result, g)

	return result, nil
}

// Duration returns a phase's length in whole days, minimum 1.
func Duration(p phase.Phase) int {
	if p.StartDate.IsZero() || p.EndDate.IsZero() || !p.EndDate.After(p.StartDate) {
		return 1
	}
	days := int(math.Ceil(p.EndDate.Sub(p.StartDate).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

// backtrack walks from the final phase to a root, at each step taking the
// first predecessor whose finish governs the phase's start.
func backtrack(g *graph.PhaseGraph, result *Result, last string) []string {
	path := []string{last}
	cur := last
	for {
		ps := result.Phases[cur]
		next := ""
		for _, pred := range g.PredecessorsOf(cur) {
			if result.Phases[pred].EF == ps.ES {
				next = pred
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		cur = next
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// topoSort performs Kahn's algorithm. Ties are broken by input order.
func topoSort(g *graph.PhaseGraph) ([]string, error) {
	inDegree := make(map[string]int, g.PhaseCount())
	var queue []string
	for _, id := range g.IDs() {
		inDegree[id] = len(g.PredecessorsOf(id))
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	var order []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		var newReady []string
		for _, succ := range g.SuccessorsOf(node) {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				newReady = append(newReady, succ)
			}
		}
		sort.SliceStable(newReady, func(a, b int) bool {
			return g.Index(newReady[a]) < g.Index(newReady[b])
		})
		queue = append(queue, newReady...)
	}

	if len(order) != g.PhaseCount() {
		return nil, fmt.Errorf("topological sort failed: graph has a cycle (%d of %d phases sorted)", len(order), g.PhaseCount())
	}

	return order, nil
}

// computeWaves groups phases by dependency level, critical phases first.
func computeWaves(result *Result, g *graph.PhaseGraph) []Wave {
	levels := make(map[int][]string)
	maxLevel := -1
	for _, id := range g.IDs() {
		w := result.Phases[id].Wave
		levels[w] = append(levels[w], id)
		if w > maxLevel {
			maxLevel = w
		}
	}

	waves := make([]Wave, 0, maxLevel+1)
	for i := 0; i <= maxLevel; i++ {
		ids := levels[i]
		hasCritical := false
		for _, id := range ids {
			if result.Phases[id].IsCritical {
				hasCritical = true
			}
		}

		sort.SliceStable(ids, func(a, b int) bool {
			aCrit := result.Phases[ids[a]].IsCritical
			bCrit := result.Phases[ids[b]].IsCritical
			if aCrit != bCrit {
				return aCrit
			}
			return false
		})

		waves = append(waves, Wave{
			Index:      i,
			PhaseIDs:   ids,
			IsCritical: hasCritical,
		})
	}

	return waves
}

