package graph

import (
	"github.com/joshharrison/phaseline/internal/phase"
)

// Build resolves a phase list into a PhaseGraph.
//
// Duplicate ids keep their first position and the data of their last
// occurrence. Declared dependencies on unknown ids are recorded as dangling
// and ignored. Phases without a resolved explicit dependency get implicit
// predecessors from the nearest earlier category present in the input.
// Edges that would close a cycle are dropped and recorded.
func Build(phases []phase.Phase, cats Categories) *PhaseGraph {
	g := &PhaseGraph{
		index:      make(map[string]int, len(phases)),
		phases:     make(map[string]phase.Phase, len(phases)),
		preds:      make(map[string][]string),
		succs:      make(map[string][]string),
		kinds:      make(map[[2]string]EdgeKind),
		categories: make(map[string]Category),
	}

	// Index phases, last occurrence wins
	for _, p := range phases {
		if _, ok := g.phases[p.ID]; !ok {
			g.index[p.ID] = len(g.order)
			g.order = append(g.order, p.ID)
		}
		g.phases[p.ID] = p
	}

	for _, id := range g.order {
		if cat, ok := cats.Match(g.phases[id].Name); ok {
			g.categories[id] = cat
		}
	}

	candidates := g.resolveExplicit()
	g.resolveImplicit(candidates)

	// Candidate successor lists, in input order of the successor
	candSuccs := make(map[string][]string)
	for _, id := range g.order {
		for _, pred := range candidates[id] {
			candSuccs[pred] = append(candSuccs[pred], id)
		}
	}

	removed := g.breakCycles(candSuccs)
	for key := range removed {
		delete(g.kinds, key)
	}

	for _, id := range g.order {
		for _, pred := range candidates[id] {
			key := [2]string{pred, id}
			if removed[key] {
				continue
			}
			g.preds[id] = append(g.preds[id], pred)
			g.succs[pred] = append(g.succs[pred], id)
		}
	}

	return g
}

// resolveExplicit returns the declared predecessors that exist in the
// graph, keyed by successor id.
func (g *PhaseGraph) resolveExplicit() map[string][]string {
	candidates := make(map[string][]string)
	for _, id := range g.order {
		seen := make(map[string]bool)
		for _, dep := range g.phases[id].Dependencies {
			if dep == id {
				g.dropped = append(g.dropped, Edge{From: dep, To: id, Kind: EdgeExplicit})
				continue
			}
			if _, ok := g.phases[dep]; !ok {
				g.dangling = append(g.dangling, DanglingRef{PhaseID: id, DependencyID: dep})
				continue
			}
			if seen[dep] {
				continue
			}
			seen[dep] = true
			g.kinds[[2]string{dep, id}] = EdgeExplicit
			candidates[id] = append(candidates[id], dep)
		}
	}
	return candidates
}

// resolveImplicit adds category-sequence predecessors to phases that ended
// up with no explicit ones.
func (g *PhaseGraph) resolveImplicit(candidates map[string][]string) {
	byOrder := make(map[int][]string)
	for _, id := range g.order {
		if cat, ok := g.categories[id]; ok {
			byOrder[cat.Order] = append(byOrder[cat.Order], id)
		}
	}

	for _, id := range g.order {
		if len(candidates[id]) > 0 {
			continue
		}
		cat, ok := g.categories[id]
		if !ok {
			continue
		}

		nearest, found := 0, false
		for order := range byOrder {
			if order < cat.Order && (!found || order > nearest) {
				nearest, found = order, true
			}
		}
		if !found {
			continue
		}

		for _, pred := range byOrder[nearest] {
			key := [2]string{pred, id}
			if _, exists := g.kinds[key]; exists {
				continue
			}
			g.kinds[key] = EdgeImplicit
			candidates[id] = append(candidates[id], pred)
		}
	}
}

// breakCycles walks the candidate edges depth-first with three-color
// marking and returns the set of edges that re-enter an in-progress node.
// The walk uses an explicit stack so deep chains cannot exhaust the
// goroutine stack.
func (g *PhaseGraph) breakCycles(succs map[string][]string) map[[2]string]bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	type frame struct {
		node string
		next int
	}

	color := make(map[string]int, len(g.order))
	removed := make(map[[2]string]bool)

	for _, root := range g.order {
		if color[root] != white {
			continue
		}

		color[root] = gray
		stack := []frame{{node: root}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			out := succs[top.node]
			if top.next >= len(out) {
				color[top.node] = black
				stack = stack[:len(stack)-1]
				continue
			}

			next := out[top.next]
			top.next++

			switch color[next] {
			case gray:
				key := [2]string{top.node, next}
				removed[key] = true
				g.dropped = append(g.dropped, Edge{From: top.node, To: next, Kind: g.kinds[key]})
			case white:
				color[next] = gray
				stack = append(stack, frame{node: next})
			}
		}
	}

	return removed
}

// PredecessorsOf returns the resolved predecessors of id.
func (g *PhaseGraph) PredecessorsOf(id string) []string {
	return g.preds[id]
}

// SuccessorsOf returns the resolved successors of id.
func (g *PhaseGraph) SuccessorsOf(id string) []string {
	return g.succs[id]
}

// KindOf reports how the resolved edge from → to was established.
func (g *PhaseGraph) KindOf(from, to string) (EdgeKind, bool) {
	kind, ok := g.kinds[[2]string{from, to}]
	return kind, ok
}

// Phase returns the phase with the given id.
func (g *PhaseGraph) Phase(id string) (phase.Phase, bool) {
	p, ok := g.phases[id]
	return p, ok
}

// Phases returns the deduplicated phases in input order.
func (g *PhaseGraph) Phases() []phase.Phase {
	out := make([]phase.Phase, len(g.order))
	for i, id := range g.order {
		out[i] = g.phases[id]
	}
	return out
}

// IDs returns phase ids in input order.
func (g *PhaseGraph) IDs() []string {
	return g.order
}

// Index returns the input position of id, or -1.
func (g *PhaseGraph) Index(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	return -1
}

// Category returns the sequencing category a phase was matched to.
func (g *PhaseGraph) Category(id string) (Category, bool) {
	c, ok := g.categories[id]
	return c, ok
}

// PhaseCount returns the number of distinct phases.
func (g *PhaseGraph) PhaseCount() int {
	return len(g.order)
}

// Roots returns phases with no predecessors, in input order.
func (g *PhaseGraph) Roots() []string {
	var roots []string
	for _, id := range g.order {
		if len(g.preds[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Leaves returns phases with no successors, in input order.
func (g *PhaseGraph) Leaves() []string {
	var leaves []string
	for _, id := range g.order {
		if len(g.succs[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	return leaves
}

// Edges returns every resolved edge, grouped by successor in input order.
func (g *PhaseGraph) Edges() []Edge {
	var edges []Edge
	for _, id := range g.order {
		for _, pred := range g.preds[id] {
			edges = append(edges, Edge{From: pred, To: id, Kind: g.kinds[[2]string{pred, id}]})
		}
	}
	return edges
}

// Dangling returns declared dependencies that referenced unknown ids.
func (g *PhaseGraph) Dangling() []DanglingRef {
	return g.dangling
}

// DroppedEdges returns self-loops and cycle-closing edges that were removed.
func (g *PhaseGraph) DroppedEdges() []Edge {
	return g.dropped
}
