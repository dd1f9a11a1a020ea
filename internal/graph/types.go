package graph

import (
	"fmt"

	"github.com/joshharrison/phaseline/internal/phase"
)

// EdgeKind tells how a predecessor relationship was established.
type EdgeKind int

const (
	// EdgeExplicit comes from a phase's declared dependencies.
	EdgeExplicit EdgeKind = iota
	// EdgeImplicit is inferred from the category sequence.
	EdgeImplicit
)

func (k EdgeKind) String() string {
	if k == EdgeImplicit {
		return "implicit"
	}
	return "explicit"
}

func (k EdgeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EdgeKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "explicit":
		*k = EdgeExplicit
	case "implicit":
		*k = EdgeImplicit
	default:
		return fmt.Errorf("unknown edge kind %q", text)
	}
	return nil
}

// Edge is a directed predecessor → successor relationship.
type Edge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Kind EdgeKind `json:"kind"`
}

// DanglingRef is a declared dependency on an id missing from the input.
type DanglingRef struct {
	PhaseID      string `json:"phaseId"`
	DependencyID string `json:"dependencyId"`
}

// PhaseGraph is the resolved, acyclic dependency graph of one phase list.
// It is built once per analysis and never mutated afterwards; slices
// returned by its accessors must not be modified by callers.
type PhaseGraph struct {
	order      []string
	index      map[string]int
	phases     map[string]phase.Phase
	preds      map[string][]string
	succs      map[string][]string
	kinds      map[[2]string]EdgeKind
	categories map[string]Category

	dangling []DanglingRef
	dropped  []Edge
}
