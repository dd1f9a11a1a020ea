package report

import (
	"time"

	"github.com/joshharrison/phaseline/internal/cascade"
	"github.com/joshharrison/phaseline/internal/cpm"
	"github.com/joshharrison/phaseline/internal/delay"
	"github.com/joshharrison/phaseline/internal/graph"
	"github.com/joshharrison/phaseline/internal/phase"
)

// GraphNode is one phase of a GraphView.
type GraphNode struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Status     phase.Status      `json:"status"`
	Category   string            `json:"category,omitempty"`
	IsCritical bool              `json:"isCritical"`
	Wave       int               `json:"wave"`
	DelayDays  int               `json:"delayDays,omitempty"`
	RiskLevel  cascade.RiskLevel `json:"riskLevel,omitempty"`
}

// GraphView is the resolved dependency graph annotated with schedule and
// cascade results, for rendering.
type GraphView struct {
	Nodes         []GraphNode  `json:"nodes"`
	Edges         []graph.Edge `json:"edges"`
	DroppedEdges  []graph.Edge `json:"droppedEdges,omitempty"`
	CriticalPath  []string     `json:"criticalPath"`
	Waves         [][]string   `json:"waves"`
	TotalDuration int          `json:"totalDuration"`
}

// Node returns the node for id.
func (v *GraphView) Node(id string) (GraphNode, bool) {
	for _, n := range v.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return GraphNode{}, false
}

// BuildView resolves phases into a GraphView. Only categories and policy
// options apply.
func BuildView(phases []phase.Phase, now time.Time, opts ...Option) (*GraphView, error) {
	if now.IsZero() {
		return nil, &phase.InvalidInputError{Reason: "reference time is required"}
	}
	s := newSettings(opts)

	g := graph.Build(phases, s.categories)
	sched, err := cpm.Analyze(g)
	if err != nil {
		return nil, err
	}
	detected := delay.Detect(g.Phases(), now)
	impacted := cascade.Propagate(g, detected.Delayed, s.policy)

	lateBy := make(map[string]int, len(detected.Delayed))
	for _, d := range detected.Delayed {
		lateBy[d.PhaseID] = d.Days
	}

	v := &GraphView{
		Nodes:         make([]GraphNode, 0, g.PhaseCount()),
		Edges:         g.Edges(),
		DroppedEdges:  g.DroppedEdges(),
		CriticalPath:  sched.CriticalPath,
		TotalDuration: sched.TotalDuration,
	}
	if v.Edges == nil {
		v.Edges = []graph.Edge{}
	}
	if v.CriticalPath == nil {
		v.CriticalPath = []string{}
	}

	for _, p := range g.Phases() {
		ps := sched.Phases[p.ID]
		n := GraphNode{
			ID:         p.ID,
			Name:       p.DisplayName(),
			Status:     p.Status,
			IsCritical: ps.IsCritical,
			Wave:       ps.Wave,
			DelayDays:  lateBy[p.ID],
		}
		if cat, ok := g.Category(p.ID); ok {
			n.Category = cat.Name
		}
		if ip, ok := impacted.Get(p.ID); ok {
			n.RiskLevel = ip.RiskLevel
		}
		v.Nodes = append(v.Nodes, n)
	}

	v.Waves = make([][]string, 0, len(sched.Waves))
	for _, w := range sched.Waves {
		v.Waves = append(v.Waves, w.PhaseIDs)
	}
	return v, nil
}
