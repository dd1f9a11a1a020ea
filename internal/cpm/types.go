package cpm

// Result holds the schedule pass over a phase graph.
type Result struct {
	Phases        map[string]*PhaseSchedule
	CriticalPath  []string // ordered phase ids on the longest chain
	TotalDuration int      // days
	Waves         []Wave   // phases grouped by dependency level
	TopoOrder     []string
}

// PhaseSchedule holds the forward-pass timing of a single phase, in days
// from the start of the earliest root.
type PhaseSchedule struct {
	PhaseID    string
	Duration   int
	ES, EF     int // earliest start/finish
	IsCritical bool
	Wave       int
}

// Wave is a group of phases whose predecessors all sit in earlier waves.
type Wave struct {
	Index      int
	PhaseIDs   []string
	IsCritical bool // true if wave contains critical path phases
}
