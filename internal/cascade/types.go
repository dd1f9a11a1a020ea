package cascade

// RiskLevel is the coarse exposure of a phase to a cascading delay.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Rank orders risk levels: low < medium < high.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	}
	return 0
}

// ImpactedPhase is a downstream phase exposed to a delay.
type ImpactedPhase struct {
	PhaseID        string    `json:"phaseId"`
	PhaseName      string    `json:"phaseName"`
	RiskLevel      RiskLevel `json:"riskLevel"`
	EstimatedDelay int       `json:"estimatedDelay"`
	Reason         string    `json:"reason"`
}

// Policy holds the risk thresholds.
type Policy struct {
	// HighDelayDays makes any phase high risk once its propagated delay
	// reaches this many days.
	HighDelayDays int
	// MediumDelayDays is the lower bound of the medium band.
	MediumDelayDays int
	// MaxMediumDepth is the deepest hop count still eligible for medium.
	MaxMediumDepth int
}

// DefaultPolicy returns 7/3-day thresholds with a depth cutoff of 2.
func DefaultPolicy() Policy {
	return Policy{HighDelayDays: 7, MediumDelayDays: 3, MaxMediumDepth: 2}
}

// Classify maps the facts about one visit to a risk level. direct means a
// delayed phase is an immediate predecessor.
func (p Policy) Classify(direct bool, depth, delay int) RiskLevel {
	switch {
	case direct || delay >= p.HighDelayDays:
		return RiskHigh
	case depth <= p.MaxMediumDepth && delay >= p.MediumDelayDays:
		return RiskMedium
	default:
		return RiskLow
	}
}
