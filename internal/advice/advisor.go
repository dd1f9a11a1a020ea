// Package advice turns a cascade analysis into mitigation text.
package advice

//go:generate mockgen -source=advisor.go -destination=mock_advisor.go -package=advice

import (
	"context"
	"errors"

	"github.com/joshharrison/phaseline/internal/cascade"
	"github.com/joshharrison/phaseline/internal/delay"
)

// ErrAdvisoryUnavailable wraps every failure of an external advisor.
var ErrAdvisoryUnavailable = errors.New("advisory unavailable")

// Input is what an advisor sees of an analysis.
type Input struct {
	Delayed      []delay.Delayed
	Impacted     []cascade.ImpactedPhase
	CriticalPath []string // phase ids
}

// Advice is the prose part of a cascade report.
type Advice struct {
	Recommendations []string `json:"recommendations"`
	Summary         string   `json:"cascadeImpact"`
}

// Advisor produces recommendations and a one-sentence summary.
type Advisor interface {
	Generate(ctx context.Context, in Input) (Advice, error)
}
