// Package delay classifies phases as on time or late against a reference
// instant supplied by the caller.
package delay

import (
	"math"
	"time"

	"github.com/joshharrison/phaseline/internal/phase"
)

const day = 24 * time.Hour

// Delayed is a phase whose end date has passed without completion.
type Delayed struct {
	PhaseID string
	Name    string
	Days    int
	EndDate time.Time
}

// Result is the outcome of a detection pass.
type Result struct {
	Delayed []Delayed
	// InvalidDates lists unfinished phases without a usable end date.
	InvalidDates []string
}

// IDs returns the delayed phase ids in input order.
func (r Result) IDs() []string {
	ids := make([]string, len(r.Delayed))
	for i, d := range r.Delayed {
		ids[i] = d.PhaseID
	}
	return ids
}

// None reports whether no phase is late.
func (r Result) None() bool {
	return len(r.Delayed) == 0
}

// Detect returns the phases that are not completed and whose end date is
// before now. Delay is counted in started days, minimum 1.
func Detect(phases []phase.Phase, now time.Time) Result {
	var r Result
	for _, p := range phases {
		if p.Status == phase.StatusCompleted {
			continue
		}
		if p.EndDate.IsZero() {
			r.InvalidDates = append(r.InvalidDates, p.ID)
			continue
		}
		if !p.EndDate.Before(now) {
			continue
		}
		r.Delayed = append(r.Delayed, Delayed{
			PhaseID: p.ID,
			Name:    p.DisplayName(),
			Days:    Days(now.Sub(p.EndDate)),
			EndDate: p.EndDate,
		})
	}
	return r
}

// Days converts an overrun to whole days, rounding up, minimum 1.
func Days(overrun time.Duration) int {
	days := int(math.Ceil(float64(overrun) / float64(day)))
	if days < 1 {
		return 1
	}
	return days
}
