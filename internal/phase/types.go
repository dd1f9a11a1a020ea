package phase

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a construction phase.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
)

// ParseStatus maps the spellings seen in hand-entered schedules
// ("In Progress", "in_progress", "done", ...) onto a Status.
// Unknown values map to StatusPending and ok=false.
func ParseStatus(s string) (status Status, ok bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(norm)

	switch norm {
	case "pending", "notstarted", "planned":
		return StatusPending, true
	case "inprogress", "active", "started":
		return StatusInProgress, true
	case "completed", "complete", "done":
		return StatusCompleted, true
	}
	return StatusPending, false
}

// Phase is a schedulable unit of construction work.
type Phase struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	Status       Status    `json:"status"`
	Dependencies []string  `json:"dependencies,omitempty"`
}

// DisplayName returns the phase name, falling back to its id.
func (p Phase) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// InvalidInputError reports a payload that does not carry a phase list.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}
