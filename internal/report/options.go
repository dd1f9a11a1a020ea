package report

import (
	"log/slog"
	"time"

	"github.com/joshharrison/phaseline/internal/advice"
	"github.com/joshharrison/phaseline/internal/cascade"
	"github.com/joshharrison/phaseline/internal/graph"
)

type settings struct {
	advisor        advice.Advisor
	template       *advice.TemplateAdvisor
	categories     graph.Categories
	policy         cascade.Policy
	advisorTimeout time.Duration
	logger         *slog.Logger
}

// Option configures an analysis.
type Option func(*settings)

// WithAdvisor plugs an external advisor in front of the template.
func WithAdvisor(a advice.Advisor) Option {
	return func(s *settings) { s.advisor = a }
}

// WithTemplate replaces the built-in advice template.
func WithTemplate(t *advice.TemplateAdvisor) Option {
	return func(s *settings) { s.template = t }
}

// WithCategories replaces the implicit sequencing table. An empty table
// disables implicit sequencing.
func WithCategories(c graph.Categories) Option {
	return func(s *settings) {
		if c == nil {
			c = graph.Categories{}
		}
		s.categories = c
	}
}

// WithPolicy overrides the risk thresholds.
func WithPolicy(p cascade.Policy) Option {
	return func(s *settings) { s.policy = p }
}

// WithAdvisorTimeout bounds the external advisor call.
func WithAdvisorTimeout(d time.Duration) Option {
	return func(s *settings) { s.advisorTimeout = d }
}

// WithLogger sets the logger for warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

func newSettings(opts []Option) *settings {
	s := &settings{
		categories:     graph.DefaultCategories(),
		policy:         cascade.DefaultPolicy(),
		advisorTimeout: advice.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}
