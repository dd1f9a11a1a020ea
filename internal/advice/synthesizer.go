package advice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultTimeout bounds a single advisor call.
const DefaultTimeout = 20 * time.Second

// Source names which advisor produced a Result.
type Source string

const (
	SourceTemplate Source = "template"
	SourceAdvisor  Source = "advisor"
)

// Result is the advice actually used in a report.
type Result struct {
	Advice
	Source Source
	// Warning is set when the external advisor failed and the template
	// was used instead.
	Warning string
}

// Synthesizer runs an optional external advisor with a timeout and falls
// back to a template advisor on any failure.
type Synthesizer struct {
	advisor  Advisor
	fallback *TemplateAdvisor
	timeout  time.Duration
	logger   *slog.Logger
}

// NewSynthesizer returns a Synthesizer. A nil advisor always uses the
// fallback; nil fallback means the built-in template; a non-positive
// timeout means DefaultTimeout.
func NewSynthesizer(advisor Advisor, fallback *TemplateAdvisor, timeout time.Duration, logger *slog.Logger) *Synthesizer {
	if fallback == nil {
		fallback = DefaultTemplateAdvisor()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{advisor: advisor, fallback: fallback, timeout: timeout, logger: logger}
}

// Synthesize produces advice for in. It never fails: template rendering
// errors degrade to a minimal summary.
func (s *Synthesizer) Synthesize(ctx context.Context, in Input) Result {
	if s.advisor != nil {
		adv, err := s.callAdvisor(ctx, in)
		if err == nil {
			return Result{Advice: adv, Source: SourceAdvisor}
		}
		s.logger.Warn("advisor failed, using template", "error", err)
		res := s.template(ctx, in)
		res.Warning = err.Error()
		return res
	}
	return s.template(ctx, in)
}

func (s *Synthesizer) template(ctx context.Context, in Input) Result {
	adv, err := s.fallback.Generate(ctx, in)
	if err != nil {
		s.logger.Warn("advice template failed", "error", err)
		adv = Advice{Summary: fmt.Sprintf("%d delayed phases affect %d downstream phases.", len(in.Delayed), len(in.Impacted))}
	}
	return Result{Advice: adv, Source: SourceTemplate}
}

type outcome struct {
	advice Advice
	err    error
}

// callAdvisor bounds the advisor with the timeout. The result is discarded
// if the deadline passes first, whether or not the advisor honours ctx.
func (s *Synthesizer) callAdvisor(ctx context.Context, in Input) (Advice, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("advisor panicked: %v", r)}
			}
		}()
		adv, err := s.advisor.Generate(ctx, in)
		done <- outcome{advice: adv, err: err}
	}()

	select {
	case <-ctx.Done():
		return Advice{}, fmt.Errorf("%w: %w", ErrAdvisoryUnavailable, ctx.Err())
	case out := <-done:
		if out.err != nil {
			return Advice{}, fmt.Errorf("%w: %w", ErrAdvisoryUnavailable, out.err)
		}
		if len(out.advice.Recommendations) == 0 && out.advice.Summary == "" {
			return Advice{}, fmt.Errorf("%w: %w", ErrAdvisoryUnavailable, errEmptyAdvice)
		}
		return out.advice, nil
	}
}

var errEmptyAdvice = errors.New("advisor returned no recommendations")
