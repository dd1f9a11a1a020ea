// Package claude implements advice.Advisor on the Anthropic Messages API.
package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joshharrison/phaseline/internal/advice"
)

// DefaultAPIKeyEnv is read when no key is passed to NewClient.
const DefaultAPIKeyEnv = "ANTHROPIC_API_KEY"

// Client wraps the Anthropic SDK for Claude API calls.
type Client struct {
	inner anthropic.Client
	model anthropic.Model
}

var _ advice.Advisor = (*Client)(nil)

// NewClient creates a Claude client. apiKey defaults to ANTHROPIC_API_KEY env.
// model defaults to Claude Sonnet.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv(DefaultAPIKeyEnv)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%s not set", DefaultAPIKeyEnv)
	}

	inner := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(1),
	)

	m := anthropic.ModelClaudeSonnet4_6
	if model != "" {
		m = anthropic.Model(model)
	}

	return &Client{inner: inner, model: m}, nil
}

// Model returns the model the client calls.
func (c *Client) Model() string {
	return string(c.model)
}

const systemPrompt = `You are a construction scheduling expert. A deterministic engine has already
identified the delayed phases of a project and the downstream phases exposed to the delay,
with risk levels and estimated slips. Do not change those facts.

Typical sequencing is Foundation, then Skeleton, then Plumbing and Electrical in parallel, then Finishes.

Provide 3 specific, actionable mitigation strategies and a one-sentence summary
of the overall project impact. Reference local building standards where applicable.

Return your answer as JSON with this exact structure:
{
  "recommendations": ["<recommendation>", "<recommendation>", "<recommendation>"],
  "cascadeImpact": "<one sentence summary>"
}

Return ONLY the JSON object. No markdown fences, no commentary outside the JSON.`

type delayedView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Days int    `json:"delayDays"`
}

type promptInput struct {
	Delayed      []delayedView `json:"delayedPhases"`
	Impacted     any           `json:"impactedPhases"`
	CriticalPath []string      `json:"criticalPath,omitempty"`
}

// buildPrompt renders the analysis facts as the user message.
func buildPrompt(in advice.Input) (string, error) {
	view := promptInput{
		Delayed:      make([]delayedView, len(in.Delayed)),
		Impacted:     in.Impacted,
		CriticalPath: in.CriticalPath,
	}
	for i, d := range in.Delayed {
		view.Delayed[i] = delayedView{ID: d.PhaseID, Name: d.Name, Days: d.Days}
	}
	if in.Impacted == nil {
		view.Impacted = []struct{}{}
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal analysis: %w", err)
	}
	return "Here is the analysis:\n" + string(data), nil
}

// Generate calls the Claude API for recommendations.
func (c *Client) Generate(ctx context.Context, in advice.Input) (advice.Advice, error) {
	prompt, err := buildPrompt(in)
	if err != nil {
		return advice.Advice{}, err
	}

	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(1024),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return advice.Advice{}, fmt.Errorf("claude API call: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return parseAdvice(text)
}

// parseAdvice decodes the model's JSON answer, dropping blank entries.
func parseAdvice(text string) (advice.Advice, error) {
	text = stripJSONFences(text)

	var raw advice.Advice
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return advice.Advice{}, fmt.Errorf("parse claude response: %w\nraw: %s", err, text)
	}

	out := advice.Advice{Summary: strings.TrimSpace(raw.Summary)}
	for _, r := range raw.Recommendations {
		if r = strings.TrimSpace(r); r != "" {
			out.Recommendations = append(out.Recommendations, r)
		}
	}
	return out, nil
}

// stripJSONFences removes markdown code fences that Claude sometimes adds.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
