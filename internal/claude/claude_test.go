package claude

import (
	"strings"
	"testing"

	"github.com/joshharrison/phaseline/internal/advice"
	"github.com/joshharrison/phaseline/internal/cascade"
	"github.com/joshharrison/phaseline/internal/delay"
)

func TestStripJSONFences_Clean(t *testing.T) {
	input := `{"recommendations": [], "cascadeImpact": "none"}`
	got := stripJSONFences(input)
	if got != input {
		t.Errorf("expected unchanged, got %q", got)
	}
}

func TestStripJSONFences_WithJSONTag(t *testing.T) {
	input := "```json\n{\"recommendations\": []}\n```"
	got := stripJSONFences(input)
	if got != `{"recommendations": []}` {
		t.Errorf("expected clean JSON, got %q", got)
	}
}

func TestStripJSONFences_WithPlainFence(t *testing.T) {
	input := "```\n{\"recommendations\": []}\n```"
	got := stripJSONFences(input)
	if got != `{"recommendations": []}` {
		t.Errorf("expected clean JSON, got %q", got)
	}
}

func TestBuildPrompt_ContainsAnalysis(t *testing.T) {
	prompt, err := buildPrompt(advice.Input{
		Delayed: []delay.Delayed{{PhaseID: "fnd", Name: "Foundation", Days: 10}},
		Impacted: []cascade.ImpactedPhase{
			{PhaseID: "skl", PhaseName: "Skeleton", RiskLevel: cascade.RiskHigh, EstimatedDelay: 10},
		},
		CriticalPath: []string{"fnd", "skl"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{`"delayDays": 10`, `"Foundation"`, `"phaseName": "Skeleton"`, `"riskLevel": "high"`, `"criticalPath"`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %s", want)
		}
	}
}

func TestBuildPrompt_NoImpacted(t *testing.T) {
	prompt, err := buildPrompt(advice.Input{
		Delayed: []delay.Delayed{{PhaseID: "fnd", Name: "Foundation", Days: 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(prompt, `"impactedPhases": []`) {
		t.Errorf("expected empty impacted list, got %s", prompt)
	}
	if strings.Contains(prompt, "criticalPath") {
		t.Error("empty critical path should be omitted")
	}
}

func TestParseAdvice(t *testing.T) {
	raw := "```json\n" + `{
		"recommendations": ["Add a second crew", "  ", "Pre-order rebar"],
		"cascadeImpact": " Finishes slip by ten days. "
	}` + "\n```"

	got, err := parseAdvice(raw)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(got.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(got.Recommendations))
	}
	if got.Recommendations[1] != "Pre-order rebar" {
		t.Errorf("unexpected recommendation: %s", got.Recommendations[1])
	}
	if got.Summary != "Finishes slip by ten days." {
		t.Errorf("unexpected summary: %q", got.Summary)
	}
}

func TestParseAdvice_NotJSON(t *testing.T) {
	if _, err := parseAdvice("I think you should hurry."); err == nil {
		t.Fatal("expected error for prose response")
	}
}

func TestNewClient_MissingKey(t *testing.T) {
	t.Setenv(DefaultAPIKeyEnv, "")
	if _, err := NewClient("", ""); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestNewClient_ModelOverride(t *testing.T) {
	c, err := NewClient("sk-test", "claude-haiku-4-5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Model() != "claude-haiku-4-5" {
		t.Errorf("unexpected model %s", c.Model())
	}
}
