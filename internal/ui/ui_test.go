package ui

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
)

func TestPrefixWriter_PrefixesCompleteLines(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	var mu sync.Mutex
	pw := NewPrefixWriter("tower", &out, &mu)

	pw.Write([]byte("first\nsec"))
	pw.Write([]byte("ond\npartial"))
	if got := out.String(); got != "[tower] first\n[tower] second\n" {
		t.Fatalf("unexpected output %q", got)
	}

	if err := pw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if !strings.HasSuffix(out.String(), "[tower] partial\n") {
		t.Errorf("expected flushed partial line, got %q", out.String())
	}
}

func TestPrefix_StableColor(t *testing.T) {
	if projectColorIndex("tower") != projectColorIndex("tower") {
		t.Error("color index should be stable")
	}
}

func TestRiskBadge(t *testing.T) {
	color.NoColor = true
	tests := map[string]string{"high": "HIGH", "medium": "MEDIUM", "low": "LOW", "": "-"}
	for level, want := range tests {
		if got := strings.TrimSpace(RiskBadge(level)); got != want {
			t.Errorf("RiskBadge(%q) = %q, want %q", level, got, want)
		}
	}
}

func TestDelayBadge(t *testing.T) {
	color.NoColor = true
	if got := DelayBadge(1); got != "+1 day" {
		t.Errorf("got %q", got)
	}
	if got := DelayBadge(12); got != "+12 days" {
		t.Errorf("got %q", got)
	}
}
