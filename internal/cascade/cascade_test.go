package cascade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshharrison/phaseline/internal/delay"
	"github.com/joshharrison/phaseline/internal/graph"
	"github.com/joshharrison/phaseline/internal/phase"
)

var now = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

// ph builds a phase ending endOffset days from now.
func ph(id, name string, status phase.Status, endOffset int, deps ...string) phase.Phase {
	return phase.Phase{
		ID:           id,
		Name:         name,
		Status:       status,
		StartDate:    now.AddDate(0, 0, endOffset-30),
		EndDate:      now.AddDate(0, 0, endOffset),
		Dependencies: deps,
	}
}

func run(phases []phase.Phase, cats graph.Categories) *Result {
	g := graph.Build(phases, cats)
	d := delay.Detect(g.Phases(), now)
	return Propagate(g, d.Delayed, DefaultPolicy())
}

func TestPropagate_DirectDependentIsHigh(t *testing.T) {
	result := run([]phase.Phase{
		ph("fnd", "Foundation", phase.StatusInProgress, -10),
		ph("skl", "Skeleton", phase.StatusPending, 20, "fnd"),
	}, nil)

	require.Len(t, result.Impacted, 1)
	got := result.Impacted[0]
	assert.Equal(t, "skl", got.PhaseID)
	assert.Equal(t, "Skeleton", got.PhaseName)
	assert.Equal(t, RiskHigh, got.RiskLevel)
	assert.Equal(t, 10, got.EstimatedDelay)
	assert.Equal(t, "Depends on Foundation, delayed by 10 days", got.Reason)
}

func TestPropagate_ChainDepthTwoSmallDelay(t *testing.T) {
	result := run([]phase.Phase{
		ph("fnd", "Foundation", phase.StatusInProgress, -2),
		ph("skl", "Skeleton", phase.StatusPending, 20, "fnd"),
		ph("fin", "Finishes", phase.StatusPending, 60, "skl"),
	}, nil)

	skl, ok := result.Get("skl")
	require.True(t, ok)
	assert.Equal(t, RiskHigh, skl.RiskLevel, "direct dependent is high regardless of delay")
	assert.Equal(t, 2, skl.EstimatedDelay)

	fin, ok := result.Get("fin")
	require.True(t, ok)
	assert.Equal(t, RiskLow, fin.RiskLevel)
	assert.Equal(t, 2, fin.EstimatedDelay)
	assert.Equal(t, "Depends on Skeleton, delayed by 2 days", fin.Reason)
}

func TestPropagate_DepthBands(t *testing.T) {
	// a(delayed 5) -> b -> c -> d
	result := run([]phase.Phase{
		ph("a", "A", phase.StatusInProgress, -5),
		ph("b", "B", phase.StatusPending, 10, "a"),
		ph("c", "C", phase.StatusPending, 20, "b"),
		ph("d", "D", phase.StatusPending, 30, "c"),
	}, nil)

	levels := map[string]RiskLevel{}
	for _, ip := range result.Impacted {
		levels[ip.PhaseID] = ip.RiskLevel
		assert.Equal(t, 5, ip.EstimatedDelay, "no decay by depth")
	}
	assert.Equal(t, map[string]RiskLevel{"b": RiskHigh, "c": RiskMedium, "d": RiskLow}, levels)
}

func TestPropagate_LargeDelayHighAtAnyDepth(t *testing.T) {
	result := run([]phase.Phase{
		ph("a", "A", phase.StatusInProgress, -9),
		ph("b", "B", phase.StatusPending, 10, "a"),
		ph("c", "C", phase.StatusPending, 20, "b"),
		ph("d", "D", phase.StatusPending, 30, "c"),
	}, nil)

	for _, ip := range result.Impacted {
		assert.Equal(t, RiskHigh, ip.RiskLevel, ip.PhaseID)
	}
}

func TestPropagate_InheritsMaximumDelay(t *testing.T) {
	result := run([]phase.Phase{
		ph("elc", "Electrical", phase.StatusInProgress, -4),
		ph("plb", "Plumbing", phase.StatusInProgress, -12),
		ph("fin", "Finishes", phase.StatusPending, 40, "elc", "plb"),
	}, nil)

	fin, ok := result.Get("fin")
	require.True(t, ok)
	assert.Equal(t, 12, fin.EstimatedDelay)
	assert.Equal(t, RiskHigh, fin.RiskLevel)
	assert.Equal(t, "Depends on Plumbing, delayed by 12 days", fin.Reason)
}

func TestPropagate_LargerDelayThroughLongerPath(t *testing.T) {
	// a(2) -> x ; b(6) -> m -> x
	result := run([]phase.Phase{
		ph("a", "A", phase.StatusInProgress, -2),
		ph("b", "B", phase.StatusInProgress, -6),
		ph("m", "M", phase.StatusPending, 5, "b"),
		ph("x", "X", phase.StatusPending, 30, "a", "m"),
	}, nil)

	x, ok := result.Get("x")
	require.True(t, ok)
	assert.Equal(t, 6, x.EstimatedDelay)
	assert.Equal(t, RiskHigh, x.RiskLevel)
	assert.Contains(t, x.Reason, "M")
}

func TestPropagate_CompletedPhasesBlockAndAreExcluded(t *testing.T) {
	result := run([]phase.Phase{
		ph("a", "A", phase.StatusInProgress, -5),
		ph("b", "B", phase.StatusCompleted, 10, "a"),
		ph("c", "C", phase.StatusPending, 20, "b"),
	}, nil)

	assert.Empty(t, result.Impacted)
}

func TestPropagate_DelayedPhasesAreNotImpacted(t *testing.T) {
	result := run([]phase.Phase{
		ph("a", "A", phase.StatusInProgress, -8),
		ph("b", "B", phase.StatusInProgress, -1, "a"),
		ph("c", "C", phase.StatusPending, 20, "b"),
	}, nil)

	_, ok := result.Get("b")
	assert.False(t, ok)

	c, ok := result.Get("c")
	require.True(t, ok)
	assert.Equal(t, 8, c.EstimatedDelay, "a delayed source passes on the larger inherited delay")
	assert.Equal(t, RiskHigh, c.RiskLevel)
}

func TestPropagate_ImplicitReason(t *testing.T) {
	result := run([]phase.Phase{
		ph("fnd", "Foundation", phase.StatusInProgress, -3),
		ph("skl", "Skeleton frame", phase.StatusPending, 20),
	}, graph.DefaultCategories())

	skl, ok := result.Get("skl")
	require.True(t, ok)
	assert.Equal(t, "Follows Foundation in standard sequencing", skl.Reason)
	assert.Equal(t, RiskHigh, skl.RiskLevel)
}

func TestPropagate_CycleTerminates(t *testing.T) {
	result := run([]phase.Phase{
		ph("a", "A", phase.StatusInProgress, -4, "b"),
		ph("b", "B", phase.StatusPending, 10, "a"),
		ph("c", "C", phase.StatusPending, 10, "b", "c"),
	}, nil)

	assert.NotNil(t, result)
	for _, ip := range result.Impacted {
		assert.NotEqual(t, "a", ip.PhaseID)
	}
}

func TestPropagate_DanglingReferenceMatchesAbsent(t *testing.T) {
	with := run([]phase.Phase{
		ph("a", "A", phase.StatusInProgress, -4),
		ph("b", "B", phase.StatusPending, 10, "a", "ghost"),
	}, nil)
	without := run([]phase.Phase{
		ph("a", "A", phase.StatusInProgress, -4),
		ph("b", "B", phase.StatusPending, 10, "a"),
	}, nil)

	assert.Equal(t, without.Impacted, with.Impacted)
}

func TestPropagate_RiskNeverDropsWithExtraDelayedPredecessor(t *testing.T) {
	base := []phase.Phase{
		ph("a", "A", phase.StatusInProgress, -3),
		ph("m1", "M1", phase.StatusPending, 5, "a"),
		ph("m2", "M2", phase.StatusPending, 6, "m1"),
		ph("x", "X", phase.StatusPending, 30, "m2"),
	}
	before := run(base, nil)

	extended := append([]phase.Phase{}, base...)
	extended = append(extended, ph("b", "B", phase.StatusInProgress, -5))
	extended[3].Dependencies = []string{"m2", "b"}
	after := run(extended, nil)

	for _, ip := range before.Impacted {
		got, ok := after.Get(ip.PhaseID)
		require.True(t, ok, ip.PhaseID)
		assert.GreaterOrEqual(t, got.RiskLevel.Rank(), ip.RiskLevel.Rank(), ip.PhaseID)
		assert.GreaterOrEqual(t, got.EstimatedDelay, ip.EstimatedDelay, ip.PhaseID)
	}
	x, _ := after.Get("x")
	assert.Equal(t, RiskHigh, x.RiskLevel)
}

func TestPropagate_NoDelays(t *testing.T) {
	result := run([]phase.Phase{
		ph("a", "A", phase.StatusPending, 5),
		ph("b", "B", phase.StatusPending, 10, "a"),
	}, nil)
	assert.Empty(t, result.Impacted)
}

func TestPolicy_Classify(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		name   string
		direct bool
		depth  int
		delay  int
		want   RiskLevel
	}{
		{"direct small delay", true, 1, 1, RiskHigh},
		{"indirect at threshold", false, 4, 7, RiskHigh},
		{"depth two medium band", false, 2, 3, RiskMedium},
		{"depth two upper medium", false, 2, 6, RiskMedium},
		{"depth two small delay", false, 2, 2, RiskLow},
		{"depth three medium delay", false, 3, 5, RiskLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Classify(tt.direct, tt.depth, tt.delay))
		})
	}
}
