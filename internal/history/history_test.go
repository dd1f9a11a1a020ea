package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshharrison/phaseline/internal/report"
)

var analyzedAt = time.Date(2026, 10, 14, 8, 30, 0, 0, time.UTC)

func entry(project string, delayed ...string) Entry {
	return Entry{
		Project:    project,
		AnalyzedAt: analyzedAt,
		Report: &report.CascadeReport{
			DelayedPhases:   delayed,
			Recommendations: []string{"Add a crew"},
			CascadeImpact:   "summary",
		},
	}
}

func TestAppendAndList(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "hist"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, entry("tower", "fnd")))
	require.NoError(t, s.Append(ctx, entry("villa", "skl")))
	require.NoError(t, s.Append(ctx, entry("tower", "plb")))

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	tower, err := s.List(ctx, "tower")
	require.NoError(t, err)
	require.Len(t, tower, 2)
	assert.Equal(t, []string{"fnd"}, tower[0].Report.DelayedPhases)
	assert.True(t, analyzedAt.Equal(tower[0].AnalyzedAt))
}

func TestLatest(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, entry("tower", "fnd")))
	require.NoError(t, s.Append(ctx, entry("tower", "plb")))

	latest, err := s.Latest(ctx, "tower")
	require.NoError(t, err)
	assert.Equal(t, []string{"plb"}, latest.Report.DelayedPhases)

	_, err = s.Latest(ctx, "villa")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_EmptyStore(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	entries, err := s.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestList_SkipsCorruptLines(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, entry("tower", "fnd")))
	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{truncated\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, s.Append(ctx, entry("tower", "skl")))

	entries, err := s.List(ctx, "tower")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestAppend_LockedByAnotherHolder(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	other := flock.New(filepath.Join(dir, lockFile))
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer other.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err = s.Append(ctx, entry("tower", "fnd"))
	assert.ErrorIs(t, err, ErrLocked)
}
