// Package history keeps an append-only log of cascade reports.
package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/joshharrison/phaseline/internal/report"
)

const (
	historyFile = "history.jsonl"
	lockFile    = "history.lock"
	retryDelay  = 50 * time.Millisecond
	lockTimeout = 5 * time.Second
)

var (
	// ErrLocked is returned when another process held the lock for the
	// whole lock timeout.
	ErrLocked = errors.New("history is locked by another process")
	// ErrNotFound is returned when a project has no stored report.
	ErrNotFound = errors.New("no stored report")
)

// Entry is one line of the history file.
type Entry struct {
	Project    string                `json:"project"`
	AnalyzedAt time.Time             `json:"analyzedAt"`
	Report     *report.CascadeReport `json:"report"`
}

// Store appends and reads entries under a directory.
type Store struct {
	dir string
}

// Open creates dir if needed and returns a Store rooted there.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the history file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, historyFile)
}

// Append writes e as one JSON line under an exclusive lock.
func (s *Store) Append(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	// A Flock per call; one shared instance reports itself locked to
	// every goroutine once any of them holds it.
	lock := flock.New(filepath.Join(s.dir, lockFile))
	locked, err := lock.TryLockContext(ctx, retryDelay)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("acquire history lock: %w", err)
	}
	if !locked {
		return ErrLocked
	}
	defer lock.Unlock()

	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return f.Sync()
}

// List returns entries in file order. An empty project matches all.
// Lines that do not decode are skipped.
func (s *Store) List(ctx context.Context, project string) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	lock := flock.New(filepath.Join(s.dir, lockFile))
	locked, err := lock.TryRLockContext(ctx, retryDelay)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("acquire history lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}
	defer lock.Unlock()

	f, err := os.Open(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		if project == "" || e.Project == project {
			entries = append(entries, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return entries, nil
}

// Latest returns the last entry for project.
func (s *Store) Latest(ctx context.Context, project string) (Entry, error) {
	entries, err := s.List(ctx, project)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, fmt.Errorf("%w for project %q", ErrNotFound, project)
	}
	return entries[len(entries)-1], nil
}
