package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 250 * time.Millisecond

// watch re-analyzes a file whenever it is written, until ctx is done.
// Parent directories are watched so editors that replace files on save
// are still seen.
func (r *runner) watch(ctx context.Context, paths []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	tracked := make(map[string]string, len(paths)) // abs path -> argument
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		tracked[abs] = p
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	r.env.logger.Info("watching for changes", "files", len(paths))
	fmt.Fprintln(os.Stderr, "👀 Watching for changes (Ctrl-C to stop)")

	pending := make(map[string]bool)
	timer := time.NewTimer(watchDebounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			arg, ok := tracked[filepath.Clean(event.Name)]
			if !ok {
				continue
			}
			r.env.logger.Debug("fsnotify event", "op", event.Op.String(), "file", event.Name)
			pending[arg] = true
			timer.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.env.logger.Warn("fsnotify error", "error", err)

		case <-timer.C:
			for arg := range pending {
				r.rerun(ctx, arg)
			}
			clear(pending)
		}
	}
}

// rerun analyzes one changed file and prints a short summary. Errors are
// printed, not returned, so a half-saved file does not stop the watch.
func (r *runner) rerun(ctx context.Context, path string) {
	now, err := r.env.now()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	a, err := r.analyzeFile(ctx, path, now)
	if err != nil {
		r.env.logger.Warn("re-analysis failed", "file", path, "error", err)
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		return
	}
	if flagJSON {
		if err := r.print(a); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		return
	}
	fmt.Printf("%s %s\n", a.project, a.reporter().Summary())
}
