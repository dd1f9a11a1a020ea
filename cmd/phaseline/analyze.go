package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joshharrison/phaseline/internal/config"
	"github.com/joshharrison/phaseline/internal/history"
	"github.com/joshharrison/phaseline/internal/phase"
	"github.com/joshharrison/phaseline/internal/report"
	"github.com/joshharrison/phaseline/internal/reporter"
	"github.com/joshharrison/phaseline/internal/ui"
)

// analysis is the outcome of analyzing one input file.
type analysis struct {
	path       string
	project    string
	analyzedAt time.Time
	report     *report.CascadeReport
	names      map[string]string
}

func (a *analysis) reporter() *reporter.Reporter {
	return reporter.New(a.project, a.report, a.analyzedAt, a.names)
}

type analyzeFlags struct {
	advisor     string
	model       string
	timeout     string
	template    string
	project     string
	save        bool
	watch       bool
	maxParallel int
}

func analyzeCmd() *cobra.Command {
	var f analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze [file...]",
		Short: "Analyze phase files for delays and their cascade",
		Long: `Analyze reads one or more phase files (JSON array, {"phases": [...]}, or a
project document) and prints the delayed phases, the impacted downstream phases
and recommendations. With no file, or "-", phases are read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"-"}
			}
			if f.project != "" && len(args) > 1 {
				return fmt.Errorf("--project applies to a single file")
			}
			if f.watch && slices.Contains(args, "-") {
				return fmt.Errorf("--watch needs file arguments, not stdin")
			}

			e, err := setup()
			if err != nil {
				return err
			}
			if err := f.apply(&e.cfg); err != nil {
				return err
			}

			r, err := newRunner(e, f)
			if err != nil {
				return err
			}

			if err := r.runAll(cmd.Context(), args); err != nil {
				return err
			}
			if f.watch {
				return r.watch(cmd.Context(), args)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&f.advisor, "advisor", "", "Advisor provider: none or claude (default from config)")
	cmd.Flags().StringVar(&f.model, "model", "", "Claude model for the claude advisor")
	cmd.Flags().StringVar(&f.timeout, "timeout", "", "Advisor timeout, e.g. 20s")
	cmd.Flags().StringVar(&f.template, "template", "", "Custom recommendation template path")
	cmd.Flags().StringVar(&f.project, "project", "", "Project name (default: document id or file name)")
	cmd.Flags().BoolVar(&f.save, "save", false, "Append the report to history")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "Re-analyze when a file changes")
	cmd.Flags().IntVar(&f.maxParallel, "max-parallel", 4, "Max files analyzed concurrently")

	return cmd
}

// apply lets command line flags override the configuration.
func (f analyzeFlags) apply(cfg *config.Config) error {
	if f.advisor != "" {
		cfg.Advisor.Provider = f.advisor
	}
	if f.model != "" {
		cfg.Advisor.Model = f.model
	}
	if f.timeout != "" {
		cfg.Advisor.Timeout = f.timeout
	}
	if f.template != "" {
		cfg.Advisor.TemplatePath = f.template
	}
	return cfg.Validate()
}

// runner analyzes files and renders the results.
type runner struct {
	env   *env
	flags analyzeFlags
	opts  []report.Option
	store *history.Store
	outMu sync.Mutex
}

func newRunner(e *env, f analyzeFlags) (*runner, error) {
	opts, err := e.analysisOptions()
	if err != nil {
		return nil, err
	}
	r := &runner{env: e, flags: f, opts: opts}
	if f.save {
		if r.store, err = e.openHistory(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// analyzeFile loads and analyzes one file at the given instant.
func (r *runner) analyzeFile(ctx context.Context, path string, now time.Time) (*analysis, error) {
	doc, err := phase.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	rep, err := report.AnalyzeDocument(ctx, doc, now, r.opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	a := &analysis{
		path:       path,
		project:    projectName(r.flags.project, doc, path),
		analyzedAt: now,
		report:     rep,
		names:      make(map[string]string, len(doc.Phases)),
	}
	for _, p := range doc.Phases {
		a.names[p.ID] = p.DisplayName()
	}

	if r.store != nil && rep.Error == "" {
		entry := history.Entry{Project: a.project, AnalyzedAt: now, Report: rep}
		if err := r.store.Append(ctx, entry); err != nil {
			return nil, fmt.Errorf("save %s: %w", a.project, err)
		}
	}
	return a, nil
}

// runAll analyzes every file concurrently and prints results in argument
// order (JSON) or as each finishes (text, prefixed per project).
func (r *runner) runAll(ctx context.Context, paths []string) error {
	now, err := r.env.now()
	if err != nil {
		return err
	}

	if len(paths) == 1 {
		a, err := r.analyzeFile(ctx, paths[0], now)
		if err != nil {
			return err
		}
		return r.print(a)
	}

	results := make([]*analysis, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.flags.maxParallel, 1))
	for i, path := range paths {
		g.Go(func() error {
			a, err := r.analyzeFile(gctx, path, now)
			if err != nil {
				return err
			}
			results[i] = a
			if !flagJSON {
				r.printPrefixed(a)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if flagJSON {
		out := make([]json.RawMessage, len(results))
		for i, a := range results {
			data, err := a.reporter().JSON()
			if err != nil {
				return err
			}
			out[i] = data
		}
		return outputJSON(out)
	}
	return nil
}

func (r *runner) print(a *analysis) error {
	if flagJSON {
		data, err := a.reporter().JSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	a.reporter().PrintReport(os.Stdout)
	return nil
}

func (r *runner) printPrefixed(a *analysis) {
	var buf bytes.Buffer
	a.reporter().PrintReport(&buf)
	buf.WriteString("\n")

	pw := ui.NewPrefixWriter(a.project, os.Stdout, &r.outMu)
	pw.Write(buf.Bytes())
	pw.Flush()
}

func projectName(flag string, doc *phase.Document, path string) string {
	switch {
	case flag != "":
		return flag
	case doc.ProjectID != "":
		return doc.ProjectID
	case path == "-":
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
