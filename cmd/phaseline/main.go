package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshharrison/phaseline/internal/advice"
	"github.com/joshharrison/phaseline/internal/claude"
	"github.com/joshharrison/phaseline/internal/config"
	"github.com/joshharrison/phaseline/internal/history"
	"github.com/joshharrison/phaseline/internal/report"
	"github.com/joshharrison/phaseline/internal/reporter"
	"github.com/joshharrison/phaseline/internal/server"
	"github.com/joshharrison/phaseline/internal/ui"
)

var (
	flagConfig    string
	flagJSON      bool
	flagLogLevel  string
	flagLogFormat string
	flagNow       string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "phaseline",
		Short: "Trace how construction phase delays cascade through a schedule",
		Long: `Phaseline reads a project's phases with their dates, status and dependencies,
finds the phases that are running late, and propagates the delay through explicit
dependencies and standard construction sequencing to score every downstream phase
by risk. Recommendations come from a built-in template or, optionally, Claude.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default phaseline.yaml if present)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&flagNow, "now", "", "Reference time as RFC3339 or YYYY-MM-DD (default: current time)")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(graphCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(historyCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// env is what every command needs after flag parsing.
type env struct {
	cfg    config.Config
	logger *slog.Logger
}

func setup() (*env, error) {
	logger := newLogger(flagLogLevel, flagLogFormat, os.Stderr)
	slog.SetDefault(logger)

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger}, nil
}

// now returns the reference time: --now when given, otherwise the clock.
func (e *env) now() (time.Time, error) {
	if flagNow == "" {
		return time.Now().UTC(), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, flagNow); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("--now %q is not RFC3339 or YYYY-MM-DD", flagNow)
}

// analysisOptions turns configuration into report options.
func (e *env) analysisOptions() ([]report.Option, error) {
	opts := []report.Option{
		report.WithCategories(e.cfg.ToCategories()),
		report.WithPolicy(e.cfg.RiskPolicy()),
		report.WithAdvisorTimeout(e.cfg.AdvisorTimeout()),
		report.WithLogger(e.logger),
	}

	if e.cfg.Advisor.TemplatePath != "" {
		tmpl, err := advice.NewTemplateAdvisor(e.cfg.Advisor.TemplatePath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, report.WithTemplate(tmpl))
	}

	if a := e.advisor(); a != nil {
		opts = append(opts, report.WithAdvisor(a))
	}
	return opts, nil
}

// advisor returns the configured external advisor, or nil for the
// template. A misconfigured advisor degrades to the template.
func (e *env) advisor() advice.Advisor {
	if e.cfg.Advisor.Provider != config.ProviderClaude {
		return nil
	}
	c, err := claude.NewClient(os.Getenv(e.cfg.Advisor.APIKeyEnv), e.cfg.Advisor.Model)
	if err != nil {
		e.logger.Warn("claude advisor disabled, using template", "error", err)
		return nil
	}
	e.logger.Debug("claude advisor enabled", "model", c.Model())
	return c
}

func (e *env) openHistory() (*history.Store, error) {
	return history.Open(e.cfg.History.Dir)
}

func serveCmd() *cobra.Command {
	var flagAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			opts, err := e.analysisOptions()
			if err != nil {
				return err
			}
			store, err := e.openHistory()
			if err != nil {
				return err
			}

			addr := e.cfg.Server.Addr
			if flagAddr != "" {
				addr = flagAddr
			}

			srv := server.New(server.Options{
				Analyze: opts,
				Store:   store,
				Logger:  e.logger,
			})
			if !flagJSON {
				ui.PrintLogo(os.Stderr)
				fmt.Fprintf(os.Stderr, "🌐 Serving on %s\n", ui.BoldCyan(addr))
			}
			return server.ListenAndServe(cmd.Context(), addr, srv.Handler(), e.logger)
		},
	}

	cmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default from config, :8080)")

	return cmd
}

func historyCmd() *cobra.Command {
	var (
		flagProject string
		flagLimit   int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored analyses",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			store, err := e.openHistory()
			if err != nil {
				return err
			}

			entries, err := store.List(cmd.Context(), flagProject)
			if err != nil {
				return err
			}
			if flagLimit > 0 && len(entries) > flagLimit {
				entries = entries[len(entries)-flagLimit:]
			}

			if flagJSON {
				if entries == nil {
					entries = []history.Entry{}
				}
				return outputJSON(entries)
			}
			reporter.PrintHistory(os.Stdout, entries)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagProject, "project", "", "Only show this project")
	cmd.Flags().IntVar(&flagLimit, "limit", 20, "Show at most this many recent entries (0 for all)")

	return cmd
}

// --- Output helpers ---

func outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
