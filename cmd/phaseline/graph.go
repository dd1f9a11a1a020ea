package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshharrison/phaseline/internal/phase"
	"github.com/joshharrison/phaseline/internal/report"
	"github.com/joshharrison/phaseline/internal/reporter"
)

func graphCmd() *cobra.Command {
	var flagFormat string

	cmd := &cobra.Command{
		Use:   "graph <file>",
		Short: "Show the phase dependency graph",
		Long: `Graph prints the dependency graph that the cascade follows: explicit
dependencies, implicit category sequencing, edges dropped to break cycles,
the critical path, and each phase's delay and risk.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			doc, err := phase.Load(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			now, err := e.now()
			if err != nil {
				return err
			}

			view, err := report.BuildView(doc.Phases, now,
				report.WithCategories(e.cfg.ToCategories()),
				report.WithPolicy(e.cfg.RiskPolicy()),
				report.WithLogger(e.logger),
			)
			if err != nil {
				return err
			}

			if flagJSON || flagFormat == "json" {
				return outputJSON(view)
			}
			switch flagFormat {
			case "dot":
				reporter.PrintDOT(os.Stdout, view)
			case "ascii", "":
				reporter.PrintASCII(os.Stdout, view)
			default:
				return fmt.Errorf("unknown format %q (ascii, dot, json)", flagFormat)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "ascii", "Output format: ascii, dot, json")

	return cmd
}
