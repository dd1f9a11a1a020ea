package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/joshharrison/phaseline/internal/graph"
	"github.com/joshharrison/phaseline/internal/report"
	"github.com/joshharrison/phaseline/internal/ui"
)

// PrintASCII writes the dependency graph wave by wave.
func PrintASCII(w io.Writer, v *report.GraphView) {
	fmt.Fprintf(w, "🔗 %s\n", ui.BoldCyan("Phase Dependency Graph"))
	fmt.Fprintln(w, ui.Cyan("══════════════════════"))
	fmt.Fprintln(w)

	succs := make(map[string][]graph.Edge)
	for _, e := range v.Edges {
		succs[e.From] = append(succs[e.From], e)
	}

	for i, ids := range v.Waves {
		fmt.Fprintf(w, "%s 🌊 Wave %d %s\n", ui.Cyan("──"), i+1, ui.Cyan("──────────────────────────────"))
		for _, id := range ids {
			n, _ := v.Node(id)
			crit := " "
			if n.IsCritical {
				crit = ui.BoldYellow("⚡")
			}
			extra := ""
			if n.DelayDays > 0 {
				extra += "  " + ui.DelayBadge(n.DelayDays)
			}
			if n.RiskLevel != "" {
				extra += "  " + ui.RiskBadge(string(n.RiskLevel))
			}
			fmt.Fprintf(w, "  %s %s [%s] %s%s\n", crit, ui.StatusIcon(string(n.Status)), ui.BoldMagenta(n.ID), n.Name, extra)

			for _, e := range succs[id] {
				arrow := "└──→"
				if e.Kind == graph.EdgeImplicit {
					arrow = "└┄┄→"
				}
				fmt.Fprintf(w, "      %s %s\n", ui.Dim(arrow), ui.Magenta(e.To))
			}
		}
		fmt.Fprintln(w)
	}

	if len(v.DroppedEdges) > 0 {
		fmt.Fprintln(w, ui.Dim("Dropped to break cycles:"))
		for _, e := range v.DroppedEdges {
			fmt.Fprintf(w, "  %s %s → %s\n", ui.Yellow("✂"), e.From, e.To)
		}
		fmt.Fprintln(w)
	}

	if len(v.CriticalPath) > 0 {
		fmt.Fprintf(w, "⚡ Critical path: %s (%d days)\n", ui.BoldYellow(strings.Join(v.CriticalPath, " → ")), v.TotalDuration)
	}
}

// PrintDOT writes the dependency graph in Graphviz DOT format.
func PrintDOT(w io.Writer, v *report.GraphView) {
	fmt.Fprintln(w, "digraph phaseline {")
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box, style=rounded];")
	fmt.Fprintln(w)

	critical := make(map[string]bool, len(v.CriticalPath))
	for _, id := range v.CriticalPath {
		critical[id] = true
	}

	for _, n := range v.Nodes {
		label := fmt.Sprintf("%s\\n%s", n.ID, dotEscape(n.Name))
		attrs := fmt.Sprintf(`label="%s"`, label)
		switch {
		case n.DelayDays > 0:
			attrs += `, style="rounded,filled", fillcolor="#f8d7da"`
		case n.RiskLevel == "high":
			attrs += `, style="rounded,filled", fillcolor="#fff3cd"`
		}
		if n.IsCritical {
			attrs += `, penwidth=2, color=red`
		}
		fmt.Fprintf(w, "  %q [%s];\n", n.ID, attrs)
	}

	fmt.Fprintln(w)

	for _, e := range v.Edges {
		var attrs []string
		if e.Kind == graph.EdgeImplicit {
			attrs = append(attrs, "style=dashed")
		}
		if critical[e.From] && critical[e.To] {
			attrs = append(attrs, "color=red", "penwidth=2")
		}
		suffix := ""
		if len(attrs) > 0 {
			suffix = " [" + strings.Join(attrs, ", ") + "]"
		}
		fmt.Fprintf(w, "  %q -> %q%s;\n", e.From, e.To, suffix)
	}

	fmt.Fprintln(w, "}")
}

func dotEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
