package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	Magenta     = color.New(color.FgMagenta).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// PrintLogo renders the colored phaseline logo.
func PrintLogo(w io.Writer) {
	rail := color.New(color.FgCyan)
	done := color.New(color.FgGreen)
	late := color.New(color.FgRed)
	brand := color.New(color.Bold, color.FgMagenta)
	tag := color.New(color.Faint)

	fmt.Fprintln(w)
	rail.Fprintln(w, "   +-----------------------------+")
	fmt.Fprintf(w, "   %s %s %s %s\n", rail.Sprint("|"), done.Sprint("■■■■■■"), late.Sprint("■■■■▶"), rail.Sprint("          |"))
	brand.Fprintln(w, "   |  P H A S E L I N E          |")
	rail.Fprintln(w, "   +-----------------------------+")
	tag.Fprintf(w, "   %s Construction delay cascades\n", Dim("🏗"))
	fmt.Fprintln(w)
}

// StatusIcon returns a colored icon for a phase status.
func StatusIcon(status string) string {
	switch status {
	case "Completed":
		return Green("✓")
	case "InProgress":
		return Cyan("●")
	default:
		return Dim("◌")
	}
}

// RiskBadge returns a colored, fixed-width risk label.
func RiskBadge(level string) string {
	switch level {
	case "high":
		return BoldRed("HIGH  ")
	case "medium":
		return BoldYellow("MEDIUM")
	case "low":
		return Green("LOW   ")
	default:
		return Dim("-     ")
	}
}

// DelayBadge formats a delay in days.
func DelayBadge(days int) string {
	switch {
	case days <= 0:
		return Dim("on time")
	case days == 1:
		return Red("+1 day")
	default:
		return Red(fmt.Sprintf("+%d days", days))
	}
}
