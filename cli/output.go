// ABOUTME: Shared CLI output helpers
// ABOUTME: Tables, ID parsing and grade/health/risk colouring when stdout is a terminal
package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"golang.org/x/term"
)

// stdout is where commands print. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

var (
	goodStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	badStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func colorEnabled() bool {
	f, ok := stdout.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func paint(style lipgloss.Style, s string) string {
	if !colorEnabled() {
		return s
	}
	return style.Render(s)
}

func gradeStyle(grade string) lipgloss.Style {
	switch grade {
	case "A", "B":
		return goodStyle
	case "C":
		return warnStyle
	}
	return badStyle
}

func healthStyle(status string) lipgloss.Style {
	switch status {
	case "healthy":
		return goodStyle
	case "at_risk":
		return warnStyle
	}
	return badStyle
}

func riskStyle(level string) lipgloss.Style {
	switch level {
	case "minimal", "low":
		return goodStyle
	case "medium":
		return warnStyle
	}
	return badStyle
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
}

func printf(format string, args ...any) {
	_, _ = fmt.Fprintf(stdout, format, args...)
}

// parseID reads the first positional argument as a UUID.
func parseID(args []string, what string) (uuid.UUID, error) {
	if len(args) < 1 {
		return uuid.Nil, fmt.Errorf("%s ID required", what)
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s ID: %w", what, err)
	}
	return id, nil
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
