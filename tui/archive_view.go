// ABOUTME: Archive confirmation view for TUI
// ABOUTME: Confirms and runs auto-archive of abandoned deals from the hygiene tab
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) archiveCandidates() int {
	if m.dashboard == nil || m.dashboard.Hygiene == nil {
		return 0
	}
	return m.dashboard.Hygiene.Report.ArchiveCandidates
}

func (m Model) renderConfirmArchiveView() string {
	var content strings.Builder

	content.WriteString(warningStyle.Render("⚠ ARCHIVE ABANDONED DEALS"))
	content.WriteString("\n\n")
	content.WriteString(fmt.Sprintf("%d deals have been inactive for 90+ days.\n", m.archiveCandidates()))
	content.WriteString("They can be reactivated later.\n\n")

	buttons := lipgloss.JoinHorizontal(lipgloss.Top,
		confirmButtonStyle.Render("[Y] Archive"),
		cancelButtonStyle.Render("[N] Cancel"),
	)
	content.WriteString(buttons)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		confirmBoxStyle.Render(content.String()))
}

func (m Model) handleConfirmArchiveKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		outcome, err := m.svc.RunAutoArchive(m.ctx, false)
		m.viewMode = ViewList
		m.selectedRow = 0
		if err != nil {
			m.err = err
			return m, nil
		}
		if outcome.Run != nil {
			m.message = fmt.Sprintf("Archived %d deals", outcome.Run.ArchivedCount)
		} else {
			m.message = "No deals to archive"
		}
		return m, m.load
	case "n", "N", "esc":
		m.viewMode = ViewList
	}
	return m, nil
}
