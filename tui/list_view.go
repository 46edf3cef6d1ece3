package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var tabNames = []string{"Deals", "Follow-ups", "Hygiene", "Churn"}

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("DEALPULSE"))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	case m.dashboard == nil:
		s.WriteString("Loading...")
	default:
		s.WriteString(m.renderTable())
		if section := m.sectionError(); section != "" {
			s.WriteString("\n")
			s.WriteString(errorStyle.Render(section))
		}
	}
	s.WriteString("\n")

	if m.message != "" {
		s.WriteString("\n")
		s.WriteString(messageStyle.Render(m.message))
		s.WriteString("\n")
	}

	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string
	for i, tab := range tabNames {
		if Tab(i) == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// sectionError reports why the active tab's section could not be built.
func (m Model) sectionError() string {
	key := map[Tab]string{
		TabDeals:     "top_deals",
		TabFollowups: "follow_ups",
		TabHygiene:   "hygiene",
		TabChurn:     "churn",
	}[m.tab]
	if msg, ok := m.dashboard.Errors[key]; ok {
		return fmt.Sprintf("%s unavailable: %s", key, msg)
	}
	return ""
}

func (m Model) renderTable() string {
	switch m.tab {
	case TabDeals:
		return m.renderDealsTable()
	case TabFollowups:
		return m.renderFollowupsTable()
	case TabHygiene:
		return m.renderHygieneTable()
	case TabChurn:
		return m.renderChurnTable()
	}
	return ""
}

func (m Model) newTable(columns []table.Column, rows []table.Row) string {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-10, 3)),
	)
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}
	return t.View()
}

func (m Model) renderDealsTable() string {
	columns := []table.Column{
		{Title: "Score", Width: 7},
		{Title: "Title", Width: 30},
		{Title: "Stage", Width: 12},
		{Title: "Expected", Width: 10},
		{Title: "Priority", Width: 8},
	}

	var rows []table.Row
	for _, d := range m.dashboard.TopDeals {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d %s", d.Score.TotalScore, d.Score.Grade),
			d.Opportunity.Title,
			d.Opportunity.Stage.String(),
			fmt.Sprintf("$%.0f", d.Score.ExpectedValue),
			string(d.Score.Priority),
		})
	}
	return m.newTable(columns, rows)
}

func (m Model) renderHygieneTable() string {
	columns := []table.Column{
		{Title: "Severity", Width: 10},
		{Title: "Idle", Width: 6},
		{Title: "Title", Width: 28},
		{Title: "Stage", Width: 12},
		{Title: "Recommendation", Width: 36},
	}

	var rows []table.Row
	if h := m.dashboard.Hygiene; h != nil {
		for _, f := range h.Analysis.Flagged {
			rows = append(rows, table.Row{
				string(f.Severity),
				fmt.Sprintf("%dd", f.DaysInactive),
				f.Title,
				f.Stage.String(),
				f.Recommendation,
			})
		}
	}
	return m.newTable(columns, rows)
}

func (m Model) renderChurnTable() string {
	columns := []table.Column{
		{Title: "Risk", Width: 6},
		{Title: "Customer", Width: 28},
		{Title: "Level", Width: 10},
		{Title: "Churn By", Width: 12},
	}

	var rows []table.Row
	for _, r := range m.dashboard.Churn {
		churnBy := "-"
		if r.PredictedChurnDate != nil {
			churnBy = r.PredictedChurnDate.Date.Format("2006-01-02")
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", r.RiskScore),
			r.CustomerName,
			r.RiskLevel.Level,
			churnBy,
		})
	}
	return m.newTable(columns, rows)
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch tabs",
		"Enter: Details",
		"g: Pipeline graph",
		"r: Refresh",
	}
	if m.tab == TabHygiene {
		help = append(help, "a: Archive abandoned")
	}
	help = append(help, "q: Quit")
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) rowCount() int {
	if m.dashboard == nil {
		return 0
	}
	switch m.tab {
	case TabDeals:
		return len(m.dashboard.TopDeals)
	case TabFollowups:
		return len(m.dashboard.FollowUps)
	case TabHygiene:
		if m.dashboard.Hygiene == nil {
			return 0
		}
		return len(m.dashboard.Hygiene.Analysis.Flagged)
	case TabChurn:
		return len(m.dashboard.Churn)
	}
	return 0
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < m.rowCount()-1 {
			m.selectedRow++
		}
	case "tab":
		m.tab = (m.tab + 1) % tabCount
		m.selectedRow = 0
	case "shift+tab":
		m.tab = (m.tab + tabCount - 1) % tabCount
		m.selectedRow = 0
	case "r":
		m.message = ""
		return m, m.load
	case "g":
		if err := m.generateGraph(); err != nil {
			m.err = err
			return m, nil
		}
		m.viewMode = ViewGraph
	case "a":
		if m.tab == TabHygiene {
			m.viewMode = ViewConfirmArchive
		}
	case "enter":
		if err := m.openDetail(); err != nil {
			m.err = err
			return m, nil
		}
		if m.insight != nil || m.churn != nil {
			m.viewMode = ViewDetail
		}
	}

	return m, nil
}
