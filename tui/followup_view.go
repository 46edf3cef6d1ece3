// ABOUTME: TUI view for follow-up tracking
// ABOUTME: Displays the prioritized queue of deals needing a next action
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/harperreed/dealpulse/scoring"
)

func (m Model) renderFollowupsTable() string {
	columns := []table.Column{
		{Title: "Status", Width: 6},
		{Title: "Deal", Width: 26},
		{Title: "Action", Width: 30},
		{Title: "When", Width: 11},
		{Title: "Idle", Width: 6},
		{Title: "Conf", Width: 5},
	}

	var rows []table.Row
	for _, item := range m.dashboard.FollowUps {
		top := item.Prediction.TopSuggestion

		indicator := "🟢"
		switch top.Priority {
		case scoring.PriorityCritical, scoring.PriorityHigh:
			indicator = "🔴"
		case scoring.PriorityMedium:
			indicator = "🟡"
		}

		rows = append(rows, table.Row{
			indicator,
			item.Opportunity.Title,
			top.Title,
			top.SuggestedDate.Format("Mon Jan 2"),
			fmt.Sprintf("%dd", item.Prediction.Context.DaysSinceLastContact),
			fmt.Sprintf("%d%%", item.Prediction.Confidence),
		})
	}

	return m.newTable(columns, rows)
}
