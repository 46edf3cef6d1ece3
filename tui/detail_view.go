// ABOUTME: Detail view for a selected deal or customer
// ABOUTME: Shows score breakdown, health factors, next action and churn factors
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// openDetail loads the row under the cursor. Scoring a deal stores a
// snapshot, the same as the score command.
func (m *Model) openDetail() error {
	m.insight = nil
	m.churn = nil
	if m.dashboard == nil || m.selectedRow >= m.rowCount() {
		return nil
	}

	var id uuid.UUID
	switch m.tab {
	case TabDeals:
		id = m.dashboard.TopDeals[m.selectedRow].Opportunity.ID
	case TabFollowups:
		id = m.dashboard.FollowUps[m.selectedRow].Opportunity.ID
	case TabHygiene:
		id = m.dashboard.Hygiene.Analysis.Flagged[m.selectedRow].OpportunityID
	case TabChurn:
		risk := m.dashboard.Churn[m.selectedRow]
		m.churn = &risk
		return nil
	}

	insight, err := m.svc.ScoreOpportunity(m.ctx, id)
	if err != nil {
		return err
	}
	m.insight = insight
	return nil
}

func (m Model) renderDetailView() string {
	if m.churn != nil {
		return m.renderChurnDetail()
	}
	if m.insight == nil {
		return "No selection"
	}

	var s strings.Builder
	opp := m.insight.Opportunity
	score := m.insight.Score
	health := m.insight.Health

	s.WriteString(titleStyle.Render(opp.Title))
	s.WriteString("\n\n")

	if m.insight.Customer != nil {
		s.WriteString(labelStyle.Render("Customer:") + m.insight.Customer.Name + "\n")
	}
	s.WriteString(labelStyle.Render("Stage:") + fmt.Sprintf("%s  $%.2f  %d%%\n", opp.Stage, opp.Value, opp.Probability))
	s.WriteString(labelStyle.Render("Score:") + statusStyle(score.Grade).Render(fmt.Sprintf("%d %s", score.TotalScore, score.Grade)) +
		fmt.Sprintf("  value %d  risk %d  duration %d  probability %d\n",
			score.Breakdown.Value, score.Breakdown.Risk, score.Breakdown.Duration, score.Breakdown.Probability))
	s.WriteString(labelStyle.Render("Health:") + statusStyle(string(health.Status)).Render(fmt.Sprintf("%d %s", health.Score, health.Status)) +
		fmt.Sprintf("  %d days idle, %d in stage\n", health.DaysSinceActivity, health.DaysInStage))
	s.WriteString(labelStyle.Render("Velocity:") + fmt.Sprintf("%d  %.1f of %d expected days\n",
		m.insight.Velocity.Score, m.insight.Velocity.ActualDays, m.insight.Velocity.ExpectedDays))

	if len(health.Factors) > 0 {
		s.WriteString("\n")
		for _, f := range health.Factors {
			s.WriteString(fmt.Sprintf("  ✗ %s (%d): %s\n", f.Name, f.Impact, f.Detail))
		}
	}

	top := m.insight.NextAction.TopSuggestion
	s.WriteString("\n")
	s.WriteString(labelStyle.Render("Next action:") + fmt.Sprintf("%s by %s (%d%%)\n",
		top.Title, top.SuggestedDate.Format("Mon Jan 2"), m.insight.NextAction.Confidence))
	for _, reason := range m.insight.NextAction.Reasoning {
		s.WriteString("  • " + reason + "\n")
	}

	if m.message != "" {
		s.WriteString("\n" + messageStyle.Render(m.message) + "\n")
	}

	s.WriteString(helpStyle.Render(strings.Join([]string{"l: Log note", "Esc: Back", "q: Quit"}, " • ")))
	return s.String()
}

func (m Model) renderChurnDetail() string {
	var s strings.Builder
	r := m.churn

	s.WriteString(titleStyle.Render(r.CustomerName))
	s.WriteString("\n\n")
	s.WriteString(labelStyle.Render("Risk:") + statusStyle(r.RiskLevel.Level).Render(
		fmt.Sprintf("%s %s (%d)", r.RiskLevel.Icon, r.RiskLevel.Label, r.RiskScore)) + "\n")
	s.WriteString(labelStyle.Render("Probability:") + fmt.Sprintf("%.0f%%\n", r.ChurnProbability*100))
	if p := r.PredictedChurnDate; p != nil {
		s.WriteString(labelStyle.Render("Churn by:") + fmt.Sprintf("%s (%d days, %d%% confidence)\n",
			p.Date.Format("2006-01-02"), p.DaysUntilChurn, p.Confidence))
	}
	s.WriteString(labelStyle.Render("Factors:") + fmt.Sprintf("engagement %d  payment %d  activity %d  satisfaction %d\n",
		r.Factors.Engagement, r.Factors.Payment, r.Factors.Activity, r.Factors.Satisfaction))

	if len(r.Recommendations) > 0 {
		s.WriteString("\n")
		for _, rec := range r.Recommendations {
			s.WriteString(fmt.Sprintf("  → [%s] %s\n", rec.Priority, rec.Title))
		}
	}

	s.WriteString(helpStyle.Render(strings.Join([]string{"Esc: Back", "q: Quit"}, " • ")))
	return s.String()
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
		m.insight = nil
		m.churn = nil
		m.message = ""
	case "l":
		if m.insight != nil {
			m.viewMode = ViewNote
			m.noteInput.SetValue("")
			m.noteInput.Focus()
		}
	}
	return m, nil
}
