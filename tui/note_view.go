// ABOUTME: Note entry view for the TUI
// ABOUTME: Logs a note interaction against the open deal and rescores it
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/dealpulse/models"
)

func (m Model) renderNoteView() string {
	var s strings.Builder

	title := "LOG NOTE"
	if m.insight != nil {
		title += ": " + m.insight.Opportunity.Title
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n> ")
	s.WriteString(m.noteInput.View())
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
	}

	s.WriteString(helpStyle.Render(strings.Join([]string{"Enter: Save", "Esc: Cancel"}, " • ")))
	return s.String()
}

func (m Model) handleNoteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.noteInput.Blur()
		m.err = nil
		m.viewMode = ViewDetail
		return m, nil
	case "enter":
		if err := m.saveNote(); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.noteInput.Blur()
		m.viewMode = ViewDetail
		return m, m.load
	}

	var cmd tea.Cmd
	m.noteInput, cmd = m.noteInput.Update(msg)
	return m, cmd
}

func (m *Model) saveNote() error {
	if m.insight == nil {
		return fmt.Errorf("no deal selected")
	}
	notes := strings.TrimSpace(m.noteInput.Value())
	if notes == "" {
		return fmt.Errorf("note is empty")
	}

	id := m.insight.Opportunity.ID
	interaction := &models.Interaction{
		OpportunityID: &id,
		CustomerID:    m.insight.Opportunity.CustomerID,
		Type:          models.InteractionNote,
		Notes:         notes,
	}
	if err := m.svc.LogInteraction(m.ctx, interaction); err != nil {
		return fmt.Errorf("failed to log note: %w", err)
	}

	insight, err := m.svc.ScoreOpportunity(m.ctx, id)
	if err != nil {
		return err
	}
	m.insight = insight
	m.message = "Note logged"
	return nil
}
