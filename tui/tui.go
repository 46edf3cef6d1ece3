// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Interactive pipeline dashboard with deal, follow-up, hygiene and churn tabs
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/dealpulse/insights"
	"github.com/harperreed/dealpulse/scoring"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewNote
	ViewGraph
	ViewConfirmArchive
)

// Tab is one list on the main screen
type Tab int

const (
	TabDeals Tab = iota
	TabFollowups
	TabHygiene
	TabChurn
)

const tabCount = 4

// dashboardMsg carries freshly loaded data into Update.
type dashboardMsg struct {
	dashboard *insights.Dashboard
	err       error
}

// Model is the main bubbletea model
type Model struct {
	ctx      context.Context
	svc      *insights.Service
	viewMode ViewMode
	tab      Tab

	dashboard   *insights.Dashboard
	selectedRow int

	// Detail view state
	insight *insights.OpportunityInsight
	churn   *scoring.ChurnRisk

	noteInput textinput.Model
	graphDOT  string

	message string
	width   int
	height  int
	err     error
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, svc *insights.Service) Model {
	input := textinput.New()
	input.Placeholder = "What happened?"
	input.CharLimit = 500
	input.Width = 60

	return Model{
		ctx:       ctx,
		svc:       svc,
		viewMode:  ViewList,
		tab:       TabDeals,
		noteInput: input,
		width:     80,
		height:    24,
	}
}

func (m Model) Init() tea.Cmd {
	return m.load
}

func (m Model) load() tea.Msg {
	d, err := m.svc.Dashboard(m.ctx)
	return dashboardMsg{dashboard: d, err: err}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardMsg:
		m.err = msg.err
		if msg.err == nil {
			m.dashboard = msg.dashboard
		}
		if n := m.rowCount(); m.selectedRow >= n {
			m.selectedRow = max(n-1, 0)
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewNote:
		return m.renderNoteView()
	case ViewGraph:
		return m.renderGraphView()
	case ViewConfirmArchive:
		return m.renderConfirmArchiveView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The note input swallows everything except its own controls.
	if m.viewMode == ViewNote {
		return m.handleNoteKeys(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	case ViewConfirmArchive:
		return m.handleConfirmArchiveKeys(msg)
	}

	return m, nil
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(14)
)

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "healthy", "minimal", "low", "A", "B":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	case "at_risk", "medium", "C", "aging":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
}
