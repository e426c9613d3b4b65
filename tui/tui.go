// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Read-only pipeline board with one tab per stage and a lead detail view
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/prospect/models"
	"github.com/harperreed/prospect/pipeline"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewBoard ViewMode = iota
	ViewDetail
	ViewFlow
)

// BoardLoader returns the current pipeline board. *pipeline.Tracker's List
// satisfies it through a closure.
type BoardLoader func() (*pipeline.Board, error)

// Model is the main bubbletea model
type Model struct {
	load     BoardLoader
	board    *pipeline.Board
	viewMode ViewMode

	stageIndex  int
	selectedRow int

	width  int
	height int
	err    error
}

// NewModel creates a new TUI model and loads the board once.
func NewModel(load BoardLoader) Model {
	m := Model{
		load:     load,
		viewMode: ViewBoard,
		width:    100,
		height:   24,
	}
	m.refresh()
	return m
}

func (m *Model) refresh() {
	board, err := m.load()
	m.err = err
	if err == nil {
		m.board = board
	}
	if n := len(m.currentLeads()); m.selectedRow >= n {
		m.selectedRow = max(n-1, 0)
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
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
	case ViewDetail:
		return m.renderDetailView()
	case ViewFlow:
		return m.renderFlowView()
	default:
		return m.renderBoardView()
	}
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewFlow:
		return m.handleFlowKeys(msg)
	default:
		return m.handleBoardKeys(msg)
	}
}

// CurrentStage is the stage of the active tab.
func (m Model) CurrentStage() models.Stage {
	return models.Stages[m.stageIndex]
}

func (m Model) currentLeads() []pipeline.LeadView {
	if m.board == nil {
		return nil
	}
	stage := m.CurrentStage()
	for _, g := range m.board.Groups {
		if g.Stage == stage {
			return g.Leads
		}
	}
	return nil
}

func (m Model) selectedLead() (pipeline.LeadView, bool) {
	leads := m.currentLeads()
	if m.selectedRow < 0 || m.selectedRow >= len(leads) {
		return pipeline.LeadView{}, false
	}
	return leads[m.selectedRow], true
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

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)
