package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/prospect/models"
)

func (m Model) renderBoardView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("PROSPECT PIPELINE"))
	s.WriteString("\n\n")

	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n\n")
	}

	s.WriteString(m.renderTable())
	s.WriteString("\n\n")

	s.WriteString(m.renderBoardHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	counts := make(map[models.Stage]int)
	if m.board != nil {
		for _, g := range m.board.Groups {
			counts[g.Stage] = len(g.Leads)
		}
	}

	var rendered []string
	for i, stage := range models.Stages {
		tab := fmt.Sprintf("%s (%d)", stage, counts[stage])
		if i == m.stageIndex {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderTable() string {
	leads := m.currentLeads()
	if len(leads) == 0 {
		return helpStyle.Render(fmt.Sprintf("No leads in %s.", m.CurrentStage()))
	}

	columns := []table.Column{
		{Title: "Company", Width: 24},
		{Title: "Contact", Width: 18},
		{Title: "Email", Width: 26},
		{Title: "Tier", Width: 10},
		{Title: "Days", Width: 5},
		{Title: "", Width: 6},
	}

	rows := make([]table.Row, 0, len(leads))
	for _, view := range leads {
		marker := ""
		if view.Stale && !view.Stage.IsClosed() {
			marker = "stale"
		}
		rows = append(rows, table.Row{
			view.Company,
			view.Contact,
			view.Email,
			view.Tier,
			strconv.Itoa(view.DaysSinceUpdate),
			marker,
		})
	}

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

func (m Model) renderBoardHelp() string {
	help := []string{
		"←/→: Stage",
		"↑/↓: Navigate",
		"Enter: Details",
		"g: Flow",
		"r: Refresh",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h", "shift+tab":
		m.stageIndex = (m.stageIndex - 1 + len(models.Stages)) % len(models.Stages)
		m.selectedRow = 0
	case "right", "l", "tab":
		m.stageIndex = (m.stageIndex + 1) % len(models.Stages)
		m.selectedRow = 0
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.currentLeads())-1 {
			m.selectedRow++
		}
	case "enter":
		if _, ok := m.selectedLead(); ok {
			m.viewMode = ViewDetail
		}
	case "g":
		m.viewMode = ViewFlow
	case "r":
		m.refresh()
	}

	return m, nil
}
