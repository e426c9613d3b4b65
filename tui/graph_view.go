package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/prospect/models"
	"github.com/harperreed/prospect/viz"
)

func (m Model) renderFlowView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("STAGE FLOW"))
	s.WriteString("\n\n")

	counts := viz.CountTransitions(m.allLeads())
	if len(counts) == 0 {
		s.WriteString("No stage changes recorded yet.\n")
	} else {
		maxCount := 0
		for _, c := range counts {
			maxCount = max(maxCount, c.Count)
		}
		rowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
		for _, c := range counts {
			bar := strings.Repeat("█", c.Count*20/maxCount)
			line := fmt.Sprintf("%-16s → %-16s %s %d", c.From.Label(), c.To.Label(), bar, c.Count)
			s.WriteString(rowStyle.Render(line))
			s.WriteString("\n")
		}
	}

	s.WriteString("\n")

	// Help
	s.WriteString(m.renderFlowHelp())

	return s.String()
}

func (m Model) renderFlowHelp() string {
	help := []string{
		"Esc: Back",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleFlowKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.viewMode = ViewBoard
	}

	return m, nil
}

// allLeads flattens the board back into its leads.
func (m Model) allLeads() []models.Lead {
	if m.board == nil {
		return nil
	}
	var leads []models.Lead
	for _, g := range m.board.Groups {
		for _, lv := range g.Leads {
			leads = append(leads, lv.Lead)
		}
	}
	return leads
}
