package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) renderDetailView() string {
	view, ok := m.selectedLead()
	if !ok {
		return "No lead selected.\n\n" + m.renderDetailHelp()
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render(view.Company))
	s.WriteString("\n\n")

	s.WriteString(m.renderField("Stage", view.Stage.Label()))
	s.WriteString(m.renderField("Contact", view.Contact))
	s.WriteString(m.renderField("Email", view.Email))
	s.WriteString(m.renderField("Source", view.Source))
	s.WriteString(m.renderField("Tier", view.Tier))
	s.WriteString(m.renderField("Revenue", view.Revenue))
	s.WriteString(m.renderField("Created", view.CreatedAt.Format("2006-01-02")))
	s.WriteString(m.renderField("Last update", fmt.Sprintf("%s (%d days ago)", view.UpdatedAt.Format("2006-01-02"), view.DaysSinceUpdate)))

	if len(view.History) > 0 {
		s.WriteString("\nHistory\n")
		for _, change := range view.History {
			if change.From == "" {
				fmt.Fprintf(&s, "  %s  %s\n", change.Date.Format("2006-01-02"), change.Stage)
			} else {
				fmt.Fprintf(&s, "  %s  %s → %s\n", change.Date.Format("2006-01-02"), change.From, change.Stage)
			}
		}
	}

	if len(view.Notes) > 0 {
		s.WriteString("\nNotes\n")
		for _, note := range view.Notes {
			fmt.Fprintf(&s, "  %s  %s\n", note.Date.Format("2006-01-02"), note.Text)
		}
	}

	s.WriteString("\n")
	s.WriteString(m.renderDetailHelp())
	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		return ""
	}
	return fieldLabelStyle.Render(label+":") + " " + fieldValueStyle.Render(value) + "\n"
}

func (m Model) renderDetailHelp() string {
	return helpStyle.Render("Esc: Back • q: Quit")
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.viewMode = ViewBoard
	}
	return m, nil
}
