// ABOUTME: Terminal dashboard rendering for pipeline stats and the stage board
// ABOUTME: Draws stage bars, revenue, and stale markers with lipgloss styles
package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/prospect/models"
	"github.com/harperreed/prospect/pipeline"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sectionStyle = lipgloss.NewStyle().Bold(true)
	staleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// RenderStats renders the pipeline dashboard.
func RenderStats(stats *pipeline.Stats) string {
	var out strings.Builder

	out.WriteString(rule + "\n")
	out.WriteString(headerStyle.Render("  SALES PIPELINE") + "\n")
	out.WriteString(rule + "\n\n")

	out.WriteString(sectionStyle.Render("BY STAGE") + "\n")
	renderStageBars(&out, stats.ByStage)
	out.WriteString("\n")

	out.WriteString(sectionStyle.Render("STATS") + "\n")
	fmt.Fprintf(&out, "  Total leads:         %d\n", stats.Total)
	fmt.Fprintf(&out, "  Avg days in pipeline: %d\n", stats.AvgDaysInPipeline)
	fmt.Fprintf(&out, "  Conversion rate:     %d%%\n", stats.ConversionRate)
	fmt.Fprintf(&out, "  Potential revenue:   %s\n", FormatDollars(stats.PotentialRevenue))
	fmt.Fprintf(&out, "  Won revenue:         %s\n", FormatDollars(stats.WonRevenue))

	return out.String()
}

func renderStageBars(out *strings.Builder, byStage map[models.Stage]int) {
	maxCount := 0
	for _, n := range byStage {
		if n > maxCount {
			maxCount = n
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, stage := range models.Stages {
		count := byStage[stage]
		// 0-10 blocks
		barLength := (count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		fmt.Fprintf(out, "  %-12s %s  %2d\n", stage, bar, count)
	}
}

// RenderBoard renders leads grouped by stage. Empty stages are skipped unless
// the board is filtered to a single stage.
func RenderBoard(board *pipeline.Board) string {
	var out strings.Builder

	if board.Count() == 0 {
		if board.Filter != "" {
			return fmt.Sprintf("No leads in stage %q.\n", board.Filter)
		}
		return "No leads yet. Add one with: prospect pipeline add --company \"Name\"\n"
	}

	for _, group := range board.Groups {
		if len(group.Leads) == 0 && board.Filter == "" {
			continue
		}
		fmt.Fprintf(&out, "\n%s (%d)\n", sectionStyle.Render(group.Stage.Label()), len(group.Leads))
		for _, view := range group.Leads {
			line := "  • " + view.Company
			if view.Contact != "" {
				line += " - " + view.Contact
			}
			if view.Tier != "" {
				line += " [" + view.Tier + "]"
			}
			age := fmt.Sprintf(" (%dd)", view.DaysSinceUpdate)
			if view.Stale && !view.Stage.IsClosed() {
				line += staleStyle.Render(age + " ⚠ stale")
			} else {
				line += mutedStyle.Render(age)
			}
			out.WriteString(line + "\n")
		}
	}

	fmt.Fprintf(&out, "\nTotal: %d leads\n", board.Count())
	return out.String()
}

// FormatDollars renders whole dollars with thousands separators, e.g. $12,500.
func FormatDollars(v int64) string {
	s := fmt.Sprintf("%d", v)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return "$" + b.String()
}
