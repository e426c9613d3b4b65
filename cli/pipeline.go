// ABOUTME: Pipeline CLI commands
// ABOUTME: Add, update, note, list, stats, import, and the interactive board
package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/harperreed/prospect/models"
	"github.com/harperreed/prospect/pipeline"
	"github.com/harperreed/prospect/tui"
	"github.com/harperreed/prospect/viz"
)

// reportLeadError prints the expected lookup failures as warnings. They are
// no-ops rather than command failures, so nil is returned for them.
func reportLeadError(env *Env, err error) error {
	switch {
	case errors.Is(err, pipeline.ErrLeadExists),
		errors.Is(err, pipeline.ErrLeadNotFound),
		errors.Is(err, pipeline.ErrInvalidStage):
		env.printf("⚠ %v\n", err)
		return nil
	default:
		return err
	}
}

// PipelineAddCommand adds a new lead in stage new.
func PipelineAddCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("pipeline add", flag.ContinueOnError)
	fs.SetOutput(env.Out)
	company := fs.String("company", "", "Company name (required)")
	contact := fs.String("contact", "", "Contact name")
	email := fs.String("email", "", "Contact email (required)")
	source := fs.String("source", "manual", "Where the lead came from")
	tier := fs.String("tier", "", "Pricing tier (starter, growth, ownership)")
	revenue := fs.String("revenue", "", "Revenue estimate, free text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*company) == "" {
		return fmt.Errorf("--company is required")
	}
	if strings.TrimSpace(*email) == "" {
		return fmt.Errorf("--email is required")
	}

	lead, err := env.Tracker().Add(pipeline.NewLead{
		Company: *company,
		Contact: *contact,
		Email:   *email,
		Source:  *source,
		Tier:    *tier,
		Revenue: *revenue,
	})
	if err != nil {
		return reportLeadError(env, err)
	}

	env.printf("✓ Added: %s", lead.Company)
	if lead.Contact != "" {
		env.printf(" (%s)", lead.Contact)
	}
	env.printf("\n")
	env.printf("  Stage: %s\n", lead.Stage.Label())
	env.Logger.Debug("lead added", zap.String("id", lead.ID), zap.String("company", lead.Company))
	return nil
}

// PipelineUpdateCommand moves a lead to a new stage.
func PipelineUpdateCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("pipeline update", flag.ContinueOnError)
	fs.SetOutput(env.Out)
	note := fs.String("note", "", "Note to attach to the transition")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}

	if len(positional) < 2 {
		return fmt.Errorf("usage: pipeline update [--note text] <company> <stage> (stages: %s)", strings.Join(models.StageNames(), ", "))
	}
	// trailing words after the stage are taken as the note
	noteText := *note
	if noteText == "" && len(positional) > 2 {
		noteText = strings.Join(positional[2:], " ")
	}

	update, err := env.Tracker().Update(positional[0], positional[1], noteText)
	if err != nil {
		return reportLeadError(env, err)
	}

	env.printf("✓ Updated: %s\n", update.Lead.Company)
	env.printf("  %s → %s\n", update.From.Label(), update.To.Label())
	if update.Note != "" {
		env.printf("  Note: %s\n", update.Note)
	}
	return nil
}

// PipelineNoteCommand appends a note without changing stage.
func PipelineNoteCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("pipeline note", flag.ContinueOnError)
	fs.SetOutput(env.Out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: pipeline note <company> <text>")
	}

	lead, err := env.Tracker().AddNote(fs.Arg(0), strings.Join(fs.Args()[1:], " "))
	if err != nil {
		return reportLeadError(env, err)
	}

	env.printf("✓ Note added to %s (%d notes)\n", lead.Company, len(lead.Notes))
	return nil
}

// PipelineListCommand prints the board, optionally for one stage.
func PipelineListCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("pipeline list", flag.ContinueOnError)
	fs.SetOutput(env.Out)
	table := fs.Bool("table", false, "Print a flat table instead of the grouped board")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}

	stage := ""
	if len(positional) > 0 {
		stage = positional[0]
	}
	board, err := env.Tracker().List(stage)
	if err != nil {
		return reportLeadError(env, err)
	}

	if !*table {
		env.printf("%s", viz.RenderBoard(board))
		return nil
	}

	if board.Count() == 0 {
		env.printf("No leads found.\n")
		return nil
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMPANY\tCONTACT\tEMAIL\tSTAGE\tTIER\tDAYS")
	fmt.Fprintln(w, "-------\t-------\t-----\t-----\t----\t----")
	for _, group := range board.Groups {
		for _, lead := range group.Leads {
			stale := ""
			if lead.Stale && !lead.Stage.IsClosed() {
				stale = " ⚠"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d%s\n",
				lead.Company, lead.Contact, lead.Email, lead.Stage, lead.Tier, lead.DaysSinceUpdate, stale)
		}
	}
	_ = w.Flush()

	env.printf("\nTotal: %d leads\n", board.Count())
	return nil
}

// PipelineStatsCommand prints the stats dashboard.
func PipelineStatsCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("pipeline stats", flag.ContinueOnError)
	fs.SetOutput(env.Out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	stats, err := env.Tracker().Stats()
	if err != nil {
		return err
	}
	env.printf("%s", viz.RenderStats(stats))
	return nil
}

// PipelineImportCommand imports leads from a CSV file.
func PipelineImportCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("pipeline import", flag.ContinueOnError)
	fs.SetOutput(env.Out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: pipeline import <leads.csv>")
	}

	result, err := env.Tracker().ImportFile(fs.Arg(0))
	if err != nil {
		return err
	}

	env.printf("✓ Imported %d leads, skipped %d duplicates", result.Imported, result.Skipped)
	if result.Dropped > 0 {
		env.printf(", dropped %d rows missing company or email", result.Dropped)
	}
	env.printf("\n")
	return nil
}

// PipelineBoardCommand launches the interactive board.
func PipelineBoardCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("pipeline board", flag.ContinueOnError)
	fs.SetOutput(env.Out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	tracker := env.Tracker()
	model := tui.NewModel(func() (*pipeline.Board, error) {
		return tracker.List("")
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
