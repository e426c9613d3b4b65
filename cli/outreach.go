// ABOUTME: Outreach CLI commands
// ABOUTME: Validate prospect lists, send campaigns, show status, and record replies
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/harperreed/prospect/mail"
	"github.com/harperreed/prospect/models"
	"github.com/harperreed/prospect/outreach"
)

// maxInvalidShown bounds the invalid list printed after validation.
const maxInvalidShown = 10

// parseInterspersed parses fs allowing flags after positional arguments,
// so "send leads.json body.txt --dry-run" works like the flags-first form.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// OutreachValidateCommand checks every address in a prospect file and saves
// the deliverable ones next to it as <name>-valid.json.
func OutreachValidateCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("outreach validate", flag.ContinueOnError)
	fs.SetOutput(env.Out)
	output := fs.String("output", "", "Where to save valid prospects (default: <input>-valid.json)")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) < 1 {
		return fmt.Errorf("usage: outreach validate <leads.json|leads.csv>")
	}
	input := positional[0]

	prospects, err := outreach.LoadProspects(input)
	if err != nil {
		return err
	}

	validator := outreach.NewValidator(net.DefaultResolver, env.Stores.ValidationCache, env.Config.Outreach, env.Logger)

	env.printf("\nValidating %d emails...\n\n", len(prospects))
	var progress func(models.Prospect, models.ValidationResult)
	if isTerminal(env.Out) {
		progress = func(_ models.Prospect, res models.ValidationResult) {
			if res.Valid {
				env.printf("✓")
			} else {
				env.printf("✗")
			}
		}
	}

	report, err := validator.ValidateAll(ctx, prospects, progress)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	interrupted := err != nil

	env.printf("\n\n✓ Valid: %d\n", len(report.Valid))
	env.printf("✗ Invalid: %d\n", len(report.Invalid))
	if report.Cached > 0 {
		env.printf("  (%d from cache)\n", report.Cached)
	}

	if len(report.Invalid) > 0 {
		env.printf("\nInvalid emails:\n")
		for i, p := range report.Invalid {
			if i == maxInvalidShown {
				env.printf("  ... and %d more\n", len(report.Invalid)-maxInvalidShown)
				break
			}
			email := p.Email
			if email == "" {
				email = "(none)"
			}
			env.printf("  - %s: %s\n", email, p.Reason)
		}
	}

	if interrupted {
		env.printf("\n⚠ Interrupted after %d of %d prospects; valid list not saved.\n",
			len(report.Valid)+len(report.Invalid), len(prospects))
		return nil
	}

	dest := *output
	if dest == "" {
		dest = outreach.ValidOutputPath(input)
	}
	if err := outreach.SaveProspects(dest, report.Valid); err != nil {
		return fmt.Errorf("failed to save valid prospects: %w", err)
	}
	env.printf("\nSaved valid leads to: %s\n", dest)
	return nil
}

// OutreachSendCommand runs a campaign. Ctrl-C stops it between sends; every
// completed send is already in the log, so the run can simply be repeated.
func OutreachSendCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("outreach send", flag.ContinueOnError)
	fs.SetOutput(env.Out)
	dryRun := fs.Bool("dry-run", false, "Preview messages without sending or logging")
	subject := fs.String("subject", "", "Subject template (default from config)")
	transportName := fs.String("transport", "", "Mail transport: smtp, gmail, agentmail (default from config)")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) < 2 {
		return fmt.Errorf("usage: outreach send [--dry-run] [--subject s] [--transport t] <leads.json|leads.csv> <template.txt>")
	}

	prospects, err := outreach.LoadProspects(positional[0])
	if err != nil {
		return err
	}
	body, err := outreach.LoadTemplate(positional[1])
	if err != nil {
		return err
	}

	var transport outreach.Transport
	if !*dryRun {
		mailCfg := env.Config.Mail
		if *transportName != "" {
			mailCfg.Transport = *transportName
		}
		transport, err = mail.New(ctx, mailCfg, mail.TokenPath())
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := outreach.NewEngine(env.Stores.OutreachLog, transport, env.Config.Outreach, env.Logger,
		outreach.WithOutput(env.Out))

	result, err := engine.Run(ctx, outreach.Campaign{
		Prospects: prospects,
		Subject:   *subject,
		Body:      body,
		DryRun:    *dryRun,
	})
	if result == nil {
		return err
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	printRunSummary(env, result, *dryRun)
	if err != nil {
		env.printf("⚠ Interrupted. %d prospects not attempted; re-run to continue.\n", result.Remaining)
	}
	return nil
}

func printRunSummary(env *Env, result *outreach.RunResult, dryRun bool) {
	if result.Attempts() == 0 {
		env.printf("\nNothing to send!\n")
	} else if dryRun {
		env.printf("\n✓ Dry run complete. Previewed %d emails.\n", result.Previewed)
	} else {
		env.printf("\n✓ Campaign complete! Sent %d emails.\n", result.Sent)
	}

	if result.Bounced > 0 {
		env.printf("✗ Failed: %d (logged as bounced, retried next run)\n", result.Bounced)
	}
	if len(result.Invalid) > 0 {
		env.printf("⚠ Skipped %d prospects without an email address\n", len(result.Invalid))
	}
	if result.CapHit {
		env.printf("⚠ %d prospects left for the next run\n", result.Remaining)
	}
}

// OutreachStatusCommand prints totals and the most recent log entries.
func OutreachStatusCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("outreach status", flag.ContinueOnError)
	fs.SetOutput(env.Out)
	recent := fs.Int("recent", env.Config.Outreach.RecentEntries, "Number of recent entries to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	summary, err := outreach.Status(env.Stores.OutreachLog, *recent)
	if err != nil {
		return err
	}

	env.printf("\nOutreach Status\n\n")
	env.printf("  Sent:    %d\n", summary.Sent)
	env.printf("  Bounced: %d\n", summary.Bounced)
	env.printf("  Replied: %d", summary.Replied)
	if summary.Sent > 0 {
		env.printf(" (%d%% reply rate)", summary.ReplyRate)
	}
	env.printf("\n")

	if len(summary.RecentSent) > 0 {
		env.printf("\nRecent sends:\n")
		for _, e := range summary.RecentSent {
			env.printf("  %s → %s (%s)\n", formatEntryTime(e.Timestamp), e.Email, orNA(e.Company))
		}
	}
	if len(summary.RecentBounced) > 0 {
		env.printf("\nRecent bounces:\n")
		for _, e := range summary.RecentBounced {
			env.printf("  %s → %s: %s\n", formatEntryTime(e.Timestamp), e.Email, e.Error)
		}
	}
	if len(summary.RecentReplied) > 0 {
		env.printf("\nRecent replies:\n")
		for _, e := range summary.RecentReplied {
			line := fmt.Sprintf("  %s ← %s (%s)", formatEntryTime(e.Timestamp), e.Email, orNA(e.Company))
			if e.Note != "" {
				line += ": " + e.Note
			}
			env.printf("%s\n", line)
		}
	}
	return nil
}

// OutreachRepliedCommand records that a prospect wrote back.
func OutreachRepliedCommand(env *Env, args []string) error {
	fs := flag.NewFlagSet("outreach replied", flag.ContinueOnError)
	fs.SetOutput(env.Out)
	note := fs.String("note", "", "Short note about the reply")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) < 1 {
		return fmt.Errorf("usage: outreach replied [--note text] <email>")
	}

	entry, err := outreach.MarkReplied(env.Stores.OutreachLog, positional[0], *note, time.Now())
	if err != nil {
		return err
	}

	env.printf("✓ Reply recorded: %s", entry.Email)
	if entry.Company != "" {
		env.printf(" (%s)", entry.Company)
	}
	env.printf("\n")
	if entry.Subject == "" {
		env.printf("⚠ No earlier send to this address in the log\n")
	}
	env.Logger.Info("reply recorded", zap.String("email", entry.Email), zap.String("run_id", entry.RunID))
	return nil
}

// OutreachCheckRepliesCommand searches the Gmail inbox for answers to sent
// outreach and records them as replies.
func OutreachCheckRepliesCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("outreach check-replies", flag.ContinueOnError)
	fs.SetOutput(env.Out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	source, err := mail.NewGmailReplySource(ctx, mail.TokenPath())
	if err != nil {
		return err
	}

	env.printf("Checking Gmail for replies...\n")
	result, err := outreach.CheckReplies(ctx, env.Stores.OutreachLog, source, env.Logger)
	if err != nil {
		return err
	}

	if len(result.Recorded) == 0 {
		env.printf("  ✓ No new replies (%d addresses waiting)\n", result.Checked)
		return nil
	}
	for _, e := range result.Recorded {
		env.printf("  ← %s (%s): %s\n", e.Email, orNA(e.Company), e.Note)
	}
	env.printf("\n✓ Recorded %d new replies\n", len(result.Recorded))
	return nil
}

// formatEntryTime matches the minute-precision timestamps of the status view.
func formatEntryTime(t time.Time) string {
	if t.IsZero() {
		return "----------------"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
