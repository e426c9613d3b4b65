// ABOUTME: Tests for the pipeline, outreach, and viz CLI commands
// ABOUTME: Runs commands against temp-dir stores and checks printed output and persisted state
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/prospect/config"
	"github.com/harperreed/prospect/models"
	"github.com/harperreed/prospect/outreach"
)

func setupEnv(t *testing.T) (*Env, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Outreach.ValidationPause = 0
	cfg.Outreach.SendDelay = 0

	stores, err := OpenStores(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close() })

	var out bytes.Buffer
	env := NewEnv(cfg, stores, nil)
	env.Out = &out
	return env, &out
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestOpenStoresBackends(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	cfg.Backend = config.BackendSQLite
	stores, err := OpenStores(cfg)
	require.NoError(t, err)
	assert.Equal(t, "sqlite:"+config.PipelineDocument, stores.Pipeline.Name())
	require.NoError(t, stores.Close())
	assert.FileExists(t, cfg.SQLitePath())

	cfg.Backend = config.BackendJSON
	stores, err = OpenStores(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.DocumentPath(config.OutreachLogDocument), stores.OutreachLog.Name())
	assert.NoError(t, stores.Close())

	cfg.Backend = "postgres"
	_, err = OpenStores(cfg)
	assert.ErrorContains(t, err, "unknown backend")
}

func TestPipelineAddAndList(t *testing.T) {
	env, out := setupEnv(t)

	err := PipelineAddCommand(env, []string{"--company", "Acme Corp", "--contact", "Jane Doe", "--email", "jane@acme.com", "--tier", "growth"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "✓ Added: Acme Corp (Jane Doe)")

	out.Reset()
	require.NoError(t, PipelineListCommand(env, []string{"--table"}))
	assert.Contains(t, out.String(), "Acme Corp")
	assert.Contains(t, out.String(), "jane@acme.com")
	assert.Contains(t, out.String(), "Total: 1 leads")
}

func TestPipelineAddRequiresCompanyAndEmail(t *testing.T) {
	env, _ := setupEnv(t)

	err := PipelineAddCommand(env, []string{"--email", "a@b.com"})
	assert.ErrorContains(t, err, "--company is required")

	err = PipelineAddCommand(env, []string{"--company", "Acme"})
	assert.ErrorContains(t, err, "--email is required")
}

func TestPipelineDuplicateIsWarningNotError(t *testing.T) {
	env, out := setupEnv(t)

	require.NoError(t, PipelineAddCommand(env, []string{"--company", "Acme", "--email", "a@acme.com"}))
	out.Reset()
	require.NoError(t, PipelineAddCommand(env, []string{"--company", "ACME", "--email", "b@acme.com"}))
	assert.Contains(t, out.String(), "⚠")
	assert.Contains(t, out.String(), "already exists")

	doc, err := env.Tracker().Load()
	require.NoError(t, err)
	assert.Len(t, doc.Leads, 1)
}

func TestPipelineUpdateAndNote(t *testing.T) {
	env, out := setupEnv(t)
	require.NoError(t, PipelineAddCommand(env, []string{"--company", "Acme Corp", "--email", "a@acme.com"}))

	out.Reset()
	require.NoError(t, PipelineUpdateCommand(env, []string{"acme", "discovery", "call", "booked"}))
	assert.Contains(t, out.String(), "✓ Updated: Acme Corp")
	assert.Contains(t, out.String(), "Note: call booked")

	out.Reset()
	require.NoError(t, PipelineUpdateCommand(env, []string{"acme", "closed"}))
	assert.Contains(t, out.String(), "invalid stage")

	out.Reset()
	require.NoError(t, PipelineUpdateCommand(env, []string{"globex", "won"}))
	assert.Contains(t, out.String(), "lead not found")

	out.Reset()
	require.NoError(t, PipelineNoteCommand(env, []string{"acme", "sent", "deck"}))
	assert.Contains(t, out.String(), "(2 notes)")

	lead, err := env.Tracker().Find("acme")
	require.NoError(t, err)
	assert.Equal(t, models.StageDiscovery, lead.Stage)
	assert.Len(t, lead.History, 2)
}

func TestPipelineFlagsAfterPositionals(t *testing.T) {
	env, out := setupEnv(t)
	require.NoError(t, PipelineAddCommand(env, []string{"--company", "Acme Corp", "--email", "a@acme.com"}))

	out.Reset()
	require.NoError(t, PipelineUpdateCommand(env, []string{"acme", "discovery", "--note", "call booked"}))
	assert.Contains(t, out.String(), "Note: call booked")

	lead, err := env.Tracker().Find("acme")
	require.NoError(t, err)
	require.NotEmpty(t, lead.Notes)
	assert.Equal(t, "call booked", lead.Notes[len(lead.Notes)-1].Text)

	out.Reset()
	require.NoError(t, PipelineListCommand(env, []string{"discovery", "--table"}))
	assert.Contains(t, out.String(), "COMPANY")
	assert.Contains(t, out.String(), "Total: 1 leads")

	out.Reset()
	require.NoError(t, PipelineListCommand(env, []string{"won", "--table"}))
	assert.Contains(t, out.String(), "No leads found.")
}

func TestPipelineUpdateNeedsArgs(t *testing.T) {
	env, _ := setupEnv(t)
	err := PipelineUpdateCommand(env, []string{"acme"})
	assert.ErrorContains(t, err, "usage")
}

func TestPipelineImportAndStats(t *testing.T) {
	env, out := setupEnv(t)
	csv := writeFile(t, t.TempDir(), "leads.csv",
		"Company Name,Contact Name,Email\nAcme,Jane,jane@acme.com\nGlobex,,\nInitech,Bill,bill@initech.com\n")

	require.NoError(t, PipelineImportCommand(env, []string{csv}))
	assert.Contains(t, out.String(), "✓ Imported 2 leads, skipped 0 duplicates, dropped 1")

	out.Reset()
	require.NoError(t, PipelineStatsCommand(env, nil))
	assert.Regexp(t, `Total leads:\s+2`, out.String())
}

func TestOutreachSendDryRun(t *testing.T) {
	env, out := setupEnv(t)
	dir := t.TempDir()
	leads := writeFile(t, dir, "leads.json", `[{"name":"Jane Doe","email":"jane@acme.com","company":"Acme"}]`)
	tmpl := writeFile(t, dir, "template.txt", "Hi {{first_name}}, about {{company}}")

	// flags after positionals still count
	require.NoError(t, OutreachSendCommand(context.Background(), env, []string{leads, tmpl, "--dry-run", "--subject", "Hello {{company}}"}))

	s := out.String()
	assert.Contains(t, s, "DRY RUN")
	assert.Contains(t, s, "Subject: Hello Acme")
	assert.Contains(t, s, "Hi Jane, about Acme")
	assert.Contains(t, s, "Dry run complete. Previewed 1 emails.")

	log, err := outreach.LoadLog(env.Stores.OutreachLog)
	require.NoError(t, err)
	assert.Empty(t, log.Sent)
}

func TestOutreachSendWithoutCredentialsFails(t *testing.T) {
	env, _ := setupEnv(t)
	env.Config.Mail.GmailUser = ""
	env.Config.Mail.GmailAppPassword = ""
	dir := t.TempDir()
	leads := writeFile(t, dir, "leads.json", `[{"email":"jane@acme.com"}]`)
	tmpl := writeFile(t, dir, "template.txt", "Hi")

	err := OutreachSendCommand(context.Background(), env, []string{"--transport", "smtp", leads, tmpl})
	require.Error(t, err)
	assert.True(t, outreach.IsConfigError(err))
}

func TestOutreachValidateWithoutDNS(t *testing.T) {
	env, out := setupEnv(t)
	dir := t.TempDir()
	leads := writeFile(t, dir, "leads.json", `[{"email":"not-an-email"},{"name":"No Address"},{"email":"bob@gmial.com"}]`)

	require.NoError(t, OutreachValidateCommand(context.Background(), env, []string{leads}))

	s := out.String()
	assert.Contains(t, s, "✓ Valid: 0")
	assert.Contains(t, s, "✗ Invalid: 3")
	assert.Contains(t, s, "not-an-email: Invalid format")
	assert.Contains(t, s, "(none): No email")
	assert.Contains(t, s, "bob@gmial.com: Likely typo in domain")

	data, err := os.ReadFile(filepath.Join(dir, "leads-valid.json"))
	require.NoError(t, err)
	var valid []models.Prospect
	require.NoError(t, json.Unmarshal(data, &valid))
	assert.Empty(t, valid)

	cache := models.ValidationCache{}
	found, err := env.Stores.ValidationCache.Load(&cache)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Contains(t, cache, "bob@gmial.com")
}

func TestOutreachStatusAndReplied(t *testing.T) {
	env, out := setupEnv(t)

	require.NoError(t, OutreachStatusCommand(env, nil))
	assert.Contains(t, out.String(), "Sent:    0")

	out.Reset()
	require.NoError(t, OutreachRepliedCommand(env, []string{"jane@acme.com", "--note", "interested"}))
	assert.Contains(t, out.String(), "✓ Reply recorded: jane@acme.com")
	assert.Contains(t, out.String(), "No earlier send")

	out.Reset()
	require.NoError(t, OutreachStatusCommand(env, nil))
	assert.Contains(t, out.String(), "Replied: 1")
	assert.Contains(t, out.String(), "jane@acme.com (N/A): interested")
}

func TestVizStagesWritesFile(t *testing.T) {
	env, out := setupEnv(t)
	require.NoError(t, PipelineAddCommand(env, []string{"--company", "Acme", "--email", "a@acme.com"}))
	require.NoError(t, PipelineUpdateCommand(env, []string{"acme", "contacted"}))

	path := filepath.Join(t.TempDir(), "stages.dot")
	out.Reset()
	require.NoError(t, VizStagesCommand(context.Background(), env, []string{"--output", path}))
	assert.Contains(t, out.String(), "✓ Graph written to")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph")
}

func TestParseInterspersed(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	dry := fs.Bool("dry-run", false, "")
	subject := fs.String("subject", "", "")

	positional, err := parseInterspersed(fs, []string{"a.json", "--dry-run", "b.txt", "--subject", "Hi there"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.txt"}, positional)
	assert.True(t, *dry)
	assert.Equal(t, "Hi there", *subject)
}
