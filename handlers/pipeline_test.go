// ABOUTME: Tests for pipeline MCP tool handlers
// ABOUTME: Validates tool input/output and error handling against a temp store
package handlers

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/prospect/config"
	"github.com/harperreed/prospect/db"
	"github.com/harperreed/prospect/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func setupTracker(t *testing.T) *pipeline.Tracker {
	t.Helper()
	store := db.NewFileStore(filepath.Join(t.TempDir(), "pipeline.json"))
	return pipeline.NewTracker(store, config.DefaultPipelineConfig(), pipeline.WithClock(func() time.Time { return testNow }))
}

func TestAddLeadHandler(t *testing.T) {
	h := NewPipelineHandlers(setupTracker(t))

	_, out, err := h.AddLead(context.Background(), nil, AddLeadInput{
		Company: "Acme Plumbing",
		Contact: "Jane",
		Email:   "jane@acme.com",
		Tier:    "growth",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "Acme Plumbing", out.Company)
	assert.Equal(t, "new", out.Stage)
	require.Len(t, out.History, 1)
	assert.Equal(t, "new", out.History[0].Stage)
	assert.Equal(t, testNow.Format(time.RFC3339), out.CreatedAt)
}

func TestAddLeadHandlerErrors(t *testing.T) {
	h := NewPipelineHandlers(setupTracker(t))

	_, _, err := h.AddLead(context.Background(), nil, AddLeadInput{})
	assert.Error(t, err)
	_, _, err = h.AddLead(context.Background(), nil, AddLeadInput{Company: "No Email"})
	assert.EqualError(t, err, "email is required")

	_, _, err = h.AddLead(context.Background(), nil, AddLeadInput{Email: "lead@example.com", Company: "Acme"})
	require.NoError(t, err)
	_, _, err = h.AddLead(context.Background(), nil, AddLeadInput{Email: "lead@example.com", Company: "ACME"})
	assert.True(t, errors.Is(err, pipeline.ErrLeadExists))
}

func TestUpdateLeadStageHandler(t *testing.T) {
	h := NewPipelineHandlers(setupTracker(t))
	_, _, err := h.AddLead(context.Background(), nil, AddLeadInput{Email: "lead@example.com", Company: "Acme Plumbing"})
	require.NoError(t, err)

	_, out, err := h.UpdateLeadStage(context.Background(), nil, UpdateLeadStageInput{
		Company: "acme",
		Stage:   "Discovery",
		Note:    "call booked",
	})
	require.NoError(t, err)

	assert.Equal(t, "new", out.From)
	assert.Equal(t, "discovery", out.To)
	assert.Equal(t, "discovery", out.Lead.Stage)
	require.Len(t, out.Lead.History, 2)
	assert.Equal(t, "new", out.Lead.History[1].From)
	require.Len(t, out.Lead.Notes, 1)
	assert.Equal(t, "call booked", out.Lead.Notes[0].Text)
}

func TestUpdateLeadStageHandlerErrors(t *testing.T) {
	h := NewPipelineHandlers(setupTracker(t))
	_, _, err := h.AddLead(context.Background(), nil, AddLeadInput{Email: "lead@example.com", Company: "Acme"})
	require.NoError(t, err)

	_, _, err = h.UpdateLeadStage(context.Background(), nil, UpdateLeadStageInput{Company: "Nope", Stage: "won"})
	assert.ErrorIs(t, err, pipeline.ErrLeadNotFound)

	_, _, err = h.UpdateLeadStage(context.Background(), nil, UpdateLeadStageInput{Company: "Acme", Stage: "maybe"})
	assert.ErrorIs(t, err, pipeline.ErrInvalidStage)

	_, found, err := h.FindLead(context.Background(), nil, FindLeadInput{Company: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "new", found.Stage)
	assert.Len(t, found.History, 1)
}

func TestAddLeadNoteAndFindHandler(t *testing.T) {
	h := NewPipelineHandlers(setupTracker(t))
	_, _, err := h.AddLead(context.Background(), nil, AddLeadInput{Email: "lead@example.com", Company: "Acme"})
	require.NoError(t, err)

	_, out, err := h.AddLeadNote(context.Background(), nil, AddLeadNoteInput{Company: "acm", Note: "sent deck"})
	require.NoError(t, err)
	require.Len(t, out.Notes, 1)
	assert.Equal(t, "new", out.Stage)

	_, found, err := h.FindLead(context.Background(), nil, FindLeadInput{Company: "ACM"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", found.Company)
	assert.Len(t, found.Notes, 1)

	_, _, err = h.FindLead(context.Background(), nil, FindLeadInput{})
	assert.Error(t, err)
}

func TestListPipelineHandler(t *testing.T) {
	h := NewPipelineHandlers(setupTracker(t))
	for _, c := range []string{"Acme", "Beta", "Gamma"} {
		_, _, err := h.AddLead(context.Background(), nil, AddLeadInput{Email: "lead@example.com", Company: c})
		require.NoError(t, err)
	}
	_, _, err := h.UpdateLeadStage(context.Background(), nil, UpdateLeadStageInput{Company: "Beta", Stage: "won"})
	require.NoError(t, err)

	_, all, err := h.ListPipeline(context.Background(), nil, ListPipelineInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)

	_, won, err := h.ListPipeline(context.Background(), nil, ListPipelineInput{Stage: "won"})
	require.NoError(t, err)
	require.Len(t, won.Groups, 1)
	assert.Equal(t, "won", won.Groups[0].Stage)
	require.Len(t, won.Groups[0].Leads, 1)
	assert.Equal(t, "Beta", won.Groups[0].Leads[0].Company)

	_, _, err = h.ListPipeline(context.Background(), nil, ListPipelineInput{Stage: "bogus"})
	assert.ErrorIs(t, err, pipeline.ErrInvalidStage)
}

func TestPipelineStatsHandler(t *testing.T) {
	h := NewPipelineHandlers(setupTracker(t))
	_, _, err := h.AddLead(context.Background(), nil, AddLeadInput{Email: "lead@example.com", Company: "Acme", Tier: "growth"})
	require.NoError(t, err)
	_, _, err = h.AddLead(context.Background(), nil, AddLeadInput{Email: "lead@example.com", Company: "Beta", Tier: "starter"})
	require.NoError(t, err)
	_, _, err = h.UpdateLeadStage(context.Background(), nil, UpdateLeadStageInput{Company: "Beta", Stage: "won"})
	require.NoError(t, err)

	_, stats, err := h.PipelineStats(context.Background(), nil, PipelineStatsInput{})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStage["won"])
	assert.Equal(t, 1, stats.ByStage["new"])
	assert.Equal(t, 0, stats.ByStage["lost"])
	assert.Equal(t, 100, stats.ConversionRate)
	prices := config.DefaultPipelineConfig().TierPrices
	assert.Equal(t, prices["growth"], stats.PotentialRevenue)
	assert.Equal(t, prices["starter"], stats.WonRevenue)
}

func TestStageFlowGraphHandler(t *testing.T) {
	tracker := setupTracker(t)
	ph := NewPipelineHandlers(tracker)
	_, _, err := ph.AddLead(context.Background(), nil, AddLeadInput{Email: "lead@example.com", Company: "Acme"})
	require.NoError(t, err)
	_, _, err = ph.UpdateLeadStage(context.Background(), nil, UpdateLeadStageInput{Company: "Acme", Stage: "contacted"})
	require.NoError(t, err)

	_, out, err := NewVizHandlers(tracker).StageFlowGraph(context.Background(), nil, StageFlowGraphInput{})
	require.NoError(t, err)

	assert.Contains(t, out.DOTSource, "digraph")
	assert.Equal(t, []TransitionOutput{{From: "new", To: "contacted", Count: 1}}, out.Transitions)
}
