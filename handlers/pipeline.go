// ABOUTME: Pipeline MCP tool handlers
// ABOUTME: Implements add_lead, update_lead_stage, add_lead_note, find_lead, list_pipeline, and pipeline_stats
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/prospect/models"
	"github.com/harperreed/prospect/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PipelineHandlers struct {
	tracker *pipeline.Tracker
}

func NewPipelineHandlers(tracker *pipeline.Tracker) *PipelineHandlers {
	return &PipelineHandlers{tracker: tracker}
}

type NoteOutput struct {
	Text string `json:"text"`
	Date string `json:"date"`
}

type StageChangeOutput struct {
	Stage string `json:"stage"`
	From  string `json:"from,omitempty"`
	Date  string `json:"date"`
}

type LeadOutput struct {
	ID        string              `json:"id"`
	Company   string              `json:"company"`
	Contact   string              `json:"contact,omitempty"`
	Email     string              `json:"email,omitempty"`
	Source    string              `json:"source,omitempty"`
	Tier      string              `json:"tier,omitempty"`
	Revenue   string              `json:"revenue,omitempty"`
	Stage     string              `json:"stage"`
	Notes     []NoteOutput        `json:"notes"`
	History   []StageChangeOutput `json:"history"`
	CreatedAt string              `json:"created_at"`
	UpdatedAt string              `json:"updated_at"`
}

type AddLeadInput struct {
	Company string `json:"company" jsonschema:"Company name (required, unique ignoring case)"`
	Contact string `json:"contact,omitempty" jsonschema:"Primary contact name"`
	Email   string `json:"email" jsonschema:"Contact email address (required)"`
	Source  string `json:"source,omitempty" jsonschema:"Where the lead came from"`
	Tier    string `json:"tier,omitempty" jsonschema:"Service tier: starter, growth, ownership, or other"`
	Revenue string `json:"revenue,omitempty" jsonschema:"Free text revenue estimate"`
}

func (h *PipelineHandlers) AddLead(_ context.Context, _ *mcp.CallToolRequest, input AddLeadInput) (*mcp.CallToolResult, LeadOutput, error) {
	if input.Company == "" {
		return nil, LeadOutput{}, fmt.Errorf("company is required")
	}
	if input.Email == "" {
		return nil, LeadOutput{}, fmt.Errorf("email is required")
	}

	lead, err := h.tracker.Add(pipeline.NewLead{
		Company: input.Company,
		Contact: input.Contact,
		Email:   input.Email,
		Source:  input.Source,
		Tier:    input.Tier,
		Revenue: input.Revenue,
	})
	if err != nil {
		return nil, LeadOutput{}, err
	}

	return nil, leadToOutput(lead), nil
}

type UpdateLeadStageInput struct {
	Company string `json:"company" jsonschema:"Company name or a case-insensitive fragment of it (first match wins)"`
	Stage   string `json:"stage" jsonschema:"New stage: new, contacted, discovery, proposal, negotiation, won, or lost"`
	Note    string `json:"note,omitempty" jsonschema:"Optional note recorded with the change"`
}

type UpdateLeadStageOutput struct {
	Lead LeadOutput `json:"lead"`
	From string     `json:"from"`
	To   string     `json:"to"`
}

func (h *PipelineHandlers) UpdateLeadStage(_ context.Context, _ *mcp.CallToolRequest, input UpdateLeadStageInput) (*mcp.CallToolResult, UpdateLeadStageOutput, error) {
	if input.Company == "" {
		return nil, UpdateLeadStageOutput{}, fmt.Errorf("company is required")
	}

	update, err := h.tracker.Update(input.Company, input.Stage, input.Note)
	if err != nil {
		return nil, UpdateLeadStageOutput{}, err
	}

	return nil, UpdateLeadStageOutput{
		Lead: leadToOutput(update.Lead),
		From: string(update.From),
		To:   string(update.To),
	}, nil
}

type AddLeadNoteInput struct {
	Company string `json:"company" jsonschema:"Company name or fragment"`
	Note    string `json:"note" jsonschema:"Note text"`
}

func (h *PipelineHandlers) AddLeadNote(_ context.Context, _ *mcp.CallToolRequest, input AddLeadNoteInput) (*mcp.CallToolResult, LeadOutput, error) {
	lead, err := h.tracker.AddNote(input.Company, input.Note)
	if err != nil {
		return nil, LeadOutput{}, err
	}
	return nil, leadToOutput(lead), nil
}

type FindLeadInput struct {
	Company string `json:"company" jsonschema:"Company name or fragment"`
}

func (h *PipelineHandlers) FindLead(_ context.Context, _ *mcp.CallToolRequest, input FindLeadInput) (*mcp.CallToolResult, LeadOutput, error) {
	if input.Company == "" {
		return nil, LeadOutput{}, fmt.Errorf("company is required")
	}

	lead, err := h.tracker.Find(input.Company)
	if err != nil {
		return nil, LeadOutput{}, err
	}
	return nil, leadToOutput(lead), nil
}

type ListPipelineInput struct {
	Stage string `json:"stage,omitempty" jsonschema:"Only list leads in this stage"`
}

type BoardLeadOutput struct {
	LeadOutput
	DaysSinceUpdate int  `json:"days_since_update"`
	Stale           bool `json:"stale"`
}

type StageGroupOutput struct {
	Stage string            `json:"stage"`
	Label string            `json:"label"`
	Leads []BoardLeadOutput `json:"leads"`
}

type ListPipelineOutput struct {
	Groups []StageGroupOutput `json:"groups"`
	Total  int                `json:"total"`
}

func (h *PipelineHandlers) ListPipeline(_ context.Context, _ *mcp.CallToolRequest, input ListPipelineInput) (*mcp.CallToolResult, ListPipelineOutput, error) {
	board, err := h.tracker.List(input.Stage)
	if err != nil {
		return nil, ListPipelineOutput{}, err
	}

	out := ListPipelineOutput{Groups: make([]StageGroupOutput, 0, len(board.Groups)), Total: board.Total}
	for _, group := range board.Groups {
		g := StageGroupOutput{Stage: string(group.Stage), Label: group.Stage.Label(), Leads: make([]BoardLeadOutput, 0, len(group.Leads))}
		for i := range group.Leads {
			view := group.Leads[i]
			g.Leads = append(g.Leads, BoardLeadOutput{
				LeadOutput:      leadToOutput(&view.Lead),
				DaysSinceUpdate: view.DaysSinceUpdate,
				Stale:           view.Stale,
			})
		}
		out.Groups = append(out.Groups, g)
	}
	return nil, out, nil
}

type PipelineStatsInput struct{}

type PipelineStatsOutput struct {
	Total             int            `json:"total"`
	ByStage           map[string]int `json:"by_stage"`
	AvgDaysInPipeline int            `json:"avg_days_in_pipeline"`
	ConversionRate    int            `json:"conversion_rate_percent"`
	PotentialRevenue  int64          `json:"potential_revenue"`
	WonRevenue        int64          `json:"won_revenue"`
}

func (h *PipelineHandlers) PipelineStats(_ context.Context, _ *mcp.CallToolRequest, _ PipelineStatsInput) (*mcp.CallToolResult, PipelineStatsOutput, error) {
	stats, err := h.tracker.Stats()
	if err != nil {
		return nil, PipelineStatsOutput{}, err
	}

	byStage := make(map[string]int, len(stats.ByStage))
	for stage, n := range stats.ByStage {
		byStage[string(stage)] = n
	}

	return nil, PipelineStatsOutput{
		Total:             stats.Total,
		ByStage:           byStage,
		AvgDaysInPipeline: stats.AvgDaysInPipeline,
		ConversionRate:    stats.ConversionRate,
		PotentialRevenue:  stats.PotentialRevenue,
		WonRevenue:        stats.WonRevenue,
	}, nil
}

func leadToOutput(lead *models.Lead) LeadOutput {
	out := LeadOutput{
		ID:        lead.ID,
		Company:   lead.Company,
		Contact:   lead.Contact,
		Email:     lead.Email,
		Source:    lead.Source,
		Tier:      lead.Tier,
		Revenue:   lead.Revenue,
		Stage:     string(lead.Stage),
		Notes:     make([]NoteOutput, 0, len(lead.Notes)),
		History:   make([]StageChangeOutput, 0, len(lead.History)),
		CreatedAt: lead.CreatedAt.Format(time.RFC3339),
		UpdatedAt: lead.UpdatedAt.Format(time.RFC3339),
	}
	for _, n := range lead.Notes {
		out.Notes = append(out.Notes, NoteOutput{Text: n.Text, Date: n.Date.Format(time.RFC3339)})
	}
	for _, c := range lead.History {
		out.History = append(out.History, StageChangeOutput{Stage: string(c.Stage), From: string(c.From), Date: c.Date.Format(time.RFC3339)})
	}
	return out
}
