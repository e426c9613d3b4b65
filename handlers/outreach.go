// ABOUTME: Outreach MCP tool handlers
// ABOUTME: Implements outreach_status as a read-only view of the campaign log
package handlers

import (
	"context"
	"time"

	"github.com/harperreed/prospect/db"
	"github.com/harperreed/prospect/models"
	"github.com/harperreed/prospect/outreach"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type OutreachHandlers struct {
	log    db.Store
	recent int
}

func NewOutreachHandlers(log db.Store, recent int) *OutreachHandlers {
	return &OutreachHandlers{log: log, recent: recent}
}

type OutreachStatusInput struct {
	Recent int `json:"recent,omitempty" jsonschema:"How many recent entries of each kind to return (default from config)"`
}

type OutreachEntryOutput struct {
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Company   string `json:"company,omitempty"`
	Subject   string `json:"subject,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
	Note      string `json:"note,omitempty"`
	Timestamp string `json:"timestamp"`
}

type OutreachStatusOutput struct {
	Sent          int                   `json:"sent"`
	Bounced       int                   `json:"bounced"`
	Replied       int                   `json:"replied"`
	ReplyRate     int                   `json:"reply_rate_percent"`
	RecentSent    []OutreachEntryOutput `json:"recent_sent"`
	RecentBounced []OutreachEntryOutput `json:"recent_bounced"`
	RecentReplied []OutreachEntryOutput `json:"recent_replied"`
}

func (h *OutreachHandlers) OutreachStatus(_ context.Context, _ *mcp.CallToolRequest, input OutreachStatusInput) (*mcp.CallToolResult, OutreachStatusOutput, error) {
	recent := input.Recent
	if recent <= 0 {
		recent = h.recent
	}

	summary, err := outreach.Status(h.log, recent)
	if err != nil {
		return nil, OutreachStatusOutput{}, err
	}

	return nil, OutreachStatusOutput{
		Sent:          summary.Sent,
		Bounced:       summary.Bounced,
		Replied:       summary.Replied,
		ReplyRate:     summary.ReplyRate,
		RecentSent:    entriesToOutput(summary.RecentSent),
		RecentBounced: entriesToOutput(summary.RecentBounced),
		RecentReplied: entriesToOutput(summary.RecentReplied),
	}, nil
}

func entriesToOutput(entries []models.OutreachEntry) []OutreachEntryOutput {
	out := make([]OutreachEntryOutput, 0, len(entries))
	for _, e := range entries {
		out = append(out, OutreachEntryOutput{
			Email:     e.Email,
			Name:      e.Name,
			Company:   e.Company,
			Subject:   e.Subject,
			MessageID: e.MessageID,
			Error:     e.Error,
			Note:      e.Note,
			Timestamp: e.Timestamp.Format(time.RFC3339),
		})
	}
	return out
}
