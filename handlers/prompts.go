// ABOUTME: MCP prompt handlers for recurring sales workflows
// ABOUTME: Builds lead review and stale follow-up prompts from pipeline data
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/prospect/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	tracker *pipeline.Tracker
}

func NewPromptHandlers(tracker *pipeline.Tracker) *PromptHandlers {
	return &PromptHandlers{tracker: tracker}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(_ context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "lead-review":
		return h.getLeadReviewPrompt(request.Params.Arguments)
	case "stale-follow-ups":
		return h.getStaleFollowUpsPrompt()
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) getLeadReviewPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	company, ok := args["company"]
	if !ok || company == "" {
		return nil, fmt.Errorf("company is required")
	}

	lead, err := h.tracker.Find(company)
	if err != nil {
		return nil, err
	}

	var promptText strings.Builder
	promptText.WriteString("Please review this sales lead:\n\n")
	fmt.Fprintf(&promptText, "Company: %s\n", lead.Company)
	if lead.Contact != "" {
		fmt.Fprintf(&promptText, "Contact: %s\n", lead.Contact)
	}
	if lead.Email != "" {
		fmt.Fprintf(&promptText, "Email: %s\n", lead.Email)
	}
	fmt.Fprintf(&promptText, "Stage: %s\n", lead.Stage.Label())
	if lead.Tier != "" {
		fmt.Fprintf(&promptText, "Tier: %s\n", lead.Tier)
	}
	if lead.Revenue != "" {
		fmt.Fprintf(&promptText, "Revenue estimate: %s\n", lead.Revenue)
	}
	fmt.Fprintf(&promptText, "In pipeline since: %s\n", lead.CreatedAt.Format("2006-01-02"))

	if len(lead.History) > 1 {
		promptText.WriteString("\nStage history:\n")
		for _, change := range lead.History {
			fmt.Fprintf(&promptText, "- %s: %s\n", change.Date.Format("2006-01-02"), change.Stage)
		}
	}
	if len(lead.Notes) > 0 {
		promptText.WriteString("\nNotes:\n")
		for _, note := range lead.Notes {
			fmt.Fprintf(&promptText, "- %s: %s\n", note.Date.Format("2006-01-02"), note.Text)
		}
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. A short assessment of where this deal stands")
	promptText.WriteString("\n2. The single most useful next action")
	promptText.WriteString("\n3. Risks that could move it to lost")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review for lead: %s", lead.Company),
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: promptText.String()}},
		},
	}, nil
}

func (h *PromptHandlers) getStaleFollowUpsPrompt() (*mcp.GetPromptResult, error) {
	board, err := h.tracker.List("")
	if err != nil {
		return nil, err
	}

	var promptText strings.Builder
	promptText.WriteString("Open leads with no activity for a while:\n\n")

	count := 0
	for _, group := range board.Groups {
		if group.Stage.IsClosed() {
			continue
		}
		for _, view := range group.Leads {
			if !view.Stale {
				continue
			}
			fmt.Fprintf(&promptText, "- %s (%s, %d days since update)\n", view.Company, view.Stage, view.DaysSinceUpdate)
			count++
		}
	}

	if count == 0 {
		promptText.WriteString("No stale leads. Everything open has been touched recently.\n")
	}

	promptText.WriteString("\nPlease:")
	promptText.WriteString("\n1. Prioritize which leads to chase first")
	promptText.WriteString("\n2. Draft a short follow-up for each")

	return &mcp.GetPromptResult{
		Description: "Follow-up suggestions for stale leads",
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: promptText.String()}},
		},
	}, nil
}
