// ABOUTME: MCP resource handlers for exposing pipeline and outreach data
// ABOUTME: Provides read-only JSON views addressed by prospect:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/harperreed/prospect/db"
	"github.com/harperreed/prospect/outreach"
	"github.com/harperreed/prospect/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	LeadsURI    = "prospect://leads"
	StatsURI    = "prospect://pipeline/stats"
	OutreachURI = "prospect://outreach"
	LeadURIBase = "prospect://leads/"
)

type ResourceHandlers struct {
	tracker *pipeline.Tracker
	log     db.Store
	recent  int
}

func NewResourceHandlers(tracker *pipeline.Tracker, log db.Store, recent int) *ResourceHandlers {
	return &ResourceHandlers{tracker: tracker, log: log, recent: recent}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(_ context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, "prospect://") {
		return nil, fmt.Errorf("invalid URI scheme: expected prospect://")
	}

	switch {
	case uri == LeadsURI:
		board, err := h.tracker.List("")
		if err != nil {
			return nil, err
		}
		return jsonResource(uri, board)

	case strings.HasPrefix(uri, LeadURIBase):
		company, err := url.PathUnescape(strings.TrimPrefix(uri, LeadURIBase))
		if err != nil {
			return nil, fmt.Errorf("invalid lead URI: %w", err)
		}
		lead, err := h.tracker.Find(company)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(uri)
		}
		return jsonResource(uri, leadToOutput(lead))

	case uri == StatsURI:
		stats, err := h.tracker.Stats()
		if err != nil {
			return nil, err
		}
		return jsonResource(uri, stats)

	case uri == OutreachURI:
		summary, err := outreach.Status(h.log, h.recent)
		if err != nil {
			return nil, err
		}
		return jsonResource(uri, summary)

	default:
		return nil, mcp.ResourceNotFoundError(uri)
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
