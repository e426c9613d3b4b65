// ABOUTME: MCP server assembly
// ABOUTME: Registers pipeline and outreach tools, resources, and prompts on one server
package handlers

import (
	"github.com/harperreed/prospect/db"
	"github.com/harperreed/prospect/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds the MCP server over a tracker and the outreach log store.
func NewServer(tracker *pipeline.Tracker, outreachLog db.Store, recent int, version string) *mcp.Server {
	pipelineHandlers := NewPipelineHandlers(tracker)
	outreachHandlers := NewOutreachHandlers(outreachLog, recent)
	resourceHandlers := NewResourceHandlers(tracker, outreachLog, recent)
	promptHandlers := NewPromptHandlers(tracker)
	vizHandlers := NewVizHandlers(tracker)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "prospect",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_lead",
		Description: "Add a new lead to the sales pipeline in stage 'new'",
	}, pipelineHandlers.AddLead)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_lead_stage",
		Description: "Move a lead to a new pipeline stage, recording history and an optional note",
	}, pipelineHandlers.UpdateLeadStage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_lead_note",
		Description: "Append a note to a lead without changing its stage",
	}, pipelineHandlers.AddLeadNote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_lead",
		Description: "Look up a lead by company name or fragment",
	}, pipelineHandlers.FindLead)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_pipeline",
		Description: "List leads grouped by stage, with days since update and stale markers",
	}, pipelineHandlers.ListPipeline)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pipeline_stats",
		Description: "Pipeline totals, conversion rate, and revenue by tier",
	}, pipelineHandlers.PipelineStats)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "outreach_status",
		Description: "Cold outreach counts and the most recent sent, bounced, and replied entries",
	}, outreachHandlers.OutreachStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "stage_flow_graph",
		Description: "GraphViz DOT graph of how leads have moved between stages, with transition counts",
	}, vizHandlers.StageFlowGraph)

	for _, r := range []*mcp.Resource{
		{URI: LeadsURI, Name: "leads", Description: "All leads grouped by stage", MIMEType: "application/json"},
		{URI: StatsURI, Name: "pipeline-stats", Description: "Aggregate pipeline statistics", MIMEType: "application/json"},
		{URI: OutreachURI, Name: "outreach", Description: "Outreach log summary", MIMEType: "application/json"},
	} {
		server.AddResource(r, resourceHandlers.ReadResource)
	}
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: LeadURIBase + "{company}",
		Name:        "lead",
		Description: "A single lead by company name",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        "lead-review",
		Description: "Assess a lead and suggest the next action",
		Arguments: []*mcp.PromptArgument{
			{Name: "company", Description: "Company name or fragment", Required: true},
		},
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "stale-follow-ups",
		Description: "Draft follow-ups for open leads that have gone quiet",
	}, promptHandlers.GetPrompt)

	return server
}
