// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides the stage_flow_graph tool for agents
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/prospect/pipeline"
	"github.com/harperreed/prospect/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	tracker *pipeline.Tracker
}

func NewVizHandlers(tracker *pipeline.Tracker) *VizHandlers {
	return &VizHandlers{tracker: tracker}
}

type StageFlowGraphInput struct{}

type TransitionOutput struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Count int    `json:"count"`
}

type StageFlowGraphOutput struct {
	DOTSource   string             `json:"dot_source"`
	Transitions []TransitionOutput `json:"transitions"`
}

func (h *VizHandlers) StageFlowGraph(ctx context.Context, _ *mcp.CallToolRequest, _ StageFlowGraphInput) (*mcp.CallToolResult, StageFlowGraphOutput, error) {
	doc, err := h.tracker.Load()
	if err != nil {
		return nil, StageFlowGraphOutput{}, err
	}

	dot, err := viz.StageFlowGraph(ctx, doc.Leads)
	if err != nil {
		return nil, StageFlowGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	transitions := viz.CountTransitions(doc.Leads)
	out := StageFlowGraphOutput{DOTSource: dot, Transitions: make([]TransitionOutput, 0, len(transitions))}
	for _, tc := range transitions {
		out.Transitions = append(out.Transitions, TransitionOutput{From: string(tc.From), To: string(tc.To), Count: tc.Count})
	}
	return nil, out, nil
}
