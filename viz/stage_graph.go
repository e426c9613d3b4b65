// ABOUTME: Stage flow graph generation from lead histories
// ABOUTME: Counts stage-to-stage transitions and renders them as a DOT graph
package viz

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/harperreed/prospect/models"
)

type Transition struct {
	From models.Stage
	To   models.Stage
}

type TransitionCount struct {
	Transition
	Count int
}

// CountTransitions tallies every recorded stage change across leads, in
// pipeline order of the source stage and then the target stage.
func CountTransitions(leads []models.Lead) []TransitionCount {
	counts := make(map[Transition]int)
	for _, lead := range leads {
		for _, change := range lead.History {
			if change.From == "" {
				continue
			}
			counts[Transition{From: change.From, To: change.Stage}]++
		}
	}

	order := make(map[models.Stage]int, len(models.Stages))
	for i, s := range models.Stages {
		order[s] = i
	}

	result := make([]TransitionCount, 0, len(counts))
	for t, n := range counts {
		result = append(result, TransitionCount{Transition: t, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if order[a.From] != order[b.From] {
			return order[a.From] < order[b.From]
		}
		return order[a.To] < order[b.To]
	})
	return result
}

// StageFlowGraph renders one node per stage, labelled with its current lead
// count, and one edge per observed transition labelled with how often it happened.
func StageFlowGraph(ctx context.Context, leads []models.Lead) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetLabel("Pipeline stage flow")
	graph.SetRankDir(cgraph.LRRank)

	current := make(map[models.Stage]int)
	for _, lead := range leads {
		current[lead.Stage]++
	}

	nodes := make(map[models.Stage]*cgraph.Node, len(models.Stages))
	for _, stage := range models.Stages {
		node, err := graph.CreateNodeByName(string(stage))
		if err != nil {
			return "", fmt.Errorf("failed to create stage node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\n%d", stage, current[stage]))
		node.SetShape("box")
		node.SetStyle("filled")
		switch stage {
		case models.StageWon:
			node.SetFillColor("lightgreen")
		case models.StageLost:
			node.SetFillColor("lightpink")
		default:
			node.SetFillColor("lightblue")
		}
		nodes[stage] = node
	}

	for _, tc := range CountTransitions(leads) {
		from, ok1 := nodes[tc.From]
		to, ok2 := nodes[tc.To]
		if !ok1 || !ok2 {
			continue
		}
		edge, err := graph.CreateEdgeByName(fmt.Sprintf("%s_%s", tc.From, tc.To), from, to)
		if err != nil {
			return "", fmt.Errorf("failed to create edge: %w", err)
		}
		edge.SetLabel(fmt.Sprintf("%d", tc.Count))
		if tc.From.IsClosed() {
			// reopened deals
			edge.SetStyle("dashed")
		}
	}

	// XDOT is go-graphviz's name for the plain "dot" renderer
	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}
