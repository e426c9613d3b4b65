// ABOUTME: Visualization CLI commands
// ABOUTME: Writes the stage transition graph as GraphViz DOT
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/harperreed/prospect/viz"
)

// VizStagesCommand renders how leads have moved between stages.
func VizStagesCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("viz stages", flag.ContinueOnError)
	fs.SetOutput(env.Out)
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	doc, err := env.Tracker().Load()
	if err != nil {
		return err
	}

	dot, err := viz.StageFlowGraph(ctx, doc.Leads)
	if err != nil {
		return err
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(dot), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", *output, err)
		}
		env.printf("✓ Graph written to %s\n", *output)
		return nil
	}

	env.printf("%s\n", dot)
	return nil
}

// VizStatsCommand prints the pipeline dashboard.
func VizStatsCommand(env *Env, args []string) error {
	return PipelineStatsCommand(env, args)
}
