// ABOUTME: MCP server subcommand
// ABOUTME: Serves the pipeline and outreach tools over stdio
package cli

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/harperreed/prospect/handlers"
)

// MCPCommand starts the MCP server on stdio and blocks until the client
// disconnects or ctx is cancelled.
func MCPCommand(ctx context.Context, env *Env, version string) error {
	// stdout carries the protocol; status goes to the logger on stderr
	env.Logger.Info("starting MCP server", zap.String("backend", env.Config.Backend))

	server := handlers.NewServer(env.Tracker(), env.Stores.OutreachLog, env.Config.Outreach.RecentEntries, version)
	return server.Run(ctx, &mcp.StdioTransport{})
}
