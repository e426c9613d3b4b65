// ABOUTME: Web dashboard subcommand
// ABOUTME: Serves the read-only pipeline and outreach pages until interrupted
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/prospect/web"
)

// WebCommand starts the dashboard on localhost.
func WebCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	fs.SetOutput(env.Out)
	port := fs.Int("port", 8080, "Port to listen on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	server, err := web.NewServer(env.Tracker(), env.Stores.OutreachLog, env.Config.Outreach.RecentEntries, env.Logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	env.printf("Dashboard at http://localhost:%d (Ctrl-C to stop)\n", *port)
	return server.Start(ctx, fmt.Sprintf("127.0.0.1:%d", *port))
}
