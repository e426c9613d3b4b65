// ABOUTME: Entry point for the prospect CLI and MCP server
// ABOUTME: Loads configuration, opens storage, and routes commands to the cli package
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/harperreed/prospect/cli"
	"github.com/harperreed/prospect/config"
)

const version = "0.2.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file (default: ~/.config/prospect/config.yaml)")
	dataDir := flag.String("data-dir", "", "Data directory (default: ~/.local/share/prospect)")
	backend := flag.String("backend", "", "Storage backend: json or sqlite")
	verbose := flag.Bool("verbose", false, "Debug logging on stderr")
	flag.Usage = printUsage

	// Parse global flags; everything after the command belongs to subcommands
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("prospect version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	config.LoadEnvFiles()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *backend != "" {
		cfg.Backend = *backend
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), cfg, logger, args); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// newLogger writes console-encoded logs to stderr so stdout stays clean for
// command output and the MCP stdio transport.
func newLogger(verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		zcfg.Development = true
	}
	return zcfg.Build()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string) error {
	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "help":
		printUsage()
		return nil
	case "pipeline", "outreach", "mcp", "viz", "auth", "web":
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}

	stores, err := cli.OpenStores(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = stores.Close() }()

	env := cli.NewEnv(cfg, stores, logger)
	logger.Debug("storage opened",
		zap.String("backend", cfg.Backend),
		zap.String("data_dir", cfg.DataDir))

	switch command {
	case "mcp":
		return cli.MCPCommand(ctx, env, version)
	case "auth":
		return cli.AuthCommand(ctx, env, commandArgs)
	case "web":
		return cli.WebCommand(ctx, env, commandArgs)
	}

	if len(commandArgs) == 0 {
		printUsage()
		return fmt.Errorf("%s requires a subcommand", command)
	}
	sub := commandArgs[0]
	subArgs := commandArgs[1:]

	switch command {
	case "pipeline":
		switch sub {
		case "add":
			return cli.PipelineAddCommand(env, subArgs)
		case "update":
			return cli.PipelineUpdateCommand(env, subArgs)
		case "note":
			return cli.PipelineNoteCommand(env, subArgs)
		case "list":
			return cli.PipelineListCommand(env, subArgs)
		case "stats":
			return cli.PipelineStatsCommand(env, subArgs)
		case "import":
			return cli.PipelineImportCommand(env, subArgs)
		case "board":
			return cli.PipelineBoardCommand(env, subArgs)
		}

	case "outreach":
		switch sub {
		case "validate":
			return cli.OutreachValidateCommand(ctx, env, subArgs)
		case "send":
			return cli.OutreachSendCommand(ctx, env, subArgs)
		case "status":
			return cli.OutreachStatusCommand(env, subArgs)
		case "replied":
			return cli.OutreachRepliedCommand(env, subArgs)
		case "check-replies":
			return cli.OutreachCheckRepliesCommand(ctx, env, subArgs)
		}

	case "viz":
		switch sub {
		case "stages":
			return cli.VizStagesCommand(ctx, env, subArgs)
		case "dashboard":
			return cli.VizStatsCommand(env, subArgs)
		}
	}

	printUsage()
	return fmt.Errorf("unknown %s command: %s", command, sub)
}

func printUsage() {
	fmt.Printf(`prospect v%s - sales pipeline and cold outreach toolkit

USAGE:
  prospect [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: ~/.config/prospect/config.yaml)
  --data-dir <path>      Data directory (default: ~/.local/share/prospect)
  --backend <name>       Storage backend: json (default) or sqlite
  --verbose              Debug logging on stderr

COMMANDS:
  pipeline               Lead pipeline tracking
  outreach               Cold email campaigns
  auth                   Authorize the gmail transport with Google OAuth
  mcp                    Start MCP server on stdio
  web                    Read-only dashboard (--port, default 8080)
  viz                    Visualization commands

PIPELINE COMMANDS:
  prospect pipeline add          Add a lead in stage 'new'
    --company <name>               Company name (required)
    --email <email>                Contact email (required)
    --contact <name>               Contact name
    --source <source>              Lead source (default: manual)
    --tier <tier>                  starter, growth, or ownership
    --revenue <text>               Revenue estimate

  prospect pipeline update [--note text] <company> <stage>
                                 Move a lead (stages: new, contacted, discovery,
                                 proposal, negotiation, won, lost)
  prospect pipeline note <company> <text>
                                 Add a note without changing stage
  prospect pipeline list [stage] List leads grouped by stage (--table for flat)
  prospect pipeline stats        Pipeline dashboard
  prospect pipeline import <file.csv>
                                 Import leads from CSV
  prospect pipeline board        Interactive board

OUTREACH COMMANDS:
  prospect outreach validate <leads.json|leads.csv>
                                 Check MX records, save <leads>-valid.json
  prospect outreach send <leads> <template.txt>
    --dry-run                      Preview without sending or logging
    --subject <template>           Subject line, may use {{placeholders}}
    --transport <name>             smtp, gmail, or agentmail
  prospect outreach status       Sent, bounced, and replied counts
  prospect outreach replied [--note text] <email>
                                 Record a reply
  prospect outreach check-replies
                                 Find replies in Gmail (run 'prospect auth' first)

VIZ COMMANDS:
  prospect viz stages            DOT graph of stage transitions
    --output <file>                Output file (default: stdout)
  prospect viz dashboard         Same as 'pipeline stats'

ENVIRONMENT:
  GMAIL_USER, GMAIL_APP_PASSWORD        smtp transport
  GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET gmail transport (run 'prospect auth')
  AGENTMAIL_API_KEY, AGENTMAIL_EMAIL    agentmail transport
  PROSPECT_DATA_DIR, PROSPECT_BACKEND, PROSPECT_TRANSPORT,
  PROSPECT_SEND_DELAY, PROSPECT_MAX_SENDS

EXAMPLES:
  # Track a new lead and move it along
  prospect pipeline add --company "Acme Corp" --contact "Jane Doe" --email jane@acme.com --tier growth
  prospect pipeline update --note "call booked" acme discovery

  # Validate a list, preview, then send
  prospect outreach validate leads.csv
  prospect outreach send --dry-run leads-valid.json template.txt
  prospect outreach send --subject "Hi {{first_name}}" leads-valid.json template.txt

`, version)
}
