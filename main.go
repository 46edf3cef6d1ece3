// ABOUTME: Entry point for dealpulse MCP server, CLI and TUI
// ABOUTME: Loads config, opens the database and routes to the requested command
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/dealpulse/cli"
	"github.com/harperreed/dealpulse/config"
	"github.com/harperreed/dealpulse/db"
	"github.com/harperreed/dealpulse/insights"
	"github.com/harperreed/dealpulse/tui"
	"github.com/harperreed/dealpulse/web"
)

const version = "0.2.0"

type command func(ctx context.Context, svc *insights.Service, args []string) error

var commands = map[string]command{
	"dashboard":       cli.DashboardCommand,
	"graph":           cli.GraphCommand,
	"score":           cli.ScoreCommand,
	"rank":            cli.RankCommand,
	"followups":       cli.FollowupsCommand,
	"velocity":        cli.VelocityCommand,
	"history":         cli.HistoryCommand,
	"churn":           cli.ChurnCommand,
	"hygiene":         cli.HygieneCommand,
	"archive":         cli.ArchiveCommand,
	"reactivate":      cli.ReactivateCommand,
	"archive-history": cli.ArchiveHistoryCommand,
	"add-deal":        cli.AddDealCommand,
	"list-deals":      cli.ListDealsCommand,
	"edit-deal":       cli.EditDealCommand,
	"delete-deal":     cli.DeleteDealCommand,
	"move":            cli.MoveCommand,
	"lost":            cli.LostCommand,
	"log":             cli.LogCommand,
	"add-customer":    cli.AddCustomerCommand,
	"update-customer": cli.UpdateCustomerCommand,
	"pay":             cli.PayCommand,
}

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/dealpulse/dealpulse.db)")
	initOnly := flag.Bool("init", false, "Initialize database and exit")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("dealpulse version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 && !*initOnly {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger()

	finalDBPath := cfg.WithDBPath(*dbPath)
	database, err := db.OpenDatabase(finalDBPath)
	if err != nil {
		logger.Fatal("failed to open database", "path", finalDBPath, "err", err)
	}
	defer func() { _ = database.Close() }()

	if *initOnly {
		logger.Info("database initialized", "path", finalDBPath)
		return
	}

	var clock insights.Clock = insights.SystemClock{Location: cfg.Location}
	if cfg.Now != nil {
		clock = insights.FixedClock{T: *cfg.Now}
		logger.Debug("using pinned reference time", "now", cfg.Now)
	}
	svc := insights.NewService(database, clock, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	name, commandArgs := args[0], args[1:]
	switch name {
	case "mcp":
		// stdout belongs to the protocol; logs go to stderr
		if err := cli.MCPCommand(ctx, svc, logger, version); err != nil {
			logger.Fatal("MCP server failed", "err", err)
		}

	case "web":
		fs := flag.NewFlagSet("web", flag.ExitOnError)
		port := fs.Int("port", 8080, "Port to listen on")
		_ = fs.Parse(commandArgs)

		server, err := web.NewServer(svc, logger)
		if err != nil {
			logger.Fatal("failed to create web server", "err", err)
		}
		if err := server.Start(ctx, *port); err != nil {
			logger.Fatal("web server failed", "err", err)
		}

	case "tui":
		p := tea.NewProgram(tui.NewModel(ctx, svc), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil {
			logger.Fatal("TUI failed", "err", err)
		}

	default:
		run, ok := commands[name]
		if !ok {
			fmt.Printf("Unknown command: %s\n\n", name)
			printUsage()
			os.Exit(1)
		}
		logger.Debug("dealpulse database", "path", finalDBPath)
		if err := run(ctx, svc, commandArgs); err != nil {
			logger.Fatal("command failed", "command", name, "err", err)
		}
	}
}

func printUsage() {
	fmt.Printf(`dealpulse v%s - Deal scoring and pipeline hygiene

USAGE:
  dealpulse [global flags] <command> [flags] [args]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/dealpulse/dealpulse.db)
  --init                 Initialize database and exit

ENVIRONMENT (also read from .env):
  DEALPULSE_DB_PATH      Database path
  DEALPULSE_LOG_LEVEL    debug, info, warn or error (default: info)
  DEALPULSE_TIMEZONE     IANA zone used for "now" (default: local)
  DEALPULSE_NOW          Pin the reference time (RFC3339), for demos

INTERFACES:
  mcp                    Start MCP server for Claude Desktop
  tui                    Interactive dashboard
  web                    Read-only web dashboard
    --port <n>             Port to listen on (default: 8080)
  dashboard              Print the combined dashboard
    --json                 Print JSON instead of text
  graph <type>           GraphViz DOT output: pipeline or accounts
    --output <file>        Output file (default: stdout)

SCORING:
  score <id>             Score a deal and store a snapshot
  rank                   Open deals ranked by score
    --limit <n>            Max results (default: 20)
  followups              Follow-up queue, most urgent first
    --limit <n>            Max results (default: 10)
  velocity               Pipeline velocity, conversion and win rate
  history <id>           Stored score snapshots for a deal
  churn [customer]       Churn watchlist, or detail for one customer
    --limit <n>            Max customers (default: 10)

HYGIENE:
  hygiene                Aging, stale and abandoned deals
  archive                Archive abandoned deals (90+ days inactive)
    --dry-run              List candidates without archiving
  reactivate <id>        Return an archived deal to the pipeline
  archive-history        Past auto-archive runs

PIPELINE:
  add-deal               Add a new deal
    --title <title>        Deal title (required)
    --customer <name>      Customer name (created if not found)
    --value <amount>       Deal value
    --stage <stage>        lead, qualified, proposal, negotiation (default: lead)
    --probability <n>      Win probability 0-100
    --next-action <date>   Next action date (YYYY-MM-DD)
  list-deals             List deals with health
    --stage <stage>        Filter by stage
    --customer <name>      Filter by customer
    --archived             Show archived deals only
  edit-deal [flags] <id> Change title, customer, value, probability or next action
  delete-deal <id>       Delete a deal and its history
  move --stage <s> <id>  Move a deal to another stage
  lost [flags] <id>      Close a deal as lost
    --category <c>         price, competitor, timing or other
    --competitor <name>    Competitor that won
    --competitor-price <n> Competitor's price
  log                    Log an interaction
    --deal <id>            Deal ID
    --customer <name>      Customer name or ID
    --type <type>          call, email, meeting, note or message
    --notes <text>         What happened
  add-customer           Add a customer
    --name <name>          Customer name (required)
    --satisfaction <n>     Satisfaction score 0-100
  update-customer [flags] <name>
                         Change email, phone, type, status or satisfaction
  pay                    Record a payment
    --customer <name>      Customer name or ID (required)
    --amount <n>           Amount
    --status <s>           on_time, late or pending
    Note: flags must come before positional IDs

EXAMPLES:
  # Start MCP server for Claude Desktop
  dealpulse mcp

  # Add a deal and see where it ranks
  dealpulse add-deal --title "Platform Renewal" --customer "Acme Corp" --value 48000 --stage proposal
  dealpulse rank

  # Preview what auto-archive would do
  dealpulse archive --dry-run

`, version)
}
