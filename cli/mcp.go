// ABOUTME: MCP server subcommand
// ABOUTME: Registers scoring and pipeline tools, resources and prompts, then serves on stdio
package cli

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/harperreed/dealpulse/handlers"
	"github.com/harperreed/dealpulse/insights"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewMCPServer builds the server with every tool, resource and prompt.
func NewMCPServer(svc *insights.Service, version string) *mcp.Server {
	insightHandlers := handlers.NewInsightHandlers(svc)
	pipelineHandlers := handlers.NewPipelineHandlers(svc)
	vizHandlers := handlers.NewVizHandlers(svc)
	resourceHandlers := handlers.NewResourceHandlers(svc)
	promptHandlers := handlers.NewPromptHandlers(svc)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "dealpulse",
		Version: version,
	}, nil)

	// Scoring tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "score_deal",
		Description: "Score an opportunity (deal score, health, velocity, next action) and store a snapshot",
	}, insightHandlers.ScoreDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "deal_health",
		Description: "Health score and penalty factors for an opportunity",
	}, insightHandlers.DealHealth)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "deal_velocity",
		Description: "How fast an opportunity is moving compared to expected stage durations",
	}, insightHandlers.DealVelocity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rank_deals",
		Description: "Open opportunities ranked by deal score",
	}, insightHandlers.RankDeals)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pipeline_velocity",
		Description: "Stage durations, conversion rates, win rate and trend across the pipeline",
	}, insightHandlers.PipelineVelocity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "next_action",
		Description: "Predict the best next action for an opportunity",
	}, insightHandlers.NextAction)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "followup_queue",
		Description: "Open opportunities needing follow-up, most urgent first",
	}, insightHandlers.FollowUpQueue)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "churn_risk",
		Description: "Churn risk, predicted churn date and retention actions for a customer",
	}, insightHandlers.ChurnRisk)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "churn_watchlist",
		Description: "Customers ranked by churn risk",
	}, insightHandlers.ChurnWatchlist)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pipeline_hygiene",
		Description: "Find aging, stale and abandoned opportunities",
	}, insightHandlers.PipelineHygiene)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "auto_archive",
		Description: "Archive abandoned opportunities (use dry_run to preview)",
	}, insightHandlers.AutoArchive)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reactivate_deal",
		Description: "Return an archived opportunity to the active pipeline",
	}, insightHandlers.ReactivateDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "score_history",
		Description: "Stored score snapshots for an opportunity, newest first",
	}, insightHandlers.ScoreHistory)

	// Pipeline tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_opportunity",
		Description: "Create a new opportunity, creating the customer if needed",
	}, pipelineHandlers.CreateOpportunity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "move_stage",
		Description: "Move an opportunity to another stage",
	}, pipelineHandlers.MoveStage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "mark_lost",
		Description: "Close an opportunity as lost with a reason",
	}, pipelineHandlers.MarkLost)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "log_interaction",
		Description: "Log a call, email, meeting, note or message and update last activity",
	}, pipelineHandlers.LogInteraction)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_customer",
		Description: "Add a new customer",
	}, pipelineHandlers.AddCustomer)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "record_payment",
		Description: "Record a customer payment",
	}, pipelineHandlers.RecordPayment)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Generate a GraphViz DOT graph of the pipeline flow or customer accounts",
	}, vizHandlers.GenerateGraph)

	for _, r := range resourceHandlers.Resources() {
		server.AddResource(r, resourceHandlers.ReadResource)
	}
	server.AddResourceTemplate(resourceHandlers.DealTemplate(), resourceHandlers.ReadResource)

	for _, p := range promptHandlers.Prompts() {
		server.AddPrompt(p, promptHandlers.GetPrompt)
	}

	return server
}

// MCPCommand starts the MCP server on stdio
func MCPCommand(ctx context.Context, svc *insights.Service, logger *log.Logger, version string) error {
	logger.Info("starting dealpulse MCP server", "version", version)
	return NewMCPServer(svc, version).Run(ctx, &mcp.StdioTransport{})
}
