// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides generate_graph tool for agents
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/dealpulse/db"
	"github.com/harperreed/dealpulse/insights"
	"github.com/harperreed/dealpulse/scoring"
	"github.com/harperreed/dealpulse/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	svc *insights.Service
}

func NewVizHandlers(svc *insights.Service) *VizHandlers {
	return &VizHandlers{svc: svc}
}

type GenerateGraphInput struct {
	Type string `json:"type" jsonschema:"Graph type: pipeline or accounts"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, request *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	if input.Type == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("type is required")
	}

	var dot string
	var err error

	switch input.Type {
	case "pipeline":
		var velocity *scoring.PipelineVelocity
		velocity, err = h.svc.PipelineVelocity(ctx)
		if err == nil {
			dot, err = viz.GenerateStageFlowGraph(ctx, *velocity)
		}

	case "accounts":
		dot, err = h.accountGraph(ctx)

	default:
		return nil, GenerateGraphOutput{}, fmt.Errorf("unknown graph type: %s (valid types: pipeline, accounts)", input.Type)
	}

	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	// Count nodes and edges for stats
	nodeCount := strings.Count(dot, "[label=")
	edgeCount := strings.Count(dot, "->")

	return nil, GenerateGraphOutput{
		GraphType: input.Type,
		DOTSource: dot,
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
	}, nil
}

func (h *VizHandlers) accountGraph(ctx context.Context) (string, error) {
	customers, err := h.svc.ListCustomers(ctx)
	if err != nil {
		return "", err
	}
	opps, err := h.svc.ListOpportunities(ctx, db.OpportunityFilter{IncludeArchived: true})
	if err != nil {
		return "", err
	}
	return viz.GenerateAccountGraph(ctx, customers, opps)
}
