// ABOUTME: MCP resource handlers exposing pipeline insights
// ABOUTME: Serves the dashboard, velocity, hygiene and single deal insights via dealpulse:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/insights"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const resourceScheme = "dealpulse://"

type ResourceHandlers struct {
	svc *insights.Service
}

func NewResourceHandlers(svc *insights.Service) *ResourceHandlers {
	return &ResourceHandlers{svc: svc}
}

// Resources lists the fixed resources the server advertises.
func (h *ResourceHandlers) Resources() []*mcp.Resource {
	return []*mcp.Resource{
		{URI: resourceScheme + "dashboard", Name: "dashboard", Description: "Top deals, follow-ups, hygiene, velocity and churn in one document", MIMEType: "application/json"},
		{URI: resourceScheme + "pipeline", Name: "pipeline", Description: "Pipeline velocity by stage", MIMEType: "application/json"},
		{URI: resourceScheme + "hygiene", Name: "hygiene", Description: "Stale opportunity analysis and report", MIMEType: "application/json"},
	}
}

// DealTemplate describes the per-deal resource.
func (h *ResourceHandlers) DealTemplate() *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		URITemplate: resourceScheme + "deals/{id}",
		Name:        "deal",
		Description: "Full insight for one opportunity",
		MIMEType:    "application/json",
	}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	switch parts[0] {
	case "dashboard":
		dashboard, err := h.svc.Dashboard(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to build dashboard: %w", err)
		}
		return jsonResource(uri, dashboard)

	case "pipeline":
		velocity, err := h.svc.PipelineVelocity(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to compute pipeline velocity: %w", err)
		}
		return jsonResource(uri, velocity)

	case "hygiene":
		result, err := h.svc.Hygiene(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to analyze hygiene: %w", err)
		}
		return jsonResource(uri, hygieneToOutput(*result))

	case "deals":
		if len(parts) < 2 || parts[1] == "" {
			return nil, fmt.Errorf("deal resource requires an id")
		}
		return h.readDeal(ctx, uri, parts[1])

	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

func (h *ResourceHandlers) readDeal(ctx context.Context, uri, idStr string) (*mcp.ReadResourceResult, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid deal ID: %w", err)
	}

	insight, err := h.svc.ScoreOpportunity(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to score deal: %w", err)
	}
	return jsonResource(uri, insight)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
