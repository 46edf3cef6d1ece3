// ABOUTME: MCP prompt handlers for pipeline review workflows
// ABOUTME: Builds deal review, pipeline cleanup and churn outreach prompts from live scores
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/insights"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	svc *insights.Service
}

func NewPromptHandlers(svc *insights.Service) *PromptHandlers {
	return &PromptHandlers{svc: svc}
}

// Prompts lists the prompt templates the server advertises.
func (h *PromptHandlers) Prompts() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        "deal-review",
			Description: "Review one opportunity using its score, health and next action",
			Arguments: []*mcp.PromptArgument{
				{Name: "opportunity_id", Description: "UUID of the opportunity", Required: true},
			},
		},
		{
			Name:        "pipeline-cleanup",
			Description: "Plan a cleanup of stale opportunities",
		},
		{
			Name:        "churn-outreach",
			Description: "Draft a retention plan for an at-risk customer",
			Arguments: []*mcp.PromptArgument{
				{Name: "customer", Description: "Customer UUID or name", Required: true},
			},
		},
	}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	arguments := request.Params.Arguments
	switch name {
	case "deal-review":
		return h.getDealReviewPrompt(ctx, arguments)
	case "pipeline-cleanup":
		return h.getPipelineCleanupPrompt(ctx)
	case "churn-outreach":
		return h.getChurnOutreachPrompt(ctx, arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}

func (h *PromptHandlers) getDealReviewPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	idStr, ok := args["opportunity_id"]
	if !ok {
		return nil, fmt.Errorf("opportunity_id is required")
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid opportunity_id: %w", err)
	}

	insight, err := h.svc.ScoreOpportunity(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to score opportunity: %w", err)
	}

	var b strings.Builder
	opp := insight.Opportunity
	fmt.Fprintf(&b, "Please review this opportunity:\n\n")
	fmt.Fprintf(&b, "Title: %s\n", opp.Title)
	fmt.Fprintf(&b, "Stage: %s\n", opp.Stage)
	fmt.Fprintf(&b, "Value: %.2f (probability %d%%)\n", opp.Value, opp.Probability)
	if insight.Customer != nil {
		fmt.Fprintf(&b, "Customer: %s\n", insight.Customer.Name)
	}
	fmt.Fprintf(&b, "\nDeal score: %d (%s), priority %s\n", insight.Score.TotalScore, insight.Score.Grade, insight.Score.Priority)
	fmt.Fprintf(&b, "Health: %d (%s), %d days since activity\n", insight.Health.Score, insight.Health.Status, insight.Health.DaysSinceActivity)
	fmt.Fprintf(&b, "Velocity: %d\n", insight.Velocity.Score)

	if len(insight.Health.Factors) > 0 {
		b.WriteString("\nHealth factors:\n")
		for _, f := range insight.Health.Factors {
			fmt.Fprintf(&b, "  - %s (%d): %s\n", f.Name, f.Impact, f.Detail)
		}
	}
	if len(insight.Score.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, r := range insight.Score.Recommendations {
			fmt.Fprintf(&b, "  - [%s] %s\n", r.Priority, r.Title)
		}
	}
	top := insight.NextAction.TopSuggestion
	fmt.Fprintf(&b, "\nSuggested next action: %s on %s (confidence %d%%)\n", top.Title, top.SuggestedDate.Format("2006-01-02"), insight.NextAction.Confidence)

	b.WriteString("\nPlease provide:")
	b.WriteString("\n1. An assessment of where this deal really stands")
	b.WriteString("\n2. The biggest risk to closing it")
	b.WriteString("\n3. A concrete plan for the next two weeks")

	return userPrompt(fmt.Sprintf("Deal review: %s", opp.Title), b.String()), nil
}

func (h *PromptHandlers) getPipelineCleanupPrompt(ctx context.Context) (*mcp.GetPromptResult, error) {
	result, err := h.svc.Hygiene(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze hygiene: %w", err)
	}

	var b strings.Builder
	b.WriteString("Pipeline hygiene report:\n\n")
	for _, line := range result.Report.Summary {
		fmt.Fprintf(&b, "%s\n", line)
	}

	if len(result.Analysis.Flagged) > 0 {
		b.WriteString("\nFlagged opportunities:\n")
		for _, f := range result.Analysis.Flagged {
			fmt.Fprintf(&b, "  - %s (%s, %.2f): %d days inactive, %s\n", f.Title, f.Stage, f.Value, f.DaysInactive, f.Severity)
		}
	} else {
		b.WriteString("\nNo stale opportunities.\n")
	}

	b.WriteString("\nPlease:")
	b.WriteString("\n1. Decide which flagged deals to revive and which to archive")
	b.WriteString("\n2. Draft a short re-engagement message for the ones worth saving")

	return userPrompt("Pipeline cleanup plan", b.String()), nil
}

func (h *PromptHandlers) getChurnOutreachPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	ref, ok := args["customer"]
	if !ok {
		return nil, fmt.Errorf("customer is required")
	}

	customer, err := h.svc.FindCustomer(ctx, ref)
	if err != nil {
		return nil, err
	}
	risk, err := h.svc.ScoreCustomer(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to score customer: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Customer: %s\n", customer.Name)
	fmt.Fprintf(&b, "Churn risk: %d (%s)\n", risk.RiskScore, risk.RiskLevel.Label)
	if p := risk.PredictedChurnDate; p != nil {
		fmt.Fprintf(&b, "Predicted churn: %s (%d days, confidence %d%%)\n", p.Date.Format("2006-01-02"), p.DaysUntilChurn, p.Confidence)
	}
	f := risk.Factors
	fmt.Fprintf(&b, "\nEngagement %d, payment %d, activity %d, satisfaction %d\n", f.Engagement, f.Payment, f.Activity, f.Satisfaction)
	fmt.Fprintf(&b, "%d recent interactions, %d of %d payments late, %d open opportunities\n", f.RecentInteractions, f.LatePayments, f.TotalPayments, f.OpenOpportunities)

	if len(risk.Recommendations) > 0 {
		b.WriteString("\nRecommended actions:\n")
		for _, r := range risk.Recommendations {
			fmt.Fprintf(&b, "  - [%s] %s: %s\n", r.Priority, r.Title, r.Description)
		}
	}

	b.WriteString("\nPlease draft a retention plan and a first outreach message.")

	return userPrompt(fmt.Sprintf("Churn outreach: %s", customer.Name), b.String()), nil
}
