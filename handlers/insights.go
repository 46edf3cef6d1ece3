// ABOUTME: Scoring MCP tool handlers
// ABOUTME: Implements deal scoring, health, velocity, churn, follow-up and hygiene tools
package handlers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/insights"
	"github.com/harperreed/dealpulse/scoring"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultListLimit = 10

type InsightHandlers struct {
	svc *insights.Service
}

func NewInsightHandlers(svc *insights.Service) *InsightHandlers {
	return &InsightHandlers{svc: svc}
}

type OpportunityRefInput struct {
	OpportunityID string `json:"opportunity_id" jsonschema:"UUID of the opportunity (required)"`
}

type LimitInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

type EmptyInput struct{}

func parseOpportunityID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, fmt.Errorf("opportunity_id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid opportunity_id: %w", err)
	}
	return id, nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}

type ScoreDealOutput struct {
	Opportunity  OpportunityOutput `json:"opportunity"`
	CustomerName string            `json:"customer_name,omitempty"`
	Score        DealScoreOutput   `json:"score"`
	Health       HealthOutput      `json:"health"`
	Velocity     VelocityOutput    `json:"velocity"`
	NextAction   NextActionOutput  `json:"next_action"`
	SnapshotID   string            `json:"snapshot_id"`
}

func (h *InsightHandlers) ScoreDeal(ctx context.Context, request *mcp.CallToolRequest, input OpportunityRefInput) (*mcp.CallToolResult, ScoreDealOutput, error) {
	id, err := parseOpportunityID(input.OpportunityID)
	if err != nil {
		return nil, ScoreDealOutput{}, err
	}

	insight, err := h.svc.ScoreOpportunity(ctx, id)
	if err != nil {
		return nil, ScoreDealOutput{}, err
	}

	out := ScoreDealOutput{
		Opportunity: opportunityToOutput(insight.Opportunity),
		Score:       dealScoreToOutput(insight.Score),
		Health:      healthToOutput(insight.Health),
		Velocity:    velocityToOutput(insight.Velocity),
		NextAction:  nextActionToOutput(insight.NextAction),
		SnapshotID:  insight.Snapshot.ID,
	}
	if insight.Customer != nil {
		out.CustomerName = insight.Customer.Name
	}
	return nil, out, nil
}

func (h *InsightHandlers) DealHealth(ctx context.Context, request *mcp.CallToolRequest, input OpportunityRefInput) (*mcp.CallToolResult, HealthOutput, error) {
	id, err := parseOpportunityID(input.OpportunityID)
	if err != nil {
		return nil, HealthOutput{}, err
	}

	opp, err := h.svc.GetOpportunity(ctx, id)
	if err != nil {
		return nil, HealthOutput{}, err
	}
	return nil, healthToOutput(scoring.CalculateHealthScore(*opp, h.svc.Now())), nil
}

func (h *InsightHandlers) DealVelocity(ctx context.Context, request *mcp.CallToolRequest, input OpportunityRefInput) (*mcp.CallToolResult, VelocityOutput, error) {
	id, err := parseOpportunityID(input.OpportunityID)
	if err != nil {
		return nil, VelocityOutput{}, err
	}

	opp, err := h.svc.GetOpportunity(ctx, id)
	if err != nil {
		return nil, VelocityOutput{}, err
	}
	return nil, velocityToOutput(scoring.CalculateDealVelocity(*opp, h.svc.Now())), nil
}

func (h *InsightHandlers) PipelineVelocity(ctx context.Context, request *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, scoring.PipelineVelocity, error) {
	velocity, err := h.svc.PipelineVelocity(ctx)
	if err != nil {
		return nil, scoring.PipelineVelocity{}, err
	}
	return nil, *velocity, nil
}

type RankedDealOutput struct {
	Opportunity OpportunityOutput `json:"opportunity"`
	Score       DealScoreOutput   `json:"score"`
}

type RankDealsOutput struct {
	Deals []RankedDealOutput `json:"deals"`
	Count int                `json:"count"`
}

func (h *InsightHandlers) RankDeals(ctx context.Context, request *mcp.CallToolRequest, input LimitInput) (*mcp.CallToolResult, RankDealsOutput, error) {
	ranked, err := h.svc.RankDeals(ctx, limitOrDefault(input.Limit))
	if err != nil {
		return nil, RankDealsOutput{}, err
	}

	deals := make([]RankedDealOutput, 0, len(ranked))
	for _, d := range ranked {
		deals = append(deals, RankedDealOutput{
			Opportunity: opportunityToOutput(d.Opportunity),
			Score:       dealScoreToOutput(d.Score),
		})
	}
	return nil, RankDealsOutput{Deals: deals, Count: len(deals)}, nil
}

func (h *InsightHandlers) NextAction(ctx context.Context, request *mcp.CallToolRequest, input OpportunityRefInput) (*mcp.CallToolResult, NextActionOutput, error) {
	id, err := parseOpportunityID(input.OpportunityID)
	if err != nil {
		return nil, NextActionOutput{}, err
	}

	prediction, err := h.svc.NextAction(ctx, id)
	if err != nil {
		return nil, NextActionOutput{}, err
	}
	return nil, nextActionToOutput(*prediction), nil
}

type FollowUpOutput struct {
	Opportunity OpportunityOutput `json:"opportunity"`
	Prediction  NextActionOutput  `json:"prediction"`
}

type FollowUpQueueOutput struct {
	FollowUps []FollowUpOutput `json:"follow_ups"`
	Count     int              `json:"count"`
}

func (h *InsightHandlers) FollowUpQueue(ctx context.Context, request *mcp.CallToolRequest, input LimitInput) (*mcp.CallToolResult, FollowUpQueueOutput, error) {
	items, err := h.svc.FollowUpQueue(ctx, limitOrDefault(input.Limit))
	if err != nil {
		return nil, FollowUpQueueOutput{}, err
	}

	followUps := make([]FollowUpOutput, 0, len(items))
	for _, item := range items {
		followUps = append(followUps, FollowUpOutput{
			Opportunity: opportunityToOutput(item.Opportunity),
			Prediction:  nextActionToOutput(item.Prediction),
		})
	}
	return nil, FollowUpQueueOutput{FollowUps: followUps, Count: len(followUps)}, nil
}

type ChurnRiskInput struct {
	Customer string `json:"customer" jsonschema:"Customer UUID or name (required)"`
}

func (h *InsightHandlers) ChurnRisk(ctx context.Context, request *mcp.CallToolRequest, input ChurnRiskInput) (*mcp.CallToolResult, ChurnOutput, error) {
	if input.Customer == "" {
		return nil, ChurnOutput{}, fmt.Errorf("customer is required")
	}

	customer, err := h.svc.FindCustomer(ctx, input.Customer)
	if err != nil {
		return nil, ChurnOutput{}, err
	}
	risk, err := h.svc.ScoreCustomer(ctx, customer.ID)
	if err != nil {
		return nil, ChurnOutput{}, err
	}
	return nil, churnToOutput(*risk), nil
}

type ChurnWatchlistOutput struct {
	Customers []ChurnOutput `json:"customers"`
	Count     int           `json:"count"`
}

func (h *InsightHandlers) ChurnWatchlist(ctx context.Context, request *mcp.CallToolRequest, input LimitInput) (*mcp.CallToolResult, ChurnWatchlistOutput, error) {
	risks, err := h.svc.ChurnWatchlist(ctx, limitOrDefault(input.Limit))
	if err != nil {
		return nil, ChurnWatchlistOutput{}, err
	}

	customers := make([]ChurnOutput, 0, len(risks))
	for _, r := range risks {
		customers = append(customers, churnToOutput(r))
	}
	return nil, ChurnWatchlistOutput{Customers: customers, Count: len(customers)}, nil
}

func (h *InsightHandlers) PipelineHygiene(ctx context.Context, request *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, HygieneOutput, error) {
	result, err := h.svc.Hygiene(ctx)
	if err != nil {
		return nil, HygieneOutput{}, err
	}
	return nil, hygieneToOutput(*result), nil
}

type AutoArchiveInput struct {
	DryRun bool `json:"dry_run,omitempty" jsonschema:"List candidates without archiving them"`
}

type AutoArchiveOutput struct {
	DryRun        bool                `json:"dry_run"`
	Count         int                 `json:"count"`
	Opportunities []OpportunityOutput `json:"opportunities"`
	RunID         string              `json:"run_id,omitempty"`
	ArchivedCount int                 `json:"archived_count"`
}

func (h *InsightHandlers) AutoArchive(ctx context.Context, request *mcp.CallToolRequest, input AutoArchiveInput) (*mcp.CallToolResult, AutoArchiveOutput, error) {
	outcome, err := h.svc.RunAutoArchive(ctx, input.DryRun)
	if err != nil {
		return nil, AutoArchiveOutput{}, err
	}

	out := AutoArchiveOutput{
		DryRun:        outcome.DryRun,
		Count:         outcome.Candidates.Count,
		Opportunities: opportunitiesToOutput(outcome.Candidates.Opportunities),
	}
	if outcome.Run != nil {
		out.RunID = outcome.Run.ID
		out.ArchivedCount = outcome.Run.ArchivedCount
	}
	return nil, out, nil
}

func (h *InsightHandlers) ReactivateDeal(ctx context.Context, request *mcp.CallToolRequest, input OpportunityRefInput) (*mcp.CallToolResult, OpportunityOutput, error) {
	id, err := parseOpportunityID(input.OpportunityID)
	if err != nil {
		return nil, OpportunityOutput{}, err
	}

	opp, err := h.svc.Reactivate(ctx, id)
	if err != nil {
		return nil, OpportunityOutput{}, err
	}
	return nil, opportunityToOutput(*opp), nil
}

type ScoreHistoryInput struct {
	OpportunityID string `json:"opportunity_id" jsonschema:"UUID of the opportunity (required)"`
	Limit         int    `json:"limit,omitempty" jsonschema:"Maximum number of snapshots (default 10)"`
}

type ScoreHistoryOutput struct {
	Snapshots []SnapshotOutput `json:"snapshots"`
	Count     int              `json:"count"`
}

func (h *InsightHandlers) ScoreHistory(ctx context.Context, request *mcp.CallToolRequest, input ScoreHistoryInput) (*mcp.CallToolResult, ScoreHistoryOutput, error) {
	id, err := parseOpportunityID(input.OpportunityID)
	if err != nil {
		return nil, ScoreHistoryOutput{}, err
	}

	snapshots, err := h.svc.ScoreHistory(ctx, id, limitOrDefault(input.Limit))
	if err != nil {
		return nil, ScoreHistoryOutput{}, fmt.Errorf("failed to list score history: %w", err)
	}

	out := make([]SnapshotOutput, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, snapshotToOutput(s))
	}
	return nil, ScoreHistoryOutput{Snapshots: out, Count: len(out)}, nil
}
