// ABOUTME: Tests for MCP tool, resource and prompt handlers
// ABOUTME: Calls handlers directly against a temporary database with a fixed clock
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/dealpulse/db"
	"github.com/harperreed/dealpulse/insights"
	"github.com/harperreed/dealpulse/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

func setupService(t *testing.T) (*insights.Service, *sql.DB) {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "handlers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return insights.NewService(database, insights.FixedClock{T: testNow}, log.New(io.Discard)), database
}

// seedStale stores an open opportunity last touched inactiveDays ago.
func seedStale(t *testing.T, database *sql.DB, title string, stage models.Stage, inactiveDays int) *models.Opportunity {
	t.Helper()
	last := testNow.AddDate(0, 0, -inactiveDays)
	opp := &models.Opportunity{
		Title:            title,
		Value:            5000,
		Stage:            stage,
		Probability:      40,
		CreatedAt:        last.AddDate(0, 0, -3),
		UpdatedAt:        last,
		LastActivityDate: &last,
	}
	require.NoError(t, db.CreateOpportunity(database, opp))
	return opp
}

func TestCreateOpportunityCreatesCustomer(t *testing.T) {
	svc, _ := setupService(t)
	h := NewPipelineHandlers(svc)
	ctx := context.Background()

	_, out, err := h.CreateOpportunity(ctx, nil, CreateOpportunityInput{
		Title:        "Acme Expansion",
		Value:        42000,
		Probability:  140,
		CustomerName: "Acme Corp",
		NextAction:   "2025-03-20",
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme Expansion", out.Title)
	assert.Equal(t, "lead", out.Stage)
	assert.Equal(t, 100, out.Probability)
	assert.Equal(t, "2025-03-12T10:00:00Z", out.CreatedAt)
	assert.Equal(t, "2025-03-20T00:00:00Z", out.NextActionAt)
	require.NotEmpty(t, out.CustomerID)

	customer, err := svc.FindCustomer(ctx, "acme corp")
	require.NoError(t, err)
	assert.Equal(t, out.CustomerID, customer.ID.String())

	// A second deal for the same customer reuses it.
	_, second, err := h.CreateOpportunity(ctx, nil, CreateOpportunityInput{Title: "Acme Support", CustomerName: "Acme Corp", Stage: "quote"})
	require.NoError(t, err)
	assert.Equal(t, out.CustomerID, second.CustomerID)
	assert.Equal(t, "qualified", second.Stage)
}

func TestCreateOpportunityValidation(t *testing.T) {
	svc, _ := setupService(t)
	h := NewPipelineHandlers(svc)
	ctx := context.Background()

	_, _, err := h.CreateOpportunity(ctx, nil, CreateOpportunityInput{})
	assert.ErrorContains(t, err, "title is required")

	_, _, err = h.CreateOpportunity(ctx, nil, CreateOpportunityInput{Title: "x", Stage: "limbo"})
	assert.ErrorContains(t, err, "invalid stage")

	_, _, err = h.CreateOpportunity(ctx, nil, CreateOpportunityInput{Title: "x", Value: -1})
	assert.ErrorIs(t, err, models.ErrNegativeValue)

	_, _, err = h.CreateOpportunity(ctx, nil, CreateOpportunityInput{Title: "x", NextAction: "next tuesday"})
	assert.ErrorContains(t, err, "invalid date")
}

func TestMoveStageAndMarkLost(t *testing.T) {
	svc, database := setupService(t)
	h := NewPipelineHandlers(svc)
	ctx := context.Background()
	opp := seedStale(t, database, "Widget Order", models.StageProposal, 3)

	_, moved, err := h.MoveStage(ctx, nil, MoveStageInput{OpportunityID: opp.ID.String(), Stage: "negotiation"})
	require.NoError(t, err)
	assert.Equal(t, "negotiation", moved.Stage)
	assert.Equal(t, "2025-03-12T10:00:00Z", moved.LastActivityAt)

	_, _, err = h.MoveStage(ctx, nil, MoveStageInput{OpportunityID: opp.ID.String(), Stage: "nowhere"})
	assert.ErrorContains(t, err, "invalid stage")

	_, lost, err := h.MarkLost(ctx, nil, MarkLostInput{
		OpportunityID:   opp.ID.String(),
		Category:        "budget",
		CompetitorName:  "Globex",
		CompetitorPrice: 4200,
	})
	require.NoError(t, err)
	assert.Equal(t, "lost", lost.Stage)

	stored, err := svc.GetOpportunity(ctx, opp.ID)
	require.NoError(t, err)
	require.Len(t, stored.LostReasons, 1)
	assert.Equal(t, models.LostOther, stored.LostReasons[0].Category)
	require.NotNil(t, stored.LostReasons[0].CompetitorPrice)
	assert.Equal(t, 4200.0, *stored.LostReasons[0].CompetitorPrice)
}

func TestInvalidOpportunityID(t *testing.T) {
	svc, _ := setupService(t)
	h := NewInsightHandlers(svc)
	ctx := context.Background()

	_, _, err := h.ScoreDeal(ctx, nil, OpportunityRefInput{})
	assert.ErrorContains(t, err, "opportunity_id is required")

	_, _, err = h.DealHealth(ctx, nil, OpportunityRefInput{OpportunityID: "not-a-uuid"})
	assert.ErrorContains(t, err, "invalid opportunity_id")

	_, _, err = h.NextAction(ctx, nil, OpportunityRefInput{OpportunityID: "2b1c7c3e-3f0f-4a55-9d38-0c1b2d3e4f50"})
	assert.ErrorIs(t, err, insights.ErrOpportunityNotFound)
}

func TestLogInteraction(t *testing.T) {
	svc, database := setupService(t)
	h := NewPipelineHandlers(svc)
	ctx := context.Background()
	opp := seedStale(t, database, "Widget Order", models.StageLead, 20)

	_, _, err := h.LogInteraction(ctx, nil, LogInteractionInput{Type: "call"})
	assert.ErrorContains(t, err, "opportunity_id or customer is required")

	_, _, err = h.LogInteraction(ctx, nil, LogInteractionInput{OpportunityID: opp.ID.String(), Type: "fax"})
	assert.ErrorContains(t, err, "invalid type")

	_, _, err = h.LogInteraction(ctx, nil, LogInteractionInput{Customer: "Nobody", Type: "call"})
	assert.ErrorIs(t, err, insights.ErrCustomerNotFound)

	_, out, err := h.LogInteraction(ctx, nil, LogInteractionInput{
		OpportunityID: opp.ID.String(),
		Type:          "meeting",
		Notes:         "walked through pricing",
		OccurredAt:    "2025-03-10",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10T00:00:00Z", out.CreatedAt)
	assert.Equal(t, opp.ID.String(), out.OpportunityID)

	health := NewInsightHandlers(svc)
	_, hs, err := health.DealHealth(ctx, nil, OpportunityRefInput{OpportunityID: opp.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, 2, hs.DaysSinceActivity)
}

func TestCustomerAndPaymentTools(t *testing.T) {
	svc, _ := setupService(t)
	h := NewPipelineHandlers(svc)
	ctx := context.Background()

	_, _, err := h.AddCustomer(ctx, nil, AddCustomerInput{})
	assert.ErrorContains(t, err, "name is required")

	score := 45
	_, customer, err := h.AddCustomer(ctx, nil, AddCustomerInput{Name: "Initech", Email: "ap@initech.test", SatisfactionScore: &score})
	require.NoError(t, err)
	assert.Equal(t, "active", customer.Status)
	assert.Equal(t, 45, customer.SatisfactionScore)

	_, _, err = h.RecordPayment(ctx, nil, RecordPaymentInput{Customer: "Umbrella", Amount: 10, Status: "on_time"})
	assert.ErrorIs(t, err, insights.ErrCustomerNotFound)

	_, _, err = h.RecordPayment(ctx, nil, RecordPaymentInput{Customer: "Initech", Amount: 10, Status: "whenever"})
	assert.Error(t, err)

	_, payment, err := h.RecordPayment(ctx, nil, RecordPaymentInput{Customer: customer.ID, Amount: 1200, Status: "late", DueDate: "2025-02-01"})
	require.NoError(t, err)
	assert.Equal(t, customer.ID, payment.CustomerID)
	assert.Equal(t, "2025-02-01T00:00:00Z", payment.DueAt)

	insightHandlers := NewInsightHandlers(svc)
	_, risk, err := insightHandlers.ChurnRisk(ctx, nil, ChurnRiskInput{Customer: "initech"})
	require.NoError(t, err)
	assert.Equal(t, "Initech", risk.CustomerName)
	assert.Equal(t, 1, risk.Factors.LatePayments)
	assert.NotEmpty(t, risk.RiskLevel.Level)

	_, watchlist, err := insightHandlers.ChurnWatchlist(ctx, nil, LimitInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, watchlist.Count)
}

func TestScoreDealStoresHistory(t *testing.T) {
	svc, database := setupService(t)
	h := NewInsightHandlers(svc)
	ctx := context.Background()
	opp := seedStale(t, database, "Platform Deal", models.StageNegotiation, 2)

	_, out, err := h.ScoreDeal(ctx, nil, OpportunityRefInput{OpportunityID: opp.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, opp.ID.String(), out.Score.OpportunityID)
	assert.Len(t, out.SnapshotID, 26)
	assert.NotEmpty(t, out.Score.Grade)
	assert.NotEmpty(t, out.NextAction.TopSuggestion.Action)

	_, history, err := h.ScoreHistory(ctx, nil, ScoreHistoryInput{OpportunityID: opp.ID.String()})
	require.NoError(t, err)
	require.Equal(t, 1, history.Count)
	assert.Equal(t, out.SnapshotID, history.Snapshots[0].ID)
	assert.Equal(t, out.Score.TotalScore, history.Snapshots[0].TotalScore)
}

func TestRankingAndQueues(t *testing.T) {
	svc, database := setupService(t)
	h := NewInsightHandlers(svc)
	ctx := context.Background()
	for i, title := range []string{"One", "Two", "Three"} {
		seedStale(t, database, title, models.StageQualified, i*10)
	}
	seedStale(t, database, "Closed", models.StageWon, 1)

	_, ranked, err := h.RankDeals(ctx, nil, LimitInput{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, ranked.Count)
	assert.GreaterOrEqual(t, ranked.Deals[0].Score.TotalScore, ranked.Deals[1].Score.TotalScore)

	_, queue, err := h.FollowUpQueue(ctx, nil, LimitInput{})
	require.NoError(t, err)
	for _, item := range queue.FollowUps {
		assert.NotEqual(t, "Closed", item.Opportunity.Title)
	}

	_, velocity, err := h.PipelineVelocity(ctx, nil, EmptyInput{})
	require.NoError(t, err)
	assert.Equal(t, 4, velocity.Opportunities)
	assert.Equal(t, 1, velocity.WonCount)
}

func TestHygieneArchiveAndReactivate(t *testing.T) {
	svc, database := setupService(t)
	h := NewInsightHandlers(svc)
	ctx := context.Background()
	abandoned := seedStale(t, database, "Ghosted", models.StageProposal, 120)
	seedStale(t, database, "Aging", models.StageLead, 35)
	seedStale(t, database, "Fresh", models.StageLead, 1)

	_, hygiene, err := h.PipelineHygiene(ctx, nil, EmptyInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, hygiene.Eligible)
	assert.Equal(t, 1, hygiene.Healthy)
	require.Len(t, hygiene.Flagged, 2)
	assert.Equal(t, "Ghosted", hygiene.Flagged[0].Title)
	assert.Equal(t, "abandoned", hygiene.Flagged[0].Severity)
	assert.Equal(t, 1, hygiene.Report.ArchiveCandidates)

	_, _, err = h.ReactivateDeal(ctx, nil, OpportunityRefInput{OpportunityID: abandoned.ID.String()})
	assert.ErrorIs(t, err, insights.ErrNotArchived)

	_, dry, err := h.AutoArchive(ctx, nil, AutoArchiveInput{DryRun: true})
	require.NoError(t, err)
	assert.True(t, dry.DryRun)
	assert.Equal(t, 1, dry.Count)
	assert.Empty(t, dry.RunID)

	_, run, err := h.AutoArchive(ctx, nil, AutoArchiveInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, run.ArchivedCount)
	assert.NotEmpty(t, run.RunID)
	require.Len(t, run.Opportunities, 1)
	assert.True(t, run.Opportunities[0].IsArchived)

	_, active, err := h.ReactivateDeal(ctx, nil, OpportunityRefInput{OpportunityID: abandoned.ID.String()})
	require.NoError(t, err)
	assert.False(t, active.IsArchived)
	assert.Equal(t, "2025-03-12T10:00:00Z", active.LastActivityAt)
}

func TestGenerateGraph(t *testing.T) {
	svc, database := setupService(t)
	h := NewVizHandlers(svc)
	ctx := context.Background()
	seedStale(t, database, "Widget Order", models.StageProposal, 3)

	_, _, err := h.GenerateGraph(ctx, nil, GenerateGraphInput{})
	assert.ErrorContains(t, err, "type is required")

	_, _, err = h.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "contacts"})
	assert.ErrorContains(t, err, "unknown graph type")

	_, out, err := h.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "accounts"})
	require.NoError(t, err)
	assert.Contains(t, out.DOTSource, "Widget Order")
	assert.Positive(t, out.EdgeCount)
}

func TestReadResource(t *testing.T) {
	svc, database := setupService(t)
	h := NewResourceHandlers(svc)
	ctx := context.Background()
	opp := seedStale(t, database, "Widget Order", models.StageProposal, 3)

	read := func(uri string) (*mcp.ReadResourceResult, error) {
		return h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}})
	}

	_, err := read("crm://contacts")
	assert.ErrorContains(t, err, "invalid URI scheme")

	_, err = read("dealpulse://nothing")
	assert.ErrorContains(t, err, "unknown resource")

	result, err := read("dealpulse://pipeline")
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var velocity map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &velocity))
	assert.Equal(t, float64(1), velocity["opportunities"])

	result, err = read("dealpulse://deals/" + opp.ID.String())
	require.NoError(t, err)
	assert.Contains(t, result.Contents[0].Text, "Widget Order")

	result, err = read("dealpulse://dashboard")
	require.NoError(t, err)
	assert.Contains(t, result.Contents[0].Text, "top_deals")

	assert.Len(t, h.Resources(), 3)
	assert.Equal(t, "dealpulse://deals/{id}", h.DealTemplate().URITemplate)
}

func TestGetPrompt(t *testing.T) {
	svc, database := setupService(t)
	h := NewPromptHandlers(svc)
	ctx := context.Background()
	opp := seedStale(t, database, "Widget Order", models.StageProposal, 40)
	customer := &models.Customer{Name: "Initech"}
	require.NoError(t, svc.AddCustomer(ctx, customer))

	get := func(name string, args map[string]string) (*mcp.GetPromptResult, error) {
		return h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: name, Arguments: args}})
	}

	_, err := get("unknown", nil)
	assert.ErrorContains(t, err, "unknown prompt")

	_, err = get("deal-review", map[string]string{})
	assert.ErrorContains(t, err, "opportunity_id is required")

	result, err := get("deal-review", map[string]string{"opportunity_id": opp.ID.String()})
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	text := result.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "Title: Widget Order")
	assert.Contains(t, text, "Suggested next action")

	result, err = get("pipeline-cleanup", nil)
	require.NoError(t, err)
	assert.Contains(t, result.Messages[0].Content.(*mcp.TextContent).Text, "Widget Order")

	result, err = get("churn-outreach", map[string]string{"customer": "Initech"})
	require.NoError(t, err)
	assert.Contains(t, result.Messages[0].Content.(*mcp.TextContent).Text, "Churn risk:")

	assert.Len(t, h.Prompts(), 3)
}
