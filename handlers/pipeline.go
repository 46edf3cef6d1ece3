// ABOUTME: Pipeline MCP tool handlers
// ABOUTME: Implements opportunity, customer, interaction and payment recording tools
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/insights"
	"github.com/harperreed/dealpulse/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PipelineHandlers struct {
	svc *insights.Service
}

func NewPipelineHandlers(svc *insights.Service) *PipelineHandlers {
	return &PipelineHandlers{svc: svc}
}

// parseDate accepts RFC 3339 timestamps or plain dates.
func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", raw)
	}
	return &t, nil
}

// resolveCustomer finds a customer by UUID or name, creating it by name when
// create is set and nothing matches.
func (h *PipelineHandlers) resolveCustomer(ctx context.Context, ref string, create bool) (*models.Customer, error) {
	customer, err := h.svc.FindCustomer(ctx, ref)
	if err == nil {
		return customer, nil
	}
	if !create || !errors.Is(err, insights.ErrCustomerNotFound) {
		return nil, err
	}
	if _, parseErr := uuid.Parse(ref); parseErr == nil {
		return nil, err
	}

	customer = &models.Customer{Name: ref}
	if err := h.svc.AddCustomer(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

type CreateOpportunityInput struct {
	Title        string  `json:"title" jsonschema:"Opportunity title (required)"`
	Value        float64 `json:"value,omitempty" jsonschema:"Deal value, must not be negative"`
	Stage        string  `json:"stage,omitempty" jsonschema:"Stage: lead, qualified, proposal, negotiation, won, lost (default lead)"`
	Probability  int     `json:"probability,omitempty" jsonschema:"Win probability 0-100"`
	CustomerName string  `json:"customer_name,omitempty" jsonschema:"Customer name or UUID (created if not found)"`
	NextAction   string  `json:"next_action_date,omitempty" jsonschema:"Next scheduled action date in ISO 8601 format"`
}

func (h *PipelineHandlers) CreateOpportunity(ctx context.Context, request *mcp.CallToolRequest, input CreateOpportunityInput) (*mcp.CallToolResult, OpportunityOutput, error) {
	if input.Title == "" {
		return nil, OpportunityOutput{}, fmt.Errorf("title is required")
	}

	stage := models.StageLead
	if input.Stage != "" {
		parsed, ok := models.ParseStage(input.Stage)
		if !ok {
			return nil, OpportunityOutput{}, fmt.Errorf("invalid stage: %s (valid: lead, qualified, proposal, negotiation, won, lost)", input.Stage)
		}
		stage = parsed
	}

	nextAction, err := parseDate(input.NextAction)
	if err != nil {
		return nil, OpportunityOutput{}, err
	}

	opp := &models.Opportunity{
		Title:          input.Title,
		Value:          input.Value,
		Stage:          stage,
		Probability:    models.Clamp(input.Probability, 0, 100),
		NextActionDate: nextAction,
	}

	if input.CustomerName != "" {
		customer, err := h.resolveCustomer(ctx, input.CustomerName, true)
		if err != nil {
			return nil, OpportunityOutput{}, fmt.Errorf("failed to resolve customer: %w", err)
		}
		opp.CustomerID = &customer.ID
	}

	if err := h.svc.CreateOpportunity(ctx, opp); err != nil {
		return nil, OpportunityOutput{}, fmt.Errorf("failed to create opportunity: %w", err)
	}
	return nil, opportunityToOutput(*opp), nil
}

type MoveStageInput struct {
	OpportunityID string `json:"opportunity_id" jsonschema:"UUID of the opportunity (required)"`
	Stage         string `json:"stage" jsonschema:"New stage: lead, qualified, proposal, negotiation, won, lost"`
}

func (h *PipelineHandlers) MoveStage(ctx context.Context, request *mcp.CallToolRequest, input MoveStageInput) (*mcp.CallToolResult, OpportunityOutput, error) {
	id, err := parseOpportunityID(input.OpportunityID)
	if err != nil {
		return nil, OpportunityOutput{}, err
	}
	stage, ok := models.ParseStage(input.Stage)
	if !ok {
		return nil, OpportunityOutput{}, fmt.Errorf("invalid stage: %s", input.Stage)
	}

	if err := h.svc.MoveStage(ctx, id, stage); err != nil {
		return nil, OpportunityOutput{}, err
	}
	opp, err := h.svc.GetOpportunity(ctx, id)
	if err != nil {
		return nil, OpportunityOutput{}, err
	}
	return nil, opportunityToOutput(*opp), nil
}

type MarkLostInput struct {
	OpportunityID   string  `json:"opportunity_id" jsonschema:"UUID of the opportunity (required)"`
	Category        string  `json:"category,omitempty" jsonschema:"Reason category: price, competitor, timing, other"`
	CompetitorName  string  `json:"competitor_name,omitempty" jsonschema:"Competitor that won the deal"`
	CompetitorPrice float64 `json:"competitor_price,omitempty" jsonschema:"Competitor's quoted price"`
	Notes           string  `json:"notes,omitempty" jsonschema:"Free-form notes"`
}

func (h *PipelineHandlers) MarkLost(ctx context.Context, request *mcp.CallToolRequest, input MarkLostInput) (*mcp.CallToolResult, OpportunityOutput, error) {
	id, err := parseOpportunityID(input.OpportunityID)
	if err != nil {
		return nil, OpportunityOutput{}, err
	}

	reason := &models.LostReason{
		Category:       input.Category,
		CompetitorName: input.CompetitorName,
		Notes:          input.Notes,
	}
	if input.CompetitorPrice > 0 {
		price := input.CompetitorPrice
		reason.CompetitorPrice = &price
	}

	if err := h.svc.MarkLost(ctx, id, reason); err != nil {
		return nil, OpportunityOutput{}, err
	}
	opp, err := h.svc.GetOpportunity(ctx, id)
	if err != nil {
		return nil, OpportunityOutput{}, err
	}
	return nil, opportunityToOutput(*opp), nil
}

type LogInteractionInput struct {
	OpportunityID string `json:"opportunity_id,omitempty" jsonschema:"UUID of the opportunity the interaction belongs to"`
	Customer      string `json:"customer,omitempty" jsonschema:"Customer UUID or name"`
	Type          string `json:"type" jsonschema:"Interaction type: call, email, meeting, note, message"`
	Notes         string `json:"notes,omitempty" jsonschema:"What happened"`
	OccurredAt    string `json:"occurred_at,omitempty" jsonschema:"When it happened in ISO 8601 format (default now)"`
}

func (h *PipelineHandlers) LogInteraction(ctx context.Context, request *mcp.CallToolRequest, input LogInteractionInput) (*mcp.CallToolResult, InteractionOutput, error) {
	if input.OpportunityID == "" && input.Customer == "" {
		return nil, InteractionOutput{}, fmt.Errorf("opportunity_id or customer is required")
	}
	if !models.IsValidInteractionType(input.Type) {
		return nil, InteractionOutput{}, fmt.Errorf("invalid type: %s (valid: call, email, meeting, note, message)", input.Type)
	}

	interaction := &models.Interaction{Type: input.Type, Notes: input.Notes}
	if input.OpportunityID != "" {
		id, err := parseOpportunityID(input.OpportunityID)
		if err != nil {
			return nil, InteractionOutput{}, err
		}
		interaction.OpportunityID = &id
	}
	if input.Customer != "" {
		customer, err := h.resolveCustomer(ctx, input.Customer, false)
		if err != nil {
			return nil, InteractionOutput{}, err
		}
		interaction.CustomerID = &customer.ID
	}
	occurredAt, err := parseDate(input.OccurredAt)
	if err != nil {
		return nil, InteractionOutput{}, err
	}
	if occurredAt != nil {
		interaction.CreatedAt = *occurredAt
	}

	if err := h.svc.LogInteraction(ctx, interaction); err != nil {
		return nil, InteractionOutput{}, fmt.Errorf("failed to log interaction: %w", err)
	}
	return nil, interactionToOutput(*interaction), nil
}

type AddCustomerInput struct {
	Name              string `json:"name" jsonschema:"Customer name (required)"`
	Email             string `json:"email,omitempty" jsonschema:"Contact email address"`
	Phone             string `json:"phone,omitempty" jsonschema:"Contact phone number"`
	Type              string `json:"type,omitempty" jsonschema:"Customer type, e.g. business or individual"`
	SatisfactionScore *int   `json:"satisfaction_score,omitempty" jsonschema:"Satisfaction score 0-100"`
}

func (h *PipelineHandlers) AddCustomer(ctx context.Context, request *mcp.CallToolRequest, input AddCustomerInput) (*mcp.CallToolResult, CustomerOutput, error) {
	if input.Name == "" {
		return nil, CustomerOutput{}, fmt.Errorf("name is required")
	}

	customer := &models.Customer{
		Name:              input.Name,
		Email:             input.Email,
		Phone:             input.Phone,
		Type:              input.Type,
		SatisfactionScore: input.SatisfactionScore,
	}
	if err := h.svc.AddCustomer(ctx, customer); err != nil {
		return nil, CustomerOutput{}, err
	}
	return nil, customerToOutput(*customer), nil
}

type RecordPaymentInput struct {
	Customer string  `json:"customer" jsonschema:"Customer UUID or name (required)"`
	Amount   float64 `json:"amount" jsonschema:"Payment amount"`
	Status   string  `json:"status" jsonschema:"Payment status: on_time, late, pending"`
	DueDate  string  `json:"due_date,omitempty" jsonschema:"Due date in ISO 8601 format"`
	PaidDate string  `json:"paid_date,omitempty" jsonschema:"Paid date in ISO 8601 format"`
}

func (h *PipelineHandlers) RecordPayment(ctx context.Context, request *mcp.CallToolRequest, input RecordPaymentInput) (*mcp.CallToolResult, PaymentOutput, error) {
	if input.Customer == "" {
		return nil, PaymentOutput{}, fmt.Errorf("customer is required")
	}

	customer, err := h.resolveCustomer(ctx, input.Customer, false)
	if err != nil {
		return nil, PaymentOutput{}, err
	}
	due, err := parseDate(input.DueDate)
	if err != nil {
		return nil, PaymentOutput{}, err
	}
	paid, err := parseDate(input.PaidDate)
	if err != nil {
		return nil, PaymentOutput{}, err
	}

	payment := &models.Payment{
		CustomerID: customer.ID,
		Amount:     input.Amount,
		Status:     input.Status,
		DueAt:      due,
		PaidAt:     paid,
	}
	if err := h.svc.RecordPayment(ctx, payment); err != nil {
		return nil, PaymentOutput{}, err
	}
	return nil, paymentToOutput(*payment), nil
}
