// ABOUTME: Tests for next-action prediction and follow-up prioritisation
// ABOUTME: Covers rule firing, ordering, confidence, fallbacks and business-day scheduling
package scoring

import (
	"testing"
	"time"

	"github.com/harperreed/dealpulse/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actions(suggestions []Suggestion) []ActionType {
	out := make([]ActionType, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, s.Action)
	}
	return out
}

func TestNextBusinessDay(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{"wednesday", time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC)},
		{"friday", time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC), time.Date(2025, 3, 17, 9, 0, 0, 0, time.UTC)},
		{"saturday", time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC), time.Date(2025, 3, 17, 9, 0, 0, 0, time.UTC)},
		{"sunday", time.Date(2025, 3, 16, 9, 0, 0, 0, time.UTC), time.Date(2025, 3, 17, 9, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextBusinessDay(tt.from)
			assert.Equal(t, tt.want, got)
			assert.NotEqual(t, time.Saturday, got.Weekday())
			assert.NotEqual(t, time.Sunday, got.Weekday())
		})
	}
}

func TestPredictNextActionHighValueNegotiation(t *testing.T) {
	opp := newOpportunity(models.StageNegotiation, 80000)
	opp.LastActivityDate = timePtr(daysAgo(10))

	p := PredictNextAction(opp, interactionsAt(10), nil, testNow)

	assert.Equal(t, ActionExecutiveMeeting, p.TopSuggestion.Action)
	assert.Equal(t, PriorityCritical, p.TopSuggestion.Priority)
	assert.Equal(t, []ActionType{ActionExecutiveMeeting, ActionCall, ActionSendEmail}, actions(p.AllSuggestions))
	assert.Equal(t, PriorityHigh, p.AllSuggestions[1].Priority)
	assert.Equal(t, NextBusinessDay(testNow), p.TopSuggestion.SuggestedDate)
	assert.Equal(t, 65, p.Confidence)
	assert.True(t, p.Context.IsHighValue)
	assert.True(t, p.Context.IsStale)
	assert.Equal(t, 10, p.Context.DaysSinceLastContact)
}

func TestPredictNextActionIsDeterministic(t *testing.T) {
	opp := newOpportunity(models.StageProposal, 30000)
	opp.CreatedAt = daysAgo(25)
	ics := interactionsAt(8, 15)
	customer := &models.Customer{Name: "Acme Corp"}

	assert.Equal(t, PredictNextAction(opp, ics, customer, testNow), PredictNextAction(opp, ics, customer, testNow))
}

func TestPredictNextActionNoInteractions(t *testing.T) {
	opp := newOpportunity(models.StageLead, 1000)

	p := PredictNextAction(opp, nil, nil, testNow)

	assert.Equal(t, NoContactSentinel, p.Context.DaysSinceLastContact)
	assert.Equal(t, []ActionType{ActionCall, ActionSendEmail}, actions(p.AllSuggestions))
	assert.Equal(t, "No recorded contact yet", p.TopSuggestion.Reason)
	assert.Equal(t, BasePredictionConfidence, p.Confidence)
	require.NotEmpty(t, p.Reasoning)
	assert.Equal(t, "No interactions have been logged", p.Reasoning[0])
}

func TestPredictNextActionFallback(t *testing.T) {
	opp := newOpportunity(models.StageLead, 1000)

	p := PredictNextAction(opp, interactionsAt(2, 5, 9), nil, testNow)

	require.Len(t, p.AllSuggestions, 1)
	assert.Equal(t, ActionFollowUp, p.TopSuggestion.Action)
	assert.Equal(t, PriorityLow, p.TopSuggestion.Priority)
	assert.Equal(t, 0.50, p.TopSuggestion.SuccessProbability)
	assert.Equal(t, NextBusinessDay(testNow), p.TopSuggestion.SuggestedDate)
	assert.Equal(t, 65, p.Confidence)
}

func TestPredictNextActionQualifiedReadyForProposal(t *testing.T) {
	opp := newOpportunity(models.StageQualified, 20000)

	p := PredictNextAction(opp, interactionsAt(1, 3, 6), nil, testNow)

	assert.Equal(t, []ActionType{ActionSendProposal}, actions(p.AllSuggestions))
	assert.Equal(t, testNow.AddDate(0, 0, 2), p.TopSuggestion.SuggestedDate)
	assert.Equal(t, 60, p.TopSuggestion.EstimatedMinutes)
}

func TestPredictNextActionProposalStage(t *testing.T) {
	opp := newOpportunity(models.StageProposal, 20000)

	p := PredictNextAction(opp, interactionsAt(1, 2, 3, 4, 5), nil, testNow)

	assert.Equal(t, ActionScheduleDemo, p.TopSuggestion.Action)
	assert.Equal(t, 85, p.Confidence)
}

func TestPredictNextActionConfidenceCapped(t *testing.T) {
	opp := newOpportunity(models.StageNegotiation, 1000)

	p := PredictNextAction(opp, interactionsAt(0, 1, 2, 3, 4, 5), nil, testNow)

	assert.Equal(t, 100, p.Confidence)
}

func TestPredictNextActionReasoningMentionsCustomer(t *testing.T) {
	opp := newOpportunity(models.StageLead, 1000)
	customer := &models.Customer{Name: "Globex"}

	p := PredictNextAction(opp, nil, customer, testNow)

	assert.Contains(t, p.Reasoning, "Customer: Globex")
}

func TestPrioritizeFollowUps(t *testing.T) {
	warm := newOpportunity(models.StageLead, 1000)
	untouched := newOpportunity(models.StageLead, 1000)
	cooling := newOpportunity(models.StageLead, 1000)
	closed := newOpportunity(models.StageWon, 1000)

	queue := PrioritizeFollowUps([]FollowUpInput{
		{Opportunity: warm, Interactions: interactionsAt(0, 1, 2)},
		{Opportunity: untouched},
		{Opportunity: cooling, Interactions: interactionsAt(10)},
		{Opportunity: closed},
	}, testNow)

	require.Len(t, queue, 3)
	assert.Equal(t, untouched.ID, queue[0].OpportunityID)
	assert.Equal(t, cooling.ID, queue[1].OpportunityID)
	assert.Equal(t, warm.ID, queue[2].OpportunityID)
}
