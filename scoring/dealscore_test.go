// ABOUTME: Tests for multi-dimensional deal scoring
// ABOUTME: Covers grade boundaries, tiers, sub-score bands, recommendations and ranking
package scoring

import (
	"testing"

	"github.com/harperreed/dealpulse/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradeBoundaries(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "A+"},
		{90, "A+"},
		{89, "A"},
		{80, "A"},
		{79, "B"},
		{70, "B"},
		{60, "C"},
		{50, "D"},
		{49, "F"},
		{0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GradeFor(tt.score), "score %d", tt.score)
	}
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, TierUrgent, TierFor(80, 50000))
	assert.Equal(t, TierHigh, TierFor(80, 49999))
	assert.Equal(t, TierHigh, TierFor(30, 150000))
	assert.Equal(t, TierMedium, TierFor(55, 1000))
	assert.Equal(t, TierLow, TierFor(49, 1000))
}

func TestDealScoreStrongDeal(t *testing.T) {
	opp := newOpportunity(models.StageNegotiation, 120000)
	opp.Probability = 60
	opp.CreatedAt = daysAgo(10)
	customer := &models.Customer{Name: "Acme", Email: "buyer@acme.test", Phone: "555-0100"}

	s := CalculateDealScore(opp, customer, interactionsAt(1, 2, 3, 4, 5), testNow)

	assert.Equal(t, ScoreBreakdown{Value: 100, Risk: 10, Duration: 25, Probability: 85}, s.Breakdown)
	assert.Equal(t, 89, s.TotalScore)
	assert.Equal(t, "A", s.Grade)
	assert.Equal(t, 106800.0, s.ExpectedValue)
	assert.Equal(t, TierUrgent, s.Priority)
	assert.NotNil(t, s.Recommendations)
	assert.Empty(t, s.Recommendations)
}

func TestDealScoreWeakDeal(t *testing.T) {
	opp := newOpportunity(models.StageLead, 5000)
	opp.Probability = 10
	opp.CreatedAt = daysAgo(100)

	s := CalculateDealScore(opp, nil, nil, testNow)

	assert.Equal(t, ScoreBreakdown{Value: 20, Risk: 80, Duration: 100, Probability: 10}, s.Breakdown)
	assert.Equal(t, 14, s.TotalScore)
	assert.Equal(t, "F", s.Grade)
	assert.Equal(t, 700.0, s.ExpectedValue)
	assert.Equal(t, TierLow, s.Priority)

	require.Len(t, s.Recommendations, 4)
	types := []string{}
	for _, r := range s.Recommendations {
		types = append(types, r.Type)
	}
	assert.Equal(t, []string{"mitigate_risk", "increase_probability", "accelerate", "complete_customer_profile"}, types)
	assert.Equal(t, PriorityHigh, s.Recommendations[0].Priority)
	assert.Equal(t, PriorityLow, s.Recommendations[3].Priority)
}

func TestDealScoreTerminalStages(t *testing.T) {
	won := newOpportunity(models.StageWon, 10000)
	won.Probability = 30
	assert.Equal(t, 100, CalculateDealScore(won, nil, nil, testNow).Breakdown.Probability)

	lost := newOpportunity(models.StageLost, 10000)
	lost.Probability = 90
	s := CalculateDealScore(lost, nil, nil, testNow)
	assert.Equal(t, 0, s.Breakdown.Probability)
	assert.Equal(t, 100, s.Breakdown.Risk)
}

func TestDealScorePartialCustomer(t *testing.T) {
	opp := newOpportunity(models.StageProposal, 30000)
	customer := &models.Customer{Name: "Initech", Email: "ops@initech.test"}

	s := CalculateDealScore(opp, customer, nil, testNow)
	assert.Equal(t, 20+MissingPhoneRisk, s.Breakdown.Risk)
	require.NotEmpty(t, s.Recommendations)
	assert.Equal(t, "complete_customer_profile", s.Recommendations[len(s.Recommendations)-1].Type)
}

func TestDealScoreBoundsAndValueMonotonicity(t *testing.T) {
	values := []float64{-500, 0, 9999, 10000, 25000, 50000, 99999, 100000, 1e9}
	previous := -1
	for _, v := range values {
		opp := newOpportunity(models.StageQualified, v)
		opp.Probability = 40
		opp.CreatedAt = daysAgo(45)

		s := CalculateDealScore(opp, nil, nil, testNow)
		assert.GreaterOrEqual(t, s.TotalScore, 0)
		assert.LessOrEqual(t, s.TotalScore, 100)
		assert.GreaterOrEqual(t, s.TotalScore, previous, "value %.0f", v)
		assert.GreaterOrEqual(t, s.ExpectedValue, 0.0)
		previous = s.TotalScore
	}
}

func TestDealScoreIsDeterministic(t *testing.T) {
	opp := newOpportunity(models.StageProposal, 42000)
	opp.Probability = 55
	opp.CreatedAt = daysAgo(33)
	ics := interactionsAt(1, 4)

	assert.Equal(t, CalculateDealScore(opp, nil, ics, testNow), CalculateDealScore(opp, nil, ics, testNow))
}

func TestRankDealsStableDescending(t *testing.T) {
	low := newOpportunity(models.StageLead, 1000)
	high := newOpportunity(models.StageNegotiation, 200000)
	high.Probability = 80
	tieA := newOpportunity(models.StageLead, 1000)
	tieA.Title = "tie"

	ranked := RankDeals([]DealInput{{Opportunity: low}, {Opportunity: high}, {Opportunity: tieA}}, testNow)

	require.Len(t, ranked, 3)
	assert.Equal(t, high.ID, ranked[0].Opportunity.ID)
	assert.Equal(t, low.ID, ranked[1].Opportunity.ID)
	assert.Equal(t, tieA.ID, ranked[2].Opportunity.ID)
}
