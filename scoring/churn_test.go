// ABOUTME: Tests for customer churn risk
// ABOUTME: Covers empty-input defaults, risk bands, churn date projection and engagement monotonicity
package scoring

import (
	"testing"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskLevelBands(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "critical"},
		{80, "critical"},
		{79, "high"},
		{60, "high"},
		{59, "medium"},
		{40, "medium"},
		{39, "low"},
		{20, "low"},
		{19, "minimal"},
		{0, "minimal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskLevelFor(tt.score).Level, "score %d", tt.score)
	}
}

func TestPredictChurnDate(t *testing.T) {
	p := PredictChurnDate(60, testNow)
	require.NotNil(t, p)
	assert.Equal(t, 72, p.DaysUntilChurn)
	assert.Equal(t, 60, p.Confidence)
	assert.Equal(t, testNow.AddDate(0, 0, 72), p.Date)

	assert.Nil(t, PredictChurnDate(39, testNow))

	p = PredictChurnDate(70, testNow)
	require.NotNil(t, p)
	assert.Equal(t, BaseConfidence, p.Confidence)

	p = PredictChurnDate(71, testNow)
	require.NotNil(t, p)
	assert.Equal(t, HighConfidence, p.Confidence)

	p = PredictChurnDate(100, testNow)
	require.NotNil(t, p)
	assert.Equal(t, 0, p.DaysUntilChurn)
}

func TestChurnRiskEmptyInputsUseDefaults(t *testing.T) {
	customer := models.Customer{ID: uuid.New(), Name: "Quiet Co"}

	r := CalculateChurnRisk(customer, nil, nil, nil, testNow)

	assert.Equal(t, NoPaymentHistoryScore, r.Factors.Payment)
	assert.Equal(t, NoEngagementScore, r.Factors.Engagement)
	assert.Equal(t, NoOpenOpportunitiesScore, r.Factors.Activity)
	assert.Equal(t, models.DefaultSatisfactionScore, r.Factors.Satisfaction)
	assert.Equal(t, 70, r.RiskScore)
	assert.Equal(t, "high", r.RiskLevel.Level)
	assert.InDelta(t, 0.70, r.ChurnProbability, 1e-9)

	require.NotNil(t, r.PredictedChurnDate)
	assert.Equal(t, 54, r.PredictedChurnDate.DaysUntilChurn)

	types := []string{}
	for _, rec := range r.Recommendations {
		types = append(types, rec.Type)
	}
	assert.Equal(t, []string{"schedule_check_in", "review_payment_terms", "propose_new_opportunity"}, types)
}

func TestChurnRiskHealthyCustomer(t *testing.T) {
	satisfaction := 90
	customer := models.Customer{ID: uuid.New(), Name: "Loyal Ltd", SatisfactionScore: &satisfaction}

	opps := []models.Opportunity{
		newOpportunity(models.StageLead, 1000),
		newOpportunity(models.StageProposal, 1000),
		newOpportunity(models.StageNegotiation, 1000),
	}
	payments := []models.Payment{
		{Status: models.PaymentOnTime}, {Status: models.PaymentOnTime},
		{Status: models.PaymentOnTime}, {Status: models.PaymentOnTime},
	}

	r := CalculateChurnRisk(customer, opps, interactionsAt(0, 1, 2, 3, 4, 5, 6, 7, 8, 9), payments, testNow)

	assert.Equal(t, ChurnFactors{
		Engagement:         100,
		Payment:            100,
		Activity:           100,
		Satisfaction:       90,
		RecentInteractions: 10,
		TotalPayments:      4,
		OpenOpportunities:  3,
	}, r.Factors)
	assert.Equal(t, 1, r.RiskScore)
	assert.Equal(t, "minimal", r.RiskLevel.Level)
	assert.Nil(t, r.PredictedChurnDate)
	assert.Empty(t, r.Recommendations)
}

func TestChurnRiskIsDeterministic(t *testing.T) {
	satisfaction := 55
	customer := models.Customer{ID: uuid.New(), Name: "Wobbly Inc", SatisfactionScore: &satisfaction}
	opps := []models.Opportunity{newOpportunity(models.StageQualified, 5000)}
	payments := []models.Payment{{Status: models.PaymentLate}, {Status: models.PaymentOnTime}}
	ics := interactionsAt(2, 40)

	first := CalculateChurnRisk(customer, opps, ics, payments, testNow)
	second := CalculateChurnRisk(customer, opps, ics, payments, testNow)
	assert.Equal(t, first, second)
	require.NotNil(t, first.PredictedChurnDate)
}

func TestChurnRiskCountsOnlyRelevantData(t *testing.T) {
	customer := models.Customer{ID: uuid.New()}

	archived := newOpportunity(models.StageLead, 1000)
	archived.IsArchived = true
	won := newOpportunity(models.StageWon, 1000)
	open := newOpportunity(models.StageQualified, 1000)

	payments := []models.Payment{
		{Status: models.PaymentLate}, {Status: models.PaymentLate},
		{Status: models.PaymentLate}, {Status: models.PaymentOnTime},
	}
	interactions := interactionsAt(5, 31, 45)
	interactions = append(interactions, models.Interaction{CreatedAt: testNow.AddDate(0, 0, 3)})

	r := CalculateChurnRisk(customer, []models.Opportunity{archived, won, open}, interactions, payments, testNow)

	assert.Equal(t, 1, r.Factors.OpenOpportunities)
	assert.Equal(t, 50, r.Factors.Activity)
	assert.Equal(t, 1, r.Factors.RecentInteractions)
	assert.Equal(t, 40, r.Factors.Engagement)
	assert.Equal(t, 3, r.Factors.LatePayments)
	assert.Equal(t, 25, r.Factors.Payment)
}

func TestChurnRiskCriticalAddsExecutiveOutreach(t *testing.T) {
	low := 10
	customer := models.Customer{ID: uuid.New(), Name: "Fading Inc", SatisfactionScore: &low}
	payments := []models.Payment{{Status: models.PaymentLate}, {Status: models.PaymentLate}}

	r := CalculateChurnRisk(customer, nil, nil, payments, testNow)

	assert.Equal(t, "critical", r.RiskLevel.Level)
	require.NotEmpty(t, r.Recommendations)
	assert.Equal(t, "executive_outreach", r.Recommendations[0].Type)
	assert.Equal(t, PriorityCritical, r.Recommendations[0].Priority)
	assert.Equal(t, HighConfidence, r.PredictedChurnDate.Confidence)
}

func TestChurnRiskNeverDecreasesAsEngagementAges(t *testing.T) {
	customer := models.Customer{ID: uuid.New()}
	previous := -1
	for days := 0; days <= 60; days++ {
		r := CalculateChurnRisk(customer, nil, interactionsAt(days), nil, testNow)
		assert.GreaterOrEqual(t, r.RiskScore, previous, "days %d", days)
		assert.GreaterOrEqual(t, r.RiskScore, 0)
		assert.LessOrEqual(t, r.RiskScore, 100)
		previous = r.RiskScore
	}
}

func TestRankChurnRisk(t *testing.T) {
	a := ChurnRisk{CustomerName: "a", RiskScore: 40}
	b := ChurnRisk{CustomerName: "b", RiskScore: 90}
	c := ChurnRisk{CustomerName: "c", RiskScore: 40}
	input := []ChurnRisk{a, b, c}

	ranked := RankChurnRisk(input)

	assert.Equal(t, []string{"b", "a", "c"}, []string{ranked[0].CustomerName, ranked[1].CustomerName, ranked[2].CustomerName})
	assert.Equal(t, "a", input[0].CustomerName)
}
