// ABOUTME: Tests for deal health scoring
// ABOUTME: Covers status bands, inactivity monotonicity, stagnation and missing data
package scoring

import (
	"testing"

	"github.com/harperreed/dealpulse/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthStatusBands(t *testing.T) {
	tests := []struct {
		score int
		want  HealthStatus
	}{
		{100, HealthHealthy},
		{70, HealthHealthy},
		{69, HealthAtRisk},
		{40, HealthAtRisk},
		{39, HealthCritical},
		{0, HealthCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HealthStatusFor(tt.score), "score %d", tt.score)
	}
}

func TestHealthScoreFreshDeal(t *testing.T) {
	opp := newOpportunity(models.StageProposal, 20000)
	opp.CreatedAt = daysAgo(2)
	opp.LastActivityDate = timePtr(daysAgo(1))
	opp.NextActionDate = timePtr(testNow.AddDate(0, 0, 1))
	opp.StageHistory = []models.StageChange{{Stage: models.StageProposal, MovedAt: daysAgo(2)}}

	h := CalculateHealthScore(opp, testNow)

	assert.Equal(t, 100, h.Score)
	assert.Equal(t, HealthHealthy, h.Status)
	assert.Empty(t, h.Factors)
	assert.Equal(t, 1, h.DaysSinceActivity)
	assert.Equal(t, 2, h.DaysInStage)
	assert.False(t, h.IsStalled)
}

func TestHealthScoreInactivityTiers(t *testing.T) {
	tests := []struct {
		days      int
		wantScore int
	}{
		{7, 100},
		{8, 80},
		{14, 80},
		{15, 65},
		{30, 65},
		{31, 30},
	}

	for _, tt := range tests {
		opp := newOpportunity(models.StageLead, 5000)
		opp.CreatedAt = daysAgo(3)
		opp.LastActivityDate = timePtr(daysAgo(tt.days))
		opp.NextActionDate = timePtr(testNow.AddDate(0, 0, 2))

		h := CalculateHealthScore(opp, testNow)
		assert.Equal(t, tt.wantScore, h.Score, "days %d", tt.days)
	}
}

func TestHealthScoreFortyFiveDaysIsCritical(t *testing.T) {
	opp := newOpportunity(models.StageNegotiation, 40000)
	opp.CreatedAt = daysAgo(50)
	opp.LastActivityDate = timePtr(daysAgo(45))

	h := CalculateHealthScore(opp, testNow)

	assert.Equal(t, HealthCritical, h.Status)
	assert.Less(t, h.Score, AtRiskMin)
	assert.True(t, h.IsStalled)
}

func TestHealthScoreStageStagnation(t *testing.T) {
	opp := newOpportunity(models.StageQualified, 5000)
	opp.CreatedAt = daysAgo(60)
	opp.LastActivityDate = timePtr(daysAgo(1))
	opp.NextActionDate = timePtr(testNow.AddDate(0, 0, 1))
	opp.StageHistory = []models.StageChange{
		{Stage: models.StageLead, MovedAt: daysAgo(60)},
		{Stage: models.StageQualified, MovedAt: daysAgo(30)},
	}

	h := CalculateHealthScore(opp, testNow)
	assert.Equal(t, 100-StagnantPenalty, h.Score)
	assert.Equal(t, 30, h.DaysInStage)
	assert.True(t, h.IsStalled)

	opp.StageHistory[1].MovedAt = daysAgo(50)
	h = CalculateHealthScore(opp, testNow)
	assert.Equal(t, 100-SeverelyStagnantPenalty, h.Score)
}

func TestHealthScoreNextAction(t *testing.T) {
	opp := newOpportunity(models.StageLead, 5000)
	opp.LastActivityDate = timePtr(testNow)

	h := CalculateHealthScore(opp, testNow)
	assert.Equal(t, 100-NoNextActionPenalty, h.Score)
	require.Len(t, h.Factors, 1)
	assert.Equal(t, "no_next_action", h.Factors[0].Name)

	opp.NextActionDate = timePtr(daysAgo(2))
	h = CalculateHealthScore(opp, testNow)
	assert.Equal(t, 100-OverdueNextActionPenalty, h.Score)
	assert.Equal(t, "overdue_next_action", h.Factors[0].Name)
}

func TestHealthScoreMissingTimestampsIsWorstCase(t *testing.T) {
	opp := models.Opportunity{Stage: models.StageLead}

	h := CalculateHealthScore(opp, testNow)

	assert.Equal(t, 100-InactivityPenalties[0].Score-NoNextActionPenalty, h.Score)
	assert.Equal(t, HealthCritical, h.Status)
	assert.Equal(t, NoContactSentinel, h.DaysSinceActivity)
	assert.True(t, h.IsStalled)
}

func TestHealthScoreTerminalStages(t *testing.T) {
	won := CalculateHealthScore(newOpportunity(models.StageWon, 1000), testNow)
	assert.Equal(t, 100, won.Score)
	assert.Equal(t, HealthHealthy, won.Status)

	lost := CalculateHealthScore(newOpportunity(models.StageLost, 1000), testNow)
	assert.Equal(t, 0, lost.Score)
	assert.Equal(t, HealthCritical, lost.Status)
}

func TestHealthScoreNeverIncreasesWithInactivity(t *testing.T) {
	previous := 101
	for days := 0; days <= 150; days++ {
		opp := newOpportunity(models.StageProposal, 30000)
		opp.CreatedAt = daysAgo(20)
		opp.LastActivityDate = timePtr(daysAgo(days))

		h := CalculateHealthScore(opp, testNow)
		assert.LessOrEqual(t, h.Score, previous, "days %d", days)
		assert.GreaterOrEqual(t, h.Score, 0)
		assert.LessOrEqual(t, h.Score, 100)
		previous = h.Score
	}
}

func TestHealthScoreIsDeterministic(t *testing.T) {
	opp := newOpportunity(models.StageNegotiation, 90000)
	opp.CreatedAt = daysAgo(40)
	opp.LastActivityDate = timePtr(daysAgo(12))

	assert.Equal(t, CalculateHealthScore(opp, testNow), CalculateHealthScore(opp, testNow))
}
