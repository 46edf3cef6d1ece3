// ABOUTME: Tests for pipeline hygiene analysis, auto-archive and reporting
// ABOUTME: Covers tier boundaries, skipping rules, input immutability and report totals
package scoring

import (
	"testing"

	"github.com/harperreed/dealpulse/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inactiveFor(days int, value float64) models.Opportunity {
	opp := newOpportunity(models.StageQualified, value)
	opp.CreatedAt = daysAgo(days + 5)
	opp.LastActivityDate = timePtr(daysAgo(days))
	return opp
}

func TestSeverityForTierBoundaries(t *testing.T) {
	tests := []struct {
		days    int
		flagged bool
		want    Severity
	}{
		{0, false, ""},
		{29, false, ""},
		{30, true, SeverityAging},
		{59, true, SeverityAging},
		{60, true, SeverityStale},
		{89, true, SeverityStale},
		{90, true, SeverityAbandoned},
		{NoContactSentinel, true, SeverityAbandoned},
	}
	for _, tt := range tests {
		tier, ok := SeverityFor(tt.days)
		assert.Equal(t, tt.flagged, ok, "days %d", tt.days)
		assert.Equal(t, tt.want, tier.Severity, "days %d", tt.days)
	}
}

func TestAnalyzeOpportunities(t *testing.T) {
	fresh := inactiveFor(3, 1000)
	aging := inactiveFor(35, 2000)
	abandoned := inactiveFor(120, 4000)
	stale := inactiveFor(70, 3000)

	archived := inactiveFor(200, 9000)
	archived.IsArchived = true
	won := inactiveFor(200, 9000)
	won.Stage = models.StageWon

	analysis := AnalyzeOpportunities([]models.Opportunity{fresh, aging, abandoned, stale, archived, won, stale}, testNow)

	assert.Equal(t, 7, analysis.TotalScanned)
	assert.Equal(t, 4, analysis.Eligible)
	assert.Equal(t, 3, analysis.Skipped)
	assert.Equal(t, 1, analysis.Healthy)
	require.Len(t, analysis.Flagged, 3)

	assert.Equal(t, abandoned.ID, analysis.Flagged[0].OpportunityID)
	assert.Equal(t, SeverityAbandoned, analysis.Flagged[0].Severity)
	assert.Equal(t, 120, analysis.Flagged[0].DaysInactive)
	assert.Equal(t, SeverityStale, analysis.Flagged[1].Severity)
	assert.Equal(t, SeverityAging, analysis.Flagged[2].Severity)
}

func TestAnalyzeOpportunitiesIsDeterministic(t *testing.T) {
	opps := []models.Opportunity{inactiveFor(3, 1000), inactiveFor(45, 2000), inactiveFor(95, 3000), inactiveFor(45, 500)}

	assert.Equal(t, AnalyzeOpportunities(opps, testNow), AnalyzeOpportunities(opps, testNow))
}

func TestAnalyzeOpportunitiesWithoutTimestampsIsAbandoned(t *testing.T) {
	analysis := AnalyzeOpportunities([]models.Opportunity{{Stage: models.StageLead}}, testNow)

	require.Len(t, analysis.Flagged, 1)
	assert.Equal(t, NoContactSentinel, analysis.Flagged[0].DaysInactive)
	assert.Equal(t, SeverityAbandoned, analysis.Flagged[0].Severity)
}

func TestAutoArchiveDoesNotMutateInput(t *testing.T) {
	old := inactiveFor(120, 5000)
	recent := inactiveFor(40, 5000)
	input := []models.Opportunity{old, recent}

	result := AutoArchive(input, testNow)

	require.Equal(t, 1, result.Count)
	archived := result.Opportunities[0]
	assert.Equal(t, old.ID, archived.ID)
	assert.True(t, archived.IsArchived)
	assert.Equal(t, AutoArchiveReason, archived.ArchivedReason)
	require.NotNil(t, archived.ArchivedAt)
	assert.Equal(t, testNow, *archived.ArchivedAt)

	assert.False(t, input[0].IsArchived)
	assert.Nil(t, input[0].ArchivedAt)
	assert.Empty(t, input[0].ArchivedReason)
	assert.Equal(t, old, input[0])
}

func TestAutoArchiveSkipsClosedAndArchived(t *testing.T) {
	lost := inactiveFor(150, 1000)
	lost.Stage = models.StageLost
	already := inactiveFor(150, 1000)
	already.IsArchived = true

	result := AutoArchive([]models.Opportunity{lost, already}, testNow)

	assert.Zero(t, result.Count)
	assert.NotNil(t, result.Opportunities)
}

func TestReactivateResetsStaleness(t *testing.T) {
	archived := AutoArchive([]models.Opportunity{inactiveFor(120, 1000)}, testNow).Opportunities[0]

	later := testNow.AddDate(0, 0, 1)
	active := Reactivate(archived, later)

	assert.False(t, active.IsArchived)
	assert.Nil(t, active.ArchivedAt)
	assert.Empty(t, active.ArchivedReason)
	require.NotNil(t, active.LastActivityDate)
	assert.Equal(t, later, *active.LastActivityDate)
	assert.True(t, archived.IsArchived)

	analysis := AnalyzeOpportunities([]models.Opportunity{active}, later)
	assert.Equal(t, 1, analysis.Healthy)
	assert.Empty(t, analysis.Flagged)
}

func TestGenerateReportCountsMatchFlagged(t *testing.T) {
	opps := []models.Opportunity{
		inactiveFor(1, 100),
		inactiveFor(31, 1000),
		inactiveFor(45, 1500),
		inactiveFor(61, 2000),
		inactiveFor(95, 4000),
		inactiveFor(300, 8000),
	}
	analysis := AnalyzeOpportunities(opps, testNow)

	report := GenerateReport(analysis)

	total := 0
	for _, tier := range report.Tiers {
		total += tier.Count
	}
	assert.Equal(t, len(analysis.Flagged), total)
	assert.Equal(t, 5, report.TotalFlagged)
	assert.Equal(t, 2, report.ArchiveCandidates)
	assert.Equal(t, 16500.0, report.ValueAtRisk)
	assert.Equal(t, 16.7, report.HealthyPercent)

	require.Len(t, report.Tiers, 3)
	assert.Equal(t, TierSummary{Severity: SeverityAbandoned, MinDays: 90, Count: 2, Value: 12000}, report.Tiers[0])
	assert.Equal(t, TierSummary{Severity: SeverityStale, MinDays: 60, Count: 1, Value: 2000}, report.Tiers[1])
	assert.Equal(t, TierSummary{Severity: SeverityAging, MinDays: 30, Count: 2, Value: 2500}, report.Tiers[2])
	assert.Equal(t, "5 of 6 open deals need attention", report.Summary[0])
}

func TestGenerateReportEmpty(t *testing.T) {
	report := GenerateReport(AnalyzeOpportunities(nil, testNow))

	assert.Zero(t, report.TotalFlagged)
	assert.Zero(t, report.HealthyPercent)
	assert.Len(t, report.Tiers, 3)
	assert.Len(t, report.Summary, 1)
}
