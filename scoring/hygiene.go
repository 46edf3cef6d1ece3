// ABOUTME: Pipeline hygiene analysis
// ABOUTME: Flags inactive deals by staleness tier, selects auto-archive candidates and summarises
package scoring

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/models"
)

type Severity string

const (
	SeverityAging     Severity = "aging"
	SeverityStale     Severity = "stale"
	SeverityAbandoned Severity = "abandoned"
)

// Rank orders severities, higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SeverityAbandoned:
		return 3
	case SeverityStale:
		return 2
	case SeverityAging:
		return 1
	}
	return 0
}

type HygieneTier struct {
	Severity       Severity
	MinDays        int
	Recommendation string
}

// HygieneTiers are ordered most severe first. Days count from the last
// activity, inclusive.
var HygieneTiers = []HygieneTier{
	{Severity: SeverityAbandoned, MinDays: 90, Recommendation: "Archive or make a final re-engagement attempt"},
	{Severity: SeverityStale, MinDays: 60, Recommendation: "Re-engage now or plan to archive"},
	{Severity: SeverityAging, MinDays: 30, Recommendation: "Schedule a follow-up"},
}

// AutoArchiveReason is stamped on every auto-archive candidate.
const AutoArchiveReason = "No activity for 90+ days (auto-archived)"

type FlaggedOpportunity struct {
	OpportunityID  uuid.UUID    `json:"opportunity_id"`
	Title          string       `json:"title"`
	Stage          models.Stage `json:"stage"`
	Value          float64      `json:"value"`
	DaysInactive   int          `json:"days_inactive"`
	Severity       Severity     `json:"severity"`
	Recommendation string       `json:"recommendation"`
}

type HygieneAnalysis struct {
	AnalyzedAt   time.Time            `json:"analyzed_at"`
	TotalScanned int                  `json:"total_scanned"`
	Eligible     int                  `json:"eligible"`
	Skipped      int                  `json:"skipped"`
	Healthy      int                  `json:"healthy"`
	Flagged      []FlaggedOpportunity `json:"flagged"`
}

type ArchiveResult struct {
	Count         int                  `json:"count"`
	Opportunities []models.Opportunity `json:"opportunities"`
}

type TierSummary struct {
	Severity Severity `json:"severity"`
	MinDays  int      `json:"min_days"`
	Count    int      `json:"count"`
	Value    float64  `json:"value"`
}

type HygieneReport struct {
	GeneratedAt       time.Time     `json:"generated_at"`
	Eligible          int           `json:"eligible"`
	Healthy           int           `json:"healthy"`
	TotalFlagged      int           `json:"total_flagged"`
	Tiers             []TierSummary `json:"tiers"`
	ArchiveCandidates int           `json:"archive_candidates"`
	ValueAtRisk       float64       `json:"value_at_risk"`
	HealthyPercent    float64       `json:"healthy_percent"`
	Summary           []string      `json:"summary"`
}

// SeverityFor returns the staleness tier for days of inactivity, or false
// when the deal is still healthy.
func SeverityFor(daysInactive int) (HygieneTier, bool) {
	for _, tier := range HygieneTiers {
		if daysInactive >= tier.MinDays {
			return tier, true
		}
	}
	return HygieneTier{}, false
}

// daysInactive counts days since last activity. A deal with no timestamps
// at all is treated as never touched.
func daysInactive(o models.Opportunity, now time.Time) int {
	last, ok := o.LastActivity()
	if !ok {
		return NoContactSentinel
	}
	return models.DaysBetween(last, now)
}

// AnalyzeOpportunities scans non-archived, open opportunities for staleness.
// Archived, won, lost and repeated IDs are skipped so nothing is counted
// twice. Flagged deals are ordered by days inactive, longest first.
func AnalyzeOpportunities(opps []models.Opportunity, now time.Time) HygieneAnalysis {
	analysis := HygieneAnalysis{
		AnalyzedAt:   now,
		TotalScanned: len(opps),
		Flagged:      []FlaggedOpportunity{},
	}

	seen := make(map[uuid.UUID]bool, len(opps))
	for _, opp := range opps {
		o := opp.Normalized()
		if !o.IsOpen() || seen[o.ID] {
			analysis.Skipped++
			continue
		}
		seen[o.ID] = true
		analysis.Eligible++

		days := daysInactive(o, now)
		tier, flagged := SeverityFor(days)
		if !flagged {
			analysis.Healthy++
			continue
		}
		analysis.Flagged = append(analysis.Flagged, FlaggedOpportunity{
			OpportunityID:  o.ID,
			Title:          o.Title,
			Stage:          o.Stage,
			Value:          o.Value,
			DaysInactive:   days,
			Severity:       tier.Severity,
			Recommendation: tier.Recommendation,
		})
	}

	sort.SliceStable(analysis.Flagged, func(i, j int) bool {
		return analysis.Flagged[i].DaysInactive > analysis.Flagged[j].DaysInactive
	})
	return analysis
}

// AutoArchive selects opportunities in the most severe tier and returns
// archived copies of them. Neither the input slice nor its elements are
// modified; persisting the archive flag is the caller's job.
func AutoArchive(opps []models.Opportunity, now time.Time) ArchiveResult {
	mostSevere := HygieneTiers[0]
	result := ArchiveResult{Opportunities: []models.Opportunity{}}

	seen := make(map[uuid.UUID]bool, len(opps))
	for _, opp := range opps {
		o := opp.Normalized()
		if !o.IsOpen() || seen[o.ID] {
			continue
		}
		seen[o.ID] = true
		if daysInactive(o, now) < mostSevere.MinDays {
			continue
		}

		archived := opp
		archivedAt := now
		archived.IsArchived = true
		archived.ArchivedAt = &archivedAt
		archived.ArchivedReason = AutoArchiveReason
		result.Opportunities = append(result.Opportunities, archived)
	}
	result.Count = len(result.Opportunities)
	return result
}

// Reactivate returns an unarchived copy of opp whose last activity is reset
// to now, so the next hygiene scan treats it as freshly touched.
func Reactivate(opp models.Opportunity, now time.Time) models.Opportunity {
	active := opp
	touched := now
	active.IsArchived = false
	active.ArchivedAt = nil
	active.ArchivedReason = ""
	active.LastActivityDate = &touched
	active.UpdatedAt = now
	return active
}

// GenerateReport summarises an analysis by severity tier. Tier counts sum to
// the number of flagged opportunities.
func GenerateReport(analysis HygieneAnalysis) HygieneReport {
	report := HygieneReport{
		GeneratedAt:  analysis.AnalyzedAt,
		Eligible:     analysis.Eligible,
		Healthy:      analysis.Healthy,
		TotalFlagged: len(analysis.Flagged),
	}

	byTier := make(map[Severity]*TierSummary, len(HygieneTiers))
	for _, tier := range HygieneTiers {
		report.Tiers = append(report.Tiers, TierSummary{Severity: tier.Severity, MinDays: tier.MinDays})
	}
	for i := range report.Tiers {
		byTier[report.Tiers[i].Severity] = &report.Tiers[i]
	}

	for _, f := range analysis.Flagged {
		summary, ok := byTier[f.Severity]
		if !ok {
			continue
		}
		summary.Count++
		summary.Value += f.Value
		report.ValueAtRisk += f.Value
	}
	report.ArchiveCandidates = byTier[HygieneTiers[0].Severity].Count

	if analysis.Eligible > 0 {
		report.HealthyPercent = round1(float64(analysis.Healthy) / float64(analysis.Eligible) * 100)
	}

	report.Summary = append(report.Summary,
		fmt.Sprintf("%d of %d open deals need attention", report.TotalFlagged, report.Eligible))
	for _, t := range report.Tiers {
		if t.Count == 0 {
			continue
		}
		report.Summary = append(report.Summary,
			fmt.Sprintf("%d %s (%d+ days), %.0f in pipeline value", t.Count, t.Severity, t.MinDays, t.Value))
	}
	if report.ArchiveCandidates > 0 {
		report.Summary = append(report.Summary,
			fmt.Sprintf("%d deals can be auto-archived", report.ArchiveCandidates))
	}
	return report
}
