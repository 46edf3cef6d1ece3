// ABOUTME: Deal health scoring
// ABOUTME: Deducts from a baseline for inactivity, stage stagnation and missing next actions
package scoring

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/models"
)

type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthAtRisk   HealthStatus = "at_risk"
	HealthCritical HealthStatus = "critical"
)

const (
	HealthBaseline = 100
	HealthyMin     = 70
	AtRiskMin      = 40

	// StalledAfterDays marks a deal stalled once inactivity exceeds it.
	StalledAfterDays = 14

	NoNextActionPenalty      = 10
	OverdueNextActionPenalty = 10
	StagnantPenalty          = 15
	SeverelyStagnantPenalty  = 25
)

// InactivityPenalties are deducted by days since last activity:
// more than 30 days, more than 14 days, more than 7 days.
var InactivityPenalties = []Band{
	{Min: 31, Score: 70},
	{Min: 15, Score: 35},
	{Min: 8, Score: 20},
}

// ExpectedStageDays is how long a healthy deal sits in each open stage.
var ExpectedStageDays = map[models.Stage]int{
	models.StageLead:        14,
	models.StageQualified:   21,
	models.StageProposal:    14,
	models.StageNegotiation: 21,
}

type HealthFactor struct {
	Name   string `json:"name"`
	Impact int    `json:"impact"`
	Detail string `json:"detail"`
}

type HealthScore struct {
	OpportunityID     uuid.UUID      `json:"opportunity_id"`
	Score             int            `json:"score"`
	Status            HealthStatus   `json:"status"`
	Factors           []HealthFactor `json:"factors"`
	DaysSinceActivity int            `json:"days_since_activity"`
	DaysInStage       int            `json:"days_in_stage"`
	IsStalled         bool           `json:"is_stalled"`
}

// HealthStatusFor bands a health score.
func HealthStatusFor(score int) HealthStatus {
	switch {
	case score >= HealthyMin:
		return HealthHealthy
	case score >= AtRiskMin:
		return HealthAtRisk
	default:
		return HealthCritical
	}
}

// CalculateHealthScore scores a single deal. An opportunity with no
// timestamps at all takes the heaviest inactivity penalty.
func CalculateHealthScore(opp models.Opportunity, now time.Time) HealthScore {
	o := opp.Normalized()
	result := HealthScore{
		OpportunityID:     o.ID,
		Factors:           []HealthFactor{},
		DaysSinceActivity: NoContactSentinel,
	}

	switch o.Stage {
	case models.StageWon:
		result.Score = 100
		result.Status = HealthHealthy
		result.Factors = append(result.Factors, HealthFactor{Name: "closed_won", Detail: "Deal closed won"})
		return result
	case models.StageLost:
		result.Score = 0
		result.Status = HealthCritical
		result.Factors = append(result.Factors, HealthFactor{Name: "closed_lost", Impact: -HealthBaseline, Detail: "Deal closed lost"})
		return result
	}

	score := HealthBaseline
	deduct := func(name string, penalty int, detail string) {
		score -= penalty
		result.Factors = append(result.Factors, HealthFactor{Name: name, Impact: -penalty, Detail: detail})
	}

	if last, ok := o.LastActivity(); ok {
		days := models.DaysBetween(last, now)
		result.DaysSinceActivity = days
		if penalty := bandScore(InactivityPenalties, days, 0); penalty > 0 {
			deduct("inactivity", penalty, fmt.Sprintf("No activity for %d days", days))
		}
		result.IsStalled = days > StalledAfterDays
	} else {
		deduct("no_activity", InactivityPenalties[0].Score, "No recorded activity")
		result.IsStalled = true
	}

	if entered := stageEnteredAt(o); !entered.IsZero() {
		daysInStage := models.DaysBetween(entered, now)
		result.DaysInStage = daysInStage
		expected := ExpectedStageDays[o.Stage]
		switch {
		case daysInStage > 2*expected:
			deduct("stage_stagnation", SeverelyStagnantPenalty,
				fmt.Sprintf("%d days in %s, expected %d", daysInStage, o.Stage, expected))
			result.IsStalled = true
		case daysInStage > expected:
			deduct("stage_stagnation", StagnantPenalty,
				fmt.Sprintf("%d days in %s, expected %d", daysInStage, o.Stage, expected))
			result.IsStalled = true
		}
	}

	switch {
	case o.NextActionDate == nil:
		deduct("no_next_action", NoNextActionPenalty, "No next action scheduled")
	case o.NextActionDate.Before(now):
		deduct("overdue_next_action", OverdueNextActionPenalty,
			fmt.Sprintf("Next action overdue since %s", o.NextActionDate.Format("2006-01-02")))
	}

	result.Score = models.Clamp(score, 0, 100)
	result.Status = HealthStatusFor(result.Score)
	return result
}

// stageEnteredAt returns when the opportunity entered its current stage,
// falling back to its creation time.
func stageEnteredAt(o models.Opportunity) time.Time {
	for i := len(o.StageHistory) - 1; i >= 0; i-- {
		if o.StageHistory[i].Stage == o.Stage {
			return o.StageHistory[i].MovedAt
		}
	}
	return o.CreatedAt
}
