// ABOUTME: Multi-dimensional deal scoring
// ABOUTME: Combines value, risk, duration and probability into a grade, priority and recommendations
package scoring

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/models"
)

// Score weights in percent. They sum to 100.
const (
	WeightValue       = 30
	WeightRisk        = 25
	WeightDuration    = 20
	WeightProbability = 25
)

// ValueBand maps an inclusive lower bound on deal value to a value score.
type ValueBand struct {
	Min   float64
	Score int
}

var ValueBands = []ValueBand{
	{Min: 100000, Score: 100},
	{Min: 50000, Score: 80},
	{Min: 25000, Score: 60},
	{Min: 10000, Score: 40},
}

const MinValueScore = 20

// StageRisk is the base risk for each stage. Higher is worse.
var StageRisk = map[models.Stage]int{
	models.StageLead:        40,
	models.StageQualified:   30,
	models.StageProposal:    20,
	models.StageNegotiation: 10,
	models.StageWon:         0,
	models.StageLost:        100,
}

const (
	NoCustomerRisk   = 20
	MissingEmailRisk = 10
	MissingPhoneRisk = 5
)

// AgeRiskBands add risk by days open: more than 90, more than 60.
var AgeRiskBands = []Band{
	{Min: 91, Score: 20},
	{Min: 61, Score: 10},
}

// DurationBands score days since creation; longer is worse.
var DurationBands = []Band{
	{Min: 90, Score: 100},
	{Min: 60, Score: 75},
	{Min: 30, Score: 50},
	{Min: 7, Score: 25},
}

const MinDurationScore = 10

// InteractionBoosts raise probability by number of logged interactions.
var InteractionBoosts = []Band{
	{Min: 10, Score: 15},
	{Min: 5, Score: 10},
	{Min: 2, Score: 5},
}

var StageProbabilityBonus = map[models.Stage]int{
	models.StageQualified:   5,
	models.StageProposal:    10,
	models.StageNegotiation: 15,
}

// GradeBand maps an inclusive lower bound on the total score to a letter.
type GradeBand struct {
	Min   int
	Grade string
}

var GradeBands = []GradeBand{
	{Min: 90, Grade: "A+"},
	{Min: 80, Grade: "A"},
	{Min: 70, Grade: "B"},
	{Min: 60, Grade: "C"},
	{Min: 50, Grade: "D"},
}

const FailingGrade = "F"

type DealTier string

const (
	TierUrgent DealTier = "urgent"
	TierHigh   DealTier = "high"
	TierMedium DealTier = "medium"
	TierLow    DealTier = "low"
)

// Recommendation thresholds.
const (
	HighRiskThreshold       = 70
	LongDurationThreshold   = 70
	LowProbabilityThreshold = 50
	UrgentScoreMin          = 80
	UrgentValueMin          = 50000
	HighTierScoreMin        = 70
	HighTierValueMin        = 100000
	MediumTierScoreMin      = 50
)

type ScoreBreakdown struct {
	Value       int `json:"value"`
	Risk        int `json:"risk"`
	Duration    int `json:"duration"`
	Probability int `json:"probability"`
}

type DealScore struct {
	OpportunityID   uuid.UUID        `json:"opportunity_id"`
	TotalScore      int              `json:"total_score"`
	Grade           string           `json:"grade"`
	Breakdown       ScoreBreakdown   `json:"breakdown"`
	ExpectedValue   float64          `json:"expected_value"`
	Priority        DealTier         `json:"priority"`
	Recommendations []Recommendation `json:"recommendations"`
}

// GradeFor maps a total score onto the letter-grade ladder.
func GradeFor(score int) string {
	for _, b := range GradeBands {
		if score >= b.Min {
			return b.Grade
		}
	}
	return FailingGrade
}

// TierFor derives the priority tier from the total score and deal value.
func TierFor(score int, value float64) DealTier {
	switch {
	case score >= UrgentScoreMin && value >= UrgentValueMin:
		return TierUrgent
	case score >= HighTierScoreMin || value >= HighTierValueMin:
		return TierHigh
	case score >= MediumTierScoreMin:
		return TierMedium
	default:
		return TierLow
	}
}

func valueScore(value float64) int {
	for _, b := range ValueBands {
		if value >= b.Min {
			return b.Score
		}
	}
	return MinValueScore
}

func riskScore(o models.Opportunity, customer *models.Customer, daysOpen int) int {
	risk := StageRisk[o.Stage]
	switch {
	case customer == nil:
		risk += NoCustomerRisk
	default:
		if customer.Email == "" {
			risk += MissingEmailRisk
		}
		if customer.Phone == "" {
			risk += MissingPhoneRisk
		}
	}
	risk += bandScore(AgeRiskBands, daysOpen, 0)
	return models.Clamp(risk, 0, 100)
}

func probabilityScore(o models.Opportunity, interactionCount int) int {
	switch o.Stage {
	case models.StageWon:
		return 100
	case models.StageLost:
		return 0
	}
	p := o.Probability
	p += bandScore(InteractionBoosts, interactionCount, 0)
	p += StageProbabilityBonus[o.Stage]
	return models.Clamp(p, 0, 100)
}

type dealScoreContext struct {
	breakdown          ScoreBreakdown
	incompleteCustomer bool
	daysOpen           int
}

var dealScoreRules = []rule[dealScoreContext]{
	{
		when: func(c dealScoreContext) bool { return c.breakdown.Risk > HighRiskThreshold },
		build: func(c dealScoreContext) Recommendation {
			return Recommendation{
				Type:        "mitigate_risk",
				Priority:    PriorityHigh,
				Title:       "Mitigate deal risk",
				Description: fmt.Sprintf("Risk score %d is above %d; confirm budget, decision makers and timeline", c.breakdown.Risk, HighRiskThreshold),
			}
		},
	},
	{
		when: func(c dealScoreContext) bool { return c.breakdown.Probability < LowProbabilityThreshold },
		build: func(c dealScoreContext) Recommendation {
			return Recommendation{
				Type:        "increase_probability",
				Priority:    PriorityHigh,
				Title:       "Increase win probability",
				Description: fmt.Sprintf("Probability %d%% is below %d%%; schedule a discovery call or demo", c.breakdown.Probability, LowProbabilityThreshold),
			}
		},
	},
	{
		when: func(c dealScoreContext) bool { return c.breakdown.Duration > LongDurationThreshold },
		build: func(c dealScoreContext) Recommendation {
			return Recommendation{
				Type:        "accelerate",
				Priority:    PriorityMedium,
				Title:       "Accelerate the deal",
				Description: fmt.Sprintf("Open for %d days; agree a mutual close plan", c.daysOpen),
			}
		},
	},
	{
		when: func(c dealScoreContext) bool { return c.incompleteCustomer },
		build: func(c dealScoreContext) Recommendation {
			return Recommendation{
				Type:        "complete_customer_profile",
				Priority:    PriorityLow,
				Title:       "Complete customer profile",
				Description: "Customer contact details are missing; add email and phone",
			}
		},
	},
}

// CalculateDealScore grades an opportunity. The customer and interactions
// are optional; a missing customer counts as incomplete data.
func CalculateDealScore(opp models.Opportunity, customer *models.Customer, interactions []models.Interaction, now time.Time) DealScore {
	o := opp.Normalized()

	daysOpen := 0
	if !o.CreatedAt.IsZero() {
		daysOpen = models.DaysBetween(o.CreatedAt, now)
	}

	breakdown := ScoreBreakdown{
		Value:       valueScore(o.Value),
		Risk:        riskScore(o, customer, daysOpen),
		Duration:    bandScore(DurationBands, daysOpen, MinDurationScore),
		Probability: probabilityScore(o, len(interactions)),
	}

	total := weightedScore(
		[2]int{breakdown.Value, WeightValue},
		[2]int{100 - breakdown.Risk, WeightRisk},
		[2]int{100 - breakdown.Duration, WeightDuration},
		[2]int{breakdown.Probability, WeightProbability},
	)
	total = models.Clamp(total, 0, 100)

	ctx := dealScoreContext{
		breakdown:          breakdown,
		incompleteCustomer: customer == nil || customer.Email == "" || customer.Phone == "",
		daysOpen:           daysOpen,
	}

	return DealScore{
		OpportunityID:   o.ID,
		TotalScore:      total,
		Grade:           GradeFor(total),
		Breakdown:       breakdown,
		ExpectedValue:   math.Round(o.Value * float64(total) / 100),
		Priority:        TierFor(total, o.Value),
		Recommendations: applyRules(dealScoreRules, ctx),
	}
}

// ScoredDeal pairs an opportunity with its score for ranking.
type ScoredDeal struct {
	Opportunity models.Opportunity `json:"opportunity"`
	Score       DealScore          `json:"score"`
}

// DealInput bundles an opportunity with its optional relations.
type DealInput struct {
	Opportunity  models.Opportunity
	Customer     *models.Customer
	Interactions []models.Interaction
}

// RankDeals scores each deal and orders them by total score, highest first.
// Deals with equal scores keep their input order.
func RankDeals(inputs []DealInput, now time.Time) []ScoredDeal {
	ranked := make([]ScoredDeal, 0, len(inputs))
	for _, in := range inputs {
		ranked = append(ranked, ScoredDeal{
			Opportunity: in.Opportunity,
			Score:       CalculateDealScore(in.Opportunity, in.Customer, in.Interactions, now),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score.TotalScore > ranked[j].Score.TotalScore
	})
	return ranked
}
