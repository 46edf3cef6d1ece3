// ABOUTME: Customer churn risk scoring
// ABOUTME: Weighs engagement, payment punctuality, open deals and satisfaction into a risk level
package scoring

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/models"
)

// Churn weights in percent, applied to (100 - factor). They sum to 100.
const (
	ChurnWeightEngagement   = 35
	ChurnWeightPayment      = 30
	ChurnWeightActivity     = 25
	ChurnWeightSatisfaction = 10
)

// EngagementWindowDays is the trailing window for counting interactions.
const EngagementWindowDays = 30

// EngagementBands score interactions in the trailing window.
var EngagementBands = []Band{
	{Min: 10, Score: 100},
	{Min: 5, Score: 80},
	{Min: 3, Score: 60},
	{Min: 1, Score: 40},
}

const NoEngagementScore = 10

// NoPaymentHistoryScore reflects unknown payment behaviour.
const NoPaymentHistoryScore = 50

// ActivityBands score the number of open, non-archived opportunities.
var ActivityBands = []Band{
	{Min: 3, Score: 100},
	{Min: 2, Score: 75},
	{Min: 1, Score: 50},
}

const NoOpenOpportunitiesScore = 20

// Weak-factor thresholds that trigger recommendations.
const (
	WeakEngagement   = 40
	WeakPayment      = 60
	WeakActivity     = 50
	WeakSatisfaction = 60
)

// Churn horizon parameters.
const (
	ChurnHorizonDays       = 180
	ChurnPredictionMinRisk = 40
	HighConfidenceRisk     = 70
	HighConfidence         = 80
	BaseConfidence         = 60
)

type RiskLevel struct {
	Level string `json:"level"`
	Label string `json:"label"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// RiskLevelBand maps an inclusive lower bound on risk score to a level.
type RiskLevelBand struct {
	Min   int
	Level RiskLevel
}

var RiskLevels = []RiskLevelBand{
	{Min: 80, Level: RiskLevel{Level: "critical", Label: "Critical Risk", Color: "red", Icon: "🔴"}},
	{Min: 60, Level: RiskLevel{Level: "high", Label: "High Risk", Color: "orange", Icon: "🟠"}},
	{Min: 40, Level: RiskLevel{Level: "medium", Label: "Medium Risk", Color: "yellow", Icon: "🟡"}},
	{Min: 20, Level: RiskLevel{Level: "low", Label: "Low Risk", Color: "green", Icon: "🟢"}},
}

var MinimalRisk = RiskLevel{Level: "minimal", Label: "Minimal Risk", Color: "blue", Icon: "🔵"}

type ChurnFactors struct {
	Engagement         int `json:"engagement"`
	Payment            int `json:"payment"`
	Activity           int `json:"activity"`
	Satisfaction       int `json:"satisfaction"`
	RecentInteractions int `json:"recent_interactions"`
	TotalPayments      int `json:"total_payments"`
	LatePayments       int `json:"late_payments"`
	OpenOpportunities  int `json:"open_opportunities"`
}

type ChurnPrediction struct {
	Date           time.Time `json:"date"`
	DaysUntilChurn int       `json:"days_until_churn"`
	Confidence     int       `json:"confidence"`
}

type ChurnRisk struct {
	CustomerID         uuid.UUID        `json:"customer_id"`
	CustomerName       string           `json:"customer_name"`
	RiskScore          int              `json:"risk_score"`
	RiskLevel          RiskLevel        `json:"risk_level"`
	ChurnProbability   float64          `json:"churn_probability"`
	PredictedChurnDate *ChurnPrediction `json:"predicted_churn_date,omitempty"`
	Factors            ChurnFactors     `json:"factors"`
	Recommendations    []Recommendation `json:"recommendations"`
}

// RiskLevelFor bands a churn risk score.
func RiskLevelFor(score int) RiskLevel {
	for _, b := range RiskLevels {
		if score >= b.Min {
			return b.Level
		}
	}
	return MinimalRisk
}

// PredictChurnDate projects when a customer is likely to churn. Scores
// below ChurnPredictionMinRisk return nil.
func PredictChurnDate(riskScore int, now time.Time) *ChurnPrediction {
	if riskScore < ChurnPredictionMinRisk {
		return nil
	}
	days := roundDiv(ChurnHorizonDays*(100-riskScore), 100)
	confidence := BaseConfidence
	if riskScore > HighConfidenceRisk {
		confidence = HighConfidence
	}
	return &ChurnPrediction{
		Date:           now.AddDate(0, 0, days),
		DaysUntilChurn: days,
		Confidence:     confidence,
	}
}

type churnContext struct {
	factors ChurnFactors
	level   RiskLevel
	name    string
}

var churnRules = []rule[churnContext]{
	{
		when: func(c churnContext) bool { return c.factors.Engagement < WeakEngagement },
		build: func(c churnContext) Recommendation {
			return Recommendation{
				Type:        "schedule_check_in",
				Priority:    PriorityHigh,
				Title:       "Schedule a check-in",
				Description: fmt.Sprintf("Only %d interactions in the last %d days", c.factors.RecentInteractions, EngagementWindowDays),
			}
		},
	},
	{
		when: func(c churnContext) bool { return c.factors.Payment < WeakPayment },
		build: func(c churnContext) Recommendation {
			desc := "No payment history on record; confirm billing details"
			if c.factors.TotalPayments > 0 {
				desc = fmt.Sprintf("%d of %d payments were late", c.factors.LatePayments, c.factors.TotalPayments)
			}
			return Recommendation{
				Type:        "review_payment_terms",
				Priority:    PriorityHigh,
				Title:       "Review payment terms",
				Description: desc,
			}
		},
	},
	{
		when: func(c churnContext) bool { return c.factors.Activity < WeakActivity },
		build: func(c churnContext) Recommendation {
			return Recommendation{
				Type:        "propose_new_opportunity",
				Priority:    PriorityMedium,
				Title:       "Propose a new opportunity",
				Description: fmt.Sprintf("%d open opportunities; look for upsell or renewal", c.factors.OpenOpportunities),
			}
		},
	},
	{
		when: func(c churnContext) bool { return c.factors.Satisfaction < WeakSatisfaction },
		build: func(c churnContext) Recommendation {
			return Recommendation{
				Type:        "satisfaction_survey",
				Priority:    PriorityHigh,
				Title:       "Run a satisfaction survey",
				Description: fmt.Sprintf("Satisfaction score is %d", c.factors.Satisfaction),
			}
		},
	},
	{
		when: func(c churnContext) bool { return c.level.Level == RiskLevels[0].Level.Level },
		build: func(c churnContext) Recommendation {
			return Recommendation{
				Type:        "executive_outreach",
				Priority:    PriorityCritical,
				Title:       "Executive outreach",
				Description: fmt.Sprintf("%s is at critical churn risk; involve an executive sponsor", c.name),
			}
		},
	},
}

// CalculateChurnRisk scores a customer. Every collection may be empty and
// falls back to its documented default.
func CalculateChurnRisk(customer models.Customer, opportunities []models.Opportunity, interactions []models.Interaction, payments []models.Payment, now time.Time) ChurnRisk {
	var factors ChurnFactors

	windowStart := now.AddDate(0, 0, -EngagementWindowDays)
	for _, ic := range interactions {
		if !ic.CreatedAt.Before(windowStart) && !ic.CreatedAt.After(now) {
			factors.RecentInteractions++
		}
	}
	factors.Engagement = bandScore(EngagementBands, factors.RecentInteractions, NoEngagementScore)

	factors.TotalPayments = len(payments)
	for _, p := range payments {
		if p.IsLate() {
			factors.LatePayments++
		}
	}
	factors.Payment = NoPaymentHistoryScore
	if factors.TotalPayments > 0 {
		onTime := factors.TotalPayments - factors.LatePayments
		factors.Payment = roundDiv(onTime*100, factors.TotalPayments)
	}

	for _, o := range opportunities {
		if o.Normalized().IsOpen() {
			factors.OpenOpportunities++
		}
	}
	factors.Activity = bandScore(ActivityBands, factors.OpenOpportunities, NoOpenOpportunitiesScore)

	factors.Satisfaction = customer.Satisfaction()

	risk := weightedScore(
		[2]int{100 - factors.Engagement, ChurnWeightEngagement},
		[2]int{100 - factors.Payment, ChurnWeightPayment},
		[2]int{100 - factors.Activity, ChurnWeightActivity},
		[2]int{100 - factors.Satisfaction, ChurnWeightSatisfaction},
	)
	risk = models.Clamp(risk, 0, 100)
	level := RiskLevelFor(risk)

	return ChurnRisk{
		CustomerID:         customer.ID,
		CustomerName:       customer.Name,
		RiskScore:          risk,
		RiskLevel:          level,
		ChurnProbability:   float64(risk) / 100,
		PredictedChurnDate: PredictChurnDate(risk, now),
		Factors:            factors,
		Recommendations:    applyRules(churnRules, churnContext{factors: factors, level: level, name: customer.Name}),
	}
}

// RankChurnRisk orders results by risk score, highest first. Equal scores
// keep their input order. The input slice is not modified.
func RankChurnRisk(results []ChurnRisk) []ChurnRisk {
	ranked := make([]ChurnRisk, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RiskScore > ranked[j].RiskScore
	})
	return ranked
}
