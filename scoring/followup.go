// ABOUTME: Predictive follow-up suggestions
// ABOUTME: Rule-based next best action for an opportunity from recency, stage and value
package scoring

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/models"
)

// NoContactSentinel stands in for "days since last contact" when there has
// never been any contact. It sorts ahead of every real staleness value.
const NoContactSentinel = 999

const (
	HighValueThreshold = 50000
	StaleAfterDays     = 7
	RecentWithinDays   = 3
	FewInteractions    = 3
	ManyInteractions   = 5

	// ProposalReadyInteractions is how many touches a qualified deal needs
	// before a proposal is suggested.
	ProposalReadyInteractions = 3
)

// Confidence adjustments for a prediction.
const (
	BasePredictionConfidence = 50
	ManyInteractionsBonus    = 20
	RecentActivityBonus      = 15
	NegotiationBonus         = 15
)

type ActionType string

const (
	ActionCall             ActionType = "call"
	ActionSendProposal     ActionType = "send_proposal"
	ActionScheduleDemo     ActionType = "schedule_demo"
	ActionExecutiveMeeting ActionType = "executive_meeting"
	ActionSendEmail        ActionType = "send_email"
	ActionFollowUp         ActionType = "follow_up"
)

type Suggestion struct {
	Action             ActionType `json:"action"`
	Title              string     `json:"title"`
	Priority           Priority   `json:"priority"`
	SuggestedDate      time.Time  `json:"suggested_date"`
	EstimatedMinutes   int        `json:"estimated_minutes"`
	SuccessProbability float64    `json:"success_probability"`
	Reason             string     `json:"reason"`
}

type FollowUpContext struct {
	DaysSinceLastContact int          `json:"days_since_last_contact"`
	InteractionCount     int          `json:"interaction_count"`
	Stage                models.Stage `json:"stage"`
	Value                float64      `json:"value"`
	IsHighValue          bool         `json:"is_high_value"`
	IsStale              bool         `json:"is_stale"`
	HasRecentActivity    bool         `json:"has_recent_activity"`
}

type NextActionPrediction struct {
	OpportunityID  uuid.UUID       `json:"opportunity_id"`
	TopSuggestion  Suggestion      `json:"top_suggestion"`
	AllSuggestions []Suggestion    `json:"all_suggestions"`
	Confidence     int             `json:"confidence"`
	Reasoning      []string        `json:"reasoning"`
	Context        FollowUpContext `json:"context"`
}

// NextBusinessDay returns the day after t, moved past Saturday and Sunday.
// There is no holiday calendar.
func NextBusinessDay(t time.Time) time.Time {
	next := t.AddDate(0, 0, 1)
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// BuildFollowUpContext derives recency and value signals for an opportunity.
func BuildFollowUpContext(opp models.Opportunity, interactions []models.Interaction, now time.Time) FollowUpContext {
	o := opp.Normalized()
	c := FollowUpContext{
		DaysSinceLastContact: NoContactSentinel,
		InteractionCount:     len(interactions),
		Stage:                o.Stage,
		Value:                o.Value,
		IsHighValue:          o.Value >= HighValueThreshold,
	}

	var latest time.Time
	for _, ic := range interactions {
		if ic.CreatedAt.After(latest) {
			latest = ic.CreatedAt
		}
	}
	if !latest.IsZero() {
		c.DaysSinceLastContact = models.DaysBetween(latest, now)
	}

	c.IsStale = c.DaysSinceLastContact > StaleAfterDays
	c.HasRecentActivity = c.DaysSinceLastContact <= RecentWithinDays
	return c
}

type suggestionRule struct {
	when  func(FollowUpContext) bool
	build func(FollowUpContext, time.Time) Suggestion
}

// followUpRules fire independently in declaration order.
var followUpRules = []suggestionRule{
	{
		when: func(c FollowUpContext) bool { return c.IsStale },
		build: func(c FollowUpContext, now time.Time) Suggestion {
			reason := "No recorded contact yet"
			if c.DaysSinceLastContact != NoContactSentinel {
				reason = fmt.Sprintf("No contact in %d days", c.DaysSinceLastContact)
			}
			return Suggestion{
				Action:             ActionCall,
				Title:              "Call to re-engage",
				Priority:           PriorityHigh,
				SuggestedDate:      now,
				EstimatedMinutes:   15,
				SuccessProbability: 0.75,
				Reason:             reason,
			}
		},
	},
	{
		when: func(c FollowUpContext) bool {
			return c.Stage == models.StageQualified && c.InteractionCount >= ProposalReadyInteractions
		},
		build: func(c FollowUpContext, now time.Time) Suggestion {
			return Suggestion{
				Action:             ActionSendProposal,
				Title:              "Send a proposal",
				Priority:           PriorityHigh,
				SuggestedDate:      now.AddDate(0, 0, 2),
				EstimatedMinutes:   60,
				SuccessProbability: 0.80,
				Reason:             fmt.Sprintf("Qualified with %d interactions", c.InteractionCount),
			}
		},
	},
	{
		when: func(c FollowUpContext) bool { return c.Stage == models.StageProposal },
		build: func(c FollowUpContext, now time.Time) Suggestion {
			return Suggestion{
				Action:             ActionScheduleDemo,
				Title:              "Schedule a demo",
				Priority:           PriorityMedium,
				SuggestedDate:      NextBusinessDay(now),
				EstimatedMinutes:   45,
				SuccessProbability: 0.70,
				Reason:             "Proposal is out; show the product working",
			}
		},
	},
	{
		when: func(c FollowUpContext) bool { return c.Stage == models.StageNegotiation && c.IsHighValue },
		build: func(c FollowUpContext, now time.Time) Suggestion {
			return Suggestion{
				Action:             ActionExecutiveMeeting,
				Title:              "Set up an executive meeting",
				Priority:           PriorityCritical,
				SuggestedDate:      NextBusinessDay(now),
				EstimatedMinutes:   60,
				SuccessProbability: 0.85,
				Reason:             fmt.Sprintf("High-value deal (%.0f) in negotiation", c.Value),
			}
		},
	},
	{
		when: func(c FollowUpContext) bool { return !c.HasRecentActivity && c.InteractionCount < FewInteractions },
		build: func(c FollowUpContext, now time.Time) Suggestion {
			return Suggestion{
				Action:             ActionSendEmail,
				Title:              "Send a check-in email",
				Priority:           PriorityMedium,
				SuggestedDate:      now,
				EstimatedMinutes:   10,
				SuccessProbability: 0.60,
				Reason:             fmt.Sprintf("Only %d interactions logged", c.InteractionCount),
			}
		},
	},
}

func fallbackSuggestion(now time.Time) Suggestion {
	return Suggestion{
		Action:             ActionFollowUp,
		Title:              "Follow up",
		Priority:           PriorityLow,
		SuggestedDate:      NextBusinessDay(now),
		EstimatedMinutes:   15,
		SuccessProbability: 0.50,
		Reason:             "Keep the conversation going",
	}
}

// PredictNextAction recommends the next best action for an opportunity.
// The customer is optional and only adds context to the reasoning.
func PredictNextAction(opp models.Opportunity, interactions []models.Interaction, customer *models.Customer, now time.Time) NextActionPrediction {
	c := BuildFollowUpContext(opp, interactions, now)

	suggestions := []Suggestion{}
	for _, r := range followUpRules {
		if r.when(c) {
			suggestions = append(suggestions, r.build(c, now))
		}
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions, fallbackSuggestion(now))
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Priority.Rank() > suggestions[j].Priority.Rank()
	})

	confidence := BasePredictionConfidence
	if c.InteractionCount >= ManyInteractions {
		confidence += ManyInteractionsBonus
	}
	if c.HasRecentActivity {
		confidence += RecentActivityBonus
	}
	if c.Stage == models.StageNegotiation {
		confidence += NegotiationBonus
	}

	return NextActionPrediction{
		OpportunityID:  opp.ID,
		TopSuggestion:  suggestions[0],
		AllSuggestions: suggestions,
		Confidence:     models.Clamp(confidence, 0, 100),
		Reasoning:      followUpReasoning(c, customer),
		Context:        c,
	}
}

func followUpReasoning(c FollowUpContext, customer *models.Customer) []string {
	var reasons []string
	if c.DaysSinceLastContact == NoContactSentinel {
		reasons = append(reasons, "No interactions have been logged")
	} else {
		reasons = append(reasons, fmt.Sprintf("Last contact %d days ago", c.DaysSinceLastContact))
	}
	reasons = append(reasons, fmt.Sprintf("%d interactions in total", c.InteractionCount))
	reasons = append(reasons, fmt.Sprintf("Deal is in %s", c.Stage))
	if c.IsHighValue {
		reasons = append(reasons, fmt.Sprintf("High-value deal worth %.0f", c.Value))
	}
	if customer != nil && customer.Name != "" {
		reasons = append(reasons, fmt.Sprintf("Customer: %s", customer.Name))
	}
	return reasons
}

// FollowUpInput bundles an opportunity with its interactions and customer.
type FollowUpInput struct {
	Opportunity  models.Opportunity
	Interactions []models.Interaction
	Customer     *models.Customer
}

// PrioritizeFollowUps predicts the next action for every open opportunity
// and orders them by top suggestion priority, then by staleness with
// never-contacted deals first. Ties keep input order.
func PrioritizeFollowUps(inputs []FollowUpInput, now time.Time) []NextActionPrediction {
	predictions := make([]NextActionPrediction, 0, len(inputs))
	for _, in := range inputs {
		if !in.Opportunity.Normalized().IsOpen() {
			continue
		}
		predictions = append(predictions, PredictNextAction(in.Opportunity, in.Interactions, in.Customer, now))
	}
	sort.SliceStable(predictions, func(i, j int) bool {
		pi, pj := predictions[i].TopSuggestion.Priority.Rank(), predictions[j].TopSuggestion.Priority.Rank()
		if pi != pj {
			return pi > pj
		}
		return predictions[i].Context.DaysSinceLastContact > predictions[j].Context.DaysSinceLastContact
	})
	return predictions
}
