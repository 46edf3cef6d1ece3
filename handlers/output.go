// ABOUTME: Output shapes shared by the MCP tool handlers
// ABOUTME: Converts models and scoring results into string-keyed JSON friendly structs
package handlers

import (
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/insights"
	"github.com/harperreed/dealpulse/models"
	"github.com/harperreed/dealpulse/scoring"
)

const timeFormat = "2006-01-02T15:04:05Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeFormat)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func formatUUIDPtr(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

type OpportunityOutput struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Value          float64 `json:"value"`
	Stage          string  `json:"stage"`
	Probability    int     `json:"probability"`
	CustomerID     string  `json:"customer_id,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
	LastActivityAt string  `json:"last_activity_at,omitempty"`
	NextActionAt   string  `json:"next_action_at,omitempty"`
	IsArchived     bool    `json:"is_archived"`
	ArchivedAt     string  `json:"archived_at,omitempty"`
	ArchivedReason string  `json:"archived_reason,omitempty"`
}

func opportunityToOutput(opp models.Opportunity) OpportunityOutput {
	return OpportunityOutput{
		ID:             opp.ID.String(),
		Title:          opp.Title,
		Value:          opp.Value,
		Stage:          opp.Stage.String(),
		Probability:    opp.Probability,
		CustomerID:     formatUUIDPtr(opp.CustomerID),
		CreatedAt:      formatTime(opp.CreatedAt),
		UpdatedAt:      formatTime(opp.UpdatedAt),
		LastActivityAt: formatTimePtr(opp.LastActivityDate),
		NextActionAt:   formatTimePtr(opp.NextActionDate),
		IsArchived:     opp.IsArchived,
		ArchivedAt:     formatTimePtr(opp.ArchivedAt),
		ArchivedReason: opp.ArchivedReason,
	}
}

func opportunitiesToOutput(opps []models.Opportunity) []OpportunityOutput {
	out := make([]OpportunityOutput, 0, len(opps))
	for _, opp := range opps {
		out = append(out, opportunityToOutput(opp))
	}
	return out
}

type CustomerOutput struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
	Status            string `json:"status"`
	Type              string `json:"type,omitempty"`
	SatisfactionScore int    `json:"satisfaction_score"`
	CreatedAt         string `json:"created_at"`
}

func customerToOutput(c models.Customer) CustomerOutput {
	return CustomerOutput{
		ID:                c.ID.String(),
		Name:              c.Name,
		Email:             c.Email,
		Phone:             c.Phone,
		Status:            c.Status,
		Type:              c.Type,
		SatisfactionScore: c.Satisfaction(),
		CreatedAt:         formatTime(c.CreatedAt),
	}
}

type InteractionOutput struct {
	ID            string `json:"id"`
	OpportunityID string `json:"opportunity_id,omitempty"`
	CustomerID    string `json:"customer_id,omitempty"`
	Type          string `json:"type"`
	Notes         string `json:"notes,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func interactionToOutput(i models.Interaction) InteractionOutput {
	return InteractionOutput{
		ID:            i.ID.String(),
		OpportunityID: formatUUIDPtr(i.OpportunityID),
		CustomerID:    formatUUIDPtr(i.CustomerID),
		Type:          i.Type,
		Notes:         i.Notes,
		CreatedAt:     formatTime(i.CreatedAt),
	}
}

type PaymentOutput struct {
	ID         string  `json:"id"`
	CustomerID string  `json:"customer_id"`
	Amount     float64 `json:"amount"`
	Status     string  `json:"status"`
	DueAt      string  `json:"due_at,omitempty"`
	PaidAt     string  `json:"paid_at,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

func paymentToOutput(p models.Payment) PaymentOutput {
	return PaymentOutput{
		ID:         p.ID.String(),
		CustomerID: p.CustomerID.String(),
		Amount:     p.Amount,
		Status:     p.Status,
		DueAt:      formatTimePtr(p.DueAt),
		PaidAt:     formatTimePtr(p.PaidAt),
		CreatedAt:  formatTime(p.CreatedAt),
	}
}

type HealthOutput struct {
	OpportunityID     string                 `json:"opportunity_id"`
	Score             int                    `json:"score"`
	Status            string                 `json:"status"`
	Factors           []scoring.HealthFactor `json:"factors"`
	DaysSinceActivity int                    `json:"days_since_activity"`
	DaysInStage       int                    `json:"days_in_stage"`
	IsStalled         bool                   `json:"is_stalled"`
}

func healthToOutput(h scoring.HealthScore) HealthOutput {
	return HealthOutput{
		OpportunityID:     h.OpportunityID.String(),
		Score:             h.Score,
		Status:            string(h.Status),
		Factors:           h.Factors,
		DaysSinceActivity: h.DaysSinceActivity,
		DaysInStage:       h.DaysInStage,
		IsStalled:         h.IsStalled,
	}
}

type VelocityOutput struct {
	OpportunityID  string                  `json:"opportunity_id"`
	Score          int                     `json:"score"`
	ActualDays     float64                 `json:"actual_days"`
	ExpectedDays   int                     `json:"expected_days"`
	Ratio          float64                 `json:"ratio"`
	DaysInPipeline int                     `json:"days_in_pipeline"`
	StageDurations []scoring.StageDuration `json:"stage_durations"`
	Approximate    bool                    `json:"approximate"`
}

func velocityToOutput(v scoring.DealVelocity) VelocityOutput {
	return VelocityOutput{
		OpportunityID:  v.OpportunityID.String(),
		Score:          v.Score,
		ActualDays:     v.ActualDays,
		ExpectedDays:   v.ExpectedDays,
		Ratio:          v.Ratio,
		DaysInPipeline: v.DaysInPipeline,
		StageDurations: v.StageDurations,
		Approximate:    v.Approximate,
	}
}

type DealScoreOutput struct {
	OpportunityID   string                   `json:"opportunity_id"`
	TotalScore      int                      `json:"total_score"`
	Grade           string                   `json:"grade"`
	Breakdown       scoring.ScoreBreakdown   `json:"breakdown"`
	ExpectedValue   float64                  `json:"expected_value"`
	Priority        string                   `json:"priority"`
	Recommendations []scoring.Recommendation `json:"recommendations"`
}

func dealScoreToOutput(s scoring.DealScore) DealScoreOutput {
	return DealScoreOutput{
		OpportunityID:   s.OpportunityID.String(),
		TotalScore:      s.TotalScore,
		Grade:           s.Grade,
		Breakdown:       s.Breakdown,
		ExpectedValue:   s.ExpectedValue,
		Priority:        string(s.Priority),
		Recommendations: s.Recommendations,
	}
}

type SuggestionOutput struct {
	Action             string  `json:"action"`
	Title              string  `json:"title"`
	Priority           string  `json:"priority"`
	SuggestedDate      string  `json:"suggested_date"`
	EstimatedMinutes   int     `json:"estimated_minutes"`
	SuccessProbability float64 `json:"success_probability"`
	Reason             string  `json:"reason"`
}

func suggestionToOutput(s scoring.Suggestion) SuggestionOutput {
	return SuggestionOutput{
		Action:             string(s.Action),
		Title:              s.Title,
		Priority:           string(s.Priority),
		SuggestedDate:      s.SuggestedDate.Format("2006-01-02"),
		EstimatedMinutes:   s.EstimatedMinutes,
		SuccessProbability: s.SuccessProbability,
		Reason:             s.Reason,
	}
}

type NextActionOutput struct {
	OpportunityID  string                  `json:"opportunity_id"`
	TopSuggestion  SuggestionOutput        `json:"top_suggestion"`
	AllSuggestions []SuggestionOutput      `json:"all_suggestions"`
	Confidence     int                     `json:"confidence"`
	Reasoning      []string                `json:"reasoning"`
	Context        scoring.FollowUpContext `json:"context"`
}

func nextActionToOutput(p scoring.NextActionPrediction) NextActionOutput {
	all := make([]SuggestionOutput, 0, len(p.AllSuggestions))
	for _, s := range p.AllSuggestions {
		all = append(all, suggestionToOutput(s))
	}
	return NextActionOutput{
		OpportunityID:  p.OpportunityID.String(),
		TopSuggestion:  suggestionToOutput(p.TopSuggestion),
		AllSuggestions: all,
		Confidence:     p.Confidence,
		Reasoning:      p.Reasoning,
		Context:        p.Context,
	}
}

type ChurnOutput struct {
	CustomerID         string                   `json:"customer_id"`
	CustomerName       string                   `json:"customer_name"`
	RiskScore          int                      `json:"risk_score"`
	RiskLevel          scoring.RiskLevel        `json:"risk_level"`
	ChurnProbability   float64                  `json:"churn_probability"`
	PredictedChurnDate string                   `json:"predicted_churn_date,omitempty"`
	DaysUntilChurn     int                      `json:"days_until_churn,omitempty"`
	Confidence         int                      `json:"confidence,omitempty"`
	Factors            scoring.ChurnFactors     `json:"factors"`
	Recommendations    []scoring.Recommendation `json:"recommendations"`
}

func churnToOutput(r scoring.ChurnRisk) ChurnOutput {
	out := ChurnOutput{
		CustomerID:       r.CustomerID.String(),
		CustomerName:     r.CustomerName,
		RiskScore:        r.RiskScore,
		RiskLevel:        r.RiskLevel,
		ChurnProbability: r.ChurnProbability,
		Factors:          r.Factors,
		Recommendations:  r.Recommendations,
	}
	if p := r.PredictedChurnDate; p != nil {
		out.PredictedChurnDate = p.Date.Format("2006-01-02")
		out.DaysUntilChurn = p.DaysUntilChurn
		out.Confidence = p.Confidence
	}
	return out
}

type FlaggedOutput struct {
	OpportunityID  string  `json:"opportunity_id"`
	Title          string  `json:"title"`
	Stage          string  `json:"stage"`
	Value          float64 `json:"value"`
	DaysInactive   int     `json:"days_inactive"`
	Severity       string  `json:"severity"`
	Recommendation string  `json:"recommendation"`
}

type HygieneReportOutput struct {
	Eligible          int                   `json:"eligible"`
	Healthy           int                   `json:"healthy"`
	TotalFlagged      int                   `json:"total_flagged"`
	Tiers             []scoring.TierSummary `json:"tiers"`
	ArchiveCandidates int                   `json:"archive_candidates"`
	ValueAtRisk       float64               `json:"value_at_risk"`
	HealthyPercent    float64               `json:"healthy_percent"`
	Summary           []string              `json:"summary"`
}

type HygieneOutput struct {
	AnalyzedAt   string              `json:"analyzed_at"`
	TotalScanned int                 `json:"total_scanned"`
	Eligible     int                 `json:"eligible"`
	Skipped      int                 `json:"skipped"`
	Healthy      int                 `json:"healthy"`
	Flagged      []FlaggedOutput     `json:"flagged"`
	Report       HygieneReportOutput `json:"report"`
}

func hygieneToOutput(h insights.HygieneResult) HygieneOutput {
	flagged := make([]FlaggedOutput, 0, len(h.Analysis.Flagged))
	for _, f := range h.Analysis.Flagged {
		flagged = append(flagged, FlaggedOutput{
			OpportunityID:  f.OpportunityID.String(),
			Title:          f.Title,
			Stage:          f.Stage.String(),
			Value:          f.Value,
			DaysInactive:   f.DaysInactive,
			Severity:       string(f.Severity),
			Recommendation: f.Recommendation,
		})
	}
	r := h.Report
	return HygieneOutput{
		AnalyzedAt:   formatTime(h.Analysis.AnalyzedAt),
		TotalScanned: h.Analysis.TotalScanned,
		Eligible:     h.Analysis.Eligible,
		Skipped:      h.Analysis.Skipped,
		Healthy:      h.Analysis.Healthy,
		Flagged:      flagged,
		Report: HygieneReportOutput{
			Eligible:          r.Eligible,
			Healthy:           r.Healthy,
			TotalFlagged:      r.TotalFlagged,
			Tiers:             r.Tiers,
			ArchiveCandidates: r.ArchiveCandidates,
			ValueAtRisk:       r.ValueAtRisk,
			HealthyPercent:    r.HealthyPercent,
			Summary:           r.Summary,
		},
	}
}

type SnapshotOutput struct {
	ID            string `json:"id"`
	TotalScore    int    `json:"total_score"`
	Grade         string `json:"grade"`
	HealthScore   int    `json:"health_score"`
	HealthStatus  string `json:"health_status"`
	VelocityScore int    `json:"velocity_score"`
	CreatedAt     string `json:"created_at"`
}

func snapshotToOutput(s models.ScoreSnapshot) SnapshotOutput {
	return SnapshotOutput{
		ID:            s.ID,
		TotalScore:    s.TotalScore,
		Grade:         s.Grade,
		HealthScore:   s.HealthScore,
		HealthStatus:  s.HealthStatus,
		VelocityScore: s.VelocityScore,
		CreatedAt:     formatTime(s.CreatedAt),
	}
}
