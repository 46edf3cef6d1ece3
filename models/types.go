// ABOUTME: Data models for pipeline entities
// ABOUTME: Defines Opportunity, Customer, Interaction, StageChange, LostReason and Payment
package models

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMissingID     = errors.New("opportunity id is required")
	ErrNegativeValue = errors.New("opportunity value must not be negative")
	ErrUnknownStage  = errors.New("unknown opportunity stage")
)

// DefaultSatisfactionScore is used when a customer has no recorded satisfaction.
const DefaultSatisfactionScore = 70

type Opportunity struct {
	ID               uuid.UUID     `json:"id"`
	Title            string        `json:"title"`
	Value            float64       `json:"value"`
	Stage            Stage         `json:"stage"`
	Probability      int           `json:"probability"`
	CustomerID       *uuid.UUID    `json:"customer_id,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	LastActivityDate *time.Time    `json:"last_activity_date,omitempty"`
	NextActionDate   *time.Time    `json:"next_action_date,omitempty"`
	IsArchived       bool          `json:"is_archived"`
	ArchivedAt       *time.Time    `json:"archived_at,omitempty"`
	ArchivedReason   string        `json:"archived_reason,omitempty"`
	StageHistory     []StageChange `json:"stage_history,omitempty"`
	LostReasons      []LostReason  `json:"lost_reasons,omitempty"`
}

// StageChange records the moment an opportunity entered a stage.
type StageChange struct {
	Stage   Stage     `json:"stage"`
	MovedAt time.Time `json:"moved_at"`
}

type Customer struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	Status            string    `json:"status"`
	SatisfactionScore *int      `json:"satisfaction_score,omitempty"`
	Type              string    `json:"type,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type Interaction struct {
	ID            uuid.UUID  `json:"id"`
	OpportunityID *uuid.UUID `json:"opportunity_id,omitempty"`
	CustomerID    *uuid.UUID `json:"customer_id,omitempty"`
	Type          string     `json:"type"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type LostReason struct {
	ID              uuid.UUID `json:"id"`
	OpportunityID   uuid.UUID `json:"opportunity_id"`
	Category        string    `json:"category"`
	CompetitorName  string    `json:"competitor_name,omitempty"`
	CompetitorPrice *float64  `json:"competitor_price,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type Payment struct {
	ID         uuid.UUID  `json:"id"`
	CustomerID uuid.UUID  `json:"customer_id"`
	Amount     float64    `json:"amount"`
	Status     string     `json:"status"`
	DueAt      *time.Time `json:"due_at,omitempty"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Customer status constants.
const (
	CustomerActive   = "active"
	CustomerInactive = "inactive"
)

// Interaction type constants.
const (
	InteractionCall    = "call"
	InteractionEmail   = "email"
	InteractionMeeting = "meeting"
	InteractionNote    = "note"
	InteractionMessage = "message"
)

// Lost reason categories.
const (
	LostPrice      = "price"
	LostCompetitor = "competitor"
	LostTiming     = "timing"
	LostOther      = "other"
)

// Payment status constants.
const (
	PaymentOnTime  = "on_time"
	PaymentLate    = "late"
	PaymentPending = "pending"
)

// IsValidInteractionType reports whether t is a known interaction type.
func IsValidInteractionType(t string) bool {
	switch t {
	case InteractionCall, InteractionEmail, InteractionMeeting, InteractionNote, InteractionMessage:
		return true
	}
	return false
}

// NormalizeLostCategory folds unknown categories into "other".
func NormalizeLostCategory(c string) string {
	switch c {
	case LostPrice, LostCompetitor, LostTiming:
		return c
	}
	return LostOther
}

// Validate rejects opportunities the scoring engine cannot accept.
func (o Opportunity) Validate() error {
	if o.ID == uuid.Nil {
		return ErrMissingID
	}
	if o.Value < 0 {
		return ErrNegativeValue
	}
	if _, ok := ParseStage(string(o.Stage)); !ok {
		return ErrUnknownStage
	}
	return nil
}

// Normalized returns a copy with clamped numbers, a canonical stage and
// stage history ordered by time. The receiver is never modified.
func (o Opportunity) Normalized() Opportunity {
	out := o
	if out.Value < 0 {
		out.Value = 0
	}
	out.Probability = Clamp(out.Probability, 0, 100)
	if s, ok := ParseStage(string(out.Stage)); ok {
		out.Stage = s
	}

	if len(o.StageHistory) > 0 {
		out.StageHistory = make([]StageChange, len(o.StageHistory))
		copy(out.StageHistory, o.StageHistory)
		for i := range out.StageHistory {
			if s, ok := ParseStage(string(out.StageHistory[i].Stage)); ok {
				out.StageHistory[i].Stage = s
			}
		}
		sort.SliceStable(out.StageHistory, func(i, j int) bool {
			return out.StageHistory[i].MovedAt.Before(out.StageHistory[j].MovedAt)
		})
	}
	return out
}

// LastActivity returns the most meaningful activity timestamp: the explicit
// last activity date, then the update time, then the creation time.
func (o Opportunity) LastActivity() (time.Time, bool) {
	if o.LastActivityDate != nil && !o.LastActivityDate.IsZero() {
		return *o.LastActivityDate, true
	}
	if !o.UpdatedAt.IsZero() {
		return o.UpdatedAt, true
	}
	if !o.CreatedAt.IsZero() {
		return o.CreatedAt, true
	}
	return time.Time{}, false
}

// IsOpen reports whether the opportunity is still being worked.
func (o Opportunity) IsOpen() bool {
	return !o.IsArchived && !o.Stage.IsTerminal()
}

// Satisfaction returns the customer's satisfaction score or the default.
func (c Customer) Satisfaction() int {
	if c.SatisfactionScore == nil {
		return DefaultSatisfactionScore
	}
	return Clamp(*c.SatisfactionScore, 0, 100)
}

// IsLate reports whether the payment was recorded as late.
func (p Payment) IsLate() bool {
	return p.Status == PaymentLate
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DaysBetween returns whole days elapsed from `from` to `to`, never negative.
func DaysBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}
