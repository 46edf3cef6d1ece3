// ABOUTME: Per-opportunity insights and pipeline mutations
// ABOUTME: Scores single deals, ranks the pipeline, builds the follow-up queue and records changes
package insights

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/db"
	"github.com/harperreed/dealpulse/models"
	"github.com/harperreed/dealpulse/scoring"
)

// OpportunityInsight merges every per-deal module's output.
type OpportunityInsight struct {
	Opportunity models.Opportunity           `json:"opportunity"`
	Customer    *models.Customer             `json:"customer,omitempty"`
	Health      scoring.HealthScore          `json:"health"`
	Velocity    scoring.DealVelocity         `json:"velocity"`
	Score       scoring.DealScore            `json:"score"`
	NextAction  scoring.NextActionPrediction `json:"next_action"`
	Snapshot    models.ScoreSnapshot         `json:"snapshot"`
}

// ScoreOpportunity runs health, velocity, deal score and next action for one
// opportunity and stores a score snapshot.
func (s *Service) ScoreOpportunity(ctx context.Context, id uuid.UUID) (*OpportunityInsight, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opp, err := s.getOpportunity(id)
	if err != nil {
		return nil, err
	}
	customer, err := s.customerFor(*opp)
	if err != nil {
		return nil, err
	}
	interactions, err := s.interactionsFor(*opp)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	insight := &OpportunityInsight{
		Opportunity: *opp,
		Customer:    customer,
		Health:      scoring.CalculateHealthScore(*opp, now),
		Velocity:    scoring.CalculateDealVelocity(*opp, now),
		Score:       scoring.CalculateDealScore(*opp, customer, interactions, now),
		NextAction:  scoring.PredictNextAction(*opp, interactions, customer, now),
	}

	insight.Snapshot = models.ScoreSnapshot{
		OpportunityID: opp.ID,
		TotalScore:    insight.Score.TotalScore,
		Grade:         insight.Score.Grade,
		HealthScore:   insight.Health.Score,
		HealthStatus:  string(insight.Health.Status),
		VelocityScore: insight.Velocity.Score,
		CreatedAt:     now,
	}
	if err := db.SaveScoreSnapshot(s.db, &insight.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to save score snapshot: %w", err)
	}

	s.logger.Debug("scored opportunity", "opportunity", opp.ID, "score", insight.Score.TotalScore, "grade", insight.Score.Grade)
	return insight, nil
}

// ScoreHistory returns stored snapshots for an opportunity, newest first.
func (s *Service) ScoreHistory(ctx context.Context, id uuid.UUID, limit int) ([]models.ScoreSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return db.ListScoreSnapshots(s.db, id, limit)
}

// RankDeals scores every open opportunity and returns the top limit,
// highest total first. A limit of zero returns all.
func (s *Service) RankDeals(ctx context.Context, limit int) ([]scoring.ScoredDeal, error) {
	opps, err := s.loadOpportunities(ctx, db.OpportunityFilter{})
	if err != nil {
		return nil, err
	}

	inputs := make([]scoring.DealInput, 0, len(opps))
	for _, opp := range opps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !opp.IsOpen() {
			continue
		}
		customer, err := s.customerFor(opp)
		if err != nil {
			return nil, err
		}
		interactions, err := s.interactionsFor(opp)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, scoring.DealInput{Opportunity: opp, Customer: customer, Interactions: interactions})
	}

	ranked := scoring.RankDeals(inputs, s.clock.Now())
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// FollowUpItem pairs a queued prediction with its opportunity for display.
type FollowUpItem struct {
	Opportunity models.Opportunity           `json:"opportunity"`
	Prediction  scoring.NextActionPrediction `json:"prediction"`
}

// FollowUpQueue predicts next actions for open opportunities, most urgent
// first.
func (s *Service) FollowUpQueue(ctx context.Context, limit int) ([]FollowUpItem, error) {
	opps, err := s.loadOpportunities(ctx, db.OpportunityFilter{})
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Opportunity, len(opps))
	inputs := make([]scoring.FollowUpInput, 0, len(opps))
	for _, opp := range opps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		customer, err := s.customerFor(opp)
		if err != nil {
			return nil, err
		}
		interactions, err := s.interactionsFor(opp)
		if err != nil {
			return nil, err
		}
		byID[opp.ID] = opp
		inputs = append(inputs, scoring.FollowUpInput{Opportunity: opp, Interactions: interactions, Customer: customer})
	}

	predictions := scoring.PrioritizeFollowUps(inputs, s.clock.Now())
	if limit > 0 && len(predictions) > limit {
		predictions = predictions[:limit]
	}

	items := make([]FollowUpItem, 0, len(predictions))
	for _, p := range predictions {
		items = append(items, FollowUpItem{Opportunity: byID[p.OpportunityID], Prediction: p})
	}
	return items, nil
}

// PipelineVelocity aggregates stage statistics over every opportunity,
// archived ones included, since they still describe how deals moved.
func (s *Service) PipelineVelocity(ctx context.Context) (*scoring.PipelineVelocity, error) {
	opps, err := s.loadOpportunities(ctx, db.OpportunityFilter{IncludeArchived: true})
	if err != nil {
		return nil, err
	}
	velocity := scoring.CalculatePipelineVelocity(opps, s.clock.Now())
	return &velocity, nil
}

// CreateOpportunity stores a new opportunity stamped with the reference time.
func (s *Service) CreateOpportunity(ctx context.Context, opp *models.Opportunity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if opp.Value < 0 {
		return models.ErrNegativeValue
	}
	now := s.clock.Now()
	opp.CreatedAt = now
	opp.UpdatedAt = now
	opp.LastActivityDate = &now
	if err := db.CreateOpportunity(s.db, opp); err != nil {
		return err
	}
	s.logger.Info("created opportunity", "opportunity", opp.ID, "title", opp.Title, "stage", opp.Stage)
	return nil
}

// MoveStage advances or closes an opportunity.
func (s *Service) MoveStage(ctx context.Context, id uuid.UUID, stage models.Stage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := db.MoveStage(s.db, id, stage, s.clock.Now()); err != nil {
		return fmt.Errorf("failed to move stage: %w", err)
	}
	s.logger.Info("moved opportunity", "opportunity", id, "stage", stage)
	return nil
}

// UpdateOpportunity saves title, value, probability, customer and next
// action. The stage is left alone.
func (s *Service) UpdateOpportunity(ctx context.Context, opp *models.Opportunity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if opp.Value < 0 {
		return models.ErrNegativeValue
	}
	opp.Probability = models.Clamp(opp.Probability, 0, 100)
	if err := db.UpdateOpportunity(s.db, opp, s.clock.Now()); err != nil {
		return fmt.Errorf("failed to update opportunity: %w", err)
	}
	s.logger.Info("updated opportunity", "opportunity", opp.ID)
	return nil
}

func (s *Service) DeleteOpportunity(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := db.DeleteOpportunity(s.db, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrOpportunityNotFound, id)
		}
		return fmt.Errorf("failed to delete opportunity: %w", err)
	}
	s.logger.Info("deleted opportunity", "opportunity", id)
	return nil
}

// MarkLost closes an opportunity as lost with a reason.
func (s *Service) MarkLost(ctx context.Context, id uuid.UUID, reason *models.LostReason) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := db.MarkLost(s.db, id, reason, s.clock.Now()); err != nil {
		return fmt.Errorf("failed to mark lost: %w", err)
	}
	s.logger.Info("marked opportunity lost", "opportunity", id, "category", reason.Category)
	return nil
}

// LogInteraction records a touch. Interactions without a timestamp happen now.
func (s *Service) LogInteraction(ctx context.Context, interaction *models.Interaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = s.clock.Now()
	}
	return db.LogInteraction(s.db, interaction)
}

// GetOpportunity loads one opportunity with its history.
func (s *Service) GetOpportunity(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.getOpportunity(id)
}

// ListOpportunities returns stored opportunities matching filter.
func (s *Service) ListOpportunities(ctx context.Context, filter db.OpportunityFilter) ([]models.Opportunity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return db.ListOpportunities(s.db, filter)
}

// NextAction predicts the best next step for one opportunity without
// storing a snapshot.
func (s *Service) NextAction(ctx context.Context, id uuid.UUID) (*scoring.NextActionPrediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opp, err := s.getOpportunity(id)
	if err != nil {
		return nil, err
	}
	customer, err := s.customerFor(*opp)
	if err != nil {
		return nil, err
	}
	interactions, err := s.interactionsFor(*opp)
	if err != nil {
		return nil, err
	}
	prediction := scoring.PredictNextAction(*opp, interactions, customer, s.clock.Now())
	return &prediction, nil
}
