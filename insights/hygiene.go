// ABOUTME: Pipeline hygiene orchestration
// ABOUTME: Runs staleness analysis, persists auto-archive runs and reactivates archived deals
package insights

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/db"
	"github.com/harperreed/dealpulse/models"
	"github.com/harperreed/dealpulse/scoring"
)

type HygieneResult struct {
	Analysis scoring.HygieneAnalysis `json:"analysis"`
	Report   scoring.HygieneReport   `json:"report"`
}

// Hygiene scans the whole pipeline. Archived and closed deals are loaded so
// the analysis can report them as skipped.
func (s *Service) Hygiene(ctx context.Context) (*HygieneResult, error) {
	opps, err := s.loadOpportunities(ctx, db.OpportunityFilter{IncludeArchived: true})
	if err != nil {
		return nil, err
	}
	analysis := scoring.AnalyzeOpportunities(opps, s.clock.Now())
	return &HygieneResult{Analysis: analysis, Report: scoring.GenerateReport(analysis)}, nil
}

type ArchiveOutcome struct {
	DryRun     bool                  `json:"dry_run"`
	Candidates scoring.ArchiveResult `json:"candidates"`
	Run        *models.ArchiveRun    `json:"run,omitempty"`
}

// RunAutoArchive selects abandoned deals and, unless dryRun is set, archives
// them all in one transaction.
func (s *Service) RunAutoArchive(ctx context.Context, dryRun bool) (*ArchiveOutcome, error) {
	opps, err := s.loadOpportunities(ctx, db.OpportunityFilter{})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	outcome := &ArchiveOutcome{DryRun: dryRun, Candidates: scoring.AutoArchive(opps, now)}
	if dryRun || outcome.Candidates.Count == 0 {
		s.logger.Info("auto-archive", "candidates", outcome.Candidates.Count, "dry_run", dryRun)
		return outcome, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	run := &models.ArchiveRun{ID: db.NewRecordID(now), RanAt: now}
	if err := db.ArchiveOpportunities(s.db, outcome.Candidates.Opportunities, run); err != nil {
		return nil, fmt.Errorf("failed to archive opportunities: %w", err)
	}
	outcome.Run = run

	s.logger.Info("auto-archived opportunities", "run", run.ID, "archived", run.ArchivedCount)
	return outcome, nil
}

// Reactivate returns an archived opportunity to the active pipeline and
// refreshes its last activity to now.
func (s *Service) Reactivate(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opp, err := db.GetOpportunity(s.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get opportunity: %w", err)
	}
	if opp == nil {
		return nil, fmt.Errorf("%w: %s", ErrOpportunityNotFound, id)
	}
	if !opp.IsArchived {
		return nil, fmt.Errorf("%w: %s", ErrNotArchived, id)
	}

	now := s.clock.Now()
	active := scoring.Reactivate(*opp, now)
	if err := db.ReactivateOpportunity(s.db, id, now); err != nil {
		return nil, fmt.Errorf("failed to reactivate opportunity: %w", err)
	}

	s.logger.Info("reactivated opportunity", "opportunity", id)
	return &active, nil
}

// ArchiveHistory lists recent auto-archive runs.
func (s *Service) ArchiveHistory(ctx context.Context, limit int) ([]models.ArchiveRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return db.ListArchiveRuns(s.db, limit)
}
