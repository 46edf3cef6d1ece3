// ABOUTME: Opportunity database operations
// ABOUTME: Handles opportunity lifecycle, stage history, lost reasons, archiving and reactivation
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/models"
)

const opportunityColumns = `id, title, value, stage, probability, customer_id, created_at, updated_at,
	last_activity_at, next_action_at, is_archived, archived_at, archived_reason`

// CreateOpportunity inserts an opportunity and records its initial stage.
// Zero timestamps default to the current time.
func CreateOpportunity(db *sql.DB, opp *models.Opportunity) error {
	if opp.ID == uuid.Nil {
		opp.ID = uuid.New()
	}
	if opp.CreatedAt.IsZero() {
		opp.CreatedAt = time.Now()
	}
	if opp.UpdatedAt.IsZero() {
		opp.UpdatedAt = opp.CreatedAt
	}
	if opp.Stage == "" {
		opp.Stage = models.StageLead
	}
	stage, ok := models.ParseStage(string(opp.Stage))
	if !ok {
		return fmt.Errorf("%w: %q", models.ErrUnknownStage, opp.Stage)
	}
	opp.Stage = stage

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO opportunities (`+opportunityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, opp.ID.String(), opp.Title, opp.Value, string(opp.Stage), opp.Probability, uuidArg(opp.CustomerID),
		opp.CreatedAt, opp.UpdatedAt, opp.LastActivityDate, opp.NextActionDate,
		opp.IsArchived, opp.ArchivedAt, nullString(opp.ArchivedReason))
	if err != nil {
		return fmt.Errorf("failed to insert opportunity: %w", err)
	}

	history := opp.StageHistory
	if len(history) == 0 {
		history = []models.StageChange{{Stage: opp.Stage, MovedAt: opp.CreatedAt}}
		opp.StageHistory = history
	}
	for _, h := range history {
		if _, err := tx.Exec(`INSERT INTO stage_history (opportunity_id, stage, moved_at) VALUES (?, ?, ?)`,
			opp.ID.String(), string(h.Stage), h.MovedAt); err != nil {
			return fmt.Errorf("failed to insert stage history: %w", err)
		}
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOpportunity(row rowScanner) (*models.Opportunity, error) {
	opp := &models.Opportunity{}
	var customerID, archivedReason sql.NullString
	var stage string

	err := row.Scan(
		&opp.ID,
		&opp.Title,
		&opp.Value,
		&stage,
		&opp.Probability,
		&customerID,
		&opp.CreatedAt,
		&opp.UpdatedAt,
		&opp.LastActivityDate,
		&opp.NextActionDate,
		&opp.IsArchived,
		&opp.ArchivedAt,
		&archivedReason,
	)
	if err != nil {
		return nil, err
	}

	opp.Stage = models.Stage(stage)
	opp.CustomerID = parseNullUUID(customerID)
	opp.ArchivedReason = archivedReason.String
	return opp, nil
}

// GetOpportunity returns the opportunity with its stage history and lost
// reasons, or nil if it does not exist.
func GetOpportunity(db *sql.DB, id uuid.UUID) (*models.Opportunity, error) {
	row := db.QueryRow(`SELECT `+opportunityColumns+` FROM opportunities WHERE id = ?`, id.String())
	opp, err := scanOpportunity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := loadRelations(db, opp); err != nil {
		return nil, err
	}
	return opp, nil
}

// OpportunityFilter narrows ListOpportunities. Zero values match everything
// except archived opportunities, which must be requested explicitly.
type OpportunityFilter struct {
	Stage           models.Stage
	CustomerID      *uuid.UUID
	IncludeArchived bool
	ArchivedOnly    bool
	Limit           int
}

// ListOpportunities returns matching opportunities ordered by last activity,
// most recent first, with stage history and lost reasons attached.
func ListOpportunities(db *sql.DB, filter OpportunityFilter) ([]models.Opportunity, error) {
	var where []string
	var args []any

	if filter.Stage != "" {
		where = append(where, "stage = ?")
		args = append(args, string(filter.Stage))
	}
	if filter.CustomerID != nil {
		where = append(where, "customer_id = ?")
		args = append(args, filter.CustomerID.String())
	}
	switch {
	case filter.ArchivedOnly:
		where = append(where, "is_archived = 1")
	case !filter.IncludeArchived:
		where = append(where, "is_archived = 0")
	}

	query := `SELECT ` + opportunityColumns + ` FROM opportunities`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY COALESCE(last_activity_at, updated_at) DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}

	var opps []models.Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		opps = append(opps, *opp)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// The pool holds a single connection, so relations load after rows close.
	for i := range opps {
		if err := loadRelations(db, &opps[i]); err != nil {
			return nil, err
		}
	}
	return opps, nil
}

func loadRelations(db *sql.DB, opp *models.Opportunity) error {
	history, err := GetStageHistory(db, opp.ID)
	if err != nil {
		return fmt.Errorf("failed to load stage history: %w", err)
	}
	opp.StageHistory = history

	reasons, err := GetLostReasons(db, opp.ID)
	if err != nil {
		return fmt.Errorf("failed to load lost reasons: %w", err)
	}
	opp.LostReasons = reasons
	return nil
}

// GetStageHistory returns stage changes for an opportunity, oldest first.
func GetStageHistory(db *sql.DB, oppID uuid.UUID) ([]models.StageChange, error) {
	rows, err := db.Query(`
		SELECT stage, moved_at FROM stage_history
		WHERE opportunity_id = ?
		ORDER BY moved_at ASC, id ASC
	`, oppID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.StageChange
	for rows.Next() {
		var h models.StageChange
		var stage string
		if err := rows.Scan(&stage, &h.MovedAt); err != nil {
			return nil, err
		}
		h.Stage = models.Stage(stage)
		history = append(history, h)
	}
	return history, rows.Err()
}

// UpdateOpportunity saves editable fields. Stage changes go through MoveStage
// so history stays consistent.
func UpdateOpportunity(db *sql.DB, opp *models.Opportunity, at time.Time) error {
	opp.UpdatedAt = at

	result, err := db.Exec(`
		UPDATE opportunities
		SET title = ?, value = ?, probability = ?, customer_id = ?, next_action_at = ?, updated_at = ?
		WHERE id = ?
	`, opp.Title, opp.Value, opp.Probability, uuidArg(opp.CustomerID), opp.NextActionDate, opp.UpdatedAt, opp.ID.String())
	if err != nil {
		return err
	}
	return requireRow(result, opp.ID)
}

// MoveStage moves an opportunity to a new stage, appends to its history and
// counts the move as activity. Moving to the current stage is rejected so
// the stage clock only restarts on real progress.
func MoveStage(db *sql.DB, id uuid.UUID, stage models.Stage, at time.Time) error {
	canonical, ok := models.ParseStage(string(stage))
	if !ok {
		return fmt.Errorf("%w: %q", models.ErrUnknownStage, stage)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := moveStageTx(tx, id, canonical, at); err != nil {
		return err
	}
	return tx.Commit()
}

func moveStageTx(tx *sql.Tx, id uuid.UUID, stage models.Stage, at time.Time) error {
	var current string
	err := tx.QueryRow(`SELECT stage FROM opportunities WHERE id = ?`, id.String()).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read stage: %w", err)
	}
	if parsed, ok := models.ParseStage(current); ok && parsed == stage {
		return fmt.Errorf("%w: %s", ErrStageUnchanged, stage)
	}

	result, err := tx.Exec(`
		UPDATE opportunities SET stage = ?, updated_at = ?, last_activity_at = ? WHERE id = ?
	`, string(stage), at, at, id.String())
	if err != nil {
		return fmt.Errorf("failed to update stage: %w", err)
	}
	if err := requireRow(result, id); err != nil {
		return err
	}

	_, err = tx.Exec(`INSERT INTO stage_history (opportunity_id, stage, moved_at) VALUES (?, ?, ?)`,
		id.String(), string(stage), at)
	if err != nil {
		return fmt.Errorf("failed to insert stage history: %w", err)
	}
	return nil
}

// MarkLost closes an opportunity as lost and records why.
func MarkLost(db *sql.DB, id uuid.UUID, reason *models.LostReason, at time.Time) error {
	reason.ID = uuid.New()
	reason.OpportunityID = id
	reason.CreatedAt = at
	reason.Category = models.NormalizeLostCategory(reason.Category)

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := moveStageTx(tx, id, models.StageLost, at); err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO lost_reasons (id, opportunity_id, category, competitor_name, competitor_price, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, reason.ID.String(), id.String(), reason.Category, nullString(reason.CompetitorName),
		reason.CompetitorPrice, nullString(reason.Notes), reason.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert lost reason: %w", err)
	}

	return tx.Commit()
}

// GetLostReasons returns recorded loss reasons for an opportunity.
func GetLostReasons(db *sql.DB, oppID uuid.UUID) ([]models.LostReason, error) {
	rows, err := db.Query(`
		SELECT id, opportunity_id, category, competitor_name, competitor_price, notes, created_at
		FROM lost_reasons WHERE opportunity_id = ?
		ORDER BY created_at ASC
	`, oppID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reasons []models.LostReason
	for rows.Next() {
		var r models.LostReason
		var competitor, notes sql.NullString
		if err := rows.Scan(&r.ID, &r.OpportunityID, &r.Category, &competitor, &r.CompetitorPrice, &notes, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.CompetitorName = competitor.String
		r.Notes = notes.String
		reasons = append(reasons, r)
	}
	return reasons, rows.Err()
}

// ArchiveOpportunities persists archive flags for every opportunity and the
// run that archived them in a single transaction.
func ArchiveOpportunities(db *sql.DB, opps []models.Opportunity, run *models.ArchiveRun) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	run.OpportunityIDs = run.OpportunityIDs[:0]
	for _, opp := range opps {
		result, err := tx.Exec(`
			UPDATE opportunities
			SET is_archived = 1, archived_at = ?, archived_reason = ?, updated_at = ?
			WHERE id = ? AND is_archived = 0
		`, opp.ArchivedAt, nullString(opp.ArchivedReason), run.RanAt, opp.ID.String())
		if err != nil {
			return fmt.Errorf("failed to archive opportunity %s: %w", opp.ID, err)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			run.OpportunityIDs = append(run.OpportunityIDs, opp.ID)
		}
	}
	run.ArchivedCount = len(run.OpportunityIDs)

	_, err = tx.Exec(`INSERT INTO archive_runs (id, ran_at, archived_count) VALUES (?, ?, ?)`,
		run.ID, run.RanAt, run.ArchivedCount)
	if err != nil {
		return fmt.Errorf("failed to record archive run: %w", err)
	}

	for _, id := range run.OpportunityIDs {
		_, err = tx.Exec(`INSERT INTO archive_run_opportunities (run_id, opportunity_id) VALUES (?, ?)`,
			run.ID, id.String())
		if err != nil {
			return fmt.Errorf("failed to record archived opportunity %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// ReactivateOpportunity clears the archive flag and resets last activity to
// the reactivation time.
func ReactivateOpportunity(db *sql.DB, id uuid.UUID, at time.Time) error {
	result, err := db.Exec(`
		UPDATE opportunities
		SET is_archived = 0, archived_at = NULL, archived_reason = NULL, last_activity_at = ?, updated_at = ?
		WHERE id = ?
	`, at, at, id.String())
	if err != nil {
		return err
	}
	return requireRow(result, id)
}

// DeleteOpportunity removes an opportunity and everything hanging off it.
func DeleteOpportunity(db *sql.DB, id uuid.UUID) error {
	result, err := db.Exec(`DELETE FROM opportunities WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	return requireRow(result, id)
}
