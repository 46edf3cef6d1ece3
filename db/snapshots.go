// ABOUTME: Score snapshot persistence
// ABOUTME: Stores ULID-keyed score history per opportunity and the auto-archive run log
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/models"
	"github.com/oklog/ulid/v2"
)

// NewRecordID returns a time-ordered identifier for snapshots and runs.
func NewRecordID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String()
}

func SaveScoreSnapshot(db *sql.DB, snap *models.ScoreSnapshot) error {
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}
	if snap.ID == "" {
		snap.ID = NewRecordID(snap.CreatedAt)
	}

	_, err := db.Exec(`
		INSERT INTO score_snapshots (id, opportunity_id, total_score, grade, health_score, health_status, velocity_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.OpportunityID.String(), snap.TotalScore, snap.Grade, snap.HealthScore,
		snap.HealthStatus, snap.VelocityScore, snap.CreatedAt)

	return err
}

// ListScoreSnapshots returns the newest snapshots for an opportunity first.
func ListScoreSnapshots(db *sql.DB, oppID uuid.UUID, limit int) ([]models.ScoreSnapshot, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := db.Query(`
		SELECT id, opportunity_id, total_score, grade, health_score, health_status, velocity_score, created_at
		FROM score_snapshots
		WHERE opportunity_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, oppID.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []models.ScoreSnapshot
	for rows.Next() {
		var s models.ScoreSnapshot
		if err := rows.Scan(&s.ID, &s.OpportunityID, &s.TotalScore, &s.Grade, &s.HealthScore,
			&s.HealthStatus, &s.VelocityScore, &s.CreatedAt); err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

// ListArchiveRuns returns recent auto-archive runs, newest first, with the
// opportunities each run archived.
func ListArchiveRuns(db *sql.DB, limit int) ([]models.ArchiveRun, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := db.Query(`SELECT id, ran_at, archived_count FROM archive_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}

	var runs []models.ArchiveRun
	for rows.Next() {
		var r models.ArchiveRun
		if err := rows.Scan(&r.ID, &r.RanAt, &r.ArchivedCount); err != nil {
			_ = rows.Close()
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	// Release the connection before loading IDs; the pool holds one.
	_ = rows.Close()

	for i := range runs {
		ids, err := archivedOpportunityIDs(db, runs[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load archived opportunities for run %s: %w", runs[i].ID, err)
		}
		runs[i].OpportunityIDs = ids
	}
	return runs, nil
}

func archivedOpportunityIDs(db *sql.DB, runID string) ([]uuid.UUID, error) {
	rows, err := db.Query(`SELECT opportunity_id FROM archive_run_opportunities WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid opportunity ID %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
