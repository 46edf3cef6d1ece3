// ABOUTME: Persisted records produced by the scoring engine
// ABOUTME: Score snapshots track a deal's score over time; archive runs audit auto-archiving
package models

import (
	"time"

	"github.com/google/uuid"
)

// ScoreSnapshot is a point-in-time copy of an opportunity's scores. IDs are
// ULIDs so snapshots sort by creation time.
type ScoreSnapshot struct {
	ID            string    `json:"id"`
	OpportunityID uuid.UUID `json:"opportunity_id"`
	TotalScore    int       `json:"total_score"`
	Grade         string    `json:"grade"`
	HealthScore   int       `json:"health_score"`
	HealthStatus  string    `json:"health_status"`
	VelocityScore int       `json:"velocity_score"`
	CreatedAt     time.Time `json:"created_at"`
}

// ArchiveRun records one auto-archive pass.
type ArchiveRun struct {
	ID             string      `json:"id"`
	RanAt          time.Time   `json:"ran_at"`
	ArchivedCount  int         `json:"archived_count"`
	OpportunityIDs []uuid.UUID `json:"opportunity_ids"`
}
