// ABOUTME: Interaction and payment database operations
// ABOUTME: Logs touches against deals and customers and records customer payments
package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/models"
)

// LogInteraction records an interaction. When it belongs to an opportunity
// the opportunity's last activity moves forward to the interaction time.
func LogInteraction(db *sql.DB, interaction *models.Interaction) error {
	if interaction.OpportunityID == nil && interaction.CustomerID == nil {
		return fmt.Errorf("interaction needs an opportunity or a customer")
	}
	if !models.IsValidInteractionType(interaction.Type) {
		return fmt.Errorf("invalid interaction type %q", interaction.Type)
	}
	if interaction.ID == uuid.Nil {
		interaction.ID = uuid.New()
	}
	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = time.Now()
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO interactions (id, opportunity_id, customer_id, type, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, interaction.ID.String(), uuidArg(interaction.OpportunityID), uuidArg(interaction.CustomerID),
		interaction.Type, nullString(interaction.Notes), interaction.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}

	if interaction.OpportunityID != nil {
		var last *time.Time
		err = tx.QueryRow(`SELECT last_activity_at FROM opportunities WHERE id = ?`,
			interaction.OpportunityID.String()).Scan(&last)
		if err != nil {
			return fmt.Errorf("failed to read last activity: %w", err)
		}
		if last == nil || interaction.CreatedAt.After(*last) {
			_, err = tx.Exec(`UPDATE opportunities SET last_activity_at = ?, updated_at = ? WHERE id = ?`,
				interaction.CreatedAt, interaction.CreatedAt, interaction.OpportunityID.String())
			if err != nil {
				return fmt.Errorf("failed to update last activity: %w", err)
			}
		}
	}

	return tx.Commit()
}

// InteractionFilter narrows ListInteractions. A customer filter also matches
// interactions logged against that customer's opportunities.
type InteractionFilter struct {
	OpportunityID *uuid.UUID
	CustomerID    *uuid.UUID
	Limit         int
}

// ListInteractions returns matching interactions, newest first.
func ListInteractions(db *sql.DB, filter InteractionFilter) ([]models.Interaction, error) {
	var where []string
	var args []any

	if filter.OpportunityID != nil {
		where = append(where, "opportunity_id = ?")
		args = append(args, filter.OpportunityID.String())
	}
	if filter.CustomerID != nil {
		where = append(where, "(customer_id = ? OR opportunity_id IN (SELECT id FROM opportunities WHERE customer_id = ?))")
		args = append(args, filter.CustomerID.String(), filter.CustomerID.String())
	}

	query := `SELECT id, opportunity_id, customer_id, type, notes, created_at FROM interactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var interactions []models.Interaction
	for rows.Next() {
		var ic models.Interaction
		var oppID, customerID, notes sql.NullString
		if err := rows.Scan(&ic.ID, &oppID, &customerID, &ic.Type, &notes, &ic.CreatedAt); err != nil {
			return nil, err
		}
		ic.OpportunityID = parseNullUUID(oppID)
		ic.CustomerID = parseNullUUID(customerID)
		ic.Notes = notes.String
		interactions = append(interactions, ic)
	}
	return interactions, rows.Err()
}

func RecordPayment(db *sql.DB, payment *models.Payment) error {
	switch payment.Status {
	case models.PaymentOnTime, models.PaymentLate, models.PaymentPending:
	default:
		return fmt.Errorf("invalid payment status %q", payment.Status)
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}

	_, err := db.Exec(`
		INSERT INTO payments (id, customer_id, amount, status, due_at, paid_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, payment.ID.String(), payment.CustomerID.String(), payment.Amount, payment.Status,
		payment.DueAt, payment.PaidAt, payment.CreatedAt)

	return err
}

func ListPayments(db *sql.DB, customerID uuid.UUID) ([]models.Payment, error) {
	rows, err := db.Query(`
		SELECT id, customer_id, amount, status, due_at, paid_at, created_at
		FROM payments WHERE customer_id = ?
		ORDER BY created_at DESC
	`, customerID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.CustomerID, &p.Amount, &p.Status, &p.DueAt, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
