// ABOUTME: Customer database operations
// ABOUTME: Handles customer CRUD and name lookup
package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/models"
)

const customerColumns = `id, name, email, phone, status, satisfaction_score, type, created_at, updated_at`

func CreateCustomer(db *sql.DB, customer *models.Customer) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now()
	}
	customer.UpdatedAt = customer.CreatedAt
	if customer.Status == "" {
		customer.Status = models.CustomerActive
	}

	_, err := db.Exec(`
		INSERT INTO customers (`+customerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, customer.ID.String(), customer.Name, nullString(customer.Email), nullString(customer.Phone),
		customer.Status, customer.SatisfactionScore, nullString(customer.Type), customer.CreatedAt, customer.UpdatedAt)

	return err
}

func scanCustomer(row rowScanner) (*models.Customer, error) {
	c := &models.Customer{}
	var email, phone, kind sql.NullString
	err := row.Scan(&c.ID, &c.Name, &email, &phone, &c.Status, &c.SatisfactionScore, &kind, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Email = email.String
	c.Phone = phone.String
	c.Type = kind.String
	return c, nil
}

func GetCustomer(db *sql.DB, id uuid.UUID) (*models.Customer, error) {
	c, err := scanCustomer(db.QueryRow(`SELECT `+customerColumns+` FROM customers WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// FindCustomerByName does a case-insensitive exact match.
func FindCustomerByName(db *sql.DB, name string) (*models.Customer, error) {
	c, err := scanCustomer(db.QueryRow(`SELECT `+customerColumns+` FROM customers WHERE LOWER(name) = LOWER(?) LIMIT 1`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func ListCustomers(db *sql.DB, limit int) ([]models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY name ASC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func UpdateCustomer(db *sql.DB, customer *models.Customer, at time.Time) error {
	customer.UpdatedAt = at

	result, err := db.Exec(`
		UPDATE customers
		SET name = ?, email = ?, phone = ?, status = ?, satisfaction_score = ?, type = ?, updated_at = ?
		WHERE id = ?
	`, customer.Name, nullString(customer.Email), nullString(customer.Phone), customer.Status,
		customer.SatisfactionScore, nullString(customer.Type), customer.UpdatedAt, customer.ID.String())
	if err != nil {
		return err
	}
	return requireRow(result, customer.ID)
}
