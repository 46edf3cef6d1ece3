// ABOUTME: Customer churn insights and customer mutations
// ABOUTME: Scores churn risk per customer, ranks the watchlist and records customers and payments
package insights

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/db"
	"github.com/harperreed/dealpulse/models"
	"github.com/harperreed/dealpulse/scoring"
)

func (s *Service) churnFor(customer models.Customer) (scoring.ChurnRisk, error) {
	opps, err := db.ListOpportunities(s.db, db.OpportunityFilter{CustomerID: &customer.ID, IncludeArchived: true})
	if err != nil {
		return scoring.ChurnRisk{}, fmt.Errorf("failed to list opportunities: %w", err)
	}
	interactions, err := db.ListInteractions(s.db, db.InteractionFilter{CustomerID: &customer.ID})
	if err != nil {
		return scoring.ChurnRisk{}, fmt.Errorf("failed to list interactions: %w", err)
	}
	payments, err := db.ListPayments(s.db, customer.ID)
	if err != nil {
		return scoring.ChurnRisk{}, fmt.Errorf("failed to list payments: %w", err)
	}
	return scoring.CalculateChurnRisk(customer, opps, interactions, payments, s.clock.Now()), nil
}

// ScoreCustomer computes churn risk for one customer.
func (s *Service) ScoreCustomer(ctx context.Context, id uuid.UUID) (*scoring.ChurnRisk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	customer, err := db.GetCustomer(s.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, id)
	}

	risk, err := s.churnFor(*customer)
	if err != nil {
		return nil, err
	}
	return &risk, nil
}

// ChurnWatchlist scores every customer and returns the riskiest first.
func (s *Service) ChurnWatchlist(ctx context.Context, limit int) ([]scoring.ChurnRisk, error) {
	customers, err := db.ListCustomers(s.db, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	results := make([]scoring.ChurnRisk, 0, len(customers))
	for _, c := range customers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		risk, err := s.churnFor(c)
		if err != nil {
			return nil, err
		}
		results = append(results, risk)
	}

	ranked := scoring.RankChurnRisk(results)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (s *Service) AddCustomer(ctx context.Context, customer *models.Customer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	customer.CreatedAt = s.clock.Now()
	if err := db.CreateCustomer(s.db, customer); err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	s.logger.Info("added customer", "customer", customer.ID, "name", customer.Name)
	return nil
}

// UpdateCustomer saves profile fields and the satisfaction score.
func (s *Service) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := db.UpdateCustomer(s.db, customer, s.clock.Now()); err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	s.logger.Info("updated customer", "customer", customer.ID)
	return nil
}

// FindCustomer resolves a customer by UUID or, failing that, by name.
func (s *Service) FindCustomer(ctx context.Context, ref string) (*models.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var customer *models.Customer
	var err error
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		customer, err = db.GetCustomer(s.db, id)
	} else {
		customer, err = db.FindCustomerByName(s.db, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, ref)
	}
	return customer, nil
}

func (s *Service) RecordPayment(ctx context.Context, payment *models.Payment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = s.clock.Now()
	}
	if err := db.RecordPayment(s.db, payment); err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}
	return nil
}

// ListCustomers returns every stored customer.
func (s *Service) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	customers, err := db.ListCustomers(s.db, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}
