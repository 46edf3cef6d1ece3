// ABOUTME: Orchestrates storage and the scoring engine
// ABOUTME: Loads entities, validates them, runs scoring with one reference time and persists results
package insights

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/db"
	"github.com/harperreed/dealpulse/models"
)

var (
	ErrOpportunityNotFound = errors.New("opportunity not found")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrNotArchived         = errors.New("opportunity is not archived")
)

type Service struct {
	db     *sql.DB
	clock  Clock
	logger *log.Logger
}

func NewService(database *sql.DB, clock Clock, logger *log.Logger) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{db: database, clock: clock, logger: logger}
}

// Now is the service's reference time.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// loadOpportunities lists opportunities and drops any that fail validation.
// Cancellation is checked between opportunities.
func (s *Service) loadOpportunities(ctx context.Context, filter db.OpportunityFilter) ([]models.Opportunity, error) {
	opps, err := db.ListOpportunities(s.db, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}

	valid := make([]models.Opportunity, 0, len(opps))
	for _, opp := range opps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := opp.Validate(); err != nil {
			s.logger.Warn("skipping invalid opportunity", "opportunity", opp.ID, "title", opp.Title, "err", err)
			continue
		}
		valid = append(valid, opp)
	}
	return valid, nil
}

func (s *Service) getOpportunity(id uuid.UUID) (*models.Opportunity, error) {
	opp, err := db.GetOpportunity(s.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get opportunity: %w", err)
	}
	if opp == nil {
		return nil, fmt.Errorf("%w: %s", ErrOpportunityNotFound, id)
	}
	if err := opp.Validate(); err != nil {
		return nil, fmt.Errorf("opportunity %s: %w", id, err)
	}
	return opp, nil
}

// customerFor returns the opportunity's customer, or nil when it has none or
// the reference is dangling.
func (s *Service) customerFor(opp models.Opportunity) (*models.Customer, error) {
	if opp.CustomerID == nil {
		return nil, nil
	}
	customer, err := db.GetCustomer(s.db, *opp.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	if customer == nil {
		s.logger.Warn("opportunity references missing customer", "opportunity", opp.ID, "customer", *opp.CustomerID)
	}
	return customer, nil
}

func (s *Service) interactionsFor(opp models.Opportunity) ([]models.Interaction, error) {
	interactions, err := db.ListInteractions(s.db, db.InteractionFilter{OpportunityID: &opp.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	return interactions, nil
}
