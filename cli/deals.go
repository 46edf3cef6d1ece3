// ABOUTME: Opportunity CLI commands
// ABOUTME: Human-friendly commands for adding, editing, moving, losing, deleting and listing opportunities
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/db"
	"github.com/harperreed/dealpulse/insights"
	"github.com/harperreed/dealpulse/models"
	"github.com/harperreed/dealpulse/scoring"
)

// findOrCreateCustomer resolves a customer name, creating it when missing.
func findOrCreateCustomer(ctx context.Context, svc *insights.Service, name string) (*models.Customer, error) {
	customer, err := svc.FindCustomer(ctx, name)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, insights.ErrCustomerNotFound) {
		return nil, err
	}

	customer = &models.Customer{Name: name}
	if err := svc.AddCustomer(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func parseDateFlag(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", raw, err)
	}
	return &t, nil
}

// AddDealCommand adds a new opportunity.
func AddDealCommand(ctx context.Context, svc *insights.Service, args []string) error {
	fs := flag.NewFlagSet("add-deal", flag.ExitOnError)
	title := fs.String("title", "", "Deal title (required)")
	customer := fs.String("customer", "", "Customer name (created if not found)")
	value := fs.Float64("value", 0, "Deal value")
	stage := fs.String("stage", "lead", "Stage (lead, qualified, proposal, negotiation, won, lost)")
	probability := fs.Int("probability", 0, "Win probability 0-100")
	nextAction := fs.String("next-action", "", "Next action date (YYYY-MM-DD)")
	_ = fs.Parse(args)

	if *title == "" {
		return fmt.Errorf("--title is required")
	}
	parsedStage, ok := models.ParseStage(*stage)
	if !ok {
		return fmt.Errorf("invalid stage: %s", *stage)
	}
	nextActionAt, err := parseDateFlag(*nextAction)
	if err != nil {
		return err
	}

	opp := &models.Opportunity{
		Title:          *title,
		Value:          *value,
		Stage:          parsedStage,
		Probability:    models.Clamp(*probability, 0, 100),
		NextActionDate: nextActionAt,
	}

	if *customer != "" {
		c, err := findOrCreateCustomer(ctx, svc, *customer)
		if err != nil {
			return fmt.Errorf("failed to resolve customer: %w", err)
		}
		opp.CustomerID = &c.ID
	}

	if err := svc.CreateOpportunity(ctx, opp); err != nil {
		return fmt.Errorf("failed to create opportunity: %w", err)
	}

	printf("✓ Deal created: %s (ID: %s)\n", opp.Title, opp.ID)
	if *customer != "" {
		printf("  Customer: %s\n", *customer)
	}
	printf("  Value: $%.2f\n", opp.Value)
	printf("  Stage: %s\n", opp.Stage)
	return nil
}

// ListDealsCommand lists opportunities with their health.
func ListDealsCommand(ctx context.Context, svc *insights.Service, args []string) error {
	fs := flag.NewFlagSet("list-deals", flag.ExitOnError)
	stage := fs.String("stage", "", "Filter by stage")
	customer := fs.String("customer", "", "Filter by customer name")
	archived := fs.Bool("archived", false, "Show archived deals only")
	limit := fs.Int("limit", 50, "Maximum results")
	_ = fs.Parse(args)

	filter := db.OpportunityFilter{ArchivedOnly: *archived, Limit: *limit}
	if *stage != "" {
		parsed, ok := models.ParseStage(*stage)
		if !ok {
			return fmt.Errorf("invalid stage: %s", *stage)
		}
		filter.Stage = parsed
	}
	if *customer != "" {
		c, err := svc.FindCustomer(ctx, *customer)
		if err != nil {
			return err
		}
		filter.CustomerID = &c.ID
	}

	opps, err := svc.ListOpportunities(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list opportunities: %w", err)
	}
	if len(opps) == 0 {
		printf("No deals found\n")
		return nil
	}

	now := svc.Now()
	w := newTable()
	_, _ = fmt.Fprintln(w, "TITLE\tSTAGE\tVALUE\tHEALTH\tIDLE\tID")
	_, _ = fmt.Fprintln(w, "-----\t-----\t-----\t------\t----\t--")
	for _, opp := range opps {
		health := scoring.CalculateHealthScore(opp, now)
		_, _ = fmt.Fprintf(w, "%s\t%s\t$%.0f\t%s\t%dd\t%s\n",
			opp.Title, opp.Stage, opp.Value,
			paint(healthStyle(string(health.Status)), fmt.Sprintf("%d %s", health.Score, health.Status)),
			health.DaysSinceActivity, opp.ID)
	}
	return w.Flush()
}

// MoveCommand moves an opportunity to another stage.
func MoveCommand(ctx context.Context, svc *insights.Service, args []string) error {
	fs := flag.NewFlagSet("move", flag.ExitOnError)
	stage := fs.String("stage", "", "New stage (required)")
	_ = fs.Parse(args)

	id, err := parseID(fs.Args(), "deal")
	if err != nil {
		return err
	}
	parsed, ok := models.ParseStage(*stage)
	if !ok {
		return fmt.Errorf("invalid stage: %q", *stage)
	}

	if err := svc.MoveStage(ctx, id, parsed); err != nil {
		return err
	}
	printf("✓ Moved %s to %s\n", shortID(id), parsed)
	return nil
}

// EditDealCommand updates the editable fields of an opportunity. Only the
// flags that are passed change.
func EditDealCommand(ctx context.Context, svc *insights.Service, args []string) error {
	fs := flag.NewFlagSet("edit-deal", flag.ExitOnError)
	title := fs.String("title", "", "New title")
	customer := fs.String("customer", "", "Customer name (created if not found)")
	value := fs.Float64("value", 0, "Deal value")
	probability := fs.Int("probability", 0, "Win probability 0-100")
	nextAction := fs.String("next-action", "", "Next action date (YYYY-MM-DD)")
	_ = fs.Parse(args)

	id, err := parseID(fs.Args(), "deal")
	if err != nil {
		return err
	}
	opp, err := svc.GetOpportunity(ctx, id)
	if err != nil {
		return err
	}

	var changed []string
	var visitErr error
	fs.Visit(func(f *flag.Flag) {
		if visitErr != nil {
			return
		}
		changed = append(changed, f.Name)
		switch f.Name {
		case "title":
			opp.Title = *title
		case "value":
			opp.Value = *value
		case "probability":
			opp.Probability = *probability
		case "next-action":
			opp.NextActionDate, visitErr = parseDateFlag(*nextAction)
		case "customer":
			var c *models.Customer
			c, visitErr = findOrCreateCustomer(ctx, svc, *customer)
			if visitErr == nil {
				opp.CustomerID = &c.ID
			}
		}
	})
	if visitErr != nil {
		return visitErr
	}
	if len(changed) == 0 {
		return fmt.Errorf("nothing to change: pass at least one of --title, --customer, --value, --probability, --next-action")
	}

	if err := svc.UpdateOpportunity(ctx, opp); err != nil {
		return err
	}
	printf("✓ Updated %s (%s)\n", opp.Title, strings.Join(changed, ", "))
	return nil
}

// DeleteDealCommand removes an opportunity with its history and interactions.
func DeleteDealCommand(ctx context.Context, svc *insights.Service, args []string) error {
	fs := flag.NewFlagSet("delete-deal", flag.ExitOnError)
	_ = fs.Parse(args)

	id, err := parseID(fs.Args(), "deal")
	if err != nil {
		return err
	}
	if err := svc.DeleteOpportunity(ctx, id); err != nil {
		return err
	}
	printf("✓ Deleted %s\n", shortID(id))
	return nil
}

// LostCommand closes an opportunity as lost.
func LostCommand(ctx context.Context, svc *insights.Service, args []string) error {
	fs := flag.NewFlagSet("lost", flag.ExitOnError)
	category := fs.String("category", models.LostOther, "Reason (price, competitor, timing, other)")
	competitor := fs.String("competitor", "", "Competitor that won")
	competitorPrice := fs.Float64("competitor-price", 0, "Competitor's price")
	notes := fs.String("notes", "", "Notes")
	_ = fs.Parse(args)

	id, err := parseID(fs.Args(), "deal")
	if err != nil {
		return err
	}

	reason := &models.LostReason{Category: *category, CompetitorName: *competitor, Notes: *notes}
	if *competitorPrice > 0 {
		reason.CompetitorPrice = competitorPrice
	}
	if err := svc.MarkLost(ctx, id, reason); err != nil {
		return err
	}
	printf("✓ Marked %s lost (%s)\n", shortID(id), reason.Category)
	return nil
}

// LogCommand records an interaction against a deal or customer.
func LogCommand(ctx context.Context, svc *insights.Service, args []string) error {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	deal := fs.String("deal", "", "Deal ID")
	customer := fs.String("customer", "", "Customer name or ID")
	kind := fs.String("type", models.InteractionNote, "Type (call, email, meeting, note, message)")
	notes := fs.String("notes", "", "What happened")
	date := fs.String("date", "", "When it happened (YYYY-MM-DD, default now)")
	_ = fs.Parse(args)

	if *deal == "" && *customer == "" {
		return fmt.Errorf("--deal or --customer is required")
	}

	interaction := &models.Interaction{Type: *kind, Notes: *notes}
	if *deal != "" {
		id, err := uuid.Parse(*deal)
		if err != nil {
			return fmt.Errorf("invalid deal ID: %w", err)
		}
		interaction.OpportunityID = &id
	}
	if *customer != "" {
		c, err := svc.FindCustomer(ctx, *customer)
		if err != nil {
			return err
		}
		interaction.CustomerID = &c.ID
	}
	occurred, err := parseDateFlag(*date)
	if err != nil {
		return err
	}
	if occurred != nil {
		interaction.CreatedAt = *occurred
	}

	if err := svc.LogInteraction(ctx, interaction); err != nil {
		return fmt.Errorf("failed to log interaction: %w", err)
	}
	printf("✓ Logged %s on %s\n", interaction.Type, interaction.CreatedAt.Format("2006-01-02"))
	return nil
}
