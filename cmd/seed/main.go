// ABOUTME: Demo data loader for dealpulse
// ABOUTME: Replays a few months of pipeline activity so every score and report has data

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/config"
	"github.com/harperreed/dealpulse/db"
	"github.com/harperreed/dealpulse/insights"
	"github.com/harperreed/dealpulse/models"
)

func main() {
	dbPath := flag.String("db-path", "", "Database path (default: DEALPULSE_DB_PATH or the XDG data dir)")
	force := flag.Bool("force", false, "Seed even if the database already has opportunities")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger()

	path := cfg.WithDBPath(*dbPath)
	database, err := db.OpenDatabase(path)
	if err != nil {
		logger.Fatal("failed to open database", "path", path, "err", err)
	}
	defer func() { _ = database.Close() }()

	existing, err := db.ListOpportunities(database, db.OpportunityFilter{IncludeArchived: true, Limit: 1})
	if err != nil {
		logger.Fatal("failed to inspect database", "err", err)
	}
	if len(existing) > 0 && !*force {
		logger.Fatal("database already has opportunities, use --force to seed anyway", "path", path)
	}

	now := time.Now().In(cfg.Location)
	if cfg.Now != nil {
		now = *cfg.Now
	}

	clock := &replayClock{t: now}
	svc := insights.NewService(database, clock, logger)
	counts, err := seed(context.Background(), svc, clock, now)
	if err != nil {
		logger.Fatal("seed failed", "err", err)
	}

	logger.Info("seeded demo data", "path", path,
		"customers", counts.customers, "opportunities", counts.opportunities,
		"interactions", counts.interactions, "payments", counts.payments)
}

// replayClock lets the seeder stamp events in the past through the same
// service calls the CLI uses.
type replayClock struct {
	t time.Time
}

func (c *replayClock) Now() time.Time {
	return c.t
}

type seedCounts struct {
	customers     int
	opportunities int
	interactions  int
	payments      int
}

type dealStep struct {
	daysAgo int
	stage   models.Stage
}

type dealTouch struct {
	daysAgo int
	kind    string
	notes   string
}

type demoDeal struct {
	title       string
	customer    string
	value       float64
	probability int
	steps       []dealStep
	touches     []dealTouch
	lost        *models.LostReason
	lostDaysAgo int
}

type demoCustomer struct {
	name         string
	email        string
	satisfaction int
	daysAgo      int
}

type demoPayment struct {
	customer string
	amount   float64
	status   string
	dueAgo   int
	paidAgo  int
}

var demoCustomers = []demoCustomer{
	{name: "Acme Corp", email: "ops@acme.example", satisfaction: 88, daysAgo: 400},
	{name: "Globex", email: "buyers@globex.example", satisfaction: 42, daysAgo: 300},
	{name: "Initech", email: "it@initech.example", satisfaction: 71, daysAgo: 200},
	{name: "Umbrella Labs", email: "", satisfaction: -1, daysAgo: 160},
	{name: "Hooli", email: "partners@hooli.example", satisfaction: 93, daysAgo: 120},
}

var demoDeals = []demoDeal{
	{
		title: "Acme Platform Renewal", customer: "Acme Corp", value: 48000, probability: 70,
		steps: []dealStep{{40, models.StageLead}, {35, models.StageQualified}, {20, models.StageProposal}, {5, models.StageNegotiation}},
		touches: []dealTouch{
			{10, models.InteractionEmail, "Sent renewal proposal"},
			{3, models.InteractionMeeting, "Pricing walkthrough with procurement"},
		},
	},
	{
		title: "Acme Training Package", customer: "Acme Corp", value: 6000, probability: 20,
		steps: []dealStep{{2, models.StageLead}},
	},
	{
		title: "Globex Pilot", customer: "Globex", value: 15000, probability: 30,
		steps:   []dealStep{{75, models.StageLead}, {70, models.StageQualified}},
		touches: []dealTouch{{65, models.InteractionCall, "Discovery call, waiting on budget"}},
	},
	{
		title: "Globex Support Contract", customer: "Globex", value: 22000, probability: 40,
		steps:       []dealStep{{90, models.StageLead}, {80, models.StageQualified}, {60, models.StageProposal}},
		lost:        &models.LostReason{Category: models.LostPrice, CompetitorName: "Initrode", Notes: "Went with the cheaper bid"},
		lostDaysAgo: 30,
	},
	{
		title: "Initech Expansion", customer: "Initech", value: 32000, probability: 55,
		steps: []dealStep{{20, models.StageLead}, {14, models.StageQualified}, {8, models.StageProposal}},
		touches: []dealTouch{
			{8, models.InteractionEmail, "Proposal sent"},
			{2, models.InteractionCall, "Follow-up on proposal questions"},
		},
	},
	{
		title: "Umbrella Security Audit", customer: "Umbrella Labs", value: 12000, probability: 10,
		steps: []dealStep{{150, models.StageLead}},
	},
	{
		title: "Hooli Analytics", customer: "Hooli", value: 60000, probability: 90,
		steps: []dealStep{{60, models.StageLead}, {50, models.StageQualified}, {40, models.StageProposal}, {25, models.StageNegotiation}, {10, models.StageWon}},
		touches: []dealTouch{
			{26, models.InteractionMeeting, "Final negotiation"},
			{10, models.InteractionEmail, "Signed contract received"},
		},
	},
	{
		title: "Stray Inbound Lead", value: 2500, probability: 5,
		steps: []dealStep{{45, models.StageLead}},
	},
}

var demoPayments = []demoPayment{
	{customer: "Acme Corp", amount: 4000, status: models.PaymentOnTime, dueAgo: 60, paidAgo: 62},
	{customer: "Acme Corp", amount: 4000, status: models.PaymentOnTime, dueAgo: 30, paidAgo: 31},
	{customer: "Globex", amount: 1800, status: models.PaymentLate, dueAgo: 50, paidAgo: 20},
	{customer: "Globex", amount: 1800, status: models.PaymentLate, dueAgo: 20, paidAgo: -1},
	{customer: "Initech", amount: 2600, status: models.PaymentPending, dueAgo: -10, paidAgo: -1},
	{customer: "Hooli", amount: 15000, status: models.PaymentOnTime, dueAgo: 5, paidAgo: 6},
}

// seed replays the demo timeline relative to now. The clock is moved to each
// event's moment before the service call that records it.
func seed(ctx context.Context, svc *insights.Service, clock *replayClock, now time.Time) (seedCounts, error) {
	var counts seedCounts
	at := func(daysAgo int) time.Time {
		return now.AddDate(0, 0, -daysAgo)
	}

	customers := make(map[string]uuid.UUID, len(demoCustomers))
	for _, dc := range demoCustomers {
		clock.t = at(dc.daysAgo)
		c := &models.Customer{Name: dc.name, Email: dc.email}
		if dc.satisfaction >= 0 {
			score := dc.satisfaction
			c.SatisfactionScore = &score
		}
		if err := svc.AddCustomer(ctx, c); err != nil {
			return counts, fmt.Errorf("failed to add customer %s: %w", dc.name, err)
		}
		customers[dc.name] = c.ID
		counts.customers++
	}

	for _, dd := range demoDeals {
		if len(dd.steps) == 0 {
			return counts, fmt.Errorf("deal %s has no stages", dd.title)
		}

		clock.t = at(dd.steps[0].daysAgo)
		opp := &models.Opportunity{
			Title:       dd.title,
			Value:       dd.value,
			Stage:       dd.steps[0].stage,
			Probability: dd.probability,
		}
		if dd.customer != "" {
			id := customers[dd.customer]
			opp.CustomerID = &id
		}
		if err := svc.CreateOpportunity(ctx, opp); err != nil {
			return counts, fmt.Errorf("failed to create %s: %w", dd.title, err)
		}
		counts.opportunities++

		for _, step := range dd.steps[1:] {
			clock.t = at(step.daysAgo)
			if err := svc.MoveStage(ctx, opp.ID, step.stage); err != nil {
				return counts, fmt.Errorf("failed to move %s to %s: %w", dd.title, step.stage, err)
			}
		}

		for _, touch := range dd.touches {
			id := opp.ID
			interaction := &models.Interaction{
				OpportunityID: &id,
				CustomerID:    opp.CustomerID,
				Type:          touch.kind,
				Notes:         touch.notes,
				CreatedAt:     at(touch.daysAgo),
			}
			if err := svc.LogInteraction(ctx, interaction); err != nil {
				return counts, fmt.Errorf("failed to log interaction on %s: %w", dd.title, err)
			}
			counts.interactions++
		}

		if dd.lost != nil {
			clock.t = at(dd.lostDaysAgo)
			reason := *dd.lost
			if err := svc.MarkLost(ctx, opp.ID, &reason); err != nil {
				return counts, fmt.Errorf("failed to mark %s lost: %w", dd.title, err)
			}
		}
	}

	for _, dp := range demoPayments {
		due := at(dp.dueAgo)
		clock.t = at(max(dp.dueAgo, 0))
		payment := &models.Payment{
			CustomerID: customers[dp.customer],
			Amount:     dp.amount,
			Status:     dp.status,
			DueAt:      &due,
		}
		if dp.paidAgo >= 0 {
			paid := at(dp.paidAgo)
			payment.PaidAt = &paid
		}
		if err := svc.RecordPayment(ctx, payment); err != nil {
			return counts, fmt.Errorf("failed to record payment for %s: %w", dp.customer, err)
		}
		counts.payments++
	}

	clock.t = now
	return counts, nil
}
