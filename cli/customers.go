// ABOUTME: Customer CLI commands
// ABOUTME: Commands for adding and updating customers, recording payments and checking churn risk
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/harperreed/dealpulse/insights"
	"github.com/harperreed/dealpulse/models"
)

// AddCustomerCommand adds a new customer.
func AddCustomerCommand(ctx context.Context, svc *insights.Service, args []string) error {
	fs := flag.NewFlagSet("add-customer", flag.ExitOnError)
	name := fs.String("name", "", "Customer name (required)")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	kind := fs.String("type", "", "Customer type")
	satisfaction := fs.Int("satisfaction", -1, "Satisfaction score 0-100")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	customer := &models.Customer{Name: *name, Email: *email, Phone: *phone, Type: *kind}
	if *satisfaction >= 0 {
		score := models.Clamp(*satisfaction, 0, 100)
		customer.SatisfactionScore = &score
	}
	if err := svc.AddCustomer(ctx, customer); err != nil {
		return err
	}

	printf("✓ Customer added: %s (ID: %s)\n", customer.Name, customer.ID)
	return nil
}

// UpdateCustomerCommand changes a customer's contact details or satisfaction.
func UpdateCustomerCommand(ctx context.Context, svc *insights.Service, args []string) error {
	fs := flag.NewFlagSet("update-customer", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	kind := fs.String("type", "", "Customer type")
	status := fs.String("status", "", "Customer status")
	satisfaction := fs.Int("satisfaction", -1, "Satisfaction score 0-100")
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("customer name or ID is required")
	}
	customer, err := svc.FindCustomer(ctx, strings.Join(fs.Args(), " "))
	if err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "email":
			customer.Email = *email
		case "phone":
			customer.Phone = *phone
		case "type":
			customer.Type = *kind
		case "status":
			customer.Status = *status
		case "satisfaction":
			if *satisfaction < 0 {
				customer.SatisfactionScore = nil
				return
			}
			score := models.Clamp(*satisfaction, 0, 100)
			customer.SatisfactionScore = &score
		}
	})

	if err := svc.UpdateCustomer(ctx, customer); err != nil {
		return err
	}
	printf("✓ Customer updated: %s\n", customer.Name)
	return nil
}

// PayCommand records a payment for a customer.
func PayCommand(ctx context.Context, svc *insights.Service, args []string) error {
	fs := flag.NewFlagSet("pay", flag.ExitOnError)
	customer := fs.String("customer", "", "Customer name or ID (required)")
	amount := fs.Float64("amount", 0, "Amount")
	status := fs.String("status", models.PaymentOnTime, "Status (on_time, late, pending)")
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")
	paid := fs.String("paid", "", "Paid date (YYYY-MM-DD)")
	_ = fs.Parse(args)

	if *customer == "" {
		return fmt.Errorf("--customer is required")
	}
	c, err := svc.FindCustomer(ctx, *customer)
	if err != nil {
		return err
	}
	dueAt, err := parseDateFlag(*due)
	if err != nil {
		return err
	}
	paidAt, err := parseDateFlag(*paid)
	if err != nil {
		return err
	}

	payment := &models.Payment{CustomerID: c.ID, Amount: *amount, Status: *status, DueAt: dueAt, PaidAt: paidAt}
	if err := svc.RecordPayment(ctx, payment); err != nil {
		return err
	}
	printf("✓ Recorded %s payment of $%.2f for %s\n", payment.Status, payment.Amount, c.Name)
	return nil
}

// ChurnCommand shows churn risk for one customer, or the watchlist when no
// customer is given.
func ChurnCommand(ctx context.Context, svc *insights.Service, args []string) error {
	fs := flag.NewFlagSet("churn", flag.ExitOnError)
	limit := fs.Int("limit", 10, "Maximum customers in the watchlist")
	_ = fs.Parse(args)

	if fs.NArg() > 0 {
		c, err := svc.FindCustomer(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		risk, err := svc.ScoreCustomer(ctx, c.ID)
		if err != nil {
			return err
		}

		printf("%s  %s %s (%d)\n", c.Name, risk.RiskLevel.Icon,
			paint(riskStyle(risk.RiskLevel.Level), risk.RiskLevel.Label), risk.RiskScore)
		printf("  Churn probability: %.0f%%\n", risk.ChurnProbability*100)
		if p := risk.PredictedChurnDate; p != nil {
			printf("  Predicted churn:   %s (%d days, %d%% confidence)\n", p.Date.Format("2006-01-02"), p.DaysUntilChurn, p.Confidence)
		}
		f := risk.Factors
		printf("  Engagement %d  Payment %d  Activity %d  Satisfaction %d\n", f.Engagement, f.Payment, f.Activity, f.Satisfaction)
		for _, r := range risk.Recommendations {
			printf("  → [%s] %s\n", r.Priority, r.Title)
		}
		return nil
	}

	risks, err := svc.ChurnWatchlist(ctx, *limit)
	if err != nil {
		return err
	}
	if len(risks) == 0 {
		printf("No customers found\n")
		return nil
	}

	w := newTable()
	_, _ = fmt.Fprintln(w, "CUSTOMER\tRISK\tLEVEL\tCHURN BY\tTOP ACTION")
	_, _ = fmt.Fprintln(w, "--------\t----\t-----\t--------\t----------")
	for _, r := range risks {
		churnBy, action := "-", "-"
		if r.PredictedChurnDate != nil {
			churnBy = r.PredictedChurnDate.Date.Format("2006-01-02")
		}
		if len(r.Recommendations) > 0 {
			action = r.Recommendations[0].Title
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			r.CustomerName, r.RiskScore, paint(riskStyle(r.RiskLevel.Level), r.RiskLevel.Level), churnBy, action)
	}
	return w.Flush()
}
