// ABOUTME: Visualization CLI commands
// ABOUTME: Handles the text dashboard and graph generation commands
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/harperreed/dealpulse/db"
	"github.com/harperreed/dealpulse/insights"
	"github.com/harperreed/dealpulse/viz"
)

// DashboardCommand prints the combined dashboard.
func DashboardCommand(ctx context.Context, svc *insights.Service, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print JSON instead of text")
	_ = fs.Parse(args)

	dashboard, err := svc.Dashboard(ctx)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(dashboard)
	}
	printf("%s", viz.RenderDashboard(dashboard))
	return nil
}

// GraphCommand generates a pipeline or accounts graph as DOT.
func GraphCommand(ctx context.Context, svc *insights.Service, args []string) error {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("graph type required (pipeline or accounts)")
	}

	var dot string
	switch fs.Arg(0) {
	case "pipeline":
		velocity, err := svc.PipelineVelocity(ctx)
		if err != nil {
			return err
		}
		dot, err = viz.GenerateStageFlowGraph(ctx, *velocity)
		if err != nil {
			return err
		}

	case "accounts":
		customers, err := svc.ListCustomers(ctx)
		if err != nil {
			return err
		}
		opps, err := svc.ListOpportunities(ctx, db.OpportunityFilter{IncludeArchived: true})
		if err != nil {
			return err
		}
		dot, err = viz.GenerateAccountGraph(ctx, customers, opps)
		if err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown graph type: %s", fs.Arg(0))
	}

	if *output != "" {
		return os.WriteFile(*output, []byte(dot), 0644)
	}

	printf("%s\n", dot)
	return nil
}
