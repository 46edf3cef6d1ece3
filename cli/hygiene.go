// ABOUTME: Pipeline hygiene CLI commands
// ABOUTME: Stale deal report, auto-archive runs, reactivation and archive history
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/harperreed/dealpulse/insights"
)

// HygieneCommand prints stale deals and the summary report.
func HygieneCommand(ctx context.Context, svc *insights.Service, args []string) error {
	result, err := svc.Hygiene(ctx)
	if err != nil {
		return err
	}

	for _, line := range result.Report.Summary {
		printf("%s\n", line)
	}
	if len(result.Analysis.Flagged) == 0 {
		return nil
	}

	printf("\n")
	w := newTable()
	_, _ = fmt.Fprintln(w, "SEVERITY\tIDLE\tTITLE\tSTAGE\tVALUE\tRECOMMENDATION")
	_, _ = fmt.Fprintln(w, "--------\t----\t-----\t-----\t-----\t--------------")
	for _, f := range result.Analysis.Flagged {
		_, _ = fmt.Fprintf(w, "%s\t%dd\t%s\t%s\t$%.0f\t%s\n",
			f.Severity, f.DaysInactive, f.Title, f.Stage, f.Value, f.Recommendation)
	}
	return w.Flush()
}

// ArchiveCommand archives abandoned deals. With --dry-run it only lists them.
func ArchiveCommand(ctx context.Context, svc *insights.Service, args []string) error {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "List candidates without archiving")
	_ = fs.Parse(args)

	outcome, err := svc.RunAutoArchive(ctx, *dryRun)
	if err != nil {
		return err
	}

	if outcome.Candidates.Count == 0 {
		printf("No deals to archive\n")
		return nil
	}
	for _, opp := range outcome.Candidates.Opportunities {
		printf("  %s  %s ($%.0f)\n", shortID(opp.ID), opp.Title, opp.Value)
	}
	if outcome.DryRun {
		printf("%d deals would be archived (dry run)\n", outcome.Candidates.Count)
		return nil
	}
	printf("✓ Archived %d deals (run %s)\n", outcome.Run.ArchivedCount, outcome.Run.ID)
	return nil
}

// ReactivateCommand returns an archived deal to the pipeline.
func ReactivateCommand(ctx context.Context, svc *insights.Service, args []string) error {
	id, err := parseID(args, "deal")
	if err != nil {
		return err
	}
	opp, err := svc.Reactivate(ctx, id)
	if err != nil {
		return err
	}
	printf("✓ Reactivated %s (%s)\n", opp.Title, opp.Stage)
	return nil
}

// ArchiveHistoryCommand lists past auto-archive runs.
func ArchiveHistoryCommand(ctx context.Context, svc *insights.Service, args []string) error {
	fs := flag.NewFlagSet("archive-history", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum runs")
	_ = fs.Parse(args)

	runs, err := svc.ArchiveHistory(ctx, *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		printf("No archive runs yet\n")
		return nil
	}

	w := newTable()
	_, _ = fmt.Fprintln(w, "RAN AT\tARCHIVED\tRUN\tDEALS")
	_, _ = fmt.Fprintln(w, "------\t--------\t---\t-----")
	for _, run := range runs {
		deals := make([]string, 0, len(run.OpportunityIDs))
		for _, id := range run.OpportunityIDs {
			deals = append(deals, id.String())
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", run.RanAt.Format("2006-01-02 15:04"), run.ArchivedCount, run.ID, strings.Join(deals, ","))
	}
	return w.Flush()
}
