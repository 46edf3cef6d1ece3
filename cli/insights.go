// ABOUTME: Scoring CLI commands
// ABOUTME: Deal scores, rankings, follow-up queue, pipeline velocity and score history
package cli

import (
	"context"
	"flag"
	"fmt"
	"sort"

	"github.com/harperreed/dealpulse/insights"
)

// ScoreCommand scores one deal and stores a snapshot.
func ScoreCommand(ctx context.Context, svc *insights.Service, args []string) error {
	id, err := parseID(args, "deal")
	if err != nil {
		return err
	}

	insight, err := svc.ScoreOpportunity(ctx, id)
	if err != nil {
		return err
	}

	opp := insight.Opportunity
	score := insight.Score
	printf("%s  %s\n", opp.Title, paint(dimStyle, opp.ID.String()))
	if insight.Customer != nil {
		printf("  Customer:  %s\n", insight.Customer.Name)
	}
	printf("  Stage:     %s  $%.2f  %d%%\n", opp.Stage, opp.Value, opp.Probability)
	printf("  Score:     %s (value %d, risk %d, duration %d, probability %d)\n",
		paint(gradeStyle(score.Grade), fmt.Sprintf("%d %s", score.TotalScore, score.Grade)),
		score.Breakdown.Value, score.Breakdown.Risk, score.Breakdown.Duration, score.Breakdown.Probability)
	printf("  Expected:  $%.2f  priority %s\n", score.ExpectedValue, score.Priority)
	printf("  Health:    %s, %d days idle, %d days in stage\n",
		paint(healthStyle(string(insight.Health.Status)), fmt.Sprintf("%d %s", insight.Health.Score, insight.Health.Status)),
		insight.Health.DaysSinceActivity, insight.Health.DaysInStage)
	approx := ""
	if insight.Velocity.Approximate {
		approx = " (approximate)"
	}
	printf("  Velocity:  %d, %.1f of %d expected days%s\n",
		insight.Velocity.Score, insight.Velocity.ActualDays, insight.Velocity.ExpectedDays, approx)

	for _, f := range insight.Health.Factors {
		printf("  ✗ %s (%d): %s\n", f.Name, f.Impact, f.Detail)
	}
	for _, r := range score.Recommendations {
		printf("  → [%s] %s\n", r.Priority, r.Title)
	}

	top := insight.NextAction.TopSuggestion
	printf("\nNext action: %s by %s (%d%% confidence)\n", top.Title, top.SuggestedDate.Format("Mon Jan 2"), insight.NextAction.Confidence)
	for _, reason := range insight.NextAction.Reasoning {
		printf("  • %s\n", reason)
	}
	return nil
}

// RankCommand lists open deals by score.
func RankCommand(ctx context.Context, svc *insights.Service, args []string) error {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum results")
	_ = fs.Parse(args)

	ranked, err := svc.RankDeals(ctx, *limit)
	if err != nil {
		return err
	}
	if len(ranked) == 0 {
		printf("No open deals\n")
		return nil
	}

	w := newTable()
	_, _ = fmt.Fprintln(w, "SCORE\tGRADE\tTITLE\tSTAGE\tEXPECTED\tPRIORITY\tID")
	_, _ = fmt.Fprintln(w, "-----\t-----\t-----\t-----\t--------\t--------\t--")
	for _, d := range ranked {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t$%.0f\t%s\t%s\n",
			d.Score.TotalScore, paint(gradeStyle(d.Score.Grade), d.Score.Grade), d.Opportunity.Title,
			d.Opportunity.Stage, d.Score.ExpectedValue, d.Score.Priority, shortID(d.Opportunity.ID))
	}
	return w.Flush()
}

// FollowupsCommand prints the follow-up queue, most urgent first.
func FollowupsCommand(ctx context.Context, svc *insights.Service, args []string) error {
	fs := flag.NewFlagSet("followups", flag.ExitOnError)
	limit := fs.Int("limit", 10, "Maximum results")
	_ = fs.Parse(args)

	items, err := svc.FollowUpQueue(ctx, *limit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		printf("Nothing to follow up\n")
		return nil
	}

	w := newTable()
	_, _ = fmt.Fprintln(w, "WHEN\tPRIORITY\tDEAL\tACTION\tIDLE\tCONFIDENCE")
	_, _ = fmt.Fprintln(w, "----\t--------\t----\t------\t----\t----------")
	for _, item := range items {
		top := item.Prediction.TopSuggestion
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dd\t%d%%\n",
			top.SuggestedDate.Format("Mon Jan 2"), top.Priority, item.Opportunity.Title, top.Title,
			item.Prediction.Context.DaysSinceLastContact, item.Prediction.Confidence)
	}
	return w.Flush()
}

// VelocityCommand prints pipeline velocity by stage.
func VelocityCommand(ctx context.Context, svc *insights.Service, args []string) error {
	v, err := svc.PipelineVelocity(ctx)
	if err != nil {
		return err
	}

	w := newTable()
	_, _ = fmt.Fprintln(w, "STAGE\tDEALS\tAVG DAYS\tEXPECTED\tCONVERSION\tSCORE")
	_, _ = fmt.Fprintln(w, "-----\t-----\t--------\t--------\t----------\t-----")
	for _, m := range v.Stages {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%.1f\t%d\t%.1f%%\t%d\n",
			m.Stage, m.Count, m.AverageDays, m.ExpectedDays, m.ConversionRate, m.VelocityScore)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	printf("\nWon %d, lost %d, win rate %.1f%%, average cycle %.1f days\n", v.WonCount, v.LostCount, v.WinRate, v.AverageCycleDays)
	printf("Trend: %s (recent %.1f vs previous %.1f)\n", v.Trend, v.RecentAverageScore, v.PreviousAverageScore)
	reasons := make([]string, 0, len(v.LostReasons))
	for reason := range v.LostReasons {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		printf("  lost to %s: %d\n", reason, v.LostReasons[reason])
	}
	return nil
}

// HistoryCommand lists stored score snapshots for a deal.
func HistoryCommand(ctx context.Context, svc *insights.Service, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum snapshots")
	_ = fs.Parse(args)

	id, err := parseID(fs.Args(), "deal")
	if err != nil {
		return err
	}
	snapshots, err := svc.ScoreHistory(ctx, id, *limit)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		printf("No score history for %s\n", shortID(id))
		return nil
	}

	w := newTable()
	_, _ = fmt.Fprintln(w, "WHEN\tSCORE\tGRADE\tHEALTH\tVELOCITY")
	_, _ = fmt.Fprintln(w, "----\t-----\t-----\t------\t--------")
	for _, s := range snapshots {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%d %s\t%d\n",
			s.CreatedAt.Format("2006-01-02 15:04"), s.TotalScore, s.Grade, s.HealthScore, s.HealthStatus, s.VelocityScore)
	}
	return w.Flush()
}
