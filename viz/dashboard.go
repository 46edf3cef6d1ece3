// ABOUTME: Terminal dashboard rendering
// ABOUTME: Renders the pipeline dashboard as plain text with stage bars
package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/harperreed/dealpulse/insights"
	"github.com/harperreed/dealpulse/scoring"
)

// RenderDashboard draws every dashboard section. Sections that failed to
// build are listed at the bottom.
func RenderDashboard(d *insights.Dashboard) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  DEALPULSE DASHBOARD\n")
	out.WriteString(fmt.Sprintf("  %s\n", d.GeneratedAt.Format("2006-01-02 15:04")))
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	if d.Velocity != nil {
		out.WriteString("PIPELINE VELOCITY\n")
		renderPipeline(&out, d.Velocity.Stages)
		out.WriteString(fmt.Sprintf("  win rate %.1f%%  avg cycle %.1fd  trend %s\n\n",
			d.Velocity.WinRate, d.Velocity.AverageCycleDays, d.Velocity.Trend))
	}

	if len(d.TopDeals) > 0 {
		out.WriteString("TOP DEALS\n")
		for _, deal := range d.TopDeals {
			out.WriteString(fmt.Sprintf("  %3d %s  %-28s %-12s $%.0f\n",
				deal.Score.TotalScore, deal.Score.Grade, truncate(deal.Opportunity.Title, 28),
				deal.Opportunity.Stage, deal.Opportunity.Value))
		}
		out.WriteString("\n")
	}

	if len(d.FollowUps) > 0 {
		out.WriteString("FOLLOW-UPS\n")
		for _, item := range d.FollowUps {
			top := item.Prediction.TopSuggestion
			out.WriteString(fmt.Sprintf("  %s  %-8s %-28s %s\n",
				top.SuggestedDate.Format("Jan 02"), top.Priority, truncate(item.Opportunity.Title, 28), top.Title))
		}
		out.WriteString("\n")
	}

	if d.Hygiene != nil {
		r := d.Hygiene.Report
		out.WriteString("HYGIENE\n")
		out.WriteString(fmt.Sprintf("  %d of %d opportunities healthy (%.1f%%)\n", r.Healthy, r.Eligible, r.HealthyPercent))
		for _, tier := range r.Tiers {
			if tier.Count == 0 {
				continue
			}
			out.WriteString(fmt.Sprintf("  ⚠️  %d %s - %d+ days inactive ($%.0f)\n", tier.Count, tier.Severity, tier.MinDays, tier.Value))
		}
		out.WriteString("\n")
	}

	if len(d.Churn) > 0 {
		out.WriteString("CHURN WATCHLIST\n")
		for _, risk := range d.Churn {
			out.WriteString(fmt.Sprintf("  %s %3d %-28s %s\n",
				risk.RiskLevel.Icon, risk.RiskScore, truncate(risk.CustomerName, 28), risk.RiskLevel.Label))
		}
		out.WriteString("\n")
	}

	if len(d.Errors) > 0 {
		out.WriteString("UNAVAILABLE\n")
		sections := make([]string, 0, len(d.Errors))
		for section := range d.Errors {
			sections = append(sections, section)
		}
		sort.Strings(sections)
		for _, section := range sections {
			out.WriteString(fmt.Sprintf("  %s: %s\n", section, d.Errors[section]))
		}
	}

	return out.String()
}

func renderPipeline(out *strings.Builder, stages []scoring.StageMetrics) {
	maxCount := 0
	for _, m := range stages {
		if m.Count > maxCount {
			maxCount = m.Count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, m := range stages {
		barLength := (m.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-12s %s  %2d  %5.1fd/%dd  score %d\n",
			m.Stage, bar, m.Count, m.AverageDays, m.ExpectedDays, m.VelocityScore))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
