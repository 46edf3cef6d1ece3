// ABOUTME: Deal velocity calculations
// ABOUTME: Per-deal stage durations and pipeline-wide stage conversion statistics
package scoring

import (
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/models"
)

type Trend string

const (
	TrendAccelerating     Trend = "accelerating"
	TrendSteady           Trend = "steady"
	TrendSlowing          Trend = "slowing"
	TrendInsufficientData Trend = "insufficient_data"
)

// TrendWindowDays is the width of each window compared for the trend.
const TrendWindowDays = 90

// TrendThreshold is the average score difference needed to call a trend.
const TrendThreshold = 5.0

// RatioBand maps an inclusive upper bound of actual/expected days to a score.
type RatioBand struct {
	Max   float64
	Score int
}

// VelocityBands score the ratio of actual to expected days in stage.
// Anything slower than the last band scores SlowestVelocityScore.
var VelocityBands = []RatioBand{
	{Max: 0.5, Score: 100},
	{Max: 0.75, Score: 90},
	{Max: 1.0, Score: 75},
	{Max: 1.5, Score: 55},
	{Max: 2.0, Score: 35},
	{Max: 3.0, Score: 20},
}

const SlowestVelocityScore = 10

type StageDuration struct {
	Stage       models.Stage `json:"stage"`
	Days        float64      `json:"days"`
	Approximate bool         `json:"approximate"`
}

type DealVelocity struct {
	OpportunityID  uuid.UUID       `json:"opportunity_id"`
	Score          int             `json:"score"`
	ActualDays     float64         `json:"actual_days"`
	ExpectedDays   int             `json:"expected_days"`
	Ratio          float64         `json:"ratio"`
	DaysInPipeline int             `json:"days_in_pipeline"`
	StageDurations []StageDuration `json:"stage_durations"`
	Approximate    bool            `json:"approximate"`
}

type StageMetrics struct {
	Stage          models.Stage `json:"stage"`
	Count          int          `json:"count"`
	AverageDays    float64      `json:"average_days"`
	ExpectedDays   int          `json:"expected_days"`
	ConversionRate float64      `json:"conversion_rate"`
	VelocityScore  int          `json:"velocity_score"`
}

type PipelineVelocity struct {
	Stages               []StageMetrics `json:"stages"`
	Opportunities        int            `json:"opportunities"`
	WonCount             int            `json:"won_count"`
	LostCount            int            `json:"lost_count"`
	WinRate              float64        `json:"win_rate"`
	AverageCycleDays     float64        `json:"average_cycle_days"`
	LostReasons          map[string]int `json:"lost_reasons"`
	Trend                Trend          `json:"trend"`
	RecentAverageScore   float64        `json:"recent_average_score"`
	PreviousAverageScore float64        `json:"previous_average_score"`
}

// VelocityScoreForRatio bands actual/expected days. A zero ratio means no
// measurable time was spent and scores as fastest.
func VelocityScoreForRatio(ratio float64) int {
	for _, b := range VelocityBands {
		if ratio <= b.Max {
			return b.Score
		}
	}
	return SlowestVelocityScore
}

// totalExpectedDays is the time a deal should take to cross every open stage.
func totalExpectedDays() int {
	total := 0
	for _, s := range models.OpenStages {
		total += ExpectedStageDays[s]
	}
	return total
}

// CalculateDealVelocity measures how fast one deal moves through the pipeline.
//
// Durations come from stage history: each entry lasts until the next one, and
// an open current stage lasts until now. Without history the whole
// CreatedAt→UpdatedAt span is attributed to the current stage and the result
// is marked approximate. A terminal deal without history is compared against
// the full pipeline's expected duration.
func CalculateDealVelocity(opp models.Opportunity, now time.Time) DealVelocity {
	o := opp.Normalized()
	result := DealVelocity{
		OpportunityID:  o.ID,
		StageDurations: []StageDuration{},
	}
	if !o.CreatedAt.IsZero() {
		result.DaysInPipeline = models.DaysBetween(o.CreatedAt, now)
	}

	durations, approximate := stageDurations(o, now)
	result.StageDurations = durations
	result.Approximate = approximate

	actual := 0.0
	for _, d := range durations {
		if expected, ok := ExpectedStageDays[d.Stage]; ok {
			actual += d.Days
			result.ExpectedDays += expected
		}
	}
	if approximate && o.Stage.IsTerminal() && len(durations) > 0 {
		actual = durations[0].Days
		result.ExpectedDays = totalExpectedDays()
	}

	ratio := 0.0
	if result.ExpectedDays > 0 && actual > 0 {
		ratio = actual / float64(result.ExpectedDays)
	}
	result.ActualDays = round1(actual)
	result.Ratio = round2(ratio)
	result.Score = VelocityScoreForRatio(ratio)
	return result
}

func stageDurations(o models.Opportunity, now time.Time) ([]StageDuration, bool) {
	if len(o.StageHistory) == 0 {
		if o.CreatedAt.IsZero() {
			return []StageDuration{}, true
		}
		end := o.UpdatedAt
		if end.IsZero() || end.Before(o.CreatedAt) {
			end = o.CreatedAt
		}
		return []StageDuration{{
			Stage:       o.Stage,
			Days:        end.Sub(o.CreatedAt).Hours() / 24,
			Approximate: true,
		}}, true
	}

	perStage := make(map[models.Stage]float64)
	for i, entry := range o.StageHistory {
		if entry.Stage.IsTerminal() {
			continue
		}
		var end time.Time
		switch {
		case i+1 < len(o.StageHistory):
			end = o.StageHistory[i+1].MovedAt
		case o.Stage.IsTerminal():
			end = entry.MovedAt
		default:
			end = now
		}
		days := 0.0
		if end.After(entry.MovedAt) {
			days = end.Sub(entry.MovedAt).Hours() / 24
		}
		perStage[entry.Stage] += days
	}

	durations := make([]StageDuration, 0, len(perStage))
	for _, s := range models.OpenStages {
		if days, ok := perStage[s]; ok {
			durations = append(durations, StageDuration{Stage: s, Days: round1(days)})
		}
	}
	return durations, false
}

// CalculatePipelineVelocity aggregates stage statistics across a set of
// opportunities. A stage nobody entered has count 0, conversion 0 and a
// velocity score of 0.
func CalculatePipelineVelocity(opps []models.Opportunity, now time.Time) PipelineVelocity {
	result := PipelineVelocity{
		Opportunities: len(opps),
		LostReasons:   make(map[string]int),
		Trend:         TrendInsufficientData,
	}

	type stageAgg struct {
		entered   int
		converted int
		days      float64
		measured  int
	}
	aggs := make(map[models.Stage]*stageAgg, len(models.OpenStages))
	for _, s := range models.OpenStages {
		aggs[s] = &stageAgg{}
	}

	var cycleDays float64
	recentStart := now.AddDate(0, 0, -TrendWindowDays)
	previousStart := now.AddDate(0, 0, -2*TrendWindowDays)
	var recentSum, previousSum float64
	var recentN, previousN int

	for _, opp := range opps {
		o := opp.Normalized()
		velocity := CalculateDealVelocity(o, now)

		entered, maxRank := enteredStages(o)
		for _, s := range entered {
			agg := aggs[s]
			agg.entered++
			if maxRank > s.Rank() {
				agg.converted++
			}
		}
		for _, d := range velocity.StageDurations {
			if agg, ok := aggs[d.Stage]; ok {
				agg.days += d.Days
				agg.measured++
			}
		}

		switch o.Stage {
		case models.StageWon:
			result.WonCount++
			cycleDays += wonCycleDays(o)
		case models.StageLost:
			result.LostCount++
			for _, lr := range o.LostReasons {
				result.LostReasons[models.NormalizeLostCategory(lr.Category)]++
			}
		}

		switch {
		case o.CreatedAt.IsZero() || o.CreatedAt.After(now):
		case !o.CreatedAt.Before(recentStart):
			recentSum += float64(velocity.Score)
			recentN++
		case !o.CreatedAt.Before(previousStart):
			previousSum += float64(velocity.Score)
			previousN++
		}
	}

	for _, s := range models.OpenStages {
		agg := aggs[s]
		m := StageMetrics{
			Stage:        s,
			Count:        agg.entered,
			ExpectedDays: ExpectedStageDays[s],
		}
		if agg.entered > 0 {
			m.ConversionRate = round1(float64(agg.converted) / float64(agg.entered) * 100)
		}
		if agg.measured > 0 {
			avg := agg.days / float64(agg.measured)
			m.AverageDays = round1(avg)
			m.VelocityScore = VelocityScoreForRatio(avg / float64(m.ExpectedDays))
		}
		result.Stages = append(result.Stages, m)
	}

	if closed := result.WonCount + result.LostCount; closed > 0 {
		result.WinRate = round1(float64(result.WonCount) / float64(closed) * 100)
	}
	if result.WonCount > 0 {
		result.AverageCycleDays = round1(cycleDays / float64(result.WonCount))
	}

	if recentN > 0 && previousN > 0 {
		result.RecentAverageScore = round1(recentSum / float64(recentN))
		result.PreviousAverageScore = round1(previousSum / float64(previousN))
		diff := result.RecentAverageScore - result.PreviousAverageScore
		switch {
		case diff > TrendThreshold:
			result.Trend = TrendAccelerating
		case diff < -TrendThreshold:
			result.Trend = TrendSlowing
		default:
			result.Trend = TrendSteady
		}
	}

	return result
}

// enteredStages lists the open stages an opportunity has been in and the
// highest rank it reached. Without history only the current stage counts.
func enteredStages(o models.Opportunity) ([]models.Stage, int) {
	seen := make(map[models.Stage]bool)
	maxRank := o.Stage.Rank()
	for _, entry := range o.StageHistory {
		seen[entry.Stage] = true
		if r := entry.Stage.Rank(); r > maxRank {
			maxRank = r
		}
	}
	if !o.Stage.IsTerminal() {
		seen[o.Stage] = true
	}

	var stages []models.Stage
	for _, s := range models.OpenStages {
		if seen[s] {
			stages = append(stages, s)
		}
	}
	return stages, maxRank
}

func wonCycleDays(o models.Opportunity) float64 {
	if o.CreatedAt.IsZero() {
		return 0
	}
	closedAt := o.UpdatedAt
	for _, entry := range o.StageHistory {
		if entry.Stage == models.StageWon {
			closedAt = entry.MovedAt
		}
	}
	if closedAt.Before(o.CreatedAt) {
		return 0
	}
	return closedAt.Sub(o.CreatedAt).Hours() / 24
}
