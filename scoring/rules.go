// ABOUTME: Shared building blocks for the scoring modules
// ABOUTME: Priority ranking, band tables, rule lists and integer rounding helpers
package scoring

import (
	"math"
	"sort"
)

// Priority is the urgency attached to a recommendation or suggestion.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank orders priorities, higher is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

type Recommendation struct {
	Type        string   `json:"type"`
	Priority    Priority `json:"priority"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

// SortRecommendations orders by priority, keeping rule order for ties.
func SortRecommendations(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.Rank() > recs[j].Priority.Rank()
	})
}

// rule pairs a predicate with the recommendation it produces. Rules in a
// list are independent and may all fire.
type rule[C any] struct {
	when  func(C) bool
	build func(C) Recommendation
}

func applyRules[C any](rules []rule[C], c C) []Recommendation {
	recs := []Recommendation{}
	for _, r := range rules {
		if r.when(c) {
			recs = append(recs, r.build(c))
		}
	}
	SortRecommendations(recs)
	return recs
}

// Band maps an inclusive lower bound to a score. Tables are ordered by
// descending Min and the first match wins.
type Band struct {
	Min   int
	Score int
}

func bandScore(bands []Band, v int, fallback int) int {
	for _, b := range bands {
		if v >= b.Min {
			return b.Score
		}
	}
	return fallback
}

// weightedScore combines integer sub-scores with integer percentage weights
// and rounds half up. Weights are expected to sum to 100.
func weightedScore(parts ...[2]int) int {
	sum := 0
	for _, p := range parts {
		sum += p[0] * p[1]
	}
	return roundDiv(sum, 100)
}

func roundDiv(n, d int) int {
	if n < 0 {
		return -roundDiv(-n, d)
	}
	return (n + d/2) / d
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
