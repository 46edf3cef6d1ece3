// ABOUTME: Shared fixtures for scoring tests
// ABOUTME: Fixed reference time and small builders for opportunities and interactions
package scoring

import (
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/models"
)

// testNow is a Wednesday.
var testNow = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return testNow.AddDate(0, 0, -n)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func newOpportunity(stage models.Stage, value float64) models.Opportunity {
	return models.Opportunity{
		ID:        uuid.New(),
		Title:     "Test Deal",
		Value:     value,
		Stage:     stage,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
}

func interactionsAt(days ...int) []models.Interaction {
	out := make([]models.Interaction, 0, len(days))
	for _, d := range days {
		out = append(out, models.Interaction{
			ID:        uuid.New(),
			Type:      models.InteractionCall,
			CreatedAt: daysAgo(d),
		})
	}
	return out
}
