package main

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/dealpulse/db"
	"github.com/harperreed/dealpulse/insights"
	"github.com/harperreed/dealpulse/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedPopulatesEveryReport(t *testing.T) {
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	defer func() { _ = database.Close() }()

	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	clock := &replayClock{t: now}
	svc := insights.NewService(database, clock, log.New(io.Discard))
	ctx := context.Background()

	counts, err := seed(ctx, svc, clock, now)
	require.NoError(t, err)
	assert.Equal(t, len(demoCustomers), counts.customers)
	assert.Equal(t, len(demoDeals), counts.opportunities)
	assert.Equal(t, len(demoPayments), counts.payments)
	assert.Equal(t, now, clock.Now())

	velocity, err := svc.PipelineVelocity(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, velocity.WonCount)
	assert.Equal(t, 1, velocity.LostCount)
	assert.Equal(t, 1, velocity.LostReasons[models.LostPrice])

	hygiene, err := svc.Hygiene(ctx)
	require.NoError(t, err)
	var flagged []string
	for _, f := range hygiene.Analysis.Flagged {
		flagged = append(flagged, f.Title)
	}
	assert.Contains(t, flagged, "Umbrella Security Audit")
	assert.Contains(t, flagged, "Globex Pilot")
	assert.NotContains(t, flagged, "Initech Expansion")
	assert.Equal(t, 1, hygiene.Report.ArchiveCandidates)

	ranked, err := svc.RankDeals(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, ranked, 6)

	watchlist, err := svc.ChurnWatchlist(ctx, 0)
	require.NoError(t, err)
	require.Len(t, watchlist, len(demoCustomers))
	assert.Equal(t, "Globex", watchlist[0].CustomerName)
}
