// ABOUTME: Tests for the web UI server
// ABOUTME: Exercises pages, HTMX partials and the JSON endpoint through httptest
package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
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

var testNow = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

func setupTestServer(t *testing.T) (*Server, *insights.Service, *models.Opportunity) {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "web.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	svc := insights.NewService(database, insights.FixedClock{T: testNow}, log.New(io.Discard))
	ctx := context.Background()

	customer := &models.Customer{Name: "Acme Corp"}
	require.NoError(t, svc.AddCustomer(ctx, customer))
	opp := &models.Opportunity{
		Title:       "Acme Renewal",
		Value:       20000,
		Stage:       models.StageProposal,
		Probability: 60,
		CustomerID:  &customer.ID,
	}
	require.NoError(t, svc.CreateOpportunity(ctx, opp))

	server, err := NewServer(svc, log.New(io.Discard))
	require.NoError(t, err)
	return server, svc, opp
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestPages(t *testing.T) {
	server, _, _ := setupTestServer(t)
	h := server.Handler()

	tests := []struct {
		path     string
		contains []string
	}{
		{"/", []string{"Dashboard", "Acme Renewal", "Pipeline velocity", "Win rate"}},
		{"/deals", []string{"Acme Renewal", "proposal", "All open stages"}},
		{"/deals?stage=proposal", []string{"Acme Renewal"}},
		{"/deals?stage=lead", []string{"No deals found"}},
		{"/hygiene", []string{"Nothing archived"}},
		{"/churn", []string{"Acme Corp"}},
		{"/graphs", []string{"Pipeline flow"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, h, tt.path)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			for _, want := range tt.contains {
				assert.Contains(t, rec.Body.String(), want)
			}
		})
	}
}

func TestBadRequests(t *testing.T) {
	server, _, _ := setupTestServer(t)
	h := server.Handler()

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/deals?stage=limbo").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/partials/deal-detail?id=nope").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/partials/deal-detail?id=00000000-0000-0000-0000-000000000001").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/partials/graph?type=contacts").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/contacts").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, get(t, h, "/followups/log/abc").Code)
}

func TestDealDetailPartial(t *testing.T) {
	server, svc, opp := setupTestServer(t)
	h := server.Handler()

	rec := get(t, h, "/partials/deal-detail?id="+opp.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Acme Renewal")
	assert.Contains(t, rec.Body.String(), "Not scored yet")

	_, err := svc.ScoreOpportunity(context.Background(), opp.ID)
	require.NoError(t, err)

	rec = get(t, h, "/partials/deal-detail?id="+opp.ID.String())
	assert.Contains(t, rec.Body.String(), "2025-03-12 10:00")
}

func TestGraphPartial(t *testing.T) {
	server, _, _ := setupTestServer(t)
	h := server.Handler()

	rec := get(t, h, "/partials/graph?type=pipeline")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "negotiation")

	rec = get(t, h, "/partials/graph?type=accounts")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Acme Corp")
}

func TestFollowupLog(t *testing.T) {
	server, svc, opp := setupTestServer(t)
	h := server.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/followups/log/"+opp.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Interaction logged")

	prediction, err := svc.NextAction(context.Background(), opp.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, prediction.Context.InteractionCount)
	assert.Equal(t, 0, prediction.Context.DaysSinceLastContact)
}

func TestDashboardJSON(t *testing.T) {
	server, _, _ := setupTestServer(t)

	rec := get(t, server.Handler(), "/api/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var decoded insights.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	require.Len(t, decoded.TopDeals, 1)
	assert.Equal(t, "Acme Renewal", decoded.TopDeals[0].Opportunity.Title)
	assert.Empty(t, decoded.Errors)
}
