// ABOUTME: Web UI server with embedded templates
// ABOUTME: Serves the pipeline dashboard at localhost:8080 with HTMX partials and quick follow-up logging
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/harperreed/dealpulse/db"
	"github.com/harperreed/dealpulse/insights"
	"github.com/harperreed/dealpulse/models"
	"github.com/harperreed/dealpulse/scoring"
	"github.com/harperreed/dealpulse/viz"
)

//go:embed templates/*
var templatesFS embed.FS

type Server struct {
	svc       *insights.Service
	templates *template.Template
	logger    *log.Logger
}

func NewServer(svc *insights.Service, logger *log.Logger) (*Server, error) {
	// Helper functions for templates
	funcMap := template.FuncMap{
		"money": func(v float64) string {
			return fmt.Sprintf("$%.0f", v)
		},
		"percent": func(v float64) string {
			return fmt.Sprintf("%.0f%%", v*100)
		},
		"date": func(t time.Time) string {
			return t.Format("Mon Jan 2")
		},
		"short": func(id uuid.UUID) string {
			return id.String()[:8]
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{
		svc:       svc,
		templates: tmpl,
		logger:    logger,
	}, nil
}

// Handler returns the routes without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /deals", s.handleDeals)
	mux.HandleFunc("GET /hygiene", s.handleHygiene)
	mux.HandleFunc("GET /churn", s.handleChurn)
	mux.HandleFunc("GET /graphs", s.handleGraphs)

	// Partials for HTMX
	mux.HandleFunc("GET /partials/deal-detail", s.handleDealDetail)
	mux.HandleFunc("GET /partials/graph", s.handleGraphPartial)
	mux.HandleFunc("POST /followups/log/{id}", s.handleFollowupLog)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboardJSON)
	return mux
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	// Execute the specified template (usually layout.html)
	// The data map includes ContentTemplate to specify which content block to render
	err := s.templates.ExecuteTemplate(w, name, data)
	if err != nil {
		s.logger.Error("template error", "template", name, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.svc.Dashboard(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Dashboard":       dashboard,
		"Title":           "Dashboard",
		"ContentTemplate": "dashboard-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleDashboardJSON(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.svc.Dashboard(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(dashboard); err != nil {
		s.logger.Error("failed to encode dashboard", "err", err)
	}
}

func (s *Server) handleDeals(w http.ResponseWriter, r *http.Request) {
	stage := r.URL.Query().Get("stage")

	deals, err := s.svc.RankDeals(r.Context(), 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Filter by stage if specified
	if stage != "" {
		parsed, ok := models.ParseStage(stage)
		if !ok {
			http.Error(w, "Invalid stage", http.StatusBadRequest)
			return
		}
		filtered := deals[:0]
		for _, d := range deals {
			if d.Opportunity.Stage == parsed {
				filtered = append(filtered, d)
			}
		}
		deals = filtered
	}

	data := map[string]interface{}{
		"Deals":           deals,
		"Stage":           stage,
		"Stages":          models.OpenStages,
		"Title":           "Deals",
		"ContentTemplate": "deals-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleHygiene(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.Hygiene(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	archived, err := s.svc.ListOpportunities(r.Context(), db.OpportunityFilter{ArchivedOnly: true, Limit: 50})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Hygiene":         result,
		"Archived":        archived,
		"Title":           "Hygiene",
		"ContentTemplate": "hygiene-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleChurn(w http.ResponseWriter, r *http.Request) {
	risks, err := s.svc.ChurnWatchlist(r.Context(), 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Risks":           risks,
		"Title":           "Churn",
		"ContentTemplate": "churn-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleDealDetail(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	// Viewing a deal does not store a snapshot, so use the read-only paths.
	opp, err := s.svc.GetOpportunity(r.Context(), id)
	if err != nil {
		if errors.Is(err, insights.ErrOpportunityNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	prediction, err := s.svc.NextAction(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	history, err := s.svc.ScoreHistory(r.Context(), id, 10)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Deal":       opp,
		"NextAction": prediction,
		"History":    history,
	}

	s.renderTemplate(w, "partials/deal-detail.html", data)
}

func (s *Server) handleGraphs(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Title":           "Graphs",
		"ContentTemplate": "graphs-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleGraphPartial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	graphType := r.URL.Query().Get("type")

	var dot string
	var err error

	switch graphType {
	case "pipeline":
		var velocity *scoring.PipelineVelocity
		velocity, err = s.svc.PipelineVelocity(ctx)
		if err == nil {
			dot, err = viz.GenerateStageFlowGraph(ctx, *velocity)
		}

	case "accounts":
		customers, cErr := s.svc.ListCustomers(ctx)
		if cErr != nil {
			http.Error(w, cErr.Error(), http.StatusInternalServerError)
			return
		}
		opps, oErr := s.svc.ListOpportunities(ctx, db.OpportunityFilter{IncludeArchived: true})
		if oErr != nil {
			http.Error(w, oErr.Error(), http.StatusInternalServerError)
			return
		}
		dot, err = viz.GenerateAccountGraph(ctx, customers, opps)

	default:
		http.Error(w, "Invalid graph type", http.StatusBadRequest)
		return
	}

	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"DOT": dot,
	}

	s.renderTemplate(w, "partials/graph.html", data)
}

func (s *Server) handleFollowupLog(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid opportunity ID", http.StatusBadRequest)
		return
	}

	opp, err := s.svc.GetOpportunity(r.Context(), id)
	if err != nil {
		if errors.Is(err, insights.ErrOpportunityNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	interaction := &models.Interaction{
		OpportunityID: &opp.ID,
		CustomerID:    opp.CustomerID,
		Type:          models.InteractionMessage,
		Notes:         "Quick touch via web UI",
	}

	if err := s.svc.LogInteraction(r.Context(), interaction); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	_, err = w.Write([]byte(`<td colspan="6" class="px-4 py-3 text-green-600">✓ Interaction logged</td>`))
	if err != nil {
		s.logger.Error("error writing response", "err", err)
	}
}
