// ABOUTME: Web UI server with embedded templates
// ABOUTME: Provides a read-only pipeline and outreach dashboard on localhost
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/harperreed/prospect/db"
	"github.com/harperreed/prospect/models"
	"github.com/harperreed/prospect/outreach"
	"github.com/harperreed/prospect/pipeline"
	"github.com/harperreed/prospect/viz"
)

//go:embed templates/*
var templatesFS embed.FS

type Server struct {
	tracker     *pipeline.Tracker
	outreachLog db.Store
	recent      int
	templates   *template.Template
	logger      *zap.Logger
}

func NewServer(tracker *pipeline.Tracker, outreachLog db.Store, recent int, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Helper functions for templates
	funcMap := template.FuncMap{
		"dollars": viz.FormatDollars,
		"label": func(s models.Stage) string {
			return s.Label()
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("2006-01-02 15:04")
		},
		"stageCount": func(byStage map[models.Stage]int, s models.Stage) int {
			return byStage[s]
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{
		tracker:     tracker,
		outreachLog: outreachLog,
		recent:      recent,
		templates:   tmpl,
		logger:      logger,
	}, nil
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /leads", s.handleLeads)
	mux.HandleFunc("GET /outreach", s.handleOutreach)
	mux.HandleFunc("GET /graphs", s.handleGraphs)
	mux.HandleFunc("GET /graphs/stages.dot", s.handleStagesDOT)

	// Partials for HTMX
	mux.HandleFunc("GET /partials/lead-detail", s.handleLeadDetail)
	return mux
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	server := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.ListenAndServe()
	}()
	s.logger.Info("web server started", zap.String("addr", addr))

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.tracker.Stats()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	status, err := outreach.Status(s.outreachLog, s.recent)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Stats":           stats,
		"Stages":          models.Stages,
		"Outreach":        status,
		"Title":           "Dashboard",
		"ContentTemplate": "dashboard-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data any) {
	// The data map includes ContentTemplate to pick the content block in layout.html
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleLeads(w http.ResponseWriter, r *http.Request) {
	stage := r.URL.Query().Get("stage")

	board, err := s.tracker.List(stage)
	if errors.Is(err, pipeline.ErrInvalidStage) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Board":           board,
		"Stages":          models.Stages,
		"Filter":          board.Filter,
		"Title":           "Leads",
		"ContentTemplate": "leads-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleLeadDetail(w http.ResponseWriter, r *http.Request) {
	company := r.URL.Query().Get("company")
	if company == "" {
		http.Error(w, "company is required", http.StatusBadRequest)
		return
	}

	lead, err := s.tracker.Find(company)
	if errors.Is(err, pipeline.ErrLeadNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "lead-detail.html", map[string]any{"Lead": lead})
}

func (s *Server) handleOutreach(w http.ResponseWriter, r *http.Request) {
	status, err := outreach.Status(s.outreachLog, s.recent)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Outreach":        status,
		"Title":           "Outreach",
		"ContentTemplate": "outreach-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleGraphs(w http.ResponseWriter, r *http.Request) {
	dot, err := s.stagesDOT(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"DOT":             dot,
		"Title":           "Graphs",
		"ContentTemplate": "graphs-content",
	}

	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleStagesDOT(w http.ResponseWriter, r *http.Request) {
	dot, err := s.stagesDOT(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	_, _ = fmt.Fprintln(w, dot)
}

func (s *Server) stagesDOT(ctx context.Context) (string, error) {
	doc, err := s.tracker.Load()
	if err != nil {
		return "", err
	}
	return viz.StageFlowGraph(ctx, doc.Leads)
}
