// Package api exposes KPIs, grouped rates and the processed dataset as JSON
// over a chi router.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"hrattrition/adapters/excel"
	"hrattrition/app"
	"hrattrition/domain/attrition"
	"hrattrition/internal/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Service is the JSON API
type Service struct {
	router    *chi.Mux
	dashboard *app.DashboardService
}

// DimensionInfo describes one analysis and whether the dataset carries it
type DimensionInfo struct {
	Key     attrition.DimensionKey `json:"key"`
	Column  string                 `json:"column"`
	Chart   attrition.ChartKind    `json:"chart"`
	Title   string                 `json:"title"`
	Present bool                   `json:"present"`
}

// DashboardResponse is the JSON form of a dashboard
type DashboardResponse struct {
	DatasetID   string                                            `json:"dataset_id"`
	Source      string                                            `json:"source"`
	LoadedAt    time.Time                                         `json:"loaded_at"`
	KPIs        attrition.KPISet                                  `json:"kpis"`
	Rates       map[attrition.DimensionKey]*attrition.GroupedRate `json:"rates"`
	Errors      map[attrition.DimensionKey]string                 `json:"errors,omitempty"`
	Insights    string                                            `json:"insights_markdown"`
	GeneratedAt time.Time                                         `json:"generated_at"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NewService creates the API router
func NewService(dashboard *app.DashboardService) *Service {
	s := &Service{
		router:    chi.NewRouter(),
		dashboard: dashboard,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Service) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Service) setupRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/kpis", s.handleKPIs)
		r.Get("/dimensions", s.handleDimensions)
		r.Get("/rates/{dimension}", s.handleRate)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/dataset.csv", s.handleDatasetCSV)
		r.Post("/reload", s.handleReload)
	})
}

// Handler exposes the router
func (s *Service) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is cancelled
func (s *Service) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[API] Shutdown error: %v", err)
		}
	}()

	log.Printf("[API] Listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Service) handleKPIs(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard.Build(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d.KPIs)
}

func (s *Service) handleDimensions(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dashboard.Dataset(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	dims := attrition.Dimensions()
	infos := make([]DimensionInfo, len(dims))
	for i, dim := range dims {
		infos[i] = DimensionInfo{
			Key:     dim.Key,
			Column:  dim.Column,
			Chart:   dim.Chart.Kind,
			Title:   dim.Chart.Title,
			Present: ds.HasColumn(dim.Column),
		}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Service) handleRate(w http.ResponseWriter, r *http.Request) {
	key := attrition.DimensionKey(chi.URLParam(r, "dimension"))
	rate, err := s.dashboard.Rate(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rate)
}

func (s *Service) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard.Build(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := DashboardResponse{
		DatasetID:   d.Dataset.ID.String(),
		Source:      d.Dataset.Source,
		LoadedAt:    d.Dataset.LoadedAt,
		KPIs:        d.KPIs,
		Rates:       d.Rates,
		Insights:    d.InsightsMarkdown,
		GeneratedAt: d.GeneratedAt,
	}
	for _, panel := range d.Panels {
		if panel.Error == "" {
			continue
		}
		if resp.Errors == nil {
			resp.Errors = make(map[attrition.DimensionKey]string)
		}
		resp.Errors[panel.Dimension.Key] = panel.Error
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleDatasetCSV(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dashboard.Dataset(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := excel.WriteCSV(&buf, ds); err != nil {
		writeError(w, errors.Wrap(err, "failed to write CSV"))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="HR Data.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Service) handleReload(w http.ResponseWriter, r *http.Request) {
	s.dashboard.Reload()
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[API] %v", err)
	}
	writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: errors.GetCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}
