// Package api implements the HTTP layer of the hazard risk engine. Handlers
// are methods on *Server; each handler file covers one resource group.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nyashahama/hazard-risk-engine/internal/db"
	"github.com/nyashahama/hazard-risk-engine/internal/scoring"
	"github.com/nyashahama/hazard-risk-engine/internal/store"
	"github.com/nyashahama/hazard-risk-engine/internal/worker"
)

// Config holds values read from the environment at startup.
type Config struct {
	// Env is "production", "staging", or "development".
	Env string

	// RequestTimeout bounds every request. Zero means 30s.
	RequestTimeout time.Duration
}

// Engine is the slice of *engine.Engine the handlers use.
type Engine interface {
	LoadAssessments(ctx context.Context, patientID uuid.UUID) (scoring.Assessments, error)
	DeriveHazards(ctx context.Context, patientID uuid.UUID) ([]scoring.HazardRef, error)
	MaterializeHazards(ctx context.Context, patientID uuid.UUID) ([]db.Hazard, error)
	AutoGenerateRisks(ctx context.Context, patientID uuid.UUID) (store.AutoGenerateResult, error)
	AutoGenerateSocialRisks(ctx context.Context, patientID uuid.UUID) (store.SocialAutoGenerateResult, error)
	UpdateRisk(ctx context.Context, riskID uuid.UUID, u scoring.RatingUpdate) (db.Risk, error)
	UpdateSocialRisk(ctx context.Context, id uuid.UUID, u scoring.RatingUpdate) (db.SocialRisk, error)
	GetRecommendations(ctx context.Context, patientID uuid.UUID) (scoring.Recommendations, error)
	FilterSelected(ctx context.Context, patientID uuid.UUID, rec scoring.Recommendations) (scoring.Recommendations, error)
	SelectedRecommendations(ctx context.Context, patientID uuid.UUID) (scoring.Recommendations, error)
}

// Store is the slice of *store.Store the handlers use directly.
type Store interface {
	SaveRecommendationSettings(ctx context.Context, patientID uuid.UUID, settings []store.RecommendationSetting) ([]db.RecommendationSetting, error)
	ReadyReport(ctx context.Context, reportID uuid.UUID) (db.RecommendationReport, error)
}

// Server holds all shared dependencies. Each handler file attaches methods to
// this type and uses only the fields it needs.
type Server struct {
	// q handles all single-query reads and inserts.
	q db.Querier

	// engine runs the hazard/risk/recommendation pipeline.
	engine Engine

	// store handles multi-step atomic writes the engine does not cover.
	store Store

	// worker generates reports in the background.
	worker worker.Enqueuer

	cfg    Config
	logger *slog.Logger
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to serve.
func NewServer(
	q db.Querier,
	eng Engine,
	st Store,
	enqueuer worker.Enqueuer,
	cfg Config,
	logger *slog.Logger,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	s := &Server{
		q:      q,
		engine: eng,
		store:  st,
		worker: enqueuer,
		cfg:    cfg,
		logger: logger,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// ── API ───────────────────────────────────────────────────────────────────
	r.Route("/api", func(r chi.Router) {
		r.Post("/patients", s.handleCreatePatient)

		// Patient-scoped routes; requirePatient answers 400/404 first.
		r.Route("/patients/{patientID}", func(r chi.Router) {
			r.Use(s.requirePatient)
			r.Get("/", s.handleGetPatient)

			r.Post("/assessments/adl", s.handleCreateADL)
			r.Post("/assessments/iadl", s.handleCreateIADL)
			r.Post("/assessments/history", s.handleCreateHistory)
			r.Post("/assessments/prapare", s.handleCreatePRAPARE)
			r.Get("/assessments/latest", s.handleLatestAssessments)

			r.Get("/hazards", s.handleListHazards)
			r.Get("/hazards/derived", s.handleDeriveHazards)
			r.Post("/hazards", s.handleMaterializeHazards)

			r.Get("/risks", s.handleListRisks)
			r.Post("/risks/auto-generate", s.handleAutoGenerateRisks)
			r.Get("/social-risks", s.handleListSocialRisks)
			r.Post("/social-risks/auto-generate", s.handleAutoGenerateSocialRisks)

			r.Get("/recommendations", s.handleGetRecommendations)
			r.Get("/recommendations/settings", s.handleListSettings)
			r.Put("/recommendations/settings", s.handleSaveSettings)

			r.Post("/reports", s.handleCreateReport)
		})

		r.Patch("/risks/{riskID}", s.handleUpdateRisk)
		r.Patch("/social-risks/{socialRiskID}", s.handleUpdateSocialRisk)

		r.Get("/reports/{reportID}", s.handleGetReport)
		r.Get("/reports/{reportID}/document.md", s.handleReportMarkdown)
		r.Get("/reports/{reportID}/document.xlsx", s.handleReportXLSX)

		r.Get("/codes/{domain}", s.handleListCodes)
	})

	return r
}
