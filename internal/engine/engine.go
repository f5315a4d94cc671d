// Package engine is the request-scoped entry point of the hazard/risk/
// recommendation pipeline. Every call reads fresh state: the reference
// catalog, the latest assessments and the current ratings. Nothing is cached
// between calls.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nyashahama/hazard-risk-engine/internal/db"
	"github.com/nyashahama/hazard-risk-engine/internal/scoring"
	"github.com/nyashahama/hazard-risk-engine/internal/store"
	"github.com/nyashahama/hazard-risk-engine/internal/taxonomy"
)

// ErrNoSelectedServices is returned by SelectedRecommendations when the
// patient has no selected service that is still recommended.
var ErrNoSelectedServices = errors.New("engine: no selected services")

// Engine wires the pure scoring package to the database.
type Engine struct {
	q      db.Querier
	store  *store.Store
	logger *slog.Logger
}

// New creates an Engine. st may be nil for read-only use (recommend, export).
func New(q db.Querier, st *store.Store, logger *slog.Logger) *Engine {
	return &Engine{q: q, store: st, logger: logger}
}

// Catalog loads the reference data for one call.
func (e *Engine) Catalog(ctx context.Context) (*taxonomy.Catalog, error) {
	return store.LoadCatalog(ctx, e.q)
}

// ─── RECOMMENDATIONS ──────────────────────────────────────────────────────────

// GetRecommendations resolves every active hazard of the patient to services
// and aggregates them by service class.
func (e *Engine) GetRecommendations(ctx context.Context, patientID uuid.UUID) (scoring.Recommendations, error) {
	cat, err := e.Catalog(ctx)
	if err != nil {
		return scoring.Recommendations{}, err
	}
	active, err := e.ActiveHazards(ctx, patientID)
	if err != nil {
		return scoring.Recommendations{}, err
	}

	rec := scoring.Aggregate(scoring.NewResolver(cat), active)
	rec.PatientID = patientID.String()

	e.logger.Debug("recommendations computed",
		"patient_id", patientID,
		"active_hazards", len(active),
		"services", rec.TotalServices,
	)
	return rec, nil
}

// FilterSelected keeps only the services the clinician selected in the
// patient's recommendation settings.
func (e *Engine) FilterSelected(ctx context.Context, patientID uuid.UUID, rec scoring.Recommendations) (scoring.Recommendations, error) {
	settings, err := e.q.ListSelectedRecommendationSettings(ctx, patientID)
	if err != nil {
		return scoring.Recommendations{}, fmt.Errorf("list selected settings: %w", err)
	}
	allow := make(map[string]bool, len(settings))
	for _, s := range settings {
		allow[scoring.SelectionKey(s.HazardCode, s.ServiceDescription)] = true
	}
	return scoring.FilterSelected(rec, allow), nil
}

// SelectedRecommendations is GetRecommendations followed by FilterSelected.
// It returns ErrNoSelectedServices when nothing survives the filter.
func (e *Engine) SelectedRecommendations(ctx context.Context, patientID uuid.UUID) (scoring.Recommendations, error) {
	rec, err := e.GetRecommendations(ctx, patientID)
	if err != nil {
		return scoring.Recommendations{}, err
	}
	filtered, err := e.FilterSelected(ctx, patientID, rec)
	if err != nil {
		return scoring.Recommendations{}, err
	}
	if filtered.TotalServices == 0 {
		return filtered, ErrNoSelectedServices
	}
	return filtered, nil
}

// ActiveHazards returns the clinical hazards that have a risk row and the
// social risks with a positive score.
func (e *Engine) ActiveHazards(ctx context.Context, patientID uuid.UUID) ([]scoring.ActiveHazard, error) {
	var (
		risks  []db.ListRisksByPatientRow
		social []db.SocialRisk
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := e.q.ListRisksByPatient(gctx, patientID)
		if err != nil {
			return fmt.Errorf("list risks: %w", err)
		}
		risks = rows
		return nil
	})
	g.Go(func() error {
		rows, err := e.q.ListSocialRisksByPatient(gctx, patientID)
		if err != nil {
			return fmt.Errorf("list social risks: %w", err)
		}
		social = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	active := make([]scoring.ActiveHazard, 0, len(risks)+len(social))
	for _, r := range risks {
		h := scoring.ActiveHazard{
			Code:       r.HazardType,
			Type:       r.HazardSource,
			Severity:   store.FloatPtr(r.Severity),
			Likelihood: store.IntPtr(r.Likelihood),
			RiskScore:  r.RiskScore.Float64,
			Notes:      r.Notes.String,
		}
		switch taxonomy.Domain(r.HazardSource) {
		case taxonomy.DomainSx, taxonomy.DomainDx, taxonomy.DomainRx:
			h.DiagnosisCode = r.HazardDescription
		default:
			h.Item = r.HazardDescription
		}
		active = append(active, h)
	}
	for _, s := range social {
		if !s.RiskScore.Valid || s.RiskScore.Float64 <= 0 {
			continue
		}
		active = append(active, scoring.ActiveHazard{
			Code:       s.SocialHazardCode,
			Social:     true,
			SocialKind: parseKind(s.SocialHazardType),
			Type:       scoring.HazardTypeSocial,
			Item:       s.SocialHazardLabel,
			Severity:   store.FloatPtr(s.Severity),
			Likelihood: store.IntPtr(s.Likelihood),
			RiskScore:  s.RiskScore.Float64,
			Notes:      s.Notes.String,
		})
	}
	return active, nil
}

func parseKind(s string) taxonomy.TargetKind {
	switch s {
	case taxonomy.TargetSubclass.String():
		return taxonomy.TargetSubclass
	case taxonomy.TargetClass.String():
		return taxonomy.TargetClass
	default:
		return taxonomy.TargetNone
	}
}
