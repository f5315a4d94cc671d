package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/nyashahama/hazard-risk-engine/internal/db"
	"github.com/nyashahama/hazard-risk-engine/internal/scoring"
	"github.com/nyashahama/hazard-risk-engine/internal/store"
	"github.com/nyashahama/hazard-risk-engine/internal/taxonomy"
)

// errReadOnly is returned by write operations on an Engine built without a
// Store.
var errReadOnly = errors.New("engine: no store configured")

// DeriveHazards maps the patient's latest assessments to hazard references.
// References whose rule has no target are logged and kept in the output so
// callers can inspect them; the registry ignores them.
func (e *Engine) DeriveHazards(ctx context.Context, patientID uuid.UUID) ([]scoring.HazardRef, error) {
	refs, _, err := e.derive(ctx, patientID)
	return refs, err
}

// MaterializeHazards derives hazards and records the clinical ones.
func (e *Engine) MaterializeHazards(ctx context.Context, patientID uuid.UUID) ([]db.Hazard, error) {
	if e.store == nil {
		return nil, errReadOnly
	}
	refs, _, err := e.derive(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return e.store.MaterializeHazards(ctx, patientID, refs)
}

// AutoGenerateRisks materializes hazards and creates an unscored risk for
// every hazard that lacks one.
func (e *Engine) AutoGenerateRisks(ctx context.Context, patientID uuid.UUID) (store.AutoGenerateResult, error) {
	if e.store == nil {
		return store.AutoGenerateResult{}, errReadOnly
	}
	refs, _, err := e.derive(ctx, patientID)
	if err != nil {
		return store.AutoGenerateResult{}, err
	}
	res, err := e.store.AutoGenerateRisks(ctx, patientID, refs)
	if err != nil {
		return store.AutoGenerateResult{}, err
	}
	e.logger.Info("risks generated", "patient_id", patientID, "created", res.CreatedCount)
	return res, nil
}

// AutoGenerateSocialRisks records one social risk per distinct social hazard
// derived from the patient's latest PRAPARE answers.
func (e *Engine) AutoGenerateSocialRisks(ctx context.Context, patientID uuid.UUID) (store.SocialAutoGenerateResult, error) {
	if e.store == nil {
		return store.SocialAutoGenerateResult{}, errReadOnly
	}
	refs, cat, err := e.derive(ctx, patientID)
	if err != nil {
		return store.SocialAutoGenerateResult{}, err
	}
	res, err := e.store.AutoGenerateSocialRisks(ctx, patientID, SocialHazards(cat.SocialHazards, refs))
	if err != nil {
		return store.SocialAutoGenerateResult{}, err
	}
	e.logger.Info("social risks generated",
		"patient_id", patientID,
		"created", res.CreatedCount,
		"updated", res.UpdatedCount,
	)
	return res, nil
}

// UpdateRisk applies a partial rating update to a clinical risk.
func (e *Engine) UpdateRisk(ctx context.Context, riskID uuid.UUID, u scoring.RatingUpdate) (db.Risk, error) {
	if e.store == nil {
		return db.Risk{}, errReadOnly
	}
	return e.store.UpdateRisk(ctx, riskID, u)
}

// UpdateSocialRisk applies a partial rating update to a social risk.
func (e *Engine) UpdateSocialRisk(ctx context.Context, id uuid.UUID, u scoring.RatingUpdate) (db.SocialRisk, error) {
	if e.store == nil {
		return db.SocialRisk{}, errReadOnly
	}
	return e.store.UpdateSocialRisk(ctx, id, u)
}

// SocialHazards turns the PRAPARE references into distinct social hazards with
// labels from the social tree, in first-seen order.
func SocialHazards(tree *taxonomy.Tree, refs []scoring.HazardRef) []store.SocialHazard {
	var out []store.SocialHazard
	seen := make(map[string]bool)
	for _, ref := range refs {
		if !ref.Domain.Social() || !ref.Target.Valid() {
			continue
		}
		code := ref.Identifier()
		if seen[code] {
			continue
		}
		seen[code] = true

		h := store.SocialHazard{Code: code, Kind: ref.Target.Kind()}
		switch h.Kind {
		case taxonomy.TargetSubclass:
			if sub, ok := tree.Subclass(code); ok {
				h.Label, h.Description = sub.Label, sub.Description
			}
		case taxonomy.TargetClass:
			if c, ok := tree.Class(code); ok {
				h.Label, h.Description = c.Label, c.Description
			}
		}
		if h.Label == "" {
			h.Label = code
		}
		out = append(out, h)
	}
	return out
}

func (e *Engine) derive(ctx context.Context, patientID uuid.UUID) ([]scoring.HazardRef, *taxonomy.Catalog, error) {
	cat, err := e.Catalog(ctx)
	if err != nil {
		return nil, nil, err
	}
	a, err := e.LoadAssessments(ctx, patientID)
	if err != nil {
		return nil, nil, err
	}

	refs := scoring.DeriveHazards(cat, a)
	for _, r := range refs {
		if !r.Target.Valid() {
			e.logger.Warn("hazard rule without target",
				"patient_id", patientID,
				"domain", r.Domain,
				"source", r.Source(),
			)
		}
	}
	return refs, cat, nil
}
