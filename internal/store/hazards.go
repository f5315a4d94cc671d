package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nyashahama/hazard-risk-engine/internal/db"
	"github.com/nyashahama/hazard-risk-engine/internal/scoring"
)

// ─── RESULT TYPES ─────────────────────────────────────────────────────────────

// CreatedRisk pairs a newly created risk with its hazard.
type CreatedRisk struct {
	HazardID uuid.UUID `json:"hazard_id"`
	RiskID   uuid.UUID `json:"risk_id"`
}

// AutoGenerateResult is returned by AutoGenerateRisks.
type AutoGenerateResult struct {
	PatientID    uuid.UUID     `json:"patient_id"`
	Message      string        `json:"message"`
	CreatedCount int           `json:"created_count"`
	Created      []CreatedRisk `json:"created"`
}

// ─── ERRORS ───────────────────────────────────────────────────────────────────

// ErrRiskNotFound is returned by UpdateRisk for an unknown risk id.
var ErrRiskNotFound = errors.New("store: risk not found")

// ─── METHODS ──────────────────────────────────────────────────────────────────

// MaterializeHazards records one Hazard per distinct clinical identifier in
// refs and returns every Hazard the patient has. Social refs and refs without
// a target are skipped. Calling it twice with the same refs changes nothing.
func (s *Store) MaterializeHazards(ctx context.Context, patientID uuid.UUID, refs []scoring.HazardRef) ([]db.Hazard, error) {
	var hazards []db.Hazard

	err := s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		if err := materialize(ctx, q, patientID, refs); err != nil {
			return err
		}
		rows, err := q.ListHazardsByPatient(ctx, patientID)
		if err != nil {
			return fmt.Errorf("MaterializeHazards: list hazards: %w", err)
		}
		hazards = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hazards, nil
}

// AutoGenerateRisks materializes hazards from refs and then creates an
// unscored Risk for every Hazard of the patient that has none, all in one
// transaction.
func (s *Store) AutoGenerateRisks(ctx context.Context, patientID uuid.UUID, refs []scoring.HazardRef) (AutoGenerateResult, error) {
	res := AutoGenerateResult{PatientID: patientID, Created: []CreatedRisk{}}

	err := s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		// 1. Registry.
		if err := materialize(ctx, q, patientID, refs); err != nil {
			return err
		}

		// 2. Hazards still lacking a risk row.
		pending, err := q.ListHazardsWithoutRisk(ctx, patientID)
		if err != nil {
			return fmt.Errorf("AutoGenerateRisks: list hazards without risk: %w", err)
		}

		// 3. One unscored risk each. A conflict means a concurrent caller won.
		for _, h := range pending {
			risk, err := q.CreateRiskIfAbsent(ctx, db.CreateRiskIfAbsentParams{
				HazardID:  h.ID,
				PatientID: patientID,
			})
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			if err != nil {
				return fmt.Errorf("AutoGenerateRisks: create risk for %s: %w", h.HazardType, err)
			}
			res.Created = append(res.Created, CreatedRisk{HazardID: h.ID, RiskID: risk.ID})
		}
		return nil
	})
	if err != nil {
		return AutoGenerateResult{}, err
	}

	res.CreatedCount = len(res.Created)
	res.Message = fmt.Sprintf("Generated %d risk records.", res.CreatedCount)
	return res, nil
}

// UpdateRisk applies a partial rating update. The score is recomputed from the
// merged factors; it is never taken from the caller.
func (s *Store) UpdateRisk(ctx context.Context, riskID uuid.UUID, u scoring.RatingUpdate) (db.Risk, error) {
	if err := u.Validate(); err != nil {
		return db.Risk{}, fmt.Errorf("UpdateRisk: %w", err)
	}

	var updated db.Risk

	err := s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		cur, err := q.GetRiskByID(ctx, riskID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRiskNotFound
		}
		if err != nil {
			return fmt.Errorf("UpdateRisk: get risk: %w", err)
		}

		next := scoring.ApplyRatingUpdate(scoring.Rating{
			Severity:   FloatPtr(cur.Severity),
			Likelihood: IntPtr(cur.Likelihood),
			RiskScore:  FloatPtr(cur.RiskScore),
			Notes:      StringPtr(cur.Notes),
		}, u)

		updated, err = q.UpdateRiskRating(ctx, db.UpdateRiskRatingParams{
			ID:         riskID,
			Severity:   nullFloatPtr(next.Severity),
			Likelihood: nullInt32Ptr(next.Likelihood),
			RiskScore:  nullFloatPtr(next.RiskScore),
			Notes:      nullStringPtr(next.Notes),
		})
		if err != nil {
			return fmt.Errorf("UpdateRisk: update rating: %w", err)
		}
		return nil
	})

	if errors.Is(err, ErrRiskNotFound) {
		return db.Risk{}, ErrRiskNotFound
	}
	if err != nil {
		return db.Risk{}, err
	}
	return updated, nil
}

// materialize inserts the missing hazards for refs using q, which is expected
// to be bound to the caller's transaction.
func materialize(ctx context.Context, q db.Querier, patientID uuid.UUID, refs []scoring.HazardRef) error {
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if ref.Domain.Social() || !ref.Target.Valid() {
			continue
		}
		id := ref.Identifier()
		if seen[id] {
			continue
		}
		seen[id] = true

		_, err := q.CreateHazardIfAbsent(ctx, db.CreateHazardIfAbsentParams{
			PatientID:   patientID,
			HazardType:  id,
			Description: ref.Source(),
			Source:      string(ref.Domain),
		})
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("materialize hazard %s: %w", id, err)
		}
	}
	return nil
}
