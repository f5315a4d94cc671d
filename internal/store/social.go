package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nyashahama/hazard-risk-engine/internal/db"
	"github.com/nyashahama/hazard-risk-engine/internal/scoring"
	"github.com/nyashahama/hazard-risk-engine/internal/taxonomy"
)

// SocialHazard is one distinct social hazard code derived from PRAPARE, with
// the labels taken from the social hazard tree.
type SocialHazard struct {
	Code        string
	Kind        taxonomy.TargetKind
	Label       string
	Description string
}

// SocialAutoGenerateResult is returned by AutoGenerateSocialRisks.
type SocialAutoGenerateResult struct {
	PatientID    uuid.UUID `json:"patient_id"`
	CreatedCount int       `json:"created_count"`
	UpdatedCount int       `json:"updated_count"`
	TotalHazards int       `json:"total_hazards"`
}

// ErrSocialRiskNotFound is returned by UpdateSocialRisk for an unknown id.
var ErrSocialRiskNotFound = errors.New("store: social risk not found")

// AutoGenerateSocialRisks creates an unscored SocialRisk for every code in
// hazards the patient does not have yet, and refreshes label and description
// on the ones that exist. Ratings on existing rows are left alone.
func (s *Store) AutoGenerateSocialRisks(ctx context.Context, patientID uuid.UUID, hazards []SocialHazard) (SocialAutoGenerateResult, error) {
	res := SocialAutoGenerateResult{PatientID: patientID}
	seen := make(map[string]bool, len(hazards))

	err := s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		for _, h := range hazards {
			if h.Code == "" || seen[h.Code] {
				continue
			}
			seen[h.Code] = true

			_, err := q.CreateSocialRiskIfAbsent(ctx, db.CreateSocialRiskIfAbsentParams{
				PatientID:               patientID,
				SocialHazardCode:        h.Code,
				SocialHazardType:        h.Kind.String(),
				SocialHazardLabel:       h.Label,
				SocialHazardDescription: h.Description,
			})
			if err == nil {
				res.CreatedCount++
				continue
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("AutoGenerateSocialRisks: create %s: %w", h.Code, err)
			}

			if _, err := q.UpdateSocialRiskLabels(ctx, db.UpdateSocialRiskLabelsParams{
				PatientID:               patientID,
				SocialHazardCode:        h.Code,
				SocialHazardType:        h.Kind.String(),
				SocialHazardLabel:       h.Label,
				SocialHazardDescription: h.Description,
			}); err != nil {
				return fmt.Errorf("AutoGenerateSocialRisks: refresh %s: %w", h.Code, err)
			}
			res.UpdatedCount++
		}
		return nil
	})
	if err != nil {
		return SocialAutoGenerateResult{}, err
	}

	res.TotalHazards = len(seen)
	return res, nil
}

// UpdateSocialRisk mirrors UpdateRisk for social risks.
func (s *Store) UpdateSocialRisk(ctx context.Context, id uuid.UUID, u scoring.RatingUpdate) (db.SocialRisk, error) {
	if err := u.Validate(); err != nil {
		return db.SocialRisk{}, fmt.Errorf("UpdateSocialRisk: %w", err)
	}

	var updated db.SocialRisk

	err := s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		cur, err := q.GetSocialRiskByID(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSocialRiskNotFound
		}
		if err != nil {
			return fmt.Errorf("UpdateSocialRisk: get social risk: %w", err)
		}

		next := scoring.ApplyRatingUpdate(scoring.Rating{
			Severity:   FloatPtr(cur.Severity),
			Likelihood: IntPtr(cur.Likelihood),
			RiskScore:  FloatPtr(cur.RiskScore),
			Notes:      StringPtr(cur.Notes),
		}, u)

		updated, err = q.UpdateSocialRiskRating(ctx, db.UpdateSocialRiskRatingParams{
			ID:         id,
			Severity:   nullFloatPtr(next.Severity),
			Likelihood: nullInt32Ptr(next.Likelihood),
			RiskScore:  nullFloatPtr(next.RiskScore),
			Notes:      nullStringPtr(next.Notes),
		})
		if err != nil {
			return fmt.Errorf("UpdateSocialRisk: update rating: %w", err)
		}
		return nil
	})

	if errors.Is(err, ErrSocialRiskNotFound) {
		return db.SocialRisk{}, ErrSocialRiskNotFound
	}
	if err != nil {
		return db.SocialRisk{}, err
	}
	return updated, nil
}
