package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nyashahama/hazard-risk-engine/internal/db"
)

// RecommendationSetting is one clinician choice about a recommended service.
type RecommendationSetting struct {
	HazardCode         string   `json:"hazard_code"`
	ServiceDescription string   `json:"service_description"`
	ServiceCategory    string   `json:"service_category"`
	Frequency          *string  `json:"frequency"`
	EstimatedCost      *float64 `json:"estimated_cost"`
	Provider           *string  `json:"provider"`
	Priority           *string  `json:"priority"`
	Notes              *string  `json:"notes"`
	Selected           bool     `json:"selected"`
}

// ErrInvalidSetting is returned when a setting lacks its key fields.
var ErrInvalidSetting = errors.New("store: setting requires hazard_code and service_description")

// SaveRecommendationSettings upserts settings keyed by (patient, hazard_code,
// service_description) in one transaction and returns the stored rows.
func (s *Store) SaveRecommendationSettings(ctx context.Context, patientID uuid.UUID, settings []RecommendationSetting) ([]db.RecommendationSetting, error) {
	for _, st := range settings {
		if st.HazardCode == "" || st.ServiceDescription == "" {
			return nil, ErrInvalidSetting
		}
	}

	saved := make([]db.RecommendationSetting, 0, len(settings))
	err := s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		for _, st := range settings {
			row, err := q.UpsertRecommendationSetting(ctx, db.UpsertRecommendationSettingParams{
				PatientID:          patientID,
				HazardCode:         st.HazardCode,
				ServiceDescription: st.ServiceDescription,
				ServiceCategory:    st.ServiceCategory,
				Frequency:          nullStringPtr(st.Frequency),
				EstimatedCost:      nullFloatPtr(st.EstimatedCost),
				Provider:           nullStringPtr(st.Provider),
				Priority:           nullStringPtr(st.Priority),
				Notes:              nullStringPtr(st.Notes),
				Selected:           st.Selected,
			})
			if err != nil {
				return fmt.Errorf("SaveRecommendationSettings: upsert %s|%s: %w", st.HazardCode, st.ServiceDescription, err)
			}
			saved = append(saved, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}
