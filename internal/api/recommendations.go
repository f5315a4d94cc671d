package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/nyashahama/hazard-risk-engine/internal/db"
	"github.com/nyashahama/hazard-risk-engine/internal/store"
)

// ─── GET /api/patients/:patientID/recommendations ─────────────────────────────

// handleGetRecommendations returns the aggregated recommendations. With
// ?selected=true only the services selected in the patient's settings remain.
func (s *Server) handleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	selected := false
	if v := r.URL.Query().Get("selected"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondErr(w, http.StatusBadRequest, "selected must be a boolean")
			return
		}
		selected = b
	}

	id := patientID(r)
	rec, err := s.engine.GetRecommendations(r.Context(), id)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("get recommendations: %w", err))
		return
	}
	if selected {
		rec, err = s.engine.FilterSelected(r.Context(), id, rec)
		if err != nil {
			s.respondInternalErr(w, r, fmt.Errorf("filter recommendations: %w", err))
			return
		}
	}
	respond(w, http.StatusOK, rec)
}

// ─── /api/patients/:patientID/recommendations/settings ────────────────────────

type settingResponse struct {
	HazardCode         string   `json:"hazard_code"`
	ServiceDescription string   `json:"service_description"`
	ServiceCategory    string   `json:"service_category"`
	Frequency          *string  `json:"frequency"`
	EstimatedCost      *float64 `json:"estimated_cost"`
	Provider           *string  `json:"provider"`
	Priority           *string  `json:"priority"`
	Notes              *string  `json:"notes"`
	Selected           bool     `json:"selected"`
	UpdatedAt          string   `json:"updated_at"`
}

func toSettingResponses(rows []db.RecommendationSetting) []settingResponse {
	out := make([]settingResponse, len(rows))
	for i, row := range rows {
		out[i] = settingResponse{
			HazardCode:         row.HazardCode,
			ServiceDescription: row.ServiceDescription,
			ServiceCategory:    row.ServiceCategory,
			Frequency:          store.StringPtr(row.Frequency),
			EstimatedCost:      store.FloatPtr(row.EstimatedCost),
			Provider:           store.StringPtr(row.Provider),
			Priority:           store.StringPtr(row.Priority),
			Notes:              store.StringPtr(row.Notes),
			Selected:           row.Selected,
			UpdatedAt:          row.UpdatedAt.UTC().Format(time.RFC3339),
		}
	}
	return out
}

func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	rows, err := s.q.ListRecommendationSettings(r.Context(), patientID(r))
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("list settings: %w", err))
		return
	}
	respond(w, http.StatusOK, toSettingResponses(rows))
}

type saveSettingsRequest struct {
	Settings []store.RecommendationSetting `json:"settings"`
}

// handleSaveSettings upserts a batch of settings keyed by (hazard_code,
// service_description). Replaying the same payload is safe.
func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var req saveSettingsRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Settings) == 0 {
		respondErr(w, http.StatusBadRequest, "settings must not be empty")
		return
	}
	if len(req.Settings) > 500 {
		respondErr(w, http.StatusBadRequest, "too many settings in a single request (max 500)")
		return
	}

	rows, err := s.store.SaveRecommendationSettings(r.Context(), patientID(r), req.Settings)
	if errors.Is(err, store.ErrInvalidSetting) {
		respondErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("save settings: %w", err))
		return
	}
	respond(w, http.StatusOK, toSettingResponses(rows))
}
