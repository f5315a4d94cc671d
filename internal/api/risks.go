package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nyashahama/hazard-risk-engine/internal/db"
	"github.com/nyashahama/hazard-risk-engine/internal/scoring"
	"github.com/nyashahama/hazard-risk-engine/internal/store"
)

// ─── RESPONSE SHAPES ──────────────────────────────────────────────────────────

type hazardResponse struct {
	ID          string `json:"id"`
	HazardType  string `json:"hazard_type"`
	Description string `json:"description"`
	Source      string `json:"source"`
	CreatedAt   string `json:"created_at"`
}

func toHazardResponses(rows []db.Hazard) []hazardResponse {
	out := make([]hazardResponse, len(rows))
	for i, h := range rows {
		out[i] = hazardResponse{
			ID:          h.ID.String(),
			HazardType:  h.HazardType,
			Description: h.Description,
			Source:      h.Source,
			CreatedAt:   h.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	return out
}

// riskResponse flattens the nullable rating columns. A null risk_score means
// the risk is not fully rated yet.
type riskResponse struct {
	ID                string   `json:"id"`
	HazardID          string   `json:"hazard_id"`
	HazardType        string   `json:"hazard_type,omitempty"`
	HazardDescription string   `json:"hazard_description,omitempty"`
	HazardSource      string   `json:"hazard_source,omitempty"`
	Severity          *float64 `json:"severity"`
	Likelihood        *int     `json:"likelihood"`
	RiskScore         *float64 `json:"risk_score"`
	Notes             *string  `json:"notes"`
	UpdatedAt         string   `json:"updated_at"`
}

func toRiskResponse(r db.Risk) riskResponse {
	return riskResponse{
		ID:         r.ID.String(),
		HazardID:   r.HazardID.String(),
		Severity:   store.FloatPtr(r.Severity),
		Likelihood: store.IntPtr(r.Likelihood),
		RiskScore:  store.FloatPtr(r.RiskScore),
		Notes:      store.StringPtr(r.Notes),
		UpdatedAt:  r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type socialRiskResponse struct {
	ID          string   `json:"id"`
	Code        string   `json:"social_hazard_code"`
	Kind        string   `json:"social_hazard_type"`
	Label       string   `json:"social_hazard_label"`
	Description string   `json:"social_hazard_description"`
	Severity    *float64 `json:"severity"`
	Likelihood  *int     `json:"likelihood"`
	RiskScore   *float64 `json:"risk_score"`
	Notes       *string  `json:"notes"`
	UpdatedAt   string   `json:"updated_at"`
}

func toSocialRiskResponse(r db.SocialRisk) socialRiskResponse {
	return socialRiskResponse{
		ID:          r.ID.String(),
		Code:        r.SocialHazardCode,
		Kind:        r.SocialHazardType,
		Label:       r.SocialHazardLabel,
		Description: r.SocialHazardDescription,
		Severity:    store.FloatPtr(r.Severity),
		Likelihood:  store.IntPtr(r.Likelihood),
		RiskScore:   store.FloatPtr(r.RiskScore),
		Notes:       store.StringPtr(r.Notes),
		UpdatedAt:   r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// ─── HAZARDS ──────────────────────────────────────────────────────────────────

// handleListHazards returns the recorded hazards of the patient.
func (s *Server) handleListHazards(w http.ResponseWriter, r *http.Request) {
	rows, err := s.q.ListHazardsByPatient(r.Context(), patientID(r))
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("list hazards: %w", err))
		return
	}
	respond(w, http.StatusOK, toHazardResponses(rows))
}

// handleDeriveHazards previews the hazards the latest assessments imply,
// without writing anything.
func (s *Server) handleDeriveHazards(w http.ResponseWriter, r *http.Request) {
	refs, err := s.engine.DeriveHazards(r.Context(), patientID(r))
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("derive hazards: %w", err))
		return
	}
	if refs == nil {
		refs = []scoring.HazardRef{}
	}
	respond(w, http.StatusOK, refs)
}

// handleMaterializeHazards records the derived clinical hazards. Safe to
// repeat; existing hazards are left alone.
func (s *Server) handleMaterializeHazards(w http.ResponseWriter, r *http.Request) {
	rows, err := s.engine.MaterializeHazards(r.Context(), patientID(r))
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("materialize hazards: %w", err))
		return
	}
	respond(w, http.StatusOK, toHazardResponses(rows))
}

// ─── RISKS ────────────────────────────────────────────────────────────────────

func (s *Server) handleListRisks(w http.ResponseWriter, r *http.Request) {
	rows, err := s.q.ListRisksByPatient(r.Context(), patientID(r))
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("list risks: %w", err))
		return
	}
	out := make([]riskResponse, len(rows))
	for i, row := range rows {
		out[i] = riskResponse{
			ID:                row.ID.String(),
			HazardID:          row.HazardID.String(),
			HazardType:        row.HazardType,
			HazardDescription: row.HazardDescription,
			HazardSource:      row.HazardSource,
			Severity:          store.FloatPtr(row.Severity),
			Likelihood:        store.IntPtr(row.Likelihood),
			RiskScore:         store.FloatPtr(row.RiskScore),
			Notes:             store.StringPtr(row.Notes),
			UpdatedAt:         row.UpdatedAt.UTC().Format(time.RFC3339),
		}
	}
	respond(w, http.StatusOK, out)
}

func (s *Server) handleAutoGenerateRisks(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.AutoGenerateRisks(r.Context(), patientID(r))
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("auto-generate risks: %w", err))
		return
	}
	respond(w, http.StatusOK, res)
}

// handleUpdateRisk applies a partial rating. risk_score is computed, never
// accepted; a body carrying it is a 400.
func (s *Server) handleUpdateRisk(w http.ResponseWriter, r *http.Request) {
	riskID, ok := uuidParam(w, r, "riskID")
	if !ok {
		return
	}
	var u scoring.RatingUpdate
	if !decode(w, r, &u) {
		return
	}
	if u.Empty() {
		respondErr(w, http.StatusBadRequest, "nothing to update")
		return
	}

	risk, err := s.engine.UpdateRisk(r.Context(), riskID, u)
	if errors.Is(err, scoring.ErrLikelihoodRange) {
		respondErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, store.ErrRiskNotFound) {
		respondErr(w, http.StatusNotFound, "risk not found")
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("update risk: %w", err))
		return
	}
	respond(w, http.StatusOK, toRiskResponse(risk))
}

// ─── SOCIAL RISKS ─────────────────────────────────────────────────────────────

func (s *Server) handleListSocialRisks(w http.ResponseWriter, r *http.Request) {
	rows, err := s.q.ListSocialRisksByPatient(r.Context(), patientID(r))
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("list social risks: %w", err))
		return
	}
	out := make([]socialRiskResponse, len(rows))
	for i, row := range rows {
		out[i] = toSocialRiskResponse(row)
	}
	respond(w, http.StatusOK, out)
}

func (s *Server) handleAutoGenerateSocialRisks(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.AutoGenerateSocialRisks(r.Context(), patientID(r))
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("auto-generate social risks: %w", err))
		return
	}
	respond(w, http.StatusOK, res)
}

func (s *Server) handleUpdateSocialRisk(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "socialRiskID")
	if !ok {
		return
	}
	var u scoring.RatingUpdate
	if !decode(w, r, &u) {
		return
	}
	if u.Empty() {
		respondErr(w, http.StatusBadRequest, "nothing to update")
		return
	}

	risk, err := s.engine.UpdateSocialRisk(r.Context(), id, u)
	if errors.Is(err, scoring.ErrLikelihoodRange) {
		respondErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, store.ErrSocialRiskNotFound) {
		respondErr(w, http.StatusNotFound, "social risk not found")
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("update social risk: %w", err))
		return
	}
	respond(w, http.StatusOK, toSocialRiskResponse(risk))
}
