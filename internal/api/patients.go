package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sqlc-dev/pqtype"

	"github.com/nyashahama/hazard-risk-engine/internal/db"
	"github.com/nyashahama/hazard-risk-engine/internal/scoring"
)

const dateLayout = "2006-01-02"

// ─── POST /api/patients ───────────────────────────────────────────────────────

type createPatientRequest struct {
	Name   string `json:"name"`
	Dob    string `json:"dob"` // YYYY-MM-DD, optional
	Gender string `json:"gender"`
	Phone  string `json:"phone"`
	Email  string `json:"email"`
}

type patientResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Dob       string `json:"dob,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toPatientResponse(p db.Patient) patientResponse {
	resp := patientResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		Gender:    p.Gender.String,
		Phone:     p.Phone.String,
		Email:     p.Email.String,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p.Dob.Valid {
		resp.Dob = p.Dob.Time.Format(dateLayout)
	}
	return resp
}

func (s *Server) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	var req createPatientRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondErr(w, http.StatusBadRequest, "name is required")
		return
	}
	dob, ok := parseDate(w, "dob", req.Dob)
	if !ok {
		return
	}

	patient, err := s.q.CreatePatient(r.Context(), db.CreatePatientParams{
		Name:   strings.TrimSpace(req.Name),
		Dob:    dob,
		Gender: nullString(req.Gender),
		Phone:  nullString(req.Phone),
		Email:  nullString(req.Email),
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("create patient: %w", err))
		return
	}

	respond(w, http.StatusCreated, toPatientResponse(patient))
}

// ─── GET /api/patients/:patientID ─────────────────────────────────────────────

func (s *Server) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, toPatientResponse(patientFrom(r.Context())))
}

func patientFrom(ctx context.Context) db.Patient {
	p, _ := ctx.Value(ctxKeyPatient).(db.Patient)
	return p
}

// ─── POST /api/patients/:patientID/assessments/adl ────────────────────────────

// adlRequest carries Barthel item scores. A missing item is unanswered.
type adlRequest struct {
	Feeding       *int32 `json:"feeding"`
	Bathing       *int32 `json:"bathing"`
	Grooming      *int32 `json:"grooming"`
	Dressing      *int32 `json:"dressing"`
	Bowels        *int32 `json:"bowels"`
	Bladder       *int32 `json:"bladder"`
	ToiletUse     *int32 `json:"toilet_use"`
	Transfers     *int32 `json:"transfers"`
	Mobility      *int32 `json:"mobility"`
	Stairs        *int32 `json:"stairs"`
	DateCompleted string `json:"date_completed"`
}

func (s *Server) handleCreateADL(w http.ResponseWriter, r *http.Request) {
	var req adlRequest
	if !decode(w, r, &req) {
		return
	}
	items := []*int32{req.Feeding, req.Bathing, req.Grooming, req.Dressing, req.Bowels,
		req.Bladder, req.ToiletUse, req.Transfers, req.Mobility, req.Stairs}
	if !validScores(w, items) {
		return
	}
	completed, ok := parseDate(w, "date_completed", req.DateCompleted)
	if !ok {
		return
	}

	row, err := s.q.CreateAdlAnswer(r.Context(), db.CreateAdlAnswerParams{
		PatientID:     patientID(r),
		Feeding:       nullInt32(req.Feeding),
		Bathing:       nullInt32(req.Bathing),
		Grooming:      nullInt32(req.Grooming),
		Dressing:      nullInt32(req.Dressing),
		Bowels:        nullInt32(req.Bowels),
		Bladder:       nullInt32(req.Bladder),
		ToiletUse:     nullInt32(req.ToiletUse),
		Transfers:     nullInt32(req.Transfers),
		Mobility:      nullInt32(req.Mobility),
		Stairs:        nullInt32(req.Stairs),
		DateCompleted: completed,
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("create adl: %w", err))
		return
	}
	respond(w, http.StatusCreated, createdResponse{ID: row.ID.String(), DateCompleted: row.DateCompleted.Format(dateLayout)})
}

// ─── POST /api/patients/:patientID/assessments/iadl ───────────────────────────

// iadlRequest carries Lawton item scores. A missing item is unanswered.
type iadlRequest struct {
	Telephone       *int32 `json:"telephone"`
	Shopping        *int32 `json:"shopping"`
	FoodPreparation *int32 `json:"food_preparation"`
	Housekeeping    *int32 `json:"housekeeping"`
	Laundry         *int32 `json:"laundry"`
	Transportation  *int32 `json:"transportation"`
	Medication      *int32 `json:"medication"`
	Finances        *int32 `json:"finances"`
	DateCompleted   string `json:"date_completed"`
}

func (s *Server) handleCreateIADL(w http.ResponseWriter, r *http.Request) {
	var req iadlRequest
	if !decode(w, r, &req) {
		return
	}
	items := []*int32{req.Telephone, req.Shopping, req.FoodPreparation, req.Housekeeping,
		req.Laundry, req.Transportation, req.Medication, req.Finances}
	if !validScores(w, items) {
		return
	}
	completed, ok := parseDate(w, "date_completed", req.DateCompleted)
	if !ok {
		return
	}

	row, err := s.q.CreateIadlAnswer(r.Context(), db.CreateIadlAnswerParams{
		PatientID:       patientID(r),
		Telephone:       nullInt32(req.Telephone),
		Shopping:        nullInt32(req.Shopping),
		FoodPreparation: nullInt32(req.FoodPreparation),
		Housekeeping:    nullInt32(req.Housekeeping),
		Laundry:         nullInt32(req.Laundry),
		Transportation:  nullInt32(req.Transportation),
		Medication:      nullInt32(req.Medication),
		Finances:        nullInt32(req.Finances),
		DateCompleted:   completed,
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("create iadl: %w", err))
		return
	}
	respond(w, http.StatusCreated, createdResponse{ID: row.ID.String(), DateCompleted: row.DateCompleted.Format(dateLayout)})
}

// ─── POST /api/patients/:patientID/assessments/history ────────────────────────

type historyRequest struct {
	DxCodes []string `json:"dx_codes"`
	SxCodes []string `json:"sx_codes"`
	RxCodes []string `json:"rx_codes"`
	TxCodes []string `json:"tx_codes"`
	Notes   string   `json:"notes"`
}

func (s *Server) handleCreateHistory(w http.ResponseWriter, r *http.Request) {
	var req historyRequest
	if !decode(w, r, &req) {
		return
	}

	row, err := s.q.CreatePatientHistory(r.Context(), db.CreatePatientHistoryParams{
		PatientID: patientID(r),
		DxCodes:   cleanCodes(req.DxCodes),
		SxCodes:   cleanCodes(req.SxCodes),
		RxCodes:   cleanCodes(req.RxCodes),
		TxCodes:   cleanCodes(req.TxCodes),
		Notes:     nullString(req.Notes),
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("create history: %w", err))
		return
	}
	respond(w, http.StatusCreated, createdResponse{ID: row.ID.String()})
}

// ─── POST /api/patients/:patientID/assessments/prapare ────────────────────────

// prapareRequest carries PRAPARE item scores keyed by item name. Unknown item
// names are rejected; a null value is an unanswered item.
type prapareRequest struct {
	Items         map[string]*int `json:"items"`
	AssessedBy    string          `json:"assessed_by"`
	Notes         string          `json:"notes"`
	DateCompleted string          `json:"date_completed"`
}

func (s *Server) handleCreatePRAPARE(w http.ResponseWriter, r *http.Request) {
	var req prapareRequest
	if !decode(w, r, &req) {
		return
	}
	for item, v := range req.Items {
		if !scoring.IsPRAPAREItem(item) {
			respondErr(w, http.StatusBadRequest, fmt.Sprintf("unknown PRAPARE item %q", item))
			return
		}
		if v != nil && *v < 0 {
			respondErr(w, http.StatusBadRequest, fmt.Sprintf("score for %q must not be negative", item))
			return
		}
	}
	completed, ok := parseDate(w, "date_completed", req.DateCompleted)
	if !ok {
		return
	}

	items, err := json.Marshal(req.Items)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("marshal prapare items: %w", err))
		return
	}

	row, err := s.q.CreatePrapareAnswer(r.Context(), db.CreatePrapareAnswerParams{
		PatientID:     patientID(r),
		Items:         pqtype.NullRawMessage{RawMessage: items, Valid: req.Items != nil},
		AssessedBy:    nullString(req.AssessedBy),
		Notes:         nullString(req.Notes),
		DateCompleted: completed,
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("create prapare: %w", err))
		return
	}
	respond(w, http.StatusCreated, createdResponse{ID: row.ID.String(), DateCompleted: row.DateCompleted.Format(dateLayout)})
}

// ─── GET /api/patients/:patientID/assessments/latest ──────────────────────────

type latestAssessmentsResponse struct {
	ADL     scoring.ItemScores   `json:"adl"`
	IADL    scoring.ItemScores   `json:"iadl"`
	PRAPARE scoring.ItemScores   `json:"prapare"`
	History *scoring.CodeHistory `json:"history"`
}

func (s *Server) handleLatestAssessments(w http.ResponseWriter, r *http.Request) {
	a, err := s.engine.LoadAssessments(r.Context(), patientID(r))
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("load assessments: %w", err))
		return
	}
	respond(w, http.StatusOK, latestAssessmentsResponse{
		ADL:     a.ADL,
		IADL:    a.IADL,
		PRAPARE: a.PRAPARE,
		History: a.History,
	})
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

type createdResponse struct {
	ID            string `json:"id"`
	DateCompleted string `json:"date_completed,omitempty"`
}

// nullString converts a Go string to sql.NullString. Empty string → NULL.
func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt32(v *int32) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: *v, Valid: true}
}

// parseDate parses an optional YYYY-MM-DD value, writing a 400 on failure.
func parseDate(w http.ResponseWriter, field, v string) (sql.NullTime, bool) {
	if v == "" {
		return sql.NullTime{}, true
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		respondErr(w, http.StatusBadRequest, field+" must be YYYY-MM-DD")
		return sql.NullTime{}, false
	}
	return sql.NullTime{Time: t, Valid: true}, true
}

func validScores(w http.ResponseWriter, scores []*int32) bool {
	for _, v := range scores {
		if v != nil && *v < 0 {
			respondErr(w, http.StatusBadRequest, "item scores must not be negative")
			return false
		}
	}
	return true
}

// cleanCodes trims codes and drops empty entries.
func cleanCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
