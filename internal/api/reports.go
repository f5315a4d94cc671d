package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nyashahama/hazard-risk-engine/internal/db"
	"github.com/nyashahama/hazard-risk-engine/internal/engine"
	"github.com/nyashahama/hazard-risk-engine/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ─── POST /api/patients/:patientID/reports ────────────────────────────────────

type createReportResponse struct {
	ReportID string `json:"report_id"`
	Status   string `json:"status"`
}

// handleCreateReport checks that the patient has at least one selected
// service, creates a pending report and hands it to the worker. The worker
// recomputes the selection when it runs.
func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	id := patientID(r)

	if _, err := s.engine.SelectedRecommendations(r.Context(), id); err != nil {
		if errors.Is(err, engine.ErrNoSelectedServices) {
			respondErr(w, http.StatusNotFound, "no selected services found for this patient")
			return
		}
		s.respondInternalErr(w, r, fmt.Errorf("selected recommendations: %w", err))
		return
	}

	rep, err := s.q.CreateRecommendationReport(r.Context(), id)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("create report: %w", err))
		return
	}

	if err := s.worker.Enqueue(r.Context(), rep.ID); err != nil {
		// The poller picks pending reports up; a full queue only delays it.
		s.logger.Warn("create report: enqueue failed", "report_id", rep.ID, "error", err, logField(r))
	}

	respond(w, http.StatusAccepted, createReportResponse{
		ReportID: rep.ID.String(),
		Status:   string(rep.Status),
	})
}

// ─── GET /api/reports/:reportID ───────────────────────────────────────────────

type reportResponse struct {
	ReportID        string          `json:"report_id"`
	PatientID       string          `json:"patient_id"`
	Status          string          `json:"status"`
	Content         string          `json:"content"`
	Recommendations json.RawMessage `json:"recommendations"`
	GeneratedAt     string          `json:"generated_at,omitempty"`
}

// handleGetReport serves a generated report. Returns 202 Accepted while the
// report is pending or processing so clients can poll, and 422 with the
// recorded reason when generation failed.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.readyReport(w, r)
	if !ok {
		return
	}

	generatedAt := ""
	if rep.GeneratedAt.Valid {
		generatedAt = rep.GeneratedAt.Time.UTC().Format(time.RFC3339)
	}
	snapshot := json.RawMessage("null")
	if rep.Snapshot.Valid {
		snapshot = rep.Snapshot.RawMessage
	}

	respond(w, http.StatusOK, reportResponse{
		ReportID:        rep.ID.String(),
		PatientID:       rep.PatientID.String(),
		Status:          string(rep.Status),
		Content:         rep.Content.String,
		Recommendations: snapshot,
		GeneratedAt:     generatedAt,
	})
}

// ─── GET /api/reports/:reportID/document.{md,xlsx} ────────────────────────────

func (s *Server) handleReportMarkdown(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.readyReport(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="recommendations-%s.md"`, rep.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rep.Content.String))
}

func (s *Server) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.readyReport(w, r)
	if !ok {
		return
	}
	if len(rep.Xlsx) == 0 {
		respondErr(w, http.StatusNotFound, "report has no spreadsheet")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="recommendations-%s.xlsx"`, rep.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rep.Xlsx)
}

// readyReport loads the report named in the URL and writes the non-200
// answers itself. It returns ok only for a ready report.
func (s *Server) readyReport(w http.ResponseWriter, r *http.Request) (db.RecommendationReport, bool) {
	reportID, ok := uuidParam(w, r, "reportID")
	if !ok {
		return db.RecommendationReport{}, false
	}

	rep, err := s.store.ReadyReport(r.Context(), reportID)
	switch {
	case err == nil:
		return rep, true
	case errors.Is(err, store.ErrReportNotFound), errors.Is(err, sql.ErrNoRows):
		respondErr(w, http.StatusNotFound, "report not found")
	case errors.Is(err, store.ErrReportNotReady) && rep.Status == db.ReportStatusFailed:
		respond(w, http.StatusUnprocessableEntity, map[string]string{
			"status": string(rep.Status),
			"error":  rep.ErrorMessage.String,
		})
	case errors.Is(err, store.ErrReportNotReady):
		respond(w, http.StatusAccepted, map[string]string{
			"status":  string(rep.Status),
			"message": "report is being generated, please check back shortly",
		})
	default:
		s.respondInternalErr(w, r, fmt.Errorf("get report: %w", err))
	}
	return db.RecommendationReport{}, false
}
