package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nyashahama/hazard-risk-engine/internal/db"
	"github.com/nyashahama/hazard-risk-engine/internal/email"
	"github.com/nyashahama/hazard-risk-engine/internal/engine"
	"github.com/nyashahama/hazard-risk-engine/internal/report"
	"github.com/nyashahama/hazard-risk-engine/internal/scoring"
	"github.com/nyashahama/hazard-risk-engine/internal/store"
)

// Recommender is the slice of *engine.Engine the job needs.
type Recommender interface {
	SelectedRecommendations(ctx context.Context, patientID uuid.UUID) (scoring.Recommendations, error)
}

// Job holds the dependencies for the report pipeline. Each step is a separate
// call so Run reads top to bottom.
type Job struct {
	q        db.Querier
	store    *store.Store
	rec      Recommender
	mailer   email.Sender
	notifyTo string // empty disables the notification
	logger   *slog.Logger
}

// NewJob constructs a Job with all required dependencies.
func NewJob(
	q db.Querier,
	st *store.Store,
	rec Recommender,
	mailer email.Sender,
	notifyTo string,
	logger *slog.Logger,
) *Job {
	return &Job{
		q:        q,
		store:    st,
		rec:      rec,
		mailer:   mailer,
		notifyTo: notifyTo,
		logger:   logger,
	}
}

// Run executes the full pipeline for a single report:
//
//  1. Load the report row to get the patient.
//  2. Recompute the recommendations and keep the selected services.
//  3. Render the Markdown document and the XLSX workbook.
//  4. Persist everything atomically via store.PersistReport.
//  5. Send the notification email.
//
// Any error is returned to the Runner, which retries up to MaxRetries times
// before calling store.MarkReportFailed.
func (j *Job) Run(ctx context.Context, reportID uuid.UUID) error {
	log := j.logger.With("report_id", reportID)
	log.Info("job: starting")

	// ── 1. Load the report ────────────────────────────────────────────────────
	rep, err := j.q.GetRecommendationReportByID(ctx, reportID)
	if err != nil {
		return fmt.Errorf("job: get report: %w", err)
	}
	if rep.Status == db.ReportStatusReady || rep.Status == db.ReportStatusFailed {
		log.Info("job: report already finalized", "status", rep.Status)
		return nil
	}
	log = log.With("patient_id", rep.PatientID)

	// ── 2. Recommendations ────────────────────────────────────────────────────
	rec, err := j.rec.SelectedRecommendations(ctx, rep.PatientID)
	if err != nil {
		return fmt.Errorf("job: recommendations: %w", err)
	}
	log.Debug("job: recommendations computed",
		"services", rec.TotalServices,
		"categories", rec.TotalServiceCategories,
	)

	// ── 3. Render ─────────────────────────────────────────────────────────────
	content := report.RenderMarkdown(rec)
	xlsx, err := report.BuildXLSX(rec)
	if err != nil {
		return fmt.Errorf("job: build xlsx: %w", err)
	}

	// ── 4. Persist everything atomically ──────────────────────────────────────
	_, err = j.store.PersistReport(ctx, store.PersistReportParams{
		ReportID:        reportID,
		Recommendations: rec,
		Content:         content,
		Xlsx:            xlsx,
	})
	if errors.Is(err, store.ErrReportFinalized) {
		log.Info("job: report finalized by another worker")
		return nil
	}
	if err != nil {
		return fmt.Errorf("job: persist report: %w", err)
	}
	log.Info("job: report persisted", "bytes_md", len(content), "bytes_xlsx", len(xlsx))

	// ── 5. Notify ─────────────────────────────────────────────────────────────
	if j.notifyTo == "" {
		return nil
	}
	if err := j.mailer.SendReportReady(ctx, email.ReportReadyParams{
		To:         j.notifyTo,
		PatientID:  rep.PatientID.String(),
		ReportID:   reportID.String(),
		Services:   rec.TotalServices,
		Categories: rec.TotalServiceCategories,
	}); err != nil {
		// The report is ready and readable over HTTP; a lost email is not a
		// reason to regenerate it.
		log.Error("job: failed to send report email", "to", j.notifyTo, "error", err)
	}

	return nil
}

// permanent reports errors no retry can fix.
func permanent(err error) bool {
	return errors.Is(err, engine.ErrNoSelectedServices)
}
