package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nyashahama/hazard-risk-engine/internal/db"
	"github.com/nyashahama/hazard-risk-engine/internal/scoring"
	"github.com/sqlc-dev/pqtype"
)

// ─── INPUT TYPES ──────────────────────────────────────────────────────────────

// PersistReportParams is everything the worker hands to the store once the
// recommendations are computed and rendered.
type PersistReportParams struct {
	ReportID        uuid.UUID
	Recommendations scoring.Recommendations // filtered to the selected services
	Content         string                  // rendered Markdown
	Xlsx            []byte                  // spreadsheet export; may be nil
}

// ─── ERRORS ───────────────────────────────────────────────────────────────────

var (
	// ErrReportNotFound is returned for an unknown report id.
	ErrReportNotFound = errors.New("store: report not found")

	// ErrReportNotReady is returned by ReadyReport while the report is still
	// pending or processing, or when it failed.
	ErrReportNotReady = errors.New("store: report not ready")

	// ErrReportFinalized is returned by PersistReport when the report already
	// left the pending/processing states. The worker treats it as done.
	ErrReportFinalized = errors.New("store: report already finalized")
)

// ─── METHODS ──────────────────────────────────────────────────────────────────

// PersistReport atomically:
//
//  1. Claims the report (status=processing). Only pending or processing rows
//     can be claimed.
//  2. Serialises the recommendations snapshot.
//  3. Stores content, snapshot and spreadsheet and marks the report ready.
//
// If any step fails the transaction rolls back and the report stays where it
// was; the worker's poller will pick it up again.
func (s *Store) PersistReport(ctx context.Context, p PersistReportParams) (db.RecommendationReport, error) {
	var report db.RecommendationReport

	err := s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		// 1. Claim.
		if _, err := q.SetReportProcessing(ctx, p.ReportID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrReportFinalized
			}
			return fmt.Errorf("PersistReport: set processing: %w", err)
		}

		// 2. Snapshot.
		snapshot, err := json.Marshal(p.Recommendations)
		if err != nil {
			return fmt.Errorf("PersistReport: marshal snapshot: %w", err)
		}

		// 3. Finalise.
		finalised, err := q.FinalizeRecommendationReport(ctx, db.FinalizeRecommendationReportParams{
			ID:       p.ReportID,
			Content:  nullString(p.Content),
			Snapshot: pqtype.NullRawMessage{RawMessage: snapshot, Valid: true},
			Xlsx:     p.Xlsx,
		})
		if err != nil {
			return fmt.Errorf("PersistReport: finalize: %w", err)
		}
		report = finalised
		return nil
	})

	if errors.Is(err, ErrReportFinalized) {
		return db.RecommendationReport{}, ErrReportFinalized
	}
	if err != nil {
		return db.RecommendationReport{}, err
	}
	return report, nil
}

// MarkReportFailed records a permanent failure after the worker exhausted its
// retries. It is a single write but lives here with the rest of the report
// lifecycle.
func (s *Store) MarkReportFailed(ctx context.Context, reportID uuid.UUID, reason string) (db.RecommendationReport, error) {
	report, err := s.q.MarkRecommendationReportFailed(ctx, db.MarkRecommendationReportFailedParams{
		ID:           reportID,
		ErrorMessage: nullString(reason),
	})
	if err != nil {
		return db.RecommendationReport{}, fmt.Errorf("MarkReportFailed: %w", err)
	}
	return report, nil
}

// ReadyReport returns the report only once it is ready. Callers that need the
// status of an unfinished report use GetRecommendationReportByID directly.
func (s *Store) ReadyReport(ctx context.Context, reportID uuid.UUID) (db.RecommendationReport, error) {
	report, err := s.q.GetRecommendationReportByID(ctx, reportID)
	if errors.Is(err, sql.ErrNoRows) {
		return db.RecommendationReport{}, ErrReportNotFound
	}
	if err != nil {
		return db.RecommendationReport{}, fmt.Errorf("ReadyReport: %w", err)
	}
	if report.Status != db.ReportStatusReady {
		return report, ErrReportNotReady
	}
	return report, nil
}
