package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// ─── SETTINGS ─────────────────────────────────────────────────────────────────

const settingColumns = `id, patient_id, hazard_code, service_description, service_category, frequency,
       estimated_cost, provider, priority, notes, selected, updated_at`

const upsertRecommendationSetting = `-- name: UpsertRecommendationSetting :one
INSERT INTO recommendation_settings (
    patient_id, hazard_code, service_description, service_category, frequency,
    estimated_cost, provider, priority, notes, selected
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (patient_id, hazard_code, service_description) DO UPDATE
SET service_category = EXCLUDED.service_category,
    frequency        = EXCLUDED.frequency,
    estimated_cost   = EXCLUDED.estimated_cost,
    provider         = EXCLUDED.provider,
    priority         = EXCLUDED.priority,
    notes            = EXCLUDED.notes,
    selected         = EXCLUDED.selected,
    updated_at       = now()
RETURNING ` + settingColumns

type UpsertRecommendationSettingParams struct {
	PatientID          uuid.UUID       `json:"patient_id"`
	HazardCode         string          `json:"hazard_code"`
	ServiceDescription string          `json:"service_description"`
	ServiceCategory    string          `json:"service_category"`
	Frequency          sql.NullString  `json:"frequency"`
	EstimatedCost      sql.NullFloat64 `json:"estimated_cost"`
	Provider           sql.NullString  `json:"provider"`
	Priority           sql.NullString  `json:"priority"`
	Notes              sql.NullString  `json:"notes"`
	Selected           bool            `json:"selected"`
}

func (q *Queries) UpsertRecommendationSetting(ctx context.Context, arg UpsertRecommendationSettingParams) (RecommendationSetting, error) {
	row := q.queryRow(ctx, q.upsertRecommendationSettingStmt, upsertRecommendationSetting,
		arg.PatientID,
		arg.HazardCode,
		arg.ServiceDescription,
		arg.ServiceCategory,
		arg.Frequency,
		arg.EstimatedCost,
		arg.Provider,
		arg.Priority,
		arg.Notes,
		arg.Selected,
	)
	var i RecommendationSetting
	err := row.Scan(
		&i.ID,
		&i.PatientID,
		&i.HazardCode,
		&i.ServiceDescription,
		&i.ServiceCategory,
		&i.Frequency,
		&i.EstimatedCost,
		&i.Provider,
		&i.Priority,
		&i.Notes,
		&i.Selected,
		&i.UpdatedAt,
	)
	return i, err
}

const listRecommendationSettings = `-- name: ListRecommendationSettings :many
SELECT ` + settingColumns + `
FROM recommendation_settings
WHERE patient_id = $1
ORDER BY hazard_code, service_description
`

func (q *Queries) ListRecommendationSettings(ctx context.Context, patientID uuid.UUID) ([]RecommendationSetting, error) {
	return q.listSettings(ctx, q.listRecommendationSettingsStmt, listRecommendationSettings, patientID)
}

const listSelectedRecommendationSettings = `-- name: ListSelectedRecommendationSettings :many
SELECT ` + settingColumns + `
FROM recommendation_settings
WHERE patient_id = $1 AND selected
ORDER BY hazard_code, service_description
`

func (q *Queries) ListSelectedRecommendationSettings(ctx context.Context, patientID uuid.UUID) ([]RecommendationSetting, error) {
	return q.listSettings(ctx, q.listSelectedRecommendationSettingsStmt, listSelectedRecommendationSettings, patientID)
}

func (q *Queries) listSettings(ctx context.Context, stmt *sql.Stmt, query string, patientID uuid.UUID) ([]RecommendationSetting, error) {
	rows, err := q.query(ctx, stmt, query, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecommendationSetting
	for rows.Next() {
		var i RecommendationSetting
		if err := rows.Scan(
			&i.ID,
			&i.PatientID,
			&i.HazardCode,
			&i.ServiceDescription,
			&i.ServiceCategory,
			&i.Frequency,
			&i.EstimatedCost,
			&i.Provider,
			&i.Priority,
			&i.Notes,
			&i.Selected,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ─── REPORTS ──────────────────────────────────────────────────────────────────

const reportColumns = `id, patient_id, status, content, snapshot, xlsx, error_message, generated_at,
       created_at, updated_at`

const createRecommendationReport = `-- name: CreateRecommendationReport :one
INSERT INTO recommendation_reports (patient_id)
VALUES ($1)
RETURNING ` + reportColumns

func (q *Queries) CreateRecommendationReport(ctx context.Context, patientID uuid.UUID) (RecommendationReport, error) {
	row := q.queryRow(ctx, q.createRecommendationReportStmt, createRecommendationReport, patientID)
	return scanReport(row)
}

const getRecommendationReportByID = `-- name: GetRecommendationReportByID :one
SELECT ` + reportColumns + `
FROM recommendation_reports
WHERE id = $1
`

func (q *Queries) GetRecommendationReportByID(ctx context.Context, id uuid.UUID) (RecommendationReport, error) {
	row := q.queryRow(ctx, q.getRecommendationReportByIDStmt, getRecommendationReportByID, id)
	return scanReport(row)
}

const setReportProcessing = `-- name: SetReportProcessing :one
UPDATE recommendation_reports
SET status = 'processing', updated_at = now()
WHERE id = $1 AND status IN ('pending', 'processing')
RETURNING ` + reportColumns

// SetReportProcessing returns sql.ErrNoRows when the report has already
// reached a terminal status.
func (q *Queries) SetReportProcessing(ctx context.Context, id uuid.UUID) (RecommendationReport, error) {
	row := q.queryRow(ctx, q.setReportProcessingStmt, setReportProcessing, id)
	return scanReport(row)
}

const finalizeRecommendationReport = `-- name: FinalizeRecommendationReport :one
UPDATE recommendation_reports
SET status = 'ready', content = $2, snapshot = $3, xlsx = $4, error_message = NULL,
    generated_at = now(), updated_at = now()
WHERE id = $1
RETURNING ` + reportColumns

type FinalizeRecommendationReportParams struct {
	ID       uuid.UUID             `json:"id"`
	Content  sql.NullString        `json:"content"`
	Snapshot pqtype.NullRawMessage `json:"snapshot"`
	Xlsx     []byte                `json:"xlsx"`
}

func (q *Queries) FinalizeRecommendationReport(ctx context.Context, arg FinalizeRecommendationReportParams) (RecommendationReport, error) {
	row := q.queryRow(ctx, q.finalizeRecommendationReportStmt, finalizeRecommendationReport,
		arg.ID,
		arg.Content,
		arg.Snapshot,
		arg.Xlsx,
	)
	return scanReport(row)
}

const markRecommendationReportFailed = `-- name: MarkRecommendationReportFailed :one
UPDATE recommendation_reports
SET status = 'failed', error_message = $2, updated_at = now()
WHERE id = $1
RETURNING ` + reportColumns

type MarkRecommendationReportFailedParams struct {
	ID           uuid.UUID      `json:"id"`
	ErrorMessage sql.NullString `json:"error_message"`
}

func (q *Queries) MarkRecommendationReportFailed(ctx context.Context, arg MarkRecommendationReportFailedParams) (RecommendationReport, error) {
	row := q.queryRow(ctx, q.markRecommendationReportFailedStmt, markRecommendationReportFailed, arg.ID, arg.ErrorMessage)
	return scanReport(row)
}

const listPendingRecommendationReports = `-- name: ListPendingRecommendationReports :many
SELECT id, patient_id
FROM recommendation_reports
WHERE status IN ('pending', 'processing')
ORDER BY created_at
LIMIT 100
`

type ListPendingRecommendationReportsRow struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
}

func (q *Queries) ListPendingRecommendationReports(ctx context.Context) ([]ListPendingRecommendationReportsRow, error) {
	rows, err := q.query(ctx, q.listPendingRecommendationReportsStmt, listPendingRecommendationReports)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListPendingRecommendationReportsRow
	for rows.Next() {
		var i ListPendingRecommendationReportsRow
		if err := rows.Scan(&i.ID, &i.PatientID); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanReport(row *sql.Row) (RecommendationReport, error) {
	var i RecommendationReport
	err := row.Scan(
		&i.ID,
		&i.PatientID,
		&i.Status,
		&i.Content,
		&i.Snapshot,
		&i.Xlsx,
		&i.ErrorMessage,
		&i.GeneratedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
