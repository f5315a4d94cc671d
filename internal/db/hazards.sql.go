package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// ─── HAZARDS ──────────────────────────────────────────────────────────────────

const createHazardIfAbsent = `-- name: CreateHazardIfAbsent :one
INSERT INTO hazards (patient_id, hazard_type, description, source)
VALUES ($1, $2, $3, $4)
ON CONFLICT (patient_id, hazard_type) DO NOTHING
RETURNING id, patient_id, hazard_type, description, source, severity, weight, created_at
`

type CreateHazardIfAbsentParams struct {
	PatientID   uuid.UUID `json:"patient_id"`
	HazardType  string    `json:"hazard_type"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
}

// CreateHazardIfAbsent returns sql.ErrNoRows when the (patient, hazard_type)
// row already exists.
func (q *Queries) CreateHazardIfAbsent(ctx context.Context, arg CreateHazardIfAbsentParams) (Hazard, error) {
	row := q.queryRow(ctx, q.createHazardIfAbsentStmt, createHazardIfAbsent,
		arg.PatientID,
		arg.HazardType,
		arg.Description,
		arg.Source,
	)
	var i Hazard
	err := row.Scan(
		&i.ID,
		&i.PatientID,
		&i.HazardType,
		&i.Description,
		&i.Source,
		&i.Severity,
		&i.Weight,
		&i.CreatedAt,
	)
	return i, err
}

const listHazardsByPatient = `-- name: ListHazardsByPatient :many
SELECT id, patient_id, hazard_type, description, source, severity, weight, created_at
FROM hazards
WHERE patient_id = $1
ORDER BY created_at, hazard_type
`

func (q *Queries) ListHazardsByPatient(ctx context.Context, patientID uuid.UUID) ([]Hazard, error) {
	return q.listHazards(ctx, q.listHazardsByPatientStmt, listHazardsByPatient, patientID)
}

const listHazardsWithoutRisk = `-- name: ListHazardsWithoutRisk :many
SELECT h.id, h.patient_id, h.hazard_type, h.description, h.source, h.severity, h.weight, h.created_at
FROM hazards h
LEFT JOIN risks r ON r.hazard_id = h.id
WHERE h.patient_id = $1 AND r.id IS NULL
ORDER BY h.created_at, h.hazard_type
`

func (q *Queries) ListHazardsWithoutRisk(ctx context.Context, patientID uuid.UUID) ([]Hazard, error) {
	return q.listHazards(ctx, q.listHazardsWithoutRiskStmt, listHazardsWithoutRisk, patientID)
}

func (q *Queries) listHazards(ctx context.Context, stmt *sql.Stmt, query string, patientID uuid.UUID) ([]Hazard, error) {
	rows, err := q.query(ctx, stmt, query, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Hazard
	for rows.Next() {
		var i Hazard
		if err := rows.Scan(
			&i.ID,
			&i.PatientID,
			&i.HazardType,
			&i.Description,
			&i.Source,
			&i.Severity,
			&i.Weight,
			&i.CreatedAt,
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

// ─── RISKS ────────────────────────────────────────────────────────────────────

const riskColumns = `id, hazard_id, patient_id, severity, likelihood, risk_score, notes, created_at, updated_at`

const createRiskIfAbsent = `-- name: CreateRiskIfAbsent :one
INSERT INTO risks (hazard_id, patient_id)
VALUES ($1, $2)
ON CONFLICT (hazard_id) DO NOTHING
RETURNING ` + riskColumns

type CreateRiskIfAbsentParams struct {
	HazardID  uuid.UUID `json:"hazard_id"`
	PatientID uuid.UUID `json:"patient_id"`
}

// CreateRiskIfAbsent inserts an unscored risk. It returns sql.ErrNoRows when
// the hazard already has one.
func (q *Queries) CreateRiskIfAbsent(ctx context.Context, arg CreateRiskIfAbsentParams) (Risk, error) {
	row := q.queryRow(ctx, q.createRiskIfAbsentStmt, createRiskIfAbsent, arg.HazardID, arg.PatientID)
	return scanRisk(row)
}

const getRiskByID = `-- name: GetRiskByID :one
SELECT ` + riskColumns + `
FROM risks
WHERE id = $1
`

func (q *Queries) GetRiskByID(ctx context.Context, id uuid.UUID) (Risk, error) {
	row := q.queryRow(ctx, q.getRiskByIDStmt, getRiskByID, id)
	return scanRisk(row)
}

const updateRiskRating = `-- name: UpdateRiskRating :one
UPDATE risks
SET severity = $2, likelihood = $3, risk_score = $4, notes = $5, updated_at = now()
WHERE id = $1
RETURNING ` + riskColumns

type UpdateRiskRatingParams struct {
	ID         uuid.UUID       `json:"id"`
	Severity   sql.NullFloat64 `json:"severity"`
	Likelihood sql.NullInt32   `json:"likelihood"`
	RiskScore  sql.NullFloat64 `json:"risk_score"`
	Notes      sql.NullString  `json:"notes"`
}

func (q *Queries) UpdateRiskRating(ctx context.Context, arg UpdateRiskRatingParams) (Risk, error) {
	row := q.queryRow(ctx, q.updateRiskRatingStmt, updateRiskRating,
		arg.ID,
		arg.Severity,
		arg.Likelihood,
		arg.RiskScore,
		arg.Notes,
	)
	return scanRisk(row)
}

func scanRisk(row *sql.Row) (Risk, error) {
	var i Risk
	err := row.Scan(
		&i.ID,
		&i.HazardID,
		&i.PatientID,
		&i.Severity,
		&i.Likelihood,
		&i.RiskScore,
		&i.Notes,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listRisksByPatient = `-- name: ListRisksByPatient :many
SELECT r.id, r.hazard_id, r.patient_id, r.severity, r.likelihood, r.risk_score,
       r.notes, r.created_at, r.updated_at,
       h.hazard_type, h.description, h.source
FROM risks r
JOIN hazards h ON h.id = r.hazard_id
WHERE r.patient_id = $1
ORDER BY h.created_at, h.hazard_type
`

type ListRisksByPatientRow struct {
	ID                uuid.UUID       `json:"id"`
	HazardID          uuid.UUID       `json:"hazard_id"`
	PatientID         uuid.UUID       `json:"patient_id"`
	Severity          sql.NullFloat64 `json:"severity"`
	Likelihood        sql.NullInt32   `json:"likelihood"`
	RiskScore         sql.NullFloat64 `json:"risk_score"`
	Notes             sql.NullString  `json:"notes"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	HazardType        string          `json:"hazard_type"`
	HazardDescription string          `json:"hazard_description"`
	HazardSource      string          `json:"hazard_source"`
}

func (q *Queries) ListRisksByPatient(ctx context.Context, patientID uuid.UUID) ([]ListRisksByPatientRow, error) {
	rows, err := q.query(ctx, q.listRisksByPatientStmt, listRisksByPatient, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListRisksByPatientRow
	for rows.Next() {
		var i ListRisksByPatientRow
		if err := rows.Scan(
			&i.ID,
			&i.HazardID,
			&i.PatientID,
			&i.Severity,
			&i.Likelihood,
			&i.RiskScore,
			&i.Notes,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.HazardType,
			&i.HazardDescription,
			&i.HazardSource,
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

// ─── SOCIAL RISKS ─────────────────────────────────────────────────────────────

const socialRiskColumns = `id, patient_id, social_hazard_code, social_hazard_type, social_hazard_label,
       social_hazard_description, severity, likelihood, risk_score, notes, created_at, updated_at`

const createSocialRiskIfAbsent = `-- name: CreateSocialRiskIfAbsent :one
INSERT INTO social_risks (patient_id, social_hazard_code, social_hazard_type, social_hazard_label, social_hazard_description)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (patient_id, social_hazard_code) DO NOTHING
RETURNING ` + socialRiskColumns

type CreateSocialRiskIfAbsentParams struct {
	PatientID               uuid.UUID `json:"patient_id"`
	SocialHazardCode        string    `json:"social_hazard_code"`
	SocialHazardType        string    `json:"social_hazard_type"`
	SocialHazardLabel       string    `json:"social_hazard_label"`
	SocialHazardDescription string    `json:"social_hazard_description"`
}

// CreateSocialRiskIfAbsent returns sql.ErrNoRows when the (patient, code) row
// already exists.
func (q *Queries) CreateSocialRiskIfAbsent(ctx context.Context, arg CreateSocialRiskIfAbsentParams) (SocialRisk, error) {
	row := q.queryRow(ctx, q.createSocialRiskIfAbsentStmt, createSocialRiskIfAbsent,
		arg.PatientID,
		arg.SocialHazardCode,
		arg.SocialHazardType,
		arg.SocialHazardLabel,
		arg.SocialHazardDescription,
	)
	return scanSocialRisk(row)
}

const updateSocialRiskLabels = `-- name: UpdateSocialRiskLabels :one
UPDATE social_risks
SET social_hazard_type = $3, social_hazard_label = $4, social_hazard_description = $5, updated_at = now()
WHERE patient_id = $1 AND social_hazard_code = $2
RETURNING ` + socialRiskColumns

type UpdateSocialRiskLabelsParams struct {
	PatientID               uuid.UUID `json:"patient_id"`
	SocialHazardCode        string    `json:"social_hazard_code"`
	SocialHazardType        string    `json:"social_hazard_type"`
	SocialHazardLabel       string    `json:"social_hazard_label"`
	SocialHazardDescription string    `json:"social_hazard_description"`
}

func (q *Queries) UpdateSocialRiskLabels(ctx context.Context, arg UpdateSocialRiskLabelsParams) (SocialRisk, error) {
	row := q.queryRow(ctx, q.updateSocialRiskLabelsStmt, updateSocialRiskLabels,
		arg.PatientID,
		arg.SocialHazardCode,
		arg.SocialHazardType,
		arg.SocialHazardLabel,
		arg.SocialHazardDescription,
	)
	return scanSocialRisk(row)
}

const getSocialRiskByID = `-- name: GetSocialRiskByID :one
SELECT ` + socialRiskColumns + `
FROM social_risks
WHERE id = $1
`

func (q *Queries) GetSocialRiskByID(ctx context.Context, id uuid.UUID) (SocialRisk, error) {
	row := q.queryRow(ctx, q.getSocialRiskByIDStmt, getSocialRiskByID, id)
	return scanSocialRisk(row)
}

const updateSocialRiskRating = `-- name: UpdateSocialRiskRating :one
UPDATE social_risks
SET severity = $2, likelihood = $3, risk_score = $4, notes = $5, updated_at = now()
WHERE id = $1
RETURNING ` + socialRiskColumns

type UpdateSocialRiskRatingParams struct {
	ID         uuid.UUID       `json:"id"`
	Severity   sql.NullFloat64 `json:"severity"`
	Likelihood sql.NullInt32   `json:"likelihood"`
	RiskScore  sql.NullFloat64 `json:"risk_score"`
	Notes      sql.NullString  `json:"notes"`
}

func (q *Queries) UpdateSocialRiskRating(ctx context.Context, arg UpdateSocialRiskRatingParams) (SocialRisk, error) {
	row := q.queryRow(ctx, q.updateSocialRiskRatingStmt, updateSocialRiskRating,
		arg.ID,
		arg.Severity,
		arg.Likelihood,
		arg.RiskScore,
		arg.Notes,
	)
	return scanSocialRisk(row)
}

const listSocialRisksByPatient = `-- name: ListSocialRisksByPatient :many
SELECT ` + socialRiskColumns + `
FROM social_risks
WHERE patient_id = $1
ORDER BY created_at, social_hazard_code
`

func (q *Queries) ListSocialRisksByPatient(ctx context.Context, patientID uuid.UUID) ([]SocialRisk, error) {
	rows, err := q.query(ctx, q.listSocialRisksByPatientStmt, listSocialRisksByPatient, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SocialRisk
	for rows.Next() {
		var i SocialRisk
		if err := rows.Scan(
			&i.ID,
			&i.PatientID,
			&i.SocialHazardCode,
			&i.SocialHazardType,
			&i.SocialHazardLabel,
			&i.SocialHazardDescription,
			&i.Severity,
			&i.Likelihood,
			&i.RiskScore,
			&i.Notes,
			&i.CreatedAt,
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

func scanSocialRisk(row *sql.Row) (SocialRisk, error) {
	var i SocialRisk
	err := row.Scan(
		&i.ID,
		&i.PatientID,
		&i.SocialHazardCode,
		&i.SocialHazardType,
		&i.SocialHazardLabel,
		&i.SocialHazardDescription,
		&i.Severity,
		&i.Likelihood,
		&i.RiskScore,
		&i.Notes,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
