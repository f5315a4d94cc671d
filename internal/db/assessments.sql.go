package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

// ─── ADL ──────────────────────────────────────────────────────────────────────

const createAdlAnswer = `-- name: CreateAdlAnswer :one
INSERT INTO adl_answers (
    patient_id, feeding, bathing, grooming, dressing, bowels, bladder,
    toilet_use, transfers, mobility, stairs, date_completed
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, COALESCE($12, now()))
RETURNING id, patient_id, feeding, bathing, grooming, dressing, bowels, bladder,
          toilet_use, transfers, mobility, stairs, date_completed, created_at
`

type CreateAdlAnswerParams struct {
	PatientID     uuid.UUID     `json:"patient_id"`
	Feeding       sql.NullInt32 `json:"feeding"`
	Bathing       sql.NullInt32 `json:"bathing"`
	Grooming      sql.NullInt32 `json:"grooming"`
	Dressing      sql.NullInt32 `json:"dressing"`
	Bowels        sql.NullInt32 `json:"bowels"`
	Bladder       sql.NullInt32 `json:"bladder"`
	ToiletUse     sql.NullInt32 `json:"toilet_use"`
	Transfers     sql.NullInt32 `json:"transfers"`
	Mobility      sql.NullInt32 `json:"mobility"`
	Stairs        sql.NullInt32 `json:"stairs"`
	DateCompleted sql.NullTime  `json:"date_completed"`
}

func (q *Queries) CreateAdlAnswer(ctx context.Context, arg CreateAdlAnswerParams) (AdlAnswer, error) {
	row := q.queryRow(ctx, q.createAdlAnswerStmt, createAdlAnswer,
		arg.PatientID,
		arg.Feeding,
		arg.Bathing,
		arg.Grooming,
		arg.Dressing,
		arg.Bowels,
		arg.Bladder,
		arg.ToiletUse,
		arg.Transfers,
		arg.Mobility,
		arg.Stairs,
		arg.DateCompleted,
	)
	return scanAdlAnswer(row)
}

const getLatestAdlAnswer = `-- name: GetLatestAdlAnswer :one
SELECT id, patient_id, feeding, bathing, grooming, dressing, bowels, bladder,
       toilet_use, transfers, mobility, stairs, date_completed, created_at
FROM adl_answers
WHERE patient_id = $1
ORDER BY date_completed DESC, created_at DESC
LIMIT 1
`

func (q *Queries) GetLatestAdlAnswer(ctx context.Context, patientID uuid.UUID) (AdlAnswer, error) {
	row := q.queryRow(ctx, q.getLatestAdlAnswerStmt, getLatestAdlAnswer, patientID)
	return scanAdlAnswer(row)
}

func scanAdlAnswer(row *sql.Row) (AdlAnswer, error) {
	var i AdlAnswer
	err := row.Scan(
		&i.ID,
		&i.PatientID,
		&i.Feeding,
		&i.Bathing,
		&i.Grooming,
		&i.Dressing,
		&i.Bowels,
		&i.Bladder,
		&i.ToiletUse,
		&i.Transfers,
		&i.Mobility,
		&i.Stairs,
		&i.DateCompleted,
		&i.CreatedAt,
	)
	return i, err
}

// ─── IADL ─────────────────────────────────────────────────────────────────────

const createIadlAnswer = `-- name: CreateIadlAnswer :one
INSERT INTO iadl_answers (
    patient_id, telephone, shopping, food_preparation, housekeeping, laundry,
    transportation, medication, finances, date_completed
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, now()))
RETURNING id, patient_id, telephone, shopping, food_preparation, housekeeping,
          laundry, transportation, medication, finances, date_completed, created_at
`

type CreateIadlAnswerParams struct {
	PatientID       uuid.UUID     `json:"patient_id"`
	Telephone       sql.NullInt32 `json:"telephone"`
	Shopping        sql.NullInt32 `json:"shopping"`
	FoodPreparation sql.NullInt32 `json:"food_preparation"`
	Housekeeping    sql.NullInt32 `json:"housekeeping"`
	Laundry         sql.NullInt32 `json:"laundry"`
	Transportation  sql.NullInt32 `json:"transportation"`
	Medication      sql.NullInt32 `json:"medication"`
	Finances        sql.NullInt32 `json:"finances"`
	DateCompleted   sql.NullTime  `json:"date_completed"`
}

func (q *Queries) CreateIadlAnswer(ctx context.Context, arg CreateIadlAnswerParams) (IadlAnswer, error) {
	row := q.queryRow(ctx, q.createIadlAnswerStmt, createIadlAnswer,
		arg.PatientID,
		arg.Telephone,
		arg.Shopping,
		arg.FoodPreparation,
		arg.Housekeeping,
		arg.Laundry,
		arg.Transportation,
		arg.Medication,
		arg.Finances,
		arg.DateCompleted,
	)
	return scanIadlAnswer(row)
}

const getLatestIadlAnswer = `-- name: GetLatestIadlAnswer :one
SELECT id, patient_id, telephone, shopping, food_preparation, housekeeping,
       laundry, transportation, medication, finances, date_completed, created_at
FROM iadl_answers
WHERE patient_id = $1
ORDER BY date_completed DESC, created_at DESC
LIMIT 1
`

func (q *Queries) GetLatestIadlAnswer(ctx context.Context, patientID uuid.UUID) (IadlAnswer, error) {
	row := q.queryRow(ctx, q.getLatestIadlAnswerStmt, getLatestIadlAnswer, patientID)
	return scanIadlAnswer(row)
}

func scanIadlAnswer(row *sql.Row) (IadlAnswer, error) {
	var i IadlAnswer
	err := row.Scan(
		&i.ID,
		&i.PatientID,
		&i.Telephone,
		&i.Shopping,
		&i.FoodPreparation,
		&i.Housekeeping,
		&i.Laundry,
		&i.Transportation,
		&i.Medication,
		&i.Finances,
		&i.DateCompleted,
		&i.CreatedAt,
	)
	return i, err
}

// ─── HISTORY ──────────────────────────────────────────────────────────────────

const createPatientHistory = `-- name: CreatePatientHistory :one
INSERT INTO patient_history (patient_id, dx_codes, sx_codes, rx_codes, tx_codes, notes)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, patient_id, dx_codes, sx_codes, rx_codes, tx_codes, notes, created_at
`

type CreatePatientHistoryParams struct {
	PatientID uuid.UUID      `json:"patient_id"`
	DxCodes   []string       `json:"dx_codes"`
	SxCodes   []string       `json:"sx_codes"`
	RxCodes   []string       `json:"rx_codes"`
	TxCodes   []string       `json:"tx_codes"`
	Notes     sql.NullString `json:"notes"`
}

func (q *Queries) CreatePatientHistory(ctx context.Context, arg CreatePatientHistoryParams) (PatientHistory, error) {
	row := q.queryRow(ctx, q.createPatientHistoryStmt, createPatientHistory,
		arg.PatientID,
		pq.Array(nonNil(arg.DxCodes)),
		pq.Array(nonNil(arg.SxCodes)),
		pq.Array(nonNil(arg.RxCodes)),
		pq.Array(nonNil(arg.TxCodes)),
		arg.Notes,
	)
	return scanPatientHistory(row)
}

const getLatestPatientHistory = `-- name: GetLatestPatientHistory :one
SELECT id, patient_id, dx_codes, sx_codes, rx_codes, tx_codes, notes, created_at
FROM patient_history
WHERE patient_id = $1
ORDER BY created_at DESC
LIMIT 1
`

func (q *Queries) GetLatestPatientHistory(ctx context.Context, patientID uuid.UUID) (PatientHistory, error) {
	row := q.queryRow(ctx, q.getLatestPatientHistoryStmt, getLatestPatientHistory, patientID)
	return scanPatientHistory(row)
}

func scanPatientHistory(row *sql.Row) (PatientHistory, error) {
	var i PatientHistory
	err := row.Scan(
		&i.ID,
		&i.PatientID,
		pq.Array(&i.DxCodes),
		pq.Array(&i.SxCodes),
		pq.Array(&i.RxCodes),
		pq.Array(&i.TxCodes),
		&i.Notes,
		&i.CreatedAt,
	)
	return i, err
}

// nonNil keeps NOT NULL text[] columns from receiving NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ─── PRAPARE ──────────────────────────────────────────────────────────────────

const createPrapareAnswer = `-- name: CreatePrapareAnswer :one
INSERT INTO prapare_answers (patient_id, items, assessed_by, notes, date_completed)
VALUES ($1, $2, $3, $4, COALESCE($5, now()))
RETURNING id, patient_id, items, assessed_by, notes, date_completed, created_at
`

type CreatePrapareAnswerParams struct {
	PatientID     uuid.UUID             `json:"patient_id"`
	Items         pqtype.NullRawMessage `json:"items"`
	AssessedBy    sql.NullString        `json:"assessed_by"`
	Notes         sql.NullString        `json:"notes"`
	DateCompleted sql.NullTime          `json:"date_completed"`
}

func (q *Queries) CreatePrapareAnswer(ctx context.Context, arg CreatePrapareAnswerParams) (PrapareAnswer, error) {
	row := q.queryRow(ctx, q.createPrapareAnswerStmt, createPrapareAnswer,
		arg.PatientID,
		arg.Items,
		arg.AssessedBy,
		arg.Notes,
		arg.DateCompleted,
	)
	return scanPrapareAnswer(row)
}

const getLatestPrapareAnswer = `-- name: GetLatestPrapareAnswer :one
SELECT id, patient_id, items, assessed_by, notes, date_completed, created_at
FROM prapare_answers
WHERE patient_id = $1
ORDER BY date_completed DESC, created_at DESC
LIMIT 1
`

func (q *Queries) GetLatestPrapareAnswer(ctx context.Context, patientID uuid.UUID) (PrapareAnswer, error) {
	row := q.queryRow(ctx, q.getLatestPrapareAnswerStmt, getLatestPrapareAnswer, patientID)
	return scanPrapareAnswer(row)
}

func scanPrapareAnswer(row *sql.Row) (PrapareAnswer, error) {
	var i PrapareAnswer
	err := row.Scan(
		&i.ID,
		&i.PatientID,
		&i.Items,
		&i.AssessedBy,
		&i.Notes,
		&i.DateCompleted,
		&i.CreatedAt,
	)
	return i, err
}
