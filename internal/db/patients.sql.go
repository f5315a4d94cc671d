package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

const createPatient = `-- name: CreatePatient :one
INSERT INTO patients (name, dob, gender, phone, email)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, name, dob, gender, phone, email, created_at
`

type CreatePatientParams struct {
	Name   string         `json:"name"`
	Dob    sql.NullTime   `json:"dob"`
	Gender sql.NullString `json:"gender"`
	Phone  sql.NullString `json:"phone"`
	Email  sql.NullString `json:"email"`
}

func (q *Queries) CreatePatient(ctx context.Context, arg CreatePatientParams) (Patient, error) {
	row := q.queryRow(ctx, q.createPatientStmt, createPatient,
		arg.Name,
		arg.Dob,
		arg.Gender,
		arg.Phone,
		arg.Email,
	)
	var i Patient
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Dob,
		&i.Gender,
		&i.Phone,
		&i.Email,
		&i.CreatedAt,
	)
	return i, err
}

const getPatientByID = `-- name: GetPatientByID :one
SELECT id, name, dob, gender, phone, email, created_at
FROM patients
WHERE id = $1
`

func (q *Queries) GetPatientByID(ctx context.Context, id uuid.UUID) (Patient, error) {
	row := q.queryRow(ctx, q.getPatientByIDStmt, getPatientByID, id)
	var i Patient
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Dob,
		&i.Gender,
		&i.Phone,
		&i.Email,
		&i.CreatedAt,
	)
	return i, err
}
