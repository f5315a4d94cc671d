package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyashahama/hazard-risk-engine/internal/db"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *db.Queries) {
	t.Helper()
	pool, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool, mock, db.New(pool)
}

var hazardCols = []string{"id", "patient_id", "hazard_type", "description", "source", "severity", "weight", "created_at"}

// ─── Hazards ──────────────────────────────────────────────────────────────────

func TestCreateHazardIfAbsent_Inserted(t *testing.T) {
	_, mock, q := setupMockDB(t)
	patientID, hazardID := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO hazards`).
		WithArgs(patientID, "ADL_BOWELS_DEP", "bowels", "adl").
		WillReturnRows(sqlmock.NewRows(hazardCols).
			AddRow(hazardID.String(), patientID.String(), "ADL_BOWELS_DEP", "bowels", "adl", nil, nil, now))

	h, err := q.CreateHazardIfAbsent(context.Background(), db.CreateHazardIfAbsentParams{
		PatientID:   patientID,
		HazardType:  "ADL_BOWELS_DEP",
		Description: "bowels",
		Source:      "adl",
	})
	require.NoError(t, err)
	assert.Equal(t, hazardID, h.ID)
	assert.Equal(t, "ADL_BOWELS_DEP", h.HazardType)
	assert.False(t, h.Severity.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateHazardIfAbsent_ConflictIsNoRows(t *testing.T) {
	_, mock, q := setupMockDB(t)

	mock.ExpectQuery(`INSERT INTO hazards`).
		WillReturnRows(sqlmock.NewRows(hazardCols))

	_, err := q.CreateHazardIfAbsent(context.Background(), db.CreateHazardIfAbsentParams{
		PatientID:  uuid.New(),
		HazardType: "COG_MEM",
	})
	assert.True(t, errors.Is(err, sql.ErrNoRows), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ─── Risks ────────────────────────────────────────────────────────────────────

func TestListRisksByPatient_ScansJoinedColumns(t *testing.T) {
	_, mock, q := setupMockDB(t)
	patientID := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "hazard_id", "patient_id", "severity", "likelihood", "risk_score",
		"notes", "created_at", "updated_at", "hazard_type", "description", "source",
	}).
		AddRow(uuid.NewString(), uuid.NewString(), patientID.String(), 3.0, int64(4), 12.0, "watch", now, now, "ADL_BOWELS_DEP", "bowels", "adl").
		AddRow(uuid.NewString(), uuid.NewString(), patientID.String(), nil, nil, nil, nil, now, now, "COG_MEM", "G30.9", "dx")

	mock.ExpectQuery(`FROM risks r\s+JOIN hazards h`).
		WithArgs(patientID).
		WillReturnRows(rows)

	got, err := q.ListRisksByPatient(context.Background(), patientID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 12.0, got[0].RiskScore.Float64)
	assert.Equal(t, int32(4), got[0].Likelihood.Int32)
	assert.Equal(t, "ADL_BOWELS_DEP", got[0].HazardType)
	assert.Equal(t, "watch", got[0].Notes.String)

	assert.False(t, got[1].RiskScore.Valid)
	assert.False(t, got[1].Severity.Valid)
	assert.Equal(t, "dx", got[1].HazardSource)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ─── History arrays ───────────────────────────────────────────────────────────

func TestGetLatestPatientHistory_ScansTextArrays(t *testing.T) {
	_, mock, q := setupMockDB(t)
	patientID := uuid.New()

	mock.ExpectQuery(`FROM patient_history`).
		WithArgs(patientID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "patient_id", "dx_codes", "sx_codes", "rx_codes", "tx_codes", "notes", "created_at"}).
			AddRow(uuid.NewString(), patientID.String(), []byte(`{G30.9,I10}`), []byte(`{R52}`), []byte(`{}`), []byte(`{}`), nil, time.Now()))

	h, err := q.GetLatestPatientHistory(context.Background(), patientID)
	require.NoError(t, err)
	assert.Equal(t, []string{"G30.9", "I10"}, h.DxCodes)
	assert.Equal(t, []string{"R52"}, h.SxCodes)
	assert.Empty(t, h.RxCodes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ─── Transactions ─────────────────────────────────────────────────────────────

func TestListCodeUsage_PassesDomainAndLimit(t *testing.T) {
	_, mock, q := setupMockDB(t)

	mock.ExpectQuery(`FROM code_hazard_rules r`).
		WithArgs("dx", int32(20)).
		WillReturnRows(sqlmock.NewRows([]string{"code", "hazard_code", "hazard_label", "frequency"}).
			AddRow("F03.90", "COGNITIVE", "Cognitive Impairment", int64(7)).
			AddRow("R26.81", "FALL_RISK", "Fall Risk", int64(0)))

	rows, err := q.ListCodeUsage(context.Background(), db.ListCodeUsageParams{Domain: "dx", Limit: 20})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, db.ListCodeUsageRow{Code: "F03.90", HazardCode: "COGNITIVE", HazardLabel: "Cognitive Impairment", Frequency: 7}, rows[0])
	assert.Zero(t, rows[1].Frequency)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RunsQueriesOnTransaction(t *testing.T) {
	pool, mock, q := setupMockDB(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`TRUNCATE parent_service_map`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := pool.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, q.WithTx(tx).TruncateCatalog(ctx))
	require.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrepare_FailsOnBadStatement(t *testing.T) {
	pool, mock, _ := setupMockDB(t)

	mock.ExpectPrepare(`INSERT INTO patients`).WillReturnError(errors.New("relation \"patients\" does not exist"))

	_, err := db.Prepare(context.Background(), pool)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CreatePatient")
}

// ─── Migrate ──────────────────────────────────────────────────────────────────

func TestMigrate_SkipsAppliedVersions(t *testing.T) {
	pool, mock, _ := setupMockDB(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("0001_init").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	applied, err := db.Migrate(context.Background(), pool)
	require.NoError(t, err)
	assert.Empty(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_AppliesPendingVersionInTransaction(t *testing.T) {
	pool, mock, _ := setupMockDB(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("0001_init").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE patients`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO schema_migrations`).WithArgs("0001_init").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	applied, err := db.Migrate(context.Background(), pool)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_init"}, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}
