package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyashahama/hazard-risk-engine/internal/db"
	"github.com/nyashahama/hazard-risk-engine/internal/email"
	"github.com/nyashahama/hazard-risk-engine/internal/engine"
	"github.com/nyashahama/hazard-risk-engine/internal/scoring"
	"github.com/nyashahama/hazard-risk-engine/internal/store"
)

// ─── TEST INFRASTRUCTURE ──────────────────────────────────────────────────────

var reportCols = []string{"id", "patient_id", "status", "content", "snapshot", "xlsx", "error_message", "generated_at", "created_at", "updated_at"}

func named(name string) string {
	return regexp.QuoteMeta("-- name: " + name + " ")
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setup(t *testing.T) (sqlmock.Sqlmock, db.Querier, *store.Store) {
	t.Helper()
	pool, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	q := db.New(pool)
	return mock, q, store.New(pool, q)
}

func reportRow(id, patientID uuid.UUID, status db.ReportStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(reportCols).
		AddRow(id.String(), patientID.String(), string(status), nil, nil, nil, nil, nil, now, now)
}

type stubRecommender struct {
	rec scoring.Recommendations
	err error
}

func (s stubRecommender) SelectedRecommendations(context.Context, uuid.UUID) (scoring.Recommendations, error) {
	return s.rec, s.err
}

type recordingSender struct {
	mu   sync.Mutex
	sent []email.ReportReadyParams
	err  error
}

func (s *recordingSender) SendReportReady(_ context.Context, p email.ReportReadyParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, p)
	return s.err
}

func selected() scoring.Recommendations {
	return scoring.Recommendations{
		PatientID:              "p",
		TotalServices:          1,
		TotalServiceCategories: 1,
		ServiceCategories: []scoring.ServiceCategory{{
			ServiceClassID:    "SVC_PC",
			ServiceClassLabel: "Personal care",
			HazardCount:       1,
			TotalRiskScore:    12,
			Services: []scoring.ServiceEntry{{
				ServiceSubclassID:    "SVC_TOIL",
				ServiceSubclassLabel: "Toileting assistance",
				Priority:             scoring.PriorityMedium,
				MaxRiskScore:         12,
				LinkedHazards:        []scoring.LinkedHazard{{HazardCode: "ADL_BOWELS_DEP", HazardType: "adl", RiskScore: 12}},
			}},
		}},
	}
}

// ─── Job.Run ──────────────────────────────────────────────────────────────────

func TestJobRun_PersistsAndNotifies(t *testing.T) {
	mock, q, st := setup(t)
	reportID, patientID := uuid.New(), uuid.New()

	mock.ExpectQuery(named("GetRecommendationReportByID")).
		WithArgs(reportID).
		WillReturnRows(reportRow(reportID, patientID, db.ReportStatusPending))
	mock.ExpectBegin()
	mock.ExpectQuery(named("SetReportProcessing")).
		WithArgs(reportID).
		WillReturnRows(reportRow(reportID, patientID, db.ReportStatusProcessing))
	mock.ExpectQuery(named("FinalizeRecommendationReport")).
		WithArgs(reportID, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(reportRow(reportID, patientID, db.ReportStatusReady))
	mock.ExpectCommit()

	mailer := &recordingSender{}
	job := NewJob(q, st, stubRecommender{rec: selected()}, mailer, "care-team@example.org", discard())

	require.NoError(t, job.Run(context.Background(), reportID))
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "care-team@example.org", mailer.sent[0].To)
	assert.Equal(t, patientID.String(), mailer.sent[0].PatientID)
	assert.Equal(t, reportID.String(), mailer.sent[0].ReportID)
	assert.Equal(t, 1, mailer.sent[0].Services)
}

func TestJobRun_EmailFailureIsNotFatal(t *testing.T) {
	mock, q, st := setup(t)
	reportID, patientID := uuid.New(), uuid.New()

	mock.ExpectQuery(named("GetRecommendationReportByID")).
		WillReturnRows(reportRow(reportID, patientID, db.ReportStatusPending))
	mock.ExpectBegin()
	mock.ExpectQuery(named("SetReportProcessing")).
		WillReturnRows(reportRow(reportID, patientID, db.ReportStatusProcessing))
	mock.ExpectQuery(named("FinalizeRecommendationReport")).
		WillReturnRows(reportRow(reportID, patientID, db.ReportStatusReady))
	mock.ExpectCommit()

	mailer := &recordingSender{err: errors.New("smtp down")}
	job := NewJob(q, st, stubRecommender{rec: selected()}, mailer, "care-team@example.org", discard())

	assert.NoError(t, job.Run(context.Background(), reportID))
	assert.Len(t, mailer.sent, 1)
}

func TestJobRun_AlreadyReadyIsDone(t *testing.T) {
	mock, q, st := setup(t)
	reportID := uuid.New()

	mock.ExpectQuery(named("GetRecommendationReportByID")).
		WillReturnRows(reportRow(reportID, uuid.New(), db.ReportStatusReady))

	job := NewJob(q, st, stubRecommender{err: errors.New("must not be called")}, &recordingSender{}, "", discard())
	assert.NoError(t, job.Run(context.Background(), reportID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRun_NoSelectionIsPermanent(t *testing.T) {
	mock, q, st := setup(t)
	reportID := uuid.New()

	mock.ExpectQuery(named("GetRecommendationReportByID")).
		WillReturnRows(reportRow(reportID, uuid.New(), db.ReportStatusPending))

	job := NewJob(q, st, stubRecommender{err: engine.ErrNoSelectedServices}, &recordingSender{}, "", discard())
	err := job.Run(context.Background(), reportID)
	require.Error(t, err)
	assert.True(t, permanent(err))
}

// ─── Runner ───────────────────────────────────────────────────────────────────

type stubProcessor struct {
	mu    sync.Mutex
	calls int
	errs  []error // one per attempt; nil once exhausted
}

func (p *stubProcessor) Run(context.Context, uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if len(p.errs) == 0 {
		return nil
	}
	err := p.errs[0]
	p.errs = p.errs[1:]
	return err
}

func TestRunWithRetry_MarksFailedAfterLastAttempt(t *testing.T) {
	mock, q, st := setup(t)
	reportID := uuid.New()

	mock.ExpectQuery(named("MarkRecommendationReportFailed")).
		WithArgs(reportID, "boom").
		WillReturnRows(reportRow(reportID, uuid.New(), db.ReportStatusFailed))

	proc := &stubProcessor{errs: []error{errors.New("boom")}}
	r := NewRunner(proc, st, q, RunnerConfig{MaxRetries: 1}, discard())

	r.runWithRetry(context.Background(), reportID, discard())

	assert.Equal(t, 1, proc.calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunWithRetry_PermanentErrorSkipsRetries(t *testing.T) {
	mock, q, st := setup(t)
	reportID := uuid.New()

	mock.ExpectQuery(named("MarkRecommendationReportFailed")).
		WillReturnRows(reportRow(reportID, uuid.New(), db.ReportStatusFailed))

	proc := &stubProcessor{errs: []error{fmt.Errorf("job: %w", engine.ErrNoSelectedServices)}}
	r := NewRunner(proc, st, q, RunnerConfig{MaxRetries: 5}, discard())

	r.runWithRetry(context.Background(), reportID, discard())

	assert.Equal(t, 1, proc.calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunWithRetry_SuccessDoesNotMarkFailed(t *testing.T) {
	mock, q, st := setup(t)

	proc := &stubProcessor{}
	r := NewRunner(proc, st, q, RunnerConfig{}, discard())
	r.runWithRetry(context.Background(), uuid.New(), discard())

	assert.Equal(t, 1, proc.calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPollOnceAndEnqueue(t *testing.T) {
	mock, q, st := setup(t)
	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery(named("ListPendingRecommendationReports")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "patient_id"}).
			AddRow(a.String(), uuid.New().String()).
			AddRow(b.String(), uuid.New().String()))

	r := NewRunner(&stubProcessor{}, st, q, RunnerConfig{Workers: 1}, discard())
	r.pollOnce(context.Background())

	assert.Equal(t, a, <-r.queue)
	assert.Equal(t, b, <-r.queue)

	// capacity is Workers*2
	require.NoError(t, r.Enqueue(context.Background(), a))
	require.NoError(t, r.Enqueue(context.Background(), b))
	assert.Error(t, r.Enqueue(context.Background(), uuid.New()))
	require.NoError(t, mock.ExpectationsWereMet())
}
