// Package db is the typed query layer over Postgres. It follows the shape of
// sqlc's prepared-statement output: one method per named query, a Querier
// interface for mocking, and Prepare to validate every statement against the
// live schema at startup.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Prepare creates a Queries with every statement prepared up front. A query
// that no longer matches the schema fails here instead of on first use.
func Prepare(ctx context.Context, db DBTX) (*Queries, error) {
	q := Queries{db: db}
	for _, s := range q.statements() {
		stmt, err := db.PrepareContext(ctx, s.query)
		if err != nil {
			_ = q.Close()
			return nil, fmt.Errorf("error preparing query %s: %w", s.name, err)
		}
		*s.dst = stmt
	}
	return &q, nil
}

func (q *Queries) Close() error {
	var errs []error
	for _, s := range q.statements() {
		if *s.dst == nil {
			continue
		}
		if cerr := (*s.dst).Close(); cerr != nil {
			errs = append(errs, fmt.Errorf("error closing %s: %w", s.name, cerr))
		}
	}
	return errors.Join(errs...)
}

func (q *Queries) exec(ctx context.Context, stmt *sql.Stmt, query string, args ...interface{}) (sql.Result, error) {
	switch {
	case stmt != nil && q.tx != nil:
		return q.tx.StmtContext(ctx, stmt).ExecContext(ctx, args...)
	case stmt != nil:
		return stmt.ExecContext(ctx, args...)
	default:
		return q.db.ExecContext(ctx, query, args...)
	}
}

func (q *Queries) query(ctx context.Context, stmt *sql.Stmt, query string, args ...interface{}) (*sql.Rows, error) {
	switch {
	case stmt != nil && q.tx != nil:
		return q.tx.StmtContext(ctx, stmt).QueryContext(ctx, args...)
	case stmt != nil:
		return stmt.QueryContext(ctx, args...)
	default:
		return q.db.QueryContext(ctx, query, args...)
	}
}

func (q *Queries) queryRow(ctx context.Context, stmt *sql.Stmt, query string, args ...interface{}) *sql.Row {
	switch {
	case stmt != nil && q.tx != nil:
		return q.tx.StmtContext(ctx, stmt).QueryRowContext(ctx, args...)
	case stmt != nil:
		return stmt.QueryRowContext(ctx, args...)
	default:
		return q.db.QueryRowContext(ctx, query, args...)
	}
}

type Queries struct {
	db DBTX
	tx *sql.Tx

	createPatientStmt  *sql.Stmt
	getPatientByIDStmt *sql.Stmt

	createAdlAnswerStmt         *sql.Stmt
	getLatestAdlAnswerStmt      *sql.Stmt
	createIadlAnswerStmt        *sql.Stmt
	getLatestIadlAnswerStmt     *sql.Stmt
	createPatientHistoryStmt    *sql.Stmt
	getLatestPatientHistoryStmt *sql.Stmt
	createPrapareAnswerStmt     *sql.Stmt
	getLatestPrapareAnswerStmt  *sql.Stmt

	listTaxonomyClassesStmt        *sql.Stmt
	listTaxonomySubclassesStmt     *sql.Stmt
	listItemHazardRulesStmt        *sql.Stmt
	listCodeHazardRulesStmt        *sql.Stmt
	listCodeUsageStmt              *sql.Stmt
	listServiceMapStmt             *sql.Stmt
	listParentServiceMapStmt       *sql.Stmt
	truncateCatalogStmt            *sql.Stmt
	insertTaxonomyClassStmt        *sql.Stmt
	insertTaxonomySubclassStmt     *sql.Stmt
	insertItemHazardRuleStmt       *sql.Stmt
	insertCodeHazardRuleStmt       *sql.Stmt
	insertServiceMappingStmt       *sql.Stmt
	insertParentServiceMappingStmt *sql.Stmt

	createHazardIfAbsentStmt   *sql.Stmt
	listHazardsByPatientStmt   *sql.Stmt
	listHazardsWithoutRiskStmt *sql.Stmt

	createRiskIfAbsentStmt *sql.Stmt
	getRiskByIDStmt        *sql.Stmt
	updateRiskRatingStmt   *sql.Stmt
	listRisksByPatientStmt *sql.Stmt

	createSocialRiskIfAbsentStmt *sql.Stmt
	updateSocialRiskLabelsStmt   *sql.Stmt
	getSocialRiskByIDStmt        *sql.Stmt
	updateSocialRiskRatingStmt   *sql.Stmt
	listSocialRisksByPatientStmt *sql.Stmt

	upsertRecommendationSettingStmt        *sql.Stmt
	listRecommendationSettingsStmt         *sql.Stmt
	listSelectedRecommendationSettingsStmt *sql.Stmt

	createRecommendationReportStmt       *sql.Stmt
	getRecommendationReportByIDStmt      *sql.Stmt
	setReportProcessingStmt              *sql.Stmt
	finalizeRecommendationReportStmt     *sql.Stmt
	markRecommendationReportFailedStmt   *sql.Stmt
	listPendingRecommendationReportsStmt *sql.Stmt
}

// WithTx returns a copy of q bound to tx. Prepared statements are re-bound to
// the transaction per call via tx.StmtContext.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	c := *q
	c.db = tx
	c.tx = tx
	return &c
}

type preparedStatement struct {
	dst   **sql.Stmt
	query string
	name  string
}

func (q *Queries) statements() []preparedStatement {
	return []preparedStatement{
		{&q.createPatientStmt, createPatient, "CreatePatient"},
		{&q.getPatientByIDStmt, getPatientByID, "GetPatientByID"},

		{&q.createAdlAnswerStmt, createAdlAnswer, "CreateAdlAnswer"},
		{&q.getLatestAdlAnswerStmt, getLatestAdlAnswer, "GetLatestAdlAnswer"},
		{&q.createIadlAnswerStmt, createIadlAnswer, "CreateIadlAnswer"},
		{&q.getLatestIadlAnswerStmt, getLatestIadlAnswer, "GetLatestIadlAnswer"},
		{&q.createPatientHistoryStmt, createPatientHistory, "CreatePatientHistory"},
		{&q.getLatestPatientHistoryStmt, getLatestPatientHistory, "GetLatestPatientHistory"},
		{&q.createPrapareAnswerStmt, createPrapareAnswer, "CreatePrapareAnswer"},
		{&q.getLatestPrapareAnswerStmt, getLatestPrapareAnswer, "GetLatestPrapareAnswer"},

		{&q.listTaxonomyClassesStmt, listTaxonomyClasses, "ListTaxonomyClasses"},
		{&q.listTaxonomySubclassesStmt, listTaxonomySubclasses, "ListTaxonomySubclasses"},
		{&q.listItemHazardRulesStmt, listItemHazardRules, "ListItemHazardRules"},
		{&q.listCodeHazardRulesStmt, listCodeHazardRules, "ListCodeHazardRules"},
		{&q.listCodeUsageStmt, listCodeUsage, "ListCodeUsage"},
		{&q.listServiceMapStmt, listServiceMap, "ListServiceMap"},
		{&q.listParentServiceMapStmt, listParentServiceMap, "ListParentServiceMap"},
		{&q.truncateCatalogStmt, truncateCatalog, "TruncateCatalog"},
		{&q.insertTaxonomyClassStmt, insertTaxonomyClass, "InsertTaxonomyClass"},
		{&q.insertTaxonomySubclassStmt, insertTaxonomySubclass, "InsertTaxonomySubclass"},
		{&q.insertItemHazardRuleStmt, insertItemHazardRule, "InsertItemHazardRule"},
		{&q.insertCodeHazardRuleStmt, insertCodeHazardRule, "InsertCodeHazardRule"},
		{&q.insertServiceMappingStmt, insertServiceMapping, "InsertServiceMapping"},
		{&q.insertParentServiceMappingStmt, insertParentServiceMapping, "InsertParentServiceMapping"},

		{&q.createHazardIfAbsentStmt, createHazardIfAbsent, "CreateHazardIfAbsent"},
		{&q.listHazardsByPatientStmt, listHazardsByPatient, "ListHazardsByPatient"},
		{&q.listHazardsWithoutRiskStmt, listHazardsWithoutRisk, "ListHazardsWithoutRisk"},

		{&q.createRiskIfAbsentStmt, createRiskIfAbsent, "CreateRiskIfAbsent"},
		{&q.getRiskByIDStmt, getRiskByID, "GetRiskByID"},
		{&q.updateRiskRatingStmt, updateRiskRating, "UpdateRiskRating"},
		{&q.listRisksByPatientStmt, listRisksByPatient, "ListRisksByPatient"},

		{&q.createSocialRiskIfAbsentStmt, createSocialRiskIfAbsent, "CreateSocialRiskIfAbsent"},
		{&q.updateSocialRiskLabelsStmt, updateSocialRiskLabels, "UpdateSocialRiskLabels"},
		{&q.getSocialRiskByIDStmt, getSocialRiskByID, "GetSocialRiskByID"},
		{&q.updateSocialRiskRatingStmt, updateSocialRiskRating, "UpdateSocialRiskRating"},
		{&q.listSocialRisksByPatientStmt, listSocialRisksByPatient, "ListSocialRisksByPatient"},

		{&q.upsertRecommendationSettingStmt, upsertRecommendationSetting, "UpsertRecommendationSetting"},
		{&q.listRecommendationSettingsStmt, listRecommendationSettings, "ListRecommendationSettings"},
		{&q.listSelectedRecommendationSettingsStmt, listSelectedRecommendationSettings, "ListSelectedRecommendationSettings"},

		{&q.createRecommendationReportStmt, createRecommendationReport, "CreateRecommendationReport"},
		{&q.getRecommendationReportByIDStmt, getRecommendationReportByID, "GetRecommendationReportByID"},
		{&q.setReportProcessingStmt, setReportProcessing, "SetReportProcessing"},
		{&q.finalizeRecommendationReportStmt, finalizeRecommendationReport, "FinalizeRecommendationReport"},
		{&q.markRecommendationReportFailedStmt, markRecommendationReportFailed, "MarkRecommendationReportFailed"},
		{&q.listPendingRecommendationReportsStmt, listPendingRecommendationReports, "ListPendingRecommendationReports"},
	}
}
