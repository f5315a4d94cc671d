package db

import (
	"context"

	"github.com/google/uuid"
)

type Querier interface {
	// patients
	CreatePatient(ctx context.Context, arg CreatePatientParams) (Patient, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (Patient, error)

	// assessments
	CreateAdlAnswer(ctx context.Context, arg CreateAdlAnswerParams) (AdlAnswer, error)
	GetLatestAdlAnswer(ctx context.Context, patientID uuid.UUID) (AdlAnswer, error)
	CreateIadlAnswer(ctx context.Context, arg CreateIadlAnswerParams) (IadlAnswer, error)
	GetLatestIadlAnswer(ctx context.Context, patientID uuid.UUID) (IadlAnswer, error)
	CreatePatientHistory(ctx context.Context, arg CreatePatientHistoryParams) (PatientHistory, error)
	GetLatestPatientHistory(ctx context.Context, patientID uuid.UUID) (PatientHistory, error)
	CreatePrapareAnswer(ctx context.Context, arg CreatePrapareAnswerParams) (PrapareAnswer, error)
	GetLatestPrapareAnswer(ctx context.Context, patientID uuid.UUID) (PrapareAnswer, error)

	// reference catalog
	ListTaxonomyClasses(ctx context.Context) ([]TaxonomyClass, error)
	ListTaxonomySubclasses(ctx context.Context) ([]TaxonomySubclass, error)
	ListItemHazardRules(ctx context.Context) ([]ItemHazardRule, error)
	ListCodeHazardRules(ctx context.Context) ([]CodeHazardRule, error)
	ListCodeUsage(ctx context.Context, arg ListCodeUsageParams) ([]ListCodeUsageRow, error)
	ListServiceMap(ctx context.Context) ([]ServiceMap, error)
	ListParentServiceMap(ctx context.Context) ([]ParentServiceMap, error)
	TruncateCatalog(ctx context.Context) error
	InsertTaxonomyClass(ctx context.Context, arg InsertTaxonomyClassParams) error
	InsertTaxonomySubclass(ctx context.Context, arg InsertTaxonomySubclassParams) error
	InsertItemHazardRule(ctx context.Context, arg InsertItemHazardRuleParams) error
	InsertCodeHazardRule(ctx context.Context, arg InsertCodeHazardRuleParams) error
	InsertServiceMapping(ctx context.Context, arg InsertServiceMappingParams) error
	InsertParentServiceMapping(ctx context.Context, arg InsertParentServiceMappingParams) error

	// hazards & risks
	CreateHazardIfAbsent(ctx context.Context, arg CreateHazardIfAbsentParams) (Hazard, error)
	ListHazardsByPatient(ctx context.Context, patientID uuid.UUID) ([]Hazard, error)
	ListHazardsWithoutRisk(ctx context.Context, patientID uuid.UUID) ([]Hazard, error)
	CreateRiskIfAbsent(ctx context.Context, arg CreateRiskIfAbsentParams) (Risk, error)
	GetRiskByID(ctx context.Context, id uuid.UUID) (Risk, error)
	UpdateRiskRating(ctx context.Context, arg UpdateRiskRatingParams) (Risk, error)
	ListRisksByPatient(ctx context.Context, patientID uuid.UUID) ([]ListRisksByPatientRow, error)
	CreateSocialRiskIfAbsent(ctx context.Context, arg CreateSocialRiskIfAbsentParams) (SocialRisk, error)
	UpdateSocialRiskLabels(ctx context.Context, arg UpdateSocialRiskLabelsParams) (SocialRisk, error)
	GetSocialRiskByID(ctx context.Context, id uuid.UUID) (SocialRisk, error)
	UpdateSocialRiskRating(ctx context.Context, arg UpdateSocialRiskRatingParams) (SocialRisk, error)
	ListSocialRisksByPatient(ctx context.Context, patientID uuid.UUID) ([]SocialRisk, error)

	// recommendations
	UpsertRecommendationSetting(ctx context.Context, arg UpsertRecommendationSettingParams) (RecommendationSetting, error)
	ListRecommendationSettings(ctx context.Context, patientID uuid.UUID) ([]RecommendationSetting, error)
	ListSelectedRecommendationSettings(ctx context.Context, patientID uuid.UUID) ([]RecommendationSetting, error)
	CreateRecommendationReport(ctx context.Context, patientID uuid.UUID) (RecommendationReport, error)
	GetRecommendationReportByID(ctx context.Context, id uuid.UUID) (RecommendationReport, error)
	SetReportProcessing(ctx context.Context, id uuid.UUID) (RecommendationReport, error)
	FinalizeRecommendationReport(ctx context.Context, arg FinalizeRecommendationReportParams) (RecommendationReport, error)
	MarkRecommendationReportFailed(ctx context.Context, arg MarkRecommendationReportFailedParams) (RecommendationReport, error)
	ListPendingRecommendationReports(ctx context.Context) ([]ListPendingRecommendationReportsRow, error)
}

var _ Querier = (*Queries)(nil)
