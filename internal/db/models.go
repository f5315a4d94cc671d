package db

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "pending"
	ReportStatusProcessing ReportStatus = "processing"
	ReportStatusReady      ReportStatus = "ready"
	ReportStatusFailed     ReportStatus = "failed"
)

func (e *ReportStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = ReportStatus(s)
	case string:
		*e = ReportStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for ReportStatus: %T", src)
	}
	return nil
}

func (e ReportStatus) Value() (driver.Value, error) {
	return string(e), nil
}

type Patient struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Dob       sql.NullTime   `json:"dob"`
	Gender    sql.NullString `json:"gender"`
	Phone     sql.NullString `json:"phone"`
	Email     sql.NullString `json:"email"`
	CreatedAt time.Time      `json:"created_at"`
}

type AdlAnswer struct {
	ID            uuid.UUID     `json:"id"`
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
	DateCompleted time.Time     `json:"date_completed"`
	CreatedAt     time.Time     `json:"created_at"`
}

type IadlAnswer struct {
	ID              uuid.UUID     `json:"id"`
	PatientID       uuid.UUID     `json:"patient_id"`
	Telephone       sql.NullInt32 `json:"telephone"`
	Shopping        sql.NullInt32 `json:"shopping"`
	FoodPreparation sql.NullInt32 `json:"food_preparation"`
	Housekeeping    sql.NullInt32 `json:"housekeeping"`
	Laundry         sql.NullInt32 `json:"laundry"`
	Transportation  sql.NullInt32 `json:"transportation"`
	Medication      sql.NullInt32 `json:"medication"`
	Finances        sql.NullInt32 `json:"finances"`
	DateCompleted   time.Time     `json:"date_completed"`
	CreatedAt       time.Time     `json:"created_at"`
}

type PatientHistory struct {
	ID        uuid.UUID      `json:"id"`
	PatientID uuid.UUID      `json:"patient_id"`
	DxCodes   []string       `json:"dx_codes"`
	SxCodes   []string       `json:"sx_codes"`
	RxCodes   []string       `json:"rx_codes"`
	TxCodes   []string       `json:"tx_codes"`
	Notes     sql.NullString `json:"notes"`
	CreatedAt time.Time      `json:"created_at"`
}

type PrapareAnswer struct {
	ID            uuid.UUID             `json:"id"`
	PatientID     uuid.UUID             `json:"patient_id"`
	Items         pqtype.NullRawMessage `json:"items"`
	AssessedBy    sql.NullString        `json:"assessed_by"`
	Notes         sql.NullString        `json:"notes"`
	DateCompleted time.Time             `json:"date_completed"`
	CreatedAt     time.Time             `json:"created_at"`
}

type TaxonomyClass struct {
	Tree        string `json:"tree"`
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type TaxonomySubclass struct {
	Tree          string `json:"tree"`
	ID            string `json:"id"`
	ParentClassID string `json:"parent_class_id"`
	Label         string `json:"label"`
	Description   string `json:"description"`
}

type ItemHazardRule struct {
	ID               int64          `json:"id"`
	Domain           string         `json:"domain"`
	Item             string         `json:"item"`
	ScoreMin         int32          `json:"score_min"`
	ScoreMax         int32          `json:"score_max"`
	HazardSubclassID sql.NullString `json:"hazard_subclass_id"`
	HazardClassID    sql.NullString `json:"hazard_class_id"`
}

type CodeHazardRule struct {
	ID               int64          `json:"id"`
	Domain           string         `json:"domain"`
	Code             string         `json:"code"`
	HazardSubclassID sql.NullString `json:"hazard_subclass_id"`
	HazardClassID    sql.NullString `json:"hazard_class_id"`
}

type ServiceMap struct {
	ID                int64  `json:"id"`
	Tree              string `json:"tree"`
	HazardSubclassID  string `json:"hazard_subclass_id"`
	ServiceSubclassID string `json:"service_subclass_id"`
	ServiceClassID    string `json:"service_class_id"`
}

type ParentServiceMap struct {
	ID             int64  `json:"id"`
	Tree           string `json:"tree"`
	HazardClassID  string `json:"hazard_class_id"`
	ServiceClassID string `json:"service_class_id"`
}

type Hazard struct {
	ID          uuid.UUID       `json:"id"`
	PatientID   uuid.UUID       `json:"patient_id"`
	HazardType  string          `json:"hazard_type"`
	Description string          `json:"description"`
	Source      string          `json:"source"`
	Severity    sql.NullFloat64 `json:"severity"`
	Weight      sql.NullFloat64 `json:"weight"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Risk struct {
	ID         uuid.UUID       `json:"id"`
	HazardID   uuid.UUID       `json:"hazard_id"`
	PatientID  uuid.UUID       `json:"patient_id"`
	Severity   sql.NullFloat64 `json:"severity"`
	Likelihood sql.NullInt32   `json:"likelihood"`
	RiskScore  sql.NullFloat64 `json:"risk_score"`
	Notes      sql.NullString  `json:"notes"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type SocialRisk struct {
	ID                      uuid.UUID       `json:"id"`
	PatientID               uuid.UUID       `json:"patient_id"`
	SocialHazardCode        string          `json:"social_hazard_code"`
	SocialHazardType        string          `json:"social_hazard_type"`
	SocialHazardLabel       string          `json:"social_hazard_label"`
	SocialHazardDescription string          `json:"social_hazard_description"`
	Severity                sql.NullFloat64 `json:"severity"`
	Likelihood              sql.NullInt32   `json:"likelihood"`
	RiskScore               sql.NullFloat64 `json:"risk_score"`
	Notes                   sql.NullString  `json:"notes"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

type RecommendationSetting struct {
	ID                 uuid.UUID       `json:"id"`
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
	UpdatedAt          time.Time       `json:"updated_at"`
}

type RecommendationReport struct {
	ID           uuid.UUID             `json:"id"`
	PatientID    uuid.UUID             `json:"patient_id"`
	Status       ReportStatus          `json:"status"`
	Content      sql.NullString        `json:"content"`
	Snapshot     pqtype.NullRawMessage `json:"snapshot"`
	Xlsx         []byte                `json:"xlsx"`
	ErrorMessage sql.NullString        `json:"error_message"`
	GeneratedAt  sql.NullTime          `json:"generated_at"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}
