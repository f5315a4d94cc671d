package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyashahama/hazard-risk-engine/internal/db"
	"github.com/nyashahama/hazard-risk-engine/internal/store"
	"github.com/nyashahama/hazard-risk-engine/internal/taxonomy"
)

// stubQuerier embeds db.Querier so only the catalog reads need implementing.
type stubQuerier struct {
	db.Querier

	classes    []db.TaxonomyClass
	subclasses []db.TaxonomySubclass
	itemRules  []db.ItemHazardRule
	codeRules  []db.CodeHazardRule
	serviceMap []db.ServiceMap
	parentMap  []db.ParentServiceMap
	err        error
}

func (s stubQuerier) ListTaxonomyClasses(context.Context) ([]db.TaxonomyClass, error) {
	return s.classes, s.err
}
func (s stubQuerier) ListTaxonomySubclasses(context.Context) ([]db.TaxonomySubclass, error) {
	return s.subclasses, nil
}
func (s stubQuerier) ListItemHazardRules(context.Context) ([]db.ItemHazardRule, error) {
	return s.itemRules, nil
}
func (s stubQuerier) ListCodeHazardRules(context.Context) ([]db.CodeHazardRule, error) {
	return s.codeRules, nil
}
func (s stubQuerier) ListServiceMap(context.Context) ([]db.ServiceMap, error) {
	return s.serviceMap, nil
}
func (s stubQuerier) ListParentServiceMap(context.Context) ([]db.ParentServiceMap, error) {
	return s.parentMap, nil
}

func ns(s string) sql.NullString { return sql.NullString{String: s, Valid: s != ""} }

func TestLoadCatalog_SplitsTreesAndMaps(t *testing.T) {
	q := stubQuerier{
		classes: []db.TaxonomyClass{
			{Tree: "hazard", ID: "ADL_HEAVY", Label: "Heavy ADL Deficits"},
			{Tree: "service", ID: "SVC_HEAVY_PC", Label: "Heavy Personal Care"},
			{Tree: "social_hazard", ID: "HIGH_NEED_HOUSING", Label: "High Need Housing"},
			{Tree: "mitigation", ID: "housing", Label: "Housing Services"},
		},
		subclasses: []db.TaxonomySubclass{
			{Tree: "hazard", ID: "ADL_BOWELS_DEP", ParentClassID: "ADL_HEAVY", Label: "Bowel Incontinence"},
			{Tree: "service", ID: "SVC_TOIL", ParentClassID: "SVC_HEAVY_PC", Label: "Incontinence"},
			{Tree: "social_hazard", ID: "HOMELESS", ParentClassID: "HIGH_NEED_HOUSING", Label: "Homelessness"},
		},
		itemRules: []db.ItemHazardRule{
			{Domain: "adl", Item: "bowels", ScoreMin: 0, ScoreMax: 0, HazardSubclassID: ns("ADL_BOWELS_DEP"), HazardClassID: ns("ADL_HEAVY")},
			{Domain: "prapare", Item: "housing_situation", ScoreMin: 0, ScoreMax: 0, HazardClassID: ns("HIGH_NEED_HOUSING")},
		},
		codeRules: []db.CodeHazardRule{
			{Domain: "rx", Code: "RX004", HazardClassID: ns("MED")},
		},
		serviceMap: []db.ServiceMap{
			{Tree: "clinical", HazardSubclassID: "ADL_BOWELS_DEP", ServiceSubclassID: "SVC_TOIL", ServiceClassID: "SVC_HEAVY_PC"},
			{Tree: "social", HazardSubclassID: "HOMELESS", ServiceSubclassID: "housing_emergency", ServiceClassID: "housing"},
		},
		parentMap: []db.ParentServiceMap{
			{Tree: "clinical", HazardClassID: "ADL_HEAVY", ServiceClassID: "SVC_HEAVY_PC"},
			{Tree: "social", HazardClassID: "HIGH_NEED_HOUSING", ServiceClassID: "housing"},
		},
	}

	cat, err := store.LoadCatalog(context.Background(), q)
	require.NoError(t, err)

	_, ok := cat.Hazards.Subclass("ADL_BOWELS_DEP")
	assert.True(t, ok)
	_, ok = cat.Services.Class("SVC_HEAVY_PC")
	assert.True(t, ok)
	_, ok = cat.SocialHazards.Subclass("HOMELESS")
	assert.True(t, ok)
	_, ok = cat.Mitigations.Class("housing")
	assert.True(t, ok)

	require.Len(t, cat.ItemRules[taxonomy.DomainADL], 1)
	assert.Equal(t, taxonomy.SubclassTarget("ADL_BOWELS_DEP"), cat.ItemRules[taxonomy.DomainADL][0].Target)
	assert.Equal(t, taxonomy.ClassTarget("HIGH_NEED_HOUSING"), cat.ItemRules[taxonomy.DomainPRAPARE][0].Target)
	assert.Equal(t, taxonomy.ClassTarget("MED"), cat.CodeRules[taxonomy.DomainRx][0].Target)

	assert.Len(t, cat.ServiceMap, 1)
	assert.Len(t, cat.MitigationMap, 1)
	assert.Len(t, cat.ParentServiceMap, 1)
	assert.Len(t, cat.ParentMitigationMap, 1)
	assert.Equal(t, "housing_emergency", cat.MitigationMap[0].ServiceSubclassID)
}

func TestLoadCatalog_PropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	_, err := store.LoadCatalog(context.Background(), stubQuerier{err: boom})
	assert.ErrorIs(t, err, boom)
}

const minimalCatalog = `
version: 1
trees:
  hazard:
    classes: [{id: MOB, label: Mobility}]
    subclasses: [{id: MOB_WALK, parent: MOB, label: Walking}]
  social_hazard:
    classes: [{id: LOW_NEED_FOOD, label: Food}]
    subclasses: [{id: FOOD, parent: LOW_NEED_FOOD, label: Food insecurity}]
  service:
    classes: [{id: SVC_MOB_TH, label: Mobility therapy}]
    subclasses: [{id: SVC_WALK, parent: SVC_MOB_TH, label: Gait training}]
  mitigation:
    classes: [{id: food_bank, label: Food services}]
    subclasses: [{id: food_pantry, parent: food_bank, label: Food pantry}]
item_rules:
  adl:
    - {item: mobility, min: 0, max: 0, subclass: MOB_WALK}
code_rules:
  dx:
    - {code: M81.0, class: MOB}
service_map:
  - {hazard: MOB_WALK, service: SVC_WALK, service_class: SVC_MOB_TH}
parent_mitigation_map:
  - {hazard_class: LOW_NEED_FOOD, service_class: food_bank}
`

func TestSeedCatalog_WritesEveryTable(t *testing.T) {
	mock, st := setupMockStore(t)
	cat, err := taxonomy.Decode([]byte(minimalCatalog))
	require.NoError(t, err)

	ok := sqlmock.NewResult(0, 1)
	mock.ExpectBegin()
	mock.ExpectExec(named("TruncateCatalog")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(named("InsertTaxonomyClass")).WithArgs("hazard", "MOB", "Mobility", "").WillReturnResult(ok)
	mock.ExpectExec(named("InsertTaxonomyClass")).WithArgs("social_hazard", "LOW_NEED_FOOD", "Food", "").WillReturnResult(ok)
	mock.ExpectExec(named("InsertTaxonomyClass")).WithArgs("service", "SVC_MOB_TH", "Mobility therapy", "").WillReturnResult(ok)
	mock.ExpectExec(named("InsertTaxonomyClass")).WithArgs("mitigation", "food_bank", "Food services", "").WillReturnResult(ok)
	for i := 0; i < 4; i++ {
		mock.ExpectExec(named("InsertTaxonomySubclass")).WillReturnResult(ok)
	}
	mock.ExpectExec(named("InsertItemHazardRule")).
		WithArgs("adl", "mobility", int32(0), int32(0), sql.NullString{String: "MOB_WALK", Valid: true}, sql.NullString{}).
		WillReturnResult(ok)
	mock.ExpectExec(named("InsertCodeHazardRule")).
		WithArgs("dx", "M81.0", sql.NullString{}, sql.NullString{String: "MOB", Valid: true}).
		WillReturnResult(ok)
	mock.ExpectExec(named("InsertServiceMapping")).WithArgs("clinical", "MOB_WALK", "SVC_WALK", "SVC_MOB_TH").WillReturnResult(ok)
	mock.ExpectExec(named("InsertParentServiceMapping")).WithArgs("social", "LOW_NEED_FOOD", "food_bank").WillReturnResult(ok)
	mock.ExpectCommit()

	require.NoError(t, st.SeedCatalog(context.Background(), cat))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedCatalog_InvalidCatalogTouchesNothing(t *testing.T) {
	mock, st := setupMockStore(t)
	cat, err := taxonomy.Decode([]byte(minimalCatalog))
	require.NoError(t, err)
	cat.ServiceMap = append(cat.ServiceMap, taxonomy.ServiceMapping{HazardSubclassID: "GHOST", ServiceSubclassID: "SVC_WALK", ServiceClassID: "SVC_MOB_TH"})

	assert.Error(t, st.SeedCatalog(context.Background(), cat))
	assert.NoError(t, mock.ExpectationsWereMet())
}
