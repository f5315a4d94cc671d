package scoring_test

import (
	"testing"

	"github.com/nyashahama/hazard-risk-engine/internal/scoring"
	"github.com/nyashahama/hazard-risk-engine/internal/taxonomy"
)

// handCatalog is built directly rather than through Decode so it can carry the
// dangling references Validate would reject.
func handCatalog() *taxonomy.Catalog {
	return &taxonomy.Catalog{
		Hazards: taxonomy.NewTree(
			[]taxonomy.Class{{ID: "MOB", Label: "Mobility"}, {ID: "ORPHAN", Label: "Orphan"}},
			[]taxonomy.Subclass{
				{ID: "MOB_WALK", ParentClassID: "MOB", Label: "Walking"},
				{ID: "MOB_FALL", ParentClassID: "MOB", Label: "Falls"},
				{ID: "ORPH_SUB", ParentClassID: "ORPHAN", Label: "Orphan sub"},
			},
		),
		Services: taxonomy.NewTree(
			[]taxonomy.Class{{ID: "SVC_MOB_TH", Label: "Mobility therapy", Description: "PT and OT"}},
			[]taxonomy.Subclass{
				{ID: "SVC_WALK", ParentClassID: "SVC_MOB_TH", Label: "Gait training", Description: "Gait work"},
				{ID: "SVC_BAL", ParentClassID: "SVC_MOB_TH", Label: "Balance training"},
			},
		),
		SocialHazards: taxonomy.NewTree(
			[]taxonomy.Class{{ID: "LOW_NEED_FOOD", Label: "Low Need Food"}},
			[]taxonomy.Subclass{{ID: "FOOD", ParentClassID: "LOW_NEED_FOOD", Label: "Food insecurity"}},
		),
		Mitigations: taxonomy.NewTree(
			[]taxonomy.Class{{ID: "food_bank", Label: "Food services"}},
			[]taxonomy.Subclass{{ID: "food_pantry", ParentClassID: "food_bank", Label: "Food pantry"}},
		),
		ServiceMap: []taxonomy.ServiceMapping{
			{HazardSubclassID: "MOB_WALK", ServiceSubclassID: "SVC_WALK", ServiceClassID: "SVC_MOB_TH"},
			{HazardSubclassID: "MOB_WALK", ServiceSubclassID: "SVC_WALK", ServiceClassID: "SVC_MOB_TH"},
			{HazardSubclassID: "MOB_WALK", ServiceSubclassID: "SVC_GHOST", ServiceClassID: "GHOST_CLASS"},
			{HazardSubclassID: "MOB_WALK", ServiceSubclassID: "SVC_LOST"},
		},
		ParentServiceMap: []taxonomy.ParentServiceMapping{
			{HazardClassID: "MOB", ServiceClassID: "SVC_MOB_TH"},
		},
		MitigationMap: []taxonomy.ServiceMapping{
			{HazardSubclassID: "FOOD", ServiceSubclassID: "food_pantry", ServiceClassID: "food_bank"},
		},
		ParentMitigationMap: []taxonomy.ParentServiceMapping{
			{HazardClassID: "LOW_NEED_FOOD", ServiceClassID: "food_bank"},
		},
	}
}

func TestResolveClinical_Seed(t *testing.T) {
	r := scoring.NewResolver(seedCatalog(t))

	refs := r.ResolveClinical("ADL_BOWELS_DEP")
	if len(refs) != 1 {
		t.Fatalf("got %d refs, want 1: %+v", len(refs), refs)
	}
	want := scoring.ServiceRef{
		ServiceClassID:             "SVC_HEAVY_PC",
		ServiceClassLabel:          "Heavy Personal Care",
		ServiceClassDescription:    "Intensive ADL support: bedbound, heavy lifting",
		ServiceSubclassID:          "SVC_TOIL",
		ServiceSubclassLabel:       "Incontinence",
		ServiceSubclassDescription: "Incontinence assist",
	}
	if refs[0] != want {
		t.Errorf("got %+v\nwant %+v", refs[0], want)
	}

	class := r.ResolveClinical("MED")
	if len(class) != 1 || class[0].ServiceClassID != "SVC_MED_MGMT" || class[0].ServiceSubclassLabel != scoring.GenericServiceLabel {
		t.Errorf("class-level MED: got %+v", class)
	}
}

func TestResolveClinical_Fallbacks(t *testing.T) {
	r := scoring.NewResolver(handCatalog())

	t.Run("curated rows with dangling ids", func(t *testing.T) {
		refs := r.ResolveClinical("MOB_WALK")
		if len(refs) != 3 {
			t.Fatalf("got %d refs, want 3 (duplicate row collapsed): %+v", len(refs), refs)
		}
		if refs[0].ServiceSubclassLabel != "Gait training" || refs[0].ServiceClassLabel != "Mobility therapy" {
			t.Errorf("refs[0] = %+v", refs[0])
		}
		ghost := refs[1]
		if ghost.ServiceSubclassLabel != scoring.UnknownServiceLabel ||
			ghost.ServiceClassID != "GHOST_CLASS" ||
			ghost.ServiceClassLabel != scoring.UncategorizedClassLabel {
			t.Errorf("unknown service in unknown class: %+v", ghost)
		}
		lost := refs[2]
		if lost.ServiceClassID != scoring.UncategorizedClassID || lost.ServiceClassLabel != scoring.UncategorizedClassLabel {
			t.Errorf("service with no class: %+v", lost)
		}
	})

	t.Run("subclass without rows uses parent class", func(t *testing.T) {
		refs := r.ResolveClinical("MOB_FALL")
		if len(refs) != 1 {
			t.Fatalf("got %d refs, want 1", len(refs))
		}
		got := refs[0]
		if got.ServiceSubclassID != "" ||
			got.ServiceSubclassLabel != scoring.GenericServiceLabel ||
			got.ServiceSubclassDescription != scoring.GenericServiceDescription ||
			got.ServiceClassID != "SVC_MOB_TH" ||
			got.ServiceClassDescription != "PT and OT" {
			t.Errorf("generic fallback: %+v", got)
		}
	})

	t.Run("no mapping anywhere", func(t *testing.T) {
		if refs := r.ResolveClinical("ORPH_SUB"); len(refs) != 0 {
			t.Errorf("ORPH_SUB: got %+v, want none", refs)
		}
		if refs := r.ResolveClinical("NOT_IN_TREE"); len(refs) != 0 {
			t.Errorf("unknown code: got %+v, want none", refs)
		}
	})
}

func TestResolveSocial(t *testing.T) {
	r := scoring.NewResolver(handCatalog())

	tests := []struct {
		name      string
		code      string
		kind      taxonomy.TargetKind
		wantLabel string
	}{
		{"subclass", "FOOD", taxonomy.TargetSubclass, "Food pantry"},
		{"class", "LOW_NEED_FOOD", taxonomy.TargetClass, scoring.GenericSocialServiceLabel},
		{"kind looked up", "FOOD", taxonomy.TargetNone, "Food pantry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs := r.ResolveSocial(tt.code, tt.kind)
			if len(refs) != 1 {
				t.Fatalf("got %d refs, want 1", len(refs))
			}
			if refs[0].ServiceSubclassLabel != tt.wantLabel || refs[0].ServiceClassID != "food_bank" {
				t.Errorf("got %+v", refs[0])
			}
		})
	}

	if refs := r.ResolveSocial("GHOST", taxonomy.TargetNone); len(refs) != 0 {
		t.Errorf("unknown social code resolved to %+v", refs)
	}
}
