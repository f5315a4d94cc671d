package taxonomy_test

import (
	"strings"
	"testing"

	"github.com/nyashahama/hazard-risk-engine/internal/taxonomy"
)

// ─── Seed ─────────────────────────────────────────────────────────────────────

func TestSeed_LoadsAndValidates(t *testing.T) {
	c, err := taxonomy.Seed()
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}

	if got := len(c.Hazards.Classes); got != 11 {
		t.Errorf("hazard classes = %d, want 11", got)
	}
	if got := len(c.SocialHazards.Classes); got != 22 {
		t.Errorf("social hazard classes = %d, want 22", got)
	}
	if len(c.ItemRules[taxonomy.DomainADL]) == 0 || len(c.ItemRules[taxonomy.DomainPRAPARE]) == 0 {
		t.Error("expected adl and prapare item rules")
	}
	if len(c.ParentMitigationMap) == 0 {
		t.Error("expected parent mitigation rows")
	}
}

func TestSeed_ClassOnlyCodeRule(t *testing.T) {
	c, err := taxonomy.Seed()
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	for _, r := range c.CodeRules[taxonomy.DomainRx] {
		if r.Code != "RX004" {
			continue
		}
		if r.Target.Kind() != taxonomy.TargetClass || r.Target.ID() != "MED" {
			t.Errorf("RX004 target = %s, want class:MED", r.Target)
		}
		return
	}
	t.Fatal("RX004 rule not found")
}

// ─── Tree ─────────────────────────────────────────────────────────────────────

func TestTree_TargetPrefersSubclass(t *testing.T) {
	tree := taxonomy.NewTree(
		[]taxonomy.Class{{ID: "MOB", Label: "Mobility"}},
		[]taxonomy.Subclass{{ID: "MOB_WALK", ParentClassID: "MOB", Label: "Walking"}},
	)

	tests := []struct {
		id   string
		want string
	}{
		{"MOB_WALK", "subclass:MOB_WALK"},
		{"MOB", "class:MOB"},
		{"NOPE", "none"},
	}
	for _, tt := range tests {
		if got := tree.Target(tt.id).String(); got != tt.want {
			t.Errorf("Target(%q) = %s, want %s", tt.id, got, tt.want)
		}
	}
}

func TestTargetFrom(t *testing.T) {
	if got := taxonomy.TargetFrom("A", "B"); got.SubclassID() != "A" || got.ClassID() != "" {
		t.Errorf("subclass should win, got %s", got)
	}
	if got := taxonomy.TargetFrom("", "B"); got.ClassID() != "B" {
		t.Errorf("class fallback, got %s", got)
	}
	if got := taxonomy.TargetFrom("", ""); got.Valid() {
		t.Errorf("empty pair should be invalid, got %s", got)
	}
}

func TestItemRule_MatchesInclusiveRange(t *testing.T) {
	r := taxonomy.ItemRule{Item: "transfers", ScoreMin: 1, ScoreMax: 2}
	for score, want := range map[int]bool{0: false, 1: true, 2: true, 3: false} {
		if got := r.Matches("transfers", score); got != want {
			t.Errorf("Matches(transfers, %d) = %v, want %v", score, got, want)
		}
	}
	if r.Matches("mobility", 1) {
		t.Error("rule must not match a different item")
	}
}

// ─── Decode / Validate ────────────────────────────────────────────────────────

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
`

func TestDecode_Minimal(t *testing.T) {
	c, err := taxonomy.Decode([]byte(minimalCatalog))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, ok := c.Services.Subclass("SVC_WALK"); !ok {
		t.Error("service subclass SVC_WALK missing")
	}
}

func TestDecode_RejectsBrokenReferences(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			"dangling parent",
			func(s string) string {
				return strings.Replace(s, "{id: MOB_WALK, parent: MOB,", "{id: MOB_WALK, parent: GHOST,", 1)
			},
			"unknown parent class",
		},
		{
			"unknown rule target",
			func(s string) string { return strings.Replace(s, "subclass: MOB_WALK}", "subclass: GHOST}", 1) },
			"unknown hazard subclass",
		},
		{
			"inverted score range",
			func(s string) string { return strings.Replace(s, "min: 0, max: 0", "min: 2, max: 1", 1) },
			"score_min",
		},
		{
			"service class mismatch",
			func(s string) string {
				return strings.Replace(s, "service: SVC_WALK, service_class: SVC_MOB_TH", "service: SVC_WALK, service_class: OTHER", 1)
			},
			"belongs to",
		},
		{
			"unknown domain",
			func(s string) string { return strings.Replace(s, "  adl:\n", "  gait:\n", 1) },
			"unknown domain",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := taxonomy.Decode([]byte(tt.mutate(minimalCatalog)))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
