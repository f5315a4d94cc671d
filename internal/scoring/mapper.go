package scoring

import (
	"encoding/json"

	"github.com/nyashahama/hazard-risk-engine/internal/taxonomy"
)

// ─── INPUT TYPES ──────────────────────────────────────────────────────────────

// ItemScores holds one assessment record as item → score. Unanswered items are
// absent from the map.
type ItemScores map[string]int

// CodeHistory is the latest patient history record's code lists.
type CodeHistory struct {
	Sx []string `json:"sx_codes"`
	Dx []string `json:"dx_codes"`
	Rx []string `json:"rx_codes"`
}

// Assessments is the single most recent record of each assessment type for a
// patient. Any field may be nil when the patient has no such record.
type Assessments struct {
	ADL     ItemScores
	IADL    ItemScores
	PRAPARE ItemScores
	History *CodeHistory
}

// ─── OUTPUT TYPES ─────────────────────────────────────────────────────────────

// HazardRef is one firing of a rule: the provenance (domain plus item/score or
// code) and the hazard it points at.
type HazardRef struct {
	Domain taxonomy.Domain
	Item   string // set for adl / iadl / prapare
	Score  int    // meaningful only when Item is set
	Code   string // set for sx / dx / rx
	Target taxonomy.HazardTarget

	// ParentClassID is the hazard class of a subclass target, or the class
	// itself for a class target. Empty when the target is not in the tree.
	ParentClassID string
}

// Identifier is the hazard code the registry keys on: the subclass id when
// present, else the class id.
func (r HazardRef) Identifier() string { return r.Target.ID() }

// Source is the provenance text stored as the hazard description.
func (r HazardRef) Source() string {
	if r.Item != "" {
		return r.Item
	}
	return r.Code
}

// MarshalJSON renders the reference in the API's wire shape. Exactly one of
// hazard_subclass_id and hazard_class_id is set; a subclass target also
// reports its parent as parent_class_id.
func (r HazardRef) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type             string `json:"type"`
		SourceItem       string `json:"source_item,omitempty"`
		Score            *int   `json:"score,omitempty"`
		SourceCode       string `json:"source_code,omitempty"`
		HazardCode       string `json:"hazard_code"`
		HazardSubclassID string `json:"hazard_subclass_id,omitempty"`
		HazardClassID    string `json:"hazard_class_id,omitempty"`
		ParentClassID    string `json:"parent_class_id,omitempty"`
	}
	w := wire{
		Type:             string(r.Domain),
		SourceItem:       r.Item,
		SourceCode:       r.Code,
		HazardCode:       r.Identifier(),
		HazardSubclassID: r.Target.SubclassID(),
		HazardClassID:    r.Target.ClassID(),
	}
	if r.Target.Kind() == taxonomy.TargetSubclass {
		w.ParentClassID = r.ParentClassID
	}
	if r.Item != "" {
		score := r.Score
		w.Score = &score
	}
	return json.Marshal(w)
}

// ─── MAPPER ───────────────────────────────────────────────────────────────────

// DeriveHazards maps the latest assessments to hazard references.
//
// Item-scored domains (ADL, IADL, PRAPARE) fire every rule whose item matches
// and whose inclusive [min, max] range contains the score, so overlapping
// ranges yield several references. Code domains fire on exact code match.
//
// The output may repeat the same hazard; de-duplication happens when hazards
// are materialized. A rule without a target still produces a reference with an
// invalid Target so callers can log it.
func DeriveHazards(cat *taxonomy.Catalog, a Assessments) []HazardRef {
	var refs []HazardRef

	refs = appendItemRefs(refs, cat, taxonomy.DomainADL, ADLItems, a.ADL)
	refs = appendItemRefs(refs, cat, taxonomy.DomainIADL, IADLItems, a.IADL)

	if a.History != nil {
		refs = appendCodeRefs(refs, cat, taxonomy.DomainSx, a.History.Sx)
		refs = appendCodeRefs(refs, cat, taxonomy.DomainDx, a.History.Dx)
		refs = appendCodeRefs(refs, cat, taxonomy.DomainRx, a.History.Rx)
	}

	refs = appendItemRefs(refs, cat, taxonomy.DomainPRAPARE, PRAPAREItems, a.PRAPARE)

	return refs
}

func appendItemRefs(refs []HazardRef, cat *taxonomy.Catalog, domain taxonomy.Domain, order []string, scores ItemScores) []HazardRef {
	if len(scores) == 0 {
		return refs
	}
	rules := cat.ItemRules[domain]
	for _, item := range order {
		score, ok := scores[item]
		if !ok {
			continue
		}
		for _, rule := range rules {
			if !rule.Matches(item, score) {
				continue
			}
			refs = append(refs, HazardRef{
				Domain:        domain,
				Item:          item,
				Score:         score,
				Target:        rule.Target,
				ParentClassID: parentClass(cat, domain, rule.Target),
			})
		}
	}
	return refs
}

func appendCodeRefs(refs []HazardRef, cat *taxonomy.Catalog, domain taxonomy.Domain, codes []string) []HazardRef {
	if len(codes) == 0 {
		return refs
	}
	rules := cat.CodeRules[domain]
	for _, code := range codes {
		for _, rule := range rules {
			if rule.Code != code {
				continue
			}
			refs = append(refs, HazardRef{
				Domain:        domain,
				Code:          code,
				Target:        rule.Target,
				ParentClassID: parentClass(cat, domain, rule.Target),
			})
		}
	}
	return refs
}

func parentClass(cat *taxonomy.Catalog, domain taxonomy.Domain, t taxonomy.HazardTarget) string {
	tree := cat.Hazards
	if domain.Social() {
		tree = cat.SocialHazards
	}
	switch t.Kind() {
	case taxonomy.TargetSubclass:
		if sub, ok := tree.Subclass(t.ID()); ok {
			return sub.ParentClassID
		}
	case taxonomy.TargetClass:
		return t.ID()
	}
	return ""
}
