// Package taxonomy holds the static reference data the scoring engine runs on:
// the four two-level classification trees (clinical hazards, social hazards,
// clinical services, SDOH mitigations) and the rule tables that connect
// assessments to hazards and hazards to services.
//
// It is dependency-free apart from yaml.v3 for the embedded seed. The engine
// builds a fresh Catalog from persisted rows on every request; nothing here is
// cached between calls.
package taxonomy

import (
	"errors"
	"fmt"
)

// ─── TREES ────────────────────────────────────────────────────────────────────

// TreeName identifies one of the four classification trees. The values match
// the tree column of taxonomy_classes / taxonomy_subclasses.
type TreeName string

const (
	TreeHazard       TreeName = "hazard"
	TreeSocialHazard TreeName = "social_hazard"
	TreeService      TreeName = "service"
	TreeMitigation   TreeName = "mitigation"
)

// Class is the outer level of a tree.
type Class struct {
	ID          string `yaml:"id" json:"id"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description" json:"description"`
}

// Subclass is the inner level of a tree. ParentClassID references a Class in
// the same tree.
type Subclass struct {
	ID            string `yaml:"id" json:"id"`
	ParentClassID string `yaml:"parent" json:"parent_class_id"`
	Label         string `yaml:"label" json:"label"`
	Description   string `yaml:"description" json:"description"`
}

// Tree is one two-level taxonomy with id lookups. Build it with NewTree; the
// zero value is an empty tree.
type Tree struct {
	Classes    []Class
	Subclasses []Subclass

	classByID    map[string]Class
	subclassByID map[string]Subclass
}

// NewTree indexes classes and subclasses by id. On duplicate ids the first
// occurrence wins, which is what Validate reports as an error.
func NewTree(classes []Class, subclasses []Subclass) *Tree {
	t := &Tree{
		Classes:      classes,
		Subclasses:   subclasses,
		classByID:    make(map[string]Class, len(classes)),
		subclassByID: make(map[string]Subclass, len(subclasses)),
	}
	for _, c := range classes {
		if _, ok := t.classByID[c.ID]; !ok {
			t.classByID[c.ID] = c
		}
	}
	for _, s := range subclasses {
		if _, ok := t.subclassByID[s.ID]; !ok {
			t.subclassByID[s.ID] = s
		}
	}
	return t
}

// Class returns the class with the given id.
func (t *Tree) Class(id string) (Class, bool) {
	if t == nil {
		return Class{}, false
	}
	c, ok := t.classByID[id]
	return c, ok
}

// Subclass returns the subclass with the given id.
func (t *Tree) Subclass(id string) (Subclass, bool) {
	if t == nil {
		return Subclass{}, false
	}
	s, ok := t.subclassByID[id]
	return s, ok
}

// Target resolves a bare identifier against the tree: subclass ids take
// precedence, then class ids. Unknown ids yield the zero HazardTarget.
func (t *Tree) Target(id string) HazardTarget {
	if _, ok := t.Subclass(id); ok {
		return SubclassTarget(id)
	}
	if _, ok := t.Class(id); ok {
		return ClassTarget(id)
	}
	return HazardTarget{}
}

func (t *Tree) validate(name TreeName) error {
	var errs []error
	seen := make(map[string]bool, len(t.Classes))
	for _, c := range t.Classes {
		if c.ID == "" {
			errs = append(errs, fmt.Errorf("%s: class with empty id", name))
			continue
		}
		if seen[c.ID] {
			errs = append(errs, fmt.Errorf("%s: duplicate class id %q", name, c.ID))
		}
		seen[c.ID] = true
	}
	seenSub := make(map[string]bool, len(t.Subclasses))
	for _, s := range t.Subclasses {
		if s.ID == "" {
			errs = append(errs, fmt.Errorf("%s: subclass with empty id", name))
			continue
		}
		if seenSub[s.ID] {
			errs = append(errs, fmt.Errorf("%s: duplicate subclass id %q", name, s.ID))
		}
		seenSub[s.ID] = true
		if _, ok := t.classByID[s.ParentClassID]; !ok {
			errs = append(errs, fmt.Errorf("%s: subclass %q references unknown parent class %q", name, s.ID, s.ParentClassID))
		}
	}
	return errors.Join(errs...)
}

// ─── HAZARD TARGET ────────────────────────────────────────────────────────────

// TargetKind says which level of the hazard tree a rule points at.
type TargetKind uint8

const (
	TargetNone TargetKind = iota
	TargetSubclass
	TargetClass
)

// String returns the persisted name of the kind ("subclass" / "class").
func (k TargetKind) String() string {
	switch k {
	case TargetSubclass:
		return "subclass"
	case TargetClass:
		return "class"
	default:
		return "none"
	}
}

// HazardTarget is either Subclass(id) or Class(id). The zero value carries no
// target; rules built from rows with neither column set end up there.
type HazardTarget struct {
	kind TargetKind
	id   string
}

// SubclassTarget points a rule at a hazard subclass.
func SubclassTarget(id string) HazardTarget { return HazardTarget{kind: TargetSubclass, id: id} }

// ClassTarget points a rule at a hazard class.
func ClassTarget(id string) HazardTarget { return HazardTarget{kind: TargetClass, id: id} }

// TargetFrom builds a target from the nullable column pair used by the rule
// tables. The subclass wins when both are present.
func TargetFrom(subclassID, classID string) HazardTarget {
	switch {
	case subclassID != "":
		return SubclassTarget(subclassID)
	case classID != "":
		return ClassTarget(classID)
	default:
		return HazardTarget{}
	}
}

func (t HazardTarget) Kind() TargetKind { return t.kind }
func (t HazardTarget) ID() string       { return t.id }
func (t HazardTarget) Valid() bool      { return t.kind != TargetNone && t.id != "" }

// SubclassID returns the id when the target is a subclass, else "".
func (t HazardTarget) SubclassID() string {
	if t.kind == TargetSubclass {
		return t.id
	}
	return ""
}

// ClassID returns the id when the target is a class, else "".
func (t HazardTarget) ClassID() string {
	if t.kind == TargetClass {
		return t.id
	}
	return ""
}

func (t HazardTarget) String() string {
	if !t.Valid() {
		return "none"
	}
	return t.kind.String() + ":" + t.id
}

// ─── RULE TABLES ──────────────────────────────────────────────────────────────

// Domain is the assessment source of a rule or hazard reference.
type Domain string

const (
	DomainADL     Domain = "adl"
	DomainIADL    Domain = "iadl"
	DomainSx      Domain = "sx"
	DomainDx      Domain = "dx"
	DomainRx      Domain = "rx"
	DomainPRAPARE Domain = "prapare"
)

// Social reports whether hazards from this domain live in the social tree.
func (d Domain) Social() bool { return d == DomainPRAPARE }

// ItemRule maps an item score range (inclusive on both ends) to a hazard.
type ItemRule struct {
	Item     string
	ScoreMin int
	ScoreMax int
	Target   HazardTarget
}

// Matches reports whether the rule fires for item=score.
func (r ItemRule) Matches(item string, score int) bool {
	return r.Item == item && r.ScoreMin <= score && score <= r.ScoreMax
}

// CodeRule maps an exact symptom/diagnosis/prescription code to a hazard.
type CodeRule struct {
	Code   string
	Target HazardTarget
}

// ServiceMapping is a subclass-level row of hazard_service_map or
// sdoh_mitigation_map.
type ServiceMapping struct {
	HazardSubclassID  string
	ServiceSubclassID string
	ServiceClassID    string
}

// ParentServiceMapping is a class-level fallback row.
type ParentServiceMapping struct {
	HazardClassID  string
	ServiceClassID string
}

// ─── CATALOG ──────────────────────────────────────────────────────────────────

// Catalog is the complete reference data set for one engine invocation.
type Catalog struct {
	Hazards       *Tree
	SocialHazards *Tree
	Services      *Tree
	Mitigations   *Tree

	ItemRules map[Domain][]ItemRule // adl, iadl, prapare
	CodeRules map[Domain][]CodeRule // sx, dx, rx

	ServiceMap          []ServiceMapping
	ParentServiceMap    []ParentServiceMapping
	MitigationMap       []ServiceMapping
	ParentMitigationMap []ParentServiceMapping
}

// Tree returns the tree with the given name.
func (c *Catalog) Tree(name TreeName) *Tree {
	switch name {
	case TreeHazard:
		return c.Hazards
	case TreeSocialHazard:
		return c.SocialHazards
	case TreeService:
		return c.Services
	case TreeMitigation:
		return c.Mitigations
	default:
		return nil
	}
}

// Validate checks the referential invariants of the reference data: tree
// parents exist, ids are unique, every rule target and map row points at an
// existing entry, and every subclass-level map row names the service class
// its service subclass actually belongs to.
//
// Validate is run when seeding. At query time the engine tolerates dangling
// references and resolves them to placeholder labels.
func (c *Catalog) Validate() error {
	var errs []error

	for _, name := range []TreeName{TreeHazard, TreeSocialHazard, TreeService, TreeMitigation} {
		t := c.Tree(name)
		if t == nil {
			errs = append(errs, fmt.Errorf("%s: tree missing", name))
			continue
		}
		errs = append(errs, t.validate(name))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	checkTarget := func(domain Domain, key string, target HazardTarget) {
		tree := c.Hazards
		if domain.Social() {
			tree = c.SocialHazards
		}
		switch target.Kind() {
		case TargetSubclass:
			if _, ok := tree.Subclass(target.ID()); !ok {
				errs = append(errs, fmt.Errorf("%s rule %q: unknown hazard subclass %q", domain, key, target.ID()))
			}
		case TargetClass:
			if _, ok := tree.Class(target.ID()); !ok {
				errs = append(errs, fmt.Errorf("%s rule %q: unknown hazard class %q", domain, key, target.ID()))
			}
		default:
			errs = append(errs, fmt.Errorf("%s rule %q: no hazard target", domain, key))
		}
	}

	for domain, rules := range c.ItemRules {
		for _, r := range rules {
			if r.ScoreMin > r.ScoreMax {
				errs = append(errs, fmt.Errorf("%s rule %q: score_min %d > score_max %d", domain, r.Item, r.ScoreMin, r.ScoreMax))
			}
			checkTarget(domain, r.Item, r.Target)
		}
	}
	for domain, rules := range c.CodeRules {
		for _, r := range rules {
			checkTarget(domain, r.Code, r.Target)
		}
	}

	errs = append(errs, validateMap("service_map", c.ServiceMap, c.Hazards, c.Services))
	errs = append(errs, validateMap("mitigation_map", c.MitigationMap, c.SocialHazards, c.Mitigations))
	errs = append(errs, validateParentMap("parent_service_map", c.ParentServiceMap, c.Hazards, c.Services))
	errs = append(errs, validateParentMap("parent_mitigation_map", c.ParentMitigationMap, c.SocialHazards, c.Mitigations))

	return errors.Join(errs...)
}

func validateMap(name string, rows []ServiceMapping, hazards, services *Tree) error {
	var errs []error
	for _, m := range rows {
		if _, ok := hazards.Subclass(m.HazardSubclassID); !ok {
			errs = append(errs, fmt.Errorf("%s: unknown hazard subclass %q", name, m.HazardSubclassID))
		}
		sub, ok := services.Subclass(m.ServiceSubclassID)
		if !ok {
			errs = append(errs, fmt.Errorf("%s: unknown service subclass %q", name, m.ServiceSubclassID))
			continue
		}
		if sub.ParentClassID != m.ServiceClassID {
			errs = append(errs, fmt.Errorf("%s: %s→%s names class %q but subclass belongs to %q",
				name, m.HazardSubclassID, m.ServiceSubclassID, m.ServiceClassID, sub.ParentClassID))
		}
	}
	return errors.Join(errs...)
}

func validateParentMap(name string, rows []ParentServiceMapping, hazards, services *Tree) error {
	var errs []error
	for _, m := range rows {
		if _, ok := hazards.Class(m.HazardClassID); !ok {
			errs = append(errs, fmt.Errorf("%s: unknown hazard class %q", name, m.HazardClassID))
		}
		if _, ok := services.Class(m.ServiceClassID); !ok {
			errs = append(errs, fmt.Errorf("%s: unknown service class %q", name, m.ServiceClassID))
		}
	}
	return errors.Join(errs...)
}
