package scoring

import "github.com/nyashahama/hazard-risk-engine/internal/taxonomy"

// Labels used when the catalog has no curated service for a hazard, or when a
// mapping row points at an id the catalog does not contain.
const (
	GenericServiceLabel       = "General Services"
	GenericServiceDescription = "General services for this hazard category"

	GenericSocialServiceLabel       = "General SDOH Services"
	GenericSocialServiceDescription = "General services for this social hazard category"

	UncategorizedClassID    = "Uncategorized"
	UncategorizedClassLabel = "Uncategorized Services"
	UnknownServiceLabel     = "Unknown Service"
)

// ServiceRef is one service (or generic class-level placeholder) a hazard
// resolves to. ServiceSubclassID is empty for placeholders.
type ServiceRef struct {
	ServiceClassID          string
	ServiceClassLabel       string
	ServiceClassDescription string

	ServiceSubclassID          string
	ServiceSubclassLabel       string
	ServiceSubclassDescription string
}

// Resolver maps hazard codes to services using the two-tier lookup: curated
// subclass rows first, then the class-level fallback of the hazard's parent.
type Resolver struct {
	cat *taxonomy.Catalog
}

func NewResolver(cat *taxonomy.Catalog) *Resolver {
	return &Resolver{cat: cat}
}

type resolveTables struct {
	hazards      *taxonomy.Tree
	services     *taxonomy.Tree
	subMap       []taxonomy.ServiceMapping
	parentMap    []taxonomy.ParentServiceMapping
	genericLabel string
	genericDesc  string
}

func (r *Resolver) clinical() resolveTables {
	return resolveTables{
		hazards:      r.cat.Hazards,
		services:     r.cat.Services,
		subMap:       r.cat.ServiceMap,
		parentMap:    r.cat.ParentServiceMap,
		genericLabel: GenericServiceLabel,
		genericDesc:  GenericServiceDescription,
	}
}

func (r *Resolver) social() resolveTables {
	return resolveTables{
		hazards:      r.cat.SocialHazards,
		services:     r.cat.Mitigations,
		subMap:       r.cat.MitigationMap,
		parentMap:    r.cat.ParentMitigationMap,
		genericLabel: GenericSocialServiceLabel,
		genericDesc:  GenericSocialServiceDescription,
	}
}

// ResolveClinical resolves a clinical hazard code. Codes found in the hazard
// subclass tree are treated as subclasses; anything else is looked up as a
// class.
func (r *Resolver) ResolveClinical(code string) []ServiceRef {
	t := r.clinical()
	kind := taxonomy.TargetClass
	if _, ok := t.hazards.Subclass(code); ok {
		kind = taxonomy.TargetSubclass
	}
	return t.resolve(code, kind)
}

// ResolveSocial resolves a social hazard code whose level was recorded when
// the social risk was generated. TargetNone falls back to a tree lookup.
func (r *Resolver) ResolveSocial(code string, kind taxonomy.TargetKind) []ServiceRef {
	t := r.social()
	if kind == taxonomy.TargetNone {
		kind = t.hazards.Target(code).Kind()
	}
	return t.resolve(code, kind)
}

func (t resolveTables) resolve(code string, kind taxonomy.TargetKind) []ServiceRef {
	switch kind {
	case taxonomy.TargetSubclass:
		if refs := t.bySubclass(code); len(refs) > 0 {
			return refs
		}
		sub, ok := t.hazards.Subclass(code)
		if !ok || sub.ParentClassID == "" {
			return nil
		}
		return t.byClass(sub.ParentClassID)
	case taxonomy.TargetClass:
		return t.byClass(code)
	default:
		return nil
	}
}

func (t resolveTables) bySubclass(code string) []ServiceRef {
	var out []ServiceRef
	seen := make(map[ServiceRef]bool)
	for _, m := range t.subMap {
		if m.HazardSubclassID != code || m.ServiceSubclassID == "" {
			continue
		}
		ref := ServiceRef{
			ServiceSubclassID:    m.ServiceSubclassID,
			ServiceSubclassLabel: UnknownServiceLabel,
		}
		classID := m.ServiceClassID
		if sub, ok := t.services.Subclass(m.ServiceSubclassID); ok {
			if sub.Label != "" {
				ref.ServiceSubclassLabel = sub.Label
			}
			ref.ServiceSubclassDescription = sub.Description
			classID = sub.ParentClassID
		}
		t.fillClass(&ref, classID)
		if !seen[ref] {
			seen[ref] = true
			out = append(out, ref)
		}
	}
	return out
}

func (t resolveTables) byClass(classID string) []ServiceRef {
	var out []ServiceRef
	seen := make(map[ServiceRef]bool)
	for _, m := range t.parentMap {
		if m.HazardClassID != classID {
			continue
		}
		ref := ServiceRef{
			ServiceSubclassLabel:       t.genericLabel,
			ServiceSubclassDescription: t.genericDesc,
		}
		t.fillClass(&ref, m.ServiceClassID)
		if !seen[ref] {
			seen[ref] = true
			out = append(out, ref)
		}
	}
	return out
}

func (t resolveTables) fillClass(ref *ServiceRef, classID string) {
	ref.ServiceClassID = classID
	if classID == "" {
		ref.ServiceClassID = UncategorizedClassID
	}
	c, ok := t.services.Class(classID)
	if !ok || c.Label == "" {
		ref.ServiceClassLabel = UncategorizedClassLabel
		if ok {
			ref.ServiceClassDescription = c.Description
		}
		return
	}
	ref.ServiceClassLabel = c.Label
	ref.ServiceClassDescription = c.Description
}
