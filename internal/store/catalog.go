package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/nyashahama/hazard-risk-engine/internal/db"
	"github.com/nyashahama/hazard-risk-engine/internal/taxonomy"
)

// Discriminators of the service_map and parent_service_map tables.
const (
	mapTreeClinical = "clinical"
	mapTreeSocial   = "social"
)

// SeedCatalog replaces the reference tables with cat in one transaction.
// cat is validated first; an invalid catalog leaves the tables untouched.
func (s *Store) SeedCatalog(ctx context.Context, cat *taxonomy.Catalog) error {
	if err := cat.Validate(); err != nil {
		return fmt.Errorf("SeedCatalog: %w", err)
	}

	return s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		if err := q.TruncateCatalog(ctx); err != nil {
			return fmt.Errorf("SeedCatalog: truncate: %w", err)
		}

		// ── 1. Trees: classes before subclasses for the parent FK ──
		trees := []taxonomy.TreeName{taxonomy.TreeHazard, taxonomy.TreeSocialHazard, taxonomy.TreeService, taxonomy.TreeMitigation}
		for _, name := range trees {
			for _, c := range cat.Tree(name).Classes {
				if err := q.InsertTaxonomyClass(ctx, db.InsertTaxonomyClassParams{
					Tree:        string(name),
					ID:          c.ID,
					Label:       c.Label,
					Description: c.Description,
				}); err != nil {
					return fmt.Errorf("SeedCatalog: %s class %s: %w", name, c.ID, err)
				}
			}
		}
		for _, name := range trees {
			for _, sc := range cat.Tree(name).Subclasses {
				if err := q.InsertTaxonomySubclass(ctx, db.InsertTaxonomySubclassParams{
					Tree:          string(name),
					ID:            sc.ID,
					ParentClassID: sc.ParentClassID,
					Label:         sc.Label,
					Description:   sc.Description,
				}); err != nil {
					return fmt.Errorf("SeedCatalog: %s subclass %s: %w", name, sc.ID, err)
				}
			}
		}

		// ── 2. Rules, in a stable domain order ──
		for _, domain := range sortedDomains(cat.ItemRules) {
			for _, r := range cat.ItemRules[domain] {
				if err := q.InsertItemHazardRule(ctx, db.InsertItemHazardRuleParams{
					Domain:           string(domain),
					Item:             r.Item,
					ScoreMin:         int32(r.ScoreMin),
					ScoreMax:         int32(r.ScoreMax),
					HazardSubclassID: nullString(r.Target.SubclassID()),
					HazardClassID:    nullString(r.Target.ClassID()),
				}); err != nil {
					return fmt.Errorf("SeedCatalog: %s rule %s: %w", domain, r.Item, err)
				}
			}
		}
		for _, domain := range sortedDomains(cat.CodeRules) {
			for _, r := range cat.CodeRules[domain] {
				if err := q.InsertCodeHazardRule(ctx, db.InsertCodeHazardRuleParams{
					Domain:           string(domain),
					Code:             r.Code,
					HazardSubclassID: nullString(r.Target.SubclassID()),
					HazardClassID:    nullString(r.Target.ClassID()),
				}); err != nil {
					return fmt.Errorf("SeedCatalog: %s rule %s: %w", domain, r.Code, err)
				}
			}
		}

		// ── 3. Service maps ──
		maps := []struct {
			tree   string
			sub    []taxonomy.ServiceMapping
			parent []taxonomy.ParentServiceMapping
		}{
			{mapTreeClinical, cat.ServiceMap, cat.ParentServiceMap},
			{mapTreeSocial, cat.MitigationMap, cat.ParentMitigationMap},
		}
		for _, m := range maps {
			for _, row := range m.sub {
				if err := q.InsertServiceMapping(ctx, db.InsertServiceMappingParams{
					Tree:              m.tree,
					HazardSubclassID:  row.HazardSubclassID,
					ServiceSubclassID: row.ServiceSubclassID,
					ServiceClassID:    row.ServiceClassID,
				}); err != nil {
					return fmt.Errorf("SeedCatalog: %s map %s→%s: %w", m.tree, row.HazardSubclassID, row.ServiceSubclassID, err)
				}
			}
			for _, row := range m.parent {
				if err := q.InsertParentServiceMapping(ctx, db.InsertParentServiceMappingParams{
					Tree:           m.tree,
					HazardClassID:  row.HazardClassID,
					ServiceClassID: row.ServiceClassID,
				}); err != nil {
					return fmt.Errorf("SeedCatalog: %s parent map %s→%s: %w", m.tree, row.HazardClassID, row.ServiceClassID, err)
				}
			}
		}
		return nil
	})
}

// LoadCatalog reads the reference tables into a Catalog. The result is not
// validated: dangling references resolve to placeholder labels downstream.
func LoadCatalog(ctx context.Context, q db.Querier) (*taxonomy.Catalog, error) {
	classes, err := q.ListTaxonomyClasses(ctx)
	if err != nil {
		return nil, fmt.Errorf("LoadCatalog: classes: %w", err)
	}
	subclasses, err := q.ListTaxonomySubclasses(ctx)
	if err != nil {
		return nil, fmt.Errorf("LoadCatalog: subclasses: %w", err)
	}
	itemRules, err := q.ListItemHazardRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("LoadCatalog: item rules: %w", err)
	}
	codeRules, err := q.ListCodeHazardRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("LoadCatalog: code rules: %w", err)
	}
	serviceMap, err := q.ListServiceMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("LoadCatalog: service map: %w", err)
	}
	parentMap, err := q.ListParentServiceMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("LoadCatalog: parent service map: %w", err)
	}

	classesByTree := make(map[taxonomy.TreeName][]taxonomy.Class)
	for _, c := range classes {
		name := taxonomy.TreeName(c.Tree)
		classesByTree[name] = append(classesByTree[name], taxonomy.Class{
			ID: c.ID, Label: c.Label, Description: c.Description,
		})
	}
	subsByTree := make(map[taxonomy.TreeName][]taxonomy.Subclass)
	for _, sc := range subclasses {
		name := taxonomy.TreeName(sc.Tree)
		subsByTree[name] = append(subsByTree[name], taxonomy.Subclass{
			ID: sc.ID, ParentClassID: sc.ParentClassID, Label: sc.Label, Description: sc.Description,
		})
	}

	cat := &taxonomy.Catalog{
		Hazards:       taxonomy.NewTree(classesByTree[taxonomy.TreeHazard], subsByTree[taxonomy.TreeHazard]),
		SocialHazards: taxonomy.NewTree(classesByTree[taxonomy.TreeSocialHazard], subsByTree[taxonomy.TreeSocialHazard]),
		Services:      taxonomy.NewTree(classesByTree[taxonomy.TreeService], subsByTree[taxonomy.TreeService]),
		Mitigations:   taxonomy.NewTree(classesByTree[taxonomy.TreeMitigation], subsByTree[taxonomy.TreeMitigation]),
		ItemRules:     make(map[taxonomy.Domain][]taxonomy.ItemRule),
		CodeRules:     make(map[taxonomy.Domain][]taxonomy.CodeRule),
	}

	for _, r := range itemRules {
		d := taxonomy.Domain(r.Domain)
		cat.ItemRules[d] = append(cat.ItemRules[d], taxonomy.ItemRule{
			Item:     r.Item,
			ScoreMin: int(r.ScoreMin),
			ScoreMax: int(r.ScoreMax),
			Target:   targetFrom(r.HazardSubclassID, r.HazardClassID),
		})
	}
	for _, r := range codeRules {
		d := taxonomy.Domain(r.Domain)
		cat.CodeRules[d] = append(cat.CodeRules[d], taxonomy.CodeRule{
			Code:   r.Code,
			Target: targetFrom(r.HazardSubclassID, r.HazardClassID),
		})
	}

	for _, m := range serviceMap {
		row := taxonomy.ServiceMapping{
			HazardSubclassID:  m.HazardSubclassID,
			ServiceSubclassID: m.ServiceSubclassID,
			ServiceClassID:    m.ServiceClassID,
		}
		if m.Tree == mapTreeSocial {
			cat.MitigationMap = append(cat.MitigationMap, row)
		} else {
			cat.ServiceMap = append(cat.ServiceMap, row)
		}
	}
	for _, m := range parentMap {
		row := taxonomy.ParentServiceMapping{HazardClassID: m.HazardClassID, ServiceClassID: m.ServiceClassID}
		if m.Tree == mapTreeSocial {
			cat.ParentMitigationMap = append(cat.ParentMitigationMap, row)
		} else {
			cat.ParentServiceMap = append(cat.ParentServiceMap, row)
		}
	}

	return cat, nil
}

func targetFrom(sub, class sql.NullString) taxonomy.HazardTarget {
	return taxonomy.TargetFrom(sub.String, class.String)
}

func sortedDomains[V any](m map[taxonomy.Domain]V) []taxonomy.Domain {
	out := make([]taxonomy.Domain, 0, len(m))
	for d := range m {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
