package taxonomy

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed/catalog.yaml
var seedCatalog []byte

// ─── YAML SHAPES ──────────────────────────────────────────────────────────────

type yamlCatalog struct {
	Version int                 `yaml:"version"`
	Trees   map[string]yamlTree `yaml:"trees"`

	ItemRules map[string][]yamlItemRule `yaml:"item_rules"`
	CodeRules map[string][]yamlCodeRule `yaml:"code_rules"`

	ServiceMap          []yamlMapping       `yaml:"service_map"`
	ParentServiceMap    []yamlParentMapping `yaml:"parent_service_map"`
	MitigationMap       []yamlMapping       `yaml:"mitigation_map"`
	ParentMitigationMap []yamlParentMapping `yaml:"parent_mitigation_map"`
}

type yamlTree struct {
	Classes    []Class    `yaml:"classes"`
	Subclasses []Subclass `yaml:"subclasses"`
}

type yamlItemRule struct {
	Item     string `yaml:"item"`
	Min      int    `yaml:"min"`
	Max      int    `yaml:"max"`
	Subclass string `yaml:"subclass"`
	Class    string `yaml:"class"`
}

type yamlCodeRule struct {
	Code     string `yaml:"code"`
	Subclass string `yaml:"subclass"`
	Class    string `yaml:"class"`
}

type yamlMapping struct {
	Hazard       string `yaml:"hazard"`
	Service      string `yaml:"service"`
	ServiceClass string `yaml:"service_class"`
}

type yamlParentMapping struct {
	HazardClass  string `yaml:"hazard_class"`
	ServiceClass string `yaml:"service_class"`
}

// ─── LOADERS ──────────────────────────────────────────────────────────────────

// Seed returns the reference catalog compiled into the binary. It is validated
// before being returned.
func Seed() (*Catalog, error) {
	return Decode(seedCatalog)
}

// LoadFile reads a catalog from a YAML file on disk, for operators who keep a
// customised rule set outside the binary.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: open %s: %w", path, err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: read %s: %w", path, err)
	}
	return Decode(raw)
}

// Decode parses and validates a YAML catalog document.
func Decode(raw []byte) (*Catalog, error) {
	var doc yamlCatalog
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("taxonomy: decode catalog: %w", err)
	}

	c := &Catalog{
		ItemRules: make(map[Domain][]ItemRule),
		CodeRules: make(map[Domain][]CodeRule),
	}
	for _, name := range []TreeName{TreeHazard, TreeSocialHazard, TreeService, TreeMitigation} {
		t := doc.Trees[string(name)]
		tree := NewTree(t.Classes, t.Subclasses)
		switch name {
		case TreeHazard:
			c.Hazards = tree
		case TreeSocialHazard:
			c.SocialHazards = tree
		case TreeService:
			c.Services = tree
		case TreeMitigation:
			c.Mitigations = tree
		}
	}

	for domain, rules := range doc.ItemRules {
		d := Domain(domain)
		if d != DomainADL && d != DomainIADL && d != DomainPRAPARE {
			return nil, fmt.Errorf("taxonomy: item rules for unknown domain %q", domain)
		}
		for _, r := range rules {
			c.ItemRules[d] = append(c.ItemRules[d], ItemRule{
				Item:     r.Item,
				ScoreMin: r.Min,
				ScoreMax: r.Max,
				Target:   TargetFrom(r.Subclass, r.Class),
			})
		}
	}
	for domain, rules := range doc.CodeRules {
		d := Domain(domain)
		if d != DomainSx && d != DomainDx && d != DomainRx {
			return nil, fmt.Errorf("taxonomy: code rules for unknown domain %q", domain)
		}
		for _, r := range rules {
			c.CodeRules[d] = append(c.CodeRules[d], CodeRule{
				Code:   r.Code,
				Target: TargetFrom(r.Subclass, r.Class),
			})
		}
	}

	c.ServiceMap = convertMappings(doc.ServiceMap)
	c.MitigationMap = convertMappings(doc.MitigationMap)
	c.ParentServiceMap = convertParentMappings(doc.ParentServiceMap)
	c.ParentMitigationMap = convertParentMappings(doc.ParentMitigationMap)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("taxonomy: invalid catalog: %w", err)
	}
	return c, nil
}

func convertMappings(in []yamlMapping) []ServiceMapping {
	out := make([]ServiceMapping, len(in))
	for i, m := range in {
		out[i] = ServiceMapping{
			HazardSubclassID:  m.Hazard,
			ServiceSubclassID: m.Service,
			ServiceClassID:    m.ServiceClass,
		}
	}
	return out
}

func convertParentMappings(in []yamlParentMapping) []ParentServiceMapping {
	out := make([]ParentServiceMapping, len(in))
	for i, m := range in {
		out[i] = ParentServiceMapping{HazardClassID: m.HazardClass, ServiceClassID: m.ServiceClass}
	}
	return out
}
