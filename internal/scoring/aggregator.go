package scoring

import (
	"sort"

	"github.com/nyashahama/hazard-risk-engine/internal/taxonomy"
)

// ─── TYPES ────────────────────────────────────────────────────────────────────

// HazardTypeSocial is the LinkedHazard.HazardType of social risks. Clinical
// hazards carry their source domain (adl, iadl, sx, dx, rx).
const HazardTypeSocial = "social"

// ActiveHazard is one rated hazard fed to the aggregator: a clinical Hazard
// that has a Risk row, or a SocialRisk with a positive score.
type ActiveHazard struct {
	Code string

	// Social selects the mitigation tree; SocialKind is the recorded level of
	// the code within the social hazard tree.
	Social     bool
	SocialKind taxonomy.TargetKind

	Type          string // source domain, or HazardTypeSocial
	Item          string
	DiagnosisCode string

	Severity   *float64
	Likelihood *int
	RiskScore  float64 // 0 when unscored
	Notes      string
}

// LinkedHazard records which hazard pulled a service into the report.
type LinkedHazard struct {
	HazardCode          string   `json:"hazard_code"`
	HazardType          string   `json:"hazard_type"`
	HazardItem          string   `json:"hazard_item"`
	HazardDiagnosisCode string   `json:"hazard_diagnosis_code"`
	RiskScore           float64  `json:"risk_score"`
	Severity            *float64 `json:"severity"`
	Likelihood          *int     `json:"likelihood"`
	Notes               string   `json:"notes"`
}

// Description is the human-readable provenance used in rendered reports.
func (h LinkedHazard) Description() string {
	switch {
	case h.HazardItem != "":
		return h.HazardItem
	case h.HazardDiagnosisCode != "":
		return h.HazardDiagnosisCode
	default:
		return h.HazardType
	}
}

// ServiceEntry is one recommended service within a category.
type ServiceEntry struct {
	ServiceSubclassID          string         `json:"service_subclass_id,omitempty"`
	ServiceSubclassLabel       string         `json:"service_subclass_label"`
	ServiceSubclassDescription string         `json:"service_subclass_description"`
	LinkedHazards              []LinkedHazard `json:"linked_hazards"`
	Priority                   Priority       `json:"priority"`
	MaxRiskScore               float64        `json:"max_risk_score"`
}

// ServiceCategory groups services by service class.
type ServiceCategory struct {
	ServiceClassID          string         `json:"service_class_id"`
	ServiceClassLabel       string         `json:"service_class_label"`
	ServiceClassDescription string         `json:"service_class_description"`
	Services                []ServiceEntry `json:"services"`
	TotalRiskScore          float64        `json:"total_risk_score"`
	HazardCount             int            `json:"hazard_count"`
}

// Recommendations is the full report for one patient.
type Recommendations struct {
	PatientID              string            `json:"patient_id"`
	ServiceCategories      []ServiceCategory `json:"service_categories"`
	TotalServices          int               `json:"total_services"`
	TotalServiceCategories int               `json:"total_service_categories"`
}

// ─── AGGREGATE ────────────────────────────────────────────────────────────────

// Aggregate resolves every active hazard and merges the results.
//
// Services are grouped by service class and merged by service subclass id
// within a class (class-level placeholders share the empty id). A merged
// service keeps every linked hazard, the max of their scores, and a priority
// derived from that max. Categories are sorted by label; services by
// descending max score, then label, then id.
func Aggregate(r *Resolver, hazards []ActiveHazard) Recommendations {
	type categoryAcc struct {
		cat   ServiceCategory
		index map[string]int // service subclass id → position in cat.Services
	}
	byClass := make(map[string]*categoryAcc)

	for _, h := range hazards {
		if h.Code == "" {
			continue
		}
		var refs []ServiceRef
		if h.Social {
			refs = r.ResolveSocial(h.Code, h.SocialKind)
		} else {
			refs = r.ResolveClinical(h.Code)
		}

		link := LinkedHazard{
			HazardCode:          h.Code,
			HazardType:          h.Type,
			HazardItem:          h.Item,
			HazardDiagnosisCode: h.DiagnosisCode,
			RiskScore:           h.RiskScore,
			Severity:            h.Severity,
			Likelihood:          h.Likelihood,
			Notes:               h.Notes,
		}

		for _, ref := range refs {
			acc, ok := byClass[ref.ServiceClassID]
			if !ok {
				acc = &categoryAcc{
					cat: ServiceCategory{
						ServiceClassID:          ref.ServiceClassID,
						ServiceClassLabel:       ref.ServiceClassLabel,
						ServiceClassDescription: ref.ServiceClassDescription,
					},
					index: make(map[string]int),
				}
				byClass[ref.ServiceClassID] = acc
			}

			if i, ok := acc.index[ref.ServiceSubclassID]; ok {
				svc := &acc.cat.Services[i]
				svc.LinkedHazards = append(svc.LinkedHazards, link)
				if h.RiskScore > svc.MaxRiskScore {
					svc.MaxRiskScore = h.RiskScore
				}
				svc.Priority = PriorityFor(svc.MaxRiskScore)
				continue
			}

			acc.index[ref.ServiceSubclassID] = len(acc.cat.Services)
			acc.cat.Services = append(acc.cat.Services, ServiceEntry{
				ServiceSubclassID:          ref.ServiceSubclassID,
				ServiceSubclassLabel:       ref.ServiceSubclassLabel,
				ServiceSubclassDescription: ref.ServiceSubclassDescription,
				LinkedHazards:              []LinkedHazard{link},
				Priority:                   PriorityFor(h.RiskScore),
				MaxRiskScore:               h.RiskScore,
			})
		}
	}

	cats := make([]ServiceCategory, 0, len(byClass))
	for _, acc := range byClass {
		cats = append(cats, acc.cat)
	}
	return finalize(cats)
}

// finalize sorts categories and services and fills in every derived total.
func finalize(cats []ServiceCategory) Recommendations {
	total := 0
	for i := range cats {
		c := &cats[i]
		sortServices(c.Services)
		c.TotalRiskScore = 0
		c.HazardCount = 0
		for _, s := range c.Services {
			c.TotalRiskScore += s.MaxRiskScore
			c.HazardCount += len(s.LinkedHazards)
		}
		total += len(c.Services)
	}

	sort.SliceStable(cats, func(a, b int) bool {
		if cats[a].ServiceClassLabel != cats[b].ServiceClassLabel {
			return cats[a].ServiceClassLabel < cats[b].ServiceClassLabel
		}
		return cats[a].ServiceClassID < cats[b].ServiceClassID
	})

	if cats == nil {
		cats = []ServiceCategory{}
	}
	return Recommendations{
		ServiceCategories:      cats,
		TotalServices:          total,
		TotalServiceCategories: len(cats),
	}
}

func sortServices(s []ServiceEntry) {
	sort.SliceStable(s, func(a, b int) bool {
		if s[a].MaxRiskScore != s[b].MaxRiskScore {
			return s[a].MaxRiskScore > s[b].MaxRiskScore
		}
		if s[a].ServiceSubclassLabel != s[b].ServiceSubclassLabel {
			return s[a].ServiceSubclassLabel < s[b].ServiceSubclassLabel
		}
		return s[a].ServiceSubclassID < s[b].ServiceSubclassID
	})
}

// ─── FILTER ───────────────────────────────────────────────────────────────────

// SelectionKey is the allow-list key of one (hazard, service) pairing.
func SelectionKey(hazardCode, serviceLabel string) string {
	return hazardCode + "|" + serviceLabel
}

// FilterSelected keeps the services for which at least one linked hazard's
// SelectionKey is in selected, drops categories left empty and recomputes all
// totals. The input is not modified.
func FilterSelected(rec Recommendations, selected map[string]bool) Recommendations {
	var cats []ServiceCategory
	for _, c := range rec.ServiceCategories {
		var kept []ServiceEntry
		for _, s := range c.Services {
			for _, h := range s.LinkedHazards {
				if selected[SelectionKey(h.HazardCode, s.ServiceSubclassLabel)] {
					kept = append(kept, s)
					break
				}
			}
		}
		if len(kept) == 0 {
			continue
		}
		c.Services = kept
		cats = append(cats, c)
	}

	out := finalize(cats)
	out.PatientID = rec.PatientID
	return out
}
