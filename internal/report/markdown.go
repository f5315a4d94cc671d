// Package report renders recommendations into the artifacts stored with a
// generated report: a Markdown document and an XLSX workbook.
package report

import (
	"fmt"
	"strings"

	"github.com/nyashahama/hazard-risk-engine/internal/scoring"
)

// RenderMarkdown renders the report document.
//
//	# Service Recommendation Report
//	**Patient ID:** …
//	## 1. <service class>
//	### 1.1 <service>
//	**Linked Hazards:**
//	- <hazard code>: <item or code> (Risk Score: 12.0)
func RenderMarkdown(rec scoring.Recommendations) string {
	var b strings.Builder

	b.WriteString("# Service Recommendation Report\n\n")
	fmt.Fprintf(&b, "**Patient ID:** %s\n", rec.PatientID)
	fmt.Fprintf(&b, "**Total Service Categories:** %d\n", rec.TotalServiceCategories)
	fmt.Fprintf(&b, "**Total Recommended Services:** %d\n\n", rec.TotalServices)

	for i, cat := range rec.ServiceCategories {
		n := i + 1
		fmt.Fprintf(&b, "## %d. %s\n", n, cat.ServiceClassLabel)
		if cat.ServiceClassDescription != "" {
			fmt.Fprintf(&b, "*%s*\n", cat.ServiceClassDescription)
		}
		fmt.Fprintf(&b, "**Priority Score:** %.1f (based on %d hazards)\n\n", cat.TotalRiskScore, cat.HazardCount)

		for j, svc := range cat.Services {
			fmt.Fprintf(&b, "### %d.%d %s\n", n, j+1, svc.ServiceSubclassLabel)
			if svc.ServiceSubclassDescription != "" {
				fmt.Fprintf(&b, "%s\n", svc.ServiceSubclassDescription)
			}
			fmt.Fprintf(&b, "**Priority:** %s\n", svc.Priority)
			fmt.Fprintf(&b, "**Priority Score:** %.1f\n\n", svc.MaxRiskScore)

			b.WriteString("**Linked Hazards:**\n")
			for _, h := range svc.LinkedHazards {
				fmt.Fprintf(&b, "- %s: %s", h.HazardCode, h.Description())
				if h.RiskScore != 0 {
					fmt.Fprintf(&b, " (Risk Score: %.1f)", h.RiskScore)
				}
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
