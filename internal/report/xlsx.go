package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/nyashahama/hazard-risk-engine/internal/scoring"
)

// Sheet names of the exported workbook.
const (
	ServicesSheet = "Services"
	SummarySheet  = "Summary"
)

// ServicesHeader is the header row of the Services sheet. Each row below it is
// one (service, linked hazard) pair.
var ServicesHeader = []string{
	"Service Category",
	"Service",
	"Priority",
	"Max Risk Score",
	"Hazard Code",
	"Hazard Type",
	"Hazard",
	"Risk Score",
	"Severity",
	"Likelihood",
	"Notes",
}

// SummaryHeader is the header row of the Summary sheet, one row per category.
var SummaryHeader = []string{
	"Service Category",
	"Services",
	"Linked Hazards",
	"Total Risk Score",
}

var servicesWidths = []float64{28, 36, 10, 14, 22, 12, 24, 11, 10, 11, 40}

// BuildXLSX renders the recommendations as a workbook and returns its bytes.
func BuildXLSX(rec scoring.Recommendations) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(ServicesSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	// ── Services ──
	if err := writeRow(f, ServicesSheet, 1, toAny(ServicesHeader)); err != nil {
		return nil, err
	}
	if err := styleHeader(f, ServicesSheet, len(ServicesHeader), headerStyle); err != nil {
		return nil, err
	}
	row := 2
	for _, cat := range rec.ServiceCategories {
		for _, svc := range cat.Services {
			for _, h := range svc.LinkedHazards {
				values := []any{
					cat.ServiceClassLabel,
					svc.ServiceSubclassLabel,
					string(svc.Priority),
					svc.MaxRiskScore,
					h.HazardCode,
					h.HazardType,
					h.Description(),
					h.RiskScore,
					optional(h.Severity),
					optional(h.Likelihood),
					h.Notes,
				}
				if err := writeRow(f, ServicesSheet, row, values); err != nil {
					return nil, err
				}
				row++
			}
		}
	}
	for i, w := range servicesWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(ServicesSheet, col, col, w); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	// ── Summary ──
	if err := writeRow(f, SummarySheet, 1, toAny(SummaryHeader)); err != nil {
		return nil, err
	}
	if err := styleHeader(f, SummarySheet, len(SummaryHeader), headerStyle); err != nil {
		return nil, err
	}
	for i, cat := range rec.ServiceCategories {
		values := []any{cat.ServiceClassLabel, len(cat.Services), cat.HazardCount, cat.TotalRiskScore}
		if err := writeRow(f, SummarySheet, i+2, values); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 32); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string, cols, style int) error {
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// optional renders a nil rating as an empty cell.
func optional[T int | float64](v *T) any {
	if v == nil {
		return ""
	}
	return *v
}
