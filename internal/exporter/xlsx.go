package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"reportpipe/internal/aggregate"
	"reportpipe/internal/errs"
)

const reportSheet = "Report"

// Rows of the summary layout. Indicators start below a title block holding
// the generation timestamp and source description; the timestamp never
// appears in the indicator rows themselves.
const (
	titleRow     = 1
	generatedRow = 3
	sourceRow    = 4
	headerRow    = 6
)

// writeXLSX renders the report as a styled spreadsheet.
func writeXLSX(path string, report *aggregate.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return errs.WriteFailed(path, err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2C3E50"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return errs.WriteFailed(path, err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"34495E"}},
	})
	if err != nil {
		return errs.WriteFailed(path, err)
	}

	if err := f.MergeCell(reportSheet, cell("A", titleRow), cell("C", titleRow)); err != nil {
		return errs.WriteFailed(path, err)
	}
	f.SetCellValue(reportSheet, cell("A", titleRow), "INDICATOR REPORT")
	f.SetCellStyle(reportSheet, cell("A", titleRow), cell("C", titleRow), titleStyle)
	f.SetRowHeight(reportSheet, titleRow, 24)

	f.SetCellValue(reportSheet, cell("A", generatedRow), "Generated:")
	f.SetCellValue(reportSheet, cell("B", generatedRow), report.GeneratedAt.Format("2006-01-02 15:04:05"))
	f.SetCellValue(reportSheet, cell("A", sourceRow), "Source:")
	f.SetCellValue(reportSheet, cell("B", sourceRow), report.Source)

	for i, h := range artifactHeaders {
		col := string(rune('A' + i))
		f.SetCellValue(reportSheet, cell(col, headerRow), h)
	}
	f.SetCellStyle(reportSheet, cell("A", headerRow), cell("C", headerRow), headerStyle)

	for i, ind := range report.Indicators {
		row := headerRow + 1 + i
		f.SetCellValue(reportSheet, cell("A", row), ind.Name)
		f.SetCellValue(reportSheet, cell("B", row), ind.Group)
		f.SetCellValue(reportSheet, cell("C", row), ind.Value)
	}

	f.SetColWidth(reportSheet, "A", "A", 30)
	f.SetColWidth(reportSheet, "B", "B", 20)
	f.SetColWidth(reportSheet, "C", "C", 15)

	if err := f.SaveAs(path); err != nil {
		return errs.WriteFailed(path, err)
	}
	return nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
