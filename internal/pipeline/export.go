package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"omnigrade/internal"
	"omnigrade/internal/rscore"
	"omnigrade/internal/util"
)

const summarySheet = "R Score"

var exportHeaders = []string{
	"Course Name", "Class Code", "Your Grade", "Class Avg", "Std. Dev",
	"Credits", "Credits Source", "Z-Score", "R (central)", "R (min)", "R (max)",
	"Importance", "Pass",
}

// ExportRowsToXLSX writes one row per course and a second sheet with the
// overall R score and the best +3 point gains. Absent values are left as
// empty cells rather than zeros.
func ExportRowsToXLSX(rows []internal.CourseRecord, offsets rscore.Offsets, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	summary := rscore.Compute(rows, offsets)
	for i, row := range rows {
		r := i + 2
		score := summary.Courses[i]
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.CourseName)
		set(2, row.ClassCode)
		set(3, derefFloat(row.YourGrade))
		set(4, derefFloat(row.ClassAvg))
		set(5, derefFloat(row.StdDev))
		set(6, derefFloat(row.Credits))
		set(7, row.CreditsSource)
		set(8, zScoreCell(row))
		if score.Scored {
			set(9, util.Round2(score.RCentral))
			set(10, util.Round2(score.RMin))
			set(11, util.Round2(score.RMax))
		}
		set(12, util.Round4(score.Importance))
		set(13, string(row.Pass))
	}

	if err := writeSummary(f, summary); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func writeSummary(f *excelize.File, summary rscore.Summary) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	set := func(cell string, value any) {
		_ = f.SetCellValue(summarySheet, cell, value)
	}

	set("A1", "R (central)")
	set("B1", roundedOrEmpty(summary.Central))
	set("A2", "R (min)")
	set("B2", roundedOrEmpty(summary.Min))
	set("A3", "R (max)")
	set("B3", roundedOrEmpty(summary.Max))
	set("A4", "Scored credits")
	set("B4", util.Round2(summary.TotalCredits))

	set("A6", "Best +3 point gains")
	set("A7", "Course Name")
	set("B7", "Class Code")
	set("C7", "Weighted R gain")
	for i, c := range rscore.TopGains(summary, 3) {
		r := i + 8
		cell := func(col int) string {
			name, _ := excelize.CoordinatesToCellName(col, r)
			return name
		}
		set(cell(1), c.CourseName)
		set(cell(2), c.ClassCode)
		set(cell(3), util.Round2(c.Gain))
	}
	return nil
}

func roundedOrEmpty(v *float64) any {
	if v == nil {
		return ""
	}
	return util.Round2(*v)
}

func zScoreCell(row internal.CourseRecord) any {
	if row.YourGrade == nil || row.ClassAvg == nil || row.StdDev == nil {
		return ""
	}
	return util.Round2(row.ZScore())
}

func derefFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
