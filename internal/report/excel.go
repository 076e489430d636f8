package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/davomat-api/internal/models"
)

// ContentTypeXLSX is the media type of generated workbooks.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	attendanceSheetName = "Davomat"
	rosterSheetName     = "O'quvchilar"
)

// AttendanceWorkbook renders a day's roster lines with their statuses and a
// totals block under the table.
func AttendanceWorkbook(className string, date time.Time, entries []models.RosterEntry, summary models.AttendanceSummary) (*bytes.Buffer, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := prepareSheet(f, attendanceSheetName, []float64{6, 36, 16}); err != nil {
		return nil, "", err
	}

	title := fmt.Sprintf("%s - %s, %s", className, WeekdayName(date.Weekday()), date.Format(DateLayout))
	if err := writeHeader(f, attendanceSheetName, title, []string{"№", "Ism familiya", "Holat"}); err != nil {
		return nil, "", err
	}

	row := 3
	for i, entry := range entries {
		values := []interface{}{i + 1, entry.Student.FullName, StatusLabel(entry.Status)}
		if err := writeRow(f, attendanceSheetName, row, values); err != nil {
			return nil, "", err
		}
		row++
	}

	row++
	totals := [][]interface{}{
		{"", "Jami", summary.Total},
		{"", "Keldi", summary.Present},
		{"", "Kechikdi", summary.Late},
		{"", "Kelmadi", summary.Absent},
		{"", "Belgilanmagan", summary.NotMarked},
	}
	for _, values := range totals {
		if err := writeRow(f, attendanceSheetName, row, values); err != nil {
			return nil, "", err
		}
		row++
	}

	filename := fmt.Sprintf("davomat_%s_%s.xlsx", fileSafe(className), date.Format(time.DateOnly))
	return finish(f, filename)
}

// RosterWorkbook renders the students of a class with their enrolment state.
func RosterWorkbook(className string, students []models.Student, generatedAt time.Time) (*bytes.Buffer, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := prepareSheet(f, rosterSheetName, []float64{6, 36, 12}); err != nil {
		return nil, "", err
	}

	title := fmt.Sprintf("%s - O'quvchilar ro'yxati (%s)", className, generatedAt.Format(DateLayout))
	if err := writeHeader(f, rosterSheetName, title, []string{"№", "Ism familiya", "Holat"}); err != nil {
		return nil, "", err
	}

	for i, student := range students {
		state := "Faol"
		if !student.IsActive {
			state = "Nofaol"
		}
		if err := writeRow(f, rosterSheetName, i+3, []interface{}{i + 1, student.FullName, state}); err != nil {
			return nil, "", err
		}
	}

	filename := fmt.Sprintf("oquvchilar_%s.xlsx", fileSafe(className))
	return finish(f, filename)
}

func prepareSheet(f *excelize.File, name string, widths []float64) error {
	idx, err := f.NewSheet(name)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(name, col, col, width); err != nil {
			return err
		}
	}

	return nil
}

func writeHeader(f *excelize.File, sheet, title string, columns []string) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return err
	}

	values := make([]interface{}, 0, len(columns))
	for _, column := range columns {
		values = append(values, column)
	}
	if err := writeRow(f, sheet, 2, values); err != nil {
		return err
	}

	return f.SetCellStyle(sheet, "A1", lastCol+"2", style)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func finish(f *excelize.File, filename string) (*bytes.Buffer, string, error) {
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", err
	}
	return buf, filename, nil
}

func fileSafe(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "class"
	}
	return string(out)
}
