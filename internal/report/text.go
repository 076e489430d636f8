// Package report renders attendance and class reports as text and XLSX workbooks.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/davomat-api/internal/models"
)

// DateLayout is the day.month.year layout used in every rendered report.
const DateLayout = "02.01.2006"

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "Dushanba",
	time.Tuesday:   "Seshanba",
	time.Wednesday: "Chorshanba",
	time.Thursday:  "Payshanba",
	time.Friday:    "Juma",
	time.Saturday:  "Shanba",
	time.Sunday:    "Yakshanba",
}

var monthNames = [...]string{
	"Yanvar", "Fevral", "Mart", "Aprel", "May", "Iyun",
	"Iyul", "Avgust", "Sentabr", "Oktabr", "Noyabr", "Dekabr",
}

// WeekdayName returns the Uzbek name of a weekday.
func WeekdayName(day time.Weekday) string {
	return weekdayNames[day]
}

// MonthName returns the Uzbek name of a month, or an empty string when out of range.
func MonthName(month time.Month) string {
	if month < time.January || month > time.December {
		return ""
	}
	return monthNames[month-1]
}

// StatusLabel returns the human label of an attendance status.
func StatusLabel(status *models.AttendanceStatus) string {
	if status == nil {
		return "Belgilanmagan"
	}
	switch *status {
	case models.AttendanceStatusPresent:
		return "Keldi"
	case models.AttendanceStatusLate:
		return "Kechikdi"
	case models.AttendanceStatusAbsent:
		return "Kelmadi"
	default:
		return "Noma'lum"
	}
}

// DailySummary renders the attendance summary of one class on one date.
func DailySummary(className string, date time.Time, summary models.AttendanceSummary) string {
	var b strings.Builder

	b.WriteString("Kunlik davomat hisoboti\n\n")
	fmt.Fprintf(&b, "Sinf: %s\n", className)
	fmt.Fprintf(&b, "Sana: %s, %s\n\n", WeekdayName(date.Weekday()), date.Format(DateLayout))
	fmt.Fprintf(&b, "Jami o'quvchilar: %d\n\n", summary.Total)
	fmt.Fprintf(&b, "Keldi: %d\n", summary.Present)
	fmt.Fprintf(&b, "Kechikdi: %d\n", summary.Late)
	fmt.Fprintf(&b, "Kelmadi: %d\n", summary.Absent)
	if summary.NotMarked > 0 {
		fmt.Fprintf(&b, "Belgilanmagan: %d\n", summary.NotMarked)
	}
	if summary.Finalized {
		b.WriteString("Holat: yakunlangan\n")
	}

	if summary.Total > 0 {
		b.WriteString("\nStatistika:\n")
		fmt.Fprintf(&b, "  - Kelganlar: %.1f%%\n", percent(summary.Present, summary.Total))
		fmt.Fprintf(&b, "  - Kechikkanlar: %.1f%%\n", percent(summary.Late, summary.Total))
		fmt.Fprintf(&b, "  - Kelmaganlar: %.1f%%\n", percent(summary.Absent, summary.Total))
	}

	return b.String()
}

// ClassOverview holds the figures of a class report.
type ClassOverview struct {
	ClassName      string
	TotalStudents  int
	ActiveStudents int
	StaffNames     []string
}

// ClassSummary renders the roster and staff overview of a class.
func ClassSummary(overview ClassOverview) string {
	var b strings.Builder

	b.WriteString("Sinf hisoboti\n\n")
	fmt.Fprintf(&b, "Sinf: %s\n\n", overview.ClassName)
	b.WriteString("O'quvchilar:\n")
	fmt.Fprintf(&b, "  - Jami: %d\n", overview.TotalStudents)
	fmt.Fprintf(&b, "  - Faol: %d\n", overview.ActiveStudents)
	if inactive := overview.TotalStudents - overview.ActiveStudents; inactive > 0 {
		fmt.Fprintf(&b, "  - Nofaol: %d\n", inactive)
	}

	fmt.Fprintf(&b, "\nXodimlar (%d ta):\n", len(overview.StaffNames))
	if len(overview.StaffNames) == 0 {
		b.WriteString("  - Hozircha xodimlar biriktirilmagan\n")
	}
	for _, name := range overview.StaffNames {
		fmt.Fprintf(&b, "  - %s\n", name)
	}

	return b.String()
}

// NoRecord renders the message shown when a class has no attendance day on date.
func NoRecord(date time.Time) string {
	return fmt.Sprintf("%s sanasida davomat topilmadi.", date.Format(DateLayout))
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
