package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/davomat-api/internal/models"
)

func TestDailySummaryIncludesCountsAndPercentages(t *testing.T) {
	date := time.Date(2024, time.September, 2, 0, 0, 0, 0, time.UTC)
	summary := models.AttendanceSummary{Total: 4, Present: 2, Late: 1, Absent: 0, NotMarked: 1}

	text := DailySummary("5-A", date, summary)

	assert.Contains(t, text, "Sinf: 5-A")
	assert.Contains(t, text, "Sana: Dushanba, 02.09.2024")
	assert.Contains(t, text, "Jami o'quvchilar: 4")
	assert.Contains(t, text, "Keldi: 2")
	assert.Contains(t, text, "Kechikdi: 1")
	assert.Contains(t, text, "Belgilanmagan: 1")
	assert.Contains(t, text, "Kelganlar: 50.0%")
	assert.Contains(t, text, "Kechikkanlar: 25.0%")
	assert.NotContains(t, text, "yakunlangan")
}

func TestDailySummaryEmptyClassSkipsStatistics(t *testing.T) {
	date := time.Date(2024, time.September, 8, 0, 0, 0, 0, time.UTC)

	text := DailySummary("7-B", date, models.AttendanceSummary{Finalized: true})

	assert.Contains(t, text, "Yakshanba")
	assert.NotContains(t, text, "Statistika")
	assert.NotContains(t, text, "Belgilanmagan")
	assert.Contains(t, text, "Holat: yakunlangan")
}

func TestClassSummary(t *testing.T) {
	text := ClassSummary(ClassOverview{
		ClassName:      "9-V",
		TotalStudents:  5,
		ActiveStudents: 3,
		StaffNames:     []string{"Aziza Karimova"},
	})

	assert.Contains(t, text, "Sinf: 9-V")
	assert.Contains(t, text, "Nofaol: 2")
	assert.Contains(t, text, "Xodimlar (1 ta)")
	assert.Contains(t, text, "Aziza Karimova")

	empty := ClassSummary(ClassOverview{ClassName: "1-A"})
	assert.Contains(t, empty, "Hozircha xodimlar biriktirilmagan")
	assert.NotContains(t, empty, "Nofaol")
}

func TestStatusLabelAndNames(t *testing.T) {
	late := models.AttendanceStatusLate
	assert.Equal(t, "Kechikdi", StatusLabel(&late))
	assert.Equal(t, "Belgilanmagan", StatusLabel(nil))
	assert.Equal(t, "Sentabr", MonthName(time.September))
	assert.Equal(t, "", MonthName(time.Month(13)))
	assert.Equal(t, "01.03.2024 sanasida davomat topilmadi.", NoRecord(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)))
}
