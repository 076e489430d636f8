package dto

import (
	"time"

	"github.com/noah-isme/davomat-api/internal/models"
)

// AttendanceDayRequest opens (or fetches) the attendance day of a class.
type AttendanceDayRequest struct {
	ClassID uint   `json:"class_id" validate:"required,gt=0"`
	Date    string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// AttendanceMarkRequest sets a student's status. The value is checked by the
// ledger so that unknown statuses surface as invalid status errors.
type AttendanceMarkRequest struct {
	Status string `json:"status" validate:"required"`
}

// AttendanceDayResponse describes an attendance day.
type AttendanceDayResponse struct {
	ID          uint      `json:"id"`
	ClassID     uint      `json:"class_id"`
	Date        string    `json:"date"`
	MarkedBy    uint      `json:"marked_by"`
	IsFinalized bool      `json:"is_finalized"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AttendanceEntryResponse is one roster line of an attendance sheet. Status is
// null while the student is not marked.
type AttendanceEntryResponse struct {
	StudentID uint       `json:"student_id"`
	FullName  string     `json:"full_name"`
	Status    *string    `json:"status"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// AttendanceSummaryResponse mirrors the ledger summary.
type AttendanceSummaryResponse struct {
	Total     int  `json:"total"`
	Present   int  `json:"present"`
	Late      int  `json:"late"`
	Absent    int  `json:"absent"`
	NotMarked int  `json:"not_marked"`
	Finalized bool `json:"finalized"`
}

// AttendanceSheetResponse bundles a day, its roster lines and summary.
type AttendanceSheetResponse struct {
	Day     AttendanceDayResponse     `json:"day"`
	Entries []AttendanceEntryResponse `json:"entries"`
	Summary AttendanceSummaryResponse `json:"summary"`
}

// AttendanceMarkResponse is returned after a status write.
type AttendanceMarkResponse struct {
	AttendanceDayID uint      `json:"attendance_day_id"`
	StudentID       uint      `json:"student_id"`
	Status          string    `json:"status"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AttendanceIncompleteDetails explains a rejected finalize.
type AttendanceIncompleteDetails struct {
	Unmarked int `json:"unmarked"`
	Marked   int `json:"marked"`
	Total    int `json:"total"`
}

// NewAttendanceDayResponse maps a model to its response.
func NewAttendanceDayResponse(day models.AttendanceDay) AttendanceDayResponse {
	return AttendanceDayResponse{
		ID:          day.ID,
		ClassID:     day.ClassID,
		Date:        day.Day().Format(time.DateOnly),
		MarkedBy:    day.MarkedBy,
		IsFinalized: day.IsFinalized,
		UpdatedAt:   day.UpdatedAt,
	}
}

// NewAttendanceEntryResponses maps roster lines to responses.
func NewAttendanceEntryResponses(entries []models.RosterEntry) []AttendanceEntryResponse {
	result := make([]AttendanceEntryResponse, 0, len(entries))
	for _, entry := range entries {
		item := AttendanceEntryResponse{
			StudentID: entry.Student.ID,
			FullName:  entry.Student.FullName,
			UpdatedAt: entry.UpdatedAt,
		}
		if entry.Status != nil {
			status := entry.Status.String()
			item.Status = &status
		}
		result = append(result, item)
	}
	return result
}

// NewAttendanceSummaryResponse maps a summary to its response.
func NewAttendanceSummaryResponse(summary models.AttendanceSummary) AttendanceSummaryResponse {
	return AttendanceSummaryResponse{
		Total:     summary.Total,
		Present:   summary.Present,
		Late:      summary.Late,
		Absent:    summary.Absent,
		NotMarked: summary.NotMarked,
		Finalized: summary.Finalized,
	}
}

// NewAttendanceMarkResponse maps a stored entry to its response.
func NewAttendanceMarkResponse(entry models.AttendanceEntry) AttendanceMarkResponse {
	return AttendanceMarkResponse{
		AttendanceDayID: entry.AttendanceDayID,
		StudentID:       entry.StudentID,
		Status:          entry.Status.String(),
		UpdatedAt:       entry.UpdatedAt,
	}
}
