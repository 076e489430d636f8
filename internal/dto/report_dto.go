package dto

// DailyReportResponse carries the rendered daily report and its numbers.
type DailyReportResponse struct {
	ClassID   uint                      `json:"class_id"`
	ClassName string                    `json:"class_name"`
	Date      string                    `json:"date"`
	Summary   AttendanceSummaryResponse `json:"summary"`
	Text      string                    `json:"text"`
}

// ClassReportResponse carries the rendered class report and its numbers.
type ClassReportResponse struct {
	ClassID        uint     `json:"class_id"`
	ClassName      string   `json:"class_name"`
	TotalStudents  int      `json:"total_students"`
	ActiveStudents int      `json:"active_students"`
	StaffNames     []string `json:"staff_names"`
	Text           string   `json:"text"`
}
