package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// AttendanceStatus is the mark a student receives on a given day.
type AttendanceStatus int

const (
	AttendanceStatusPresent AttendanceStatus = 1
	AttendanceStatusLate    AttendanceStatus = 2
	AttendanceStatusAbsent  AttendanceStatus = 3
)

// AttendanceStatuses lists every valid status in display order.
var AttendanceStatuses = []AttendanceStatus{
	AttendanceStatusPresent,
	AttendanceStatusLate,
	AttendanceStatusAbsent,
}

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusLate, AttendanceStatusAbsent:
		return true
	default:
		return false
	}
}

func (s AttendanceStatus) String() string {
	switch s {
	case AttendanceStatusPresent:
		return "present"
	case AttendanceStatusLate:
		return "late"
	case AttendanceStatusAbsent:
		return "absent"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseAttendanceStatus converts the wire representation into a status.
func ParseAttendanceStatus(value string) (AttendanceStatus, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "present":
		return AttendanceStatusPresent, nil
	case "late":
		return AttendanceStatusLate, nil
	case "absent":
		return AttendanceStatusAbsent, nil
	default:
		return 0, fmt.Errorf("unknown attendance status %q", value)
	}
}

// AttendanceDay is the single attendance record of one class on one calendar date.
type AttendanceDay struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	ClassID     uint              `gorm:"not null;uniqueIndex:idx_attendance_day_class_date" json:"class_id"`
	Date        datatypes.Date    `gorm:"not null;uniqueIndex:idx_attendance_day_class_date" json:"date"`
	MarkedBy    uint              `gorm:"not null" json:"marked_by"`
	IsFinalized bool              `gorm:"not null;default:false" json:"is_finalized"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Class       Class             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Entries     []AttendanceEntry `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Day returns the record's date as a time value at midnight UTC.
func (d AttendanceDay) Day() time.Time {
	return time.Time(d.Date)
}

// AttendanceEntry is one student's status within an AttendanceDay. No entry for a
// student means the student has not been marked yet.
type AttendanceEntry struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	AttendanceDayID uint             `gorm:"not null;uniqueIndex:idx_attendance_entry_day_student" json:"attendance_day_id"`
	StudentID       uint             `gorm:"not null;uniqueIndex:idx_attendance_entry_day_student" json:"student_id"`
	Status          AttendanceStatus `gorm:"not null" json:"status"`
	UpdatedAt       time.Time        `json:"updated_at"`
	Student         Student          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// CalendarDate truncates a timestamp to its calendar date in UTC.
func CalendarDate(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// RosterEntry pairs a currently enrolled student with their entry on a day, if any.
type RosterEntry struct {
	Student   Student
	Status    *AttendanceStatus
	UpdatedAt *time.Time
}

// Marked reports whether the student has an entry on the day.
func (e RosterEntry) Marked() bool {
	return e.Status != nil
}

// AttendanceSummary aggregates a day's marks against the class roster.
type AttendanceSummary struct {
	Total     int
	Present   int
	Late      int
	Absent    int
	NotMarked int
	Finalized bool
}

// Marked returns the number of enrolled students with an entry.
func (s AttendanceSummary) Marked() int {
	return s.Present + s.Late + s.Absent
}
