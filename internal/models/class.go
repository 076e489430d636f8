package models

import "time"

// Class is a named group of enrolled students.
type Class struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	TotalStudents int       `gorm:"not null;default:0" json:"total_students"`
	CreatedAt     time.Time `json:"created_at"`
}

// ClassStaff assigns a staff member to a class. An assignment is active while
// ActiveTo is nil.
type ClassStaff struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ClassID     uint       `gorm:"not null;index" json:"class_id"`
	StaffUserID uint       `gorm:"not null;index" json:"staff_user_id"`
	ActiveFrom  time.Time  `gorm:"not null" json:"active_from"`
	ActiveTo    *time.Time `json:"active_to"`
	Class       Class      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	StaffUser   User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"staff_user"`
}

// TableName keeps the table name singular like the rest of the schema's join tables.
func (ClassStaff) TableName() string {
	return "class_staff"
}
