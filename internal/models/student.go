package models

import "time"

// Student is a learner enrolled in exactly one class at a time.
type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ClassID   uint      `gorm:"not null;index" json:"class_id"`
	FullName  string    `gorm:"size:255;not null" json:"full_name"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	Class     Class     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Transfer logs a student moving between classes.
type Transfer struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	StudentID     uint      `gorm:"not null;index" json:"student_id"`
	FromClassID   uint      `gorm:"not null" json:"from_class_id"`
	ToClassID     uint      `gorm:"not null" json:"to_class_id"`
	ByUserID      uint      `gorm:"not null" json:"by_user_id"`
	TransferredAt time.Time `gorm:"not null" json:"transferred_at"`
	Student       Student   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	FromClass     Class     `gorm:"foreignKey:FromClassID" json:"from_class"`
	ToClass       Class     `gorm:"foreignKey:ToClassID" json:"to_class"`
	ByUser        User      `gorm:"foreignKey:ByUserID" json:"by_user"`
}
