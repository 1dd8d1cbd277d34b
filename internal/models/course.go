package models

import (
	"time"

	"gorm.io/gorm"
)

// Course is the minimal course record the workflow needs. The full catalog
// (faculties, majors, scheduling) lives in an external service; only the
// identity and owning instructor are relevant here.
type Course struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Code         string         `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Title        string         `gorm:"size:255;not null" json:"title"`
	InstructorID uint           `gorm:"not null" json:"instructor_id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
