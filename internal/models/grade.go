package models

import "time"

// CourseGrade is a standalone ledger entry scoped to a course and optionally
// to an assignment (nil for course-level grades such as participation). It is
// independent of any submission; reconciliation with submission grades is a
// read-time join, not a foreign key.
//
// Two unique indexes back the natural key because NULLs compare as distinct:
// the composite index covers assignment rows, the partial index covers the
// single course-level row per (course, user).
type CourseGrade struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index:idx_course_grade_key,unique,priority:2;index:idx_course_grade_course_key,unique,priority:2,where:assignment_id IS NULL" json:"user_id"`
	CourseID     uint      `gorm:"not null;index:idx_course_grade_key,unique,priority:1;index:idx_course_grade_course_key,unique,priority:1,where:assignment_id IS NULL" json:"course_id"`
	AssignmentID *uint     `gorm:"index:idx_course_grade_key,unique,priority:3" json:"assignment_id"`
	Grade        float64   `gorm:"not null" json:"grade"`
	GradeLetter  string    `gorm:"size:2;not null" json:"grade_letter"`
	Comments     string    `gorm:"type:text" json:"comments"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
