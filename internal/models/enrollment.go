package models

import "time"

// Enrollment statuses handed over by the enrollment service.
const (
	EnrollmentStatusPending   = "pending"
	EnrollmentStatusEnrolled  = "enrolled"
	EnrollmentStatusDropped   = "dropped"
	EnrollmentStatusCompleted = "completed"
)

// Enrollment links a student to a course with a membership status.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_enrollment_pair,priority:1" json:"student_id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_enrollment_pair,priority:2" json:"course_id"`
	Status    string    `gorm:"size:16;not null;default:pending" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether the student currently takes the course.
func (e Enrollment) IsActive() bool {
	return e.Status == EnrollmentStatusEnrolled
}

// AllowsGrading reports whether work from this enrollment may still be graded.
// Completed enrollments stay gradable so late corrections remain possible.
func (e Enrollment) AllowsGrading() bool {
	return e.Status == EnrollmentStatusEnrolled || e.Status == EnrollmentStatusCompleted
}
