package models

import "time"

// Submission statuses. A row never moves backwards: graded is terminal for
// that row and a newer attempt supersedes it as a fresh ungraded row.
const (
	// SubmissionStatusSubmitted indicates an on-time attempt awaiting grading.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusLate indicates an attempt recorded after the due date.
	SubmissionStatusLate = "late"
	// SubmissionStatusGraded indicates the attempt has been evaluated.
	SubmissionStatusGraded = "graded"
)

// Submission is one immutable attempt by a student on an assignment. The
// composite unique index on (assignment_id, student_id, attempt_number)
// serializes attempt numbering under concurrent submits; the row with the
// highest attempt number is the student's current submission.
type Submission struct {
	ID              uint                     `gorm:"primaryKey" json:"id"`
	AssignmentID    uint                     `gorm:"not null;uniqueIndex:idx_submission_attempt,priority:1" json:"assignment_id"`
	StudentID       uint                     `gorm:"not null;uniqueIndex:idx_submission_attempt,priority:2" json:"student_id"`
	AttemptNumber   int                      `gorm:"not null;uniqueIndex:idx_submission_attempt,priority:3" json:"attempt_number"`
	TextContent     string                   `gorm:"type:text" json:"text_content"`
	LinkURL         string                   `gorm:"size:512" json:"link_url"`
	FileName        string                   `gorm:"size:255" json:"file_name"`
	FileURL         string                   `gorm:"size:512" json:"file_url"`
	Status          string                   `gorm:"size:32;not null" json:"status"`
	SubmittedAt     time.Time                `gorm:"not null" json:"submitted_at"`
	IsLate          bool                     `gorm:"not null;default:false" json:"is_late"`
	LateSubmittedAt *time.Time               `json:"late_submitted_at"`
	Grade           *float64                 `json:"grade"`
	GradeLetter     *string                  `gorm:"size:2" json:"grade_letter"`
	Feedback        string                   `gorm:"type:text" json:"feedback"`
	GradedBy        *uint                    `json:"graded_by"`
	GradedAt        *time.Time               `json:"graded_at"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
	Assignment      Assignment               `json:"assignment"`
	Student         Student                  `json:"student"`
	History         []SubmissionGradeHistory `json:"-"`
}

// IsGraded reports whether the submission has a final grade.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// SubmissionGradeHistory is an append-only audit entry written for every
// grading action, including re-grades of the same submission.
type SubmissionGradeHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;index" json:"submission_id"`
	Score        float64   `gorm:"not null" json:"score"`
	Letter       string    `gorm:"size:2;not null" json:"letter"`
	Feedback     string    `gorm:"type:text" json:"feedback"`
	GradedBy     uint      `gorm:"not null" json:"graded_by"`
	GradedAt     time.Time `gorm:"not null" json:"graded_at"`
}
