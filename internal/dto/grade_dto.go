package dto

import (
	"time"

	"github.com/atlas-lms/atlas-api/internal/models"
)

// GradeSubmissionRequest carries the instructor's evaluation of a submission.
// Either Grade (already on the 0-100 scale) or Points (raw, normalized against
// the assignment's max points) must be provided. Range enforcement happens in
// the grading service so an out-of-range value surfaces as InvalidGrade, not
// as a malformed request.
type GradeSubmissionRequest struct {
	Grade    *float64 `json:"grade"`
	Points   *float64 `json:"points"`
	Feedback string   `json:"feedback" validate:"omitempty,min=1"`
}

// CourseGradeUpsertRequest creates or updates a standalone grade ledger entry.
// The grade range is enforced by the service for the same reason as above.
type CourseGradeUpsertRequest struct {
	UserID       uint    `json:"user_id" validate:"required,gt=0"`
	AssignmentID *uint   `json:"assignment_id" validate:"omitempty,gt=0"`
	Grade        float64 `json:"grade"`
	Comments     string  `json:"comments" validate:"omitempty,min=1"`
}

// CourseGradeResponse serializes a grade ledger entry.
type CourseGradeResponse struct {
	ID           uint      `json:"id"`
	UserID       uint      `json:"user_id"`
	CourseID     uint      `json:"course_id"`
	AssignmentID *uint     `json:"assignment_id"`
	Grade        float64   `json:"grade"`
	GradeLetter  string    `json:"grade_letter"`
	Comments     string    `json:"comments"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewCourseGradeResponse converts a model into a DTO.
func NewCourseGradeResponse(model models.CourseGrade) CourseGradeResponse {
	return CourseGradeResponse{
		ID:           model.ID,
		UserID:       model.UserID,
		CourseID:     model.CourseID,
		AssignmentID: model.AssignmentID,
		Grade:        model.Grade,
		GradeLetter:  model.GradeLetter,
		Comments:     model.Comments,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewCourseGradeResponseSlice converts models into DTOs.
func NewCourseGradeResponseSlice(grades []models.CourseGrade) []CourseGradeResponse {
	responses := make([]CourseGradeResponse, 0, len(grades))
	for _, grade := range grades {
		responses = append(responses, NewCourseGradeResponse(grade))
	}

	return responses
}
