package dto

import (
	"time"

	"github.com/atlas-lms/atlas-api/internal/models"
)

// SubmitRequest is the payload for recording a new submission attempt.
// Exactly one content field must be set, matching the assignment's
// submission type; the service enforces the pairing.
type SubmitRequest struct {
	// StudentID may be set by staff submitting on a student's behalf;
	// students always submit as themselves.
	StudentID   *uint  `json:"student_id" validate:"omitempty,gt=0"`
	TextContent string `json:"text_content" validate:"omitempty,min=1"`
	LinkURL     string `json:"link_url" validate:"omitempty,url"`
	FileName    string `json:"file_name" validate:"omitempty,min=1"`
	FileURL     string `json:"file_url" validate:"omitempty,url"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
// Downstream web clients consume the camelCase aliases alongside the
// canonical snake_case fields, so both are emitted.
type SubmissionResponse struct {
	ID                uint                             `json:"id"`
	AssignmentID      uint                             `json:"assignment_id"`
	StudentID         uint                             `json:"student_id"`
	StudentIDAlias    uint                             `json:"studentId"`
	AttemptNumber     int                              `json:"attempt_number"`
	TextContent       string                           `json:"text_content,omitempty"`
	LinkURL           string                           `json:"link_url,omitempty"`
	FileName          string                           `json:"file_name,omitempty"`
	FileURL           string                           `json:"file_url,omitempty"`
	Status            string                           `json:"status"`
	SubmittedAt       time.Time                        `json:"submitted_at"`
	SubmittedAtAlias  time.Time                        `json:"submittedAt"`
	IsLate            bool                             `json:"is_late"`
	LateSubmittedAt   *time.Time                       `json:"late_submitted_at"`
	Grade             *float64                         `json:"grade"`
	GradeLetter       *string                          `json:"grade_letter"`
	Feedback          string                           `json:"feedback"`
	GradedBy          *uint                            `json:"graded_by"`
	GradedAt          *time.Time                       `json:"graded_at"`
	History           []SubmissionGradeHistoryResponse `json:"history,omitempty"`
	CreatedAt         time.Time                        `json:"created_at"`
	UpdatedAt         time.Time                        `json:"updated_at"`
	Assignment        AssignmentLite                   `json:"assignment"`
	Student           StudentLite                      `json:"student"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	DueAt     time.Time `json:"due_at"`
	MaxPoints float64   `json:"max_points"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SubmissionGradeHistoryResponse serializes grading audit entries.
type SubmissionGradeHistoryResponse struct {
	Score    float64   `json:"score"`
	Letter   string    `json:"letter"`
	Feedback string    `json:"feedback"`
	GradedBy uint      `json:"graded_by"`
	GradedAt time.Time `json:"graded_at"`
}

// CurrentSubmissionResponse pairs a student's current attempt with the
// immutable attempts it superseded, newest first.
type CurrentSubmissionResponse struct {
	Current SubmissionResponse   `json:"current"`
	History []SubmissionResponse `json:"history"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:               model.ID,
		AssignmentID:     model.AssignmentID,
		StudentID:        model.StudentID,
		StudentIDAlias:   model.StudentID,
		AttemptNumber:    model.AttemptNumber,
		TextContent:      model.TextContent,
		LinkURL:          model.LinkURL,
		FileName:         model.FileName,
		FileURL:          model.FileURL,
		Status:           model.Status,
		SubmittedAt:      model.SubmittedAt,
		SubmittedAtAlias: model.SubmittedAt,
		IsLate:           model.IsLate,
		LateSubmittedAt:  model.LateSubmittedAt,
		Grade:            model.Grade,
		GradeLetter:      model.GradeLetter,
		Feedback:         model.Feedback,
		GradedBy:         model.GradedBy,
		GradedAt:         model.GradedAt,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:        model.Assignment.ID,
			Title:     model.Assignment.Title,
			DueAt:     model.Assignment.DueAt,
			MaxPoints: model.Assignment.MaxPoints,
		}
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		}
	}

	if len(model.History) > 0 {
		history := make([]SubmissionGradeHistoryResponse, 0, len(model.History))
		for _, entry := range model.History {
			history = append(history, SubmissionGradeHistoryResponse{
				Score:    entry.Score,
				Letter:   entry.Letter,
				Feedback: entry.Feedback,
				GradedBy: entry.GradedBy,
				GradedAt: entry.GradedAt,
			})
		}
		response.History = history
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(models []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(models))
	for _, submission := range models {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
