package dto

import (
	"time"

	"gorm.io/datatypes"

	"github.com/atlas-lms/atlas-api/internal/models"
)

// AssignmentCreateRequest describes the payload for creating an assignment.
type AssignmentCreateRequest struct {
	CourseID        uint                `json:"course_id" validate:"required,gt=0"`
	ModuleID        *uint               `json:"module_id" validate:"omitempty,gt=0"`
	Title           string              `json:"title" validate:"required,min=3"`
	Instructions    string              `json:"instructions" validate:"required,min=10"`
	DueAt           string              `json:"due_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	MaxPoints       float64             `json:"max_points" validate:"required,gt=0"`
	SubmissionType  string              `json:"submission_type" validate:"omitempty,oneof=file link text"`
	AttemptsAllowed int                 `json:"attempts_allowed" validate:"omitempty,gte=1"`
	AllowLate       bool                `json:"allow_late"`
	LatePenaltyPct  float64             `json:"late_penalty_pct" validate:"gte=0,lte=100"`
	Position        int                 `json:"position" validate:"gte=0"`
	Attachments     []models.Attachment `json:"attachments" validate:"omitempty,dive"`
}

// AssignmentUpdateRequest describes a partial assignment update.
type AssignmentUpdateRequest struct {
	Title           *string             `json:"title" validate:"omitempty,min=3"`
	Instructions    *string             `json:"instructions" validate:"omitempty,min=10"`
	DueAt           *string             `json:"due_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	MaxPoints       *float64            `json:"max_points" validate:"omitempty,gt=0"`
	SubmissionType  *string             `json:"submission_type" validate:"omitempty,oneof=file link text"`
	AttemptsAllowed *int                `json:"attempts_allowed" validate:"omitempty,gte=1"`
	AllowLate       *bool               `json:"allow_late"`
	LatePenaltyPct  *float64            `json:"late_penalty_pct" validate:"omitempty,gte=0,lte=100"`
	Position        *int                `json:"position" validate:"omitempty,gte=0"`
	Attachments     []models.Attachment `json:"attachments" validate:"omitempty,dive"`
}

// AssignmentFilter describes query string filters for listing assignments.
type AssignmentFilter struct {
	CourseID  *uint  `query:"course_id"`
	Published *bool  `query:"published"`
	Search    string `query:"search"`
	Sort      string `query:"sort"`
	Page      int    `query:"page"`
	PageSize  int    `query:"page_size"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID              uint           `json:"id"`
	CourseID        uint           `json:"course_id"`
	ModuleID        *uint          `json:"module_id"`
	Title           string         `json:"title"`
	Instructions    string         `json:"instructions"`
	DueAt           time.Time      `json:"due_at"`
	MaxPoints       float64        `json:"max_points"`
	SubmissionType  string         `json:"submission_type"`
	AttemptsAllowed int            `json:"attempts_allowed"`
	AllowLate       bool           `json:"allow_late"`
	LatePenaltyPct  float64        `json:"late_penalty_pct"`
	Published       bool           `json:"published"`
	PublishedAt     *time.Time     `json:"published_at"`
	Position        int            `json:"position"`
	Attachments     datatypes.JSON `json:"attachments"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// AssignmentListResponse wraps a page of assignments.
type AssignmentListResponse struct {
	Items []AssignmentResponse `json:"items"`
	Total int64                `json:"total"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:              model.ID,
		CourseID:        model.CourseID,
		ModuleID:        model.ModuleID,
		Title:           model.Title,
		Instructions:    model.Instructions,
		DueAt:           model.DueAt,
		MaxPoints:       model.MaxPoints,
		SubmissionType:  model.SubmissionType,
		AttemptsAllowed: model.AttemptsAllowed,
		AllowLate:       model.AllowLate,
		LatePenaltyPct:  model.LatePenaltyPct,
		Published:       model.Published,
		PublishedAt:     model.PublishedAt,
		Position:        model.Position,
		Attachments:     model.Attachments,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}
