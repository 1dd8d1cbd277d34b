package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/atlas-lms/atlas-api/internal/dto"
	"github.com/atlas-lms/atlas-api/internal/models"
	"github.com/atlas-lms/atlas-api/internal/repository"
)

// SubmissionPolicy is the slice of an assignment the submission and grading
// flows depend on.
type SubmissionPolicy struct {
	AssignmentID    uint
	CourseID        uint
	DueAt           time.Time
	MaxPoints       float64
	AttemptsAllowed int
	AllowLate       bool
	LatePenaltyPct  float64
	SubmissionType  string
	Published       bool
}

// AssignmentService owns assignment definitions and their submission policy.
type AssignmentService interface {
	List(ctx context.Context, filter dto.AssignmentFilter) (dto.AssignmentListResponse, error)
	GetByID(ctx context.Context, id uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, id uint) error
	SetPublished(ctx context.Context, id uint, published bool) (dto.AssignmentResponse, error)
	GetPolicy(ctx context.Context, id uint) (SubmissionPolicy, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	courses     repository.CourseRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService constructs an AssignmentService instance.
func NewAssignmentService(assignments repository.AssignmentRepository, courses repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		courses:     courses,
		validator:   validate,
		sanitizer:   bluemonday.UGCPolicy(),
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) List(ctx context.Context, filter dto.AssignmentFilter) (dto.AssignmentListResponse, error) {
	repoFilter := repository.AssignmentFilter{
		CourseID:  filter.CourseID,
		Published: filter.Published,
		Search:    filter.Search,
		Sort:      filter.Sort,
		Page:      filter.Page,
		PageSize:  filter.PageSize,
	}

	assignments, total, err := s.assignments.List(ctx, repoFilter)
	if err != nil {
		return dto.AssignmentListResponse{}, err
	}

	return dto.AssignmentListResponse{Items: dto.NewAssignmentResponseSlice(assignments), Total: total}, nil
}

func (s *assignmentService) GetByID(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if _, err := s.courses.GetByID(ctx, payload.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrCourseNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	dueAt, err := time.Parse(time.RFC3339, payload.DueAt)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	submissionType := payload.SubmissionType
	if submissionType == "" {
		submissionType = models.SubmissionTypeFile
	}

	attemptsAllowed := payload.AttemptsAllowed
	if attemptsAllowed < 1 {
		attemptsAllowed = 1
	}

	attachments, err := marshalAttachments(payload.Attachments)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment := models.Assignment{
		CourseID:        payload.CourseID,
		ModuleID:        payload.ModuleID,
		Title:           payload.Title,
		Instructions:    s.sanitizer.Sanitize(payload.Instructions),
		DueAt:           dueAt,
		MaxPoints:       payload.MaxPoints,
		SubmissionType:  submissionType,
		AttemptsAllowed: attemptsAllowed,
		AllowLate:       payload.AllowLate,
		LatePenaltyPct:  payload.LatePenaltyPct,
		Position:        payload.Position,
		Attachments:     attachments,
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("course_id", assignment.CourseID).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}
	if payload.Instructions != nil {
		assignment.Instructions = s.sanitizer.Sanitize(*payload.Instructions)
	}
	if payload.DueAt != nil {
		dueAt, err := time.Parse(time.RFC3339, *payload.DueAt)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		// Editing the due date never reclassifies lateness of stored attempts.
		assignment.DueAt = dueAt
	}
	if payload.MaxPoints != nil {
		assignment.MaxPoints = *payload.MaxPoints
	}
	if payload.SubmissionType != nil {
		assignment.SubmissionType = *payload.SubmissionType
	}
	if payload.AttemptsAllowed != nil {
		assignment.AttemptsAllowed = *payload.AttemptsAllowed
	}
	if payload.AllowLate != nil {
		assignment.AllowLate = *payload.AllowLate
	}
	if payload.LatePenaltyPct != nil {
		assignment.LatePenaltyPct = *payload.LatePenaltyPct
	}
	if payload.Position != nil {
		assignment.Position = *payload.Position
	}
	if payload.Attachments != nil {
		attachments, err := marshalAttachments(payload.Attachments)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.Attachments = attachments
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Delete(ctx context.Context, id uint) error {
	// Soft delete: submissions and grades keep their dangling reference for audit.
	if err := s.assignments.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted")

	return nil
}

func (s *assignmentService) SetPublished(ctx context.Context, id uint, published bool) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	assignment.Published = published
	if published {
		publishedAt := s.now()
		assignment.PublishedAt = &publishedAt
	} else {
		assignment.PublishedAt = nil
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Bool("published", published).Msg("assignment publish state changed")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) GetPolicy(ctx context.Context, id uint) (SubmissionPolicy, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SubmissionPolicy{}, ErrAssignmentNotFound
		}
		return SubmissionPolicy{}, err
	}

	return SubmissionPolicy{
		AssignmentID:    assignment.ID,
		CourseID:        assignment.CourseID,
		DueAt:           assignment.DueAt,
		MaxPoints:       assignment.MaxPoints,
		AttemptsAllowed: assignment.AttemptsAllowed,
		AllowLate:       assignment.AllowLate,
		LatePenaltyPct:  assignment.LatePenaltyPct,
		SubmissionType:  assignment.SubmissionType,
		Published:       assignment.Published,
	}, nil
}

func marshalAttachments(attachments []models.Attachment) (datatypes.JSON, error) {
	if attachments == nil {
		return nil, nil
	}

	raw, err := json.Marshal(attachments)
	if err != nil {
		return nil, err
	}

	return datatypes.JSON(raw), nil
}
