package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/atlas-lms/atlas-api/internal/dto"
	"github.com/atlas-lms/atlas-api/internal/grading"
	"github.com/atlas-lms/atlas-api/internal/models"
	"github.com/atlas-lms/atlas-api/internal/repository"
)

// CourseGradeService maintains the standalone grade ledger. Entries live
// beside submission grades without synchronization; reporting joins them at
// read time.
type CourseGradeService interface {
	Upsert(ctx context.Context, courseID uint, payload dto.CourseGradeUpsertRequest, actor ActivityActor) (dto.CourseGradeResponse, error)
	ListForCourse(ctx context.Context, courseID uint) ([]dto.CourseGradeResponse, error)
}

type courseGradeService struct {
	grades      repository.CourseGradeRepository
	courses     repository.CourseRepository
	assignments repository.AssignmentRepository
	gate        EnrollmentGate
	activity    ActivityRecorder
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewCourseGradeService constructs the service.
func NewCourseGradeService(
	grades repository.CourseGradeRepository,
	courses repository.CourseRepository,
	assignments repository.AssignmentRepository,
	gate EnrollmentGate,
	activity ActivityRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) CourseGradeService {
	return &courseGradeService{
		grades:      grades,
		courses:     courses,
		assignments: assignments,
		gate:        gate,
		activity:    activity,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "course_grade_service").Logger(),
	}
}

func (s *courseGradeService) Upsert(ctx context.Context, courseID uint, payload dto.CourseGradeUpsertRequest, actor ActivityActor) (dto.CourseGradeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseGradeResponse{}, err
	}

	if !grading.ValidScore(payload.Grade) {
		return dto.CourseGradeResponse{}, ErrInvalidGrade
	}

	allowed, err := s.gate.CanGrade(ctx, payload.UserID, courseID)
	if err != nil {
		return dto.CourseGradeResponse{}, err
	}
	if !allowed {
		return dto.CourseGradeResponse{}, ErrNotEnrolled
	}

	if payload.AssignmentID != nil {
		assignment, err := s.assignments.GetByID(ctx, *payload.AssignmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.CourseGradeResponse{}, ErrAssignmentNotFound
			}
			return dto.CourseGradeResponse{}, err
		}
		if assignment.CourseID != courseID {
			return dto.CourseGradeResponse{}, ErrAssignmentNotFound
		}
	}

	letter := grading.Letter(payload.Grade)
	comments := s.sanitizer.Sanitize(payload.Comments)

	grade, err := s.grades.Find(ctx, payload.UserID, courseID, payload.AssignmentID)
	switch {
	case err == nil:
		grade.Grade = payload.Grade
		grade.GradeLetter = letter
		grade.Comments = comments
		if err := s.grades.Update(ctx, &grade); err != nil {
			return dto.CourseGradeResponse{}, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		grade = models.CourseGrade{
			UserID:       payload.UserID,
			CourseID:     courseID,
			AssignmentID: payload.AssignmentID,
			Grade:        payload.Grade,
			GradeLetter:  letter,
			Comments:     comments,
		}
		if createErr := s.grades.Create(ctx, &grade); createErr != nil {
			// Lost a create race on the natural key; the winner's row is updated instead.
			if errors.Is(createErr, gorm.ErrDuplicatedKey) {
				existing, findErr := s.grades.Find(ctx, payload.UserID, courseID, payload.AssignmentID)
				if findErr != nil {
					return dto.CourseGradeResponse{}, findErr
				}
				existing.Grade = payload.Grade
				existing.GradeLetter = letter
				existing.Comments = comments
				if updateErr := s.grades.Update(ctx, &existing); updateErr != nil {
					return dto.CourseGradeResponse{}, updateErr
				}
				grade = existing
			} else {
				return dto.CourseGradeResponse{}, createErr
			}
		}
	default:
		return dto.CourseGradeResponse{}, err
	}

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "grade.recorded",
			EntityType: "course_grade",
			EntityID:   &grade.ID,
			Metadata: map[string]interface{}{
				"course_id":    courseID,
				"user_id":      payload.UserID,
				"grade":        payload.Grade,
				"grade_letter": letter,
			},
		})
	}

	s.logger.Info().
		Uint("course_id", courseID).
		Uint("user_id", payload.UserID).
		Float64("grade", payload.Grade).
		Str("letter", letter).
		Msg("course grade recorded")

	return dto.NewCourseGradeResponse(grade), nil
}

func (s *courseGradeService) ListForCourse(ctx context.Context, courseID uint) ([]dto.CourseGradeResponse, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	grades, err := s.grades.ListForCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewCourseGradeResponseSlice(grades), nil
}
