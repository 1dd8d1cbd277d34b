package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/atlas-lms/atlas-api/internal/models"
	"github.com/atlas-lms/atlas-api/internal/repository"
)

// EnrollmentGate answers whether a student may act on a course. It is the
// single authorization point consulted by the submission and grading flows;
// a missing enrollment is an ordinary "no", only a missing course is an error.
type EnrollmentGate interface {
	// CanSubmit is true only for an active enrollment.
	CanSubmit(ctx context.Context, studentID, courseID uint) (bool, error)
	// CanGrade is true for active and completed enrollments, so late grade
	// corrections remain possible after a term ends.
	CanGrade(ctx context.Context, studentID, courseID uint) (bool, error)
}

type enrollmentGate struct {
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	logger      zerolog.Logger
}

// NewEnrollmentGate constructs the gate.
func NewEnrollmentGate(enrollments repository.EnrollmentRepository, courses repository.CourseRepository, logger zerolog.Logger) EnrollmentGate {
	return &enrollmentGate{
		enrollments: enrollments,
		courses:     courses,
		logger:      logger.With().Str("component", "enrollment_gate").Logger(),
	}
}

func (g *enrollmentGate) CanSubmit(ctx context.Context, studentID, courseID uint) (bool, error) {
	enrollment, found, err := g.lookup(ctx, studentID, courseID)
	if err != nil || !found {
		return false, err
	}

	return enrollment.IsActive(), nil
}

func (g *enrollmentGate) CanGrade(ctx context.Context, studentID, courseID uint) (bool, error) {
	enrollment, found, err := g.lookup(ctx, studentID, courseID)
	if err != nil || !found {
		return false, err
	}

	return enrollment.AllowsGrading(), nil
}

func (g *enrollmentGate) lookup(ctx context.Context, studentID, courseID uint) (models.Enrollment, bool, error) {
	if _, err := g.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Enrollment{}, false, ErrCourseNotFound
		}
		return models.Enrollment{}, false, err
	}

	enrollment, err := g.enrollments.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Enrollment{}, false, nil
		}
		return models.Enrollment{}, false, err
	}

	return enrollment, true, nil
}
