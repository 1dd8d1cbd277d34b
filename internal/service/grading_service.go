package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/atlas-lms/atlas-api/internal/dto"
	"github.com/atlas-lms/atlas-api/internal/grading"
	"github.com/atlas-lms/atlas-api/internal/models"
	"github.com/atlas-lms/atlas-api/internal/observability"
	"github.com/atlas-lms/atlas-api/internal/repository"
)

// GradingService evaluates submissions. The letter mapping and penalty math
// live in the grading package; this service applies them to a submission and
// persists the outcome in place. Graded is terminal for a row: a correction
// is either a re-grade (overwrite) or a brand new attempt.
type GradingService interface {
	GradeSubmission(ctx context.Context, submissionID uint, payload dto.GradeSubmissionRequest, actor ActivityActor) (dto.SubmissionResponse, error)
}

type gradingService struct {
	submissions   repository.SubmissionRepository
	gate          EnrollmentGate
	activity      ActivityRecorder
	cache         *redis.Client
	nats          *nats.Conn
	subjectPrefix string
	validator     *validator.Validate
	logger        zerolog.Logger
	now           func() time.Time
}

// NewGradingService constructs the grading service.
func NewGradingService(
	submissions repository.SubmissionRepository,
	gate EnrollmentGate,
	activity ActivityRecorder,
	cache *redis.Client,
	natsConn *nats.Conn,
	subjectPrefix string,
	validate *validator.Validate,
	logger zerolog.Logger,
) GradingService {
	return &gradingService{
		submissions:   submissions,
		gate:          gate,
		activity:      activity,
		cache:         cache,
		nats:          natsConn,
		subjectPrefix: subjectPrefix,
		validator:     validate,
		logger:        logger.With().Str("component", "grading_service").Logger(),
		now:           time.Now,
	}
}

func (s *gradingService) GradeSubmission(ctx context.Context, submissionID uint, payload dto.GradeSubmissionRequest, actor ActivityActor) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/atlas-lms/atlas-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.submission")
	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	// A soft-deleted assignment is not preloaded, and without its policy the
	// late penalty cannot be applied.
	if submission.Assignment.ID == 0 {
		span.SetStatus(codes.Error, "assignment_not_found")
		return dto.SubmissionResponse{}, ErrAssignmentNotFound
	}

	allowed, err := s.gate.CanGrade(ctx, submission.StudentID, submission.Assignment.CourseID)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}
	if !allowed {
		span.SetStatus(codes.Error, "not_gradable")
		return dto.SubmissionResponse{}, ErrNotEnrolled
	}

	score, err := resolveScore(payload, submission.Assignment.MaxPoints)
	if err != nil {
		span.SetStatus(codes.Error, "invalid_grade")
		return dto.SubmissionResponse{}, err
	}

	effective := score
	if submission.IsLate && submission.Assignment.LatePenaltyPct > 0 {
		effective = grading.ApplyLatePenalty(score, submission.Assignment.LatePenaltyPct)
		span.SetAttributes(attribute.Float64("grading.late_penalty_pct", submission.Assignment.LatePenaltyPct))
	}
	letter := grading.Letter(effective)

	feedback := strings.TrimSpace(payload.Feedback)

	// Re-grading with identical values from the same grader is a no-op.
	if submission.Grade != nil &&
		math.Abs(*submission.Grade-effective) < 1e-6 &&
		strings.TrimSpace(submission.Feedback) == feedback &&
		submission.GradedBy != nil && *submission.GradedBy == actor.ID {
		span.SetAttributes(attribute.Bool("grading.idempotent", true))
		return dto.NewSubmissionResponse(submission), nil
	}

	gradedAt := s.now()
	gradedBy := actor.ID
	submission.Grade = &effective
	submission.GradeLetter = &letter
	submission.Feedback = feedback
	submission.Status = models.SubmissionStatusGraded
	submission.GradedAt = &gradedAt
	submission.GradedBy = &gradedBy

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.SubmissionResponse{}, err
	}

	history := models.SubmissionGradeHistory{
		SubmissionID: submission.ID,
		Score:        effective,
		Letter:       letter,
		Feedback:     feedback,
		GradedBy:     actor.ID,
		GradedAt:     gradedAt,
	}
	if err := s.submissions.CreateHistory(ctx, &history); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to persist grading history")
		span.RecordError(err)
	}

	s.invalidateCohortCache(ctx, submission.AssignmentID)
	observability.GradingsRecorded().WithLabelValues(letter).Inc()

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "submission.graded",
			EntityType: "submission",
			EntityID:   &submission.ID,
			Metadata: map[string]interface{}{
				"assignment_id": submission.AssignmentID,
				"student_id":    submission.StudentID,
				"grade":         effective,
				"grade_letter":  letter,
			},
		})
	}

	s.publishGradedEvent(ctx, submission)

	span.SetAttributes(
		attribute.Float64("grading.grade", effective),
		attribute.String("grading.letter", letter),
	)

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Float64("grade", effective).
		Str("letter", letter).
		Uint("graded_by", actor.ID).
		Msg("submission graded")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *gradingService) invalidateCohortCache(ctx context.Context, assignmentID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cohortCacheKey(assignmentID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("assignment_id", assignmentID).Msg("failed to invalidate cohort cache")
	}
}

func (s *gradingService) publishGradedEvent(ctx context.Context, submission models.Submission) {
	if s.nats == nil {
		return
	}

	event := submissionEvent{
		Event:         "submissions.graded",
		SubmissionID:  submission.ID,
		AssignmentID:  submission.AssignmentID,
		StudentID:     submission.StudentID,
		AttemptNumber: submission.AttemptNumber,
		Status:        submission.Status,
		OccurredAt:    s.now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	subject := fmt.Sprintf("%s.submissions.graded", s.subjectPrefix)
	if err := s.nats.Publish(subject, payload); err != nil {
		s.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish grading event")
	}
}

// resolveScore normalizes the request onto the 0-100 scale: an explicit grade
// is taken as-is, raw points are converted against the assignment max.
func resolveScore(payload dto.GradeSubmissionRequest, maxPoints float64) (float64, error) {
	if payload.Grade != nil {
		if !grading.ValidScore(*payload.Grade) {
			return 0, ErrInvalidGrade
		}
		return *payload.Grade, nil
	}

	if payload.Points != nil {
		pct := grading.Percentage(payload.Points, maxPoints)
		if pct == nil || !grading.ValidScore(*pct) {
			return 0, ErrInvalidGrade
		}
		return *pct, nil
	}

	return 0, ErrInvalidGrade
}
