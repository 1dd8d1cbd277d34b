package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/atlas-lms/atlas-api/internal/dto"
	"github.com/atlas-lms/atlas-api/internal/models"
	"github.com/atlas-lms/atlas-api/internal/observability"
	"github.com/atlas-lms/atlas-api/internal/repository"
)

// maxSubmitRetries bounds how often attempt numbering is recomputed when two
// submits for the same pair race on the unique index.
const maxSubmitRetries = 3

// SubmissionService is the attempt ledger and the submit-side orchestrator:
// it authorizes through the enrollment gate, reads policy from the assignment
// registry and appends immutable attempt rows.
type SubmissionService interface {
	Submit(ctx context.Context, assignmentID, studentID uint, payload dto.SubmitRequest, actor ActivityActor) (dto.SubmissionResponse, error)
	GetCurrent(ctx context.Context, assignmentID, studentID uint) (dto.CurrentSubmissionResponse, error)
	GetByID(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	ListForAssignment(ctx context.Context, assignmentID uint) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions   repository.SubmissionRepository
	registry      AssignmentService
	gate          EnrollmentGate
	activity      ActivityRecorder
	cache         *redis.Client
	cacheTTL      time.Duration
	nats          *nats.Conn
	subjectPrefix string
	validator     *validator.Validate
	logger        zerolog.Logger
	now           func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	registry AssignmentService,
	gate EnrollmentGate,
	activity ActivityRecorder,
	cache *redis.Client,
	cacheTTL time.Duration,
	natsConn *nats.Conn,
	subjectPrefix string,
	validate *validator.Validate,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions:   submissions,
		registry:      registry,
		gate:          gate,
		activity:      activity,
		cache:         cache,
		cacheTTL:      cacheTTL,
		nats:          natsConn,
		subjectPrefix: subjectPrefix,
		validator:     validate,
		logger:        logger.With().Str("component", "submission_service").Logger(),
		now:           time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, assignmentID, studentID uint, payload dto.SubmitRequest, actor ActivityActor) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	policy, err := s.registry.GetPolicy(ctx, assignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if !policy.Published {
		observability.SubmissionsRejected().WithLabelValues("unpublished").Inc()
		return dto.SubmissionResponse{}, ErrAssignmentUnpublished
	}

	allowed, err := s.gate.CanSubmit(ctx, studentID, policy.CourseID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !allowed {
		observability.SubmissionsRejected().WithLabelValues("not_enrolled").Inc()
		return dto.SubmissionResponse{}, ErrNotEnrolled
	}

	if err := validatePayloadForType(payload, policy.SubmissionType); err != nil {
		return dto.SubmissionResponse{}, err
	}

	created, err := s.appendAttempt(ctx, policy, studentID, payload)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	// Reload with associations.
	full, err := s.submissions.GetByID(ctx, created.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.invalidateCohortCache(ctx, assignmentID)
	observability.SubmissionsRecorded().WithLabelValues(full.Status).Inc()

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "submission.created",
			EntityType: "submission",
			EntityID:   &full.ID,
			Metadata: map[string]interface{}{
				"assignment_id":  full.AssignmentID,
				"student_id":     full.StudentID,
				"attempt_number": full.AttemptNumber,
				"is_late":        full.IsLate,
			},
		})
	}

	s.publishEvent(ctx, "submissions.created", full)

	s.logger.Info().
		Uint("submission_id", full.ID).
		Uint("assignment_id", full.AssignmentID).
		Uint("student_id", full.StudentID).
		Int("attempt_number", full.AttemptNumber).
		Bool("is_late", full.IsLate).
		Msg("submission recorded")

	return dto.NewSubmissionResponse(full), nil
}

// appendAttempt serializes attempt numbering against concurrent submits: the
// unique index on (assignment_id, student_id, attempt_number) makes the loser
// recount and retry with a fresh number.
func (s *submissionService) appendAttempt(ctx context.Context, policy SubmissionPolicy, studentID uint, payload dto.SubmitRequest) (models.Submission, error) {
	for retry := 0; retry < maxSubmitRetries; retry++ {
		count, err := s.submissions.CountAttempts(ctx, policy.AssignmentID, studentID)
		if err != nil {
			return models.Submission{}, err
		}

		if count >= int64(policy.AttemptsAllowed) {
			observability.SubmissionsRejected().WithLabelValues("attempt_limit").Inc()
			return models.Submission{}, ErrAttemptLimitExceeded
		}

		now := s.now()
		isLate := now.After(policy.DueAt)
		if isLate && !policy.AllowLate {
			observability.SubmissionsRejected().WithLabelValues("closed").Inc()
			return models.Submission{}, ErrSubmissionClosed
		}

		status := models.SubmissionStatusSubmitted
		var lateSubmittedAt *time.Time
		if isLate {
			status = models.SubmissionStatusLate
			lateSubmittedAt = &now
		}

		submission := models.Submission{
			AssignmentID:    policy.AssignmentID,
			StudentID:       studentID,
			AttemptNumber:   int(count) + 1,
			TextContent:     payload.TextContent,
			LinkURL:         payload.LinkURL,
			FileName:        payload.FileName,
			FileURL:         payload.FileURL,
			Status:          status,
			SubmittedAt:     now,
			IsLate:          isLate,
			LateSubmittedAt: lateSubmittedAt,
		}

		err = s.submissions.Create(ctx, &submission)
		if err == nil {
			return submission, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.Submission{}, err
		}

		s.logger.Warn().
			Uint("assignment_id", policy.AssignmentID).
			Uint("student_id", studentID).
			Int("attempt_number", submission.AttemptNumber).
			Msg("attempt number collision, retrying")
	}

	observability.SubmissionsRejected().WithLabelValues("conflict").Inc()
	return models.Submission{}, ErrSubmissionConflict
}

func (s *submissionService) GetCurrent(ctx context.Context, assignmentID, studentID uint) (dto.CurrentSubmissionResponse, error) {
	current, err := s.submissions.GetCurrent(ctx, assignmentID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CurrentSubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.CurrentSubmissionResponse{}, err
	}

	history, err := s.submissions.ListHistory(ctx, assignmentID, studentID)
	if err != nil {
		return dto.CurrentSubmissionResponse{}, err
	}

	return dto.CurrentSubmissionResponse{
		Current: dto.NewSubmissionResponse(current),
		History: dto.NewSubmissionResponseSlice(history),
	}, nil
}

func (s *submissionService) GetByID(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListForAssignment(ctx context.Context, assignmentID uint) ([]dto.SubmissionResponse, error) {
	if _, err := s.registry.GetPolicy(ctx, assignmentID); err != nil {
		return nil, err
	}

	cacheKey := cohortCacheKey(assignmentID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var responses []dto.SubmissionResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &responses); unmarshalErr == nil {
				s.logger.Debug().Uint("assignment_id", assignmentID).Msg("cohort cache hit")
				return responses, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read cohort cache")
		}
	}

	submissions, err := s.submissions.ListCurrentForAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	responses := dto.NewSubmissionResponseSlice(submissions)

	if s.cache != nil {
		if payload, err := json.Marshal(responses); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store cohort cache")
			}
		}
	}

	return responses, nil
}

func (s *submissionService) invalidateCohortCache(ctx context.Context, assignmentID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cohortCacheKey(assignmentID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("assignment_id", assignmentID).Msg("failed to invalidate cohort cache")
	}
}

func (s *submissionService) publishEvent(ctx context.Context, suffix string, submission models.Submission) {
	if s.nats == nil {
		return
	}

	event := submissionEvent{
		Event:         suffix,
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

	subject := fmt.Sprintf("%s.%s", s.subjectPrefix, suffix)
	if err := s.nats.Publish(subject, payload); err != nil {
		s.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish submission event")
	}
}

// submissionEvent is the payload handed to downstream collaborators
// (notification fan-out, gradebook sync) over the broker.
type submissionEvent struct {
	Event         string    `json:"event"`
	SubmissionID  uint      `json:"submission_id"`
	AssignmentID  uint      `json:"assignment_id"`
	StudentID     uint      `json:"student_id"`
	AttemptNumber int       `json:"attempt_number"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func cohortCacheKey(assignmentID uint) string {
	return fmt.Sprintf("assignment:%d:submissions:current", assignmentID)
}

func validatePayloadForType(payload dto.SubmitRequest, submissionType string) error {
	text := strings.TrimSpace(payload.TextContent) != ""
	link := strings.TrimSpace(payload.LinkURL) != ""
	file := strings.TrimSpace(payload.FileURL) != "" || strings.TrimSpace(payload.FileName) != ""

	switch submissionType {
	case models.SubmissionTypeText:
		if !text || link || file {
			return ErrInvalidSubmissionPayload
		}
	case models.SubmissionTypeLink:
		if !link || text || file {
			return ErrInvalidSubmissionPayload
		}
	case models.SubmissionTypeFile:
		if strings.TrimSpace(payload.FileURL) == "" || strings.TrimSpace(payload.FileName) == "" || text || link {
			return ErrInvalidSubmissionPayload
		}
	default:
		return ErrInvalidSubmissionPayload
	}

	return nil
}
