package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/atlas-lms/atlas-api/internal/models"
)

// SubmissionRepository defines data operations for the attempt ledger.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	// GetCurrent returns the highest-numbered attempt for the pair.
	GetCurrent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error)
	// ListHistory returns every attempt below the current one, newest first.
	ListHistory(ctx context.Context, assignmentID, studentID uint) ([]models.Submission, error)
	// ListCurrentForAssignment returns one row per student: their current attempt.
	ListCurrentForAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error)
	CountAttempts(ctx context.Context, assignmentID, studentID uint) (int64, error)
	CreateHistory(ctx context.Context, history *models.SubmissionGradeHistory) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Assignment").
		Preload("Student")
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Preload("History", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("graded_at DESC")
		}).
		First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetCurrent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("student_id = ?", studentID).
		Order("attempt_number DESC").
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListHistory(ctx context.Context, assignmentID, studentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("assignment_id = ?", assignmentID).
		Where("student_id = ?", studentID).
		Order("attempt_number DESC").
		Offset(1).
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListCurrentForAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.baseQuery(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("attempt_number = (SELECT MAX(s2.attempt_number) FROM submissions s2 WHERE s2.assignment_id = submissions.assignment_id AND s2.student_id = submissions.student_id)").
		Order("student_id ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) CountAttempts(ctx context.Context, assignmentID, studentID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("assignment_id = ?", assignmentID).
		Where("student_id = ?", studentID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *submissionRepository) CreateHistory(ctx context.Context, history *models.SubmissionGradeHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}
