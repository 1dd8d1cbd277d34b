package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/atlas-lms/atlas-api/internal/models"
)

// CourseGradeRepository persists standalone grade ledger entries.
type CourseGradeRepository interface {
	// Find locates the entry for the natural key; assignmentID nil matches
	// course-level rows only.
	Find(ctx context.Context, userID, courseID uint, assignmentID *uint) (models.CourseGrade, error)
	ListForCourse(ctx context.Context, courseID uint) ([]models.CourseGrade, error)
	Create(ctx context.Context, grade *models.CourseGrade) error
	Update(ctx context.Context, grade *models.CourseGrade) error
}

type courseGradeRepository struct {
	db *gorm.DB
}

// NewCourseGradeRepository instantiates the repository.
func NewCourseGradeRepository(db *gorm.DB) CourseGradeRepository {
	return &courseGradeRepository{db: db}
}

func (r *courseGradeRepository) Find(ctx context.Context, userID, courseID uint, assignmentID *uint) (models.CourseGrade, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("course_id = ?", courseID)

	if assignmentID != nil {
		query = query.Where("assignment_id = ?", *assignmentID)
	} else {
		query = query.Where("assignment_id IS NULL")
	}

	var grade models.CourseGrade
	if err := query.First(&grade).Error; err != nil {
		return models.CourseGrade{}, err
	}

	return grade, nil
}

func (r *courseGradeRepository) ListForCourse(ctx context.Context, courseID uint) ([]models.CourseGrade, error) {
	var grades []models.CourseGrade
	if err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("user_id ASC, assignment_id ASC").
		Find(&grades).Error; err != nil {
		return nil, err
	}

	return grades, nil
}

func (r *courseGradeRepository) Create(ctx context.Context, grade *models.CourseGrade) error {
	return r.db.WithContext(ctx).Create(grade).Error
}

func (r *courseGradeRepository) Update(ctx context.Context, grade *models.CourseGrade) error {
	return r.db.WithContext(ctx).Save(grade).Error
}
