package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/atlas-lms/atlas-api/internal/models"
)

func seedAssignment(t *testing.T, db *gorm.DB, courseID uint, title string, dueAt time.Time, published bool, position int) models.Assignment {
	t.Helper()
	assignment := models.Assignment{
		CourseID:        courseID,
		Title:           title,
		Instructions:    "read the handout carefully",
		DueAt:           dueAt,
		MaxPoints:       100,
		SubmissionType:  models.SubmissionTypeText,
		AttemptsAllowed: 1,
		Published:       published,
		Position:        position,
	}
	require.NoError(t, db.Create(&assignment).Error)
	return assignment
}

func TestAssignmentRepositoryListFilters(t *testing.T) {
	db := setupTestDB(t, &models.Assignment{})
	repo := NewAssignmentRepository(db)

	now := time.Now()
	seedAssignment(t, db, 1, "Essay draft", now.Add(24*time.Hour), true, 2)
	seedAssignment(t, db, 1, "Lab report", now.Add(48*time.Hour), false, 1)
	seedAssignment(t, db, 2, "Essay final", now.Add(72*time.Hour), true, 1)

	courseID := uint(1)
	items, total, err := repo.List(context.Background(), AssignmentFilter{CourseID: &courseID})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	require.Equal(t, "Lab report", items[0].Title, "default sort is by position")

	published := true
	items, total, err = repo.List(context.Background(), AssignmentFilter{Published: &published})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	items, total, err = repo.List(context.Background(), AssignmentFilter{Search: "essay"})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	for _, item := range items {
		require.Contains(t, item.Title, "Essay")
	}
}

func TestAssignmentRepositoryListSortAndPagination(t *testing.T) {
	db := setupTestDB(t, &models.Assignment{})
	repo := NewAssignmentRepository(db)

	now := time.Now()
	seedAssignment(t, db, 1, "Third", now.Add(72*time.Hour), true, 1)
	seedAssignment(t, db, 1, "First", now.Add(24*time.Hour), true, 2)
	seedAssignment(t, db, 1, "Second", now.Add(48*time.Hour), true, 3)

	items, total, err := repo.List(context.Background(), AssignmentFilter{Sort: "due_at", Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	require.Equal(t, "First", items[0].Title)
	require.Equal(t, "Second", items[1].Title)

	items, _, err = repo.List(context.Background(), AssignmentFilter{Sort: "due_at", Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Third", items[0].Title)
}

func TestAssignmentRepositoryDeleteMissing(t *testing.T) {
	db := setupTestDB(t, &models.Assignment{})
	repo := NewAssignmentRepository(db)

	err := repo.Delete(context.Background(), 42)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAssignmentRepositoryDeleteIsSoft(t *testing.T) {
	db := setupTestDB(t, &models.Assignment{})
	repo := NewAssignmentRepository(db)

	assignment := seedAssignment(t, db, 1, "Doomed", time.Now(), true, 1)
	require.NoError(t, repo.Delete(context.Background(), assignment.ID))

	_, err := repo.GetByID(context.Background(), assignment.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, db.Unscoped().Model(&models.Assignment{}).Where("id = ?", assignment.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}
