package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/atlas-lms/atlas-api/internal/dto"
	"github.com/atlas-lms/atlas-api/internal/models"
	"github.com/atlas-lms/atlas-api/internal/repository"
)

type fakeCourseGradeRepo struct {
	nextID      uint
	rows        []models.CourseGrade
	createFails int
}

func (f *fakeCourseGradeRepo) Find(ctx context.Context, userID, courseID uint, assignmentID *uint) (models.CourseGrade, error) {
	for _, row := range f.rows {
		if row.UserID != userID || row.CourseID != courseID {
			continue
		}
		if assignmentID == nil && row.AssignmentID == nil {
			return row, nil
		}
		if assignmentID != nil && row.AssignmentID != nil && *assignmentID == *row.AssignmentID {
			return row, nil
		}
	}
	return models.CourseGrade{}, gorm.ErrRecordNotFound
}

func (f *fakeCourseGradeRepo) ListForCourse(ctx context.Context, courseID uint) ([]models.CourseGrade, error) {
	var result []models.CourseGrade
	for _, row := range f.rows {
		if row.CourseID == courseID {
			result = append(result, row)
		}
	}
	return result, nil
}

func (f *fakeCourseGradeRepo) Create(ctx context.Context, grade *models.CourseGrade) error {
	if f.createFails > 0 {
		f.createFails--
		return gorm.ErrDuplicatedKey
	}
	f.nextID++
	grade.ID = f.nextID
	f.rows = append(f.rows, *grade)
	return nil
}

func (f *fakeCourseGradeRepo) Update(ctx context.Context, grade *models.CourseGrade) error {
	for i, row := range f.rows {
		if row.ID == grade.ID {
			f.rows[i] = *grade
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeAssignmentRepo struct {
	assignments map[uint]models.Assignment
}

func (f *fakeAssignmentRepo) List(ctx context.Context, filter repository.AssignmentFilter) ([]models.Assignment, int64, error) {
	return nil, 0, nil
}

func (f *fakeAssignmentRepo) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, ok := f.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (f *fakeAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	return nil
}

func (f *fakeAssignmentRepo) Update(ctx context.Context, assignment *models.Assignment) error {
	return nil
}

func (f *fakeAssignmentRepo) Delete(ctx context.Context, id uint) error {
	return nil
}

func newCourseGradeServiceForTest(grades *fakeCourseGradeRepo, assignments *fakeAssignmentRepo, gate *fakeGate, activity *fakeActivityRecorder) CourseGradeService {
	courses := &fakeCourseRepo{courses: map[uint]models.Course{2: {ID: 2, Code: "CS101"}}}
	validate := validator.New(validator.WithRequiredStructEnabled())
	var recorder ActivityRecorder
	if activity != nil {
		recorder = activity
	}
	return NewCourseGradeService(grades, courses, assignments, gate, recorder, validate, testLogger())
}

func uintPtr(v uint) *uint { return &v }

func TestCourseGradeUpsertCreates(t *testing.T) {
	grades := &fakeCourseGradeRepo{}
	activity := &fakeActivityRecorder{}
	svc := newCourseGradeServiceForTest(grades, &fakeAssignmentRepo{}, &fakeGate{grade: true}, activity)

	result, err := svc.Upsert(context.Background(), 2, dto.CourseGradeUpsertRequest{UserID: 7, Grade: 91.5, Comments: "excellent"}, ActivityActor{ID: 9, Role: "teacher"})
	require.NoError(t, err)
	require.Equal(t, 91.5, result.Grade)
	require.Equal(t, "A", result.GradeLetter)
	require.Len(t, grades.rows, 1)
	require.Len(t, activity.entries, 1)
	require.Equal(t, "grade.recorded", activity.entries[0].Action)
}

func TestCourseGradeUpsertRejectsOutOfRangeGrade(t *testing.T) {
	grades := &fakeCourseGradeRepo{}
	svc := newCourseGradeServiceForTest(grades, &fakeAssignmentRepo{}, &fakeGate{grade: true}, nil)

	for _, grade := range []float64{150, -1} {
		_, err := svc.Upsert(context.Background(), 2, dto.CourseGradeUpsertRequest{UserID: 7, Grade: grade}, ActivityActor{ID: 9, Role: "teacher"})
		require.ErrorIs(t, err, ErrInvalidGrade)
	}
	require.Empty(t, grades.rows)
}

func TestCourseGradeUpsertUpdatesExisting(t *testing.T) {
	grades := &fakeCourseGradeRepo{
		nextID: 1,
		rows:   []models.CourseGrade{{ID: 1, UserID: 7, CourseID: 2, Grade: 70, GradeLetter: "C"}},
	}
	svc := newCourseGradeServiceForTest(grades, &fakeAssignmentRepo{}, &fakeGate{grade: true}, nil)

	result, err := svc.Upsert(context.Background(), 2, dto.CourseGradeUpsertRequest{UserID: 7, Grade: 88}, ActivityActor{ID: 9, Role: "teacher"})
	require.NoError(t, err)
	require.Equal(t, 88.0, result.Grade)
	require.Equal(t, "B", result.GradeLetter)
	require.Len(t, grades.rows, 1)
}

func TestCourseGradeUpsertRecoversFromCreateRace(t *testing.T) {
	grades := &fakeCourseGradeRepo{createFails: 1}
	grades.rows = append(grades.rows, models.CourseGrade{ID: 5, UserID: 7, CourseID: 2, Grade: 50, GradeLetter: "F"})
	grades.nextID = 5
	svc := newCourseGradeServiceForTest(grades, &fakeAssignmentRepo{}, &fakeGate{grade: true}, nil)

	result, err := svc.Upsert(context.Background(), 2, dto.CourseGradeUpsertRequest{UserID: 7, Grade: 75}, ActivityActor{ID: 9, Role: "teacher"})
	require.NoError(t, err)
	require.Equal(t, 75.0, result.Grade)
	require.Len(t, grades.rows, 1)
}

func TestCourseGradeUpsertAssignmentFromOtherCourse(t *testing.T) {
	assignments := &fakeAssignmentRepo{assignments: map[uint]models.Assignment{3: {ID: 3, CourseID: 99}}}
	svc := newCourseGradeServiceForTest(&fakeCourseGradeRepo{}, assignments, &fakeGate{grade: true}, nil)

	_, err := svc.Upsert(context.Background(), 2, dto.CourseGradeUpsertRequest{UserID: 7, AssignmentID: uintPtr(3), Grade: 75}, ActivityActor{ID: 9, Role: "teacher"})
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestCourseGradeUpsertRequiresGradableEnrollment(t *testing.T) {
	svc := newCourseGradeServiceForTest(&fakeCourseGradeRepo{}, &fakeAssignmentRepo{}, &fakeGate{grade: false}, nil)

	_, err := svc.Upsert(context.Background(), 2, dto.CourseGradeUpsertRequest{UserID: 7, Grade: 75}, ActivityActor{ID: 9, Role: "teacher"})
	require.ErrorIs(t, err, ErrNotEnrolled)
}

func TestCourseGradeListMissingCourse(t *testing.T) {
	svc := newCourseGradeServiceForTest(&fakeCourseGradeRepo{}, &fakeAssignmentRepo{}, &fakeGate{grade: true}, nil)

	_, err := svc.ListForCourse(context.Background(), 99)
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestCourseGradeListForCourse(t *testing.T) {
	grades := &fakeCourseGradeRepo{
		rows: []models.CourseGrade{
			{ID: 1, UserID: 7, CourseID: 2, Grade: 88, GradeLetter: "B"},
			{ID: 2, UserID: 8, CourseID: 2, Grade: 95, GradeLetter: "A"},
			{ID: 3, UserID: 7, CourseID: 3, Grade: 60, GradeLetter: "D"},
		},
	}
	svc := newCourseGradeServiceForTest(grades, &fakeAssignmentRepo{}, &fakeGate{grade: true}, nil)

	result, err := svc.ListForCourse(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, result, 2)
}
