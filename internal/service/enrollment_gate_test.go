package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/atlas-lms/atlas-api/internal/models"
)

type fakeCourseRepo struct {
	courses map[uint]models.Course
}

func (f *fakeCourseRepo) GetByID(ctx context.Context, id uint) (models.Course, error) {
	course, ok := f.courses[id]
	if !ok {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (f *fakeCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if f.courses == nil {
		f.courses = map[uint]models.Course{}
	}
	f.courses[course.ID] = *course
	return nil
}

type fakeEnrollmentRepo struct {
	enrollments []models.Enrollment
}

func (f *fakeEnrollmentRepo) GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (models.Enrollment, error) {
	for _, enrollment := range f.enrollments {
		if enrollment.StudentID == studentID && enrollment.CourseID == courseID {
			return enrollment, nil
		}
	}
	return models.Enrollment{}, gorm.ErrRecordNotFound
}

func (f *fakeEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	f.enrollments = append(f.enrollments, *enrollment)
	return nil
}

func newGateForTest(status string) EnrollmentGate {
	courses := &fakeCourseRepo{courses: map[uint]models.Course{2: {ID: 2, Code: "CS101"}}}
	enrollments := &fakeEnrollmentRepo{}
	if status != "" {
		enrollments.enrollments = append(enrollments.enrollments, models.Enrollment{
			StudentID: 7,
			CourseID:  2,
			Status:    status,
		})
	}
	return NewEnrollmentGate(enrollments, courses, testLogger())
}

func TestGateCanSubmitByStatus(t *testing.T) {
	cases := []struct {
		status  string
		allowed bool
	}{
		{models.EnrollmentStatusEnrolled, true},
		{models.EnrollmentStatusPending, false},
		{models.EnrollmentStatusDropped, false},
		{models.EnrollmentStatusCompleted, false},
	}

	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			allowed, err := newGateForTest(tc.status).CanSubmit(context.Background(), 7, 2)
			require.NoError(t, err)
			require.Equal(t, tc.allowed, allowed)
		})
	}
}

func TestGateCanGradeIncludesCompleted(t *testing.T) {
	allowed, err := newGateForTest(models.EnrollmentStatusCompleted).CanGrade(context.Background(), 7, 2)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = newGateForTest(models.EnrollmentStatusDropped).CanGrade(context.Background(), 7, 2)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestGateMissingEnrollmentDenies(t *testing.T) {
	allowed, err := newGateForTest("").CanSubmit(context.Background(), 7, 2)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestGateMissingCourse(t *testing.T) {
	gate := NewEnrollmentGate(&fakeEnrollmentRepo{}, &fakeCourseRepo{}, testLogger())

	_, err := gate.CanSubmit(context.Background(), 7, 99)
	require.ErrorIs(t, err, ErrCourseNotFound)
}
