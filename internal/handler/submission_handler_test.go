package handler_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/atlas-lms/atlas-api/internal/dto"
	"github.com/atlas-lms/atlas-api/internal/models"
)

func TestSubmitAndGradeWorkflow(t *testing.T) {
	app, db := setupWorkflowApp(t)
	seedCourse(t, db, 2)
	seedEnrolledStudent(t, db, 7, 2, models.EnrollmentStatusEnrolled)
	assignment := seedPublishedAssignment(t, db, 2, time.Now().Add(24*time.Hour), 3, true, 20)

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/assignments/%d/submissions", assignment.ID),
		map[string]string{"text_content": "my essay"}, 7, "student")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var submission dto.SubmissionResponse
	decodeData(t, resp, &submission)
	require.Equal(t, 1, submission.AttemptNumber)
	require.Equal(t, models.SubmissionStatusSubmitted, submission.Status)
	require.False(t, submission.IsLate)

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/submissions/%d/grade", submission.ID),
		map[string]interface{}{"grade": 85, "feedback": "solid work"}, 50, "teacher")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var graded dto.SubmissionResponse
	decodeData(t, resp, &graded)
	require.Equal(t, 85.0, *graded.Grade)
	require.Equal(t, "B", *graded.GradeLetter)
	require.Equal(t, models.SubmissionStatusGraded, graded.Status)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/assignments/%d/submissions/me", assignment.ID), nil, 7, "student")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var current dto.CurrentSubmissionResponse
	decodeData(t, resp, &current)
	require.Equal(t, submission.ID, current.Current.ID)
	require.NotNil(t, current.Current.Grade)
}

func TestSubmitSecondAttemptSupersedes(t *testing.T) {
	app, db := setupWorkflowApp(t)
	seedCourse(t, db, 2)
	seedEnrolledStudent(t, db, 7, 2, models.EnrollmentStatusEnrolled)
	assignment := seedPublishedAssignment(t, db, 2, time.Now().Add(24*time.Hour), 2, true, 0)

	path := fmt.Sprintf("/api/v1/assignments/%d/submissions", assignment.ID)
	resp := doJSON(t, app, http.MethodPost, path, map[string]string{"text_content": "draft"}, 7, "student")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, path, map[string]string{"text_content": "final"}, 7, "student")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var second dto.SubmissionResponse
	decodeData(t, resp, &second)
	require.Equal(t, 2, second.AttemptNumber)

	// Attempt limit reached.
	resp = doJSON(t, app, http.MethodPost, path, map[string]string{"text_content": "one more"}, 7, "student")
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("%s/me", path), nil, 7, "student")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var current dto.CurrentSubmissionResponse
	decodeData(t, resp, &current)
	require.Equal(t, 2, current.Current.AttemptNumber)
	require.Len(t, current.History, 1)
	require.Equal(t, 1, current.History[0].AttemptNumber)
}

func TestSubmitLatePenaltyApplied(t *testing.T) {
	app, db := setupWorkflowApp(t)
	seedCourse(t, db, 2)
	seedEnrolledStudent(t, db, 7, 2, models.EnrollmentStatusEnrolled)
	assignment := seedPublishedAssignment(t, db, 2, time.Now().Add(-time.Hour), 3, true, 20)

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/assignments/%d/submissions", assignment.ID),
		map[string]string{"text_content": "late essay"}, 7, "student")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var submission dto.SubmissionResponse
	decodeData(t, resp, &submission)
	require.True(t, submission.IsLate)
	require.Equal(t, models.SubmissionStatusLate, submission.Status)

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/submissions/%d/grade", submission.ID),
		map[string]interface{}{"grade": 80}, 50, "teacher")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var graded dto.SubmissionResponse
	decodeData(t, resp, &graded)
	require.Equal(t, 64.0, *graded.Grade)
	require.Equal(t, "D", *graded.GradeLetter)
}

func TestSubmitRejectedWhenLateNotAllowed(t *testing.T) {
	app, db := setupWorkflowApp(t)
	seedCourse(t, db, 2)
	seedEnrolledStudent(t, db, 7, 2, models.EnrollmentStatusEnrolled)
	assignment := seedPublishedAssignment(t, db, 2, time.Now().Add(-time.Hour), 3, false, 0)

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/assignments/%d/submissions", assignment.ID),
		map[string]string{"text_content": "late"}, 7, "student")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestSubmitForbiddenWithoutEnrollment(t *testing.T) {
	app, db := setupWorkflowApp(t)
	seedCourse(t, db, 2)
	require.NoError(t, db.Create(&models.Student{ID: 7, Name: "Jane", Email: "jane@example.edu"}).Error)
	assignment := seedPublishedAssignment(t, db, 2, time.Now().Add(24*time.Hour), 3, true, 0)

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/assignments/%d/submissions", assignment.ID),
		map[string]string{"text_content": "hello"}, 7, "student")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestSubmitForbiddenDroppedEnrollment(t *testing.T) {
	app, db := setupWorkflowApp(t)
	seedCourse(t, db, 2)
	seedEnrolledStudent(t, db, 7, 2, models.EnrollmentStatusDropped)
	assignment := seedPublishedAssignment(t, db, 2, time.Now().Add(24*time.Hour), 3, true, 0)

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/assignments/%d/submissions", assignment.ID),
		map[string]string{"text_content": "hello"}, 7, "student")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestSubmitUnpublishedForbidden(t *testing.T) {
	app, db := setupWorkflowApp(t)
	seedCourse(t, db, 2)
	seedEnrolledStudent(t, db, 7, 2, models.EnrollmentStatusEnrolled)
	assignment := models.Assignment{
		CourseID:        2,
		Title:           "Hidden",
		Instructions:    "Not yet visible.",
		DueAt:           time.Now().Add(24 * time.Hour),
		MaxPoints:       100,
		SubmissionType:  models.SubmissionTypeText,
		AttemptsAllowed: 1,
	}
	require.NoError(t, db.Create(&assignment).Error)

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/assignments/%d/submissions", assignment.ID),
		map[string]string{"text_content": "eager"}, 7, "student")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestSubmitOnBehalfRequiresManage(t *testing.T) {
	app, db := setupWorkflowApp(t)
	seedCourse(t, db, 2)
	seedEnrolledStudent(t, db, 7, 2, models.EnrollmentStatusEnrolled)
	assignment := seedPublishedAssignment(t, db, 2, time.Now().Add(24*time.Hour), 3, true, 0)
	path := fmt.Sprintf("/api/v1/assignments/%d/submissions", assignment.ID)

	resp := doJSON(t, app, http.MethodPost, path, map[string]interface{}{"student_id": 7, "text_content": "for a friend"}, 8, "student")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, path, map[string]interface{}{"student_id": 7, "text_content": "paper copy"}, 99, "admin")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var submission dto.SubmissionResponse
	decodeData(t, resp, &submission)
	require.Equal(t, uint(7), submission.StudentID)
}

func TestCurrentSubmissionNoContent(t *testing.T) {
	app, db := setupWorkflowApp(t)
	seedCourse(t, db, 2)
	seedEnrolledStudent(t, db, 7, 2, models.EnrollmentStatusEnrolled)
	assignment := seedPublishedAssignment(t, db, 2, time.Now().Add(24*time.Hour), 3, true, 0)

	resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/assignments/%d/submissions/me", assignment.ID), nil, 7, "student")
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func TestCurrentSubmissionMalformedStudentQuery(t *testing.T) {
	app, db := setupWorkflowApp(t)
	seedCourse(t, db, 2)
	seedEnrolledStudent(t, db, 7, 2, models.EnrollmentStatusEnrolled)
	assignment := seedPublishedAssignment(t, db, 2, time.Now().Add(24*time.Hour), 3, true, 0)

	path := fmt.Sprintf("/api/v1/assignments/%d/submissions/me?student_id=abc", assignment.ID)
	resp := doJSON(t, app, http.MethodGet, path, nil, 50, "teacher")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestCohortListingRequiresGradeCapability(t *testing.T) {
	app, db := setupWorkflowApp(t)
	seedCourse(t, db, 2)
	seedEnrolledStudent(t, db, 7, 2, models.EnrollmentStatusEnrolled)
	seedEnrolledStudent(t, db, 8, 2, models.EnrollmentStatusEnrolled)
	assignment := seedPublishedAssignment(t, db, 2, time.Now().Add(24*time.Hour), 3, true, 0)
	path := fmt.Sprintf("/api/v1/assignments/%d/submissions", assignment.ID)

	for _, studentID := range []uint{7, 8} {
		resp := doJSON(t, app, http.MethodPost, path, map[string]string{"text_content": "essay"}, studentID, "student")
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := doJSON(t, app, http.MethodGet, path, nil, 7, "student")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, path, nil, 50, "teacher")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var cohort []dto.SubmissionResponse
	decodeData(t, resp, &cohort)
	require.Len(t, cohort, 2)
}

func TestGradeSubmissionNotFound(t *testing.T) {
	app, db := setupWorkflowApp(t)
	seedCourse(t, db, 2)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/submissions/999/grade",
		map[string]interface{}{"grade": 50}, 50, "teacher")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestGradeOutOfRangeUnprocessable(t *testing.T) {
	app, db := setupWorkflowApp(t)
	seedCourse(t, db, 2)
	seedEnrolledStudent(t, db, 7, 2, models.EnrollmentStatusEnrolled)
	assignment := seedPublishedAssignment(t, db, 2, time.Now().Add(24*time.Hour), 3, true, 0)

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/assignments/%d/submissions", assignment.ID),
		map[string]string{"text_content": "essay"}, 7, "student")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var submission dto.SubmissionResponse
	decodeData(t, resp, &submission)

	gradePath := fmt.Sprintf("/api/v1/submissions/%d/grade", submission.ID)
	for _, grade := range []float64{150, -5} {
		resp = doJSON(t, app, http.MethodPost, gradePath,
			map[string]interface{}{"grade": grade}, 50, "teacher")
		require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
		resp.Body.Close()
	}
}

func TestGradeWithoutScoreUnprocessable(t *testing.T) {
	app, db := setupWorkflowApp(t)
	seedCourse(t, db, 2)
	seedEnrolledStudent(t, db, 7, 2, models.EnrollmentStatusEnrolled)
	assignment := seedPublishedAssignment(t, db, 2, time.Now().Add(24*time.Hour), 3, true, 0)

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/assignments/%d/submissions", assignment.ID),
		map[string]string{"text_content": "essay"}, 7, "student")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var submission dto.SubmissionResponse
	decodeData(t, resp, &submission)

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/submissions/%d/grade", submission.ID),
		map[string]interface{}{"feedback": "no score"}, 50, "teacher")
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()
}
