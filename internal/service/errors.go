package service

import "errors"

// Sentinel errors recovered at the handler boundary and mapped onto the HTTP
// error taxonomy. Raw storage errors never cross that boundary.
var (
	// ErrCourseNotFound indicates the course is absent or soft-deleted.
	ErrCourseNotFound = errors.New("course not found")
	// ErrAssignmentNotFound indicates the assignment is absent or soft-deleted.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrSubmissionNotFound indicates no matching submission exists.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrNotEnrolled indicates the student has no active membership in the course.
	ErrNotEnrolled = errors.New("student is not enrolled in the course")
	// ErrAssignmentUnpublished indicates students may not act on the assignment yet.
	ErrAssignmentUnpublished = errors.New("assignment is not published")
	// ErrSubmissionClosed indicates the deadline passed and late work is not accepted.
	ErrSubmissionClosed = errors.New("late submissions are not accepted for this assignment")
	// ErrAttemptLimitExceeded indicates the student used up every allowed attempt.
	ErrAttemptLimitExceeded = errors.New("attempt limit reached")
	// ErrInvalidGrade indicates the grade is missing or outside the 0-100 range.
	ErrInvalidGrade = errors.New("grade must be between 0 and 100")
	// ErrInvalidSubmissionPayload indicates the payload does not match the
	// assignment's submission type.
	ErrInvalidSubmissionPayload = errors.New("payload does not match assignment submission type")
	// ErrSubmissionConflict indicates attempt numbering kept racing after retries.
	ErrSubmissionConflict = errors.New("submission conflict, please retry")
)
