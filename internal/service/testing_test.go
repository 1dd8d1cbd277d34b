package service

import (
	"context"
	"io"
	"sort"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/atlas-lms/atlas-api/internal/dto"
	"github.com/atlas-lms/atlas-api/internal/models"
	"github.com/atlas-lms/atlas-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// fakeSubmissionRepo is an in-memory attempt ledger shared by the submission
// and grading service tests.
type fakeSubmissionRepo struct {
	nextID      uint
	rows        map[uint]models.Submission
	history     []models.SubmissionGradeHistory
	createFails int
	updateCalls int
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{rows: map[uint]models.Submission{}}
}

func (f *fakeSubmissionRepo) seed(submission models.Submission) {
	if submission.ID == 0 {
		f.nextID++
		submission.ID = f.nextID
	} else if submission.ID > f.nextID {
		f.nextID = submission.ID
	}
	f.rows[submission.ID] = submission
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	if f.createFails > 0 {
		f.createFails--
		return gorm.ErrDuplicatedKey
	}
	for _, row := range f.rows {
		if row.AssignmentID == submission.AssignmentID &&
			row.StudentID == submission.StudentID &&
			row.AttemptNumber == submission.AttemptNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextID++
	submission.ID = f.nextID
	f.rows[submission.ID] = *submission
	return nil
}

func (f *fakeSubmissionRepo) Update(ctx context.Context, submission *models.Submission) error {
	f.updateCalls++
	f.rows[submission.ID] = *submission
	return nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	row, ok := f.rows[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (f *fakeSubmissionRepo) GetCurrent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	var current models.Submission
	found := false
	for _, row := range f.rows {
		if row.AssignmentID != assignmentID || row.StudentID != studentID {
			continue
		}
		if !found || row.AttemptNumber > current.AttemptNumber {
			current = row
			found = true
		}
	}
	if !found {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return current, nil
}

func (f *fakeSubmissionRepo) ListHistory(ctx context.Context, assignmentID, studentID uint) ([]models.Submission, error) {
	var attempts []models.Submission
	for _, row := range f.rows {
		if row.AssignmentID == assignmentID && row.StudentID == studentID {
			attempts = append(attempts, row)
		}
	}
	sort.Slice(attempts, func(i, j int) bool {
		return attempts[i].AttemptNumber > attempts[j].AttemptNumber
	})
	if len(attempts) <= 1 {
		return nil, nil
	}
	return attempts[1:], nil
}

func (f *fakeSubmissionRepo) ListCurrentForAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	current := map[uint]models.Submission{}
	for _, row := range f.rows {
		if row.AssignmentID != assignmentID {
			continue
		}
		if existing, ok := current[row.StudentID]; !ok || row.AttemptNumber > existing.AttemptNumber {
			current[row.StudentID] = row
		}
	}
	var result []models.Submission
	for _, row := range current {
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentID < result[j].StudentID })
	return result, nil
}

func (f *fakeSubmissionRepo) CountAttempts(ctx context.Context, assignmentID, studentID uint) (int64, error) {
	var count int64
	for _, row := range f.rows {
		if row.AssignmentID == assignmentID && row.StudentID == studentID {
			count++
		}
	}
	return count, nil
}

func (f *fakeSubmissionRepo) CreateHistory(ctx context.Context, history *models.SubmissionGradeHistory) error {
	f.history = append(f.history, *history)
	return nil
}

var _ repository.SubmissionRepository = (*fakeSubmissionRepo)(nil)

type fakeGate struct {
	submit bool
	grade  bool
	err    error
}

func (f *fakeGate) CanSubmit(ctx context.Context, studentID, courseID uint) (bool, error) {
	return f.submit, f.err
}

func (f *fakeGate) CanGrade(ctx context.Context, studentID, courseID uint) (bool, error) {
	return f.grade, f.err
}

// fakeRegistry satisfies AssignmentService where only the policy lookup matters.
type fakeRegistry struct {
	policy    SubmissionPolicy
	policyErr error
}

func (f *fakeRegistry) List(ctx context.Context, filter dto.AssignmentFilter) (dto.AssignmentListResponse, error) {
	return dto.AssignmentListResponse{}, nil
}

func (f *fakeRegistry) GetByID(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	return dto.AssignmentResponse{}, nil
}

func (f *fakeRegistry) Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	return dto.AssignmentResponse{}, nil
}

func (f *fakeRegistry) Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	return dto.AssignmentResponse{}, nil
}

func (f *fakeRegistry) Delete(ctx context.Context, id uint) error {
	return nil
}

func (f *fakeRegistry) SetPublished(ctx context.Context, id uint, published bool) (dto.AssignmentResponse, error) {
	return dto.AssignmentResponse{}, nil
}

func (f *fakeRegistry) GetPolicy(ctx context.Context, id uint) (SubmissionPolicy, error) {
	return f.policy, f.policyErr
}

type fakeActivityRecorder struct {
	entries []ActivityEntry
}

func (f *fakeActivityRecorder) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	f.entries = append(f.entries, entry)
	return dto.ActivityResponse{}, nil
}
