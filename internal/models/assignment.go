package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Submission types accepted by an assignment.
const (
	SubmissionTypeFile = "file"
	SubmissionTypeLink = "link"
	SubmissionTypeText = "text"
)

// Assignment defines a gradable piece of coursework and its submission policy.
// The due date is advisory at write time; lateness is decided per submission
// at the moment it is recorded and never recomputed afterwards.
type Assignment struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	CourseID        uint           `gorm:"not null;index" json:"course_id"`
	ModuleID        *uint          `gorm:"index" json:"module_id"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	Instructions    string         `gorm:"type:text" json:"instructions"`
	DueAt           time.Time      `gorm:"not null" json:"due_at"`
	MaxPoints       float64        `gorm:"not null;default:100" json:"max_points"`
	SubmissionType  string         `gorm:"size:16;not null;default:file" json:"submission_type"`
	AttemptsAllowed int            `gorm:"not null;default:1" json:"attempts_allowed"`
	AllowLate       bool           `gorm:"not null;default:false" json:"allow_late"`
	LatePenaltyPct  float64        `gorm:"not null;default:0" json:"late_penalty_pct"`
	Published       bool           `gorm:"not null;default:false" json:"published"`
	PublishedAt     *time.Time     `json:"published_at"`
	Position        int            `gorm:"not null;default:0" json:"position"`
	Attachments     datatypes.JSON `gorm:"type:json" json:"attachments"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	Course          Course         `json:"course"`
	Submissions     []Submission   `json:"-"`
}

// Attachment references an externally stored file by name and URL.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// IsPastDue returns true when the deadline has already passed at the given
// reference time. A submission landing exactly at the deadline is on time.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueAt)
}
