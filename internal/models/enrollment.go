package models

import (
	"slices"
	"time"

	"github.com/lib/pq"
)

type ProgressState string

const (
	StateNotStarted        ProgressState = "not_started"
	StateInProgress        ProgressState = "in_progress"
	StateCompleted         ProgressState = "completed"
	StateCertificateIssued ProgressState = "certificate_issued"
)

// Enrollment tracks one student's progress through one course
type Enrollment struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	AccountID string `json:"account_id" gorm:"not null;size:255;uniqueIndex:idx_enrollment_account_course"`
	CourseID  string `json:"course_id" gorm:"not null;size:36;uniqueIndex:idx_enrollment_account_course;index"`

	Progress        int            `json:"progress" gorm:"not null;default:0;check:progress >= 0 AND progress <= 100"`
	CompletedVideos pq.StringArray `json:"completed_videos" gorm:"type:text[];not null;default:'{}'"`
	CertificateID   *string        `json:"certificate_id" gorm:"size:64"`
	Completed       bool           `json:"completed" gorm:"not null;default:false"`

	EnrolledAt     time.Time  `json:"enrolled_at" gorm:"not null"`
	LastAccessedAt *time.Time `json:"last_accessed_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Relations
	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID;references:ID"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

func (e *Enrollment) State() ProgressState {
	switch {
	case e.CertificateID != nil && *e.CertificateID != "":
		return StateCertificateIssued
	case e.Completed || e.Progress >= 100:
		return StateCompleted
	case len(e.CompletedVideos) > 0:
		return StateInProgress
	default:
		return StateNotStarted
	}
}

func (e *Enrollment) HasCompleted(videoID string) bool {
	return slices.Contains(e.CompletedVideos, videoID)
}

func (e *Enrollment) HasCertificate() bool {
	return e.CertificateID != nil && *e.CertificateID != ""
}
