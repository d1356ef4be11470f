package models

import "time"

// ===== SUMMARY DTOs =====

type EnrollmentSummary struct {
	EnrollmentID   uint          `json:"enrollment_id"`
	CourseID       string        `json:"course_id"`
	CourseTitle    string        `json:"course_title"`
	InstructorName string        `json:"instructor_name"`
	Thumbnail      string        `json:"thumbnail"`
	Progress       int           `json:"progress"`
	State          ProgressState `json:"state"`
	CertificateID  *string       `json:"certificate_id"`
	LastAccessedAt *time.Time    `json:"last_accessed_at"`
}

type StudentProgressRow struct {
	AccountID      string     `json:"account_id"`
	DisplayName    string     `json:"display_name"`
	Email          string     `json:"email"`
	Progress       int        `json:"progress"`
	Completed      bool       `json:"completed"`
	CertificateID  *string    `json:"certificate_id"`
	EnrolledAt     time.Time  `json:"enrolled_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at"`
}
