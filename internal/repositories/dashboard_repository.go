package repositories

import (
	"context"
	"time"
)

// DashboardRepository interface for dashboard aggregate queries
type DashboardRepository interface {
	GetAdminStats(ctx context.Context) (*AdminStatsData, error)
	GetInstructorStats(ctx context.Context, instructorID string) (*InstructorStatsData, error)
	GetEnrollmentTrend(ctx context.Context, courseIDs []string, days int) ([]EnrollmentTrendData, error)
}

// Data structures for dashboard responses

type AdminStatsData struct {
	Students            int64 `json:"students"`
	Instructors         int64 `json:"instructors"`
	Admins              int64 `json:"admins"`
	DisabledAccounts    int64 `json:"disabled_accounts"`
	DraftCourses        int64 `json:"draft_courses"`
	PublishedCourses    int64 `json:"published_courses"`
	Enrollments         int64 `json:"enrollments"`
	Certificates        int64 `json:"certificates"`
	OpenFeedback        int64 `json:"open_feedback"`
	NewContactMessages  int64 `json:"new_contact_messages"`
	ActiveNotifications int64 `json:"active_notifications"`
}

type InstructorStatsData struct {
	Courses          int64   `json:"courses"`
	PublishedCourses int64   `json:"published_courses"`
	Enrollments      int64   `json:"enrollments"`
	Completions      int64   `json:"completions"`
	AverageProgress  float64 `json:"average_progress"`
}

type EnrollmentTrendData struct {
	Date        time.Time `json:"date"`
	Enrollments int64     `json:"enrollments"`
}
