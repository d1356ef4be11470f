package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) repositories.DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) count(ctx context.Context, model interface{}, query string, args ...interface{}) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// ===== ADMIN STATS =====

func (r *dashboardRepository) GetAdminStats(ctx context.Context) (*repositories.AdminStatsData, error) {
	stats := &repositories.AdminStatsData{}

	var roles []struct {
		Role  models.UserRole
		Count int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Scan(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to count accounts: %w", err)
	}
	for _, row := range roles {
		switch row.Role {
		case models.RoleStudent:
			stats.Students = row.Count
		case models.RoleInstructor:
			stats.Instructors = row.Count
		case models.RoleAdmin:
			stats.Admins = row.Count
		}
	}

	counters := []struct {
		dest  *int64
		model interface{}
		where string
		args  []interface{}
	}{
		{&stats.DisabledAccounts, &models.Account{}, "disabled = ?", []interface{}{true}},
		{&stats.DraftCourses, &models.Course{}, "status = ?", []interface{}{models.CourseDraft}},
		{&stats.PublishedCourses, &models.Course{}, "status = ?", []interface{}{models.CoursePublished}},
		{&stats.Enrollments, &models.Enrollment{}, "", nil},
		{&stats.Certificates, &models.Certificate{}, "", nil},
		{&stats.OpenFeedback, &models.Feedback{}, "status <> ?", []interface{}{models.FeedbackResolved}},
		{&stats.NewContactMessages, &models.ContactMessage{}, "status = ?", []interface{}{models.ContactNew}},
		{&stats.ActiveNotifications, &models.Notification{}, "status = ?", []interface{}{models.NotificationActive}},
	}
	for _, c := range counters {
		n, err := r.count(ctx, c.model, c.where, c.args...)
		if err != nil {
			return nil, fmt.Errorf("failed to build admin stats: %w", err)
		}
		*c.dest = n
	}

	return stats, nil
}

// ===== INSTRUCTOR STATS =====

func (r *dashboardRepository) GetInstructorStats(ctx context.Context, instructorID string) (*repositories.InstructorStatsData, error) {
	stats := &repositories.InstructorStatsData{}
	db := r.db.WithContext(ctx)

	var courseRows []struct {
		Status models.CourseStatus
		Count  int64
	}
	if err := db.Model(&models.Course{}).
		Select("status, COUNT(*) AS count").
		Where("instructor_id = ?", instructorID).
		Group("status").
		Scan(&courseRows).Error; err != nil {
		return nil, fmt.Errorf("failed to count instructor courses: %w", err)
	}
	for _, row := range courseRows {
		stats.Courses += row.Count
		if row.Status == models.CoursePublished {
			stats.PublishedCourses = row.Count
		}
	}

	var enrollmentResult struct {
		Enrollments     int64
		Completions     int64
		AverageProgress float64
	}
	if err := db.Model(&models.Enrollment{}).
		Select("COUNT(*) AS enrollments, COUNT(*) FILTER (WHERE enrollments.completed) AS completions, COALESCE(AVG(enrollments.progress), 0) AS average_progress").
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("courses.instructor_id = ? AND courses.deleted_at IS NULL", instructorID).
		Scan(&enrollmentResult).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate instructor enrollments: %w", err)
	}
	stats.Enrollments = enrollmentResult.Enrollments
	stats.Completions = enrollmentResult.Completions
	stats.AverageProgress = enrollmentResult.AverageProgress

	return stats, nil
}

// ===== TRENDS =====

// GetEnrollmentTrend returns one point per day for the last days days, oldest first.
// A nil courseIDs means every course.
func (r *dashboardRepository) GetEnrollmentTrend(ctx context.Context, courseIDs []string, days int) ([]repositories.EnrollmentTrendData, error) {
	if days <= 0 {
		days = 7
	}

	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))

	results := make([]repositories.EnrollmentTrendData, 0, days)
	if courseIDs != nil && len(courseIDs) == 0 {
		for i := 0; i < days; i++ {
			results = append(results, repositories.EnrollmentTrendData{Date: start.AddDate(0, 0, i)})
		}
		return results, nil
	}

	query := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Select("DATE_TRUNC('day', enrolled_at AT TIME ZONE 'UTC') AS day, COUNT(*) AS count").
		Where("enrolled_at >= ?", start)
	if courseIDs != nil {
		query = query.Where("course_id IN ?", courseIDs)
	}

	var rows []struct {
		Day   time.Time
		Count int64
	}
	if err := query.Group("day").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get enrollment trend: %w", err)
	}

	byDay := make(map[string]int64, len(rows))
	for _, row := range rows {
		byDay[row.Day.Format("2006-01-02")] = row.Count
	}

	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		results = append(results, repositories.EnrollmentTrendData{
			Date:        date,
			Enrollments: byDay[date.Format("2006-01-02")],
		})
	}
	return results, nil
}
