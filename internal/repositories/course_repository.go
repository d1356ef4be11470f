package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

type CourseRepository interface {
	// Core CRUD operations
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id string) (*models.Course, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	UpdateStatus(ctx context.Context, id string, status models.CourseStatus) error
	Delete(ctx context.Context, id string) error

	// List and search operations
	List(ctx context.Context, filters CourseFilters) ([]*models.Course, int64, error)
	Categories(ctx context.Context) ([]string, error)
	CountByStatus(ctx context.Context) (map[models.CourseStatus]int64, error)
}

type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Get(ctx context.Context, accountID, courseID string) (*models.Enrollment, error)
	// GetForUpdate locks the enrollment row; only meaningful inside a transaction
	GetForUpdate(ctx context.Context, accountID, courseID string) (*models.Enrollment, error)

	// AddCompletedVideo unions videoID into completed_videos in a single statement.
	// It returns the resulting set and whether the video was newly added.
	AddCompletedVideo(ctx context.Context, id uint, videoID string) ([]string, bool, error)
	UpdateProgress(ctx context.Context, id uint, progress int) error
	MarkCompleted(ctx context.Context, id uint, certificateID *string, at time.Time) error
	TouchLastAccessed(ctx context.Context, id uint, at time.Time) error

	ListByAccount(ctx context.Context, accountID string) ([]*models.Enrollment, error)
	ListByCourse(ctx context.Context, courseID string, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)
	CountByCourses(ctx context.Context, courseIDs []string) (map[string]int64, error)
}

type CertificateRepository interface {
	Create(ctx context.Context, cert *models.Certificate) error
	GetByID(ctx context.Context, id string) (*models.Certificate, error)
	GetByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Certificate, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Certificate, error)
	CountByCourses(ctx context.Context, courseIDs []string) (int64, error)
}
