package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type EnrollmentPostgreSQL struct {
	db *gorm.DB
}

func NewEnrollmentPostgreSQL(db *gorm.DB) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{db: db}
}

func (r *EnrollmentPostgreSQL) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.CompletedVideos == nil {
		enrollment.CompletedVideos = pq.StringArray{}
	}
	if err := r.db.WithContext(ctx).Create(enrollment).Error; err != nil {
		if repositories.IsDuplicateError(err) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("failed to create enrollment: %w", err)
	}
	return nil
}

func (r *EnrollmentPostgreSQL) Get(ctx context.Context, accountID, courseID string) (*models.Enrollment, error) {
	return r.get(r.db.WithContext(ctx), accountID, courseID)
}

func (r *EnrollmentPostgreSQL) GetForUpdate(ctx context.Context, accountID, courseID string) (*models.Enrollment, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), accountID, courseID)
}

func (r *EnrollmentPostgreSQL) get(query *gorm.DB, accountID, courseID string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := query.Where("account_id = ? AND course_id = ?", accountID, courseID).First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return &enrollment, nil
}

func (r *EnrollmentPostgreSQL) AddCompletedVideo(ctx context.Context, id uint, videoID string) ([]string, bool, error) {
	// text[] only decodes through pq.StringArray.Scan when it is a struct field
	var row struct {
		CompletedVideos pq.StringArray
	}
	result := r.db.WithContext(ctx).Raw(`
		UPDATE enrollments
		SET completed_videos = array_append(completed_videos, ?), updated_at = NOW()
		WHERE id = ? AND NOT (? = ANY(completed_videos))
		RETURNING completed_videos`, videoID, id, videoID).Scan(&row)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to add completed video: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return row.CompletedVideos, true, nil
	}

	// Already present, or the enrollment is gone
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).Select("id", "completed_videos").Where("id = ?", id).First(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, repositories.ErrNotFound
		}
		return nil, false, fmt.Errorf("failed to read completed videos: %w", err)
	}
	return enrollment.CompletedVideos, false, nil
}

func (r *EnrollmentPostgreSQL) UpdateProgress(ctx context.Context, id uint, progress int) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"progress": progress, "updated_at": time.Now().UTC()}).Error; err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

// MarkCompleted never clears an existing certificate reference
func (r *EnrollmentPostgreSQL) MarkCompleted(ctx context.Context, id uint, certificateID *string, at time.Time) error {
	updates := map[string]interface{}{
		"completed":    true,
		"progress":     100,
		"completed_at": gorm.Expr("COALESCE(completed_at, ?)", at),
		"updated_at":   time.Now().UTC(),
	}
	if certificateID != nil {
		updates["certificate_id"] = gorm.Expr("COALESCE(certificate_id, ?)", *certificateID)
	}

	result := r.db.WithContext(ctx).Model(&models.Enrollment{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to mark enrollment completed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *EnrollmentPostgreSQL) TouchLastAccessed(ctx context.Context, id uint, at time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("id = ?", id).
		UpdateColumn("last_accessed_at", at).Error; err != nil {
		return fmt.Errorf("failed to update last accessed: %w", err)
	}
	return nil
}

func (r *EnrollmentPostgreSQL) ListByAccount(ctx context.Context, accountID string) ([]*models.Enrollment, error) {
	enrollments := make([]*models.Enrollment, 0)
	if err := r.db.WithContext(ctx).
		Preload("Course").
		Where("account_id = ?", accountID).
		Order("COALESCE(last_accessed_at, enrolled_at) DESC").
		Find(&enrollments).Error; err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}

func (r *EnrollmentPostgreSQL) ListByCourse(ctx context.Context, courseID string, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Enrollment{}).Where("course_id = ?", courseID)
	if filters.Completed != nil {
		query = query.Where("completed = ?", *filters.Completed)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count enrollments: %w", err)
	}

	enrollments := make([]*models.Enrollment, 0)
	query = ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset, enrollmentSortColumns, "enrolled_at")
	if err := query.Find(&enrollments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list course enrollments: %w", err)
	}
	return enrollments, total, nil
}

func (r *EnrollmentPostgreSQL) CountByCourses(ctx context.Context, courseIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(courseIDs))
	if len(courseIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		CourseID string
		Count    int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Select("course_id, COUNT(*) AS count").
		Where("course_id IN ?", courseIDs).
		Group("course_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count enrollments: %w", err)
	}
	for _, row := range rows {
		counts[row.CourseID] = row.Count
	}
	return counts, nil
}
