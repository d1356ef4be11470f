package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type CoursePostgreSQL struct {
	db    *gorm.DB
	cache *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.CourseRepository {
	return &CoursePostgreSQL{db: db, cache: cacheManager}
}

func (r *CoursePostgreSQL) Create(ctx context.Context, course *models.Course) error {
	if err := r.db.WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	cache.InvalidateCourseCache(ctx, r.cache, course.ID)
	return nil
}

func (r *CoursePostgreSQL) GetByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	err := r.cache.Course.CacheOrExecute(ctx, "id:"+id, &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		var c models.Course
		if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, repositories.ErrNotFound
			}
			return nil, fmt.Errorf("failed to get course: %w", err)
		}
		return &c, nil
	})
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CoursePostgreSQL) GetByIDs(ctx context.Context, ids []string) ([]*models.Course, error) {
	if len(ids) == 0 {
		return []*models.Course{}, nil
	}

	var courses []*models.Course
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to get courses: %w", err)
	}
	return courses, nil
}

func (r *CoursePostgreSQL) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(course).
		Select("title", "description", "category", "price", "thumbnail", "sections", "instructor_name", "updated_at").
		Updates(course)
	if result.Error != nil {
		return fmt.Errorf("failed to update course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	cache.InvalidateCourseCache(ctx, r.cache, course.ID)
	return nil
}

func (r *CoursePostgreSQL) UpdateStatus(ctx context.Context, id string, status models.CourseStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return fmt.Errorf("failed to update course status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	cache.InvalidateCourseCache(ctx, r.cache, id)
	return nil
}

func (r *CoursePostgreSQL) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Course{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	cache.InvalidateCourseCache(ctx, r.cache, id)
	return nil
}

type coursePage struct {
	Courses []*models.Course `json:"courses"`
	Total   int64            `json:"total"`
}

// List returns a filtered page. Pages of the public catalogue are cached.
func (r *CoursePostgreSQL) List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	if filters.Status == nil || *filters.Status != models.CoursePublished || filters.InstructorID != nil {
		return r.list(ctx, filters)
	}

	key := fmt.Sprintf("list:%s:%s:%d:%d:%s:%s", filters.Query, filters.Category, filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder)
	var page coursePage
	err := r.cache.Course.CacheOrExecute(ctx, key, &page, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		courses, total, err := r.list(ctx, filters)
		if err != nil {
			return nil, err
		}
		return coursePage{Courses: courses, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return page.Courses, page.Total, nil
}

func (r *CoursePostgreSQL) list(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{})

	if filters.Query != "" {
		pattern := likePattern(filters.Query)
		query = query.Where("title ILIKE ? OR description ILIKE ? OR instructor_name ILIKE ?", pattern, pattern, pattern)
	}
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.InstructorID != nil {
		query = query.Where("instructor_id = ?", *filters.InstructorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	courses := make([]*models.Course, 0)
	query = ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset, courseSortColumns, "created_at")
	if err := query.Find(&courses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}

	return courses, total, nil
}

func (r *CoursePostgreSQL) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.cache.Course.CacheOrExecute(ctx, "categories", &categories, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		var out []string
		if err := r.db.WithContext(ctx).
			Model(&models.Course{}).
			Where("status = ? AND category <> ''", models.CoursePublished).
			Distinct().
			Order("category").
			Pluck("category", &out).Error; err != nil {
			return nil, fmt.Errorf("failed to list categories: %w", err)
		}
		return out, nil
	})
	return categories, err
}

func (r *CoursePostgreSQL) CountByStatus(ctx context.Context) (map[models.CourseStatus]int64, error) {
	var rows []struct {
		Status models.CourseStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Course{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count courses by status: %w", err)
	}

	counts := make(map[models.CourseStatus]int64, 2)
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
