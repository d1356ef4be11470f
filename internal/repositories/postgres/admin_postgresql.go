package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

// applyDateRange restricts created_at to [from, to]
func applyDateRange(query *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at <= ?", *to)
	}
	return query
}

// ===== FEEDBACK =====

type FeedbackPostgreSQL struct {
	db *gorm.DB
}

func NewFeedbackPostgreSQL(db *gorm.DB) repositories.FeedbackRepository {
	return &FeedbackPostgreSQL{db: db}
}

func (r *FeedbackPostgreSQL) Create(ctx context.Context, fb *models.Feedback) error {
	if err := r.db.WithContext(ctx).Create(fb).Error; err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

func (r *FeedbackPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Feedback, error) {
	var fb models.Feedback
	if err := r.db.WithContext(ctx).First(&fb, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	return &fb, nil
}

func (r *FeedbackPostgreSQL) List(ctx context.Context, filters repositories.FeedbackFilters) ([]*models.Feedback, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Feedback{})

	if filters.Query != "" {
		pattern := likePattern(filters.Query)
		query = query.Where("name ILIKE ? OR email ILIKE ? OR message ILIKE ?", pattern, pattern, pattern)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.MinRating > 0 {
		query = query.Where("rating >= ?", filters.MinRating)
	}
	query = applyDateRange(query, filters.DateFrom, filters.DateTo)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count feedback: %w", err)
	}

	items := make([]*models.Feedback, 0)
	query = ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset, inboxSortColumns, "created_at")
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list feedback: %w", err)
	}
	return items, total, nil
}

func (r *FeedbackPostgreSQL) UpdateStatus(ctx context.Context, id uint, status models.FeedbackStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Feedback{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return fmt.Errorf("failed to update feedback status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *FeedbackPostgreSQL) TransitionStatus(ctx context.Context, id uint, from, to models.FeedbackStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Feedback{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return false, fmt.Errorf("failed to transition feedback status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *FeedbackPostgreSQL) CountByStatus(ctx context.Context, status models.FeedbackStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Feedback{}).Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}
	return count, nil
}

// ===== CONTACT MESSAGES =====

type ContactMessagePostgreSQL struct {
	db *gorm.DB
}

func NewContactMessagePostgreSQL(db *gorm.DB) repositories.ContactMessageRepository {
	return &ContactMessagePostgreSQL{db: db}
}

func (r *ContactMessagePostgreSQL) Create(ctx context.Context, msg *models.ContactMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create contact message: %w", err)
	}
	return nil
}

func (r *ContactMessagePostgreSQL) GetByID(ctx context.Context, id uint) (*models.ContactMessage, error) {
	var msg models.ContactMessage
	if err := r.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact message: %w", err)
	}
	return &msg, nil
}

func (r *ContactMessagePostgreSQL) List(ctx context.Context, filters repositories.ContactMessageFilters) ([]*models.ContactMessage, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ContactMessage{})

	if filters.Query != "" {
		pattern := likePattern(filters.Query)
		query = query.Where("name ILIKE ? OR email ILIKE ? OR subject ILIKE ? OR message ILIKE ?", pattern, pattern, pattern, pattern)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	query = applyDateRange(query, filters.DateFrom, filters.DateTo)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count contact messages: %w", err)
	}

	items := make([]*models.ContactMessage, 0)
	query = ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset, inboxSortColumns, "created_at")
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list contact messages: %w", err)
	}
	return items, total, nil
}

func (r *ContactMessagePostgreSQL) UpdateStatus(ctx context.Context, id uint, status models.ContactStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.ContactMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return fmt.Errorf("failed to update contact status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *ContactMessagePostgreSQL) TransitionStatus(ctx context.Context, id uint, from, to models.ContactStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ContactMessage{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return false, fmt.Errorf("failed to transition contact status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *ContactMessagePostgreSQL) SaveReply(ctx context.Context, id uint, reply, respondedBy string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.ContactMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reply":        reply,
			"responded_by": respondedBy,
			"responded_at": at,
			"status":       models.ContactResponded,
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to save reply: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *ContactMessagePostgreSQL) CountByStatus(ctx context.Context, status models.ContactStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ContactMessage{}).Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count contact messages: %w", err)
	}
	return count, nil
}

// ===== NOTIFICATIONS =====

type NotificationPostgreSQL struct {
	db *gorm.DB
}

func NewNotificationPostgreSQL(db *gorm.DB) repositories.NotificationRepository {
	return &NotificationPostgreSQL{db: db}
}

func (r *NotificationPostgreSQL) Create(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *NotificationPostgreSQL) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &n, nil
}

func (r *NotificationPostgreSQL) List(ctx context.Context, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Notification{})

	if filters.Query != "" {
		pattern := likePattern(filters.Query)
		query = query.Where("title ILIKE ? OR body ILIKE ?", pattern, pattern)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if len(filters.Audiences) > 0 {
		query = query.Where("audience IN ?", filters.Audiences)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	items := make([]*models.Notification, 0)
	query = ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset, inboxSortColumns, "created_at")
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, total, nil
}

func (r *NotificationPostgreSQL) UpdateStatus(ctx context.Context, id string, status models.NotificationStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return fmt.Errorf("failed to update notification status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *NotificationPostgreSQL) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("notification_id = ?", id).Delete(&models.NotificationRead{}).Error; err != nil {
			return fmt.Errorf("failed to delete notification reads: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&models.Notification{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete notification: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return repositories.ErrNotFound
		}
		return nil
	})
}

func (r *NotificationPostgreSQL) MarkRead(ctx context.Context, notificationID, accountID string, at time.Time) error {
	read := models.NotificationRead{NotificationID: notificationID, AccountID: accountID, ReadAt: at}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&read).Error; err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (r *NotificationPostgreSQL) ReadIDs(ctx context.Context, accountID string, notificationIDs []string) (map[string]bool, error) {
	read := make(map[string]bool, len(notificationIDs))
	if len(notificationIDs) == 0 {
		return read, nil
	}

	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.NotificationRead{}).
		Where("account_id = ? AND notification_id IN ?", accountID, notificationIDs).
		Pluck("notification_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load read notifications: %w", err)
	}
	for _, id := range ids {
		read[id] = true
	}
	return read, nil
}
