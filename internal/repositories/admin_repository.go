package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

type FeedbackRepository interface {
	Create(ctx context.Context, fb *models.Feedback) error
	GetByID(ctx context.Context, id uint) (*models.Feedback, error)
	List(ctx context.Context, filters FeedbackFilters) ([]*models.Feedback, int64, error)
	UpdateStatus(ctx context.Context, id uint, status models.FeedbackStatus) error
	// TransitionStatus moves from one status to another only if the row is still in from
	TransitionStatus(ctx context.Context, id uint, from, to models.FeedbackStatus) (bool, error)
	CountByStatus(ctx context.Context, status models.FeedbackStatus) (int64, error)
}

type ContactMessageRepository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	GetByID(ctx context.Context, id uint) (*models.ContactMessage, error)
	List(ctx context.Context, filters ContactMessageFilters) ([]*models.ContactMessage, int64, error)
	UpdateStatus(ctx context.Context, id uint, status models.ContactStatus) error
	TransitionStatus(ctx context.Context, id uint, from, to models.ContactStatus) (bool, error)
	SaveReply(ctx context.Context, id uint, reply, respondedBy string, at time.Time) error
	CountByStatus(ctx context.Context, status models.ContactStatus) (int64, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	List(ctx context.Context, filters NotificationFilters) ([]*models.Notification, int64, error)
	UpdateStatus(ctx context.Context, id string, status models.NotificationStatus) error
	Delete(ctx context.Context, id string) error

	// Per-account read tracking
	MarkRead(ctx context.Context, notificationID, accountID string, at time.Time) error
	ReadIDs(ctx context.Context, accountID string, notificationIDs []string) (map[string]bool, error)
}
