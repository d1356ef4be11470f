package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type notificationService struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewNotificationService(repo repositories.Repository, cm *cache.CacheManager, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) NotificationService {
	return &notificationService{
		repo:      repo,
		cache:     cm,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *notificationService) Create(ctx context.Context, actor *Actor, req *CreateNotificationRequest) (*models.Notification, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	s.logger.Info("Creating notification", "admin_id", actor.ID, "audience", req.Audience)

	n := &models.Notification{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(req.Title),
		Body:      strings.TrimSpace(req.Body),
		Audience:  req.Audience,
		Status:    models.NotificationActive,
		CreatedBy: actor.ID,
	}
	if err := s.repo.Notification().Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	publish(ctx, s.publisher, s.logger, events.TopicNotificationCreated, events.NotificationCreatedData{
		NotificationID: n.ID,
		Title:          n.Title,
		Audience:       string(n.Audience),
		CreatedBy:      n.CreatedBy,
	})
	cache.InvalidateStats(ctx, s.cache)

	s.logger.Info("Notification created successfully", "notification_id", n.ID)
	return n, nil
}

func (s *notificationService) List(ctx context.Context, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	items, total, err := s.repo.Notification().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, total, nil
}

// SetStatus archives or re-activates a notification
func (s *notificationService) SetStatus(ctx context.Context, id string, status models.NotificationStatus) (*models.Notification, error) {
	if !status.IsValid() {
		return nil, ValidationErrors{*NewValidationError("status", "must be one of: active archived", status)}
	}
	n, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Status == status {
		return n, nil
	}

	if err := s.repo.Notification().UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("failed to update notification status: %w", err)
	}
	n.Status = status

	cache.InvalidateStats(ctx, s.cache)
	s.logger.Info("Notification status updated", "notification_id", id, "status", status)
	return n, nil
}

func (s *notificationService) Delete(ctx context.Context, id string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Notification().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	cache.InvalidateStats(ctx, s.cache)
	s.logger.Info("Notification deleted", "notification_id", id)
	return nil
}

func (s *notificationService) Export(ctx context.Context, filters repositories.NotificationFilters, format ExportFormat) (*ExportFile, error) {
	filters.Limit, filters.Offset = repositories.MaxExportRows, 0
	items, _, err := s.repo.Notification().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	table := &exportTable{
		Sheet:  "Notifications",
		Header: []string{"ID", "Title", "Audience", "Status", "Created By", "Created At", "Body"},
	}
	for _, n := range items {
		table.Rows = append(table.Rows, []string{
			n.ID,
			n.Title,
			string(n.Audience),
			string(n.Status),
			n.CreatedBy,
			formatTime(n.CreatedAt),
			n.Body,
		})
	}
	return table.render(format, s.now())
}

// Feed lists the active notifications addressed to the actor's role
func (s *notificationService) Feed(ctx context.Context, actor *Actor, limit, offset int) ([]*models.Notification, int64, error) {
	if err := requireActor(actor); err != nil {
		return nil, 0, err
	}

	active := models.NotificationActive
	filters := repositories.NotificationFilters{
		Status:    &active,
		Audiences: audiencesFor(actor.Role),
		Limit:     limit,
		Offset:    offset,
		SortBy:    "created_at",
		SortOrder: "desc",
	}
	items, total, err := s.repo.Notification().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	if len(items) == 0 {
		return items, total, nil
	}

	ids := make([]string, 0, len(items))
	for _, n := range items {
		ids = append(ids, n.ID)
	}
	read, err := s.repo.Notification().ReadIDs(ctx, actor.ID, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load read markers: %w", err)
	}
	for _, n := range items {
		n.Read = read[n.ID]
	}
	return items, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, actor *Actor, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	n, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if n.Status != models.NotificationActive || (!actor.IsAdmin() && !n.Audience.Includes(actor.Role)) {
		return ErrNotificationNotFound
	}

	if err := s.repo.Notification().MarkRead(ctx, id, actor.ID, s.now()); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *notificationService) get(ctx context.Context, id string) (*models.Notification, error) {
	n, err := s.repo.Notification().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// audiencesFor returns nil for admins, who see every audience
func audiencesFor(role models.UserRole) []models.NotificationAudience {
	switch role {
	case models.RoleStudent:
		return []models.NotificationAudience{models.AudienceAll, models.AudienceStudent}
	case models.RoleInstructor:
		return []models.NotificationAudience{models.AudienceAll, models.AudienceInstructor}
	case models.RoleAdmin:
		return nil
	}
	return []models.NotificationAudience{models.AudienceAll}
}
