package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/mail"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

// ===== FEEDBACK =====

type feedbackService struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewFeedbackService(repo repositories.Repository, cm *cache.CacheManager, logger *slog.Logger, validator *validator.Validator) FeedbackService {
	return &feedbackService{
		repo:      repo,
		cache:     cm,
		logger:    logger,
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Submit accepts feedback from anyone; actor is nil for anonymous visitors
func (s *feedbackService) Submit(ctx context.Context, actor *Actor, req *SubmitFeedbackRequest) (*models.Feedback, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	fb := &models.Feedback{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Rating:  req.Rating,
		Message: strings.TrimSpace(req.Message),
		Status:  models.FeedbackNew,
	}
	if actor != nil && actor.ID != "" {
		fb.AccountID = &actor.ID
	}

	if err := s.repo.Feedback().Create(ctx, fb); err != nil {
		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}

	cache.InvalidateStats(ctx, s.cache)
	s.logger.Info("Feedback submitted", "feedback_id", fb.ID, "rating", fb.Rating)
	return fb, nil
}

func (s *feedbackService) List(ctx context.Context, filters repositories.FeedbackFilters) ([]*models.Feedback, int64, error) {
	items, total, err := s.repo.Feedback().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list feedback: %w", err)
	}
	return items, total, nil
}

// Get opens a feedback item; opening a new item marks it reviewed
func (s *feedbackService) Get(ctx context.Context, id uint) (*models.Feedback, error) {
	fb, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if fb.Status == models.FeedbackNew {
		moved, err := s.repo.Feedback().TransitionStatus(ctx, id, models.FeedbackNew, models.FeedbackReviewed)
		if err != nil {
			return nil, fmt.Errorf("failed to mark feedback reviewed: %w", err)
		}
		if moved {
			fb.Status = models.FeedbackReviewed
			cache.InvalidateStats(ctx, s.cache)
		}
	}
	return fb, nil
}

func (s *feedbackService) UpdateStatus(ctx context.Context, id uint, status models.FeedbackStatus) (*models.Feedback, error) {
	if !status.IsValid() {
		return nil, ValidationErrors{*NewValidationError("status", "must be one of: new reviewed resolved", status)}
	}
	fb, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Feedback().UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("failed to update feedback status: %w", err)
	}
	fb.Status = status

	cache.InvalidateStats(ctx, s.cache)
	s.logger.Info("Feedback status updated", "feedback_id", id, "status", status)
	return fb, nil
}

func (s *feedbackService) Export(ctx context.Context, filters repositories.FeedbackFilters, format ExportFormat) (*ExportFile, error) {
	filters.Limit, filters.Offset = repositories.MaxExportRows, 0
	items, _, err := s.repo.Feedback().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}

	table := &exportTable{
		Sheet:  "Feedback",
		Header: []string{"ID", "Name", "Email", "Rating", "Status", "Message", "Created At"},
	}
	for _, fb := range items {
		table.Rows = append(table.Rows, []string{
			strconv.FormatUint(uint64(fb.ID), 10),
			fb.Name,
			fb.Email,
			strconv.Itoa(fb.Rating),
			string(fb.Status),
			fb.Message,
			formatTime(fb.CreatedAt),
		})
	}
	return table.render(format, s.now())
}

func (s *feedbackService) get(ctx context.Context, id uint) (*models.Feedback, error) {
	fb, err := s.repo.Feedback().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrFeedbackNotFound
		}
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	return fb, nil
}

// ===== CONTACT MESSAGES =====

type contactService struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	mailer    mail.Mailer
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewContactService(repo repositories.Repository, cm *cache.CacheManager, mailer mail.Mailer, logger *slog.Logger, validator *validator.Validator) ContactService {
	return &contactService{
		repo:      repo,
		cache:     cm,
		mailer:    mailer,
		logger:    logger,
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *contactService) Submit(ctx context.Context, req *SubmitContactRequest) (*models.ContactMessage, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	msg := &models.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
		Status:  models.ContactNew,
	}
	if err := s.repo.ContactMessage().Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to create contact message: %w", err)
	}

	cache.InvalidateStats(ctx, s.cache)
	s.logger.Info("Contact message submitted", "contact_id", msg.ID)
	return msg, nil
}

func (s *contactService) List(ctx context.Context, filters repositories.ContactMessageFilters) ([]*models.ContactMessage, int64, error) {
	items, total, err := s.repo.ContactMessage().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contact messages: %w", err)
	}
	return items, total, nil
}

// Get opens a contact message; opening a new message marks it read
func (s *contactService) Get(ctx context.Context, id uint) (*models.ContactMessage, error) {
	msg, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if msg.Status == models.ContactNew {
		moved, err := s.repo.ContactMessage().TransitionStatus(ctx, id, models.ContactNew, models.ContactRead)
		if err != nil {
			return nil, fmt.Errorf("failed to mark contact message read: %w", err)
		}
		if moved {
			msg.Status = models.ContactRead
			cache.InvalidateStats(ctx, s.cache)
		}
	}
	return msg, nil
}

func (s *contactService) UpdateStatus(ctx context.Context, id uint, status models.ContactStatus) (*models.ContactMessage, error) {
	if !status.IsValid() {
		return nil, ValidationErrors{*NewValidationError("status", "must be one of: new read responded closed", status)}
	}
	msg, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ContactMessage().UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("failed to update contact message status: %w", err)
	}
	msg.Status = status

	cache.InvalidateStats(ctx, s.cache)
	s.logger.Info("Contact message status updated", "contact_id", id, "status", status)
	return msg, nil
}

// Reply stores the answer and emails it to the sender. A mail failure is
// logged; the reply stays recorded.
func (s *contactService) Reply(ctx context.Context, actor *Actor, id uint, req *ContactReplyRequest) (*models.ContactMessage, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	msg, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.Status == models.ContactClosed {
		return nil, NewBusinessRuleError("contact_closed", "cannot reply to a closed message", map[string]interface{}{"contact_id": id})
	}

	s.logger.Info("Replying to contact message", "contact_id", id, "admin_id", actor.ID)

	reply := strings.TrimSpace(req.Reply)
	now := s.now()
	if err := s.repo.ContactMessage().SaveReply(ctx, id, reply, actor.ID, now); err != nil {
		return nil, fmt.Errorf("failed to save reply: %w", err)
	}
	msg.Reply = &reply
	msg.RespondedBy = &actor.ID
	msg.RespondedAt = &now
	msg.Status = models.ContactResponded

	if err := s.mailer.Send(ctx, mail.ContactReply(msg.Name, msg.Email, msg.Subject, reply)); err != nil {
		s.logger.Error("Failed to email contact reply", "contact_id", id, "error", err)
	}

	cache.InvalidateStats(ctx, s.cache)
	s.logger.Info("Contact message replied successfully", "contact_id", id)
	return msg, nil
}

func (s *contactService) Export(ctx context.Context, filters repositories.ContactMessageFilters, format ExportFormat) (*ExportFile, error) {
	filters.Limit, filters.Offset = repositories.MaxExportRows, 0
	items, _, err := s.repo.ContactMessage().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact messages: %w", err)
	}

	table := &exportTable{
		Sheet:  "Contact Messages",
		Header: []string{"ID", "Name", "Email", "Subject", "Status", "Message", "Created At", "Responded At"},
	}
	for _, m := range items {
		table.Rows = append(table.Rows, []string{
			strconv.FormatUint(uint64(m.ID), 10),
			m.Name,
			m.Email,
			m.Subject,
			string(m.Status),
			m.Message,
			formatTime(m.CreatedAt),
			formatTimePtr(m.RespondedAt),
		})
	}
	return table.render(format, s.now())
}

func (s *contactService) get(ctx context.Context, id uint) (*models.ContactMessage, error) {
	msg, err := s.repo.ContactMessage().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrContactMessageNotFound
		}
		return nil, fmt.Errorf("failed to get contact message: %w", err)
	}
	return msg, nil
}
