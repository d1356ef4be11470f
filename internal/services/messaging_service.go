package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

const (
	conversationHistoryLimit = 500
	contactsLimit            = 50
)

var conversationIDEscaper = strings.NewReplacer(`\`, `\\`, "_", `\_`)

// ConversationID is the participant pair sorted and joined, so either side
// derives the same key. Each id is escaped so the one bare "_" is always the
// separator.
func ConversationID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return conversationIDEscaper.Replace(ids[0]) + "_" + conversationIDEscaper.Replace(ids[1])
}

// GroupByDate buckets messages by calendar day in loc, keeping their order
func GroupByDate(messages []*models.Message, loc *time.Location) []MessageGroup {
	if loc == nil {
		loc = time.UTC
	}
	groups := make([]MessageGroup, 0)
	for _, m := range messages {
		day := m.CreatedAt.In(loc).Format(time.DateOnly)
		if n := len(groups); n > 0 && groups[n-1].Date == day {
			groups[n-1].Messages = append(groups[n-1].Messages, m)
			continue
		}
		groups = append(groups, MessageGroup{Date: day, Messages: []*models.Message{m}})
	}
	return groups
}

type messagingService struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewMessagingService(repo repositories.Repository, cm *cache.CacheManager, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) MessagingService {
	return &messagingService{
		repo:      repo,
		cache:     cm,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *messagingService) Send(ctx context.Context, actor *Actor, req *SendMessageRequest) (*models.Message, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	req.Text = strings.TrimSpace(req.Text)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.ReceiverID == actor.ID {
		return nil, NewBusinessRuleError("self_message", "cannot send a message to yourself", nil)
	}

	receiver, err := s.repo.Account().GetByID(ctx, req.ReceiverID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get receiver: %w", err)
	}
	if actor.IsStudent() && receiver.Role == models.RoleStudent {
		return nil, NewPermissionError(actor.ID, receiver.ID, "account", "message", "students can only message instructors and administrators")
	}
	if receiver.Disabled {
		return nil, NewBusinessRuleError("recipient_disabled", "the recipient's account is disabled", nil)
	}

	convID := ConversationID(actor.ID, receiver.ID)
	now := s.now()
	msg := &models.Message{
		ConversationID: convID,
		SenderID:       actor.ID,
		ReceiverID:     receiver.ID,
		Text:           req.Text,
		CreatedAt:      now,
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Message().Create(ctx, msg); err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}

		conv := &models.Conversation{
			ID:                  convID,
			Participants:        []string{actor.ID, receiver.ID},
			LastMessage:         truncate(msg.Text, 200),
			LastMessageAt:       &now,
			LastMessageSenderID: actor.ID,
		}
		sort.Strings(conv.Participants)
		if err := tx.Conversation().Upsert(ctx, conv); err != nil {
			return fmt.Errorf("failed to upsert conversation: %w", err)
		}
		if err := tx.Conversation().EnsureParticipants(ctx, convID, conv.Participants); err != nil {
			return fmt.Errorf("failed to upsert participants: %w", err)
		}
		if err := tx.Conversation().IncrementUnread(ctx, convID, receiver.ID); err != nil {
			return fmt.Errorf("failed to increment unread count: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bumpBadge(ctx, receiver.ID, convID)
	utils.MessagesSent.Inc()
	publish(ctx, s.publisher, s.logger, events.TopicMessageSent, events.MessageSentData{
		ConversationID: convID,
		MessageID:      msg.ID,
		SenderID:       msg.SenderID,
		ReceiverID:     msg.ReceiverID,
		Text:           msg.Text,
		Timestamp:      msg.CreatedAt,
	})

	s.logger.Debug("Message sent", "conversation_id", convID, "message_id", msg.ID)
	return msg, nil
}

// bumpBadge increments the receiver's badge hash only if it is already seeded;
// an unseeded hash is rebuilt from SQL on the next read
func (s *messagingService) bumpBadge(ctx context.Context, accountID, conversationID string) {
	exists, err := s.cache.Unread.Exists(ctx, accountID)
	if err != nil || !exists {
		logCacheError(s.logger, "Failed to check unread badge", err, "account_id", accountID)
		return
	}
	_, err = s.cache.Unread.IncrementField(ctx, accountID, conversationID, 1)
	logCacheError(s.logger, "Failed to increment unread badge", err, "account_id", accountID)
}

func (s *messagingService) ListConversations(ctx context.Context, actor *Actor) ([]*ConversationView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	summaries, err := s.repo.Conversation().ListByParticipant(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	ids := make([]string, 0, len(summaries))
	for _, c := range summaries {
		ids = append(ids, c.Counterpart(actor.ID))
	}
	people, err := s.participants(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*ConversationView, 0, len(summaries))
	for _, c := range summaries {
		conv := c.Conversation
		views = append(views, &ConversationView{
			Conversation: &conv,
			Counterpart:  people(c.Counterpart(actor.ID)),
			UnreadCount:  c.UnreadCount,
		})
	}
	return views, nil
}

// View returns the conversation grouped by day and marks it read for the viewer
func (s *messagingService) View(ctx context.Context, actor *Actor, conversationID string, loc *time.Location) (*ConversationDetail, error) {
	conv, err := s.CanAccess(ctx, actor, conversationID)
	if err != nil {
		return nil, err
	}

	if err := s.markRead(ctx, actor.ID, conv); err != nil {
		return nil, err
	}

	messages, err := s.repo.Message().ListByConversation(ctx, conv.ID, nil, conversationHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	counterpartID := conv.Counterpart(actor.ID)
	people, err := s.participants(ctx, []string{counterpartID})
	if err != nil {
		return nil, err
	}

	return &ConversationDetail{
		Conversation: conv,
		Counterpart:  people(counterpartID),
		Groups:       GroupByDate(messages, loc),
	}, nil
}

func (s *messagingService) MarkRead(ctx context.Context, actor *Actor, conversationID string) error {
	conv, err := s.CanAccess(ctx, actor, conversationID)
	if err != nil {
		return err
	}
	return s.markRead(ctx, actor.ID, conv)
}

func (s *messagingService) markRead(ctx context.Context, viewerID string, conv *models.Conversation) error {
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := tx.Message().MarkReadFrom(ctx, conv.ID, conv.Counterpart(viewerID)); err != nil {
			return fmt.Errorf("failed to mark messages read: %w", err)
		}
		if err := tx.Conversation().ResetUnread(ctx, conv.ID, viewerID); err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to reset unread count: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logCacheError(s.logger, "Failed to reset unread badge",
		s.cache.Unread.ResetField(ctx, viewerID, conv.ID), "account_id", viewerID)
	return nil
}

// UnreadTotal reads the badge hash, seeding it from SQL when absent
func (s *messagingService) UnreadTotal(ctx context.Context, actor *Actor) (int64, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}

	exists, err := s.cache.Unread.Exists(ctx, actor.ID)
	if err == nil && exists {
		total, err := s.cache.Unread.SumFields(ctx, actor.ID)
		if err == nil {
			return total, nil
		}
		logCacheError(s.logger, "Failed to read unread badge", err, "account_id", actor.ID)
	}

	summaries, err := s.repo.Conversation().ListByParticipant(ctx, actor.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	var total int64
	counters := make(map[string]int64)
	for _, c := range summaries {
		if c.UnreadCount > 0 {
			counters[c.ID] = int64(c.UnreadCount)
			total += int64(c.UnreadCount)
		}
	}

	// An empty hash cannot mark itself as seeded, so only non-zero totals are cached
	if len(counters) > 0 {
		logCacheError(s.logger, "Failed to seed unread badge",
			s.cache.Unread.SetFields(ctx, actor.ID, counters), "account_id", actor.ID)
	}
	return total, nil
}

func (s *messagingService) CanAccess(ctx context.Context, actor *Actor, conversationID string) (*models.Conversation, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	conv, err := s.repo.Conversation().GetByID(ctx, conversationID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if !conv.HasParticipant(actor.ID) {
		return nil, NewPermissionError(actor.ID, conversationID, "conversation", "view", "not a participant")
	}
	return conv, nil
}

// Contacts lists accounts the actor may start a conversation with
func (s *messagingService) Contacts(ctx context.Context, actor *Actor, query string) ([]ParticipantInfo, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	enabled := false
	accounts, _, err := s.repo.Account().List(ctx, repositories.AccountFilters{
		Query:     query,
		Disabled:  &enabled,
		Limit:     contactsLimit,
		SortBy:    "display_name",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	out := make([]ParticipantInfo, 0, len(accounts))
	for _, a := range accounts {
		if a.ID == actor.ID || (actor.IsStudent() && a.Role == models.RoleStudent) {
			continue
		}
		out = append(out, participantInfo(a))
	}
	return out, nil
}

// participants loads display info for ids and returns a lookup that falls
// back to the bare id for deleted accounts
func (s *messagingService) participants(ctx context.Context, ids []string) (func(string) ParticipantInfo, error) {
	accounts, err := s.repo.Account().GetByIDs(ctx, ids)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	byID := make(map[string]ParticipantInfo, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = participantInfo(a)
	}
	return func(id string) ParticipantInfo {
		if p, ok := byID[id]; ok {
			return p
		}
		return ParticipantInfo{ID: id, DisplayName: id}
	}, nil
}

func participantInfo(a *models.Account) ParticipantInfo {
	return ParticipantInfo{
		ID:          a.ID,
		DisplayName: a.DisplayName,
		Role:        a.Role,
		AvatarURL:   a.AvatarURL,
	}
}
