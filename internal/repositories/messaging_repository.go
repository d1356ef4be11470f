package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

// ConversationSummary is a conversation as seen by one participant
type ConversationSummary struct {
	models.Conversation
	UnreadCount int `json:"unread_count"`
}

type ConversationRepository interface {
	// Upsert creates the conversation or refreshes its last-message fields
	Upsert(ctx context.Context, conv *models.Conversation) error
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	ListByParticipant(ctx context.Context, accountID string) ([]*ConversationSummary, error)

	// Unread counters, updated atomically in SQL
	EnsureParticipants(ctx context.Context, conversationID string, accountIDs []string) error
	IncrementUnread(ctx context.Context, conversationID, accountID string) error
	ResetUnread(ctx context.Context, conversationID, accountID string) error
	UnreadTotal(ctx context.Context, accountID string) (int64, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	// ListByConversation returns messages oldest first
	ListByConversation(ctx context.Context, conversationID string, since *time.Time, limit int) ([]*models.Message, error)
	// MarkReadFrom flips read on every unread message the sender sent in the conversation
	MarkReadFrom(ctx context.Context, conversationID, senderID string) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
}
