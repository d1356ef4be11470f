package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

// ===== CONVERSATIONS =====

type ConversationPostgreSQL struct {
	db *gorm.DB
}

func NewConversationPostgreSQL(db *gorm.DB) repositories.ConversationRepository {
	return &ConversationPostgreSQL{db: db}
}

func (r *ConversationPostgreSQL) Upsert(ctx context.Context, conv *models.Conversation) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_message", "last_message_at", "last_message_sender_id", "updated_at"}),
	}).Create(conv).Error
	if err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}
	return nil
}

func (r *ConversationPostgreSQL) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

func (r *ConversationPostgreSQL) ListByParticipant(ctx context.Context, accountID string) ([]*repositories.ConversationSummary, error) {
	summaries := make([]*repositories.ConversationSummary, 0)
	err := r.db.WithContext(ctx).
		Table("conversations AS c").
		Select("c.*, p.unread_count").
		Joins("JOIN conversation_participants p ON p.conversation_id = c.id AND p.account_id = ?", accountID).
		Order("c.last_message_at DESC NULLS LAST").
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return summaries, nil
}

func (r *ConversationPostgreSQL) EnsureParticipants(ctx context.Context, conversationID string, accountIDs []string) error {
	rows := make([]models.ConversationParticipant, 0, len(accountIDs))
	for _, id := range accountIDs {
		rows = append(rows, models.ConversationParticipant{ConversationID: conversationID, AccountID: id})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to ensure participants: %w", err)
	}
	return nil
}

func (r *ConversationPostgreSQL) IncrementUnread(ctx context.Context, conversationID, accountID string) error {
	result := r.db.WithContext(ctx).
		Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND account_id = ?", conversationID, accountID).
		UpdateColumn("unread_count", gorm.Expr("unread_count + ?", 1))
	if result.Error != nil {
		return fmt.Errorf("failed to increment unread: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *ConversationPostgreSQL) ResetUnread(ctx context.Context, conversationID, accountID string) error {
	if err := r.db.WithContext(ctx).
		Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND account_id = ?", conversationID, accountID).
		UpdateColumn("unread_count", 0).Error; err != nil {
		return fmt.Errorf("failed to reset unread: %w", err)
	}
	return nil
}

func (r *ConversationPostgreSQL) UnreadTotal(ctx context.Context, accountID string) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.ConversationParticipant{}).
		Select("COALESCE(SUM(unread_count), 0)").
		Where("account_id = ?", accountID).
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to sum unread: %w", err)
	}
	return total, nil
}

// ===== MESSAGES =====

type MessagePostgreSQL struct {
	db *gorm.DB
}

func NewMessagePostgreSQL(db *gorm.DB) repositories.MessageRepository {
	return &MessagePostgreSQL{db: db}
}

func (r *MessagePostgreSQL) Create(ctx context.Context, msg *models.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListByConversation fetches the newest limit messages and returns them oldest first
func (r *MessagePostgreSQL) ListByConversation(ctx context.Context, conversationID string, since *time.Time, limit int) ([]*models.Message, error) {
	if limit <= 0 || limit > repositories.MaxExportRows {
		limit = repositories.MaxExportRows
	}

	query := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)
	if since != nil {
		query = query.Where("created_at > ?", *since)
	}

	messages := make([]*models.Message, 0)
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	slices.Reverse(messages)
	return messages, nil
}

func (r *MessagePostgreSQL) MarkReadFrom(ctx context.Context, conversationID, senderID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id = ? AND read = ?", conversationID, senderID, false).
		UpdateColumn("read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *MessagePostgreSQL) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Message{}).Where("created_at >= ?", since).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}
