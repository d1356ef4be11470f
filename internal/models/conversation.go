package models

import (
	"time"

	"github.com/lib/pq"
)

// Conversation is keyed by the sorted pair of participant ids
type Conversation struct {
	ID                  string         `json:"id" gorm:"primaryKey;size:520"`
	Participants        pq.StringArray `json:"participants" gorm:"type:text[];not null"`
	LastMessage         string         `json:"last_message" gorm:"type:text"`
	LastMessageAt       *time.Time     `json:"last_message_timestamp" gorm:"index"`
	LastMessageSenderID string         `json:"last_message_sender_id" gorm:"size:255"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Counterpart returns the other participant
func (c *Conversation) Counterpart(accountID string) string {
	for _, p := range c.Participants {
		if p != accountID {
			return p
		}
	}
	return ""
}

func (c *Conversation) HasParticipant(accountID string) bool {
	for _, p := range c.Participants {
		if p == accountID {
			return true
		}
	}
	return false
}

// ConversationParticipant holds the per-participant unread counter
type ConversationParticipant struct {
	ConversationID string `json:"conversation_id" gorm:"primaryKey;size:520"`
	AccountID      string `json:"account_id" gorm:"primaryKey;size:255;index"`
	UnreadCount    int    `json:"unread_count" gorm:"not null;default:0"`
}

func (ConversationParticipant) TableName() string {
	return "conversation_participants"
}

// Message is append-only apart from the read flag
type Message struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ConversationID string    `json:"conversation_id" gorm:"not null;size:520;index:idx_message_conversation_time"`
	SenderID       string    `json:"sender_id" gorm:"not null;size:255"`
	ReceiverID     string    `json:"receiver_id" gorm:"not null;size:255;index"`
	Text           string    `json:"text" gorm:"type:text;not null"`
	Read           bool      `json:"read" gorm:"not null;default:false"`
	CreatedAt      time.Time `json:"timestamp" gorm:"not null;index:idx_message_conversation_time"`
}

func (Message) TableName() string {
	return "messages"
}
