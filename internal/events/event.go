package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics published by the service
const (
	TopicMessageSent          = "lms.message.sent"
	TopicCertificateIssued    = "lms.certificate.issued"
	TopicNotificationCreated  = "lms.notification.created"
	TopicAccountStatusChanged = "lms.account.status_changed"
)

const (
	eventSource  = "lms-service"
	eventVersion = "1.0"
)

// Event is the envelope every payload travels in
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// ===== PAYLOADS =====

type MessageSentData struct {
	ConversationID string    `json:"conversation_id"`
	MessageID      uint      `json:"message_id"`
	SenderID       string    `json:"sender_id"`
	ReceiverID     string    `json:"receiver_id"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
}

type CertificateIssuedData struct {
	CertificateID string    `json:"certificate_id"`
	UserID        string    `json:"user_id"`
	UserEmail     string    `json:"user_email"`
	UserName      string    `json:"user_name"`
	CourseID      string    `json:"course_id"`
	CourseName    string    `json:"course_name"`
	IssueDate     time.Time `json:"issue_date"`
}

type NotificationCreatedData struct {
	NotificationID string `json:"notification_id"`
	Title          string `json:"title"`
	Audience       string `json:"audience"`
	CreatedBy      string `json:"created_by"`
}

type AccountStatusChangedData struct {
	AccountID string `json:"account_id"`
	Disabled  bool   `json:"disabled"`
	ChangedBy string `json:"changed_by"`
}
