package models

import "time"

type ContactStatus string

const (
	ContactNew       ContactStatus = "new"
	ContactRead      ContactStatus = "read"
	ContactResponded ContactStatus = "responded"
	ContactClosed    ContactStatus = "closed"
)

func (s ContactStatus) IsValid() bool {
	switch s {
	case ContactNew, ContactRead, ContactResponded, ContactClosed:
		return true
	}
	return false
}

type ContactMessage struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	Name        string        `json:"name" gorm:"not null;size:100"`
	Email       string        `json:"email" gorm:"not null;size:255;index"`
	Subject     string        `json:"subject" gorm:"not null;size:200"`
	Message     string        `json:"message" gorm:"type:text;not null"`
	Status      ContactStatus `json:"status" gorm:"not null;size:20;default:new;index"`
	Reply       *string       `json:"reply" gorm:"type:text"`
	RespondedBy *string       `json:"responded_by" gorm:"size:255"`
	RespondedAt *time.Time    `json:"responded_at"`
	CreatedAt   time.Time     `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (ContactMessage) TableName() string {
	return "contact_messages"
}
