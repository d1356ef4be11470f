package models

import "time"

type FeedbackStatus string

const (
	FeedbackNew      FeedbackStatus = "new"
	FeedbackReviewed FeedbackStatus = "reviewed"
	FeedbackResolved FeedbackStatus = "resolved"
)

func (s FeedbackStatus) IsValid() bool {
	switch s {
	case FeedbackNew, FeedbackReviewed, FeedbackResolved:
		return true
	}
	return false
}

type Feedback struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	AccountID *string        `json:"account_id" gorm:"size:255;index"`
	Name      string         `json:"name" gorm:"not null;size:100"`
	Email     string         `json:"email" gorm:"not null;size:255"`
	Rating    int            `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Message   string         `json:"message" gorm:"type:text;not null"`
	Status    FeedbackStatus `json:"status" gorm:"not null;size:20;default:new;index"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (Feedback) TableName() string {
	return "feedback"
}
