package models

import "time"

type NotificationAudience string

const (
	AudienceAll        NotificationAudience = "all"
	AudienceStudent    NotificationAudience = "student"
	AudienceInstructor NotificationAudience = "instructor"
)

func (a NotificationAudience) IsValid() bool {
	switch a {
	case AudienceAll, AudienceStudent, AudienceInstructor:
		return true
	}
	return false
}

// Includes reports whether an account with the given role is addressed
func (a NotificationAudience) Includes(role UserRole) bool {
	switch a {
	case AudienceAll:
		return true
	case AudienceStudent:
		return role == RoleStudent
	case AudienceInstructor:
		return role == RoleInstructor
	}
	return false
}

type NotificationStatus string

const (
	NotificationActive   NotificationStatus = "active"
	NotificationArchived NotificationStatus = "archived"
)

func (s NotificationStatus) IsValid() bool {
	return s == NotificationActive || s == NotificationArchived
}

type Notification struct {
	ID        string               `json:"id" gorm:"primaryKey;size:36"`
	Title     string               `json:"title" gorm:"not null;size:200"`
	Body      string               `json:"body" gorm:"type:text;not null"`
	Audience  NotificationAudience `json:"audience" gorm:"not null;size:20;default:all;index"`
	Status    NotificationStatus   `json:"status" gorm:"not null;size:20;default:active;index"`
	CreatedBy string               `json:"created_by" gorm:"not null;size:255"`
	CreatedAt time.Time            `json:"created_at" gorm:"index"`
	UpdatedAt time.Time            `json:"updated_at"`

	// Computed per viewer
	Read bool `json:"read" gorm:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}

type NotificationRead struct {
	NotificationID string    `json:"notification_id" gorm:"primaryKey;size:36"`
	AccountID      string    `json:"account_id" gorm:"primaryKey;size:255"`
	ReadAt         time.Time `json:"read_at"`
}

func (NotificationRead) TableName() string {
	return "notification_reads"
}
