package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleInstructor UserRole = "instructor"
	RoleAdmin      UserRole = "admin"
)

// Roles lists every role in display order
var Roles = []UserRole{RoleStudent, RoleInstructor, RoleAdmin}

func (r UserRole) IsValid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// Registrable reports whether a user may pick this role at sign-up
func (r UserRole) Registrable() bool {
	return r == RoleStudent || r == RoleInstructor
}

// ParseUserRole rejects anything outside the closed role set
func ParseUserRole(s string) (UserRole, error) {
	role := UserRole(strings.ToLower(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

// Account is the profile record kept alongside the identity provider's user.
// Role is fixed when the profile is created.
type Account struct {
	ID          string   `json:"id" gorm:"primaryKey;size:255"`
	Email       string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	DisplayName string   `json:"display_name" gorm:"not null;size:100"`
	Role        UserRole `json:"role" gorm:"not null;size:20;index"`
	Disabled    bool     `json:"disabled" gorm:"not null;default:false;index"`

	// Profile info
	Bio         string            `json:"bio" gorm:"type:text"`
	Phone       string            `json:"phone" gorm:"size:30"`
	AvatarURL   *string           `json:"avatar_url" gorm:"size:500"`
	Preferences datatypes.JSONMap `json:"preferences" gorm:"type:jsonb"`

	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}
