package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/lms-service/internal/validator"
)

// ===== SENTINEL ERRORS =====

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrAccountDisabled = errors.New("Your account has been disabled. Please contact the administrator.")

	ErrAccountNotFound        = errors.New("account not found")
	ErrProfileExists          = errors.New("profile already exists")
	ErrCourseNotFound         = errors.New("course not found")
	ErrVideoNotFound          = errors.New("video not found")
	ErrNotEnrolled            = errors.New("not enrolled in this course")
	ErrCertificateNotFound    = errors.New("certificate not found")
	ErrConversationNotFound   = errors.New("conversation not found")
	ErrFeedbackNotFound       = errors.New("feedback not found")
	ErrContactMessageNotFound = errors.New("contact message not found")
	ErrNotificationNotFound   = errors.New("notification not found")
)

// ===== TYPED ERRORS =====

type ValidationError = validator.ValidationError
type ValidationErrors = validator.ValidationErrors

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
		Rule:    "business_logic",
	}
}

// BusinessRuleError is returned when a request is well formed but not allowed by a domain rule
type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message, Context: context}
}

// PermissionError is returned when the caller may not act on a resource
type PermissionError struct {
	UserID       string      `json:"user_id"`
	ResourceID   interface{} `json:"resource_id"`
	ResourceType string      `json:"resource_type"`
	Action       string      `json:"action"`
	Reason       string      `json:"reason"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %v: %s", e.UserID, e.Action, e.ResourceType, e.ResourceID, e.Reason)
}

func NewPermissionError(userID string, resourceID interface{}, resourceType, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:       userID,
		ResourceID:   resourceID,
		ResourceType: resourceType,
		Action:       action,
		Reason:       reason,
	}
}

// IsValidationError reports whether err carries field errors
func IsValidationError(err error) bool {
	var verrs ValidationErrors
	return errors.As(err, &verrs)
}
