package repositories

import (
	"time"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

// MaxExportRows caps unpaginated exports
const MaxExportRows = 10000

type AccountFilters struct {
	Query     string           `json:"query"` // matches email or display name
	Role      *models.UserRole `json:"role"`
	Disabled  *bool            `json:"disabled"`
	Limit     int              `json:"limit"`
	Offset    int              `json:"offset"`
	SortBy    string           `json:"sort_by"`    // "created_at", "email", "display_name"
	SortOrder string           `json:"sort_order"` // "asc", "desc"
}

type CourseFilters struct {
	Query        string               `json:"query"`
	Category     string               `json:"category"`
	Status       *models.CourseStatus `json:"status"`
	InstructorID *string              `json:"instructor_id"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
	SortBy       string               `json:"sort_by"` // "created_at", "title", "price"
	SortOrder    string               `json:"sort_order"`
}

type EnrollmentFilters struct {
	Completed *bool  `json:"completed"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	SortBy    string `json:"sort_by"` // "enrolled_at", "progress", "last_accessed_at"
	SortOrder string `json:"sort_order"`
}

type FeedbackFilters struct {
	Query     string                 `json:"query"`
	Status    *models.FeedbackStatus `json:"status"`
	MinRating int                    `json:"min_rating"`
	DateFrom  *time.Time             `json:"date_from"`
	DateTo    *time.Time             `json:"date_to"`
	Limit     int                    `json:"limit"`
	Offset    int                    `json:"offset"`
	SortBy    string                 `json:"sort_by"`
	SortOrder string                 `json:"sort_order"`
}

type ContactMessageFilters struct {
	Query     string                `json:"query"`
	Status    *models.ContactStatus `json:"status"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type NotificationFilters struct {
	Query     string                        `json:"query"`
	Status    *models.NotificationStatus    `json:"status"`
	Audiences []models.NotificationAudience `json:"audiences"`
	Limit     int                           `json:"limit"`
	Offset    int                           `json:"offset"`
	SortBy    string                        `json:"sort_by"`
	SortOrder string                        `json:"sort_order"`
}
