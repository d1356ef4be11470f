package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

// AccountRepository stores LMS profile records
type AccountRepository interface {
	// Core CRUD operations
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Account, error)
	Update(ctx context.Context, account *models.Account) error

	// Status management
	SetDisabled(ctx context.Context, id string, disabled bool) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error

	// List and search operations
	List(ctx context.Context, filters AccountFilters) ([]*models.Account, int64, error)
	CountByRole(ctx context.Context) (map[models.UserRole]int64, error)
}

// IdentityRepository talks to the external identity provider
type IdentityRepository interface {
	// ParseToken validates an access token and returns the identity it names
	ParseToken(token string) (*models.Identity, error)
	GetByID(ctx context.Context, id string) (*models.Identity, error)
	// SetForbidden blocks or unblocks sign-in at the provider
	SetForbidden(ctx context.Context, id string, forbidden bool) error
}
