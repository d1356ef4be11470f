package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type AccountPostgreSQL struct {
	db *gorm.DB
}

func NewAccountPostgreSQL(db *gorm.DB) repositories.AccountRepository {
	return &AccountPostgreSQL{db: db}
}

func (r *AccountPostgreSQL) Create(ctx context.Context, account *models.Account) error {
	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if repositories.IsDuplicateError(err) {
			return fmt.Errorf("account %s: %w", account.ID, repositories.ErrDuplicate)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *AccountPostgreSQL) GetByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (r *AccountPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return &account, nil
}

func (r *AccountPostgreSQL) GetByIDs(ctx context.Context, ids []string) ([]*models.Account, error) {
	if len(ids) == 0 {
		return []*models.Account{}, nil
	}

	var accounts []*models.Account
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}
	return accounts, nil
}

// Update saves profile fields only; role and disabled have their own paths
func (r *AccountPostgreSQL) Update(ctx context.Context, account *models.Account) error {
	result := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", account.ID).
		Updates(map[string]interface{}{
			"display_name": account.DisplayName,
			"bio":          account.Bio,
			"phone":        account.Phone,
			"avatar_url":   account.AvatarURL,
			"preferences":  account.Preferences,
			"updated_at":   time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *AccountPostgreSQL) SetDisabled(ctx context.Context, id string, disabled bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"disabled": disabled, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return fmt.Errorf("failed to update account status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *AccountPostgreSQL) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error; err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func (r *AccountPostgreSQL) List(ctx context.Context, filters repositories.AccountFilters) ([]*models.Account, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Account{})

	if filters.Query != "" {
		pattern := likePattern(filters.Query)
		query = query.Where("email ILIKE ? OR display_name ILIKE ?", pattern, pattern)
	}
	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}
	if filters.Disabled != nil {
		query = query.Where("disabled = ?", *filters.Disabled)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count accounts: %w", err)
	}

	var accounts []*models.Account
	query = ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset, accountSortColumns, "created_at")
	if err := query.Find(&accounts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list accounts: %w", err)
	}

	return accounts, total, nil
}

func (r *AccountPostgreSQL) CountByRole(ctx context.Context) (map[models.UserRole]int64, error) {
	var rows []struct {
		Role  models.UserRole
		Count int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count accounts by role: %w", err)
	}

	counts := make(map[models.UserRole]int64, len(models.Roles))
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}
