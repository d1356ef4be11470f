package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/storage"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type accountService struct {
	repo       repositories.Repository
	sessions   SessionInvalidator
	uploader   storage.Uploader
	logger     *slog.Logger
	validator  *validator.Validator
	adminEmail string
	now        func() time.Time
}

func NewAccountService(repo repositories.Repository, sessions SessionInvalidator, uploader storage.Uploader, logger *slog.Logger, validator *validator.Validator, adminEmail string) AccountService {
	return &accountService{
		repo:       repo,
		sessions:   sessions,
		uploader:   uploader,
		logger:     logger,
		validator:  validator,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateProfile registers the LMS profile for a signed-in identity. The role is
// fixed from here on.
func (s *accountService) CreateProfile(ctx context.Context, identity *models.Identity, req *CreateProfileRequest) (*models.Account, error) {
	if identity == nil || identity.ID == "" {
		return nil, ErrUnauthenticated
	}

	s.logger.Info("Creating profile", "account_id", identity.ID, "role", req.Role)

	role := req.Role
	if isReservedAdmin(s.adminEmail, identity.Email) {
		role = models.RoleAdmin
	} else if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.Account().GetByID(ctx, identity.ID); err == nil {
		return nil, ErrProfileExists
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check profile: %w", err)
	}

	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name = identity.DisplayName
	}
	if name == "" {
		name = strings.Split(identity.Email, "@")[0]
	}

	account := &models.Account{
		ID:          identity.ID,
		Email:       identity.Email,
		DisplayName: name,
		Role:        role,
		Phone:       strings.TrimSpace(req.Phone),
		Bio:         strings.TrimSpace(req.Bio),
	}
	if identity.Avatar != "" {
		avatar := identity.Avatar
		account.AvatarURL = &avatar
	}

	if err := s.repo.Account().Create(ctx, account); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrProfileExists
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.invalidate(ctx, account.ID)
	s.logger.Info("Profile created successfully", "account_id", account.ID, "role", account.Role)
	return account, nil
}

func (s *accountService) GetProfile(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.repo.Account().GetByID(ctx, accountID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return account, nil
}

func (s *accountService) UpdateProfile(ctx context.Context, accountID string, req *UpdateProfileRequest) (*models.Account, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	account, err := s.GetProfile(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		account.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Phone != nil {
		account.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Bio != nil {
		account.Bio = strings.TrimSpace(*req.Bio)
	}
	if req.Preferences != nil {
		account.Preferences = req.Preferences
	}

	if err := s.repo.Account().Update(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.invalidate(ctx, accountID)
	s.logger.Info("Profile updated successfully", "account_id", accountID)
	return account, nil
}

// UploadAvatar normalises the image to a square WebP and stores it
func (s *accountService) UploadAvatar(ctx context.Context, accountID string, data []byte) (*models.Account, error) {
	account, err := s.GetProfile(ctx, accountID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Uploading avatar", "account_id", accountID, "bytes", len(data))

	processed, err := storage.ProcessAvatar(data)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrImageTooLarge):
			return nil, ValidationErrors{*NewValidationError("avatar", "must be at most 5 MB", len(data))}
		case errors.Is(err, storage.ErrUnsupportedType):
			return nil, ValidationErrors{*NewValidationError("avatar", "must be a JPEG, PNG or WebP image", nil)}
		}
		return nil, fmt.Errorf("failed to process avatar: %w", err)
	}

	key := fmt.Sprintf("avatars/%s-%d.webp", accountID, s.now().Unix())
	url, err := s.uploader.Upload(ctx, key, storage.AvatarMediaType, processed)
	if err != nil {
		if errors.Is(err, storage.ErrStorageDisabled) {
			return nil, NewBusinessRuleError("storage_disabled", "avatar uploads are not available", nil)
		}
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	account.AvatarURL = &url
	if err := s.repo.Account().Update(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save avatar: %w", err)
	}

	s.invalidate(ctx, accountID)
	s.logger.Info("Avatar uploaded successfully", "account_id", accountID, "url", url)
	return account, nil
}

func (s *accountService) invalidate(ctx context.Context, accountID string) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.Invalidate(ctx, accountID); err != nil {
		s.logger.Warn("Failed to invalidate session", "account_id", accountID, "error", err)
	}
}

func isReservedAdmin(adminEmail, email string) bool {
	return adminEmail != "" && strings.EqualFold(strings.TrimSpace(email), adminEmail)
}
