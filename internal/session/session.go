// Package session resolves a signed-in identity into an LMS session.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/guards"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type Status string

const (
	StatusAnonymous Status = "anonymous"
	StatusLoading   Status = "loading"
	StatusActive    Status = "active"
	StatusDisabled  Status = "disabled"
	StatusFailed    Status = "failed"
)

// DisabledMessage is shown on the sign-in screen after a forced sign-out
const DisabledMessage = "Your account has been disabled. Please contact the administrator."

// Error codes carried by failed sessions
const (
	ErrorProfileNotFound    = "profile_not_found"
	ErrorProfileUnavailable = "profile_unavailable"
	ErrorUnknownRole        = "unknown_role"
)

type Session struct {
	Status   Status           `json:"status"`
	Identity *models.Identity `json:"identity,omitempty"`
	Account  *models.Account  `json:"account,omitempty"`
	Role     models.UserRole  `json:"role,omitempty"`
	Error    string           `json:"error,omitempty"`
}

func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Status == StatusActive
}

func (s *Session) IsStudent() bool    { return s.IsAuthenticated() && s.Role == models.RoleStudent }
func (s *Session) IsInstructor() bool { return s.IsAuthenticated() && s.Role == models.RoleInstructor }
func (s *Session) IsAdmin() bool      { return s.IsAuthenticated() && s.Role == models.RoleAdmin }

func (s *Session) IsDisabled() bool {
	return s != nil && s.Status == StatusDisabled
}

// AccountID is empty unless the identity is known
func (s *Session) AccountID() string {
	if s == nil || s.Identity == nil {
		return ""
	}
	return s.Identity.ID
}

// GuardState projects the session onto the inputs of a route guard.
// Failed sessions are unauthenticated, so every role-gated route is denied.
func (s *Session) GuardState() guards.State {
	if s == nil {
		return guards.State{}
	}
	state := guards.State{
		Loading:       s.Status == StatusLoading,
		Authenticated: s.Status == StatusActive,
		Disabled:      s.Status == StatusDisabled,
	}
	if state.Authenticated {
		state.Role = s.Role
	}
	return state
}

// Store owns session resolution. Resolved sessions are cached per account.
type Store struct {
	accounts   repositories.AccountRepository
	cache      *cache.CacheHelper
	adminEmail string
	ttl        time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func NewStore(accounts repositories.AccountRepository, sessionCache *cache.CacheHelper, adminEmail string, logger *slog.Logger) *Store {
	return &Store{
		accounts:   accounts,
		cache:      sessionCache,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
		ttl:        cache.SessionCacheConfig.TTL,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithTTL sets how long a resolved session stays cached. Non-positive values are ignored.
func (s *Store) WithTTL(ttl time.Duration) *Store {
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

// IsReservedAdmin reports whether email is the configured administrator address
func (s *Store) IsReservedAdmin(email string) bool {
	return s.adminEmail != "" && strings.EqualFold(strings.TrimSpace(email), s.adminEmail)
}

// Resolve turns an identity into a session. A disabled profile forces a sign-out
// as a side effect of the read.
func (s *Store) Resolve(ctx context.Context, identity *models.Identity) *Session {
	if identity == nil || identity.ID == "" {
		return &Session{Status: StatusAnonymous}
	}

	if identity.Forbidden {
		return s.forceSignOut(ctx, identity, nil)
	}

	var cached Session
	if err := s.cache.Get(ctx, identity.ID, &cached); err == nil && cached.Status == StatusActive {
		return &cached
	}

	if s.IsReservedAdmin(identity.Email) {
		return s.resolveAdmin(ctx, identity)
	}

	account, err := s.accounts.GetByID(ctx, identity.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return &Session{Status: StatusFailed, Identity: identity, Error: ErrorProfileNotFound}
		}
		s.logger.Error("Failed to load profile", "account_id", identity.ID, "error", err)
		return &Session{Status: StatusFailed, Identity: identity, Error: ErrorProfileUnavailable}
	}

	if account.Disabled {
		return s.forceSignOut(ctx, identity, account)
	}

	if !account.Role.IsValid() {
		s.logger.Error("Profile has unknown role", "account_id", account.ID, "role", account.Role)
		return &Session{Status: StatusFailed, Identity: identity, Error: ErrorUnknownRole}
	}

	return s.activate(ctx, identity, account)
}

// resolveAdmin bootstraps the reserved administrator's profile if absent
func (s *Store) resolveAdmin(ctx context.Context, identity *models.Identity) *Session {
	account, err := s.accounts.GetByID(ctx, identity.ID)
	if err != nil && !repositories.IsNotFoundError(err) {
		s.logger.Error("Failed to load admin profile", "account_id", identity.ID, "error", err)
		return &Session{Status: StatusFailed, Identity: identity, Error: ErrorProfileUnavailable}
	}

	if account == nil {
		account = &models.Account{
			ID:          identity.ID,
			Email:       identity.Email,
			DisplayName: displayName(identity),
			Role:        models.RoleAdmin,
		}
		if err := s.accounts.Create(ctx, account); err != nil && !repositories.IsDuplicateError(err) {
			s.logger.Error("Failed to bootstrap admin profile", "account_id", identity.ID, "error", err)
			return &Session{Status: StatusFailed, Identity: identity, Error: ErrorProfileUnavailable}
		}
		s.logger.Info("Admin profile bootstrapped", "account_id", identity.ID)
	}

	// The reserved address is admin regardless of what the stored profile says
	account.Role = models.RoleAdmin
	return s.activate(ctx, identity, account)
}

func (s *Store) activate(ctx context.Context, identity *models.Identity, account *models.Account) *Session {
	if err := s.accounts.TouchLastLogin(ctx, account.ID, s.now()); err != nil {
		s.logger.Warn("Failed to record last login", "account_id", account.ID, "error", err)
	}

	sess := &Session{
		Status:   StatusActive,
		Identity: identity,
		Account:  account,
		Role:     account.Role,
	}
	if err := s.cache.Set(ctx, identity.ID, sess, s.ttl); err != nil {
		s.logger.Warn("Failed to cache session", "account_id", identity.ID, "error", err)
	}
	return sess
}

func (s *Store) forceSignOut(ctx context.Context, identity *models.Identity, account *models.Account) *Session {
	cache.SafeDelete(ctx, s.cache, identity.ID)
	s.logger.Warn("account.forced_sign_out", "account_id", identity.ID, "email", identity.Email)
	return &Session{
		Status:   StatusDisabled,
		Identity: identity,
		Account:  account,
		Error:    DisabledMessage,
	}
}

// Logout drops the cached session
func (s *Store) Logout(ctx context.Context, accountID string) error {
	return s.Invalidate(ctx, accountID)
}

// Invalidate forces the next request to resolve the session again
func (s *Store) Invalidate(ctx context.Context, accountID string) error {
	if accountID == "" {
		return nil
	}
	if err := s.cache.Delete(ctx, accountID); err != nil && !errors.Is(err, cache.ErrCacheNotAvailable) {
		return err
	}
	return nil
}

func displayName(identity *models.Identity) string {
	if identity.DisplayName != "" {
		return identity.DisplayName
	}
	if at := strings.Index(identity.Email, "@"); at > 0 {
		return identity.Email[:at]
	}
	return identity.Email
}
