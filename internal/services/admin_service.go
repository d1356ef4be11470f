package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type adminService struct {
	repo       repositories.Repository
	cache      *cache.CacheManager
	courses    *courseService
	sessions   SessionInvalidator
	publisher  events.EventPublisher
	logger     *slog.Logger
	adminEmail string
	now        func() time.Time
}

func NewAdminService(repo repositories.Repository, cm *cache.CacheManager, courses *courseService, sessions SessionInvalidator, publisher events.EventPublisher, logger *slog.Logger, adminEmail string) AdminService {
	return &adminService{
		repo:       repo,
		cache:      cm,
		courses:    courses,
		sessions:   sessions,
		publisher:  publisher,
		logger:     logger,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ===== USERS =====

func (s *adminService) ListUsers(ctx context.Context, filters repositories.AccountFilters) ([]*models.Account, int64, error) {
	accounts, total, err := s.repo.Account().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return accounts, total, nil
}

func (s *adminService) GetUser(ctx context.Context, accountID string) (*UserDetailResponse, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	resp := &UserDetailResponse{Account: account, Enrollments: []models.EnrollmentSummary{}}

	switch account.Role {
	case models.RoleStudent:
		enrollments, err := s.repo.Enrollment().ListByAccount(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("failed to list enrollments: %w", err)
		}
		resp.Enrollments = summarizeEnrollments(enrollments)

		certs, err := s.repo.Certificate().ListByUser(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("failed to list certificates: %w", err)
		}
		resp.Certificates = len(certs)
	case models.RoleInstructor:
		_, total, err := s.repo.Course().List(ctx, repositories.CourseFilters{InstructorID: &accountID, Limit: 1})
		if err != nil {
			return nil, fmt.Errorf("failed to count courses: %w", err)
		}
		resp.Courses = total
	}
	return resp, nil
}

// SetUserDisabled enables or disables an account. The provider-side sign-in
// block is kept in step and any cached session is dropped.
func (s *adminService) SetUserDisabled(ctx context.Context, actor *Actor, accountID string, disabled bool) (*models.Account, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if disabled && accountID == actor.ID {
		return nil, NewBusinessRuleError("cannot_disable_self", "administrators cannot disable their own account", nil)
	}

	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if disabled && isReservedAdmin(s.adminEmail, account.Email) {
		return nil, NewBusinessRuleError("cannot_disable_reserved_admin", "the reserved administrator account cannot be disabled", nil)
	}
	if account.Disabled == disabled {
		return account, nil
	}

	s.logger.Info("Changing account status", "account_id", accountID, "disabled", disabled, "admin_id", actor.ID)

	if err := s.repo.Account().SetDisabled(ctx, accountID, disabled); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to update account status: %w", err)
	}
	account.Disabled = disabled

	if err := s.repo.Identity().SetForbidden(ctx, accountID, disabled); err != nil {
		s.logger.Error("Failed to sync sign-in block with identity provider", "account_id", accountID, "error", err)
	}
	if s.sessions != nil {
		if err := s.sessions.Invalidate(ctx, accountID); err != nil {
			s.logger.Warn("Failed to invalidate session", "account_id", accountID, "error", err)
		}
	}

	publish(ctx, s.publisher, s.logger, events.TopicAccountStatusChanged, events.AccountStatusChangedData{
		AccountID: accountID,
		Disabled:  disabled,
		ChangedBy: actor.ID,
	})
	cache.InvalidateStats(ctx, s.cache)

	s.logger.Info("Account status changed successfully", "account_id", accountID, "disabled", disabled)
	return account, nil
}

func (s *adminService) ExportUsers(ctx context.Context, filters repositories.AccountFilters, format ExportFormat) (*ExportFile, error) {
	filters.Limit, filters.Offset = repositories.MaxExportRows, 0
	accounts, _, err := s.repo.Account().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	table := &exportTable{
		Sheet:  "Users",
		Header: []string{"ID", "Email", "Display Name", "Role", "Disabled", "Created At", "Last Login At"},
	}
	for _, a := range accounts {
		table.Rows = append(table.Rows, []string{
			a.ID,
			a.Email,
			a.DisplayName,
			string(a.Role),
			strconv.FormatBool(a.Disabled),
			formatTime(a.CreatedAt),
			formatTimePtr(a.LastLoginAt),
		})
	}
	return table.render(format, s.now())
}

// ===== COURSES =====

func (s *adminService) ListCourses(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	courses, total, err := s.repo.Course().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}
	if err := s.courses.attachEnrollmentCounts(ctx, courses); err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func (s *adminService) SetCourseStatus(ctx context.Context, actor *Actor, courseID string, status models.CourseStatus) (*models.Course, error) {
	return s.courses.SetStatus(ctx, actor, courseID, status)
}

func (s *adminService) DeleteCourse(ctx context.Context, actor *Actor, courseID string) error {
	return s.courses.Delete(ctx, actor, courseID)
}

func (s *adminService) ExportCourses(ctx context.Context, filters repositories.CourseFilters, format ExportFormat) (*ExportFile, error) {
	filters.Limit, filters.Offset = repositories.MaxExportRows, 0
	courses, _, err := s.ListCourses(ctx, filters)
	if err != nil {
		return nil, err
	}

	table := &exportTable{
		Sheet:  "Courses",
		Header: []string{"ID", "Title", "Category", "Price", "Status", "Instructor", "Videos", "Enrollments", "Created At"},
	}
	for _, c := range courses {
		table.Rows = append(table.Rows, []string{
			c.ID,
			c.Title,
			c.Category,
			strconv.FormatFloat(c.Price, 'f', 2, 64),
			string(c.Status),
			c.InstructorName,
			strconv.Itoa(c.TotalVideos()),
			strconv.FormatInt(c.EnrollmentCount, 10),
			formatTime(c.CreatedAt),
		})
	}
	return table.render(format, s.now())
}

func (s *adminService) getAccount(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.repo.Account().GetByID(ctx, accountID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}
