package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

const (
	trendDays           = 30
	instructorCourseCap = 100
	adminStatsCacheKey  = "admin"
)

type dashboardService struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	messaging MessagingService
	logger    *slog.Logger
	statsTTL  time.Duration
}

func NewDashboardService(repo repositories.Repository, cm *cache.CacheManager, messaging MessagingService, logger *slog.Logger, statsTTL time.Duration) DashboardService {
	if statsTTL <= 0 {
		statsTTL = cache.StatsCacheConfig.TTL
	}
	return &dashboardService{
		repo:      repo,
		cache:     cm,
		messaging: messaging,
		logger:    logger,
		statsTTL:  statsTTL,
	}
}

// AdminStats is served from cache for statsTTL; mutating services drop the entry
func (s *dashboardService) AdminStats(ctx context.Context) (*AdminDashboard, error) {
	var dashboard AdminDashboard
	err := s.cache.Stats.CacheOrExecute(ctx, adminStatsCacheKey, &dashboard, s.statsTTL, func() (interface{}, error) {
		s.logger.Info("Computing admin dashboard stats")

		stats, err := s.repo.Dashboard().GetAdminStats(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get admin stats: %w", err)
		}
		trend, err := s.repo.Dashboard().GetEnrollmentTrend(ctx, nil, trendDays)
		if err != nil {
			return nil, fmt.Errorf("failed to get enrollment trend: %w", err)
		}
		return &AdminDashboard{Stats: stats, Trend: trend, GeneratedAt: time.Now().UTC()}, nil
	})
	if err != nil {
		return nil, err
	}
	return &dashboard, nil
}

func (s *dashboardService) InstructorStats(ctx context.Context, actor *Actor) (*InstructorDashboard, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	stats, err := s.repo.Dashboard().GetInstructorStats(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get instructor stats: %w", err)
	}

	courses, _, err := s.repo.Course().List(ctx, repositories.CourseFilters{
		InstructorID: &actor.ID,
		Limit:        instructorCourseCap,
		SortBy:       "updated_at",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}

	if len(ids) > 0 {
		counts, err := s.repo.Enrollment().CountByCourses(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to count enrollments: %w", err)
		}
		for _, c := range courses {
			c.EnrollmentCount = counts[c.ID]
		}
	}

	trend, err := s.repo.Dashboard().GetEnrollmentTrend(ctx, ids, trendDays)
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment trend: %w", err)
	}

	return &InstructorDashboard{Stats: stats, Trend: trend, Courses: courses}, nil
}

func (s *dashboardService) StudentHome(ctx context.Context, actor *Actor) (*StudentHome, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	enrollments, err := s.repo.Enrollment().ListByAccount(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	certs, err := s.repo.Certificate().ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	if certs == nil {
		certs = []*models.Certificate{}
	}

	home := &StudentHome{
		Enrollments:  summarizeEnrollments(enrollments),
		Certificates: certs,
	}
	if s.messaging != nil {
		unread, err := s.messaging.UnreadTotal(ctx, actor)
		if err != nil {
			s.logger.Warn("Failed to count unread messages", "account_id", actor.ID, "error", err)
		}
		home.UnreadTotal = unread
	}
	return home, nil
}
