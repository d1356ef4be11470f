package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

// ComputeProgress returns round(100*completed/total) clamped to 0..100
func ComputeProgress(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// CountCompleted counts the completed ids that still exist in the course
func CountCompleted(completed, courseVideoIDs []string) int {
	if len(completed) == 0 || len(courseVideoIDs) == 0 {
		return 0
	}
	done := make(map[string]struct{}, len(completed))
	for _, id := range completed {
		done[id] = struct{}{}
	}
	n := 0
	for _, id := range courseVideoIDs {
		if _, ok := done[id]; ok {
			n++
		}
	}
	return n
}

type progressService struct {
	repo         repositories.Repository
	cache        *cache.CacheManager
	certificates *certificateService
	logger       *slog.Logger
	now          func() time.Time
}

func NewProgressService(repo repositories.Repository, cm *cache.CacheManager, certificates *certificateService, logger *slog.Logger) ProgressService {
	return &progressService{
		repo:         repo,
		cache:        cm,
		certificates: certificates,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *progressService) getCourse(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

func (s *progressService) getEnrollment(ctx context.Context, accountID, courseID string) (*models.Enrollment, error) {
	enrollment, err := s.repo.Enrollment().Get(ctx, accountID, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return enrollment, nil
}

func (s *progressService) Enroll(ctx context.Context, actor *Actor, courseID string) (*models.Enrollment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsStudent() {
		return nil, NewPermissionError(actor.ID, courseID, "course", "enroll", "only students can enroll")
	}

	s.logger.Info("Enrolling student", "account_id", actor.ID, "course_id", courseID)

	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.Status != models.CoursePublished {
		return nil, ErrCourseNotFound
	}

	existing, err := s.repo.Enrollment().Get(ctx, actor.ID, courseID)
	if err == nil {
		return existing, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}

	enrollment := &models.Enrollment{
		AccountID:       actor.ID,
		CourseID:        courseID,
		CompletedVideos: []string{},
		EnrolledAt:      s.now(),
	}
	if err := s.repo.Enrollment().Create(ctx, enrollment); err != nil {
		if repositories.IsDuplicateError(err) {
			return s.getEnrollment(ctx, actor.ID, courseID)
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	cache.InvalidateStats(ctx, s.cache)
	s.logger.Info("Student enrolled successfully", "enrollment_id", enrollment.ID)
	return enrollment, nil
}

func (s *progressService) SelectVideo(ctx context.Context, actor *Actor, courseID, videoRef string) (*models.VideoLocation, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	loc, ok := course.VideoByRef(videoRef)
	if !ok {
		return nil, ErrVideoNotFound
	}

	enrollment, err := s.getEnrollment(ctx, actor.ID, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Enrollment().TouchLastAccessed(ctx, enrollment.ID, s.now()); err != nil {
		return nil, fmt.Errorf("failed to record last access: %w", err)
	}
	return loc, nil
}

// MarkVideoComplete records a watched video and recomputes progress under the
// enrollment row lock. Reaching 100% issues the certificate in the same
// transaction.
func (s *progressService) MarkVideoComplete(ctx context.Context, actor *Actor, courseID, videoRef string) (*ProgressResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	s.logger.Info("Marking video complete", "account_id", actor.ID, "course_id", courseID, "video", videoRef)

	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	loc, ok := course.VideoByRef(videoRef)
	if !ok {
		return nil, ErrVideoNotFound
	}

	videoIDs := course.VideoIDs()
	total := len(videoIDs)
	now := s.now()

	var (
		enrollment *models.Enrollment
		cert       *models.Certificate
		issued     bool
		added      bool
	)
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		enrollment, err = tx.Enrollment().GetForUpdate(ctx, actor.ID, courseID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrNotEnrolled
			}
			return fmt.Errorf("failed to lock enrollment: %w", err)
		}

		completed, wasAdded, err := tx.Enrollment().AddCompletedVideo(ctx, enrollment.ID, loc.Video.ID)
		if err != nil {
			return fmt.Errorf("failed to record completed video: %w", err)
		}
		added = wasAdded
		enrollment.CompletedVideos = completed

		progress := ComputeProgress(CountCompleted(completed, videoIDs), total)
		if progress != enrollment.Progress {
			if err := tx.Enrollment().UpdateProgress(ctx, enrollment.ID, progress); err != nil {
				return fmt.Errorf("failed to update progress: %w", err)
			}
			enrollment.Progress = progress
		}

		if progress == 100 && !enrollment.HasCertificate() {
			cert, issued, err = s.certificates.issue(ctx, tx, enrollment, course, actorDisplayName(actor), now)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if added {
		utils.VideosCompleted.Inc()
	}
	if issued {
		s.certificates.announce(ctx, cert, actor.Email)
		cache.InvalidateStats(ctx, s.cache)
		s.logger.Info("Course completed", "account_id", actor.ID, "course_id", courseID, "certificate_id", cert.ID)
	}

	s.logger.Info("Video marked complete successfully", "enrollment_id", enrollment.ID, "progress", enrollment.Progress)
	return &ProgressResponse{
		Enrollment:     enrollment,
		State:          enrollment.State(),
		CompletedCount: CountCompleted(enrollment.CompletedVideos, videoIDs),
		TotalVideos:    total,
		Video:          loc,
		Certificate:    cert,
	}, nil
}

func (s *progressService) GetProgress(ctx context.Context, actor *Actor, courseID string) (*ProgressResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	enrollment, err := s.getEnrollment(ctx, actor.ID, courseID)
	if err != nil {
		return nil, err
	}

	resp := &ProgressResponse{
		Enrollment:     enrollment,
		State:          enrollment.State(),
		CompletedCount: CountCompleted(enrollment.CompletedVideos, course.VideoIDs()),
		TotalVideos:    course.TotalVideos(),
	}
	if enrollment.HasCertificate() {
		cert, err := s.repo.Certificate().GetByID(ctx, *enrollment.CertificateID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get certificate: %w", err)
		}
		resp.Certificate = cert
	}
	return resp, nil
}

func (s *progressService) ListMyEnrollments(ctx context.Context, actor *Actor) ([]models.EnrollmentSummary, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	enrollments, err := s.repo.Enrollment().ListByAccount(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return summarizeEnrollments(enrollments), nil
}

func summarizeEnrollments(enrollments []*models.Enrollment) []models.EnrollmentSummary {
	out := make([]models.EnrollmentSummary, 0, len(enrollments))
	for _, e := range enrollments {
		summary := models.EnrollmentSummary{
			EnrollmentID:   e.ID,
			CourseID:       e.CourseID,
			Progress:       e.Progress,
			State:          e.State(),
			CertificateID:  e.CertificateID,
			LastAccessedAt: e.LastAccessedAt,
		}
		if e.Course != nil {
			summary.CourseTitle = e.Course.Title
			summary.InstructorName = e.Course.InstructorName
			summary.Thumbnail = e.Course.Thumbnail
		}
		out = append(out, summary)
	}
	return out
}

func actorDisplayName(actor *Actor) string {
	if actor.Name != "" {
		return actor.Name
	}
	return actor.Email
}
