package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

// Raw HTML in descriptions is dropped by goldmark's default renderer
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderMarkdown converts a course description to HTML
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type courseService struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCourseService(repo repositories.Repository, cm *cache.CacheManager, logger *slog.Logger, validator *validator.Validator) CourseService {
	return newCourseService(repo, cm, logger, validator)
}

func newCourseService(repo repositories.Repository, cm *cache.CacheManager, logger *slog.Logger, validator *validator.Validator) *courseService {
	return &courseService{
		repo:      repo,
		cache:     cm,
		logger:    logger,
		validator: validator,
	}
}

// ===== CATALOGUE =====

func (s *courseService) ListPublished(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	published := models.CoursePublished
	filters.Status = &published
	filters.InstructorID = nil

	courses, total, err := s.repo.Course().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, total, nil
}

func (s *courseService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Course().Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *courseService) GetDetail(ctx context.Context, actor *Actor, courseID string) (*CourseDetailResponse, error) {
	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	canEdit := canManageCourse(actor, course)
	if course.Status != models.CoursePublished && !canEdit {
		return nil, ErrCourseNotFound
	}

	html, err := RenderMarkdown(course.Description)
	if err != nil {
		s.logger.Warn("Failed to render course description", "course_id", courseID, "error", err)
	}
	course.DescriptionHTML = html

	counts, err := s.repo.Enrollment().CountByCourses(ctx, []string{courseID})
	if err != nil {
		return nil, fmt.Errorf("failed to count enrollments: %w", err)
	}
	course.EnrollmentCount = counts[courseID]

	resp := &CourseDetailResponse{Course: course, CanEdit: canEdit}
	if actor != nil && actor.ID != "" {
		enrollment, err := s.repo.Enrollment().Get(ctx, actor.ID, courseID)
		switch {
		case err == nil:
			resp.Enrollment = enrollment
			resp.Enrolled = true
		case !repositories.IsNotFoundError(err):
			return nil, fmt.Errorf("failed to get enrollment: %w", err)
		}
	}
	return resp, nil
}

// GetPlayer returns the course with the video to play. With no ref the first
// unwatched video is chosen.
func (s *courseService) GetPlayer(ctx context.Context, actor *Actor, courseID, videoRef string) (*PlayerResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	resp := &PlayerResponse{Course: course, State: models.StateNotStarted}
	enrollment, err := s.repo.Enrollment().Get(ctx, actor.ID, courseID)
	switch {
	case err == nil:
		resp.Enrollment = enrollment
		resp.State = enrollment.State()
	case repositories.IsNotFoundError(err):
		if !canManageCourse(actor, course) {
			return nil, ErrNotEnrolled
		}
	default:
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	if videoRef != "" {
		loc, ok := course.VideoByRef(videoRef)
		if !ok {
			return nil, ErrVideoNotFound
		}
		resp.CurrentVideo = loc
		return resp, nil
	}

	resp.CurrentVideo = firstUnwatched(course, enrollment)
	return resp, nil
}

func firstUnwatched(course *models.Course, enrollment *models.Enrollment) *models.VideoLocation {
	var first *models.VideoLocation
	for i, section := range course.Sections {
		for j, video := range section.Videos {
			loc := &models.VideoLocation{SectionIndex: i, VideoIndex: j, SectionID: section.ID, Video: video}
			if first == nil {
				first = loc
			}
			if enrollment == nil || !enrollment.HasCompleted(video.ID) {
				return loc
			}
		}
	}
	return first
}

// ===== INSTRUCTOR PANEL =====

func (s *courseService) Create(ctx context.Context, actor *Actor, req *CourseRequest) (*models.Course, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsInstructor() && !actor.IsAdmin() {
		return nil, NewPermissionError(actor.ID, nil, "course", "create", "only instructors can create courses")
	}

	s.logger.Info("Creating course", "instructor_id", actor.ID, "title", req.Title)

	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	course := &models.Course{
		Status:         models.CourseDraft,
		InstructorID:   actor.ID,
		InstructorName: actorDisplayName(actor),
	}
	applyCourseRequest(course, req)

	if err := s.repo.Course().Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	cache.InvalidateStats(ctx, s.cache)
	s.logger.Info("Course created successfully", "course_id", course.ID)
	return course, nil
}

func (s *courseService) Update(ctx context.Context, actor *Actor, courseID string, req *CourseRequest) (*models.Course, error) {
	course, err := s.getOwnedCourse(ctx, actor, courseID, "update")
	if err != nil {
		return nil, err
	}

	s.logger.Info("Updating course", "course_id", courseID, "actor_id", actor.ID)

	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	applyCourseRequest(course, req)

	if course.Status == models.CoursePublished {
		if errs := s.validator.ValidateCoursePublish(course); len(errs) > 0 {
			return nil, errs
		}
	}

	if err := s.repo.Course().Update(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	s.logger.Info("Course updated successfully", "course_id", courseID)
	return course, nil
}

func (s *courseService) Delete(ctx context.Context, actor *Actor, courseID string) error {
	if _, err := s.getOwnedCourse(ctx, actor, courseID, "delete"); err != nil {
		return err
	}

	s.logger.Info("Deleting course", "course_id", courseID, "actor_id", actor.ID)

	if err := s.repo.Course().Delete(ctx, courseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.logger.Info("Course deleted successfully", "course_id", courseID)
	return nil
}

func (s *courseService) SetStatus(ctx context.Context, actor *Actor, courseID string, status models.CourseStatus) (*models.Course, error) {
	if !status.IsValid() {
		return nil, ValidationErrors{*NewValidationError("status", "must be one of: draft published", status)}
	}

	course, err := s.getOwnedCourse(ctx, actor, courseID, "change status of")
	if err != nil {
		return nil, err
	}
	if course.Status == status {
		return course, nil
	}

	s.logger.Info("Changing course status", "course_id", courseID, "from", course.Status, "to", status)

	if status == models.CoursePublished {
		if errs := s.validator.ValidateCoursePublish(course); len(errs) > 0 {
			return nil, errs
		}
	}

	if err := s.repo.Course().UpdateStatus(ctx, courseID, status); err != nil {
		return nil, fmt.Errorf("failed to update course status: %w", err)
	}
	course.Status = status

	s.logger.Info("Course status changed successfully", "course_id", courseID, "status", status)
	return course, nil
}

func (s *courseService) ListMine(ctx context.Context, actor *Actor, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	if err := requireActor(actor); err != nil {
		return nil, 0, err
	}
	filters.InstructorID = &actor.ID

	courses, total, err := s.repo.Course().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}
	if err := s.attachEnrollmentCounts(ctx, courses); err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func (s *courseService) ListStudents(ctx context.Context, actor *Actor, courseID string, filters repositories.EnrollmentFilters) ([]models.StudentProgressRow, int64, error) {
	if _, err := s.getOwnedCourse(ctx, actor, courseID, "view students of"); err != nil {
		return nil, 0, err
	}

	enrollments, total, err := s.repo.Enrollment().ListByCourse(ctx, courseID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list enrollments: %w", err)
	}

	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.AccountID)
	}
	accounts, err := s.repo.Account().GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load students: %w", err)
	}
	byID := make(map[string]*models.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	rows := make([]models.StudentProgressRow, 0, len(enrollments))
	for _, e := range enrollments {
		row := models.StudentProgressRow{
			AccountID:      e.AccountID,
			Progress:       e.Progress,
			Completed:      e.Completed,
			CertificateID:  e.CertificateID,
			EnrolledAt:     e.EnrolledAt,
			LastAccessedAt: e.LastAccessedAt,
		}
		if a, ok := byID[e.AccountID]; ok {
			row.DisplayName = a.DisplayName
			row.Email = a.Email
		}
		rows = append(rows, row)
	}
	return rows, total, nil
}

// ===== HELPERS =====

func (s *courseService) getCourse(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

// getOwnedCourse loads a course the actor may mutate; admins override ownership
func (s *courseService) getOwnedCourse(ctx context.Context, actor *Actor, courseID, action string) (*models.Course, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !canManageCourse(actor, course) {
		return nil, NewPermissionError(actor.ID, courseID, "course", action, "not the course instructor")
	}
	return course, nil
}

func (s *courseService) validateRequest(req *CourseRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}
	if errs := s.validator.ValidateCourseOutline(req.Sections); len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *courseService) attachEnrollmentCounts(ctx context.Context, courses []*models.Course) error {
	if len(courses) == 0 {
		return nil
	}
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	counts, err := s.repo.Enrollment().CountByCourses(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to count enrollments: %w", err)
	}
	for _, c := range courses {
		c.EnrollmentCount = counts[c.ID]
	}
	return nil
}

func canManageCourse(actor *Actor, course *models.Course) bool {
	if actor == nil || actor.ID == "" {
		return false
	}
	return actor.IsAdmin() || (actor.IsInstructor() && course.InstructorID == actor.ID)
}

func applyCourseRequest(course *models.Course, req *CourseRequest) {
	course.Title = strings.TrimSpace(req.Title)
	course.Description = req.Description
	course.Category = strings.TrimSpace(req.Category)
	course.Price = req.Price
	course.Thumbnail = req.Thumbnail
	if req.Sections != nil {
		course.Sections = req.Sections
	}
	course.AssignIDs()
}
