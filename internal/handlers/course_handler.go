package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

type CourseHandler struct {
	BaseHandler
	courseService services.CourseService
}

func NewCourseHandler(courseService services.CourseService, logger utils.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   NewBaseHandler(logger),
		courseService: courseService,
	}
}

// ===== CATALOGUE =====

// ListCourses lists published courses
// @Summary List published courses
// @Tags courses
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Param q query string false "Search in title and description"
// @Param category query string false "Category"
// @Success 200 {object} PaginatedResponse
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	filters, page, size := parseCourseFilters(c)

	courses, total, err := h.courseService.ListPublished(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	paginated(c, courses, total, page, size)
}

func (h *CourseHandler) Categories(c *gin.Context) {
	categories, err := h.courseService.Categories(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCourse returns the course detail. Drafts are visible to their owner and admins only.
// @Summary Get course
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} services.CourseDetailResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [get]
func (h *CourseHandler) GetCourse(c *gin.Context) {
	courseID, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.courseService.GetDetail(c.Request.Context(), GetActorFromContext(c), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// GetPlayer returns the player view; ?video= selects a video by stable or composite id
func (h *CourseHandler) GetPlayer(c *gin.Context) {
	courseID, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	player, err := h.courseService.GetPlayer(c.Request.Context(), GetActorFromContext(c), courseID, c.Query("video"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, player)
}

// ===== INSTRUCTOR PANEL =====

// CreateCourse creates a draft course owned by the caller
// @Summary Create course
// @Tags instructor
// @Accept json
// @Produce json
// @Param course body services.CourseRequest true "Course data"
// @Success 201 {object} models.Course
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /instructor/courses [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req services.CourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	actor := GetActorFromContext(c)
	h.LogRequest(c, "Creating course", "title", req.Title)

	course, err := h.courseService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, course)
}

func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	courseID, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	var req services.CourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating course", "course_id", courseID)

	course, err := h.courseService.Update(c.Request.Context(), GetActorFromContext(c), courseID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	courseID, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting course", "course_id", courseID)

	if err := h.courseService.Delete(c.Request.Context(), GetActorFromContext(c), courseID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Course deleted successfully"})
}

// SetCourseStatus publishes or unpublishes a course
// @Summary Set course status
// @Tags instructor
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param status body services.CourseStatusRequest true "draft or published"
// @Success 200 {object} models.Course
// @Router /instructor/courses/{id}/status [put]
func (h *CourseHandler) SetCourseStatus(c *gin.Context) {
	courseID, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	var req services.CourseStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	course, err := h.courseService.SetStatus(c.Request.Context(), GetActorFromContext(c), courseID, req.Status)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) ListMyCourses(c *gin.Context) {
	filters, page, size := parseCourseFilters(c)

	courses, total, err := h.courseService.ListMine(c.Request.Context(), GetActorFromContext(c), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	paginated(c, courses, total, page, size)
}

// ListCourseStudents lists enrolled students with their progress
// @Summary List course students
// @Tags instructor
// @Produce json
// @Param id path string true "Course ID"
// @Param completed query bool false "Only completed (true) or in-progress (false)"
// @Success 200 {object} PaginatedResponse
// @Router /instructor/courses/{id}/students [get]
func (h *CourseHandler) ListCourseStudents(c *gin.Context) {
	courseID, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	page, size, offset := parsePagination(c)
	filters := repositories.EnrollmentFilters{
		Completed: parseBoolQuery(c, "completed"),
		Limit:     size,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	rows, total, err := h.courseService.ListStudents(c.Request.Context(), GetActorFromContext(c), courseID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	paginated(c, rows, total, page, size)
}

func parseCourseFilters(c *gin.Context) (repositories.CourseFilters, int, int) {
	page, size, offset := parsePagination(c)
	filters := repositories.CourseFilters{
		Query:     c.Query("q"),
		Category:  c.Query("category"),
		Limit:     size,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if status := c.Query("status"); status != "" {
		courseStatus := models.CourseStatus(status)
		filters.Status = &courseStatus
	}
	if instructorID := c.Query("instructor_id"); instructorID != "" {
		filters.InstructorID = &instructorID
	}

	return filters, page, size
}
