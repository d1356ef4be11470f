package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

// AdminCourseHandler serves the admin courses panel
type AdminCourseHandler struct {
	BaseHandler
	adminService services.AdminService
}

func NewAdminCourseHandler(adminService services.AdminService, logger utils.Logger) *AdminCourseHandler {
	return &AdminCourseHandler{
		BaseHandler:  NewBaseHandler(logger),
		adminService: adminService,
	}
}

// ListCourses lists every course regardless of status
// @Summary List all courses
// @Tags admin
// @Produce json
// @Param status query string false "draft or published"
// @Param instructor_id query string false "Owning instructor"
// @Success 200 {object} PaginatedResponse
// @Router /admin/courses [get]
func (h *AdminCourseHandler) ListCourses(c *gin.Context) {
	filters, page, size := parseCourseFilters(c)

	courses, total, err := h.adminService.ListCourses(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	paginated(c, courses, total, page, size)
}

func (h *AdminCourseHandler) SetCourseStatus(c *gin.Context) {
	courseID, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	var req services.CourseStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Admin changing course status", "course_id", courseID, "status", req.Status)

	course, err := h.adminService.SetCourseStatus(c.Request.Context(), GetActorFromContext(c), courseID, req.Status)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

func (h *AdminCourseHandler) DeleteCourse(c *gin.Context) {
	courseID, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Admin deleting course", "course_id", courseID)

	if err := h.adminService.DeleteCourse(c.Request.Context(), GetActorFromContext(c), courseID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Course deleted successfully"})
}

func (h *AdminCourseHandler) ExportCourses(c *gin.Context) {
	format, err := services.ParseExportFormat(c.Query("format"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filters, _, _ := parseCourseFilters(c)
	file, err := h.adminService.ExportCourses(c.Request.Context(), filters, format)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	sendFile(c, file)
}
