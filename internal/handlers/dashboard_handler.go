package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

type DashboardHandler struct {
	BaseHandler
	service services.DashboardService
}

func NewDashboardHandler(service services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== DASHBOARD ENDPOINTS =====

// GetAdminDashboard returns platform-wide counts and the enrollment trend
// @Summary Get admin dashboard
// @Description Users by role, courses by status, enrollments, certificates, open feedback and new contact messages. Cached for 5 minutes.
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.AdminDashboard
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /admin/dashboard [get]
func (h *DashboardHandler) GetAdminDashboard(c *gin.Context) {
	h.LogRequest(c, "Getting admin dashboard")

	stats, err := h.service.AdminStats(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetInstructorDashboard returns the caller's courses, enrollments, completions and average progress
// @Summary Get instructor dashboard
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.InstructorDashboard
// @Router /instructor/dashboard [get]
func (h *DashboardHandler) GetInstructorDashboard(c *gin.Context) {
	h.LogRequest(c, "Getting instructor dashboard")

	stats, err := h.service.InstructorStats(c.Request.Context(), GetActorFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetStudentHome returns enrollments with progress, certificates and the unread badge
// @Summary Get student home
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.StudentHome
// @Router /students/me/home [get]
func (h *DashboardHandler) GetStudentHome(c *gin.Context) {
	home, err := h.service.StudentHome(c.Request.Context(), GetActorFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, home)
}
