package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

// UserHandler serves the admin users panel
type UserHandler struct {
	BaseHandler
	adminService services.AdminService
}

func NewUserHandler(adminService services.AdminService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler:  NewBaseHandler(logger),
		adminService: adminService,
	}
}

type UserStatusRequest struct {
	Disabled *bool `json:"disabled" binding:"required"`
}

// ListUsers lists users with optional filtering
// @Summary List users
// @Tags admin
// @Accept json
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Param q query string false "Search query (name or email)"
// @Param role query string false "Filter by role (student, instructor, admin)"
// @Param disabled query bool false "Filter by disabled flag"
// @Success 200 {object} PaginatedResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	h.LogRequest(c, "Listing users")

	filters, page, size := h.parseUserFilters(c)

	users, total, err := h.adminService.ListUsers(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	paginated(c, users, total, page, size)
}

// GetUser returns a user with enrollments and certificate count
// @Summary Get user
// @Tags admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} services.UserDetailResponse
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /admin/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.adminService.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// SetUserStatus enables or disables an account. Disabling signs the user out
// everywhere and blocks sign-in at the identity provider.
// @Summary Enable or disable user
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param status body UserStatusRequest true "Disabled flag"
// @Success 200 {object} models.Account
// @Failure 422 {object} ErrorResponse "Self or reserved admin"
// @Router /admin/users/{id}/status [put]
func (h *UserHandler) SetUserStatus(c *gin.Context) {
	userID, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	var req UserStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Changing user status", "target_id", userID, "disabled", *req.Disabled)

	account, err := h.adminService.SetUserDisabled(c.Request.Context(), GetActorFromContext(c), userID, *req.Disabled)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

func (h *UserHandler) ExportUsers(c *gin.Context) {
	format, err := services.ParseExportFormat(c.Query("format"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filters, _, _ := h.parseUserFilters(c)
	file, err := h.adminService.ExportUsers(c.Request.Context(), filters, format)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	sendFile(c, file)
}

func (h *UserHandler) parseUserFilters(c *gin.Context) (repositories.AccountFilters, int, int) {
	page, size, offset := parsePagination(c)
	filters := repositories.AccountFilters{
		Query:     c.Query("q"),
		Disabled:  parseBoolQuery(c, "disabled"),
		Limit:     size,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if role := c.Query("role"); role != "" {
		if parsed, err := models.ParseUserRole(role); err == nil {
			filters.Role = &parsed
		}
	}

	return filters, page, size
}
