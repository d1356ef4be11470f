package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

type NotificationHandler struct {
	BaseHandler
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService, logger utils.Logger) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         NewBaseHandler(logger),
		notificationService: notificationService,
	}
}

// ===== USER FEED =====

// Feed lists the active notifications for the caller's audience with read flags
// @Summary Notification feed
// @Tags notifications
// @Produce json
// @Success 200 {object} PaginatedResponse
// @Router /notifications [get]
func (h *NotificationHandler) Feed(c *gin.Context) {
	page, size, offset := parsePagination(c)

	items, total, err := h.notificationService.Feed(c.Request.Context(), GetActorFromContext(c), size, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	paginated(c, items, total, page, size)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), GetActorFromContext(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Notification marked as read"})
}

// ===== ADMIN PANEL =====

// CreateNotification publishes a notification to an audience
// @Summary Create notification
// @Tags admin
// @Accept json
// @Produce json
// @Param notification body services.CreateNotificationRequest true "Notification"
// @Success 201 {object} models.Notification
// @Router /admin/notifications [post]
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var req services.CreateNotificationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating notification", "audience", req.Audience)

	notification, err := h.notificationService.Create(c.Request.Context(), GetActorFromContext(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, notification)
}

func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	filters, page, size := parseNotificationFilters(c)

	items, total, err := h.notificationService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	paginated(c, items, total, page, size)
}

func (h *NotificationHandler) SetNotificationStatus(c *gin.Context) {
	id, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	var req services.NotificationStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	notification, err := h.notificationService.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, notification)
}

func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	id, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Notification deleted successfully"})
}

func (h *NotificationHandler) ExportNotifications(c *gin.Context) {
	format, err := services.ParseExportFormat(c.Query("format"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filters, _, _ := parseNotificationFilters(c)
	file, err := h.notificationService.Export(c.Request.Context(), filters, format)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	sendFile(c, file)
}

func parseNotificationFilters(c *gin.Context) (repositories.NotificationFilters, int, int) {
	page, size, offset := parsePagination(c)
	filters := repositories.NotificationFilters{
		Query:     c.Query("q"),
		Limit:     size,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if status := c.Query("status"); status != "" {
		notificationStatus := models.NotificationStatus(status)
		filters.Status = &notificationStatus
	}
	if audience := c.Query("audience"); audience != "" {
		filters.Audiences = []models.NotificationAudience{models.NotificationAudience(audience)}
	}
	return filters, page, size
}
