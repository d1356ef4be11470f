package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

const dateQueryLayout = "2006-01-02"

// FeedbackHandler serves the public feedback and contact forms and their admin panels
type FeedbackHandler struct {
	BaseHandler
	feedbackService services.FeedbackService
	contactService  services.ContactService
}

func NewFeedbackHandler(feedbackService services.FeedbackService, contactService services.ContactService, logger utils.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		BaseHandler:     NewBaseHandler(logger),
		feedbackService: feedbackService,
		contactService:  contactService,
	}
}

// ===== FEEDBACK =====

// SubmitFeedback is open to anonymous visitors; signed-in callers are linked
// @Summary Submit feedback
// @Tags feedback
// @Accept json
// @Produce json
// @Param feedback body services.SubmitFeedbackRequest true "Feedback"
// @Success 201 {object} models.Feedback
// @Failure 400 {object} ErrorResponse
// @Router /feedback [post]
func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	var req services.SubmitFeedbackRequest
	if !h.bindJSON(c, &req) {
		return
	}

	feedback, err := h.feedbackService.Submit(c.Request.Context(), GetActorFromContext(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, feedback)
}

func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	filters, page, size := parseFeedbackFilters(c)

	items, total, err := h.feedbackService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	paginated(c, items, total, page, size)
}

// GetFeedback opens an item; new items become reviewed
func (h *FeedbackHandler) GetFeedback(c *gin.Context) {
	id, ok := h.parseUintParam(c, "id")
	if !ok {
		return
	}

	feedback, err := h.feedbackService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, feedback)
}

func (h *FeedbackHandler) UpdateFeedbackStatus(c *gin.Context) {
	id, ok := h.parseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.FeedbackStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	feedback, err := h.feedbackService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, feedback)
}

// ExportFeedback downloads the current filtered view as CSV or XLSX
// @Summary Export feedback
// @Tags admin
// @Produce octet-stream
// @Param format query string false "csv (default) or xlsx"
// @Router /admin/feedback/export [get]
func (h *FeedbackHandler) ExportFeedback(c *gin.Context) {
	format, err := services.ParseExportFormat(c.Query("format"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filters, _, _ := parseFeedbackFilters(c)
	file, err := h.feedbackService.Export(c.Request.Context(), filters, format)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	sendFile(c, file)
}

// ===== CONTACT MESSAGES =====

func (h *FeedbackHandler) SubmitContact(c *gin.Context) {
	var req services.SubmitContactRequest
	if !h.bindJSON(c, &req) {
		return
	}

	message, err := h.contactService.Submit(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

func (h *FeedbackHandler) ListContacts(c *gin.Context) {
	filters, page, size := parseContactFilters(c)

	items, total, err := h.contactService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	paginated(c, items, total, page, size)
}

func (h *FeedbackHandler) GetContact(c *gin.Context) {
	id, ok := h.parseUintParam(c, "id")
	if !ok {
		return
	}

	message, err := h.contactService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, message)
}

func (h *FeedbackHandler) UpdateContactStatus(c *gin.Context) {
	id, ok := h.parseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.ContactStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	message, err := h.contactService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, message)
}

// ReplyContact stores the reply and emails it to the sender
// @Summary Reply to contact message
// @Tags admin
// @Accept json
// @Produce json
// @Param id path uint true "Contact message ID"
// @Param reply body services.ContactReplyRequest true "Reply"
// @Success 200 {object} models.ContactMessage
// @Failure 422 {object} ErrorResponse "Message is closed"
// @Router /admin/contact-messages/{id}/reply [post]
func (h *FeedbackHandler) ReplyContact(c *gin.Context) {
	id, ok := h.parseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.ContactReplyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Replying to contact message", "contact_id", id)

	message, err := h.contactService.Reply(c.Request.Context(), GetActorFromContext(c), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, message)
}

func (h *FeedbackHandler) ExportContacts(c *gin.Context) {
	format, err := services.ParseExportFormat(c.Query("format"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filters, _, _ := parseContactFilters(c)
	file, err := h.contactService.Export(c.Request.Context(), filters, format)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	sendFile(c, file)
}

func parseFeedbackFilters(c *gin.Context) (repositories.FeedbackFilters, int, int) {
	page, size, offset := parsePagination(c)
	filters := repositories.FeedbackFilters{
		Query:     c.Query("q"),
		MinRating: parseIntQuery(c, "min_rating", 0),
		DateFrom:  parseDateQuery(c, "date_from"),
		DateTo:    parseDateQuery(c, "date_to"),
		Limit:     size,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if status := c.Query("status"); status != "" {
		feedbackStatus := models.FeedbackStatus(status)
		filters.Status = &feedbackStatus
	}
	return filters, page, size
}

func parseContactFilters(c *gin.Context) (repositories.ContactMessageFilters, int, int) {
	page, size, offset := parsePagination(c)
	filters := repositories.ContactMessageFilters{
		Query:     c.Query("q"),
		DateFrom:  parseDateQuery(c, "date_from"),
		DateTo:    parseDateQuery(c, "date_to"),
		Limit:     size,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if status := c.Query("status"); status != "" {
		contactStatus := models.ContactStatus(status)
		filters.Status = &contactStatus
	}
	return filters, page, size
}

// parseDateQuery ignores values that are not YYYY-MM-DD
func parseDateQuery(c *gin.Context, param string) *time.Time {
	raw := c.Query(param)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(dateQueryLayout, raw)
	if err != nil {
		return nil
	}
	return &t
}
