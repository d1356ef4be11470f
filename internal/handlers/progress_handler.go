package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

type ProgressHandler struct {
	BaseHandler
	progressService services.ProgressService
}

func NewProgressHandler(progressService services.ProgressService, logger utils.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:     NewBaseHandler(logger),
		progressService: progressService,
	}
}

// Enroll enrolls the calling student; enrolling twice returns the existing enrollment
// @Summary Enroll in course
// @Tags progress
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} models.Enrollment
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/enroll [post]
func (h *ProgressHandler) Enroll(c *gin.Context) {
	courseID, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Enrolling", "course_id", courseID)

	enrollment, err := h.progressService.Enroll(c.Request.Context(), GetActorFromContext(c), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

func (h *ProgressHandler) SelectVideo(c *gin.Context) {
	courseID, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}
	videoRef, ok := h.parseStringParam(c, "video")
	if !ok {
		return
	}

	location, err := h.progressService.SelectVideo(c.Request.Context(), GetActorFromContext(c), courseID, videoRef)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, location)
}

// CompleteVideo marks a video watched and recomputes progress. Reaching 100%
// issues the certificate in the same call.
// @Summary Mark video complete
// @Tags progress
// @Produce json
// @Param id path string true "Course ID"
// @Param video path string true "Video ID or section_video composite"
// @Success 200 {object} services.ProgressResponse
// @Router /courses/{id}/videos/{video}/complete [post]
func (h *ProgressHandler) CompleteVideo(c *gin.Context) {
	courseID, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}
	videoRef, ok := h.parseStringParam(c, "video")
	if !ok {
		return
	}

	h.LogRequest(c, "Marking video complete", "course_id", courseID, "video", videoRef)

	progress, err := h.progressService.MarkVideoComplete(c.Request.Context(), GetActorFromContext(c), courseID, videoRef)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

func (h *ProgressHandler) GetProgress(c *gin.Context) {
	courseID, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	progress, err := h.progressService.GetProgress(c.Request.Context(), GetActorFromContext(c), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

func (h *ProgressHandler) ListMyEnrollments(c *gin.Context) {
	enrollments, err := h.progressService.ListMyEnrollments(c.Request.Context(), GetActorFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"enrollments": enrollments})
}
