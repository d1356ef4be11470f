package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

type CertificateHandler struct {
	BaseHandler
	certificateService services.CertificateService
}

func NewCertificateHandler(certificateService services.CertificateService, logger utils.Logger) *CertificateHandler {
	return &CertificateHandler{
		BaseHandler:        NewBaseHandler(logger),
		certificateService: certificateService,
	}
}

// GenerateCertificate is the manual fallback when automatic issuance did not run
// @Summary Generate certificate
// @Tags certificates
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} models.Certificate
// @Failure 422 {object} ErrorResponse "Course not completed"
// @Router /courses/{id}/certificate [post]
func (h *CertificateHandler) GenerateCertificate(c *gin.Context) {
	courseID, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Generating certificate", "course_id", courseID)

	certificate, err := h.certificateService.Generate(c.Request.Context(), GetActorFromContext(c), courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, certificate)
}

func (h *CertificateHandler) ListMyCertificates(c *gin.Context) {
	certificates, err := h.certificateService.ListMine(c.Request.Context(), GetActorFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"certificates": certificates})
}

func (h *CertificateHandler) GetCertificate(c *gin.Context) {
	certificateID, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	certificate, err := h.certificateService.Get(c.Request.Context(), GetActorFromContext(c), certificateID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, certificate)
}

// ExportCertificate downloads the printable HTML certificate
func (h *CertificateHandler) ExportCertificate(c *gin.Context) {
	certificateID, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	file, err := h.certificateService.ExportHTML(c.Request.Context(), GetActorFromContext(c), certificateID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	sendFile(c, file)
}

// VerifyCertificate is public
// @Summary Verify certificate
// @Tags certificates
// @Produce json
// @Param id path string true "Certificate ID"
// @Success 200 {object} services.CertificateVerification
// @Failure 404 {object} ErrorResponse
// @Router /public/certificates/{id} [get]
func (h *CertificateHandler) VerifyCertificate(c *gin.Context) {
	certificateID, ok := h.parseStringParam(c, "id")
	if !ok {
		return
	}

	verification, err := h.certificateService.Verify(c.Request.Context(), certificateID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, verification)
}
