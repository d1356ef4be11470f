package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/storage"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

const avatarFormField = "avatar"

type AccountHandler struct {
	BaseHandler
	accountService services.AccountService
}

func NewAccountHandler(accountService services.AccountService, logger utils.Logger) *AccountHandler {
	return &AccountHandler{
		BaseHandler:    NewBaseHandler(logger),
		accountService: accountService,
	}
}

// CreateProfile creates the LMS profile for the signed-in identity
// @Summary Create profile
// @Tags accounts
// @Accept json
// @Produce json
// @Param profile body services.CreateProfileRequest true "Profile data"
// @Success 201 {object} models.Account
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /accounts/profile [post]
func (h *AccountHandler) CreateProfile(c *gin.Context) {
	var req services.CreateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	identity := GetIdentityFromContext(c)
	h.LogRequest(c, "Creating profile", "role", req.Role)

	account, err := h.accountService.CreateProfile(c.Request.Context(), identity, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, account)
}

func (h *AccountHandler) GetMe(c *gin.Context) {
	actor := GetActorFromContext(c)
	account, err := h.accountService.GetProfile(c.Request.Context(), actor.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// UpdateMe edits the caller's profile; the role is not editable
// @Summary Update profile
// @Tags accounts
// @Accept json
// @Produce json
// @Param profile body services.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} models.Account
// @Failure 400 {object} ErrorResponse
// @Router /accounts/me [put]
func (h *AccountHandler) UpdateMe(c *gin.Context) {
	var req services.UpdateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	actor := GetActorFromContext(c)
	account, err := h.accountService.UpdateProfile(c.Request.Context(), actor.ID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// UploadAvatar accepts a multipart image in the "avatar" field
// @Summary Upload avatar
// @Tags accounts
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} models.Account
// @Failure 400 {object} ErrorResponse
// @Router /accounts/me/avatar [post]
func (h *AccountHandler) UploadAvatar(c *gin.Context) {
	fileHeader, err := c.FormFile(avatarFormField)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Avatar file is required",
			Details: err.Error(),
		})
		return
	}
	if fileHeader.Size > storage.MaxAvatarBytes {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Message: storage.ErrImageTooLarge.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.LogError(c, err, "Failed to open avatar upload")
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Unreadable upload"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, storage.MaxAvatarBytes+1))
	if err != nil {
		h.LogError(c, err, "Failed to read avatar upload")
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Unreadable upload"})
		return
	}

	actor := GetActorFromContext(c)
	h.LogRequest(c, "Uploading avatar", "account_id", actor.ID, "bytes", len(data))

	account, err := h.accountService.UploadAvatar(c.Request.Context(), actor.ID, data)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}
