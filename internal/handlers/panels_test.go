package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/services"
)

type stubAdminService struct {
	services.AdminService
	lastFilters repositories.AccountFilters
	lastFormat  services.ExportFormat
	disabled    map[string]bool
}

func (s *stubAdminService) ListUsers(ctx context.Context, filters repositories.AccountFilters) ([]*models.Account, int64, error) {
	s.lastFilters = filters
	return []*models.Account{{ID: "stu", Role: models.RoleStudent}}, 1, nil
}

func (s *stubAdminService) ExportUsers(ctx context.Context, filters repositories.AccountFilters, format services.ExportFormat) (*services.ExportFile, error) {
	s.lastFilters = filters
	s.lastFormat = format
	return &services.ExportFile{Filename: "users." + string(format), ContentType: "text/csv", Data: []byte("id\nstu\n")}, nil
}

func (s *stubAdminService) SetUserDisabled(ctx context.Context, actor *services.Actor, accountID string, disabled bool) (*models.Account, error) {
	if accountID == "missing" {
		return nil, services.ErrAccountNotFound
	}
	s.disabled[accountID] = disabled
	return &models.Account{ID: accountID, Disabled: disabled}, nil
}

func newAdminRouter(t *testing.T) (*gin.Engine, *stubAdminService, string) {
	t.Helper()
	f := newAuthFixture()
	token := f.addUser("boss", models.RoleAdmin, false)
	admin := &stubAdminService{disabled: map[string]bool{}}
	sm := &stubServiceManager{admin: admin, dashboard: &stubDashboardService{}}
	return newTestRouter(f, sm, nil), admin, token
}

func TestUserHandler_ListUsersPagination(t *testing.T) {
	router, admin, token := newAdminRouter(t)

	w := performRequest(router, http.MethodGet, "/api/v1/admin/users?page=3&size=500&role=student&disabled=true&q=ann", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp PaginatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Total)
	assert.Equal(t, 3, resp.Page)
	assert.Equal(t, maxPageSize, resp.Size)

	assert.Equal(t, maxPageSize, admin.lastFilters.Limit)
	assert.Equal(t, 2*maxPageSize, admin.lastFilters.Offset)
	assert.Equal(t, "ann", admin.lastFilters.Query)
	require.NotNil(t, admin.lastFilters.Role)
	assert.Equal(t, models.RoleStudent, *admin.lastFilters.Role)
	require.NotNil(t, admin.lastFilters.Disabled)
	assert.True(t, *admin.lastFilters.Disabled)

	w = performRequest(router, http.MethodGet, "/api/v1/admin/users?page=-1&size=0&role=wizard", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, defaultPageSize, resp.Size)
	assert.Nil(t, admin.lastFilters.Role)
}

func TestUserHandler_ExportUsers(t *testing.T) {
	router, admin, token := newAdminRouter(t)

	w := performRequest(router, http.MethodGet, "/api/v1/admin/users/export?format=XLSX", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.ExportXLSX, admin.lastFormat)
	assert.Equal(t, `attachment; filename="users.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "id\nstu\n", w.Body.String())

	w = performRequest(router, http.MethodGet, "/api/v1/admin/users/export?format=pdf", token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserHandler_SetUserStatus(t *testing.T) {
	router, admin, token := newAdminRouter(t)

	w := performRequest(router, http.MethodPut, "/api/v1/admin/users/stu/status", token, `{"disabled":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, admin.disabled["stu"])

	// disabled:false must be accepted, not treated as missing
	w = performRequest(router, http.MethodPut, "/api/v1/admin/users/stu/status", token, `{"disabled":false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, admin.disabled["stu"])

	w = performRequest(router, http.MethodPut, "/api/v1/admin/users/stu/status", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, http.MethodPut, "/api/v1/admin/users/missing/status", token, `{"disabled":true}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleServiceError(t *testing.T) {
	h := NewBaseHandler(testLogger())

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", services.ValidationErrors{{Field: "title", Message: "is required"}}, http.StatusBadRequest},
		{"business rule", services.NewBusinessRuleError("certificate_incomplete", "course not complete", nil), http.StatusUnprocessableEntity},
		{"permission", services.NewPermissionError("stu", "c1", "course", "update", "not the owner"), http.StatusForbidden},
		{"wrapped not found", fmt.Errorf("load: %w", services.ErrCourseNotFound), http.StatusNotFound},
		{"conversation not found", services.ErrConversationNotFound, http.StatusNotFound},
		{"unauthenticated", services.ErrUnauthenticated, http.StatusUnauthorized},
		{"disabled", services.ErrAccountDisabled, http.StatusForbidden},
		{"not enrolled", services.ErrNotEnrolled, http.StatusForbidden},
		{"profile exists", services.ErrProfileExists, http.StatusConflict},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.handleServiceError(c, tt.err)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHandleServiceError_BusinessRuleDetails(t *testing.T) {
	h := NewBaseHandler(testLogger())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.handleServiceError(c, services.NewBusinessRuleError("recipient_disabled", "recipient is disabled", map[string]interface{}{"receiver_id": "ins"}))

	resp := decodeError(t, w.Body.Bytes())
	assert.Equal(t, "recipient is disabled", resp.Message)
	assert.Equal(t, "recipient_disabled", resp.Details["rule"])
}

func TestHealthAndMetrics(t *testing.T) {
	f := newAuthFixture()
	sm := &stubServiceManager{}
	router := newTestRouter(f, sm, nil)

	w := performRequest(router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	sm.healthErr = errors.New("redis down")
	w = performRequest(router, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "redis down", body["error"])

	w = performRequest(router, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
