package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/session"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// stubIdentity maps bearer tokens to identities
type stubIdentity struct {
	repositories.IdentityRepository
	tokens map[string]*models.Identity
}

func (s *stubIdentity) ParseToken(token string) (*models.Identity, error) {
	if identity, ok := s.tokens[token]; ok {
		return identity, nil
	}
	return nil, errors.New("token signature is invalid")
}

type stubAccounts struct {
	repositories.AccountRepository
	accounts map[string]*models.Account
}

func (s *stubAccounts) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if a, ok := s.accounts[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, repositories.ErrNotFound
}

func (s *stubAccounts) Create(ctx context.Context, account *models.Account) error {
	s.accounts[account.ID] = account
	return nil
}

func (s *stubAccounts) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return nil
}

// authFixture signs in one user per token: "<id>-token"
type authFixture struct {
	identity *stubIdentity
	accounts *stubAccounts
	store    *session.Store
	auth     *CasdoorAuthMiddleware
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		identity: &stubIdentity{tokens: map[string]*models.Identity{}},
		accounts: &stubAccounts{accounts: map[string]*models.Account{}},
	}
	logger := testLogger()
	f.store = session.NewStore(f.accounts, cache.NewCacheHelper(nil, cache.SessionCacheConfig.Prefix), "root@example.com", logger.Slog())
	f.auth = NewCasdoorAuthMiddleware(f.identity, f.store, "/login", logger)
	return f
}

// addUser registers a token and, unless role is empty, a profile
func (f *authFixture) addUser(id string, role models.UserRole, disabled bool) string {
	email := id + "@example.com"
	f.identity.tokens[id+"-token"] = &models.Identity{ID: id, Email: email, DisplayName: "User " + id}
	if role != "" {
		f.accounts.accounts[id] = &models.Account{ID: id, Email: email, DisplayName: "User " + id, Role: role, Disabled: disabled}
	}
	return id + "-token"
}

func performRequest(router http.Handler, method, path, token string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// stubServiceManager hands out whichever services a test sets
type stubServiceManager struct {
	services.ServiceManager

	account      services.AccountService
	course       services.CourseService
	progress     services.ProgressService
	certificate  services.CertificateService
	messaging    services.MessagingService
	feedback     services.FeedbackService
	contact      services.ContactService
	notification services.NotificationService
	admin        services.AdminService
	dashboard    services.DashboardService
	healthErr    error
}

func (s *stubServiceManager) Account() services.AccountService           { return s.account }
func (s *stubServiceManager) Course() services.CourseService             { return s.course }
func (s *stubServiceManager) Progress() services.ProgressService         { return s.progress }
func (s *stubServiceManager) Certificate() services.CertificateService   { return s.certificate }
func (s *stubServiceManager) Messaging() services.MessagingService       { return s.messaging }
func (s *stubServiceManager) Feedback() services.FeedbackService         { return s.feedback }
func (s *stubServiceManager) Contact() services.ContactService           { return s.contact }
func (s *stubServiceManager) Notification() services.NotificationService { return s.notification }
func (s *stubServiceManager) Admin() services.AdminService               { return s.admin }
func (s *stubServiceManager) Dashboard() services.DashboardService       { return s.dashboard }

func (s *stubServiceManager) HealthCheck(ctx context.Context) error { return s.healthErr }

func newTestRouter(f *authFixture, sm *stubServiceManager, feed LiveFeed) *gin.Engine {
	router := gin.New()
	router.Use(RememberMeMiddleware("test-secret-test-secret-test-sec", false))
	hm := NewHandlerManager(sm, f.auth, f.store, feed, RouterConfig{EntryRoute: "/login"}, testLogger())
	hm.SetupRoutes(router)
	return router
}

func httptestServe(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
