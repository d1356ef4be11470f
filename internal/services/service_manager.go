package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/mail"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/storage"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

// Dependencies are the collaborators every service is built from
type Dependencies struct {
	Repo      repositories.Repository
	Cache     *cache.CacheManager
	Logger    *slog.Logger
	Validator *validator.Validator
	Publisher events.EventPublisher
	Sessions  SessionInvalidator
	Mailer    mail.Mailer
	Uploader  storage.Uploader
}

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	AdminEmail    string
	PublicBaseURL string

	// Dashboard aggregates cache lifetime
	StatsCacheTTL time.Duration
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps   Dependencies
	config ServiceManagerConfig
	logger *slog.Logger

	// Service instances
	accountService      AccountService
	courseService       CourseService
	progressService     ProgressService
	certificateService  CertificateService
	messagingService    MessagingService
	feedbackService     FeedbackService
	contactService      ContactService
	notificationService NotificationService
	adminService        AdminService
	dashboardService    DashboardService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(deps Dependencies, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		deps:   deps,
		config: config,
		logger: deps.Logger,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(deps Dependencies, adminEmail, publicBaseURL string) ServiceManager {
	return NewServiceManager(deps, ServiceManagerConfig{
		AdminEmail:    adminEmail,
		PublicBaseURL: publicBaseURL,
		StatsCacheTTL: cache.StatsCacheConfig.TTL,
	})
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if err := sm.validateDependencies(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	sm.initializeServices()

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) validateDependencies() error {
	d := sm.deps
	switch {
	case d.Repo == nil:
		return fmt.Errorf("repository is required")
	case d.Cache == nil:
		return fmt.Errorf("cache manager is required")
	case d.Logger == nil:
		return fmt.Errorf("logger is required")
	case d.Validator == nil:
		return fmt.Errorf("validator is required")
	case d.Mailer == nil:
		return fmt.Errorf("mailer is required")
	case d.Uploader == nil:
		return fmt.Errorf("uploader is required")
	}
	return nil
}

func (sm *serviceManager) initializeServices() {
	d := sm.deps

	courses := newCourseService(d.Repo, d.Cache, d.Logger, d.Validator)
	certificates := newCertificateService(d.Repo, d.Publisher, d.Logger, sm.config.PublicBaseURL)

	sm.accountService = NewAccountService(d.Repo, d.Sessions, d.Uploader, d.Logger, d.Validator, sm.config.AdminEmail)
	sm.courseService = courses
	sm.certificateService = certificates
	sm.progressService = NewProgressService(d.Repo, d.Cache, certificates, d.Logger)
	sm.messagingService = NewMessagingService(d.Repo, d.Cache, d.Publisher, d.Logger, d.Validator)
	sm.feedbackService = NewFeedbackService(d.Repo, d.Cache, d.Logger, d.Validator)
	sm.contactService = NewContactService(d.Repo, d.Cache, d.Mailer, d.Logger, d.Validator)
	sm.notificationService = NewNotificationService(d.Repo, d.Cache, d.Publisher, d.Logger, d.Validator)
	sm.adminService = NewAdminService(d.Repo, d.Cache, courses, d.Sessions, d.Publisher, d.Logger, sm.config.AdminEmail)
	sm.dashboardService = NewDashboardService(d.Repo, d.Cache, sm.messagingService, d.Logger, sm.config.StatsCacheTTL)

	sm.logger.Info("Services initialized",
		"admin_email_configured", sm.config.AdminEmail != "",
		"events_enabled", d.Publisher != nil)
}

// get guards every getter against use before Initialize
func get[T any](sm *serviceManager, name string, svc func() T) T {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	s := svc()
	if any(s) == nil {
		panic(name + " service not initialized")
	}
	return s
}

// Service getters
func (sm *serviceManager) Account() AccountService {
	return get(sm, "account", func() AccountService { return sm.accountService })
}

func (sm *serviceManager) Course() CourseService {
	return get(sm, "course", func() CourseService { return sm.courseService })
}

func (sm *serviceManager) Progress() ProgressService {
	return get(sm, "progress", func() ProgressService { return sm.progressService })
}

func (sm *serviceManager) Certificate() CertificateService {
	return get(sm, "certificate", func() CertificateService { return sm.certificateService })
}

func (sm *serviceManager) Messaging() MessagingService {
	return get(sm, "messaging", func() MessagingService { return sm.messagingService })
}

func (sm *serviceManager) Feedback() FeedbackService {
	return get(sm, "feedback", func() FeedbackService { return sm.feedbackService })
}

func (sm *serviceManager) Contact() ContactService {
	return get(sm, "contact", func() ContactService { return sm.contactService })
}

func (sm *serviceManager) Notification() NotificationService {
	return get(sm, "notification", func() NotificationService { return sm.notificationService })
}

func (sm *serviceManager) Admin() AdminService {
	return get(sm, "admin", func() AdminService { return sm.adminService })
}

func (sm *serviceManager) Dashboard() DashboardService {
	return get(sm, "dashboard", func() DashboardService { return sm.dashboardService })
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.deps.Publisher != nil {
		if err := sm.deps.Publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}
