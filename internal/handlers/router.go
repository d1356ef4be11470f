package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SAP-F-2025/lms-service/internal/guards"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/session"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

// RouterConfig holds what the routes need beyond the services
type RouterConfig struct {
	EntryRoute    string
	AllowedOrigin string
}

type HandlerManager struct {
	serviceManager      services.ServiceManager
	sessionHandler      *SessionHandler
	accountHandler      *AccountHandler
	courseHandler       *CourseHandler
	progressHandler     *ProgressHandler
	certificateHandler  *CertificateHandler
	messageHandler      *MessageHandler
	feedbackHandler     *FeedbackHandler
	notificationHandler *NotificationHandler
	userHandler         *UserHandler
	adminCourseHandler  *AdminCourseHandler
	dashboardHandler    *DashboardHandler
	authMiddleware      *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	authMiddleware *CasdoorAuthMiddleware,
	store *session.Store,
	feed LiveFeed,
	cfg RouterConfig,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		serviceManager:      serviceManager,
		sessionHandler:      NewSessionHandler(store, cfg.EntryRoute, logger),
		accountHandler:      NewAccountHandler(serviceManager.Account(), logger),
		courseHandler:       NewCourseHandler(serviceManager.Course(), logger),
		progressHandler:     NewProgressHandler(serviceManager.Progress(), logger),
		certificateHandler:  NewCertificateHandler(serviceManager.Certificate(), logger),
		messageHandler:      NewMessageHandler(serviceManager.Messaging(), feed, cfg.AllowedOrigin, logger),
		feedbackHandler:     NewFeedbackHandler(serviceManager.Feedback(), serviceManager.Contact(), logger),
		notificationHandler: NewNotificationHandler(serviceManager.Notification(), logger),
		userHandler:         NewUserHandler(serviceManager.Admin(), logger),
		adminCourseHandler:  NewAdminCourseHandler(serviceManager.Admin(), logger),
		dashboardHandler:    NewDashboardHandler(serviceManager.Dashboard(), logger),
		authMiddleware:      authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.ResolveSession())
	{
		// Session and guards - open to anonymous callers
		sessionRoutes := v1.Group("/session")
		{
			sessionRoutes.GET("", hm.sessionHandler.GetSession)
			sessionRoutes.GET("/guard", hm.sessionHandler.Guard)
			sessionRoutes.POST("/logout", hm.sessionHandler.Logout)
		}

		// Public catalogue and forms
		v1.GET("/courses", hm.courseHandler.ListCourses)
		v1.GET("/courses/categories", hm.courseHandler.Categories)
		v1.GET("/courses/:id", hm.courseHandler.GetCourse)
		v1.POST("/feedback", hm.feedbackHandler.SubmitFeedback)
		v1.POST("/contact", hm.feedbackHandler.SubmitContact)
		v1.GET("/public/certificates/:id", hm.certificateHandler.VerifyCertificate)

		// Profile creation needs an identity but not yet a profile
		v1.POST("/accounts/profile", hm.authMiddleware.RequireIdentity(), hm.accountHandler.CreateProfile)

		protected := v1.Group("")
		protected.Use(hm.authMiddleware.RequireGuard(guards.Protected))
		{
			accounts := protected.Group("/accounts/me")
			{
				accounts.GET("", hm.accountHandler.GetMe)
				accounts.PUT("", hm.accountHandler.UpdateMe)
				accounts.POST("/avatar", hm.accountHandler.UploadAvatar)
			}

			courses := protected.Group("/courses/:id")
			{
				courses.GET("/player", hm.courseHandler.GetPlayer)
				courses.POST("/enroll", hm.progressHandler.Enroll)
				courses.GET("/progress", hm.progressHandler.GetProgress)
				courses.POST("/videos/:video/select", hm.progressHandler.SelectVideo)
				courses.POST("/videos/:video/complete", hm.progressHandler.CompleteVideo)
				courses.POST("/certificate", hm.certificateHandler.GenerateCertificate)
			}

			certificates := protected.Group("/certificates")
			{
				certificates.GET("", hm.certificateHandler.ListMyCertificates)
				certificates.GET("/:id", hm.certificateHandler.GetCertificate)
				certificates.GET("/:id/export", hm.certificateHandler.ExportCertificate)
			}

			messages := protected.Group("/messages")
			{
				messages.POST("", hm.messageHandler.SendMessage)
				messages.GET("/unread", hm.messageHandler.UnreadTotal)
				messages.GET("/contacts", hm.messageHandler.Contacts)
			}

			conversations := protected.Group("/conversations")
			{
				conversations.GET("", hm.messageHandler.ListConversations)
				conversations.GET("/:id", hm.messageHandler.GetConversation)
				conversations.POST("/:id/read", hm.messageHandler.MarkRead)
				conversations.GET("/:id/stream", hm.messageHandler.Stream)
			}

			notifications := protected.Group("/notifications")
			{
				notifications.GET("", hm.notificationHandler.Feed)
				notifications.POST("/:id/read", hm.notificationHandler.MarkRead)
			}

			students := protected.Group("/students/me")
			{
				students.GET("/home", hm.dashboardHandler.GetStudentHome)
				students.GET("/enrollments", hm.progressHandler.ListMyEnrollments)
			}
		}

		// Instructor panel - instructors only
		instructor := v1.Group("/instructor")
		instructor.Use(hm.authMiddleware.RequireGuard(guards.Instructor))
		{
			instructor.GET("/dashboard", hm.dashboardHandler.GetInstructorDashboard)
			instructor.GET("/courses", hm.courseHandler.ListMyCourses)
			instructor.POST("/courses", hm.courseHandler.CreateCourse)
			instructor.PUT("/courses/:id", hm.courseHandler.UpdateCourse)
			instructor.DELETE("/courses/:id", hm.courseHandler.DeleteCourse)
			instructor.PUT("/courses/:id/status", hm.courseHandler.SetCourseStatus)
			instructor.GET("/courses/:id/students", hm.courseHandler.ListCourseStudents)
		}

		// Admin panels - admins only
		admin := v1.Group("/admin")
		admin.Use(hm.authMiddleware.RequireGuard(guards.Admin))
		{
			admin.GET("/dashboard", hm.dashboardHandler.GetAdminDashboard)

			admin.GET("/users", hm.userHandler.ListUsers)
			admin.GET("/users/export", hm.userHandler.ExportUsers)
			admin.GET("/users/:id", hm.userHandler.GetUser)
			admin.PUT("/users/:id/status", hm.userHandler.SetUserStatus)

			admin.GET("/courses", hm.adminCourseHandler.ListCourses)
			admin.GET("/courses/export", hm.adminCourseHandler.ExportCourses)
			admin.PUT("/courses/:id/status", hm.adminCourseHandler.SetCourseStatus)
			admin.DELETE("/courses/:id", hm.adminCourseHandler.DeleteCourse)

			admin.GET("/feedback", hm.feedbackHandler.ListFeedback)
			admin.GET("/feedback/export", hm.feedbackHandler.ExportFeedback)
			admin.GET("/feedback/:id", hm.feedbackHandler.GetFeedback)
			admin.PUT("/feedback/:id/status", hm.feedbackHandler.UpdateFeedbackStatus)

			admin.GET("/contact-messages", hm.feedbackHandler.ListContacts)
			admin.GET("/contact-messages/export", hm.feedbackHandler.ExportContacts)
			admin.GET("/contact-messages/:id", hm.feedbackHandler.GetContact)
			admin.PUT("/contact-messages/:id/status", hm.feedbackHandler.UpdateContactStatus)
			admin.POST("/contact-messages/:id/reply", hm.feedbackHandler.ReplyContact)

			admin.GET("/notifications", hm.notificationHandler.ListNotifications)
			admin.GET("/notifications/export", hm.notificationHandler.ExportNotifications)
			admin.POST("/notifications", hm.notificationHandler.CreateNotification)
			admin.PUT("/notifications/:id/status", hm.notificationHandler.SetNotificationStatus)
			admin.DELETE("/notifications/:id", hm.notificationHandler.DeleteNotification)
		}
	}

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(utils.MetricsRegistry, promhttp.HandlerOpts{})))

	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{
			"status":    "healthy",
			"service":   "lms-service",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "unhealthy"
			body["error"] = err.Error()
		}
		c.JSON(status, body)
	})
}
