package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

// ===== CALLER =====

// Actor is the authenticated caller a service acts for
type Actor struct {
	ID    string          `json:"id"`
	Email string          `json:"email"`
	Name  string          `json:"name"`
	Role  models.UserRole `json:"role"`
}

func (a *Actor) IsAdmin() bool      { return a != nil && a.Role == models.RoleAdmin }
func (a *Actor) IsInstructor() bool { return a != nil && a.Role == models.RoleInstructor }
func (a *Actor) IsStudent() bool    { return a != nil && a.Role == models.RoleStudent }

// SessionInvalidator drops cached session snapshots after profile changes
type SessionInvalidator interface {
	Invalidate(ctx context.Context, accountID string) error
}

// ===== ACCOUNT DTOs =====

type CreateProfileRequest struct {
	Role        models.UserRole `json:"role" validate:"required,user_role_registrable"`
	DisplayName string          `json:"display_name" validate:"omitempty,min=2,max=100"`
	Phone       string          `json:"phone" validate:"omitempty,max=30"`
	Bio         string          `json:"bio" validate:"omitempty,max=2000"`
}

type UpdateProfileRequest struct {
	DisplayName *string                `json:"display_name" validate:"omitempty,min=2,max=100"`
	Phone       *string                `json:"phone" validate:"omitempty,max=30"`
	Bio         *string                `json:"bio" validate:"omitempty,max=2000"`
	Preferences map[string]interface{} `json:"preferences"`
}

// ===== COURSE DTOs =====

type CourseRequest struct {
	Title       string           `json:"title" validate:"required,course_title"`
	Description string           `json:"description" validate:"omitempty,max=20000"`
	Category    string           `json:"category" validate:"omitempty,max=100"`
	Price       float64          `json:"price" validate:"price"`
	Thumbnail   string           `json:"thumbnail" validate:"omitempty,url,max=500"`
	Sections    []models.Section `json:"sections" validate:"omitempty,max=200"`
}

type CourseStatusRequest struct {
	Status models.CourseStatus `json:"status" validate:"required,course_status"`
}

type CourseDetailResponse struct {
	*models.Course
	Enrollment *models.Enrollment `json:"enrollment,omitempty"`
	Enrolled   bool               `json:"enrolled"`
	CanEdit    bool               `json:"can_edit"`
}

type PlayerResponse struct {
	Course       *models.Course        `json:"course"`
	Enrollment   *models.Enrollment    `json:"enrollment,omitempty"`
	CurrentVideo *models.VideoLocation `json:"current_video,omitempty"`
	State        models.ProgressState  `json:"state"`
}

// ===== PROGRESS / CERTIFICATE DTOs =====

type ProgressResponse struct {
	Enrollment     *models.Enrollment    `json:"enrollment"`
	State          models.ProgressState  `json:"state"`
	CompletedCount int                   `json:"completed_count"`
	TotalVideos    int                   `json:"total_videos"`
	Video          *models.VideoLocation `json:"video,omitempty"`
	Certificate    *models.Certificate   `json:"certificate,omitempty"`
}

// CertificateVerification is the public view of a certificate
type CertificateVerification struct {
	CertificateID  string    `json:"certificate_id"`
	UserName       string    `json:"user_name"`
	CourseName     string    `json:"course_name"`
	InstructorName string    `json:"instructor_name"`
	IssueDate      time.Time `json:"issue_date"`
	Valid          bool      `json:"valid"`
}

// ===== MESSAGING DTOs =====

type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required,max=255"`
	Text       string `json:"text" validate:"required,max=5000"`
}

type ParticipantInfo struct {
	ID          string          `json:"id"`
	DisplayName string          `json:"display_name"`
	Role        models.UserRole `json:"role,omitempty"`
	AvatarURL   *string         `json:"avatar_url,omitempty"`
}

type ConversationView struct {
	*models.Conversation
	Counterpart ParticipantInfo `json:"counterpart"`
	UnreadCount int             `json:"unread_count"`
}

// MessageGroup holds the messages of one calendar day
type MessageGroup struct {
	Date     string            `json:"date"`
	Messages []*models.Message `json:"messages"`
}

type ConversationDetail struct {
	Conversation *models.Conversation `json:"conversation"`
	Counterpart  ParticipantInfo      `json:"counterpart"`
	Groups       []MessageGroup       `json:"groups"`
}

// ===== ADMIN PANEL DTOs =====

type SubmitFeedbackRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Message string `json:"message" validate:"required,min=5,max=5000"`
}

type FeedbackStatusRequest struct {
	Status models.FeedbackStatus `json:"status" validate:"required,feedback_status"`
}

type SubmitContactRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Subject string `json:"subject" validate:"required,min=2,max=200"`
	Message string `json:"message" validate:"required,min=5,max=5000"`
}

type ContactStatusRequest struct {
	Status models.ContactStatus `json:"status" validate:"required,contact_status"`
}

type ContactReplyRequest struct {
	Reply string `json:"reply" validate:"required,min=2,max=5000"`
}

type CreateNotificationRequest struct {
	Title    string                      `json:"title" validate:"required,min=2,max=200"`
	Body     string                      `json:"body" validate:"required,max=5000"`
	Audience models.NotificationAudience `json:"audience" validate:"required,notification_audience"`
}

type NotificationStatusRequest struct {
	Status models.NotificationStatus `json:"status" validate:"required,notification_status"`
}

type UserDetailResponse struct {
	*models.Account
	Enrollments  []models.EnrollmentSummary `json:"enrollments"`
	Certificates int                        `json:"certificates"`
	Courses      int64                      `json:"courses"`
}

// ===== DASHBOARD DTOs =====

type AdminDashboard struct {
	Stats       *repositories.AdminStatsData       `json:"stats"`
	Trend       []repositories.EnrollmentTrendData `json:"enrollment_trend"`
	GeneratedAt time.Time                          `json:"generated_at"`
}

type InstructorDashboard struct {
	Stats   *repositories.InstructorStatsData  `json:"stats"`
	Trend   []repositories.EnrollmentTrendData `json:"enrollment_trend"`
	Courses []*models.Course                   `json:"courses"`
}

type StudentHome struct {
	Enrollments  []models.EnrollmentSummary `json:"enrollments"`
	Certificates []*models.Certificate      `json:"certificates"`
	UnreadTotal  int64                      `json:"unread_messages"`
}

// ===== SERVICE INTERFACES =====

type AccountService interface {
	CreateProfile(ctx context.Context, identity *models.Identity, req *CreateProfileRequest) (*models.Account, error)
	GetProfile(ctx context.Context, accountID string) (*models.Account, error)
	UpdateProfile(ctx context.Context, accountID string, req *UpdateProfileRequest) (*models.Account, error)
	UploadAvatar(ctx context.Context, accountID string, data []byte) (*models.Account, error)
}

type CourseService interface {
	// Catalogue
	ListPublished(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error)
	Categories(ctx context.Context) ([]string, error)
	GetDetail(ctx context.Context, actor *Actor, courseID string) (*CourseDetailResponse, error)
	GetPlayer(ctx context.Context, actor *Actor, courseID, videoRef string) (*PlayerResponse, error)

	// Instructor panel
	Create(ctx context.Context, actor *Actor, req *CourseRequest) (*models.Course, error)
	Update(ctx context.Context, actor *Actor, courseID string, req *CourseRequest) (*models.Course, error)
	Delete(ctx context.Context, actor *Actor, courseID string) error
	SetStatus(ctx context.Context, actor *Actor, courseID string, status models.CourseStatus) (*models.Course, error)
	ListMine(ctx context.Context, actor *Actor, filters repositories.CourseFilters) ([]*models.Course, int64, error)
	ListStudents(ctx context.Context, actor *Actor, courseID string, filters repositories.EnrollmentFilters) ([]models.StudentProgressRow, int64, error)
}

type ProgressService interface {
	Enroll(ctx context.Context, actor *Actor, courseID string) (*models.Enrollment, error)
	SelectVideo(ctx context.Context, actor *Actor, courseID, videoRef string) (*models.VideoLocation, error)
	MarkVideoComplete(ctx context.Context, actor *Actor, courseID, videoRef string) (*ProgressResponse, error)
	GetProgress(ctx context.Context, actor *Actor, courseID string) (*ProgressResponse, error)
	ListMyEnrollments(ctx context.Context, actor *Actor) ([]models.EnrollmentSummary, error)
}

type CertificateService interface {
	Generate(ctx context.Context, actor *Actor, courseID string) (*models.Certificate, error)
	Get(ctx context.Context, actor *Actor, certificateID string) (*models.Certificate, error)
	ListMine(ctx context.Context, actor *Actor) ([]*models.Certificate, error)
	Verify(ctx context.Context, certificateID string) (*CertificateVerification, error)
	ExportHTML(ctx context.Context, actor *Actor, certificateID string) (*ExportFile, error)
}

type MessagingService interface {
	Send(ctx context.Context, actor *Actor, req *SendMessageRequest) (*models.Message, error)
	ListConversations(ctx context.Context, actor *Actor) ([]*ConversationView, error)
	View(ctx context.Context, actor *Actor, conversationID string, loc *time.Location) (*ConversationDetail, error)
	MarkRead(ctx context.Context, actor *Actor, conversationID string) error
	UnreadTotal(ctx context.Context, actor *Actor) (int64, error)
	CanAccess(ctx context.Context, actor *Actor, conversationID string) (*models.Conversation, error)
	Contacts(ctx context.Context, actor *Actor, query string) ([]ParticipantInfo, error)
}

type FeedbackService interface {
	Submit(ctx context.Context, actor *Actor, req *SubmitFeedbackRequest) (*models.Feedback, error)
	List(ctx context.Context, filters repositories.FeedbackFilters) ([]*models.Feedback, int64, error)
	Get(ctx context.Context, id uint) (*models.Feedback, error)
	UpdateStatus(ctx context.Context, id uint, status models.FeedbackStatus) (*models.Feedback, error)
	Export(ctx context.Context, filters repositories.FeedbackFilters, format ExportFormat) (*ExportFile, error)
}

type ContactService interface {
	Submit(ctx context.Context, req *SubmitContactRequest) (*models.ContactMessage, error)
	List(ctx context.Context, filters repositories.ContactMessageFilters) ([]*models.ContactMessage, int64, error)
	Get(ctx context.Context, id uint) (*models.ContactMessage, error)
	UpdateStatus(ctx context.Context, id uint, status models.ContactStatus) (*models.ContactMessage, error)
	Reply(ctx context.Context, actor *Actor, id uint, req *ContactReplyRequest) (*models.ContactMessage, error)
	Export(ctx context.Context, filters repositories.ContactMessageFilters, format ExportFormat) (*ExportFile, error)
}

type NotificationService interface {
	// Admin panel
	Create(ctx context.Context, actor *Actor, req *CreateNotificationRequest) (*models.Notification, error)
	List(ctx context.Context, filters repositories.NotificationFilters) ([]*models.Notification, int64, error)
	SetStatus(ctx context.Context, id string, status models.NotificationStatus) (*models.Notification, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, filters repositories.NotificationFilters, format ExportFormat) (*ExportFile, error)

	// Per-user feed
	Feed(ctx context.Context, actor *Actor, limit, offset int) ([]*models.Notification, int64, error)
	MarkRead(ctx context.Context, actor *Actor, id string) error
}

type AdminService interface {
	ListUsers(ctx context.Context, filters repositories.AccountFilters) ([]*models.Account, int64, error)
	GetUser(ctx context.Context, accountID string) (*UserDetailResponse, error)
	SetUserDisabled(ctx context.Context, actor *Actor, accountID string, disabled bool) (*models.Account, error)
	ExportUsers(ctx context.Context, filters repositories.AccountFilters, format ExportFormat) (*ExportFile, error)

	ListCourses(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error)
	SetCourseStatus(ctx context.Context, actor *Actor, courseID string, status models.CourseStatus) (*models.Course, error)
	DeleteCourse(ctx context.Context, actor *Actor, courseID string) error
	ExportCourses(ctx context.Context, filters repositories.CourseFilters, format ExportFormat) (*ExportFile, error)
}

type DashboardService interface {
	AdminStats(ctx context.Context) (*AdminDashboard, error)
	InstructorStats(ctx context.Context, actor *Actor) (*InstructorDashboard, error)
	StudentHome(ctx context.Context, actor *Actor) (*StudentHome, error)
}

// ServiceManager owns service construction and lifecycle
type ServiceManager interface {
	Initialize(ctx context.Context) error

	Account() AccountService
	Course() CourseService
	Progress() ProgressService
	Certificate() CertificateService
	Messaging() MessagingService
	Feedback() FeedbackService
	Contact() ContactService
	Notification() NotificationService
	Admin() AdminService
	Dashboard() DashboardService

	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
