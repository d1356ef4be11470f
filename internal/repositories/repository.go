package repositories

import "context"

// Repository aggregates every repository the LMS uses
type Repository interface {
	// Accounts and identity
	Account() AccountRepository
	Identity() IdentityRepository

	// Course content and progress
	Course() CourseRepository
	Enrollment() EnrollmentRepository
	Certificate() CertificateRepository

	// Messaging
	Conversation() ConversationRepository
	Message() MessageRepository

	// Admin panels
	Feedback() FeedbackRepository
	ContactMessage() ContactMessageRepository
	Notification() NotificationRepository

	// Dashboard domain
	Dashboard() DashboardRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
