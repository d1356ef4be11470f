package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/repositories/casdoor"
)

// PostgreSQLRepository implements the main Repository interface
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	// Repository instances
	account        repositories.AccountRepository
	identity       repositories.IdentityRepository
	course         repositories.CourseRepository
	enrollment     repositories.EnrollmentRepository
	certificate    repositories.CertificateRepository
	conversation   repositories.ConversationRepository
	message        repositories.MessageRepository
	feedback       repositories.FeedbackRepository
	contactMessage repositories.ContactMessageRepository
	notification   repositories.NotificationRepository
	dashboard      repositories.DashboardRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	DB            *gorm.DB
	RedisClient   *redis.Client
	CasdoorConfig casdoor.CasdoorConfig

	// Identity overrides the Casdoor-backed identity repository (tests, local dev)
	Identity repositories.IdentityRepository
}

// NewPostgreSQLRepository creates the repository with all sub-repositories
func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	repo := &PostgreSQLRepository{
		db:           config.DB,
		redisClient:  config.RedisClient,
		cacheManager: cache.NewCacheManager(config.RedisClient),
	}

	// Identity lives outside the database and is shared by transactional copies
	repo.identity = config.Identity
	if repo.identity == nil {
		repo.identity = casdoor.NewIdentityCasdoor(config.CasdoorConfig, config.RedisClient)
	}

	repo.bind(config.DB)
	return repo
}

// bind wires every database-backed sub-repository to db
func (r *PostgreSQLRepository) bind(db *gorm.DB) {
	r.account = NewAccountPostgreSQL(db)
	r.course = NewCoursePostgreSQL(db, r.cacheManager)
	r.enrollment = NewEnrollmentPostgreSQL(db)
	r.certificate = NewCertificatePostgreSQL(db)
	r.conversation = NewConversationPostgreSQL(db)
	r.message = NewMessagePostgreSQL(db)
	r.feedback = NewFeedbackPostgreSQL(db)
	r.contactMessage = NewContactMessagePostgreSQL(db)
	r.notification = NewNotificationPostgreSQL(db)
	r.dashboard = NewDashboardRepository(db)
}

func (r *PostgreSQLRepository) Account() repositories.AccountRepository   { return r.account }
func (r *PostgreSQLRepository) Identity() repositories.IdentityRepository { return r.identity }
func (r *PostgreSQLRepository) Course() repositories.CourseRepository     { return r.course }
func (r *PostgreSQLRepository) Enrollment() repositories.EnrollmentRepository {
	return r.enrollment
}
func (r *PostgreSQLRepository) Certificate() repositories.CertificateRepository {
	return r.certificate
}
func (r *PostgreSQLRepository) Conversation() repositories.ConversationRepository {
	return r.conversation
}
func (r *PostgreSQLRepository) Message() repositories.MessageRepository   { return r.message }
func (r *PostgreSQLRepository) Feedback() repositories.FeedbackRepository { return r.feedback }
func (r *PostgreSQLRepository) ContactMessage() repositories.ContactMessageRepository {
	return r.contactMessage
}
func (r *PostgreSQLRepository) Notification() repositories.NotificationRepository {
	return r.notification
}
func (r *PostgreSQLRepository) Dashboard() repositories.DashboardRepository {
	return r.dashboard
}

// CacheManager exposes the shared cache helpers
func (r *PostgreSQLRepository) CacheManager() *cache.CacheManager {
	return r.cacheManager
}

// WithTransaction executes a function within a database transaction
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &PostgreSQLRepository{
			db:           tx,
			redisClient:  r.redisClient,
			cacheManager: r.cacheManager,
			identity:     r.identity,
		}
		txRepo.bind(tx)

		return fn(txRepo)
	})
}

// Ping checks the health of database and cache connections
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}

	return nil
}

// Close closes the database connection. Redis is owned by main.
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// RepositoryManager implements the RepositoryManager interface
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

func NewRepositoryManager(config RepositoryConfig) *RepositoryManager {
	return &RepositoryManager{
		config: config,
	}
}

// Initialize verifies connections and builds the repository
func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}

	sqlDB, err := rm.config.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	if rm.config.RedisClient != nil {
		if _, err := rm.config.RedisClient.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
	}

	rm.repo = NewPostgreSQLRepository(rm.config)
	return nil
}

func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

// GetCacheManager returns the cache manager shared by the repository
func (rm *RepositoryManager) GetCacheManager() *cache.CacheManager {
	if pg, ok := rm.repo.(*PostgreSQLRepository); ok {
		return pg.cacheManager
	}
	return cache.NewCacheManager(rm.config.RedisClient)
}

func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}
	return rm.repo.Ping(ctx)
}

func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}
	return rm.repo.Close()
}
