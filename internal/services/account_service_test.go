package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/mail"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/storage"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type stubUploader struct{ keys []string }

func (u *stubUploader) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	u.keys = append(u.keys, key)
	return "https://cdn.example.com/" + key, nil
}

func TestAccountService_CreateProfile(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	sessions := newRecordingSessions()
	svc := NewAccountService(repo, sessions, &stubUploader{}, testLogger(), validator.New(), "Root@Example.com")

	_, err := svc.CreateProfile(ctx, &models.Identity{ID: "u1", Email: "u1@example.com"}, &CreateProfileRequest{Role: models.RoleAdmin})
	assert.True(t, IsValidationError(err), "admin cannot be chosen at sign-up")

	account, err := svc.CreateProfile(ctx,
		&models.Identity{ID: "u1", Email: "jane.doe@example.com", Avatar: "https://cdn.example.com/jane.png"},
		&CreateProfileRequest{Role: models.RoleInstructor})
	require.NoError(t, err)
	assert.Equal(t, models.RoleInstructor, account.Role)
	assert.Equal(t, "jane.doe", account.DisplayName)
	require.NotNil(t, account.AvatarURL)
	assert.Equal(t, 1, sessions.count("u1"))

	_, err = svc.CreateProfile(ctx, &models.Identity{ID: "u1", Email: "jane.doe@example.com"}, &CreateProfileRequest{Role: models.RoleStudent})
	assert.ErrorIs(t, err, ErrProfileExists)

	// the reserved address always becomes admin
	root, err := svc.CreateProfile(ctx,
		&models.Identity{ID: "root", Email: "root@example.com", DisplayName: "Root"},
		&CreateProfileRequest{Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, root.Role)
	assert.Equal(t, "Root", root.DisplayName)

	_, err = svc.CreateProfile(ctx, nil, &CreateProfileRequest{Role: models.RoleStudent})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAccountService_UpdateProfileAndAvatar(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	sessions := newRecordingSessions()
	uploader := &stubUploader{}
	svc := NewAccountService(repo, sessions, uploader, testLogger(), validator.New(), "")
	seedAccount(repo, "stu", models.RoleStudent)

	name := "  New Name "
	bio := "Loves Go"
	account, err := svc.UpdateProfile(ctx, "stu", &UpdateProfileRequest{DisplayName: &name, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "New Name", account.DisplayName)
	assert.Equal(t, "Loves Go", repo.accounts["stu"].Bio)
	assert.Equal(t, models.RoleStudent, repo.accounts["stu"].Role)
	assert.Equal(t, 1, sessions.count("stu"))

	short := "x"
	_, err = svc.UpdateProfile(ctx, "stu", &UpdateProfileRequest{DisplayName: &short})
	assert.True(t, IsValidationError(err))

	_, err = svc.UpdateProfile(ctx, "ghost", &UpdateProfileRequest{Bio: &bio})
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = svc.UploadAvatar(ctx, "stu", []byte("%PDF-1.4 not an image"))
	assert.True(t, IsValidationError(err))

	_, err = svc.UploadAvatar(ctx, "stu", make([]byte, storage.MaxAvatarBytes+1))
	assert.True(t, IsValidationError(err))
	assert.Empty(t, uploader.keys)
}

func TestDashboardService_StudentHome(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	cm, _ := newRedisCache(t)
	logger := testLogger()
	messaging := NewMessagingService(repo, cm, nil, logger, validator.New())
	svc := NewDashboardService(repo, cm, messaging, logger, 0)

	student := actorFor(seedAccount(repo, "stu", models.RoleStudent))
	instructorActor := actorFor(seedAccount(repo, "ins", models.RoleInstructor))
	seedCourse(repo, "c1", "ins", models.CoursePublished, 2)
	require.NoError(t, repo.Enrollment().Create(ctx, &models.Enrollment{AccountID: "stu", CourseID: "c1", Progress: 50}))

	_, err := messaging.Send(ctx, instructorActor, &SendMessageRequest{ReceiverID: "stu", Text: "Keep going!"})
	require.NoError(t, err)

	home, err := svc.StudentHome(ctx, student)
	require.NoError(t, err)
	require.Len(t, home.Enrollments, 1)
	assert.Equal(t, 50, home.Enrollments[0].Progress)
	assert.Empty(t, home.Certificates)
	assert.Equal(t, int64(1), home.UnreadTotal)

	dash, err := svc.InstructorStats(ctx, instructorActor)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dash.Stats.Courses)
	assert.Equal(t, int64(1), dash.Courses[0].EnrollmentCount)
	assert.Len(t, dash.Trend, trendDays)
}

func TestDashboardService_AdminStatsCached(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	cm, mr := newRedisCache(t)
	svc := NewDashboardService(repo, cm, nil, testLogger(), 0)
	seedAccount(repo, "stu", models.RoleStudent)

	first, err := svc.AdminStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Stats.Students)

	assert.Eventually(t, func() bool { return mr.Exists("stats:admin") }, time.Second, 10*time.Millisecond)

	// served from cache until invalidated
	seedAccount(repo, "stu2", models.RoleStudent)
	second, err := svc.AdminStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.Stats.Students)

	cache.InvalidateStats(ctx, cm)
	third, err := svc.AdminStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), third.Stats.Students)
}

func TestServiceManager_Lifecycle(t *testing.T) {
	ctx := context.Background()
	logger := testLogger()
	deps := Dependencies{
		Repo:      newFakeRepo(),
		Cache:     cache.NewCacheManager(nil),
		Logger:    logger,
		Validator: validator.New(),
		Publisher: events.NewMockEventPublisher(logger),
		Mailer:    mail.NewLogMailer(logger),
		Uploader:  &stubUploader{},
	}
	sm := NewDefaultServiceManager(deps, "root@example.com", "https://lms.example.com")

	assert.Panics(t, func() { sm.Course() })
	assert.Error(t, sm.HealthCheck(ctx))

	require.NoError(t, sm.Initialize(ctx))
	assert.NotNil(t, sm.Course())
	assert.NotNil(t, sm.Dashboard())
	assert.NoError(t, sm.HealthCheck(ctx))

	require.NoError(t, sm.Shutdown(ctx))
	assert.Error(t, sm.HealthCheck(ctx))

	broken := NewServiceManager(Dependencies{Logger: logger}, ServiceManagerConfig{})
	assert.Error(t, broken.Initialize(ctx))
}

func TestEventHandlers_CertificateEmail(t *testing.T) {
	ctx := context.Background()
	logger := testLogger()
	mailer := mail.NewLogMailer(logger)
	sessions := newRecordingSessions()
	h := NewEventHandlers(mailer, sessions, logger, "https://lms.example.com/")

	evt := rawEvent(t, events.CertificateIssuedData{
		CertificateID: "CERT-ABC",
		UserEmail:     "stu@example.com",
		UserName:      "Stu",
		CourseName:    "Go",
		IssueDate:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, h.OnCertificateIssued(ctx, evt))

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "stu@example.com", sent[0].ToEmail)
	assert.Contains(t, sent[0].Text, "https://lms.example.com/certificates/verify/CERT-ABC")

	require.NoError(t, h.OnAccountStatusChanged(ctx, rawEvent(t, events.AccountStatusChangedData{AccountID: "stu", Disabled: true})))
	assert.Equal(t, 1, sessions.count("stu"))
}
