package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/mail"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

func TestFeedbackService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewFeedbackService(repo, cache.NewCacheManager(nil), testLogger(), validator.New())
	student := actorFor(seedAccount(repo, "stu", models.RoleStudent))

	_, err := svc.Submit(ctx, nil, &SubmitFeedbackRequest{Name: "Ann", Email: "ann@example.com", Rating: 6, Message: "Great site"})
	assert.True(t, IsValidationError(err))

	anon, err := svc.Submit(ctx, nil, &SubmitFeedbackRequest{Name: "Ann", Email: " ANN@example.com ", Rating: 4, Message: "Great site"})
	require.NoError(t, err)
	assert.Nil(t, anon.AccountID)
	assert.Equal(t, "ann@example.com", anon.Email)
	assert.Equal(t, models.FeedbackNew, anon.Status)

	mine, err := svc.Submit(ctx, student, &SubmitFeedbackRequest{Name: "Stu", Email: "stu@example.com", Rating: 2, Message: "Videos buffer a lot"})
	require.NoError(t, err)
	require.NotNil(t, mine.AccountID)
	assert.Equal(t, "stu", *mine.AccountID)

	// opening a new item marks it reviewed
	opened, err := svc.Get(ctx, anon.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackReviewed, opened.Status)

	resolved, err := svc.UpdateStatus(ctx, anon.ID, models.FeedbackResolved)
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackResolved, resolved.Status)

	// opening a resolved item leaves it alone
	opened, err = svc.Get(ctx, anon.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackResolved, opened.Status)

	_, err = svc.UpdateStatus(ctx, anon.ID, "bogus")
	assert.True(t, IsValidationError(err))

	_, err = svc.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrFeedbackNotFound)

	items, total, err := svc.List(ctx, repositories.FeedbackFilters{MinRating: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, anon.ID, items[0].ID)

	file, err := svc.Export(ctx, repositories.FeedbackFilters{}, ExportCSV)
	require.NoError(t, err)
	assert.Contains(t, string(file.Data), "ID,Name,Email,Rating,Status,Message,Created At")
	assert.Contains(t, string(file.Data), "Videos buffer a lot")
}

func TestContactService_Reply(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	mailer := mail.NewLogMailer(testLogger())
	svc := NewContactService(repo, cache.NewCacheManager(nil), mailer, testLogger(), validator.New())
	admin := actorFor(seedAccount(repo, "admin1", models.RoleAdmin))

	msg, err := svc.Submit(ctx, &SubmitContactRequest{
		Name:    "Visitor",
		Email:   "visitor@example.com",
		Subject: "Pricing",
		Message: "Do you offer discounts?",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ContactNew, msg.Status)

	opened, err := svc.Get(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContactRead, opened.Status)

	replied, err := svc.Reply(ctx, admin, msg.ID, &ContactReplyRequest{Reply: "Yes, 20% for students."})
	require.NoError(t, err)
	assert.Equal(t, models.ContactResponded, replied.Status)
	require.NotNil(t, replied.Reply)
	assert.Equal(t, "Yes, 20% for students.", *replied.Reply)

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "visitor@example.com", sent[0].ToEmail)
	assert.Contains(t, sent[0].Subject, "Pricing")

	_, err = svc.UpdateStatus(ctx, msg.ID, models.ContactClosed)
	require.NoError(t, err)

	_, err = svc.Reply(ctx, admin, msg.ID, &ContactReplyRequest{Reply: "One more thing"})
	var rule *BusinessRuleError
	require.True(t, errors.As(err, &rule))
	assert.Equal(t, "contact_closed", rule.Rule)

	_, err = svc.Get(ctx, 42)
	assert.ErrorIs(t, err, ErrContactMessageNotFound)
}

func TestNotificationService_FeedFollowsAudience(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)
	svc := NewNotificationService(repo, cache.NewCacheManager(nil), publisher, logger, validator.New())

	admin := actorFor(seedAccount(repo, "admin1", models.RoleAdmin))
	student := actorFor(seedAccount(repo, "stu", models.RoleStudent))
	instructorActor := actorFor(seedAccount(repo, "ins", models.RoleInstructor))

	create := func(title string, audience models.NotificationAudience) *models.Notification {
		n, err := svc.Create(ctx, admin, &CreateNotificationRequest{Title: title, Body: "Body of " + title, Audience: audience})
		require.NoError(t, err)
		return n
	}
	everyone := create("Maintenance", models.AudienceAll)
	forStudents := create("Exam week", models.AudienceStudent)
	forTeachers := create("Grading deadline", models.AudienceInstructor)
	archived := create("Old news", models.AudienceAll)

	_, err := svc.SetStatus(ctx, archived.ID, models.NotificationArchived)
	require.NoError(t, err)
	assert.Len(t, publisher.EventsOfType(events.TopicNotificationCreated), 4)

	feedIDs := func(actor *Actor) []string {
		items, _, err := svc.Feed(ctx, actor, 20, 0)
		require.NoError(t, err)
		ids := make([]string, 0, len(items))
		for _, n := range items {
			ids = append(ids, n.ID)
		}
		return ids
	}

	assert.ElementsMatch(t, []string{everyone.ID, forStudents.ID}, feedIDs(student))
	assert.ElementsMatch(t, []string{everyone.ID, forTeachers.ID}, feedIDs(instructorActor))
	assert.ElementsMatch(t, []string{everyone.ID, forStudents.ID, forTeachers.ID}, feedIDs(admin))

	// students cannot mark notifications they never see
	assert.ErrorIs(t, svc.MarkRead(ctx, student, forTeachers.ID), ErrNotificationNotFound)
	assert.ErrorIs(t, svc.MarkRead(ctx, student, archived.ID), ErrNotificationNotFound)

	require.NoError(t, svc.MarkRead(ctx, student, forStudents.ID))
	items, _, err := svc.Feed(ctx, student, 20, 0)
	require.NoError(t, err)
	for _, n := range items {
		assert.Equal(t, n.ID == forStudents.ID, n.Read, n.Title)
	}

	require.NoError(t, svc.Delete(ctx, forStudents.ID))
	assert.ErrorIs(t, svc.Delete(ctx, forStudents.ID), ErrNotificationNotFound)

	_, err = svc.Create(ctx, admin, &CreateNotificationRequest{Title: "Bad", Body: "x", Audience: "parents"})
	assert.True(t, IsValidationError(err))
}
