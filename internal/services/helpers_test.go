package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRedisCache(t *testing.T) (*cache.CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewCacheManager(client), mr
}

func seedAccount(r *fakeRepo, id string, role models.UserRole) *models.Account {
	a := &models.Account{
		ID:          id,
		Email:       id + "@example.com",
		DisplayName: "User " + id,
		Role:        role,
	}
	r.accounts[id] = a
	return a
}

func seedCourse(r *fakeRepo, id, instructorID string, status models.CourseStatus, videos int) *models.Course {
	section := models.Section{ID: id + "-s0", Title: "Basics"}
	for i := 0; i < videos; i++ {
		section.Videos = append(section.Videos, models.Video{
			ID:    fmt.Sprintf("%s-v%d", id, i),
			Title: fmt.Sprintf("Lesson %d", i+1),
			URL:   fmt.Sprintf("https://videos.example.com/%s/%d.mp4", id, i),
		})
	}
	c := &models.Course{
		ID:             id,
		Title:          "Course " + id,
		Description:    "Learn **things**",
		Category:       "Programming",
		Status:         status,
		InstructorID:   instructorID,
		InstructorName: "User " + instructorID,
		Sections:       []models.Section{section},
	}
	r.courses[id] = c
	return c
}

func actorFor(a *models.Account) *Actor {
	return &Actor{ID: a.ID, Email: a.Email, Name: a.DisplayName, Role: a.Role}
}

// recordingSessions counts invalidations per account
type recordingSessions struct {
	mu    sync.Mutex
	calls map[string]int
}

func newRecordingSessions() *recordingSessions {
	return &recordingSessions{calls: map[string]int{}}
}

func (s *recordingSessions) Invalidate(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[accountID]++
	return nil
}

func (s *recordingSessions) count(accountID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[accountID]
}

// rawEvent wraps data the way the consumer hands it to handlers
func rawEvent(t *testing.T, data interface{}) *events.RawEvent {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal event data: %v", err)
	}
	return &events.RawEvent{ID: "evt-1", Data: payload}
}
