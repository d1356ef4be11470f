package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/events"
)

func requireActor(actor *Actor) error {
	if actor == nil || actor.ID == "" {
		return ErrUnauthenticated
	}
	return nil
}

// publish sends an event after the owning transaction committed. Failures are
// logged; the state change already happened.
func publish(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, topic string, data interface{}) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, topic, data); err != nil {
		logger.Error("Failed to publish event", "topic", topic, "error", err)
	}
}

// logCacheError ignores the degraded no-redis mode
func logCacheError(logger *slog.Logger, msg string, err error, args ...any) {
	if err == nil || errors.Is(err, cache.ErrCacheNotAvailable) {
		return
	}
	logger.Warn(msg, append(args, "error", err)...)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
