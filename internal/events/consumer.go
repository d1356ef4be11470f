package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// HandlerFunc receives the envelope with Data still encoded
type HandlerFunc func(ctx context.Context, evt *RawEvent) error

// RawEvent is an Event whose payload has not been decoded yet
type RawEvent struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Decode unmarshals the payload into dest
func (e *RawEvent) Decode(dest interface{}) error {
	return json.Unmarshal(e.Data, dest)
}

// Consumer runs background handlers on a watermill router
type Consumer struct {
	router     *message.Router
	subscriber message.Subscriber
	logger     *slog.Logger
}

func NewConsumer(subscriber message.Subscriber, logger *slog.Logger) (*Consumer, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event router: %w", err)
	}

	router.AddMiddleware(
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			Multiplier:      2,
			Logger:          wmLogger,
		}.Middleware,
		middleware.Recoverer,
	)

	return &Consumer{router: router, subscriber: subscriber, logger: logger}, nil
}

// Handle registers fn for every event on topic
func (c *Consumer) Handle(name, topic string, fn HandlerFunc) {
	c.router.AddNoPublisherHandler(name, topic, c.subscriber, func(msg *message.Message) error {
		var evt RawEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			// Redelivery cannot fix a malformed payload
			c.logger.Warn("Skipping malformed event", "handler", name, "message_uuid", msg.UUID, "error", err)
			return nil
		}
		return fn(msg.Context(), &evt)
	})
}

// Run blocks until ctx is cancelled or the router stops
func (c *Consumer) Run(ctx context.Context) error {
	return c.router.Run(ctx)
}

// Running is closed once handlers are subscribed
func (c *Consumer) Running() chan struct{} {
	return c.router.Running()
}

func (c *Consumer) Close() error {
	return c.router.Close()
}
