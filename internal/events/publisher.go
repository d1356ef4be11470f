package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventPublisher publishes domain events. Publish failures never roll back
// the write that produced the event; callers log and continue.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, data interface{}) error
	Close() error
}

// WatermillPublisher sends JSON events to a watermill publisher, one topic per event type
type WatermillPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

func NewWatermillPublisher(publisher message.Publisher, logger *slog.Logger) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher, logger: logger}
}

func (p *WatermillPublisher) Publish(ctx context.Context, topic string, data interface{}) error {
	evt := NewEvent(topic, data)

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(evt.ID, payload)
	msg.Metadata.Set("event_type", topic)
	msg.Metadata.Set("source", evt.Source)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", topic, err)
	}

	p.logger.Debug("Event published", "topic", topic, "event_id", evt.ID)
	return nil
}

func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}

// MockEventPublisher records events in memory
type MockEventPublisher struct {
	mu     sync.Mutex
	events []*Event
	logger *slog.Logger

	// Err, when set, is returned from every Publish
	Err error
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (m *MockEventPublisher) Publish(ctx context.Context, topic string, data interface{}) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, NewEvent(topic, data))
	if m.logger != nil {
		m.logger.Debug("Mock event published", "topic", topic)
	}
	return nil
}

func (m *MockEventPublisher) Close() error { return nil }

func (m *MockEventPublisher) GetPublishedEvents() []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Event, len(m.events))
	copy(out, m.events)
	return out
}

// EventsOfType filters recorded events by topic
func (m *MockEventPublisher) EventsOfType(topic string) []*Event {
	var out []*Event
	for _, evt := range m.GetPublishedEvents() {
		if evt.Type == topic {
			out = append(out, evt)
		}
	}
	return out
}

func (m *MockEventPublisher) ClearEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
