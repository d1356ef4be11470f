package events

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/SAP-F-2025/lms-service/internal/config"
)

// Bus bundles the transport used for events. With no Kafka brokers
// configured everything runs over an in-process channel.
type Bus struct {
	Publisher message.Publisher
	// Broadcast delivers every event to this instance (live feed fan-out)
	Broadcast message.Subscriber
	// Worker shares events across instances through a consumer group
	Worker message.Subscriber

	closers []func() error
}

func NewBus(cfg config.KafkaConfig, logger *slog.Logger) (*Bus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	if !cfg.Enabled() {
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wmLogger)
		return &Bus{
			Publisher: ch,
			Broadcast: ch,
			Worker:    ch,
			closers:   []func() error{ch.Close},
		}, nil
	}

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.Brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	// No consumer group: each instance reads every partition
	broadcast, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               cfg.Brokers,
		Unmarshaler:           kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
	}, wmLogger)
	if err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("failed to create kafka broadcast subscriber: %w", err)
	}

	group := cfg.ConsumerGroup
	if group == "" {
		group = "lms-service"
	}
	worker, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               cfg.Brokers,
		Unmarshaler:           kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
		ConsumerGroup:         group,
	}, wmLogger)
	if err != nil {
		_ = publisher.Close()
		_ = broadcast.Close()
		return nil, fmt.Errorf("failed to create kafka worker subscriber: %w", err)
	}

	return &Bus{
		Publisher: publisher,
		Broadcast: broadcast,
		Worker:    worker,
		closers:   []func() error{publisher.Close, broadcast.Close, worker.Close},
	}, nil
}

func (b *Bus) Close() error {
	var firstErr error
	for _, closeFn := range b.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
