// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/danielhkuo/quickly-score/metrics"
	"github.com/danielhkuo/quickly-score/models"
)

// Local is an in-process broker on a watermill Go channel pub/sub.
type Local struct {
	pubsub  *gochannel.GoChannel
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewLocal(logger *slog.Logger, m *metrics.Metrics) *Local {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewSlogLogger(logger),
	)
	return &Local{pubsub: pubsub, logger: logger, metrics: m}
}

func (l *Local) Publish(ctx context.Context, change models.Change) error {
	payload, err := encode(change)
	if err != nil {
		return fmt.Errorf("failed to encode change: %w", err)
	}
	for _, topic := range topicsFor(change) {
		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.SetContext(ctx)
		if err := l.pubsub.Publish(topic, msg); err != nil {
			return fmt.Errorf("failed to publish to %s: %w", topic, err)
		}
	}
	return nil
}

func (l *Local) Subscribe(ctx context.Context, scope Scope) (<-chan models.Change, error) {
	topic, err := scope.Topic()
	if err != nil {
		return nil, err
	}
	msgs, err := l.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	out := make(chan models.Change)
	l.metrics.SubscriberAdded()
	go func() {
		defer close(out)
		defer l.metrics.SubscriberRemoved()

		for msg := range msgs {
			change, err := decode(msg.Payload)
			if err != nil {
				l.logger.Warn("dropping undecodable change", "topic", topic, "error", err)
				msg.Ack()
				continue
			}
			select {
			case out <- change:
				msg.Ack()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (l *Local) Close() error {
	return l.pubsub.Close()
}
