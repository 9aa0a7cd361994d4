// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/danielhkuo/quickly-score/metrics"
	"github.com/danielhkuo/quickly-score/models"
)

const subjectPrefix = "quickly-score."

// NATS shares the feed between API replicas over core NATS subjects.
type NATS struct {
	conn    *nats.Conn
	logger  *slog.Logger
	metrics *metrics.Metrics

	done      chan struct{}
	closeOnce sync.Once
}

// NewNATS connects to url and reconnects forever.
func NewNATS(url string, logger *slog.Logger, m *metrics.Metrics) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("quickly-score"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATS{conn: conn, logger: logger, metrics: m, done: make(chan struct{})}, nil
}

func (n *NATS) Publish(_ context.Context, change models.Change) error {
	payload, err := encode(change)
	if err != nil {
		return fmt.Errorf("failed to encode change: %w", err)
	}
	for _, topic := range topicsFor(change) {
		if err := n.conn.Publish(subjectPrefix+topic, payload); err != nil {
			return fmt.Errorf("failed to publish to %s: %w", topic, err)
		}
	}
	return nil
}

func (n *NATS) Subscribe(ctx context.Context, scope Scope) (<-chan models.Change, error) {
	topic, err := scope.Topic()
	if err != nil {
		return nil, err
	}

	msgs := make(chan *nats.Msg, 64)
	sub, err := n.conn.ChanSubscribe(subjectPrefix+topic, msgs)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	// Make sure the server has the interest before callers publish.
	if err := n.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("failed to flush subscription: %w", err)
	}

	out := make(chan models.Change)
	n.metrics.SubscriberAdded()
	go func() {
		defer close(out)
		defer n.metrics.SubscriberRemoved()
		defer func() {
			if err := sub.Unsubscribe(); err != nil && err != nats.ErrConnectionClosed {
				n.logger.Warn("failed to unsubscribe", "topic", topic, "error", err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case <-n.done:
				return
			case msg := <-msgs:
				change, err := decode(msg.Data)
				if err != nil {
					n.logger.Warn("dropping undecodable change", "topic", topic, "error", err)
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				case <-n.done:
					return
				}
			}
		}
	}()
	return out, nil
}

// Close ends every subscription and closes the connection.
func (n *NATS) Close() error {
	n.closeOnce.Do(func() {
		close(n.done)
		n.conn.Close()
	})
	return nil
}
