// Package notify delivers portal notifications over NATS.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Conn is the subset of *nats.Conn used by the publisher.
type Conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// Envelope wraps every published payload with its subject and publish time.
type Envelope struct {
	Subject     string          `json:"subject"`
	PublishedAt time.Time       `json:"published_at"`
	Payload     json.RawMessage `json:"payload"`
}

// NATSPublisher publishes JSON notifications to NATS subjects.
type NATSPublisher struct {
	conn   Conn
	now    func() time.Time
	logger *slog.Logger
}

// Connect dials the NATS server at url and returns a publisher bound to it.
func Connect(url string, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url,
		nats.Name("campus-portal"),
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
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return NewNATSPublisher(conn, time.Now, logger), nil
}

// NewNATSPublisher wraps an existing connection.
func NewNATSPublisher(conn Conn, now func() time.Time, logger *slog.Logger) *NATSPublisher {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSPublisher{conn: conn, now: now, logger: logger}
}

// Publish encodes payload inside an Envelope and publishes it on subject.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload any) error {
	if p == nil || p.conn == nil {
		return errors.New("notify: publisher not connected")
	}
	if subject == "" {
		return errors.New("notify: subject is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", subject, err)
	}
	data, err := json.Marshal(Envelope{Subject: subject, PublishedAt: p.now().UTC(), Payload: raw})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", subject, err)
	}

	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.logger.DebugContext(ctx, "notification published", "subject", subject, "bytes", len(data))
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

// Noop discards every notification. It is used when no broker is configured.
type Noop struct{}

// Publish implements application.Publisher.
func (Noop) Publish(context.Context, string, any) error { return nil }

// Close implements io.Closer.
func (Noop) Close() error { return nil }
