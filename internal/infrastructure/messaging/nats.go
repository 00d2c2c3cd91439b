// Package messaging relays outbox messages to NATS JetStream.
package messaging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"partsledger/internal/infrastructure/storage/postgres"
	"partsledger/pkg/logger"
)

// Config describes the broker connection.
type Config struct {
	URL           string
	Stream        string
	SubjectPrefix string
}

// StreamPublisher is the part of jetstream.JetStream the relay needs.
type StreamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Client holds the NATS connection and its JetStream context.
type Client struct {
	conn *nats.Conn
	js   jetstream.JetStream
	cfg  Config
}

// Connect dials NATS and makes sure the ledger stream exists.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("partsledger-worker"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       cfg.Stream,
		Subjects:   []string{cfg.SubjectPrefix + ".>"},
		Storage:    jetstream.FileStorage,
		Duplicates: 10 * time.Minute,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ensure stream %s: %w", cfg.Stream, err)
	}

	logger.Info(ctx, "connected to NATS", "url", cfg.URL, "stream", cfg.Stream)
	return &Client{conn: conn, js: js, cfg: cfg}, nil
}

// Relay returns an outbox handler publishing through this client.
func (c *Client) Relay() *Relay {
	return NewRelay(c.js, c.cfg.SubjectPrefix)
}

// Close drains the connection.
func (c *Client) Close() error {
	return c.conn.Drain()
}

// Relay implements postgres.OutboxHandler.
type Relay struct {
	js     StreamPublisher
	prefix string
}

var _ postgres.OutboxHandler = (*Relay)(nil)

// NewRelay creates a relay publishing under prefix.
func NewRelay(js StreamPublisher, prefix string) *Relay {
	return &Relay{js: js, prefix: strings.TrimSuffix(prefix, ".")}
}

// Subject returns the subject an event type is published on.
func (r *Relay) Subject(eventType string) string {
	return r.prefix + "." + eventType
}

// Handle publishes one outbox message. The outbox id is the JetStream message
// id, so a redelivery after a crash between publish and mark is dropped by the
// stream's duplicate window.
func (r *Relay) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	subject := r.Subject(msg.EventType)
	if _, err := r.js.Publish(ctx, subject, msg.Payload, jetstream.WithMsgID(msg.ID.String())); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	logger.Debug(ctx, "event relayed", "subject", subject, "message_id", msg.ID)
	return nil
}
