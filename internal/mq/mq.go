package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Satish-Das/food-donate-application/config"
	"github.com/Satish-Das/food-donate-application/types"
)

const (
	BackendRabbitMQ = "rabbitmq"
	BackendPubSub   = "pubsub"

	attrEventType = "event_type"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// EventHandler processes a decoded donation event.
type EventHandler func(ctx context.Context, event types.DonationEvent) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ wraps a backend and carries donation events over a single channel.
type MQ struct {
	backend Backend
	channel string
	logger  *slog.Logger
}

// New constructs an MQ wrapper for the provided backend.
func New(backend Backend, channel string, logger *slog.Logger) *MQ {
	if logger == nil {
		logger = slog.Default()
	}
	return &MQ{backend: backend, channel: channel, logger: logger}
}

// Open connects the backend named by cfg.MQ.Backend. It returns nil
// without error when no backend is configured.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*MQ, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.MQ.Backend {
	case "":
		return nil, nil
	case BackendRabbitMQ:
		backend, err = NewRabbitMQClient(cfg.RabbitMQ)
	case BackendPubSub:
		backend, err = NewPubSubClient(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQ.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.MQ.Backend, err)
	}
	return New(backend, cfg.MQ.Channel, logger), nil
}

// Publish sends a message to the named channel.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return m.backend.Publish(ctx, channel, data, attrs)
}

// Subscribe consumes messages from the named channel.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return m.backend.Subscribe(ctx, channel, handler)
}

// PublishDonationEvent encodes event as JSON and publishes it on the
// events channel.
func (m *MQ) PublishDonationEvent(ctx context.Context, event types.DonationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode donation event: %w", err)
	}
	id, err := m.backend.Publish(ctx, m.channel, data, map[string]string{attrEventType: string(event.Type)})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	m.logger.Debug("published donation event", "type", event.Type, "donation_id", event.DonationID, "message_id", id)
	return nil
}

// SubscribeDonationEvents blocks, decoding every message on the events
// channel and passing it to handler. Undecodable messages are logged and
// acknowledged so they are not redelivered.
func (m *MQ) SubscribeDonationEvents(ctx context.Context, handler EventHandler) error {
	return m.backend.Subscribe(ctx, m.channel, func(ctx context.Context, msg Message) error {
		var event types.DonationEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			m.logger.Warn("dropping malformed donation event", "message_id", msg.ID, "error", err)
			return nil
		}
		if err := handler(ctx, event); err != nil {
			m.logger.Warn("donation event handler failed", "message_id", msg.ID, "type", event.Type, "error", err)
			return err
		}
		return nil
	})
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}
