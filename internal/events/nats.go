package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Fielder is implemented by payloads that can be forwarded to other
// processes. Payloads without it are forwarded with the event name only.
type Fielder interface {
	EventFields() map[string]any
}

type message struct {
	Name   string         `json:"name"`
	At     time.Time      `json:"at"`
	Fields map[string]any `json:"fields,omitempty"`
}

// NATSForwarder republishes bus events on NATS subjects "<prefix>.<event>".
// Forwarding is best effort; failures are logged and never fail the publisher.
type NATSForwarder struct {
	nc     *nats.Conn
	prefix string
	logger zerolog.Logger
}

func NewNATSForwarder(url, prefix string, logger zerolog.Logger) (*NATSForwarder, error) {
	nc, err := nats.Connect(url,
		nats.Name("tracker"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info().Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info().Str("url", url).Msg("connected to nats")
	return &NATSForwarder{nc: nc, prefix: prefix, logger: logger}, nil
}

func (f *NATSForwarder) Attach(bus *Bus) {
	bus.SubscribeAll(f.forward)
}

func (f *NATSForwarder) forward(_ context.Context, e Event) error {
	msg := message{Name: e.Name, At: time.Now().UTC()}
	if p, ok := e.Payload.(Fielder); ok {
		msg.Fields = p.EventFields()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		f.logger.Warn().Err(err).Str("event", e.Name).Msg("failed to encode event")
		return nil
	}
	if err := f.nc.Publish(f.subject(e.Name), data); err != nil {
		f.logger.Warn().Err(err).Str("event", e.Name).Msg("failed to forward event")
	}
	return nil
}

func (f *NATSForwarder) subject(name string) string {
	return f.prefix + "." + name
}

func (f *NATSForwarder) Close() {
	if err := f.nc.Drain(); err != nil {
		f.logger.Warn().Err(err).Msg("failed to drain nats connection")
	}
}
