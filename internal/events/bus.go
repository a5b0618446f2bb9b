package events

import (
	"context"
	"sync"
)

const (
	PlayerTeamChanged          = "player.team_changed"
	PlayerLinkedAccountChanged = "player.linked_account_changed"
	PlayerCreated              = "player.created"
	TeamLoaded                 = "team.loaded"
)

type Event struct {
	Name    string
	Payload any
}

type Handler func(context.Context, Event) error

// Bus delivers events synchronously, in subscription order. The first
// handler error stops delivery and is returned to the publisher.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	all      []Handler
}

func NewBus() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

func (b *Bus) Subscribe(name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], handler)
}

// SubscribeAll registers a handler that runs after the named handlers of
// every event.
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, handler)
}

func (b *Bus) Publish(ctx context.Context, e Event) error {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[e.Name]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
