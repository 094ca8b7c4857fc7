// Package event stamps domain events and fans them out to sinks such as
// the Kafka writer.
//
//	bus := event.NewBus()
//	bus.Sink(kafkaSink.Handle)
//	bus.Publish(ctx, event.UserRegistered, user.ID, payload)
package event

import (
	"context"
	"sync"
	"time"

	"github.com/shashiranjanraj/bazaar/pkg/logger"
)

// Domain event names.
const (
	UserRegistered = "user.registered"
	UserDeleted    = "user.deleted"
	ProductCreated = "product.created"
	ProductDeleted = "product.deleted"
	CartItemAdded  = "cart.item_added"
)

// Event is one published fact.
type Event struct {
	Name    string    `json:"event"`
	Key     string    `json:"key"`
	At      time.Time `json:"occurred_at"`
	Payload any       `json:"payload"`
}

// Handler receives an event.
type Handler func(ctx context.Context, e Event)

// Publisher is what services depend on.
type Publisher interface {
	Publish(ctx context.Context, name, key string, payload any)
}

// Bus dispatches every event synchronously to each sink. A panicking sink
// is logged and skipped. With no sinks, Publish is a no-op.
type Bus struct {
	mu    sync.RWMutex
	sinks []Handler
	now   func() time.Time
}

// NewBus returns a Bus without sinks.
func NewBus() *Bus {
	return &Bus{now: time.Now}
}

// Sink registers a handler that receives every event.
func (b *Bus) Sink(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, h)
}

// Publish dispatches the event. It never fails the caller.
func (b *Bus) Publish(ctx context.Context, name, key string, payload any) {
	b.mu.RLock()
	hs := append([]Handler(nil), b.sinks...)
	b.mu.RUnlock()
	if len(hs) == 0 {
		return
	}

	e := Event{Name: name, Key: key, At: b.now().UTC(), Payload: payload}
	for _, h := range hs {
		b.call(ctx, h, e)
	}
}

func (b *Bus) call(ctx context.Context, h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("event: sink panicked", "event", e.Name, "panic", r)
		}
	}()
	h(ctx, e)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) {}
