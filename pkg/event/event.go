// Package event provides an in-process event bus with synchronous and
// queued dispatch.
package event

import (
	"context"
	"sync"

	"github.com/shashiranjanraj/diner/pkg/logger"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload interface{})

type envelope struct {
	name    string
	payload interface{}
}

type subscription struct {
	id uint64
	h  Handler
}

// Bus dispatches named events to listeners. The zero value is not usable;
// a nil *Bus accepts and drops every event.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
	nextID   uint64

	queue chan envelope
}

// NewBus creates a bus whose async queue holds up to buffer events.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	return &Bus{
		handlers: map[string][]subscription{},
		queue:    make(chan envelope, buffer),
	}
}

// Listen registers h for name and returns a function that removes it.
func (b *Bus) Listen(name string, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.handlers[name] = append(b.handlers[name], subscription{id: id, h: h})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			subs := b.handlers[name]
			for i, s := range subs {
				if s.id == id {
					b.handlers[name] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
		})
	}
}

func (b *Bus) snapshot(name string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	subs := b.handlers[name]
	hs := make([]Handler, len(subs))
	for i, s := range subs {
		hs[i] = s.h
	}
	return hs
}

// Fire dispatches an event synchronously to all registered listeners.
func (b *Bus) Fire(ctx context.Context, name string, payload interface{}) {
	if b == nil {
		return
	}
	for _, h := range b.snapshot(name) {
		h(ctx, payload)
	}
}

// FireAsync queues the event for Run. When the queue is full the event is
// dropped and logged.
func (b *Bus) FireAsync(name string, payload interface{}) {
	if b == nil {
		return
	}
	select {
	case b.queue <- envelope{name: name, payload: payload}:
	default:
		logger.Warn("event: queue full, dropping event", "event", name)
	}
}

// Run delivers queued events until ctx is cancelled.
func (b *Bus) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-b.queue:
			b.Fire(ctx, e.name, e.payload)
		}
	}
}

// ListenerCount returns the number of listeners for name.
func (b *Bus) ListenerCount(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}
