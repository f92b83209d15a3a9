package realtime

import (
	"log/slog"
	"sync"

	"github.com/coursehub/realtime-go/pkg/schemas/events"
)

// Handler observes every inbound envelope that passes deduplication.
// Handlers are pure observers: any envelope may be seen by zero, one,
// or many of them depending on what is registered at delivery time.
type Handler func(events.Envelope)

// HandlerRegistration identifies a registered handler for removal.
// Functions are not comparable in Go, so the handle stands in for the
// reference identity the contract asks for.
type HandlerRegistration uint64

type registeredHandler struct {
	id HandlerRegistration
	fn Handler
}

// handlerRegistry fans every envelope out to all registered handlers in
// registration order. A panicking handler is isolated and logged; its
// siblings still run.
type handlerRegistry struct {
	mu       sync.Mutex
	nextID   HandlerRegistration
	handlers []registeredHandler
	closed   bool
	log      *slog.Logger
}

func newHandlerRegistry(log *slog.Logger) *handlerRegistry {
	return &handlerRegistry{log: log}
}

func (r *handlerRegistry) add(fn Handler) HandlerRegistration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0
	}
	r.nextID++
	r.handlers = append(r.handlers, registeredHandler{id: r.nextID, fn: fn})
	return r.nextID
}

// remove is a no-op for unknown registrations.
func (r *handlerRegistry) remove(reg HandlerRegistration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, h := range r.handlers {
		if h.id == reg {
			r.handlers = append(r.handlers[:i], r.handlers[i+1:]...)
			return
		}
	}
}

// dispatch invokes every handler synchronously, in registration order.
// closed (and the optional live guard) are rechecked before every
// invocation, so deactivating the registry or tearing the session down
// mid-fanout stops delivery before the next handler starts.
func (r *handlerRegistry) dispatch(env events.Envelope, live func() bool) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	snapshot := make([]registeredHandler, len(r.handlers))
	copy(snapshot, r.handlers)
	r.mu.Unlock()

	for _, h := range snapshot {
		r.mu.Lock()
		stopped := r.closed
		r.mu.Unlock()
		if stopped || (live != nil && !live()) {
			return
		}
		r.invoke(h, env)
	}
}

func (r *handlerRegistry) invoke(h registeredHandler, env events.Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("handler panicked",
				slog.Uint64("handler", uint64(h.id)),
				slog.String("type", string(env.Type)),
				slog.Any("panic", rec),
			)
		}
	}()
	h.fn(env)
}

// deactivate drops all handlers and rejects future dispatches. Called
// once at client shutdown so frames in flight during close can no
// longer reach observers.
func (r *handlerRegistry) deactivate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.handlers = nil
}
