package realtime

import (
	"log/slog"
	"sort"
	"sync"
)

// subscriptionRegistry maps topic keys to live subscriptions on the
// current session. It survives reconnects: the stored topics are
// replayed against the fresh socket, only the unsubscribe handles are
// rebound.
//
// Invariant: the registry never holds a subscription for a closed
// session; clear runs during teardown before the socket itself closes.
type subscriptionRegistry struct {
	mu     sync.Mutex
	topics map[string]func() error // topic -> unsubscribe handle
	log    *slog.Logger
}

func newSubscriptionRegistry(log *slog.Logger) *subscriptionRegistry {
	return &subscriptionRegistry{
		topics: make(map[string]func() error),
		log:    log,
	}
}

// add stores the unsubscribe handle for topic. Subscribing an
// already-subscribed topic is a logged no-op; add reports whether the
// topic was new so the caller knows to send the subscribe frame.
func (r *subscriptionRegistry) add(topic string, unsubscribe func() error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.topics[topic]; ok {
		r.log.Debug("already subscribed", slog.String("topic", topic))
		return false
	}
	r.topics[topic] = unsubscribe
	return true
}

// remove invokes and drops the stored handle. Unknown topics are a
// no-op.
func (r *subscriptionRegistry) remove(topic string) {
	r.mu.Lock()
	unsub, ok := r.topics[topic]
	delete(r.topics, topic)
	r.mu.Unlock()
	if !ok {
		return
	}
	if err := unsub(); err != nil {
		r.log.Warn("unsubscribe failed", slog.String("topic", topic), slog.Any("error", err))
	}
}

// rebind swaps the unsubscribe handle after a reconnect without
// touching membership.
func (r *subscriptionRegistry) rebind(topic string, unsubscribe func() error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.topics[topic]; ok {
		r.topics[topic] = unsubscribe
	}
}

// forget drops the entry without invoking the handle. Used when the
// subscribe frame itself failed to write.
func (r *subscriptionRegistry) forget(topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.topics, topic)
}

func (r *subscriptionRegistry) has(topic string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.topics[topic]
	return ok
}

// snapshot returns the subscribed topics in a stable order.
func (r *subscriptionRegistry) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	topics := make([]string, 0, len(r.topics))
	for t := range r.topics {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// clear unsubscribes everything. Part of session teardown.
func (r *subscriptionRegistry) clear() {
	r.mu.Lock()
	handles := r.topics
	r.topics = make(map[string]func() error)
	r.mu.Unlock()
	for topic, unsub := range handles {
		if err := unsub(); err != nil {
			r.log.Debug("unsubscribe during teardown failed",
				slog.String("topic", topic), slog.Any("error", err))
		}
	}
}
