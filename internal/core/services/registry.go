package services

import (
	"sync"

	"huddle/internal/core/domain"
)

// listenerRegistry fans inbound envelopes out to local subscribers. Each
// registration gets its own handle so the same handler function can be
// registered twice and removed independently; deliveries are never
// deduplicated across handles.
type listenerRegistry struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[string]map[uint64]domain.EventHandler
}

func newListenerRegistry() *listenerRegistry {
	return &listenerRegistry{
		handlers: make(map[string]map[uint64]domain.EventHandler),
	}
}

// Add registers h for eventType and returns a removal capability that
// removes exactly this registration and no other.
func (r *listenerRegistry) Add(eventType string, h domain.EventHandler) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	if r.handlers[eventType] == nil {
		r.handlers[eventType] = make(map[uint64]domain.EventHandler)
	}
	r.handlers[eventType][id] = h
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		set, ok := r.handlers[eventType]
		if !ok {
			return
		}
		delete(set, id)
		if len(set) == 0 {
			delete(r.handlers, eventType)
		}
	}
}

// Dispatch delivers env to every handler registered for its event type and
// reports how many received it. Unknown event types deliver to no one.
func (r *listenerRegistry) Dispatch(env domain.EventEnvelope) int {
	r.mu.RLock()
	set := r.handlers[env.EventType]
	hs := make([]domain.EventHandler, 0, len(set))
	for _, h := range set {
		hs = append(hs, h)
	}
	r.mu.RUnlock()

	for _, h := range hs {
		h(env)
	}
	return len(hs)
}

// Clear drops every registration. Used on disconnect so listeners from a
// previous identity never see events delivered after the switch.
func (r *listenerRegistry) Clear() {
	r.mu.Lock()
	r.handlers = make(map[string]map[uint64]domain.EventHandler)
	r.mu.Unlock()
}
