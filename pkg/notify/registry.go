package notify

import "sync"

// Handler receives one Event per inbound notification.
type Handler func(Event)

// Registry holds the single active subscriber of a Channel.
// Registering a handler replaces the previous one; registering nil clears it.
// The registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	handler Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Set installs h as the current subscriber. A nil h clears the slot.
func (r *Registry) Set(h Handler) {
	r.mu.Lock()
	r.handler = h
	r.mu.Unlock()
}

// Clear removes the current subscriber, if any.
func (r *Registry) Clear() {
	r.Set(nil)
}

// Publish delivers ev to the current subscriber and reports whether anyone
// received it. The handler runs outside the lock so it may call Set.
func (r *Registry) Publish(ev Event) bool {
	r.mu.RLock()
	h := r.handler
	r.mu.RUnlock()

	if h == nil {
		return false
	}
	h(ev)
	return true
}
