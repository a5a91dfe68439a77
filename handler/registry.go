// Package handler implements the message-type dispatch table behaviours and
// the agent core use to route an incoming delivery to the code that knows
// how to handle it, plus the built-in system handlers (presence control,
// shutdown, behaviour management) every agent wires in by default.
package handler

import (
	"context"
	"sync"

	"github.com/sysid/agentmesh/broker"
)

// Handler processes one incoming delivery for a registered message type.
type Handler interface {
	Handle(ctx context.Context, target any, msg broker.Delivery) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, target any, msg broker.Delivery) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, target any, msg broker.Delivery) error {
	return f(ctx, target, msg)
}

// Registry maps a message type name to the Handler responsible for it. A
// Registry is shared by an agent core and every behaviour it owns.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	fallback Handler
}

// NewRegistry returns an empty Registry. fallback, if non-nil, handles any
// message type with no explicit registration (the reference implementation
// logs and drops it).
func NewRegistry(fallback Handler) *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		fallback: fallback,
	}
}

// Register associates msgType with h, replacing any previous registration.
func (r *Registry) Register(msgType string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[msgType] = h
}

// Unregister removes any handler registered for msgType.
func (r *Registry) Unregister(msgType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, msgType)
}

// Get returns the handler registered for msgType, or the fallback handler
// (which may be nil) if none was registered.
func (r *Registry) Get(msgType string) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.handlers[msgType]; ok {
		return h
	}
	return r.fallback
}

// Dispatch resolves the handler for msg's declared type and invokes it.
// Returns false if no handler (registered or fallback) was found.
func (r *Registry) Dispatch(ctx context.Context, target any, msg broker.Delivery) (bool, error) {
	h := r.Get(msg.Type)
	if h == nil {
		return false, nil
	}
	return true, h.Handle(ctx, target, msg)
}
