// Package events implements the command dispatch registries. Two scopes
// exist at runtime: one world-wide registry shared by every connection,
// holding the long-lived handlers registered at startup, and one short-lived
// registry per connection for transient fire-once handlers.
package events

import (
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/frostvale/frostvale/internal/protocol"
)

// HandlerFunc processes one dispatched command for the receiver T.
type HandlerFunc[T any] func(t T, args protocol.Args)

type entry[T any] struct {
	fn   HandlerFunc[T]
	once bool
}

// Registry maps action identifiers to ordered handler lists. Dispatch of an
// unregistered action is a no-op. Handler panics are recovered at the emit
// boundary and logged; they never reach the caller's read loop.
type Registry[T any] struct {
	mu       sync.Mutex
	handlers map[string][]entry[T]
	log      *slog.Logger
}

// NewRegistry returns an empty registry logging handler failures to log.
func NewRegistry[T any](log *slog.Logger) *Registry[T] {
	if log == nil {
		log = slog.Default()
	}
	return &Registry[T]{
		handlers: make(map[string][]entry[T]),
		log:      log,
	}
}

// On registers fn for action. Handlers fire in registration order.
func (r *Registry[T]) On(action string, fn HandlerFunc[T]) {
	r.add(action, fn, false)
}

// Once registers fn for action with at-most-once semantics: the entry is
// removed from the registry before invocation, so even re-entrant dispatch
// of the same action cannot fire it twice.
func (r *Registry[T]) Once(action string, fn HandlerFunc[T]) {
	r.add(action, fn, true)
}

func (r *Registry[T]) add(action string, fn HandlerFunc[T], once bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[action] = append(r.handlers[action], entry[T]{fn: fn, once: once})
}

// Emit invokes every handler registered for action, in registration order.
// Fire-once entries are deregistered before their handler runs.
func (r *Registry[T]) Emit(action string, t T, args protocol.Args) {
	r.mu.Lock()
	entries := r.handlers[action]
	if len(entries) == 0 {
		r.mu.Unlock()
		return
	}

	fns := make([]HandlerFunc[T], len(entries))
	kept := entries[:0:0]
	for i, e := range entries {
		fns[i] = e.fn
		if !e.once {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(r.handlers, action)
	} else {
		r.handlers[action] = kept
	}
	r.mu.Unlock()

	for _, fn := range fns {
		r.invoke(action, fn, t, args)
	}
}

// invoke is the failure isolation boundary: one buggy handler must never
// terminate the connection's read loop or the process.
func (r *Registry[T]) invoke(action string, fn HandlerFunc[T], t T, args protocol.Args) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("handler panic",
				"action", action,
				"panic", rec,
				"stack", string(debug.Stack()))
		}
	}()
	fn(t, args)
}

// Len returns the number of handlers registered for action.
func (r *Registry[T]) Len(action string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers[action])
}

// Clear drops every registered handler. Called during connection teardown on
// the connection-scoped registry.
func (r *Registry[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = make(map[string][]entry[T])
}
