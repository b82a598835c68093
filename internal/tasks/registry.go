package tasks

import (
	"context"
	"sync"
)

// Handle cancels one background task bound to an item.
type Handle struct {
	ItemID string
	Token  uint64
	cancel context.CancelFunc
}

// Cancel stops the task cooperatively. Safe to call more than once.
func (h *Handle) Cancel() {
	if h != nil && h.cancel != nil {
		h.cancel()
	}
}

// Registry tracks the running task of each item.
type Registry struct {
	mu      sync.Mutex
	handles map[string]*Handle
	next    uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]*Handle)}
}

// NewHandle derives a cancellable context from parent for a task on itemID.
//
// The handle gets a fresh token but is not registered yet.
func (r *Registry) NewHandle(parent context.Context, itemID string) (context.Context, *Handle) {
	r.mu.Lock()
	r.next++
	token := r.next
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(parent)
	return ctx, &Handle{ItemID: itemID, Token: token, cancel: cancel}
}

// Register stores h under id, cancelling any handle it replaces.
func (r *Registry) Register(id string, h *Handle) {
	r.mu.Lock()
	prev := r.handles[id]
	r.handles[id] = h
	r.mu.Unlock()

	if prev != nil && prev != h {
		prev.Cancel()
	}
}

// Cancel cancels and drops the handle for id, reporting whether one existed.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	h, ok := r.handles[id]
	delete(r.handles, id)
	r.mu.Unlock()

	h.Cancel()
	return ok
}

// Remove has the same effect as [Registry.Cancel] and is used when an item is deleted.
func (r *Registry) Remove(id string) bool {
	return r.Cancel(id)
}

// Release drops the handle for id if it is still generation token.
//
// The task context is cancelled to free its resources. Returns false for stale tokens.
func (r *Registry) Release(id string, token uint64) bool {
	r.mu.Lock()
	h, ok := r.handles[id]
	if !ok || h.Token != token {
		r.mu.Unlock()
		return false
	}
	delete(r.handles, id)
	r.mu.Unlock()

	h.Cancel()
	return true
}

// Get returns the registered handle for id.
func (r *Registry) Get(id string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	return h, ok
}

// Current reports whether token is the registered generation for id.
func (r *Registry) Current(id string, token uint64) bool {
	h, ok := r.Get(id)
	return ok && h.Token == token
}

// Len returns the number of registered handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// CancelAll cancels and drops every handle.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	handles := r.handles
	r.handles = make(map[string]*Handle)
	r.mu.Unlock()

	for _, h := range handles {
		h.Cancel()
	}
}
