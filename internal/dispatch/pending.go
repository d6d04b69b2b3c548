package dispatch

import (
	"context"
	"sync"
)

// Call is one in-flight model interaction for a user. Its context is
// cancelled when a newer interaction from the same user supersedes it.
type Call struct {
	Ctx    context.Context
	cancel context.CancelFunc
}

// Registry tracks at most one in-flight call per user. Registering a
// new call cancels whatever the user had running before.
type Registry struct {
	mu    sync.Mutex
	calls map[string]*Call
}

func NewRegistry() *Registry {
	return &Registry{calls: make(map[string]*Call)}
}

// Supersede cancels the user's current call, if any, and registers a
// fresh one derived from parent. The returned call's context is what
// the new interaction must run under.
func (r *Registry) Supersede(parent context.Context, userID string) *Call {
	ctx, cancel := context.WithCancel(parent)
	call := &Call{Ctx: ctx, cancel: cancel}

	r.mu.Lock()
	prev := r.calls[userID]
	r.calls[userID] = call
	r.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
	return call
}

// Release removes the call from the registry if it is still the
// current one for the user. A finished call must release itself so a
// stale entry never cancels an unrelated later call.
func (r *Registry) Release(userID string, call *Call) {
	r.mu.Lock()
	if r.calls[userID] == call {
		delete(r.calls, userID)
	}
	r.mu.Unlock()
	call.cancel()
}

// Cancel aborts the user's in-flight call without registering a new
// one. Returns true if there was something to cancel.
func (r *Registry) Cancel(userID string) bool {
	r.mu.Lock()
	call := r.calls[userID]
	delete(r.calls, userID)
	r.mu.Unlock()

	if call == nil {
		return false
	}
	call.cancel()
	return true
}
