package memo

import (
	"context"
	"sync"
)

// CallHandle is threaded through an action's context for the duration of one
// invocation. It replaces the stack-walking fbuild's database uses to
// attribute dynamically-declared dependencies to "whichever call is
// currently running": in Go, the call that's running is simply whichever
// call's context you were handed.
type CallHandle struct {
	mu   sync.Mutex
	srcs []string
	dsts []string
}

type callHandleKey struct{}

func withCallHandle(ctx context.Context, h *CallHandle) context.Context {
	return context.WithValue(ctx, callHandleKey{}, h)
}

func callHandleFrom(ctx context.Context) (*CallHandle, bool) {
	h, ok := ctx.Value(callHandleKey{}).(*CallHandle)
	return h, ok
}

// AddExternalDependencies records additional source and destination
// filenames the currently running call touched, beyond what its bound
// arguments already declare through their role tags. Called outside of a
// running action, it returns ErrNoActiveCall rather than silently doing
// nothing: there is no call whose dirtiness this could possibly affect.
func AddExternalDependencies(ctx context.Context, srcs, dsts []string) error {
	h, ok := callHandleFrom(ctx)
	if !ok {
		return ErrNoActiveCall
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.srcs = append(h.srcs, srcs...)
	h.dsts = append(h.dsts, dsts...)
	return nil
}

func (h *CallHandle) snapshot() (srcs, dsts []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.srcs...), append([]string(nil), h.dsts...)
}
