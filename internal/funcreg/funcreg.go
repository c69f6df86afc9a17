// Package funcreg is the Function Registry: for every registered action it
// remembers the digest observed the last time that action ran, so a new
// digest (a version bump, or a functor whose captured state changed) can be
// detected before any call record for that function is trusted.
package funcreg

import (
	"sync"

	"github.com/fbuild-go/memo/digest"
)

// Registry is the Function Registry table: function name -> last-known
// digest. Like filereg.Registry, it expects a single serialized owner.
type Registry struct {
	mu      sync.Mutex
	digests map[string]digest.Digest
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{digests: make(map[string]digest.Digest)}
}

// Check reports whether newDigest differs from the digest last recorded for
// name (including the case where name has never been seen before, which
// counts as dirty since there is nothing to compare against).
func (r *Registry) Check(name string, newDigest digest.Digest) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, known := r.digests[name]
	return !known || old != newDigest
}

// Update records newDigest as the current digest for name.
func (r *Registry) Update(name string, newDigest digest.Digest) {
	r.mu.Lock()
	r.digests[name] = newDigest
	r.mu.Unlock()
}

// Clear forgets name entirely, so its next Check always reports dirty.
func (r *Registry) Clear(name string) {
	r.mu.Lock()
	delete(r.digests, name)
	r.mu.Unlock()
}

// Snapshot returns a copy of the registry's state, for persistence.
func (r *Registry) Snapshot() map[string]digest.Digest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]digest.Digest, len(r.digests))
	for k, v := range r.digests {
		out[k] = v
	}
	return out
}

// Restore replaces the registry's state wholesale, for loading a snapshot.
func (r *Registry) Restore(state map[string]digest.Digest) {
	digests := make(map[string]digest.Digest, len(state))
	for k, v := range state {
		digests[k] = v
	}
	r.mu.Lock()
	r.digests = digests
	r.mu.Unlock()
}
