package memo

import "context"

// CachedFactory is the Go shape of fbuild's persistent-object pattern: a
// constructor memoized the same way any other action is, so that building
// the same (by Args) object twice across runs reuses the first build's
// result instead of re-running it. Where fbuild keys this off a Python
// class's identity, Go keys it off the name the factory was registered
// under, the same "declared once at a known site" identity an Action has.
type CachedFactory[Args, T any] struct {
	action *Action[Args, T]
}

// NewCachedFactory registers a memoized constructor. version should change
// whenever construct's behavior changes in a way that should invalidate
// every instance it previously built, the same as for NewAction.
func NewCachedFactory[Args, T any](name, version string, construct func(context.Context, Args) (T, error)) *CachedFactory[Args, T] {
	return &CachedFactory[Args, T]{action: NewAction[Args, T](name, version, construct)}
}

// Get returns the instance previously built for args, constructing and
// caching it if this is the first time args has been seen (or if anything
// it depends on has changed since).
func (f *CachedFactory[Args, T]) Get(ctx context.Context, db *DB, args Args) (T, error) {
	return Call(ctx, db, f.action, args)
}
