package memo

import "context"

// Func, Method, and Property are the Go shape of the three decorator-style
// attachments spec.md §6 names — "memoize this free function", "memoize
// this method", "memoize this property" — all of which the spec says
// "resolve to call". Go has no decorator syntax and no implicit receiver to
// special-case: a method's or a property's receiver is simply one more
// tagged field of In, exactly like a free function's other bound
// arguments. The three names exist purely so a call site can say what kind
// of thing it's memoizing; all three do exactly what Call does.

// Func memoizes a free function: action's In carries every bound argument
// the call needs.
func Func[In, Out any](ctx context.Context, db *DB, action *Action[In, Out], in In) (Out, error) {
	return Call(ctx, db, action, in)
}

// Method memoizes a bound method: action's In is expected to carry the
// receiver's identity as one of its fields, the way an unbound Python
// method call prepends its receiver to args.
func Method[In, Out any](ctx context.Context, db *DB, action *Action[In, Out], in In) (Out, error) {
	return Call(ctx, db, action, in)
}

// Property memoizes a zero-argument computation derived from a receiver:
// action's In typically carries nothing but that receiver's identity, so
// each distinct receiver gets its own cached value, recomputed only when
// dirty.
func Property[In, Out any](ctx context.Context, db *DB, action *Action[In, Out], in In) (Out, error) {
	return Call(ctx, db, action, in)
}
