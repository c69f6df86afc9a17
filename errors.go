package memo

import "github.com/pkg/errors"

// Sentinel errors a caller can match against with errors.Is.
var (
	// ErrClosed is returned by any operation attempted after the database's
	// serializer has been stopped.
	ErrClosed = errors.New("memo: database closed")

	// ErrLazyArgument is returned when a bound argument is a channel,
	// function, or other one-shot value that cannot be compared for
	// equality or persisted, and therefore cannot stand in as part of a
	// call's identity.
	ErrLazyArgument = errors.New("memo: argument cannot be a channel or function value")

	// ErrUnknownRole names the problem when a struct field carries a memo
	// tag this package does not recognize. It is not returned: NewAction and
	// NewFunctorAction panic with its text, since the tag is fixed at
	// compile time.
	ErrUnknownRole = errors.New("memo: unknown role tag")

	// ErrNoActiveCall is returned by AddExternalDependencies when called
	// from outside a running action's context — a usage error, not a
	// dirtiness signal.
	ErrNoActiveCall = errors.New("memo: no active call on context")

	// ErrMissingOutput is never returned to a caller: a clean call whose
	// declared output has vanished from disk is recomputed rather than
	// failed. Its text is what callOnce logs as the reason for that
	// recomputation.
	ErrMissingOutput = errors.New("memo: declared output missing")
)
