package memo

import (
	"context"
	"reflect"
	"time"

	"github.com/fbuild-go/memo/digest"
	"github.com/fbuild-go/memo/internal/logx"
	"github.com/fbuild-go/memo/internal/metrics"
)

// timedDo runs fn on db's serializer and records how long the round trip
// (queue wait plus the op itself) took under the op label, the way an
// application might track backend latency for any other RPC-shaped
// dependency.
func timedDo(ctx context.Context, db *DB, opName string, fn op) (interface{}, error) {
	start := time.Now()
	v, err := db.serializer.Do(ctx, fn)
	metrics.OpDuration.WithLabelValues(opName).Observe(time.Since(start).Seconds())
	return v, err
}

// Call runs action with the given bound arguments, reusing a previously
// cached result if and only if nothing that would have affected the
// outcome has changed since it was cached: action's own digest, the bound
// arguments themselves, every file action's argument and return roles
// declare, and every file action dynamically declared via
// AddExternalDependencies the last time it actually ran.
//
// A cached result whose declared outputs no longer exist on disk is not
// trusted even if everything else checks out: Call recomputes rather than
// handing back a result pointing at files that are gone.
func Call[In, Out any](ctx context.Context, db *DB, action *Action[In, Out], in In) (Out, error) {
	var zero Out

	srcs, dsts, err := partition(in, action.fields)
	if err != nil {
		return zero, err
	}
	bound, err := gobEncode(in)
	if err != nil {
		return zero, err
	}

	// Concurrent callers asking for the exact same call collapse onto a
	// single in-flight computation rather than each independently deciding
	// it's dirty and re-running it.
	key := action.name + "\x00" + string(bound)
	v, err, _ := db.inflight.Do(key, func() (interface{}, error) {
		return callOnce(ctx, db, action, in, srcs, dsts, bound)
	})
	if err != nil {
		return zero, err
	}
	return v.(Out), nil
}

func callOnce[In, Out any](ctx context.Context, db *DB, action *Action[In, Out], in In, srcs, dsts []string, bound []byte) (Out, error) {
	var zero Out

	raw, err := timedDo(ctx, db, "prepare", func(b *Backend) (interface{}, error) {
		return b.Prepare(action.name, action.digest, bound, srcs)
	})
	if err != nil {
		return zero, err
	}
	prep := raw.(PrepareResult)

	clean := !prep.FunctionDirty && prep.HaveCallID && len(prep.CallFileDigests) == 0 && !prep.ExternalDirty

	var oldOut Out
	if prep.HaveOldResult {
		if err := gobDecode(prep.OldResult, &oldOut); err != nil {
			// A stored result that no longer decodes into Out (e.g. the
			// action's Out type changed shape) can't be trusted.
			clean = false
		}
	}

	if clean {
		returnDsts := action.returnRole.Convert(reflect.ValueOf(oldOut))
		if _, missing := anyMissing(dsts, prep.ExternalDsts, returnDsts); !missing {
			logx.CallDecision(action.name, prep.CallID, false, "unchanged")
			metrics.CallsTotal.WithLabelValues(action.name, "hit").Inc()
			return oldOut, nil
		}
		logx.CallDecision(action.name, prep.CallID, true, ErrMissingOutput.Error())
	} else {
		logx.CallDecision(action.name, prep.CallID, true, dirtyReason(prep))
	}

	handle := &CallHandle{}
	out, ferr := action.fn(withCallHandle(ctx, handle), in)
	if ferr != nil {
		metrics.CallsTotal.WithLabelValues(action.name, "error").Inc()
		return zero, ferr
	}

	extSrcs, extDsts := handle.snapshot()
	resultBytes, err := gobEncode(out)
	if err != nil {
		return zero, err
	}

	var externalDigests map[string]digest.Digest
	if len(extSrcs) > 0 {
		raw, err := timedDo(ctx, db, "probe", func(b *Backend) (interface{}, error) {
			return b.ProbeFiles(extSrcs)
		})
		if err != nil {
			return zero, err
		}
		externalDigests = raw.(map[string]digest.Digest)
	}

	_, err = timedDo(ctx, db, "cache", func(b *Backend) (interface{}, error) {
		return b.Cache(action.name, action.digest, prep.CallID, prep.HaveCallID, bound, resultBytes,
			prep.CallFileDigests, extSrcs, extDsts, externalDigests), nil
	})
	if err != nil {
		return zero, err
	}

	metrics.CallsTotal.WithLabelValues(action.name, "miss").Inc()
	return out, nil
}

func dirtyReason(prep PrepareResult) string {
	switch {
	case prep.FunctionDirty:
		return "function changed"
	case !prep.HaveCallID:
		return "no prior call"
	case prep.ExternalDirty:
		return "external dependency changed"
	default:
		return "declared file changed"
	}
}
