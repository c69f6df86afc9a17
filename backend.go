package memo

import (
	"os"
	"time"

	"github.com/fbuild-go/memo/digest"
	"github.com/fbuild-go/memo/internal/callfiles"
	"github.com/fbuild-go/memo/internal/calltab"
	"github.com/fbuild-go/memo/internal/extdeps"
	"github.com/fbuild-go/memo/internal/filereg"
	"github.com/fbuild-go/memo/internal/funcreg"
	"github.com/fbuild-go/memo/internal/logx"
	"github.com/fbuild-go/memo/internal/metrics"
	"github.com/fbuild-go/memo/internal/snapshot"
)

// Backend owns the six tables described by the data model and is the only
// thing that ever mutates them. It is deliberately not safe for concurrent
// use on its own: a Serializer is what makes that safe, by running every
// Backend method on a single goroutine.
type Backend struct {
	files     *filereg.Registry
	funcs     *funcreg.Registry
	calls     *calltab.Table
	callFiles *callfiles.Index
	extDeps   *extdeps.Index
}

// NewBackend creates an empty backend. grace configures the file registry's
// mtime-resolution safety window (see filereg.DefaultGrace).
func NewBackend(grace time.Duration) *Backend {
	return &Backend{
		files:     filereg.New(grace),
		funcs:     funcreg.New(),
		calls:     calltab.New(),
		callFiles: callfiles.New(),
		extDeps:   extdeps.New(),
	}
}

// PrepareResult is everything the frontend needs to decide whether a call is
// dirty, and to recompute it if so.
type PrepareResult struct {
	FunctionDirty   bool
	CallID          int
	HaveCallID      bool
	OldResult       []byte
	HaveOldResult   bool
	CallFileDigests map[string]digest.Digest
	ExternalDirty   bool
	ExternalSrcs    []string
	ExternalDsts    []string
	ExternalDigests map[string]digest.Digest
}

// Prepare looks up everything known about one call: whether its function's
// digest has changed since last time (clearing its call history if so),
// whether a matching call has been cached before, and whether any of that
// call's declared or externally-discovered files have changed on disk.
func (b *Backend) Prepare(functionName string, functionDigest digest.Digest, bound []byte, srcs []string) (PrepareResult, error) {
	var res PrepareResult

	res.FunctionDirty = b.funcs.Check(functionName, functionDigest)
	if res.FunctionDirty {
		b.clearFunctionTables(functionName)
	}

	// checkID is the call_id used to look up per-call file digests and
	// external deps. It defaults to -1, a value no real call_id (which are
	// dense, non-negative indices) can ever take, so a not-yet-matched call
	// never accidentally compares against an unrelated existing call's
	// stored file digests.
	checkID := -1
	if callID, result, found := b.calls.Lookup(functionName, bound); found {
		res.CallID = callID
		res.HaveCallID = true
		res.OldResult = result
		res.HaveOldResult = true
		checkID = callID
	}

	actual, err := b.probeAll(srcs)
	if err != nil {
		return PrepareResult{}, err
	}
	_, res.CallFileDigests = b.callFiles.Check(functionName, checkID, actual)

	if extSrcs, extDsts, found := b.extDeps.Get(functionName, checkID); found {
		res.ExternalSrcs = extSrcs
		res.ExternalDsts = extDsts
		missing, actualExt, err := b.probeExternal(extSrcs)
		if err != nil {
			return PrepareResult{}, err
		}
		changed, digests := b.callFiles.Check(functionName, checkID, actualExt)
		res.ExternalDirty = missing || changed
		res.ExternalDigests = digests
	}

	return res, nil
}

// ProbeFiles stats and, where needed, re-hashes every path in paths,
// returning the current digest of each. It is exported so the frontend can
// digest externally-declared files discovered only after an action ran,
// without reaching past the serializer into the file registry directly.
func (b *Backend) ProbeFiles(paths []string) (map[string]digest.Digest, error) {
	return b.probeAll(paths)
}

// probeAll stats and, where needed, re-hashes every path in paths, returning
// the current digest of each.
func (b *Backend) probeAll(paths []string) (map[string]digest.Digest, error) {
	out := make(map[string]digest.Digest, len(paths))
	for _, p := range paths {
		d, _, err := b.files.Probe(p)
		if err != nil {
			return nil, err
		}
		out[p] = d
	}
	return out, nil
}

// probeExternal is probeAll's counterpart for dynamically-declared external
// dependencies: a file that has been deleted since it was last recorded is
// not a hard error here the way a missing declared SRC is. It just forces
// the call dirty, the same way lib/fbuild/db/__init__.py's
// _check_external_files catches OSError on external srcs and sets
// external_dirty rather than letting the exception propagate.
func (b *Backend) probeExternal(paths []string) (dirty bool, digests map[string]digest.Digest, err error) {
	digests = make(map[string]digest.Digest, len(paths))
	for _, p := range paths {
		d, _, perr := b.files.Probe(p)
		if perr != nil {
			if os.IsNotExist(perr) {
				dirty = true
				continue
			}
			return false, nil, perr
		}
		digests[p] = d
	}
	return dirty, digests, nil
}

// Cache records the outcome of a call that was actually (re)computed:
// function digest, bound arguments and result, and every file (declared or
// external) whose digest changed this time around.
func (b *Backend) Cache(
	functionName string,
	functionDigest digest.Digest,
	callID int,
	haveCallID bool,
	bound, result []byte,
	callFileDigests map[string]digest.Digest,
	externalSrcs, externalDsts []string,
	externalDigests map[string]digest.Digest,
) int {
	b.funcs.Update(functionName, functionDigest)

	newCallID := b.calls.AppendOrReplace(functionName, callID, haveCallID, bound, result)
	b.callFiles.Update(functionName, newCallID, callFileDigests)
	b.callFiles.Update(functionName, newCallID, externalDigests)
	b.extDeps.Set(functionName, newCallID, externalSrcs, externalDsts)

	metrics.FunctionsTracked.Set(float64(len(b.funcs.Snapshot())))
	metrics.FilesTracked.Set(float64(len(b.files.Snapshot())))
	return newCallID
}

// ClearFunction forgets everything cached for functionName: its digest,
// every call ever recorded for it, and every per-call file digest and
// external dependency that went with those calls.
func (b *Backend) ClearFunction(functionName string) {
	b.funcs.Clear(functionName)
	b.clearFunctionTables(functionName)
	logx.Cleared("function", functionName)
	metrics.ClearsTotal.WithLabelValues("function").Inc()
}

func (b *Backend) clearFunctionTables(functionName string) {
	b.calls.ClearFunction(functionName)
	b.callFiles.ClearFunction(functionName)
	b.extDeps.ClearFunction(functionName)
}

// ClearFile forgets filename everywhere it appears: the file registry's own
// record of it, and every per-call digest and external-dependency reference
// to it across every function.
func (b *Backend) ClearFile(filename string) {
	b.files.Clear(filename)
	b.callFiles.ClearFile(filename)
	b.extDeps.ClearFile(filename)
	logx.Cleared("file", filename)
	metrics.ClearsTotal.WithLabelValues("file").Inc()
}

// Save persists the backend's full state to path.
func (b *Backend) Save(path string, compress bool) error {
	state := snapshot.State{
		Files:        b.files.Snapshot(),
		Functions:    b.funcs.Snapshot(),
		Calls:        b.calls.Snapshot(),
		CallFiles:    b.callFiles.Snapshot(),
		ExternalDeps: b.extDeps.Snapshot(),
	}
	if err := snapshot.Save(path, state, compress); err != nil {
		return err
	}
	logx.SnapshotSaved(path, len(state.Functions), len(state.Files))
	return nil
}

// Load replaces the backend's entire state with what was last saved to
// path. A path that doesn't exist yet is not an error: Load leaves the
// backend empty, as if this were the first run. Neither is a truncated or
// otherwise corrupt persistence file: it's logged and Load proceeds with an
// empty backend rather than refusing to start.
func (b *Backend) Load(path string) error {
	state, err := snapshot.Load(path)
	if err != nil {
		if isNotExist(err) {
			return nil
		}
		logx.SnapshotLoadFailed(path, err)
		return nil
	}
	b.files.Restore(state.Files)
	b.funcs.Restore(state.Functions)
	b.calls.Restore(state.Calls)
	b.callFiles.Restore(state.CallFiles)
	b.extDeps.Restore(state.ExternalDeps)
	logx.SnapshotLoaded(path, len(state.Functions), len(state.Files))
	return nil
}

func isNotExist(err error) bool {
	return os.IsNotExist(err)
}
