// Package filereg tracks, for every file the memoization core has ever
// looked at, the (mtime, digest) pair observed the last time its content was
// actually read. Probe is the single entry point: it answers "has this file
// changed since I last looked at it" while avoiding a re-read whenever the
// mtime alone already proves it hasn't.
//
// The mtime-grace window exists because many filesystems only record
// modification time at one-second resolution: a file rewritten with the same
// (truncated) mtime within the same second as a previous probe cannot be
// trusted to be unchanged, so a probe landing inside that window always
// re-reads the content regardless of what the mtime says.
package filereg

import (
	"os"
	"sync"
	"time"

	"github.com/fbuild-go/memo/digest"
)

// DefaultGrace is the mtime-resolution safety window fbuild's database used:
// a stat landing within one second of the recorded mtime always triggers a
// re-read, since the filesystem might not be able to tell two writes in that
// window apart.
const DefaultGrace = time.Second

type entry struct {
	mtime  time.Time
	digest digest.Digest
}

// Registry is the File Registry table: filename -> last-observed (mtime,
// digest). It is not safe for concurrent use by itself; callers serialize
// access (the RPC serializer owns the single instance used by a Backend).
type Registry struct {
	mu    sync.Mutex
	files map[string]entry
	grace time.Duration
}

// New creates an empty registry. A grace <= 0 selects DefaultGrace.
func New(grace time.Duration) *Registry {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Registry{
		files: make(map[string]entry),
		grace: grace,
	}
}

// Probe stats and, if necessary, re-hashes path, returning its current
// digest and whether that digest differs from the one last recorded (or
// whether this is the first time path has ever been probed).
//
// A missing file is reported through err (os.IsNotExist); callers that
// expect optional files to sometimes be absent should check for that
// explicitly rather than treating every error as fatal.
func (r *Registry) Probe(path string) (digest.Digest, bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return digest.Digest{}, false, err
	}
	mtime := fi.ModTime()

	r.mu.Lock()
	old, known := r.files[path]
	r.mu.Unlock()

	if known && mtime.Equal(old.mtime) && time.Since(mtime) > r.grace {
		// Same mtime, and we're far enough past it that a same-second
		// rewrite can't be hiding behind it: trust the cached digest.
		return old.digest, false, nil
	}

	d, err := sumFile(path)
	if err != nil {
		return digest.Digest{}, false, err
	}

	changed := !known || d != old.digest
	r.mu.Lock()
	r.files[path] = entry{mtime: mtime, digest: d}
	r.mu.Unlock()
	return d, changed, nil
}

// Clear removes path from the registry, forcing the next Probe to treat it
// as never-before-seen.
func (r *Registry) Clear(path string) {
	r.mu.Lock()
	delete(r.files, path)
	r.mu.Unlock()
}

// Snapshot returns a copy of the registry's full state, for persistence.
func (r *Registry) Snapshot() map[string]Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Record, len(r.files))
	for path, e := range r.files {
		out[path] = Record{MTime: e.mtime, Digest: e.digest}
	}
	return out
}

// Restore replaces the registry's state wholesale, for loading a snapshot.
func (r *Registry) Restore(records map[string]Record) {
	files := make(map[string]entry, len(records))
	for path, rec := range records {
		files[path] = entry{mtime: rec.MTime, digest: rec.Digest}
	}
	r.mu.Lock()
	r.files = files
	r.mu.Unlock()
}

// Record is the serializable form of a single registry entry.
type Record struct {
	MTime  time.Time
	Digest digest.Digest
}

func sumFile(path string) (digest.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return digest.Digest{}, err
	}
	defer f.Close()
	return digest.Sum(f)
}
