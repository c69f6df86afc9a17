// Package callfiles is the Call-File Index: for every (function, call_id)
// pair, the digest each declared file had the last time that specific call
// was cached. It is what lets a call be judged dirty purely because one of
// the files it read or wrote changed, even though its bound arguments and
// function digest are unchanged.
package callfiles

import (
	"sync"

	"github.com/fbuild-go/memo/digest"
)

type key struct {
	function string
	callID   int
}

// Index is the Call-File Index table.
type Index struct {
	mu    sync.Mutex
	files map[key]map[string]digest.Digest
}

// New creates an empty index.
func New() *Index {
	return &Index{files: make(map[key]map[string]digest.Digest)}
}

// Check compares actual, the just-probed digest of every file declared for
// this call, against what was stored the last time call_id was cached. It
// returns whether any of them differ and the subset of actual that needs to
// be written back via Update. When call_id has no prior record at all, every
// file in actual counts as changed; with an empty actual that is still
// reported as not dirty.
func (idx *Index) Check(function string, callID int, actual map[string]digest.Digest) (dirty bool, changed map[string]digest.Digest) {
	idx.mu.Lock()
	stored, known := idx.files[key{function, callID}]
	idx.mu.Unlock()

	changed = make(map[string]digest.Digest)
	if !known {
		for name, d := range actual {
			changed[name] = d
		}
		return len(changed) > 0, changed
	}
	for name, d := range actual {
		if old, ok := stored[name]; !ok || old != d {
			changed[name] = d
		}
	}
	return len(changed) > 0, changed
}

// Update records changed as the current digests for call_id's declared
// files, merging into (rather than replacing) whatever was stored before.
func (idx *Index) Update(function string, callID int, changed map[string]digest.Digest) {
	if len(changed) == 0 {
		return
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	k := key{function, callID}
	stored, known := idx.files[k]
	if !known {
		stored = make(map[string]digest.Digest, len(changed))
		idx.files[k] = stored
	}
	for name, d := range changed {
		stored[name] = d
	}
}

// ClearFunction drops every call_id's file digests for function.
func (idx *Index) ClearFunction(function string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for k := range idx.files {
		if k.function == function {
			delete(idx.files, k)
		}
	}
}

// ClearFile forgets path everywhere it is recorded, across every function
// and call_id. This is an O(entries) scan: files are cleared far less often
// than calls are looked up, so the cost is acceptable.
func (idx *Index) ClearFile(path string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, stored := range idx.files {
		delete(stored, path)
	}
}

// Record is the serializable form of one (function, call_id) file-digest
// map.
type Record struct {
	Function string
	CallID   int
	Files    map[string]digest.Digest
}

// Snapshot returns a flattened copy of the index's state, for persistence.
func (idx *Index) Snapshot() []Record {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	out := make([]Record, 0, len(idx.files))
	for k, files := range idx.files {
		cp := make(map[string]digest.Digest, len(files))
		for name, d := range files {
			cp[name] = d
		}
		out = append(out, Record{Function: k.function, CallID: k.callID, Files: cp})
	}
	return out
}

// Restore replaces the index's state wholesale, for loading a snapshot.
func (idx *Index) Restore(records []Record) {
	files := make(map[key]map[string]digest.Digest, len(records))
	for _, rec := range records {
		cp := make(map[string]digest.Digest, len(rec.Files))
		for name, d := range rec.Files {
			cp[name] = d
		}
		files[key{rec.Function, rec.CallID}] = cp
	}
	idx.mu.Lock()
	idx.files = files
	idx.mu.Unlock()
}
