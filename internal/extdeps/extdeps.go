// Package extdeps is the External-Deps Index: the srcs and dsts a call
// declared dynamically from inside its own body (via a CallHandle), as
// opposed to the ones derivable statically from its bound arguments' role
// tags. A call that touches a file it never told its caller about up front
// still needs that file's change to make it dirty next time.
package extdeps

import "sync"

type key struct {
	function string
	callID   int
}

type deps struct {
	srcs []string
	dsts []string
}

// Index is the External-Deps Index table.
type Index struct {
	mu   sync.Mutex
	deps map[key]deps
}

// New creates an empty index.
func New() *Index {
	return &Index{deps: make(map[key]deps)}
}

// Get returns the external srcs/dsts recorded for call_id, if any.
func (idx *Index) Get(function string, callID int) (srcs, dsts []string, found bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	d, ok := idx.deps[key{function, callID}]
	if !ok {
		return nil, nil, false
	}
	return append([]string(nil), d.srcs...), append([]string(nil), d.dsts...), true
}

// Set replaces call_id's external srcs/dsts wholesale, overwriting whatever
// was declared by an earlier run of the same call.
func (idx *Index) Set(function string, callID int, srcs, dsts []string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.deps[key{function, callID}] = deps{
		srcs: append([]string(nil), srcs...),
		dsts: append([]string(nil), dsts...),
	}
}

// ClearFunction drops every call_id's external deps for function.
func (idx *Index) ClearFunction(function string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for k := range idx.deps {
		if k.function == function {
			delete(idx.deps, k)
		}
	}
}

// ClearFile removes path from every recorded srcs/dsts list.
func (idx *Index) ClearFile(path string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for k, d := range idx.deps {
		d.srcs = remove(d.srcs, path)
		d.dsts = remove(d.dsts, path)
		idx.deps[k] = d
	}
}

func remove(list []string, path string) []string {
	out := list[:0]
	for _, p := range list {
		if p != path {
			out = append(out, p)
		}
	}
	return out
}

// Record is the serializable form of one (function, call_id) external-deps
// entry.
type Record struct {
	Function string
	CallID   int
	Srcs     []string
	Dsts     []string
}

// Snapshot returns a flattened copy of the index's state, for persistence.
func (idx *Index) Snapshot() []Record {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	out := make([]Record, 0, len(idx.deps))
	for k, d := range idx.deps {
		out = append(out, Record{
			Function: k.function,
			CallID:   k.callID,
			Srcs:     append([]string(nil), d.srcs...),
			Dsts:     append([]string(nil), d.dsts...),
		})
	}
	return out
}

// Restore replaces the index's state wholesale, for loading a snapshot.
func (idx *Index) Restore(records []Record) {
	table := make(map[key]deps, len(records))
	for _, rec := range records {
		table[key{rec.Function, rec.CallID}] = deps{
			srcs: append([]string(nil), rec.Srcs...),
			dsts: append([]string(nil), rec.Dsts...),
		}
	}
	idx.mu.Lock()
	idx.deps = table
	idx.mu.Unlock()
}
