// Package calltab is the Call Table: for each function, the append-only list
// of (bound arguments, result) pairs produced by every call to it that has
// ever been cached. A call's identity is its function name plus a dense
// call_id, the index of its record within that function's list.
package calltab

import (
	"bytes"
	"sync"
)

// Record is one cached call: the gob-encoded bound arguments that produced
// result, also gob-encoded. Both are opaque to this package; only the
// generic frontend that knows the concrete argument/result types decodes
// them.
type Record struct {
	Bound  []byte
	Result []byte
}

// Table is the Call Table. Like the other registries it expects a single
// serialized owner.
type Table struct {
	mu    sync.Mutex
	calls map[string][]Record
}

// New creates an empty table.
func New() *Table {
	return &Table{calls: make(map[string][]Record)}
}

// Lookup scans function's call list for a record whose bound arguments match
// bound byte-for-byte, returning its call_id, stored result, and whether a
// match was found.
func (t *Table) Lookup(function string, bound []byte) (callID int, result []byte, found bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, rec := range t.calls[function] {
		if bytes.Equal(rec.Bound, bound) {
			return i, rec.Result, true
		}
	}
	return 0, nil, false
}

// At returns the record stored at call_id for function, if any.
func (t *Table) At(function string, callID int) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	list := t.calls[function]
	if callID < 0 || callID >= len(list) {
		return Record{}, false
	}
	return list[callID], true
}

// AppendOrReplace stores (bound, result) as a call of function. If callID
// names a valid existing index in function's list, that record is
// overwritten in place and callID is returned unchanged. Otherwise a new
// record is appended and its (newly assigned) call_id is returned.
//
// A callID carried over from before the function's whole history was
// cleared is not trusted: if function currently has no call list at all,
// this always starts a fresh one at call_id 0, regardless of what callID
// was passed in.
func (t *Table) AppendOrReplace(function string, callID int, haveCallID bool, bound, result []byte) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	list, exists := t.calls[function]
	if !exists {
		t.calls[function] = []Record{{Bound: bound, Result: result}}
		return 0
	}

	if haveCallID && callID >= 0 && callID < len(list) {
		list[callID] = Record{Bound: bound, Result: result}
		t.calls[function] = list
		return callID
	}

	list = append(list, Record{Bound: bound, Result: result})
	t.calls[function] = list
	return len(list) - 1
}

// ClearFunction drops function's entire call list.
func (t *Table) ClearFunction(function string) {
	t.mu.Lock()
	delete(t.calls, function)
	t.mu.Unlock()
}

// Snapshot returns a deep copy of the table's state, for persistence.
func (t *Table) Snapshot() map[string][]Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string][]Record, len(t.calls))
	for fn, list := range t.calls {
		cp := make([]Record, len(list))
		copy(cp, list)
		out[fn] = cp
	}
	return out
}

// Restore replaces the table's state wholesale, for loading a snapshot.
func (t *Table) Restore(state map[string][]Record) {
	calls := make(map[string][]Record, len(state))
	for fn, list := range state {
		cp := make([]Record, len(list))
		copy(cp, list)
		calls[fn] = cp
	}
	t.mu.Lock()
	t.calls = calls
	t.mu.Unlock()
}
