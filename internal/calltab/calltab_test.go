package calltab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupMissingFunction(t *testing.T) {
	tb := New()
	_, _, found := tb.Lookup("compile", []byte("args"))
	assert.False(t, found)
}

func TestAppendOrReplaceFirstCallStartsAtZero(t *testing.T) {
	tb := New()
	id := tb.AppendOrReplace("compile", 7, true, []byte("a"), []byte("r1"))
	assert.Equal(t, 0, id, "a brand new function's call list always starts fresh at 0")

	callID, result, found := tb.Lookup("compile", []byte("a"))
	require.True(t, found)
	assert.Equal(t, 0, callID)
	assert.Equal(t, []byte("r1"), result)
}

func TestAppendOrReplaceAppendsNewArgs(t *testing.T) {
	tb := New()
	tb.AppendOrReplace("compile", 0, false, []byte("a"), []byte("r1"))
	id := tb.AppendOrReplace("compile", 0, false, []byte("b"), []byte("r2"))
	assert.Equal(t, 1, id)

	callID, result, found := tb.Lookup("compile", []byte("b"))
	require.True(t, found)
	assert.Equal(t, 1, callID)
	assert.Equal(t, []byte("r2"), result)
}

func TestAppendOrReplaceOverwritesByID(t *testing.T) {
	tb := New()
	tb.AppendOrReplace("compile", 0, false, []byte("a"), []byte("r1"))
	id := tb.AppendOrReplace("compile", 0, true, []byte("a"), []byte("r1-new"))
	assert.Equal(t, 0, id)

	rec, found := tb.At("compile", 0)
	require.True(t, found)
	assert.Equal(t, []byte("r1-new"), rec.Result)
}

func TestClearFunctionDropsHistory(t *testing.T) {
	tb := New()
	tb.AppendOrReplace("compile", 0, false, []byte("a"), []byte("r1"))
	tb.ClearFunction("compile")

	_, _, found := tb.Lookup("compile", []byte("a"))
	assert.False(t, found)

	id := tb.AppendOrReplace("compile", 5, true, []byte("a"), []byte("r2"))
	assert.Equal(t, 0, id, "cleared function starts a fresh call list at 0 regardless of stale call_id")
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	tb := New()
	tb.AppendOrReplace("compile", 0, false, []byte("a"), []byte("r1"))
	tb.AppendOrReplace("compile", 0, false, []byte("b"), []byte("r2"))

	snap := tb.Snapshot()
	tb2 := New()
	tb2.Restore(snap)
	assert.Equal(t, snap, tb2.Snapshot())
}
