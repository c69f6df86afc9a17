package callfiles

import (
	"testing"

	"github.com/fbuild-go/memo/digest"
	"github.com/stretchr/testify/assert"
)

func TestCheckUnknownCallIsDirty(t *testing.T) {
	idx := New()
	dirty, changed := idx.Check("compile", 0, map[string]digest.Digest{
		"a.c": digest.SumString("a"),
	})
	assert.True(t, dirty)
	assert.Len(t, changed, 1)
}

func TestCheckUnchangedIsClean(t *testing.T) {
	idx := New()
	actual := map[string]digest.Digest{"a.c": digest.SumString("a")}
	idx.Update("compile", 0, actual)

	dirty, changed := idx.Check("compile", 0, actual)
	assert.False(t, dirty)
	assert.Empty(t, changed)
}

func TestCheckChangedFileIsDirty(t *testing.T) {
	idx := New()
	idx.Update("compile", 0, map[string]digest.Digest{"a.c": digest.SumString("a")})

	dirty, changed := idx.Check("compile", 0, map[string]digest.Digest{"a.c": digest.SumString("b")})
	assert.True(t, dirty)
	assert.Equal(t, digest.SumString("b"), changed["a.c"])
}

func TestCheckNewFileAddedIsDirty(t *testing.T) {
	idx := New()
	idx.Update("compile", 0, map[string]digest.Digest{"a.c": digest.SumString("a")})

	dirty, changed := idx.Check("compile", 0, map[string]digest.Digest{
		"a.c": digest.SumString("a"),
		"b.c": digest.SumString("b"),
	})
	assert.True(t, dirty)
	assert.Contains(t, changed, "b.c")
	assert.NotContains(t, changed, "a.c")
}

func TestClearFunctionDropsAllItsCalls(t *testing.T) {
	idx := New()
	idx.Update("compile", 0, map[string]digest.Digest{"a.c": digest.SumString("a")})
	idx.Update("compile", 1, map[string]digest.Digest{"b.c": digest.SumString("b")})
	idx.ClearFunction("compile")

	dirty, _ := idx.Check("compile", 0, map[string]digest.Digest{"a.c": digest.SumString("a")})
	assert.True(t, dirty)
}

func TestClearFileScrubsEverywhere(t *testing.T) {
	idx := New()
	idx.Update("compile", 0, map[string]digest.Digest{"shared.h": digest.SumString("v1")})
	idx.Update("link", 0, map[string]digest.Digest{"shared.h": digest.SumString("v1")})

	idx.ClearFile("shared.h")

	dirty, _ := idx.Check("compile", 0, map[string]digest.Digest{"shared.h": digest.SumString("v1")})
	assert.True(t, dirty)
	dirty, _ = idx.Check("link", 0, map[string]digest.Digest{"shared.h": digest.SumString("v1")})
	assert.True(t, dirty)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	idx := New()
	idx.Update("compile", 0, map[string]digest.Digest{"a.c": digest.SumString("a")})

	snap := idx.Snapshot()
	idx2 := New()
	idx2.Restore(snap)

	dirty, _ := idx2.Check("compile", 0, map[string]digest.Digest{"a.c": digest.SumString("a")})
	assert.False(t, dirty)
}
