package filereg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestProbeFirstTimeIsChanged(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	writeFile(t, p, "hello")

	r := New(time.Millisecond)
	_, changed, err := r.Probe(p)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestProbeUnchangedContentNotDirty(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	writeFile(t, p, "hello")

	r := New(time.Millisecond)
	d1, _, err := r.Probe(p)
	require.NoError(t, err)

	// Let the grace window lapse so the second probe can take the fast
	// (mtime-only) path.
	time.Sleep(5 * time.Millisecond)
	d2, changed, err := r.Probe(p)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, d1, d2)
}

func TestProbeChangedContentIsDirty(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	writeFile(t, p, "hello")

	r := New(time.Millisecond)
	_, _, err := r.Probe(p)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	writeFile(t, p, "goodbye")
	_, changed, err := r.Probe(p)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestProbeMissingFileErrors(t *testing.T) {
	r := New(DefaultGrace)
	_, _, err := r.Probe(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestClearForcesFirstTimeSemantics(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	writeFile(t, p, "hello")

	r := New(time.Millisecond)
	_, _, err := r.Probe(p)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, changed, err := r.Probe(p)
	require.NoError(t, err)
	require.False(t, changed)

	r.Clear(p)
	_, changed, err = r.Probe(p)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	writeFile(t, p, "hello")

	r := New(time.Millisecond)
	d, _, err := r.Probe(p)
	require.NoError(t, err)

	snap := r.Snapshot()
	require.Contains(t, snap, p)
	assert.Equal(t, d, snap[p].Digest)

	r2 := New(time.Millisecond)
	r2.Restore(snap)
	snap2 := r2.Snapshot()
	assert.Equal(t, snap, snap2)
}
