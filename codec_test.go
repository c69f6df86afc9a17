package memo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codecSample struct {
	Name  string
	Count int
}

func TestGobEncodeDecodeRoundTrip(t *testing.T) {
	in := codecSample{Name: "a", Count: 3}
	data, err := gobEncode(in)
	require.NoError(t, err)

	var out codecSample
	require.NoError(t, gobDecode(data, &out))
	assert.Equal(t, in, out)
}

func TestAnyMissingAllPresent(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	_, missing := anyMissing([]string{p}, nil, []string{})
	assert.False(t, missing)
}

func TestAnyMissingDetectsGap(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(present, []byte("x"), 0o644))
	missingPath := filepath.Join(dir, "gone.txt")

	path, missing := anyMissing([]string{present}, []string{missingPath})
	assert.True(t, missing)
	assert.Equal(t, missingPath, path)
}
