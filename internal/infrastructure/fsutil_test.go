package infrastructure

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()

	first := uniquePath(dir, "clip.mp4")
	assert.Equal(t, filepath.Join(dir, "clip.mp4"), first)

	require.NoError(t, os.WriteFile(first, []byte("x"), 0644))
	second := uniquePath(dir, "clip.mp4")
	assert.Equal(t, filepath.Join(dir, "clip_1.mp4"), second)

	require.NoError(t, os.WriteFile(second, []byte("x"), 0644))
	assert.Equal(t, filepath.Join(dir, "clip_2.mp4"), uniquePath(dir, "clip.mp4"))
}

func TestFileSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 42), 0644))

	assert.Equal(t, int64(42), fileSize(path))
	assert.Equal(t, int64(-1), fileSize(filepath.Join(dir, "missing")))
	assert.Equal(t, int64(-1), fileSize(dir))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, ensureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
