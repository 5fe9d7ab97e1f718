package helpers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), 0o600))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(contents))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// Overwrite in place.
	require.NoError(t, WriteFileAtomic(path, []byte("second"), 0o600))

	contents, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(contents))

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "nope", "out.json"), []byte("x"), 0o600)
	assert.Error(t, err)
}
