package ctxpack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.txt")
	require.NoError(t, WriteText(path, "hello"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	require.NoError(t, os.Chmod(path, 0o600))
	require.NoError(t, WriteText(path, "again"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteTextFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "context.txt")
	err := WriteText(path, "x")
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Contains(t, err.Error(), path)
}

func TestIsDocument(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"doc.txt":   Aggregate([]FileEntry{{RelativePath: "a", Content: "b"}}),
		"other.txt": "PROJECT",
	})

	ok, err := IsDocument(filepath.Join(dir, "doc.txt"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = IsDocument(filepath.Join(dir, "other.txt"))
	require.NoError(t, err)
	require.False(t, ok)

	_, err = IsDocument(filepath.Join(dir, "absent.txt"))
	require.Error(t, err)
}

func TestIsDocumentReportsReadErrors(t *testing.T) {
	// Opening a directory succeeds but reading it does not.
	_, err := IsDocument(t.TempDir())
	require.Error(t, err)
}
