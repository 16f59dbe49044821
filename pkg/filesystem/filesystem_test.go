package filesystem

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/mcenv/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseFS(t *testing.T, fsys types.FS, root string) {
	t.Helper()

	testFile := filepath.Join(root, "test.txt")
	testContent := []byte("hello world")

	require.NoError(t, fsys.WriteFile(testFile, testContent, 0644))

	info, err := fsys.Stat(testFile)
	require.NoError(t, err)
	assert.Equal(t, "test.txt", info.Name())
	assert.Equal(t, int64(len(testContent)), info.Size())

	content, err := fsys.ReadFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, testContent, content)

	f, err := fsys.Open(testFile)
	require.NoError(t, err)
	buf := make([]byte, 5)
	_, err = f.ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "world", string(buf))
	require.NoError(t, f.Close())

	created := filepath.Join(root, "created.txt")
	w, err := fsys.Create(created)
	require.NoError(t, err)
	_, err = io.WriteString(w, "abc")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.NoError(t, fsys.MkdirAll(filepath.Join(root, "sub", "dir"), 0755))

	entries, err := fsys.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	moved := filepath.Join(root, "sub", "moved.txt")
	require.NoError(t, fsys.Rename(created, moved))
	_, err = fsys.Stat(created)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, fsys.Chmod(moved, 0444))
	require.NoError(t, fsys.Chmod(moved, 0644))

	require.NoError(t, fsys.Remove(testFile))
	_, err = fsys.Stat(testFile)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, fsys.RemoveAll(filepath.Join(root, "sub")))
	_, err = fsys.Stat(moved)
	assert.True(t, os.IsNotExist(err))
}

func TestNewOS(t *testing.T) {
	fsys := NewOS()
	assert.NotNil(t, fsys)
	exerciseFS(t, fsys, t.TempDir())
}

func TestNewMemory(t *testing.T) {
	fsys := NewMemory()
	require.NoError(t, fsys.MkdirAll("/work", 0755))
	exerciseFS(t, fsys, "/work")

	require.NoError(t, fsys.MkdirAll("/work/dir", 0755))
	_, err := fsys.ReadFile("/work/dir")
	assert.Error(t, err, "reading a directory should fail")
}
