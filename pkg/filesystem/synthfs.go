package filesystem

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/arthur-debert/mcenv/pkg/types"
	"github.com/arthur-debert/synthfs/pkg/synthfs"
)

// RootDir is the filesystem root synthfs resolves absolute paths against
func RootDir() string {
	root, err := filepath.Abs(string(filepath.Separator))
	if err != nil {
		return string(filepath.Separator)
	}
	return root
}

// NewSynthFS exposes a types.FS to synthfs operations. Paths are absolute,
// resolved through synthfs's path-aware wrapper the same way as the OS
// filesystem synthfs ships with.
func NewSynthFS(fsys types.FS) *synthfs.PathAwareFileSystem {
	root := RootDir()
	return synthfs.NewPathAwareFileSystem(&synthAdapter{fs: fsys, root: root}, root).WithAbsolutePaths()
}

// synthAdapter receives paths relative to root, as PathAwareFileSystem
// hands them down, and forwards them to the wrapped FS.
type synthAdapter struct {
	fs   types.FS
	root string
}

var _ synthfs.FullFileSystem = (*synthAdapter)(nil)

// errNoSymlinks is returned for symlink calls; types.FS has no link support
var errNoSymlinks = errors.New("symlinks are not supported")

func (a *synthAdapter) abs(name string) string {
	return filepath.Join(a.root, filepath.FromSlash(name))
}

func (a *synthAdapter) Open(name string) (fs.File, error) {
	path := a.abs(name)
	info, err := a.fs.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		entries, err := a.fs.ReadDir(path)
		if err != nil {
			return nil, err
		}
		return &dirHandle{info: info, entries: entries}, nil
	}
	return a.fs.Open(path)
}

func (a *synthAdapter) Stat(name string) (fs.FileInfo, error) {
	return a.fs.Stat(a.abs(name))
}

func (a *synthAdapter) ReadFile(name string) ([]byte, error) {
	return a.fs.ReadFile(a.abs(name))
}

func (a *synthAdapter) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return a.fs.WriteFile(a.abs(name), data, perm)
}

func (a *synthAdapter) MkdirAll(path string, perm fs.FileMode) error {
	return a.fs.MkdirAll(a.abs(path), perm)
}

func (a *synthAdapter) Remove(name string) error {
	return a.fs.Remove(a.abs(name))
}

func (a *synthAdapter) RemoveAll(name string) error {
	return a.fs.RemoveAll(a.abs(name))
}

func (a *synthAdapter) Rename(oldpath, newpath string) error {
	return a.fs.Rename(a.abs(oldpath), a.abs(newpath))
}

func (a *synthAdapter) Symlink(oldname, newname string) error {
	return &fs.PathError{Op: "symlink", Path: newname, Err: errNoSymlinks}
}

func (a *synthAdapter) Readlink(name string) (string, error) {
	return "", &fs.PathError{Op: "readlink", Path: name, Err: errNoSymlinks}
}

// dirHandle is the fs.ReadDirFile synthfs walks directories with
type dirHandle struct {
	info    fs.FileInfo
	entries []fs.DirEntry
	offset  int
}

func (d *dirHandle) Stat() (fs.FileInfo, error) { return d.info, nil }
func (d *dirHandle) Close() error               { return nil }

func (d *dirHandle) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.info.Name(), Err: fs.ErrInvalid}
}

func (d *dirHandle) ReadDir(n int) ([]fs.DirEntry, error) {
	rest := d.entries[d.offset:]
	if n <= 0 {
		d.offset = len(d.entries)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	if n > len(rest) {
		n = len(rest)
	}
	d.offset += n
	return rest[:n], nil
}
