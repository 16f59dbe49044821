package filesync

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/mcenv/pkg/errors"
	"github.com/arthur-debert/mcenv/pkg/filesystem"
	"github.com/arthur-debert/mcenv/pkg/logging"
	"github.com/arthur-debert/mcenv/pkg/types"
	"github.com/arthur-debert/synthfs/pkg/synthfs"
	"github.com/rs/zerolog"
)

const (
	compareChunkSize  = 64 * 1024
	defaultDirPerm    = 0755
	ownerWritableFile = 0200
	ownerWritableDir  = 0700
)

// Engine performs the copy, replace and compare primitives used to apply
// content slots. All paths go through the injected FS; mutations run as
// synthfs operations over it.
type Engine struct {
	fs     types.FS
	sfs    synthfs.FullFileSystem
	synth  *synthfs.SynthFS
	logger zerolog.Logger
}

// New creates an Engine over the given filesystem
func New(fsys types.FS) *Engine {
	return &Engine{
		fs:     fsys,
		sfs:    filesystem.NewSynthFS(fsys),
		synth:  synthfs.New(),
		logger: logging.GetLogger("filesync"),
	}
}

// FS returns the filesystem the engine operates on
func (e *Engine) FS() types.FS {
	return e.fs
}

// PathExists reports whether path exists as a file or directory
func (e *Engine) PathExists(path string) bool {
	_, err := e.fs.Stat(path)
	return err == nil
}

// IsDirectory reports whether path is a directory.
// It returns an ErrNotFound error when nothing exists at path.
func (e *Engine) IsDirectory(path string) (bool, error) {
	info, err := e.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, errors.Newf(errors.ErrNotFound, "path does not exist: %s", path).
				WithDetail("path", path)
		}
		return false, errors.Wrapf(err, errors.ErrInternal, "cannot stat %s", path)
	}
	return info.IsDir(), nil
}

// EnsureDir creates path and its parents if needed
func (e *Engine) EnsureDir(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New(errors.ErrInvalidArgument, "path is empty")
	}
	if err := e.run(e.synth.CreateDir(path, defaultDirPerm)); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot create directory %s", path)
	}
	return nil
}

// EmptyDir removes every child of path, leaving path itself in place.
// A missing directory is not an error.
func (e *Engine) EmptyDir(path string) error {
	info, err := e.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, errors.ErrInternal, "cannot stat %s", path)
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := e.fs.ReadDir(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot read directory %s", path)
	}
	for _, entry := range entries {
		if err := e.Remove(filepath.Join(path, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes a file or a directory tree, clearing read-only bits first.
// A missing path is not an error.
func (e *Engine) Remove(path string) error {
	info, err := e.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, errors.ErrInternal, "cannot stat %s", path)
	}

	if err := e.makeTreeWritable(path, info); err != nil {
		return err
	}
	if err := e.run(e.synth.Delete(path)); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot remove %s", path)
	}
	// synthfs treats a failed file removal as already gone
	if e.PathExists(path) {
		return errors.Newf(errors.ErrInternal, "cannot remove %s", path).
			WithDetail("path", path)
	}
	return nil
}

// Copy copies src to dest. Directories are merged: files with the same
// relative path are overwritten, files only present in dest are kept.
func (e *Engine) Copy(src, dest string) error {
	isDir, err := e.IsDirectory(src)
	if err != nil {
		return err
	}
	if isDir {
		return e.copyDir(src, dest)
	}
	return e.copyFile(src, dest)
}

// Replace makes dest mirror src. A directory dest is emptied before the
// copy so no stale entries survive; a file dest is removed first.
func (e *Engine) Replace(src, dest string) error {
	isDir, err := e.IsDirectory(src)
	if err != nil {
		return err
	}

	if isDir {
		// dest may exist as a file from an older layout
		if e.PathExists(dest) {
			destIsDir, err := e.IsDirectory(dest)
			if err != nil {
				return err
			}
			if !destIsDir {
				if err := e.Remove(dest); err != nil {
					return err
				}
			}
		}
		if err := e.EnsureDir(dest); err != nil {
			return err
		}
		if err := e.EmptyDir(dest); err != nil {
			return err
		}
	} else {
		if err := e.Remove(dest); err != nil {
			return err
		}
	}

	e.logger.Debug().Str("src", src).Str("dest", dest).Msg("Replacing")
	return e.Copy(src, dest)
}

// Verify reports whether src and dest hold byte-identical content.
// Missing paths and file/directory mismatches yield false. The error is
// only set when reading content failed.
func (e *Engine) Verify(src, dest string) (bool, error) {
	srcInfo, err := e.fs.Stat(src)
	if err != nil {
		return false, nil
	}
	destInfo, err := e.fs.Stat(dest)
	if err != nil {
		return false, nil
	}

	if srcInfo.IsDir() != destInfo.IsDir() {
		return false, nil
	}

	if !srcInfo.IsDir() {
		return e.compareFiles(src, dest)
	}

	srcFiles, err := e.relativeFiles(src)
	if err != nil {
		return false, err
	}
	destFiles, err := e.relativeFiles(dest)
	if err != nil {
		return false, err
	}

	if len(srcFiles) != len(destFiles) {
		e.logger.Debug().
			Int("src", len(srcFiles)).
			Int("dest", len(destFiles)).
			Msg("File count differs")
		return false, nil
	}
	for i := range srcFiles {
		if srcFiles[i] != destFiles[i] {
			e.logger.Debug().Str("path", srcFiles[i]).Msg("File set differs")
			return false, nil
		}
	}

	for _, rel := range srcFiles {
		same, err := e.compareFiles(filepath.Join(src, rel), filepath.Join(dest, rel))
		if err != nil || !same {
			e.logger.Debug().Str("path", rel).Msg("File content differs")
			return false, err
		}
	}
	return true, nil
}

func (e *Engine) copyDir(src, dest string) error {
	if err := e.EnsureDir(dest); err != nil {
		return err
	}

	files, err := e.relativeFiles(src)
	if err != nil {
		return err
	}
	for _, rel := range files {
		if err := e.unlockTarget(filepath.Join(dest, filepath.FromSlash(rel))); err != nil {
			return err
		}
	}

	err = synthfs.NewCopyTreeBuilder(src, dest).
		FollowSymlinks().
		Execute(context.Background(), e.sfs)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot copy %s to %s", src, dest)
	}

	// CopyTree skips entries it cannot read instead of failing
	for _, rel := range files {
		target := filepath.Join(dest, filepath.FromSlash(rel))
		if !e.PathExists(target) {
			return errors.Newf(errors.ErrInternal, "cannot copy %s", filepath.Join(src, filepath.FromSlash(rel))).
				WithDetail("dest", target)
		}
	}
	return nil
}

func (e *Engine) copyFile(src, dest string) error {
	if err := e.unlockTarget(dest); err != nil {
		return err
	}
	if err := e.run(e.synth.Copy(src, dest)); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot copy %s to %s", src, dest)
	}
	return nil
}

// unlockTarget makes an existing file at dest writable so it can be
// overwritten. A directory in its place is an error.
func (e *Engine) unlockTarget(dest string) error {
	info, err := e.fs.Stat(dest)
	if err != nil {
		return nil
	}
	if info.IsDir() {
		return errors.Newf(errors.ErrInvalidArgument, "cannot overwrite directory %s with a file", dest)
	}
	return e.makeWritable(dest, info)
}

// run validates and executes a single synthfs operation
func (e *Engine) run(op synthfs.Operation) error {
	ctx := context.Background()
	if err := op.Validate(ctx, e.sfs); err != nil {
		return err
	}
	return op.Execute(ctx, e.sfs)
}

func (e *Engine) compareFiles(a, b string) (bool, error) {
	infoA, err := e.fs.Stat(a)
	if err != nil {
		return false, nil
	}
	infoB, err := e.fs.Stat(b)
	if err != nil {
		return false, nil
	}
	if infoA.IsDir() || infoB.IsDir() {
		return false, nil
	}
	if infoA.Size() != infoB.Size() {
		return false, nil
	}

	fa, err := e.fs.Open(a)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrInternal, "cannot open %s", a)
	}
	defer func() { _ = fa.Close() }()

	fb, err := e.fs.Open(b)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrInternal, "cannot open %s", b)
	}
	defer func() { _ = fb.Close() }()

	bufA := make([]byte, compareChunkSize)
	bufB := make([]byte, compareChunkSize)
	for {
		nA, errA := io.ReadFull(fa, bufA)
		nB, errB := io.ReadFull(fb, bufB)

		if nA != nB || !bytes.Equal(bufA[:nA], bufB[:nB]) {
			return false, nil
		}

		doneA := errA == io.EOF || errA == io.ErrUnexpectedEOF
		doneB := errB == io.EOF || errB == io.ErrUnexpectedEOF
		if errA != nil && !doneA {
			return false, errors.Wrapf(errA, errors.ErrInternal, "cannot read %s", a)
		}
		if errB != nil && !doneB {
			return false, errors.Wrapf(errB, errors.ErrInternal, "cannot read %s", b)
		}
		if doneA || doneB {
			return doneA == doneB, nil
		}
	}
}

// relativeFiles lists every regular file under root as a slash-separated
// relative path, sorted.
func (e *Engine) relativeFiles(root string) ([]string, error) {
	var files []string
	var walk func(dir, rel string) error
	walk = func(dir, rel string) error {
		entries, err := e.fs.ReadDir(dir)
		if err != nil {
			return errors.Wrapf(err, errors.ErrInternal, "cannot read directory %s", dir)
		}
		for _, entry := range entries {
			childRel := entry.Name()
			if rel != "" {
				childRel = rel + "/" + entry.Name()
			}
			if entry.IsDir() {
				if err := walk(filepath.Join(dir, entry.Name()), childRel); err != nil {
					return err
				}
				continue
			}
			files = append(files, childRel)
		}
		return nil
	}

	if err := walk(root, ""); err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func (e *Engine) makeWritable(path string, info fs.FileInfo) error {
	perm := info.Mode().Perm()
	want := perm | ownerWritableFile
	if info.IsDir() {
		want = perm | ownerWritableDir
	}
	if perm == want {
		return nil
	}
	if err := e.fs.Chmod(path, want); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot clear read-only flag on %s", path)
	}
	return nil
}

func (e *Engine) makeTreeWritable(path string, info fs.FileInfo) error {
	if err := e.makeWritable(path, info); err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := e.fs.ReadDir(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot read directory %s", path)
	}
	for _, entry := range entries {
		child := filepath.Join(path, entry.Name())
		childInfo, err := e.fs.Stat(child)
		if err != nil {
			// dangling symlinks have nothing to make writable
			continue
		}
		if err := e.makeTreeWritable(child, childInfo); err != nil {
			return err
		}
	}
	return nil
}
