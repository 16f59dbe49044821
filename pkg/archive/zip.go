package archive

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/mcenv/pkg/errors"
	"github.com/arthur-debert/mcenv/pkg/logging"
	"github.com/arthur-debert/mcenv/pkg/types"
	"github.com/klauspost/compress/flate"
	"github.com/rs/zerolog"
)

const defaultDirPerm = 0755

// Handler reads and writes zip archives through a types.FS
type Handler struct {
	fs     types.FS
	logger zerolog.Logger
}

// NewHandler creates a zip handler over fsys
func NewHandler(fsys types.FS) *Handler {
	return &Handler{
		fs:     fsys,
		logger: logging.GetLogger("archive"),
	}
}

// Unzip extracts archivePath into destDir. When strip is positive the
// leading strip path segments of every entry are dropped and entries left
// with nothing are skipped.
func (h *Handler) Unzip(archivePath, destDir string, strip int) error {
	if strip < 0 {
		return errors.Newf(errors.ErrInvalidArgument, "strip must not be negative, got %d", strip)
	}

	reader, closer, err := h.openReader(archivePath)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	if err := h.fs.MkdirAll(destDir, defaultDirPerm); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot create destination %s", destDir)
	}

	extracted := 0
	for _, file := range reader.File {
		name, ok := stripSegments(file.Name, strip)
		if !ok {
			continue
		}

		target, err := validateExtractPath(destDir, name)
		if err != nil {
			return err
		}

		if strings.HasSuffix(name, "/") || file.FileInfo().IsDir() {
			if err := h.fs.MkdirAll(target, defaultDirPerm); err != nil {
				return errors.Wrapf(err, errors.ErrInternal, "cannot create directory %s", target)
			}
			continue
		}

		if err := h.extractFile(file, target); err != nil {
			return err
		}
		extracted++
	}

	h.logger.Debug().
		Str("archive", archivePath).
		Str("dest", destDir).
		Int("files", extracted).
		Msg("Archive extracted")
	return nil
}

// VerifyZip reports whether path opens as a zip archive whose first entry
// can be opened. It is a quick probe; entry checksums are not validated.
func (h *Handler) VerifyZip(archivePath string) bool {
	reader, closer, err := h.openReader(archivePath)
	if err != nil {
		h.logger.Debug().Err(err).Str("archive", archivePath).Msg("Not a readable zip")
		return false
	}
	defer func() { _ = closer.Close() }()

	if len(reader.File) == 0 {
		return true
	}
	rc, err := reader.File[0].Open()
	if err != nil {
		h.logger.Debug().Err(err).Str("archive", archivePath).Msg("First entry unreadable")
		return false
	}
	_ = rc.Close()
	return true
}

// ZipDirectory writes the contents of srcDir to destZip, overwriting any
// existing file. Directories are recorded as entries, so empty ones
// survive a round trip.
func (h *Handler) ZipDirectory(srcDir, destZip string) error {
	info, err := h.fs.Stat(srcDir)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Newf(errors.ErrNotFound, "source directory does not exist: %s", srcDir)
		}
		return errors.Wrapf(err, errors.ErrInternal, "cannot stat %s", srcDir)
	}
	if !info.IsDir() {
		return errors.Newf(errors.ErrInvalidArgument, "not a directory: %s", srcDir)
	}

	if err := h.fs.MkdirAll(filepath.Dir(destZip), defaultDirPerm); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot create directory for %s", destZip)
	}
	out, err := h.fs.Create(destZip)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot create %s", destZip)
	}

	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.DefaultCompression)
	})

	count, walkErr := h.addDir(zw, srcDir, "")
	closeErr := zw.Close()
	fileErr := out.Close()

	if walkErr != nil {
		return walkErr
	}
	if closeErr != nil {
		return errors.Wrapf(closeErr, errors.ErrInternal, "cannot finish archive %s", destZip)
	}
	if fileErr != nil {
		return errors.Wrapf(fileErr, errors.ErrInternal, "cannot close %s", destZip)
	}

	h.logger.Debug().Str("src", srcDir).Str("archive", destZip).Int("entries", count).Msg("Archive created")
	return nil
}

func (h *Handler) addDir(zw *zip.Writer, dir, prefix string) (int, error) {
	entries, err := h.fs.ReadDir(dir)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrInternal, "cannot read directory %s", dir)
	}

	count := 0
	for _, entry := range entries {
		fullPath := filepath.Join(dir, entry.Name())
		name := path.Join(prefix, entry.Name())

		info, err := h.fs.Stat(fullPath)
		if err != nil {
			return count, errors.Wrapf(err, errors.ErrInternal, "cannot stat %s", fullPath)
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return count, errors.Wrapf(err, errors.ErrInternal, "cannot build header for %s", fullPath)
		}

		if info.IsDir() {
			header.Name = name + "/"
			header.Method = zip.Store
			if _, err := zw.CreateHeader(header); err != nil {
				return count, errors.Wrapf(err, errors.ErrInternal, "cannot add directory %s", name)
			}
			count++
			n, err := h.addDir(zw, fullPath, name)
			count += n
			if err != nil {
				return count, err
			}
			continue
		}

		header.Name = name
		header.Method = zip.Deflate
		if err := h.addFile(zw, header, fullPath); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (h *Handler) addFile(zw *zip.Writer, header *zip.FileHeader, fullPath string) error {
	w, err := zw.CreateHeader(header)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot add %s", header.Name)
	}

	in, err := h.fs.Open(fullPath)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot open %s", fullPath)
	}
	defer func() { _ = in.Close() }()

	if _, err := io.Copy(w, in); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot compress %s", fullPath)
	}
	return nil
}

func (h *Handler) extractFile(file *zip.File, target string) error {
	if err := h.fs.MkdirAll(filepath.Dir(target), defaultDirPerm); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot create parent directory for %s", target)
	}

	rc, err := file.Open()
	if err != nil {
		return errors.Wrapf(err, errors.ErrInputInvalid, "cannot read entry %s", file.Name)
	}
	defer func() { _ = rc.Close() }()

	out, err := h.fs.Create(target)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot create %s", target)
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return errors.Wrapf(err, errors.ErrInputInvalid, "cannot extract entry %s", file.Name)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "cannot close %s", target)
	}
	return nil
}

// openReader opens archivePath as a zip using the klauspost inflater.
// The returned closer releases the underlying file.
func (h *Handler) openReader(archivePath string) (*zip.Reader, io.Closer, error) {
	info, err := h.fs.Stat(archivePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.Newf(errors.ErrNotFound, "archive does not exist: %s", archivePath).
				WithDetail("path", archivePath)
		}
		return nil, nil, errors.Wrapf(err, errors.ErrInternal, "cannot stat %s", archivePath)
	}
	if info.IsDir() {
		return nil, nil, errors.Newf(errors.ErrInputInvalid, "archive is a directory: %s", archivePath)
	}

	f, err := h.fs.Open(archivePath)
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.ErrInternal, "cannot open %s", archivePath)
	}

	reader, err := zip.NewReader(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, nil, errors.Wrapf(err, errors.ErrInputInvalid, "not a valid zip archive: %s", archivePath)
	}
	reader.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})
	return reader, f, nil
}

// stripSegments drops the first n slash-separated segments of name.
// ok is false when nothing is left.
func stripSegments(name string, n int) (string, bool) {
	name = strings.ReplaceAll(name, "\\", "/")
	if n == 0 {
		return name, strings.Trim(name, "/") != ""
	}

	isDir := strings.HasSuffix(name, "/")
	parts := strings.Split(strings.Trim(name, "/"), "/")
	if len(parts) <= n {
		return "", false
	}

	rest := strings.Join(parts[n:], "/")
	if isDir {
		rest += "/"
	}
	return rest, true
}
