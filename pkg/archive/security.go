package archive

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/mcenv/pkg/errors"
)

// validateExtractPath joins an entry name onto destDir and rejects names
// that would land outside it.
func validateExtractPath(destDir, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", errors.Newf(errors.ErrInputInvalid, "archive entry has an absolute path: %s", name).
			WithDetail("entry", name)
	}

	target := filepath.Join(destDir, filepath.FromSlash(name))
	cleanDest := filepath.Clean(destDir)
	cleanTarget := filepath.Clean(target)

	prefix := cleanDest
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}
	if cleanTarget != cleanDest && !strings.HasPrefix(cleanTarget, prefix) {
		return "", errors.Newf(errors.ErrInputInvalid, "archive entry escapes destination: %s", name).
			WithDetail("entry", name)
	}
	return target, nil
}
