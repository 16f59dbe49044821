package jdk

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/arthur-debert/mcenv/pkg/archive"
	"github.com/arthur-debert/mcenv/pkg/download"
	"github.com/arthur-debert/mcenv/pkg/errors"
	"github.com/arthur-debert/mcenv/pkg/filesync"
	"github.com/arthur-debert/mcenv/pkg/logging"
	"github.com/arthur-debert/mcenv/pkg/types"
	"github.com/rs/zerolog"
)

// Options configures where a Locator looks for java
type Options struct {
	// JavaPath is a previously resolved executable, tried first
	JavaPath string
	// RuntimeDir is where a bundled or downloaded runtime lives
	RuntimeDir string
	// TmpDir receives the downloaded archive
	TmpDir string
	// DownloadURL points at a zip of a runtime with one top-level folder
	DownloadURL  string
	AutoDownload bool
	// OnResolved is called with the chosen executable. Errors are logged.
	OnResolved func(javaPath string) error
}

// Locator finds a java executable, downloading a runtime as a last resort
type Locator struct {
	opts       Options
	fs         types.FS
	downloader *download.Client
	archiver   *archive.Handler
	engine     *filesync.Engine
	lookPath   func(string) (string, error)
	getenv     func(string) string
	searchDirs []string
	logger     zerolog.Logger
}

// NewLocator creates a Locator
func NewLocator(fsys types.FS, downloader *download.Client, opts Options) *Locator {
	return &Locator{
		opts:       opts,
		fs:         fsys,
		downloader: downloader,
		archiver:   archive.NewHandler(fsys),
		engine:     filesync.New(fsys),
		lookPath:   exec.LookPath,
		getenv:     os.Getenv,
		searchDirs: platformSearchGlobs(),
		logger:     logging.GetLogger("jdk"),
	}
}

// Locate returns the java executable to run loader installers with.
// Candidates are tried in order: the configured path, the bundled runtime,
// JAVA_HOME, PATH, well-known install directories, and finally a download.
func (l *Locator) Locate(ctx context.Context) (string, error) {
	javaPath, source := l.find()
	if javaPath == "" {
		if !l.opts.AutoDownload || l.opts.DownloadURL == "" {
			return "", errors.New(errors.ErrDependencyMissing, "no Java runtime found and automatic download is disabled")
		}
		path, err := l.install(ctx)
		if err != nil {
			return "", err
		}
		javaPath, source = path, "download"
	}

	l.logger.Info().Str("java", javaPath).Str("source", source).Msg("Using Java runtime")

	if l.opts.OnResolved != nil {
		if err := l.opts.OnResolved(javaPath); err != nil {
			l.logger.Warn().Err(err).Msg("Failed to remember Java runtime location")
		}
	}
	return javaPath, nil
}

func (l *Locator) find() (string, string) {
	if l.opts.JavaPath != "" && l.isFile(l.opts.JavaPath) {
		return l.opts.JavaPath, "config"
	}

	if l.opts.RuntimeDir != "" {
		if p := javaIn(l.opts.RuntimeDir); l.isFile(p) {
			return p, "bundled"
		}
	}

	if home := l.getenv("JAVA_HOME"); home != "" {
		if p := javaIn(home); l.isFile(p) {
			return p, "JAVA_HOME"
		}
	}

	if p, err := l.lookPath(javaExecutable()); err == nil {
		return p, "PATH"
	}

	for _, pattern := range l.searchDirs {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		// prefer the newest-looking directory name
		sort.Sort(sort.Reverse(sort.StringSlice(matches)))
		for _, home := range matches {
			l.logger.Debug().Str("dir", home).Msg("Checking for Java runtime")
			if p := javaIn(home); l.isFile(p) {
				return p, "system"
			}
		}
	}

	return "", ""
}

// install downloads the runtime archive and unpacks it into RuntimeDir,
// dropping the archive's top-level folder.
func (l *Locator) install(ctx context.Context) (string, error) {
	l.logger.Info().Str("url", l.opts.DownloadURL).Msg("No Java runtime found, downloading one")

	archivePath := filepath.Join(l.opts.TmpDir, "jdk.zip")
	if err := l.downloader.File(ctx, l.opts.DownloadURL, archivePath, ""); err != nil {
		return "", errors.Wrap(err, errors.ErrDependencyMissing, "cannot download Java runtime")
	}
	defer func() { _ = l.engine.Remove(archivePath) }()

	if err := l.engine.Remove(l.opts.RuntimeDir); err != nil {
		return "", errors.Wrap(err, errors.ErrDependencyMissing, "cannot clear previous Java runtime")
	}
	if err := l.archiver.Unzip(archivePath, l.opts.RuntimeDir, 1); err != nil {
		return "", errors.Wrap(err, errors.ErrDependencyMissing, "cannot unpack Java runtime")
	}

	javaPath := javaIn(l.opts.RuntimeDir)
	if !l.isFile(javaPath) {
		return "", errors.Newf(errors.ErrDependencyMissing, "downloaded runtime has no %s", javaPath).
			WithDetail("url", l.opts.DownloadURL)
	}
	if runtime.GOOS != "windows" {
		if err := l.fs.Chmod(javaPath, 0755); err != nil {
			return "", errors.Wrapf(err, errors.ErrDependencyMissing, "cannot make %s executable", javaPath)
		}
	}
	return javaPath, nil
}

func (l *Locator) isFile(path string) bool {
	info, err := l.fs.Stat(path)
	return err == nil && !info.IsDir()
}

func javaExecutable() string {
	if runtime.GOOS == "windows" {
		return "java.exe"
	}
	return "java"
}

func javaIn(home string) string {
	return filepath.Join(home, "bin", javaExecutable())
}

func platformSearchGlobs() []string {
	switch runtime.GOOS {
	case "windows":
		var globs []string
		for _, env := range []string{"ProgramFiles", "ProgramW6432"} {
			if dir := os.Getenv(env); dir != "" {
				globs = append(globs,
					filepath.Join(dir, "Java", "j*"),
					filepath.Join(dir, "Eclipse Adoptium", "j*"))
			}
		}
		return globs
	case "darwin":
		return []string{"/Library/Java/JavaVirtualMachines/*/Contents/Home"}
	default:
		return []string{"/usr/lib/jvm/*"}
	}
}
