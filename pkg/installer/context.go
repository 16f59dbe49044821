package installer

import (
	"context"
	"path/filepath"
	"time"

	"github.com/arthur-debert/mcenv/pkg/backup"
	"github.com/arthur-debert/mcenv/pkg/config"
	"github.com/arthur-debert/mcenv/pkg/modpack"
	"github.com/arthur-debert/mcenv/pkg/paths"
	"github.com/arthur-debert/mcenv/pkg/process"
	"github.com/arthur-debert/mcenv/pkg/types"
	"github.com/rs/zerolog"
)

// VersionInstaller makes a vanilla game version available in the game directory
type VersionInstaller interface {
	HasVersion(id string) bool
	InstallVersion(ctx context.Context, id string) error
}

// ProfileWriter edits the launcher's profile store
type ProfileWriter interface {
	EnsureProfileFile() error
	AddProfile(name, versionID string) (string, error)
}

// RuntimeLocator finds the java executable used to run loader installers
type RuntimeLocator interface {
	Locate(ctx context.Context) (string, error)
}

// ProcessRunner runs an external program to completion
type ProcessRunner interface {
	Run(ctx context.Context, executable string, args []string, timeout time.Duration) (process.Result, error)
}

// BackupCreator snapshots the game directory before it is modified
type BackupCreator interface {
	Create(ctx context.Context) (backup.Record, error)
}

// RunContext is everything one installer run needs. It is built once by the
// CLI and handed to New.
type RunContext struct {
	FS     types.FS
	Paths  paths.Paths
	Config *config.Config
	Logger zerolog.Logger

	Versions VersionInstaller
	Profiles ProfileWriter
	Runtime  RuntimeLocator
	Runner   ProcessRunner
	Backups  BackupCreator

	// OnStage, when set, is called as each stage begins
	OnStage func(Stage)
}

// Context locates one run's extracted archive and its destination
type Context struct {
	ArchivePath string
	ExtractRoot string
	DestRoot    string
}

// Source is the slot's path inside the extracted archive
func (c Context) Source(s modpack.Slot) string {
	return filepath.Join(c.ExtractRoot, filepath.FromSlash(s.Path()))
}

// Dest is the slot's path inside the game directory
func (c Context) Dest(s modpack.Slot) string {
	return filepath.Join(c.DestRoot, filepath.FromSlash(s.Path()))
}

// LoaderInstaller is the loader installer jar's path inside the extracted archive
func (c Context) LoaderInstaller() string {
	return filepath.Join(c.ExtractRoot, modpack.LoaderInstallerFile)
}
