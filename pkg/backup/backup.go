package backup

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/arthur-debert/mcenv/pkg/archive"
	"github.com/arthur-debert/mcenv/pkg/errors"
	"github.com/arthur-debert/mcenv/pkg/filesync"
	"github.com/arthur-debert/mcenv/pkg/logging"
	"github.com/arthur-debert/mcenv/pkg/modpack"
	"github.com/arthur-debert/mcenv/pkg/types"
	"github.com/rs/zerolog"
)

const (
	// TimestampLayout formats the leading part of every backup name
	TimestampLayout = "20060102 150405"

	nameSuffix   = " backup"
	archiveExt   = ".zip"
	maxNameTries = 1000
)

// Record describes one backup archive
type Record struct {
	Timestamp   time.Time
	DisplayName string
	ArchivePath string
}

// Creator snapshots the game directory's content slots into a backup archive
type Creator struct {
	fs        types.FS
	engine    *filesync.Engine
	archiver  *archive.Handler
	gameDir   string
	tmpDir    string
	backupDir string
	now       func() time.Time
	logger    zerolog.Logger
}

// Option customizes a Creator
type Option func(*Creator)

// WithClock replaces time.Now as the source of backup timestamps
func WithClock(now func() time.Time) Option {
	return func(c *Creator) { c.now = now }
}

// NewCreator creates a Creator. Staging happens under tmpDir and archives
// end up in backupDir.
func NewCreator(fsys types.FS, gameDir, tmpDir, backupDir string, opts ...Option) *Creator {
	c := &Creator{
		fs:        fsys,
		engine:    filesync.New(fsys),
		archiver:  archive.NewHandler(fsys),
		gameDir:   gameDir,
		tmpDir:    tmpDir,
		backupDir: backupDir,
		now:       time.Now,
		logger:    logging.GetLogger("backup"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create snapshots every content slot of the game directory. Slots missing
// from the game directory are stored as empty directories so a restore
// clears them; a missing options.txt is left out. Any failure is reported
// as ErrBackupFailed and no partial archive is kept.
func (c *Creator) Create(ctx context.Context) (Record, error) {
	stamp := c.now()
	name := stamp.Format(TimestampLayout) + nameSuffix
	staging := filepath.Join(c.tmpDir, name)
	tmpZip := staging + archiveExt

	logger := c.logger.With().Str("backup", name).Logger()
	logger.Info().Msg("Creating backup")

	record, err := c.create(ctx, stamp, name, staging, tmpZip)
	if rmErr := c.engine.Remove(staging); rmErr != nil {
		logger.Warn().Err(rmErr).Str("path", staging).Msg("Failed to remove backup staging directory")
	}
	if err != nil {
		if rmErr := c.engine.Remove(tmpZip); rmErr != nil {
			logger.Warn().Err(rmErr).Str("path", tmpZip).Msg("Failed to remove partial backup archive")
		}
		if errors.IsErrorCode(err, errors.ErrBackupFailed) {
			return Record{}, err
		}
		return Record{}, errors.Wrapf(err, errors.ErrBackupFailed, "failed to create backup %q", name)
	}

	logger.Info().Str("archive", record.ArchivePath).Msg("Backup created")
	return record, nil
}

func (c *Creator) create(ctx context.Context, stamp time.Time, name, staging, tmpZip string) (Record, error) {
	for _, dir := range []string{c.tmpDir, c.backupDir} {
		if err := c.engine.EnsureDir(dir); err != nil {
			return Record{}, err
		}
	}
	if err := c.engine.Remove(staging); err != nil {
		return Record{}, err
	}
	if err := c.engine.EnsureDir(staging); err != nil {
		return Record{}, err
	}

	manifest := &modpack.Manifest{Name: name, Kind: modpack.KindBackup}
	data, err := manifest.Encode()
	if err != nil {
		return Record{}, err
	}
	if err := c.fs.WriteFile(filepath.Join(staging, modpack.ManifestFile), data, 0644); err != nil {
		return Record{}, errors.Wrap(err, errors.ErrBackupFailed, "cannot write backup manifest")
	}

	for _, slot := range modpack.Slots {
		if err := ctx.Err(); err != nil {
			return Record{}, errors.Wrap(err, errors.ErrBackupFailed, "backup cancelled")
		}

		src := filepath.Join(c.gameDir, slot.Path())
		dest := filepath.Join(staging, slot.Path())

		if c.engine.PathExists(src) {
			c.logger.Debug().Str("slot", slot.String()).Msg("Copying slot into backup")
			if err := c.engine.Copy(src, dest); err != nil {
				return Record{}, errors.Wrapf(err, errors.ErrBackupFailed, "cannot copy %s into backup", slot)
			}
			continue
		}

		if slot.IsDir() {
			c.logger.Debug().Str("slot", slot.String()).Msg("Slot absent, recording empty directory")
			if err := c.engine.EnsureDir(dest); err != nil {
				return Record{}, errors.Wrapf(err, errors.ErrBackupFailed, "cannot create placeholder for %s", slot)
			}
		}
	}

	if err := c.archiver.ZipDirectory(staging, tmpZip); err != nil {
		return Record{}, errors.Wrap(err, errors.ErrBackupFailed, "cannot compress backup")
	}

	final, err := c.availablePath(name)
	if err != nil {
		return Record{}, err
	}
	if err := c.move(tmpZip, final); err != nil {
		return Record{}, err
	}

	return Record{
		Timestamp:   stamp,
		DisplayName: name,
		ArchivePath: final,
	}, nil
}

// availablePath returns the first unused archive path for name, adding
// " (2)", " (3)" and so on when needed.
func (c *Creator) availablePath(name string) (string, error) {
	candidate := filepath.Join(c.backupDir, name+archiveExt)
	for i := 2; c.engine.PathExists(candidate); i++ {
		if i > maxNameTries {
			return "", errors.Newf(errors.ErrBackupFailed, "no free archive name for %q", name)
		}
		candidate = filepath.Join(c.backupDir, fmt.Sprintf("%s (%d)%s", name, i, archiveExt))
	}
	return candidate, nil
}

// move renames src to dest, falling back to copy and delete across devices
func (c *Creator) move(src, dest string) error {
	if err := c.fs.Rename(src, dest); err == nil {
		return nil
	}
	if err := c.engine.Copy(src, dest); err != nil {
		_ = c.engine.Remove(dest)
		return errors.Wrapf(err, errors.ErrBackupFailed, "cannot move backup to %s", dest)
	}
	if err := c.engine.Remove(src); err != nil {
		c.logger.Warn().Err(err).Str("path", src).Msg("Failed to remove moved backup source")
	}
	return nil
}
