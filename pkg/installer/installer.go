package installer

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/mcenv/pkg/archive"
	"github.com/arthur-debert/mcenv/pkg/backup"
	"github.com/arthur-debert/mcenv/pkg/errors"
	"github.com/arthur-debert/mcenv/pkg/filesync"
	"github.com/arthur-debert/mcenv/pkg/logging"
	"github.com/arthur-debert/mcenv/pkg/modpack"
	"github.com/arthur-debert/mcenv/pkg/paths"
	"github.com/arthur-debert/mcenv/pkg/process"
	"github.com/rs/zerolog"
)

// loaderInstallFlag follows "-jar <installer>" on the java command line. It
// takes the target directory as an optional value.
const loaderInstallFlag = "--install-client"

// Result summarizes a successful run
type Result struct {
	// Kind is KindInstall for a modpack install and KindBackup for a restore
	Kind modpack.Kind
	Name string
	// VersionID is the version the launcher profile starts
	VersionID string
	// Backup is the snapshot taken before installing; nil for restores
	Backup          *backup.Record
	Applied         []modpack.Slot
	Skipped         []modpack.Slot
	LoaderInstalled bool
	ProfileID       string
	// CleanupErr is set when the temporary files could not be removed
	CleanupErr error
}

// Installer runs the install pipeline for one archive at a time
type Installer struct {
	rc       *RunContext
	engine   *filesync.Engine
	archiver *archive.Handler
	logger   zerolog.Logger
	stage    Stage
}

// New creates an Installer
func New(rc *RunContext) *Installer {
	return &Installer{
		rc:       rc,
		engine:   filesync.New(rc.FS),
		archiver: archive.NewHandler(rc.FS),
		logger:   rc.Logger,
	}
}

// Stage returns the stage the last run reached
func (i *Installer) Stage() Stage {
	return i.stage
}

// Run installs or restores the archive at archivePath, depending on its
// manifest. Errors are *StageError values wrapping a coded error.
func (i *Installer) Run(ctx context.Context, archivePath string) (*Result, error) {
	done := logging.LogOperationStart(i.logger, "install")
	defer done()

	ic, err := i.preflight(archivePath)
	if err != nil {
		return nil, i.fail(err)
	}

	result, err := i.run(ctx, ic)
	cleanupErr := i.cleanup()
	if err != nil {
		return nil, i.fail(err)
	}
	result.CleanupErr = cleanupErr
	return result, nil
}

func (i *Installer) run(ctx context.Context, ic Context) (*Result, error) {
	i.enter(StageUnpack)
	if err := i.archiver.Unzip(ic.ArchivePath, ic.ExtractRoot, 0); err != nil {
		return nil, wrapAs(err, errors.ErrInputInvalid, "cannot extract the archive")
	}

	i.enter(StageManifest)
	manifest, err := modpack.LoadManifest(i.rc.FS, ic.ExtractRoot)
	if err != nil {
		return nil, err
	}
	if manifest.Name == "" {
		i.logger.Warn().Msgf("Modpack has no name, using %q", modpack.UnnamedModpack)
	}
	i.logger.Info().
		Str("name", manifest.DisplayName()).
		Str("type", string(manifest.Kind)).
		Str("version", manifest.GameVersion).
		Str("loader", manifest.ModLoaderName).
		Msg("Manifest loaded")

	if manifest.IsBackup() {
		return i.restore(ic, manifest)
	}
	return i.install(ctx, ic, manifest)
}

// restore puts a backup archive's slots back without touching anything else
func (i *Installer) restore(ic Context, manifest *modpack.Manifest) (*Result, error) {
	i.enter(StageRestore)
	result := &Result{Kind: modpack.KindBackup, Name: manifest.DisplayName()}

	applied, skipped, err := i.applySlots(ic)
	if err != nil {
		return nil, err
	}
	result.Applied, result.Skipped = applied, skipped
	return result, nil
}

func (i *Installer) install(ctx context.Context, ic Context, manifest *modpack.Manifest) (*Result, error) {
	result := &Result{
		Kind:      modpack.KindInstall,
		Name:      manifest.DisplayName(),
		VersionID: manifest.GameVersion,
	}

	i.enter(StageGameVersion)
	if err := i.ensureGameVersion(ctx, manifest.GameVersion); err != nil {
		return nil, err
	}

	i.enter(StageBackup)
	record, err := i.rc.Backups.Create(ctx)
	if err != nil {
		return nil, wrapAs(err, errors.ErrBackupFailed, "cannot back up the game directory")
	}
	result.Backup = &record

	i.enter(StageModLoader)
	if manifest.HasModLoader() {
		if !i.engine.PathExists(ic.LoaderInstaller()) {
			i.logger.Warn().
				Str("loader", manifest.ModLoaderName).
				Msgf("Manifest names a mod loader but the archive has no %s, skipping it", modpack.LoaderInstallerFile)
		} else {
			installed, err := i.ensureModLoader(ctx, ic, manifest.ModLoaderName)
			if err != nil {
				return nil, err
			}
			result.LoaderInstalled = installed
			result.VersionID = manifest.ModLoaderName
		}
	}

	i.enter(StageApply)
	applied, skipped, err := i.applySlots(ic)
	if err != nil {
		return nil, err
	}
	result.Applied, result.Skipped = applied, skipped

	i.enter(StageVerify)
	if err := i.verifySlots(ic); err != nil {
		return nil, err
	}

	i.enter(StageProfile)
	id, err := i.rc.Profiles.AddProfile(result.Name, result.VersionID)
	if err != nil {
		return nil, wrapAs(err, errors.ErrProfileUpdateFailed, "cannot add launcher profile")
	}
	result.ProfileID = id

	return result, nil
}

func (i *Installer) preflight(archivePath string) (Context, error) {
	i.enter(StagePreflight)

	if strings.TrimSpace(archivePath) == "" {
		return Context{}, errors.New(errors.ErrInputInvalid, "no archive given")
	}
	abs, err := filepath.Abs(archivePath)
	if err != nil {
		return Context{}, errors.Wrapf(err, errors.ErrInputInvalid, "cannot resolve %s", archivePath)
	}
	if !i.engine.PathExists(abs) {
		return Context{}, errors.Newf(errors.ErrInputInvalid, "%s does not exist", archivePath).
			WithDetail("path", abs)
	}
	if isDir, err := i.engine.IsDirectory(abs); err != nil || isDir {
		return Context{}, errors.Newf(errors.ErrInputInvalid, "%s is not an archive file", archivePath).
			WithDetail("path", abs)
	}
	if !i.archiver.VerifyZip(abs) {
		return Context{}, errors.Newf(errors.ErrInputInvalid, "%s is not a readable zip archive", archivePath).
			WithDetail("path", abs)
	}

	tmp := i.rc.Paths.TmpDir()
	if err := i.engine.EnsureDir(tmp); err != nil {
		return Context{}, wrapAs(err, errors.ErrInternal, "cannot create the temporary directory")
	}
	if err := i.engine.EmptyDir(tmp); err != nil {
		return Context{}, wrapAs(err, errors.ErrInternal, "cannot clear the temporary directory")
	}

	ic := Context{
		ArchivePath: abs,
		ExtractRoot: i.rc.Paths.ModpackDir(),
		DestRoot:    i.rc.Paths.GameDir(),
	}
	i.logger.Debug().
		Str("archive", ic.ArchivePath).
		Str("extractRoot", ic.ExtractRoot).
		Str("gameDir", ic.DestRoot).
		Msg("Preflight passed")
	return ic, nil
}

func (i *Installer) ensureGameVersion(ctx context.Context, id string) error {
	if i.rc.Versions.HasVersion(id) {
		i.logger.Info().Str("version", id).Msg("Game version already installed")
		return nil
	}
	if err := i.rc.Versions.InstallVersion(ctx, id); err != nil {
		return wrapAs(err, errors.ErrVersionInstallFailed, "cannot install game version "+id)
	}
	return nil
}

// ensureModLoader runs the loader installer unless the loader version is
// already registered. It reports whether the installer ran.
func (i *Installer) ensureModLoader(ctx context.Context, ic Context, name string) (bool, error) {
	descriptor := i.rc.Paths.VersionDescriptorPath(name)
	logger := i.logger.With().Str("loader", name).Logger()

	if i.engine.PathExists(descriptor) {
		logger.Info().Msg("Mod loader already installed")
		return false, nil
	}

	if err := i.rc.Profiles.EnsureProfileFile(); err != nil {
		return false, wrapAs(err, errors.ErrModLoaderProcess, "cannot prepare launcher profiles for the mod loader installer")
	}

	java, err := i.rc.Runtime.Locate(ctx)
	if err != nil {
		return false, wrapAs(err, errors.ErrDependencyMissing, "no Java runtime for the mod loader installer")
	}

	args := []string{"-jar", ic.LoaderInstaller(), loaderInstallFlag}
	if !isDefaultGameDir(ic.DestRoot) {
		args = append(args, ic.DestRoot)
	}
	logger.Info().Str("java", java).Msg("Running mod loader installer")

	res, err := i.rc.Runner.Run(ctx, java, args, i.rc.Config.Install.LoaderTimeout)
	if err != nil {
		if errors.IsErrorCode(err, errors.ErrTimeout) {
			return false, err
		}
		return false, errors.Wrap(err, errors.ErrModLoaderProcess, "mod loader installer did not run").
			WithDetail("loader", name)
	}
	if res.ExitCode != 0 {
		logger.Warn().
			Int("exitCode", res.ExitCode).
			Str("stderr", res.Stderr).
			Msg("Mod loader installer exited with an error")
	}

	if !i.engine.PathExists(descriptor) {
		return false, errors.Newf(errors.ErrModLoaderInstallFailed, "mod loader %s was not installed", name).
			WithDetail("descriptor", descriptor).
			WithDetail("exitCode", res.ExitCode)
	}
	logger.Info().Msg("Mod loader installed")
	return true, nil
}

// applySlots replaces every slot present in the archive
func (i *Installer) applySlots(ic Context) ([]modpack.Slot, []modpack.Slot, error) {
	var applied, skipped []modpack.Slot
	for _, slot := range modpack.Slots {
		src := ic.Source(slot)
		if !i.engine.PathExists(src) {
			skipped = append(skipped, slot)
			continue
		}

		if err := i.checkKind(slot, src); err != nil {
			return nil, nil, err
		}
		if err := i.engine.Replace(src, ic.Dest(slot)); err != nil {
			return nil, nil, wrapAs(err, errors.ErrApplyFailed, "cannot apply "+slot.String()).
				WithDetail("slot", slot.String())
		}
		i.logger.Info().Str("slot", slot.String()).Msg("Applied")
		applied = append(applied, slot)
	}
	return applied, skipped, nil
}

func (i *Installer) checkKind(slot modpack.Slot, src string) error {
	isDir, err := i.engine.IsDirectory(src)
	if err != nil {
		return wrapAs(err, errors.ErrApplyFailed, "cannot inspect "+slot.String())
	}
	if isDir != slot.IsDir() {
		return errors.Newf(errors.ErrApplyFailed, "archive entry %s has the wrong type", slot).
			WithDetail("slot", slot.String())
	}
	return nil
}

// verifySlots checks that every slot shipped in the archive now matches it
// exactly. Slots absent from the archive are satisfied.
func (i *Installer) verifySlots(ic Context) error {
	for _, slot := range modpack.Slots {
		src := ic.Source(slot)
		if !i.engine.PathExists(src) {
			continue
		}
		same, err := i.engine.Verify(src, ic.Dest(slot))
		if err != nil {
			return errors.Wrap(err, errors.ErrVerifyFailed, slot.FailureMessage()).
				WithDetail("slot", slot.String())
		}
		if !same {
			return errors.New(errors.ErrVerifyFailed, slot.FailureMessage()).
				WithDetail("slot", slot.String())
		}
		i.logger.Debug().Str("slot", slot.String()).Msg("Verified")
	}
	return nil
}

// cleanup removes the temporary tree. Failure only warns.
func (i *Installer) cleanup() error {
	prev := i.stage
	i.enter(StageCleanup)
	defer func() { i.stage = prev }()

	if err := i.engine.Remove(i.rc.Paths.TmpDir()); err != nil {
		i.logger.Warn().Err(err).Str("path", i.rc.Paths.TmpDir()).Msg("Could not remove temporary files")
		return err
	}
	return nil
}

// isDefaultGameDir reports whether dir is the launcher's standard location,
// where the loader installer writes when given no target
func isDefaultGameDir(dir string) bool {
	def, err := paths.DefaultGameDir()
	if err != nil {
		return false
	}
	return filepath.Clean(def) == filepath.Clean(dir)
}

func (i *Installer) enter(stage Stage) {
	i.stage = stage
	i.logger.Debug().Str("stage", stage.String()).Msg("Stage")
	if i.rc.OnStage != nil {
		i.rc.OnStage(stage)
	}
}

func (i *Installer) fail(err error) error {
	i.logger.Error().Err(err).Str("stage", i.stage.String()).Msg("Run failed")
	return &StageError{Stage: i.stage, Err: err}
}

// wrapAs keeps err when it already carries code and wraps it otherwise
func wrapAs(err error, code errors.ErrorCode, message string) *errors.Error {
	var coded *errors.Error
	if stderrors.As(err, &coded) && coded.Code == code {
		return coded
	}
	return errors.Wrap(err, code, message)
}

var _ ProcessRunner = (*process.Runner)(nil)
