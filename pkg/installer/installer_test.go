package installer_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arthur-debert/mcenv/pkg/backup"
	"github.com/arthur-debert/mcenv/pkg/config"
	"github.com/arthur-debert/mcenv/pkg/errors"
	"github.com/arthur-debert/mcenv/pkg/filesystem"
	"github.com/arthur-debert/mcenv/pkg/installer"
	"github.com/arthur-debert/mcenv/pkg/minecraft"
	"github.com/arthur-debert/mcenv/pkg/modpack"
	"github.com/arthur-debert/mcenv/pkg/paths"
	"github.com/arthur-debert/mcenv/pkg/process"
	"github.com/arthur-debert/mcenv/pkg/testutil"
	"github.com/arthur-debert/mcenv/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	gameVersion = "1.20.1"
	loaderName  = "1.20.1-forge-47.2.0"
	javaPath    = "/opt/java/bin/java"
)

type mockVersions struct{ mock.Mock }

func (m *mockVersions) HasVersion(id string) bool {
	return m.Called(id).Bool(0)
}

func (m *mockVersions) InstallVersion(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockRuntime struct{ mock.Mock }

func (m *mockRuntime) Locate(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type mockRunner struct{ mock.Mock }

func (m *mockRunner) Run(ctx context.Context, executable string, args []string, timeout time.Duration) (process.Result, error) {
	called := m.Called(ctx, executable, args, timeout)
	return called.Get(0).(process.Result), called.Error(1)
}

type mockBackups struct{ mock.Mock }

func (m *mockBackups) Create(ctx context.Context) (backup.Record, error) {
	args := m.Called(ctx)
	return args.Get(0).(backup.Record), args.Error(1)
}

// failingRemoveFS refuses to remove one directory tree
type failingRemoveFS struct {
	types.FS
	path string
}

func (f *failingRemoveFS) RemoveAll(path string) error {
	if filepath.Clean(path) == f.path {
		return &fs.PathError{Op: "removeall", Path: path, Err: fs.ErrPermission}
	}
	return f.FS.RemoveAll(path)
}

type fixture struct {
	root     string
	paths    paths.Paths
	versions *mockVersions
	runtime  *mockRuntime
	runner   *mockRunner
	stages   []installer.Stage
	rc       *installer.RunContext
	inst     *installer.Installer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureAt(t, func(root string) string { return filepath.Join(root, "game") })
}

// newFixtureAt builds a fixture whose game directory is chosen by gameDir
func newFixtureAt(t *testing.T, gameDir func(root string) string) *fixture {
	t.Helper()

	root := t.TempDir()
	t.Setenv(paths.EnvDataDir, filepath.Join(root, "data"))
	t.Setenv(paths.EnvConfigDir, filepath.Join(root, "config"))
	t.Setenv(paths.EnvStateDir, filepath.Join(root, "state"))

	p, err := paths.New(paths.Overrides{GameDir: gameDir(root)})
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(p.GameDir(), 0755))

	fsys := filesystem.NewOS()
	f := &fixture{
		root:     root,
		paths:    p,
		versions: &mockVersions{},
		runtime:  &mockRuntime{},
		runner:   &mockRunner{},
	}

	rc := &installer.RunContext{
		FS:       fsys,
		Paths:    p,
		Config:   &config.Config{Install: config.Install{LoaderTimeout: 30 * time.Second}},
		Versions: f.versions,
		Profiles: minecraft.NewProfileStore(fsys, p.GameDir(), p.GameDir(), ""),
		Runtime:  f.runtime,
		Runner:   f.runner,
		Backups:  backup.NewCreator(fsys, p.GameDir(), p.TmpDir(), p.BackupDir()),
		OnStage:  func(s installer.Stage) { f.stages = append(f.stages, s) },
	}
	f.rc = rc
	f.inst = installer.New(rc)
	return f
}

// rebuild picks up changes made to f.rc
func (f *fixture) rebuild() {
	f.inst = installer.New(f.rc)
}

func (f *fixture) archive(t *testing.T, entries map[string]string) string {
	t.Helper()
	return testutil.CreateZip(t, filepath.Join(f.root, "input", "pack.zip"), entries)
}

func (f *fixture) game(parts ...string) string {
	return filepath.Join(append([]string{f.paths.GameDir()}, parts...)...)
}

func (f *fixture) backups(t *testing.T) []backup.Record {
	t.Helper()
	records, err := backup.NewStore(filesystem.NewOS(), f.paths.BackupDir()).List()
	require.NoError(t, err)
	return records
}

func manifestJSON(t *testing.T, m modpack.Manifest) string {
	t.Helper()
	data, err := m.Encode()
	require.NoError(t, err)
	return string(data)
}

type profilesFile struct {
	Profiles        map[string]minecraft.Profile `json:"profiles"`
	SelectedProfile string                       `json:"selectedProfile"`
}

func readProfiles(t *testing.T, path string) profilesFile {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var pf profilesFile
	require.NoError(t, json.Unmarshal(data, &pf))
	return pf
}

func installManifest(t *testing.T) string {
	return manifestJSON(t, modpack.Manifest{Name: "Test Pack", Kind: modpack.KindInstall, GameVersion: gameVersion})
}

func assertStageError(t *testing.T, err error, stage installer.Stage, code errors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	var stageErr *installer.StageError
	require.True(t, stderrors.As(err, &stageErr), "expected a StageError, got %T", err)
	assert.Equal(t, stage, stageErr.Stage)
	assert.Equal(t, code, errors.GetErrorCode(err), "error: %v", err)
}

func TestRun_InstallWithoutLoader(t *testing.T) {
	f := newFixture(t)
	testutil.CreateFile(t, f.paths.GameDir(), "options.txt", "fov:70")

	archive := f.archive(t, map[string]string{
		modpack.ManifestFile: installManifest(t),
		"mods/alpha.jar":     "alpha",
		"mods/beta.jar":      "beta",
		"options.txt":        "fov:90",
	})
	f.versions.On("HasVersion", gameVersion).Return(true)

	result, err := f.inst.Run(context.Background(), archive)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha.jar", "beta.jar"}, testutil.ListFiles(t, f.game("mods")))
	testutil.AssertFileContent(t, f.game("options.txt"), "fov:90")

	records := f.backups(t)
	require.Len(t, records, 1)
	require.NotNil(t, result.Backup)
	assert.Equal(t, records[0].ArchivePath, result.Backup.ArchivePath)
	snapshot := testutil.ReadZip(t, records[0].ArchivePath)
	assert.Equal(t, "fov:70", snapshot["options.txt"])

	pf := readProfiles(t, f.game(paths.LauncherProfilesFile))
	require.Len(t, pf.Profiles, 1)
	profile := pf.Profiles[result.ProfileID]
	assert.Equal(t, "Test Pack", profile.Name)
	assert.Equal(t, gameVersion, profile.LastVersionID)
	assert.Equal(t, result.ProfileID, pf.SelectedProfile)

	assert.Equal(t, modpack.KindInstall, result.Kind)
	assert.Equal(t, gameVersion, result.VersionID)
	assert.Equal(t, []modpack.Slot{modpack.SlotMods, modpack.SlotOptions}, result.Applied)
	assert.Equal(t, []modpack.Slot{modpack.SlotResourcePacks, modpack.SlotShaderPacks, modpack.SlotConfig}, result.Skipped)
	assert.False(t, result.LoaderInstalled)
	assert.NoError(t, result.CleanupErr)

	testutil.AssertNoFile(t, f.paths.TmpDir())
	f.versions.AssertNotCalled(t, "InstallVersion", mock.Anything, mock.Anything)
	f.runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_InstallRemovesStaleFiles(t *testing.T) {
	f := newFixture(t)
	testutil.CreateFiles(t, f.paths.GameDir(), map[string]string{
		"mods/extra.jar": "stale",
		"mods/alpha.jar": "old alpha",
		"options.txt":    "fov:70",
	})

	archive := f.archive(t, map[string]string{
		modpack.ManifestFile: installManifest(t),
		"mods/alpha.jar":     "alpha",
		"mods/beta.jar":      "beta",
		"options.txt":        "fov:90",
	})
	f.versions.On("HasVersion", gameVersion).Return(true)

	_, err := f.inst.Run(context.Background(), archive)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha.jar", "beta.jar"}, testutil.ListFiles(t, f.game("mods")))
	testutil.AssertNoFile(t, f.game("mods", "extra.jar"))
	testutil.AssertFileContent(t, f.game("mods", "alpha.jar"), "alpha")

	// the stale file survives in the snapshot
	records := f.backups(t)
	require.Len(t, records, 1)
	assert.Equal(t, "stale", testutil.ReadZip(t, records[0].ArchivePath)["mods/extra.jar"])
}

func TestRun_RestoreBackup(t *testing.T) {
	f := newFixture(t)
	testutil.CreateFiles(t, f.paths.GameDir(), map[string]string{
		"mods/keep.jar":          "mod",
		"resourcepacks/pack.zip": "pack",
		"config/old.cfg":         "old",
		"config/shared.cfg":      "current",
		"options.txt":            "fov:70",
	})

	archive := f.archive(t, map[string]string{
		modpack.ManifestFile: manifestJSON(t, modpack.Manifest{Name: "20240309 140507 backup", Kind: modpack.KindBackup}),
		"config/shared.cfg":  "restored",
	})

	result, err := f.inst.Run(context.Background(), archive)
	require.NoError(t, err)

	assert.Equal(t, []string{"shared.cfg"}, testutil.ListFiles(t, f.game("config")))
	testutil.AssertFileContent(t, f.game("config", "shared.cfg"), "restored")
	testutil.AssertFileContent(t, f.game("mods", "keep.jar"), "mod")
	testutil.AssertFileContent(t, f.game("resourcepacks", "pack.zip"), "pack")
	testutil.AssertFileContent(t, f.game("options.txt"), "fov:70")

	assert.Equal(t, modpack.KindBackup, result.Kind)
	assert.Nil(t, result.Backup)
	assert.Equal(t, []modpack.Slot{modpack.SlotConfig}, result.Applied)
	assert.Empty(t, f.backups(t))
	testutil.AssertNoFile(t, f.game(paths.LauncherProfilesFile))

	assert.NotContains(t, f.stages, installer.StageGameVersion)
	assert.NotContains(t, f.stages, installer.StageModLoader)
	f.versions.AssertNotCalled(t, "HasVersion", mock.Anything)
	f.runtime.AssertNotCalled(t, "Locate", mock.Anything)
}

func TestRun_LoaderAlreadyInstalled(t *testing.T) {
	f := newFixture(t)
	testutil.CreateFile(t, f.paths.VersionDir(loaderName), loaderName+".json", "{}")

	archive := f.archive(t, map[string]string{
		modpack.ManifestFile: manifestJSON(t, modpack.Manifest{
			Name: "Forge Pack", Kind: modpack.KindInstall, GameVersion: gameVersion, ModLoaderName: loaderName,
		}),
		modpack.LoaderInstallerFile: "installer",
		"mods/alpha.jar":            "alpha",
	})
	f.versions.On("HasVersion", gameVersion).Return(true)

	result, err := f.inst.Run(context.Background(), archive)
	require.NoError(t, err)

	f.runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.runtime.AssertNotCalled(t, "Locate", mock.Anything)
	assert.False(t, result.LoaderInstalled)
	assert.Equal(t, loaderName, result.VersionID)
	testutil.AssertFileContent(t, f.game("mods", "alpha.jar"), "alpha")

	pf := readProfiles(t, f.game(paths.LauncherProfilesFile))
	assert.Equal(t, loaderName, pf.Profiles[result.ProfileID].LastVersionID)
}

func loaderArchive(t *testing.T, f *fixture) string {
	return f.archive(t, map[string]string{
		modpack.ManifestFile: manifestJSON(t, modpack.Manifest{
			Name: "Forge Pack", Kind: modpack.KindInstall, GameVersion: gameVersion, ModLoaderName: loaderName,
		}),
		modpack.LoaderInstallerFile: "installer",
		"mods/alpha.jar":            "alpha",
	})
}

func TestRun_InstallsLoader(t *testing.T) {
	f := newFixture(t)
	archive := loaderArchive(t, f)
	f.versions.On("HasVersion", gameVersion).Return(true)
	f.runtime.On("Locate", mock.Anything).Return(javaPath, nil)

	jar := filepath.Join(f.paths.ModpackDir(), modpack.LoaderInstallerFile)
	f.runner.On("Run", mock.Anything, javaPath, []string{"-jar", jar, "--install-client", f.paths.GameDir()}, 30*time.Second).
		Run(func(mock.Arguments) {
			// the installer sees a launcher profile store and registers the version
			testutil.AssertFileContent(t, f.game(paths.LauncherProfilesFile), "{}")
			testutil.CreateFile(t, f.paths.VersionDir(loaderName), loaderName+".json", "{}")
		}).
		Return(process.Result{}, nil)

	result, err := f.inst.Run(context.Background(), archive)
	require.NoError(t, err)

	f.runner.AssertExpectations(t)
	assert.True(t, result.LoaderInstalled)
	assert.Equal(t, loaderName, result.VersionID)
}

func TestRun_LoaderNotRegistered(t *testing.T) {
	f := newFixture(t)
	testutil.CreateFile(t, f.paths.GameDir(), "mods/old.jar", "old")
	archive := loaderArchive(t, f)
	f.versions.On("HasVersion", gameVersion).Return(true)
	f.runtime.On("Locate", mock.Anything).Return(javaPath, nil)
	f.runner.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(process.Result{ExitCode: 1, Stderr: "boom\n"}, nil)

	_, err := f.inst.Run(context.Background(), archive)
	assertStageError(t, err, installer.StageModLoader, errors.ErrModLoaderInstallFailed)

	// content is untouched and the snapshot exists
	testutil.AssertFileContent(t, f.game("mods", "old.jar"), "old")
	assert.Len(t, f.backups(t), 1)
	testutil.AssertNoFile(t, f.paths.TmpDir())
}

func TestRun_LoaderTimeout(t *testing.T) {
	f := newFixture(t)
	archive := loaderArchive(t, f)
	f.versions.On("HasVersion", gameVersion).Return(true)
	f.runtime.On("Locate", mock.Anything).Return(javaPath, nil)
	f.runner.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(process.Result{}, errors.New(errors.ErrTimeout, "java timed out"))

	_, err := f.inst.Run(context.Background(), archive)
	assertStageError(t, err, installer.StageModLoader, errors.ErrTimeout)
}

func TestRun_LoaderProcessFailsToStart(t *testing.T) {
	f := newFixture(t)
	archive := loaderArchive(t, f)
	f.versions.On("HasVersion", gameVersion).Return(true)
	f.runtime.On("Locate", mock.Anything).Return(javaPath, nil)
	f.runner.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(process.Result{}, errors.New(errors.ErrProcessStart, "no such file"))

	_, err := f.inst.Run(context.Background(), archive)
	assertStageError(t, err, installer.StageModLoader, errors.ErrModLoaderProcess)
}

func TestRun_NoJavaRuntime(t *testing.T) {
	f := newFixture(t)
	archive := loaderArchive(t, f)
	f.versions.On("HasVersion", gameVersion).Return(true)
	f.runtime.On("Locate", mock.Anything).
		Return("", errors.New(errors.ErrDependencyMissing, "no Java runtime found"))

	_, err := f.inst.Run(context.Background(), archive)
	assertStageError(t, err, installer.StageModLoader, errors.ErrDependencyMissing)
	f.runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_LoaderNamedWithoutInstaller(t *testing.T) {
	f := newFixture(t)
	archive := f.archive(t, map[string]string{
		modpack.ManifestFile: manifestJSON(t, modpack.Manifest{
			Name: "Forge Pack", Kind: modpack.KindInstall, GameVersion: gameVersion, ModLoaderName: loaderName,
		}),
		"mods/alpha.jar": "alpha",
	})
	f.versions.On("HasVersion", gameVersion).Return(true)

	result, err := f.inst.Run(context.Background(), archive)
	require.NoError(t, err)
	assert.Equal(t, gameVersion, result.VersionID)
	f.runtime.AssertNotCalled(t, "Locate", mock.Anything)
}

func TestRun_InstallsMissingGameVersion(t *testing.T) {
	f := newFixture(t)
	archive := f.archive(t, map[string]string{
		modpack.ManifestFile: installManifest(t),
		"mods/alpha.jar":     "alpha",
	})
	f.versions.On("HasVersion", gameVersion).Return(false)
	f.versions.On("InstallVersion", mock.Anything, gameVersion).Return(nil)

	_, err := f.inst.Run(context.Background(), archive)
	require.NoError(t, err)
	f.versions.AssertExpectations(t)
}

func TestRun_GameVersionInstallFails(t *testing.T) {
	f := newFixture(t)
	archive := f.archive(t, map[string]string{
		modpack.ManifestFile: installManifest(t),
		"mods/alpha.jar":     "alpha",
	})
	f.versions.On("HasVersion", gameVersion).Return(false)
	f.versions.On("InstallVersion", mock.Anything, gameVersion).
		Return(errors.New(errors.ErrDownloadFailed, "HTTP 503"))

	_, err := f.inst.Run(context.Background(), archive)
	assertStageError(t, err, installer.StageGameVersion, errors.ErrVersionInstallFailed)
	assert.Empty(t, f.backups(t))
	testutil.AssertNoFile(t, f.game("mods"))
}

func TestRun_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, f *fixture) string
		stage installer.Stage
		code  errors.ErrorCode
	}{
		{
			name:  "blank path",
			setup: func(t *testing.T, f *fixture) string { return "  " },
			stage: installer.StagePreflight,
			code:  errors.ErrInputInvalid,
		},
		{
			name: "missing archive",
			setup: func(t *testing.T, f *fixture) string {
				return filepath.Join(f.root, "nope.zip")
			},
			stage: installer.StagePreflight,
			code:  errors.ErrInputInvalid,
		},
		{
			name: "directory",
			setup: func(t *testing.T, f *fixture) string {
				return testutil.CreateDir(t, f.root, "folder")
			},
			stage: installer.StagePreflight,
			code:  errors.ErrInputInvalid,
		},
		{
			name: "corrupt archive",
			setup: func(t *testing.T, f *fixture) string {
				return testutil.CreateFile(t, f.root, "bad.zip", "this is not a zip")
			},
			stage: installer.StagePreflight,
			code:  errors.ErrInputInvalid,
		},
		{
			name: "zip slip",
			setup: func(t *testing.T, f *fixture) string {
				return f.archive(t, map[string]string{
					modpack.ManifestFile: installManifest(t),
					"../escape.txt":      "x",
				})
			},
			stage: installer.StageUnpack,
			code:  errors.ErrInputInvalid,
		},
		{
			name: "no manifest",
			setup: func(t *testing.T, f *fixture) string {
				return f.archive(t, map[string]string{"mods/alpha.jar": "alpha"})
			},
			stage: installer.StageManifest,
			code:  errors.ErrManifestMissing,
		},
		{
			name: "manifest without version",
			setup: func(t *testing.T, f *fixture) string {
				return f.archive(t, map[string]string{modpack.ManifestFile: `{"name": "x", "type": "modpack"}`})
			},
			stage: installer.StageManifest,
			code:  errors.ErrManifestInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.inst.Run(context.Background(), tt.setup(t, f))
			assertStageError(t, err, tt.stage, tt.code)
			assert.Equal(t, tt.stage, f.inst.Stage())
			f.versions.AssertNotCalled(t, "HasVersion", mock.Anything)
		})
	}
}

func TestRun_SlotOfWrongKind(t *testing.T) {
	f := newFixture(t)
	archive := f.archive(t, map[string]string{
		modpack.ManifestFile: installManifest(t),
		"options.txt/":       "",
	})
	f.versions.On("HasVersion", gameVersion).Return(true)

	_, err := f.inst.Run(context.Background(), archive)
	assertStageError(t, err, installer.StageApply, errors.ErrApplyFailed)
	assert.Equal(t, "options.txt", errors.GetErrorDetails(err)["slot"])
}

func TestRun_UnnamedModpack(t *testing.T) {
	f := newFixture(t)
	archive := f.archive(t, map[string]string{
		modpack.ManifestFile: `{"version": "` + gameVersion + `"}`,
		"options.txt":        "fov:90",
	})
	f.versions.On("HasVersion", gameVersion).Return(true)

	result, err := f.inst.Run(context.Background(), archive)
	require.NoError(t, err)
	assert.Equal(t, modpack.UnnamedModpack, result.Name)

	pf := readProfiles(t, f.game(paths.LauncherProfilesFile))
	assert.Equal(t, modpack.UnnamedModpack, pf.Profiles[result.ProfileID].Name)
}

func TestRun_ReinstallReplacesProfile(t *testing.T) {
	f := newFixture(t)
	f.versions.On("HasVersion", gameVersion).Return(true)
	entries := map[string]string{
		modpack.ManifestFile: installManifest(t),
		"mods/alpha.jar":     "alpha",
	}

	_, err := f.inst.Run(context.Background(), f.archive(t, entries))
	require.NoError(t, err)
	second, err := f.inst.Run(context.Background(), f.archive(t, entries))
	require.NoError(t, err)

	pf := readProfiles(t, f.game(paths.LauncherProfilesFile))
	require.Len(t, pf.Profiles, 1)
	assert.Equal(t, second.ProfileID, pf.SelectedProfile)
	assert.Len(t, f.backups(t), 2)
}

func TestRun_LoaderTargetsDefaultGameDir(t *testing.T) {
	f := newFixtureAt(t, func(root string) string {
		t.Setenv("HOME", root)
		t.Setenv("APPDATA", root)
		dir, err := paths.DefaultGameDir()
		require.NoError(t, err)
		return dir
	})
	archive := loaderArchive(t, f)
	f.versions.On("HasVersion", gameVersion).Return(true)
	f.runtime.On("Locate", mock.Anything).Return(javaPath, nil)

	jar := filepath.Join(f.paths.ModpackDir(), modpack.LoaderInstallerFile)
	f.runner.On("Run", mock.Anything, javaPath, []string{"-jar", jar, "--install-client"}, 30*time.Second).
		Run(func(mock.Arguments) {
			testutil.CreateFile(t, f.paths.VersionDir(loaderName), loaderName+".json", "{}")
		}).
		Return(process.Result{}, nil)

	_, err := f.inst.Run(context.Background(), archive)
	require.NoError(t, err)
	f.runner.AssertExpectations(t)
}

func TestRun_BackupFailureAppliesNothing(t *testing.T) {
	f := newFixture(t)
	testutil.CreateFile(t, f.paths.GameDir(), "mods/old.jar", "old")
	archive := f.archive(t, map[string]string{
		modpack.ManifestFile: installManifest(t),
		"mods/alpha.jar":     "alpha",
		"options.txt":        "fov:90",
	})
	f.versions.On("HasVersion", gameVersion).Return(true)

	backups := &mockBackups{}
	backups.On("Create", mock.Anything).
		Return(backup.Record{}, errors.New(errors.ErrBackupFailed, "no space left on device"))
	f.rc.Backups = backups
	f.rebuild()

	_, err := f.inst.Run(context.Background(), archive)
	assertStageError(t, err, installer.StageBackup, errors.ErrBackupFailed)

	assert.Equal(t, []string{"old.jar"}, testutil.ListFiles(t, f.game("mods")))
	testutil.AssertFileContent(t, f.game("mods", "old.jar"), "old")
	testutil.AssertNoFile(t, f.game("options.txt"))
	testutil.AssertNoFile(t, f.game(paths.LauncherProfilesFile))
	assert.NotContains(t, f.stages, installer.StageApply)
	testutil.AssertNoFile(t, f.paths.TmpDir())
	backups.AssertExpectations(t)
}

func TestRun_CorruptProfilesFailAfterApply(t *testing.T) {
	f := newFixture(t)
	testutil.CreateFile(t, f.paths.GameDir(), paths.LauncherProfilesFile, "{not json")
	archive := f.archive(t, map[string]string{
		modpack.ManifestFile: installManifest(t),
		"mods/alpha.jar":     "alpha",
	})
	f.versions.On("HasVersion", gameVersion).Return(true)

	_, err := f.inst.Run(context.Background(), archive)
	assertStageError(t, err, installer.StageProfile, errors.ErrProfileUpdateFailed)

	// content is already in place and the profile store is left as found
	testutil.AssertFileContent(t, f.game("mods", "alpha.jar"), "alpha")
	testutil.AssertFileContent(t, f.game(paths.LauncherProfilesFile), "{not json")
	assert.Len(t, f.backups(t), 1)
	testutil.AssertNoFile(t, f.paths.TmpDir())
}

func TestRun_CleanupFailureOnlyWarns(t *testing.T) {
	f := newFixture(t)
	f.rc.FS = &failingRemoveFS{FS: filesystem.NewOS(), path: filepath.Clean(f.paths.TmpDir())}
	f.rebuild()

	archive := f.archive(t, map[string]string{
		modpack.ManifestFile: installManifest(t),
		"mods/alpha.jar":     "alpha",
	})
	f.versions.On("HasVersion", gameVersion).Return(true)

	result, err := f.inst.Run(context.Background(), archive)
	require.NoError(t, err)
	require.Error(t, result.CleanupErr)
	assert.NotEmpty(t, result.ProfileID)
	testutil.AssertFileContent(t, f.game("mods", "alpha.jar"), "alpha")
	assert.DirExists(t, f.paths.TmpDir())
}
