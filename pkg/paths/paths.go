package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/mcenv/pkg/errors"
)

// Environment variable names
const (
	// EnvDataDir overrides the XDG data directory for mcenv
	EnvDataDir = "MCENV_DATA_DIR"

	// EnvConfigDir overrides the XDG config directory for mcenv
	EnvConfigDir = "MCENV_CONFIG_DIR"

	// EnvStateDir overrides the XDG state directory for mcenv
	EnvStateDir = "MCENV_STATE_DIR"

	// EnvGameDir overrides the detected game directory
	EnvGameDir = "MCENV_GAME_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Fixed names inside the mcenv directories
const (
	// AppDirName is the directory name used under each XDG base
	AppDirName = "mcenv"

	// TmpDirName is the scratch directory under the data dir
	TmpDirName = "tmp"

	// ModpackDirName is where archives are extracted inside the tmp dir
	ModpackDirName = "modpack"

	// BackupDirName holds backup archives under the data dir
	BackupDirName = "backup"

	// RuntimeDirName holds the bundled Java runtime under the data dir
	RuntimeDirName = "bin/jdk"

	// LogFileName is the name of the per-run log file
	LogFileName = "installer.log"

	// ConfigFileName is the preferred config file name
	ConfigFileName = "config.toml"

	// LauncherProfilesFile is the launcher's profile store inside the game dir
	LauncherProfilesFile = "launcher_profiles.json"

	// VersionsDirName holds installed game and loader versions inside the game dir
	VersionsDirName = "versions"
)

// Overrides replace individual resolved directories. Empty fields keep
// the defaults.
type Overrides struct {
	GameDir   string
	BackupDir string
	TmpDir    string
}

// Paths resolves every directory mcenv reads or writes
type Paths interface {
	DataDir() string
	ConfigDir() string
	StateDir() string
	GameDir() string
	BackupDir() string
	TmpDir() string
	ModpackDir() string
	RuntimeDir() string
	LogFilePath() string
	ConfigFilePath() string
	LauncherProfilesPath() string
	VersionDir(versionID string) string
	VersionDescriptorPath(versionID string) string
}

type paths struct {
	dataDir   string
	configDir string
	stateDir  string
	gameDir   string
	backupDir string
	tmpDir    string
}

// New resolves the mcenv directories from XDG locations, environment
// overrides and the given overrides, in increasing priority.
func New(o Overrides) (Paths, error) {
	p := &paths{}
	p.setupXDGDirs()

	gameDir := o.GameDir
	if gameDir == "" {
		gameDir = os.Getenv(EnvGameDir)
	}
	if gameDir == "" {
		var err error
		if gameDir, err = DefaultGameDir(); err != nil {
			return nil, err
		}
	}

	p.gameDir = expandHome(gameDir)
	p.backupDir = filepath.Join(p.dataDir, BackupDirName)
	if o.BackupDir != "" {
		p.backupDir = expandHome(o.BackupDir)
	}
	p.tmpDir = filepath.Join(p.dataDir, TmpDirName)
	if o.TmpDir != "" {
		p.tmpDir = expandHome(o.TmpDir)
	}

	for _, dir := range []*string{&p.gameDir, &p.backupDir, &p.tmpDir, &p.dataDir, &p.configDir, &p.stateDir} {
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInternal, "cannot resolve %s", *dir)
		}
		*dir = abs
	}

	if err := p.checkTmpDir(); err != nil {
		return nil, err
	}
	return p, nil
}

// checkTmpDir rejects a scratch directory that shares any part of the
// game directory or the backup store, since every run empties it.
func (p *paths) checkTmpDir() error {
	overlaps := map[string]bool{
		"game directory": contains(p.tmpDir, p.gameDir) || contains(p.gameDir, p.tmpDir),
		"backup store":   contains(p.tmpDir, p.backupDir) || contains(p.backupDir, p.tmpDir),
	}
	for _, name := range []string{"game directory", "backup store"} {
		if overlaps[name] {
			return errors.Newf(errors.ErrConfigValid, "tmp directory %s overlaps the %s", p.tmpDir, name).
				WithDetail("tmp_dir", p.tmpDir).
				WithDetail("game_dir", p.gameDir).
				WithDetail("backup_dir", p.backupDir)
		}
	}
	return nil
}

// contains reports whether path is dir itself or lies below it
func contains(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// setupXDGDirs initializes XDG directories, respecting environment overrides
func (p *paths) setupXDGDirs() {
	if dataDir := os.Getenv(EnvDataDir); dataDir != "" {
		p.dataDir = expandHome(dataDir)
	} else {
		p.dataDir = filepath.Join(xdg.DataHome, AppDirName)
	}

	if configDir := os.Getenv(EnvConfigDir); configDir != "" {
		p.configDir = expandHome(configDir)
	} else {
		p.configDir = filepath.Join(xdg.ConfigHome, AppDirName)
	}

	if stateDir := os.Getenv(EnvStateDir); stateDir != "" {
		p.stateDir = expandHome(stateDir)
	} else {
		p.stateDir = filepath.Join(xdg.StateHome, AppDirName)
	}
}

// DefaultGameDir returns the launcher's standard game directory for the
// running platform.
func DefaultGameDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, ".minecraft"), nil
		}
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", errors.Wrap(err, errors.ErrInternal, "cannot locate the application data directory")
		}
		return filepath.Join(dir, ".minecraft"), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, errors.ErrInternal, "cannot locate the home directory")
		}
		return filepath.Join(home, "Library", "Application Support", "minecraft"), nil
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, errors.ErrInternal, "cannot locate the home directory")
		}
		return filepath.Join(home, ".minecraft"), nil
	}
}

func (p *paths) DataDir() string   { return p.dataDir }
func (p *paths) ConfigDir() string { return p.configDir }
func (p *paths) StateDir() string  { return p.stateDir }
func (p *paths) GameDir() string   { return p.gameDir }
func (p *paths) BackupDir() string { return p.backupDir }
func (p *paths) TmpDir() string    { return p.tmpDir }

// ModpackDir is where the input archive is extracted
func (p *paths) ModpackDir() string {
	return filepath.Join(p.tmpDir, ModpackDirName)
}

// RuntimeDir is where a downloaded Java runtime is unpacked
func (p *paths) RuntimeDir() string {
	return filepath.Join(p.dataDir, filepath.FromSlash(RuntimeDirName))
}

func (p *paths) LogFilePath() string {
	return filepath.Join(p.stateDir, LogFileName)
}

func (p *paths) ConfigFilePath() string {
	return filepath.Join(p.configDir, ConfigFileName)
}

func (p *paths) LauncherProfilesPath() string {
	return LauncherProfilesIn(p.gameDir)
}

// VersionDir is the directory of an installed game or loader version
func (p *paths) VersionDir(versionID string) string {
	return VersionDirIn(p.gameDir, versionID)
}

// VersionDescriptorPath is the JSON descriptor registering a version with the launcher
func (p *paths) VersionDescriptorPath(versionID string) string {
	return VersionDescriptorIn(p.gameDir, versionID)
}

// LauncherProfilesIn is the launcher profile store of gameDir
func LauncherProfilesIn(gameDir string) string {
	return filepath.Join(gameDir, LauncherProfilesFile)
}

// VersionDirIn is the directory of versionID inside gameDir
func VersionDirIn(gameDir, versionID string) string {
	return filepath.Join(gameDir, VersionsDirName, versionID)
}

// VersionDescriptorIn is the descriptor of versionID inside gameDir
func VersionDescriptorIn(gameDir, versionID string) string {
	return filepath.Join(VersionDirIn(gameDir, versionID), versionID+".json")
}

// expandHome expands ~ to the user's home directory
func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
