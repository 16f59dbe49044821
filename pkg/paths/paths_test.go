package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/mcenv/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_EnvironmentOverrides(t *testing.T) {
	root := t.TempDir()
	t.Setenv(EnvDataDir, filepath.Join(root, "data"))
	t.Setenv(EnvConfigDir, filepath.Join(root, "config"))
	t.Setenv(EnvStateDir, filepath.Join(root, "state"))
	t.Setenv(EnvGameDir, filepath.Join(root, "game"))

	p, err := New(Overrides{})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "data"), p.DataDir())
	assert.Equal(t, filepath.Join(root, "config"), p.ConfigDir())
	assert.Equal(t, filepath.Join(root, "game"), p.GameDir())
	assert.Equal(t, filepath.Join(root, "data", "backup"), p.BackupDir())
	assert.Equal(t, filepath.Join(root, "data", "tmp"), p.TmpDir())
	assert.Equal(t, filepath.Join(root, "data", "tmp", "modpack"), p.ModpackDir())
	assert.Equal(t, filepath.Join(root, "data", "bin", "jdk"), p.RuntimeDir())
	assert.Equal(t, filepath.Join(root, "state", "installer.log"), p.LogFilePath())
	assert.Equal(t, filepath.Join(root, "config", "config.toml"), p.ConfigFilePath())
	assert.Equal(t, filepath.Join(root, "game", "launcher_profiles.json"), p.LauncherProfilesPath())
}

func TestNew_ExplicitOverridesWin(t *testing.T) {
	root := t.TempDir()
	t.Setenv(EnvDataDir, filepath.Join(root, "data"))
	t.Setenv(EnvGameDir, filepath.Join(root, "env-game"))

	p, err := New(Overrides{
		GameDir:   filepath.Join(root, "game"),
		BackupDir: filepath.Join(root, "backups"),
		TmpDir:    filepath.Join(root, "scratch"),
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "game"), p.GameDir())
	assert.Equal(t, filepath.Join(root, "backups"), p.BackupDir())
	assert.Equal(t, filepath.Join(root, "scratch"), p.TmpDir())
}

func TestNew_RejectsTmpDirOverlap(t *testing.T) {
	root := t.TempDir()
	t.Setenv(EnvDataDir, filepath.Join(root, "data"))
	game := filepath.Join(root, "game")

	tests := []struct {
		name      string
		overrides Overrides
	}{
		{"tmp is the game dir", Overrides{GameDir: game, TmpDir: game}},
		{"tmp contains the game dir", Overrides{GameDir: game, TmpDir: root}},
		{"tmp inside the game dir", Overrides{GameDir: game, TmpDir: filepath.Join(game, "saves")}},
		{"tmp is the backup store", Overrides{GameDir: game, BackupDir: filepath.Join(root, "b"), TmpDir: filepath.Join(root, "b")}},
		{"tmp inside the backup store", Overrides{GameDir: game, BackupDir: filepath.Join(root, "b"), TmpDir: filepath.Join(root, "b", "tmp")}},
		{"tmp contains the default backup store", Overrides{GameDir: game, TmpDir: filepath.Join(root, "data")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.overrides)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))
		})
	}
}

func TestContains(t *testing.T) {
	assert.True(t, contains("/a", "/a"))
	assert.True(t, contains("/a", "/a/b"))
	assert.False(t, contains("/a/b", "/a"))
	assert.False(t, contains("/a", "/ab"))
	assert.True(t, contains("/a", "/a/..b"))
}

func TestVersionPaths(t *testing.T) {
	root := t.TempDir()
	p, err := New(Overrides{GameDir: root})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "versions", "1.20.1-forge-47.2.0"), p.VersionDir("1.20.1-forge-47.2.0"))
	assert.Equal(t,
		filepath.Join(root, "versions", "1.20.1-forge-47.2.0", "1.20.1-forge-47.2.0.json"),
		p.VersionDescriptorPath("1.20.1-forge-47.2.0"))
	assert.Equal(t, p.VersionDescriptorPath("1.20.1"), VersionDescriptorIn(root, "1.20.1"))
	assert.Equal(t, filepath.Join(root, "launcher_profiles.json"), p.LauncherProfilesPath())
	assert.Equal(t, p.LauncherProfilesPath(), LauncherProfilesIn(root))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, expandHome("~"))
	assert.Equal(t, filepath.Join(home, ".minecraft"), expandHome("~/.minecraft"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
	assert.Equal(t, "", expandHome(""))
}

func TestDefaultGameDir(t *testing.T) {
	dir, err := DefaultGameDir()
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(dir), "minecraft")
}
