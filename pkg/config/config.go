package config

import (
	"strings"
	"time"

	"github.com/arthur-debert/mcenv/pkg/errors"
)

// Config is the resolved mcenv configuration
type Config struct {
	App       App       `koanf:"app"`
	Runtime   Runtime   `koanf:"runtime"`
	Install   Install   `koanf:"install"`
	Minecraft Minecraft `koanf:"minecraft"`
	Paths     Paths     `koanf:"paths"`

	// file is the user config file Load read, empty when there was none
	file string
}

// File returns the user config file this configuration was loaded from
func (c *Config) File() string {
	return c.file
}

// App identifies the installer in logs and outgoing requests
type App struct {
	Name    string `koanf:"name"`
	Version string `koanf:"version"`
	RepoURL string `koanf:"repo_url"`
}

// Runtime controls how the Java runtime is found
type Runtime struct {
	// JavaPath is the last resolved java executable; empty means search
	JavaPath     string `koanf:"java_path"`
	JDKURL       string `koanf:"jdk_url"`
	AutoDownload bool   `koanf:"auto_download"`
}

// Install holds pipeline settings
type Install struct {
	LoaderTimeout time.Duration `koanf:"loader_timeout"`
	// ProfileGameDir is written as the launcher profile's game directory.
	// Empty means the game directory itself.
	ProfileGameDir string `koanf:"profile_game_dir"`
	JavaArgs       string `koanf:"java_args"`
}

// Minecraft holds game-side locations
type Minecraft struct {
	VersionManifestURL string `koanf:"version_manifest_url"`
	GameDir            string `koanf:"game_dir"`
}

// Paths overrides mcenv's own directories
type Paths struct {
	BackupDir string `koanf:"backup_dir"`
	TmpDir    string `koanf:"tmp_dir"`
}

// UserAgent is sent with every download
func (c *Config) UserAgent() string {
	ua := c.App.Name + "/" + c.App.Version
	if c.App.RepoURL != "" {
		ua += " (+" + c.App.RepoURL + ")"
	}
	return ua
}

// Validate checks values a run cannot proceed without
func (c *Config) Validate() error {
	if c.Install.LoaderTimeout <= 0 {
		return errors.Newf(errors.ErrConfigValid, "install.loader_timeout must be positive, got %s", c.Install.LoaderTimeout)
	}
	if strings.TrimSpace(c.Minecraft.VersionManifestURL) == "" {
		return errors.New(errors.ErrConfigValid, "minecraft.version_manifest_url is empty")
	}
	if c.Runtime.AutoDownload && strings.TrimSpace(c.Runtime.JDKURL) == "" {
		return errors.New(errors.ErrConfigValid, "runtime.jdk_url is empty but runtime.auto_download is on")
	}
	return nil
}
