package cli

import (
	"io"
	"os"

	"github.com/arthur-debert/mcenv/internal/version"
	"github.com/arthur-debert/mcenv/pkg/config"
	"github.com/arthur-debert/mcenv/pkg/filesystem"
	"github.com/arthur-debert/mcenv/pkg/paths"
	"github.com/arthur-debert/mcenv/pkg/types"
	"github.com/arthur-debert/mcenv/pkg/ui"
)

// options holds the persistent flags
type options struct {
	verbosity int
	format    string
	gameDir   string
}

// environment is what every command resolves before doing work
type environment struct {
	paths  paths.Paths
	config *config.Config
	fs     types.FS
	out    ui.Renderer
}

// loadEnvironment resolves directories and configuration. The game
// directory comes from --game-dir, then MCENV_GAME_DIR, then
// minecraft.game_dir, then the launcher's default.
func loadEnvironment(opts *options, w io.Writer) (*environment, error) {
	format, err := ui.ParseFormat(opts.format)
	if err != nil {
		return nil, err
	}
	out, err := ui.NewRenderer(format, w)
	if err != nil {
		return nil, err
	}

	base, err := paths.New(paths.Overrides{GameDir: opts.gameDir})
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(base.ConfigDir())
	if err != nil {
		return nil, err
	}
	if cfg.App.Version == "" || cfg.App.Version == "dev" {
		cfg.App.Version = version.Version
	}

	p, err := paths.New(paths.Overrides{
		GameDir:   firstNonEmpty(opts.gameDir, os.Getenv(paths.EnvGameDir), cfg.Minecraft.GameDir),
		BackupDir: cfg.Paths.BackupDir,
		TmpDir:    cfg.Paths.TmpDir,
	})
	if err != nil {
		return nil, err
	}

	return &environment{
		paths:  p,
		config: cfg,
		fs:     filesystem.NewOS(),
		out:    out,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
