package cli

import (
	"github.com/arthur-debert/mcenv/pkg/backup"
	"github.com/arthur-debert/mcenv/pkg/config"
	"github.com/arthur-debert/mcenv/pkg/download"
	"github.com/arthur-debert/mcenv/pkg/installer"
	"github.com/arthur-debert/mcenv/pkg/jdk"
	"github.com/arthur-debert/mcenv/pkg/logging"
	"github.com/arthur-debert/mcenv/pkg/minecraft"
	"github.com/arthur-debert/mcenv/pkg/process"
	"github.com/spf13/cobra"
)

func newInstallCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     MsgInstallUsage,
		Short:   MsgInstallShort,
		Example: MsgInstallSample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, opts, args[0])
		},
	}
}

func runInstall(cmd *cobra.Command, opts *options, archivePath string) error {
	env, err := loadEnvironment(opts, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	logFile := logging.SetupLogger(opts.verbosity, env.paths.LogFilePath())
	if logFile != nil {
		defer func() { _ = logFile.Close() }()
	}

	rc := newRunContext(env)
	result, err := installer.New(rc).Run(cmd.Context(), archivePath)
	if err != nil {
		_ = env.out.Failure(err)
		return &reportedError{err: err}
	}
	return env.out.Result(result)
}

// newRunContext wires the installer's collaborators from the resolved
// environment. Loggers are taken here, after logging is set up.
func newRunContext(env *environment) *installer.RunContext {
	p, cfg := env.paths, env.config
	downloader := download.New(env.fs, nil, cfg.UserAgent())

	profileGameDir := cfg.Install.ProfileGameDir
	if profileGameDir == "" {
		profileGameDir = p.GameDir()
	}

	runner := process.NewRunner()
	runner.Dir = p.GameDir()

	return &installer.RunContext{
		FS:       env.fs,
		Paths:    p,
		Config:   cfg,
		Logger:   logging.GetLogger("installer"),
		Versions: minecraft.NewVersionInstaller(env.fs, downloader, p.GameDir(), cfg.Minecraft.VersionManifestURL),
		Profiles: minecraft.NewProfileStore(env.fs, p.GameDir(), profileGameDir, cfg.Install.JavaArgs),
		Runtime: jdk.NewLocator(env.fs, downloader, jdk.Options{
			JavaPath:     cfg.Runtime.JavaPath,
			RuntimeDir:   p.RuntimeDir(),
			TmpDir:       p.TmpDir(),
			DownloadURL:  cfg.Runtime.JDKURL,
			AutoDownload: cfg.Runtime.AutoDownload,
			OnResolved:   config.JavaPathSaver(p.ConfigFilePath(), cfg),
		}),
		Runner:  runner,
		Backups: backup.NewCreator(env.fs, p.GameDir(), p.TmpDir(), p.BackupDir()),
		OnStage: func(s installer.Stage) { _ = env.out.Stage(s) },
	}
}
