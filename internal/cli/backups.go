package cli

import (
	"fmt"

	"github.com/arthur-debert/mcenv/pkg/backup"
	"github.com/spf13/cobra"
)

func newBackupCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: MsgBackupShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			p := env.paths
			record, err := backup.NewCreator(env.fs, p.GameDir(), p.TmpDir(), p.BackupDir()).Create(cmd.Context())
			if err != nil {
				_ = env.out.Failure(err)
				return &reportedError{err: err}
			}
			return env.out.Message(fmt.Sprintf(MsgBackupCreated, record.ArchivePath))
		},
	}
}

func newBackupsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "backups",
		Aliases: []string{"list"},
		Short:   MsgBackupsShort,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			store := backup.NewStore(env.fs, env.paths.BackupDir())
			records, err := store.List()
			if err != nil {
				_ = env.out.Failure(err)
				return &reportedError{err: err}
			}
			return env.out.Backups(store.Dir(), records)
		},
	}
}
