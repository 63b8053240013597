package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/guscambraia/aih-v3.5/internal/config"
	"github.com/guscambraia/aih-v3.5/internal/handler"
	"github.com/guscambraia/aih-v3.5/internal/util"
)

func NewBackupCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Encrypted database snapshots",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Write an encrypted snapshot to the backup dir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			b, err := handler.Snapshot(e.db, e.cfg.Backup.Dir, e.cfg.Security.EncryptionKey, 0)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", b.FilePath, b.Size)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "decrypt <backup-file> <output.db>",
		Short: "Decrypt a snapshot into a plain SQLite file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Read(opts.ConfigPath)
			if err != nil {
				return err
			}
			enc, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			plain, err := util.DecryptAES(cfg.Security.EncryptionKey, enc)
			if err != nil {
				return fmt.Errorf("decrypt %s: %w", args[0], err)
			}
			return os.WriteFile(args[1], plain, 0o600)
		},
	})

	return cmd
}
