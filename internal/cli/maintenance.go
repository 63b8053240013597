package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/guscambraia/aih-v3.5/internal/maintenance"
)

func NewMaintenanceCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Database housekeeping",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Purge old access logs, then VACUUM and ANALYZE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			res, err := maintenance.New(e.db, e.cfg.Maintenance, e.logger).RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd, res)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print row counts and database size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			s, err := maintenance.New(e.db, e.cfg.Maintenance, e.logger).Stats(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd, s)
		},
	})

	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
