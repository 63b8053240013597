package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guscambraia/aih-v3.5/internal/handler"
)

type userCreateOptions struct {
	Username    string
	Password    string
	DisplayName string
}

func NewUserCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	uo := &userCreateOptions{}
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			user, err := handler.CreateUser(e.db, uo.Username, uo.Password, uo.DisplayName, e.cfg.Security.BcryptCost)
			if err != nil {
				return fmt.Errorf("create user %q: %w", uo.Username, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s created (id %d)\n", user.Username, user.ID)
			return nil
		},
	}
	create.Flags().StringVarP(&uo.Username, "username", "u", "", "login name (required)")
	create.Flags().StringVarP(&uo.Password, "password", "p", "", "password (required)")
	create.Flags().StringVar(&uo.DisplayName, "name", "", "display name")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}
