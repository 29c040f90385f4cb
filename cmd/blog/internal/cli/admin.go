package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	blog "github.com/goliatone/go-blog"
	"github.com/goliatone/go-blog/internal/users"
)

const adminPasswordEnv = blog.EnvPrefix + "ADMIN_PASSWORD"

func newAdminCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}
	cmd.AddCommand(newAdminCreateCommand(opts))
	return cmd
}

func newAdminCreateCommand(opts *rootOptions) *cobra.Command {
	req := users.CreateRequest{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the admin account if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Password == "" {
				req.Password = os.Getenv(adminPasswordEnv)
			}
			if req.Password == "" {
				return errors.New("a password is required: pass --password or set " + adminPasswordEnv)
			}
			if req.FullName == "" {
				req.FullName = req.Username
			}

			ctx := cmd.Context()
			module, _, err := opts.openModule(ctx, nil)
			if err != nil {
				return err
			}
			defer module.Close()

			account, created, err := module.Users().EnsureAdmin(ctx, req)
			if err != nil {
				return err
			}
			status := "exists"
			if created {
				status = "created"
			}
			_, err = fmt.Fprintf(opts.stdout(), "%s %s (%s)\n", status, account.Username, account.ID)
			return err
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&req.Username, "username", "admin", "account username")
	flags.StringVar(&req.Email, "email", "", "account email")
	flags.StringVar(&req.FullName, "full-name", "", "display name (defaults to the username)")
	flags.StringVar(&req.Password, "password", "", "account password (or "+adminPasswordEnv+")")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
