package cli

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-blog/internal/commands/blogcmd"
)

func newPurgeCommand(opts *rootOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "purge-reset-tokens",
		Short: "Delete expired password reset tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			module, _, err := opts.openModule(ctx, nil)
			if err != nil {
				return err
			}
			defer module.Close()
			return module.Commands().PurgeResetTokens.Execute(ctx, blogcmd.PurgeResetTokensCommand{DryRun: dryRun})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report without deleting")
	return cmd
}
