package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-blog/internal/commands/blogcmd"
	"github.com/goliatone/go-blog/internal/importer"
)

func newImportCommand(opts *rootOptions) *cobra.Command {
	msg := blogcmd.ImportPostsCommand{}
	cmd := &cobra.Command{
		Use:   "import <directory>",
		Short: "Import a directory of Markdown posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			module, _, err := opts.openModule(ctx, nil)
			if err != nil {
				return err
			}
			defer module.Close()

			var result importer.Result
			msg.Directory = args[0]
			msg.Result = func(r importer.Result) { result = r }
			runErr := module.Commands().ImportPosts.Execute(ctx, msg)

			enc := json.NewEncoder(opts.stdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			if runErr != nil {
				return fmt.Errorf("import %s: %w", msg.Directory, runErr)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&msg.Pattern, "pattern", importer.DefaultPattern, "glob applied to file names")
	flags.BoolVar(&msg.Recursive, "recursive", true, "descend into subdirectories")
	flags.BoolVar(&msg.Publish, "publish", true, "publish imported posts unless marked as drafts")
	flags.BoolVar(&msg.CanComment, "can-comment", true, "allow comments on imported posts")
	flags.BoolVar(&msg.DryRun, "dry-run", false, "parse and report without saving")
	return cmd
}
