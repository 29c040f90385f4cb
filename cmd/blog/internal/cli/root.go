// Package cli implements the blog command line: serving the API, running
// migrations, importing posts and basic account administration.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	blog "github.com/goliatone/go-blog"
)

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	env        map[string]string
	out        io.Writer
}

// Execute runs the command tree against os.Args and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&rootOptions{})
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "blog",
		Short:         "Personal blog and portfolio server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			opts.out = cmd.OutOrStdout()
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv(blog.EnvPrefix+"CONFIG"), "path to a JSON configuration file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newImportCommand(opts),
		newAdminCommand(opts),
		newPurgeCommand(opts),
		newRenderCommand(opts),
	)
	return root
}

func (o *rootOptions) loadConfig() (blog.Config, error) {
	var loadOpts []blog.LoadOption
	if o.env != nil {
		loadOpts = append(loadOpts, blog.WithEnvironment(o.env))
	}
	cfg, err := blog.LoadConfig(o.configPath, loadOpts...)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, nil
}

// openModule loads the configuration, applies mutate and builds the module.
func (o *rootOptions) openModule(ctx context.Context, mutate func(*blog.Config)) (*blog.Module, blog.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	if mutate != nil {
		mutate(&cfg)
	}
	module, err := blog.New(ctx, cfg)
	if err != nil {
		return nil, cfg, fmt.Errorf("build module: %w", err)
	}
	return module, cfg, nil
}

func (o *rootOptions) stdout() io.Writer {
	if o.out == nil {
		return os.Stdout
	}
	return o.out
}
