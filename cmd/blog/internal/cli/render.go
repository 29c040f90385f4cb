package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	blog "github.com/goliatone/go-blog"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/runtimeconfig"
)

type renderOutput struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Series      string   `json:"series,omitempty"`
	Draft       bool     `json:"draft,omitempty"`
	HTML        string   `json:"html"`
	TOC         string   `json:"toc,omitempty"`
}

// newRenderCommand previews a Markdown file. It only needs the markdown
// settings, so secrets and the database are not required.
func newRenderCommand(opts *rootOptions) *cobra.Command {
	var (
		asJSON        bool
		updateHeaders bool
	)
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a Markdown file to HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.markdownConfig()
			if err != nil {
				return err
			}
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			meta, body, err := markdown.ParseFrontMatter(source)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			extensions := cfg.Extensions
			if len(extensions) == 0 {
				extensions = markdown.DefaultExtensions
			}
			renderer := markdown.NewService(markdown.Config{
				Engine: markdown.EngineConfig{
					Extensions:     extensions,
					HighlightStyle: cfg.HighlightStyle,
				},
				TOCDepth: cfg.TOCDepth,
			})
			rendered, err := renderer.Render(cmd.Context(), string(body), markdown.Options{UpdateHeaders: updateHeaders})
			if err != nil {
				return err
			}

			out := opts.stdout()
			if !asJSON {
				_, err = fmt.Fprintln(out, rendered.HTML)
				return err
			}
			payload := renderOutput{
				Title:       meta.Title,
				Description: meta.Description,
				Tags:        meta.Tags(),
				Series:      meta.Series,
				Draft:       meta.Draft,
				HTML:        rendered.HTML,
				TOC:         rendered.TOC,
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print front matter, HTML and table of contents as JSON")
	cmd.Flags().BoolVar(&updateHeaders, "update-headers", true, "rewrite heading ids for the table of contents")
	return cmd
}

// markdownConfig reads the markdown section without validating the rest of
// the configuration.
func (o *rootOptions) markdownConfig() (blog.MarkdownConfig, error) {
	cfg := blog.DefaultConfig()
	if o.configPath != "" {
		raw, err := os.ReadFile(o.configPath)
		if err != nil {
			return cfg.Markdown, fmt.Errorf("load config: %w", err)
		}
		if err := runtimeconfig.Decode(raw, &cfg); err != nil {
			return cfg.Markdown, fmt.Errorf("load config: %w", err)
		}
	}
	return cfg.Markdown, nil
}
