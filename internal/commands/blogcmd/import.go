package blogcmd

import (
	"context"
	"io/fs"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-blog/internal/blog"
	"github.com/goliatone/go-blog/internal/commands"
	"github.com/goliatone/go-blog/internal/importer"
)

const importPostsMessageType = "blog.posts.import"

// ImportPostsCommand loads every Markdown post under Directory.
type ImportPostsCommand struct {
	Directory  string `json:"directory"`
	Pattern    string `json:"pattern,omitempty"`
	Recursive  bool   `json:"recursive"`
	Publish    bool   `json:"publish"`
	CanComment bool   `json:"can_comment"`
	DryRun     bool   `json:"dry_run"`

	// FS overrides the operating system filesystem rooted at Directory.
	FS fs.FS `json:"-"`

	Result func(importer.Result) `json:"-"`
}

// Type implements command.Message.
func (ImportPostsCommand) Type() string { return importPostsMessageType }

// Validate satisfies command.Message.
func (m ImportPostsCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Directory, validation.Required),
	)
}

func (m ImportPostsCommand) source() (fs.FS, string) {
	if m.FS != nil {
		return m.FS, m.Directory
	}
	return os.DirFS(m.Directory), "."
}

// NewImportPostsHandler parses and saves a directory of posts.
func NewImportPostsHandler(svc blog.Service, settings HandlerSettings) *commands.Handler[ImportPostsCommand] {
	imp := importer.New(svc, commands.EnsureLogger(settings.Logger))
	return commands.NewHandler(func(ctx context.Context, msg ImportPostsCommand) error {
		fsys, root := msg.source()
		docs, err := importer.Discover(fsys, root, importer.Options{
			Pattern:    strings.TrimSpace(msg.Pattern),
			Recursive:  msg.Recursive,
			Publish:    msg.Publish,
			CanComment: msg.CanComment,
		})
		if err != nil {
			return err
		}
		result, err := imp.Import(ctx, docs, msg.DryRun)
		if msg.Result != nil {
			msg.Result(result)
		}
		return err
	}, options(settings, importPostsMessageType, func(msg ImportPostsCommand) map[string]any {
		return map[string]any{"directory": msg.Directory, "dry_run": msg.DryRun}
	})...)
}
