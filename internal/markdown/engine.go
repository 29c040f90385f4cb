package markdown

import (
	"bytes"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
)

// EngineConfig selects the goldmark extensions and highlighting style.
type EngineConfig struct {
	Extensions     []string
	HighlightStyle string
	HardWraps      bool
}

// DefaultExtensions mirrors the feature set posts are written against.
var DefaultExtensions = []string{
	"gfm",
	"footnote",
	"definition",
	"typographer",
	"mark",
	"admonition",
	"highlight",
}

const defaultHighlightStyle = "monokai"

func newEngine(cfg EngineConfig) goldmark.Markdown {
	exts := collectExtensions(cfg)

	rendererOptions := []renderer.Option{html.WithUnsafe()}
	if cfg.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}

	return goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithAttribute(),
		),
		goldmark.WithRendererOptions(rendererOptions...),
	)
}

func convert(engine goldmark.Markdown, source string) (string, error) {
	var buf bytes.Buffer
	if err := engine.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return buf.String(), nil
}

var extensionRegistry = map[string]func(EngineConfig) goldmark.Extender{
	"gfm":           staticExtension(extension.GFM),
	"table":         staticExtension(extension.Table),
	"strikethrough": staticExtension(extension.Strikethrough),
	"linkify":       staticExtension(extension.Linkify),
	"tasklist":      staticExtension(extension.TaskList),
	"definition":    staticExtension(extension.DefinitionList),
	"footnote":      staticExtension(extension.Footnote),
	"typographer":   staticExtension(extension.Typographer),
	"mark":          staticExtension(Mark),
	"admonition":    staticExtension(Admonition),
	"highlight":     highlightExtension,
}

func staticExtension(ext goldmark.Extender) func(EngineConfig) goldmark.Extender {
	return func(EngineConfig) goldmark.Extender { return ext }
}

func highlightExtension(cfg EngineConfig) goldmark.Extender {
	style := strings.TrimSpace(cfg.HighlightStyle)
	if style == "" {
		style = defaultHighlightStyle
	}
	return highlighting.NewHighlighting(
		highlighting.WithStyle(style),
		highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
	)
}

func collectExtensions(cfg EngineConfig) []goldmark.Extender {
	names := cfg.Extensions
	if len(names) == 0 {
		names = DefaultExtensions
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}

	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		build, ok := extensionRegistry[key]
		if !ok {
			continue
		}
		extenders = append(extenders, build(cfg))
		seen[key] = struct{}{}
	}

	return extenders
}
