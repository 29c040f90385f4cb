package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindAdmonition is the node kind of !!! callout blocks.
var KindAdmonition = gast.NewNodeKind("Admonition")

// AdmonitionNode is a callout block. Its body is every following line
// indented by at least four spaces.
type AdmonitionNode struct {
	gast.BaseBlock
	Classes  []string
	Title    string
	HasTitle bool
}

func (n *AdmonitionNode) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{
		"Classes": strings.Join(n.Classes, " "),
		"Title":   n.Title,
	}, nil)
}

func (n *AdmonitionNode) Kind() gast.NodeKind { return KindAdmonition }

var admonitionHeader = regexp.MustCompile(`^!!! ?([\w\-]+(?: +[\w\-]+)*)(?: +"(.*?)")? *$`)

func parseAdmonitionHeader(line []byte) (*AdmonitionNode, bool) {
	m := admonitionHeader.FindSubmatch(bytes.TrimRight(line, " \t\r\n"))
	if m == nil {
		return nil, false
	}
	classes := strings.Fields(strings.ToLower(string(m[1])))
	node := &AdmonitionNode{Classes: classes}

	// A quoted empty title suppresses the title paragraph.
	if m[2] != nil {
		node.Title = string(m[2])
		node.HasTitle = node.Title != ""
		return node, true
	}
	first := classes[0]
	node.Title = strings.ToUpper(first[:1]) + first[1:]
	node.HasTitle = true
	return node, true
}

type admonitionParser struct{}

func (p *admonitionParser) Trigger() []byte { return []byte{'!'} }

func (p *admonitionParser) Open(parent gast.Node, reader text.Reader, pc parser.Context) (gast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || !bytes.HasPrefix(line[pos:], []byte("!!!")) {
		return nil, parser.NoChildren
	}
	node, ok := parseAdmonitionHeader(line[pos:])
	if !ok {
		return nil, parser.NoChildren
	}
	reader.Advance(segment.Len() - 1)
	return node, parser.HasChildren
}

func (p *admonitionParser) Continue(node gast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, _ := reader.PeekLine()
	if util.IsBlank(line) {
		reader.Advance(len(line) - 1)
		return parser.Continue | parser.HasChildren
	}
	indent, _ := util.IndentWidth(line, reader.LineOffset())
	if indent < 4 {
		return parser.Close
	}
	pos, padding := util.IndentPosition(line, reader.LineOffset(), 4)
	reader.AdvanceAndSetPadding(pos, padding)
	return parser.Continue | parser.HasChildren
}

func (p *admonitionParser) Close(node gast.Node, reader text.Reader, pc parser.Context) {}

func (p *admonitionParser) CanInterruptParagraph() bool { return true }

func (p *admonitionParser) CanAcceptIndentedLine() bool { return false }

type admonitionRenderer struct{}

func (r *admonitionRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindAdmonition, r.renderAdmonition)
}

func (r *admonitionRenderer) renderAdmonition(w util.BufWriter, source []byte, n gast.Node, entering bool) (gast.WalkStatus, error) {
	node := n.(*AdmonitionNode)
	if !entering {
		_, _ = w.WriteString("</div>\n")
		return gast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<div class="admonition`)
	for _, class := range node.Classes {
		_ = w.WriteByte(' ')
		_, _ = w.Write(util.EscapeHTML([]byte(class)))
	}
	_, _ = w.WriteString("\">\n")
	if node.HasTitle {
		_, _ = w.WriteString(`<p class="admonition-title">`)
		_, _ = w.Write(util.EscapeHTML([]byte(node.Title)))
		_, _ = w.WriteString("</p>\n")
	}
	return gast.WalkContinue, nil
}

type admonitionExtension struct{}

// Admonition enables `!!! note "Title"` callout blocks.
var Admonition goldmark.Extender = &admonitionExtension{}

func (e *admonitionExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithBlockParsers(
		util.Prioritized(&admonitionParser{}, 150),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&admonitionRenderer{}, 500),
	))
}
