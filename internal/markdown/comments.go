package markdown

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// Placeholders that stand in for protected fragments while comment markup is
// cleaned. Input that already contains either is cleaned without exceptions.
const (
	codeBlockPlaceholder  = "___CODEBLOCK"
	blockquotePlaceholder = "___BLOCKQUOTE___"
)

var (
	fencedBlockPattern = regexp.MustCompile("(?s)```.*?```")
	quoteLinePattern   = regexp.MustCompile(`(?m)^> `)
	codeTokenPattern   = regexp.MustCompile(codeBlockPlaceholder + `(\d+)___`)

	// Inline markup comment authors may write as raw HTML.
	inlineTags = map[string][]string{
		"a":          {"href", "title"},
		"abbr":       {"title"},
		"acronym":    {"title"},
		"b":          nil,
		"blockquote": nil,
		"code":       nil,
		"em":         nil,
		"i":          nil,
		"li":         nil,
		"ol":         nil,
		"strong":     nil,
		"ul":         nil,
	}
	inlineProtocols = map[string]struct{}{"http": {}, "https": {}, "mailto": {}}

	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
)

// CleanWithExceptions escapes raw HTML in comment Markdown while leaving
// fenced code blocks and blockquote markers intact so they still render.
func CleanWithExceptions(source string) string {
	if strings.Contains(source, codeBlockPlaceholder) || strings.Contains(source, blockquotePlaceholder) {
		return cleanInline(source)
	}

	var blocks []string
	protected := fencedBlockPattern.ReplaceAllStringFunc(source, func(block string) string {
		blocks = append(blocks, block)
		return fmt.Sprintf("%s%d___", codeBlockPlaceholder, len(blocks)-1)
	})
	protected = quoteLinePattern.ReplaceAllString(protected, blockquotePlaceholder)

	cleaned := cleanInline(protected)

	cleaned = strings.ReplaceAll(cleaned, blockquotePlaceholder, "> ")
	return codeTokenPattern.ReplaceAllStringFunc(cleaned, func(token string) string {
		m := codeTokenPattern.FindStringSubmatch(token)
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx >= len(blocks) {
			return token
		}
		return blocks[idx]
	})
}

// cleanInline keeps allowlisted inline tags, escapes every other tag and
// drops HTML comments.
func cleanInline(source string) string {
	z := html.NewTokenizer(strings.NewReader(source))
	var out strings.Builder
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return out.String()
		case html.TextToken:
			out.WriteString(textEscaper.Replace(string(z.Text())))
		case html.CommentToken:
		case html.StartTagToken, html.EndTagToken:
			raw := string(z.Raw())
			token := z.Token()
			allowedAttrs, ok := inlineTags[token.Data]
			if !ok {
				out.WriteString(textEscaper.Replace(raw))
				continue
			}
			if tt == html.EndTagToken {
				out.WriteString("</" + token.Data + ">")
				continue
			}
			out.WriteString(openTag(token, allowedAttrs))
		default:
			out.WriteString(textEscaper.Replace(string(z.Raw())))
		}
	}
}

func openTag(token html.Token, allowed []string) string {
	var b strings.Builder
	b.WriteString("<" + token.Data)
	for _, attr := range token.Attr {
		if !containsString(allowed, attr.Key) {
			continue
		}
		if attr.Key == "href" && !safeHref(attr.Val) {
			continue
		}
		b.WriteString(" " + attr.Key + `="` + html.EscapeString(attr.Val) + `"`)
	}
	b.WriteString(">")
	return b.String()
}

func safeHref(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if u.Scheme == "" {
		return true
	}
	_, ok := inlineProtocols[strings.ToLower(u.Scheme)]
	return ok
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}

// Headings in comments sit below the post's own outline, so each level is
// pushed down and attributes are dropped. Order matters: h5 and h4 collapse
// into h6 before h3 moves into h5.
var headingShifts = []struct {
	pattern *regexp.Regexp
	to      string
}{
	{regexp.MustCompile(`(?i)<\s*(/?)h5\b[^>]*>`), "h6"},
	{regexp.MustCompile(`(?i)<\s*(/?)h4\b[^>]*>`), "h6"},
	{regexp.MustCompile(`(?i)<\s*(/?)h3\b[^>]*>`), "h5"},
	{regexp.MustCompile(`(?i)<\s*(/?)h2\b[^>]*>`), "h4"},
	{regexp.MustCompile(`(?i)<\s*(/?)h1\b[^>]*>`), "h3"},
}

// ShiftHeadings demotes h1..h5 in rendered comment HTML.
func ShiftHeadings(fragment string) string {
	for _, shift := range headingShifts {
		fragment = shift.pattern.ReplaceAllString(fragment, "<${1}"+shift.to+">")
	}
	return fragment
}

// CommentTags lists every element rendered comments may contain.
var CommentTags = []string{
	"a", "abbr", "acronym", "b", "br", "blockquote", "code", "del", "div",
	"em", "figure", "figcaption", "h1", "h2", "h3", "h4", "h5", "h6", "i",
	"img", "li", "mark", "ol", "p", "picture", "pre", "source", "span",
	"strong", "table", "tbody", "td", "th", "thead", "tr", "ul", "video",
}

// NewCommentPolicy builds the allowlist applied to rendered comments.
func NewCommentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(CommentTags...)
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("href", "title", "target", "rel").OnElements("a")
	p.AllowAttrs("title").OnElements("abbr", "acronym")
	p.AllowAttrs("alt", "src", "loading").OnElements("img")
	p.AllowAttrs("src", "srcset", "type").OnElements("source")
	p.AllowAttrs("tabindex").OnElements("pre")
	p.AllowAttrs("width", "height", "muted", "autoplay", "loop", "controls").OnElements("video")
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(true)
	p.RequireParseableURLs(true)
	return p
}

var defaultCommentPolicy = NewCommentPolicy()

// SanitizeComment strips anything outside the comment allowlist.
func SanitizeComment(fragment string) string {
	return defaultCommentPolicy.Sanitize(fragment)
}
