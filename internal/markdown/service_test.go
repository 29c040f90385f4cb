package markdown

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func renderPost(t *testing.T, source string) Rendered {
	t.Helper()
	svc := NewService(Config{})
	out, err := svc.Render(context.Background(), source, Options{UpdateHeaders: true})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return out
}

func mustDoc(t *testing.T, fragment string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestRenderPrefixesNumericHeadingIDs(t *testing.T) {
	out := renderPost(t, "# Intro\n\n## 1. Setup\n")
	doc := mustDoc(t, out.HTML)

	h2 := doc.Find("h2")
	if id, _ := h2.Attr("id"); id != "blog-1-setup" {
		t.Fatalf("expected prefixed id, got %q", id)
	}
	if got, _ := h2.Attr("x-intersect"); got != "highlightTocElement('blog-1-setup')" {
		t.Fatalf("unexpected x-intersect %q", got)
	}

	h1 := doc.Find("h1")
	if id, _ := h1.Attr("id"); id != "intro" {
		t.Fatalf("expected alphabetic id untouched, got %q", id)
	}
}

func TestRenderWithoutHeaderUpdates(t *testing.T) {
	svc := NewService(Config{})
	out, err := svc.Render(context.Background(), "## 2 things\n", Options{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	doc := mustDoc(t, out.HTML)
	if id, _ := doc.Find("h2").Attr("id"); id != "2-things" {
		t.Fatalf("expected raw id, got %q", id)
	}
	if _, ok := doc.Find("h2").Attr("x-intersect"); ok {
		t.Fatalf("did not expect x-intersect without header updates")
	}
}

func TestRenderDecoratesExternalLinksOnly(t *testing.T) {
	out := renderPost(t, "[site](https://example.com) and [jump](#intro)\n")
	doc := mustDoc(t, out.HTML)

	external := doc.Find(`a[href="https://example.com"]`)
	if target, _ := external.Attr("target"); target != "_blank" {
		t.Fatalf("expected target _blank, got %q", target)
	}
	if rel, _ := external.Attr("rel"); rel != "noopener noreferrer" {
		t.Fatalf("expected rel noopener noreferrer, got %q", rel)
	}

	anchor := doc.Find(`a[href="#intro"]`)
	if _, ok := anchor.Attr("target"); ok {
		t.Fatalf("fragment links must not open a new tab")
	}
}

func TestRenderWrapsCodeBlocks(t *testing.T) {
	out := renderPost(t, "```go\nfmt.Println(\"hi\")\n```\n")
	doc := mustDoc(t, out.HTML)

	if doc.Find("div.highlight.not-prose > pre").Length() != 1 {
		t.Fatalf("expected highlighted block wrapper, got %s", out.HTML)
	}
	if tab, _ := doc.Find("pre").Attr("tabindex"); tab != "0" {
		t.Fatalf("expected tabindex 0, got %q", tab)
	}
}

func TestRenderMediaFixups(t *testing.T) {
	source := "![diagram](/static/diagram.svg)\n\n" +
		"<video controls>\n<source src=\"/static/clip.mp4\" type=\"video/mp4\">\n</video>\n"
	out := renderPost(t, source)
	doc := mustDoc(t, out.HTML)

	img := doc.Find("img")
	for _, class := range []string{"rounded-lg", "mx-auto", "w-4/5", "max-sm:w-full"} {
		if !img.HasClass(class) {
			t.Fatalf("expected img class %q in %s", class, out.HTML)
		}
	}
	if loading, _ := img.Attr("loading"); loading != "lazy" {
		t.Fatalf("expected lazy loading, got %q", loading)
	}
	if !img.Parent().HasClass("text-center") {
		t.Fatalf("expected centered paragraph")
	}

	video := doc.Find("video")
	if !video.HasClass("lazy") {
		t.Fatalf("expected lazy video, got %s", out.HTML)
	}
	source1 := video.Find("source")
	if _, ok := source1.Attr("src"); ok {
		t.Fatalf("expected src to move to data-src")
	}
	if dataSrc, _ := source1.Attr("data-src"); dataSrc != "/static/clip.mp4" {
		t.Fatalf("unexpected data-src %q", dataSrc)
	}
}

func TestRenderMarkAndStrikethrough(t *testing.T) {
	out := renderPost(t, "some ==marked== and ~~gone~~ text\n")
	if !strings.Contains(out.HTML, "<mark>marked</mark>") {
		t.Fatalf("expected mark element, got %s", out.HTML)
	}
	if !strings.Contains(out.HTML, "<del>gone</del>") {
		t.Fatalf("expected del element, got %s", out.HTML)
	}
}

func TestRenderAdmonition(t *testing.T) {
	out := renderPost(t, "!!! note \"Heads up\"\n    Body text here.\n\nAfter.\n")
	doc := mustDoc(t, out.HTML)

	box := doc.Find("div.admonition.note")
	if box.Length() != 1 {
		t.Fatalf("expected admonition block, got %s", out.HTML)
	}
	if title := box.Find("p.admonition-title").Text(); title != "Heads up" {
		t.Fatalf("unexpected title %q", title)
	}
	if !strings.Contains(box.Text(), "Body text here.") {
		t.Fatalf("expected body inside admonition, got %s", out.HTML)
	}
	if strings.Contains(box.Text(), "After.") {
		t.Fatalf("unindented paragraph must close the admonition")
	}
}

func TestRenderAdmonitionDefaultTitle(t *testing.T) {
	out := renderPost(t, "!!! warning\n    Careful.\n")
	doc := mustDoc(t, out.HTML)
	if title := doc.Find("div.admonition.warning p.admonition-title").Text(); title != "Warning" {
		t.Fatalf("expected capitalised type as title, got %q", title)
	}
}

func TestRenderTOC(t *testing.T) {
	out := renderPost(t, "# Intro\n\n## Part A\n\n### Detail\n\n## 2nd part\n\n#### Deep\n")
	doc := mustDoc(t, out.TOC)

	nav := doc.Find("nav#toc.not-prose")
	if nav.Length() != 1 {
		t.Fatalf("expected toc nav, got %s", out.TOC)
	}

	var hrefs []string
	nav.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		hrefs = append(hrefs, href)
		if click, _ := a.Attr("@click"); click != "tocOpen = false; allowTocClose = false;" {
			t.Fatalf("unexpected @click %q", click)
		}
		if !a.HasClass("link") || !a.HasClass("rounded-lg") {
			t.Fatalf("missing link classes on %s", href)
		}
	})

	want := []string{"#", "#intro", "#part-a", "#detail", "#blog-2nd-part", "#about-the-author", "#comments"}
	if strings.Join(hrefs, " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected toc hrefs %v", hrefs)
	}

	nested := nav.Find(`a[href="#intro"]`).Parent().ChildrenFiltered("ul")
	if !nested.HasClass("ml-6") {
		t.Fatalf("expected nested list under intro, got %s", out.TOC)
	}
	if nested.Find(`a[href="#detail"]`).Length() != 1 {
		t.Fatalf("expected detail nested under intro")
	}
}

func TestRenderTOCWithoutHeadings(t *testing.T) {
	out := renderPost(t, "Just a paragraph.\n")
	doc := mustDoc(t, out.TOC)
	if got := doc.Find("nav#toc li").Length(); got != 3 {
		t.Fatalf("expected only the fixed toc items, got %d in %s", got, out.TOC)
	}
}

func TestRenderCommentPipeline(t *testing.T) {
	svc := NewService(Config{})
	out, err := svc.RenderComment(context.Background(),
		"# Title\n\nSome *text* <script>bad()</script>\n\n> quoted\n")
	if err != nil {
		t.Fatalf("RenderComment: %v", err)
	}

	if !strings.Contains(out, "<h3>Title</h3>") {
		t.Fatalf("expected demoted heading, got %s", out)
	}
	if !strings.Contains(out, "<em>text</em>") {
		t.Fatalf("expected emphasis, got %s", out)
	}
	if strings.Contains(out, "<script") {
		t.Fatalf("script tag leaked: %s", out)
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Fatalf("expected escaped script text, got %s", out)
	}
	if !strings.Contains(out, "<blockquote>") {
		t.Fatalf("expected blockquote to survive cleaning, got %s", out)
	}
}

func TestEngineIgnoresUnknownExtensions(t *testing.T) {
	exts := collectExtensions(EngineConfig{Extensions: []string{"GFM", "gfm", "unknown", " "}})
	if len(exts) != 1 {
		t.Fatalf("expected one extension, got %d", len(exts))
	}
}

func TestRenderClassAttributesUseSingleSpaces(t *testing.T) {
	out := renderPost(t, "```go\nx := 1\n```\n\n![diagram](/img/flow.svg)\n")
	doc := mustDoc(t, out.HTML)

	if got, _ := doc.Find("div.highlight").Attr("class"); got != "highlight not-prose" {
		t.Fatalf("unexpected code block class %q", got)
	}
	if got, _ := doc.Find("img").Attr("class"); got != "rounded-lg mx-auto w-4/5 max-sm:w-full" {
		t.Fatalf("unexpected image class %q", got)
	}
}

func TestAddClassSkipsDuplicates(t *testing.T) {
	doc := mustDoc(t, `<p class=" lead  text-center "></p>`)
	p := doc.Find("p")
	addClass(p, "text-center wide")
	if got, _ := p.Attr("class"); got != "lead text-center wide" {
		t.Fatalf("unexpected class %q", got)
	}
}
