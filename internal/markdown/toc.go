package markdown

import (
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	tocListClass   = "flex flex-col gap-3"
	tocNestedClass = "flex flex-col gap-3 ml-6"
	tocItemClass   = "flex flex-col gap-3"
	tocLinkClass   = "link px-2 py-1 rounded-lg"
	tocLinkClick   = "tocOpen = false; allowTocClose = false;"
)

// TOCEntry is a heading listed in the table of contents.
type TOCEntry struct {
	Level    int
	ID       string
	Name     string
	Children []*TOCEntry
}

var (
	tocLeading  = []TOCEntry{{ID: "", Name: "Title"}}
	tocTrailing = []TOCEntry{
		{ID: "about-the-author", Name: "About the author"},
		{ID: "comments", Name: "Comments"},
	}
)

func collectHeadings(doc *goquery.Document, depth int) []TOCEntry {
	if depth <= 0 {
		depth = 3
	}
	selectors := make([]string, 0, depth)
	for level := 1; level <= depth && level <= 6; level++ {
		selectors = append(selectors, fmt.Sprintf("h%d", level))
	}

	var entries []TOCEntry
	doc.Find(strings.Join(selectors, ", ")).Each(func(_ int, h *goquery.Selection) {
		id, ok := h.Attr("id")
		if !ok || id == "" {
			return
		}
		entries = append(entries, TOCEntry{
			Level: headingLevel(goquery.NodeName(h)),
			ID:    anchorID(id),
			Name:  strings.TrimSpace(h.Text()),
		})
	})
	return entries
}

func headingLevel(name string) int {
	if len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6' {
		return int(name[1] - '0')
	}
	return 0
}

// nestEntries turns the document-ordered heading list into a tree. A heading
// becomes a child of the closest preceding heading with a smaller level.
func nestEntries(flat []TOCEntry) []*TOCEntry {
	var roots []*TOCEntry
	var stack []*TOCEntry
	for i := range flat {
		entry := &flat[i]
		for len(stack) > 0 && stack[len(stack)-1].Level >= entry.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, entry)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, entry)
		}
		stack = append(stack, entry)
	}
	return roots
}

func buildTOC(doc *goquery.Document, depth int) string {
	entries := nestEntries(collectHeadings(doc, depth))

	var b strings.Builder
	b.WriteString(`<nav class="not-prose" id="toc"><ul class="` + tocListClass + `">`)
	for i := range tocLeading {
		writeTOCEntry(&b, &tocLeading[i])
	}
	for _, entry := range entries {
		writeTOCEntry(&b, entry)
	}
	for i := range tocTrailing {
		writeTOCEntry(&b, &tocTrailing[i])
	}
	b.WriteString(`</ul></nav>`)
	return b.String()
}

func writeTOCEntry(b *strings.Builder, entry *TOCEntry) {
	b.WriteString(`<li class="` + tocItemClass + `">`)
	fmt.Fprintf(b, `<a class="%s" @click="%s" href="#%s">%s</a>`,
		tocLinkClass, tocLinkClick, html.EscapeString(entry.ID), html.EscapeString(entry.Name))
	if len(entry.Children) > 0 {
		b.WriteString(`<ul class="` + tocNestedClass + `">`)
		for _, child := range entry.Children {
			writeTOCEntry(b, child)
		}
		b.WriteString(`</ul>`)
	}
	b.WriteString(`</li>`)
}
