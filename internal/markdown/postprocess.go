package markdown

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	headerIDPrefix  = "blog-"
	imageClasses    = "rounded-lg mx-auto"
	svgImageClasses = "w-4/5 max-sm:w-full"
	centeredClass   = "text-center"
)

func parseFragment(fragment string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("markdown parse html: %w", err)
	}
	return doc, nil
}

func renderFragment(doc *goquery.Document) (string, error) {
	out, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("markdown render html: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// decorate applies the link, heading, code block and media fixups in place.
func decorate(doc *goquery.Document, updateHeaders bool) {
	updateLinks(doc)
	if updateHeaders {
		updateHeadings(doc)
	}
	updateCodeBlocks(doc)
	updateMedia(doc)
}

func updateLinks(doc *goquery.Document) {
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if strings.HasPrefix(href, "#") {
			return
		}
		a.SetAttr("target", "_blank")
		a.SetAttr("rel", "noopener noreferrer")
	})
}

func updateHeadings(doc *goquery.Document) {
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, h *goquery.Selection) {
		id, ok := h.Attr("id")
		if !ok || id == "" {
			return
		}
		id = anchorID(id)
		h.SetAttr("id", id)
		h.SetAttr("x-intersect", fmt.Sprintf("highlightTocElement('%s')", id))
	})
}

// anchorID prefixes ids that do not start with a letter so they stay valid
// selectors for the client-side table of contents.
func anchorID(id string) string {
	r, _ := utf8.DecodeRuneInString(id)
	if r == utf8.RuneError || !unicode.IsLetter(r) {
		return headerIDPrefix + id
	}
	return id
}

func updateCodeBlocks(doc *goquery.Document) {
	doc.Find("pre").Each(func(_ int, pre *goquery.Selection) {
		if !pre.Parent().Is("div.highlight") {
			pre.WrapHtml(`<div class="highlight"></div>`)
		}
		pre.SetAttr("tabindex", "0")
	})
	addClass(doc.Find("div.highlight"), "not-prose")
}

func updateMedia(doc *goquery.Document) {
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		addClass(img, imageClasses)
		img.SetAttr("loading", "lazy")
		if src, _ := img.Attr("src"); strings.HasSuffix(strings.ToLower(src), ".svg") {
			addClass(img, svgImageClasses)
		}
		if parent := img.Parent(); parent.Is("p") {
			addClass(parent, centeredClass)
		}
	})

	doc.Find("picture, .media-element").Each(func(_ int, el *goquery.Selection) {
		addClass(el.Parent(), centeredClass)
	})

	doc.Find("video").Each(func(_ int, video *goquery.Selection) {
		addClass(video, "lazy")
		video.Find("source[src]").Each(func(_ int, source *goquery.Selection) {
			src, _ := source.Attr("src")
			source.RemoveAttr("src")
			source.SetAttr("data-src", src)
		})
	})
}

// addClass merges classes into every selected element's class attribute,
// keeping single spaces and dropping duplicates.
func addClass(sel *goquery.Selection, classes string) {
	sel.Each(func(_ int, el *goquery.Selection) {
		current, _ := el.Attr("class")
		names := strings.Fields(current)
		for _, name := range strings.Fields(classes) {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
		el.SetAttr("class", strings.Join(names, " "))
	})
}
