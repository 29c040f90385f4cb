package blog

import (
	"math"
	"regexp"
	"strings"

	"github.com/goliatone/go-slug"
)

var (
	slugStripChars = regexp.MustCompile("[!@#$%^&*()+=`~<>/:;.,]")
	slugSeparators = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

	mdImages     = regexp.MustCompile(`!\[.*?\)`)
	mdPictures   = regexp.MustCompile(`(?s)<picture>.*?</picture>`)
	mdAttrLists  = regexp.MustCompile(`\{:.*?\}`)
	mdLinks      = regexp.MustCompile(`\[(.*?)\]\(.*?\)`)
	mdTitle      = regexp.MustCompile(`# (.*)\n`)
	mdTags       = regexp.MustCompile(`tags: (.*)\n`)
	mdThumbnail  = regexp.MustCompile(`thumbnail:\s(.*)\n`)
	introHeading = "## Introduction\n\n"
)

// Slugify builds a URL slug from a title: punctuation is dropped, the rest
// lowercased and every run of non-word characters collapsed into a dash.
func Slugify(title string) string {
	title = slugStripChars.ReplaceAllString(title, "")
	slug := slugSeparators.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, " -")
}

const (
	secondsPerImage     = 5.0
	secondsPerCodeBlock = 8.0
	wordsPerMinute      = 200.0
)

// ReadMinutes estimates reading time, rounded up to whole minutes.
func ReadMinutes(content string, images int) int {
	codeBlocks := strings.Count(content, "```") / 2
	words := len(strings.Fields(StripMarkdown(content)))

	total := float64(images)*secondsPerImage/60 +
		float64(codeBlocks)*secondsPerCodeBlock/60 +
		float64(words)/wordsPerMinute
	return int(math.Ceil(total))
}

// StripMarkdown reduces Markdown to plain prose for meta descriptions and
// word counts.
func StripMarkdown(md string) string {
	md = mdImages.ReplaceAllString(md, "")
	md = mdPictures.ReplaceAllString(md, "")
	md = mdAttrLists.ReplaceAllString(md, "")
	md = mdLinks.ReplaceAllString(md, "$1")
	md = strings.ReplaceAll(md, "#", "")
	return strings.Join(strings.Fields(md), " ")
}

// ExtractTitle returns the first "# " heading.
func ExtractTitle(content string) (string, error) {
	m := mdTitle.FindStringSubmatch(content)
	if m == nil {
		return "", ErrNoTitle
	}
	return m[1], nil
}

// ExtractTags returns the comma separated list on the first "tags: " line.
func ExtractTags(content string) ([]string, error) {
	m := mdTags.FindStringSubmatch(content)
	if m == nil {
		return nil, ErrNoTags
	}
	return strings.Split(m[1], ", "), nil
}

// ExtractThumbnail returns the "thumbnail: " location, or "" when absent.
func ExtractThumbnail(content string) string {
	m := mdThumbnail.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.Trim(m[1], " <>")
}

// ExtractIntroduction returns the text between the "## Introduction"
// heading and the next second-level heading.
func ExtractIntroduction(content string) (string, error) {
	start := strings.Index(content, introHeading)
	if start < 0 {
		return "", ErrNoIntroduction
	}
	rest := content[start+len(introHeading):]
	end := strings.Index(rest, "\n##")
	if end < 0 {
		return "", ErrNoIntroduction
	}
	return rest[:end], nil
}

// ExtractContent returns everything after the "## Introduction" heading.
func ExtractContent(content string) (string, error) {
	start := strings.Index(content, introHeading)
	if start < 0 {
		return "", ErrNoContent
	}
	return content[start+len(introHeading):], nil
}

// MediaFileName is the storage name for media attached to a post.
func MediaFileName(name, postSlug string) string {
	base, err := slug.Normalize(name)
	if err != nil || base == "" {
		base = Slugify(name)
	}
	return base + "--" + postSlug
}
