package blog_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-blog/internal/blog"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "test title", want: "test-title"},
		{input: "This    is   a Test Title", want: "this-is-a-test-title"},
		{input: "!@#$%^&*()+=`~<>/:;.,test title", want: "test-title"},
		{input: "", want: ""},
		{input: " ", want: ""},
		{input: "Go 1.22: ServeMux patterns", want: "go-122-servemux-patterns"},
		{input: "Café au lait", want: "café-au-lait"},
	}
	for _, tc := range cases {
		if got := blog.Slugify(tc.input); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestReadMinutes(t *testing.T) {
	if got := blog.ReadMinutes("This is a test article.", 0); got != 1 {
		t.Fatalf("expected 1 minute, got %d", got)
	}
	if got := blog.ReadMinutes("", 0); got != 0 {
		t.Fatalf("expected 0 minutes for empty content, got %d", got)
	}
	// 24 images at 5s each is two minutes.
	if got := blog.ReadMinutes("", 24); got != 2 {
		t.Fatalf("expected 2 minutes for images, got %d", got)
	}
}

func TestStripMarkdown(t *testing.T) {
	input := "# Heading\n\nSome [link](https://example.com) and ![alt](img.png)\n<picture>\n<source src=\"a\">\n</picture>\n{: .center}  text"
	want := "Heading Some link and text"
	if got := blog.StripMarkdown(input); got != want {
		t.Fatalf("StripMarkdown = %q, want %q", got, want)
	}
}

const samplePost = `# Building a Blog

tags: Go, Web, Markdown
thumbnail: <https://example.com/thumb.png>

## Introduction

A short intro.

## Setup

Install things.
`

func TestExtractors(t *testing.T) {
	title, err := blog.ExtractTitle(samplePost)
	if err != nil || title != "Building a Blog" {
		t.Fatalf("unexpected title %q (%v)", title, err)
	}
	tags, err := blog.ExtractTags(samplePost)
	if err != nil || len(tags) != 3 || tags[1] != "Web" {
		t.Fatalf("unexpected tags %v (%v)", tags, err)
	}
	if thumb := blog.ExtractThumbnail(samplePost); thumb != "https://example.com/thumb.png" {
		t.Fatalf("unexpected thumbnail %q", thumb)
	}
	intro, err := blog.ExtractIntroduction(samplePost)
	if err != nil || intro != "A short intro.\n" {
		t.Fatalf("unexpected introduction %q (%v)", intro, err)
	}
	content, err := blog.ExtractContent(samplePost)
	if err != nil || content != "A short intro.\n\n## Setup\n\nInstall things.\n" {
		t.Fatalf("unexpected content %q (%v)", content, err)
	}
}

func TestExtractorsReportMissingParts(t *testing.T) {
	if _, err := blog.ExtractTitle("no heading"); !errors.Is(err, blog.ErrNoTitle) {
		t.Fatalf("expected ErrNoTitle, got %v", err)
	}
	if _, err := blog.ExtractTags("# t\n"); !errors.Is(err, blog.ErrNoTags) {
		t.Fatalf("expected ErrNoTags, got %v", err)
	}
	if _, err := blog.ExtractIntroduction("# t\n"); !errors.Is(err, blog.ErrNoIntroduction) {
		t.Fatalf("expected ErrNoIntroduction, got %v", err)
	}
	if _, err := blog.ExtractContent("# t\n"); !errors.Is(err, blog.ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
	if thumb := blog.ExtractThumbnail("# t\n"); thumb != "" {
		t.Fatalf("expected empty thumbnail, got %q", thumb)
	}
}

func TestMediaLocationList(t *testing.T) {
	media := &blog.Media{Locations: "a.webm, b.mp4,,"}
	got := media.LocationList()
	if len(got) != 2 || got[0] != "a.webm" || got[1] != "b.mp4" {
		t.Fatalf("unexpected locations %v", got)
	}
}

func TestPaginationHelpers(t *testing.T) {
	if got := blog.TotalPages(41, 20); got != 3 {
		t.Fatalf("expected 3 pages, got %d", got)
	}
	if got := blog.TotalPages(0, 20); got != 0 {
		t.Fatalf("expected 0 pages, got %d", got)
	}
	if got := blog.ClampPage(9, 3); got != 3 {
		t.Fatalf("expected clamp to 3, got %d", got)
	}
	if got := blog.ClampPage(0, 0); got != 1 {
		t.Fatalf("expected clamp to 1, got %d", got)
	}
	limit, offset := blog.LimitOffset(20, 3)
	if limit != 20 || offset != 40 {
		t.Fatalf("unexpected limit/offset %d/%d", limit, offset)
	}
}
