package importer_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-blog/internal/blog"
	"github.com/goliatone/go-blog/internal/identity"
	"github.com/goliatone/go-blog/internal/importer"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/permissions"
)

const plainPost = "# Building A Blog\n\ntags: Go, web, go\n\nthumbnail: <https://img.example.com/cover.png>\n\n## Introduction\n\nWhy I built it.\n\n## Setup\n\nSteps.\n"

const frontMatterPost = `---
title: Series Part One
tags: [go, series]
description: The first part.
series: Deep Dive
draft: true
---
# Series Part One

Body text.
`

func TestParsePlainLayout(t *testing.T) {
	doc, err := importer.Parse("posts/plain.md", []byte(plainPost), importer.Options{Publish: true, CanComment: true})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	req := doc.Request
	if req.Title != "Building A Blog" {
		t.Fatalf("unexpected title %q", req.Title)
	}
	if len(req.Tags) != 2 || req.Tags[0] != "go" || req.Tags[1] != "web" {
		t.Fatalf("expected normalised tags, got %v", req.Tags)
	}
	if req.ThumbnailLocation == nil || *req.ThumbnailLocation != "https://img.example.com/cover.png" {
		t.Fatalf("unexpected thumbnail %v", req.ThumbnailLocation)
	}
	if req.MarkdownDescription != "Why I built it." {
		t.Fatalf("unexpected description %q", req.MarkdownDescription)
	}
	if !req.IsPublished || !req.CanComment {
		t.Fatalf("expected defaults to carry through")
	}
	if doc.ID != identity.PostUUID("building-a-blog") || req.ID == nil || *req.ID != doc.ID {
		t.Fatalf("expected deterministic id from slug")
	}
}

func TestParseFrontMatter(t *testing.T) {
	doc, err := importer.Parse("fm.md", []byte(frontMatterPost), importer.Options{Publish: true})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	req := doc.Request
	if req.Title != "Series Part One" || req.MarkdownDescription != "The first part." {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.MarkdownContent != "Body text." {
		t.Fatalf("expected title heading stripped, got %q", req.MarkdownContent)
	}
	if req.IsPublished {
		t.Fatalf("draft posts must not be published")
	}
	if doc.Series != "Deep Dive" {
		t.Fatalf("unexpected series %q", doc.Series)
	}
}

func TestParseRejectsMissingTitle(t *testing.T) {
	_, err := importer.Parse("bad.md", []byte("no heading here\n"), importer.Options{})
	if !errors.Is(err, blog.ErrNoTitle) {
		t.Fatalf("expected ErrNoTitle, got %v", err)
	}
}

func TestImportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fsys := fstest.MapFS{
		"posts/plain.md":       {Data: []byte(plainPost)},
		"posts/nested/fm.md":   {Data: []byte(frontMatterPost)},
		"posts/notes/skip.txt": {Data: []byte("ignored")},
	}
	svc := blog.NewService(
		blog.NewMemoryPostRepository(),
		blog.NewMemorySeriesRepository(),
		blog.NewMemoryMediaRepository(),
		markdown.NewService(markdown.Config{}),
	)

	docs, err := importer.Discover(fsys, "posts", importer.Options{Recursive: true, Publish: true})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}

	imp := importer.New(svc, nil)
	first, err := imp.Import(ctx, docs, false)
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	if len(first.Created) != 2 || len(first.Updated) != 0 {
		t.Fatalf("unexpected first result %+v", first)
	}

	second, err := imp.Import(ctx, docs, false)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if len(second.Created) != 0 || len(second.Updated) != 2 {
		t.Fatalf("unexpected second result %+v", second)
	}

	admin := permissions.WithRole(ctx, permissions.RoleAdmin)
	post, err := svc.GetPost(admin, identity.PostUUID("series-part-one"))
	if err != nil {
		t.Fatalf("get imported post: %v", err)
	}
	if post.SeriesID == nil || *post.SeriesID != identity.SeriesUUID("Deep Dive") {
		t.Fatalf("expected post attached to its series, got %v", post.SeriesID)
	}
}

func TestDiscoverWithoutRecursionSkipsSubdirectories(t *testing.T) {
	fsys := fstest.MapFS{
		"posts/nested/fm.md": {Data: []byte(frontMatterPost)},
	}
	if _, err := importer.Discover(fsys, "posts", importer.Options{}); !errors.Is(err, importer.ErrNoFiles) {
		t.Fatalf("expected ErrNoFiles, got %v", err)
	}
}

func TestDryRunDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	svc := blog.NewService(
		blog.NewMemoryPostRepository(),
		blog.NewMemorySeriesRepository(),
		blog.NewMemoryMediaRepository(),
		markdown.NewService(markdown.Config{}),
	)
	doc, err := importer.Parse("plain.md", []byte(plainPost), importer.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	result, err := importer.New(svc, nil).Import(ctx, []*importer.Document{doc}, true)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !result.DryRun || len(result.Created) != 1 {
		t.Fatalf("unexpected dry run result %+v", result)
	}
	admin := permissions.WithRole(ctx, permissions.RoleAdmin)
	if _, err := svc.GetPost(admin, doc.ID); !errors.Is(err, blog.ErrPostNotFound) {
		t.Fatalf("expected post to be absent after dry run, got %v", err)
	}
}
