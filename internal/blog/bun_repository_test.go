package blog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-blog/internal/blog"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/pkg/testsupport"
)

func newBunDB(t *testing.T) *bun.DB {
	t.Helper()
	db, err := testsupport.NewBunDB()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := testsupport.CreateTables(context.Background(), db,
		(*blog.Series)(nil),
		(*blog.Post)(nil),
		(*blog.PostTag)(nil),
		(*blog.OldSlug)(nil),
		(*blog.Media)(nil),
	); err != nil {
		t.Fatalf("%v", err)
	}
	return db
}

func TestBunPostRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newBunDB(t)
	repo := blog.NewBunPostRepository(db)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	created, err := repo.Create(ctx, &blog.Post{
		ID:              uuid.New(),
		Title:           "Bun Post",
		Slug:            "bun-post",
		MarkdownContent: "hello sqlite",
		IsPublished:     true,
		Tags:            []string{"go", "sql"},
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if len(created.Tags) != 2 || created.Tags[0] != "go" {
		t.Fatalf("expected tags to round trip, got %v", created.Tags)
	}

	_, err = repo.Create(ctx, &blog.Post{ID: uuid.New(), Title: "Bun Post", Slug: "other", CreatedAt: now, UpdatedAt: now})
	if !errors.Is(err, blog.ErrDuplicateRecord) {
		t.Fatalf("expected duplicate record, got %v", err)
	}

	created.Title = "Renamed"
	created.Slug = "renamed"
	created.Tags = []string{"db"}
	if err := repo.AddOldSlug(ctx, &blog.OldSlug{Slug: "bun-post", PostID: created.ID}); err != nil {
		t.Fatalf("add old slug: %v", err)
	}
	updated, err := repo.Update(ctx, created)
	if err != nil {
		t.Fatalf("update post: %v", err)
	}
	if updated.Slug != "renamed" || len(updated.Tags) != 1 || updated.Tags[0] != "db" {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if len(updated.OldSlugs) != 1 || updated.OldSlugs[0] != "bun-post" {
		t.Fatalf("expected slug history, got %v", updated.OldSlugs)
	}

	id, err := repo.ResolveOldSlug(ctx, "bun-post")
	if err != nil || id != created.ID {
		t.Fatalf("resolve old slug: %v (%v)", id, err)
	}
	if _, err := repo.ResolveOldSlug(ctx, "missing"); !errors.Is(err, blog.ErrPostNotFound) {
		t.Fatalf("expected not found for unknown old slug, got %v", err)
	}

	bySlug, err := repo.GetBySlug(ctx, "renamed")
	if err != nil || bySlug.ID != created.ID {
		t.Fatalf("get by slug: %v", err)
	}
	if _, err := repo.GetBySlug(ctx, "bun-post"); !errors.Is(err, blog.ErrPostNotFound) {
		t.Fatalf("expected live slug lookup to miss, got %v", err)
	}

	counted, err := repo.AdjustCounters(ctx, created.ID, -1, 1)
	if err != nil {
		t.Fatalf("adjust counters: %v", err)
	}
	if counted.Likes != 0 || counted.Views != 1 {
		t.Fatalf("unexpected counters likes=%d views=%d", counted.Likes, counted.Views)
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	if _, err := repo.GetByID(ctx, created.ID); !errors.Is(err, blog.ErrPostNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestBunPostRepositoryListFilters(t *testing.T) {
	ctx := context.Background()
	db := newBunDB(t)
	repo := blog.NewBunPostRepository(db)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	fixtures := []struct {
		title     string
		tags      []string
		published bool
	}{
		{title: "Alpha", tags: []string{"go"}, published: true},
		{title: "Beta", tags: []string{"rust"}, published: true},
		{title: "Gamma", tags: []string{"go", "web"}, published: true},
		{title: "Delta", tags: []string{"go"}, published: false},
	}
	for i, fx := range fixtures {
		_, err := repo.Create(ctx, &blog.Post{
			ID:              uuid.New(),
			Title:           fx.title,
			Slug:            blog.Slugify(fx.title),
			MarkdownContent: "content about " + fx.title,
			IsPublished:     fx.published,
			Tags:            fx.tags,
			CreatedAt:       base.Add(time.Duration(i) * time.Hour),
			UpdatedAt:       base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("create %s: %v", fx.title, err)
		}
	}

	posts, total, err := repo.List(ctx, blog.PostQuery{PublishedOnly: true, Tags: []string{"go"}, Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(posts) != 1 || posts[0].Title != "Gamma" {
		t.Fatalf("unexpected list result total=%d posts=%v", total, posts)
	}

	posts, total, err = repo.List(ctx, blog.PostQuery{Search: "ABOUT beta"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || posts[0].Title != "Beta" {
		t.Fatalf("unexpected search result total=%d", total)
	}

	posts, total, err = repo.List(ctx, blog.PostQuery{Search: "a%"})
	if err != nil {
		t.Fatalf("wildcard search: %v", err)
	}
	if total != 0 || len(posts) != 0 {
		t.Fatalf("expected %% to match literally, got total=%d", total)
	}

	posts, _, err = repo.List(ctx, blog.PostQuery{OrderBy: blog.OrderTitle, Asc: true})
	if err != nil {
		t.Fatalf("ordered list: %v", err)
	}
	if len(posts) != 4 || posts[0].Title != "Alpha" || posts[1].Title != "Beta" {
		t.Fatalf("unexpected order %v", posts)
	}
}

func TestBlogServiceWithBunStorageAndCache(t *testing.T) {
	db := newBunDB(t)

	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = time.Minute
	cacheService, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	keySerializer := repocache.NewDefaultKeySerializer()

	svc := blog.NewService(
		blog.NewBunPostRepository(db),
		blog.NewBunSeriesRepositoryWithCache(db, cacheService, keySerializer),
		blog.NewBunMediaRepository(db),
		markdown.NewService(markdown.Config{}),
	)
	ctx := adminContext()

	series, err := svc.CreateSeries(ctx, blog.SeriesInput{Name: "Storage"})
	if err != nil {
		t.Fatalf("create series: %v", err)
	}
	// Warm the cache before the rename.
	if _, err := svc.GetSeries(ctx, series.ID); err != nil {
		t.Fatalf("get series: %v", err)
	}

	post, err := svc.SavePost(ctx, blog.SavePostRequest{
		Title:           "Cached",
		MarkdownContent: "# Heading\n\nbody",
		IsPublished:     true,
		SeriesID:        &series.ID,
	})
	if err != nil {
		t.Fatalf("save post: %v", err)
	}

	renamed, err := svc.UpdateSeries(ctx, series.ID, blog.SeriesInput{Name: "Storage Engines"})
	if err != nil {
		t.Fatalf("update series: %v", err)
	}
	if renamed.Name != "Storage Engines" || len(renamed.Posts) != 1 || renamed.Posts[0].ID != post.ID {
		t.Fatalf("unexpected series after update %+v", renamed)
	}

	deleted, err := svc.DeleteSeries(ctx, series.ID)
	if err != nil || !deleted {
		t.Fatalf("delete series: %v (%v)", deleted, err)
	}
	if _, err := blog.NewBunSeriesRepository(db).GetByID(ctx, series.ID); !errors.Is(err, blog.ErrSeriesNotFound) {
		t.Fatalf("expected series not found after delete, got %v", err)
	}
	reloaded, err := svc.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if reloaded.SeriesID != nil {
		t.Fatalf("expected post detached from series")
	}
}

func TestBunSeriesRepositoryCachedSearch(t *testing.T) {
	ctx := context.Background()
	db := newBunDB(t)

	cacheService, err := repocache.NewCacheService(repocache.DefaultConfig())
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	repo := blog.NewBunSeriesRepositoryWithCache(db, cacheService, repocache.NewDefaultKeySerializer())
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	for i, name := range []string{"Databases", "Compilers", "100_percent"} {
		if _, err := repo.Create(ctx, &blog.Series{
			ID:        uuid.New(),
			Name:      name,
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
			UpdatedAt: now.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	cases := []struct {
		search string
		want   []string
	}{
		{search: "", want: []string{"Databases", "Compilers", "100_percent"}},
		{search: "data", want: []string{"Databases"}},
		{search: "compil", want: []string{"Compilers"}},
		{search: "0_p", want: []string{"100_percent"}},
		{search: "s_s", want: nil},
		{search: "", want: []string{"Databases", "Compilers", "100_percent"}},
	}
	for _, tc := range cases {
		got, err := repo.List(ctx, tc.search)
		if err != nil {
			t.Fatalf("list %q: %v", tc.search, err)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("list %q: expected %v, got %d series", tc.search, tc.want, len(got))
		}
		for i, series := range got {
			if series.Name != tc.want[i] {
				t.Fatalf("list %q: expected %v, got %s at %d", tc.search, tc.want, series.Name, i)
			}
		}
	}
}
