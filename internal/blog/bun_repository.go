package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// BunPostRepository implements PostRepository on top of bun. Posts are not
// cached because likes and views are updated in place on every read.
type BunPostRepository struct {
	db   *bun.DB
	repo repository.Repository[*Post]
}

// NewBunPostRepository creates a post repository.
func NewBunPostRepository(db *bun.DB) *BunPostRepository {
	return &BunPostRepository{db: db, repo: NewPostRepository(db)}
}

func (r *BunPostRepository) Create(ctx context.Context, post *Post) (*Post, error) {
	record, err := r.repo.Create(ctx, post)
	if err != nil {
		return nil, mapWriteError(err, "post")
	}
	if err := r.replaceTags(ctx, record.ID, post.Tags); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

func (r *BunPostRepository) Update(ctx context.Context, post *Post) (*Post, error) {
	_, err := r.repo.Update(ctx, post,
		repository.UpdateByID(post.ID.String()),
		repository.UpdateColumns(
			"title",
			"slug",
			"read_mins",
			"is_published",
			"can_comment",
			"thumbnail_location",
			"markdown_description",
			"markdown_content",
			"html_description",
			"html_content",
			"html_toc",
			"series_id",
			"series_position",
			"updated_at",
		),
	)
	if err != nil {
		return nil, mapWriteError(mapRepositoryError(err, "post", post.ID.String()), "post")
	}
	if err := r.replaceTags(ctx, post.ID, post.Tags); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, post.ID)
}

func (r *BunPostRepository) replaceTags(ctx context.Context, postID uuid.UUID, tags []string) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*PostTag)(nil)).
			Where("?TableAlias.post_id = ?", postID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete post tags: %w", err)
		}
		if len(tags) == 0 {
			return nil
		}
		rows := make([]*PostTag, 0, len(tags))
		for _, tag := range tags {
			rows = append(rows, &PostTag{PostID: postID, Tag: tag})
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert post tags: %w", err)
		}
		return nil
	})
}

func (r *BunPostRepository) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "post", id.String())
	}
	return r.hydrateOne(ctx, record)
}

func (r *BunPostRepository) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	record, err := r.repo.GetByIdentifier(ctx, slug)
	if err != nil {
		return nil, mapRepositoryError(err, "post", slug)
	}
	return r.hydrateOne(ctx, record)
}

func (r *BunPostRepository) GetByTitle(ctx context.Context, title string) (*Post, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.title = ?", title)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "post", Key: title}
	}
	return r.hydrateOne(ctx, records[0])
}

func (r *BunPostRepository) List(ctx context.Context, query PostQuery) ([]*Post, int, error) {
	orderBy := OrderCreatedAt
	if _, ok := orderColumns[query.OrderBy]; ok {
		orderBy = query.OrderBy
	}
	direction := "DESC"
	if query.Asc {
		direction = "ASC"
	}
	search := strings.TrimSpace(query.Search)
	postgres := r.db.Dialect().Name() == dialect.PG

	records, total, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			if query.PublishedOnly {
				q = q.Where("?TableAlias.is_published = ?", true)
			}
			if len(query.Tags) > 0 {
				q = q.Where("?TableAlias.id IN (SELECT post_id FROM blog_post_tags WHERE tag IN (?))", bun.In(query.Tags))
			}
			if search != "" {
				if postgres {
					q = q.Where("?TableAlias.ts_vector @@ plainto_tsquery('english', ?)", search)
				} else {
					pattern := likePattern(search)
					q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
						return q.Where("LOWER(?TableAlias.title) LIKE ? ESCAPE '!'", pattern).
							WhereOr("LOWER(?TableAlias.markdown_content) LIKE ? ESCAPE '!'", pattern)
					})
				}
			}
			if query.Limit > 0 {
				q = q.Limit(query.Limit).Offset(max(query.Offset, 0))
			}
			return q.OrderExpr("?TableAlias.? "+direction, bun.Ident(orderBy)).
				OrderExpr("?TableAlias.id " + direction)
		}),
	)
	if err != nil {
		return nil, 0, err
	}
	if err := r.hydrate(ctx, records); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *BunPostRepository) ListBySeries(ctx context.Context, seriesID uuid.UUID) ([]*Post, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.series_id = ?", seriesID).
				OrderExpr("?TableAlias.series_position IS NULL").
				OrderExpr("?TableAlias.series_position ASC").
				OrderExpr("?TableAlias.created_at ASC")
		}),
	)
	if err != nil {
		return nil, err
	}
	if err := r.hydrate(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *BunPostRepository) AdjustCounters(ctx context.Context, id uuid.UUID, likes, views int) (*Post, error) {
	res, err := r.db.NewUpdate().
		Model((*Post)(nil)).
		Set("likes = CASE WHEN likes + ? < 0 THEN 0 ELSE likes + ? END", likes, likes).
		Set("views = views + ?", views).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("adjust post counters: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, &NotFoundError{Resource: "post", Key: id.String()}
	}
	return r.GetByID(ctx, id)
}

func (r *BunPostRepository) DetachSeries(ctx context.Context, seriesID uuid.UUID) error {
	_, err := r.db.NewUpdate().
		Model((*Post)(nil)).
		Set("series_id = NULL").
		Set("series_position = NULL").
		Where("series_id = ?", seriesID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("detach series posts: %w", err)
	}
	return nil
}

func (r *BunPostRepository) AddOldSlug(ctx context.Context, slug *OldSlug) error {
	if slug.CreatedAt.IsZero() {
		slug.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.NewInsert().
		Model(slug).
		On("CONFLICT (slug) DO UPDATE").
		Set("post_id = EXCLUDED.post_id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert old slug: %w", err)
	}
	return nil
}

func (r *BunPostRepository) ResolveOldSlug(ctx context.Context, slug string) (uuid.UUID, error) {
	var record OldSlug
	err := r.db.NewSelect().
		Model(&record).
		Where("?TableAlias.slug = ?", slug).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return uuid.Nil, &NotFoundError{Resource: "old_slug", Key: slug}
		}
		return uuid.Nil, fmt.Errorf("resolve old slug: %w", err)
	}
	return record.PostID, nil
}

func (r *BunPostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range []any{(*PostTag)(nil), (*OldSlug)(nil), (*Media)(nil)} {
			if _, err := tx.NewDelete().
				Model(model).
				Where("?TableAlias.post_id = ?", id).
				Exec(ctx); err != nil {
				return fmt.Errorf("delete post dependents: %w", err)
			}
		}
		res, err := tx.NewDelete().
			Model((*Post)(nil)).
			Where("?TableAlias.id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return &NotFoundError{Resource: "post", Key: id.String()}
		}
		return nil
	})
}

func (r *BunPostRepository) hydrateOne(ctx context.Context, post *Post) (*Post, error) {
	if err := r.hydrate(ctx, []*Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

// hydrate loads tags and slug history for posts in two batched queries.
func (r *BunPostRepository) hydrate(ctx context.Context, posts []*Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(posts))
	byID := make(map[uuid.UUID]*Post, len(posts))
	for _, post := range posts {
		post.Tags = []string{}
		post.OldSlugs = nil
		ids = append(ids, post.ID)
		byID[post.ID] = post
	}

	var tags []PostTag
	if err := r.db.NewSelect().
		Model(&tags).
		Where("?TableAlias.post_id IN (?)", bun.In(ids)).
		OrderExpr("?TableAlias.tag ASC").
		Scan(ctx); err != nil {
		return fmt.Errorf("load post tags: %w", err)
	}
	for _, tag := range tags {
		if post := byID[tag.PostID]; post != nil {
			post.Tags = append(post.Tags, tag.Tag)
		}
	}

	var slugs []OldSlug
	if err := r.db.NewSelect().
		Model(&slugs).
		Where("?TableAlias.post_id IN (?)", bun.In(ids)).
		OrderExpr("?TableAlias.slug ASC").
		Scan(ctx); err != nil {
		return fmt.Errorf("load old slugs: %w", err)
	}
	for _, slug := range slugs {
		if post := byID[slug.PostID]; post != nil {
			post.OldSlugs = append(post.OldSlugs, slug.Slug)
		}
	}
	return nil
}

// BunSeriesRepository implements SeriesRepository with optional caching.
type BunSeriesRepository struct {
	db           *bun.DB
	repo         repository.Repository[*Series]
	store        repository.Repository[*Series]
	cacheService cache.CacheService
	cachePrefix  string
}

const seriesNamespace = "blog_series"

// NewBunSeriesRepository creates a series repository without caching.
func NewBunSeriesRepository(db *bun.DB) *BunSeriesRepository {
	return NewBunSeriesRepositoryWithCache(db, nil, nil)
}

// NewBunSeriesRepositoryWithCache creates a series repository with caching services.
func NewBunSeriesRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunSeriesRepository {
	store := NewSeriesRepository(db)
	base := store
	var svc cache.CacheService
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(store, cacheService, serializer)
		svc = cacheService
	}
	prefix := ""
	if svc != nil {
		prefix = cachePrefix(seriesNamespace)
	}
	return &BunSeriesRepository{db: db, repo: base, store: store, cacheService: svc, cachePrefix: prefix}
}

func (r *BunSeriesRepository) Create(ctx context.Context, series *Series) (*Series, error) {
	record, err := r.repo.Create(ctx, series)
	if err != nil {
		return nil, mapWriteError(err, "series")
	}
	return record, r.InvalidateCache(ctx)
}

func (r *BunSeriesRepository) GetByID(ctx context.Context, id uuid.UUID) (*Series, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "series", id.String())
	}
	return record, nil
}

func (r *BunSeriesRepository) GetByName(ctx context.Context, name string) (*Series, error) {
	record, err := r.repo.GetByIdentifier(ctx, name)
	if err != nil {
		return nil, mapRepositoryError(err, "series", name)
	}
	return record, nil
}

func (r *BunSeriesRepository) List(ctx context.Context, search string) ([]*Series, error) {
	search = strings.TrimSpace(search)
	repo := r.repo
	if search != "" {
		// searches bypass the cache; only the unfiltered listing is cached
		repo = r.store
	}
	records, _, err := repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			if search != "" {
				pattern := likePattern(search)
				q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
					return q.Where("LOWER(?TableAlias.name) LIKE ? ESCAPE '!'", pattern).
						WhereOr("LOWER(?TableAlias.description) LIKE ? ESCAPE '!'", pattern)
				})
			}
			return q.OrderExpr("?TableAlias.created_at ASC").OrderExpr("?TableAlias.name ASC")
		}),
	)
	return records, err
}

func (r *BunSeriesRepository) Update(ctx context.Context, series *Series) (*Series, error) {
	record, err := r.repo.Update(ctx, series,
		repository.UpdateByID(series.ID.String()),
		repository.UpdateColumns("name", "description", "updated_at"),
	)
	if err != nil {
		return nil, mapWriteError(mapRepositoryError(err, "series", series.ID.String()), "series")
	}
	return record, r.InvalidateCache(ctx)
}

func (r *BunSeriesRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*Series)(nil)).
		Where("?TableAlias.id = ?", id).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("lookup series: %w", err)
	}
	if !exists {
		return false, nil
	}
	if err := r.repo.Delete(ctx, &Series{ID: id}); err != nil {
		return false, fmt.Errorf("delete series: %w", err)
	}
	return true, r.InvalidateCache(ctx)
}

func (r *BunSeriesRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern builds a case-insensitive substring pattern matching search
// literally. Use it with ESCAPE '!'.
func likePattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
}

// BunMediaRepository implements MediaRepository.
type BunMediaRepository struct {
	repo repository.Repository[*Media]
}

// NewBunMediaRepository creates a media repository.
func NewBunMediaRepository(db *bun.DB) *BunMediaRepository {
	return &BunMediaRepository{repo: NewMediaRepository(db)}
}

func (r *BunMediaRepository) Create(ctx context.Context, media *Media) (*Media, error) {
	record, err := r.repo.Create(ctx, media)
	if err != nil {
		return nil, mapWriteError(err, "media")
	}
	return record, nil
}

func (r *BunMediaRepository) GetByID(ctx context.Context, id uuid.UUID) (*Media, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "media", id.String())
	}
	return record, nil
}

func (r *BunMediaRepository) ListByPost(ctx context.Context, postID uuid.UUID) ([]*Media, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.post_id = ?", postID).
				OrderExpr("?TableAlias.position IS NULL").
				OrderExpr("?TableAlias.position ASC").
				OrderExpr("?TableAlias.created_at ASC")
		}),
	)
	return records, err
}

func (r *BunMediaRepository) Update(ctx context.Context, media *Media) (*Media, error) {
	record, err := r.repo.Update(ctx, media,
		repository.UpdateByID(media.ID.String()),
		repository.UpdateColumns("name", "locations", "media_type", "position"),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "media", media.ID.String())
	}
	return record, nil
}

func (r *BunMediaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return r.repo.Delete(ctx, &Media{ID: id})
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}

	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}

	return fmt.Errorf("%s repository error: %w", resource, err)
}

// mapWriteError folds constraint violations from sqlite and postgres into
// the package sentinels. The whole wrap chain is inspected since repository
// errors may replace the driver message.
func mapWriteError(err error, resource string) error {
	if err == nil {
		return nil
	}
	for cause := err; cause != nil; cause = errors.Unwrap(cause) {
		msg := strings.ToLower(cause.Error())
		switch {
		case strings.Contains(msg, "unique constraint"),
			strings.Contains(msg, "duplicate key"),
			strings.Contains(msg, "sqlstate=23505"):
			return fmt.Errorf("%s: %w", resource, ErrDuplicateRecord)
		case strings.Contains(msg, "foreign key constraint"),
			strings.Contains(msg, "sqlstate=23503"):
			return fmt.Errorf("%s: %w", resource, ErrMissingRelation)
		}
	}
	return err
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func cachePrefix(namespace string) string {
	if namespace == "" {
		return ""
	}
	return namespace + cache.KeySeparator
}
