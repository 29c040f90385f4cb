package blog

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type memoryPostRepository struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*Post
	bySlug   map[string]uuid.UUID
	oldSlugs map[string]uuid.UUID
}

// NewMemoryPostRepository constructs an in-memory post repository.
func NewMemoryPostRepository() PostRepository {
	return &memoryPostRepository{
		byID:     make(map[uuid.UUID]*Post),
		bySlug:   make(map[string]uuid.UUID),
		oldSlugs: make(map[string]uuid.UUID),
	}
}

func (m *memoryPostRepository) Create(_ context.Context, post *Post) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conflictLocked(post) {
		return nil, ErrDuplicateRecord
	}
	cloned := clonePost(post)
	m.byID[cloned.ID] = cloned
	m.bySlug[cloned.Slug] = cloned.ID
	return m.withHistoryLocked(cloned), nil
}

func (m *memoryPostRepository) conflictLocked(post *Post) bool {
	for id, existing := range m.byID {
		if id == post.ID {
			continue
		}
		if existing.Slug == post.Slug || existing.Title == post.Title {
			return true
		}
	}
	return false
}

func (m *memoryPostRepository) Update(_ context.Context, post *Post) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[post.ID]
	if !ok {
		return nil, &NotFoundError{Resource: "post", Key: post.ID.String()}
	}
	if m.conflictLocked(post) {
		return nil, ErrDuplicateRecord
	}
	if existing.Slug != post.Slug {
		delete(m.bySlug, existing.Slug)
	}
	cloned := clonePost(post)
	m.byID[cloned.ID] = cloned
	m.bySlug[cloned.Slug] = cloned.ID
	return m.withHistoryLocked(cloned), nil
}

func (m *memoryPostRepository) GetByID(_ context.Context, id uuid.UUID) (*Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.byID[id]
	if !ok {
		return nil, &NotFoundError{Resource: "post", Key: id.String()}
	}
	return m.withHistoryLocked(record), nil
}

func (m *memoryPostRepository) GetBySlug(_ context.Context, slug string) (*Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.bySlug[slug]
	if !ok {
		return nil, &NotFoundError{Resource: "post", Key: slug}
	}
	return m.withHistoryLocked(m.byID[id]), nil
}

func (m *memoryPostRepository) GetByTitle(_ context.Context, title string) (*Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, record := range m.byID {
		if record.Title == title {
			return m.withHistoryLocked(record), nil
		}
	}
	return nil, &NotFoundError{Resource: "post", Key: title}
}

func (m *memoryPostRepository) List(_ context.Context, query PostQuery) ([]*Post, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(query.Search))
	matched := make([]*Post, 0, len(m.byID))
	for _, record := range m.byID {
		if query.PublishedOnly && !record.IsPublished {
			continue
		}
		if len(query.Tags) > 0 && !slices.ContainsFunc(query.Tags, record.HasTag) {
			continue
		}
		if search != "" {
			haystack := strings.ToLower(record.Title + " " + record.MarkdownContent)
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		matched = append(matched, record)
	}

	sortPosts(matched, query.OrderBy, query.Asc)

	total := len(matched)
	start := min(max(query.Offset, 0), total)
	end := total
	if query.Limit > 0 {
		end = min(start+query.Limit, total)
	}

	out := make([]*Post, 0, end-start)
	for _, record := range matched[start:end] {
		out = append(out, m.withHistoryLocked(record))
	}
	return out, total, nil
}

func sortPosts(posts []*Post, orderBy string, asc bool) {
	slices.SortStableFunc(posts, func(a, b *Post) int {
		var c int
		switch orderBy {
		case OrderUpdatedAt:
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		case OrderTitle:
			c = cmp.Compare(a.Title, b.Title)
		case OrderLikes:
			c = cmp.Compare(a.Likes, b.Likes)
		case OrderViews:
			c = cmp.Compare(a.Views, b.Views)
		case OrderReadMins:
			c = cmp.Compare(a.ReadMins, b.ReadMins)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if c == 0 {
			c = strings.Compare(a.ID.String(), b.ID.String())
		}
		if !asc {
			c = -c
		}
		return c
	})
}

func (m *memoryPostRepository) ListBySeries(_ context.Context, seriesID uuid.UUID) ([]*Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Post
	for _, record := range m.byID {
		if record.SeriesID != nil && *record.SeriesID == seriesID {
			out = append(out, m.withHistoryLocked(record))
		}
	}
	sortSeriesPosts(out)
	return out, nil
}

// sortSeriesPosts orders by position, unpositioned posts last, then by
// creation time.
func sortSeriesPosts(posts []*Post) {
	slices.SortStableFunc(posts, func(a, b *Post) int {
		switch {
		case a.SeriesPosition == nil && b.SeriesPosition != nil:
			return 1
		case a.SeriesPosition != nil && b.SeriesPosition == nil:
			return -1
		case a.SeriesPosition != nil && b.SeriesPosition != nil:
			if c := cmp.Compare(*a.SeriesPosition, *b.SeriesPosition); c != 0 {
				return c
			}
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

func (m *memoryPostRepository) AdjustCounters(_ context.Context, id uuid.UUID, likes, views int) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.byID[id]
	if !ok {
		return nil, &NotFoundError{Resource: "post", Key: id.String()}
	}
	record.Likes = max(record.Likes+likes, 0)
	record.Views = max(record.Views+views, 0)
	return m.withHistoryLocked(record), nil
}

func (m *memoryPostRepository) DetachSeries(_ context.Context, seriesID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range m.byID {
		if record.SeriesID != nil && *record.SeriesID == seriesID {
			record.SeriesID = nil
			record.SeriesPosition = nil
		}
	}
	return nil
}

func (m *memoryPostRepository) AddOldSlug(_ context.Context, slug *OldSlug) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.oldSlugs[slug.Slug] = slug.PostID
	return nil
}

func (m *memoryPostRepository) ResolveOldSlug(_ context.Context, slug string) (uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.oldSlugs[slug]
	if !ok {
		return uuid.Nil, &NotFoundError{Resource: "old_slug", Key: slug}
	}
	return id, nil
}

func (m *memoryPostRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[id]
	if !ok {
		return &NotFoundError{Resource: "post", Key: id.String()}
	}
	delete(m.byID, id)
	delete(m.bySlug, existing.Slug)
	for slug, postID := range m.oldSlugs {
		if postID == id {
			delete(m.oldSlugs, slug)
		}
	}
	return nil
}

func (m *memoryPostRepository) withHistoryLocked(post *Post) *Post {
	cloned := clonePost(post)
	cloned.OldSlugs = nil
	for slug, id := range m.oldSlugs {
		if id == post.ID {
			cloned.OldSlugs = append(cloned.OldSlugs, slug)
		}
	}
	slices.Sort(cloned.OldSlugs)
	return cloned
}

func clonePost(post *Post) *Post {
	if post == nil {
		return nil
	}
	cloned := *post
	cloned.Tags = slices.Clone(post.Tags)
	cloned.OldSlugs = slices.Clone(post.OldSlugs)
	cloned.Media = nil
	cloned.Series = nil
	if post.ThumbnailLocation != nil {
		value := *post.ThumbnailLocation
		cloned.ThumbnailLocation = &value
	}
	if post.SeriesID != nil {
		value := *post.SeriesID
		cloned.SeriesID = &value
	}
	if post.SeriesPosition != nil {
		value := *post.SeriesPosition
		cloned.SeriesPosition = &value
	}
	return &cloned
}

type memorySeriesRepository struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*Series
}

// NewMemorySeriesRepository constructs an in-memory series repository.
func NewMemorySeriesRepository() SeriesRepository {
	return &memorySeriesRepository{byID: make(map[uuid.UUID]*Series)}
}

func (m *memorySeriesRepository) Create(_ context.Context, series *Series) (*Series, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.byID {
		if existing.Name == series.Name {
			return nil, ErrDuplicateRecord
		}
	}
	cloned := cloneSeries(series)
	m.byID[cloned.ID] = cloned
	return cloneSeries(cloned), nil
}

func (m *memorySeriesRepository) GetByID(_ context.Context, id uuid.UUID) (*Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.byID[id]
	if !ok {
		return nil, &NotFoundError{Resource: "series", Key: id.String()}
	}
	return cloneSeries(record), nil
}

func (m *memorySeriesRepository) GetByName(_ context.Context, name string) (*Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, record := range m.byID {
		if record.Name == name {
			return cloneSeries(record), nil
		}
	}
	return nil, &NotFoundError{Resource: "series", Key: name}
}

func (m *memorySeriesRepository) List(_ context.Context, search string) ([]*Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]*Series, 0, len(m.byID))
	for _, record := range m.byID {
		if search != "" && !strings.Contains(strings.ToLower(record.Name+" "+record.Description), search) {
			continue
		}
		out = append(out, cloneSeries(record))
	}
	slices.SortFunc(out, func(a, b *Series) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (m *memorySeriesRepository) Update(_ context.Context, series *Series) (*Series, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[series.ID]; !ok {
		return nil, &NotFoundError{Resource: "series", Key: series.ID.String()}
	}
	for id, existing := range m.byID {
		if id != series.ID && existing.Name == series.Name {
			return nil, ErrDuplicateRecord
		}
	}
	cloned := cloneSeries(series)
	m.byID[cloned.ID] = cloned
	return cloneSeries(cloned), nil
}

func (m *memorySeriesRepository) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return false, nil
	}
	delete(m.byID, id)
	return true, nil
}

func cloneSeries(series *Series) *Series {
	if series == nil {
		return nil
	}
	cloned := *series
	cloned.Posts = slices.Clone(series.Posts)
	return &cloned
}

type memoryMediaRepository struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*Media
}

// NewMemoryMediaRepository constructs an in-memory media repository.
func NewMemoryMediaRepository() MediaRepository {
	return &memoryMediaRepository{byID: make(map[uuid.UUID]*Media)}
}

func (m *memoryMediaRepository) Create(_ context.Context, media *Media) (*Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cloned := cloneMedia(media)
	m.byID[cloned.ID] = cloned
	return cloneMedia(cloned), nil
}

func (m *memoryMediaRepository) GetByID(_ context.Context, id uuid.UUID) (*Media, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.byID[id]
	if !ok {
		return nil, &NotFoundError{Resource: "media", Key: id.String()}
	}
	return cloneMedia(record), nil
}

func (m *memoryMediaRepository) ListByPost(_ context.Context, postID uuid.UUID) ([]*Media, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Media
	for _, record := range m.byID {
		if record.PostID == postID {
			out = append(out, cloneMedia(record))
		}
	}
	sortMedia(out)
	return out, nil
}

// sortMedia orders by position, unpositioned media last, then by creation.
func sortMedia(media []*Media) {
	slices.SortStableFunc(media, func(a, b *Media) int {
		switch {
		case a.Position == nil && b.Position != nil:
			return 1
		case a.Position != nil && b.Position == nil:
			return -1
		case a.Position != nil && b.Position != nil:
			if c := cmp.Compare(*a.Position, *b.Position); c != 0 {
				return c
			}
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

func (m *memoryMediaRepository) Update(_ context.Context, media *Media) (*Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[media.ID]; !ok {
		return nil, &NotFoundError{Resource: "media", Key: media.ID.String()}
	}
	cloned := cloneMedia(media)
	m.byID[cloned.ID] = cloned
	return cloneMedia(cloned), nil
}

func (m *memoryMediaRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return &NotFoundError{Resource: "media", Key: id.String()}
	}
	delete(m.byID, id)
	return nil
}

func cloneMedia(media *Media) *Media {
	if media == nil {
		return nil
	}
	cloned := *media
	if media.Position != nil {
		value := *media.Position
		cloned.Position = &value
	}
	return &cloned
}
