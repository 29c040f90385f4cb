package blog

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/permissions"
	fieldvalidation "github.com/goliatone/go-blog/internal/validation"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Service describes blog authoring and reading capabilities.
type Service interface {
	ListPosts(ctx context.Context, req ListPostsRequest) (*Page, error)
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	GetPostBySlug(ctx context.Context, slug string) (*SlugLookup, error)
	SavePost(ctx context.Context, req SavePostRequest) (*Post, error)
	DeletePost(ctx context.Context, id uuid.UUID) error
	TogglePostLike(ctx context.Context, id uuid.UUID, like bool) (*Post, error)
	IncrementPostViews(ctx context.Context, id uuid.UUID) (*Post, error)

	ListSeries(ctx context.Context, search string) ([]*Series, error)
	GetSeries(ctx context.Context, id uuid.UUID) (*Series, error)
	CreateSeries(ctx context.Context, input SeriesInput) (*Series, error)
	UpdateSeries(ctx context.Context, id uuid.UUID, input SeriesInput) (*Series, error)
	DeleteSeries(ctx context.Context, id uuid.UUID) (bool, error)

	AddMedia(ctx context.Context, req AddMediaRequest) (*Media, error)
	ReorderMedia(ctx context.Context, postID uuid.UUID, order []uuid.UUID) ([]*Media, error)
	DeleteMedia(ctx context.Context, id uuid.UUID) error
}

// ListPostsRequest filters a post listing. Page is 1-based.
type ListPostsRequest struct {
	Page    int      `json:"page"`
	PerPage int      `json:"per_page"`
	Tags    []string `json:"tags"`
	Search  string   `json:"search"`
	OrderBy string   `json:"order_by"`
	Asc     bool     `json:"asc"`
}

// SavePostRequest creates a post when ID is nil or unknown, otherwise it
// updates the existing post.
type SavePostRequest struct {
	ID                  *uuid.UUID `json:"id,omitempty"`
	Title               string     `json:"title"`
	MarkdownDescription string     `json:"markdown_description"`
	MarkdownContent     string     `json:"markdown_content"`
	Tags                []string   `json:"tags"`
	ThumbnailLocation   *string    `json:"thumbnail_location,omitempty"`
	IsPublished         bool       `json:"is_published"`
	CanComment          bool       `json:"can_comment"`
	SeriesID            *uuid.UUID `json:"series_id,omitempty"`
	SeriesPosition      *int       `json:"series_position,omitempty"`
	// Images overrides the image count used for read time. When nil the
	// images referenced by the content are counted.
	Images *int `json:"images,omitempty"`
}

// Validate checks the request shape before any lookups happen.
func (r SavePostRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.MarkdownContent, validation.Required),
		validation.Field(&r.Tags, validation.Each(validation.Length(1, 64))),
		validation.Field(&r.SeriesPosition, validation.Min(0)),
	)
}

// SeriesInput carries the mutable fields of a series.
type SeriesInput struct {
	ID          *uuid.UUID `json:"id,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
}

func (i SeriesInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Name, validation.Required, validation.Length(1, 200)),
	)
}

// AddMediaRequest records media already stored elsewhere.
type AddMediaRequest struct {
	PostID    uuid.UUID `json:"post_id"`
	Name      string    `json:"name"`
	Locations []string  `json:"locations"`
	MediaType string    `json:"media_type"`
	Position  *int      `json:"position,omitempty"`
}

func (r AddMediaRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PostID, validation.NotIn(uuid.Nil).Error("cannot be blank")),
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Locations, validation.Required),
		validation.Field(&r.MediaType, validation.Required, validation.In("image", "video")),
	)
}

// IDGenerator produces record identifiers.
type IDGenerator func() uuid.UUID

// ServiceOption configures blog service behaviour.
type ServiceOption func(*service)

// WithClock overrides the internal time source.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithIDGenerator overrides the ID generator used for new records.
func WithIDGenerator(generator IDGenerator) ServiceOption {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		s.logger = logging.Ensure(logger)
	}
}

// WithPageSize sets the default and maximum listing page sizes.
func WithPageSize(defaultSize, maxSize int) ServiceOption {
	return func(s *service) {
		if defaultSize > 0 {
			s.perPage = defaultSize
		}
		if maxSize > 0 {
			s.maxPerPage = maxSize
		}
	}
}

type service struct {
	posts    PostRepository
	series   SeriesRepository
	media    MediaRepository
	renderer markdown.Renderer

	now        func() time.Time
	id         IDGenerator
	logger     interfaces.Logger
	perPage    int
	maxPerPage int
}

// NewService constructs the blog service.
func NewService(posts PostRepository, series SeriesRepository, media MediaRepository, renderer markdown.Renderer, opts ...ServiceOption) Service {
	s := &service{
		posts:      posts,
		series:     series,
		media:      media,
		renderer:   renderer,
		now:        func() time.Time { return time.Now().UTC() },
		id:         uuid.New,
		logger:     logging.NoOp(),
		perPage:    DefaultResultsPerPage,
		maxPerPage: 100,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *service) ListPosts(ctx context.Context, req ListPostsRequest) (*Page, error) {
	perPage := req.PerPage
	if perPage <= 0 {
		perPage = s.perPage
	}
	perPage = min(perPage, s.maxPerPage)

	query := PostQuery{
		PublishedOnly: !permissions.Allowed(ctx, permissions.ActionReadUnpublished),
		Tags:          normalizeTags(req.Tags),
		Search:        strings.TrimSpace(req.Search),
		OrderBy:       req.OrderBy,
		Asc:           req.Asc,
	}
	if _, ok := orderColumns[query.OrderBy]; !ok {
		query.OrderBy = OrderCreatedAt
	}

	page := max(req.Page, 1)
	query.Limit, query.Offset = LimitOffset(perPage, page)
	posts, total, err := s.posts.List(ctx, query)
	if err != nil {
		return nil, err
	}

	totalPages := TotalPages(total, perPage)
	if clamped := ClampPage(page, totalPages); clamped != page {
		page = clamped
		query.Limit, query.Offset = LimitOffset(perPage, page)
		if posts, total, err = s.posts.List(ctx, query); err != nil {
			return nil, err
		}
	}
	return newPage(posts, total, totalPages, page, query.Offset), nil
}

func (s *service) GetPost(ctx context.Context, id uuid.UUID) (*Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.visible(ctx, post); err != nil {
		return nil, err
	}
	return s.attach(ctx, post)
}

func (s *service) GetPostBySlug(ctx context.Context, slug string) (*SlugLookup, error) {
	slug = strings.TrimSpace(slug)
	post, err := s.posts.GetBySlug(ctx, slug)
	redirected := false
	if errors.Is(err, ErrPostNotFound) {
		id, resolveErr := s.posts.ResolveOldSlug(ctx, slug)
		if resolveErr != nil {
			return nil, resolveErr
		}
		post, err = s.posts.GetByID(ctx, id)
		redirected = true
	}
	if err != nil {
		return nil, err
	}
	if err := s.visible(ctx, post); err != nil {
		return nil, err
	}
	if post, err = s.attach(ctx, post); err != nil {
		return nil, err
	}
	return &SlugLookup{Post: post, Redirected: redirected}, nil
}

// visible hides drafts from callers that may not read them.
func (s *service) visible(ctx context.Context, post *Post) error {
	if post.IsPublished || permissions.Allowed(ctx, permissions.ActionReadUnpublished) {
		return nil
	}
	return &NotFoundError{Resource: "post", Key: post.Slug}
}

func (s *service) attach(ctx context.Context, post *Post) (*Post, error) {
	media, err := s.media.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	post.Media = media
	if post.SeriesID != nil {
		series, err := s.GetSeries(ctx, *post.SeriesID)
		switch {
		case errors.Is(err, ErrSeriesNotFound):
		case err != nil:
			return nil, err
		default:
			post.Series = series
		}
	}
	return post, nil
}

func (s *service) SavePost(ctx context.Context, req SavePostRequest) (*Post, error) {
	if err := permissions.Require(ctx, permissions.ActionEditPost); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := req.Validate(); err != nil {
		return nil, fieldvalidation.FromOzzo(err)
	}

	var existing *Post
	if req.ID != nil {
		post, err := s.posts.GetByID(ctx, *req.ID)
		switch {
		case errors.Is(err, ErrPostNotFound):
		case err != nil:
			return nil, err
		default:
			existing = post
		}
	}

	if fields := s.checkConstraints(ctx, req, existing); !fields.Empty() {
		return nil, fields
	}

	var (
		saved *Post
		err   error
	)
	if existing == nil {
		saved, err = s.createPost(ctx, req)
	} else {
		saved, err = s.updatePost(ctx, req, existing)
	}
	if err != nil {
		return nil, saveError(err)
	}
	s.logger.Info("blog.post.saved", "post_id", saved.ID, "slug", saved.Slug, "created", existing == nil)
	return saved, nil
}

func (s *service) checkConstraints(ctx context.Context, req SavePostRequest, existing *Post) fieldvalidation.FieldErrors {
	fields := fieldvalidation.FieldErrors{}
	slug := Slugify(req.Title)
	if slug == "" {
		fields.Add("title", MsgTitleNoSlug)
		return fields
	}
	for _, lookup := range []func() (*Post, error){
		func() (*Post, error) { return s.posts.GetByTitle(ctx, req.Title) },
		func() (*Post, error) { return s.posts.GetBySlug(ctx, slug) },
	} {
		other, err := lookup()
		if err == nil && (existing == nil || other.ID != existing.ID) {
			fields.Add("title", MsgTitleExists)
			break
		}
	}
	if req.SeriesID != nil {
		if _, err := s.series.GetByID(ctx, *req.SeriesID); err != nil {
			fields.Add("series_id", MsgSeriesMissing)
		}
	}
	return fields
}

// saveError folds storage constraint failures into field errors.
func saveError(err error) error {
	switch {
	case errors.Is(err, ErrDuplicateRecord):
		return fieldvalidation.FieldErrors{"title": {MsgTitleExists}}
	case errors.Is(err, ErrMissingRelation):
		return fieldvalidation.FieldErrors{"series_id": {MsgSeriesMissing}}
	}
	return err
}

func (s *service) createPost(ctx context.Context, req SavePostRequest) (*Post, error) {
	description, err := s.renderer.Render(ctx, req.MarkdownDescription, markdown.Options{UpdateHeaders: true})
	if err != nil {
		return nil, err
	}
	content, err := s.renderer.Render(ctx, req.MarkdownContent, markdown.Options{UpdateHeaders: true})
	if err != nil {
		return nil, err
	}

	id := s.id()
	if req.ID != nil {
		id = *req.ID
	}
	now := s.now()
	post := &Post{
		ID:                  id,
		Title:               req.Title,
		Slug:                Slugify(req.Title),
		ReadMins:            ReadMinutes(req.MarkdownContent, imageCount(req)),
		IsPublished:         req.IsPublished,
		CanComment:          req.CanComment,
		ThumbnailLocation:   req.ThumbnailLocation,
		MarkdownDescription: req.MarkdownDescription,
		MarkdownContent:     req.MarkdownContent,
		HTMLDescription:     description.HTML,
		HTMLContent:         content.HTML,
		HTMLTOC:             content.TOC,
		SeriesID:            req.SeriesID,
		SeriesPosition:      req.SeriesPosition,
		Tags:                normalizeTags(req.Tags),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	return s.posts.Create(ctx, post)
}

func (s *service) updatePost(ctx context.Context, req SavePostRequest, post *Post) (*Post, error) {
	if post.Title != req.Title {
		if err := s.posts.AddOldSlug(ctx, &OldSlug{Slug: post.Slug, PostID: post.ID, CreatedAt: s.now()}); err != nil {
			return nil, err
		}
		post.Title = req.Title
		post.Slug = Slugify(req.Title)
	}

	if tags := normalizeTags(req.Tags); !sameTags(post.Tags, tags) {
		post.Tags = tags
	}

	if post.MarkdownDescription != req.MarkdownDescription {
		description, err := s.renderer.Render(ctx, req.MarkdownDescription, markdown.Options{UpdateHeaders: true})
		if err != nil {
			return nil, err
		}
		post.MarkdownDescription = req.MarkdownDescription
		post.HTMLDescription = description.HTML
	}

	if post.MarkdownContent != req.MarkdownContent {
		content, err := s.renderer.Render(ctx, req.MarkdownContent, markdown.Options{UpdateHeaders: true})
		if err != nil {
			return nil, err
		}
		post.MarkdownContent = req.MarkdownContent
		post.HTMLContent = content.HTML
		post.HTMLTOC = content.TOC
		post.ReadMins = ReadMinutes(req.MarkdownContent, imageCount(req))
	}

	post.IsPublished = req.IsPublished
	post.CanComment = req.CanComment
	post.ThumbnailLocation = req.ThumbnailLocation
	post.SeriesID = req.SeriesID
	post.SeriesPosition = req.SeriesPosition
	post.UpdatedAt = s.now()
	return s.posts.Update(ctx, post)
}

func imageCount(req SavePostRequest) int {
	if req.Images != nil {
		return max(*req.Images, 0)
	}
	return len(mdImages.FindAllStringIndex(req.MarkdownContent, -1)) +
		len(mdPictures.FindAllStringIndex(req.MarkdownContent, -1))
}

// normalizeTags lowercases, trims and dedupes tags keeping first-seen order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || slices.Contains(out, tag) {
			continue
		}
		out = append(out, tag)
	}
	return out
}

func sameTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	left, right := slices.Clone(a), slices.Clone(b)
	slices.Sort(left)
	slices.Sort(right)
	return slices.Equal(left, right)
}

func (s *service) DeletePost(ctx context.Context, id uuid.UUID) error {
	if err := permissions.Require(ctx, permissions.ActionEditPost); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("blog.post.deleted", "post_id", id)
	return nil
}

func (s *service) TogglePostLike(ctx context.Context, id uuid.UUID, like bool) (*Post, error) {
	delta := -1
	if like {
		delta = 1
	}
	return s.posts.AdjustCounters(ctx, id, delta, 0)
}

func (s *service) IncrementPostViews(ctx context.Context, id uuid.UUID) (*Post, error) {
	return s.posts.AdjustCounters(ctx, id, 0, 1)
}

func (s *service) ListSeries(ctx context.Context, search string) ([]*Series, error) {
	records, err := s.series.List(ctx, search)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if err := s.fillSeriesPosts(ctx, record); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (s *service) GetSeries(ctx context.Context, id uuid.UUID) (*Series, error) {
	record, err := s.series.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.fillSeriesPosts(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) fillSeriesPosts(ctx context.Context, series *Series) error {
	posts, err := s.posts.ListBySeries(ctx, series.ID)
	if err != nil {
		return err
	}
	showDrafts := permissions.Allowed(ctx, permissions.ActionReadUnpublished)
	series.Posts = make([]PostSummary, 0, len(posts))
	for _, post := range posts {
		if post.IsPublished || showDrafts {
			series.Posts = append(series.Posts, post.Summarize())
		}
	}
	return nil
}

func (s *service) CreateSeries(ctx context.Context, input SeriesInput) (*Series, error) {
	if err := permissions.Require(ctx, permissions.ActionEditPost); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := input.Validate(); err != nil {
		return nil, fieldvalidation.FromOzzo(err)
	}
	if _, err := s.series.GetByName(ctx, input.Name); err == nil {
		return nil, fieldvalidation.FieldErrors{"name": {MsgSeriesNameTaken}}
	}

	id := s.id()
	if input.ID != nil {
		id = *input.ID
	}
	now := s.now()
	record, err := s.series.Create(ctx, &Series{
		ID:          id,
		Name:        input.Name,
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if errors.Is(err, ErrDuplicateRecord) {
		return nil, fieldvalidation.FieldErrors{"name": {MsgSeriesNameTaken}}
	}
	if err != nil {
		return nil, err
	}
	record.Posts = []PostSummary{}
	return record, nil
}

func (s *service) UpdateSeries(ctx context.Context, id uuid.UUID, input SeriesInput) (*Series, error) {
	if err := permissions.Require(ctx, permissions.ActionEditPost); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := input.Validate(); err != nil {
		return nil, fieldvalidation.FromOzzo(err)
	}
	record, err := s.series.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if other, err := s.series.GetByName(ctx, input.Name); err == nil && other.ID != id {
		return nil, fieldvalidation.FieldErrors{"name": {MsgSeriesNameTaken}}
	}
	record.Name = input.Name
	record.Description = strings.TrimSpace(input.Description)
	record.UpdatedAt = s.now()
	if _, err := s.series.Update(ctx, record); err != nil {
		if errors.Is(err, ErrDuplicateRecord) {
			return nil, fieldvalidation.FieldErrors{"name": {MsgSeriesNameTaken}}
		}
		return nil, err
	}
	return s.GetSeries(ctx, id)
}

func (s *service) DeleteSeries(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := permissions.Require(ctx, permissions.ActionEditPost); err != nil {
		return false, err
	}
	if err := s.posts.DetachSeries(ctx, id); err != nil {
		return false, err
	}
	deleted, err := s.series.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.logger.Info("blog.series.deleted", "series_id", id)
	}
	return deleted, nil
}

func (s *service) AddMedia(ctx context.Context, req AddMediaRequest) (*Media, error) {
	if err := permissions.Require(ctx, permissions.ActionEditPost); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, fieldvalidation.FromOzzo(err)
	}
	post, err := s.posts.GetByID(ctx, req.PostID)
	if err != nil {
		return nil, err
	}

	locations := make([]string, 0, len(req.Locations))
	for _, location := range req.Locations {
		if trimmed := strings.TrimSpace(location); trimmed != "" {
			locations = append(locations, trimmed)
		}
	}
	return s.media.Create(ctx, &Media{
		ID:        s.id(),
		PostID:    post.ID,
		Name:      MediaFileName(req.Name, post.Slug),
		Locations: strings.Join(locations, ","),
		MediaType: req.MediaType,
		Position:  req.Position,
		CreatedAt: s.now(),
	})
}

// ReorderMedia assigns positions following order. Every id must belong to
// the post.
func (s *service) ReorderMedia(ctx context.Context, postID uuid.UUID, order []uuid.UUID) ([]*Media, error) {
	if err := permissions.Require(ctx, permissions.ActionEditPost); err != nil {
		return nil, err
	}
	records := make([]*Media, 0, len(order))
	for _, id := range order {
		record, err := s.media.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if record.PostID != postID {
			return nil, &NotFoundError{Resource: "media", Key: id.String()}
		}
		records = append(records, record)
	}
	for idx, record := range records {
		position := idx
		record.Position = &position
		if _, err := s.media.Update(ctx, record); err != nil {
			return nil, err
		}
	}
	return s.media.ListByPost(ctx, postID)
}

func (s *service) DeleteMedia(ctx context.Context, id uuid.UUID) error {
	if err := permissions.Require(ctx, permissions.ActionEditPost); err != nil {
		return err
	}
	return s.media.Delete(ctx, id)
}
