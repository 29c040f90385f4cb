package blog

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewPostRepository creates a repository for Post entities keyed by slug.
func NewPostRepository(db *bun.DB) repository.Repository[*Post] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Post]{
		NewRecord: func() *Post { return &Post{} },
		GetID: func(p *Post) uuid.UUID {
			return p.ID
		},
		SetID: func(p *Post, id uuid.UUID) {
			p.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(p *Post) string {
			return p.Slug
		},
	})
}

// NewSeriesRepository creates a repository for Series entities keyed by name.
func NewSeriesRepository(db *bun.DB) repository.Repository[*Series] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Series]{
		NewRecord: func() *Series { return &Series{} },
		GetID: func(s *Series) uuid.UUID {
			return s.ID
		},
		SetID: func(s *Series, id uuid.UUID) {
			s.ID = id
		},
		GetIdentifier: func() string {
			return "name"
		},
		GetIdentifierValue: func(s *Series) string {
			return s.Name
		},
	})
}

// NewMediaRepository creates a repository for Media entities.
func NewMediaRepository(db *bun.DB) repository.Repository[*Media] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Media]{
		NewRecord: func() *Media { return &Media{} },
		GetID: func(m *Media) uuid.UUID {
			return m.ID
		},
		SetID: func(m *Media, id uuid.UUID) {
			m.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(m *Media) string {
			return m.ID.String()
		},
	})
}
