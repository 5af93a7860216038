package content

import (
	"context"
	"time"

	"saas-subscription-backend/internal/domain"
	"saas-subscription-backend/internal/domain/model"
	"saas-subscription-backend/internal/domain/ports/adapter"
)

var _ adapter.ContentSource = (*StaticSource)(nil)

// StaticSource serves a fixed in-memory feed when no CMS is configured.
type StaticSource struct {
	articles []*model.Article
}

func NewStaticSource() *StaticSource {
	published := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	return &StaticSource{articles: []*model.Article{
		{
			ID:          1,
			Title:       "Welcome to the platform",
			Slug:        "welcome",
			Content:     "A quick tour of projects, plans and billing.",
			Author:      "Platform Team",
			PublishedAt: &published,
		},
		{
			ID:          2,
			Title:       "Choosing the right plan",
			Slug:        "choosing-a-plan",
			Content:     "Monthly versus yearly billing, and what each tier includes.",
			Author:      "Platform Team",
			PublishedAt: &published,
		},
	}}
}

func (s *StaticSource) ListArticles(_ context.Context, offset, limit int) ([]*model.Article, error) {
	if offset >= len(s.articles) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(s.articles) {
		end = len(s.articles)
	}
	return s.articles[offset:end], nil
}

func (s *StaticSource) GetArticle(_ context.Context, slug string) (*model.Article, error) {
	for _, a := range s.articles {
		if a.Slug == slug {
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}
