package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"saas-subscription-backend/internal/domain/model"
	"saas-subscription-backend/internal/domain/ports/adapter"
)

var _ ContentUseCase = (*contentUC)(nil)

// ContentUseCase serves the public article feed.
type ContentUseCase interface {
	ListArticles(ctx context.Context, offset, limit int) ([]*model.Article, error)
	GetArticle(ctx context.Context, slug string) (*model.Article, error)
}

type contentUC struct {
	source adapter.ContentSource
	log    *zerolog.Logger
}

func NewContentUseCase(source adapter.ContentSource, logger *zerolog.Logger) *contentUC {
	return &contentUC{source: source, log: logger}
}

func (u *contentUC) ListArticles(ctx context.Context, offset, limit int) ([]*model.Article, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return u.source.ListArticles(ctx, offset, limit)
}

func (u *contentUC) GetArticle(ctx context.Context, slug string) (*model.Article, error) {
	return u.source.GetArticle(ctx, slug)
}
