package adapter

import (
	"context"

	"saas-subscription-backend/internal/domain/model"
)

// ContentSource serves the placeholder article feed, normally backed by an
// external CMS.
type ContentSource interface {
	ListArticles(ctx context.Context, offset, limit int) ([]*model.Article, error)
	GetArticle(ctx context.Context, slug string) (*model.Article, error)
}
