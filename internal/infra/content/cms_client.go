package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"saas-subscription-backend/internal/config"
	"saas-subscription-backend/internal/domain"
	"saas-subscription-backend/internal/domain/model"
	"saas-subscription-backend/internal/domain/ports/adapter"
)

var _ adapter.ContentSource = (*CMSClient)(nil)

// CMSClient reads the article feed from a headless CMS over HTTP. The CMS is
// the source of truth; nothing here writes.
type CMSClient struct {
	baseURL string
	http    *http.Client
}

func NewCMSClient(cfg *config.ContentConfig) *CMSClient {
	return &CMSClient{
		baseURL: cfg.CMSBaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *CMSClient) ListArticles(ctx context.Context, offset, limit int) ([]*model.Article, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	var out []*model.Article
	if err := c.getJSON(ctx, "/articles?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CMSClient) GetArticle(ctx context.Context, slug string) (*model.Article, error) {
	var out model.Article
	if err := c.getJSON(ctx, "/articles/"+url.PathEscape(slug), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CMSClient) getJSON(ctx context.Context, path string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("cms request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cms fetch %s: %w", path, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("cms fetch %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("cms decode %s: %w", path, err)
	}
	return nil
}
