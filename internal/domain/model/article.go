package model

import "time"

// Article is a content-feed item served from the external CMS (or the static
// fallback when no CMS is configured). Articles are read-only here.
type Article struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Content     string     `json:"content"`
	Author      string     `json:"author"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}
