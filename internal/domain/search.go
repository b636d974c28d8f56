package domain

import "time"

// SearchRequest carries pagination plus the optional catalog filters.
// All active filters are conjoined.
type SearchRequest struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`

	Title    string   `json:"title,omitempty"`
	Author   []string `json:"author,omitempty"`
	Platform []string `json:"platform,omitempty"`
	Tags     []string `json:"tags,omitempty"`

	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// Normalize clamps pagination to sane values
func (r *SearchRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = 50
	}
}

// MediaRow is one search result row with display names joined in
type MediaRow struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Filepath      string    `json:"filepath"`
	URL           *string   `json:"url,omitempty"`
	Filesize      *int64    `json:"filesize,omitempty"`
	ThumbnailPath *string   `json:"thumbnail_path,omitempty"`
	Author        *string   `json:"author,omitempty"`
	Platform      *string   `json:"platform,omitempty"`
	PlatformID    *uint     `json:"platform_id,omitempty"`
	ProfileID     *uint     `json:"profile_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SearchResult is one page of matching media
type SearchResult struct {
	Data        []MediaRow `json:"data"`
	Total       int64      `json:"total"`
	HasNextPage bool       `json:"has_next_page"`
}
