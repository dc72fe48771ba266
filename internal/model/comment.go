package model

import (
	"math"
	"time"
)

// Comment mirrors the `comments` table.
type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	VideoID   string    `json:"video"`
	OwnerID   string    `json:"owner"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CommentView is a comment as listed under a video: like count, whether
// the viewer liked it, and the author's public projection.
type CommentView struct {
	ID         string      `json:"id"`
	Content    string      `json:"content"`
	CreatedAt  time.Time   `json:"createdAt"`
	LikesCount int64       `json:"likesCount"`
	IsLiked    bool        `json:"isLiked"`
	Owner      *VideoOwner `json:"owner,omitempty"`
}

// Page is a paginated listing.
type Page[T any] struct {
	Docs        []T   `json:"docs"`
	TotalDocs   int64 `json:"totalDocs"`
	Limit       int   `json:"limit"`
	Page        int   `json:"page"`
	TotalPages  int   `json:"totalPages"`
	HasPrevPage bool  `json:"hasPrevPage"`
	HasNextPage bool  `json:"hasNextPage"`
	PrevPage    *int  `json:"prevPage"`
	NextPage    *int  `json:"nextPage"`
}

// NewPage computes the navigation fields from the total and the request.
func NewPage[T any](docs []T, total int64, page, limit int) Page[T] {
	if docs == nil {
		docs = []T{}
	}
	p := Page[T]{Docs: docs, TotalDocs: total, Limit: limit, Page: page}
	if limit > 0 {
		p.TotalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	if page > 1 {
		prev := page - 1
		p.HasPrevPage, p.PrevPage = true, &prev
	}
	if page < p.TotalPages {
		next := page + 1
		p.HasNextPage, p.NextPage = true, &next
	}
	return p
}

// PageOffset returns the number of rows to skip for page.  ok is false when
// the offset does not fit in an int; such a page is past any real listing.
func PageOffset(page, limit int) (offset int, ok bool) {
	if page <= 1 || limit < 1 {
		return 0, true
	}
	if page-1 > math.MaxInt/limit {
		return 0, false
	}
	return (page - 1) * limit, true
}
