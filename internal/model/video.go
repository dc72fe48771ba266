package model

import "time"

// Video mirrors the `videos` table.
type Video struct {
	ID          string    `json:"id"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"` // seconds
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	OwnerID     string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// VideoOwner is the projection of a user embedded in video and comment
// listings.
type VideoOwner struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

// WatchedVideo is one watch-history entry joined with its owner.  Owner is
// nil when the owning account no longer exists.
type WatchedVideo struct {
	Video
	Owner *VideoOwner `json:"owner,omitempty"`
}
