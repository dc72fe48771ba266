// Package service holds the account, session and comment flows.  Services
// depend on the narrow store interfaces below; the MySQL repositories
// satisfy them in production and storetest.MemoryStore in tests.
package service

import (
	"context"

	"github.com/iliyamo/vidtube-backend/internal/model"
	"github.com/iliyamo/vidtube-backend/internal/queue"
)

// UserStore persists user records.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	GetPublicByID(ctx context.Context, id string) (model.PublicUser, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	UpdateAccount(ctx context.Context, id, fullName, email string) (model.PublicUser, error)
	UpdateAvatar(ctx context.Context, id, url string) (model.PublicUser, error)
	UpdateCoverImage(ctx context.Context, id, url string) (model.PublicUser, error)
}

// TokenStore holds the single live refresh token of each user.
// RotateRefreshToken must be an atomic compare-and-swap.
type TokenStore interface {
	SetRefreshToken(ctx context.Context, userID, token string) error
	RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string) (bool, error)
	ClearRefreshToken(ctx context.Context, userID string) error
}

// ChannelStore aggregates public channel profiles.
type ChannelStore interface {
	GetProfile(ctx context.Context, username, viewerID string) (model.ChannelProfile, error)
}

// VideoStore reads videos and watch history.
type VideoStore interface {
	Exists(ctx context.Context, id string) (bool, error)
	WatchHistory(ctx context.Context, userID string) ([]model.WatchedVideo, error)
}

// CommentStore reads and writes comments.
type CommentStore interface {
	ListByVideo(ctx context.Context, videoID, viewerID string, page, limit int) ([]model.CommentView, int64, error)
	Create(ctx context.Context, c *model.Comment) error
	GetByID(ctx context.Context, id string) (model.Comment, error)
	UpdateContent(ctx context.Context, id, content string) (model.Comment, error)
	Delete(ctx context.Context, id string) error
}

// EventPublisher emits account events.  Failures are reported to the
// caller, which logs them; they never fail the flow that produced them.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.UserEvent) error
}
