package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/vidtube-backend/internal/model"
)

// ChannelRepo aggregates a user's public channel from `users` and
// `subscriptions` (subscriber_id, channel_id).
type ChannelRepo struct{ DB *sql.DB }

func NewChannelRepo(db *sql.DB) *ChannelRepo { return &ChannelRepo{DB: db} }

// GetProfile returns the channel of username with its subscriber count, the
// number of channels it subscribes to, and whether viewerID subscribes to it.
func (r *ChannelRepo) GetProfile(ctx context.Context, username, viewerID string) (model.ChannelProfile, error) {
	const q = `SELECT
			u.id, u.username, u.email, u.full_name, u.avatar, u.cover_image,
			(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id)    AS subscribers_count,
			(SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS subscribed_to_count,
			EXISTS(SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = ?) AS is_subscribed
		FROM users u
		WHERE u.username = ?
		LIMIT 1`
	var p model.ChannelProfile
	err := r.DB.QueryRowContext(ctx, q, viewerID, username).Scan(
		&p.ID, &p.Username, &p.Email, &p.FullName, &p.Avatar, &p.CoverImage,
		&p.SubscribersCount, &p.ChannelsSubscribedToCount, &p.IsSubscribed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ChannelProfile{}, ErrNotFound
	}
	return p, err
}
