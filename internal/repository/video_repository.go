package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/vidtube-backend/internal/model"
)

// VideoRepo reads `videos` and the `watch_history` join table
// (user_id, video_id, watched_at).
type VideoRepo struct{ DB *sql.DB }

func NewVideoRepo(db *sql.DB) *VideoRepo { return &VideoRepo{DB: db} }

// Exists reports whether a video with id exists.
func (r *VideoRepo) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := r.DB.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM videos WHERE id=?)", id).Scan(&ok)
	return ok, err
}

// WatchHistory returns the videos userID watched, most recent first, each
// joined with its owner's public projection.
func (r *VideoRepo) WatchHistory(ctx context.Context, userID string) ([]model.WatchedVideo, error) {
	const q = `SELECT
			v.id, v.video_file, v.thumbnail, v.title, v.description, v.duration, v.views,
			v.is_published, v.owner_id, v.created_at, v.updated_at,
			o.username, o.full_name, o.avatar
		FROM watch_history wh
		JOIN videos v     ON v.id = wh.video_id
		LEFT JOIN users o ON o.id = v.owner_id
		WHERE wh.user_id = ?
		ORDER BY wh.watched_at DESC`
	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.WatchedVideo{}
	for rows.Next() {
		var (
			w                          model.WatchedVideo
			ownerName, ownerFull, ava sql.NullString
		)
		if err := rows.Scan(
			&w.ID, &w.VideoFile, &w.Thumbnail, &w.Title, &w.Description, &w.Duration, &w.Views,
			&w.IsPublished, &w.OwnerID, &w.CreatedAt, &w.UpdatedAt,
			&ownerName, &ownerFull, &ava,
		); err != nil {
			return nil, err
		}
		w.Owner = ownerOf(ownerName, ownerFull, ava)
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ownerOf builds the embedded owner from a LEFT JOIN; a NULL username means
// the owner row is gone.
func ownerOf(username, fullName, avatar sql.NullString) *model.VideoOwner {
	if !username.Valid {
		return nil
	}
	return &model.VideoOwner{Username: username.String, FullName: fullName.String, Avatar: avatar.String}
}
