package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/vidtube-backend/internal/model"
)

// CommentRepo reads and writes `comments` and their `likes`
// (comment_id, liked_by).
type CommentRepo struct{ DB *sql.DB }

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{DB: db} }

// ListByVideo returns one page of comments on videoID, newest first, and
// the total number of comments on the video.
func (r *CommentRepo) ListByVideo(ctx context.Context, videoID, viewerID string, page, limit int) ([]model.CommentView, int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM comments WHERE video_id=?", videoID).Scan(&total); err != nil {
		return nil, 0, err
	}
	offset, ok := model.PageOffset(page, limit)
	if !ok || int64(offset) >= total {
		return []model.CommentView{}, total, nil
	}

	const q = `SELECT
			c.id, c.content, c.created_at,
			(SELECT COUNT(*) FROM likes l WHERE l.comment_id = c.id) AS likes_count,
			EXISTS(SELECT 1 FROM likes l WHERE l.comment_id = c.id AND l.liked_by = ?) AS is_liked,
			o.username, o.full_name, o.avatar
		FROM comments c
		LEFT JOIN users o ON o.id = c.owner_id
		WHERE c.video_id = ?
		ORDER BY c.created_at DESC
		LIMIT ? OFFSET ?`
	rows, err := r.DB.QueryContext(ctx, q, viewerID, videoID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.CommentView, 0, limit)
	for rows.Next() {
		var (
			v                         model.CommentView
			ownerName, ownerFull, ava sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.Content, &v.CreatedAt, &v.LikesCount, &v.IsLiked,
			&ownerName, &ownerFull, &ava); err != nil {
			return nil, 0, err
		}
		v.Owner = ownerOf(ownerName, ownerFull, ava)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Create inserts c, assigning its ID and timestamps.
func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Second)
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO comments (id,content,video_id,owner_id,created_at,updated_at) VALUES (?,?,?,?,?,?)",
		c.ID, c.Content, c.VideoID, c.OwnerID, c.CreatedAt, c.UpdatedAt)
	return err
}

// GetByID fetches one comment.
func (r *CommentRepo) GetByID(ctx context.Context, id string) (model.Comment, error) {
	var c model.Comment
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,content,video_id,owner_id,created_at,updated_at FROM comments WHERE id=? LIMIT 1", id).
		Scan(&c.ID, &c.Content, &c.VideoID, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Comment{}, ErrNotFound
	}
	return c, err
}

// UpdateContent replaces the text of a comment and returns the new row.
func (r *CommentRepo) UpdateContent(ctx context.Context, id, content string) (model.Comment, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE comments SET content=?, updated_at=? WHERE id=?", content, time.Now().UTC(), id)
	if err != nil {
		return model.Comment{}, err
	}
	if err := affectedOne(res); err != nil {
		return model.Comment{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a comment and every like on it atomically.
func (r *CommentRepo) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.DB, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM likes WHERE comment_id=?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE id=?", id)
		if err != nil {
			return err
		}
		return affectedOne(res)
	})
}
