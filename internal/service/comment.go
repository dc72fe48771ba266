package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/vidtube-backend/internal/apperr"
	"github.com/iliyamo/vidtube-backend/internal/model"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// CommentService lists and edits comments under videos.  Only the author
// of a comment may edit or delete it.
type CommentService struct {
	comments CommentStore
	videos   VideoStore
}

func NewCommentService(comments CommentStore, videos VideoStore) *CommentService {
	return &CommentService{comments: comments, videos: videos}
}

// List returns one page of comments on videoID.  Page and limit are
// clamped: page to at least 1, limit to [1, 100] with 10 as default.
// A page past the last one is empty.
func (s *CommentService) List(ctx context.Context, videoID, viewerID string, page, limit int) (model.Page[model.CommentView], error) {
	if err := s.requireVideo(ctx, videoID); err != nil {
		return model.Page[model.CommentView]{}, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	docs, total, err := s.comments.ListByVideo(ctx, videoID, viewerID, page, limit)
	if err != nil {
		return model.Page[model.CommentView]{}, apperr.Internal("failed to load comments", err)
	}
	return model.NewPage(docs, total, page, limit), nil
}

// Create adds a comment by ownerID under videoID.
func (s *CommentService) Create(ctx context.Context, videoID, ownerID, content string) (model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Comment{}, apperr.Validation("content is required")
	}
	if err := s.requireVideo(ctx, videoID); err != nil {
		return model.Comment{}, err
	}
	c := &model.Comment{Content: content, VideoID: videoID, OwnerID: ownerID}
	if err := s.comments.Create(ctx, c); err != nil {
		return model.Comment{}, apperr.Internal("failed to add comment", err)
	}
	return *c, nil
}

// Update replaces the content of a comment owned by userID.
func (s *CommentService) Update(ctx context.Context, commentID, userID, content string) (model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Comment{}, apperr.Validation("content is required")
	}
	if _, err := s.owned(ctx, commentID, userID, "only comment owner can edit their comment"); err != nil {
		return model.Comment{}, err
	}
	c, err := s.comments.UpdateContent(ctx, commentID, content)
	if err != nil {
		return model.Comment{}, notFoundOr(err, "Comment not found", "failed to edit comment")
	}
	return c, nil
}

// Delete removes a comment owned by userID together with its likes.
func (s *CommentService) Delete(ctx context.Context, commentID, userID string) error {
	if _, err := s.owned(ctx, commentID, userID, "only comment owner can delete their comment"); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return notFoundOr(err, "Comment not found", "failed to delete comment")
	}
	return nil
}

func (s *CommentService) owned(ctx context.Context, commentID, userID, forbidden string) (model.Comment, error) {
	if !validID(commentID) {
		return model.Comment{}, apperr.Validation("Invalid comment id")
	}
	c, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return model.Comment{}, notFoundOr(err, "Comment not found", "failed to load comment")
	}
	if c.OwnerID != userID {
		return model.Comment{}, apperr.Forbidden(forbidden)
	}
	return c, nil
}

func (s *CommentService) requireVideo(ctx context.Context, videoID string) error {
	if !validID(videoID) {
		return apperr.Validation("Invalid videoId")
	}
	ok, err := s.videos.Exists(ctx, videoID)
	if err != nil {
		return apperr.Internal("failed to load video", err)
	}
	if !ok {
		return apperr.NotFound("Video not found")
	}
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

