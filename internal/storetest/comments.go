package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/vidtube-backend/internal/model"
	"github.com/iliyamo/vidtube-backend/internal/repository"
)

// CommentStore keeps comments and their likes in memory.  Owners are
// resolved against the MemoryStore it was built with.
type CommentStore struct {
	mu       sync.Mutex
	users    *MemoryStore
	comments map[string]model.Comment
	likes    map[string]map[string]bool // comment id -> liked by
}

func NewCommentStore(users *MemoryStore) *CommentStore {
	return &CommentStore{
		users:    users,
		comments: map[string]model.Comment{},
		likes:    map[string]map[string]bool{},
	}
}

// Like records that userID liked commentID.
func (s *CommentStore) Like(commentID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.likes[commentID] == nil {
		s.likes[commentID] = map[string]bool{}
	}
	s.likes[commentID][userID] = true
}

// Likes reports how many likes commentID has.
func (s *CommentStore) Likes(commentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.likes[commentID])
}

func (s *CommentStore) ListByVideo(_ context.Context, videoID, viewerID string, page, limit int) ([]model.CommentView, int64, error) {
	s.mu.Lock()
	var all []model.Comment
	for _, c := range s.comments {
		if c.VideoID == videoID {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	views := make([]model.CommentView, 0, limit)
	start, ok := model.PageOffset(page, limit)
	if !ok {
		start = len(all)
	}
	for i := start; i < len(all) && i-start < limit; i++ {
		c := all[i]
		views = append(views, model.CommentView{
			ID:         c.ID,
			Content:    c.Content,
			CreatedAt:  c.CreatedAt,
			LikesCount: int64(len(s.likes[c.ID])),
			IsLiked:    s.likes[c.ID][viewerID],
		})
	}
	owners := make([]string, len(views))
	for i := range views {
		owners[i] = s.comments[views[i].ID].OwnerID
	}
	s.mu.Unlock()

	for i := range views {
		views[i].Owner = s.users.owner(owners[i])
	}
	return views, int64(len(all)), nil
}

func (s *CommentStore) Create(_ context.Context, c *model.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	s.comments[c.ID] = *c
	return nil
}

func (s *CommentStore) GetByID(_ context.Context, id string) (model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return model.Comment{}, repository.ErrNotFound
	}
	return c, nil
}

func (s *CommentStore) UpdateContent(_ context.Context, id, content string) (model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return model.Comment{}, repository.ErrNotFound
	}
	c.Content, c.UpdatedAt = content, time.Now().UTC()
	s.comments[id] = c
	return c, nil
}

func (s *CommentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.comments, id)
	delete(s.likes, id)
	return nil
}
