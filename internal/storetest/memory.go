// Package storetest provides in-memory stores with the same semantics as
// the MySQL repositories, for tests of the layers above them.
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

type watch struct {
	videoID string
	at      time.Time
}

// MemoryStore holds users, their refresh tokens, subscriptions, videos
// and watch history.  It is safe for concurrent use and its refresh-token
// rotation is a true compare-and-swap.
type MemoryStore struct {
	mu      sync.Mutex
	users   map[string]model.User
	subs    map[[2]string]bool // {subscriber, channel}
	videos  map[string]model.Video
	history map[string][]watch
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   map[string]model.User{},
		subs:    map[[2]string]bool{},
		videos:  map[string]model.Video{},
		history: map[string][]watch{},
	}
}

func (m *MemoryStore) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.Username == u.Username || x.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Second)
	u.CreatedAt, u.UpdatedAt = now, now
	u.RefreshToken = ""
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryStore) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.Username == username || x.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) GetByUsernameOrEmail(_ context.Context, username, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if (username != "" && x.Username == username) || (email != "" && x.Email == email) {
			return x, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *MemoryStore) GetPublicByID(ctx context.Context, id string) (model.PublicUser, error) {
	u, err := m.GetByID(ctx, id)
	if err != nil {
		return model.PublicUser{}, err
	}
	return u.Public(), nil
}

func (m *MemoryStore) UpdatePassword(_ context.Context, id, hash string) error {
	return m.update(id, func(u *model.User) error { u.PasswordHash = hash; return nil })
}

func (m *MemoryStore) UpdateAccount(ctx context.Context, id, fullName, email string) (model.PublicUser, error) {
	err := m.update(id, func(u *model.User) error {
		for _, x := range m.users {
			if x.ID != id && x.Email == email {
				return repository.ErrDuplicate
			}
		}
		u.FullName, u.Email = fullName, email
		return nil
	})
	if err != nil {
		return model.PublicUser{}, err
	}
	return m.GetPublicByID(ctx, id)
}

func (m *MemoryStore) UpdateAvatar(ctx context.Context, id, url string) (model.PublicUser, error) {
	if err := m.update(id, func(u *model.User) error { u.Avatar = url; return nil }); err != nil {
		return model.PublicUser{}, err
	}
	return m.GetPublicByID(ctx, id)
}

func (m *MemoryStore) UpdateCoverImage(ctx context.Context, id, url string) (model.PublicUser, error) {
	if err := m.update(id, func(u *model.User) error { u.CoverImage = url; return nil }); err != nil {
		return model.PublicUser{}, err
	}
	return m.GetPublicByID(ctx, id)
}

func (m *MemoryStore) SetRefreshToken(_ context.Context, userID, token string) error {
	return m.update(userID, func(u *model.User) error { u.RefreshToken = token; return nil })
}

func (m *MemoryStore) RotateRefreshToken(_ context.Context, userID, oldToken, newToken string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok || u.RefreshToken == "" || u.RefreshToken != oldToken {
		return false, nil
	}
	u.RefreshToken = newToken
	m.users[userID] = u
	return true, nil
}

func (m *MemoryStore) ClearRefreshToken(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.RefreshToken = ""
		m.users[userID] = u
	}
	return nil
}

// StoredRefreshToken returns the refresh token currently stored for id.
func (m *MemoryStore) StoredRefreshToken(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id].RefreshToken
}

// Delete removes a user, as an administrator would.
func (m *MemoryStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

// Subscribe records that subscriber follows channel.
func (m *MemoryStore) Subscribe(subscriberID, channelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[[2]string{subscriberID, channelID}] = true
}

func (m *MemoryStore) GetProfile(_ context.Context, username, viewerID string) (model.ChannelProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username != username {
			continue
		}
		p := model.ChannelProfile{
			ID: u.ID, Username: u.Username, Email: u.Email, FullName: u.FullName,
			Avatar: u.Avatar, CoverImage: u.CoverImage,
			IsSubscribed: m.subs[[2]string{viewerID, u.ID}],
		}
		for k := range m.subs {
			if k[1] == u.ID {
				p.SubscribersCount++
			}
			if k[0] == u.ID {
				p.ChannelsSubscribedToCount++
			}
		}
		return p, nil
	}
	return model.ChannelProfile{}, repository.ErrNotFound
}

// AddVideo stores v, assigning an ID when it has none.
func (m *MemoryStore) AddVideo(v model.Video) model.Video {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	m.videos[v.ID] = v
	return v
}

// Watch appends videoID to the watch history of userID at the given time.
func (m *MemoryStore) Watch(userID, videoID string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[userID] = append(m.history[userID], watch{videoID: videoID, at: at})
}

func (m *MemoryStore) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.videos[id]
	return ok, nil
}

func (m *MemoryStore) WatchHistory(_ context.Context, userID string) ([]model.WatchedVideo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := append([]watch(nil), m.history[userID]...)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].at.After(entries[j].at) })

	out := []model.WatchedVideo{}
	for _, e := range entries {
		v, ok := m.videos[e.videoID]
		if !ok {
			continue
		}
		out = append(out, model.WatchedVideo{Video: v, Owner: m.ownerLocked(v.OwnerID)})
	}
	return out, nil
}

// owner returns the public projection embedded in listings, or nil when
// the user is gone.
func (m *MemoryStore) owner(id string) *model.VideoOwner {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ownerLocked(id)
}

func (m *MemoryStore) ownerLocked(id string) *model.VideoOwner {
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	return &model.VideoOwner{Username: u.Username, FullName: u.FullName, Avatar: u.Avatar}
}

func (m *MemoryStore) update(id string, fn func(u *model.User) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if err := fn(&u); err != nil {
		return err
	}
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return nil
}
