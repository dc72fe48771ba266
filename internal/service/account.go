package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/iliyamo/vidtube-backend/internal/apperr"
	"github.com/iliyamo/vidtube-backend/internal/model"
	"github.com/iliyamo/vidtube-backend/internal/repository"
)

// AccountService serves the profile endpoints of an authenticated user
// and the public channel pages.
type AccountService struct {
	users    UserStore
	channels ChannelStore
	videos   VideoStore
}

func NewAccountService(users UserStore, channels ChannelStore, videos VideoStore) *AccountService {
	return &AccountService{users: users, channels: channels, videos: videos}
}

// CurrentUser reloads the sanitized record of userID.
func (s *AccountService) CurrentUser(ctx context.Context, userID string) (model.PublicUser, error) {
	u, err := s.users.GetPublicByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, notFoundOr(err, "User does not exist", "failed to load user")
	}
	return u, nil
}

// UpdateAccount changes full name and email.  Both are required.
func (s *AccountService) UpdateAccount(ctx context.Context, userID, fullName, email string) (model.PublicUser, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalizeIdentity(email)
	if fullName == "" || email == "" {
		return model.PublicUser{}, apperr.Validation("All fields are required")
	}
	u, err := s.users.UpdateAccount(ctx, userID, fullName, email)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.PublicUser{}, apperr.Conflict("Email is already in use")
		}
		return model.PublicUser{}, notFoundOr(err, "User does not exist", "failed to update account details")
	}
	return u, nil
}

// UpdateAvatar points the avatar at an uploaded image URL.
func (s *AccountService) UpdateAvatar(ctx context.Context, userID, imageURL string) (model.PublicUser, error) {
	imageURL, err := checkImageURL(imageURL, "Avatar file is missing")
	if err != nil {
		return model.PublicUser{}, err
	}
	u, err := s.users.UpdateAvatar(ctx, userID, imageURL)
	if err != nil {
		return model.PublicUser{}, notFoundOr(err, "User does not exist", "Error while updating avatar")
	}
	return u, nil
}

// UpdateCoverImage points the cover image at an uploaded image URL.
func (s *AccountService) UpdateCoverImage(ctx context.Context, userID, imageURL string) (model.PublicUser, error) {
	imageURL, err := checkImageURL(imageURL, "Cover image file is missing")
	if err != nil {
		return model.PublicUser{}, err
	}
	u, err := s.users.UpdateCoverImage(ctx, userID, imageURL)
	if err != nil {
		return model.PublicUser{}, notFoundOr(err, "User does not exist", "Error while updating cover image")
	}
	return u, nil
}

// ChannelProfile returns the channel page of username as seen by viewerID.
// viewerID may be empty for anonymous viewers.
func (s *AccountService) ChannelProfile(ctx context.Context, username, viewerID string) (model.ChannelProfile, error) {
	username = normalizeIdentity(username)
	if username == "" {
		return model.ChannelProfile{}, apperr.Validation("username is missing")
	}
	p, err := s.channels.GetProfile(ctx, username, viewerID)
	if err != nil {
		return model.ChannelProfile{}, notFoundOr(err, "channel does not exist", "failed to load channel")
	}
	return p, nil
}

// WatchHistory lists the videos userID watched, most recent first.
func (s *AccountService) WatchHistory(ctx context.Context, userID string) ([]model.WatchedVideo, error) {
	if _, err := s.users.GetPublicByID(ctx, userID); err != nil {
		return nil, notFoundOr(err, "User does not exist", "failed to load user")
	}
	h, err := s.videos.WatchHistory(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to load watch history", err)
	}
	if h == nil {
		h = []model.WatchedVideo{}
	}
	return h, nil
}

func checkImageURL(raw, missing string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperr.Validation(missing)
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", apperr.Validation("image url must be an absolute http(s) URL")
	}
	return raw, nil
}

// notFoundOr maps repository.ErrNotFound to NotFound and anything else to
// Internal.
func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(notFound)
	}
	return apperr.Internal(internal, err)
}
