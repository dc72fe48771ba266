package model

import "time"

// User represents an account record as stored in the `users` table.
// The struct is used internally by the repository and service layers;
// anything leaving the process goes through PublicUser so the password
// hash and refresh token are never serialized.
//
// Fields:
//
//	ID           – opaque unique identifier (UUID string).
//	Username     – unique, trimmed, lower-case handle.
//	Email        – unique, trimmed, lower-case address.
//	FullName     – display name.
//	Avatar       – avatar image URL.
//	CoverImage   – cover image URL, empty when unset.
//	PasswordHash – bcrypt hash of the password.
//	RefreshToken – the single live refresh token, empty after logout.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	Avatar       string
	CoverImage   string
	PasswordHash string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the sanitized projection of a User.  It is also the
// identity attached to authenticated requests.
type PublicUser struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Public strips credential fields.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// ChannelProfile is the public view of a user's channel, with subscription
// counts computed from the `subscriptions` table.
type ChannelProfile struct {
	ID                        string `json:"id"`
	Username                  string `json:"username"`
	Email                     string `json:"email"`
	FullName                  string `json:"fullName"`
	Avatar                    string `json:"avatar"`
	CoverImage                string `json:"coverImage"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}
