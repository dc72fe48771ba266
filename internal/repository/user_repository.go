package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/vidtube-backend/internal/model"
)

const (
	userColumns       = "id,username,email,full_name,avatar,cover_image,password_hash,refresh_token,created_at,updated_at"
	publicUserColumns = "id,username,email,full_name,avatar,cover_image,created_at,updated_at"
)

// UserRepo reads and writes the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts u, assigning its ID and timestamps.  The password must
// already be hashed.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Second)
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (id,username,email,full_name,avatar,cover_image,password_hash,created_at,updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		u.ID, u.Username, u.Email, u.FullName, u.Avatar, u.CoverImage, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// ExistsByUsernameOrEmail reports whether either identity is taken.
func (r *UserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE username=? OR email=?)",
		username, email).Scan(&exists)
	return exists, err
}

// GetByUsernameOrEmail fetches the user matching either identity.  Empty
// arguments are left out of the predicate.
func (r *UserRepo) GetByUsernameOrEmail(ctx context.Context, username, email string) (model.User, error) {
	var (
		where []string
		args  []any
	)
	if username != "" {
		where = append(where, "username=?")
		args = append(args, username)
	}
	if email != "" {
		where = append(where, "email=?")
		args = append(args, email)
	}
	if len(where) == 0 {
		return model.User{}, ErrNotFound
	}
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+strings.Join(where, " OR ")+" LIMIT 1", args...)
	return scanUser(row)
}

// GetByID fetches the full record, credentials included.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// GetPublicByID fetches the sanitized projection; the password hash and
// refresh token are never selected.
func (r *UserRepo) GetPublicByID(ctx context.Context, id string) (model.PublicUser, error) {
	var u model.PublicUser
	err := r.DB.QueryRowContext(ctx, "SELECT "+publicUserColumns+" FROM users WHERE id=? LIMIT 1", id).
		Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Avatar, &u.CoverImage, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PublicUser{}, ErrNotFound
	}
	return u, err
}

// UpdatePassword stores a new hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=? WHERE id=?",
		hash, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// UpdateAccount sets full name and email and returns the updated projection.
func (r *UserRepo) UpdateAccount(ctx context.Context, id, fullName, email string) (model.PublicUser, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET full_name=?, email=?, updated_at=? WHERE id=?",
		fullName, email, time.Now().UTC(), id)
	if err != nil {
		if isDuplicate(err) {
			return model.PublicUser{}, ErrDuplicate
		}
		return model.PublicUser{}, err
	}
	return r.GetPublicByID(ctx, id)
}

// UpdateAvatar sets the avatar URL and returns the updated projection.
func (r *UserRepo) UpdateAvatar(ctx context.Context, id, url string) (model.PublicUser, error) {
	return r.updateImage(ctx, "UPDATE users SET avatar=?, updated_at=? WHERE id=?", id, url)
}

// UpdateCoverImage sets the cover image URL and returns the updated projection.
func (r *UserRepo) UpdateCoverImage(ctx context.Context, id, url string) (model.PublicUser, error) {
	return r.updateImage(ctx, "UPDATE users SET cover_image=?, updated_at=? WHERE id=?", id, url)
}

func (r *UserRepo) updateImage(ctx context.Context, query, id, url string) (model.PublicUser, error) {
	if _, err := r.DB.ExecContext(ctx, query, url, time.Now().UTC(), id); err != nil {
		return model.PublicUser{}, err
	}
	return r.GetPublicByID(ctx, id)
}

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u       model.User
		refresh sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Avatar, &u.CoverImage,
		&u.PasswordHash, &refresh, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	u.RefreshToken = refresh.String
	return u, nil
}
