package repository

import (
	"context"
	"database/sql"
)

// TokenRepo persists the single live refresh token of each user in the
// nullable `users.refresh_token` column.  A refresh token is valid only
// while it equals that column, so every write here is what revokes the
// previous token.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// SetRefreshToken unconditionally replaces the stored token (login).
func (r *TokenRepo) SetRefreshToken(ctx context.Context, userID, token string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token=? WHERE id=?", token, userID)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// RotateRefreshToken swaps oldToken for newToken in one conditional
// statement.  It returns false when the stored value no longer equals
// oldToken, i.e. a concurrent refresh, a newer login or a logout won.
func (r *TokenRepo) RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token=? WHERE id=? AND refresh_token=?",
		newToken, userID, oldToken)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ClearRefreshToken unsets the stored token (logout).  Clearing an already
// empty column is not an error.
func (r *TokenRepo) ClearRefreshToken(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET refresh_token=NULL WHERE id=?", userID)
	return err
}
