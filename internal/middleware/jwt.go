package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube-backend/internal/apperr"
	"github.com/iliyamo/vidtube-backend/internal/model"
	"github.com/iliyamo/vidtube-backend/internal/repository"
	"github.com/iliyamo/vidtube-backend/internal/utils"
)

// IdentityLoader resolves a user id to its sanitized record.  The
// projection never includes the password hash or the refresh token.
type IdentityLoader interface {
	GetPublicByID(ctx context.Context, id string) (model.PublicUser, error)
}

// JWTAuth returns an Echo middleware that authenticates the request with
// an access token and attaches the user to the context.
//
// The token is read from the Authorization header ("Bearer <token>") and,
// when the header carries none, from the accessToken cookie.  The gate is
// read-only: it never refreshes or rotates anything.  Failures are
// returned as errors for the HTTP error handler to render:
//
//	no token                       -> Unauthenticated
//	bad signature, expired, garbled -> InvalidToken
//	user no longer exists          -> InvalidToken
func JWTAuth(issuer *utils.TokenIssuer, users IdentityLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := accessToken(c)
			if raw == "" {
				return apperr.Unauthenticated("unauthorized request")
			}
			claims, err := issuer.VerifyAccessToken(raw)
			if err != nil {
				return apperr.InvalidToken("Invalid access token", err)
			}
			u, err := users.GetPublicByID(c.Request().Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return apperr.InvalidToken("Invalid access token", err)
				}
				return apperr.Internal("failed to load user", err)
			}
			SetIdentity(c, u)
			return next(c)
		}
	}
}

// accessToken applies the transport policy: header first, cookie second.
func accessToken(c echo.Context) string {
	auth := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
	if len(auth) > len("Bearer ") && strings.EqualFold(auth[:len("Bearer ")], "Bearer ") {
		if tok := strings.TrimSpace(auth[len("Bearer "):]); tok != "" {
			return tok
		}
	}
	if ck, err := c.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(ck.Value)
	}
	return ""
}
