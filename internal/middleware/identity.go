package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube-backend/internal/apperr"
	"github.com/iliyamo/vidtube-backend/internal/model"
)

// Cookie names used for session transport.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

const (
	identityKey = "identity"
	userIDKey   = "user_id"
)

// SetIdentity attaches the authenticated user to the request context.
func SetIdentity(c echo.Context, u model.PublicUser) {
	c.Set(identityKey, u)
	c.Set(userIDKey, u.ID)
}

// IdentityFromContext returns the user attached by JWTAuth.
func IdentityFromContext(c echo.Context) (model.PublicUser, bool) {
	u, ok := c.Get(identityKey).(model.PublicUser)
	return u, ok && u.ID != ""
}

// CurrentUser is IdentityFromContext for handlers mounted behind JWTAuth.
// A missing identity means the route was registered without the gate.
func CurrentUser(c echo.Context) (model.PublicUser, error) {
	u, ok := IdentityFromContext(c)
	if !ok {
		return model.PublicUser{}, apperr.Unauthenticated("unauthorized request")
	}
	return u, nil
}

// userID is the key fragment for per-user rate limiting and caching;
// "anon" when no identity is attached.
func userID(c echo.Context) string {
	if s, ok := c.Get(userIDKey).(string); ok && s != "" {
		return s
	}
	return "anon"
}

// statusOf predicts the status the error handler will write for err.
// Middleware that runs before the handler commits needs it for logs and
// metrics.
func statusOf(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Kind.Status()
	}
	return http.StatusInternalServerError
}
