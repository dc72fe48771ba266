// Package router mounts the HTTP API on an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube-backend/internal/handler"
	"github.com/iliyamo/vidtube-backend/internal/middleware"
	"github.com/iliyamo/vidtube-backend/internal/utils"
)

// Deps carries everything the routes need.  RateLimit and Cache may be
// nil, in which case the routes run without them.
type Deps struct {
	Auth     *handler.AuthHandler
	Accounts *handler.AccountHandler
	Comments *handler.CommentHandler

	Issuer     *utils.TokenIssuer
	Identities middleware.IdentityLoader
	DB         handler.Pinger

	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

// RegisterRoutes registers the operational endpoints and the API.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)
	if d.DB != nil {
		e.GET("/readyz", handler.Ready(d.DB))
	}
	e.GET("/metrics", middleware.MetricsHandler())

	auth := middleware.JWTAuth(d.Issuer, d.Identities)
	registerUserRoutes(e.Group("/api/v1/users"), d, auth)
	registerCommentRoutes(e.Group("/api/v1", auth), d)
}

func orNoop(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	if mw == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return mw
}
