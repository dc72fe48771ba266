package router

import "github.com/labstack/echo/v4"

// registerUserRoutes mounts auth and account endpoints under /api/v1/users.
// register, login and refresh-token are open and rate limited; everything
// else requires an access token.
func registerUserRoutes(g *echo.Group, d Deps, auth echo.MiddlewareFunc) {
	limited := orNoop(d.RateLimit)
	g.POST("/register", d.Auth.Register, limited)
	g.POST("/login", d.Auth.Login, limited)
	g.POST("/refresh-token", d.Auth.Refresh, limited)

	p := g.Group("", auth)
	p.POST("/logout", d.Auth.Logout)
	p.POST("/change-password", d.Auth.ChangePassword)
	p.GET("/current-user", d.Accounts.CurrentUser)
	p.PATCH("/update-account", d.Accounts.UpdateAccount)
	p.PATCH("/avatar", d.Accounts.UpdateAvatar)
	p.PATCH("/cover-image", d.Accounts.UpdateCoverImage)
	p.GET("/c/:username", d.Accounts.ChannelProfile, orNoop(d.Cache))
	p.GET("/history", d.Accounts.WatchHistory)
}
