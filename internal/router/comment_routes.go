package router

import "github.com/labstack/echo/v4"

// registerCommentRoutes mounts comment endpoints; g already requires an
// access token.
func registerCommentRoutes(g *echo.Group, d Deps) {
	g.GET("/videos/:videoId/comments", d.Comments.List)
	g.POST("/videos/:videoId/comments", d.Comments.Create)
	g.PATCH("/comments/:commentId", d.Comments.Update)
	g.DELETE("/comments/:commentId", d.Comments.Delete)
}
