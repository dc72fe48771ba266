package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube-backend/internal/apperr"
	"github.com/iliyamo/vidtube-backend/internal/middleware"
	"github.com/iliyamo/vidtube-backend/internal/service"
)

// CommentHandler serves comments under videos.
type CommentHandler struct {
	Comments *service.CommentService
}

func NewCommentHandler(comments *service.CommentService) *CommentHandler {
	return &CommentHandler{Comments: comments}
}

type commentReq struct {
	Content string `json:"content"`
}

// List handles GET /videos/:videoId/comments?page=&limit=.  Unparsable
// numbers fall back to the defaults.
func (h *CommentHandler) List(c echo.Context) error {
	me, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Comments.List(ctx, c.Param("videoId"), me.ID, page, limit)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, res, "Comments fetched successfully")
}

func (h *CommentHandler) Create(c echo.Context) error {
	me, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	var req commentReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	cm, err := h.Comments.Create(ctx, c.Param("videoId"), me.ID, req.Content)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, cm, "Comment added successfully")
}

func (h *CommentHandler) Update(c echo.Context) error {
	me, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	var req commentReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	cm, err := h.Comments.Update(ctx, c.Param("commentId"), me.ID, req.Content)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, cm, "Comment edited successfully")
}

func (h *CommentHandler) Delete(c echo.Context) error {
	me, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	id := c.Param("commentId")
	if err := h.Comments.Delete(ctx, id, me.ID); err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"commentId": id}, "Comment deleted successfully")
}
