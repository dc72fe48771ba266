package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube-backend/internal/apperr"
	"github.com/iliyamo/vidtube-backend/internal/middleware"
	"github.com/iliyamo/vidtube-backend/internal/service"
)

// AccountHandler serves the profile endpoints.  Every route sits behind
// JWTAuth.
type AccountHandler struct {
	Accounts *service.AccountService
}

func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{Accounts: accounts}
}

type updateAccountReq struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type avatarReq struct {
	Avatar string `json:"avatar"`
}

type coverImageReq struct {
	CoverImage string `json:"coverImage"`
}

func (h *AccountHandler) CurrentUser(c echo.Context) error {
	me, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Accounts.CurrentUser(ctx, me.ID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, u, "User fetched successfully")
}

func (h *AccountHandler) UpdateAccount(c echo.Context) error {
	me, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	var req updateAccountReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Accounts.UpdateAccount(ctx, me.ID, req.FullName, req.Email)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, u, "Account details updated successfully")
}

func (h *AccountHandler) UpdateAvatar(c echo.Context) error {
	me, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	var req avatarReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Accounts.UpdateAvatar(ctx, me.ID, req.Avatar)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, u, "Avatar image updated successfully")
}

func (h *AccountHandler) UpdateCoverImage(c echo.Context) error {
	me, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	var req coverImageReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Accounts.UpdateCoverImage(ctx, me.ID, req.CoverImage)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, u, "Cover image updated successfully")
}

// ChannelProfile renders /c/:username for the calling viewer.
func (h *AccountHandler) ChannelProfile(c echo.Context) error {
	me, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Accounts.ChannelProfile(ctx, c.Param("username"), me.ID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, p, "User channel fetched successfully")
}

func (h *AccountHandler) WatchHistory(c echo.Context) error {
	me, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	hist, err := h.Accounts.WatchHistory(ctx, me.ID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, hist, "Watch history fetched successfully")
}
