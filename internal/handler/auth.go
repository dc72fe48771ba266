package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube-backend/internal/apperr"
	"github.com/iliyamo/vidtube-backend/internal/middleware"
	"github.com/iliyamo/vidtube-backend/internal/model"
	"github.com/iliyamo/vidtube-backend/internal/service"
)

// AuthHandler exposes registration and the session endpoints.  Tokens are
// returned in the body and set as HttpOnly cookies.
type AuthHandler struct {
	Auth         *service.AuthService
	CookieSecure bool
}

func NewAuthHandler(auth *service.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Auth: auth, CookieSecure: cookieSecure}
}

// ----- DTOs -----

type registerReq struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	Password   string `json:"password"`
	Avatar     string `json:"avatar"`
	CoverImage string `json:"coverImage"`
}

type loginReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordReq struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type sessionResp struct {
	User         *model.PublicUser `json:"user,omitempty"`
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
}

// Register creates an account.  201 with the sanitized user.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.Register(ctx, service.RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		FullName:   req.FullName,
		Password:   req.Password,
		Avatar:     req.Avatar,
		CoverImage: req.CoverImage,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, u, "User registered Successfully")
}

// Login opens a session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	sess, err := h.Auth.Login(ctx, service.LoginInput{Username: req.Username, Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	h.setSessionCookies(c, sess)
	return respond(c, http.StatusOK, sessionResp{
		User:         &sess.User,
		AccessToken:  sess.AccessToken.Token,
		RefreshToken: sess.RefreshToken.Token,
	}, "User logged In Successfully")
}

// Logout ends the caller's session (protected).
func (h *AuthHandler) Logout(c echo.Context) error {
	u, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, u); err != nil {
		return err
	}
	h.clearSessionCookies(c)
	return respond(c, http.StatusOK, struct{}{}, "User logged Out")
}

// Refresh rotates the session.  The refresh token is read from the
// refreshToken cookie, then from the JSON body.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var incoming string
	if ck, err := c.Cookie(middleware.RefreshTokenCookie); err == nil {
		incoming = strings.TrimSpace(ck.Value)
	}
	if incoming == "" {
		var req refreshReq
		if err := c.Bind(&req); err != nil {
			return apperr.Validation("invalid request body")
		}
		incoming = req.RefreshToken
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	sess, err := h.Auth.Refresh(ctx, incoming)
	if err != nil {
		return err
	}
	h.setSessionCookies(c, sess)
	return respond(c, http.StatusOK, sessionResp{
		AccessToken:  sess.AccessToken.Token,
		RefreshToken: sess.RefreshToken.Token,
	}, "Access token refreshed")
}

// ChangePassword replaces the caller's password (protected).
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	u, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.ChangePassword(ctx, u.ID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return respond(c, http.StatusOK, struct{}{}, "Password changed successfully")
}

func (h *AuthHandler) setSessionCookies(c echo.Context, sess service.Session) {
	c.SetCookie(h.cookie(middleware.AccessTokenCookie, sess.AccessToken.Token, sess.AccessToken.Exp))
	c.SetCookie(h.cookie(middleware.RefreshTokenCookie, sess.RefreshToken.Token, sess.RefreshToken.Exp))
}

func (h *AuthHandler) clearSessionCookies(c echo.Context) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		ck := h.cookie(name, "", time.Unix(0, 0))
		ck.MaxAge = -1
		c.SetCookie(ck)
	}
}

func (h *AuthHandler) cookie(name, value string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.CookieSecure,
	}
}
