package router

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/vidtube-backend/internal/handler"
	"github.com/iliyamo/vidtube-backend/internal/middleware"
	"github.com/iliyamo/vidtube-backend/internal/model"
	"github.com/iliyamo/vidtube-backend/internal/service"
	"github.com/iliyamo/vidtube-backend/internal/storetest"
	"github.com/iliyamo/vidtube-backend/internal/utils"
)

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

type testServer struct {
	e        *echo.Echo
	store    *storetest.MemoryStore
	comments *storetest.CommentStore
	issuer   *utils.TokenIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storetest.NewMemoryStore()
	comments := storetest.NewCommentStore(store)
	issuer := utils.NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)

	authSvc := service.NewAuthService(store, store, issuer, service.NopPublisher{}, bcrypt.MinCost, logger)
	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler(logger)
	RegisterRoutes(e, Deps{
		Auth:       handler.NewAuthHandler(authSvc, false),
		Accounts:   handler.NewAccountHandler(service.NewAccountService(store, store, store)),
		Comments:   handler.NewCommentHandler(service.NewCommentService(comments, store)),
		Issuer:     issuer,
		Identities: store,
	})
	return &testServer{e: e, store: store, comments: comments, issuer: issuer}
}

func (s *testServer) do(t *testing.T, method, path, body string, opts ...func(*http.Request)) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func bearer(tok string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+tok) }
}

func withCookie(name, value string) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: name, Value: value}) }
}

type tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (s *testServer) registerAndLogin(t *testing.T, username string) tokens {
	t.Helper()
	rec, _ := s.do(t, http.MethodPost, "/api/v1/users/register",
		`{"username":"`+username+`","email":"`+username+`@x.com","password":"Secret1","fullName":"`+username+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec, env := s.do(t, http.MethodPost, "/api/v1/users/login", `{"username":"`+username+`","password":"Secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tk tokens
	require.NoError(t, json.Unmarshal(env.Data, &tk))
	return tk
}

func TestSessionScenario(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/v1/users/register",
		`{"username":"alice","email":"a@x.com","password":"Secret1","fullName":"Alice A"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, http.StatusCreated, env.StatusCode)
	assert.NotContains(t, strings.ToLower(string(env.Data)), "password")
	assert.NotContains(t, string(env.Data), "refreshToken")

	rec, env = s.do(t, http.MethodPost, "/api/v1/users/login", `{"username":"alice","password":"Secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}
	require.Contains(t, cookies, middleware.AccessTokenCookie)
	require.Contains(t, cookies, middleware.RefreshTokenCookie)
	assert.True(t, cookies[middleware.AccessTokenCookie].HttpOnly)

	var first tokens
	require.NoError(t, json.Unmarshal(env.Data, &first))
	claims, err := s.issuer.VerifyAccessToken(first.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, cookies[middleware.RefreshTokenCookie].Value, first.RefreshToken)

	// refresh with the cookie
	rec, env = s.do(t, http.MethodPost, "/api/v1/users/refresh-token", "",
		withCookie(middleware.RefreshTokenCookie, first.RefreshToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var second tokens
	require.NoError(t, json.Unmarshal(env.Data, &second))
	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// reuse the original token through the body
	rec, env = s.do(t, http.MethodPost, "/api/v1/users/refresh-token", `{"refreshToken":"`+first.RefreshToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Refresh token is expired or used", env.Message)
	assert.Equal(t, "null", string(env.Data))
	assert.NotNil(t, env.Errors)
}

// The refreshToken cookie wins over the body; the body is read only when
// no cookie is sent.
func TestRefresh_CookieTakesPrecedenceOverBody(t *testing.T) {
	s := newTestServer(t)
	stale := s.registerAndLogin(t, "alice")

	rec, env := s.do(t, http.MethodPost, "/api/v1/users/refresh-token", `{"refreshToken":"`+stale.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var fresh tokens
	require.NoError(t, json.Unmarshal(env.Data, &fresh))

	// stale cookie + fresh body: the cookie is used and rejected
	rec, env = s.do(t, http.MethodPost, "/api/v1/users/refresh-token", `{"refreshToken":"`+fresh.RefreshToken+`"}`,
		withCookie(middleware.RefreshTokenCookie, stale.RefreshToken))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Refresh token is expired or used", env.Message)

	// the rejected attempt did not consume the fresh token
	rec, _ = s.do(t, http.MethodPost, "/api/v1/users/refresh-token", `{"refreshToken":"`+fresh.RefreshToken+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestLogoutThenRefreshFails(t *testing.T) {
	s := newTestServer(t)
	tk := s.registerAndLogin(t, "alice")

	rec, _ := s.do(t, http.MethodPost, "/api/v1/users/logout", "", bearer(tk.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range rec.Result().Cookies() {
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	}

	rec, env := s.do(t, http.MethodPost, "/api/v1/users/refresh-token", `{"refreshToken":"`+tk.RefreshToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Refresh token is expired or used", env.Message)
}

func TestProtectedRoutes(t *testing.T) {
	s := newTestServer(t)
	tk := s.registerAndLogin(t, "alice")

	rec, env := s.do(t, http.MethodGet, "/api/v1/users/current-user", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized request", env.Message)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/users/current-user", "", bearer(tk.AccessToken+"x"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/v1/users/current-user", "",
		withCookie(middleware.AccessTokenCookie, tk.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	var u model.PublicUser
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, "alice", u.Username)
}

func TestChangePasswordAndAccount(t *testing.T) {
	s := newTestServer(t)
	tk := s.registerAndLogin(t, "alice")
	s.registerAndLogin(t, "bob")

	rec, _ := s.do(t, http.MethodPost, "/api/v1/users/change-password",
		`{"oldPassword":"wrong","newPassword":"Secret2"}`, bearer(tk.AccessToken))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/users/change-password",
		`{"oldPassword":"Secret1","newPassword":"Secret2"}`, bearer(tk.AccessToken))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodPatch, "/api/v1/users/update-account",
		`{"fullName":"Alice","email":"bob@x.com"}`, bearer(tk.AccessToken))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env := s.do(t, http.MethodPatch, "/api/v1/users/update-account", `{"fullName":""}`, bearer(tk.AccessToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "All fields are required", env.Message)

	rec, _ = s.do(t, http.MethodPatch, "/api/v1/users/avatar",
		`{"avatar":"https://cdn.example.com/a.png"}`, bearer(tk.AccessToken))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterErrors(t *testing.T) {
	s := newTestServer(t)
	s.registerAndLogin(t, "alice")

	rec, env := s.do(t, http.MethodPost, "/api/v1/users/register",
		`{"username":"alice","email":"new@x.com","password":"p","fullName":"A"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, []string{}, env.Errors)

	rec, env = s.do(t, http.MethodPost, "/api/v1/users/register", `{"username":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, env.Errors, 3)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/users/register", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/users/login", `{"username":"ghost","password":"p"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChannelHistoryAndComments(t *testing.T) {
	s := newTestServer(t)
	alice := s.registerAndLogin(t, "alice")
	bob := s.registerAndLogin(t, "bob")

	bobRec, err := s.store.GetByUsernameOrEmail(context.Background(), "bob", "")
	require.NoError(t, err)
	aliceRec, err := s.store.GetByUsernameOrEmail(context.Background(), "alice", "")
	require.NoError(t, err)
	s.store.Subscribe(aliceRec.ID, bobRec.ID)
	v := s.store.AddVideo(model.Video{Title: "clip", OwnerID: bobRec.ID})
	s.store.Watch(aliceRec.ID, v.ID, time.Now())

	rec, env := s.do(t, http.MethodGet, "/api/v1/users/c/bob", "", bearer(alice.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	var p model.ChannelProfile
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.EqualValues(t, 1, p.SubscribersCount)
	assert.True(t, p.IsSubscribed)

	rec, env = s.do(t, http.MethodGet, "/api/v1/users/history", "", bearer(alice.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"title":"clip"`)

	rec, env = s.do(t, http.MethodPost, "/api/v1/videos/"+v.ID+"/comments", `{"content":"nice"}`, bearer(alice.AccessToken))
	require.Equal(t, http.StatusCreated, rec.Code)
	var c model.Comment
	require.NoError(t, json.Unmarshal(env.Data, &c))

	rec, env = s.do(t, http.MethodGet, "/api/v1/videos/"+v.ID+"/comments?page=1&limit=5", "", bearer(bob.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	var page model.Page[model.CommentView]
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.EqualValues(t, 1, page.TotalDocs)
	require.Len(t, page.Docs, 1)
	assert.Equal(t, "alice", page.Docs[0].Owner.Username)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/comments/"+c.ID, "", bearer(bob.AccessToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = s.do(t, http.MethodDelete, "/api/v1/comments/not-an-id", "", bearer(alice.AccessToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = s.do(t, http.MethodDelete, "/api/v1/comments/"+c.ID, "", bearer(alice.AccessToken))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
