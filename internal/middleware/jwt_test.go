package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vidtube-backend/internal/apperr"
	"github.com/iliyamo/vidtube-backend/internal/model"
	"github.com/iliyamo/vidtube-backend/internal/storetest"
	"github.com/iliyamo/vidtube-backend/internal/utils"
)

type gateFixture struct {
	store  *storetest.MemoryStore
	issuer *utils.TokenIssuer
	alice  model.User
	bob    model.User
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	f := &gateFixture{
		store:  storetest.NewMemoryStore(),
		issuer: utils.NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour),
	}
	for _, u := range []*model.User{
		{Username: "alice", Email: "a@x.com", FullName: "Alice A", PasswordHash: "h", RefreshToken: "rt"},
		{Username: "bob", Email: "b@x.com", FullName: "Bob B", PasswordHash: "h"},
	} {
		require.NoError(t, f.store.Create(context.Background(), u))
	}
	var err error
	f.alice, err = f.store.GetByUsernameOrEmail(context.Background(), "alice", "")
	require.NoError(t, err)
	f.bob, err = f.store.GetByUsernameOrEmail(context.Background(), "bob", "")
	require.NoError(t, err)
	return f
}

func (f *gateFixture) token(t *testing.T, u model.User) string {
	t.Helper()
	tok, err := f.issuer.IssueAccessToken(u)
	require.NoError(t, err)
	return tok.Token
}

// run sends req through JWTAuth and returns the identity seen by the
// handler, or the error the gate produced.
func (f *gateFixture) run(req *http.Request) (model.PublicUser, error) {
	e := echo.New()
	c := e.NewContext(req, httptest.NewRecorder())
	var seen model.PublicUser
	h := JWTAuth(f.issuer, f.store)(func(c echo.Context) error {
		u, err := CurrentUser(c)
		seen = u
		return err
	})
	return seen, h(c)
}

func TestJWTAuth_Sources(t *testing.T) {
	f := newGateFixture(t)

	t.Run("header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+f.token(t, f.alice))
		u, err := f.run(req)
		require.NoError(t, err)
		assert.Equal(t, "alice", u.Username)
	})

	t.Run("cookie fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: f.token(t, f.bob)})
		u, err := f.run(req)
		require.NoError(t, err)
		assert.Equal(t, "bob", u.Username)
	})

	t.Run("header wins over cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "bearer "+f.token(t, f.alice))
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: f.token(t, f.bob)})
		u, err := f.run(req)
		require.NoError(t, err)
		assert.Equal(t, "alice", u.Username)
	})

	t.Run("non-bearer header falls back to cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Basic Zm9vOmJhcg==")
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: f.token(t, f.bob)})
		u, err := f.run(req)
		require.NoError(t, err)
		assert.Equal(t, "bob", u.Username)
	})
}

func TestJWTAuth_Rejects(t *testing.T) {
	f := newGateFixture(t)

	expired := func() string {
		past := utils.NewTokenIssuer("access-secret", "refresh-secret", -time.Hour, time.Hour)
		tok, err := past.IssueAccessToken(f.alice)
		require.NoError(t, err)
		return tok.Token
	}()
	refresh, err := f.issuer.IssueRefreshToken(f.alice)
	require.NoError(t, err)
	parts := strings.Split(f.token(t, f.alice), ".")
	flip := byte('A')
	if parts[2][0] == 'A' {
		flip = 'B'
	}
	parts[2] = string(flip) + parts[2][1:]
	tampered := strings.Join(parts, ".")

	cases := []struct {
		name  string
		token string
		kind  apperr.Kind
	}{
		{"missing", "", apperr.KindUnauthenticated},
		{"garbage", "abc", apperr.KindInvalidToken},
		{"tampered", tampered, apperr.KindInvalidToken},
		{"expired", expired, apperr.KindInvalidToken},
		{"refresh token", refresh.Token, apperr.KindInvalidToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.token != "" {
				req.Header.Set(echo.HeaderAuthorization, "Bearer "+tc.token)
			}
			_, err := f.run(req)
			require.Error(t, err)
			assert.Equal(t, tc.kind, apperr.KindOf(err))
			assert.Equal(t, http.StatusUnauthorized, statusOf(nil, err))
		})
	}
}

func TestJWTAuth_DeletedUser(t *testing.T) {
	f := newGateFixture(t)
	tok := f.token(t, f.bob)
	f.store.Delete(f.bob.ID)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	_, err := f.run(req)
	assert.True(t, apperr.Is(err, apperr.KindInvalidToken))
}

func TestJWTAuth_IdentityIsSanitized(t *testing.T) {
	f := newGateFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+f.token(t, f.alice))

	u, err := f.run(req)
	require.NoError(t, err)
	// PublicUser has no credential fields at all; check the id made it.
	assert.Equal(t, f.alice.ID, u.ID)
}

func TestCurrentUser_NoGate(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, err := CurrentUser(c)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
	assert.Equal(t, "anon", userID(c))
}
