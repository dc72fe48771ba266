package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vidtube-backend/internal/config"
	"github.com/iliyamo/vidtube-backend/internal/model"
)

func TestCacheKey_SeparatesViewers(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "user_route_query"}
	e := echo.New()
	mk := func(uid string) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/users/c/bob?x=1", nil), httptest.NewRecorder())
		if uid != "" {
			SetIdentity(c, model.PublicUser{ID: uid})
		}
		return c
	}

	a, b, anon := cacheKey(cfg, mk("u-1")), cacheKey(cfg, mk("u-2")), cacheKey(cfg, mk(""))
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, anon)
	assert.Equal(t, a, cacheKey(cfg, mk("u-1")))
	assert.Contains(t, a, "cache:")

	cfg.KeyStrategy = "route_query"
	assert.Equal(t, cacheKey(cfg, mk("u-1")), cacheKey(cfg, mk("u-2")))
}

func TestDecodePayload(t *testing.T) {
	bs, err := encodePayload(http.StatusOK, http.Header{"Content-Type": {"application/json"}}, []byte(`{"ok":true}`))
	require.NoError(t, err)

	status, hdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", hdr.Get("Content-Type"))
	assert.JSONEq(t, `{"ok":true}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 0})
	assert.False(t, ok)
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0})
	assert.False(t, ok, "header length past the end")
}

func TestRedisCache_NoClientPassesThrough(t *testing.T) {
	mw := NewRedisCache(config.CacheConfig{Enabled: true, TTL: 1}, nil, nil)
	calls := 0
	h := mw(func(c echo.Context) error { calls++; return c.String(http.StatusOK, "x") })
	for i := 0; i < 2; i++ {
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		require.NoError(t, h(c))
	}
	assert.Equal(t, 2, calls)
}
