package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vidtube-backend/internal/apperr"
)

func render(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]any, string) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/x", nil), rec)

	ErrorHandler(logger)(err, c)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body, logs.String()
}

func TestErrorHandler_Kinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.Validation("bad"), http.StatusBadRequest},
		{apperr.Conflict("dup"), http.StatusConflict},
		{apperr.NotFound("gone"), http.StatusNotFound},
		{apperr.Forbidden("no"), http.StatusForbidden},
		{apperr.InvalidCredentials("pw"), http.StatusUnauthorized},
		{apperr.Unauthenticated("who"), http.StatusUnauthorized},
		{apperr.InvalidToken("tok", nil), http.StatusUnauthorized},
		{apperr.TokenReuseOrExpired("used"), http.StatusUnauthorized},
		{echo.NewHTTPError(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec, body, _ := render(t, tc.err)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.EqualValues(t, tc.status, body["statusCode"])
		assert.Equal(t, false, body["success"])
		assert.Nil(t, body["data"])
		assert.Equal(t, []any{}, body["errors"])
	}
}

func TestErrorHandler_HidesCause(t *testing.T) {
	rec, body, logs := render(t, apperr.Internal("failed to load user", errors.New("dial tcp 10.0.0.5:3306: refused")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to load user", body["message"])
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Contains(t, logs, "10.0.0.5")
}

func TestErrorHandler_ValidationDetails(t *testing.T) {
	_, body, logs := render(t, apperr.Validation("All fields are required", "email is required"))
	assert.Equal(t, []any{"email is required"}, body["errors"])
	assert.Empty(t, logs, "client errors are not logged here")
}

func TestRespond_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, respond(c, http.StatusCreated, map[string]string{"id": "1"}, "created"))

	assert.JSONEq(t, `{"statusCode":201,"data":{"id":"1"},"message":"created","success":true}`, rec.Body.String())
}
