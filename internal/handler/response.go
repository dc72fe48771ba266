package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube-backend/internal/apperr"
)

// requestTimeout bounds the store work done for one request.
const requestTimeout = 5 * time.Second

// Response is the success envelope.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// ErrorResponse is the error envelope.  Errors is never null.
type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Data       any      `json:"data"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

func respond(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, Response{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// ErrorHandler renders every error returned by a handler or middleware
// with the error envelope.  Tagged errors map by kind; echo's own errors
// keep their code.  Causes of server errors are logged and never sent.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, message, details := classify(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"err", err)
		}
		if details == nil {
			details = []string{}
		}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, ErrorResponse{
				StatusCode: status,
				Message:    message,
				Errors:     details,
			})
		}
		if werr != nil {
			logger.Warn("write error response", "err", werr)
		}
	}
}

func classify(err error) (int, string, []string) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Kind.Status(), ae.Message, ae.Errors
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		return he.Code, msg, nil
	}
	return http.StatusInternalServerError, "Internal Server Error", nil
}
