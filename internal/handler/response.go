package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"imtapp/internal/errors"
	"imtapp/internal/logger"
)

// respondError converts a service error into an echo HTTP error carrying an
// ErrorResponse body. Server-side failures are logged with request context.
func respondError(c echo.Context, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		logger.Ctx(c.Request().Context()).Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Int("status", httpErr.StatusCode).
			Msg("request failed")
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

func badRequest(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  "BAD_REQUEST",
	})
}
