package handler

import (
	"net/http"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"imtapp/internal/auth"
	"imtapp/internal/errors"
	"imtapp/internal/model"
	"imtapp/internal/service"
	"imtapp/internal/tracking"
)

const (
	claimsContextKey = "user"
	tokenContextKey  = "token"
)

// Guard accepts requests whose bearer token decodes and is not revoked. The
// claims and the raw token are stored on the echo context.
func Guard(svc service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			token = strings.TrimSpace(token)
			claims, err := svc.Authenticate(c.Request().Context(), token)
			if err != nil {
				return nil, err
			}
			c.Set(tokenContextKey, token)
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			httpErr := errors.MapErrorToHTTP(err)
			if httpErr.StatusCode == http.StatusInternalServerError {
				httpErr = errors.NewHTTPError(http.StatusUnauthorized, "missing or malformed token", "INVALID_TOKEN")
			}
			if httpErr.StatusCode >= http.StatusInternalServerError {
				return respondError(c, err)
			}
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
		},
	})
}

// TrackUsage records one usage event per guarded request. It must run after
// Guard.
func TrackUsage(collector tracking.Collector) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if claims, ok := claimsFrom(c); ok {
				collector.Record(model.UsageEvent{
					UserID:     claims.UserID,
					Email:      claims.Email,
					RequestURL: c.Request().URL.String(),
				})
			}
			return next(c)
		}
	}
}

func claimsFrom(c echo.Context) (*auth.Claims, bool) {
	claims, ok := c.Get(claimsContextKey).(*auth.Claims)
	return claims, ok && claims != nil
}

func requireClaims(c echo.Context) (*auth.Claims, error) {
	claims, ok := claimsFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "invalid token",
			Code:  "INVALID_TOKEN",
		})
	}
	return claims, nil
}

func rawToken(c echo.Context) string {
	token, _ := c.Get(tokenContextKey).(string)
	return token
}
