package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	echoSwagger "github.com/swaggo/echo-swagger"

	"imtapp/internal/config"
	"imtapp/internal/handler"
	"imtapp/internal/metrics"
	"imtapp/internal/service"
	"imtapp/internal/tracking"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Auth    *handler.AuthHandler
	Profile *handler.ProfileHandler
	Image   *handler.ImageHandler
	Tag     *handler.TagHandler
	Seed    *handler.SeedHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	h Handlers,
	authService service.AuthService,
	usage tracking.Collector,
	gatherer prometheus.Gatherer,
) {
	e.Use(middleware.RequestID())
	e.Use(contextLogger())
	e.Use(requestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins(),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(gatherer)))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/v1")

	// Public routes
	api.POST("/auth/sign-up", h.Auth.SignUp)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/google", h.Auth.Google)
	api.POST("/auth/facebook", h.Auth.Facebook)

	// Secured routes (require a live session token)
	secured := api.Group("", handler.Guard(authService), handler.TrackUsage(usage))

	secured.GET("/auth/refresh-token", h.Auth.Refresh)
	secured.GET("/auth/access-token", h.Auth.AccessToken)
	secured.GET("/auth/logout", h.Auth.Logout)

	secured.GET("/profile", h.Profile.GetProfile)

	secured.POST("/image", h.Image.Upload)
	secured.GET("/image/find", h.Image.Find)
	secured.GET("/image/:id", h.Image.Get)

	secured.POST("/tag", h.Tag.AddTags)

	if h.Seed != nil {
		secured.POST("/seed/tags", h.Seed.SeedTags)
	}
}

// contextLogger attaches a logger tagged with the request id to the request
// context.
func contextLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := log.With().Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).Logger()
			c.SetRequest(c.Request().WithContext(l.WithContext(c.Request().Context())))
			return next(c)
		}
	}
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogRemoteIP:  true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil {
				event = log.Warn().Err(v.Error)
			}
			event.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
