package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "imtapp/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"imtapp/internal/auth"
	"imtapp/internal/cache"
	"imtapp/internal/config"
	"imtapp/internal/db"
	"imtapp/internal/handler"
	"imtapp/internal/logger"
	"imtapp/internal/metrics"
	"imtapp/internal/repository"
	"imtapp/internal/router"
	"imtapp/internal/service"
	"imtapp/internal/social"
	"imtapp/internal/storage"
	"imtapp/internal/tracking"
)

// @title Image Tagging API
// @version 1.0
// @description Multi-tenant image tagging API with password and social login, tagged uploads and cursor paginated search.
// @host localhost:8080
// @BasePath /v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN, db.Options{MaxOpenConns: cfg.DBMaxOpenConns})
	if err != nil {
		log.Fatal().Err(err).Msg("database init")
	}
	if cfg.ResetDB {
		log.Warn().Msg("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			log.Warn().Err(err).Msg("drop tables")
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal().Err(err).Msg("auto-migrate")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis not reachable, guarded routes will fail until it is")
	}

	store, err := storage.NewMinioStore(storage.Options{
		Endpoint:  cfg.StorageHost,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		Bucket:    cfg.StorageBucket,
		Region:    cfg.StorageRegion,
		UseSSL:    cfg.StorageUseSSL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("object store init")
	}
	if err := store.EnsureBucket(ctx); err != nil {
		log.Fatal().Err(err).Str("bucket", cfg.StorageBucket).Msg("object store bucket")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewCollector(registry)

	sink, err := tracking.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatal().Err(err).Msg("usage store init")
	}
	tracker := tracking.NewTracker(sink, recorder, tracking.DefaultBufferSize)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	imageRepo := repository.NewImageRepository(gormDB)
	tagRepo := repository.NewTagRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)
	google := social.NewGoogle(social.GoogleConfig{
		ClientID: cfg.GoogleClientID,
		Timeout:  cfg.SocialHTTPTimeout,
	}, recorder)
	facebook := social.NewFacebook(social.FacebookConfig{
		GraphURL: cfg.FacebookGraphURL,
		Timeout:  cfg.SocialHTTPTimeout,
	}, recorder)

	// Initialize services
	authService := service.NewAuthService(service.AuthDeps{
		Users:    userRepo,
		Tokens:   jwtService,
		Revoked:  tokenStore,
		Hasher:   auth.NewBcryptHasher(bcrypt.DefaultCost),
		Google:   google,
		Facebook: facebook,
		Metrics:  recorder,
		Lifetime: cfg.AccessTokenTTL,
	})
	profileService := service.NewProfileService(userRepo, cacheClient)
	imageService := service.NewImageService(imageRepo, store, recorder)
	tagService := service.NewTagService(tagRepo)

	// Initialize handlers
	handlers := router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Profile: handler.NewProfileHandler(profileService),
		Image:   handler.NewImageHandler(imageService),
		Tag:     handler.NewTagHandler(tagService),
	}
	if cfg.TagSeedSource != "" {
		handlers.Seed = handler.NewSeedHandler(tagService, cfg.TagSeedSource)
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, handlers, authService, tracker, registry)

	log.Info().Str("url", swaggerURL(cfg)).Msg("swagger documentation available")

	go func() {
		addr := ":" + cfg.ServerPort
		log.Info().Str("addr", addr).Str("stage", cfg.Stage).Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	tracker.Close()
	if err := sink.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("usage store close")
	}
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}
