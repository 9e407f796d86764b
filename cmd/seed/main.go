package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"imtapp/internal/config"
	"imtapp/internal/db"
	"imtapp/internal/logger"
	"imtapp/internal/repository"
	"imtapp/internal/service"
)

func main() {
	source := flag.String("source", "", "tag list URL or file (defaults to TAG_SEED_SOURCE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	if *source == "" {
		*source = cfg.TagSeedSource
	}
	if *source == "" {
		log.Fatal().Msg("no tag source: pass -source or set TAG_SEED_SOURCE")
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN, db.Options{MaxOpenConns: 2})
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	log.Info().Str("driver", cfg.DBDriver).Msg("connected to database")

	// Run migrations to ensure schema is up to date
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal().Err(err).Msg("run migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	log.Info().Str("source", *source).Msg("loading tag list")
	names, err := service.LoadTagList(ctx, &http.Client{Timeout: 30 * time.Second}, *source)
	if err != nil {
		log.Fatal().Err(err).Msg("load tag list")
	}

	tags, err := service.NewTagService(repository.NewTagRepository(gormDB)).AddTags(ctx, names)
	if err != nil {
		log.Fatal().Err(err).Msg("seed tags")
	}

	log.Info().
		Int("read", len(names)).
		Int("stored", len(tags)).
		Msg("seed completed")
}
