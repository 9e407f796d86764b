package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application level configuration loaded from the environment
// (optionally seeded from a dotenv file).
type Config struct {
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`
	Stage      string `envconfig:"STAGE" default:"development"`

	DBDriver       string `envconfig:"DB_DRIVER" default:"postgres"`
	DatabaseDSN    string `envconfig:"DATABASE_DSN" default:"host=localhost port=5432 user=imt password=imt dbname=imt sslmode=disable"`
	DBMaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	ResetDB        bool   `envconfig:"RESET_DB" default:"false"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPass string `envconfig:"REDIS_PASSWORD"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`

	StorageHost      string `envconfig:"STORAGE_HOST" default:"localhost:9000"`
	StorageAccessKey string `envconfig:"STORAGE_ACCESS_KEY"`
	StorageSecretKey string `envconfig:"STORAGE_SECRET_KEY"`
	StorageBucket    string `envconfig:"STORAGE_BUCKET" default:"images"`
	StorageRegion    string `envconfig:"STORAGE_REGION" default:"us-east-1"`
	StorageUseSSL    bool   `envconfig:"STORAGE_USE_SSL" default:"false"`

	MongoURI      string `envconfig:"MONGO_CONNECTION_STRING" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"imt"`

	JWTSecret      string        `envconfig:"JWT_SECRET" default:"change-me"`
	AccessTokenTTL time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"60m"`

	GoogleClientID    string        `envconfig:"GOOGLE_APP_CLIENT_ID"`
	FacebookGraphURL  string        `envconfig:"FACEBOOK_GRAPH_URL" default:"https://graph.facebook.com/v12.0"`
	SocialHTTPTimeout time.Duration `envconfig:"SOCIAL_HTTP_TIMEOUT" default:"5s"`

	TagSeedSource string `envconfig:"TAG_SEED_SOURCE"`

	CORSOrigins string `envconfig:"CORS_ORIGINS_ALLOWED" default:"*"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"`
	SwaggerHost string `envconfig:"SWAGGER_HOST"`
}

// Load reads an optional dotenv file (DOTENV_FILE_PATH, default .env) and then
// builds Config from the environment with defaults.
func Load() (*Config, error) {
	path := os.Getenv("DOTENV_FILE_PATH")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load dotenv %s: %w", path, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var problems []string

	switch c.DBDriver {
	case "postgres", "mysql":
	default:
		problems = append(problems, fmt.Sprintf("DB_DRIVER must be postgres or mysql, got %q", c.DBDriver))
	}
	if c.DatabaseDSN == "" {
		problems = append(problems, "DATABASE_DSN is required")
	}
	if c.IsProd() && (c.JWTSecret == "change-me" || len(c.JWTSecret) < 32) {
		problems = append(problems, "JWT_SECRET must be at least 32 characters in production")
	}
	if c.AccessTokenTTL <= 0 {
		problems = append(problems, "ACCESS_TOKEN_TTL must be positive")
	}
	if c.StorageBucket == "" {
		problems = append(problems, "STORAGE_BUCKET is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// IsProd reports whether the service runs in the production stage.
func (c *Config) IsProd() bool {
	return c.Stage == "production"
}

// AllowedOrigins splits CORS_ORIGINS_ALLOWED on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
