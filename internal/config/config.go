package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr          string        `env:"ADDR" envDefault:":3000"`
	BaseURL       string        `env:"BASE_URL" envDefault:"http://localhost:3000"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	SecretKey     string        `env:"JWT_SECRET_KEY,required"`
	SecureCookies bool          `env:"SECURE_COOKIES" envDefault:"false"`
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"720h"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"720h"`
	RateLimit     int           `env:"API_RATE_LIMIT" envDefault:"120"`

	Database DatabaseConfig
	Storage  StorageConfig
	OAuth    OAuthConfig
}

type DatabaseConfig struct {
	Driver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DSN    string `env:"DSN,required"`
}

// StorageConfig describes an S3-compatible bucket. AccountID selects a
// Cloudflare R2 endpoint when Endpoint is empty.
type StorageConfig struct {
	AccountID       string `env:"ACCOUNT_ID"`
	Endpoint        string `env:"S3_ENDPOINT"`
	Region          string `env:"S3_REGION" envDefault:"auto"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	AccessKeySecret string `env:"ACCESS_KEY_SECRET"`
	Bucket          string `env:"BUCKET_NAME"`
	PublicURL       string `env:"PUBLIC_URL"`
}

func (s StorageConfig) Enabled() bool {
	return s.Bucket != "" && s.PublicURL != ""
}

type OAuthConfig struct {
	GoogleKey    string `env:"GOOGLE_KEY"`
	GoogleSecret string `env:"GOOGLE_SECRET"`
}

func (o OAuthConfig) GoogleEnabled() bool {
	return o.GoogleKey != "" && o.GoogleSecret != ""
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.validate()
}

// LoadFrom parses configuration from the given variables only.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}
	if len(c.SecretKey) < 16 {
		return errors.New("JWT_SECRET_KEY must be at least 16 characters")
	}
	if c.RateLimit < 1 {
		return errors.New("API_RATE_LIMIT must be positive")
	}
	if c.Storage.Bucket != "" && c.Storage.Endpoint == "" && c.Storage.AccountID == "" {
		return errors.New("S3_ENDPOINT or ACCOUNT_ID required when BUCKET_NAME is set")
	}
	return nil
}
