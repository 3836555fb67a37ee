package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/labstack/gommon/random"
)

// Config holds the runtime configuration, loaded from environment variables
// with an optional TOML file overlay for SMTP and limits.
type Config struct {
	DatabaseURL string
	JWTSecret   string
	Port        int
	FrontendURL string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	Redis RedisConfig
	Minio MinioConfig
	SMTP  SMTPConfig `toml:"smtp"`

	Limits LimitsConfig `toml:"limits"`
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MinioConfig struct {
	Endpoint       string
	AccessKey      string
	SecretKey      string
	UseSSL         bool
	DocumentBucket string
}

// SMTPConfig contains the transactional email transport settings.
type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
}

// LimitsConfig contains edge throttling settings.
type LimitsConfig struct {
	LoginAttemptsPerWindow int           `toml:"login_attempts_per_window"`
	RateLimitWindow        time.Duration `toml:"-"`
	RateLimitWindowSeconds int           `toml:"rate_limit_window_seconds"`
	MaxUploadBytes         int64         `toml:"max_upload_bytes"`
}

// Load builds the configuration from the environment. DATABASE_URL is
// required; everything else has development defaults.
func Load() (*Config, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: JWT_SECRET not set, using generated secret")
	}

	cfg := &Config{
		DatabaseURL:     databaseURL,
		JWTSecret:       jwtSecret,
		Port:            envInt("PORT", 8080),
		FrontendURL:     envString("FRONTEND_URL", "http://localhost:3001"),
		AccessTokenTTL:  envDuration("ACCESS_TOKEN_TTL", 7*24*time.Hour),
		RefreshTokenTTL: envDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		Redis: RedisConfig{
			Addr:     envString("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		},
		Minio: MinioConfig{
			Endpoint:       envString("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:      envString("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey:      envString("MINIO_SECRET_KEY", "minioadmin"),
			UseSSL:         os.Getenv("MINIO_USE_SSL") == "true",
			DocumentBucket: envString("MINIO_DOCUMENT_BUCKET", "reqgather-documents"),
		},
		SMTP: SMTPConfig{
			Host:     envString("SMTP_HOST", "localhost"),
			Port:     envInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     envString("SMTP_FROM", "noreply@reqgather.com"),
		},
		Limits: LimitsConfig{
			LoginAttemptsPerWindow: 10,
			RateLimitWindow:        15 * time.Minute,
			MaxUploadBytes:         10 << 20,
		},
	}

	if path := os.Getenv("REQGATHER_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// applyFile overlays SMTP and limit settings from a TOML file.
func (c *Config) applyFile(path string) error {
	var overlay struct {
		SMTP   SMTPConfig   `toml:"smtp"`
		Limits LimitsConfig `toml:"limits"`
	}
	if _, err := toml.DecodeFile(path, &overlay); err != nil {
		return fmt.Errorf("failed to load config file: %w", err)
	}
	if overlay.SMTP.Host != "" {
		c.SMTP = overlay.SMTP
	}
	if overlay.Limits.LoginAttemptsPerWindow > 0 {
		c.Limits.LoginAttemptsPerWindow = overlay.Limits.LoginAttemptsPerWindow
	}
	if overlay.Limits.RateLimitWindowSeconds > 0 {
		c.Limits.RateLimitWindow = time.Duration(overlay.Limits.RateLimitWindowSeconds) * time.Second
	}
	if overlay.Limits.MaxUploadBytes > 0 {
		c.Limits.MaxUploadBytes = overlay.Limits.MaxUploadBytes
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
