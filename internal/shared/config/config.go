package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv        string
	HTTPAddr      string
	StorageDriver string // "postgres" or "memory"
	DatabaseURL   string
	RedisAddr     string // empty means in-process cooldown store
	EncryptionKey string // 64-char hex (32 bytes)
	JWTSecret     string
	SMTPAddr      string // empty means log-only mail in dev
	SMTPFrom      string

	ReapplyCooldown time.Duration
	ApprovalTTL     time.Duration // how long an approval stays valid
	StalenessWindow time.Duration // drafts/info requests older than this get abandoned
	SweepInterval   time.Duration
}

type binding struct {
	key    string
	env    string
	defVal interface{}
}

var bindings = []binding{
	{"app.env", "APP_ENV", "dev"},
	{"http.addr", "HTTP_ADDR", ":8080"},
	{"storage.driver", "STORAGE_DRIVER", "postgres"},
	{"database.url", "DATABASE_URL", nil},
	{"redis.addr", "REDIS_ADDR", ""},
	{"encryption.key", "ENCRYPTION_KEY", nil},
	{"jwt.secret", "JWT_SECRET", nil},
	{"smtp.addr", "SMTP_ADDR", ""},
	{"smtp.from", "SMTP_FROM", "no-reply@scholarfund.example"},
	{"reapply.cooldown", "REAPPLY_COOLDOWN", "720h"},
	{"approval.ttl", "APPROVAL_TTL", "8760h"},
	{"staleness.window", "STALENESS_WINDOW", "2160h"},
	{"sweep.interval", "SWEEP_INTERVAL", "1h"},
}

// Load loads configuration from environment variables. A missing .env
// file is fine in production; OS-set env vars still apply.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	for _, b := range bindings {
		if err := viper.BindEnv(b.key, b.env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", b.key, err)
		}
		if b.defVal != nil {
			viper.SetDefault(b.key, b.defVal)
		}
	}

	cfg := Config{
		AppEnv:          viper.GetString("app.env"),
		HTTPAddr:        viper.GetString("http.addr"),
		StorageDriver:   viper.GetString("storage.driver"),
		DatabaseURL:     viper.GetString("database.url"),
		RedisAddr:       viper.GetString("redis.addr"),
		EncryptionKey:   viper.GetString("encryption.key"),
		JWTSecret:       viper.GetString("jwt.secret"),
		SMTPAddr:        viper.GetString("smtp.addr"),
		SMTPFrom:        viper.GetString("smtp.from"),
		ReapplyCooldown: viper.GetDuration("reapply.cooldown"),
		ApprovalTTL:     viper.GetDuration("approval.ttl"),
		StalenessWindow: viper.GetDuration("staleness.window"),
		SweepInterval:   viper.GetDuration("sweep.interval"),
	}

	if cfg.StorageDriver != "postgres" && cfg.StorageDriver != "memory" {
		return nil, fmt.Errorf("STORAGE_DRIVER must be 'postgres' or 'memory', got %q", cfg.StorageDriver)
	}
	if cfg.StorageDriver == "postgres" && cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set in environment or .env file")
	}
	if cfg.EncryptionKey == "" {
		return nil, errors.New("ENCRYPTION_KEY is not set in environment or .env file")
	}
	if len(cfg.EncryptionKey) != 64 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be a 64-character hex string (32 bytes), but got %d chars", len(cfg.EncryptionKey))
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set in environment or .env file")
	}

	return &cfg, nil
}
