package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ManuelReschke/VerifyBot/internal/pkg/env"
)

const (
	LedgerBackendFile     = "file"
	LedgerBackendDatabase = "database"
	LedgerBackendRedis    = "redis"
	LedgerBackendS3       = "s3"
)

// PayPalConfig holds the processor credentials and request shaping.
type PayPalConfig struct {
	ClientID     string        `validate:"required"`
	ClientSecret string        `validate:"required"`
	Endpoint     string        `validate:"required,url"`
	PageSize     int           `validate:"min=1,max=500"`
	MaxPages     int           `validate:"min=1,max=100"`
	RateLimit    float64       `validate:"gt=0"`
	Timeout      time.Duration `validate:"gt=0"`
}

// DiscordConfig is required by both hosts, since roles are granted through
// the Discord API.
type DiscordConfig struct {
	Token         string   `validate:"required"`
	GuildIDs      []string `validate:"min=1,dive,numeric"`
	AppearOffline bool
}

type LedgerConfig struct {
	Enabled  bool
	Backend  string `validate:"oneof=file database redis s3"`
	Path     string `validate:"required_if=Backend file"`
	RedisKey string `validate:"required_if=Backend redis"`
	S3Key    string `validate:"required_if=Backend s3"`
}

type DatabaseConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
}

// DSN builds the go-sql-driver/mysql connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

type CacheConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (c CacheConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// S3Config mirrors the backup settings used for the object storage ledger.
type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
}

type HTTPConfig struct {
	Enabled    bool
	Host       string
	Port       string
	APIKeyHash string
	RateLimit  int `validate:"min=1"`
	DocsPath   string
}

func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Config is loaded once at startup and treated as immutable afterwards.
type Config struct {
	PayPal   PayPalConfig
	Discord  DiscordConfig
	Ledger   LedgerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	S3       S3Config
	HTTP     HTTPConfig

	ResourceID    string        `validate:"required"`
	ResourceRole  string        `validate:"required"`
	VerifyTimeout time.Duration `validate:"gt=0"`

	LogFile  string
	LogLevel string `validate:"oneof=trace debug info warn error"`
}

// Load reads the configuration surface from env (see env.SetupEnvFile).
func Load() (*Config, error) {
	cfg := &Config{
		PayPal: PayPalConfig{
			ClientID:     strings.TrimSpace(env.GetEnv("PAYPAL_CLIENT_ID", "")),
			ClientSecret: strings.TrimSpace(env.GetEnv("PAYPAL_CLIENT_SECRET", "")),
			Endpoint:     strings.TrimRight(strings.TrimSpace(env.GetEnv("PAYPAL_ENDPOINT", "https://api-m.paypal.com")), "/"),
			PageSize:     env.GetInt("PAYPAL_PAGE_SIZE", 500),
			MaxPages:     env.GetInt("PAYPAL_MAX_PAGES", 10),
			RateLimit:    env.GetFloat("PAYPAL_RATE_LIMIT", 5),
			Timeout:      env.GetDuration("PAYPAL_TIMEOUT", 15*time.Second),
		},
		Discord: DiscordConfig{
			Token:         strings.TrimSpace(env.GetEnv("DISCORD_TOKEN", "")),
			GuildIDs:      env.GetList("GUILD_LIST"),
			AppearOffline: env.GetBool("APPEAR_OFFLINE", true),
		},
		Ledger: LedgerConfig{
			Enabled:  env.GetBool("CHECK_PREVIOUSLY_VERIFIED", true),
			Backend:  strings.ToLower(strings.TrimSpace(env.GetEnv("LEDGER_BACKEND", LedgerBackendFile))),
			Path:     env.GetEnv("LEDGER_PATH", "verified_emails"),
			RedisKey: env.GetEnv("LEDGER_REDIS_KEY", "verifybot:verified_emails"),
			S3Key:    env.GetEnv("LEDGER_S3_KEY", "verifybot/verified_emails.json"),
		},
		Database: DatabaseConfig{
			User:     env.GetEnv("DB_USER", ""),
			Password: env.GetEnv("DB_PASSWORD", ""),
			Host:     env.GetEnv("DB_HOST", "127.0.0.1"),
			Port:     env.GetEnv("DB_PORT", "3306"),
			Name:     env.GetEnv("DB_NAME", ""),
		},
		Cache: CacheConfig{
			Host:     env.GetEnv("CACHE_HOST", ""),
			Port:     env.GetEnv("CACHE_PORT", "6379"),
			Password: env.GetEnv("CACHE_PASSWORD", ""),
			DB:       env.GetInt("CACHE_DB", 0),
		},
		S3: S3Config{
			AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
			Region:          env.GetEnv("S3_REGION", "us-east-1"),
			BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
			EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		},
		HTTP: HTTPConfig{
			Enabled:    env.GetBool("HTTP_ENABLED", false),
			Host:       env.GetEnv("APP_HOST", "localhost"),
			Port:       env.GetEnv("APP_PORT", "4000"),
			APIKeyHash: strings.TrimSpace(env.GetEnv("API_KEY_HASH", "")),
			RateLimit:  env.GetInt("HTTP_RATE_LIMIT", 30),
			DocsPath:   env.GetEnv("HTTP_DOCS_PATH", "public/docs/v1/openapi.yml"),
		},
		ResourceID:    strings.TrimSpace(env.GetEnv("RESOURCE_ID", "")),
		ResourceRole:  strings.TrimSpace(env.GetEnv("RESOURCE_ROLE", "")),
		VerifyTimeout: env.GetDuration("VERIFY_TIMEOUT", 2*time.Minute),
		LogFile:       env.GetEnv("LOG_FILE", "verifybot.log"),
		LogLevel:      strings.ToLower(env.GetEnv("LOG_LEVEL", "info")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct tags plus the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.HTTP.Enabled && c.HTTP.APIKeyHash == "" {
		return errors.New("invalid configuration: API_KEY_HASH is required when HTTP_ENABLED is true")
	}
	if c.Ledger.Enabled {
		switch c.Ledger.Backend {
		case LedgerBackendDatabase:
			if c.Database.User == "" || c.Database.Name == "" {
				return errors.New("invalid configuration: DB_USER and DB_NAME are required for the database ledger")
			}
		case LedgerBackendRedis:
			if c.Cache.Host == "" {
				return errors.New("invalid configuration: CACHE_HOST is required for the redis ledger")
			}
		case LedgerBackendS3:
			if c.S3.BucketName == "" || c.S3.AccessKeyID == "" || c.S3.SecretAccessKey == "" {
				return errors.New("invalid configuration: S3_BUCKET_NAME, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required for the s3 ledger")
			}
		}
	}
	return nil
}
