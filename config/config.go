package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	return nil
}

// Config is the typed runtime configuration of the portal API
type Config struct {
	Env  string
	Port int

	// Database
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	// JWT
	JWTSecret        string
	JWTIssuer        string
	JWTExpiry        time.Duration
	JWTRefreshExpiry time.Duration

	// Redis (optional)
	RedisURL string

	// HTTP
	AllowedOrigins    string
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Background jobs
	CronEnabled               bool
	NotificationRetentionDays int

	// Logging
	LogLevel string
	LogFile  string

	// Object storage for submission attachments (optional)
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string

	// Seeding
	SeedAdminEmail    string
	SeedAdminPassword string
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("GO_ENV", "development")
	v.SetDefault("PORT", 8080)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER_NAME", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "smart_campus")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("JWT_ISSUER", "smart-campus-api")
	v.SetDefault("JWT_EXPIRY", 12*time.Hour)
	v.SetDefault("JWT_REFRESH_EXPIRY", 7*24*time.Hour)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", time.Minute)
	v.SetDefault("CRON_ENABLED", true)
	v.SetDefault("NOTIFICATION_RETENTION_DAYS", 90)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SEED_ADMIN_EMAIL", "admin@campus.edu")
	v.SetDefault("SEED_ADMIN_PASSWORD", "admin12345")

	v.AutomaticEnv()
	return v
}

// Load reads the configuration from the process environment (and .env in development)
func Load() (*Config, error) {
	if err := LoadENV(); err != nil {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := newViper()

	// MONGODB_URI and MONGO_URI are legacy names for DATABASE_URL
	databaseURL := firstNonEmpty(v.GetString("DATABASE_URL"), v.GetString("MONGODB_URI"), v.GetString("MONGO_URI"))

	cfg := &Config{
		Env:  v.GetString("GO_ENV"),
		Port: v.GetInt("PORT"),

		DatabaseURL: databaseURL,
		DBHost:      v.GetString("DB_HOST"),
		DBPort:      v.GetString("DB_PORT"),
		DBUser:      v.GetString("DB_USER_NAME"),
		DBPassword:  v.GetString("DB_PASSWORD"),
		DBName:      v.GetString("DB_NAME"),
		DBSSLMode:   v.GetString("DB_SSL_MODE"),

		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTIssuer:        v.GetString("JWT_ISSUER"),
		JWTExpiry:        v.GetDuration("JWT_EXPIRY"),
		JWTRefreshExpiry: v.GetDuration("JWT_REFRESH_EXPIRY"),

		RedisURL: v.GetString("REDIS_URL"),

		AllowedOrigins:    v.GetString("ALLOWED_ORIGINS"),
		RateLimitRequests: v.GetInt("RATE_LIMIT_REQUESTS"),
		RateLimitWindow:   v.GetDuration("RATE_LIMIT_WINDOW"),

		CronEnabled:               v.GetBool("CRON_ENABLED"),
		NotificationRetentionDays: v.GetInt("NOTIFICATION_RETENTION_DAYS"),

		LogLevel: v.GetString("LOG_LEVEL"),
		LogFile:  v.GetString("LOG_FILE"),

		S3Bucket:    v.GetString("S3_BUCKET"),
		S3Region:    v.GetString("S3_REGION"),
		S3Endpoint:  v.GetString("S3_ENDPOINT"),
		S3AccessKey: v.GetString("S3_ACCESS_KEY"),
		S3SecretKey: v.GetString("S3_SECRET_KEY"),
		S3PublicURL: v.GetString("S3_PUBLIC_URL"),

		SeedAdminEmail:    v.GetString("SEED_ADMIN_EMAIL"),
		SeedAdminPassword: v.GetString("SEED_ADMIN_PASSWORD"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.DatabaseURL == "" && c.DBName == "" {
		errs = append(errs, errors.New("DATABASE_URL or DB_NAME is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	if c.JWTExpiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// IsProduction reports whether GO_ENV is production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// IsDevelopment reports whether internal error details may be exposed
func (c *Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development"
}

// DSN returns the PostgreSQL connection string. DATABASE_URL wins when set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

// DatabaseName returns the target database name, parsed from DATABASE_URL when present
func (c *Config) DatabaseName() string {
	if c.DatabaseURL == "" {
		return c.DBName
	}
	u, err := url.Parse(c.DatabaseURL)
	if err != nil || u.Path == "" {
		return c.DBName
	}
	return strings.TrimPrefix(u.Path, "/")
}

// MaintenanceDSN points at the postgres maintenance database on the same server
func (c *Config) MaintenanceDSN() string {
	if c.DatabaseURL != "" {
		u, err := url.Parse(c.DatabaseURL)
		if err == nil {
			u.Path = "/postgres"
			return u.String()
		}
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=postgres port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBPort, c.DBSSLMode,
	)
}

// StorageEnabled reports whether attachment storage is configured
func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
