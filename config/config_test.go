package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("JWT_SECRET", "s3cret")
	for _, key := range []string{"PORT", "DATABASE_URL", "MONGODB_URI", "MONGO_URI", "DB_NAME", "S3_BUCKET"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 12*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 100, cfg.RateLimitRequests)
	assert.True(t, cfg.CronEnabled)
	assert.Equal(t, "smart_campus", cfg.DatabaseName())
	assert.Contains(t, cfg.DSN(), "dbname=smart_campus")
	assert.False(t, cfg.StorageEnabled())
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_EXPIRY", "30m")
	t.Setenv("CRON_ENABLED", "false")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/campus_prod?sslmode=require")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.JWTExpiry)
	assert.False(t, cfg.CronEnabled)
	assert.Equal(t, "campus_prod", cfg.DatabaseName())
	assert.Equal(t, cfg.DatabaseURL, cfg.DSN())
	assert.Equal(t, "postgres://u:p@db:5432/postgres?sslmode=require", cfg.MaintenanceDSN())
}

func TestLoadConnectionStringAliases(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MONGODB_URI", "")
	t.Setenv("MONGO_URI", "postgres://u:p@db:5432/legacy")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/legacy", cfg.DSN())
	assert.Equal(t, "legacy", cfg.DatabaseName())

	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/primary")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.DatabaseName(), "DATABASE_URL wins")
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
}

func TestValidate(t *testing.T) {
	cfg := &Config{JWTSecret: "x", DBName: "campus", Port: 0, JWTExpiry: 0}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT 0 is out of range")
	assert.Contains(t, err.Error(), "JWT_EXPIRY must be positive")

	cfg.Port, cfg.JWTExpiry = 8080, time.Hour
	assert.NoError(t, cfg.Validate())
}
