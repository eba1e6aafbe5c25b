package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// RedisConfig Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoadFromEnv overrides fields from <prefix>_ADDR / _PASSWORD / _DB
func (c *RedisConfig) LoadFromEnv(prefix string) {
	if addr := os.Getenv(prefix + "_ADDR"); addr != "" {
		c.Addr = addr
	}
	if password := os.Getenv(prefix + "_PASSWORD"); password != "" {
		c.Password = password
	}
	if db := os.Getenv(prefix + "_DB"); db != "" {
		fmt.Sscanf(db, "%d", &c.DB)
	}
}

// Config health log service configuration
type Config struct {
	HTTP struct {
		Addr string
	}

	// upstream workflow endpoints that serve the dashboard payload
	Upstream struct {
		BaseURL           string
		DashboardPath     string
		ShareValidatePath string
		Timeout           time.Duration
		RetryCount        int
	}

	Engine struct {
		// IANA zone used to resolve "today" for range presets
		Timezone       string
		ThresholdsFile string
	}

	Cache struct {
		Enabled bool
		TTL     time.Duration
	}
	Redis RedisConfig

	Refresh struct {
		// robfig cron spec; empty disables scheduled refresh
		Cron string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Upstream.BaseURL = getEnv("UPSTREAM_BASE_URL", "http://localhost:5678")
	cfg.Upstream.DashboardPath = getEnv("UPSTREAM_DASHBOARD_PATH", "/webhook/bp-dashboard")
	cfg.Upstream.ShareValidatePath = getEnv("UPSTREAM_SHARE_VALIDATE_PATH", "/webhook/bpvalidate")
	cfg.Upstream.Timeout = time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 30)) * time.Second
	cfg.Upstream.RetryCount = getEnvInt("UPSTREAM_RETRY_COUNT", 3)

	cfg.Engine.Timezone = getEnv("TIMEZONE", "Asia/Bangkok")
	cfg.Engine.ThresholdsFile = getEnv("BP_THRESHOLDS_FILE", "")

	cfg.Cache.Enabled = getEnv("SNAPSHOT_CACHE_ENABLED", "false") == "true"
	cfg.Cache.TTL = time.Duration(getEnvInt("SNAPSHOT_CACHE_TTL_SECONDS", 1800)) * time.Second
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.Refresh.Cron = getEnv("REFRESH_CRON", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if cfg.Upstream.RetryCount < 0 {
		return nil, fmt.Errorf("UPSTREAM_RETRY_COUNT must be >= 0, got %d", cfg.Upstream.RetryCount)
	}
	return cfg, nil
}

// Location resolves Engine.Timezone; a zone missing from the tzdata falls back to UTC+7
func (c *Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Engine.Timezone); err == nil {
		return loc
	}
	return time.FixedZone("ICT", 7*60*60)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}
