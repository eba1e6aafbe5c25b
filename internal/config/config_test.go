package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("Expected HTTP_ADDR default ':8080', got '%s'", cfg.HTTP.Addr)
	}

	if cfg.Upstream.DashboardPath != "/webhook/bp-dashboard" {
		t.Errorf("Expected UPSTREAM_DASHBOARD_PATH default, got '%s'", cfg.Upstream.DashboardPath)
	}

	if cfg.Upstream.Timeout != 30*time.Second {
		t.Errorf("Expected upstream timeout default 30s, got %s", cfg.Upstream.Timeout)
	}

	if cfg.Upstream.RetryCount != 3 {
		t.Errorf("Expected UPSTREAM_RETRY_COUNT default 3, got %d", cfg.Upstream.RetryCount)
	}

	if cfg.Engine.Timezone != "Asia/Bangkok" {
		t.Errorf("Expected TIMEZONE default 'Asia/Bangkok', got '%s'", cfg.Engine.Timezone)
	}

	if cfg.Cache.Enabled {
		t.Errorf("Expected snapshot cache disabled by default")
	}

	if cfg.Cache.TTL != 30*time.Minute {
		t.Errorf("Expected cache TTL default 30m, got %s", cfg.Cache.TTL)
	}

	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Expected REDIS_ADDR default 'localhost:6379', got '%s'", cfg.Redis.Addr)
	}

	if cfg.Refresh.Cron != "" {
		t.Errorf("Expected REFRESH_CRON default empty, got '%s'", cfg.Refresh.Cron)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Expected LOG_LEVEL default 'info', got '%s'", cfg.Log.Level)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("UPSTREAM_BASE_URL", "https://n8n.example.com")
	os.Setenv("UPSTREAM_TIMEOUT_SECONDS", "5")
	os.Setenv("SNAPSHOT_CACHE_ENABLED", "true")
	os.Setenv("REDIS_ADDR", "redis:6380")
	os.Setenv("REDIS_DB", "2")
	os.Setenv("REFRESH_CRON", "*/15 * * * *")
	os.Setenv("LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("HTTP_ADDR")
		os.Unsetenv("UPSTREAM_BASE_URL")
		os.Unsetenv("UPSTREAM_TIMEOUT_SECONDS")
		os.Unsetenv("SNAPSHOT_CACHE_ENABLED")
		os.Unsetenv("REDIS_ADDR")
		os.Unsetenv("REDIS_DB")
		os.Unsetenv("REFRESH_CRON")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("Expected HTTP_ADDR ':9090', got '%s'", cfg.HTTP.Addr)
	}

	if cfg.Upstream.BaseURL != "https://n8n.example.com" {
		t.Errorf("Expected UPSTREAM_BASE_URL override, got '%s'", cfg.Upstream.BaseURL)
	}

	if cfg.Upstream.Timeout != 5*time.Second {
		t.Errorf("Expected upstream timeout 5s, got %s", cfg.Upstream.Timeout)
	}

	if !cfg.Cache.Enabled {
		t.Errorf("Expected snapshot cache enabled")
	}

	if cfg.Redis.Addr != "redis:6380" || cfg.Redis.DB != 2 {
		t.Errorf("Expected redis override, got %s/%d", cfg.Redis.Addr, cfg.Redis.DB)
	}

	if cfg.Refresh.Cron != "*/15 * * * *" {
		t.Errorf("Expected REFRESH_CRON override, got '%s'", cfg.Refresh.Cron)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Expected LOG_LEVEL 'debug', got '%s'", cfg.Log.Level)
	}
}

func TestLoad_NegativeRetry(t *testing.T) {
	os.Setenv("UPSTREAM_RETRY_COUNT", "-1")
	defer os.Unsetenv("UPSTREAM_RETRY_COUNT")

	if _, err := Load(); err == nil {
		t.Errorf("Expected error for negative retry count")
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{}
	cfg.Engine.Timezone = "Not/AZone"
	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, cfg.Location()).Zone()
	if offset != 7*60*60 {
		t.Errorf("Expected +07:00 fallback, got offset %d", offset)
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_VAR", "test-value")
	defer os.Unsetenv("TEST_VAR")

	value := getEnv("TEST_VAR", "default")
	if value != "test-value" {
		t.Errorf("Expected 'test-value', got '%s'", value)
	}

	value = getEnv("NON_EXISTENT_VAR", "default-value")
	if value != "default-value" {
		t.Errorf("Expected 'default-value', got '%s'", value)
	}

	if getEnvInt("NON_EXISTENT_VAR", 7) != 7 {
		t.Errorf("Expected int default 7")
	}
}
