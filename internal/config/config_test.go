package config

import (
	"os"
	"testing"
	"time"
)

func TestGetOpenWeatherMapAPIKey(t *testing.T) {
	// Test with the environment variable set
	expectedKey := "test_api_key_123"
	os.Setenv("OPENWEATHERMAP_API_KEY", expectedKey)
	defer os.Unsetenv("OPENWEATHERMAP_API_KEY")

	result := GetOpenWeatherMapAPIKey()
	if result != expectedKey {
		t.Errorf("Expected API key %s, got %s", expectedKey, result)
	}

	// Test with environment variable not set
	os.Unsetenv("OPENWEATHERMAP_API_KEY")
	result = GetOpenWeatherMapAPIKey()
	if result != "" {
		t.Errorf("Expected empty string, got %s", result)
	}
}

func TestGetRedisAddr(t *testing.T) {
	// Test with the environment variable set
	expectedAddr := "redis.internal:6380"
	t.Setenv("REDIS_ADDR", expectedAddr)

	result := GetRedisAddr()
	if result != expectedAddr {
		t.Errorf("Expected Redis addr %s, got %s", expectedAddr, result)
	}

	// Test with environment variable not set (should return default)
	os.Unsetenv("REDIS_ADDR")
	result = GetRedisAddr()
	if result != "localhost:6379" {
		t.Errorf("Expected default Redis addr localhost:6379, got %s", result)
	}
}

func TestGetOpenWeatherApiUrl(t *testing.T) {
	want := "https://api.openweathermap.org/data/2.5"
	got := GetOpenWeatherApiUrl()
	if got != want {
		t.Errorf("Expected API URL %s, got %s", want, got)
	}
}

func TestGetOpenWeatherApiUrl_EnvOverride(t *testing.T) {
	t.Setenv("OPENWEATHERMAP_API_URL", "http://127.0.0.1:9999/data/2.5/")
	want := "http://127.0.0.1:9999/data/2.5"
	if got := GetOpenWeatherApiUrl(); got != want {
		t.Errorf("Expected API URL %s, got %s", want, got)
	}
}

func TestGetOpenWeatherGeoUrl(t *testing.T) {
	want := "https://api.openweathermap.org/geo/1.0"
	if got := GetOpenWeatherGeoUrl(); got != want {
		t.Errorf("Expected geo URL %s, got %s", want, got)
	}
}

func TestGetGeoSearchLimit(t *testing.T) {
	if got := GetGeoSearchLimit(); got != 5 {
		t.Errorf("Expected geo limit 5, got %d", got)
	}
}

func TestGetServerPort(t *testing.T) {
	want := "8080"
	got := GetServerPort()
	if got != want {
		t.Errorf("Expected server port %s, got %s", want, got)
	}
}

func TestGetCacheExpiration(t *testing.T) {
	want := 24 * time.Hour
	got := GetCacheExpiration()
	if got != want {
		t.Errorf("Expected cache expiration %s, got %s", want, got)
	}
}

func TestGetServerTimeout(t *testing.T) {
	want := 15 * time.Second
	got := GetServerTimeout("read_header_timeout")
	if got != want {
		t.Errorf("Expected read_header_timeout %s, got %s", want, got)
	}
	if got := GetServerTimeout("write_timeout"); got != 10*time.Second {
		t.Errorf("Expected write_timeout 10s, got %s", got)
	}
}

func TestGetStorageBackend(t *testing.T) {
	// config_test.yaml switches the backend to memory under go test.
	if got := GetStorageBackend(); got != "memory" {
		t.Errorf("Expected storage backend memory, got %s", got)
	}
	if got := GetStorageKey(); got != "weatherWidgets" {
		t.Errorf("Expected storage key weatherWidgets, got %s", got)
	}
}

func TestGetRefreshInterval(t *testing.T) {
	if got := GetRefreshInterval(); got != 5*time.Minute {
		t.Errorf("Expected refresh interval 5m, got %s", got)
	}
}

func TestGetDefaultForecastDays(t *testing.T) {
	if got := GetDefaultForecastDays(); got != 7 {
		t.Errorf("Expected 7 forecast days, got %d", got)
	}
}

func TestGetDefaultLocation(t *testing.T) {
	loc := GetDefaultLocation()
	if loc.Name != "Singapore" || loc.Country != "SG" {
		t.Errorf("Expected Singapore/SG, got %s/%s", loc.Name, loc.Country)
	}
	if loc.Lat != 1.3521 || loc.Lon != 103.8198 {
		t.Errorf("Unexpected default coordinates %f,%f", loc.Lat, loc.Lon)
	}
}

func TestGetRateLimiterConfig(t *testing.T) {
	rate, burst := GetGlobalRateLimiterConfig()
	if rate != 30 || burst != 30 {
		t.Errorf("Expected global 30/30, got %v/%d", rate, burst)
	}
	rate, burst = GetParamRateLimiterConfig()
	if rate != 2 || burst != 2 {
		t.Errorf("Expected param 2/2 from test config, got %v/%d", rate, burst)
	}
	if got := GetRateLimiterCleanupTimeout(); got != 3*time.Minute {
		t.Errorf("Expected cleanup timeout 3m, got %s", got)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", time.Minute},
		{"garbage", time.Minute},
		{"-5s", time.Minute},
		{"90s", 90 * time.Second},
	}
	for _, tt := range tests {
		if got := parseDuration(tt.in, time.Minute); got != tt.want {
			t.Errorf("parseDuration(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestReloadConfigForTest(t *testing.T) {
	// Should not panic or error
	ReloadConfigForTest()
}

func TestGetLogger(t *testing.T) {
	if GetLogger() != GetLogger() {
		t.Error("Expected the same logger instance")
	}
}
