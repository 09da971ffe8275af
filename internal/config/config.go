package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var once sync.Once
var logger *zap.SugaredLogger
var loggerOnce sync.Once

// isTestRun returns true if the current process is a Go test binary.
func isTestRun() bool {
	return flag.Lookup("test.v") != nil || filepath.Ext(os.Args[0]) == ".test"
}

func setDefaults() {
	viper.SetDefault("openweathermap.api_url", "https://api.openweathermap.org/data/2.5")
	viper.SetDefault("openweathermap.geo_url", "https://api.openweathermap.org/geo/1.0")
	viper.SetDefault("openweathermap.geo_limit", 5)
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_header_timeout", "15s")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.idle_timeout", "30s")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("cache.expiration", "24h")
	viper.SetDefault("storage.backend", "sqlite")
	viper.SetDefault("storage.sqlite_path", "dashboard.db")
	viper.SetDefault("storage.key", "weatherWidgets")
	viper.SetDefault("refresh.interval", "5m")
	viper.SetDefault("dashboard.forecast_days", 7)
	viper.SetDefault("dashboard.default_location.city", "Singapore")
	viper.SetDefault("dashboard.default_location.country", "SG")
	viper.SetDefault("dashboard.default_location.lat", 1.3521)
	viper.SetDefault("dashboard.default_location.lon", 103.8198)
}

func initConfig() {
	once.Do(func() {
		setDefaults()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		root, err := getProjectRoot()
		if err != nil {
			GetLogger().Warnw("Project root not found, using defaults", "error", err)
			return
		}
		viper.SetConfigType("yaml")

		viper.SetConfigName("config")
		viper.AddConfigPath(root)
		if err = viper.ReadInConfig(); err != nil {
			GetLogger().Warnw("Error reading config file", "error", err)
		}

		if isTestRun() {
			viper.SetConfigName("config_test")
			if err = viper.MergeInConfig(); err != nil {
				GetLogger().Warnw("Error reading test config file", "error", err)
			}
		}
	})
}

func getProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func GetOpenWeatherApiUrl() string {
	initConfig()
	return strings.TrimRight(viper.GetString("openweathermap.api_url"), "/")
}

func GetOpenWeatherGeoUrl() string {
	initConfig()
	return strings.TrimRight(viper.GetString("openweathermap.geo_url"), "/")
}

// GetGeoSearchLimit returns the default number of geocoding results. Defaults to 5.
func GetGeoSearchLimit() int {
	initConfig()
	limit := viper.GetInt("openweathermap.geo_limit")
	if limit <= 0 {
		return 5
	}
	return limit
}

func GetOpenWeatherMapAPIKey() string {
	_ = godotenv.Load()
	return os.Getenv("OPENWEATHERMAP_API_KEY")
}

func GetRedisAddr() string {
	initConfig()
	return viper.GetString("redis.addr")
}

func GetServerPort() string {
	initConfig()
	return viper.GetString("server.port")
}

// GetServerTimeout returns the named server timeout, e.g. "read_header_timeout".
func GetServerTimeout(key string) time.Duration {
	initConfig()
	return parseDuration(viper.GetString("server."+key), 15*time.Second)
}

// GetCacheExpiration returns how long geocoding results stay cached in Redis.
func GetCacheExpiration() time.Duration {
	initConfig()
	return parseDuration(viper.GetString("cache.expiration"), 24*time.Hour)
}

// GetStorageBackend returns one of "memory", "redis" or "sqlite".
func GetStorageBackend() string {
	initConfig()
	return strings.ToLower(viper.GetString("storage.backend"))
}

func GetSQLitePath() string {
	initConfig()
	return viper.GetString("storage.sqlite_path")
}

// GetStorageKey returns the key the widget list is persisted under.
func GetStorageKey() string {
	initConfig()
	key := viper.GetString("storage.key")
	if key == "" {
		return "weatherWidgets"
	}
	return key
}

// GetRefreshInterval returns the auto-refresh period. Defaults to 5m.
func GetRefreshInterval() time.Duration {
	initConfig()
	return parseDuration(viper.GetString("refresh.interval"), 5*time.Minute)
}

func GetDefaultForecastDays() int {
	initConfig()
	switch days := viper.GetInt("dashboard.forecast_days"); days {
	case 3, 5, 7:
		return days
	default:
		return 7
	}
}

// GetDefaultLocation returns the location used for widgets saved without coordinates.
func GetDefaultLocation() model.GeoLocation {
	initConfig()
	return model.GeoLocation{
		Name:    viper.GetString("dashboard.default_location.city"),
		Country: viper.GetString("dashboard.default_location.country"),
		Lat:     viper.GetFloat64("dashboard.default_location.lat"),
		Lon:     viper.GetFloat64("dashboard.default_location.lon"),
	}
}

// ReloadConfigForTest resets the config singleton and reloads Viper config. Use only in tests.
func ReloadConfigForTest() {
	once = sync.Once{}
	initConfig()
}

func GetLogger() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		l, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		logger = l.Sugar()
	})
	return logger
}

// GetRateLimiterCleanupTimeout returns the rate limiter cleanup timeout as a time.Duration.
// Defaults to 3m if not set or invalid.
func GetRateLimiterCleanupTimeout() time.Duration {
	initConfig()
	return parseDuration(viper.GetString("rate_limiter.cleanup_timeout"), 3*time.Minute)
}

// GetGlobalRateLimiterConfig returns the per-minute rate and burst for the global rate limiter.
func GetGlobalRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.global.rate")
	if rate == 0 {
		rate = 30
	}
	burst = viper.GetInt("rate_limiter.global.burst")
	if burst == 0 {
		burst = 30
	}
	return
}

// GetParamRateLimiterConfig returns the per-minute rate and burst for the param rate limiter.
func GetParamRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.param.rate")
	if rate == 0 {
		rate = 5
	}
	burst = viper.GetInt("rate_limiter.param.burst")
	if burst == 0 {
		burst = 5
	}
	return
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
