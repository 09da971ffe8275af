package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	redisv9 "github.com/redis/go-redis/v9"
)

// Custom error types
var (
	ErrAPIKeyMissing = errors.New("API key missing")
	ErrExternalAPI   = errors.New("external API error")
	ErrEmptyQuery    = errors.New("search query is empty")
)

// WeatherRepository defines the interface for OpenWeatherMap data access
type WeatherRepository interface {
	SearchLocation(ctx context.Context, query string, limit int) ([]model.GeoLocation, error)
	GetCurrentWeather(ctx context.Context, lat, lon float64) (*model.CurrentWeatherResponse, error)
	GetForecast(ctx context.Context, lat, lon float64) (*model.ForecastResponse, error)
}

// Cache is the subset of the Redis client used to cache geocoding results.
type Cache interface {
	Get(ctx context.Context, key string) *redisv9.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redisv9.StatusCmd
}

// Options configures a WeatherRepository. Zero values fall back to config.
type Options struct {
	HTTPClient *http.Client
	Cache      Cache
	APIURL     string
	GeoURL     string
	APIKey     string
	CacheTTL   time.Duration
}

// weatherRepository implements WeatherRepository
type weatherRepository struct {
	cache      Cache
	httpClient *http.Client
	apiURL     string
	geoURL     string
	apiKey     string
	cacheTTL   time.Duration
}

// NewWeatherRepository creates a new weather repository instance
func NewWeatherRepository(opts Options) WeatherRepository {
	r := &weatherRepository{
		cache:      opts.Cache,
		httpClient: opts.HTTPClient,
		apiURL:     strings.TrimRight(opts.APIURL, "/"),
		geoURL:     strings.TrimRight(opts.GeoURL, "/"),
		apiKey:     opts.APIKey,
		cacheTTL:   opts.CacheTTL,
	}
	if r.httpClient == nil {
		r.httpClient = http.DefaultClient
	}
	if r.apiURL == "" {
		r.apiURL = config.GetOpenWeatherApiUrl()
	}
	if r.geoURL == "" {
		r.geoURL = config.GetOpenWeatherGeoUrl()
	}
	if r.cacheTTL <= 0 {
		r.cacheTTL = config.GetCacheExpiration()
	}
	return r
}

func (r *weatherRepository) key() string {
	if r.apiKey != "" {
		return r.apiKey
	}
	return config.GetOpenWeatherMapAPIKey()
}

// SearchLocation resolves a free-text query to candidate locations, checking cache first.
func (r *weatherRepository) SearchLocation(ctx context.Context, query string, limit int) ([]model.GeoLocation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = config.GetGeoSearchLimit()
	}

	cacheKey := geoCacheKey(query, limit)
	if cached, err := r.getFromCache(ctx, cacheKey); err == nil {
		return cached, nil
	}

	values := url.Values{}
	values.Set("q", query)
	values.Set("limit", strconv.Itoa(limit))

	var locations []model.GeoLocation
	if err := r.getJSON(ctx, r.geoURL+"/direct", values, &locations); err != nil {
		return nil, err
	}
	if locations == nil {
		locations = []model.GeoLocation{}
	}

	r.cacheLocations(ctx, cacheKey, locations)
	return locations, nil
}

// GetCurrentWeather fetches current conditions in metric units.
func (r *weatherRepository) GetCurrentWeather(ctx context.Context, lat, lon float64) (*model.CurrentWeatherResponse, error) {
	var data model.CurrentWeatherResponse
	if err := r.getJSON(ctx, r.apiURL+"/weather", coordValues(lat, lon), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetForecast fetches the 3-hour step forecast list in metric units.
func (r *weatherRepository) GetForecast(ctx context.Context, lat, lon float64) (*model.ForecastResponse, error) {
	var data model.ForecastResponse
	if err := r.getJSON(ctx, r.apiURL+"/forecast", coordValues(lat, lon), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func coordValues(lat, lon float64) url.Values {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("units", "metric")
	return values
}

// getJSON issues a single GET and decodes the body into out.
func (r *weatherRepository) getJSON(ctx context.Context, endpoint string, values url.Values, out interface{}) error {
	apiKey := r.key()
	if apiKey == "" {
		return ErrAPIKeyMissing
	}
	values.Set("appid", apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+values.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExternalAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s returned status %d", ErrExternalAPI, req.URL.Path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrExternalAPI, req.URL.Path, err)
	}
	return nil
}

func geoCacheKey(query string, limit int) string {
	return fmt.Sprintf("geo:%s:%d", strings.ToLower(query), limit)
}

// getFromCache retrieves geocoding results from Redis cache
func (r *weatherRepository) getFromCache(ctx context.Context, cacheKey string) ([]model.GeoLocation, error) {
	if r.cache == nil {
		return nil, redisv9.Nil
	}
	val, err := r.cache.Get(ctx, cacheKey).Result()
	if err != nil {
		return nil, err
	}

	var locations []model.GeoLocation
	if err := json.Unmarshal([]byte(val), &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// cacheLocations stores geocoding results in Redis cache
func (r *weatherRepository) cacheLocations(ctx context.Context, cacheKey string, locations []model.GeoLocation) {
	if r.cache == nil {
		return
	}
	if b, err := json.Marshal(locations); err == nil {
		if err := r.cache.Set(ctx, cacheKey, b, r.cacheTTL).Err(); err != nil {
			config.GetLogger().Warnw("Failed to cache geocoding result", "key", cacheKey, "error", err)
		}
	}
}
