package integrationtest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"

	"github.com/fakhrymubarak/weather-dashboard/internal/dashboard"
	"github.com/fakhrymubarak/weather-dashboard/internal/handler"
	"github.com/fakhrymubarak/weather-dashboard/internal/middleware"
	"github.com/fakhrymubarak/weather-dashboard/internal/notify"
	"github.com/fakhrymubarak/weather-dashboard/internal/redis"
	"github.com/fakhrymubarak/weather-dashboard/internal/repository"
	"github.com/fakhrymubarak/weather-dashboard/internal/service"
	"go.uber.org/zap"
)

const testAPIKey = "test_api_key"

// mockOWM is a stand-in for the OpenWeatherMap geocoding and data APIs.
type mockOWM struct {
	server   *httptest.Server
	geoCalls int32
}

func (m *mockOWM) APIURL() string { return m.server.URL + "/data/2.5" }
func (m *mockOWM) GeoURL() string { return m.server.URL + "/geo/1.0" }
func (m *mockOWM) GeoCalls() int32 {
	return atomic.LoadInt32(&m.geoCalls)
}
func (m *mockOWM) Close() { m.server.Close() }

func newMockOWM() *mockOWM {
	m := &mockOWM{}
	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("appid") != testAPIKey {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/geo/1.0/direct":
			atomic.AddInt32(&m.geoCalls, 1)
			if strings.EqualFold(r.URL.Query().Get("q"), "Paris") {
				_, _ = w.Write([]byte(`[{"name":"Paris","lat":48.8566,"lon":2.3522,"country":"FR","state":"Ile-de-France"}]`))
				return
			}
			_, _ = w.Write([]byte(`[]`))
		case "/data/2.5/weather":
			// lat=0 simulates an upstream outage for a single location
			if r.URL.Query().Get("lat") == "0" {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"cod":500,"message":"Internal error"}`))
				return
			}
			_, _ = w.Write([]byte(currentWeatherJSON))
		case "/data/2.5/forecast":
			_, _ = w.Write([]byte(forecastJSON()))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"cod":"404","message":"not found"}`))
		}
	}))
	return m
}

const currentWeatherJSON = `{
  "coord": {"lon": 2.3522, "lat": 48.8566},
  "weather": [{"id": 800, "main": "Clear", "description": "clear sky", "icon": "01d"}],
  "main": {"temp": 18.6, "feels_like": 17.4, "temp_min": 16.1, "temp_max": 20.2, "pressure": 1016, "humidity": 58},
  "visibility": 10000,
  "wind": {"speed": 3.64, "deg": 250},
  "dt": 1700000000,
  "sys": {"country": "FR"},
  "name": "Paris"
}`

func forecastJSON() string {
	entries := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		entries = append(entries, fmt.Sprintf(
			`{"dt": %d, "main": {"temp": %.1f, "feels_like": 15, "temp_min": 12.4, "temp_max": 21.5, "pressure": 1015, "humidity": 60},
			"weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}],
			"visibility": 10000, "pop": 0.35, "dt_txt": ""}`,
			1700000000+i*10800, 15.0+float64(i)))
	}
	return `{"cnt": 8, "list": [` + strings.Join(entries, ",") + `], "city": {"name": "Paris", "country": "FR"}}`
}

// testStack is the wired dashboard served over HTTP.
type testStack struct {
	server   *httptest.Server
	store    *dashboard.Store
	recorder *notify.Recorder
	closeFn  func() error
}

func (s *testStack) Close() {
	s.server.Close()
	_ = s.closeFn()
}

// setupIntegrationTestServer wires the dashboard the way main does, with
// Redis at redisAddr holding both the widget list and the geocode cache.
func setupIntegrationTestServer(owm *mockOWM, redisAddr, apiKey string) *testStack {
	client := redis.NewClient(redisAddr)
	logger := zap.NewNop().Sugar()

	weatherRepo := repository.NewWeatherRepository(repository.Options{
		HTTPClient: &http.Client{},
		Cache:      client,
		APIURL:     owm.APIURL(),
		GeoURL:     owm.GeoURL(),
		APIKey:     apiKey,
	})
	weatherService := service.NewWeatherService(weatherRepo)
	recorder := notify.NewRecorder(50)
	store := dashboard.NewStore(dashboard.Options{
		Fetcher:      weatherService,
		Widgets:      repository.NewWidgetRepository(redis.NewStore(client), "weatherWidgets"),
		Notifier:     recorder,
		Logger:       logger,
		ForecastDays: 7,
	})
	store.Load(context.Background())

	limiter := middleware.NewRateLimiter("q")
	h := handler.NewDashboardHandler(weatherService, store, recorder)
	return &testStack{
		server:   httptest.NewServer(h.Routes(limiter.Middleware)),
		store:    store,
		recorder: recorder,
		closeFn:  client.Close,
	}
}
