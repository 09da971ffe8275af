package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fakhrymubarak/weather-dashboard/internal/config"
	"github.com/fakhrymubarak/weather-dashboard/internal/dashboard"
	"github.com/fakhrymubarak/weather-dashboard/internal/handler"
	"github.com/fakhrymubarak/weather-dashboard/internal/middleware"
	"github.com/fakhrymubarak/weather-dashboard/internal/notify"
	"github.com/fakhrymubarak/weather-dashboard/internal/redis"
	"github.com/fakhrymubarak/weather-dashboard/internal/repository"
	"github.com/fakhrymubarak/weather-dashboard/internal/scheduler"
	"github.com/fakhrymubarak/weather-dashboard/internal/service"
	"github.com/fakhrymubarak/weather-dashboard/internal/storage"
	"github.com/fakhrymubarak/weather-dashboard/internal/storage/sqlite"
	"go.uber.org/zap"
)

func main() {
	logger := config.GetLogger()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Fatalw("Dashboard server stopped", "error", err)
	}
}

func run(ctx context.Context, logger *zap.SugaredLogger) error {
	if config.GetOpenWeatherMapAPIKey() == "" {
		logger.Warnw("OPENWEATHERMAP_API_KEY is not set, weather requests will fail")
	}

	kv, cache, err := openStorage(ctx, config.GetStorageBackend(), logger)
	if err != nil {
		return err
	}
	defer kv.Close()

	weatherRepo := repository.NewWeatherRepository(repository.Options{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Cache:      cache,
	})
	weatherService := service.NewWeatherService(weatherRepo)

	recorder := notify.NewRecorder(50)
	store := dashboard.NewStore(dashboard.Options{
		Fetcher:         weatherService,
		Widgets:         repository.NewWidgetRepository(kv, config.GetStorageKey()),
		Notifier:        notify.Multi{notify.NewLogNotifier(logger), recorder},
		Logger:          logger,
		ForecastDays:    config.GetDefaultForecastDays(),
		DefaultLocation: config.GetDefaultLocation(),
	})
	store.Load(ctx)

	sched := scheduler.New(store, config.GetRefreshInterval(), logger)
	store.OnChange(sched.Rearm)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start refresh scheduler: %w", err)
	}
	defer sched.Stop()

	limiter := middleware.NewRateLimiter("q")
	limiter.StartCleanup(ctx)

	h := handler.NewDashboardHandler(weatherService, store, recorder)
	srv := newServer(":"+config.GetServerPort(), h.Routes(limiter.Middleware))

	serverErr := make(chan error, 1)
	go func() {
		logger.Infow("Weather dashboard running", "addr", srv.Addr, "storage", config.GetStorageBackend())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Infow("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: config.GetServerTimeout("read_header_timeout"),
		ReadTimeout:       config.GetServerTimeout("read_timeout"),
		WriteTimeout:      config.GetServerTimeout("write_timeout"),
		IdleTimeout:       config.GetServerTimeout("idle_timeout"),
	}
}

// openStorage returns the widget store for backend and, when Redis answers,
// a cache for geocoding results. The cache is a nil interface otherwise.
func openStorage(ctx context.Context, backend string, logger *zap.SugaredLogger) (storage.Store, repository.Cache, error) {
	switch backend {
	case "memory":
		return storage.NewMemoryStore(), nil, nil
	case "redis":
		client := redis.GetClient()
		rs := redis.NewStore(client)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rs.Ping(pingCtx); err != nil {
			_ = rs.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", config.GetRedisAddr(), err)
		}
		return rs, client, nil
	case "sqlite", "":
		kv, err := sqlite.NewFileStore(config.GetSQLitePath())
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		client := redis.GetClient()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Infow("Redis unavailable, geocoding results will not be cached", "addr", config.GetRedisAddr(), "error", err)
			_ = client.Close()
			return kv, nil, nil
		}
		return kv, client, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
