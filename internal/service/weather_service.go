package service

import (
	"context"
	"fmt"

	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	"github.com/fakhrymubarak/weather-dashboard/internal/repository"
	"golang.org/x/sync/errgroup"
)

// WeatherServiceInterface is what the dashboard needs from the weather backend.
type WeatherServiceInterface interface {
	SearchLocation(ctx context.Context, query string, limit int) ([]model.GeoLocation, error)
	FetchWeather(ctx context.Context, city string, lat, lon float64) (model.WeatherData, error)
}

type WeatherService struct {
	WeatherRepo repository.WeatherRepository
}

func NewWeatherService(repo repository.WeatherRepository) *WeatherService {
	return &WeatherService{WeatherRepo: repo}
}

func (s *WeatherService) SearchLocation(ctx context.Context, query string, limit int) ([]model.GeoLocation, error) {
	return s.WeatherRepo.SearchLocation(ctx, query, limit)
}

// FetchWeather requests current conditions and the forecast concurrently and
// returns the combined view-model. Either failure fails the pair.
func (s *WeatherService) FetchWeather(ctx context.Context, city string, lat, lon float64) (model.WeatherData, error) {
	var (
		current  *model.CurrentWeatherResponse
		forecast *model.ForecastResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.WeatherRepo.GetCurrentWeather(gctx, lat, lon)
		if err != nil {
			return fmt.Errorf("current weather for %s: %w", city, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		forecast, err = s.WeatherRepo.GetForecast(gctx, lat, lon)
		if err != nil {
			return fmt.Errorf("forecast for %s: %w", city, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.WeatherData{}, err
	}

	return TransformWeatherData(current, forecast, city), nil
}
