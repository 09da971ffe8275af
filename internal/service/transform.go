package service

import (
	"math"
	"time"

	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	"github.com/google/uuid"
)

const (
	dailyEntries  = 7
	hourlyEntries = 5

	// isoLayout matches JavaScript's Date.prototype.toISOString.
	isoLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Overridden in tests.
var (
	nowFunc = time.Now
	newID   = uuid.NewString
)

// TransformWeatherData maps the raw current and forecast payloads to the
// dashboard view-model. Daily takes the first seven raw 3-hour entries, not one
// per calendar day.
func TransformWeatherData(current *model.CurrentWeatherResponse, forecast *model.ForecastResponse, city string) model.WeatherData {
	data := model.WeatherData{
		ID:          newID(),
		City:        city,
		Hourly:      []model.HourlyForecast{},
		Daily:       []model.DailyForecast{},
		LastUpdated: nowFunc().UTC().Format(isoLayout),
	}

	if current != nil {
		data.Country = current.Sys.Country
		data.Current = model.CurrentWeather{
			Temp:          roundInt(current.Main.Temp),
			FeelsLike:     roundInt(current.Main.FeelsLike),
			Humidity:      current.Main.Humidity,
			Pressure:      current.Main.Pressure,
			WindSpeed:     roundTenth(current.Wind.Speed),
			WindDirection: current.Wind.Deg,
			Visibility:    float64(current.Visibility) / 1000,
		}
		if len(current.Weather) > 0 {
			data.Current.WeatherCondition = current.Weather[0].Main
			data.Current.WeatherDescription = current.Weather[0].Description
			data.Current.WeatherIcon = current.Weather[0].Icon
		}
	}

	if forecast == nil {
		return data
	}

	for _, entry := range head(forecast.List, dailyEntries) {
		day := model.DailyForecast{
			Date:    formatEpoch(entry.Dt),
			TempMax: roundInt(entry.Main.TempMax),
			TempMin: roundInt(entry.Main.TempMin),
			Pop:     popPercent(entry.Pop),
		}
		if len(entry.Weather) > 0 {
			day.WeatherCondition = entry.Weather[0].Main
			day.WeatherIcon = entry.Weather[0].Icon
		}
		data.Daily = append(data.Daily, day)
	}

	for _, entry := range head(forecast.List, hourlyEntries) {
		hour := model.HourlyForecast{
			Timestamp: formatEpoch(entry.Dt),
			Temp:      roundInt(entry.Main.Temp),
			Pop:       popPercent(entry.Pop),
		}
		if len(entry.Weather) > 0 {
			hour.WeatherCondition = entry.Weather[0].Main
			hour.WeatherIcon = entry.Weather[0].Icon
		}
		data.Hourly = append(data.Hourly, hour)
	}

	return data
}

func head(list []model.ForecastEntry, n int) []model.ForecastEntry {
	if len(list) < n {
		return list
	}
	return list[:n]
}

// roundInt rounds half up, like JavaScript's Math.round (-2.5 -> -2).
func roundInt(f float64) int {
	return int(math.Floor(f + 0.5))
}

func roundTenth(f float64) float64 {
	return math.Floor(f*10+0.5) / 10
}

// popPercent scales a 0-1 probability to a whole percentage in [0,100].
func popPercent(pop float64) int {
	p := roundInt(pop * 100)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func formatEpoch(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(isoLayout)
}
