package service

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t *testing.T) {
	t.Helper()
	prevNow, prevID := nowFunc, newID
	nowFunc = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }
	newID = func() string { return "wd-fixed" }
	t.Cleanup(func() { nowFunc, newID = prevNow, prevID })
}

func mustCurrent(t *testing.T, raw string) *model.CurrentWeatherResponse {
	t.Helper()
	var c model.CurrentWeatherResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	return &c
}

func forecastWith(n int, temp, pop float64) *model.ForecastResponse {
	f := &model.ForecastResponse{Cnt: n}
	for i := 0; i < n; i++ {
		e := model.ForecastEntry{Dt: 1709294400 + int64(i)*10800, Pop: pop}
		e.Main.Temp = temp
		e.Main.TempMax = temp + 1.5
		e.Main.TempMin = temp - 1.5
		e.Weather = []model.OWMCondition{{Main: model.ConditionRain, Icon: "10d"}}
		f.List = append(f.List, e)
	}
	return f
}

const parisCurrent = `{
	"weather":[{"id":800,"main":"Clear","description":"clear sky","icon":"01d"}],
	"main":{"temp":21.5,"feels_like":20.49,"humidity":40,"pressure":1015},
	"visibility":9500,
	"wind":{"speed":3.46,"deg":250},
	"sys":{"country":"FR"},
	"name":"Paris"
}`

func TestTransformWeatherData_Current(t *testing.T) {
	fixedClock(t)

	data := TransformWeatherData(mustCurrent(t, parisCurrent), forecastWith(0, 0, 0), "Paris")

	assert.Equal(t, "wd-fixed", data.ID)
	assert.Equal(t, "Paris", data.City)
	assert.Equal(t, "FR", data.Country)
	assert.Equal(t, "2024-03-01T12:30:00.000Z", data.LastUpdated)

	assert.Equal(t, 22, data.Current.Temp)
	assert.Equal(t, 20, data.Current.FeelsLike)
	assert.Equal(t, 40, data.Current.Humidity)
	assert.Equal(t, 1015, data.Current.Pressure)
	assert.Equal(t, 3.5, data.Current.WindSpeed)
	assert.Equal(t, 250, data.Current.WindDirection)
	assert.Equal(t, 9.5, data.Current.Visibility)
	assert.Equal(t, model.ConditionClear, data.Current.WeatherCondition)
	assert.Equal(t, "clear sky", data.Current.WeatherDescription)
	assert.Equal(t, "01d", data.Current.WeatherIcon)
	assert.Empty(t, data.Daily)
	assert.Empty(t, data.Hourly)
}

func TestTransformWeatherData_ForecastWindows(t *testing.T) {
	fixedClock(t)

	data := TransformWeatherData(mustCurrent(t, parisCurrent), forecastWith(40, 10.4, 0.256), "Paris")

	require.Len(t, data.Daily, 7)
	require.Len(t, data.Hourly, 5)

	assert.Equal(t, "2024-03-01T12:00:00.000Z", data.Hourly[0].Timestamp)
	assert.Equal(t, "2024-03-01T15:00:00.000Z", data.Hourly[1].Timestamp)
	assert.Equal(t, data.Hourly[0].Timestamp, data.Daily[0].Date)
	assert.Equal(t, 10, data.Hourly[0].Temp)
	assert.Equal(t, 12, data.Daily[0].TempMax)
	assert.Equal(t, 9, data.Daily[0].TempMin)
	assert.Equal(t, 26, data.Hourly[0].Pop)
	assert.Equal(t, 26, data.Daily[6].Pop)
	assert.Equal(t, model.ConditionRain, data.Daily[3].WeatherCondition)
	assert.Equal(t, "10d", data.Hourly[4].WeatherIcon)
}

func TestTransformWeatherData_ShortForecastList(t *testing.T) {
	data := TransformWeatherData(mustCurrent(t, parisCurrent), forecastWith(3, 5, 0), "Paris")

	assert.Len(t, data.Daily, 3)
	assert.Len(t, data.Hourly, 3)
}

func TestTransformWeatherData_MissingConditions(t *testing.T) {
	current := mustCurrent(t, `{"main":{"temp":1.2}}`)
	forecast := &model.ForecastResponse{List: []model.ForecastEntry{{Dt: 0}}}

	data := TransformWeatherData(current, forecast, "Nowhere")

	assert.Equal(t, model.WeatherCondition(""), data.Current.WeatherCondition)
	assert.Equal(t, model.WeatherCondition(""), data.Daily[0].WeatherCondition)
	assert.Equal(t, "1970-01-01T00:00:00.000Z", data.Hourly[0].Timestamp)
}

func TestTransformWeatherData_TemperaturesAreRoundedIntegers(t *testing.T) {
	temps := []float64{-12.5, -2.5, -0.4, 0, 0.5, 1.49, 19.99, 35.5, 44.51}
	for _, temp := range temps {
		current := &model.CurrentWeatherResponse{}
		current.Main.Temp = temp
		current.Main.FeelsLike = temp

		data := TransformWeatherData(current, forecastWith(7, temp, 0.5), "X")

		want := int(math.Floor(temp + 0.5))
		assert.Equal(t, want, data.Current.Temp, "temp %v", temp)
		assert.Equal(t, want, data.Current.FeelsLike, "feels_like %v", temp)
		for _, h := range data.Hourly {
			assert.Equal(t, want, h.Temp, "hourly temp %v", temp)
		}
	}
}

func TestTransformWeatherData_PopIsPercentInRange(t *testing.T) {
	tests := []struct {
		pop  float64
		want int
	}{
		{0, 0},
		{0.004, 0},
		{0.005, 1},
		{0.37, 37},
		{0.999, 100},
		{1, 100},
		{1.2, 100},
		{-0.1, 0},
	}
	for _, tt := range tests {
		data := TransformWeatherData(&model.CurrentWeatherResponse{}, forecastWith(7, 0, tt.pop), "X")
		for _, d := range data.Daily {
			assert.Equal(t, tt.want, d.Pop, "pop %v", tt.pop)
			assert.GreaterOrEqual(t, d.Pop, 0)
			assert.LessOrEqual(t, d.Pop, 100)
		}
		for _, h := range data.Hourly {
			assert.Equal(t, tt.want, h.Pop, "pop %v", tt.pop)
		}
	}
}

func TestRoundTenth(t *testing.T) {
	assert.Equal(t, 3.5, roundTenth(3.46))
	assert.Equal(t, 0.1, roundTenth(0.05))
	assert.Equal(t, 12.0, roundTenth(12.04))
}

func TestTransformWeatherData_NilInputs(t *testing.T) {
	data := TransformWeatherData(nil, nil, "Paris")

	assert.Equal(t, "Paris", data.City)
	assert.NotNil(t, data.Daily)
	assert.NotNil(t, data.Hourly)
}
