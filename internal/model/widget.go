package model

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// WidgetConfig is a dashboard tile bound to one city. This is the record
// persisted to storage.
type WidgetConfig struct {
	ID              string   `json:"id"`
	City            string   `json:"city"`
	Position        Position `json:"position"`
	ForecastDays    int      `json:"forecastDays"`
	IsHourlyVisible bool     `json:"isHourlyVisible"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether both coordinates were stored.
func (w WidgetConfig) HasCoordinates() bool {
	return w.Latitude != nil && w.Longitude != nil
}

// WidgetPatch is a partial WidgetConfig. Nil fields are left untouched;
// id and city cannot be patched.
type WidgetPatch struct {
	Position        *Position `json:"position,omitempty"`
	ForecastDays    *int      `json:"forecastDays,omitempty" validate:"omitempty,oneof=3 5 7"`
	IsHourlyVisible *bool     `json:"isHourlyVisible,omitempty"`
	Latitude        *float64  `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude       *float64  `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

// WidgetView is a widget joined with its weather data, trimmed to the
// widget's display preferences.
type WidgetView struct {
	Widget  WidgetConfig `json:"widget"`
	Weather *WeatherData `json:"weather,omitempty"`
	Loading bool         `json:"loading"`
}
