package model

// WeatherCondition is the "main" tag OpenWeatherMap attaches to a reading.
type WeatherCondition string

const (
	ConditionClear        WeatherCondition = "Clear"
	ConditionClouds       WeatherCondition = "Clouds"
	ConditionRain         WeatherCondition = "Rain"
	ConditionDrizzle      WeatherCondition = "Drizzle"
	ConditionThunderstorm WeatherCondition = "Thunderstorm"
	ConditionSnow         WeatherCondition = "Snow"
	ConditionMist         WeatherCondition = "Mist"
	ConditionSmoke        WeatherCondition = "Smoke"
	ConditionHaze         WeatherCondition = "Haze"
	ConditionDust         WeatherCondition = "Dust"
	ConditionFog          WeatherCondition = "Fog"
	ConditionSand         WeatherCondition = "Sand"
	ConditionAsh          WeatherCondition = "Ash"
	ConditionSquall       WeatherCondition = "Squall"
	ConditionTornado      WeatherCondition = "Tornado"
)

// Valid reports whether c belongs to the known condition set.
func (c WeatherCondition) Valid() bool {
	switch c {
	case ConditionClear, ConditionClouds, ConditionRain, ConditionDrizzle,
		ConditionThunderstorm, ConditionSnow, ConditionMist, ConditionSmoke,
		ConditionHaze, ConditionDust, ConditionFog, ConditionSand, ConditionAsh,
		ConditionSquall, ConditionTornado:
		return true
	}
	return false
}

type CurrentWeather struct {
	Temp               int              `json:"temp"`
	FeelsLike          int              `json:"feels_like"`
	Humidity           int              `json:"humidity"`
	WindSpeed          float64          `json:"wind_speed"`
	WindDirection      int              `json:"wind_direction"`
	WeatherCondition   WeatherCondition `json:"weather_condition"`
	WeatherDescription string           `json:"weather_description"`
	WeatherIcon        string           `json:"weather_icon"`
	Pressure           int              `json:"pressure"`
	Visibility         float64          `json:"visibility"` // km
	UVIndex            float64          `json:"uv_index"`
}

type HourlyForecast struct {
	Timestamp        string           `json:"timestamp"`
	Temp             int              `json:"temp"`
	WeatherCondition WeatherCondition `json:"weather_condition"`
	WeatherIcon      string           `json:"weather_icon"`
	Pop              int              `json:"pop"` // percent
}

type DailyForecast struct {
	Date             string           `json:"date"`
	TempMax          int              `json:"temp_max"`
	TempMin          int              `json:"temp_min"`
	WeatherCondition WeatherCondition `json:"weather_condition"`
	WeatherIcon      string           `json:"weather_icon"`
	Pop              int              `json:"pop"` // percent
}

// WeatherData is the UI-ready view of one widget's weather. It is replaced
// wholesale on every successful refresh.
type WeatherData struct {
	ID          string           `json:"id"`
	City        string           `json:"city"`
	Country     string           `json:"country"`
	Current     CurrentWeather   `json:"current"`
	Hourly      []HourlyForecast `json:"hourly"`
	Daily       []DailyForecast  `json:"daily"`
	LastUpdated string           `json:"lastUpdated"`
}
