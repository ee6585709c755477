package model

// WeatherSnapshot is the normalized forecast for one coordinate: current
// conditions plus hourly and daily series. It is computed fresh per request
// and never persisted. Units are metric; timestamps are in the location's
// local time, with the UTC offset carried explicitly.
type WeatherSnapshot struct {
	Lat              float64        `json:"lat"`
	Lon              float64        `json:"lon"`
	Timezone         string         `json:"timezone"`
	UTCOffsetSeconds int            `json:"utc_offset_seconds"`
	Elevation        float64        `json:"elevation"`
	Current          CurrentWeather `json:"current"`
	Hourly           []HourlyPoint  `json:"hourly"`
	Daily            []DailyPoint   `json:"daily"`
}

// CurrentWeather holds the present conditions.
type CurrentWeather struct {
	Time          string  `json:"time"`
	Temperature   float64 `json:"temperature"`
	FeelsLike     float64 `json:"feels_like"`
	Humidity      float64 `json:"humidity"`
	Pressure      float64 `json:"pressure"`
	Precipitation float64 `json:"precipitation"`
	CloudCover    float64 `json:"cloud_cover"`
	WindSpeed     float64 `json:"wind_speed"`
	WindDirection float64 `json:"wind_direction"`
	IsDay         bool    `json:"is_day"`
	WeatherCode   int     `json:"weather_code"`
	Description   string  `json:"description"`
}

// HourlyPoint is one hour of the forecast series.
type HourlyPoint struct {
	Time                     string  `json:"time"`
	Temperature              float64 `json:"temperature"`
	Humidity                 float64 `json:"humidity"`
	PrecipitationProbability float64 `json:"precipitation_probability"`
	Precipitation            float64 `json:"precipitation"`
	WindSpeed                float64 `json:"wind_speed"`
	WeatherCode              int     `json:"weather_code"`
	Description              string  `json:"description"`
}

// DailyPoint is one day of the forecast series.
type DailyPoint struct {
	Date             string  `json:"date"`
	TemperatureMax   float64 `json:"temperature_max"`
	TemperatureMin   float64 `json:"temperature_min"`
	FeelsLikeMax     float64 `json:"feels_like_max"`
	FeelsLikeMin     float64 `json:"feels_like_min"`
	PrecipitationSum float64 `json:"precipitation_sum"`
	WindSpeedMax     float64 `json:"wind_speed_max"`
	WindDirection    float64 `json:"wind_direction"`
	WeatherCode      int     `json:"weather_code"`
	Description      string  `json:"description"`
}
