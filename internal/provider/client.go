// Package provider implements the Open-Meteo geocoding and forecast client.
// Failures are classified into the apperr taxonomy: unreachable/5xx upstream
// maps to ErrProviderUnavailable and is retried once with a short backoff,
// malformed payloads map to ErrProviderBadResponse and are never retried.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alexivanou/weathertrack-api/internal/apperr"
	"github.com/alexivanou/weathertrack-api/internal/config"
	"github.com/alexivanou/weathertrack-api/internal/model"
	"github.com/sony/gobreaker"
)

const (
	forecastDays = 7
	hourlyWindow = 24
)

// Client talks to the upstream geocoding/weather HTTP API.
type Client struct {
	httpClient   *http.Client
	geocodeURL   string
	forecastURL  string
	retryBackoff time.Duration
	circuit      *gobreaker.CircuitBreaker
}

// NewClient creates a provider client from configuration.
func NewClient(cfg config.ProviderConfig) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "open-meteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		geocodeURL:   cfg.GeocodeURL,
		forecastURL:  cfg.ForecastURL,
		retryBackoff: cfg.RetryBackoff,
		circuit:      cb,
	}
}

type geocodePayload struct {
	Results []struct {
		Name      string   `json:"name"`
		Country   string   `json:"country"`
		Admin1    string   `json:"admin1"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"results"`
}

// Geocode resolves a free-text query into candidate locations ordered by
// provider relevance. An empty result set is not an error.
func (c *Client) Geocode(ctx context.Context, query string, maxResults int) ([]model.CandidateLocation, error) {
	values := url.Values{}
	values.Set("name", query)
	values.Set("count", strconv.Itoa(maxResults))
	values.Set("language", "en")
	values.Set("format", "json")

	body, err := c.get(ctx, c.geocodeURL+"?"+values.Encode())
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", query, err)
	}

	var payload geocodePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("geocode %q: %w: %v", query, apperr.ErrProviderBadResponse, err)
	}

	candidates := make([]model.CandidateLocation, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.Name == "" || r.Latitude == nil || r.Longitude == nil {
			continue
		}
		candidates = append(candidates, model.CandidateLocation{
			Name:    r.Name,
			Country: r.Country,
			Admin1:  r.Admin1,
			Lat:     model.RoundCoord(*r.Latitude),
			Lon:     model.RoundCoord(*r.Longitude),
		})
		if len(candidates) >= maxResults {
			break
		}
	}
	return candidates, nil
}

type forecastPayload struct {
	Timezone         string  `json:"timezone"`
	UTCOffsetSeconds int     `json:"utc_offset_seconds"`
	Elevation        float64 `json:"elevation"`
	Current          struct {
		Time          string   `json:"time"`
		Temperature   *float64 `json:"temperature_2m"`
		FeelsLike     float64  `json:"apparent_temperature"`
		Humidity      float64  `json:"relative_humidity_2m"`
		Pressure      float64  `json:"pressure_msl"`
		Precipitation float64  `json:"precipitation"`
		CloudCover    float64  `json:"cloud_cover"`
		WindSpeed     float64  `json:"wind_speed_10m"`
		WindDirection float64  `json:"wind_direction_10m"`
		IsDay         int      `json:"is_day"`
		WeatherCode   int      `json:"weather_code"`
	} `json:"current"`
	Hourly struct {
		Time                     []string  `json:"time"`
		Temperature              []float64 `json:"temperature_2m"`
		Humidity                 []float64 `json:"relative_humidity_2m"`
		PrecipitationProbability []float64 `json:"precipitation_probability"`
		Precipitation            []float64 `json:"precipitation"`
		WeatherCode              []int     `json:"weather_code"`
		WindSpeed                []float64 `json:"wind_speed_10m"`
	} `json:"hourly"`
	Daily struct {
		Time             []string  `json:"time"`
		WeatherCode      []int     `json:"weather_code"`
		TemperatureMax   []float64 `json:"temperature_2m_max"`
		TemperatureMin   []float64 `json:"temperature_2m_min"`
		FeelsLikeMax     []float64 `json:"apparent_temperature_max"`
		FeelsLikeMin     []float64 `json:"apparent_temperature_min"`
		PrecipitationSum []float64 `json:"precipitation_sum"`
		WindSpeedMax     []float64 `json:"wind_speed_10m_max"`
		WindDirection    []float64 `json:"wind_direction_10m_dominant"`
	} `json:"daily"`
}

// FetchWeather retrieves and normalizes the forecast for one coordinate.
func (c *Client) FetchWeather(ctx context.Context, lat, lon float64) (*model.WeatherSnapshot, error) {
	lat = model.RoundCoord(lat)
	lon = model.RoundCoord(lon)

	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("current", "temperature_2m,relative_humidity_2m,apparent_temperature,is_day,precipitation,weather_code,cloud_cover,pressure_msl,wind_speed_10m,wind_direction_10m")
	values.Set("hourly", "temperature_2m,relative_humidity_2m,precipitation_probability,precipitation,weather_code,wind_speed_10m")
	values.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min,apparent_temperature_max,apparent_temperature_min,precipitation_sum,wind_speed_10m_max,wind_direction_10m_dominant")
	values.Set("timezone", "auto")
	values.Set("forecast_days", strconv.Itoa(forecastDays))

	body, err := c.get(ctx, c.forecastURL+"?"+values.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch weather for (%.4f, %.4f): %w", lat, lon, err)
	}

	var payload forecastPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("fetch weather for (%.4f, %.4f): %w: %v", lat, lon, apperr.ErrProviderBadResponse, err)
	}

	snapshot, err := normalizeForecast(lat, lon, &payload)
	if err != nil {
		return nil, fmt.Errorf("fetch weather for (%.4f, %.4f): %w", lat, lon, err)
	}
	return snapshot, nil
}

func normalizeForecast(lat, lon float64, p *forecastPayload) (*model.WeatherSnapshot, error) {
	if p.Timezone == "" || p.Current.Time == "" || p.Current.Temperature == nil {
		return nil, fmt.Errorf("%w: missing required fields", apperr.ErrProviderBadResponse)
	}
	if *p.Current.Temperature < -100 || *p.Current.Temperature > 70 {
		return nil, fmt.Errorf("%w: temperature out of range", apperr.ErrProviderBadResponse)
	}
	if len(p.Hourly.Time) == 0 || len(p.Daily.Time) == 0 {
		return nil, fmt.Errorf("%w: empty forecast series", apperr.ErrProviderBadResponse)
	}

	snapshot := &model.WeatherSnapshot{
		Lat:              lat,
		Lon:              lon,
		Timezone:         p.Timezone,
		UTCOffsetSeconds: p.UTCOffsetSeconds,
		Elevation:        p.Elevation,
		Current: model.CurrentWeather{
			Time:          p.Current.Time,
			Temperature:   *p.Current.Temperature,
			FeelsLike:     p.Current.FeelsLike,
			Humidity:      p.Current.Humidity,
			Pressure:      p.Current.Pressure,
			Precipitation: p.Current.Precipitation,
			CloudCover:    p.Current.CloudCover,
			WindSpeed:     p.Current.WindSpeed,
			WindDirection: p.Current.WindDirection,
			IsDay:         p.Current.IsDay == 1,
			WeatherCode:   p.Current.WeatherCode,
			Description:   DescribeWeatherCode(p.Current.WeatherCode),
		},
	}

	hours := len(p.Hourly.Time)
	if hours > hourlyWindow {
		hours = hourlyWindow
	}
	snapshot.Hourly = make([]model.HourlyPoint, 0, hours)
	for i := 0; i < hours; i++ {
		point := model.HourlyPoint{Time: p.Hourly.Time[i]}
		if i < len(p.Hourly.Temperature) {
			point.Temperature = p.Hourly.Temperature[i]
		}
		if i < len(p.Hourly.Humidity) {
			point.Humidity = p.Hourly.Humidity[i]
		}
		if i < len(p.Hourly.PrecipitationProbability) {
			point.PrecipitationProbability = p.Hourly.PrecipitationProbability[i]
		}
		if i < len(p.Hourly.Precipitation) {
			point.Precipitation = p.Hourly.Precipitation[i]
		}
		if i < len(p.Hourly.WindSpeed) {
			point.WindSpeed = p.Hourly.WindSpeed[i]
		}
		if i < len(p.Hourly.WeatherCode) {
			point.WeatherCode = p.Hourly.WeatherCode[i]
			point.Description = DescribeWeatherCode(point.WeatherCode)
		}
		snapshot.Hourly = append(snapshot.Hourly, point)
	}

	snapshot.Daily = make([]model.DailyPoint, 0, len(p.Daily.Time))
	for i := range p.Daily.Time {
		point := model.DailyPoint{Date: p.Daily.Time[i]}
		if i < len(p.Daily.TemperatureMax) {
			point.TemperatureMax = p.Daily.TemperatureMax[i]
		}
		if i < len(p.Daily.TemperatureMin) {
			point.TemperatureMin = p.Daily.TemperatureMin[i]
		}
		if i < len(p.Daily.FeelsLikeMax) {
			point.FeelsLikeMax = p.Daily.FeelsLikeMax[i]
		}
		if i < len(p.Daily.FeelsLikeMin) {
			point.FeelsLikeMin = p.Daily.FeelsLikeMin[i]
		}
		if i < len(p.Daily.PrecipitationSum) {
			point.PrecipitationSum = p.Daily.PrecipitationSum[i]
		}
		if i < len(p.Daily.WindSpeedMax) {
			point.WindSpeedMax = p.Daily.WindSpeedMax[i]
		}
		if i < len(p.Daily.WindDirection) {
			point.WindDirection = p.Daily.WindDirection[i]
		}
		if i < len(p.Daily.WeatherCode) {
			point.WeatherCode = p.Daily.WeatherCode[i]
			point.Description = DescribeWeatherCode(point.WeatherCode)
		}
		snapshot.Daily = append(snapshot.Daily, point)
	}

	return snapshot, nil
}

// get performs a GET through the circuit breaker, retrying exactly once with
// a short backoff when the upstream is unavailable. Client-side errors (4xx)
// mean the request shape is wrong and are surfaced without retry.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= 1; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(c.retryBackoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, fmt.Errorf("%w: %v", apperr.ErrProviderUnavailable, ctx.Err())
			case <-timer.C:
			}
		}

		body, err := c.doOnce(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if !errors.Is(err, apperr.ErrProviderUnavailable) {
			return nil, err
		}
		// Circuit open means retrying immediately is pointless.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrProviderBadResponse, err)
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.httpClient.Do(req)
		if execErr != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrProviderUnavailable, execErr)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: upstream status %d", apperr.ErrProviderUnavailable, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: upstream status %d", apperr.ErrProviderBadResponse, resp.StatusCode)
		}

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrProviderUnavailable, readErr)
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", apperr.ErrProviderUnavailable, err)
		}
		return nil, err
	}

	return result.([]byte), nil
}
