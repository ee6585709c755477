package service

import (
	"context"

	"github.com/alexivanou/weathertrack-api/internal/model"
)

// ServiceInterface defines the service interface for testing
type ServiceInterface interface {
	SearchCities(ctx context.Context, query string) ([]model.City, error)
	GetWeatherByCity(ctx context.Context, sessionKey string, cityID int64) (*model.WeatherResponse, error)
	GetWeatherByCoordinates(ctx context.Context, sessionKey string, lat, lon float64) (*model.WeatherResponse, error)
	RecentSearches(ctx context.Context, sessionKey string) ([]model.City, error)
	SearchHistory(ctx context.Context, sessionKey string) ([]model.HistoryItem, error)
	PopularCities(ctx context.Context, limit int) ([]model.CityPopularity, error)
	Stats(ctx context.Context, sessionKey string) (*model.UserStats, error)
}
