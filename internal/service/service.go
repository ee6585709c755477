package service

import (
	"context"

	"github.com/alexivanou/weathertrack-api/internal/config"
	"github.com/alexivanou/weathertrack-api/internal/model"
	"github.com/alexivanou/weathertrack-api/internal/repository"
	"go.uber.org/zap"
)

// WeatherProvider is the outbound geocoding/weather API surface the service
// depends on.
type WeatherProvider interface {
	Geocode(ctx context.Context, query string, maxResults int) ([]model.CandidateLocation, error)
	FetchWeather(ctx context.Context, lat, lon float64) (*model.WeatherSnapshot, error)
}

// Service provides business logic for the API. It holds no per-request
// state; all shared state lives in the repositories.
type Service struct {
	cityRepo    repository.CityRepository
	userRepo    repository.UserRepository
	historyRepo repository.HistoryRepository
	provider    WeatherProvider
	search      config.SearchConfig
	history     config.HistoryConfig
	logger      *zap.Logger
}

// NewService creates a new service instance
func NewService(
	cityRepo repository.CityRepository,
	userRepo repository.UserRepository,
	historyRepo repository.HistoryRepository,
	provider WeatherProvider,
	search config.SearchConfig,
	history config.HistoryConfig,
	logger *zap.Logger,
) *Service {
	return &Service{
		cityRepo:    cityRepo,
		userRepo:    userRepo,
		historyRepo: historyRepo,
		provider:    provider,
		search:      search,
		history:     history,
		logger:      logger,
	}
}
