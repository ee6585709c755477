package service

import (
	"context"
	"fmt"

	"github.com/alexivanou/weathertrack-api/internal/apperr"
	"github.com/alexivanou/weathertrack-api/internal/model"
	"go.uber.org/zap"
)

// GetWeatherByCity resolves a city id to coordinates, fetches its forecast
// and records the search in the ledger. No ledger write happens if the city
// is unknown or the provider call fails.
func (s *Service) GetWeatherByCity(ctx context.Context, sessionKey string, cityID int64) (*model.WeatherResponse, error) {
	city, err := s.cityRepo.GetByID(ctx, cityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get city %d: %w", cityID, err)
	}
	if city == nil {
		return nil, fmt.Errorf("city %d: %w", cityID, apperr.ErrNotFound)
	}

	snapshot, err := s.provider.FetchWeather(ctx, city.Lat, city.Lon)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetOrCreate(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	if _, err := s.historyRepo.RecordSearch(ctx, user.ID, city.ID); err != nil {
		return nil, err
	}

	return &model.WeatherResponse{City: city, Weather: snapshot}, nil
}

// GetWeatherByCoordinates fetches the forecast for a raw coordinate pair.
// When coordinate attribution is enabled, the search is credited to the
// nearest stored city within the configured radius; attribution is
// best-effort and never fails the weather request.
func (s *Service) GetWeatherByCoordinates(ctx context.Context, sessionKey string, lat, lon float64) (*model.WeatherResponse, error) {
	snapshot, err := s.provider.FetchWeather(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	response := &model.WeatherResponse{Weather: snapshot}

	if s.history.AttributeCoordinateSearches {
		city, dist, err := s.cityRepo.FindNearest(ctx, lat, lon)
		if err != nil {
			s.logger.Warn("nearest city lookup failed",
				zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
			return response, nil
		}
		if city == nil || dist > s.history.AttributionMaxKm {
			return response, nil
		}

		user, err := s.userRepo.GetOrCreate(ctx, sessionKey)
		if err != nil {
			s.logger.Warn("failed to resolve user for attribution", zap.Error(err))
			return response, nil
		}
		if _, err := s.historyRepo.RecordSearch(ctx, user.ID, city.ID); err != nil {
			s.logger.Warn("failed to attribute coordinate search",
				zap.Int64("city_id", city.ID), zap.Error(err))
			return response, nil
		}
		response.City = city
	}

	return response, nil
}
