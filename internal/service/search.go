package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/alexivanou/weathertrack-api/internal/model"
	"go.uber.org/zap"
)

// SearchCities resolves a free-text query into a ranked list of cities.
// The local repository is consulted first; only when it has no match and the
// query is long enough does the provider geocoder get called, with every
// result upserted into the repository. A provider failure during fallback
// degrades to the repository-only result set instead of failing the request.
func (s *Service) SearchCities(ctx context.Context, query string) ([]model.City, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.City{}, nil
	}

	limit := s.search.AutocompleteLimit
	cities, err := s.cityRepo.FindByPrefix(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search cities for %q: %w", query, err)
	}

	if len(cities) > 0 || utf8.RuneCountInString(query) < s.search.MinQueryLength {
		if cities == nil {
			cities = []model.City{}
		}
		return cities, nil
	}

	candidates, err := s.provider.Geocode(ctx, query, s.search.GeocodeMaxResults)
	if err != nil {
		s.logger.Warn("geocode fallback failed, returning local results only",
			zap.String("query", query), zap.Error(err))
		return []model.City{}, nil
	}

	seen := make(map[int64]struct{}, len(candidates))
	cities = make([]model.City, 0, len(candidates))
	for _, candidate := range candidates {
		city, err := s.cityRepo.Upsert(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("failed to persist candidate %q: %w", candidate.Name, err)
		}
		if _, ok := seen[city.ID]; ok {
			continue
		}
		seen[city.ID] = struct{}{}
		cities = append(cities, *city)
		if len(cities) >= limit {
			break
		}
	}

	return cities, nil
}
