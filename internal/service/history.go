package service

import (
	"context"
	"fmt"

	"github.com/alexivanou/weathertrack-api/internal/model"
)

// Full entries are capped the same way the recent list is, just deeper.
const historyEntriesLimit = 10

// RecentSearches returns the user's recently searched cities, most recent
// first. An unknown session yields an empty list, never an error.
func (s *Service) RecentSearches(ctx context.Context, sessionKey string) ([]model.City, error) {
	user, err := s.userRepo.GetBySessionKey(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	if user == nil {
		return []model.City{}, nil
	}

	cities, err := s.historyRepo.RecentForUser(ctx, user.ID, s.history.RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent searches: %w", err)
	}
	if cities == nil {
		cities = []model.City{}
	}
	return cities, nil
}

// SearchHistory returns the user's full ledger entries, most recent first.
func (s *Service) SearchHistory(ctx context.Context, sessionKey string) ([]model.HistoryItem, error) {
	user, err := s.userRepo.GetBySessionKey(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	if user == nil {
		return []model.HistoryItem{}, nil
	}

	items, err := s.historyRepo.EntriesForUser(ctx, user.ID, historyEntriesLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load search history: %w", err)
	}
	if items == nil {
		items = []model.HistoryItem{}
	}
	return items, nil
}

// PopularCities returns the global ranking of cities by total search count
// across all users.
func (s *Service) PopularCities(ctx context.Context, limit int) ([]model.CityPopularity, error) {
	if limit <= 0 || limit > s.history.PopularLimit {
		limit = s.history.PopularLimit
	}

	ranking, err := s.historyRepo.PopularOverall(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load popular cities: %w", err)
	}
	if ranking == nil {
		ranking = []model.CityPopularity{}
	}
	return ranking, nil
}

// Stats aggregates one user's search activity.
func (s *Service) Stats(ctx context.Context, sessionKey string) (*model.UserStats, error) {
	user, err := s.userRepo.GetBySessionKey(ctx, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	if user == nil {
		return &model.UserStats{}, nil
	}

	stats, err := s.historyRepo.StatsForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user stats: %w", err)
	}
	return stats, nil
}
