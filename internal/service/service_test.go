package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alexivanou/weathertrack-api/internal/apperr"
	"github.com/alexivanou/weathertrack-api/internal/config"
	"github.com/alexivanou/weathertrack-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockCityRepository implements repository.CityRepository interface
type MockCityRepository struct {
	mock.Mock
}

func (m *MockCityRepository) FindByPrefix(ctx context.Context, query string, limit int) ([]model.City, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.City), args.Error(1)
}

func (m *MockCityRepository) Upsert(ctx context.Context, loc model.CandidateLocation) (*model.City, error) {
	args := m.Called(ctx, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.City), args.Error(1)
}

func (m *MockCityRepository) GetByID(ctx context.Context, id int64) (*model.City, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.City), args.Error(1)
}

func (m *MockCityRepository) FindNearest(ctx context.Context, lat, lon float64) (*model.City, float64, error) {
	args := m.Called(ctx, lat, lon)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*model.City), args.Get(1).(float64), args.Error(2)
}

// MockUserRepository implements repository.UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetOrCreate(ctx context.Context, sessionKey string) (*model.User, error) {
	args := m.Called(ctx, sessionKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetBySessionKey(ctx context.Context, sessionKey string) (*model.User, error) {
	args := m.Called(ctx, sessionKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockHistoryRepository implements repository.HistoryRepository interface
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) RecordSearch(ctx context.Context, userID, cityID int64) (*model.SearchHistoryEntry, error) {
	args := m.Called(ctx, userID, cityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SearchHistoryEntry), args.Error(1)
}

func (m *MockHistoryRepository) RecentForUser(ctx context.Context, userID int64, limit int) ([]model.City, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.City), args.Error(1)
}

func (m *MockHistoryRepository) EntriesForUser(ctx context.Context, userID int64, limit int) ([]model.HistoryItem, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.HistoryItem), args.Error(1)
}

func (m *MockHistoryRepository) PopularOverall(ctx context.Context, limit int) ([]model.CityPopularity, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CityPopularity), args.Error(1)
}

func (m *MockHistoryRepository) StatsForUser(ctx context.Context, userID int64) (*model.UserStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserStats), args.Error(1)
}

// MockWeatherProvider implements the WeatherProvider interface
type MockWeatherProvider struct {
	mock.Mock
}

func (m *MockWeatherProvider) Geocode(ctx context.Context, query string, maxResults int) ([]model.CandidateLocation, error) {
	args := m.Called(ctx, query, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CandidateLocation), args.Error(1)
}

func (m *MockWeatherProvider) FetchWeather(ctx context.Context, lat, lon float64) (*model.WeatherSnapshot, error) {
	args := m.Called(ctx, lat, lon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WeatherSnapshot), args.Error(1)
}

type mocks struct {
	cityRepo    *MockCityRepository
	userRepo    *MockUserRepository
	historyRepo *MockHistoryRepository
	provider    *MockWeatherProvider
}

func newTestService(history config.HistoryConfig) (*Service, *mocks) {
	m := &mocks{
		cityRepo:    new(MockCityRepository),
		userRepo:    new(MockUserRepository),
		historyRepo: new(MockHistoryRepository),
		provider:    new(MockWeatherProvider),
	}
	search := config.SearchConfig{
		AutocompleteLimit: 10,
		MinQueryLength:    2,
		GeocodeMaxResults: 10,
	}
	svc := NewService(m.cityRepo, m.userRepo, m.historyRepo, m.provider, search, history, zap.NewNop())
	return svc, m
}

func defaultHistoryConfig() config.HistoryConfig {
	return config.HistoryConfig{
		RecentLimit:  5,
		PopularLimit: 10,
	}
}

var (
	london = model.City{ID: 1, Name: "London", Country: "United Kingdom", Lat: 51.5085, Lon: -0.1257}
	paris  = model.City{ID: 2, Name: "Paris", Country: "France", Lat: 48.8566, Lon: 2.3522}
)

func TestService_SearchCities(t *testing.T) {
	tests := []struct {
		name          string
		query         string
		setupMocks    func(*mocks)
		expectedNames []string
		expectedError bool
	}{
		{
			name:          "empty query returns empty list without lookups",
			query:         "   ",
			expectedNames: []string{},
		},
		{
			name:  "local hit skips the provider",
			query: "Lond",
			setupMocks: func(m *mocks) {
				m.cityRepo.On("FindByPrefix", mock.Anything, "Lond", 10).
					Return([]model.City{london}, nil)
			},
			expectedNames: []string{"London"},
		},
		{
			name:  "below minimum length never falls back",
			query: "L",
			setupMocks: func(m *mocks) {
				m.cityRepo.On("FindByPrefix", mock.Anything, "L", 10).
					Return([]model.City{}, nil)
			},
			expectedNames: []string{},
		},
		{
			name:  "cache miss falls back to geocoding and persists results",
			query: "Paris",
			setupMocks: func(m *mocks) {
				m.cityRepo.On("FindByPrefix", mock.Anything, "Paris", 10).
					Return([]model.City{}, nil)
				m.provider.On("Geocode", mock.Anything, "Paris", 10).
					Return([]model.CandidateLocation{
						{Name: "Paris", Country: "France", Lat: 48.8566, Lon: 2.3522},
						{Name: "Paris", Country: "France", Lat: 48.85661, Lon: 2.35221},
					}, nil)
				// Both candidates dedup to the same row via the uniqueness key
				m.cityRepo.On("Upsert", mock.Anything, mock.Anything).
					Return(&paris, nil)
			},
			expectedNames: []string{"Paris"},
		},
		{
			name:  "provider failure degrades to local results",
			query: "Paris",
			setupMocks: func(m *mocks) {
				m.cityRepo.On("FindByPrefix", mock.Anything, "Paris", 10).
					Return([]model.City{}, nil)
				m.provider.On("Geocode", mock.Anything, "Paris", 10).
					Return(nil, apperr.ErrProviderUnavailable)
			},
			expectedNames: []string{},
		},
		{
			name:  "repository failure surfaces",
			query: "Paris",
			setupMocks: func(m *mocks) {
				m.cityRepo.On("FindByPrefix", mock.Anything, "Paris", 10).
					Return(nil, errors.New("db down"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestService(defaultHistoryConfig())
			if tt.setupMocks != nil {
				tt.setupMocks(m)
			}

			cities, err := svc.SearchCities(context.Background(), tt.query)

			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			names := make([]string, 0, len(cities))
			for _, c := range cities {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.expectedNames, names)
			m.provider.AssertExpectations(t)
			m.cityRepo.AssertExpectations(t)
		})
	}
}

func TestService_GetWeatherByCity(t *testing.T) {
	snapshot := &model.WeatherSnapshot{Timezone: "Europe/London"}

	t.Run("success records the search", func(t *testing.T) {
		svc, m := newTestService(defaultHistoryConfig())

		m.cityRepo.On("GetByID", mock.Anything, int64(1)).Return(&london, nil)
		m.provider.On("FetchWeather", mock.Anything, london.Lat, london.Lon).Return(snapshot, nil)
		m.userRepo.On("GetOrCreate", mock.Anything, "session-1").
			Return(&model.User{ID: 7, SessionKey: "session-1"}, nil)
		m.historyRepo.On("RecordSearch", mock.Anything, int64(7), int64(1)).
			Return(&model.SearchHistoryEntry{UserID: 7, CityID: 1, SearchCount: 1}, nil)

		resp, err := svc.GetWeatherByCity(context.Background(), "session-1", 1)
		assert.NoError(t, err)
		assert.Equal(t, &london, resp.City)
		assert.Equal(t, snapshot, resp.Weather)
		m.historyRepo.AssertExpectations(t)
	})

	t.Run("unknown city yields NotFound and writes no history", func(t *testing.T) {
		svc, m := newTestService(defaultHistoryConfig())

		m.cityRepo.On("GetByID", mock.Anything, int64(42)).Return(nil, nil)

		_, err := svc.GetWeatherByCity(context.Background(), "session-1", 42)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		m.historyRepo.AssertNotCalled(t, "RecordSearch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("provider failure surfaces and writes no history", func(t *testing.T) {
		svc, m := newTestService(defaultHistoryConfig())

		m.cityRepo.On("GetByID", mock.Anything, int64(1)).Return(&london, nil)
		m.provider.On("FetchWeather", mock.Anything, london.Lat, london.Lon).
			Return(nil, apperr.ErrProviderUnavailable)

		_, err := svc.GetWeatherByCity(context.Background(), "session-1", 1)
		assert.ErrorIs(t, err, apperr.ErrProviderUnavailable)
		m.historyRepo.AssertNotCalled(t, "RecordSearch", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_GetWeatherByCoordinates(t *testing.T) {
	snapshot := &model.WeatherSnapshot{Timezone: "Europe/Paris"}

	t.Run("attribution disabled writes no history", func(t *testing.T) {
		svc, m := newTestService(defaultHistoryConfig())

		m.provider.On("FetchWeather", mock.Anything, 48.85, 2.35).Return(snapshot, nil)

		resp, err := svc.GetWeatherByCoordinates(context.Background(), "session-1", 48.85, 2.35)
		assert.NoError(t, err)
		assert.Nil(t, resp.City)
		m.cityRepo.AssertNotCalled(t, "FindNearest", mock.Anything, mock.Anything, mock.Anything)
		m.historyRepo.AssertNotCalled(t, "RecordSearch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("attribution enabled credits the nearest city", func(t *testing.T) {
		history := defaultHistoryConfig()
		history.AttributeCoordinateSearches = true
		history.AttributionMaxKm = 25
		svc, m := newTestService(history)

		m.provider.On("FetchWeather", mock.Anything, 48.85, 2.35).Return(snapshot, nil)
		m.cityRepo.On("FindNearest", mock.Anything, 48.85, 2.35).Return(&paris, 1.2, nil)
		m.userRepo.On("GetOrCreate", mock.Anything, "session-1").
			Return(&model.User{ID: 7}, nil)
		m.historyRepo.On("RecordSearch", mock.Anything, int64(7), int64(2)).
			Return(&model.SearchHistoryEntry{UserID: 7, CityID: 2, SearchCount: 1}, nil)

		resp, err := svc.GetWeatherByCoordinates(context.Background(), "session-1", 48.85, 2.35)
		assert.NoError(t, err)
		assert.Equal(t, &paris, resp.City)
		m.historyRepo.AssertExpectations(t)
	})

	t.Run("nearest city beyond the radius is not credited", func(t *testing.T) {
		history := defaultHistoryConfig()
		history.AttributeCoordinateSearches = true
		history.AttributionMaxKm = 25
		svc, m := newTestService(history)

		m.provider.On("FetchWeather", mock.Anything, 10.0, 10.0).Return(snapshot, nil)
		m.cityRepo.On("FindNearest", mock.Anything, 10.0, 10.0).Return(&paris, 4200.0, nil)

		resp, err := svc.GetWeatherByCoordinates(context.Background(), "session-1", 10.0, 10.0)
		assert.NoError(t, err)
		assert.Nil(t, resp.City)
		m.historyRepo.AssertNotCalled(t, "RecordSearch", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_HistoryReadPaths(t *testing.T) {
	t.Run("unknown session yields empty results", func(t *testing.T) {
		svc, m := newTestService(defaultHistoryConfig())

		m.userRepo.On("GetBySessionKey", mock.Anything, "ghost").Return(nil, nil)

		recent, err := svc.RecentSearches(context.Background(), "ghost")
		assert.NoError(t, err)
		assert.Empty(t, recent)

		items, err := svc.SearchHistory(context.Background(), "ghost")
		assert.NoError(t, err)
		assert.Empty(t, items)

		stats, err := svc.Stats(context.Background(), "ghost")
		assert.NoError(t, err)
		assert.Equal(t, int64(0), stats.TotalSearches)
	})

	t.Run("recent searches pass through the configured limit", func(t *testing.T) {
		svc, m := newTestService(defaultHistoryConfig())

		m.userRepo.On("GetBySessionKey", mock.Anything, "session-1").
			Return(&model.User{ID: 7}, nil)
		m.historyRepo.On("RecentForUser", mock.Anything, int64(7), 5).
			Return([]model.City{paris, london}, nil)

		recent, err := svc.RecentSearches(context.Background(), "session-1")
		assert.NoError(t, err)
		assert.Equal(t, []model.City{paris, london}, recent)
	})

	t.Run("popular cities cap the requested limit", func(t *testing.T) {
		svc, m := newTestService(defaultHistoryConfig())

		m.historyRepo.On("PopularOverall", mock.Anything, 10).
			Return([]model.CityPopularity{{City: london, TotalSearches: 5, UniqueUsers: 2}}, nil)

		ranking, err := svc.PopularCities(context.Background(), 500)
		assert.NoError(t, err)
		assert.Len(t, ranking, 1)
		assert.Equal(t, int64(5), ranking[0].TotalSearches)
	})
}
