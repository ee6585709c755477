package repository

import (
	"context"
	"time"

	"github.com/alexivanou/weathertrack-api/internal/config"
	"github.com/alexivanou/weathertrack-api/internal/model"
	"github.com/jmoiron/sqlx"
)

// CityRepository defines operations for cities
type CityRepository interface {
	// FindByPrefix matches the query case-insensitively against city names,
	// ranking prefix hits before substring hits, ties by id ascending.
	FindByPrefix(ctx context.Context, query string, limit int) ([]model.City, error)
	// Upsert persists a candidate location unless an equal row already
	// exists. Existing rows are returned unchanged (first write wins).
	Upsert(ctx context.Context, loc model.CandidateLocation) (*model.City, error)
	GetByID(ctx context.Context, id int64) (*model.City, error)
	// FindNearest returns the stored city closest to the coordinate and its
	// distance in kilometers, or nil when no cities exist.
	FindNearest(ctx context.Context, lat, lon float64) (*model.City, float64, error)
}

// UserRepository defines operations for session-keyed users
type UserRepository interface {
	GetOrCreate(ctx context.Context, sessionKey string) (*model.User, error)
	GetBySessionKey(ctx context.Context, sessionKey string) (*model.User, error)
}

// HistoryRepository defines operations for the search-history ledger
type HistoryRepository interface {
	// RecordSearch atomically increments the (user, city) counter, creating
	// the row with count 1 when absent.
	RecordSearch(ctx context.Context, userID, cityID int64) (*model.SearchHistoryEntry, error)
	RecentForUser(ctx context.Context, userID int64, limit int) ([]model.City, error)
	EntriesForUser(ctx context.Context, userID int64, limit int) ([]model.HistoryItem, error)
	PopularOverall(ctx context.Context, limit int) ([]model.CityPopularity, error)
	StatsForUser(ctx context.Context, userID int64) (*model.UserStats, error)
}

// Container holds all repositories
type Container struct {
	City    CityRepository
	User    UserRepository
	History HistoryRepository
}

// NewRepositories creates repository implementations based on DB type
func NewRepositories(db *sqlx.DB, dbType config.DBType) *Container {
	if dbType == config.DBTypePostgreSQL {
		return &Container{
			City:    &pgCityRepository{db: db},
			User:    &pgUserRepository{db: db},
			History: &pgHistoryRepository{db: db},
		}
	}

	// Default to SQLite
	return &Container{
		City:    &sqliteCityRepository{db: db},
		User:    &sqliteUserRepository{db: db},
		History: &sqliteHistoryRepository{db: db},
	}
}

// recordSearchAttempts bounds the transparent retry of the history upsert.
const recordSearchAttempts = 3

// historyRow joins a ledger entry with its city columns for scanning.
type historyRow struct {
	model.City
	SearchCount    int       `db:"search_count"`
	LastSearchedAt time.Time `db:"last_searched_at"`
}

// popularityRow joins a city with its aggregated search totals.
type popularityRow struct {
	model.City
	TotalSearches int64 `db:"total_searches"`
	UniqueUsers   int64 `db:"unique_users"`
}
