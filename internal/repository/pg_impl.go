package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexivanou/weathertrack-api/internal/apperr"
	"github.com/alexivanou/weathertrack-api/internal/model"
	"github.com/jmoiron/sqlx"
)

// --- PostgreSQL Implementation ---

type pgCityRepository struct {
	db *sqlx.DB
}

func (r *pgCityRepository) FindByPrefix(ctx context.Context, query string, limit int) ([]model.City, error) {
	q := `
		SELECT * FROM cities
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY CASE WHEN name ILIKE $1 || '%' THEN 0 ELSE 1 END, id ASC
		LIMIT $2
	`
	var cities []model.City
	if err := r.db.SelectContext(ctx, &cities, q, query, limit); err != nil {
		return nil, err
	}
	return cities, nil
}

func (r *pgCityRepository) Upsert(ctx context.Context, loc model.CandidateLocation) (*model.City, error) {
	lat := model.RoundCoord(loc.Lat)
	lon := model.RoundCoord(loc.Lon)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cities (name, country, admin1, lat, lon)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name, country, admin1, lat, lon) DO NOTHING`,
		loc.Name, loc.Country, loc.Admin1, lat, lon)
	if err != nil {
		return nil, err
	}

	var city model.City
	err = r.db.GetContext(ctx, &city, `
		SELECT * FROM cities
		WHERE name = $1 AND country = $2 AND admin1 = $3 AND lat = $4 AND lon = $5`,
		loc.Name, loc.Country, loc.Admin1, lat, lon)
	if err != nil {
		return nil, err
	}
	return &city, nil
}

func (r *pgCityRepository) GetByID(ctx context.Context, id int64) (*model.City, error) {
	var city model.City
	if err := r.db.GetContext(ctx, &city, "SELECT * FROM cities WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &city, nil
}

func (r *pgCityRepository) FindNearest(ctx context.Context, lat, lon float64) (*model.City, float64, error) {
	// Haversine via SQL
	q := `
		SELECT *,
			(
				6371 * acos(
					least(1.0, greatest(-1.0,
						cos(radians($1)) * cos(radians(lat)) * cos(radians(lon) - radians($2)) +
						sin(radians($1)) * sin(radians(lat))
					))
				)
			) AS distance_km
		FROM cities
		ORDER BY distance_km ASC
		LIMIT 1
	`
	var row struct {
		model.City
		DistanceKm float64 `db:"distance_km"`
	}
	if err := r.db.GetContext(ctx, &row, q, lat, lon); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	return &row.City, row.DistanceKm, nil
}

type pgUserRepository struct {
	db *sqlx.DB
}

func (r *pgUserRepository) GetOrCreate(ctx context.Context, sessionKey string) (*model.User, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (session_key) VALUES ($1)
		ON CONFLICT (session_key) DO NOTHING`, sessionKey)
	if err != nil {
		return nil, err
	}
	return r.GetBySessionKey(ctx, sessionKey)
}

func (r *pgUserRepository) GetBySessionKey(ctx context.Context, sessionKey string) (*model.User, error) {
	var user model.User
	if err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE session_key = $1", sessionKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

type pgHistoryRepository struct {
	db *sqlx.DB
}

func (r *pgHistoryRepository) RecordSearch(ctx context.Context, userID, cityID int64) (*model.SearchHistoryEntry, error) {
	now := time.Now().UTC()

	var lastErr error
	for attempt := 0; attempt < recordSearchAttempts; attempt++ {
		var entry model.SearchHistoryEntry
		err := r.db.GetContext(ctx, &entry, `
			INSERT INTO search_history (user_id, city_id, search_count, last_searched_at, created_at)
			VALUES ($1, $2, 1, $3, $3)
			ON CONFLICT (user_id, city_id) DO UPDATE SET
				search_count = search_history.search_count + 1,
				last_searched_at = excluded.last_searched_at
			RETURNING *`,
			userID, cityID, now)
		if err != nil {
			lastErr = err
			continue
		}
		return &entry, nil
	}

	return nil, fmt.Errorf("record search (user %d, city %d): %w: %v",
		userID, cityID, apperr.ErrConcurrencyConflict, lastErr)
}

func (r *pgHistoryRepository) RecentForUser(ctx context.Context, userID int64, limit int) ([]model.City, error) {
	q := `
		SELECT c.* FROM cities c
		INNER JOIN search_history sh ON sh.city_id = c.id
		WHERE sh.user_id = $1
		ORDER BY sh.last_searched_at DESC, sh.city_id ASC
		LIMIT $2
	`
	var cities []model.City
	if err := r.db.SelectContext(ctx, &cities, q, userID, limit); err != nil {
		return nil, err
	}
	return cities, nil
}

func (r *pgHistoryRepository) EntriesForUser(ctx context.Context, userID int64, limit int) ([]model.HistoryItem, error) {
	q := `
		SELECT c.id, c.name, c.country, c.admin1, c.lat, c.lon,
		       sh.search_count, sh.last_searched_at
		FROM search_history sh
		INNER JOIN cities c ON c.id = sh.city_id
		WHERE sh.user_id = $1
		ORDER BY sh.last_searched_at DESC, sh.city_id ASC
		LIMIT $2
	`
	var rows []historyRow
	if err := r.db.SelectContext(ctx, &rows, q, userID, limit); err != nil {
		return nil, err
	}

	items := make([]model.HistoryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, model.HistoryItem{
			City:           row.City,
			SearchCount:    row.SearchCount,
			LastSearchedAt: row.LastSearchedAt,
		})
	}
	return items, nil
}

func (r *pgHistoryRepository) PopularOverall(ctx context.Context, limit int) ([]model.CityPopularity, error) {
	q := `
		SELECT c.id, c.name, c.country, c.admin1, c.lat, c.lon,
		       SUM(sh.search_count) AS total_searches,
		       COUNT(DISTINCT sh.user_id) AS unique_users
		FROM search_history sh
		INNER JOIN cities c ON c.id = sh.city_id
		GROUP BY c.id, c.name, c.country, c.admin1, c.lat, c.lon
		ORDER BY total_searches DESC, c.id ASC
		LIMIT $1
	`
	var rows []popularityRow
	if err := r.db.SelectContext(ctx, &rows, q, limit); err != nil {
		return nil, err
	}

	ranking := make([]model.CityPopularity, 0, len(rows))
	for _, row := range rows {
		ranking = append(ranking, model.CityPopularity{
			City:          row.City,
			TotalSearches: row.TotalSearches,
			UniqueUsers:   row.UniqueUsers,
		})
	}
	return ranking, nil
}

func (r *pgHistoryRepository) StatsForUser(ctx context.Context, userID int64) (*model.UserStats, error) {
	var agg struct {
		Total    int64 `db:"total"`
		Distinct int64 `db:"distinct_cities"`
	}
	err := r.db.GetContext(ctx, &agg, `
		SELECT COALESCE(SUM(search_count), 0) AS total, COUNT(*) AS distinct_cities
		FROM search_history WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}

	stats := &model.UserStats{
		TotalSearches:  agg.Total,
		DistinctCities: agg.Distinct,
	}

	var top model.City
	err = r.db.GetContext(ctx, &top, `
		SELECT c.* FROM cities c
		INNER JOIN search_history sh ON sh.city_id = c.id
		WHERE sh.user_id = $1
		ORDER BY sh.search_count DESC, c.id ASC
		LIMIT 1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return stats, nil
		}
		return nil, err
	}
	stats.MostSearched = &top

	return stats, nil
}
