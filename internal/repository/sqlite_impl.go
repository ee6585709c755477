package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/alexivanou/weathertrack-api/internal/apperr"
	"github.com/alexivanou/weathertrack-api/internal/model"
	"github.com/jmoiron/sqlx"
)

type sqliteCityRepository struct {
	db *sqlx.DB
}

func (r *sqliteCityRepository) FindByPrefix(ctx context.Context, query string, limit int) ([]model.City, error) {
	q := `
		SELECT * FROM cities
		WHERE LOWER(name) LIKE '%' || LOWER(?) || '%'
		ORDER BY CASE WHEN LOWER(name) LIKE LOWER(?) || '%' THEN 0 ELSE 1 END, id ASC
		LIMIT ?
	`
	var cities []model.City
	if err := r.db.SelectContext(ctx, &cities, q, query, query, limit); err != nil {
		return nil, err
	}
	return cities, nil
}

func (r *sqliteCityRepository) Upsert(ctx context.Context, loc model.CandidateLocation) (*model.City, error) {
	lat := model.RoundCoord(loc.Lat)
	lon := model.RoundCoord(loc.Lon)

	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO cities (name, country, admin1, lat, lon)
		VALUES (?, ?, ?, ?, ?)`,
		loc.Name, loc.Country, loc.Admin1, lat, lon)
	if err != nil {
		return nil, err
	}

	var city model.City
	err = r.db.GetContext(ctx, &city, `
		SELECT * FROM cities
		WHERE name = ? AND country = ? AND admin1 = ? AND lat = ? AND lon = ?`,
		loc.Name, loc.Country, loc.Admin1, lat, lon)
	if err != nil {
		return nil, err
	}
	return &city, nil
}

func (r *sqliteCityRepository) GetByID(ctx context.Context, id int64) (*model.City, error) {
	var city model.City
	if err := r.db.GetContext(ctx, &city, "SELECT * FROM cities WHERE id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &city, nil
}

func (r *sqliteCityRepository) FindNearest(ctx context.Context, lat, lon float64) (*model.City, float64, error) {
	delta := 2.0
	q := `
		SELECT * FROM cities
		WHERE lat BETWEEN ? AND ? AND lon BETWEEN ? AND ?
	`
	var candidates []model.City
	err := r.db.SelectContext(ctx, &candidates, q, lat-delta, lat+delta, lon-delta, lon+delta)
	if err != nil {
		return nil, 0, err
	}

	if len(candidates) == 0 {
		if err := r.db.SelectContext(ctx, &candidates, "SELECT * FROM cities"); err != nil {
			return nil, 0, err
		}
	}

	var nearest *model.City
	minDist := math.MaxFloat64

	for i := range candidates {
		city := candidates[i]
		dist := calculateDistance(lat, lon, city.Lat, city.Lon)
		if dist < minDist {
			minDist = dist
			nearest = &city
		}
	}

	if nearest == nil {
		return nil, 0, nil
	}
	return nearest, minDist, nil
}

func calculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371
	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)
	lat1Rad := lat1 * (math.Pi / 180.0)
	lat2Rad := lat2 * (math.Pi / 180.0)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

type sqliteUserRepository struct {
	db *sqlx.DB
}

func (r *sqliteUserRepository) GetOrCreate(ctx context.Context, sessionKey string) (*model.User, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO users (session_key) VALUES (?)`, sessionKey)
	if err != nil {
		return nil, err
	}
	return r.GetBySessionKey(ctx, sessionKey)
}

func (r *sqliteUserRepository) GetBySessionKey(ctx context.Context, sessionKey string) (*model.User, error) {
	var user model.User
	if err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE session_key = ?", sessionKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

type sqliteHistoryRepository struct {
	db *sqlx.DB
}

func (r *sqliteHistoryRepository) RecordSearch(ctx context.Context, userID, cityID int64) (*model.SearchHistoryEntry, error) {
	now := time.Now().UTC()

	var lastErr error
	for attempt := 0; attempt < recordSearchAttempts; attempt++ {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO search_history (user_id, city_id, search_count, last_searched_at, created_at)
			VALUES (?, ?, 1, ?, ?)
			ON CONFLICT (user_id, city_id) DO UPDATE SET
				search_count = search_count + 1,
				last_searched_at = excluded.last_searched_at`,
			userID, cityID, now, now)
		if err != nil {
			lastErr = err
			continue
		}

		var entry model.SearchHistoryEntry
		err = r.db.GetContext(ctx, &entry, `
			SELECT * FROM search_history WHERE user_id = ? AND city_id = ?`,
			userID, cityID)
		if err != nil {
			lastErr = err
			continue
		}
		return &entry, nil
	}

	return nil, fmt.Errorf("record search (user %d, city %d): %w: %v",
		userID, cityID, apperr.ErrConcurrencyConflict, lastErr)
}

func (r *sqliteHistoryRepository) RecentForUser(ctx context.Context, userID int64, limit int) ([]model.City, error) {
	q := `
		SELECT c.* FROM cities c
		INNER JOIN search_history sh ON sh.city_id = c.id
		WHERE sh.user_id = ?
		ORDER BY sh.last_searched_at DESC, sh.city_id ASC
		LIMIT ?
	`
	var cities []model.City
	if err := r.db.SelectContext(ctx, &cities, q, userID, limit); err != nil {
		return nil, err
	}
	return cities, nil
}

func (r *sqliteHistoryRepository) EntriesForUser(ctx context.Context, userID int64, limit int) ([]model.HistoryItem, error) {
	q := `
		SELECT c.id, c.name, c.country, c.admin1, c.lat, c.lon,
		       sh.search_count, sh.last_searched_at
		FROM search_history sh
		INNER JOIN cities c ON c.id = sh.city_id
		WHERE sh.user_id = ?
		ORDER BY sh.last_searched_at DESC, sh.city_id ASC
		LIMIT ?
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

func (r *sqliteHistoryRepository) PopularOverall(ctx context.Context, limit int) ([]model.CityPopularity, error) {
	q := `
		SELECT c.id, c.name, c.country, c.admin1, c.lat, c.lon,
		       SUM(sh.search_count) AS total_searches,
		       COUNT(DISTINCT sh.user_id) AS unique_users
		FROM search_history sh
		INNER JOIN cities c ON c.id = sh.city_id
		GROUP BY c.id, c.name, c.country, c.admin1, c.lat, c.lon
		ORDER BY total_searches DESC, c.id ASC
		LIMIT ?
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

func (r *sqliteHistoryRepository) StatsForUser(ctx context.Context, userID int64) (*model.UserStats, error) {
	var agg struct {
		Total    int64 `db:"total"`
		Distinct int64 `db:"distinct_cities"`
	}
	err := r.db.GetContext(ctx, &agg, `
		SELECT COALESCE(SUM(search_count), 0) AS total, COUNT(*) AS distinct_cities
		FROM search_history WHERE user_id = ?`, userID)
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
		WHERE sh.user_id = ?
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
