package model

import "time"

// CoordinatePrecision is the number of decimal places coordinates are rounded
// to before they are used as a dedup key (~11 m). Lossy but deterministic.
const CoordinatePrecision = 4

// User tracks an anonymous visitor via an opaque session key.
type User struct {
	ID         int64     `db:"id" json:"id"`
	SessionKey string    `db:"session_key" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// City is a geocoded place persisted on first resolution.
// (Name, Country, Admin1, Lat, Lon) is unique; rows are never mutated.
type City struct {
	ID      int64   `db:"id" json:"id"`
	Name    string  `db:"name" json:"name"`
	Country string  `db:"country" json:"country"`
	Admin1  string  `db:"admin1" json:"admin1,omitempty"`
	Lat     float64 `db:"lat" json:"lat"`
	Lon     float64 `db:"lon" json:"lon"`
}

// CandidateLocation is an unresolved geocoding result from the provider,
// not yet persisted as a City.
type CandidateLocation struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Admin1  string  `json:"admin1,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// SearchHistoryEntry is the per-(user, city) ledger row. The count is
// incremented and the timestamp refreshed on every repeat search.
type SearchHistoryEntry struct {
	UserID         int64     `db:"user_id" json:"-"`
	CityID         int64     `db:"city_id" json:"city_id"`
	SearchCount    int       `db:"search_count" json:"search_count"`
	LastSearchedAt time.Time `db:"last_searched_at" json:"last_searched_at"`
	CreatedAt      time.Time `db:"created_at" json:"-"`
}

// HistoryItem is a ledger entry joined with its city for read paths.
type HistoryItem struct {
	City           City      `json:"city"`
	SearchCount    int       `db:"search_count" json:"search_count"`
	LastSearchedAt time.Time `db:"last_searched_at" json:"last_searched_at"`
}

// CityPopularity is one row of the global ranking: a city with its search
// total aggregated across all users.
type CityPopularity struct {
	City          City  `json:"city"`
	TotalSearches int64 `db:"total_searches" json:"total_searches"`
	UniqueUsers   int64 `db:"unique_users" json:"unique_users"`
}

// UserStats aggregates one user's ledger.
type UserStats struct {
	TotalSearches  int64 `json:"total_searches"`
	DistinctCities int64 `json:"distinct_cities"`
	MostSearched   *City `json:"most_searched_city,omitempty"`
}
