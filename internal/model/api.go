package model

// SearchResponse is the payload for city autocomplete.
type SearchResponse struct {
	Cities []City `json:"cities"`
	Count  int    `json:"count"`
}

// WeatherResponse bundles a forecast with the city it was resolved through.
// City is nil for raw coordinate lookups that were not attributed.
type WeatherResponse struct {
	City    *City            `json:"city,omitempty"`
	Weather *WeatherSnapshot `json:"weather"`
}

// HistoryResponse is the per-session search history payload.
type HistoryResponse struct {
	History []HistoryItem `json:"history"`
}

// RecentResponse lists recently searched cities, most recent first.
type RecentResponse struct {
	RecentSearches []City `json:"recent_searches"`
}

// PopularResponse is the global city ranking payload.
type PopularResponse struct {
	PopularCities []CityPopularity `json:"popular_cities"`
}
