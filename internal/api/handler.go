package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/alexivanou/weathertrack-api/internal/apperr"
	"github.com/alexivanou/weathertrack-api/internal/model"
	"github.com/alexivanou/weathertrack-api/internal/service"
	"go.uber.org/zap"
)

// Handler handles HTTP requests
type Handler struct {
	service service.ServiceInterface
	logger  *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(service service.ServiceInterface, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// SearchCities handles GET /api/v1/cities/search
func (h *Handler) SearchCities(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	cities, err := h.service.SearchCities(r.Context(), query)
	if err != nil {
		h.logger.Error("Error searching cities", zap.String("query", query), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, model.SearchResponse{Cities: cities, Count: len(cities)})
}

// GetWeather handles GET /api/v1/weather with either ?city_id= or ?lat=&lon=
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	sessionKey := sessionKeyFromContext(r.Context())

	if idStr := r.URL.Query().Get("city_id"); idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			http.Error(w, "invalid city_id parameter", http.StatusBadRequest)
			return
		}

		response, err := h.service.GetWeatherByCity(r.Context(), sessionKey, id)
		if err != nil {
			h.writeWeatherError(w, err, zap.Int64("city_id", id))
			return
		}
		h.writeJSON(w, response)
		return
	}

	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr == "" || lonStr == "" {
		http.Error(w, "either 'city_id' or both 'lat' and 'lon' are required", http.StatusBadRequest)
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		http.Error(w, "invalid lat parameter", http.StatusBadRequest)
		return
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		http.Error(w, "invalid lon parameter", http.StatusBadRequest)
		return
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		http.Error(w, "invalid coordinates range", http.StatusBadRequest)
		return
	}

	response, err := h.service.GetWeatherByCoordinates(r.Context(), sessionKey, lat, lon)
	if err != nil {
		h.writeWeatherError(w, err, zap.Float64("lat", lat), zap.Float64("lon", lon))
		return
	}
	h.writeJSON(w, response)
}

// SearchHistory handles GET /api/v1/history
func (h *Handler) SearchHistory(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.SearchHistory(r.Context(), sessionKeyFromContext(r.Context()))
	if err != nil {
		h.logger.Error("Error loading search history", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, model.HistoryResponse{History: items})
}

// RecentSearches handles GET /api/v1/history/recent
func (h *Handler) RecentSearches(w http.ResponseWriter, r *http.Request) {
	cities, err := h.service.RecentSearches(r.Context(), sessionKeyFromContext(r.Context()))
	if err != nil {
		h.logger.Error("Error loading recent searches", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, model.RecentResponse{RecentSearches: cities})
}

// PopularCities handles GET /api/v1/cities/popular
func (h *Handler) PopularCities(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			http.Error(w, "invalid limit parameter", http.StatusBadRequest)
			return
		}
	}

	ranking, err := h.service.PopularCities(r.Context(), limit)
	if err != nil {
		h.logger.Error("Error loading popular cities", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, model.PopularResponse{PopularCities: ranking})
}

// Stats handles GET /api/v1/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), sessionKeyFromContext(r.Context()))
	if err != nil {
		h.logger.Error("Error loading user stats", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, stats)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) writeWeatherError(w http.ResponseWriter, err error, fields ...zap.Field) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		http.Error(w, "city not found", http.StatusNotFound)
	case errors.Is(err, apperr.ErrProviderUnavailable):
		h.logger.Warn("Weather provider unavailable", append(fields, zap.Error(err))...)
		http.Error(w, "weather data temporarily unavailable", http.StatusBadGateway)
	case errors.Is(err, apperr.ErrProviderBadResponse):
		h.logger.Error("Weather provider returned malformed data", append(fields, zap.Error(err))...)
		http.Error(w, "weather data temporarily unavailable", http.StatusBadGateway)
	default:
		h.logger.Error("Error getting weather", append(fields, zap.Error(err))...)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Error encoding response", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
