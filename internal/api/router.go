package api

import (
	"github.com/alexivanou/weathertrack-api/internal/service"
	"github.com/alexivanou/weathertrack-api/internal/stats"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NewRouter creates a new HTTP router
func NewRouter(service service.ServiceInterface, statsCollector *stats.Collector, logger *zap.Logger) *mux.Router {
	handler := NewHandler(service, logger)
	statsHandler := NewStatsHandler(statsCollector, logger)

	router := mux.NewRouter()
	router.Use(SessionMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1
	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/cities/search", handler.SearchCities).Methods("GET")
	v1.HandleFunc("/cities/popular", handler.PopularCities).Methods("GET")
	v1.HandleFunc("/weather", handler.GetWeather).Methods("GET")
	v1.HandleFunc("/history", handler.SearchHistory).Methods("GET")
	v1.HandleFunc("/history/recent", handler.RecentSearches).Methods("GET")
	v1.HandleFunc("/stats", handler.Stats).Methods("GET")
	v1.HandleFunc("/admin/stats", statsHandler.GetStats).Methods("GET")

	return router
}
