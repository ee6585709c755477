package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DB       DBConfig
	Server   ServerConfig
	Provider ProviderConfig
	Search   SearchConfig
	History  HistoryConfig
}

// DBType represents database type
type DBType string

const (
	DBTypePostgreSQL DBType = "postgres"
	DBTypeMemory     DBType = "memory"
)

// DBConfig holds database configuration
type DBConfig struct {
	Type     DBType
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the database connection string
func (c DBConfig) DSN() string {
	if c.Type == DBTypeMemory {
		// SQLite in-memory database
		if c.Name != "" && c.Name != "weathertrack" {
			return fmt.Sprintf("file:%s?mode=memory&cache=shared", c.Name)
		}
		return "file::memory:?cache=shared"
	}
	// PostgreSQL connection string
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// IsMemory returns true if using in-memory database
func (c DBConfig) IsMemory() bool {
	return c.Type == DBTypeMemory
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
}

// ProviderConfig holds settings for the upstream geocoding/weather API
type ProviderConfig struct {
	GeocodeURL   string
	ForecastURL  string
	Timeout      time.Duration
	RetryBackoff time.Duration
}

// SearchConfig holds tuning knobs for city autocomplete
type SearchConfig struct {
	AutocompleteLimit int
	MinQueryLength    int
	GeocodeMaxResults int
}

// HistoryConfig holds settings for the search-history ledger read paths
// and for attributing coordinate-based weather lookups to a stored city.
type HistoryConfig struct {
	RecentLimit                 int
	PopularLimit                int
	AttributeCoordinateSearches bool
	AttributionMaxKm            float64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbType := DBType(getEnv("DB_TYPE", "memory"))
	if dbType != DBTypePostgreSQL && dbType != DBTypeMemory {
		dbType = DBTypeMemory
	}

	config := &Config{
		DB: DBConfig{
			Type:     dbType,
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "weathertrack"),
			Password: getEnv("DB_PASSWORD", "weathertrack_password"),
			Name:     getEnv("DB_NAME", "weathertrack"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnv("APP_PORT", "8080"),
		},
		Provider: ProviderConfig{
			GeocodeURL:   getEnv("PROVIDER_GEOCODE_URL", "https://geocoding-api.open-meteo.com/v1/search"),
			ForecastURL:  getEnv("PROVIDER_FORECAST_URL", "https://api.open-meteo.com/v1/forecast"),
			Timeout:      getEnvAsDuration("PROVIDER_TIMEOUT", 10*time.Second),
			RetryBackoff: getEnvAsDuration("PROVIDER_RETRY_BACKOFF", 500*time.Millisecond),
		},
		Search: SearchConfig{
			AutocompleteLimit: getEnvAsInt("SEARCH_AUTOCOMPLETE_LIMIT", 10),
			MinQueryLength:    getEnvAsInt("SEARCH_MIN_QUERY_LENGTH", 2),
			GeocodeMaxResults: getEnvAsInt("SEARCH_GEOCODE_MAX_RESULTS", 10),
		},
		History: HistoryConfig{
			RecentLimit:                 getEnvAsInt("HISTORY_RECENT_LIMIT", 5),
			PopularLimit:                getEnvAsInt("HISTORY_POPULAR_LIMIT", 10),
			AttributeCoordinateSearches: getEnvAsBool("HISTORY_ATTRIBUTE_COORDINATE_SEARCHES", false),
			AttributionMaxKm:            getEnvAsFloat("HISTORY_ATTRIBUTION_MAX_KM", 25),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
