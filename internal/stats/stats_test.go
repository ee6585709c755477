package stats

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/alexivanou/weathertrack-api/internal/config"
	"github.com/alexivanou/weathertrack-api/internal/database"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (*sqlx.DB, config.DBConfig) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	cfg := config.DBConfig{
		Type: config.DBTypeMemory,
		Name: fmt.Sprintf("statsdb_%d", rng.Int()),
	}

	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	require.NoError(t, err)

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations/sqlite",
		"sqlite3",
		driver,
	)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return db, cfg
}

func seedData(t *testing.T, db *sqlx.DB) {
	t.Helper()

	_, err := db.Exec(`INSERT INTO users (session_key) VALUES ('sess-1'), ('sess-2')`)
	require.NoError(t, err)

	_, err = db.Exec(`
		INSERT INTO cities (name, country, admin1, lat, lon) VALUES
		('London', 'United Kingdom', 'England', 51.5085, -0.1257),
		('Paris', 'France', '', 48.8566, 2.3522)
	`)
	require.NoError(t, err)

	_, err = db.Exec(`
		INSERT INTO search_history (user_id, city_id, search_count) VALUES
		(1, 1, 4),
		(1, 2, 1),
		(2, 1, 2)
	`)
	require.NoError(t, err)
}

func TestCollector_Collect(t *testing.T) {
	db, cfg := setupTestDB(t)
	seedData(t, db)

	collector := NewCollector(db, cfg)
	stats, err := collector.Collect(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stats)

	assert.Equal(t, string(config.DBTypeMemory), stats.Database.Type)
	assert.Equal(t, int64(7), stats.Database.TotalRecords)
	assert.Equal(t, int64(7), stats.Database.TotalSearches)

	counts := make(map[string]int64)
	for _, ts := range stats.Database.TableStats {
		counts[ts.Name] = ts.RowCount
	}
	assert.Equal(t, int64(2), counts["users"])
	assert.Equal(t, int64(2), counts["cities"])
	assert.Equal(t, int64(3), counts["search_history"])

	assert.Greater(t, stats.Memory.Alloc, uint64(0))
	assert.Greater(t, stats.Runtime.NumGoroutines, 0)
	assert.GreaterOrEqual(t, stats.Runtime.UptimeSeconds, int64(0))
}

func TestCollector_Collect_EmptyDatabase(t *testing.T) {
	db, cfg := setupTestDB(t)

	collector := NewCollector(db, cfg)
	stats, err := collector.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.Database.TotalRecords)
	assert.Equal(t, int64(0), stats.Database.TotalSearches)
	require.Len(t, stats.Database.TableStats, 3)
}

func TestCollector_MemoryStatsCached(t *testing.T) {
	db, cfg := setupTestDB(t)

	collector := NewCollector(db, cfg)
	first := collector.collectMemoryStats()
	second := collector.collectMemoryStats()

	// Within the cache window both reads return the same snapshot
	assert.Equal(t, first, second)
}
