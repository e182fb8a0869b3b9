package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_NAME", "learnhub_test")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("LEADERBOARD_CACHE_TTL", "30s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "learnhub_test", cfg.DBName)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 30*time.Second, cfg.LeaderboardCacheTTL)
	assert.Equal(t, 20, cfg.DBMaxOpenConns)
}

func TestLocation(t *testing.T) {
	cfg := &Config{TimeZone: "UTC"}
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.TimeZone = "Nowhere/Invalid"
	assert.Equal(t, time.Local, cfg.Location())

	cfg.TimeZone = ""
	assert.Equal(t, time.Local, cfg.Location())
}

func TestIsDevelopment(t *testing.T) {
	assert.True(t, (&Config{AppEnv: "development"}).IsDevelopment())
	assert.False(t, (&Config{AppEnv: "production"}).IsDevelopment())
}
