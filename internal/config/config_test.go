package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBookingConfigDefaults(t *testing.T) {
	for _, k := range []string{"SLOT_GRANULARITY_MIN", "TZ_OFFSET_MIN", "MAX_RANGE_DAYS", "LINK_POLICY", "LINK_SWEEP_SPEC", "LOCK_TTL"} {
		t.Setenv(k, "")
	}
	cfg := LoadBookingConfig()
	assert.Equal(t, 30, cfg.GranularityMin)
	assert.Equal(t, 62, cfg.MaxRangeDays)
	assert.Equal(t, "single_use", cfg.LinkPolicy)
	assert.Empty(t, cfg.SweepSpec)
	assert.Equal(t, 10*time.Second, cfg.LockTTL)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadBookingConfigOverrides(t *testing.T) {
	t.Setenv("SLOT_GRANULARITY_MIN", "15")
	t.Setenv("TZ_OFFSET_MIN", "210")
	t.Setenv("LINK_POLICY", "PER_SLOT")
	t.Setenv("LINK_SWEEP_SPEC", "@every 5m")
	t.Setenv("LOCK_TTL", "3s")

	cfg := LoadBookingConfig()
	assert.Equal(t, 15, cfg.GranularityMin)
	assert.Equal(t, "per_slot", cfg.LinkPolicy)
	assert.Equal(t, "@every 5m", cfg.SweepSpec)
	assert.Equal(t, 3*time.Second, cfg.LockTTL)

	_, off := time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC).In(cfg.Location()).Zone()
	assert.Equal(t, 210*60, off)
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_BURST", "")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, time.Minute, cfg.RefillInterval)
	assert.Equal(t, 5*time.Minute, cfg.TTL)
}

func TestLoadSQLiteNeedsNoMySQLSettings(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/booking-test.db")

	cfg := Load()
	require.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "/tmp/booking-test.db", cfg.SQLitePath)
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.DBHost)
}

func TestCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
}
