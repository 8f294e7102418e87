package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("facility-test")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 50000.0, cfg.Search.InitialRadiusMeters)
	assert.Equal(t, 4, cfg.Search.MaxAttempts)
	assert.Equal(t, 2.0, cfg.Search.RadiusMultiplier)
	assert.Equal(t, 200000.0, cfg.Overpass.MaxRadiusMeters)
	assert.Equal(t, 4*time.Second, cfg.Animation.Min())
	assert.Equal(t, 12*time.Second, cfg.Animation.Max())
	assert.Equal(t, "facility-test", cfg.Telemetry.ServiceName)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FACILITY_SEARCH_MAX_ATTEMPTS", "6")
	t.Setenv("FACILITY_OSRM_URL", "http://osrm.local:5000")
	t.Setenv("FACILITY_REDIS_ADDR", "localhost:6379")

	cfg, err := Load("facility-test")
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Search.MaxAttempts)
	assert.Equal(t, "http://osrm.local:5000", cfg.OSRM.URL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("FACILITY_SEARCH_RADIUS_MULTIPLIER", "1")
	t.Setenv("FACILITY_SERVER_PORT", "0")

	_, err := Load("facility-test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.radius_multiplier")
	assert.Contains(t, err.Error(), "server.port")
}

func TestGet(t *testing.T) {
	t.Setenv("FACILITY_TEST_KEY", "set")
	assert.Equal(t, "set", Get("FACILITY_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", Get("FACILITY_TEST_MISSING", "fallback"))
}
