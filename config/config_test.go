package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5260, cfg.Server.Port)
	assert.Equal(t, "database/homeradar.db", cfg.Server.DBPath)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)

	assert.Equal(t, "cz", cfg.Geocoding.CountryCode)
	assert.Equal(t, 1000, cfg.Geocoding.MinIntervalMs)

	assert.Equal(t, "driving", cfg.Routing.Profile)

	assert.Equal(t, 100.0, cfg.Corridor.MinBufferMeters)
	assert.Equal(t, 50000.0, cfg.Corridor.MaxBufferMeters)

	assert.True(t, cfg.Enrichment.Enabled)
	assert.Equal(t, 50, cfg.Enrichment.BatchSize)

	assert.Equal(t, 100, cfg.BatchProcessing.MaxBatchSize)
	assert.Equal(t, 3, cfg.BatchProcessing.MaxRetries)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("GEOCODER_COUNTRY", "sk")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("CORRIDOR_MAX_BUFFER_M", "20000")
	t.Setenv("ENRICH_ENABLED", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "sk", cfg.Geocoding.CountryCode)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 20000.0, cfg.Corridor.MaxBufferMeters)
	assert.False(t, cfg.Enrichment.Enabled)
}
