package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 540, cfg.DayStartMinutes)
	assert.Equal(t, 1140, cfg.DayEndMinutes)
	assert.Equal(t, 30, cfg.StepMinutes)
	assert.Equal(t, 15, cfg.CellMinutes)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("DAY_START_MINUTES", "480")
	t.Setenv("DAY_END_MINUTES", "1080")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://spa.example, https://admin.example")

	cfg := Load()

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 480, cfg.DayStartMinutes)
	assert.Equal(t, 1080, cfg.DayEndMinutes)
	assert.True(t, cfg.RedisTLS)
	assert.Equal(t, []string{"https://spa.example", "https://admin.example"}, cfg.CORSAllowedOrigins)
}

func TestWindowValidation(t *testing.T) {
	cfg := Load()
	w, err := cfg.Window()
	require.NoError(t, err)
	assert.Equal(t, 600, w.Length())

	cfg.DayEndMinutes = cfg.DayStartMinutes - 60
	_, err = cfg.Window()
	assert.Error(t, err)
}
