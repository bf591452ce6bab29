package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, "static", cfg.LLM.Provider)
	assert.Equal(t, 5*time.Second, cfg.SOS.Interval)
	assert.Equal(t, 3, cfg.SOS.DisplayCap)
	assert.Equal(t, 1500*time.Millisecond, cfg.SOS.AlertDelay)
	assert.Equal(t, 3*time.Second, cfg.SOS.DisguiseDelay)
	assert.True(t, cfg.Search.Enabled)
	assert.NotNil(t, cfg.WebSocket)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("STORE_TYPE", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("SOS_INTERVAL", "250")
	t.Setenv("SOS_DISPLAY_CAP", "0")
	t.Setenv("SOS_DISGUISE_DELAY", "1s")
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("SEARCH_ENABLED", "false")

	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "redis", cfg.Store.Type)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.SOS.Interval)
	assert.Equal(t, 0, cfg.SOS.DisplayCap, "an explicit zero cap is kept")
	assert.Equal(t, time.Second, cfg.SOS.DisguiseDelay)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.False(t, cfg.Search.Enabled)
}

func TestLoadSetsGlobal(t *testing.T) {
	t.Setenv("APP_ENV", "test-missing")
	GlobalConfig = nil
	assert.NoError(t, Load())
	assert.NotNil(t, GlobalConfig)
}
