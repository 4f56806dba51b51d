package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultLocator, cfg.Server.App)
	assert.Equal(t, "0.0.0.0:8000", cfg.ListenAddr())
	assert.Equal(t, []string{"*"}, cfg.API.AllowedOrigins)
	assert.Equal(t, 60*time.Second, cfg.Upstream.TranscribeTimeout)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoadConfig_PortFromEnv(t *testing.T) {
	t.Setenv("PORT", "3000")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:3000", cfg.ListenAddr())
}

func TestLoadConfig_InvalidPort(t *testing.T) {
	tests := []struct {
		name string
		port string
	}{
		{"non-numeric", "eighty"},
		{"out of range high", "70000"},
		{"zero", "0"},
		{"negative", "-1"},
		{"trailing garbage", "8000x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PORT", tt.port)

			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "PORT")
		})
	}
}

func TestLoadConfig_UpstreamFromEnv(t *testing.T) {
	t.Setenv("AI_BUILDER_TOKEN", "test-token")
	t.Setenv("AI_BUILDER_API_BASE", "https://upstream.example.com")
	t.Setenv("LLM_MODEL", "test-model")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "test-token", cfg.Upstream.Token)
	assert.Equal(t, "https://upstream.example.com", cfg.Upstream.BaseURL)
	assert.Equal(t, "test-model", cfg.Upstream.Model)
}

func TestLoadConfig_PrefixedEnvWinsOverShortName(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("TIMELINE_SERVER_PORT", "4000")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Server.Port)
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadConfig()
		require.NoError(t, err)
		return cfg
	}

	t.Run("empty app locator", func(t *testing.T) {
		cfg := base()
		cfg.Server.App = ""
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("bad upstream URL", func(t *testing.T) {
		cfg := base()
		cfg.Upstream.BaseURL = "not a url"
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("non-positive audio limit", func(t *testing.T) {
		cfg := base()
		cfg.API.MaxAudioBytes = 0
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("cache enabled with zero size", func(t *testing.T) {
		cfg := base()
		cfg.Cache.Enabled = true
		cfg.Cache.Size = 0
		assert.Error(t, validateConfig(cfg))
	})
}
