package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger(t *testing.T) {
	logger, sugar, err := InitLogger()

	assert.NoError(t, err)
	assert.NotNil(t, logger)
	assert.NotNil(t, sugar)
}

func TestInitConfig(t *testing.T) {
	_, sugar, err := InitLogger()
	require.NoError(t, err)

	cfg, err := InitConfig(sugar)

	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "app.main:app", cfg.Server.App)
	assert.NotEmpty(t, cfg.Upstream.BaseURL)
}

func TestInitConfig_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	_, sugar, err := InitLogger()
	require.NoError(t, err)

	_, err = InitConfig(sugar)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
}
