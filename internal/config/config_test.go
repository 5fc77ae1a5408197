package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmindai/voicematch/internal/config"
)

func TestLoadRequiresBotTokenAndDatabaseURL(t *testing.T) {
	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadAppliesDefaults(t *testing.T) {
	os.Setenv("VOICEMATCH_BOT_TOKEN", "test-token")
	os.Setenv("VOICEMATCH_DATABASE_URL", "postgres://localhost/voicematch")
	defer os.Unsetenv("VOICEMATCH_BOT_TOKEN")
	defer os.Unsetenv("VOICEMATCH_DATABASE_URL")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 4, cfg.WorkerPoolSize)
	assert.Equal(t, "voicematch.events", cfg.KafkaTopic)
	assert.Equal(t, "info", cfg.LogLevel)
}
