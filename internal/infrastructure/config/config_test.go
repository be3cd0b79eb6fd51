package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DOCKER_MANAGER_DEMO_MODE", "true")
	t.Setenv("DOCKER_MANAGER_RETRY_DELAY", "5s")
	t.Setenv("DOCKER_MANAGER_FIXTURES_DIR", "/tmp/fixtures")
	t.Setenv("DOCKER_HTTP_TIMEOUT", "2s")
	t.Setenv("DOCKER_HTTP_RATE_LIMIT", "12.5")
	t.Setenv("DOCKER_HTTP_DEFAULT_HEADERS", "Accept:application/json,X-Client:cli")
	t.Setenv("DOCKER_LOG_LEVEL", "debug")
	t.Setenv("DOCKER_MOCK_ADDR", ":9090")
	t.Setenv("DOCKER_MOCK_RATE_LIMIT", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Manager.DemoMode)
	assert.Equal(t, 5*time.Second, cfg.Manager.RetryDelay)
	assert.Equal(t, "/tmp/fixtures", cfg.Manager.FixturesDir)
	assert.Equal(t, 2*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 12.5, cfg.HTTP.RateLimit)
	assert.Equal(t, map[string]string{"Accept": "application/json", "X-Client": "cli"}, cfg.HTTP.DefaultHeaders)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ":9090", cfg.MockServer.Addr)
	assert.Equal(t, 50.0, cfg.MockServer.RateLimit)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"negative retries", "DOCKER_HTTP_MAX_RETRIES", "-1"},
		{"negative rate", "DOCKER_HTTP_RATE_LIMIT", "-3"},
		{"inverted wait", "DOCKER_HTTP_RETRY_WAIT_MIN", "1m"},
		{"unparsable duration", "DOCKER_HTTP_TIMEOUT", "soon"},
		{"negative mock burst", "DOCKER_MOCK_BURST", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
			assert.Equal(t, Default(), LoadOrDefault())
		})
	}
}
