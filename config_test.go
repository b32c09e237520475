package bird

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("REDDIT_SESSION", "cookie-value")
	t.Setenv("BIRD_NO_JITTER", "true")
	t.Setenv("BIRD_TIMEOUT", "10s")
	t.Setenv("BIRD_RATE_LOW_WATER", "7.5")
	t.Setenv("BIRD_JITTER_MIN", "1s")
	t.Setenv("BIRD_JITTER_MAX", "3s")
	t.Setenv("BIRD_STATE_DIR", "/tmp/bird-test-state")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "cookie-value", cfg.RedditSession)
	assert.True(t, cfg.NoJitter)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 7.5, cfg.RateLowWater)
	assert.Equal(t, time.Second, cfg.JitterMin)
	assert.Equal(t, 3*time.Second, cfg.JitterMax)
	assert.Equal(t, "/tmp/bird-test-state", cfg.StateDir)
}

// unsetenv clears a variable for the test and restores it afterwards.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "") // registers restoration
	os.Unsetenv(key)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("REDDIT_SESSION", "cookie-value")
	for _, key := range []string{
		"BIRD_NO_JITTER", "BIRD_TIMEOUT", "BIRD_RATE_LOW_WATER",
		"BIRD_JITTER_MIN", "BIRD_JITTER_MAX",
	} {
		unsetenv(t, key)
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.False(t, cfg.NoJitter)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, 5.0, cfg.RateLowWater)
	assert.Equal(t, 2*time.Second, cfg.JitterMin)
	assert.Equal(t, 5*time.Second, cfg.JitterMax)
}
