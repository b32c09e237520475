package bird

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	pkgerrs "github.com/birdcli/bird/pkg/errors"
)

const (
	// DefaultBaseURL is the JSON API host.
	DefaultBaseURL = "https://www.reddit.com"
	// DefaultTimeout is the per-request deadline when the caller's context
	// carries none.
	DefaultTimeout = 30 * time.Second
	// defaultStateDirName is the directory under the user config dir holding
	// the persisted identity and cookie jar.
	defaultStateDirName = "bird-reddit"
)

// Config holds the session layer configuration. The only required field is
// RedditSession, the session cookie copied from a logged-in browser; the
// client never negotiates or refreshes this credential itself.
type Config struct {
	// RedditSession is the reddit_session cookie value. Required.
	RedditSession string `env:"REDDIT_SESSION"`

	// NoJitter disables the randomized delay before writes.
	NoJitter bool `env:"BIRD_NO_JITTER"`

	// Timeout is the per-request deadline.
	Timeout time.Duration `env:"BIRD_TIMEOUT" envDefault:"30s"`

	// BaseURL overrides the API host, used by tests.
	BaseURL string `env:"BIRD_BASE_URL"`

	// StateDir overrides where identity and cookies are persisted.
	// Defaults to <user config dir>/bird-reddit.
	StateDir string `env:"BIRD_STATE_DIR"`

	// RateLowWater is the remaining-budget threshold below which requests
	// pause until the reported reset.
	RateLowWater float64 `env:"BIRD_RATE_LOW_WATER" envDefault:"5"`

	// JitterMin and JitterMax bound the pre-write delay window.
	JitterMin time.Duration `env:"BIRD_JITTER_MIN" envDefault:"2s"`
	JitterMax time.Duration `env:"BIRD_JITTER_MAX" envDefault:"5s"`

	// Logger for structured diagnostics. Optional.
	Logger *slog.Logger `env:"-"`
}

// LoadConfig resolves configuration from the environment, consulting a .env
// file found by walking up from the working directory.
func LoadConfig() (*Config, error) {
	if path := findEnvFile(); path != "" {
		// Existing environment variables win over .env contents.
		_ = godotenv.Load(path)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, &pkgerrs.ConfigError{Message: err.Error()}
	}
	return cfg, nil
}

// findEnvFile searches the working directory and its parents for a .env file.
func findEnvFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ".env")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// defaultStateDir returns the platform config location for persisted state.
func defaultStateDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return defaultStateDirName
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, defaultStateDirName)
}
