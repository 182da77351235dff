package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig is the process configuration, read from the environment once at
// startup.
type AppConfig struct {
	// Bind is the listen address of the HTTP server.
	Bind string

	// RedisURL enables the still-image cache when non-empty.
	RedisURL string
	// CacheTTL bounds how long a cached still image is served.
	CacheTTL time.Duration

	// MaxFrames caps the number of frames accepted per animation request.
	MaxFrames int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Bind:      "0.0.0.0:6175",
		CacheTTL:  time.Hour,
		MaxFrames: 600,
	}

	if v := strings.TrimSpace(os.Getenv("BIND")); v != "" {
		cfg.Bind = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	if v := strings.TrimSpace(os.Getenv("CACHE_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil && d > 0 {
			cfg.CacheTTL = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("MAX_FRAMES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxFrames = n
		}
	}

	return cfg, nil
}
