package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Profile namespaces the keys so several players can share one Redis
	Profile string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// TTL settings. Zero means no expiry. The identity never expires.
	PreferredGameTTL time.Duration
	FinalScoreTTL    time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:              "redis://localhost:6379",
		Profile:          "default",
		PoolSize:         4,
		MinIdleConns:     1,
		PreferredGameTTL: time.Hour,
		FinalScoreTTL:    24 * time.Hour,
	}
}
