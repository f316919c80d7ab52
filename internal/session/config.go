package session

import (
	"time"

	"golang.org/x/time/rate"
)

// Config holds the timing and retry policy of a session
type Config struct {
	// PollInterval is the period of the state refresh
	PollInterval time.Duration
	// PushFallbackInterval is the refresh period while a push socket is open
	PushFallbackInterval time.Duration
	// PushRate and PushBurst throttle refreshes requested by pushed messages
	PushRate  rate.Limit
	PushBurst int
	// SettleDelay is the pause between an accepted move and the forced refresh
	SettleDelay time.Duration
	// HandoffDelay is the pause between the game over message and the results
	HandoffDelay time.Duration
	// MaxJoinFallbacks bounds how many failed joins may fall back to create
	MaxJoinFallbacks int
	// MoveQueueSize is how many move requests may wait for the loop
	MoveQueueSize int
}

// DefaultConfig returns the default session policy
func DefaultConfig() Config {
	return Config{
		PollInterval:         1200 * time.Millisecond,
		PushFallbackInterval: 5 * time.Second,
		PushRate:             rate.Every(250 * time.Millisecond),
		PushBurst:            2,
		SettleDelay:          400 * time.Millisecond,
		HandoffDelay:         2 * time.Second,
		MaxJoinFallbacks:     1,
		MoveQueueSize:        4,
	}
}
