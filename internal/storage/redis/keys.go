package redis

import "fmt"

// Key prefix for all client data
const keyPrefix = "scopa"

// profileKey returns the Redis key for a well-known storage key within a profile
func profileKey(profile, key string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, profile, key)
}
