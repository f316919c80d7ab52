package model

import "strconv"

// PlayerIdentity is the opaque token identifying this client to the server.
// Generated once and kept in client storage.
type PlayerIdentity string

// SessionHandle ties a game on the server to the local player
type SessionHandle struct {
	GameID int            `json:"game_id"`
	Player PlayerIdentity `json:"player_id"`
}

// ParseGameID parses a user-entered game identifier. Only positive integers are accepted.
func ParseGameID(raw string) (int, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
