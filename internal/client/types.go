package client

import (
	"encoding/json"

	"github.com/mcoot/scopa-go/internal/model"
)

// PlayerRequest is the body of create and join
type PlayerRequest struct {
	PlayerID string `json:"player_id"`
}

// GameResponse is returned by create and join
type GameResponse struct {
	GameID int  `json:"game_id"`
	Joined bool `json:"joined,omitempty"`
}

// StateResponse is the body of GET /state. It comes in two forms: the waiting
// form ({waiting, players_count}) before the second player joins, and the full form.
// Cards are kept raw so their shape can be classified by the cards package.
type StateResponse struct {
	Waiting      bool `json:"waiting"`
	PlayersCount int  `json:"players_count"`

	YourTurn         bool                 `json:"your_turn"`
	Table            []json.RawMessage    `json:"table"`
	Hand             []json.RawMessage    `json:"hand"`
	OpponentHandSize int                  `json:"opponent_hand_size"`
	PlayerTaken      []json.RawMessage    `json:"player_taken"`
	OpponentTaken    []json.RawMessage    `json:"opponent_taken"`
	Scopa            int                  `json:"scopa"`
	OpponentScopa    int                  `json:"opponent_scopa"`
	GameOver         bool                 `json:"game_over"`
	Score            *model.ScoreSnapshot `json:"score"`
	PlayerIndex      int                  `json:"player_index"`
	Timestamp        float64              `json:"timestamp"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status     string         `json:"status"`
	GamesCount int            `json:"games_count"`
	NextGameID int            `json:"next_game_id"`
	ActiveWS   map[string]int `json:"active_ws"`
}
