package model

// Phase classifies one poll of the remote state
type Phase string

const (
	PhaseWaiting  Phase = "WAITING"
	PhaseActive   Phase = "ACTIVE"
	PhaseNotFound Phase = "NOT_FOUND"
)

// MaxPlayers is the number of seats in a match
const MaxPlayers = 2

// GameStateView is the client-visible projection of the server state for one poll.
//
// Hand is positional: the index of a card is what gets sent when playing it, so the
// slice must be kept exactly as the server ordered it.
type GameStateView struct {
	Phase              Phase          `json:"phase"`
	PlayersCount       int            `json:"players_count"`
	YourTurn           bool           `json:"your_turn"`
	Table              []Card         `json:"table"`
	Hand               []Card         `json:"hand"`
	OpponentHandSize   int            `json:"opponent_hand_size"`
	PlayerTakenCount   int            `json:"player_taken_count"`
	OpponentTakenCount int            `json:"opponent_taken_count"`
	PlayerSweeps       int            `json:"player_sweeps"`
	OpponentSweeps     int            `json:"opponent_sweeps"`
	IsOver             bool           `json:"is_over"`
	FinalScore         *ScoreSnapshot `json:"final_score,omitempty"`
}

// OpponentHand returns the concealed opponent hand as hidden sentinels
func (v GameStateView) OpponentHand() []Card {
	return HiddenCards(v.OpponentHandSize)
}

// HasHandIndex reports whether idx addresses a card in the current hand
func (v GameStateView) HasHandIndex(idx int) bool {
	return idx >= 0 && idx < len(v.Hand)
}
