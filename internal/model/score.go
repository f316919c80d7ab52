package model

import "encoding/json"

// ScoreSnapshot is the final score reported by the server at game end
type ScoreSnapshot struct {
	Player1    int    `json:"player1"`
	Player2    int    `json:"player2"`
	Sweeps     [2]int `json:"sweeps"`
	CardsTaken [2]int `json:"cards_taken"`
	CoinsTaken [2]int `json:"coins_taken"`
}

// ZeroScore is substituted when the server ends a game without a score.
// It only affects what the client displays.
func ZeroScore() ScoreSnapshot {
	return ScoreSnapshot{}
}

// UnmarshalJSON accepts the current keys as well as the older client keys
// (scope, carte_p1/2, denari_p1/2) still found in persisted snapshots.
func (s *ScoreSnapshot) UnmarshalJSON(data []byte) error {
	var raw struct {
		Player1    int     `json:"player1"`
		Player2    int     `json:"player2"`
		Sweeps     *[2]int `json:"sweeps"`
		CardsTaken *[2]int `json:"cards_taken"`
		CoinsTaken *[2]int `json:"coins_taken"`

		Scope    *[2]int `json:"scope"`
		CarteP1  int     `json:"carte_p1"`
		CarteP2  int     `json:"carte_p2"`
		DenariP1 int     `json:"denari_p1"`
		DenariP2 int     `json:"denari_p2"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = ScoreSnapshot{Player1: raw.Player1, Player2: raw.Player2}

	switch {
	case raw.Sweeps != nil:
		s.Sweeps = *raw.Sweeps
	case raw.Scope != nil:
		s.Sweeps = *raw.Scope
	}

	if raw.CardsTaken != nil {
		s.CardsTaken = *raw.CardsTaken
	} else {
		s.CardsTaken = [2]int{raw.CarteP1, raw.CarteP2}
	}

	if raw.CoinsTaken != nil {
		s.CoinsTaken = *raw.CoinsTaken
	} else {
		s.CoinsTaken = [2]int{raw.DenariP1, raw.DenariP2}
	}

	return nil
}
