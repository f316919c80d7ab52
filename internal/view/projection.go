package view

import (
	"fmt"
	"strings"

	"github.com/mcoot/scopa-go/internal/cards"
	"github.com/mcoot/scopa-go/internal/model"
)

// Status lines
const (
	StatusYourTurn     = "Your turn!"
	StatusOpponentTurn = "Opponent's turn"
)

// Slot is one card position on the board
type Slot struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Image string `json:"image"`
	// Playable is set on hand slots while it is the player's turn
	Playable bool `json:"playable,omitempty"`
}

// Board is the full projection of one state. Building it twice from the same
// state gives equal boards; rendering replaces the previous board entirely.
type Board struct {
	Phase          model.Phase `json:"phase"`
	Status         string      `json:"status"`
	Table          []Slot      `json:"table"`
	Hand           []Slot      `json:"hand"`
	Opponent       []Slot      `json:"opponent"`
	PlayerTaken    int         `json:"player_taken"`
	OpponentTaken  int         `json:"opponent_taken"`
	PlayerSweeps   int         `json:"player_sweeps"`
	OpponentSweeps int         `json:"opponent_sweeps"`
}

// WaitingStatus is the players indicator shown before the match starts
func WaitingStatus(playersCount int) string {
	return fmt.Sprintf("Waiting for the second player... (%d/%d)", playersCount, model.MaxPlayers)
}

// Project builds the board for state
func Project(state model.GameStateView, cat *cards.Catalog) Board {
	if state.Phase == model.PhaseWaiting {
		return Board{
			Phase:    state.Phase,
			Status:   WaitingStatus(state.PlayersCount),
			Table:    []Slot{},
			Hand:     []Slot{},
			Opponent: []Slot{},
		}
	}

	status := StatusOpponentTurn
	if state.YourTurn {
		status = StatusYourTurn
	}

	hand := slots(state.Hand, cat)
	for i := range hand {
		hand[i].Playable = state.YourTurn
	}

	return Board{
		Phase:          state.Phase,
		Status:         status,
		Table:          slots(state.Table, cat),
		Hand:           hand,
		Opponent:       slots(state.OpponentHand(), cat),
		PlayerTaken:    state.PlayerTakenCount,
		OpponentTaken:  state.OpponentTakenCount,
		PlayerSweeps:   state.PlayerSweeps,
		OpponentSweeps: state.OpponentSweeps,
	}
}

func slots(cs []model.Card, cat *cards.Catalog) []Slot {
	out := make([]Slot, len(cs))
	for i, c := range cs {
		out[i] = Slot{Index: i, Label: c.String(), Image: cat.CardImage(c)}
	}
	return out
}

// Text renders the board as a terminal frame
func (b Board) Text() string {
	var sb strings.Builder

	sb.WriteString(b.Status)
	sb.WriteString("\n")
	if b.Phase == model.PhaseWaiting {
		return sb.String()
	}

	fmt.Fprintf(&sb, "\nOpponent: %s\n", labels(b.Opponent, false))
	fmt.Fprintf(&sb, "Table:    %s\n", labels(b.Table, false))
	fmt.Fprintf(&sb, "Hand:     %s\n", labels(b.Hand, true))
	fmt.Fprintf(&sb, "\nTaken: %d (opponent %d)   Scope: %d (opponent %d)\n",
		b.PlayerTaken, b.OpponentTaken, b.PlayerSweeps, b.OpponentSweeps)

	return sb.String()
}

func labels(ss []Slot, indexed bool) string {
	if len(ss) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(ss))
	for i, s := range ss {
		if indexed {
			parts[i] = fmt.Sprintf("[%d] %s", s.Index, s.Label)
		} else {
			parts[i] = s.Label
		}
	}
	return strings.Join(parts, "  ")
}
