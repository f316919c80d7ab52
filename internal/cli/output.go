package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/mcoot/scopa-go/internal/client"
	"github.com/mcoot/scopa-go/internal/model"
	"github.com/mcoot/scopa-go/internal/view"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case GameResult:
		o.printGameResult(v)
	case IdentityResult:
		o.printIdentity(v)
	case StateResult:
		fmt.Fprintf(o.w, "Game: %d\n%s", v.GameID, v.board)
	case MoveResult:
		fmt.Fprintf(o.w, "Played card %d in game %d\n", v.HandIndex, v.GameID)
	case model.ScoreSnapshot:
		fmt.Fprint(o.w, view.ResultsText(v))
	case *client.HealthResponse:
		o.printHealth(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// GameResult is printed by create and join
type GameResult struct {
	GameID   int    `json:"game_id"`
	PlayerID string `json:"player_id"`
	Invite   string `json:"invite,omitempty"`
	QRPath   string `json:"qr_path,omitempty"`
}

// IdentityResult is printed by identity
type IdentityResult struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username,omitempty"`
}

// StateResult is printed by state
type StateResult struct {
	GameID int                 `json:"game_id"`
	State  model.GameStateView `json:"state"`
	board  string
}

// MoveResult is printed by move
type MoveResult struct {
	GameID    int  `json:"game_id"`
	HandIndex int  `json:"hand_index"`
	Accepted  bool `json:"accepted"`
}

func (o *Output) printGameResult(g GameResult) {
	fmt.Fprintf(o.w, "Game ID: %d\n", g.GameID)
	fmt.Fprintf(o.w, "Player: %s\n", g.PlayerID)
	if g.Invite != "" {
		fmt.Fprintf(o.w, "Invite: %s\n", g.Invite)
	}
	if g.QRPath != "" {
		fmt.Fprintf(o.w, "QR code: %s\n", g.QRPath)
	}
}

func (o *Output) printIdentity(i IdentityResult) {
	fmt.Fprintf(o.w, "Player ID: %s\n", i.PlayerID)
	if i.Username != "" {
		fmt.Fprintf(o.w, "Username: %s\n", i.Username)
	}
}

func (o *Output) printHealth(h *client.HealthResponse) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Games: %d\n", h.GamesCount)
	fmt.Fprintf(o.w, "Next game ID: %d\n", h.NextGameID)
	if len(h.ActiveWS) == 0 {
		return
	}

	ids := make([]string, 0, len(h.ActiveWS))
	for id := range h.ActiveWS {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	fmt.Fprintln(o.w, "Active sockets:")
	for _, id := range ids {
		fmt.Fprintf(o.w, "  game %s: %d\n", id, h.ActiveWS[id])
	}
}

func newOutput(w io.Writer) *Output {
	return NewOutput(cfg.Output, w)
}
