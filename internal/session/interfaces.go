package session

import (
	"context"

	"github.com/mcoot/scopa-go/internal/client"
	"github.com/mcoot/scopa-go/internal/model"
)

// GameAPI is the slice of the server contract a session needs
type GameAPI interface {
	CreateGame(ctx context.Context, player model.PlayerIdentity) (int, error)
	JoinGame(ctx context.Context, gameID int, player model.PlayerIdentity) (int, error)
	GetState(ctx context.Context, gameID int, player model.PlayerIdentity) (*client.StateResponse, error)
	Play(ctx context.Context, gameID int, player model.PlayerIdentity, handIndex int) error
}

var _ GameAPI = (*client.Client)(nil)

// View receives everything the session wants shown. Calls are made from the
// session loop goroutine only, one at a time.
type View interface {
	// ShowGameID displays the id a second player should join
	ShowGameID(handle model.SessionHandle)
	// ShowWaiting displays only the players indicator
	ShowWaiting(playersCount int)
	// Render replaces the whole board with state
	Render(state model.GameStateView)
	// Notice shows a non-blocking message
	Notice(msg string)
	// ShowTerminal shows a message after which the board no longer changes
	ShowTerminal(msg string)
	// ShowResults hands off to the results view
	ShowResults(score model.ScoreSnapshot)
}
