package storage

import (
	"context"

	"github.com/mcoot/scopa-go/internal/model"
)

// Well-known keys shared by every backend, and by the results view
const (
	KeyPlayerID        = "player_id"
	KeyUsername        = "username"
	KeyPreferredGameID = "preferred_game_id"
	KeyLastGameScore   = "lastGameScore"
)

// Storage is the client's persistent key-value store. It outlives a session:
// the identity stays for the lifetime of the profile, the preferred game id and
// the final score are each consumed once.
type Storage interface {
	// Identity operations
	GetPlayerIdentity(ctx context.Context) (model.PlayerIdentity, error)
	SavePlayerIdentity(ctx context.Context, id model.PlayerIdentity) error
	GetUsername(ctx context.Context) (string, error)
	SaveUsername(ctx context.Context, name string) error

	// Preferred game operations. Take reads and clears; "" when unset.
	SavePreferredGameID(ctx context.Context, raw string) error
	TakePreferredGameID(ctx context.Context) (string, error)

	// Final score operations. Take reads and clears.
	SaveFinalScore(ctx context.Context, score model.ScoreSnapshot) error
	TakeFinalScore(ctx context.Context) (*model.ScoreSnapshot, error)
}
