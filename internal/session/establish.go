package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/scopa-go/internal/client"
	"github.com/mcoot/scopa-go/internal/metrics"
	"github.com/mcoot/scopa-go/internal/model"
)

// Establish resolves the session handle. A preferred game id left in storage
// is consumed and joined; otherwise a new game is created. A failed join falls
// back to create at most cfg.MaxJoinFallbacks times.
func (c *Controller) Establish(ctx context.Context) (model.SessionHandle, error) {
	if c.ended {
		return model.SessionHandle{}, model.ErrSessionEnded
	}
	if c.handle != nil {
		return *c.handle, nil
	}

	raw, err := c.store.TakePreferredGameID(ctx)
	if err != nil {
		c.logger.Warn("failed to read preferred game id", slog.String("error", err.Error()))
		raw = ""
	}

	fallbacks := 0
	for {
		target, join := model.ParseGameID(raw)

		var (
			gameID int
			mode   = metrics.ModeCreate
		)
		if join {
			mode = metrics.ModeJoin
			gameID, err = c.api.JoinGame(ctx, target, c.player)
		} else {
			gameID, err = c.api.CreateGame(ctx, c.player)
		}

		if err == nil {
			handle := model.SessionHandle{GameID: gameID, Player: c.player}
			c.handle = &handle
			c.metrics.SessionsEstablished.WithLabelValues(mode).Inc()
			c.logger.Info("session established",
				slog.String("mode", mode),
				slog.Int("game_id", gameID),
			)
			c.safely("show_game_id", func() { c.view.ShowGameID(handle) })
			return handle, nil
		}

		if !join || fallbacks >= c.cfg.MaxJoinFallbacks || errors.Is(err, context.Canceled) {
			c.logger.Error("failed to establish session",
				slog.String("mode", mode),
				slog.String("error", err.Error()),
			)
			return model.SessionHandle{}, fmt.Errorf("%w: %w", model.ErrEstablishFailed, err)
		}

		// The stale target is already gone from storage; drop it here too
		fallbacks++
		raw = ""

		reason := client.Reason(err)
		c.metrics.JoinFallbacks.Inc()
		c.logger.Warn("join failed, creating a new game",
			slog.Int("game_id", target),
			slog.String("reason", reason),
		)
		c.safely("notice", func() {
			c.view.Notice(fmt.Sprintf("Could not join game %d: %s", target, reason))
		})
	}
}
