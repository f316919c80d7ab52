package session

import (
	"context"
	"log/slog"

	"github.com/mcoot/scopa-go/internal/model"
)

// terminate persists the final score and hands off to the results view.
// The loop returns right after, so it runs at most once per session.
func (c *Controller) terminate(ctx context.Context, state model.GameStateView) Outcome {
	score := model.ZeroScore()
	if state.FinalScore != nil {
		score = *state.FinalScore
	} else {
		c.logger.Warn("game over without a score, saving zero score")
	}

	gameID := c.handle.GameID
	c.teardown()

	// Saved even when the caller is going away
	if err := c.store.SaveFinalScore(context.WithoutCancel(ctx), score); err != nil {
		c.logger.Error("failed to save final score",
			slog.Int("game_id", gameID),
			slog.String("error", err.Error()),
		)
	}

	c.metrics.SessionsEnded.WithLabelValues(string(OutcomeEnded)).Inc()
	c.logger.Info("game over",
		slog.Int("game_id", gameID),
		slog.Int("player1", score.Player1),
		slog.Int("player2", score.Player2),
	)

	c.safely("terminal", func() { c.view.ShowTerminal(MsgGameOver) })

	select {
	case <-c.clock.After(c.cfg.HandoffDelay):
		c.safely("results", func() { c.view.ShowResults(score) })
	case <-ctx.Done():
	}

	return Outcome{Reason: OutcomeEnded, Score: &score}
}
